package valsem

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEquals_Point tests structural equality of a registered struct
func TestEquals_Point(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[point]()))

	assert.True(t, r.Equals(point{X: 1, Y: 2}, point{X: 1, Y: 2}))
	assert.False(t, r.Equals(point{X: 1, Y: 2}, point{X: 1, Y: 3}))
	assert.True(t, r.Equals(&point{X: 1, Y: 2}, &point{X: 1, Y: 2}))
}

// TestEquals_Atomic tests scalar comparisons
func TestEquals_Atomic(t *testing.T) {
	x := 5
	var nilFn func()
	fn := func() {}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and zero", nil, 0, false},
		{"same int", 3, 3, true},
		{"different int", 3, 4, false},
		{"different types", int32(3), int64(3), false},
		{"NaN equals NaN", math.NaN(), math.NaN(), true},
		{"NaN and number", math.NaN(), 1.0, false},
		{"signed zeros", 0.0, math.Copysign(0, -1), true},
		{"complex NaN", complex(math.NaN(), 1), complex(math.NaN(), 1), true},
		{"strings", "a", "a", true},
		{"wrapped primitive", 5, &x, true},
		{"wrapped primitive reversed", &x, 5, true},
		{"wrapped primitive different value", 6, &x, false},
		{"wrapped primitive different type", int64(5), &x, false},
		{"nil funcs", nilFn, nilFn, true},
		{"func and nil", fn, nilFn, false},
		{"same func", fn, fn, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equals(tt.a, tt.b))
		})
	}
}

// TestEquals_Collections tests slices, arrays, maps and sets
func TestEquals_Collections(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil slice and empty slice", []int(nil), []int{}, false},
		{"nil map and empty map", map[string]int(nil), map[string]int{}, false},
		{"slices in order", []int{1, 2}, []int{1, 2}, true},
		{"slices out of order", []int{1, 2}, []int{2, 1}, false},
		{"slices of different length", []int{1}, []int{1, 2}, false},
		{"byte slices", []byte("abc"), []byte("abc"), true},
		{"byte slices differ", []byte("abc"), []byte("abd"), false},
		{"arrays", [2]string{"a", "b"}, [2]string{"a", "b"}, true},
		{"maps", map[int]string{1: "a", 2: "b"}, map[int]string{2: "b", 1: "a"}, true},
		{"maps with different values", map[int]string{1: "a"}, map[int]string{1: "b"}, false},
		{"maps with different keys", map[int]string{1: "a"}, map[int]string{2: "a"}, false},
		{"maps of different size", map[int]string{1: "a"}, map[int]string{1: "a", 2: "b"}, false},
		{"sets", map[string]struct{}{"a": {}, "b": {}}, map[string]struct{}{"b": {}, "a": {}}, true},
		{"sets differ", map[string]struct{}{"a": {}}, map[string]struct{}{"b": {}}, false},
		{"sets of pointers by value", map[*point]struct{}{{X: 1}: {}}, map[*point]struct{}{{X: 1}: {}}, true},
		{"maps keyed by pointers", map[*point]string{{X: 1}: "a"}, map[*point]string{{X: 1}: "a"}, true},
		{"maps keyed by pointers differ", map[*point]string{{X: 1}: "a"}, map[*point]string{{X: 1}: "b"}, false},
		{"maps with NaN keys", map[float64]int{math.NaN(): 1}, map[float64]int{math.NaN(): 1}, true},
		{"nested", map[string][]point{"a": {{X: 1}}}, map[string][]point{"a": {{X: 1}}}, true},
		{"nested differ", map[string][]point{"a": {{X: 1}}}, map[string][]point{"a": {{X: 2}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equals(tt.a, tt.b))
			assert.Equal(t, tt.want, Equals(tt.b, tt.a), "symmetry")
		})
	}
}

// TestEquals_MapsWithEqualKeys tests maps whose keys are value-equal but not identical
func TestEquals_MapsWithEqualKeys(t *testing.T) {
	one := func() *int { v := 1; return &v }
	two := func() *int { v := 2; return &v }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"values swapped between equal keys", map[*int]string{one(): "x", one(): "y"}, map[*int]string{one(): "y", one(): "x"}, true},
		{"one value missing", map[*int]string{one(): "x", one(): "x"}, map[*int]string{one(): "x", one(): "y"}, false},
		{"set with a repeated element", map[*int]struct{}{one(): {}, one(): {}}, map[*int]struct{}{one(): {}, two(): {}}, false},
		{"sets of equal elements", map[*int]struct{}{one(): {}, two(): {}}, map[*int]struct{}{two(): {}, one(): {}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 50 {
				require.Equal(t, tt.want, Equals(tt.a, tt.b))
				require.Equal(t, tt.want, Equals(tt.b, tt.a), "symmetry")
			}
		})
	}
}

// TestEquals_ExactTypes tests that structurally identical values of different types differ
func TestEquals_ExactTypes(t *testing.T) {
	type otherPoint struct {
		X, Y int
	}

	assert.False(t, Equals(point{X: 1}, otherPoint{X: 1}))
	assert.False(t, Equals([]int{1}, [1]int{1}))
	assert.False(t, Equals(point{}, &point{}))
}

// TestEquals_Channels tests that channels compare by identity
func TestEquals_Channels(t *testing.T) {
	ch := make(chan int)

	assert.True(t, Equals(ch, ch))
	assert.False(t, Equals(ch, make(chan int)))
}

// TestEquals_UnexportedFields tests that unexported fields take part in the comparison
func TestEquals_UnexportedFields(t *testing.T) {
	assert.True(t, Equals(secret{key: "a"}, secret{key: "a"}))
	assert.False(t, Equals(secret{key: "a"}, secret{key: "b"}))
	assert.False(t, Equals(&account{cache: map[string]int{"a": 1}}, &account{}))
}

// TestEquals_Cycles tests that cyclic graphs compare without looping
func TestEquals_Cycles(t *testing.T) {
	loop := func(name string) *node {
		n := &node{Name: name}
		n.Next = n
		return n
	}

	assert.True(t, Equals(loop("a"), loop("a")))
	assert.False(t, Equals(loop("a"), loop("b")))

	a, b := &node{Name: "x"}, &node{Name: "y"}
	a.Next, b.Next = b, a
	c, d := &node{Name: "x"}, &node{Name: "y"}
	c.Next, d.Next = d, c
	assert.True(t, Equals(a, c))
	assert.False(t, Equals(a, d))

	s := make([]any, 1)
	s[0] = s
	u := make([]any, 1)
	u[0] = u
	assert.True(t, Equals(s, u))
}

// TestEquals_ReferenceOnly tests ReferenceEquality on a lifted entry
func TestEquals_ReferenceOnly(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[node](), ReferenceEquality()))

	n := &node{Name: "a"}
	assert.True(t, r.Equals(n, n))
	assert.False(t, r.Equals(n, &node{Name: "a"}))
	assert.True(t, r.Equals([]*node{n}, []*node{n}))
	assert.False(t, r.Equals([]*node{n}, []*node{{Name: "a"}}))
}

// TestEquals_FieldPolicy tests that excluded fields are ignored
func TestEquals_FieldPolicy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[account](), EqualsExcludeFields("cache")))

	a := &account{ID: 1, cache: map[string]int{"a": 1}}
	b := &account{ID: 1}
	assert.True(t, r.Equals(a, b))
	assert.False(t, r.Equals(a, &account{ID: 2}))

	only := NewRegistry()
	require.NoError(t, only.Register(reflect.TypeFor[account](), WithFieldDefault(FieldExclude), IncludeFields("ID")))
	assert.True(t, only.Equals(&account{ID: 1, Balance: 5}, &account{ID: 1, Balance: 6}))
}

// TestEquals_CustomFunction tests an equality function on a lifted entry
func TestEquals_CustomFunction(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[tag](), EqualsWith(func(_ *Comparer, a, b tag) bool {
		return strings.EqualFold(a.Name, b.Name)
	})))

	assert.True(t, r.Equals(tag{Name: "Go"}, tag{Name: "go"}))
	assert.True(t, r.Equals(&tag{Name: "Go"}, &tag{Name: "GO"}))
	assert.True(t, r.Equals([]tag{{Name: "a"}}, []tag{{Name: "A"}}))
	assert.False(t, r.Equals(tag{Name: "Go"}, tag{Name: "Rust"}))
	assert.False(t, r.Equals(tag{Name: "Go"}, &tag{Name: "go"}))
	assert.False(t, r.Equals(&tag{Name: "Go"}, tag{Name: "go"}))
}

// TestEquals_CustomFunctionNested tests that equality functions can recurse through the Comparer
func TestEquals_CustomFunctionNested(t *testing.T) {
	type labelled struct {
		Label string
		Value *point
	}

	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[labelled](), EqualsWith(func(q *Comparer, a, b labelled) bool {
		return q.Equal(a.Value, b.Value)
	})))

	assert.True(t, r.Equals(labelled{Label: "a", Value: &point{X: 1}}, labelled{Label: "b", Value: &point{X: 1}}))
	assert.False(t, r.Equals(labelled{Value: &point{X: 1}}, labelled{Value: &point{X: 2}}))
}

// TestEquals_IterateCompare tests comparing collections through their iterate method
func TestEquals_IterateCompare(t *testing.T) {
	a := &stack{items: []int{1, 2}, pushes: 5}
	b := &stack{items: []int{1, 2}, pushes: 2}

	assert.False(t, NewRegistry().Equals(a, b), "structural comparison sees bookkeeping")

	r := NewRegistry()
	require.NoError(t, r.Register(reflect.TypeFor[stack](), IterateCompare()))
	assert.True(t, r.Equals(a, b))
	assert.False(t, r.Equals(a, &stack{items: []int{2, 1}}))
	assert.False(t, r.Equals(a, &stack{items: []int{1}}))
}
