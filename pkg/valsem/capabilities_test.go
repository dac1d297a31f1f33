package valsem

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSemantics tests the names accepted for each setting
func TestParseSemantics(t *testing.T) {
	for _, s := range []CloneSemantics{CloneDeep, CloneReturnOriginal, CloneErrorOnClone, CloneIterateRebuild} {
		got, err := ParseCloneSemantics(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, s := range []EqualsSemantics{EqualsStructural, EqualsReferenceOnly, EqualsIterateCompare} {
		got, err := ParseEqualsSemantics(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	d, err := ParseFieldDefault("exclude")
	require.NoError(t, err)
	assert.Equal(t, FieldExclude, d)

	tests := []struct {
		name  string
		parse func() error
		want  string
	}{
		{"clone", func() error { _, err := ParseCloneSemantics("shallow"); return err }, "invalid clone semantics: shallow"},
		{"equals", func() error { _, err := ParseEqualsSemantics("identity"); return err }, "invalid equals semantics: identity"},
		{"field default", func() error { _, err := ParseFieldDefault("some"); return err }, "invalid field default: some"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// TestSemantics_UnknownString tests the fallback names of out-of-range values
func TestSemantics_UnknownString(t *testing.T) {
	assert.Equal(t, "CloneSemantics(9)", CloneSemantics(9).String())
	assert.Equal(t, "EqualsSemantics(9)", EqualsSemantics(9).String())
	assert.Equal(t, "Operation(9)", Operation(9).String())
	assert.Equal(t, "equals", OpEquals.String())
}

// TestCapabilities_Iteration tests a descriptor declaring iterate-based clone and equality
func TestCapabilities_Iteration(t *testing.T) {
	r := NewRegistry()
	caps := Capabilities{Clone: CloneIterateRebuild, AddMethod: "Push", Equals: EqualsIterateCompare}
	require.NoError(t, r.Register(reflect.TypeFor[stack](), caps.Options()...))

	src := &stack{items: []int{1, 2, 3}, pushes: 7}
	out, err := CloneIn(r, src)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out.items)
	assert.Equal(t, 3, out.pushes, "the copy is built through Push")
	assert.True(t, r.Equals(src, out))
	assert.False(t, r.Equals(src, &stack{items: []int{1, 2}}))
}

// TestCapabilities_Constructor tests a descriptor with a constructor and field sets
func TestCapabilities_Constructor(t *testing.T) {
	r := NewRegistry()
	caps := Capabilities{
		Constructor:       newTemperature,
		ConstructorFields: []string{"Celsius"},
		ExcludeFields:     []string{"label"},
	}
	require.NoError(t, r.Register(reflect.TypeFor[temperature](), caps.Options()...))

	src := &temperature{Celsius: 21.5, label: "sensor"}
	out, err := CloneIn(r, src)

	require.NoError(t, err)
	assert.Equal(t, 21.5, out.Celsius)
	assert.Equal(t, "constructed", out.label)
	assert.True(t, r.Equals(src, out))
	assert.Equal(t, []string{"Celsius"}, r.Fields(reflect.TypeFor[temperature](), OpEquals))
}
