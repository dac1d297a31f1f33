package manifest

import (
	"errors"
	"iter"
	"reflect"
	"slices"
	"testing"

	"github.com/dyluth/valsem/pkg/valsem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y  int
	cache map[string]int
}

type handle struct {
	fd int
}

type queue struct {
	items []string
}

func (q *queue) Values() iter.Seq[string] { return slices.Values(q.items) }
func (q *queue) Enqueue(s string)         { q.items = append(q.items, s) }

type reading struct {
	Sensor string
	seen   bool
}

func newReading(sensor string) reading {
	return reading{Sensor: sensor, seen: true}
}

func testCatalog() *Catalog {
	c := NewCatalog()
	AddType[point](c, "")
	AddType[handle](c, "Handle")
	AddType[queue](c, "Queue")
	AddType[reading](c, "Reading")
	c.AddConstructor("newReading", newReading)
	return c
}

func TestCatalog_Names(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, []string{"Handle", "Queue", "Reading", "manifest.point"}, c.Names())
	typ, ok := c.Type("manifest.point")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[point](), typ)
}

func TestApply_RegistersTypes(t *testing.T) {
	m, err := Parse([]byte(`version: "1.0"
types:
  manifest.point:
    exclude: [cache]
  Handle:
    clone: errorOnClone
    equals: referenceOnly
  Queue:
    clone: iterateRebuild
    equals: iterateCompare
    iterate_method: Values
    add_method: Enqueue
  Reading:
    constructor: newReading
    constructor_fields: [Sensor]
    clone_exclude: [seen]
`))
	require.NoError(t, err)

	reg := valsem.NewRegistry()
	require.NoError(t, m.Apply(reg, testCatalog()))

	assert.True(t, reg.Equals(point{X: 1, cache: map[string]int{"a": 1}}, point{X: 1}))

	_, err = valsem.CloneIn(reg, &handle{fd: 3})
	assert.True(t, valsem.IsCloneForbidden(err))

	q, err := valsem.CloneIn(reg, &queue{items: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, q.items)

	r, err := valsem.CloneIn(reg, reading{Sensor: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", r.Sensor)
	assert.True(t, r.seen, "constructor output is kept")
}

func TestApply_UnknownType(t *testing.T) {
	m := &Manifest{Version: "1.0", Types: map[string]TypeSpec{"Missing": {}}}

	err := m.Apply(valsem.NewRegistry(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type 'Missing' is not in the catalog")
}

func TestApply_UnknownConstructor(t *testing.T) {
	m := &Manifest{Version: "1.0", Types: map[string]TypeSpec{
		"Reading": {Constructor: "missing", ConstructorFields: []string{"Sensor"}},
	}}

	err := m.Apply(valsem.NewRegistry(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constructor 'missing' is not in the catalog")
}

func TestApply_RegistrationError(t *testing.T) {
	m := &Manifest{Version: "1.0", Types: map[string]TypeSpec{
		"manifest.point": {Exclude: []string{"Z"}},
	}}

	err := m.Apply(valsem.NewRegistry(), testCatalog())
	require.Error(t, err)

	var capErr *valsem.CapabilityError
	assert.True(t, errors.As(err, &capErr))
	assert.Contains(t, err.Error(), "type 'manifest.point'")
}
