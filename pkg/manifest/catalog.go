package manifest

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/dyluth/valsem/pkg/valsem"
)

// Catalog resolves the names used in a manifest to Go types and constructor
// functions. Go cannot look types up by name at runtime, so programs list the
// types they are willing to configure.
type Catalog struct {
	types map[string]reflect.Type
	ctors map[string]any
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		types: make(map[string]reflect.Type),
		ctors: make(map[string]any),
	}
}

// AddType makes T available under name. An empty name uses T's Go name,
// such as "shapes.Point".
func AddType[T any](c *Catalog, name string) {
	t := reflect.TypeFor[T]()
	if name == "" {
		name = t.String()
	}
	c.types[name] = t
}

// AddConstructor makes fn available to the constructor key under name
func (c *Catalog) AddConstructor(name string, fn any) {
	c.ctors[name] = fn
}

// Type returns the type registered under name
func (c *Catalog) Type(name string) (reflect.Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Names returns the catalogued type names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply registers every declared type with reg. Types are applied in name
// order and the first failure stops the run; types applied before it stay
// registered.
func (m *Manifest) Apply(reg *valsem.Registry, cat *Catalog) error {
	for _, name := range m.Names() {
		decl := m.Types[name]

		t, ok := cat.Type(name)
		if !ok {
			return fmt.Errorf("type '%s' is not in the catalog", name)
		}

		caps, err := decl.capabilities()
		if err != nil {
			return fmt.Errorf("type '%s': %w", name, err)
		}
		if decl.Constructor != "" {
			fn, ok := cat.ctors[decl.Constructor]
			if !ok {
				return fmt.Errorf("type '%s': constructor '%s' is not in the catalog", name, decl.Constructor)
			}
			caps.Constructor = fn
		}

		if err := reg.Register(t, caps.Options()...); err != nil {
			return fmt.Errorf("type '%s': %w", name, err)
		}
	}

	return nil
}
