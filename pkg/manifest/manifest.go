package manifest

import (
	"fmt"
	"os"
	"slices"

	"github.com/dyluth/valsem/pkg/valsem"
	"gopkg.in/yaml.v3"
)

// Manifest represents a valsem.yml file declaring per-type behaviour
type Manifest struct {
	Version string              `yaml:"version"`
	Types   map[string]TypeSpec `yaml:"types"`
}

// TypeSpec declares the capabilities of a single type. Empty strings fall
// back to the registry defaults (deep, structural, include).
type TypeSpec struct {
	Clone        string `yaml:"clone,omitempty"`
	Equals       string `yaml:"equals,omitempty"`
	FieldDefault string `yaml:"field_default,omitempty"`

	// Include and Exclude apply to both clone and equals
	Include       []string `yaml:"include,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
	CloneInclude  []string `yaml:"clone_include,omitempty"`
	CloneExclude  []string `yaml:"clone_exclude,omitempty"`
	EqualsInclude []string `yaml:"equals_include,omitempty"`
	EqualsExclude []string `yaml:"equals_exclude,omitempty"`

	Constructor       string   `yaml:"constructor,omitempty"` // Name registered with Catalog.AddConstructor
	ConstructorFields []string `yaml:"constructor_fields,omitempty"`

	IterateMethod string `yaml:"iterate_method,omitempty"` // Default: All
	AddMethod     string `yaml:"add_method,omitempty"`     // Required when clone is iterateRebuild
}

// IsDefault reports whether the declaration sets nothing, leaving the type
// on the registry defaults
func (s TypeSpec) IsDefault() bool {
	return s.Clone == "" && s.Equals == "" && s.FieldDefault == "" &&
		len(s.Include) == 0 && len(s.Exclude) == 0 &&
		len(s.CloneInclude) == 0 && len(s.CloneExclude) == 0 &&
		len(s.EqualsInclude) == 0 && len(s.EqualsExclude) == 0 &&
		s.Constructor == "" && len(s.ConstructorFields) == 0 &&
		s.IterateMethod == "" && s.AddMethod == ""
}

// Validate performs strict validation on the manifest
func (m *Manifest) Validate() error {
	if m.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", m.Version)
	}

	if len(m.Types) == 0 {
		return fmt.Errorf("no types defined")
	}

	for _, name := range m.Names() {
		decl := m.Types[name]
		if err := decl.Validate(name); err != nil {
			return err
		}
	}

	return nil
}

// Names returns the declared type names in sorted order
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Types))
	for name := range m.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate performs validation on a single type declaration
func (s *TypeSpec) Validate(name string) error {
	if name == "" {
		return fmt.Errorf("type name must not be empty")
	}

	caps, err := s.capabilities()
	if err != nil {
		return fmt.Errorf("type '%s': %w", name, err)
	}

	cloneInclude := slices.Concat(s.Include, s.CloneInclude)
	cloneExclude := slices.Concat(s.Exclude, s.CloneExclude)
	if f, ok := overlap(cloneInclude, cloneExclude); ok {
		return fmt.Errorf("type '%s': field '%s' is both included and excluded for clone", name, f)
	}
	equalsInclude := slices.Concat(s.Include, s.EqualsInclude)
	equalsExclude := slices.Concat(s.Exclude, s.EqualsExclude)
	if f, ok := overlap(equalsInclude, equalsExclude); ok {
		return fmt.Errorf("type '%s': field '%s' is both included and excluded for equals", name, f)
	}

	if len(s.ConstructorFields) > 0 && s.Constructor == "" {
		return fmt.Errorf("type '%s': constructor_fields requires a constructor", name)
	}

	iterates := caps.Clone == valsem.CloneIterateRebuild || caps.Equals == valsem.EqualsIterateCompare
	if caps.Clone == valsem.CloneIterateRebuild && s.AddMethod == "" {
		return fmt.Errorf("type '%s': clone 'iterateRebuild' requires add_method", name)
	}
	if s.AddMethod != "" && caps.Clone != valsem.CloneIterateRebuild {
		return fmt.Errorf("type '%s': add_method is only used by clone 'iterateRebuild'", name)
	}
	if s.IterateMethod != "" && !iterates {
		return fmt.Errorf("type '%s': iterate_method requires clone 'iterateRebuild' or equals 'iterateCompare'", name)
	}

	return nil
}

// capabilities converts the declaration, leaving the constructor unresolved
func (s *TypeSpec) capabilities() (valsem.Capabilities, error) {
	var caps valsem.Capabilities
	var err error

	if s.Clone != "" {
		if caps.Clone, err = valsem.ParseCloneSemantics(s.Clone); err != nil {
			return caps, err
		}
	}
	if s.Equals != "" {
		if caps.Equals, err = valsem.ParseEqualsSemantics(s.Equals); err != nil {
			return caps, err
		}
	}
	if s.FieldDefault != "" {
		if caps.FieldDefault, err = valsem.ParseFieldDefault(s.FieldDefault); err != nil {
			return caps, err
		}
	}

	caps.IncludeFields = s.Include
	caps.ExcludeFields = s.Exclude
	caps.CloneIncludeFields = s.CloneInclude
	caps.CloneExcludeFields = s.CloneExclude
	caps.EqualsIncludeFields = s.EqualsInclude
	caps.EqualsExcludeFields = s.EqualsExclude
	caps.ConstructorFields = s.ConstructorFields
	caps.IterateMethod = s.IterateMethod
	caps.AddMethod = s.AddMethod
	return caps, nil
}

func overlap(a, b []string) (string, bool) {
	for _, f := range a {
		if slices.Contains(b, f) {
			return f, true
		}
	}
	return "", false
}

// Parse decodes and validates a manifest
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &m, nil
}

// Load reads and validates a manifest from the specified path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return Parse(data)
}
