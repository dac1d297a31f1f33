package valsem

import "fmt"

// Operation selects which traversal a field policy applies to.
type Operation int

const (
	OpClone Operation = iota
	OpEquals
)

func (o Operation) String() string {
	switch o {
	case OpClone:
		return "clone"
	case OpEquals:
		return "equals"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// CloneSemantics selects how values of a registered type are cloned.
type CloneSemantics int

const (
	// CloneDeep copies the value field by field, honouring field policies and
	// any registered constructor.
	CloneDeep CloneSemantics = iota
	// CloneReturnOriginal hands back the source value itself.
	CloneReturnOriginal
	// CloneErrorOnClone makes Clone fail with a CloneForbiddenError.
	CloneErrorOnClone
	// CloneIterateRebuild builds a fresh value and feeds it clones of the
	// elements produced by the type's iterate method through its add method.
	CloneIterateRebuild
)

var cloneSemanticsNames = map[CloneSemantics]string{
	CloneDeep:           "deep",
	CloneReturnOriginal: "returnOriginal",
	CloneErrorOnClone:   "errorOnClone",
	CloneIterateRebuild: "iterateRebuild",
}

func (s CloneSemantics) String() string {
	if name, ok := cloneSemanticsNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CloneSemantics(%d)", int(s))
}

// ParseCloneSemantics parses the names used in manifests.
func ParseCloneSemantics(name string) (CloneSemantics, error) {
	for s, n := range cloneSemanticsNames {
		if n == name {
			return s, nil
		}
	}
	return CloneDeep, fmt.Errorf("invalid clone semantics: %s (must be 'deep', 'returnOriginal', 'errorOnClone', or 'iterateRebuild')", name)
}

// EqualsSemantics selects how values of a registered type are compared.
type EqualsSemantics int

const (
	// EqualsStructural compares field by field.
	EqualsStructural EqualsSemantics = iota
	// EqualsReferenceOnly compares by identity.
	EqualsReferenceOnly
	// EqualsIterateCompare compares the sequences produced by the type's iterate
	// method pairwise, in order.
	EqualsIterateCompare
)

var equalsSemanticsNames = map[EqualsSemantics]string{
	EqualsStructural:     "structural",
	EqualsReferenceOnly:  "referenceOnly",
	EqualsIterateCompare: "iterateCompare",
}

func (s EqualsSemantics) String() string {
	if name, ok := equalsSemanticsNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EqualsSemantics(%d)", int(s))
}

// ParseEqualsSemantics parses the names used in manifests.
func ParseEqualsSemantics(name string) (EqualsSemantics, error) {
	for s, n := range equalsSemanticsNames {
		if n == name {
			return s, nil
		}
	}
	return EqualsStructural, fmt.Errorf("invalid equals semantics: %s (must be 'structural', 'referenceOnly', or 'iterateCompare')", name)
}

// FieldDefault decides whether fields take part in a traversal unless
// explicitly excluded, or only when explicitly included.
type FieldDefault int

const (
	FieldInclude FieldDefault = iota
	FieldExclude
)

func (d FieldDefault) String() string {
	if d == FieldExclude {
		return "exclude"
	}
	return "include"
}

// ParseFieldDefault parses "include" or "exclude".
func ParseFieldDefault(name string) (FieldDefault, error) {
	switch name {
	case "include":
		return FieldInclude, nil
	case "exclude":
		return FieldExclude, nil
	default:
		return FieldInclude, fmt.Errorf("invalid field default: %s (must be 'include' or 'exclude')", name)
	}
}

// Capabilities is a declarative description of a type's behaviour. It is the
// data form of the options accepted by Register, used by manifests.
type Capabilities struct {
	Clone         CloneSemantics
	Equals        EqualsSemantics
	FieldDefault  FieldDefault
	IncludeFields []string
	ExcludeFields []string

	CloneIncludeFields  []string
	CloneExcludeFields  []string
	EqualsIncludeFields []string
	EqualsExcludeFields []string

	// Constructor is a func value invoked with ConstructorFields in order.
	Constructor       any
	ConstructorFields []string

	IterateMethod string
	AddMethod     string
}

// Options converts the descriptor into registration options.
func (c Capabilities) Options() []Option {
	opts := []Option{
		withCloneSemantics(c.Clone, c.AddMethod),
		withEqualsSemantics(c.Equals),
		WithFieldDefault(c.FieldDefault),
	}
	if c.IterateMethod != "" {
		opts = append(opts, IterateMethod(c.IterateMethod))
	}
	if len(c.IncludeFields) > 0 {
		opts = append(opts, IncludeFields(c.IncludeFields...))
	}
	if len(c.ExcludeFields) > 0 {
		opts = append(opts, ExcludeFields(c.ExcludeFields...))
	}
	if len(c.CloneIncludeFields) > 0 {
		opts = append(opts, CloneIncludeFields(c.CloneIncludeFields...))
	}
	if len(c.CloneExcludeFields) > 0 {
		opts = append(opts, CloneExcludeFields(c.CloneExcludeFields...))
	}
	if len(c.EqualsIncludeFields) > 0 {
		opts = append(opts, EqualsIncludeFields(c.EqualsIncludeFields...))
	}
	if len(c.EqualsExcludeFields) > 0 {
		opts = append(opts, EqualsExcludeFields(c.EqualsExcludeFields...))
	}
	if c.Constructor != nil {
		opts = append(opts, ConstructWith(c.Constructor, c.ConstructorFields...))
	}
	return opts
}
