package valsem

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

type cloneFunc func(c *Cloner, src reflect.Value) (reflect.Value, error)

type equalsFunc func(q *Comparer, a, b reflect.Value) bool

type fieldSet map[string]struct{}

func (s *fieldSet) add(names ...string) {
	if *s == nil {
		*s = make(fieldSet, len(names))
	}
	for _, name := range names {
		(*s)[name] = struct{}{}
	}
}

func (s fieldSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

type fieldPolicy struct {
	include fieldSet
	exclude fieldSet
}

// Entry is the registered behaviour of one type. Entries registered on a
// struct type T also govern *T values.
type Entry struct {
	typ          reflect.Type
	cloneSem     CloneSemantics
	equalsSem    EqualsSemantics
	fieldDefault FieldDefault
	clone        cloneFunc
	equals       equalsFunc
	cloneFields  fieldPolicy
	equalsFields fieldPolicy
	ctor         reflect.Value
	ctorFields   []string
	iterMethod   string
	addMethod    string

	// Resolved by finish.
	cloneIdx   []int
	rebuildIdx []int
	equalsIdx  []int
	ctorIdx    []int
}

// Type returns the registered type.
func (e *Entry) Type() reflect.Type { return e.typ }

// CloneSemantics returns how values of the type are cloned.
func (e *Entry) CloneSemantics() CloneSemantics { return e.cloneSem }

// EqualsSemantics returns how values of the type are compared.
func (e *Entry) EqualsSemantics() EqualsSemantics { return e.equalsSem }

// FieldDefault returns whether unlisted fields take part in traversals.
func (e *Entry) FieldDefault() FieldDefault { return e.fieldDefault }

// CloneForbidden reports whether Clone fails for the type.
func (e *Entry) CloneForbidden() bool { return e.cloneSem == CloneErrorOnClone }

// RefEqualsOnly reports whether values compare by reference.
func (e *Entry) RefEqualsOnly() bool { return e.equalsSem == EqualsReferenceOnly }

// HasCloneOverride reports whether a clone function is installed.
func (e *Entry) HasCloneOverride() bool { return e.clone != nil }

// HasEqualsOverride reports whether an equality function is installed.
func (e *Entry) HasEqualsOverride() bool { return e.equals != nil }

// ConstructorFields returns the fields passed to the constructor, in order.
func (e *Entry) ConstructorFields() []string { return slices.Clone(e.ctorFields) }

func (e *Entry) copy() *Entry {
	cp := *e
	cp.cloneFields = fieldPolicy{include: maps.Clone(e.cloneFields.include), exclude: maps.Clone(e.cloneFields.exclude)}
	cp.equalsFields = fieldPolicy{include: maps.Clone(e.equalsFields.include), exclude: maps.Clone(e.equalsFields.exclude)}
	cp.ctorFields = slices.Clone(e.ctorFields)
	return &cp
}

// Registry maps types to their registered behaviour. Registration is expected
// to finish before traversals that depend on it start: the registry does no
// locking, so concurrent Clone and Equals calls are safe only while nothing
// registers.
type Registry struct {
	entries  map[reflect.Type]*Entry
	logger   *zap.Logger
	maxDepth int
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

// WithLogger sets the logger used for registration and traversal tracing.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.SetLogger(logger)
	}
}

// WithMaxDepth bounds how deep Clone recurses before failing with
// ErrDepthExceeded. Zero means unbounded.
func WithMaxDepth(depth int) RegistryOption {
	return func(r *Registry) {
		r.maxDepth = depth
	}
}

// NewRegistry returns a registry with the built-in kinds installed.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[reflect.Type]*Entry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	installBuiltins(r)
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package-level functions.
func Default() *Registry {
	return defaultRegistry
}

// SetLogger replaces the registry's logger. A nil logger disables logging.
func (r *Registry) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.logger = logger
}

// Register merges opts into the entry for T in the default registry.
func Register[T any](opts ...Option) error {
	return defaultRegistry.Register(reflect.TypeFor[T](), opts...)
}

// MustRegister is like Register but panics on error. It suits package init.
func MustRegister[T any](opts ...Option) {
	if err := Register[T](opts...); err != nil {
		panic(err)
	}
}

// Register merges opts into the entry for t. Field sets accumulate across
// calls; semantics and overrides are replaced. A failed registration leaves
// the previous entry in place.
func (r *Registry) Register(t reflect.Type, opts ...Option) error {
	if t == nil {
		return fmt.Errorf("cannot register a nil type")
	}
	if isAtomic(t.Kind()) || t.Kind() == reflect.Interface {
		return capabilityErrorf(t.String(), "%s values are atomic and cannot carry behaviour", t.Kind())
	}

	var e *Entry
	if prev, ok := r.entries[t]; ok {
		e = prev.copy()
	} else {
		e = &Entry{typ: t}
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}
	if err := e.finish(); err != nil {
		return err
	}
	r.entries[t] = e

	r.debug("registered type behaviour",
		zap.Stringer("type", t),
		zap.Stringer("clone", e.cloneSem),
		zap.Stringer("equals", e.equalsSem),
		zap.Bool("clone_override", e.clone != nil),
		zap.Bool("equals_override", e.equals != nil))
	return nil
}

// Lookup returns the entry registered for exactly t.
func (r *Registry) Lookup(t reflect.Type) (Entry, bool) {
	e, ok := r.entries[t]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// lookup resolves the entry governing values of type t. lifted is true when
// t is *T and the entry belongs to T.
func (r *Registry) lookup(t reflect.Type) (e *Entry, lifted bool) {
	if e := r.entryFor(t); e != nil {
		return e, false
	}
	if t.Kind() == reflect.Pointer {
		if e := r.entryFor(t.Elem()); e != nil {
			return e, true
		}
	}
	return nil, false
}

func (r *Registry) entryFor(t reflect.Type) *Entry {
	if e, ok := r.entries[t]; ok {
		return e
	}
	return genericBuiltin(t)
}

// finish validates the merged entry and resolves field indexes.
func (e *Entry) finish() error {
	name := e.typ.String()

	for _, op := range []Operation{OpClone, OpEquals} {
		pol := e.policy(op)
		for _, f := range sortedNames(pol.include) {
			if pol.exclude.has(f) {
				return &ConflictError{TypeName: name, Field: f, Op: op}
			}
		}
	}

	hasFields := len(e.cloneFields.include)+len(e.cloneFields.exclude)+
		len(e.equalsFields.include)+len(e.equalsFields.exclude)+len(e.ctorFields) > 0
	if e.typ.Kind() != reflect.Struct {
		if hasFields || e.fieldDefault != FieldInclude {
			return capabilityErrorf(name, "field options require a struct type")
		}
		if e.ctor.IsValid() {
			return capabilityErrorf(name, "constructors require a struct type")
		}
	} else {
		for _, f := range e.allFieldNames() {
			if _, ok := e.typ.FieldByName(f); !ok || !isOwnField(e.typ, f) {
				return capabilityErrorf(name, "unknown field %q", f)
			}
		}
	}

	if err := e.checkConstructor(); err != nil {
		return err
	}
	if err := e.checkIteration(); err != nil {
		return err
	}

	if e.typ.Kind() == reflect.Struct {
		e.ctorIdx = fieldIndexes(e.typ, e.ctorFields)
		e.cloneIdx = fieldIndexes(e.typ, e.selectFields(OpClone, false))
		e.rebuildIdx = fieldIndexes(e.typ, e.selectFields(OpClone, true))
		e.equalsIdx = fieldIndexes(e.typ, e.selectFields(OpEquals, false))
	}
	return nil
}

func (e *Entry) policy(op Operation) fieldPolicy {
	if op == OpClone {
		return e.cloneFields
	}
	return e.equalsFields
}

func (e *Entry) allFieldNames() []string {
	seen := make(fieldSet)
	for _, pol := range []fieldPolicy{e.cloneFields, e.equalsFields} {
		for f := range pol.include {
			seen.add(f)
		}
		for f := range pol.exclude {
			seen.add(f)
		}
	}
	seen.add(e.ctorFields...)
	return sortedNames(seen)
}

func (e *Entry) checkConstructor() error {
	if !e.ctor.IsValid() {
		if len(e.ctorFields) > 0 {
			return capabilityErrorf(e.typ.String(), "constructor fields declared without a constructor")
		}
		return nil
	}
	name := e.typ.String()
	ft := e.ctor.Type()
	if ft.Kind() != reflect.Func || e.ctor.IsNil() {
		return capabilityErrorf(name, "constructor must be a non-nil func, got %s", ft)
	}
	if ft.IsVariadic() {
		return capabilityErrorf(name, "constructor must not be variadic")
	}
	if ft.NumIn() != len(e.ctorFields) {
		return capabilityErrorf(name, "constructor takes %d arguments but %d constructor fields are declared", ft.NumIn(), len(e.ctorFields))
	}
	for i, f := range e.ctorFields {
		sf, _ := e.typ.FieldByName(f)
		if !sf.Type.AssignableTo(ft.In(i)) {
			return capabilityErrorf(name, "constructor argument %d is %s, field %s is %s", i, ft.In(i), f, sf.Type)
		}
	}
	errType := reflect.TypeFor[error]()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errType:
	default:
		return capabilityErrorf(name, "constructor must return %s or *%s, optionally with an error", name, name)
	}
	if out := ft.Out(0); out != e.typ && out != reflect.PointerTo(e.typ) {
		return capabilityErrorf(name, "constructor returns %s", out)
	}
	return nil
}

// elementType reports the element type yielded by the iterate method of t.
func elementType(t reflect.Type, method string) (reflect.Type, error) {
	m, ok := receiverType(t).MethodByName(method)
	if !ok {
		return nil, capabilityErrorf(t.String(), "no iterate method %s", method)
	}
	mt := m.Type // receiver is In(0)
	if mt.NumIn() != 1 || mt.NumOut() != 1 {
		return nil, capabilityErrorf(t.String(), "iterate method %s must take no arguments and return one value", method)
	}
	seq := mt.Out(0)
	if seq.Kind() != reflect.Func || seq.NumIn() != 1 || seq.NumOut() != 0 {
		return nil, capabilityErrorf(t.String(), "iterate method %s must return func(yield func(E) bool)", method)
	}
	yield := seq.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return nil, capabilityErrorf(t.String(), "iterate method %s must return func(yield func(E) bool)", method)
	}
	return yield.In(0), nil
}

func (e *Entry) checkIteration() error {
	if e.cloneSem != CloneIterateRebuild && e.equalsSem != EqualsIterateCompare {
		return nil
	}
	if e.iterMethod == "" {
		e.iterMethod = "All"
	}
	name := e.typ.String()
	if e.typ.Kind() == reflect.Pointer {
		return capabilityErrorf(name, "iteration semantics must be registered on the element type %s", e.typ.Elem())
	}
	elem, err := elementType(e.typ, e.iterMethod)
	if err != nil {
		return err
	}
	if e.cloneSem == CloneIterateRebuild {
		m, ok := receiverType(e.typ).MethodByName(e.addMethod)
		if !ok {
			return capabilityErrorf(name, "no add method %q", e.addMethod)
		}
		if m.Type.NumIn() != 2 || !elem.AssignableTo(m.Type.In(1)) {
			return capabilityErrorf(name, "add method %s must accept one %s", e.addMethod, elem)
		}
	}
	return nil
}

// isOwnField reports whether name is a direct field of t rather than one
// promoted from an embedded struct.
func isOwnField(t reflect.Type, name string) bool {
	for i := range t.NumField() {
		if t.Field(i).Name == name {
			return true
		}
	}
	return false
}

func sortedNames(s fieldSet) []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func fieldIndexes(t reflect.Type, names []string) []int {
	idx := make([]int, 0, len(names))
	for _, n := range names {
		for i := range t.NumField() {
			if t.Field(i).Name == n {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}
