package valsem

import (
	"bytes"
	"math/big"
	"os"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

// installBuiltins registers the library types with known value semantics.
func installBuiltins(r *Registry) {
	must := func(t reflect.Type, opts ...Option) {
		if err := r.Register(t, opts...); err != nil {
			panic(err)
		}
	}

	must(reflect.TypeFor[time.Time](),
		withClone(copyValue),
		EqualsWith(func(_ *Comparer, a, b time.Time) bool { return a.Equal(b) }))
	must(reflect.TypeFor[*time.Location](),
		ReturnOriginal(),
		EqualsWith(func(_ *Comparer, a, b *time.Location) bool { return a.String() == b.String() }))

	must(reflect.TypeFor[*regexp.Regexp](),
		CloneWith(func(_ *Cloner, src *regexp.Regexp) (*regexp.Regexp, error) {
			return regexp.Compile(src.String())
		}),
		EqualsWith(func(_ *Comparer, a, b *regexp.Regexp) bool { return a.String() == b.String() }))

	must(reflect.TypeFor[*big.Int](),
		CloneWith(func(_ *Cloner, src *big.Int) (*big.Int, error) { return new(big.Int).Set(src), nil }),
		EqualsWith(func(_ *Comparer, a, b *big.Int) bool { return a.Cmp(b) == 0 }))
	must(reflect.TypeFor[*big.Float](),
		CloneWith(func(_ *Cloner, src *big.Float) (*big.Float, error) { return new(big.Float).Copy(src), nil }),
		EqualsWith(func(_ *Comparer, a, b *big.Float) bool { return a.Cmp(b) == 0 }))
	must(reflect.TypeFor[*big.Rat](),
		CloneWith(func(_ *Cloner, src *big.Rat) (*big.Rat, error) { return new(big.Rat).Set(src), nil }),
		EqualsWith(func(_ *Comparer, a, b *big.Rat) bool { return a.Cmp(b) == 0 }))

	must(reflect.TypeFor[*bytes.Buffer](),
		CloneWith(func(_ *Cloner, src *bytes.Buffer) (*bytes.Buffer, error) {
			return bytes.NewBuffer(slices.Clone(src.Bytes())), nil
		}),
		EqualsWith(func(_ *Comparer, a, b *bytes.Buffer) bool { return bytes.Equal(a.Bytes(), b.Bytes()) }))
	must(reflect.TypeFor[*strings.Builder](),
		CloneWith(func(_ *Cloner, src *strings.Builder) (*strings.Builder, error) {
			var sb strings.Builder
			sb.WriteString(src.String())
			return &sb, nil
		}),
		EqualsWith(func(_ *Comparer, a, b *strings.Builder) bool { return a.String() == b.String() }))

	// The dynamic type behind every reflect.Type.
	must(reflect.TypeOf(reflect.TypeOf(0)), ReturnOriginal(), ReferenceEquality())

	for _, t := range []reflect.Type{
		reflect.TypeFor[sync.Mutex](),
		reflect.TypeFor[sync.RWMutex](),
		reflect.TypeFor[sync.WaitGroup](),
		reflect.TypeFor[sync.Once](),
	} {
		must(t, withClone(zeroValue), withEquals(alwaysEqual))
	}

	must(reflect.TypeFor[os.File](), ErrorOnClone(), ReferenceEquality())
}

// withClone and withEquals install overrides that work on reflected values
// directly, for types whose values must not be copied through an interface.
func withClone(fn cloneFunc) Option {
	return func(e *Entry) error {
		e.cloneSem = CloneDeep
		e.clone = fn
		return nil
	}
}

func withEquals(fn equalsFunc) Option {
	return func(e *Entry) error {
		e.equalsSem = EqualsStructural
		e.equals = fn
		return nil
	}
}

func copyValue(_ *Cloner, src reflect.Value) (reflect.Value, error) {
	return src, nil
}

func zeroValue(_ *Cloner, src reflect.Value) (reflect.Value, error) {
	return reflect.Zero(src.Type()), nil
}

func alwaysEqual(_ *Comparer, a, b reflect.Value) bool {
	return a.Type() == b.Type()
}

// Entries for instantiations of generic library types, created on first use.
var genericEntries sync.Map // reflect.Type -> *Entry

func genericBuiltin(t reflect.Type) *Entry {
	if t.Kind() != reflect.Struct {
		return nil
	}
	if e, ok := genericEntries.Load(t); ok {
		return e.(*Entry)
	}

	var e *Entry
	switch name := t.Name(); {
	case t.PkgPath() == "weak" && strings.HasPrefix(name, "Pointer["):
		e = &Entry{typ: t, clone: copyValue, equals: weakEqual}
	case t.PkgPath() == "unique" && strings.HasPrefix(name, "Handle["):
		e = &Entry{typ: t, clone: copyValue, equalsSem: EqualsReferenceOnly}
	default:
		return nil
	}
	actual, _ := genericEntries.LoadOrStore(t, e)
	return actual.(*Entry)
}

// weakEqual compares the referents of two weak pointers. The same handle is
// always equal to itself; otherwise a reclaimed or nil referent matches
// nothing.
func weakEqual(q *Comparer, a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	if a.Equal(b) {
		return true
	}
	ra := a.MethodByName("Value").Call(nil)[0]
	rb := b.MethodByName("Value").Call(nil)[0]
	if ra.IsNil() || rb.IsNil() {
		return false
	}
	return q.q.equal(ra, rb)
}
