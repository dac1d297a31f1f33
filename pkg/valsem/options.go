package valsem

import "reflect"

// Option configures a type's entry during Register. Options that set a
// semantics or an override replace the previous setting; field options add
// to what earlier registrations declared.
type Option func(e *Entry) error

// DeepClone restores the default field-by-field clone.
func DeepClone() Option {
	return withCloneSemantics(CloneDeep, "")
}

// ReturnOriginal makes Clone hand back the source value unchanged.
func ReturnOriginal() Option {
	return withCloneSemantics(CloneReturnOriginal, "")
}

// ErrorOnClone makes Clone fail with a CloneForbiddenError.
func ErrorOnClone() Option {
	return withCloneSemantics(CloneErrorOnClone, "")
}

// IterateRebuild clones by creating a fresh value and passing clones of the
// elements yielded by the iterate method (see IterateMethod) to addMethod.
func IterateRebuild(addMethod string) Option {
	return withCloneSemantics(CloneIterateRebuild, addMethod)
}

func withCloneSemantics(s CloneSemantics, addMethod string) Option {
	return func(e *Entry) error {
		e.cloneSem = s
		e.clone = nil
		if s == CloneIterateRebuild {
			e.addMethod = addMethod
		}
		return nil
	}
}

// StructuralEquality restores the default field-by-field comparison.
func StructuralEquality() Option {
	return withEqualsSemantics(EqualsStructural)
}

// ReferenceEquality makes values equal only when they are the same reference.
func ReferenceEquality() Option {
	return withEqualsSemantics(EqualsReferenceOnly)
}

// IterateCompare compares the element sequences produced by the iterate method.
func IterateCompare() Option {
	return withEqualsSemantics(EqualsIterateCompare)
}

func withEqualsSemantics(s EqualsSemantics) Option {
	return func(e *Entry) error {
		e.equalsSem = s
		e.equals = nil
		return nil
	}
}

// IterateMethod names the method used by IterateRebuild and IterateCompare.
// It must take no arguments and return a func(yield func(E) bool), such as an
// iter.Seq[E]. The default is "All".
func IterateMethod(name string) Option {
	return func(e *Entry) error {
		e.iterMethod = name
		return nil
	}
}

// WithFieldDefault decides whether unlisted fields take part in both traversals.
func WithFieldDefault(d FieldDefault) Option {
	return func(e *Entry) error {
		e.fieldDefault = d
		return nil
	}
}

// IncludeFields adds fields to the include set of both clone and equals.
func IncludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.cloneFields.include.add(names...)
		e.equalsFields.include.add(names...)
		return nil
	}
}

// ExcludeFields adds fields to the exclude set of both clone and equals.
func ExcludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.cloneFields.exclude.add(names...)
		e.equalsFields.exclude.add(names...)
		return nil
	}
}

// CloneIncludeFields adds fields that clones copy even when the default or a
// constructor would leave them out.
func CloneIncludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.cloneFields.include.add(names...)
		return nil
	}
}

// CloneExcludeFields adds fields that clones leave at their zero or
// constructed value.
func CloneExcludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.cloneFields.exclude.add(names...)
		return nil
	}
}

// EqualsIncludeFields adds fields that Equals compares.
func EqualsIncludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.equalsFields.include.add(names...)
		return nil
	}
}

// EqualsExcludeFields adds fields that Equals ignores.
func EqualsExcludeFields(names ...string) Option {
	return func(e *Entry) error {
		e.equalsFields.exclude.add(names...)
		return nil
	}
}

// ConstructWith makes deep clones build the new value by calling fn with the
// source's current values of fields, in order. fn must have the shape
// func(...) T or func(...) *T, optionally with a trailing error result.
// Fields passed to the constructor are not copied afterwards unless they are
// also clone-included. Repeated calls append fields and replace fn.
func ConstructWith(fn any, fields ...string) Option {
	return func(e *Entry) error {
		e.ctor = reflect.ValueOf(fn)
		e.ctorFields = append(e.ctorFields, fields...)
		return nil
	}
}

// CloneWith installs a custom clone function for T. When T is a reference
// type the function must call Cloner.Remember(src, dst) before cloning any
// children. When T is a struct met through a *T, the engine allocates and
// remembers the pointer itself.
func CloneWith[T any](fn func(c *Cloner, src T) (T, error)) Option {
	want := reflect.TypeFor[T]()
	return func(e *Entry) error {
		if e.typ != want {
			return capabilityErrorf(e.typ.String(), "clone function is declared for %s", want)
		}
		e.cloneSem = CloneDeep
		e.clone = func(c *Cloner, src reflect.Value) (reflect.Value, error) {
			out, err := fn(c, src.Interface().(T))
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&out).Elem(), nil
		}
		return nil
	}
}

// EqualsWith installs a custom equality function for T. Values of any other
// type are unequal to a T.
func EqualsWith[T any](fn func(q *Comparer, a, b T) bool) Option {
	want := reflect.TypeFor[T]()
	return func(e *Entry) error {
		if e.typ != want {
			return capabilityErrorf(e.typ.String(), "equals function is declared for %s", want)
		}
		e.equalsSem = EqualsStructural
		e.equals = func(q *Comparer, a, b reflect.Value) bool {
			if b.Type() != want {
				return false
			}
			return fn(q, a.Interface().(T), b.Interface().(T))
		}
		return nil
	}
}
