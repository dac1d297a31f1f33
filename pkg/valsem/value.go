package valsem

import (
	"reflect"
	"unsafe"
)

// isAtomic reports whether values of kind k are treated as immutable leaves.
func isAtomic(k reflect.Kind) bool {
	switch k {
	case reflect.Invalid, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// identity is the memo key of a value that has one. Slices are keyed by their
// data pointer and length, so overlapping subslices are distinct values.
type identity struct {
	typ reflect.Type
	ptr unsafe.Pointer
	n   int
}

func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.UnsafePointer()}, true
	case reflect.Slice:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.UnsafePointer(), n: v.Len()}, true
	}
	return identity{}, false
}

// addressable returns v itself when it is addressable, otherwise an
// addressable copy. Fields of the result can be exposed with readable.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Elem()
}

// readable strips the read-only flag reflect sets on values reached through
// unexported struct fields. f must be addressable for the flag to be removed.
func readable(f reflect.Value) reflect.Value {
	if f.CanInterface() || !f.CanAddr() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

// writable returns a settable view of the addressable field f.
func writable(f reflect.Value) reflect.Value {
	if f.CanSet() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

// valueAs converts a reflected result back to T. Nil interfaces become the zero T.
func valueAs[T any](v reflect.Value) T {
	var zero T
	if !v.IsValid() {
		return zero
	}
	x := v.Interface()
	if x == nil {
		return zero
	}
	return x.(T)
}

// receiverType is the type whose method set holds every method of t.
func receiverType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t
	}
	return reflect.PointerTo(t)
}
