package valsem

import "reflect"

// ownFields lists the traversable fields of struct type t in declaration
// order. An embedded struct is a single field named after its type; blank
// fields are padding and skipped.
func ownFields(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		if f := t.Field(i); f.Name != "_" {
			names = append(names, f.Name)
		}
	}
	return names
}

// selectFields applies the entry's field policy for op. When rebuilding, the
// constructor consumes its fields, so they are dropped unless clone-included.
func (e *Entry) selectFields(op Operation, rebuilding bool) []string {
	pol := e.policy(op)
	var ctor fieldSet
	if op == OpClone && rebuilding {
		ctor.add(e.ctorFields...)
	}

	var out []string
	for _, name := range ownFields(e.typ) {
		switch {
		case pol.include.has(name):
			out = append(out, name)
		case e.fieldDefault == FieldExclude:
		case pol.exclude.has(name):
		case ctor.has(name):
		default:
			out = append(out, name)
		}
	}
	return out
}

// Fields reports the fields of struct type t that op visits, in declaration
// order. For clones it assumes no constructor runs; see RebuildFields.
func (r *Registry) Fields(t reflect.Type, op Operation) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	if e := r.entryFor(t); e != nil && e.typ == t {
		return e.selectFields(op, false)
	}
	return ownFields(t)
}

// RebuildFields reports the fields a clone copies after the registered
// constructor of t has run.
func (r *Registry) RebuildFields(t reflect.Type) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}
	if e := r.entryFor(t); e != nil && e.typ == t {
		return e.selectFields(OpClone, e.ctor.IsValid())
	}
	return ownFields(t)
}

// fieldIndexesFor returns the indexes a traversal visits on struct type t.
func fieldIndexesFor(t reflect.Type, e *Entry, op Operation, rebuilding bool) []int {
	if e == nil || e.typ != t {
		return allFieldIndexes(t)
	}
	switch {
	case op == OpEquals:
		return e.equalsIdx
	case rebuilding:
		return e.rebuildIdx
	default:
		return e.cloneIdx
	}
}

func allFieldIndexes(t reflect.Type) []int {
	idx := make([]int, 0, t.NumField())
	for i := range t.NumField() {
		if t.Field(i).Name != "_" {
			idx = append(idx, i)
		}
	}
	return idx
}

// fieldCache memoizes field indexes of unregistered struct types for the
// duration of one traversal.
type fieldCache map[reflect.Type][]int

func (fc fieldCache) indexes(t reflect.Type, e *Entry, op Operation, rebuilding bool) []int {
	if e != nil && e.typ == t {
		return fieldIndexesFor(t, e, op, rebuilding)
	}
	idx, ok := fc[t]
	if !ok {
		idx = allFieldIndexes(t)
		fc[t] = idx
	}
	return idx
}
