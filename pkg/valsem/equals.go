package valsem

import (
	"bytes"
	"reflect"

	"go.uber.org/zap"
)

// Equals reports whether a and b are value-equal under the default registry.
func Equals(a, b any) bool {
	return defaultRegistry.Equals(a, b)
}

// Equals reports whether a and b are value-equal. It is reflexive and
// symmetric for any graph, cyclic ones included. Transitivity can break when
// a type's equality function disagrees with another type's.
func (r *Registry) Equals(a, b any) bool {
	q := &equaler{
		reg:    r,
		memo:   make(map[pair]bool),
		fields: make(fieldCache),
	}
	trace := r.traceID()
	eq := q.equal(reflect.ValueOf(a), reflect.ValueOf(b))
	r.debug("equals finished",
		zap.String("trace", trace),
		zap.Bool("equal", eq),
		zap.Int("nodes", q.nodes),
		zap.Int("memo_hits", q.hits))
	return eq
}

type pair struct {
	a, b identity
}

// equaler holds the state of one top-level Equals call.
type equaler struct {
	reg    *Registry
	memo   map[pair]bool
	fields fieldCache
	nodes  int
	hits   int
}

// Comparer gives custom equality functions access to the comparison in
// progress, so nested comparisons share its memo.
type Comparer struct {
	q *equaler
}

// Equal compares a and b within the current comparison.
func (h *Comparer) Equal(a, b any) bool {
	return h.q.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

func (q *equaler) record(a, b identity, eq bool) {
	q.memo[pair{a, b}] = eq
	q.memo[pair{b, a}] = eq
}

func (q *equaler) equal(a, b reflect.Value) bool {
	for a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	for b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}
	if a.Kind() == reflect.Interface {
		a = reflect.Value{}
	}
	if b.Kind() == reflect.Interface {
		b = reflect.Value{}
	}
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	ta, tb := a.Type(), b.Type()
	if ta == tb {
		if isAtomic(ta.Kind()) {
			return atomicEqual(a, b)
		}
		if ida, ok := identityOf(a); ok {
			if idb, _ := identityOf(b); ida == idb {
				return true
			}
		}
	}

	if na, nb := isNil(a), isNil(b); na || nb {
		return na && nb && ta == tb
	}

	if isAtomic(ta.Kind()) || isAtomic(tb.Kind()) {
		return wrappedEqual(a, b)
	}

	q.nodes++
	ida, okA := identityOf(a)
	idb, okB := identityOf(b)
	memoized := okA && okB
	if memoized {
		if eq, ok := q.memo[pair{ida, idb}]; ok {
			q.hits++
			return eq
		}
		q.record(ida, idb, true)
	}

	eq := q.compare(a, b)
	if memoized {
		q.record(ida, idb, eq)
	}
	return eq
}

// compare runs registered behaviour, then the structural comparison.
func (q *equaler) compare(a, b reflect.Value) bool {
	ta, tb := a.Type(), b.Type()
	ea, liftedA := q.reg.lookup(ta)
	eb, liftedB := q.reg.lookup(tb)

	if (ea != nil && ea.equalsSem == EqualsReferenceOnly) || (eb != nil && eb.equalsSem == EqualsReferenceOnly) {
		return sameReference(a, b)
	}
	if ea != nil && ea.equalsSem == EqualsIterateCompare {
		return q.iterateEqual(a, b, ea, liftedA)
	}
	if eb != nil && eb.equalsSem == EqualsIterateCompare {
		return q.iterateEqual(b, a, eb, liftedB)
	}
	if ea != nil && ea.equals != nil {
		return q.custom(a, b, ea, liftedA)
	}
	if eb != nil && eb.equals != nil {
		return q.custom(b, a, eb, liftedB)
	}

	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Pointer:
		return q.equal(a.Elem(), b.Elem())
	case reflect.Struct:
		return q.structEqual(a, b, ea)
	case reflect.Array:
		return q.sequenceEqual(a, b)
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		if ta.Elem().Kind() == reflect.Uint8 {
			return bytes.Equal(a.Bytes(), b.Bytes())
		}
		return q.sequenceEqual(a, b)
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		set := ta.Elem().Size() == 0 && ta.Elem().Kind() == reflect.Struct
		return q.mapEqual(a, b, set)
	}
	// Distinct channels.
	return false
}

// custom invokes the equality function of x's entry against y. Lifted
// entries compare the pointees of two pointers of the same type.
func (q *equaler) custom(x, y reflect.Value, e *Entry, lifted bool) bool {
	if lifted {
		if y.Type() != x.Type() {
			return false
		}
		x, y = x.Elem(), y.Elem()
	}
	return e.equals(&Comparer{q: q}, x, y)
}

func (q *equaler) iterateEqual(x, y reflect.Value, e *Entry, lifted bool) bool {
	if y.Type() != x.Type() {
		return false
	}
	xs := collect(x, e, lifted)
	ys := collect(y, e, lifted)
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !q.equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

// collect drains the iterate method of v.
func collect(v reflect.Value, e *Entry, lifted bool) []reflect.Value {
	recv := v
	if !lifted {
		recv = addressable(v).Addr()
	}
	seq := recv.MethodByName(e.iterMethod).Call(nil)[0]
	yt := seq.Type().In(0)
	more := []reflect.Value{reflect.ValueOf(true).Convert(yt.Out(0))}
	var out []reflect.Value
	yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
		out = append(out, args[0])
		return more
	})
	seq.Call([]reflect.Value{yield})
	return out
}

func (q *equaler) structEqual(a, b reflect.Value, e *Entry) bool {
	t := a.Type()
	a, b = addressable(a), addressable(b)
	for _, i := range q.fields.indexes(t, e, OpEquals, false) {
		if !q.equal(readable(a.Field(i)), readable(b.Field(i))) {
			return false
		}
	}
	return true
}

func (q *equaler) sequenceEqual(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Len() {
		if !q.equal(a.Index(i), b.Index(i)) {
			return false
		}
	}
	return true
}

// mapEqual pairs each key of a with the identical key of b when there is
// one. The keys left over on both sides must then pair up one-to-one, each
// with a value-equal key whose value is equal as well. Sets skip the value
// check. The outcome does not depend on map iteration order.
func (q *equaler) mapEqual(a, b reflect.Value, set bool) bool {
	var restA, restB []mapItem
	iter := a.MapRange()
	for iter.Next() {
		k := iter.Key()
		vb := b.MapIndex(k)
		if !vb.IsValid() {
			restA = append(restA, mapItem{k, iter.Value()})
			continue
		}
		if !set && !q.equal(iter.Value(), vb) {
			return false
		}
	}
	if len(restA) == 0 {
		return true
	}

	iter = b.MapRange()
	for iter.Next() {
		if !a.MapIndex(iter.Key()).IsValid() {
			restB = append(restB, mapItem{iter.Key(), iter.Value()})
		}
	}
	if len(restA) != len(restB) {
		return false
	}

	edges := make(map[[2]int]bool)
	match := func(i, j int) bool {
		eq, ok := edges[[2]int{i, j}]
		if !ok {
			eq = q.equal(restA[i].key, restB[j].key) && (set || q.equal(restA[i].val, restB[j].val))
			edges[[2]int{i, j}] = eq
		}
		return eq
	}

	// Augmenting paths: owner[j] is the entry of restA paired with restB[j].
	owner := make([]int, len(restB))
	for j := range owner {
		owner[j] = -1
	}
	var assign func(i int, seen []bool) bool
	assign = func(i int, seen []bool) bool {
		for j := range restB {
			if seen[j] || !match(i, j) {
				continue
			}
			seen[j] = true
			if owner[j] < 0 || assign(owner[j], seen) {
				owner[j] = i
				return true
			}
		}
		return false
	}
	for i := range restA {
		if !assign(i, make([]bool, len(restB))) {
			return false
		}
	}
	return true
}

type mapItem struct {
	key, val reflect.Value
}

// sameReference compares by identity, or with == for values that have none.
func sameReference(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	if ida, ok := identityOf(a); ok {
		idb, _ := identityOf(b)
		return ida == idb
	}
	if a.Comparable() && b.Comparable() {
		return a.Equal(b)
	}
	return false
}

// wrappedEqual compares an atomic value with a pointer to one.
func wrappedEqual(a, b reflect.Value) bool {
	if isAtomic(b.Kind()) {
		a, b = b, a
	}
	if b.Kind() != reflect.Pointer || b.Type().Elem() != a.Type() {
		return false
	}
	return atomicEqual(a, b.Elem())
}

// atomicEqual compares two atomic values of the same type. NaN equals NaN.
func atomicEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return floatEqual(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return floatEqual(real(x), real(y)) && floatEqual(imag(x), imag(y))
	case reflect.String:
		return a.String() == b.String()
	case reflect.Func, reflect.UnsafePointer:
		// Funcs have no identity beyond their entry point.
		return a.IsNil() == b.IsNil() && a.Pointer() == b.Pointer()
	}
	return !a.IsValid() && !b.IsValid()
}

func floatEqual(x, y float64) bool {
	return x == y || (x != x && y != y)
}
