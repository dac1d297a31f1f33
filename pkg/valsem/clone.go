package valsem

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Clone returns an independent deep copy of src using the default registry.
// Shared references in src stay shared in the copy and cycles are preserved.
func Clone[T any](src T) (T, error) {
	return CloneIn(defaultRegistry, src)
}

// MustClone is like Clone but panics on error.
func MustClone[T any](src T) T {
	out, err := Clone(src)
	if err != nil {
		panic(err)
	}
	return out
}

// CloneIn is Clone against a specific registry.
func CloneIn[T any](r *Registry, src T) (T, error) {
	out, err := r.cloneRoot(reflect.ValueOf(&src).Elem())
	if err != nil {
		var zero T
		return zero, err
	}
	return valueAs[T](out), nil
}

// Clone deep-copies src. The result has the same dynamic type as src.
func (r *Registry) Clone(src any) (any, error) {
	out, err := r.cloneRoot(reflect.ValueOf(&src).Elem())
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (r *Registry) cloneRoot(src reflect.Value) (reflect.Value, error) {
	c := &cloner{
		reg:    r,
		memo:   make(map[identity]reflect.Value),
		fields: make(fieldCache),
	}
	trace := r.traceID()
	out, err := c.clone(src)
	r.debug("clone finished",
		zap.String("trace", trace),
		zap.Stringer("type", src.Type()),
		zap.Int("nodes", c.nodes),
		zap.Int("memo_hits", c.hits),
		zap.Error(err))
	if err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// cloner holds the state of one top-level Clone call.
type cloner struct {
	reg    *Registry
	memo   map[identity]reflect.Value
	fields fieldCache
	depth  int
	nodes  int
	hits   int

	// Values without a stable target mid-rebuild.
	rebuilding map[identity]bool
}

// Cloner gives custom clone functions access to the clone in progress.
type Cloner struct {
	c *cloner
}

// Clone deep-copies v within the current clone, sharing its memo.
func (h *Cloner) Clone(v any) (any, error) {
	out, err := h.c.clone(reflect.ValueOf(&v).Elem())
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Remember records dst as the clone of src so later references to src,
// including cyclic ones, resolve to dst. Values without identity are ignored.
func (h *Cloner) Remember(src, dst any) {
	if id, ok := identityOf(reflect.ValueOf(src)); ok {
		h.c.memo[id] = reflect.ValueOf(dst)
	}
}

// CloneValue is Cloner.Clone with the static type of v kept.
func CloneValue[T any](h *Cloner, v T) (T, error) {
	out, err := h.c.clone(reflect.ValueOf(&v).Elem())
	if err != nil {
		var zero T
		return zero, err
	}
	return valueAs[T](out), nil
}

func (c *cloner) remember(id identity, ok bool, dst reflect.Value) {
	if ok {
		c.memo[id] = dst
	}
}

func (c *cloner) clone(src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return src, nil
	}
	t := src.Type()
	if isAtomic(t.Kind()) || isNil(src) {
		return src, nil
	}
	if t.Kind() == reflect.Interface {
		inner, err := c.clone(src.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		out.Set(inner)
		return out, nil
	}

	c.nodes++
	if c.reg.maxDepth > 0 {
		c.depth++
		defer func() { c.depth-- }()
		if c.depth > c.reg.maxDepth {
			return reflect.Value{}, ErrDepthExceeded
		}
	}

	e, lifted := c.reg.lookup(t)
	if e != nil && e.cloneSem == CloneErrorOnClone {
		name := t
		if lifted {
			name = t.Elem()
		}
		return reflect.Value{}, &CloneForbiddenError{TypeName: name.String()}
	}

	id, hasID := identityOf(src)
	if hasID {
		if dst, ok := c.memo[id]; ok {
			c.hits++
			return dst, nil
		}
	}

	if e != nil {
		switch {
		case e.cloneSem == CloneReturnOriginal:
			c.remember(id, hasID, src)
			return src, nil
		case e.cloneSem == CloneIterateRebuild:
			return c.rebuild(src, e, lifted, id, hasID)
		case e.clone != nil:
			return c.custom(src, e, lifted, id, hasID)
		}
	}

	switch t.Kind() {
	case reflect.Chan:
		return reflect.Value{}, &GeneratorCloneError{TypeName: t.String()}
	case reflect.Pointer:
		return c.clonePointer(src, id)
	case reflect.Struct:
		return c.cloneStruct(src, e)
	case reflect.Array:
		return c.cloneArray(src)
	case reflect.Slice:
		return c.cloneSlice(src, id)
	case reflect.Map:
		return c.cloneMap(src, id)
	}
	return src, nil
}

func (c *cloner) custom(src reflect.Value, e *Entry, lifted bool, id identity, hasID bool) (reflect.Value, error) {
	h := &Cloner{c: c}
	if lifted {
		dst := reflect.New(src.Type().Elem())
		c.remember(id, hasID, dst)
		v, err := e.clone(h, src.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		dst.Elem().Set(v)
		return dst, nil
	}

	v, err := e.clone(h, src)
	if err != nil {
		return reflect.Value{}, err
	}
	if hasID {
		if _, ok := c.memo[id]; !ok {
			c.memo[id] = v
		}
	}
	return v, nil
}

// rebuild implements CloneIterateRebuild: a fresh value receives clones of the
// source's elements through the add method.
func (c *cloner) rebuild(src reflect.Value, e *Entry, lifted bool, id identity, hasID bool) (reflect.Value, error) {
	var recv reflect.Value
	if lifted {
		recv = src
	} else {
		recv = addressable(src).Addr()
	}
	dst, err := c.construct(recv.Elem(), e)
	if err != nil {
		return reflect.Value{}, err
	}
	switch {
	case lifted:
		c.remember(id, hasID, dst)
	case dst.Elem().Kind() == reflect.Map:
		if dst.Elem().IsNil() {
			dst.Elem().Set(reflect.MakeMap(dst.Elem().Type()))
		}
		c.remember(id, hasID, dst.Elem())
	case hasID:
		if c.rebuilding[id] {
			return reflect.Value{}, &RebuildCycleError{TypeName: src.Type().String()}
		}
		if c.rebuilding == nil {
			c.rebuilding = make(map[identity]bool)
		}
		c.rebuilding[id] = true
		defer delete(c.rebuilding, id)
	}

	seq := recv.MethodByName(e.iterMethod).Call(nil)[0]
	add := dst.MethodByName(e.addMethod)
	yt := seq.Type().In(0)
	stop := []reflect.Value{reflect.ValueOf(false).Convert(yt.Out(0))}
	more := []reflect.Value{reflect.ValueOf(true).Convert(yt.Out(0))}
	var failed error
	yield := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
		v, err := c.clone(args[0])
		if err != nil {
			failed = err
			return stop
		}
		add.Call([]reflect.Value{v})
		return more
	})
	seq.Call([]reflect.Value{yield})
	if failed != nil {
		return reflect.Value{}, failed
	}

	if lifted {
		return dst, nil
	}
	out := dst.Elem()
	c.remember(id, hasID, out)
	return out, nil
}

// construct returns a pointer to a new value of src's type, built by the
// registered constructor when there is one.
func (c *cloner) construct(src reflect.Value, e *Entry) (reflect.Value, error) {
	t := src.Type()
	if e == nil || e.typ != t || !e.ctor.IsValid() {
		return reflect.New(t), nil
	}
	src = addressable(src)
	args := make([]reflect.Value, len(e.ctorIdx))
	for i, idx := range e.ctorIdx {
		args[i] = readable(src.Field(idx))
	}
	out := e.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("construct %s: %w", t, out[1].Interface().(error))
	}
	v := out[0]
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("construct %s: constructor returned nil", t)
		}
		return v, nil
	}
	p := reflect.New(t)
	p.Elem().Set(v)
	return p, nil
}

func (c *cloner) clonePointer(src reflect.Value, id identity) (reflect.Value, error) {
	et := src.Type().Elem()
	if et.Kind() == reflect.Struct {
		e := c.reg.entryFor(et)
		dst, err := c.construct(src.Elem(), e)
		if err != nil {
			return reflect.Value{}, err
		}
		c.memo[id] = dst
		if err := c.copyFields(dst.Elem(), src.Elem(), e); err != nil {
			return reflect.Value{}, err
		}
		return dst, nil
	}

	dst := reflect.New(et)
	c.memo[id] = dst
	v, err := c.clone(src.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	dst.Elem().Set(v)
	return dst, nil
}

func (c *cloner) cloneStruct(src reflect.Value, e *Entry) (reflect.Value, error) {
	dst, err := c.construct(src, e)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := c.copyFields(dst.Elem(), src, e); err != nil {
		return reflect.Value{}, err
	}
	return dst.Elem(), nil
}

// copyFields clones the selected fields of src into dst. Fields left out by
// the policy keep whatever value dst already holds.
func (c *cloner) copyFields(dst, src reflect.Value, e *Entry) error {
	t := src.Type()
	src = addressable(src)
	rebuilding := e != nil && e.typ == t && e.ctor.IsValid()
	for _, i := range c.fields.indexes(t, e, OpClone, rebuilding) {
		v, err := c.clone(readable(src.Field(i)))
		if err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		writable(dst.Field(i)).Set(v)
	}
	return nil
}

func (c *cloner) cloneArray(src reflect.Value) (reflect.Value, error) {
	t := src.Type()
	if isAtomic(t.Elem().Kind()) {
		return src, nil
	}
	dst := reflect.New(t).Elem()
	for i := range src.Len() {
		v, err := c.clone(src.Index(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		dst.Index(i).Set(v)
	}
	return dst, nil
}

func (c *cloner) cloneSlice(src reflect.Value, id identity) (reflect.Value, error) {
	t := src.Type()
	dst := reflect.MakeSlice(t, src.Len(), src.Cap())
	c.memo[id] = dst
	if isAtomic(t.Elem().Kind()) {
		reflect.Copy(dst, src)
		return dst, nil
	}
	for i := range src.Len() {
		v, err := c.clone(src.Index(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		dst.Index(i).Set(v)
	}
	return dst, nil
}

func (c *cloner) cloneMap(src reflect.Value, id identity) (reflect.Value, error) {
	dst := reflect.MakeMapWithSize(src.Type(), src.Len())
	c.memo[id] = dst
	iter := src.MapRange()
	for iter.Next() {
		k, err := c.clone(iter.Key())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
		}
		v, err := c.clone(iter.Value())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
		}
		dst.SetMapIndex(k, v)
	}
	return dst, nil
}
