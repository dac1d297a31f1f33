// Package valsem provides deep cloning and semantic equality for arbitrary Go
// value graphs, with per-type behaviour installed through a registry.
//
// # Overview
//
// Clone produces an independent copy of a value: every pointer, slice and map
// reachable from the source is copied, unexported fields included. Equals
// compares two values by content rather than identity. Both operations are
// safe on cyclic graphs. Clone keeps shared references shared, so a graph in
// which two fields point at the same node clones to a graph with the same
// shape.
//
// # Registry
//
// A Registry maps types to behaviour. Types with no entry are handled
// structurally. Entries registered on a struct type T also apply to *T.
//
//	valsem.MustRegister[Session](
//		valsem.ReferenceEquality(),
//		valsem.CloneExcludeFields("conn"),
//	)
//
// Available behaviours:
//
//   - ReturnOriginal: clones share the source value
//   - ErrorOnClone: Clone fails with a *CloneForbiddenError
//   - ReferenceEquality: equal only when the same reference
//   - ConstructWith: new values are built by a constructor fed with field values
//   - IterateRebuild / IterateCompare: collections traversed through an iter.Seq method
//   - CloneWith / EqualsWith: arbitrary functions
//   - field include and exclude sets, per operation or for both
//
// Registration is expected to happen during initialisation. The registry is
// not locked, so traversals may run concurrently only while nothing registers.
//
// # Built-in kinds
//
// time.Time, *time.Location, *regexp.Regexp, the math/big numbers,
// *bytes.Buffer, *strings.Builder, weak.Pointer, unique.Handle, reflect.Type,
// the sync primitives and os.File come pre-registered in every registry.
//
// # Channels
//
// A channel carries live communication state and cannot be cloned; Clone
// returns a *GeneratorCloneError. Distinct channels are never equal.
//
// # Logging
//
// A registry logs registrations and per-call traversal summaries at debug
// level through the zap logger set with WithLogger or SetLogger. Each call is
// tagged with a trace id.
package valsem
