// Package primitives provides the foundational data structures for the engine:
// the name store that interns state and trigger names, trigger events, the
// per-machine variable context, and the declarative machine document types.
//
// Core invariants:
//   - Name ids are dense and never freed; id 0 is the empty name.
//   - Trigger events are values; consumers must not mutate Args after enqueueing.
//   - Vars is safe for concurrent access.
//
//go:generate go test ./... -race
package primitives
