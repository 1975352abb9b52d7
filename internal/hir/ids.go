// Package hir is the typed program the lowering stage consumes.
//
// The type checker hands over every function signature with its parameters,
// locals and nested functions, the class and union declarations, and for
// each expression its resolved type, variable binding and generic
// instantiation. Variables are referenced by identity (owner + id), never by
// pointer, so a program survives a msgpack round trip unchanged.
package hir

// LocalID identifies a local variable within its owning function.
type LocalID uint32

// NoLocalID marks the absence of a local (zero is sentinel).
const NoLocalID LocalID = 0

// IsValid returns true if the ID is valid (non-zero).
func (id LocalID) IsValid() bool { return id != NoLocalID }
