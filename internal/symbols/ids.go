// Package symbols names definitions across units.
package symbols

import "strings"

// DefID identifies a declared function or type across the whole compilation.
// Module is the unit that declared it, Name the qualified name.
type DefID struct {
	Module string `msgpack:"m"`
	Name   string `msgpack:"n"`
}

// NoDefID marks the absence of a definition.
var NoDefID = DefID{}

// NewDefID builds an id from a module and its qualified name.
func NewDefID(module, name string) DefID {
	return DefID{Module: module, Name: name}
}

// IsValid reports whether the id names a definition.
func (id DefID) IsValid() bool { return id.Name != "" }

// Derive returns the id of a definition synthesized from id, e.g. a Locals type.
func (id DefID) Derive(suffix string) DefID {
	return DefID{Module: id.Module, Name: id.Name + suffix}
}

// Child returns the id of a member declared inside id. Nested names are
// joined with "__", which is also the lowered method name.
func (id DefID) Child(name string) DefID {
	if id.Name == "" {
		return DefID{Module: id.Module, Name: name}
	}
	return DefID{Module: id.Module, Name: id.Name + "__" + name}
}

// Short returns the last segment of the qualified name.
func (id DefID) Short() string {
	if i := strings.LastIndex(id.Name, "__"); i >= 0 {
		return id.Name[i+2:]
	}
	return id.Name
}

func (id DefID) String() string {
	if id.Module == "" {
		return id.Name
	}
	return id.Module + ":" + id.Name
}

// Compare orders ids by module, then name.
func Compare(a, b DefID) int {
	if c := strings.Compare(a.Module, b.Module); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
