package mir

import (
	"reef/internal/source"
	"reef/internal/symbols"
)

// Body is a lowered code block: a method body or a static initializer.
type Body struct {
	Result Local   `msgpack:"r"`
	Locals []Local `msgpack:"l,omitempty"`
	Blocks []Block `msgpack:"b"`
}

// Func is a lowered method.
type Func struct {
	ID         symbols.DefID `msgpack:"id"`
	Name       string        `msgpack:"n"`
	Span       source.Span   `msgpack:"sp"`
	TypeParams []TypeRef     `msgpack:"tp,omitempty"`
	Params     []Local       `msgpack:"p,omitempty"`
	Builtin    bool          `msgpack:"bi,omitempty"` // body supplied by the runtime
	Body
}

// Ref returns a reference to the method instantiated with args.
func (f *Func) Ref(args ...TypeRef) FuncRef {
	return FuncRef{ID: f.ID, Name: f.Name, TypeArgs: args}
}

// LookupLocal finds a parameter, local or the return local by name.
func (f *Func) LookupLocal(name string) (*Local, bool) {
	if f.Result.Name == name {
		return &f.Result, true
	}
	for i := range f.Params {
		if f.Params[i].Name == name {
			return &f.Params[i], true
		}
	}
	for i := range f.Locals {
		if f.Locals[i].Name == name {
			return &f.Locals[i], true
		}
	}
	return nil, false
}
