package hir

import (
	"reef/internal/source"
	"reef/internal/symbols"
)

// Program is one type-checked compilation unit.
type Program struct {
	Module string       `msgpack:"m"`
	Files  []SourceFile `msgpack:"fs,omitempty"`

	Classes []*Class `msgpack:"c,omitempty"`
	Unions  []*Union `msgpack:"u,omitempty"`
	Funcs   []*Func  `msgpack:"f,omitempty"`

	// Top-level statements become the body of the synthesized _Main.
	TopLevel       []*Expr `msgpack:"t,omitempty"`
	TopLevelLocals []Local `msgpack:"tl,omitempty"`
}

// SourceFile names a file referenced by spans; Content is optional.
type SourceFile struct {
	Path    string `msgpack:"p"`
	Content []byte `msgpack:"c,omitempty"`
}

// MainDef returns the id of the synthesized top-level function.
func (p *Program) MainDef() symbols.DefID {
	return symbols.NewDefID(p.Module, "_Main")
}

// FileSet builds the file set spans of this program refer to.
func (p *Program) FileSet() *source.FileSet {
	fs := source.NewFileSet()
	for _, f := range p.Files {
		fs.Add(f.Path, f.Content)
	}
	return fs
}

// Field is a class field or a class-variant field.
type Field struct {
	Name   string      `msgpack:"n"`
	Type   Type        `msgpack:"t"`
	Static bool        `msgpack:"st,omitempty"`
	Span   source.Span `msgpack:"s"`

	// Init and InitLocals describe a static field initializer.
	Init       *Expr   `msgpack:"i,omitempty"`
	InitLocals []Local `msgpack:"il,omitempty"`
}

// InitDef returns the id that owns InitLocals of a static field declared in owner.
func (f *Field) InitDef(owner symbols.DefID) symbols.DefID {
	return owner.Child(f.Name)
}

// Class is a class declaration.
type Class struct {
	Def        symbols.DefID  `msgpack:"d"`
	Name       string         `msgpack:"n"`
	Span       source.Span    `msgpack:"s"`
	TypeParams []GenericParam `msgpack:"tp,omitempty"`
	Fields     []Field        `msgpack:"f,omitempty"`
	Funcs      []*Func        `msgpack:"fn,omitempty"`
}

// SelfType returns the class instantiated with its own placeholders.
func (c *Class) SelfType() Type {
	return selfType(c.Name, c.Def, c.TypeParams)
}

// VariantKind distinguishes union variant shapes.
type VariantKind uint8

const (
	// VariantUnit has no payload.
	VariantUnit VariantKind = iota
	// VariantTuple has positional members.
	VariantTuple
	// VariantClass has named fields.
	VariantClass
)

func (k VariantKind) String() string {
	switch k {
	case VariantUnit:
		return "unit"
	case VariantTuple:
		return "tuple"
	case VariantClass:
		return "class"
	default:
		return "unknown"
	}
}

// Variant is one alternative of a union.
type Variant struct {
	Name   string      `msgpack:"n"`
	Kind   VariantKind `msgpack:"k"`
	Items  []Type      `msgpack:"it,omitempty"`
	Fields []Field     `msgpack:"f,omitempty"`
	Span   source.Span `msgpack:"s"`
}

// Union is a union declaration.
type Union struct {
	Def        symbols.DefID  `msgpack:"d"`
	Name       string         `msgpack:"n"`
	Span       source.Span    `msgpack:"s"`
	TypeParams []GenericParam `msgpack:"tp,omitempty"`
	Variants   []Variant      `msgpack:"v,omitempty"`
	Funcs      []*Func        `msgpack:"fn,omitempty"`
}

// SelfType returns the union instantiated with its own placeholders.
func (u *Union) SelfType() Type {
	return selfType(u.Name, u.Def, u.TypeParams)
}

// Variant looks up a variant and its ordinal.
func (u *Union) Variant(name string) (*Variant, int, bool) {
	for i := range u.Variants {
		if u.Variants[i].Name == name {
			return &u.Variants[i], i, true
		}
	}
	return nil, -1, false
}

// CreateDef returns the id of the create function of a tuple variant.
func (u *Union) CreateDef(variant string) symbols.DefID {
	return u.Def.Child("Create").Child(variant)
}

func selfType(name string, def symbols.DefID, params []GenericParam) Type {
	t := Instance(name, def)
	for _, p := range params {
		t.Args = append(t.Args, p.Type())
	}
	return t
}
