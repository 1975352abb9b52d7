package mir

import (
	"reef/internal/symbols"
)

// Field is a data type field.
type Field struct {
	Name string  `msgpack:"n"`
	Type TypeRef `msgpack:"t"`
}

// Variant is one shape of a data type. Union variants start with the
// _variantIdentifier field; classes have the single _classVariant.
type Variant struct {
	Name   string  `msgpack:"n"`
	Fields []Field `msgpack:"f,omitempty"`
}

// Field looks a field up by name.
func (v *Variant) Field(name string) (*Field, bool) {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return &v.Fields[i], true
		}
	}
	return nil, false
}

// StaticField is a static field with its initializer.
type StaticField struct {
	Name string  `msgpack:"n"`
	Type TypeRef `msgpack:"t"`
	Init Body    `msgpack:"i"`
}

// DataType is a class, union, builtin or synthesized record layout.
type DataType struct {
	ID         symbols.DefID `msgpack:"id"`
	Name       string        `msgpack:"n"`
	TypeParams []TypeRef     `msgpack:"tp,omitempty"`
	Variants   []Variant     `msgpack:"v"`
	Static     []StaticField `msgpack:"s,omitempty"`
	Builtin    bool          `msgpack:"bi,omitempty"`
}

// Variant looks a variant up by name and returns its ordinal.
func (d *DataType) Variant(name string) (*Variant, int, bool) {
	for i := range d.Variants {
		if d.Variants[i].Name == name {
			return &d.Variants[i], i, true
		}
	}
	return nil, -1, false
}

// IsUnion reports whether variants carry a tag.
func (d *DataType) IsUnion() bool {
	return len(d.Variants) > 0 && d.Variants[0].Name != ClassVariantName
}

// SelfRef references the data type instantiated with its own parameters.
func (d *DataType) SelfRef() TypeRef {
	return Concrete(d.Name, d.ID, d.TypeParams...)
}
