// Package mir is the control-flow IR produced from typed HIR. LowerProgram
// resolves which outer variables every nested function captures, turns
// structured expressions into basic blocks and compiles match expressions
// into decision trees over the scrutinee.
package mir

import "reef/internal/symbols"

// Module is the self-contained output of lowering one unit.
type Module struct {
	Name      string      `msgpack:"n"`
	DataTypes []*DataType `msgpack:"t"`
	Funcs     []*Func     `msgpack:"f"`
}

// DataType finds a data type by id.
func (m *Module) DataType(id symbols.DefID) (*DataType, bool) {
	for _, dt := range m.DataTypes {
		if dt.ID == id {
			return dt, true
		}
	}
	return nil, false
}

// Func finds a method by name.
func (m *Module) Func(name string) (*Func, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
