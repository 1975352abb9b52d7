package symbols

import "strconv"

// BuiltinModule is the module every compiler-provided definition lives in.
const BuiltinModule = "reef"

var (
	Int8       = NewDefID(BuiltinModule, "i8")
	Int16      = NewDefID(BuiltinModule, "i16")
	Int32      = NewDefID(BuiltinModule, "i32")
	Int64      = NewDefID(BuiltinModule, "i64")
	UInt8      = NewDefID(BuiltinModule, "u8")
	UInt16     = NewDefID(BuiltinModule, "u16")
	UInt32     = NewDefID(BuiltinModule, "u32")
	UInt64     = NewDefID(BuiltinModule, "u64")
	String     = NewDefID(BuiltinModule, "string")
	Bool       = NewDefID(BuiltinModule, "bool")
	Unit       = NewDefID(BuiltinModule, "Unit")
	RawPointer = NewDefID(BuiltinModule, "RawPointer")
	Result     = NewDefID(BuiltinModule, "result")
)

// MaxFunctionArity bounds the Function`N and Tuple`N families.
const MaxFunctionArity = 16

type intInfo struct {
	size   uint8
	signed bool
}

var intTypes = map[DefID]intInfo{
	Int8:   {1, true},
	Int16:  {2, true},
	Int32:  {4, true},
	Int64:  {8, true},
	UInt8:  {1, false},
	UInt16: {2, false},
	UInt32: {4, false},
	UInt64: {8, false},
}

// IntInfo reports the byte size and signedness of a builtin integer type.
func IntInfo(id DefID) (size uint8, signed, ok bool) {
	info, ok := intTypes[id]
	return info.size, info.signed, ok
}

// FunctionObject returns the id of the Function`N data type, where n counts
// the parameters plus the return type.
func FunctionObject(n int) DefID {
	return NewDefID(BuiltinModule, "Function`"+strconv.Itoa(n))
}

// FunctionObjectCall returns the id of the invoke method of Function`N.
func FunctionObjectCall(n int) DefID {
	return NewDefID(BuiltinModule, "Function`"+strconv.Itoa(n)+"__Call")
}

// Tuple returns the id of the Tuple`N class.
func Tuple(n int) DefID {
	return NewDefID(BuiltinModule, "Tuple`"+strconv.Itoa(n))
}

// ResultCreate returns the id of the create method of a result variant.
func ResultCreate(variant string) DefID {
	return NewDefID(BuiltinModule, "result__Create__"+variant)
}

// IsBuiltin reports whether id is compiler-provided.
func IsBuiltin(id DefID) bool {
	return id.Module == BuiltinModule
}
