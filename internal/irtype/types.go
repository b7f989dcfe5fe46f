// Package irtype defines the closed set of value types used throughout the
// middle-end IR: expressions, instructions, the variable table and every
// analysis carry one of these as their result type. The set is closed by
// design (see spec §3) so every pass can exhaustively switch over it.
package irtype

import "fmt"

// Type is implemented by every IR value type. Equality is structural, not
// pointer identity, so two independently constructed Uint(256) values compare
// equal.
type Type interface {
	String() string
	Equal(other Type) bool
	isType()
}

// ArrayLength describes one dimension of an Array type.
type ArrayLength struct {
	Fixed   bool
	Size    uint64 // only meaningful when Fixed
}

func FixedLen(n uint64) ArrayLength { return ArrayLength{Fixed: true, Size: n} }
func DynamicLen() ArrayLength       { return ArrayLength{Fixed: false} }

func (a ArrayLength) String() string {
	if a.Fixed {
		return fmt.Sprintf("%d", a.Size)
	}
	return ""
}

type Bool struct{}

func (Bool) isType()             {}
func (Bool) String() string      { return "bool" }
func (Bool) Equal(o Type) bool   { _, ok := o.(Bool); return ok }

// Int is a signed integer of width Bits (8..256).
type Int struct{ Bits int }

func (Int) isType()        {}
func (t Int) String() string { return fmt.Sprintf("int%d", t.Bits) }
func (t Int) Equal(o Type) bool {
	other, ok := o.(Int)
	return ok && other.Bits == t.Bits
}

// Uint is an unsigned integer of width Bits (8..256).
type Uint struct{ Bits int }

func (Uint) isType()        {}
func (t Uint) String() string { return fmt.Sprintf("uint%d", t.Bits) }
func (t Uint) Equal(o Type) bool {
	other, ok := o.(Uint)
	return ok && other.Bits == t.Bits
}

// Bytes is a fixed-width byte array (1..32 bytes, i.e. bytes1..bytes32).
type Bytes struct{ N int }

func (Bytes) isType()        {}
func (t Bytes) String() string { return fmt.Sprintf("bytes%d", t.N) }
func (t Bytes) Equal(o Type) bool {
	other, ok := o.(Bytes)
	return ok && other.N == t.N
}

type DynamicBytes struct{}

func (DynamicBytes) isType()        {}
func (DynamicBytes) String() string { return "bytes" }
func (DynamicBytes) Equal(o Type) bool {
	_, ok := o.(DynamicBytes)
	return ok
}

type String struct{}

func (String) isType()        {}
func (String) String() string { return "string" }
func (String) Equal(o Type) bool {
	_, ok := o.(String)
	return ok
}

// Address is an account/contract address; Payable distinguishes the
// address-payable Solidity-family subtype.
type Address struct{ Payable bool }

func (Address) isType() {}
func (t Address) String() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}
func (t Address) Equal(o Type) bool {
	other, ok := o.(Address)
	return ok && other.Payable == t.Payable
}

// Contract refers to a contract type by its namespace id. A contract value
// is layout-compatible with Address.
type Contract struct{ ID int }

func (Contract) isType()        {}
func (t Contract) String() string { return fmt.Sprintf("contract#%d", t.ID) }
func (t Contract) Equal(o Type) bool {
	other, ok := o.(Contract)
	return ok && other.ID == t.ID
}

type Enum struct{ ID int }

func (Enum) isType()        {}
func (t Enum) String() string { return fmt.Sprintf("enum#%d", t.ID) }
func (t Enum) Equal(o Type) bool {
	other, ok := o.(Enum)
	return ok && other.ID == t.ID
}

// Struct refers to a struct type either by namespace id or, for compiler
// builtins (e.g. the ABI-decode scratch struct), by name.
type Struct struct {
	ID      int
	Builtin string // non-empty for builtin structs; ID is ignored then
}

func (Struct) isType() {}
func (t Struct) String() string {
	if t.Builtin != "" {
		return "struct " + t.Builtin
	}
	return fmt.Sprintf("struct#%d", t.ID)
}
func (t Struct) Equal(o Type) bool {
	other, ok := o.(Struct)
	if !ok {
		return false
	}
	if t.Builtin != "" || other.Builtin != "" {
		return t.Builtin == other.Builtin
	}
	return t.ID == other.ID
}

// Array is a (possibly multi-dimensional) array of Elem. Dims is ordered
// outermost-first, matching Solidity-family declaration order.
type Array struct {
	Elem Type
	Dims []ArrayLength
}

func (Array) isType() {}
func (t Array) String() string {
	s := t.Elem.String()
	for _, d := range t.Dims {
		s += "[" + d.String() + "]"
	}
	return s
}
func (t Array) Equal(o Type) bool {
	other, ok := o.(Array)
	if !ok || len(t.Dims) != len(other.Dims) || !t.Elem.Equal(other.Elem) {
		return false
	}
	for i := range t.Dims {
		if t.Dims[i] != other.Dims[i] {
			return false
		}
	}
	return true
}

type Mapping struct {
	Key   Type
	Value Type
}

func (Mapping) isType() {}
func (t Mapping) String() string {
	return fmt.Sprintf("mapping(%s => %s)", t.Key.String(), t.Value.String())
}
func (t Mapping) Equal(o Type) bool {
	other, ok := o.(Mapping)
	return ok && t.Key.Equal(other.Key) && t.Value.Equal(other.Value)
}

// Ref is a memory handle: dereferencing it yields a value of type Elem.
type Ref struct{ Elem Type }

func (Ref) isType()        {}
func (t Ref) String() string { return "ref<" + t.Elem.String() + ">" }
func (t Ref) Equal(o Type) bool {
	other, ok := o.(Ref)
	return ok && t.Elem.Equal(other.Elem)
}

// StorageRef is a handle to persistent contract storage, addressed by slot.
// Immutable marks a reference obtained through a read-only path (e.g. a
// `view` accessor), which callers may use to reject writes statically.
type StorageRef struct {
	Elem      Type
	Immutable bool
}

func (StorageRef) isType() {}
func (t StorageRef) String() string {
	if t.Immutable {
		return "storage_ref<const " + t.Elem.String() + ">"
	}
	return "storage_ref<" + t.Elem.String() + ">"
}
func (t StorageRef) Equal(o Type) bool {
	other, ok := o.(StorageRef)
	return ok && t.Immutable == other.Immutable && t.Elem.Equal(other.Elem)
}

// Slice is a ptr+len view over a contiguous run of Elem, used for calldata
// and memory slices produced by AdvancePointer/Subscript chains.
type Slice struct{ Elem Type }

func (Slice) isType()        {}
func (t Slice) String() string { return "slice<" + t.Elem.String() + ">" }
func (t Slice) Equal(o Type) bool {
	other, ok := o.(Slice)
	return ok && t.Elem.Equal(other.Elem)
}

type FunctionKind int

const (
	FunctionInternal FunctionKind = iota
	FunctionExternal
)

type FunctionPtr struct {
	Kind    FunctionKind
	Params  []Type
	Returns []Type
}

func (FunctionPtr) isType() {}
func (t FunctionPtr) String() string {
	kind := "internal"
	if t.Kind == FunctionExternal {
		kind = "external"
	}
	return fmt.Sprintf("function(%s) %s returns (%d)", kind, paramsString(t.Params), len(t.Returns))
}
func (t FunctionPtr) Equal(o Type) bool {
	other, ok := o.(FunctionPtr)
	if !ok || t.Kind != other.Kind || len(t.Params) != len(other.Params) || len(t.Returns) != len(other.Returns) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	for i := range t.Returns {
		if !t.Returns[i].Equal(other.Returns[i]) {
			return false
		}
	}
	return true
}

func paramsString(ts []Type) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s
}

// Value is the platform value type (wei/lamports/etc); its bit width is
// platform dependent, resolved through Namespace.ValueWidth.
type Value struct{}

func (Value) isType()        {}
func (Value) String() string { return "value" }
func (Value) Equal(o Type) bool {
	_, ok := o.(Value)
	return ok
}

type Void struct{}

func (Void) isType()        {}
func (Void) String() string { return "void" }
func (Void) Equal(o Type) bool {
	_, ok := o.(Void)
	return ok
}

// Unreachable types an expression that provably never produces a value
// (e.g. the result of a statement that always reverts).
type Unreachable struct{}

func (Unreachable) isType()        {}
func (Unreachable) String() string { return "unreachable" }
func (Unreachable) Equal(o Type) bool {
	_, ok := o.(Unreachable)
	return ok
}

// Widths is the subset of Namespace that bit-width queries need, kept as a
// narrow interface so irtype does not import the namespace package.
type Widths interface {
	AddressBits() int
	ValueBits() int
}

// Bits returns the width, in bits, of an integer-like type. Platform
// dependent types (Address, Value) ask ns. Panics with a plain string
// message (not an internal/errors ICE) on types with no bit width — callers
// must check first with HasBits.
func Bits(t Type, ns Widths) int {
	switch v := t.(type) {
	case Int:
		return v.Bits
	case Uint:
		return v.Bits
	case Bool:
		return 1
	case Bytes:
		return v.N * 8
	case Enum:
		return 8
	case Address:
		return ns.AddressBits()
	case Contract:
		return ns.AddressBits()
	case Value:
		return ns.ValueBits()
	default:
		panic(fmt.Sprintf("irtype: Bits called on non-integer-like type %s", t.String()))
	}
}

// HasBits reports whether Bits(t, ns) is well defined.
func HasBits(t Type) bool {
	switch t.(type) {
	case Int, Uint, Bool, Bytes, Enum, Address, Contract, Value:
		return true
	default:
		return false
	}
}

// Signed reports whether the type's integer values should be interpreted as
// two's-complement signed.
func Signed(t Type) bool {
	_, ok := t.(Int)
	return ok
}
