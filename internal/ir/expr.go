// Package ir is the codegen-level IR: the closed Expression variant set and
// the Instr/BasicBlock/CFG linear three-address form that internal/cfgbuild
// produces from an internal/ast tree, and every later pass
// (internal/availexpr, internal/reach, internal/strength, internal/cse,
// internal/reachability, internal/lir) reads and rewrites (spec §3).
//
// Expression is pure: evaluating one never has an observable side effect.
// Side effects live only in Instr. This is what lets internal/availexpr
// treat most Expression trees as safely re-orderable/shareable, and forces
// internal/cfgbuild to hoist anything effectful (calls, storage access,
// increments) out to a Set-producing temporary before it can appear as an
// operand (spec §4.1).
package ir

import (
	"cfgmid/internal/ast"
	"cfgmid/internal/irtype"
)

type Loc = ast.Loc

// Expression is the closed tagged-variant expression tree (spec §3).
type Expression interface {
	Loc() Loc
	Type() irtype.Type
	isExpression()
}

type ExprBase struct {
	L  Loc
	Ty irtype.Type
}

func (e ExprBase) Loc() Loc          { return e.L }
func (e ExprBase) Type() irtype.Type { return e.Ty }

// ---- Literals ----

type BoolLiteral struct {
	ExprBase
	Value bool
}

func (BoolLiteral) isExpression() {}

type NumberLiteral struct {
	ExprBase
	Value int64
}

func (NumberLiteral) isExpression() {}

type BytesLiteral struct {
	ExprBase
	Value []byte
}

func (BytesLiteral) isExpression() {}

// ConstantVariable references a contract-level `constant` declaration.
// Contract is nil for a free (non-contract-scoped) constant.
type ConstantVariable struct {
	ExprBase
	Contract *int
	ID       int
}

func (ConstantVariable) isExpression() {}

type ArrayLiteral struct {
	ExprBase
	Values []Expression
}

func (ArrayLiteral) isExpression() {}

// ConstArrayLiteral is an ArrayLiteral every element of which is itself a
// compile-time constant; kept distinct so the back end may place it in
// read-only data instead of constructing it at runtime.
type ConstArrayLiteral struct {
	ExprBase
	Values []Expression
}

func (ConstArrayLiteral) isExpression() {}

type StructLiteral struct {
	ExprBase
	Fields []Expression
}

func (StructLiteral) isExpression() {}

// ---- Variables ----

// Variable references a local variable/temporary by its vartable id.
type Variable struct {
	ExprBase
	ID int
}

func (Variable) isExpression() {}

// FunctionArg references a function parameter by its ordinal position.
type FunctionArg struct {
	ExprBase
	Index int
}

func (FunctionArg) isExpression() {}

// StorageVariable references a named contract storage variable.
type StorageVariable struct {
	ExprBase
	Contract int
	ID       int
}

func (StorageVariable) isExpression() {}

// ---- Arithmetic ----

// Add/Sub/Mul: Overflowing reports whether wraparound is the defined
// behavior (true) or must trap (false, e.g. Solidity-family checked math).
// Strength reduction must preserve this flag verbatim (spec §3 invariants).
type Add struct {
	ExprBase
	Overflowing bool
	Left, Right Expression
}

func (Add) isExpression() {}

type Sub struct {
	ExprBase
	Overflowing bool
	Left, Right Expression
}

func (Sub) isExpression() {}

type Mul struct {
	ExprBase
	Overflowing bool
	Left, Right Expression
}

func (Mul) isExpression() {}

// Divide's Signed flag is resolved by the time the expression reaches this
// IR (the frontend no longer has an unresolved "divide" — it is one of
// SignedDivide/UnsignedDivide in the original semantics, spec §3).
type Divide struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (Divide) isExpression() {}

type Modulo struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (Modulo) isExpression() {}

type Power struct {
	ExprBase
	Overflowing bool
	Base, Exp   Expression
}

func (Power) isExpression() {}

// ---- Bitwise ----

type BitwiseAnd struct {
	ExprBase
	Left, Right Expression
}

func (BitwiseAnd) isExpression() {}

type BitwiseOr struct {
	ExprBase
	Left, Right Expression
}

func (BitwiseOr) isExpression() {}

type BitwiseXor struct {
	ExprBase
	Left, Right Expression
}

func (BitwiseXor) isExpression() {}

type Complement struct { // bitwise NOT
	ExprBase
	Expr Expression
}

func (Complement) isExpression() {}

type ShiftLeft struct {
	ExprBase
	Left, Right Expression
}

func (ShiftLeft) isExpression() {}

// ShiftRight's Signed flag selects arithmetic (sign-extending) vs. logical
// shift; rewrites must preserve it (spec §3 invariants).
type ShiftRight struct {
	ExprBase
	Left, Right Expression
	Signed      bool
}

func (ShiftRight) isExpression() {}

// ---- Casts ----

type ZeroExt struct {
	ExprBase
	Expr Expression
}

func (ZeroExt) isExpression() {}

type SignExt struct {
	ExprBase
	Expr Expression
}

func (SignExt) isExpression() {}

type Trunc struct {
	ExprBase
	Expr Expression
}

func (Trunc) isExpression() {}

// Cast is a type-preserving-bits reinterpretation (e.g. enum<->uint,
// address<->contract) that ZeroExt/SignExt/Trunc don't cover.
type Cast struct {
	ExprBase
	Expr Expression
}

func (Cast) isExpression() {}

type BytesCast struct {
	ExprBase
	From Expression
}

func (BytesCast) isExpression() {}

// ---- Comparisons ----

type Equal struct {
	ExprBase
	Left, Right Expression
}

func (Equal) isExpression() {}

type NotEqual struct {
	ExprBase
	Left, Right Expression
}

func (NotEqual) isExpression() {}

type More struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (More) isExpression() {}

type Less struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (Less) isExpression() {}

type MoreEqual struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (MoreEqual) isExpression() {}

type LessEqual struct {
	ExprBase
	Signed      bool
	Left, Right Expression
}

func (LessEqual) isExpression() {}

// ---- Logical ----

// Not is boolean negation (distinct from bitwise Complement).
type Not struct {
	ExprBase
	Expr Expression
}

func (Not) isExpression() {}

// And/Or appear as pure Expression nodes only in constant contexts (spec
// §4.1, §9): anywhere side effects are possible, the builder lowers
// short-circuit && / || into CFG diamonds instead.
type And struct {
	ExprBase
	Left, Right Expression
}

func (And) isExpression() {}

type Or struct {
	ExprBase
	Left, Right Expression
}

func (Or) isExpression() {}

// ---- String/bytes pure ops (carried from original_source, spec.md omits
// them from its Expression list but available_expressions.rs tracks them
// for CSE; see SPEC_FULL.md §C) ----

type StringConcat struct {
	ExprBase
	Left, Right Expression
}

func (StringConcat) isExpression() {}

type StringCompare struct {
	ExprBase
	Left, Right Expression
}

func (StringCompare) isExpression() {}

// ---- Access ----

type Load struct {
	ExprBase
	Ptr Expression
}

func (Load) isExpression() {}

type StorageLoad struct {
	ExprBase
	Slot Expression
}

func (StorageLoad) isExpression() {}

type Subscript struct {
	ExprBase
	Base  Expression
	Index Expression
}

func (Subscript) isExpression() {}

type StructMember struct {
	ExprBase
	Base  Expression
	Field int
}

func (StructMember) isExpression() {}

// AdvancePointer offsets a memory/calldata pointer by Bytes, used when
// walking ABI-encoded buffers or array element strides.
type AdvancePointer struct {
	ExprBase
	Ptr   Expression
	Bytes Expression
}

func (AdvancePointer) isExpression() {}

// GetRef materializes a Ref to an lvalue (a Variable, Subscript or
// StructMember chain), e.g. for `storage` parameter passing.
type GetRef struct {
	ExprBase
	LValue Expression
}

func (GetRef) isExpression() {}

// ---- Allocation ----

// AllocDynamicBytes allocates Size bytes of memory, optionally initialized
// from Initializer (nil means zero-initialized).
type AllocDynamicBytes struct {
	ExprBase
	Size        Expression
	Initializer Expression
}

func (AllocDynamicBytes) isExpression() {}

// ---- Function references & calls (as rvalues) ----

type InternalFunction struct {
	ExprBase
	FuncNo int
}

func (InternalFunction) isExpression() {}

type ExternalFunction struct {
	ExprBase
	FuncNo  int
	Address Expression
}

func (ExternalFunction) isExpression() {}

// InternalFunctionCfg references a function by its already-built CFG index
// rather than its namespace FuncNo — used after CFG numbering is final,
// late in the pipeline (e.g. indirect call targets in LIR, spec §4.7).
type InternalFunctionCfg struct {
	ExprBase
	CfgNo int
}

func (InternalFunctionCfg) isExpression() {}

type InternalFunctionCall struct {
	ExprBase
	Function Expression
	Args     []Expression
}

func (InternalFunctionCall) isExpression() {}

type ExternalFunctionCall struct {
	ExprBase
	Function Expression
	Address  Expression
	Args     []Expression
	Value    Expression
	Gas      Expression
}

func (ExternalFunctionCall) isExpression() {}

// ExternalFunctionCallRaw is a low-level .call{value:,gas:}(payload) with no
// ABI decoding of the return value.
type ExternalFunctionCallRaw struct {
	ExprBase
	Address Expression
	Payload Expression
	Value   Expression
	Gas     Expression
	CallTy  CallType
}

func (ExternalFunctionCallRaw) isExpression() {}

type CallType int

const (
	CallTypeCall CallType = iota
	CallTypeDelegateCall
	CallTypeStaticCall
)

type Constructor struct {
	ExprBase
	Contract   int
	EncodedArgs Expression
	Value       Expression
	Gas         Expression
	Salt        Expression
}

func (Constructor) isExpression() {}

// ---- Hash/crypto/format ----

type Keccak256 struct {
	ExprBase
	Args []Expression
}

func (Keccak256) isExpression() {}

type FormatString struct {
	ExprBase
	Args []Expression
}

func (FormatString) isExpression() {}

type Builtin struct {
	ExprBase
	Kind string
	Args []Expression
}

func (Builtin) isExpression() {}

// ---- Misc ----

// ReturnData references the raw bytes returned by the most recent external
// call/constructor in the current block.
type ReturnData struct {
	ExprBase
}

func (ReturnData) isExpression() {}

// Undefined is a placeholder for a read of a variable on a path where it
// was never initialized; reaching-values folds it to the type's zero value
// (spec §4.4, SPEC_FULL.md §C).
type Undefined struct {
	ExprBase
}

func (Undefined) isExpression() {}
