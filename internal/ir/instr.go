package ir

import "cfgmid/internal/irtype"

// Instr is one side-effecting three-address instruction (spec §3). Unlike
// Expression, an Instr always has an effect on the machine state (defines a
// variable, writes storage/memory, transfers control, ...).
type Instr interface {
	IsTerminator() bool
	isInstr()
}

type Nop struct{}

func (Nop) IsTerminator() bool { return false }
func (Nop) isInstr()           {}

// Set assigns the value of Expr to the variable Res. The declared type of
// Res must equal Expr.Type() (spec §3 invariant) — casts are always
// explicit Expression nodes, never implicit on Set.
type Set struct {
	Res  int
	Expr Expression
}

func (Set) IsTerminator() bool { return false }
func (Set) isInstr()           {}

// Store writes Data to the memory location Dest points at.
type Store struct {
	Dest Expression
	Data Expression
}

func (Store) IsTerminator() bool { return false }
func (Store) isInstr()           {}

// PushMemory appends Value to a dynamic memory array/bytes, producing the
// new length in Res (when non-nil).
type PushMemory struct {
	Res   *int
	Array Expression
	Value Expression
}

func (PushMemory) IsTerminator() bool { return false }
func (PushMemory) isInstr()           {}

// PopMemory pops the last element off a dynamic memory array/bytes into Res.
type PopMemory struct {
	Res   int
	Ty    irtype.Type
	Array Expression
}

func (PopMemory) IsTerminator() bool { return false }
func (PopMemory) isInstr()           {}

type LoadStorage struct {
	Res     int
	Storage Expression
}

func (LoadStorage) IsTerminator() bool { return false }
func (LoadStorage) isInstr()           {}

type SetStorage struct {
	Storage Expression
	Value   Expression
}

func (SetStorage) IsTerminator() bool { return false }
func (SetStorage) isInstr()           {}

type ClearStorage struct {
	Storage Expression
}

func (ClearStorage) IsTerminator() bool { return false }
func (ClearStorage) isInstr()           {}

// SetStorageBytes writes Value at Offset within a dynamic storage bytes
// value — distinct from SetStorage because it writes a sub-range, not the
// whole slot.
type SetStorageBytes struct {
	Storage Expression
	Offset  Expression
	Value   Expression
}

func (SetStorageBytes) IsTerminator() bool { return false }
func (SetStorageBytes) isInstr()           {}

type PushStorage struct {
	Res     *int
	Storage Expression
	Value   Expression // nil pushes the element type's default value
}

func (PushStorage) IsTerminator() bool { return false }
func (PushStorage) isInstr()           {}

type PopStorage struct {
	Res     *int
	Storage Expression
}

func (PopStorage) IsTerminator() bool { return false }
func (PopStorage) isInstr()           {}

// CalleeKind selects how Call resolves its target.
type CalleeKind int

const (
	CalleeStatic CalleeKind = iota // known CFG at compile time
	CalleeDynamic                  // a function-pointer operand
	CalleeBuiltin
	CalleeHostFunction
)

type Callee struct {
	Kind     CalleeKind
	CfgNo    int        // CalleeStatic
	Operand  Expression // CalleeDynamic
	Builtin  string     // CalleeBuiltin/CalleeHostFunction
}

type Call struct {
	Res    []int
	Callee Callee
	Args   []Expression
}

func (Call) IsTerminator() bool { return false }
func (Call) isInstr()           {}

type Print struct {
	Expr Expression
}

func (Print) IsTerminator() bool { return false }
func (Print) isInstr()           {}

type MemCopy struct {
	Dest Expression
	Src  Expression
	Size Expression
}

func (MemCopy) IsTerminator() bool { return false }
func (MemCopy) isInstr()           {}

type ExternalCall struct {
	Success *int // varno receiving the success boolean, nil if unchecked
	Address Expression
	Seeds   Expression // account-model only; nil otherwise
	Accounts Expression
	Payload Expression
	Value   Expression
	Gas     Expression
	CallTy  CallType
	Flags   Expression // nil when the platform has no call flags
}

func (ExternalCall) IsTerminator() bool { return false }
func (ExternalCall) isInstr()           {}

type ValueTransfer struct {
	Success *int
	Address Expression
	Value   Expression
}

func (ValueTransfer) IsTerminator() bool { return false }
func (ValueTransfer) isInstr()           {}

type ConstructorInstr struct {
	Res         int
	Success     *int
	Contract    int
	EncodedArgs Expression
	Value       Expression
	Gas         Expression
	Salt        Expression
	Accounts    Expression
}

func (ConstructorInstr) IsTerminator() bool { return false }
func (ConstructorInstr) isInstr()           {}

// SelfDestruct terminates the contract, transferring remaining balance to
// Recipient. It acts as a terminator: no instruction may follow it in a
// block (spec §3).
type SelfDestruct struct {
	Recipient Expression
}

func (SelfDestruct) IsTerminator() bool { return true }
func (SelfDestruct) isInstr()           {}

type EmitEvent struct {
	EventNo int
	Data    Expression
	Topics  []Expression
}

func (EmitEvent) IsTerminator() bool { return false }
func (EmitEvent) isInstr()           {}

type WriteBuffer struct {
	Buf    Expression
	Offset Expression
	Value  Expression
}

func (WriteBuffer) IsTerminator() bool { return false }
func (WriteBuffer) isInstr()           {}

// ---- Terminators ----

type Branch struct {
	Block int
}

func (Branch) IsTerminator() bool { return true }
func (Branch) isInstr()           {}

type BranchCond struct {
	Cond      Expression
	TrueBlock int
	FalseBlock int
}

func (BranchCond) IsTerminator() bool { return true }
func (BranchCond) isInstr()           {}

type SwitchCase struct {
	Value Expression
	Block int
}

type Switch struct {
	Cond    Expression
	Cases   []SwitchCase
	Default int
}

func (Switch) IsTerminator() bool { return true }
func (Switch) isInstr()           {}

type Return struct {
	Values []Expression
}

func (Return) IsTerminator() bool { return true }
func (Return) isInstr()           {}

// AssertFailure reverts the transaction, optionally carrying ABI-encoded
// error payload bytes. No instruction may follow it in a block (spec §3).
type AssertFailure struct {
	EncodedArgs Expression // nil for a bare revert with no payload
}

func (AssertFailure) IsTerminator() bool { return true }
func (AssertFailure) isInstr()           {}

type Unreachable struct{}

func (Unreachable) IsTerminator() bool { return true }
func (Unreachable) isInstr()           {}

// ReturnCode is a non-reverting terminal exit with a platform-defined code
// (e.g. account-model's InvalidProgramId, AccountDataTooSmall).
type ReturnCode struct {
	Code string
}

func (ReturnCode) IsTerminator() bool { return true }
func (ReturnCode) isInstr()           {}

// PhiInput is one (value, predecessor block) pair feeding a Phi.
type PhiInput struct {
	Operand  Expression
	PredBlock int
}

type Phi struct {
	Res    int
	Inputs []PhiInput
}

func (Phi) IsTerminator() bool { return false }
func (Phi) isInstr()           {}
