// Package lir performs the final lowering step (spec §4.7): every
// instruction's expression operands are flattened to strictly
// three-address form. After Lower runs, every Expression appearing in a
// CFG is either a leaf Operand (Variable, NumberLiteral, BoolLiteral) or a
// single operator applied directly to Operands — anything deeper has been
// split into a chain of Sets, one per operator, each writing a fresh
// temporary.
//
// Grounded on the existing internal/ir.Children/RebuildChildren
// combinators (the same pair internal/strength's rewrite pass uses):
// lowering recurses through an expression's children, replacing each
// non-operand child with a temporary holding its already-lowered value,
// then reconstructs the node from the replaced children.
package lir

import (
	"cfgmid/internal/ir"
)

// Lower rewrites every block of cfg in place.
func Lower(cfg *ir.CFG) {
	for _, block := range cfg.Blocks {
		l := &lowering{cfg: cfg}
		for _, instr := range block.Instr {
			l.lowerInstr(instr)
		}
		block.Instr = l.out
	}
}

type lowering struct {
	cfg *ir.CFG
	out []ir.Instr
}

func (l *lowering) emit(instr ir.Instr) { l.out = append(l.out, instr) }

// isOperand reports whether e is already one of the three leaf forms a
// three-address operand may take directly (spec §4.7's `Operand`).
func isOperand(e ir.Expression) bool {
	switch e.(type) {
	case ir.Variable, ir.NumberLiteral, ir.BoolLiteral:
		return true
	default:
		return false
	}
}

// operand fully reduces e to a leaf Operand, materializing a temporary
// (and emitting the Set(s) that compute it) if e is anything else —
// including a leaf that isn't one of the three Operand kinds, e.g. a
// StorageVariable or ConstantVariable reference.
func (l *lowering) operand(e ir.Expression) ir.Expression {
	if e == nil {
		return nil
	}
	if isOperand(e) {
		return e
	}
	reduced := l.oneLevel(e)
	if isOperand(reduced) {
		return reduced
	}
	temp := l.cfg.Vars.TempAnonymous(reduced.Type())
	l.emit(ir.Set{Res: temp, Expr: reduced})
	return ir.Variable{ExprBase: ir.ExprBase{Ty: reduced.Type()}, ID: temp}
}

// oneLevel lowers e's children to Operands and rebuilds e from them,
// leaving e itself as a single operator applied to Operands (or, if e had
// no children to begin with, e unchanged).
func (l *lowering) oneLevel(e ir.Expression) ir.Expression {
	children := ir.Children(e)
	if children == nil {
		return e
	}
	lowered := make([]ir.Expression, len(children))
	for i, c := range children {
		lowered[i] = l.operand(c)
	}
	return ir.RebuildChildren(e, lowered)
}

// operands maps operand over es in evaluation order.
func (l *lowering) operands(es []ir.Expression) []ir.Expression {
	if es == nil {
		return nil
	}
	out := make([]ir.Expression, len(es))
	for i, e := range es {
		out[i] = l.operand(e)
	}
	return out
}

func (l *lowering) lowerInstr(instr ir.Instr) {
	switch in := instr.(type) {
	case ir.Set:
		in.Expr = l.oneLevel(in.Expr)
		l.emit(in)
	case ir.Store:
		in.Dest, in.Data = l.operand(in.Dest), l.operand(in.Data)
		l.emit(in)
	case ir.PushMemory:
		in.Array, in.Value = l.operand(in.Array), l.operand(in.Value)
		l.emit(in)
	case ir.PopMemory:
		in.Array = l.operand(in.Array)
		l.emit(in)
	case ir.LoadStorage:
		in.Storage = l.operand(in.Storage)
		l.emit(in)
	case ir.SetStorage:
		in.Storage, in.Value = l.operand(in.Storage), l.operand(in.Value)
		l.emit(in)
	case ir.ClearStorage:
		in.Storage = l.operand(in.Storage)
		l.emit(in)
	case ir.SetStorageBytes:
		in.Storage, in.Offset, in.Value = l.operand(in.Storage), l.operand(in.Offset), l.operand(in.Value)
		l.emit(in)
	case ir.PushStorage:
		in.Storage = l.operand(in.Storage)
		if in.Value != nil {
			in.Value = l.operand(in.Value)
		}
		l.emit(in)
	case ir.PopStorage:
		in.Storage = l.operand(in.Storage)
		l.emit(in)
	case ir.Call:
		if in.Callee.Kind == ir.CalleeDynamic && in.Callee.Operand != nil {
			in.Callee.Operand = l.operand(in.Callee.Operand)
		}
		in.Args = l.operands(in.Args)
		l.emit(in)
	case ir.Print:
		in.Expr = l.operand(in.Expr)
		l.emit(in)
	case ir.MemCopy:
		in.Dest, in.Src, in.Size = l.operand(in.Dest), l.operand(in.Src), l.operand(in.Size)
		l.emit(in)
	case ir.ExternalCall:
		if in.Address != nil {
			in.Address = l.operand(in.Address)
		}
		if in.Seeds != nil {
			in.Seeds = l.operand(in.Seeds)
		}
		if in.Accounts != nil {
			in.Accounts = l.operand(in.Accounts)
		}
		if in.Flags != nil {
			in.Flags = l.operand(in.Flags)
		}
		in.Payload, in.Value, in.Gas = l.operand(in.Payload), l.operand(in.Value), l.operand(in.Gas)
		l.emit(in)
	case ir.ValueTransfer:
		in.Address, in.Value = l.operand(in.Address), l.operand(in.Value)
		l.emit(in)
	case ir.ConstructorInstr:
		in.EncodedArgs = l.operand(in.EncodedArgs)
		if in.Value != nil {
			in.Value = l.operand(in.Value)
		}
		in.Gas = l.operand(in.Gas)
		if in.Salt != nil {
			in.Salt = l.operand(in.Salt)
		}
		if in.Accounts != nil {
			in.Accounts = l.operand(in.Accounts)
		}
		l.emit(in)
	case ir.SelfDestruct:
		in.Recipient = l.operand(in.Recipient)
		l.emit(in)
	case ir.EmitEvent:
		in.Topics = l.operands(in.Topics)
		in.Data = l.operand(in.Data)
		l.emit(in)
	case ir.WriteBuffer:
		in.Offset, in.Value = l.operand(in.Offset), l.operand(in.Value)
		l.emit(in)
	case ir.BranchCond:
		in.Cond = l.operand(in.Cond)
		l.emit(in)
	case ir.Switch:
		in.Cond = l.operand(in.Cond)
		for i := range in.Cases {
			in.Cases[i].Value = l.operand(in.Cases[i].Value)
		}
		l.emit(in)
	case ir.Return:
		in.Values = l.operands(in.Values)
		l.emit(in)
	case ir.AssertFailure:
		if in.EncodedArgs != nil {
			in.EncodedArgs = l.operand(in.EncodedArgs)
		}
		l.emit(in)
	case ir.Phi:
		for i := range in.Inputs {
			in.Inputs[i].Operand = l.operand(in.Inputs[i].Operand)
		}
		l.emit(in)
	default:
		// Nop, Branch, Unreachable, ReturnCode: no expression operands.
		l.emit(instr)
	}
}
