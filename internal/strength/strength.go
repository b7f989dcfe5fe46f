// Package strength replaces wide (>=128 bit) multiply/divide/modulo
// operations with cheaper ones when internal/reach can prove the operands
// are small enough: a constant power-of-two divisor/modulus becomes a
// shift/mask, and operands that provably fit in 64 bits run the operation
// at 64-bit width and get re-extended. Grounded on
// codegen/strength_reduce/mod.rs's block_reduce/expression_reduce.
package strength

import (
	"fmt"
	"math/big"

	"cfgmid/internal/ast"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/reach"
)

// hoverRecorder is implemented by *namespace.Namespace. Checked with a type
// assertion rather than imported directly so this package doesn't need to
// depend on internal/namespace just to leave a breadcrumb for cmd/cfg-hoverd.
type hoverRecorder interface {
	RecordHover(loc ast.Loc, message string)
}

// hoverCtx carries the (function, block, instruction) location of the
// instruction currently being reduced, so each individual rewrite — shift,
// mask, or narrow — can leave its own precise hover text rather than one
// generic message shared by every rewrite kind in the instruction.
type hoverCtx struct {
	recorder hoverRecorder
	loc      ast.Loc
}

func (hc hoverCtx) record(message string) {
	if hc.recorder != nil {
		hc.recorder.RecordHover(hc.loc, message)
	}
}

// narrowBits is the width wide arithmetic is reduced to when both operands
// are shown to fit — one machine word on every target this compiler's
// back ends care about.
const narrowBits = 64

// wideThreshold is the minimum original operand width worth reducing;
// anything narrower is presumably already a single instruction.
const wideThreshold = 128

// Reduce rewrites cfg's instructions in place and returns the number of
// expressions it narrowed.
func Reduce(cfg *ir.CFG, ns irtype.Widths) int {
	recorder, _ := ns.(hoverRecorder)
	blockVars := reach.Analyze(cfg, ns)
	count := 0
	for blockNo, block := range cfg.Blocks {
		vars := blockVars[blockNo].Clone()
		if vars == nil {
			vars = reach.Variables{}
		}
		for i, instr := range block.Instr {
			hc := hoverCtx{recorder: recorder, loc: ast.Loc{File: cfg.Name, Line: blockNo, Col: i}}
			block.Instr[i] = reduceInstr(instr, vars, ns, &count, hc)
			reach.Transfer(block.Instr[i], vars, cfg.Vars, ns)
		}
	}
	return count
}

func reduceInstr(instr ir.Instr, vars reach.Variables, ns irtype.Widths, count *int, hc hoverCtx) ir.Instr {
	rw := func(e ir.Expression) ir.Expression {
		if e == nil {
			return nil
		}
		return reduceExpr(e, vars, ns, count, hc)
	}
	rwAll := func(es []ir.Expression) []ir.Expression {
		if es == nil {
			return nil
		}
		out := make([]ir.Expression, len(es))
		for i, e := range es {
			out[i] = rw(e)
		}
		return out
	}

	switch in := instr.(type) {
	case ir.Set:
		in.Expr = rw(in.Expr)
		return in
	case ir.Call:
		in.Args = rwAll(in.Args)
		return in
	case ir.Return:
		in.Values = rwAll(in.Values)
		return in
	case ir.Store:
		in.Dest, in.Data = rw(in.Dest), rw(in.Data)
		return in
	case ir.AssertFailure:
		in.EncodedArgs = rw(in.EncodedArgs)
		return in
	case ir.Print:
		in.Expr = rw(in.Expr)
		return in
	case ir.ClearStorage:
		in.Storage = rw(in.Storage)
		return in
	case ir.SetStorage:
		in.Value, in.Storage = rw(in.Value), rw(in.Storage)
		return in
	case ir.SetStorageBytes:
		in.Value, in.Storage, in.Offset = rw(in.Value), rw(in.Storage), rw(in.Offset)
		return in
	case ir.PushStorage:
		in.Value, in.Storage = rw(in.Value), rw(in.Storage)
		return in
	case ir.PopStorage:
		in.Storage = rw(in.Storage)
		return in
	case ir.PushMemory:
		in.Value = rw(in.Value)
		return in
	case ir.ConstructorInstr:
		in.EncodedArgs = rw(in.EncodedArgs)
		in.Value, in.Gas, in.Salt, in.Accounts = rw(in.Value), rw(in.Gas), rw(in.Salt), rw(in.Accounts)
		return in
	case ir.ExternalCall:
		in.Address, in.Payload, in.Value, in.Gas = rw(in.Address), rw(in.Payload), rw(in.Value), rw(in.Gas)
		return in
	case ir.ValueTransfer:
		in.Address, in.Value = rw(in.Address), rw(in.Value)
		return in
	case ir.EmitEvent:
		in.Topics = rwAll(in.Topics)
		in.Data = rw(in.Data)
		return in
	case ir.WriteBuffer:
		in.Offset = rw(in.Offset)
		return in
	default:
		return instr
	}
}

// reduceExpr walks expr bottom-up, reducing every qualifying Mul/Divide/
// Modulo node it finds.
func reduceExpr(expr ir.Expression, vars reach.Variables, ns irtype.Widths, count *int, hc hoverCtx) ir.Expression {
	return ir.MapExpr(expr, func(e ir.Expression) ir.Expression {
		switch v := e.(type) {
		case ir.Mul:
			return reduceMul(v, vars, ns, count, hc)
		case ir.Divide:
			return reduceDivide(v, vars, ns, count, hc)
		case ir.Modulo:
			return reduceModulo(v, vars, ns, count, hc)
		default:
			return e
		}
	})
}

func bitsOf(t irtype.Type, ns irtype.Widths) int {
	if !irtype.HasBits(t) {
		return 0
	}
	return irtype.Bits(t, ns)
}

// powerOfTwoShift returns k such that c == 1<<k, when c is a power of two
// in [2, 1<<(bits-1)].
func powerOfTwoShift(c *big.Int, bits int) (int, bool) {
	cmp := big.NewInt(2)
	for k := 1; k < bits; k++ {
		if cmp.Cmp(c) == 0 {
			return k, true
		}
		cmp.Lsh(cmp, 1)
	}
	return 0, false
}

func narrowCast(e ir.Expression, signed bool) ir.Expression {
	ty := irtype.Type(irtype.Uint{Bits: narrowBits})
	if signed {
		ty = irtype.Int{Bits: narrowBits}
	}
	return ir.Trunc{ExprBase: ir.ExprBase{Ty: ty}, Expr: e}
}

func reExtend(e ir.Expression, ty irtype.Type, signed bool) ir.Expression {
	if signed {
		return ir.SignExt{ExprBase: ir.ExprBase{Ty: ty}, Expr: e}
	}
	return ir.ZeroExt{ExprBase: ir.ExprBase{Ty: ty}, Expr: e}
}

func reduceMul(v ir.Mul, vars reach.Variables, ns irtype.Widths, count *int, hc hoverCtx) ir.Expression {
	bits := bitsOf(v.Type(), ns)
	if bits < wideThreshold {
		return v
	}
	signed := irtype.Signed(v.Type())
	leftVals := reach.Evaluate(v.Left, vars, ns)
	rightVals := reach.Evaluate(v.Right, vars, ns)

	if v.Overflowing {
		if c, ok := reach.SingleConstant(rightVals); ok {
			if shift, ok := powerOfTwoShift(c, bits); ok {
				*count++
				hc.record(fmt.Sprintf("%s multiply optimized to shift left %d", v.Type(), shift))
				return ir.ShiftLeft{ExprBase: v.ExprBase, Left: v.Left,
					Right: ir.NumberLiteral{ExprBase: v.ExprBase, Value: int64(shift)}}
			}
		}
	}

	if signed {
		lm, lok := reach.MaxSigned(leftVals)
		rm, rok := reach.MaxSigned(rightVals)
		if lok && rok && fitsInt64(new(big.Int).Mul(lm, rm)) {
			*count++
			hc.record(fmt.Sprintf("%s multiply narrowed to %d-bit signed arithmetic", v.Type(), narrowBits))
			narrowTy := irtype.Int{Bits: narrowBits}
			mul := ir.Mul{ExprBase: ir.ExprBase{Ty: narrowTy}, Overflowing: v.Overflowing,
				Left: narrowCast(v.Left, true), Right: narrowCast(v.Right, true)}
			return reExtend(mul, v.Type(), true)
		}
		return v
	}
	lm, lok := reach.MaxUnsigned(leftVals)
	rm, rok := reach.MaxUnsigned(rightVals)
	if lok && rok && fitsUint64(new(big.Int).Mul(lm, rm)) {
		*count++
		hc.record(fmt.Sprintf("%s multiply narrowed to %d-bit unsigned arithmetic", v.Type(), narrowBits))
		narrowTy := irtype.Uint{Bits: narrowBits}
		mul := ir.Mul{ExprBase: ir.ExprBase{Ty: narrowTy}, Overflowing: v.Overflowing,
			Left: narrowCast(v.Left, false), Right: narrowCast(v.Right, false)}
		return reExtend(mul, v.Type(), false)
	}
	return v
}

func reduceDivide(v ir.Divide, vars reach.Variables, ns irtype.Widths, count *int, hc hoverCtx) ir.Expression {
	bits := bitsOf(v.Type(), ns)
	if bits < wideThreshold {
		return v
	}
	rightVals := reach.Evaluate(v.Right, vars, ns)
	if c, ok := reach.SingleConstant(rightVals); ok {
		if shift, ok := powerOfTwoShift(c, bits); ok {
			*count++
			hc.record(fmt.Sprintf("%s divide optimized to shift right %d", v.Type(), shift))
			return ir.ShiftRight{ExprBase: v.ExprBase, Signed: v.Signed, Left: v.Left,
				Right: ir.NumberLiteral{ExprBase: v.ExprBase, Value: int64(shift)}}
		}
	}

	leftVals := reach.Evaluate(v.Left, vars, ns)
	if v.Signed {
		lm, lok := reach.MaxSigned(leftVals)
		rm, rok := reach.MaxSigned(rightVals)
		if lok && rok && fitsInt64(lm) && fitsInt64(rm) {
			*count++
			hc.record(fmt.Sprintf("%s divide narrowed to %d-bit signed arithmetic", v.Type(), narrowBits))
			narrowTy := irtype.Int{Bits: narrowBits}
			div := ir.Divide{ExprBase: ir.ExprBase{Ty: narrowTy}, Signed: true,
				Left: narrowCast(v.Left, true), Right: narrowCast(v.Right, true)}
			return reExtend(div, v.Type(), true)
		}
		return v
	}
	lm, lok := reach.MaxUnsigned(leftVals)
	rm, rok := reach.MaxUnsigned(rightVals)
	if lok && rok && fitsUint64(lm) && fitsUint64(rm) {
		*count++
		hc.record(fmt.Sprintf("%s divide narrowed to %d-bit unsigned arithmetic", v.Type(), narrowBits))
		narrowTy := irtype.Uint{Bits: narrowBits}
		div := ir.Divide{ExprBase: ir.ExprBase{Ty: narrowTy}, Signed: false,
			Left: narrowCast(v.Left, false), Right: narrowCast(v.Right, false)}
		return reExtend(div, v.Type(), false)
	}
	return v
}

func reduceModulo(v ir.Modulo, vars reach.Variables, ns irtype.Widths, count *int, hc hoverCtx) ir.Expression {
	bits := bitsOf(v.Type(), ns)
	if bits < wideThreshold {
		return v
	}
	rightVals := reach.Evaluate(v.Right, vars, ns)
	if c, ok := reach.SingleConstant(rightVals); ok {
		if _, ok := powerOfTwoShift(c, bits); ok {
			*count++
			mask := new(big.Int).Sub(c, big.NewInt(1))
			hc.record(fmt.Sprintf("%s modulo optimized to bitwise mask 0x%x", v.Type(), mask))
			return ir.BitwiseAnd{ExprBase: v.ExprBase, Left: v.Left,
				Right: ir.NumberLiteral{ExprBase: v.ExprBase, Value: mask.Int64()}}
		}
	}

	leftVals := reach.Evaluate(v.Left, vars, ns)
	if v.Signed {
		lm, lok := reach.MaxSigned(leftVals)
		rm, rok := reach.MaxSigned(rightVals)
		if lok && rok && fitsInt64(lm) && fitsInt64(rm) {
			*count++
			hc.record(fmt.Sprintf("%s modulo narrowed to %d-bit signed arithmetic", v.Type(), narrowBits))
			narrowTy := irtype.Int{Bits: narrowBits}
			mod := ir.Modulo{ExprBase: ir.ExprBase{Ty: narrowTy}, Signed: true,
				Left: narrowCast(v.Left, true), Right: narrowCast(v.Right, true)}
			return reExtend(mod, v.Type(), true)
		}
		return v
	}
	lm, lok := reach.MaxUnsigned(leftVals)
	rm, rok := reach.MaxUnsigned(rightVals)
	if lok && rok && fitsUint64(lm) && fitsUint64(rm) {
		*count++
		hc.record(fmt.Sprintf("%s modulo narrowed to %d-bit unsigned arithmetic", v.Type(), narrowBits))
		narrowTy := irtype.Uint{Bits: narrowBits}
		mod := ir.Modulo{ExprBase: ir.ExprBase{Ty: narrowTy}, Signed: false,
			Left: narrowCast(v.Left, false), Right: narrowCast(v.Right, false)}
		return reExtend(mod, v.Type(), false)
	}
	return v
}

var maxInt64 = big.NewInt(1<<63 - 1)
var minInt64 = new(big.Int).Neg(big.NewInt(1 << 63))
var maxUint64 = new(big.Int).SetUint64(1<<64 - 1)

func fitsInt64(v *big.Int) bool { return v.Cmp(minInt64) >= 0 && v.Cmp(maxInt64) <= 0 }
func fitsUint64(v *big.Int) bool { return v.Sign() >= 0 && v.Cmp(maxUint64) <= 0 }
