package cfgbuild

import (
	"cfgmid/internal/ast"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
)

// lowerExpr lowers a pure input expression to an ir.Expression, hoisting
// any side-effecting sub-expression (calls) to a temporary Set first and
// lowering short-circuit && / || into CFG diamonds rather than pure And/Or
// nodes, since either operand may itself have side effects (spec §4.1).
func (b *Builder) lowerExpr(e ast.Expr) ir.Expression {
	base := func(loc ast.Loc, ty irtype.Type) ir.ExprBase { return ir.ExprBase{L: loc, Ty: ty} }

	switch v := e.(type) {
	case ast.BoolLiteral:
		return ir.BoolLiteral{ExprBase: base(v.Loc(), v.Type()), Value: v.Value}
	case ast.NumberLiteral:
		return ir.NumberLiteral{ExprBase: base(v.Loc(), v.Type()), Value: v.Value}
	case ast.BytesLiteral:
		return ir.BytesLiteral{ExprBase: base(v.Loc(), v.Type()), Value: v.Value}
	case ast.ConstantRef:
		contract := v.Contract
		return ir.ConstantVariable{ExprBase: base(v.Loc(), v.Type()), Contract: &contract, ID: v.ID}
	case ast.Ident:
		if id, ok := b.lookup(v.Name); ok {
			return ir.Variable{ExprBase: base(v.Loc(), v.Type()), ID: id}
		}
		// Unresolved names fall back to a storage reference; see the note
		// in lowerLValueAddr — binding a bare name to a storage slot id is
		// the frontend's job, out of this module's scope (spec.md §1).
		return ir.StorageVariable{ExprBase: base(v.Loc(), v.Type()), Contract: b.fn.ContractNo, ID: 0}
	case ast.Binary:
		return b.lowerBinary(v)
	case ast.Unary:
		inner := b.lowerExpr(v.Expr)
		switch v.Op {
		case ast.OpNot:
			return ir.Not{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		case ast.OpComplement:
			return ir.Complement{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		case ast.OpNeg:
			zero := ir.NumberLiteral{ExprBase: base(v.Loc(), v.Type()), Value: 0}
			return ir.Sub{ExprBase: base(v.Loc(), v.Type()), Overflowing: false, Left: zero, Right: inner}
		}
		return inner
	case ast.Cast:
		inner := b.lowerExpr(v.Expr)
		switch v.Kind {
		case ast.CastZeroExt:
			return ir.ZeroExt{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		case ast.CastSignExt:
			return ir.SignExt{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		case ast.CastTrunc:
			return ir.Trunc{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		case ast.CastBytes:
			return ir.BytesCast{ExprBase: base(v.Loc(), v.Type()), From: inner}
		default:
			return ir.Cast{ExprBase: base(v.Loc(), v.Type()), Expr: inner}
		}
	case ast.Index:
		addr, isStorage := b.lowerLValueAddr(v)
		if isStorage {
			return ir.StorageLoad{ExprBase: base(v.Loc(), v.Type()), Slot: addr}
		}
		return ir.Load{ExprBase: base(v.Loc(), v.Type()), Ptr: addr}
	case ast.Member:
		addr, isStorage := b.lowerLValueAddr(v)
		if isStorage {
			return ir.StorageLoad{ExprBase: base(v.Loc(), v.Type()), Slot: addr}
		}
		return ir.Load{ExprBase: base(v.Loc(), v.Type()), Ptr: addr}
	case ast.Call:
		return b.lowerCallValue(v)
	case ast.Keccak256:
		args := make([]ir.Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.lowerExpr(a)
		}
		return ir.Keccak256{ExprBase: base(v.Loc(), v.Type()), Args: args}
	case ast.Builtin:
		args := make([]ir.Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.lowerExpr(a)
		}
		return ir.Builtin{ExprBase: base(v.Loc(), v.Type()), Kind: v.Kind, Args: args}
	default:
		return ir.Undefined{ExprBase: base(e.Loc(), e.Type())}
	}
}

// lowerBinary lowers arithmetic/bitwise/comparison operators directly, but
// lowers && and || into a CFG diamond: the right operand is only evaluated
// when the left doesn't already decide the result, matching short-circuit
// semantics even when the right operand has side effects (spec §4.1).
func (b *Builder) lowerBinary(v ast.Binary) ir.Expression {
	base := ir.ExprBase{L: v.Loc(), Ty: v.Type()}
	if v.Op == ast.OpLogAnd || v.Op == ast.OpLogOr {
		return b.lowerShortCircuit(v)
	}

	left := b.lowerExpr(v.Left)
	right := b.lowerExpr(v.Right)

	switch v.Op {
	case ast.OpAdd:
		return ir.Add{ExprBase: base, Overflowing: v.Overflowing, Left: left, Right: right}
	case ast.OpSub:
		return ir.Sub{ExprBase: base, Overflowing: v.Overflowing, Left: left, Right: right}
	case ast.OpMul:
		return ir.Mul{ExprBase: base, Overflowing: v.Overflowing, Left: left, Right: right}
	case ast.OpDiv:
		return ir.Divide{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpMod:
		return ir.Modulo{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpPow:
		return ir.Power{ExprBase: base, Overflowing: v.Overflowing, Base: left, Exp: right}
	case ast.OpBitAnd:
		return ir.BitwiseAnd{ExprBase: base, Left: left, Right: right}
	case ast.OpBitOr:
		return ir.BitwiseOr{ExprBase: base, Left: left, Right: right}
	case ast.OpBitXor:
		return ir.BitwiseXor{ExprBase: base, Left: left, Right: right}
	case ast.OpShl:
		return ir.ShiftLeft{ExprBase: base, Left: left, Right: right}
	case ast.OpShr:
		return ir.ShiftRight{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpEq:
		return ir.Equal{ExprBase: base, Left: left, Right: right}
	case ast.OpNotEq:
		return ir.NotEqual{ExprBase: base, Left: left, Right: right}
	case ast.OpMore:
		return ir.More{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpLess:
		return ir.Less{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpMoreEq:
		return ir.MoreEqual{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpLessEq:
		return ir.LessEqual{ExprBase: base, Signed: v.Signed, Left: left, Right: right}
	case ast.OpStringConcat:
		return ir.StringConcat{ExprBase: base, Left: left, Right: right}
	case ast.OpStringCompare:
		return ir.StringCompare{ExprBase: base, Left: left, Right: right}
	default:
		return ir.Undefined{ExprBase: base}
	}
}

// lowerShortCircuit lowers `a && b` / `a || b` into a diamond: evaluate a,
// branch on it, evaluate b only on the path where the result isn't already
// decided, and join the two possible values into a fresh temporary.
func (b *Builder) lowerShortCircuit(v ast.Binary) ir.Expression {
	base := ir.ExprBase{L: v.Loc(), Ty: v.Type()}
	result := b.cfg.Vars.TempAnonymous(v.Type())

	left := b.lowerExpr(v.Left)
	evalRight := b.newBlock("shortcircuit.rhs")
	shortcut := b.newBlock("shortcircuit.skip")
	join := b.newBlock("shortcircuit.join")

	if v.Op == ast.OpLogAnd {
		b.emit(ir.BranchCond{Cond: left, TrueBlock: evalRight, FalseBlock: shortcut})
	} else {
		b.emit(ir.BranchCond{Cond: left, TrueBlock: shortcut, FalseBlock: evalRight})
	}

	b.cur = shortcut
	b.emit(ir.Set{Res: result, Expr: ir.BoolLiteral{ExprBase: base, Value: v.Op == ast.OpLogOr}})
	b.emit(ir.Branch{Block: join})

	b.cur = evalRight
	right := b.lowerExpr(v.Right)
	b.emit(ir.Set{Res: result, Expr: right})
	b.emit(ir.Branch{Block: join})

	b.cur = join
	b.emitPhis(map[int]struct{}{result: {}}, []int{evalRight, shortcut})
	return ir.Variable{ExprBase: base, ID: result}
}

// lowerCallValue hoists a Call appearing in expression position: it's
// lowered to an ir.Call/ExternalCall instruction assigning a fresh
// temporary, and the expression result is that temporary's Variable
// reference (spec §4.1 — no Call ever appears as a bare Expression node).
func (b *Builder) lowerCallValue(v ast.Call) ir.Expression {
	resultTy := v.Type()
	res := b.cfg.Vars.TempAnonymous(resultTy)
	b.emitCall(v, []int{res})
	return ir.Variable{ExprBase: ir.ExprBase{L: v.Loc(), Ty: resultTy}, ID: res}
}

// lowerCallEffect lowers a Call used purely for its side effect (statement
// position), discarding any result.
func (b *Builder) lowerCallEffect(v ast.Call) {
	b.emitCall(v, nil)
}

func (b *Builder) emitCall(v ast.Call, res []int) {
	args := make([]ir.Expression, len(v.Args))
	for i, a := range v.Args {
		args[i] = b.lowerExpr(a)
	}
	if v.External {
		addr := b.lowerExpr(v.Address)
		payload := ir.Expression(ir.StructLiteral{ExprBase: ir.ExprBase{Ty: irtype.DynamicBytes{}}, Fields: args})
		var success *int
		if len(res) > 0 {
			success = &res[0]
		}
		b.emit(ir.ExternalCall{
			Success: success,
			Address: addr,
			Payload: payload,
			Value:   ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: b.ns.ValueBits()}}, Value: 0},
			Gas:     ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 64}}, Value: 0},
		})
		return
	}
	b.emit(ir.Call{
		Res:    res,
		Callee: ir.Callee{Kind: ir.CalleeStatic, CfgNo: v.FuncNo},
		Args:   args,
	})
}
