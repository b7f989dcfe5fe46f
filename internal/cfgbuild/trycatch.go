package cfgbuild

import (
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/errors"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/vartable"
)

// lowerDestructure lowers `(a, b) = f(...)` / `(uint x, , address y) =
// f(...)`: the call's results land in fresh temporaries, which are then
// bound (declaring new locals where Decls[i] is set) or stored into each
// non-discarded target (spec §4.1).
func (b *Builder) lowerDestructure(s ast.Destructure) error {
	call, ok := s.Value.(ast.Call)
	if !ok {
		// A single-valued source (anything that isn't a multi-return
		// call) can only ever fill the first target.
		v := b.lowerExpr(s.Value)
		if len(s.Targets) > 0 && s.Targets[0] != nil {
			return b.bindOrStore(s.Targets[0], s.Decls[0], s.DeclTys[0], v)
		}
		return nil
	}

	results := make([]int, len(s.Targets))
	for i, ty := range s.DeclTys {
		results[i] = b.cfg.Vars.TempAnonymous(ty)
	}
	b.emitCall(call, results)

	for i, target := range s.Targets {
		if target == nil {
			continue // discarded slot, e.g. `(, uint256 y) = f()`
		}
		ty := s.DeclTys[i]
		v := ir.Expression(ir.Variable{ExprBase: ir.ExprBase{Ty: ty}, ID: results[i]})
		if err := b.bindOrStore(target, s.Decls[i], ty, v); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) bindOrStore(target ast.Expr, isDecl bool, ty irtype.Type, value ir.Expression) error {
	if isDecl {
		ident, ok := target.(ast.Ident)
		if !ok {
			errors.Trap(errors.Unreachable(fmt.Sprintf("destructure declares a non-identifier target %T", target), target.Loc()))
		}
		id := b.cfg.Vars.AddKnown(ident.Name, ty, vartable.StorageLocal)
		b.emit(ir.Set{Res: id, Expr: value})
		b.bind(ident.Name, id)
		return nil
	}
	return b.store(target, value)
}

// lowerTryCatch lowers `try call() returns (...) { ok } catch ... { ... }`
// into a CFG diamond: the call executes with its success captured, Ok runs
// when it succeeds, and failure dispatches on the 4-byte error selector
// carried in the revert payload (ERROR_SELECTOR/PANIC_SELECTOR, or the
// untyped catch-all) — spec §4.5.
//
// Catch parameters are bound to the declared type's Undefined placeholder
// rather than actually ABI-decoded: decoding the revert payload's bytes is
// a back-end/LIR concern (spec §4.7), not something this CFG-level pass
// can do without a concrete byte layout.
func (b *Builder) lowerTryCatch(s ast.TryCatch) error {
	call, ok := s.Call.(ast.Call)
	if !ok {
		errors.Trap(errors.Unreachable(fmt.Sprintf("try target must be a call, got %T", s.Call), s.Call.Loc()))
	}

	results := make([]int, len(s.ReturnVars))
	for i, ty := range s.ReturnTys {
		results[i] = b.cfg.Vars.TempAnonymous(ty)
	}
	successVar := b.cfg.Vars.TempAnonymous(irtype.Bool{})
	b.emitTriedCall(call, results, successVar)

	okBlock := b.newBlock("try.ok")
	catchBlock := b.newBlock("try.catch")
	mergeBlock := b.newBlock("try.end")

	b.emit(ir.BranchCond{
		Cond:      ir.Variable{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, ID: successVar},
		TrueBlock: okBlock, FalseBlock: catchBlock,
	})

	b.pushScope()
	b.cur = okBlock
	for i, name := range s.ReturnVars {
		if name == "" {
			continue
		}
		id := b.cfg.Vars.AddKnown(name, s.ReturnTys[i], vartable.StorageLocal)
		b.emit(ir.Set{Res: id, Expr: ir.Variable{ExprBase: ir.ExprBase{Ty: s.ReturnTys[i]}, ID: results[i]}})
		b.bind(name, id)
	}
	if err := b.lowerStmt(s.Ok); err != nil {
		return err
	}
	if !b.terminated() {
		b.emit(ir.Branch{Block: mergeBlock})
	}
	b.popScope()

	b.cur = catchBlock
	if err := b.lowerCatchClauses(s.Clauses, mergeBlock); err != nil {
		return err
	}

	b.cur = mergeBlock
	return nil
}

// emitTriedCall lowers call as either an ExternalCall (which natively
// carries a success flag) or an internal Call. Internal calls have no
// revert-boundary success flag in this IR, so a tried internal call is
// modeled as always succeeding — the catch arms exist for ABI completeness
// on that path but are unreachable from it.
func (b *Builder) emitTriedCall(call ast.Call, results []int, successVar int) {
	if call.External {
		addr := b.lowerExpr(call.Address)
		args := make([]ir.Expression, len(call.Args))
		for i, a := range call.Args {
			args[i] = b.lowerExpr(a)
		}
		payload := ir.Expression(ir.StructLiteral{ExprBase: ir.ExprBase{Ty: irtype.DynamicBytes{}}, Fields: args})
		b.emit(ir.ExternalCall{
			Success: &successVar,
			Address: addr,
			Payload: payload,
			Value:   ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: b.ns.ValueBits()}}, Value: 0},
			Gas:     ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 64}}, Value: 0},
		})
		for _, r := range results {
			b.emit(ir.Set{Res: r, Expr: ir.Undefined{ExprBase: ir.ExprBase{Ty: b.cfg.Vars.Get(r).Type}}})
		}
		return
	}
	b.emitCall(call, results)
	b.emit(ir.Set{Res: successVar, Expr: ir.BoolLiteral{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Value: true}})
}

func (b *Builder) lowerCatchClauses(clauses []ast.CatchClause, mergeBlock int) error {
	defaultBlock := b.newBlock("catch.default")
	selectorBlock := b.newBlock("catch.selector")

	// spec §4.1.2 step 4: a revert buffer of 4 bytes or fewer can't carry a
	// selector at all — fall straight to the catch-all/re-throw default
	// instead of truncating whatever bytes happen to be there into a value
	// that could spuriously match ERROR_SELECTOR/PANIC_SELECTOR.
	length := b.cfg.Vars.TempAnonymous(irtype.Uint{Bits: 64})
	b.emit(ir.Set{Res: length, Expr: ir.Builtin{
		ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 64}},
		Kind:     "returndatasize",
	}})
	b.emit(ir.BranchCond{
		Cond: ir.More{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Signed: false,
			Left:  ir.Variable{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 64}}, ID: length},
			Right: ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 64}}, Value: 4},
		},
		TrueBlock: selectorBlock, FalseBlock: defaultBlock,
	})

	b.cur = selectorBlock
	selector := b.cfg.Vars.TempAnonymous(irtype.Uint{Bits: 32})
	b.emit(ir.Set{Res: selector, Expr: ir.Trunc{
		ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 32}},
		Expr:     ir.ReturnData{ExprBase: ir.ExprBase{Ty: irtype.DynamicBytes{}}},
	}})

	var cases []ir.SwitchCase
	var catchAll *ast.CatchClause
	blocks := map[uint32]int{}
	for i := range clauses {
		c := clauses[i]
		if c.Selector == 0 {
			catchAll = &clauses[i]
			continue
		}
		blk := b.newBlock("catch")
		blocks[c.Selector] = blk
		cases = append(cases, ir.SwitchCase{
			Value: ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 32}}, Value: int64(c.Selector)},
			Block: blk,
		})
	}

	b.emit(ir.Switch{
		Cond:    ir.Variable{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 32}}, ID: selector},
		Cases:   cases,
		Default: defaultBlock,
	})

	for _, c := range clauses {
		if c.Selector == 0 {
			continue
		}
		b.cur = blocks[c.Selector]
		if err := b.lowerOneCatch(c, mergeBlock); err != nil {
			return err
		}
	}

	b.cur = defaultBlock
	if catchAll != nil {
		if err := b.lowerOneCatch(*catchAll, mergeBlock); err != nil {
			return err
		}
	} else {
		b.emit(ir.AssertFailure{EncodedArgs: ir.ReturnData{ExprBase: ir.ExprBase{Ty: irtype.DynamicBytes{}}}})
	}
	return nil
}

func (b *Builder) lowerOneCatch(c ast.CatchClause, mergeBlock int) error {
	b.pushScope()
	if c.ParamName != "" {
		id := b.cfg.Vars.AddKnown(c.ParamName, c.ParamType, vartable.StorageLocal)
		b.emit(ir.Set{Res: id, Expr: ir.Undefined{ExprBase: ir.ExprBase{Ty: c.ParamType}}})
		b.bind(c.ParamName, id)
	}
	if err := b.lowerStmt(c.Body); err != nil {
		return err
	}
	if !b.terminated() {
		b.emit(ir.Branch{Block: mergeBlock})
	}
	b.popScope()
	return nil
}
