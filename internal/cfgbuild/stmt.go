package cfgbuild

import (
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/errors"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
	"cfgmid/internal/vartable"
)

func (b *Builder) lowerStmt(stmt ast.Statement) error {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case ast.Block:
		return b.lowerBlock(s)
	case ast.VariableDecl:
		return b.lowerVariableDecl(s)
	case ast.Assign:
		return b.lowerAssign(s)
	case ast.ExprStmt:
		b.lowerExprStmt(s.Expr)
		return nil
	case ast.If:
		return b.lowerIf(s)
	case ast.Loop:
		return b.lowerLoop(s)
	case ast.Return:
		return b.lowerReturn(s)
	case ast.Emit:
		return b.lowerEmit(s)
	case ast.Destructure:
		return b.lowerDestructure(s)
	case ast.TryCatch:
		return b.lowerTryCatch(s)
	case ast.Underscore:
		if c := b.currentContinuation(); c != nil {
			return c()
		}
		return nil
	case ast.Continue:
		if len(b.loops) == 0 {
			errors.Trap(errors.Unreachable("continue outside a loop", stmt.Loc()))
		}
		if !b.terminated() {
			b.emit(ir.Branch{Block: b.loops[len(b.loops)-1].continueBlock})
		}
		return nil
	case ast.Break:
		if len(b.loops) == 0 {
			errors.Trap(errors.Unreachable("break outside a loop", stmt.Loc()))
		}
		if !b.terminated() {
			b.emit(ir.Branch{Block: b.loops[len(b.loops)-1].breakBlock})
		}
		return nil
	default:
		errors.Trap(errors.Unreachable(fmt.Sprintf("unhandled statement %T", stmt), stmt.Loc()))
		return nil
	}
}

func (b *Builder) lowerBlock(s ast.Block) error {
	b.pushScope()
	defer b.popScope()
	for _, st := range s.Stmts {
		if b.terminated() {
			break // dead code after a terminator; nothing left to lower
		}
		if err := b.lowerStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) lowerVariableDecl(s ast.VariableDecl) error {
	var e ir.Expression
	if s.Init != nil {
		e = b.lowerExpr(s.Init)
	} else {
		e = ir.Undefined{ExprBase: ir.ExprBase{Ty: s.Ty}}
	}
	id := b.cfg.Vars.AddKnown(s.Name, s.Ty, vartable.StorageLocal)
	b.emit(ir.Set{Res: id, Expr: e})
	b.bind(s.Name, id)
	b.cfg.Vars.SetDirty(id)
	return nil
}

// lowerAssign resolves Target to either a local variable Set or a
// memory/storage write, depending on what kind of lvalue it is.
func (b *Builder) lowerAssign(s ast.Assign) error {
	value := b.lowerExpr(s.Value)
	return b.store(s.Target, value)
}

// store writes value to the lvalue target: a bare Ident becomes a Set on
// its variable; Index/Member lvalues are resolved to a storage slot or
// memory address and written with SetStorage/Store (spec §4.1 — the
// builder, not the back end, decides storage vs. memory once scoping is
// resolved).
func (b *Builder) store(target ast.Expr, value ir.Expression) error {
	switch t := target.(type) {
	case ast.Ident:
		id, ok := b.lookup(t.Name)
		if !ok {
			errors.Trap(errors.Unreachable(fmt.Sprintf("assignment to undeclared identifier %q", t.Name), t.Loc()))
		}
		b.emit(ir.Set{Res: id, Expr: value})
		b.cfg.Vars.SetDirty(id)
		return nil
	case ast.Index, ast.Member:
		addr, isStorage := b.lowerLValueAddr(t)
		if isStorage {
			b.emit(ir.SetStorage{Storage: addr, Value: value})
		} else {
			b.emit(ir.Store{Dest: addr, Data: value})
		}
		return nil
	default:
		errors.Trap(errors.Unreachable(fmt.Sprintf("%T is not a valid assignment target", target), target.Loc()))
		return nil
	}
}

// lowerLValueAddr computes the address expression for an Index/Member
// lvalue chain and reports whether it resolves into contract storage
// (true) or memory (false). A storage-rooted chain is any chain whose base
// identifier is bound to a StorageVariable rather than a local/parameter.
func (b *Builder) lowerLValueAddr(e ast.Expr) (ir.Expression, bool) {
	switch v := e.(type) {
	case ast.Index:
		base, storage := b.lowerLValueAddr(v.Base)
		idx := b.lowerExpr(v.Index)
		if storage {
			return ir.Subscript{ExprBase: ir.ExprBase{L: v.Loc(), Ty: v.Type()}, Base: base, Index: idx}, true
		}
		ptr := ir.AdvancePointer{ExprBase: ir.ExprBase{L: v.Loc(), Ty: irtype.Uint{Bits: b.ns.AddressBits()}}, Ptr: base, Bytes: idx}
		return ptr, false
	case ast.Member:
		base, storage := b.lowerLValueAddr(v.Base)
		field := structFieldIndex(v)
		if storage {
			return ir.StructMember{ExprBase: ir.ExprBase{L: v.Loc(), Ty: v.Type()}, Base: base, Field: field}, true
		}
		return ir.StructMember{ExprBase: ir.ExprBase{L: v.Loc(), Ty: v.Type()}, Base: base, Field: field}, false
	case ast.Ident:
		if id, ok := b.lookup(v.Name); ok {
			return ir.Variable{ExprBase: ir.ExprBase{L: v.Loc(), Ty: v.Type()}, ID: id}, false
		}
		// Not in lexical scope: a storage variable reference. The concrete
		// storage id is a frontend concern (it isn't carried on ast.Ident);
		// this module's Non-goal is resolving a name to a StorageVariable
		// id, so callers are expected to hand the builder a Member/Index
		// chain already rooted in an ir-level reference where storage
		// resolution matters. Falling back to a zero-id StorageVariable
		// keeps construction total rather than panicking mid-lowering.
		return ir.StorageVariable{ExprBase: ir.ExprBase{L: v.Loc(), Ty: v.Type()}, Contract: b.fn.ContractNo, ID: 0}, true
	default:
		return b.lowerExpr(e), false
	}
}

// structFieldIndex is a placeholder field resolver: the frontend's
// semantic analysis (out of scope, spec.md §1) would normally have already
// rewritten Member.Field into a positional index. Kept as a named seam
// rather than silently defaulting so a real frontend integration has an
// obvious single place to wire in its own field table.
func structFieldIndex(m ast.Member) int { return 0 }

func (b *Builder) lowerExprStmt(e ast.Expr) {
	switch v := e.(type) {
	case ast.Call:
		b.lowerCallEffect(v)
	default:
		b.lowerExpr(e) // pure expression in statement position: evaluated, result discarded
	}
}

func (b *Builder) lowerIf(s ast.If) error {
	cond := b.lowerExpr(s.Cond)
	thenBlock := b.newBlock("if.then")
	var elseBlock int
	hasElse := s.Else != nil
	if hasElse {
		elseBlock = b.newBlock("if.else")
	}
	mergeBlock := b.newBlock("if.end")

	falseTarget := mergeBlock
	if hasElse {
		falseTarget = elseBlock
	}
	b.emit(ir.BranchCond{Cond: cond, TrueBlock: thenBlock, FalseBlock: falseTarget})

	b.cfg.Vars.NewDirtyTracker()
	b.cur = thenBlock
	if err := b.lowerStmt(s.Then); err != nil {
		return err
	}
	if !b.terminated() {
		b.emit(ir.Branch{Block: mergeBlock})
	}
	thenWrites := b.cfg.Vars.PopDirtyTracker()

	elseWrites := map[int]struct{}{}
	if hasElse {
		b.cfg.Vars.NewDirtyTracker()
		b.cur = elseBlock
		if err := b.lowerStmt(s.Else); err != nil {
			return err
		}
		if !b.terminated() {
			b.emit(ir.Branch{Block: mergeBlock})
		}
		elseWrites = b.cfg.Vars.PopDirtyTracker()
	}

	b.cur = mergeBlock
	b.emitPhis(vartable.PhiSet(thenWrites, elseWrites), []int{thenBlock, elseBlock})
	return nil
}

// emitPhis appends a Phi instruction per variable in phiSet, sourced from
// preds. In this table's non-SSA model every predecessor contributes the
// same variable reference (there is only one name per variable, spec §4.2)
// — the Phi instruction exists to mark the merge point for later passes
// (internal/reach, internal/strength) that must treat the variable's value
// as unknown again past it, not to select among distinct SSA names.
func (b *Builder) emitPhis(phiSet map[int]struct{}, preds []int) {
	for v := range phiSet {
		ty := b.cfg.Vars.Get(v).Type
		inputs := make([]ir.PhiInput, 0, len(preds))
		for _, p := range preds {
			inputs = append(inputs, ir.PhiInput{
				Operand:   ir.Variable{ExprBase: ir.ExprBase{Ty: ty}, ID: v},
				PredBlock: p,
			})
		}
		b.emit(ir.Phi{Res: v, Inputs: inputs})
	}
}

func (b *Builder) lowerLoop(s ast.Loop) error {
	b.pushScope()
	defer b.popScope()

	if s.Kind == ast.LoopFor && s.Init != nil {
		if err := b.lowerStmt(s.Init); err != nil {
			return err
		}
	}

	header := b.newBlock("loop.header")
	body := b.newBlock("loop.body")
	post := header
	if s.Kind == ast.LoopFor {
		post = b.newBlock("loop.post")
	}
	exit := b.newBlock("loop.exit")

	if s.Kind == ast.LoopDoWhile {
		b.emit(ir.Branch{Block: body})
	} else {
		b.emit(ir.Branch{Block: header})
	}

	b.cfg.Vars.NewDirtyTracker()
	b.cur = header
	if s.Cond != nil {
		cond := b.lowerExpr(s.Cond)
		b.emit(ir.BranchCond{Cond: cond, TrueBlock: body, FalseBlock: exit})
	} else {
		b.emit(ir.Branch{Block: body})
	}

	b.loops = append(b.loops, loopCtx{continueBlock: post, breakBlock: exit})
	b.cur = body
	if err := b.lowerStmt(s.Body); err != nil {
		return err
	}
	if !b.terminated() {
		if s.Kind == ast.LoopDoWhile {
			cond := b.lowerExpr(s.Cond)
			b.emit(ir.BranchCond{Cond: cond, TrueBlock: body, FalseBlock: exit})
		} else {
			b.emit(ir.Branch{Block: post})
		}
	}
	b.loops = b.loops[:len(b.loops)-1]

	if s.Kind == ast.LoopFor {
		b.cur = post
		if s.Post != nil {
			if err := b.lowerStmt(s.Post); err != nil {
				return err
			}
		}
		if !b.terminated() {
			b.emit(ir.Branch{Block: header})
		}
	}

	writes := b.cfg.Vars.PopDirtyTracker()
	b.cur = exit
	b.emitPhis(vartable.PhiSet(writes), []int{header})
	return nil
}

func (b *Builder) lowerReturn(s ast.Return) error {
	vals := make([]ir.Expression, len(s.Values))
	for i, v := range s.Values {
		vals[i] = b.lowerExpr(v)
	}
	b.emit(ir.Return{Values: vals})
	return nil
}

func (b *Builder) lowerEmit(s ast.Emit) error {
	ev := b.eventByID(s.Event)
	var topics []ir.Expression
	var dataFields []ir.Expression
	for i, arg := range s.Args {
		e := b.lowerExpr(arg)
		if ev != nil && i < len(ev.Indexed) && ev.Indexed[i] {
			topics = append(topics, e)
		} else {
			dataFields = append(dataFields, e)
		}
	}
	data := ir.Expression(ir.StructLiteral{ExprBase: ir.ExprBase{Ty: irtype.DynamicBytes{}}, Fields: dataFields})
	b.emit(ir.EmitEvent{EventNo: s.Event, Data: data, Topics: topics})
	return nil
}

// eventByID looks up an event by its namespace-wide id, assumed to be its
// index into ns.Events (the frontend is expected to allocate event ids
// densely — spec §3 "Namespace").
func (b *Builder) eventByID(id int) *namespace.EventType {
	if id < 0 || id >= len(b.ns.Events) {
		return nil
	}
	return b.ns.Events[id]
}
