// Package cfgbuild lowers one internal/ast function body into an
// internal/ir.CFG: statement and expression lowering, short-circuit
// evaluation, try/catch dispatch, loops, destructuring assignment and
// modifier `_` inlining (spec §4.1, §4.2).
package cfgbuild

import (
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/errors"
	"cfgmid/internal/ir"
	"cfgmid/internal/namespace"
	"cfgmid/internal/vartable"
)

// ErrorSelector and PanicSelector are the 4-byte error-payload discriminants
// a Solidity-family revert encodes its reason as (spec §4.5): `Error(string)`
// and `Panic(uint256)` respectively.
const (
	ErrorSelector uint32 = 0x08c379a0
	PanicSelector uint32 = 0x4e487b71
)

// loopCtx records the blocks Continue/Break resolve to inside the
// innermost enclosing loop.
type loopCtx struct {
	continueBlock int
	breakBlock    int
}

// continuation is what a modifier's `_` placeholder lowers to: inlining the
// next modifier in the chain, or finally the function body itself.
type continuation func() error

// Builder holds the mutable state of one function's lowering.
type Builder struct {
	ns  *namespace.Namespace
	fn  *ast.Function
	cfg *ir.CFG

	cur int // index of the block currently being appended to

	scopes        []map[string]int // lexical name -> varno, innermost last
	loops         []loopCtx
	continuations []continuation
}

// Build lowers fn into a complete CFG. ns supplies cross-function lookups
// (modifier bodies, event/struct layout) the builder needs while lowering.
func Build(fn *ast.Function, ns *namespace.Namespace) (*ir.CFG, error) {
	b := &Builder{ns: ns, fn: fn}
	b.cfg = &ir.CFG{
		Name:       fn.Name,
		FunctionNo: fn.FuncNo,
		Vars:       vartable.New(),
		Returns:    fn.Returns,
		Nonpayable: fn.Nonpayable,
		Public:     fn.Public,
	}
	if fn.IsConstructor {
		b.cfg.Type = ir.FunctionConstructor
	}

	b.pushScope()
	for _, p := range fn.Params {
		id := b.cfg.Vars.AddKnown(p.Name, p.Ty, vartable.StorageParameter)
		b.bind(p.Name, id)
	}
	b.cfg.Params = make([]vartable.VarInfo, len(fn.Params))
	for i := range fn.Params {
		b.cfg.Params[i] = b.cfg.Vars.Get(i)
	}

	b.cur = b.cfg.NewBlock("entry")

	if err := b.lowerModifierChain(0); err != nil {
		return nil, err
	}

	// A function whose body falls through every path (no explicit return)
	// implicitly returns its declared zero values; a bare Return{} is
	// always a valid terminator for Check, one per fallen-through block.
	if b.cfg.Blocks[b.cur].Terminator() == nil {
		b.emit(ir.Return{})
	}

	b.popScope()
	return b.cfg, nil
}

// lowerModifierChain inlines fn.Modifiers outside-in: modifier i's body is
// lowered with its `_` substituted by a continuation that inlines modifier
// i+1, terminating with fn.Body once every modifier has been applied
// (Solidity-family modifier chaining, SPEC_FULL.md §C).
func (b *Builder) lowerModifierChain(i int) error {
	if i >= len(b.fn.Modifiers) {
		return b.lowerStmt(b.fn.Body)
	}
	call := b.fn.Modifiers[i]
	modFn := b.ns.FunctionByNo(call.ModifierFuncNo)
	if modFn == nil {
		errors.Trap(errors.Unreachable(fmt.Sprintf("modifier funcno %d not found", call.ModifierFuncNo), ast.Loc{}))
	}

	b.pushScope()
	for k, param := range modFn.Params {
		var e ir.Expression
		if k < len(call.Args) {
			e = b.lowerExpr(call.Args[k])
		} else {
			e = ir.Undefined{ExprBase: ir.ExprBase{Ty: param.Ty}}
		}
		id := b.cfg.Vars.AddKnown(param.Name, param.Ty, vartable.StorageLocal)
		b.emit(ir.Set{Res: id, Expr: e})
		b.bind(param.Name, id)
	}

	next := i
	b.continuations = append(b.continuations, func() error { return b.lowerModifierChain(next + 1) })
	err := b.lowerStmt(modFn.Body)
	b.continuations = b.continuations[:len(b.continuations)-1]
	b.popScope()
	return err
}

func (b *Builder) currentContinuation() continuation {
	if len(b.continuations) == 0 {
		return nil
	}
	return b.continuations[len(b.continuations)-1]
}

// ---- scope helpers ----

func (b *Builder) pushScope() { b.scopes = append(b.scopes, make(map[string]int)) }

func (b *Builder) popScope() { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *Builder) bind(name string, varno int) { b.scopes[len(b.scopes)-1][name] = varno }

func (b *Builder) lookup(name string) (int, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if id, ok := b.scopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

// ---- block/emit helpers ----

func (b *Builder) emit(instr ir.Instr) { b.cfg.Emit(b.cur, instr) }

func (b *Builder) newBlock(name string) int { return b.cfg.NewBlock(name) }

// terminated reports whether the current block already ends in a
// terminator — used to avoid appending unreachable code after a Return,
// Break or Continue lowered mid-block.
func (b *Builder) terminated() bool {
	return b.cfg.Blocks[b.cur].Terminator() != nil
}
