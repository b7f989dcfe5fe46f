package ir

import (
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/errors"
	"cfgmid/internal/irtype"
	"cfgmid/internal/vartable"
)

// BasicBlock is a maximal straight-line run of instructions ending in
// exactly one terminator (spec §3 "Basic block"). Blocks are identified by
// dense indices into CFG.Blocks; Name is for human-readable printing only.
type BasicBlock struct {
	Name  string
	Instr []Instr
}

// Terminator returns the block's terminating instruction, or nil if the
// block is (invalidly) empty or doesn't yet end in a terminator — callers
// doing incremental construction should use CFG.Check once building is
// finished rather than relying on this during construction.
func (b *BasicBlock) Terminator() Instr {
	if len(b.Instr) == 0 {
		return nil
	}
	last := b.Instr[len(b.Instr)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// FunctionType selects how a function participates in dispatch.
type FunctionType int

const (
	FunctionOrdinary FunctionType = iota
	FunctionConstructor
	FunctionFallback
	FunctionReceive
	FunctionModifier
)

// CFG is one function's control-flow graph (spec §3). Block 0 is always the
// entry block; parameter variable ids are 0..len(Params)-1 by construction
// (spec §3 invariant).
type CFG struct {
	Name       string
	FunctionNo int

	Params  []vartable.VarInfo
	Returns []irtype.Type

	Vars *vartable.Table

	Blocks []*BasicBlock

	Nonpayable bool
	Public     bool
	Type       FunctionType
	Selector   []byte // nil until computed (internal/selector)
}

// NewBlock appends a fresh, empty block and returns its index.
func (c *CFG) NewBlock(name string) int {
	c.Blocks = append(c.Blocks, &BasicBlock{Name: name})
	return len(c.Blocks) - 1
}

// Emit appends instr to the block at index blockNo.
func (c *CFG) Emit(blockNo int, instr Instr) {
	c.Blocks[blockNo].Instr = append(c.Blocks[blockNo].Instr, instr)
}

// Check validates the structural invariants spec §3/§8 require of every
// produced CFG:
//   - every reachable block's last instruction is exactly one terminator
//   - every block id referenced by a terminator exists
//   - every Variable/Set res varno is defined in Vars
//   - Set{res, expr} has matching declared/result types
func (c *CFG) Check() error {
	for i, b := range c.Blocks {
		if len(b.Instr) == 0 {
			return errors.AsError(errors.MissingTerminator(b.Name, ast.Loc{}))
		}
		for j, instr := range b.Instr {
			isLast := j == len(b.Instr)-1
			if instr.IsTerminator() != isLast {
				if instr.IsTerminator() {
					return errors.AsError(errors.Unreachable(
						fmt.Sprintf("block %q has a terminator before its last instruction", b.Name), ast.Loc{}))
				}
				return errors.AsError(errors.MissingTerminator(b.Name, ast.Loc{}))
			}
		}
		for _, succ := range successors(b.Terminator()) {
			if succ < 0 || succ >= len(c.Blocks) {
				return errors.AsError(errors.UndefinedBlock(succ, fmt.Sprintf("block %d (%s)'s terminator", i, b.Name), ast.Loc{}))
			}
		}
		for _, instr := range b.Instr {
			if err := c.checkInstr(instr); err != nil {
				return fmt.Errorf("ir: block %d (%s): %w", i, b.Name, err)
			}
		}
	}
	return nil
}

func (c *CFG) checkInstr(instr Instr) error {
	switch in := instr.(type) {
	case Set:
		if in.Res < 0 || in.Res >= c.Vars.Len() {
			return errors.AsError(errors.UndefinedVariable(in.Res, ast.Loc{}))
		}
		declared := c.Vars.Get(in.Res).Type
		if !declared.Equal(in.Expr.Type()) {
			return errors.AsError(errors.TypeMismatch(declared.String(), in.Expr.Type().String(), ast.Loc{}))
		}
	case Phi:
		if in.Res < 0 || in.Res >= c.Vars.Len() {
			return errors.AsError(errors.UndefinedVariable(in.Res, ast.Loc{}))
		}
	}
	return checkExprVars(instr, c.Vars)
}

// Successors returns the block indices a terminator may transfer control to.
// Exported for passes outside this package (internal/cse, internal/reach,
// internal/reachability) that need the CFG's edge structure.
func Successors(term Instr) []int { return successors(term) }

// successors returns the block indices a terminator may transfer control
// to; used by Check to validate referential integrity.
func successors(term Instr) []int {
	switch t := term.(type) {
	case Branch:
		return []int{t.Block}
	case BranchCond:
		return []int{t.TrueBlock, t.FalseBlock}
	case Switch:
		out := make([]int, 0, len(t.Cases)+1)
		for _, c := range t.Cases {
			out = append(out, c.Block)
		}
		out = append(out, t.Default)
		return out
	default:
		return nil
	}
}

// checkExprVars walks every Expression operand of instr and verifies every
// Variable reference names a varno present in vars (spec §3 invariant).
func checkExprVars(instr Instr, vars *vartable.Table) error {
	var err error
	walkInstrExprs(instr, func(e Expression) {
		if err != nil {
			return
		}
		walkExpr(e, func(sub Expression) {
			if v, ok := sub.(Variable); ok {
				if v.ID < 0 || v.ID >= vars.Len() {
					err = errors.AsError(errors.UndefinedVariable(v.ID, ast.Loc{}))
				}
			}
		})
	})
	return err
}
