// Package cse runs common subexpression elimination over a built CFG: a
// forward available-expression dataflow analysis (internal/availexpr)
// followed by a rewrite pass that substitutes each recomputed subtree with
// a reference to the variable already holding its value (spec §4.3, §4.6).
package cse

import (
	"cfgmid/internal/availexpr"
	"cfgmid/internal/ir"
)

// predecessors returns, for every block, the indices of blocks whose
// terminator may transfer control to it.
func predecessors(cfg *ir.CFG) [][]int {
	preds := make([][]int, len(cfg.Blocks))
	for i, b := range cfg.Blocks {
		for _, s := range ir.Successors(b.Terminator()) {
			preds[s] = append(preds[s], i)
		}
	}
	return preds
}

// Analyze computes, for every block, the set of expressions available on
// entry (in) and on exit (out), by iterating Transfer/Intersect to a fixed
// point over the CFG's edges. Block 0 (the entry) always starts from an
// empty set, since no caller-visible state is available on function entry.
func Analyze(cfg *ir.CFG) (in, out []*availexpr.Set) {
	n := len(cfg.Blocks)
	counter := new(availexpr.NodeID)
	in = make([]*availexpr.Set, n)
	out = make([]*availexpr.Set, n)
	for i := range in {
		in[i] = availexpr.NewSet(counter)
		out[i] = availexpr.NewSet(counter)
	}
	preds := predecessors(cfg)

	for changed := true; changed; {
		changed = false
		for i, b := range cfg.Blocks {
			var merged *availexpr.Set
			switch {
			case i == 0 || len(preds[i]) == 0:
				merged = availexpr.NewSet(counter)
			default:
				merged = out[preds[i][0]].Clone()
				for _, p := range preds[i][1:] {
					merged.Intersect(out[p])
				}
			}
			if !merged.Equal(in[i]) {
				in[i] = merged
				changed = true
			}

			cur := in[i].Clone()
			for _, instr := range b.Instr {
				availexpr.Transfer(instr, cur)
			}
			if !cur.Equal(out[i]) {
				out[i] = cur
				changed = true
			}
		}
	}
	return in, out
}

// Rewrite mutates cfg in place, replacing any instruction operand that
// duplicates an already-available expression with a reference to the
// variable currently holding that value. Returns the number of
// substitutions made.
func Rewrite(cfg *ir.CFG, in []*availexpr.Set) int {
	replaced := 0
	for i, b := range cfg.Blocks {
		set := in[i].Clone()
		holder := set.VariableHolders()

		for j, instr := range b.Instr {
			rewritten := rewriteInstr(instr, set, holder, &replaced)
			b.Instr[j] = rewritten
			availexpr.Transfer(rewritten, set)
			if s, ok := rewritten.(ir.Set); ok {
				if id, ok := set.Find(s.Expr); ok {
					holder[id] = s.Res
				}
			}
		}
	}
	return replaced
}

// Run computes the available-expression analysis and applies the rewrite
// in one step, the entry point internal/passmgr wires into the pipeline.
func Run(cfg *ir.CFG) int {
	in, _ := Analyze(cfg)
	return Rewrite(cfg, in)
}

func rewriteInstr(instr ir.Instr, set *availexpr.Set, holder map[availexpr.NodeID]int, replaced *int) ir.Instr {
	rewrite := func(e ir.Expression) ir.Expression {
		rewritten, _ := rewriteTop(e, set, holder, replaced)
		return rewritten
	}

	switch in := instr.(type) {
	case ir.Set:
		in.Expr = rewrite(in.Expr)
		return in
	case ir.Store:
		in.Dest, in.Data = rewrite(in.Dest), rewrite(in.Data)
		return in
	case ir.PushMemory:
		in.Array, in.Value = rewrite(in.Array), rewrite(in.Value)
		return in
	case ir.PopMemory:
		in.Array = rewrite(in.Array)
		return in
	case ir.LoadStorage:
		in.Storage = rewrite(in.Storage)
		return in
	case ir.SetStorage:
		in.Value, in.Storage = rewrite(in.Value), rewrite(in.Storage)
		return in
	case ir.ClearStorage:
		in.Storage = rewrite(in.Storage)
		return in
	case ir.SetStorageBytes:
		in.Value, in.Storage, in.Offset = rewrite(in.Value), rewrite(in.Storage), rewrite(in.Offset)
		return in
	case ir.PushStorage:
		in.Storage = rewrite(in.Storage)
		if in.Value != nil {
			in.Value = rewrite(in.Value)
		}
		return in
	case ir.PopStorage:
		in.Storage = rewrite(in.Storage)
		return in
	case ir.Call:
		if in.Callee.Kind == ir.CalleeDynamic && in.Callee.Operand != nil {
			in.Callee.Operand = rewrite(in.Callee.Operand)
		}
		for k, a := range in.Args {
			in.Args[k] = rewrite(a)
		}
		return in
	case ir.Print:
		in.Expr = rewrite(in.Expr)
		return in
	case ir.MemCopy:
		in.Dest, in.Src, in.Size = rewrite(in.Dest), rewrite(in.Src), rewrite(in.Size)
		return in
	case ir.ExternalCall:
		in.Value, in.Payload, in.Gas = rewrite(in.Value), rewrite(in.Payload), rewrite(in.Gas)
		if in.Address != nil {
			in.Address = rewrite(in.Address)
		}
		return in
	case ir.ValueTransfer:
		in.Address, in.Value = rewrite(in.Address), rewrite(in.Value)
		return in
	case ir.ConstructorInstr:
		in.EncodedArgs, in.Gas = rewrite(in.EncodedArgs), rewrite(in.Gas)
		if in.Value != nil {
			in.Value = rewrite(in.Value)
		}
		if in.Salt != nil {
			in.Salt = rewrite(in.Salt)
		}
		return in
	case ir.SelfDestruct:
		in.Recipient = rewrite(in.Recipient)
		return in
	case ir.EmitEvent:
		for k, t := range in.Topics {
			in.Topics[k] = rewrite(t)
		}
		in.Data = rewrite(in.Data)
		return in
	case ir.WriteBuffer:
		in.Offset, in.Value = rewrite(in.Offset), rewrite(in.Value)
		return in
	case ir.BranchCond:
		in.Cond = rewrite(in.Cond)
		return in
	case ir.Switch:
		in.Cond = rewrite(in.Cond)
		for k, c := range in.Cases {
			in.Cases[k].Value = rewrite(c.Value)
		}
		return in
	case ir.Return:
		for k, v := range in.Values {
			in.Values[k] = rewrite(v)
		}
		return in
	case ir.AssertFailure:
		if in.EncodedArgs != nil {
			in.EncodedArgs = rewrite(in.EncodedArgs)
		}
		return in
	default:
		return instr
	}
}

// rewriteTop greedily replaces the largest available subtree of e with a
// Variable reference, recursing into children only where no whole-subtree
// match exists. Preferring the largest match (rather than a bottom-up walk)
// maximizes the amount of recomputation each substitution removes. Some
// Expression variants hold slice fields and so aren't comparable with ==;
// a changed flag is threaded explicitly instead of comparing old and new
// children.
func rewriteTop(e ir.Expression, set *availexpr.Set, holder map[availexpr.NodeID]int, replaced *int) (ir.Expression, bool) {
	if e == nil {
		return nil, false
	}
	if _, isVar := e.(ir.Variable); !isVar {
		if id, ok := set.Find(e); ok {
			if varNo, ok := holder[id]; ok {
				*replaced++
				return ir.Variable{ExprBase: ir.ExprBase{L: e.Loc(), Ty: e.Type()}, ID: varNo}, true
			}
		}
	}

	children := ir.Children(e)
	if len(children) == 0 {
		return e, false
	}
	newChildren := make([]ir.Expression, len(children))
	anyChanged := false
	for i, c := range children {
		nc, changed := rewriteTop(c, set, holder, replaced)
		newChildren[i] = nc
		anyChanged = anyChanged || changed
	}
	if !anyChanged {
		return e, false
	}
	return ir.RebuildChildren(e, newChildren), true
}
