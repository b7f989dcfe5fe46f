package cse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/vartable"
)

// buildAddTwiceCFG builds: entry: t0 = a+b; t1 = a+b; t2 = t0+t1; return t2.
// t1's computation is redundant with t0's and should collapse to a
// reference to the variable already holding it.
func buildAddTwiceCFG(t *testing.T) (*ir.CFG, int) {
	t.Helper()
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.AddKnown("a", u256, vartable.StorageParameter)
	b := vars.AddKnown("b", u256, vartable.StorageParameter)
	t0 := vars.Temp("t0", u256)
	t1 := vars.Temp("t1", u256)
	t2 := vars.Temp("t2", u256)

	cfg := &ir.CFG{
		Name:   "f",
		Vars:   vars,
		Params: []vartable.VarInfo{vars.Get(a), vars.Get(b)},
	}
	entry := cfg.NewBlock("entry")

	varA := ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a}
	varB := ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: b}
	addAB := ir.Add{ExprBase: ir.ExprBase{Ty: u256}, Left: varA, Right: varB}

	cfg.Emit(entry, ir.Set{Res: t0, Expr: addAB})
	cfg.Emit(entry, ir.Set{Res: t1, Expr: addAB})
	cfg.Emit(entry, ir.Set{Res: t2, Expr: ir.Add{
		ExprBase: ir.ExprBase{Ty: u256},
		Left:     ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: t0},
		Right:    ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: t1},
	}})
	cfg.Emit(entry, ir.Return{Values: []ir.Expression{ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: t2}}})

	require.NoError(t, cfg.Check())
	return cfg, t0
}

func TestRunEliminatesRedundantAdd(t *testing.T) {
	cfg, t0 := buildAddTwiceCFG(t)

	n := Run(cfg)
	require.Equal(t, 1, n)
	require.NoError(t, cfg.Check())

	set, ok := cfg.Blocks[0].Instr[1].(ir.Set)
	require.True(t, ok)
	v, ok := set.Expr.(ir.Variable)
	require.True(t, ok, "expected t1's redundant add to collapse to a Variable reference, got %T", set.Expr)
	require.Equal(t, t0, v.ID)
}

func TestRunIsNoopWithoutRedundancy(t *testing.T) {
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.AddKnown("a", u256, vartable.StorageParameter)
	b := vars.AddKnown("b", u256, vartable.StorageParameter)
	t0 := vars.Temp("t0", u256)

	cfg := &ir.CFG{Name: "f", Vars: vars, Params: []vartable.VarInfo{vars.Get(a), vars.Get(b)}}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, ir.Set{Res: t0, Expr: ir.Add{
		ExprBase: ir.ExprBase{Ty: u256},
		Left:     ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a},
		Right:    ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: b},
	}})
	cfg.Emit(entry, ir.Return{Values: []ir.Expression{ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: t0}}})

	require.Equal(t, 0, Run(cfg))
}
