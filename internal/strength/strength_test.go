package strength

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
	"cfgmid/internal/vartable"
)

// buildKnownBoundsMulCFG builds: a = 5; b = 7; r = a * b, entirely at
// uint256 width. Both operands reach this point with a single known value,
// so their product provably fits in 64 bits and the multiply should narrow.
func buildKnownBoundsMulCFG(t *testing.T) (*ir.CFG, *namespace.Namespace) {
	t.Helper()
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.Temp("a", u256)
	b := vars.Temp("b", u256)
	r := vars.Temp("r", u256)

	cfg := &ir.CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")

	cfg.Emit(entry, ir.Set{Res: a, Expr: ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: u256}, Value: 5}})
	cfg.Emit(entry, ir.Set{Res: b, Expr: ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: u256}, Value: 7}})
	cfg.Emit(entry, ir.Set{Res: r, Expr: ir.Mul{
		ExprBase:    ir.ExprBase{Ty: u256},
		Overflowing: false,
		Left:        ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a},
		Right:       ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: b},
	}})
	cfg.Emit(entry, ir.Return{})

	require.NoError(t, cfg.Check())
	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	return cfg, ns
}

func TestReduceNarrowsBoundedMultiply(t *testing.T) {
	cfg, ns := buildKnownBoundsMulCFG(t)

	n := Reduce(cfg, ns)
	require.Equal(t, 1, n)
	require.NoError(t, cfg.Check())

	set, ok := cfg.Blocks[0].Instr[2].(ir.Set)
	require.True(t, ok)
	ext, ok := set.Expr.(ir.ZeroExt)
	require.True(t, ok, "expected the multiply to be rewrapped in a ZeroExt, got %T", set.Expr)
	mul, ok := ext.Expr.(ir.Mul)
	require.True(t, ok)
	require.Equal(t, irtype.Uint{Bits: 64}, mul.Type())
}

func TestReduceLeavesUnboundedMultiplyAlone(t *testing.T) {
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.AddKnown("a", u256, vartable.StorageParameter)
	b := vars.AddKnown("b", u256, vartable.StorageParameter)
	r := vars.Temp("r", u256)

	cfg := &ir.CFG{Name: "f", Vars: vars, Params: []vartable.VarInfo{vars.Get(a), vars.Get(b)}}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, ir.Set{Res: r, Expr: ir.Mul{
		ExprBase: ir.ExprBase{Ty: u256},
		Left:     ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a},
		Right:    ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: b},
	}})
	cfg.Emit(entry, ir.Return{})
	require.NoError(t, cfg.Check())

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	require.Equal(t, 0, Reduce(cfg, ns))
}
