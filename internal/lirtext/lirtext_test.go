package lirtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/lir"
	"cfgmid/internal/vartable"
)

func buildLoweredCFG(t *testing.T) *ir.CFG {
	t.Helper()
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.AddKnown("a", u256, vartable.StorageParameter)
	b := vars.AddKnown("b", u256, vartable.StorageParameter)
	r := vars.Temp("r", u256)

	cfg := &ir.CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, ir.Set{Res: r, Expr: ir.Add{
		ExprBase: ir.ExprBase{Ty: u256},
		Left:     ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a},
		Right:    ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: b},
	}})
	cfg.Emit(entry, ir.Return{Values: []ir.Expression{ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: r}}})
	require.NoError(t, cfg.Check())

	lir.Lower(cfg)
	require.NoError(t, cfg.Check())
	return cfg
}

func TestPrintRoundTripsOperatorExpression(t *testing.T) {
	cfg := buildLoweredCFG(t)

	set, ok := cfg.Blocks[0].Instr[0].(ir.Set)
	require.True(t, ok)

	printed := PrintExpr(set.Expr)
	require.Equal(t, "add %0, %1", printed)

	op, operand, err := ParseValue(printed)
	require.NoError(t, err)
	require.Nil(t, operand)
	require.Equal(t, "add", op.Op)
	require.NotNil(t, op.Left.VarID)
	require.EqualValues(t, 0, *op.Left.VarID)
	require.NotNil(t, op.Right)
	require.NotNil(t, op.Right.VarID)
	require.EqualValues(t, 1, *op.Right.VarID)
}

func TestPrintRoundTripsBareOperand(t *testing.T) {
	cfg := buildLoweredCFG(t)

	ret, ok := cfg.Blocks[0].Instr[1].(ir.Return)
	require.True(t, ok)
	require.Len(t, ret.Values, 1)

	printed := PrintExpr(ret.Values[0])
	require.Equal(t, "%2", printed)

	op, operand, err := ParseValue(printed)
	require.NoError(t, err)
	require.Nil(t, op)
	require.NotNil(t, operand.VarID)
	require.EqualValues(t, 2, *operand.VarID)
}

func TestPrintProducesOneLinePerInstruction(t *testing.T) {
	cfg := buildLoweredCFG(t)
	text := Print(cfg)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	// block0: + Set + Return
	require.Len(t, lines, 3)
	require.Equal(t, "block0:", lines[0])
}
