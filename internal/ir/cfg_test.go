package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/irtype"
	"cfgmid/internal/vartable"
)

func simpleCFG(t *testing.T) *CFG {
	t.Helper()
	vars := vartable.New()
	x := vars.AddKnown("x", irtype.Uint{Bits: 256}, vartable.StorageParameter)

	cfg := &CFG{Name: "f", Vars: vars, Params: []vartable.VarInfo{vars.Get(x)}}
	entry := cfg.NewBlock("entry")
	require.Equal(t, 0, entry)
	cfg.Emit(entry, Return{Values: []Expression{Variable{ExprBase{Ty: irtype.Uint{Bits: 256}}, x}}})
	return cfg
}

func TestCFGCheckPasses(t *testing.T) {
	cfg := simpleCFG(t)
	require.NoError(t, cfg.Check())
}

func TestCFGCheckRejectsMissingTerminator(t *testing.T) {
	vars := vartable.New()
	cfg := &CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")
	x := vars.TempAnonymous(irtype.Bool{})
	cfg.Emit(entry, Set{Res: x, Expr: BoolLiteral{ExprBase{Ty: irtype.Bool{}}, true}})
	require.Error(t, cfg.Check())
}

func TestCFGCheckRejectsDanglingBlockRef(t *testing.T) {
	vars := vartable.New()
	cfg := &CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, Branch{Block: 5})
	require.Error(t, cfg.Check())
}

func TestCFGCheckRejectsTypeMismatch(t *testing.T) {
	vars := vartable.New()
	cfg := &CFG{Name: "f", Vars: vars}
	x := vars.TempAnonymous(irtype.Uint{Bits: 256})
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, Set{Res: x, Expr: BoolLiteral{ExprBase{Ty: irtype.Bool{}}, true}})
	cfg.Emit(entry, Return{})
	require.Error(t, cfg.Check())
}

func TestCFGCheckRejectsUndefinedVariable(t *testing.T) {
	vars := vartable.New()
	cfg := &CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, Return{Values: []Expression{Variable{ExprBase{Ty: irtype.Uint{Bits: 256}}, 99}}})
	require.Error(t, cfg.Check())
}

func TestCFGCheckRejectsMultipleTerminators(t *testing.T) {
	vars := vartable.New()
	cfg := &CFG{Name: "f", Vars: vars}
	entry := cfg.NewBlock("entry")
	cfg.Emit(entry, Return{})
	cfg.Emit(entry, Unreachable{})
	require.Error(t, cfg.Check())
}
