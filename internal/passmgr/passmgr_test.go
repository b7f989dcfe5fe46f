package passmgr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
	"cfgmid/internal/vartable"
)

// buildMulCFG builds: entry: t0 = a * 8 (overflowing); return t0 — small
// enough for the default pipeline to run clean end to end.
func buildMulCFG(t *testing.T) *ir.CFG {
	t.Helper()
	vars := vartable.New()
	u256 := irtype.Uint{Bits: 256}
	a := vars.AddKnown("a", u256, vartable.StorageParameter)
	t0 := vars.Temp("t0", u256)

	cfg := &ir.CFG{Name: "f", Vars: vars, Params: []vartable.VarInfo{vars.Get(a)}}
	entry := cfg.NewBlock("entry")

	mul := ir.Mul{ExprBase: ir.ExprBase{Ty: u256}, Overflowing: true,
		Left:  ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: a},
		Right: ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: u256}, Value: 8},
	}
	cfg.Emit(entry, ir.Set{Res: t0, Expr: mul})
	cfg.Emit(entry, ir.Return{Values: []ir.Expression{ir.Variable{ExprBase: ir.ExprBase{Ty: u256}, ID: t0}}})
	return cfg
}

func TestPipelineRunsDefaultPassesInOrder(t *testing.T) {
	cfg := buildMulCFG(t)
	widths := namespace.New(namespace.TargetEVM, 160, 256)

	var out bytes.Buffer
	p := NewPipeline(&out, false)
	require.NoError(t, p.Run(cfg, widths))

	require.Contains(t, out.String(), "strength-reduction")
	require.Contains(t, out.String(), "common-subexpression-elimination")
	require.Contains(t, out.String(), "lir-lowering")
}

func TestPipelineQuietSuppressesBanners(t *testing.T) {
	cfg := buildMulCFG(t)
	widths := namespace.New(namespace.TargetEVM, 160, 256)

	var out bytes.Buffer
	p := NewPipeline(&out, true)
	require.NoError(t, p.Run(cfg, widths))
	require.Empty(t, out.String())
}

type stubPass struct {
	name     string
	requires []string
	err      error
}

func (s stubPass) Name() string              { return s.name }
func (s stubPass) Description() string       { return "stub" }
func (s stubPass) Requires() []string        { return s.requires }
func (s stubPass) Run(*ir.CFG, irtype.Widths) (int, error) { return 0, s.err }

func TestRunRejectsUnsatisfiedDependency(t *testing.T) {
	cfg := buildMulCFG(t)
	widths := namespace.New(namespace.TargetEVM, 160, 256)

	p := &Pipeline{passes: []Pass{stubPass{name: "late", requires: []string{"earlier"}}}, out: &bytes.Buffer{}, quiet: true}
	err := p.Run(cfg, widths)
	require.Error(t, err)
	require.Contains(t, err.Error(), "earlier")
	require.Contains(t, err.Error(), "late")
}

func TestRunWrapsPassFailure(t *testing.T) {
	cfg := buildMulCFG(t)
	widths := namespace.New(namespace.TargetEVM, 160, 256)

	cause := errors.New("boom")
	p := &Pipeline{passes: []Pass{stubPass{name: "broken", err: cause}}, out: &bytes.Buffer{}, quiet: true}
	err := p.Run(cfg, widths)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
	require.Contains(t, err.Error(), "boom")
}

func TestAddPassAppendsToDefaultPipeline(t *testing.T) {
	p := NewPipeline(&bytes.Buffer{}, true)
	before := len(p.passes)
	p.AddPass(stubPass{name: "extra"})
	require.Equal(t, before+1, len(p.passes))
}
