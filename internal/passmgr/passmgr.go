// Package passmgr runs the per-function optimization pipeline (strength
// reduction, common subexpression elimination, LIR lowering) and prints a
// colorized pass banner for each step, in the style of
// internal/ir/optimizations.go's OptimizationPipeline: one line announcing
// the pass, one line reporting whether it changed anything. That pipeline
// operated on the teacher's own Program/Function/BasicBlock IR with a
// fixed four-pass order (ConstantFolding, CheckedArithmeticOptimization,
// DeadCodeElimination, CommonSubexpressionElimination); this one generalizes
// the interface to cfgmid's ir.CFG and wires the passes this module
// actually implements.
package passmgr

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"cfgmid/internal/cse"
	"cfgmid/internal/errors"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/lir"
	"cfgmid/internal/strength"
)

// Pass is one optimization or lowering step applied to a single function's
// CFG. Run reports how many rewrites it made so the banner can say "no
// changes" versus "N rewrites" the way the teacher's pipeline reports a
// bool per pass. Requires names the passes (by Name()) that must already
// have run in this pipeline before this one is safe to run.
type Pass interface {
	Name() string
	Description() string
	Requires() []string
	Run(cfg *ir.CFG, widths irtype.Widths) (int, error)
}

// Pipeline is an ordered sequence of passes run over every function CFG in
// a compile.
type Pipeline struct {
	passes []Pass
	out    io.Writer
	quiet  bool
}

// NewPipeline builds the default pipeline: strength reduction, then CSE,
// then LIR lowering. Strength reduction runs first because it can turn a
// wide multiply into a narrower one CSE can then recognize as equal to
// another narrow multiply elsewhere in the block; LIR lowering runs last
// since it is required to produce the three-address form spec §4.7
// demands and later passes assume.
func NewPipeline(out io.Writer, quiet bool) *Pipeline {
	return &Pipeline{
		passes: []Pass{
			strengthPass{},
			csePass{},
			lirPass{},
		},
		out:   out,
		quiet: quiet,
	}
}

// AddPass appends a pass to the end of the pipeline.
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run executes every configured pass over cfg in order, printing a banner
// per pass unless the pipeline was built quiet.
func (p *Pipeline) Run(cfg *ir.CFG, widths irtype.Widths) error {
	if !p.quiet {
		fmt.Fprintf(p.out, "running %d passes over %s\n", len(p.passes), cfg.Name)
	}
	ran := map[string]bool{}
	for _, pass := range p.passes {
		for _, dep := range pass.Requires() {
			if !ran[dep] {
				return errors.AsError(errors.PassDependency(pass.Name(), dep))
			}
		}
		n, err := pass.Run(cfg, widths)
		if err != nil {
			return errors.AsError(errors.PassFailed(pass.Name(), err))
		}
		ran[pass.Name()] = true
		if p.quiet {
			continue
		}
		bold := color.New(color.Bold).SprintFunc()
		fmt.Fprintf(p.out, "  - %s: %s\n", bold(pass.Name()), pass.Description())
		if n > 0 {
			color.New(color.FgGreen).Fprintf(p.out, "    ✓ %d rewrite(s)\n", n)
		} else {
			color.New(color.Faint).Fprintln(p.out, "    - no changes")
		}
	}
	return nil
}

type strengthPass struct{}

func (strengthPass) Name() string        { return "strength-reduction" }
func (strengthPass) Description() string { return "narrows wide arithmetic proven to fit a smaller width" }
func (strengthPass) Requires() []string  { return nil }
func (strengthPass) Run(cfg *ir.CFG, widths irtype.Widths) (int, error) {
	return strength.Reduce(cfg, widths), nil
}

type csePass struct{}

func (csePass) Name() string        { return "common-subexpression-elimination" }
func (csePass) Description() string { return "replaces redundant pure computations with their first result" }

// Requires strength-reduction: CSE recognizes redundant computations by
// structural equality, and strength-reduction is what makes two operations
// that used wide arithmetic differently end up structurally identical.
func (csePass) Requires() []string { return []string{"strength-reduction"} }
func (csePass) Run(cfg *ir.CFG, _ irtype.Widths) (int, error) {
	return cse.Run(cfg), nil
}

type lirPass struct{}

func (lirPass) Name() string        { return "lir-lowering" }
func (lirPass) Description() string { return "flattens every Set to strict three-address form" }

// Requires both optimization passes: lowering to three-address form is the
// pipeline's last step, and running it before strength-reduction/CSE have
// had a chance to simplify expressions would bake in operations later
// passes could otherwise have narrowed or deduplicated.
func (lirPass) Requires() []string { return []string{"strength-reduction", "common-subexpression-elimination"} }
func (lirPass) Run(cfg *ir.CFG, _ irtype.Widths) (int, error) {
	added := 0
	for _, b := range cfg.Blocks {
		added -= len(b.Instr)
	}
	lir.Lower(cfg)
	for _, b := range cfg.Blocks {
		added += len(b.Instr)
	}
	return added, nil
}
