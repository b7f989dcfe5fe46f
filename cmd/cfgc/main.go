// Command cfgc is a CLI harness for the CFG/LIR middle-end: it reads a tiny
// JSON namespace fixture in place of a real parser/semantic-analysis front
// end (spec.md §1 scopes those out), runs reachability once over the whole
// namespace, then builds one CFG per function, assigns its selector, runs
// the optimization pipeline over it, and prints the resulting LIR. Mirrors cmd/kanso-cli/main.go's read-file/process/report
// shape, with kanso-cli's participle parse error reporting replaced by
// this module's own CompilerError reporter.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"cfgmid/internal/ast"
	"cfgmid/internal/cfgbuild"
	"cfgmid/internal/config"
	"cfgmid/internal/fixture"
	"cfgmid/internal/lirtext"
	"cfgmid/internal/namespace"
	"cfgmid/internal/passmgr"
	"cfgmid/internal/reach"
	"cfgmid/internal/reachability"
	"cfgmid/internal/selector"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		color.Red("cfgc: %s", err)
		os.Exit(1)
	}
	if cfg.Input == "" {
		fmt.Println("Usage: cfgc [-target=evm|account-model|wasm] [-quiet] <fixture.json>")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		color.Red("cfgc: %s", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	reach.MaxValues = cfg.MaxValues

	f, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.Input, err)
	}
	defer f.Close()

	ns, err := fixture.Load(f, cfg.Target.String(), cfg.AddressBits, cfg.ValueBits)
	if err != nil {
		return err
	}

	if err := reachability.Analyze(ns); err != nil {
		return err
	}

	pipeline := passmgr.NewPipeline(os.Stdout, cfg.Quiet)

	for _, fn := range ns.Functions {
		if err := compileFunction(fn, ns, pipeline, cfg.Quiet); err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}

	return nil
}

func compileFunction(fn *ast.Function, ns *namespace.Namespace, pipeline *passmgr.Pipeline, quiet bool) error {
	cfg, err := cfgbuild.Build(fn, ns)
	if err != nil {
		return err
	}

	selector.Assign(cfg, fn, ns)

	if err := pipeline.Run(cfg, ns); err != nil {
		return err
	}

	if !quiet {
		sel := selector.Function(fn, ns)
		bold := color.New(color.Bold).SprintFunc()
		fmt.Printf("%s selector=%x\n", bold(fn.Name), sel)
		fmt.Print(lirtext.Print(cfg))
		fmt.Println()
	}

	return nil
}
