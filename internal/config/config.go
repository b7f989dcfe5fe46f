// Package config parses the handful of flags cfgc needs:
// which platform to target, whether to run the optimization pipeline
// quietly, and the reaching-values lattice's precision budget. Grounded on
// cmd/kanso-cli/main.go, which reads os.Args directly with no flag
// package at all — this module's CLI surface is bigger (it selects a
// target platform and exposes a tuning knob for internal/reach) so it
// reaches for the standard flag package instead, the smallest step up
// the teacher's own style supports.
package config

import (
	"flag"

	"cfgmid/internal/errors"
	"cfgmid/internal/namespace"
)

// Config holds one compile's settings.
type Config struct {
	// Input is the path to the JSON namespace fixture cfgc reads in place
	// of a real frontend (spec §1 scopes parsing/sema out).
	Input string

	Target namespace.Target

	// AddressBits/ValueBits are the platform's pointer/value widths (spec
	// §3); EVM-like defaults to 160/256, account-model to 32/64.
	AddressBits int
	ValueBits   int

	// MaxValues overrides internal/reach.MaxValues for this compile.
	MaxValues int

	// Quiet suppresses passmgr's pass banners.
	Quiet bool
}

var targetNames = map[string]namespace.Target{
	"evm":           namespace.TargetEVM,
	"account-model": namespace.TargetAccountModel,
	"wasm":          namespace.TargetWASM,
}

var validTargetNames = []string{"evm", "account-model", "wasm"}

// Parse parses args (typically os.Args[1:]) into a Config.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("cfgc", flag.ContinueOnError)

	targetFlag := fs.String("target", "evm", "compile target: evm, account-model, or wasm")
	addressBits := fs.Int("address-bits", 0, "override the target's default address width in bits")
	valueBits := fs.Int("value-bits", 0, "override the target's default value width in bits")
	maxValues := fs.Int("max-values", 100, "maximum tracked constants per variable in the reaching-values lattice")
	quiet := fs.Bool("quiet", false, "suppress pass banners")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	target, ok := targetNames[*targetFlag]
	if !ok {
		return Config{}, errors.AsError(errors.UnknownTarget(*targetFlag, validTargetNames))
	}

	cfg := Config{
		Target:      target,
		AddressBits: *addressBits,
		ValueBits:   *valueBits,
		MaxValues:   *maxValues,
		Quiet:       *quiet,
	}

	switch target {
	case namespace.TargetEVM:
		if cfg.AddressBits == 0 {
			cfg.AddressBits = 160
		}
		if cfg.ValueBits == 0 {
			cfg.ValueBits = 256
		}
	case namespace.TargetAccountModel, namespace.TargetWASM:
		if cfg.AddressBits == 0 {
			cfg.AddressBits = 32
		}
		if cfg.ValueBits == 0 {
			cfg.ValueBits = 64
		}
	}

	if fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}

	return cfg, nil
}
