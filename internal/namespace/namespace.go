// Package namespace holds the read-mostly program-wide symbol tables this
// middle-end borrows from the frontend (spec §3 "Namespace"), plus the
// handful of fields the middle-end itself writes back: hover overrides from
// strength reduction, and the reachable-function/emitted-event sets from the
// reachability pass (spec §4.8).
//
// Namespace is conceptually &mut during a compile: everything except those
// two write-back paths is populated once by the frontend and read-only
// afterwards. Contracts may be compiled concurrently by a driver (spec §5),
// so the two writable fields are guarded by a deadlock-detecting mutex
// rather than a plain sync.Mutex — if a future pass ever introduces a lock
// ordering cycle across contracts, go-deadlock surfaces it immediately
// instead of hanging a CI run.
package namespace

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"

	"cfgmid/internal/ast"
	"cfgmid/internal/irtype"
)

// Target selects the back end platform, which in turn selects selector
// width/algorithm and instruction choices the builder must emit (spec §6).
type Target int

const (
	TargetEVM Target = iota
	TargetAccountModel
	TargetWASM
)

func (t Target) String() string {
	switch t {
	case TargetEVM:
		return "evm"
	case TargetAccountModel:
		return "account-model"
	case TargetWASM:
		return "wasm"
	default:
		return "unknown"
	}
}

type EnumType struct {
	Name    string
	Values  []string
}

type StructType struct {
	Name   string
	Fields []ast.Parameter
}

type EventType struct {
	Name    string
	Fields  []ast.Parameter
	Indexed []bool
}

// Contract groups the functions, storage layout and metadata the
// reachability pass (spec §4.8) and the LIR lowerer (spec §4.7) need
// per-contract.
type Contract struct {
	Name  string
	ID    int

	// FixedLayoutSize is the compile-time-known prefix of the contract's
	// storage layout, in bytes; dynamic mapping/array slots are addressed
	// separately by keccak/slot arithmetic the builder emits.
	FixedLayoutSize uint64

	// ProgramID identifies the account-model program (ignored on other
	// targets).
	ProgramID string

	// EntryPoints are the FuncNo of every externally callable function and
	// constructor; the reachability pass (spec §4.8) starts its walk here.
	EntryPoints []int

	// Populated by the reachability pass.
	AllFunctions []int
	EmitsEvents  []int
}

// Namespace is the frontend's read-only output, borrowed by the middle-end
// for the duration of one compile.
type Namespace struct {
	// BuildID uniquely tags one middle-end run, so a driver compiling many
	// contracts concurrently can correlate log lines, hover overrides and
	// reachability reports back to the compile that produced them.
	BuildID ksuid.KSUID

	Target Target

	Contracts []*Contract
	Functions []*ast.Function
	Enums     []*EnumType
	Structs   []*StructType
	Events    []*EventType
	UserTypes map[string]irtype.Type

	addressBits int
	valueBits   int

	mu             deadlock.Mutex
	hoverOverrides map[Loc]string
}

// Loc is an alias of ast.Loc, so namespace and ast locations are the same
// type and interchangeable without conversion.
type Loc = ast.Loc

// New constructs an empty Namespace for the given platform and width
// parameters (address/value widths are platform dependent, spec §3).
func New(target Target, addressBits, valueBits int) *Namespace {
	return &Namespace{
		BuildID:        ksuid.New(),
		Target:         target,
		UserTypes:      make(map[string]irtype.Type),
		addressBits:    addressBits,
		valueBits:      valueBits,
		hoverOverrides: make(map[Loc]string),
	}
}

func (ns *Namespace) AddressBits() int { return ns.addressBits }
func (ns *Namespace) ValueBits() int   { return ns.valueBits }

// RecordHover records a strength-reduction (or other pass) hover annotation
// at loc, overwriting any prior annotation at the same location. Safe for
// concurrent use by multiple per-contract compiles.
func (ns *Namespace) RecordHover(loc Loc, message string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.hoverOverrides[loc] = message
}

// HoverAt returns the recorded hover annotation at loc, if any.
func (ns *Namespace) HoverAt(loc Loc) (string, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	s, ok := ns.hoverOverrides[loc]
	return s, ok
}

// HoverOverrides returns a snapshot copy of every recorded hover
// annotation, keyed by source location — the shape cmd/cfg-hoverd serves
// over LSP hover requests.
func (ns *Namespace) HoverOverrides() map[Loc]string {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make(map[Loc]string, len(ns.hoverOverrides))
	for k, v := range ns.hoverOverrides {
		out[k] = v
	}
	return out
}

// SetReachable writes back the reachability pass's result for one contract
// (spec §4.8): the transitive closure of callable functions, and the union
// of events actually emitted by any of them.
func (ns *Namespace) SetReachable(contractID int, allFunctions, emitsEvents []int) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, c := range ns.Contracts {
		if c.ID == contractID {
			c.AllFunctions = allFunctions
			c.EmitsEvents = emitsEvents
			return nil
		}
	}
	return fmt.Errorf("namespace: no contract with id %d", contractID)
}

// FunctionByNo looks up a function by its namespace-wide FuncNo.
func (ns *Namespace) FunctionByNo(no int) *ast.Function {
	for _, f := range ns.Functions {
		if f.FuncNo == no {
			return f
		}
	}
	return nil
}

// ContractByID looks up a contract by id.
func (ns *Namespace) ContractByID(id int) *Contract {
	for _, c := range ns.Contracts {
		if c.ID == id {
			return c
		}
	}
	return nil
}
