// Package vartable implements the per-function variable table and the
// dirty-tracker stack the CFG builder uses to compute φ-sets at control-flow
// merge points (spec §4.2).
package vartable

import (
	"fmt"

	"cfgmid/internal/irtype"
)

// StorageClass distinguishes how a variable was introduced, mirroring the
// distinction the back end needs between a user-named local and a
// compiler-generated temporary.
type StorageClass int

const (
	StorageLocal StorageClass = iota
	StorageParameter
	StorageTemp
)

type VarInfo struct {
	Name    string
	Type    irtype.Type
	Storage StorageClass
}

// Table maps a dense varno to its declared type and name, and tracks which
// variables are written within nested regions so the builder can compute
// φ-sets for blocks with multiple predecessors.
type Table struct {
	vars []VarInfo

	dirtyStack []map[int]struct{}
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// Get returns the VarInfo for varno; it panics (an ICE — varno must always
// be valid, spec §3 invariants) if varno is out of range.
func (t *Table) Get(varno int) VarInfo {
	if varno < 0 || varno >= len(t.vars) {
		panic(fmt.Sprintf("vartable: varno %d out of range (%d vars)", varno, len(t.vars)))
	}
	return t.vars[varno]
}

// Len returns the number of variable ids allocated (ids are dense, 0..Len-1).
func (t *Table) Len() int { return len(t.vars) }

// AddKnown registers an existing parameter/named local under a specific
// name and type, allocating it the next dense varno.
func (t *Table) AddKnown(name string, ty irtype.Type, storage StorageClass) int {
	id := len(t.vars)
	t.vars = append(t.vars, VarInfo{Name: name, Type: ty, Storage: storage})
	return id
}

// Temp allocates a fresh named temporary of the given type.
func (t *Table) Temp(hint string, ty irtype.Type) int {
	id := len(t.vars)
	name := fmt.Sprintf("%s.temp.%d", hint, id)
	t.vars = append(t.vars, VarInfo{Name: name, Type: ty, Storage: StorageTemp})
	return id
}

// TempAnonymous allocates a fresh temporary with a generated name, for
// sub-expressions with no natural source name.
func (t *Table) TempAnonymous(ty irtype.Type) int {
	return t.Temp("temp", ty)
}

// NewDirtyTracker pushes a fresh "written in this region" set, beginning a
// new scope for φ-set computation (e.g. entering an if-arm or loop body).
func (t *Table) NewDirtyTracker() {
	t.dirtyStack = append(t.dirtyStack, make(map[int]struct{}))
}

// SetDirty records that varno is written within the current (innermost)
// region. It marks every enclosing region dirty too, since a write deep in
// a nested scope still means the enclosing scope's incoming value was
// overwritten on that path.
func (t *Table) SetDirty(varno int) {
	for _, set := range t.dirtyStack {
		set[varno] = struct{}{}
	}
}

// PopDirtyTracker pops and returns the innermost region's written-variable
// set. It panics (ICE) if the stack is empty — callers must balance every
// NewDirtyTracker with exactly one PopDirtyTracker.
func (t *Table) PopDirtyTracker() map[int]struct{} {
	n := len(t.dirtyStack)
	if n == 0 {
		panic("vartable: PopDirtyTracker called with no tracker pushed")
	}
	set := t.dirtyStack[n-1]
	t.dirtyStack = t.dirtyStack[:n-1]
	return set
}

// PhiSet computes the φ-set for a block with multiple predecessors: the
// union of the variables written on any incoming path. Each
// element of pathWrites is one incoming path's dirty-tracker result
// (spec §4.2 invariant).
func PhiSet(pathWrites ...map[int]struct{}) map[int]struct{} {
	// A variable needs a φ unless it was written on none of the incoming
	// paths: written on a strict subset means one path keeps the
	// pre-merge value while another has a new one; written on every path
	// still may have written a different value per path (the table
	// doesn't track per-path producer ids, only "was written"), so the
	// union of every path's dirty set is the exact φ-set this table can
	// compute without over- or under-approximating.
	out := make(map[int]struct{})
	for _, set := range pathWrites {
		for v := range set {
			out[v] = struct{}{}
		}
	}
	return out
}
