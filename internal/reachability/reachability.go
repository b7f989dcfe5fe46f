// Package reachability computes, per contract, the transitive closure of
// internally-called functions and the union of events they emit (spec
// §4.8). It must run before strength reduction and CSE touch anything: a
// function nothing calls is never lowered, so no later pass should spend
// time analyzing it. Grounded on codegen/external_functions.rs's
// add_external_functions: collect every InternalFunction call reachable
// from a contract's entry points with a worklist, then union the emitted
// events of every reachable function.
package reachability

import (
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/errors"
	"cfgmid/internal/namespace"
)

// Analyze walks every contract in ns from its EntryPoints (externally
// callable functions and constructors), and writes back each contract's
// AllFunctions/EmitsEvents via ns.SetReachable.
func Analyze(ns *namespace.Namespace) error {
	for _, c := range ns.Contracts {
		if len(c.EntryPoints) == 0 {
			return errors.AsError(errors.NoEntryPoints(c.Name, ast.Loc{}))
		}
		all, err := closure(ns, c.EntryPoints)
		if err != nil {
			return fmt.Errorf("reachability: contract %s: %w", c.Name, err)
		}

		var events []int
		seen := map[int]bool{}
		for _, funcNo := range all {
			fn := ns.FunctionByNo(funcNo)
			if fn == nil {
				continue
			}
			for _, e := range fn.EmitsEvents {
				if !seen[e] {
					seen[e] = true
					events = append(events, e)
				}
			}
		}

		if err := ns.SetReachable(c.ID, all, events); err != nil {
			return err
		}
	}
	return nil
}

// closure computes the worklist-driven transitive closure of every
// function called (directly, or via a modifier) from roots.
func closure(ns *namespace.Namespace, roots []int) ([]int, error) {
	visited := map[int]bool{}
	var order []int
	worklist := append([]int(nil), roots...)

	for len(worklist) > 0 {
		funcNo := worklist[0]
		worklist = worklist[1:]
		if visited[funcNo] {
			continue
		}
		visited[funcNo] = true
		order = append(order, funcNo)

		fn := ns.FunctionByNo(funcNo)
		if fn == nil {
			return nil, errors.AsError(errors.UndefinedFunction(funcNo, ast.Loc{}))
		}

		called := calledFunctions(fn)
		for _, m := range fn.Modifiers {
			called = append(called, m.ModifierFuncNo)
			for _, a := range m.Args {
				called = append(called, exprCalls(a)...)
			}
		}

		for _, c := range called {
			if !visited[c] {
				worklist = append(worklist, c)
			}
		}
	}
	return order, nil
}

// calledFunctions returns every FuncNo directly called (as an internal,
// non-external Call) from fn's body.
func calledFunctions(fn *ast.Function) []int {
	if fn.Body == nil {
		return nil
	}
	return stmtCalls(fn.Body)
}

func stmtCalls(s ast.Statement) []int {
	switch st := s.(type) {
	case ast.VariableDecl:
		if st.Init != nil {
			return exprCalls(st.Init)
		}
	case ast.Assign:
		return append(exprCalls(st.Target), exprCalls(st.Value)...)
	case ast.ExprStmt:
		return exprCalls(st.Expr)
	case ast.Block:
		var out []int
		for _, inner := range st.Stmts {
			out = append(out, stmtCalls(inner)...)
		}
		return out
	case ast.If:
		out := exprCalls(st.Cond)
		out = append(out, stmtCalls(st.Then)...)
		if st.Else != nil {
			out = append(out, stmtCalls(st.Else)...)
		}
		return out
	case ast.Loop:
		var out []int
		if st.Init != nil {
			out = append(out, stmtCalls(st.Init)...)
		}
		if st.Cond != nil {
			out = append(out, exprCalls(st.Cond)...)
		}
		if st.Post != nil {
			out = append(out, stmtCalls(st.Post)...)
		}
		out = append(out, stmtCalls(st.Body)...)
		return out
	case ast.Return:
		var out []int
		for _, v := range st.Values {
			out = append(out, exprCalls(v)...)
		}
		return out
	case ast.Emit:
		var out []int
		for _, a := range st.Args {
			out = append(out, exprCalls(a)...)
		}
		return out
	case ast.Destructure:
		out := exprCalls(st.Value)
		for _, t := range st.Targets {
			if t != nil {
				out = append(out, exprCalls(t)...)
			}
		}
		return out
	case ast.TryCatch:
		out := exprCalls(st.Call)
		out = append(out, stmtCalls(st.Ok)...)
		for _, c := range st.Clauses {
			out = append(out, stmtCalls(c.Body)...)
		}
		return out
	case ast.Underscore, ast.Continue, ast.Break:
		return nil
	}
	return nil
}

func exprCalls(e ast.Expr) []int {
	if e == nil {
		return nil
	}
	var out []int
	switch ex := e.(type) {
	case ast.Call:
		if !ex.External {
			out = append(out, ex.FuncNo)
		} else {
			out = append(out, exprCalls(ex.Address)...)
		}
		for _, a := range ex.Args {
			out = append(out, exprCalls(a)...)
		}
	case ast.Binary:
		out = append(out, exprCalls(ex.Left)...)
		out = append(out, exprCalls(ex.Right)...)
	case ast.Unary:
		out = append(out, exprCalls(ex.Expr)...)
	case ast.Cast:
		out = append(out, exprCalls(ex.Expr)...)
	case ast.Index:
		out = append(out, exprCalls(ex.Base)...)
		out = append(out, exprCalls(ex.Index)...)
	case ast.Member:
		out = append(out, exprCalls(ex.Base)...)
	case ast.Keccak256:
		for _, a := range ex.Args {
			out = append(out, exprCalls(a)...)
		}
	case ast.Builtin:
		for _, a := range ex.Args {
			out = append(out, exprCalls(a)...)
		}
	}
	return out
}
