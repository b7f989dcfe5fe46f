package fixture

import (
	"encoding/json"
	"fmt"

	"cfgmid/internal/ast"
)

type stmtJSON struct {
	Kind string `json:"kind"`

	// let
	Name string          `json:"name,omitempty"`
	Type string          `json:"type,omitempty"`
	Init json.RawMessage `json:"init,omitempty"`

	// assign
	Target json.RawMessage `json:"target,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`

	// expr
	Expr json.RawMessage `json:"expr,omitempty"`

	// block
	Stmts []json.RawMessage `json:"stmts,omitempty"`

	// if
	Cond json.RawMessage `json:"cond,omitempty"`
	Then json.RawMessage `json:"then,omitempty"`
	Else json.RawMessage `json:"else,omitempty"`

	// loop
	LoopKind string          `json:"loop_kind,omitempty"`
	LoopInit json.RawMessage `json:"loop_init,omitempty"`
	LoopPost json.RawMessage `json:"loop_post,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`

	// return
	Values []json.RawMessage `json:"values,omitempty"`

	// emit
	Event int               `json:"event,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

var loopKinds = map[string]ast.LoopKind{
	"while":    ast.LoopWhile,
	"do-while": ast.LoopDoWhile,
	"for":      ast.LoopFor,
}

func decodeStmt(raw json.RawMessage) (ast.Statement, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s stmtJSON
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("fixture: decoding statement: %w", err)
	}

	switch s.Kind {
	case "let":
		ty, err := parseType(s.Type)
		if err != nil {
			return nil, err
		}
		init, err := decodeExpr(s.Init)
		if err != nil {
			return nil, err
		}
		return ast.VariableDecl{Name: s.Name, Ty: ty, Init: init}, nil
	case "assign":
		target, err := decodeExpr(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return ast.Assign{Target: target, Value: value}, nil
	case "expr":
		e, err := decodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return ast.ExprStmt{Expr: e}, nil
	case "block":
		stmts := make([]ast.Statement, 0, len(s.Stmts))
		for _, raw := range s.Stmts {
			st, err := decodeStmt(raw)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
		}
		return ast.Block{Stmts: stmts}, nil
	case "if":
		cond, err := decodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(s.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmt(s.Else)
		if err != nil {
			return nil, err
		}
		return ast.If{Cond: cond, Then: then, Else: els}, nil
	case "loop":
		kind, ok := loopKinds[s.LoopKind]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown loop kind %q", s.LoopKind)
		}
		init, err := decodeStmt(s.LoopInit)
		if err != nil {
			return nil, err
		}
		cond, err := decodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		post, err := decodeStmt(s.LoopPost)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return ast.Loop{Kind: kind, Init: init, Cond: cond, Post: post, Body: body}, nil
	case "return":
		values := make([]ast.Expr, len(s.Values))
		for i, v := range s.Values {
			val, err := decodeExpr(v)
			if err != nil {
				return nil, err
			}
			values[i] = val
		}
		return ast.Return{Values: values}, nil
	case "emit":
		args := make([]ast.Expr, len(s.Args))
		for i, a := range s.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return ast.Emit{Event: s.Event, Args: args}, nil
	case "underscore":
		return ast.Underscore{}, nil
	case "continue":
		return ast.Continue{}, nil
	case "break":
		return ast.Break{}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown statement kind %q", s.Kind)
	}
}
