package fixture

import (
	"encoding/json"
	"fmt"

	"cfgmid/internal/ast"
	"cfgmid/internal/irtype"
)

// exprJSON is the on-the-wire shape of one expression node; which fields
// are meaningful is determined by Kind.
type exprJSON struct {
	Kind string          `json:"kind"`
	Type string          `json:"type"`

	// number / bool literals
	Number *int64 `json:"value,omitempty"`
	Bool   *bool  `json:"bool_value,omitempty"`

	// ident
	Name string `json:"name,omitempty"`

	// binary
	Op          string          `json:"op,omitempty"`
	Left        json.RawMessage `json:"left,omitempty"`
	Right       json.RawMessage `json:"right,omitempty"`
	Overflowing bool            `json:"overflowing,omitempty"`
	Signed      bool            `json:"signed,omitempty"`

	// unary / cast
	Expr json.RawMessage `json:"expr,omitempty"`

	// call
	FuncNo   int               `json:"func_no,omitempty"`
	External bool              `json:"external,omitempty"`
	Address  json.RawMessage   `json:"address,omitempty"`
	Args     []json.RawMessage `json:"args,omitempty"`
}

var binaryOps = map[string]ast.BinaryOp{
	"add": ast.OpAdd, "sub": ast.OpSub, "mul": ast.OpMul, "div": ast.OpDiv,
	"mod": ast.OpMod, "pow": ast.OpPow, "and": ast.OpBitAnd, "or": ast.OpBitOr,
	"xor": ast.OpBitXor, "shl": ast.OpShl, "shr": ast.OpShr, "eq": ast.OpEq,
	"ne": ast.OpNotEq, "gt": ast.OpMore, "lt": ast.OpLess, "ge": ast.OpMoreEq,
	"le": ast.OpLessEq, "land": ast.OpLogAnd, "lor": ast.OpLogOr,
	"strcat": ast.OpStringConcat, "strcmp": ast.OpStringCompare,
}

var unaryOps = map[string]ast.UnaryOp{
	"not": ast.OpNot, "complement": ast.OpComplement, "neg": ast.OpNeg,
}

func decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var e exprJSON
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("fixture: decoding expression: %w", err)
	}

	t, err := resolveExprType(e.Type)
	if err != nil {
		return nil, err
	}
	base := ast.ExprBase{Ty: t}

	switch e.Kind {
	case "number":
		if e.Number == nil {
			return nil, fmt.Errorf("fixture: number literal missing value")
		}
		return ast.NumberLiteral{ExprBase: base, Value: *e.Number}, nil
	case "bool":
		if e.Bool == nil {
			return nil, fmt.Errorf("fixture: bool literal missing bool_value")
		}
		return ast.BoolLiteral{ExprBase: base, Value: *e.Bool}, nil
	case "ident":
		return ast.Ident{ExprBase: base, Name: e.Name}, nil
	case "binary":
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown binary op %q", e.Op)
		}
		left, err := decodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return ast.Binary{ExprBase: base, Op: op, Left: left, Right: right, Overflowing: e.Overflowing, Signed: e.Signed}, nil
	case "unary":
		op, ok := unaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown unary op %q", e.Op)
		}
		inner, err := decodeExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return ast.Unary{ExprBase: base, Op: op, Expr: inner}, nil
	case "call":
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		var addr ast.Expr
		if e.External {
			addr, err = decodeExpr(e.Address)
			if err != nil {
				return nil, err
			}
		}
		return ast.Call{ExprBase: base, FuncNo: e.FuncNo, External: e.External, Address: addr, Args: args}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown expression kind %q", e.Kind)
	}
}

func resolveExprType(s string) (irtype.Type, error) {
	if s == "" {
		return nil, nil
	}
	return parseType(s)
}
