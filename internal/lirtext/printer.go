package lirtext

import (
	"fmt"
	"strconv"
	"strings"

	"cfgmid/internal/ir"
)

// Print renders cfg's blocks and instructions as debug text. Only
// meaningful to call after internal/lir.Lower: earlier expression trees
// may be deeper than PrintExpr's one-operator-deep grammar can represent,
// and print as the generic Children dump instead of round-trippable text.
func Print(cfg *ir.CFG) string {
	var sb strings.Builder
	for i, block := range cfg.Blocks {
		fmt.Fprintf(&sb, "block%d:\n", i)
		for _, instr := range block.Instr {
			sb.WriteString("  " + PrintInstr(instr) + "\n")
		}
	}
	return sb.String()
}

func PrintInstr(instr ir.Instr) string {
	switch in := instr.(type) {
	case ir.Set:
		return fmt.Sprintf("%%%d = %s", in.Res, PrintExpr(in.Expr))
	case ir.Branch:
		return fmt.Sprintf("branch block%d", in.Block)
	case ir.BranchCond:
		return fmt.Sprintf("br %s, block%d, block%d", PrintExpr(in.Cond), in.TrueBlock, in.FalseBlock)
	case ir.Switch:
		cases := make([]string, len(in.Cases))
		for i, c := range in.Cases {
			cases[i] = fmt.Sprintf("%s: block%d", PrintExpr(c.Value), c.Block)
		}
		return fmt.Sprintf("switch %s {%s} default block%d", PrintExpr(in.Cond), strings.Join(cases, ", "), in.Default)
	case ir.Return:
		vals := make([]string, len(in.Values))
		for i, v := range in.Values {
			vals[i] = PrintExpr(v)
		}
		return "return " + strings.Join(vals, ", ")
	case ir.AssertFailure:
		if in.EncodedArgs == nil {
			return "assert-failure"
		}
		return "assert-failure " + PrintExpr(in.EncodedArgs)
	case ir.Phi:
		parts := make([]string, len(in.Inputs))
		for i, inp := range in.Inputs {
			parts[i] = fmt.Sprintf("%s:block%d", PrintExpr(inp.Operand), inp.PredBlock)
		}
		return fmt.Sprintf("%%%d = phi [%s]", in.Res, strings.Join(parts, ", "))
	case ir.Unreachable:
		return "unreachable"
	case ir.ReturnCode:
		return "return-code " + in.Code
	case ir.Nop:
		return "nop"
	default:
		return fmt.Sprintf("<%T>", instr)
	}
}

// PrintExpr renders e as either a bare operand or "op operand[, operand]"
// — the grammar OpExpr/Operand parse back.
func PrintExpr(e ir.Expression) string {
	if e == nil {
		return "<nil>"
	}
	if s, ok := printOperand(e); ok {
		return s
	}
	name, ok := opcodeName(e)
	if !ok {
		return fmt.Sprintf("<%T>", e)
	}
	children := ir.Children(e)
	parts := make([]string, len(children))
	for i, c := range children {
		s, ok := printOperand(c)
		if !ok {
			// A not-yet-lowered operand: fall back to a recursive dump
			// rather than crash — only valid LIR round-trips cleanly.
			s = PrintExpr(c)
		}
		parts[i] = s
	}
	return name + " " + strings.Join(parts, ", ")
}

func printOperand(e ir.Expression) (string, bool) {
	switch v := e.(type) {
	case ir.Variable:
		return "%" + strconv.Itoa(v.ID), true
	case ir.NumberLiteral:
		return strconv.FormatInt(v.Value, 10), true
	case ir.BoolLiteral:
		if v.Value {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// opcodeName maps the arithmetic/comparison/bitwise/cast expression
// variants to the mnemonic Print uses; anything else (calls, loads,
// struct member access, ...) has no one-operator debug form.
func opcodeName(e ir.Expression) (string, bool) {
	switch e.(type) {
	case ir.Add:
		return "add", true
	case ir.Sub:
		return "sub", true
	case ir.Mul:
		return "mul", true
	case ir.Divide:
		return "div", true
	case ir.Modulo:
		return "mod", true
	case ir.Power:
		return "pow", true
	case ir.BitwiseAnd:
		return "and", true
	case ir.BitwiseOr:
		return "or", true
	case ir.BitwiseXor:
		return "xor", true
	case ir.Complement:
		return "not", true
	case ir.ShiftLeft:
		return "shl", true
	case ir.ShiftRight:
		return "shr", true
	case ir.ZeroExt:
		return "zext", true
	case ir.SignExt:
		return "sext", true
	case ir.Trunc:
		return "trunc", true
	case ir.Equal:
		return "eq", true
	case ir.NotEqual:
		return "ne", true
	case ir.More:
		return "gt", true
	case ir.Less:
		return "lt", true
	case ir.MoreEqual:
		return "ge", true
	case ir.LessEqual:
		return "le", true
	case ir.Not:
		return "lnot", true
	case ir.And:
		return "land", true
	case ir.Or:
		return "lor", true
	default:
		return "", false
	}
}
