package lirtext

import "github.com/alecthomas/participle/v2"

var (
	operandParser = participle.MustBuild[Operand](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
	opExprParser = participle.MustBuild[OpExpr](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
)

// ParseOperand parses a bare printed operand ("%3", "5", "true").
func ParseOperand(s string) (*Operand, error) {
	return operandParser.ParseString("", s)
}

// ParseOpExpr parses a printed operator expression ("add %1, %2", "not %3").
func ParseOpExpr(s string) (*OpExpr, error) {
	return opExprParser.ParseString("", s)
}

// ParseValue parses whatever PrintExpr produced: an operator expression if
// s has one, otherwise a bare operand. Exactly one return value is
// non-nil on success.
func ParseValue(s string) (op *OpExpr, operand *Operand, err error) {
	if op, opErr := ParseOpExpr(s); opErr == nil {
		return op, nil, nil
	}
	operand, err = ParseOperand(s)
	return nil, operand, err
}
