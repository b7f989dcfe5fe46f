package lirtext

import "github.com/alecthomas/participle/v2/lexer"

// Operand is the printed form of one of lir's three leaf kinds (spec
// §4.7's Operand = Id(varno) | BoolLiteral | NumberLiteral).
type Operand struct {
	Pos     lexer.Position
	VarID   *int64 `(  "%" @Int`
	Number  *int64 `    | @Int`
	IsTrue  bool   `    | @True`
	IsFalse bool   `    | @False )`
}

// OpExpr is the printed form of a single operator applied directly to one
// or two Operands — everything a lowered Set's expression can be, short
// of a bare Operand.
type OpExpr struct {
	Pos   lexer.Position
	Op    string   `@Ident`
	Left  Operand  `@@`
	Right *Operand `("," @@)?`
}
