// Package lirtext prints a lowered CFG (spec §4.7's post-internal/lir
// three-address form) as a small human-readable debug text, and parses
// that text's individual operand/expression lines back — a round-trip
// used only to check the printer emits what it claims to, not a surface
// language. Grounded on grammar/lexer.go's stateful lexer.
package lirtext

import "github.com/alecthomas/participle/v2/lexer"

// Lexer tokenizes one printed operand or operator-expression line. True
// and False are their own token kinds (ahead of the generic Ident rule)
// so the Operand grammar's boolean alternative doesn't have to
// disambiguate against opcode mnemonics lexed as identifiers.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"True", `true`, nil},
		{"False", `false`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Punct", `[%,]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
