// Package fixture decodes the tiny JSON format cmd/cfgc reads in place of a
// real parser/semantic-analysis front end (spec.md §1 scopes those out).
// It is deliberately narrow: enough expression/statement/type vocabulary to
// describe the example contracts this module ships and exercise the full
// pipeline end to end, not a general AST serializer. Anything the JSON
// vocabulary can't express (destructuring assignment, try/catch, bytes
// literals, keccak/builtin calls) is out of scope for the fixture format —
// a real frontend would build ast.Function values directly and never go
// through this package at all.
package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"cfgmid/internal/irtype"
)

// parseType accepts "bool", "address", "uintN", "intN", "bytesN", "bytes",
// or "string".
func parseType(s string) (irtype.Type, error) {
	switch {
	case s == "bool":
		return irtype.Bool{}, nil
	case s == "address":
		return irtype.Address{}, nil
	case s == "address payable":
		return irtype.Address{Payable: true}, nil
	case s == "bytes":
		return irtype.DynamicBytes{}, nil
	case s == "string":
		return irtype.String{}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := strconv.Atoi(strings.TrimPrefix(s, "uint"))
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid uint width %q: %w", s, err)
		}
		return irtype.Uint{Bits: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := strconv.Atoi(strings.TrimPrefix(s, "int"))
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid int width %q: %w", s, err)
		}
		return irtype.Int{Bits: bits}, nil
	case strings.HasPrefix(s, "bytes"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "bytes"))
		if err != nil {
			return nil, fmt.Errorf("fixture: invalid bytesN width %q: %w", s, err)
		}
		return irtype.Bytes{N: n}, nil
	default:
		return nil, fmt.Errorf("fixture: unrecognized type %q", s)
	}
}
