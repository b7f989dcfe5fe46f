// Package selector computes the wire-dispatch discriminator stamped onto
// ir.CFG.Selector (spec §6 "Selector computation"): a 4-byte keccak256
// digest prefix for EVM-like targets, or an 8-byte sha256 digest prefix
// for account-model targets. Event selectors follow the same split.
package selector

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/crypto/sha3"

	"cfgmid/internal/ast"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
)

// Function computes fn's dispatch selector under ns.Target.
func Function(fn *ast.Function, ns *namespace.Namespace) []byte {
	switch ns.Target {
	case namespace.TargetAccountModel:
		return accountModelHash("global:" + strcase.ToSnake(fn.Name))
	default: // TargetEVM, TargetWASM: EVM-like 4-byte keccak selector
		return evmSelector(signature(fn.Name, fn.Params))
	}
}

// Event computes ev's dispatch selector under ns.Target. EVM-like targets
// use the full 32-byte topic0, not a 4-byte prefix — events aren't
// dispatched through the same 4-byte jump table functions are, so nothing
// truncates the hash down to a selector-sized value.
func Event(ev *namespace.EventType, ns *namespace.Namespace) []byte {
	switch ns.Target {
	case namespace.TargetAccountModel:
		return accountModelHash("event:" + ev.Name)
	default:
		h := sha3.NewLegacyKeccak256()
		h.Write([]byte(eventSignature(ev)))
		return h.Sum(nil)
	}
}

// Assign computes and stores fn's selector on cfg.
func Assign(cfg *ir.CFG, fn *ast.Function, ns *namespace.Namespace) {
	cfg.Selector = Function(fn, ns)
}

func accountModelHash(preimage string) []byte {
	sum := sha256.Sum256([]byte(preimage))
	return sum[:8]
}

func evmSelector(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)[:4]
}

// signature builds a function's canonical ABI signature string:
// `name(type1,type2,...)`.
func signature(name string, params []ast.Parameter) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = abiName(p.Ty)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func eventSignature(ev *namespace.EventType) string {
	types := make([]string, len(ev.Fields))
	for i, f := range ev.Fields {
		types[i] = abiName(f.Ty)
	}
	return ev.Name + "(" + strings.Join(types, ",") + ")"
}

// abiName canonicalizes t to the type name its ABI signature uses. Enums
// and contracts have no ABI representation of their own: enums encode as
// their underlying integer width, contracts as the address that holds
// them.
func abiName(t irtype.Type) string {
	switch v := t.(type) {
	case irtype.Enum:
		return "uint8"
	case irtype.Contract:
		return "address"
	case irtype.Address:
		return "address"
	case irtype.Array:
		elem := abiName(v.Elem)
		for _, dim := range v.Dims {
			if dim.Fixed {
				elem += fmt.Sprintf("[%d]", dim.Size)
			} else {
				elem += "[]"
			}
		}
		return elem
	case irtype.Ref:
		return abiName(v.Elem)
	case irtype.StorageRef:
		return abiName(v.Elem)
	case irtype.Slice:
		return abiName(v.Elem) + "[]"
	default:
		return t.String()
	}
}
