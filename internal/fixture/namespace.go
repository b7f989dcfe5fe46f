package fixture

import (
	"encoding/json"
	"fmt"
	"io"

	"cfgmid/internal/ast"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
)

type paramJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type modifierCallJSON struct {
	FuncNo int               `json:"func_no"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

type functionJSON struct {
	FuncNo        int                `json:"func_no"`
	Name          string             `json:"name"`
	ContractNo    int                `json:"contract_no"`
	Params        []paramJSON        `json:"params,omitempty"`
	Returns       []string           `json:"returns,omitempty"`
	Body          json.RawMessage    `json:"body,omitempty"`
	Modifiers     []modifierCallJSON `json:"modifiers,omitempty"`
	Public        bool               `json:"public,omitempty"`
	External      bool               `json:"external,omitempty"`
	Nonpayable    bool               `json:"nonpayable,omitempty"`
	IsConstructor bool               `json:"is_constructor,omitempty"`
	EmitsEvents   []int              `json:"emits_events,omitempty"`
}

type eventJSON struct {
	Name    string      `json:"name"`
	Fields  []paramJSON `json:"fields,omitempty"`
	Indexed []bool      `json:"indexed,omitempty"`
}

type contractJSON struct {
	Name            string `json:"name"`
	ID              int    `json:"id"`
	FixedLayoutSize uint64 `json:"fixed_layout_size,omitempty"`
	ProgramID       string `json:"program_id,omitempty"`
	EntryPoints     []int  `json:"entry_points"`
}

// Document is the top-level shape of a fixture file: a whole compile's
// namespace in one JSON value.
type Document struct {
	Target      string         `json:"target"`
	AddressBits int            `json:"address_bits,omitempty"`
	ValueBits   int            `json:"value_bits,omitempty"`
	Events      []eventJSON    `json:"events,omitempty"`
	Functions   []functionJSON `json:"functions"`
	Contracts   []contractJSON `json:"contracts"`
}

var targetNames = map[string]namespace.Target{
	"evm":           namespace.TargetEVM,
	"account-model": namespace.TargetAccountModel,
	"wasm":          namespace.TargetWASM,
}

// Load decodes r into a populated Namespace, overriding the document's
// target/width fields with addressBits/valueBits when they are nonzero
// (cmd/cfgc's -target flag wins over the fixture's own default).
func Load(r io.Reader, targetOverride string, addressBits, valueBits int) (*namespace.Namespace, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("fixture: decoding document: %w", err)
	}

	targetName := doc.Target
	if targetOverride != "" {
		targetName = targetOverride
	}
	target, ok := targetNames[targetName]
	if !ok {
		return nil, fmt.Errorf("fixture: unknown target %q", targetName)
	}
	if addressBits == 0 {
		addressBits = doc.AddressBits
	}
	if valueBits == 0 {
		valueBits = doc.ValueBits
	}

	ns := namespace.New(target, addressBits, valueBits)

	for _, ev := range doc.Events {
		fields, indexed, err := decodeParams(ev.Fields, ev.Indexed)
		if err != nil {
			return nil, err
		}
		ns.Events = append(ns.Events, &namespace.EventType{Name: ev.Name, Fields: fields, Indexed: indexed})
	}

	for _, fn := range doc.Functions {
		f, err := decodeFunction(fn)
		if err != nil {
			return nil, fmt.Errorf("fixture: function %q: %w", fn.Name, err)
		}
		ns.Functions = append(ns.Functions, f)
	}

	for _, c := range doc.Contracts {
		ns.Contracts = append(ns.Contracts, &namespace.Contract{
			Name:            c.Name,
			ID:              c.ID,
			FixedLayoutSize: c.FixedLayoutSize,
			ProgramID:       c.ProgramID,
			EntryPoints:     c.EntryPoints,
		})
	}

	return ns, nil
}

func decodeParams(ps []paramJSON, indexed []bool) ([]ast.Parameter, []bool, error) {
	out := make([]ast.Parameter, len(ps))
	for i, p := range ps {
		ty, err := parseType(p.Type)
		if err != nil {
			return nil, nil, err
		}
		out[i] = ast.Parameter{Name: p.Name, Ty: ty}
	}
	return out, indexed, nil
}

func decodeFunction(fn functionJSON) (*ast.Function, error) {
	params, _, err := decodeParams(fn.Params, nil)
	if err != nil {
		return nil, err
	}

	returns := make([]irtype.Type, len(fn.Returns))
	for i, r := range fn.Returns {
		ty, err := parseType(r)
		if err != nil {
			return nil, err
		}
		returns[i] = ty
	}

	body, err := decodeStmt(fn.Body)
	if err != nil {
		return nil, err
	}

	modifiers := make([]ast.ModifierCall, len(fn.Modifiers))
	for i, m := range fn.Modifiers {
		args := make([]ast.Expr, len(m.Args))
		for j, a := range m.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			args[j] = arg
		}
		modifiers[i] = ast.ModifierCall{ModifierFuncNo: m.FuncNo, Args: args}
	}

	return &ast.Function{
		Name:          fn.Name,
		FuncNo:        fn.FuncNo,
		ContractNo:    fn.ContractNo,
		Params:        params,
		Returns:       returns,
		Body:          body,
		Modifiers:     modifiers,
		Public:        fn.Public,
		External:      fn.External,
		Nonpayable:    fn.Nonpayable,
		IsConstructor: fn.IsConstructor,
		EmitsEvents:   fn.EmitsEvents,
	}, nil
}
