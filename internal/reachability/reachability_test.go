package reachability

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ast"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
)

// buildContract wires: external g() calls free function h(), h() calls
// library function k() and emits event 0; i() is never called from g and
// must not show up in the closure.
func buildContract(t *testing.T) *namespace.Namespace {
	t.Helper()
	u256 := irtype.Uint{Bits: 256}

	callK := ast.Call{ExprBase: ast.ExprBase{Ty: u256}, FuncNo: 2}
	k := &ast.Function{Name: "k", FuncNo: 2, ContractNo: 0,
		Body: ast.Block{Stmts: []ast.Statement{ast.Return{}}}}

	h := &ast.Function{Name: "h", FuncNo: 1, ContractNo: 0,
		EmitsEvents: []int{0},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.ExprStmt{Expr: callK},
			ast.Emit{Event: 0},
		}},
	}

	callH := ast.Call{ExprBase: ast.ExprBase{Ty: u256}, FuncNo: 1}
	g := &ast.Function{Name: "g", FuncNo: 0, ContractNo: 0, External: true,
		Body: ast.Block{Stmts: []ast.Statement{ast.ExprStmt{Expr: callH}}},
	}

	i := &ast.Function{Name: "i", FuncNo: 3, ContractNo: 0,
		Body: ast.Block{Stmts: []ast.Statement{ast.Return{}}}}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{g, h, k, i}
	ns.Events = []*namespace.EventType{{Name: "Sent"}}
	ns.Contracts = []*namespace.Contract{
		{Name: "C", ID: 0, EntryPoints: []int{0}},
	}
	return ns
}

func TestAnalyzeComputesTransitiveClosure(t *testing.T) {
	ns := buildContract(t)

	require.NoError(t, Analyze(ns))

	c := ns.ContractByID(0)
	require.NotNil(t, c)

	got := append([]int(nil), c.AllFunctions...)
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 2}, got)
	require.Equal(t, []int{0}, c.EmitsEvents)
}

func TestAnalyzeRejectsContractWithNoEntryPoints(t *testing.T) {
	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Contracts = []*namespace.Contract{{Name: "Empty", ID: 0}}

	err := Analyze(ns)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Empty")
}

func TestAnalyzeRejectsUndefinedFunction(t *testing.T) {
	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Contracts = []*namespace.Contract{{Name: "C", ID: 0, EntryPoints: []int{99}}}

	err := Analyze(ns)
	require.Error(t, err)
	require.Contains(t, err.Error(), "99")
}

func TestAnalyzeFollowsModifierChain(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}

	guard := &ast.Function{Name: "onlyOwner", FuncNo: 1, ContractNo: 0,
		Body: ast.Block{Stmts: []ast.Statement{ast.Underscore{}}}}

	fn := &ast.Function{Name: "f", FuncNo: 0, ContractNo: 0, External: true,
		Modifiers: []ast.ModifierCall{{ModifierFuncNo: 1}},
		Body:      ast.Block{Stmts: []ast.Statement{ast.Return{Values: []ast.Expr{ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}}}}}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn, guard}
	ns.Contracts = []*namespace.Contract{{Name: "C", ID: 0, EntryPoints: []int{0}}}

	require.NoError(t, Analyze(ns))

	c := ns.ContractByID(0)
	got := append([]int(nil), c.AllFunctions...)
	sort.Ints(got)
	require.Equal(t, []int{0, 1}, got)
}
