package cfgbuild

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ast"
	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
)

func TestBuildLowersIfReturn(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	boolTy := irtype.Bool{}

	// function f(uint256 x) returns (uint256) {
	//   uint256 y = 0;
	//   if (x > 0) { y = x; } else { y = 1; }
	//   return y;
	// }
	fn := &ast.Function{
		Name: "f",
		Params: []ast.Parameter{
			{Name: "x", Ty: u256},
		},
		Returns: []irtype.Type{u256},
		Body: ast.Block{
			Stmts: []ast.Statement{
				ast.VariableDecl{
					Name: "y",
					Ty:   u256,
					Init: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0},
				},
				ast.If{
					Cond: ast.Binary{
						ExprBase: ast.ExprBase{Ty: boolTy},
						Op:       ast.OpMore,
						Left:     ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "x"},
						Right:    ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0},
					},
					Then: ast.Block{Stmts: []ast.Statement{
						ast.Assign{
							Target: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "y"},
							Value:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "x"},
						},
					}},
					Else: ast.Block{Stmts: []ast.Statement{
						ast.Assign{
							Target: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "y"},
							Value:  ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 1},
						},
					}},
				},
				ast.Return{Values: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "y"}}},
			},
		},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())

	// entry, if.then, if.else, if.end
	require.Len(t, cfg.Blocks, 4)
}

func TestBuildInlinesModifierChain(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}

	modifier := &ast.Function{
		Name:   "onlyPositive",
		FuncNo: 1,
		Params: []ast.Parameter{{Name: "n", Ty: u256}},
		Body:   ast.Block{Stmts: []ast.Statement{ast.Underscore{}}},
	}

	fn := &ast.Function{
		Name:   "f",
		FuncNo: 0,
		Params: []ast.Parameter{{Name: "x", Ty: u256}},
		Modifiers: []ast.ModifierCall{
			{ModifierFuncNo: 1, Args: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "x"}}},
		},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.Return{Values: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "x"}}},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn, modifier}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())
}

func TestBuildLowersForLoopWithBreakAndContinue(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	boolTy := irtype.Bool{}

	// function f(uint256 n) returns (uint256) {
	//   uint256 total = 0;
	//   for (uint256 i = 0; i < n; i = i + 1) {
	//     if (i == 0) { continue; }
	//     if (i == n) { break; }
	//     total = total + i;
	//   }
	//   return total;
	// }
	fn := &ast.Function{
		Name:    "f",
		Params:  []ast.Parameter{{Name: "n", Ty: u256}},
		Returns: []irtype.Type{u256},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.VariableDecl{Name: "total", Ty: u256, Init: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}},
			ast.Loop{
				Kind: ast.LoopFor,
				Init: ast.VariableDecl{Name: "i", Ty: u256, Init: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}},
				Cond: ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpLess,
					Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"},
					Right: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "n"}},
				Post: ast.Assign{
					Target: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"},
					Value: ast.Binary{ExprBase: ast.ExprBase{Ty: u256}, Op: ast.OpAdd,
						Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"},
						Right: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 1}},
				},
				Body: ast.Block{Stmts: []ast.Statement{
					ast.If{
						Cond: ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpEq,
							Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"},
							Right: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}},
						Then: ast.Block{Stmts: []ast.Statement{ast.Continue{}}},
					},
					ast.If{
						Cond: ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpEq,
							Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"},
							Right: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "n"}},
						Then: ast.Block{Stmts: []ast.Statement{ast.Break{}}},
					},
					ast.Assign{
						Target: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "total"},
						Value: ast.Binary{ExprBase: ast.ExprBase{Ty: u256}, Op: ast.OpAdd,
							Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "total"},
							Right: ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "i"}},
					},
				}},
			},
			ast.Return{Values: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "total"}}},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())
}

func TestBuildLowersShortCircuitLogicalAnd(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	boolTy := irtype.Bool{}

	// function f(uint256 x, uint256 y) returns (bool) {
	//   return x > 0 && y > 0;
	// }
	fn := &ast.Function{
		Name:    "f",
		Params:  []ast.Parameter{{Name: "x", Ty: u256}, {Name: "y", Ty: u256}},
		Returns: []irtype.Type{boolTy},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.Return{Values: []ast.Expr{
				ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpLogAnd,
					Left: ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpMore,
						Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "x"},
						Right: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}},
					Right: ast.Binary{ExprBase: ast.ExprBase{Ty: boolTy}, Op: ast.OpMore,
						Left:  ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "y"},
						Right: ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}},
				},
			}},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())

	var sawShortCircuitBlock bool
	for _, blk := range cfg.Blocks {
		if blk.Name == "shortcircuit.join" {
			sawShortCircuitBlock = true
		}
	}
	require.True(t, sawShortCircuitBlock, "expected a short-circuit join block for &&")
}

func TestBuildLowersDestructureFromCall(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}

	callee := &ast.Function{
		Name:    "pair",
		FuncNo:  1,
		Returns: []irtype.Type{u256, u256},
		Body:    ast.Block{Stmts: []ast.Statement{ast.Return{Values: []ast.Expr{ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 1}, ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 2}}}}},
	}

	// function f() returns (uint256) {
	//   (uint256 a, uint256 b) = pair();
	//   return a;
	// }
	fn := &ast.Function{
		Name:    "f",
		FuncNo:  0,
		Returns: []irtype.Type{u256},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.Destructure{
				Targets: []ast.Expr{
					ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "a"},
					ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "b"},
				},
				Decls:   []bool{true, true},
				DeclTys: []irtype.Type{u256, u256},
				Value:   ast.Call{ExprBase: ast.ExprBase{Ty: u256}, FuncNo: 1},
			},
			ast.Return{Values: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "a"}}},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn, callee}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())
}

func TestBuildLowersEmitSplitsIndexedTopicsFromData(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}

	// event Transfer(uint256 indexed id, uint256 amount);
	// function f() { emit Transfer(1, 2); }
	fn := &ast.Function{
		Name:   "f",
		FuncNo: 0,
		Body: ast.Block{Stmts: []ast.Statement{
			ast.Emit{
				Event: 0,
				Args: []ast.Expr{
					ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 1},
					ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 2},
				},
			},
			ast.Return{},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn}
	ns.Events = []*namespace.EventType{{Name: "Transfer", Indexed: []bool{true, false}}}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())

	var emit ir.EmitEvent
	found := false
	for _, instr := range cfg.Blocks[0].Instr {
		if e, ok := instr.(ir.EmitEvent); ok {
			emit, found = e, true
		}
	}
	require.True(t, found)
	require.Len(t, emit.Topics, 1)
	data, ok := emit.Data.(ir.StructLiteral)
	require.True(t, ok)
	require.Len(t, data.Fields, 1)
}

func TestBuildLowersTryCatchWithSelectorDispatch(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	addrTy := irtype.Address{}

	callee := &ast.Function{Name: "g", FuncNo: 1, External: true, Returns: []irtype.Type{u256}}

	// function f(address target) returns (uint256) {
	//   try g() returns (uint256 v) { return v; }
	//   catch Error(string memory) { return 0; }
	//   catch (bytes memory) { return 1; }
	// }
	fn := &ast.Function{
		Name:    "f",
		FuncNo:  0,
		Params:  []ast.Parameter{{Name: "target", Ty: addrTy}},
		Returns: []irtype.Type{u256},
		Body: ast.Block{Stmts: []ast.Statement{
			ast.TryCatch{
				Call: ast.Call{ExprBase: ast.ExprBase{Ty: u256}, FuncNo: 1, External: true,
					Address: ast.Ident{ExprBase: ast.ExprBase{Ty: addrTy}, Name: "target"}},
				ReturnVars: []string{"v"},
				ReturnTys:  []irtype.Type{u256},
				Ok:         ast.Return{Values: []ast.Expr{ast.Ident{ExprBase: ast.ExprBase{Ty: u256}, Name: "v"}}},
				Clauses: []ast.CatchClause{
					{Selector: 0x08c379a0, Body: ast.Return{Values: []ast.Expr{ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 0}}}},
					{Selector: 0, Body: ast.Return{Values: []ast.Expr{ast.NumberLiteral{ExprBase: ast.ExprBase{Ty: u256}, Value: 1}}}},
				},
			},
		}},
	}

	ns := namespace.New(namespace.TargetAccountModel, 32, 64)
	ns.Functions = []*ast.Function{fn, callee}

	cfg, err := Build(fn, ns)
	require.NoError(t, err)
	require.NoError(t, cfg.Check())

	var sawSwitch bool
	for _, blk := range cfg.Blocks {
		if term := blk.Terminator(); term != nil {
			if _, ok := term.(ir.Switch); ok {
				sawSwitch = true
			}
		}
	}
	require.True(t, sawSwitch, "expected catch-clause dispatch to lower to a Switch")
}
