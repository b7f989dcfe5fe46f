package namespace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ast"
)

func TestNewPopulatesWidthsAndBuildID(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	require.Equal(t, 160, ns.AddressBits())
	require.Equal(t, 256, ns.ValueBits())
	require.NotEmpty(t, ns.BuildID.String())
}

func TestTargetStringNamesEveryTarget(t *testing.T) {
	require.Equal(t, "evm", TargetEVM.String())
	require.Equal(t, "account-model", TargetAccountModel.String())
	require.Equal(t, "wasm", TargetWASM.String())
	require.Equal(t, "unknown", Target(99).String())
}

func TestHoverAtMissesBeforeAnyRecord(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	_, ok := ns.HoverAt(Loc{File: "a.kanso", Line: 1})
	require.False(t, ok)
}

func TestRecordHoverOverwritesPriorAnnotationAtSameLocation(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	loc := Loc{File: "a.kanso", Line: 3}

	ns.RecordHover(loc, "uint256 multiply optimized to shift left 3")
	ns.RecordHover(loc, "uint256 multiply optimized to shift left 4")

	got, ok := ns.HoverAt(loc)
	require.True(t, ok)
	require.Equal(t, "uint256 multiply optimized to shift left 4", got)
}

func TestHoverOverridesReturnsIndependentSnapshot(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	loc := Loc{File: "a.kanso", Line: 3}
	ns.RecordHover(loc, "first")

	snap := ns.HoverOverrides()
	require.Len(t, snap, 1)

	ns.RecordHover(loc, "second")
	require.Equal(t, "first", snap[loc], "snapshot must not observe later writes")

	got, _ := ns.HoverAt(loc)
	require.Equal(t, "second", got)
}

func TestRecordHoverIsSafeForConcurrentWriters(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns.RecordHover(Loc{Line: i}, "hover")
		}(i)
	}
	wg.Wait()
	require.Len(t, ns.HoverOverrides(), 50)
}

func TestSetReachableUpdatesMatchingContract(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	ns.Contracts = []*Contract{{Name: "Token", ID: 1}}

	err := ns.SetReachable(1, []int{0, 1, 2}, []int{0})
	require.NoError(t, err)

	c := ns.ContractByID(1)
	require.Equal(t, []int{0, 1, 2}, c.AllFunctions)
	require.Equal(t, []int{0}, c.EmitsEvents)
}

func TestSetReachableErrorsOnUnknownContract(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	err := ns.SetReachable(7, nil, nil)
	require.Error(t, err)
}

func TestFunctionByNoLooksUpByFuncNoNotSliceIndex(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	ns.Functions = []*ast.Function{
		{Name: "a", FuncNo: 5},
		{Name: "b", FuncNo: 1},
	}

	f := ns.FunctionByNo(1)
	require.NotNil(t, f)
	require.Equal(t, "b", f.Name)

	require.Nil(t, ns.FunctionByNo(99))
}

func TestContractByIDMissReturnsNil(t *testing.T) {
	ns := New(TargetEVM, 160, 256)
	require.Nil(t, ns.ContractByID(1))
}
