package availexpr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
)

func u256Var(id int) ir.Variable {
	return ir.Variable{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, ID: id}
}

func numLit(v int64) ir.NumberLiteral {
	return ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Value: v}
}

func TestGenReturnsSameNodeForRepeatedExpression(t *testing.T) {
	s := NewSet(nil)
	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}

	id1, ok := s.Gen(add)
	require.True(t, ok)
	id2, ok := s.Gen(add)
	require.True(t, ok)
	require.Equal(t, id1, id2)
	require.Equal(t, 3, s.Len()) // var(1), var(2), add
}

func TestGenTreatsCommutativeOperandOrderAsSameKey(t *testing.T) {
	s := NewSet(nil)
	ab := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	ba := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(2), Right: u256Var(1)}

	id1, ok := s.Gen(ab)
	require.True(t, ok)
	id2, ok := s.Gen(ba)
	require.True(t, ok)
	require.Equal(t, id1, id2)
}

func TestGenKeepsNonCommutativeOperandOrderDistinct(t *testing.T) {
	s := NewSet(nil)
	ab := ir.Sub{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	ba := ir.Sub{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(2), Right: u256Var(1)}

	id1, ok := s.Gen(ab)
	require.True(t, ok)
	id2, ok := s.Gen(ba)
	require.True(t, ok)
	require.NotEqual(t, id1, id2)
}

func TestGenRefusesStorageLoadsAndCalls(t *testing.T) {
	s := NewSet(nil)
	_, ok := s.Gen(ir.StorageLoad{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Slot: numLit(0)})
	require.False(t, ok)
}

func TestFindWithoutPriorGenMisses(t *testing.T) {
	s := NewSet(nil)
	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}

	_, ok := s.Find(add)
	require.False(t, ok)

	genID, ok := s.Gen(add)
	require.True(t, ok)
	foundID, ok := s.Find(add)
	require.True(t, ok)
	require.Equal(t, genID, foundID)
}

func TestKillRemovesDerivedExpressionsTransitively(t *testing.T) {
	s := NewSet(nil)
	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	_, ok := s.Gen(add)
	require.True(t, ok)

	mul := ir.Mul{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}},
		Left: ir.Variable{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, ID: 1}, Right: u256Var(3)}
	_, ok = s.Gen(mul)
	require.True(t, ok)

	require.True(t, s.References(1))
	s.Kill(1)
	require.False(t, s.References(1))
	require.True(t, s.References(2))

	_, stillThere := s.Find(add)
	require.False(t, stillThere)
	_, mulStillThere := s.Find(mul)
	require.False(t, mulStillThere)
}

func TestKillOnUntrackedVariableIsNoop(t *testing.T) {
	s := NewSet(nil)
	before := s.Len()
	s.Kill(42)
	require.Equal(t, before, s.Len())
}

func TestIntersectKeepsOnlySharedKeys(t *testing.T) {
	left := NewSet(nil)
	right := NewSet(nil)

	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	_, ok := left.Gen(add)
	require.True(t, ok)
	_, ok = right.Gen(add)
	require.True(t, ok)

	sub := ir.Sub{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(3)}
	_, ok = left.Gen(sub)
	require.True(t, ok)

	left.Intersect(right)

	_, addStillThere := left.Find(add)
	require.True(t, addStillThere)
	_, subStillThere := left.Find(sub)
	require.False(t, subStillThere)
}

func TestIntersectDropsVariableWithDivergingID(t *testing.T) {
	left := NewSet(nil)
	right := NewSet(nil)

	_, ok := left.Gen(u256Var(1))
	require.True(t, ok)
	_, ok = right.Gen(u256Var(99)) // takes right's first id
	require.True(t, ok)
	// var(1) now gets a different id on the right than on the left.
	_, ok = right.Gen(u256Var(1))
	require.True(t, ok)

	left.Intersect(right)
	require.False(t, left.References(1))
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	orig := NewSet(nil)
	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	_, ok := orig.Gen(add)
	require.True(t, ok)

	clone := orig.Clone()
	clone.Kill(1)

	_, origStillHasIt := orig.Find(add)
	require.True(t, origStillHasIt)
	_, cloneStillHasIt := clone.Find(add)
	require.False(t, cloneStillHasIt)
}

func TestCloneSharesNodeIDCounterWithOriginal(t *testing.T) {
	orig := NewSet(nil)
	id1, ok := orig.Gen(u256Var(1))
	require.True(t, ok)

	clone := orig.Clone()
	id2, ok := clone.Gen(u256Var(2))
	require.True(t, ok)

	require.NotEqual(t, id1, id2)
}

func TestEqualComparesStructuralKeysNotNodeIDs(t *testing.T) {
	left := NewSet(nil)
	right := NewSet(nil)

	leftID, ok := left.Gen(u256Var(1))
	require.True(t, ok)
	_, ok = right.Gen(u256Var(7))
	require.True(t, ok)
	require.False(t, left.Equal(right))

	// A separate counter on right2 assigns a different raw id to the same
	// structural key; Equal must not care.
	start := NodeID(5)
	right2 := NewSet(&start)
	right2ID, ok := right2.Gen(u256Var(1))
	require.True(t, ok)
	require.NotEqual(t, leftID, right2ID)
	require.True(t, left.Equal(right2))
}

func TestVariableHoldersPicksLowestVarNo(t *testing.T) {
	s := NewSet(nil)
	add := ir.Add{ExprBase: ir.ExprBase{Ty: irtype.Uint{Bits: 256}}, Left: u256Var(1), Right: u256Var(2)}
	addID, ok := s.Gen(add)
	require.True(t, ok)

	// t5 and t3 both currently hold the same available add-expression value.
	s.exprMap[exprKey{kind: 'v', varNo: 3}] = addID
	s.exprMap[exprKey{kind: 'v', varNo: 5}] = addID

	holders := s.VariableHolders()
	require.Equal(t, 3, holders[addID])
}

func TestGenCollapsesRepeatedConstant(t *testing.T) {
	s := NewSet(nil)
	id1, ok := s.Gen(numLit(7))
	require.True(t, ok)
	id2, ok := s.Gen(numLit(7))
	require.True(t, ok)
	require.Equal(t, id1, id2)

	id3, ok := s.Gen(numLit(8))
	require.True(t, ok)
	require.NotEqual(t, id1, id3)
}
