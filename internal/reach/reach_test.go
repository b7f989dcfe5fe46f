package reach

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/namespace"
)

func widths() irtype.Widths {
	return namespace.New(namespace.TargetEVM, 160, 256)
}

func num(ty irtype.Type, v int64) ir.Expression {
	return ir.NumberLiteral{ExprBase: ir.ExprBase{Ty: ty}, Value: v}
}

func vari(ty irtype.Type, id int) ir.Expression {
	return ir.Variable{ExprBase: ir.ExprBase{Ty: ty}, ID: id}
}

func TestKnownValueWrapsNegativeToCanonicalMagnitude(t *testing.T) {
	v := KnownValue(8, big.NewInt(-1))
	require.Equal(t, "255", v.Val.String())
	require.True(t, v.fullyKnown())
}

func TestEvaluateNumberLiteralIsFullyKnown(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	s := Evaluate(num(u8, 42), Variables{}, widths())
	c, ok := SingleConstant(s)
	require.True(t, ok)
	require.Equal(t, "42", c.String())
}

func TestEvaluateUnknownVariableCollapsesSet(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	s := Evaluate(vari(u256, 7), Variables{}, widths())
	require.True(t, s.IsUnknown())
	_, ok := SingleConstant(s)
	require.False(t, ok)
}

func TestEvaluateAddOfConstants(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	expr := ir.Add{ExprBase: ir.ExprBase{Ty: u8}, Left: num(u8, 10), Right: num(u8, 20)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "30", c.String())
}

func TestEvaluateAddWrapsModuloWidth(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	expr := ir.Add{ExprBase: ir.ExprBase{Ty: u8}, Left: num(u8, 250), Right: num(u8, 10)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "4", c.String())
}

func TestEvaluateMulOfConstants(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	expr := ir.Mul{ExprBase: ir.ExprBase{Ty: u256}, Overflowing: true, Left: num(u256, 7), Right: num(u256, 6)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "42", c.String())
}

func TestEvaluateMulOfVariableAndConstant(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	vars := Variables{5: Set{KnownValue(256, big.NewInt(200))}}
	expr := ir.Mul{ExprBase: ir.ExprBase{Ty: u256}, Overflowing: true, Left: vari(u256, 5), Right: num(u256, 3)}
	s := Evaluate(expr, vars, widths())
	max, ok := MaxUnsigned(s)
	require.True(t, ok)
	require.Equal(t, "600", max.String())
}

func TestMulValueBoundsPartiallyKnownOperand(t *testing.T) {
	// x & 0xff (so x's max is bounded to 255) times a known 10: the product
	// can't exceed 2550 even though x itself isn't a single constant.
	bounded := bitwiseAndValue(Unknown(256), KnownValue(256, big.NewInt(0xff)), 256)
	ten := KnownValue(256, big.NewInt(10))
	product := mulValue(bounded, ten, 256, false)
	require.False(t, product.fullyKnown())
	// 255*10 needs at most 12 bits; everything above that must be known zero.
	max := product.unsignedMax()
	require.LessOrEqual(t, max.BitLen(), 12)
}

func TestEvaluateBitwiseAndKnownZeroDominates(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	// x & 0x0f: high 4 bits are known zero regardless of x.
	vars := Variables{3: Set{Unknown(8)}}
	expr := ir.BitwiseAnd{ExprBase: ir.ExprBase{Ty: u8}, Left: vari(u8, 3), Right: num(u8, 0x0f)}
	s := Evaluate(expr, vars, widths())
	require.Len(t, s, 1)
	v := s[0]
	require.Equal(t, "240", v.knownZeros().String()) // high nibble known-zero mask bits 4..7 = 0xf0
	max, ok := MaxUnsigned(s)
	require.True(t, ok)
	require.Equal(t, "15", max.String())
}

func TestEvaluateBitwiseXorOfConstants(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	expr := ir.BitwiseXor{ExprBase: ir.ExprBase{Ty: u8}, Left: num(u8, 0b1010), Right: num(u8, 0b0110)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, big.NewInt(0b1100).String(), c.String())
}

func TestEvaluateBitwiseXorUnknownOperandLeavesResultUnknown(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	vars := Variables{1: Set{Unknown(8)}}
	expr := ir.BitwiseXor{ExprBase: ir.ExprBase{Ty: u8}, Left: vari(u8, 1), Right: num(u8, 0xff)}
	s := Evaluate(expr, vars, widths())
	_, ok := SingleConstant(s)
	require.False(t, ok)
}

func TestEvaluateShiftLeftByConstantKnownsLowZeroBits(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	vars := Variables{2: Set{Unknown(8)}}
	expr := ir.ShiftLeft{ExprBase: ir.ExprBase{Ty: u8}, Left: vari(u8, 2), Right: num(u8, 3)}
	s := Evaluate(expr, vars, widths())
	require.Len(t, s, 1)
	max, ok := MaxUnsigned(s)
	require.True(t, ok)
	// low 3 bits are known zero so the max possible value is 0xf8, not 0xff.
	require.Equal(t, "248", max.String())
}

func TestEvaluateShiftLeftConstantOperand(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	expr := ir.ShiftLeft{ExprBase: ir.ExprBase{Ty: u256}, Left: num(u256, 1), Right: num(u256, 8)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "256", c.String())
}

func TestEvaluateShiftRightLogicalByConstant(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	expr := ir.ShiftRight{ExprBase: ir.ExprBase{Ty: u8}, Left: num(u8, 0xf0), Right: num(u8, 4)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "15", c.String())
}

func TestEvaluateDivideExactConstants(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	expr := ir.Divide{ExprBase: ir.ExprBase{Ty: u256}, Signed: false, Left: num(u256, 100), Right: num(u256, 5)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "20", c.String())
}

func TestEvaluateDivideByUnknownIsUnknown(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	vars := Variables{9: Set{Unknown(256)}}
	expr := ir.Divide{ExprBase: ir.ExprBase{Ty: u256}, Signed: false, Left: num(u256, 100), Right: vari(u256, 9)}
	s := Evaluate(expr, vars, widths())
	require.True(t, s.IsUnknown())
}

func TestEvaluateModuloExactConstants(t *testing.T) {
	u256 := irtype.Uint{Bits: 256}
	expr := ir.Modulo{ExprBase: ir.ExprBase{Ty: u256}, Signed: false, Left: num(u256, 17), Right: num(u256, 5)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "2", c.String())
}

func TestEvaluateSignedDivideTruncatesTowardZero(t *testing.T) {
	i8 := irtype.Int{Bits: 8}
	// -7 / 2 == -3 truncated toward zero (not -4, the floored result).
	expr := ir.Divide{ExprBase: ir.ExprBase{Ty: i8}, Signed: true, Left: num(i8, -7), Right: num(i8, 2)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	// canonical magnitude of -3 at 8 bits is 253.
	require.Equal(t, "253", c.String())
}

func TestEvaluateMoreWithDisjointRangesIsKnown(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	vars := Variables{
		1: Set{KnownValue(8, big.NewInt(200))},
		2: Set{KnownValue(8, big.NewInt(10))},
	}
	expr := ir.More{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Left: vari(u8, 1), Right: vari(u8, 2)}
	c, ok := SingleConstant(Evaluate(expr, vars, widths()))
	require.True(t, ok)
	require.Equal(t, "1", c.String())
}

func TestEvaluateMoreWithOverlappingRangesIsUnknown(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	vars := Variables{
		1: Set{Unknown(8)},
		2: Set{KnownValue(8, big.NewInt(10))},
	}
	expr := ir.More{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Left: vari(u8, 1), Right: vari(u8, 2)}
	_, ok := SingleConstant(Evaluate(expr, vars, widths()))
	require.False(t, ok)
}

func TestEvaluateEqualOfEqualConstants(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	expr := ir.Equal{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Left: num(u8, 5), Right: num(u8, 5)}
	c, ok := SingleConstant(Evaluate(expr, Variables{}, widths()))
	require.True(t, ok)
	require.Equal(t, "1", c.String())
}

func TestEvaluateNotEqualOfDisjointRanges(t *testing.T) {
	u8 := irtype.Uint{Bits: 8}
	vars := Variables{1: Set{KnownValue(8, big.NewInt(5))}}
	expr := ir.NotEqual{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Left: vari(u8, 1), Right: num(u8, 9)}
	c, ok := SingleConstant(Evaluate(expr, vars, widths()))
	require.True(t, ok)
	require.Equal(t, "1", c.String())
}

func TestMaxSignedRequiresKnownSignBit(t *testing.T) {
	s := Set{Unknown(8)}
	_, ok := MaxSigned(s)
	require.False(t, ok)
}

func TestMaxSignedOfNegativeConstant(t *testing.T) {
	s := Set{KnownValue(8, big.NewInt(-5))}
	max, ok := MaxSigned(s)
	require.True(t, ok)
	require.Equal(t, "-5", max.String())
}

func TestUnionCollapsesToUnknownPastMaxValues(t *testing.T) {
	old := MaxValues
	MaxValues = 2
	defer func() { MaxValues = old }()

	a := Set{KnownValue(8, big.NewInt(1)), KnownValue(8, big.NewInt(2))}
	b := Set{KnownValue(8, big.NewInt(3))}
	merged := union(a, b)
	require.True(t, merged.IsUnknown())
}

func TestUnionDedupesSharedValues(t *testing.T) {
	a := Set{KnownValue(8, big.NewInt(1))}
	b := Set{KnownValue(8, big.NewInt(1))}
	merged := union(a, b)
	require.Len(t, merged, 1)
}

func TestAnalyzeNarrowsAcrossBranchMerge(t *testing.T) {
	cfg := &ir.CFG{Name: "f"}
	entry := cfg.NewBlock("entry")
	left := cfg.NewBlock("left")
	right := cfg.NewBlock("right")
	join := cfg.NewBlock("join")

	cond := ir.BoolLiteral{ExprBase: ir.ExprBase{Ty: irtype.Bool{}}, Value: true}
	cfg.Emit(entry, ir.BranchCond{Cond: cond, TrueBlock: left, FalseBlock: right})
	cfg.Emit(left, ir.Branch{Block: join})
	cfg.Emit(right, ir.Branch{Block: join})
	cfg.Emit(join, ir.Return{})

	blockVars := Analyze(cfg, widths())
	require.NotNil(t, blockVars[join])
	// The condition is a known constant, so only the true arm flows into
	// the merge; the false arm is never visited.
	_, rightVisited := blockVars[right]
	require.False(t, rightVisited)
}
