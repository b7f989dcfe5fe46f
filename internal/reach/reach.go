// Package reach computes, for every block entry, the set of reaching values
// each integer-like variable might hold — the "known bits" analysis
// strength-reduce needs to decide whether a wide multiply, divide or modulo
// can be replaced by a narrower one. Grounded on
// codegen/strength_reduce/reaching_values.rs (the worklist/union merge
// below) and codegen/strength_reduce/expression_values.rs (the per-operator
// transfer functions): each Value tracks, per bit, whether that bit's value
// is known, rather than collapsing straight to "fully known constant" or
// "fully unknown" the moment any single bit is in doubt. A Set is a bounded
// disjoint union of such partial-knowledge Values, folded to Unknown once it
// grows past MaxValues or absorbs an unknown operand.
package reach

import (
	"math/big"

	"cfgmid/internal/ir"
	"cfgmid/internal/irtype"
	"cfgmid/internal/vartable"
)

// MaxValues bounds how many distinct reaching values a variable's set
// tracks before collapsing to Unknown; without it an unbounded loop (`for
// (uint i = 0; ; i++)`) would never let the analysis terminate. A package
// var, not a const, so internal/config can tune it per compile.
var MaxValues = 100

// Value is one member of a reaching-value set: a partial-knowledge bit
// pattern of a fixed width. Known is a bitmask — bit i set means bit i of
// Val is known — rather than a single known/unknown flag for the whole
// value, so e.g. "x << 3" can track "low 3 bits are known zero, the rest is
// whatever x's high bits were" instead of discarding all information the
// moment one bit is in doubt. Bits of Val outside Known are conventionally
// zero.
type Value struct {
	Bits  int
	Known *big.Int
	Val   *big.Int
}

func onesMask(bits int) *big.Int {
	if bits <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
}

// Unknown is a Value with no bits known at all.
func Unknown(bits int) Value {
	return Value{Bits: bits, Known: big.NewInt(0), Val: big.NewInt(0)}
}

// KnownValue is a Value with every bit known, equal to raw's canonical
// two's-complement magnitude at the given width.
func KnownValue(bits int, raw *big.Int) Value {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	wrapped := new(big.Int).Mod(raw, mod)
	return Value{Bits: bits, Known: onesMask(bits), Val: wrapped}
}

func (v Value) key() string {
	return v.Known.String() + ":" + v.Val.String()
}

func (v Value) fullyKnown() bool {
	return v.Bits > 0 && v.Known.Cmp(onesMask(v.Bits)) == 0
}

// allUnknown reports whether v carries no information at all — the
// absorbing element union() collapses a whole Set into.
func (v Value) allUnknown() bool {
	return v.Known.Sign() == 0
}

func (v Value) knownOnes() *big.Int  { return new(big.Int).And(v.Known, v.Val) }
func (v Value) knownZeros() *big.Int { return new(big.Int).AndNot(v.Known, v.Val) }

// unsignedMin/unsignedMax bound v's magnitude by resolving every unknown bit
// to 0 (min) or 1 (max).
func (v Value) unsignedMin() *big.Int {
	return new(big.Int).And(v.Val, v.Known)
}

func (v Value) unsignedMax() *big.Int {
	unknownMask := new(big.Int).AndNot(onesMask(v.Bits), v.Known)
	return new(big.Int).Or(v.unsignedMin(), unknownMask)
}

// signBit reports v's sign bit (the high bit under a two's-complement
// reading) and whether it is known.
func (v Value) signBit() (isSet, known bool) {
	if v.Bits == 0 {
		return false, false
	}
	idx := v.Bits - 1
	return v.Val.Bit(idx) == 1, v.Known.Bit(idx) == 1
}

func signedInterpret(raw *big.Int, bits int) *big.Int {
	if raw.Bit(bits-1) == 0 {
		return raw
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return new(big.Int).Sub(raw, mod)
}

// signedMinMax bounds v's two's-complement signed interpretation; ok is
// false when the sign bit isn't known, since then the range may straddle
// the wraparound between the most-positive and most-negative values.
func (v Value) signedMinMax() (min, max *big.Int, ok bool) {
	isSet, known := v.signBit()
	if !known {
		return nil, nil, false
	}
	umin, umax := v.unsignedMin(), v.unsignedMax()
	if !isSet {
		return umin, umax, true
	}
	return signedInterpret(umax, v.Bits), signedInterpret(umin, v.Bits), true
}

// Set is a variable's or expression's possible reaching values at one
// program point. A Set containing any wholly-unknown Value is logically
// just Unknown — callers should check IsUnknown before trusting its
// members.
type Set []Value

func (s Set) IsUnknown() bool {
	if len(s) == 0 {
		return true
	}
	for _, v := range s {
		if v.allUnknown() {
			return true
		}
	}
	return false
}

func (s Set) has(v Value) bool {
	for _, e := range s {
		if e.key() == v.key() {
			return true
		}
	}
	return false
}

func (s Set) bits() int {
	if len(s) > 0 {
		return s[0].Bits
	}
	return 0
}

// union merges b into a following update_map's rules: unknown is
// absorbing, and a set that would grow past MaxValues collapses to Unknown
// rather than tracking every value precisely.
func union(a, b Set) Set {
	if a.IsUnknown() {
		return a
	}
	if b.IsUnknown() {
		bits := a.bits()
		if bits == 0 {
			bits = b.bits()
		}
		return Set{Unknown(bits)}
	}
	out := append(Set(nil), a...)
	for _, v := range b {
		if !out.has(v) {
			out = append(out, v)
		}
	}
	if len(out) > MaxValues {
		return Set{Unknown(out.bits())}
	}
	return out
}

// MaxUnsigned returns the greatest possible magnitude in s, or ok=false if
// s is empty.
func MaxUnsigned(s Set) (*big.Int, bool) {
	if len(s) == 0 {
		return nil, false
	}
	max := s[0].unsignedMax()
	for _, v := range s[1:] {
		if m := v.unsignedMax(); m.Cmp(max) > 0 {
			max = m
		}
	}
	return max, true
}

// MaxSigned returns the greatest possible signed interpretation in s, or
// ok=false if s is empty or any member's sign bit isn't known (so its
// signed range can't be safely bounded).
func MaxSigned(s Set) (*big.Int, bool) {
	if len(s) == 0 {
		return nil, false
	}
	var max *big.Int
	for _, v := range s {
		_, vmax, ok := v.signedMinMax()
		if !ok {
			return nil, false
		}
		if max == nil || vmax.Cmp(max) > 0 {
			max = vmax
		}
	}
	return max, true
}

// SingleConstant returns s's lone member's magnitude, or ok=false when s
// doesn't track exactly one fully-known value.
func SingleConstant(s Set) (*big.Int, bool) {
	if len(s) != 1 || !s[0].fullyKnown() {
		return nil, false
	}
	return s[0].Val, true
}

// Variables maps varno to its reaching-value set at one program point.
type Variables map[int]Set

func (v Variables) Clone() Variables {
	out := make(Variables, len(v))
	for k, s := range v {
		out[k] = append(Set(nil), s...)
	}
	return out
}

func bitsOf(t irtype.Type, ns irtype.Widths) (int, bool) {
	if !irtype.HasBits(t) {
		return 0, false
	}
	return irtype.Bits(t, ns), true
}

// Evaluate computes the reaching values of expr given the variable values
// live at this program point. Anything this analysis doesn't specifically
// model (loads, calls, struct access, ...) is conservatively Unknown —
// mirroring expression_values.rs's fallback arm.
func Evaluate(expr ir.Expression, vars Variables, ns irtype.Widths) Set {
	bits, ok := bitsOf(expr.Type(), ns)
	if !ok {
		return nil
	}
	switch e := expr.(type) {
	case ir.NumberLiteral:
		return Set{KnownValue(bits, big.NewInt(e.Value))}
	case ir.BoolLiteral:
		v := int64(0)
		if e.Value {
			v = 1
		}
		return Set{KnownValue(bits, big.NewInt(v))}
	case ir.Variable:
		if s, ok := vars[e.ID]; ok {
			return s
		}
		return Set{Unknown(bits)}
	case ir.ZeroExt:
		return zeroExtend(Evaluate(e.Expr, vars, ns), bits)
	case ir.SignExt:
		return signExtend(Evaluate(e.Expr, vars, ns), bits)
	case ir.Trunc:
		return truncate(Evaluate(e.Expr, vars, ns), bits)
	case ir.Add:
		return pairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, addValue)
	case ir.Sub:
		return pairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, subValue)
	case ir.Mul:
		left, right := Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns)
		return pairwise(left, right, bits, func(l, r Value, bits int) Value {
			return mulValue(l, r, bits, false)
		})
	case ir.BitwiseAnd:
		return pairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, bitwiseAndValue)
	case ir.BitwiseOr:
		return pairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, bitwiseOrValue)
	case ir.BitwiseXor:
		return pairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, bitwiseXorValue)
	case ir.ShiftLeft:
		left, right := Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns)
		if shift, ok := SingleConstant(right); ok && shift.IsInt64() {
			return shiftConstant(left, bits, int(shift.Int64()), shiftLeftValue)
		}
		return Set{Unknown(bits)}
	case ir.ShiftRight:
		left, right := Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns)
		if shift, ok := SingleConstant(right); ok && shift.IsInt64() {
			return shiftConstant(left, bits, int(shift.Int64()), func(v Value, amount, bits int) Value {
				return shiftRightValue(v, amount, bits, e.Signed)
			})
		}
		return Set{Unknown(bits)}
	case ir.Divide:
		// Quo truncates toward zero, matching EVM SDIV/Solidity signed
		// division; Div (Euclidean) agrees with Quo whenever both operands
		// are non-negative, which always holds for the unsigned case.
		return divModValue(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, e.Signed, (*big.Int).Quo, (*big.Int).Div)
	case ir.Modulo:
		return divModValue(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), bits, e.Signed, (*big.Int).Rem, (*big.Int).Mod)
	case ir.Equal:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), false, compareEqual)
	case ir.NotEqual:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), false, compareNotEqual)
	case ir.More:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), e.Signed, compareMore)
	case ir.Less:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), e.Signed, compareLess)
	case ir.MoreEqual:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), e.Signed, compareMoreEqual)
	case ir.LessEqual:
		return comparePairwise(Evaluate(e.Left, vars, ns), Evaluate(e.Right, vars, ns), e.Signed, compareLessEqual)
	default:
		return Set{Unknown(bits)}
	}
}

func zeroExtend(s Set, bits int) Set {
	if s.IsUnknown() {
		return Set{Unknown(bits)}
	}
	out := make(Set, len(s))
	for i, v := range s {
		// The extended high bits are known zero; the low bits keep v's
		// existing known/unknown pattern unchanged.
		out[i] = Value{Bits: bits, Known: orHighKnown(v.Known, v.Bits, bits), Val: new(big.Int).Set(v.Val)}
	}
	return out
}

// orHighKnown returns a known-mask of width bits that keeps low's low
// lowBits bits as-is and marks every bit above lowBits known.
func orHighKnown(low *big.Int, lowBits, bits int) *big.Int {
	high := new(big.Int).Sub(onesMask(bits), onesMask(lowBits))
	return new(big.Int).Or(new(big.Int).And(low, onesMask(lowBits)), high)
}

func signExtend(s Set, bits int) Set {
	if s.IsUnknown() {
		return Set{Unknown(bits)}
	}
	out := make(Set, len(s))
	for i, v := range s {
		isSet, known := v.signBit()
		if !known {
			out[i] = Unknown(bits)
			continue
		}
		high := new(big.Int).Sub(onesMask(bits), onesMask(v.Bits))
		val := new(big.Int).And(v.Val, onesMask(v.Bits))
		if isSet {
			val.Or(val, high)
		}
		out[i] = Value{Bits: bits, Known: orHighKnown(v.Known, v.Bits, bits), Val: val}
	}
	return out
}

func truncate(s Set, bits int) Set {
	if s.IsUnknown() {
		return Set{Unknown(bits)}
	}
	out := make(Set, len(s))
	for i, v := range s {
		out[i] = Value{Bits: bits, Known: new(big.Int).And(v.Known, onesMask(bits)), Val: new(big.Int).And(v.Val, onesMask(bits))}
	}
	return out
}

// pairwise computes the cross product of two reaching-value sets through
// op, collapsing to Unknown if either side is empty or the product would
// exceed MaxValues. An Unknown operand still goes through op, so bits the
// other side alone determines (a known zero under AND) stay known.
func pairwise(left, right Set, bits int, op func(l, r Value, bits int) Value) Set {
	if len(left) == 0 || len(right) == 0 {
		return Set{Unknown(bits)}
	}
	if len(left)*len(right) > MaxValues {
		return Set{Unknown(bits)}
	}
	var out Set
	for _, l := range left {
		for _, r := range right {
			v := op(l, r, bits)
			if !out.has(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func shiftConstant(s Set, bits, amount int, op func(v Value, amount, bits int) Value) Set {
	if len(s) == 0 || amount < 0 {
		return Set{Unknown(bits)}
	}
	var out Set
	for _, v := range s {
		nv := op(v, amount, bits)
		if !out.has(nv) {
			out = append(out, nv)
		}
	}
	return out
}

// bitwiseAndValue/bitwiseOrValue/bitwiseXorValue combine per-bit knowledge
// the way LLVM's KnownBits lattice does: a bit of the result is known only
// when the combining operator's result is determined regardless of the
// operands' unknown bits.
func bitwiseAndValue(l, r Value, bits int) Value {
	ones := new(big.Int).And(l.knownOnes(), r.knownOnes())
	zeros := new(big.Int).Or(l.knownZeros(), r.knownZeros())
	known := new(big.Int).Or(ones, zeros)
	return Value{Bits: bits, Known: known, Val: ones}
}

func bitwiseOrValue(l, r Value, bits int) Value {
	ones := new(big.Int).Or(l.knownOnes(), r.knownOnes())
	zeros := new(big.Int).And(l.knownZeros(), r.knownZeros())
	known := new(big.Int).Or(ones, zeros)
	return Value{Bits: bits, Known: known, Val: ones}
}

func bitwiseXorValue(l, r Value, bits int) Value {
	known := new(big.Int).And(l.Known, r.Known)
	val := new(big.Int).And(new(big.Int).Xor(l.Val, r.Val), known)
	return Value{Bits: bits, Known: known, Val: val}
}

func shiftLeftValue(v Value, amount, bits int) Value {
	if amount >= bits {
		return KnownValue(bits, big.NewInt(0))
	}
	val := new(big.Int).Lsh(v.Val, uint(amount))
	val.And(val, onesMask(bits))
	known := new(big.Int).Lsh(v.Known, uint(amount))
	known.Or(known, onesMask(amount))
	known.And(known, onesMask(bits))
	return Value{Bits: bits, Known: known, Val: val}
}

func shiftRightValue(v Value, amount, bits int, signed bool) Value {
	if amount >= bits {
		if !signed {
			return KnownValue(bits, big.NewInt(0))
		}
		isSet, known := v.signBit()
		if !known {
			return Unknown(bits)
		}
		if isSet {
			return KnownValue(bits, onesMask(bits))
		}
		return KnownValue(bits, big.NewInt(0))
	}
	val := new(big.Int).Rsh(v.Val, uint(amount))
	known := new(big.Int).Rsh(v.Known, uint(amount))
	topMask := new(big.Int).Lsh(onesMask(amount), uint(bits-amount))
	if !signed {
		known.Or(known, topMask)
	} else if isSet, signKnown := v.signBit(); signKnown {
		known.Or(known, topMask)
		if isSet {
			val.Or(val, topMask)
		}
	}
	val.And(val, onesMask(bits))
	known.And(known, onesMask(bits))
	return Value{Bits: bits, Known: known, Val: val}
}

// rangeValue derives a partial-knowledge Value from a computed [min,max]
// bound on the result of a binary op: bits where min and max agree, and
// both operands had that bit known, are known to equal that shared value —
// mirroring reaching_values.rs's add_values/subtract_values, which compute
// `known_bits = !(min^max) & l.known_bits & r.known_bits`.
func rangeValue(min, max *big.Int, l, r Value, bits int) Value {
	agree := new(big.Int).Not(new(big.Int).Xor(min, max))
	agree.And(agree, onesMask(bits))
	known := new(big.Int).And(agree, new(big.Int).And(l.Known, r.Known))
	val := new(big.Int).And(min, known)
	return Value{Bits: bits, Known: known, Val: val}
}

func addValue(l, r Value, bits int) Value {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	min := new(big.Int).Mod(new(big.Int).Add(l.unsignedMin(), r.unsignedMin()), mod)
	max := new(big.Int).Mod(new(big.Int).Add(l.unsignedMax(), r.unsignedMax()), mod)
	return rangeValue(min, max, l, r, bits)
}

func subValue(l, r Value, bits int) Value {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	min := new(big.Int).Mod(new(big.Int).Sub(l.unsignedMin(), r.unsignedMax()), mod)
	max := new(big.Int).Mod(new(big.Int).Sub(l.unsignedMax(), r.unsignedMin()), mod)
	return rangeValue(min, max, l, r, bits)
}

// mulValue bounds the product's magnitude from the operands' extremes and
// marks every bit above the product's top set bit known zero — mirroring
// multiply_values's use of highest_set_bit(max*max) to size the known-zero
// sign-extension region, simplified to a single magnitude bound shared by
// the signed and unsigned cases rather than solang's separate per-sign-combo
// extremes.
func mulValue(l, r Value, bits int, signed bool) Value {
	if l.fullyKnown() && r.fullyKnown() {
		return KnownValue(bits, new(big.Int).Mul(l.unsignedMin(), r.unsignedMin()))
	}
	var lmax, rmax *big.Int
	if signed {
		lmn, lmx, lok := l.signedMinMax()
		rmn, rmx, rok := r.signedMinMax()
		if !lok || !rok {
			return Unknown(bits)
		}
		lmax, rmax = new(big.Int).Abs(lmx), new(big.Int).Abs(rmx)
		if a := new(big.Int).Abs(lmn); a.Cmp(lmax) > 0 {
			lmax = a
		}
		if a := new(big.Int).Abs(rmn); a.Cmp(rmax) > 0 {
			rmax = a
		}
	} else {
		lmax, rmax = l.unsignedMax(), r.unsignedMax()
	}
	product := new(big.Int).Mul(lmax, rmax)
	topBit := product.BitLen()
	if topBit >= bits {
		return Unknown(bits)
	}
	known := new(big.Int).Lsh(onesMask(bits-topBit), uint(topBit))
	return Value{Bits: bits, Known: known, Val: big.NewInt(0)}
}

// divModValue handles division and modulo exactly when both operands are
// fully known (picking signedOp/unsignedOp per e.Signed) and otherwise
// reports Unknown: expression_values.rs does not special-case either
// operator beyond its default "tracked but unbounded" arm, so range bounds
// for partially-known operands aren't modeled here either.
func divModValue(left, right Set, bits int, signed bool, signedOp, unsignedOp func(z, x, y *big.Int) *big.Int) Set {
	if left.IsUnknown() || right.IsUnknown() {
		return Set{Unknown(bits)}
	}
	if len(left)*len(right) > MaxValues {
		return Set{Unknown(bits)}
	}
	var out Set
	for _, l := range left {
		for _, r := range right {
			if !l.fullyKnown() || !r.fullyKnown() {
				out = append(out, Unknown(bits))
				continue
			}
			var v Value
			if signed {
				lv, rv := signedInterpret(l.Val, bits), signedInterpret(r.Val, bits)
				if rv.Sign() == 0 {
					v = Unknown(bits)
				} else {
					v = KnownValue(bits, signedOp(new(big.Int), lv, rv))
				}
			} else {
				if r.Val.Sign() == 0 {
					v = Unknown(bits)
				} else {
					v = KnownValue(bits, unsignedOp(new(big.Int), l.Val, r.Val))
				}
			}
			if !out.has(v) {
				out = append(out, v)
			}
		}
	}
	if out.IsUnknown() {
		return Set{Unknown(bits)}
	}
	return out
}

// comparePairwise evaluates a comparison over every combination of left and
// right's reaching values via range domination: when left's range and
// right's range don't overlap, the comparison's outcome is the same for
// every possible pair, so the result is a fully-known boolean rather than
// Unknown even though the operands themselves aren't constants.
func comparePairwise(left, right Set, signed bool, op func(lmin, lmax, rmin, rmax *big.Int) (bool, bool)) Set {
	if left.IsUnknown() || right.IsUnknown() {
		return Set{Unknown(1)}
	}
	var out Set
	for _, l := range left {
		for _, r := range right {
			lmin, lmax, lok := rangeOf(l, signed)
			rmin, rmax, rok := rangeOf(r, signed)
			var v Value
			if !lok || !rok {
				v = Unknown(1)
			} else if result, known := op(lmin, lmax, rmin, rmax); known {
				v = KnownValue(1, boolInt(result))
			} else {
				v = Unknown(1)
			}
			if !out.has(v) {
				out = append(out, v)
			}
		}
	}
	if len(out) == 0 {
		return Set{Unknown(1)}
	}
	return out
}

func rangeOf(v Value, signed bool) (min, max *big.Int, ok bool) {
	if signed {
		return v.signedMinMax()
	}
	return v.unsignedMin(), v.unsignedMax(), true
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func compareMore(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	if lmin.Cmp(rmax) > 0 {
		return true, true
	}
	if lmax.Cmp(rmin) <= 0 {
		return false, true
	}
	return false, false
}

func compareLess(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	return compareMore(rmin, rmax, lmin, lmax)
}

func compareMoreEqual(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	if lmin.Cmp(rmax) >= 0 {
		return true, true
	}
	if lmax.Cmp(rmin) < 0 {
		return false, true
	}
	return false, false
}

func compareLessEqual(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	return compareMoreEqual(rmin, rmax, lmin, lmax)
}

func compareEqual(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	if lmin.Cmp(lmax) == 0 && rmin.Cmp(rmax) == 0 {
		return lmin.Cmp(rmin) == 0, true
	}
	if lmax.Cmp(rmin) < 0 || rmax.Cmp(lmin) < 0 {
		return false, true
	}
	return false, false
}

func compareNotEqual(lmin, lmax, rmin, rmax *big.Int) (bool, bool) {
	eq, known := compareEqual(lmin, lmax, rmin, rmax)
	if !known {
		return false, false
	}
	return !eq, true
}

// Transfer applies instr's effect to vars, mirroring transfer() in
// reaching_values.rs: a Set computes its new value from its expression,
// and anything that manufactures an opaque result (a call's returns, a
// storage pop) resets that variable to Unknown.
func Transfer(instr ir.Instr, vars Variables, table *vartable.Table, ns irtype.Widths) {
	switch in := instr.(type) {
	case ir.Set:
		vars[in.Res] = Evaluate(in.Expr, vars, ns)
	case ir.Call:
		for _, r := range in.Res {
			if bits, ok := bitsOf(table.Get(r).Type, ns); ok {
				vars[r] = Set{Unknown(bits)}
			}
		}
	case ir.PopStorage:
		if in.Res != nil {
			vars[*in.Res] = Set{Unknown(8)}
		}
	case ir.LoadStorage:
		if bits, ok := bitsOf(table.Get(in.Res).Type, ns); ok {
			vars[in.Res] = Set{Unknown(bits)}
		}
	case ir.ConstructorInstr:
		if bits, ok := bitsOf(table.Get(in.Res).Type, ns); ok {
			vars[in.Res] = Set{Unknown(bits)}
		}
	case ir.PopMemory:
		if bits, ok := bitsOf(table.Get(in.Res).Type, ns); ok {
			vars[in.Res] = Set{Unknown(bits)}
		}
	case ir.Phi:
		delete(vars, in.Res)
	}
}

// BlockVars is the reaching-value map recorded at the entry of every block
// reached during Analyze.
type BlockVars map[int]Variables

// Analyze walks cfg from block 0, propagating Variables forward over
// Branch/BranchCond edges. A block already visited with no new information
// is not re-descended into — the same early-out reaching_values.rs uses to
// terminate in the presence of loops.
func Analyze(cfg *ir.CFG, ns irtype.Widths) BlockVars {
	blockVars := BlockVars{}
	if len(cfg.Blocks) == 0 {
		return blockVars
	}
	walk(0, cfg, Variables{}, blockVars, ns)
	return blockVars
}

func walk(blockNo int, cfg *ir.CFG, vars Variables, blockVars BlockVars, ns irtype.Widths) {
	if existing, ok := blockVars[blockNo]; ok {
		changed := false
		merged := existing.Clone()
		for varNo, set := range vars {
			before, had := merged[varNo]
			after := set
			if had {
				after = union(before, set)
			}
			if !had || !sameSet(before, after) {
				changed = true
			}
			merged[varNo] = after
		}
		if !changed {
			return
		}
		blockVars[blockNo] = merged
	} else {
		blockVars[blockNo] = vars.Clone()
	}

	vars = blockVars[blockNo].Clone()
	block := cfg.Blocks[blockNo]
	for _, instr := range block.Instr {
		Transfer(instr, vars, cfg.Vars, ns)

		switch t := instr.(type) {
		case ir.Branch:
			walk(t.Block, cfg, vars, blockVars, ns)
		case ir.BranchCond:
			if known, ok := SingleConstant(Evaluate(t.Cond, vars, ns)); ok {
				target := t.FalseBlock
				if known.Sign() != 0 {
					target = t.TrueBlock
				}
				walk(target, cfg, vars, blockVars, ns)
			} else {
				walk(t.TrueBlock, cfg, vars.Clone(), blockVars, ns)
				walk(t.FalseBlock, cfg, vars, blockVars, ns)
			}
		case ir.Switch:
			for _, c := range t.Cases {
				walk(c.Block, cfg, vars.Clone(), blockVars, ns)
			}
			walk(t.Default, cfg, vars, blockVars, ns)
		}
	}
}

func sameSet(a, b Set) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !b.has(v) {
			return false
		}
	}
	return true
}
