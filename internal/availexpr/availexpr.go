// Package availexpr implements the available-expression graph: the CSE
// substrate described in spec §4.3. It tracks, at a given program point,
// which pure sub-expressions are guaranteed computable from still-live
// temporaries.
//
// The graph is a DAG: operand nodes point to every expression derived from
// them (their "children"); killing an operand (its reaching definition
// changes) must transitively remove every node that mentions it. The
// original implementation this is grounded on (available_expressions.rs)
// models that with Rc<RefCell<>> back-references. Per spec §9's design
// note, a target language without cycle-tolerant GC should use an arena of
// nodes addressed by integer id plus a side map from structural key to id —
// that is what this package does: Set owns the arena, NodeID is an index
// into it, and there are no Go pointers between nodes.
package availexpr

import "cfgmid/internal/ir"

// Operator mirrors available_expressions.rs's Operator enum: every pure,
// trackable binary/unary expression kind.
type Operator int

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpPower
	OpBitwiseOr
	OpBitwiseAnd
	OpBitwiseXor
	OpShiftLeft
	OpShiftRight
	OpOr
	OpAnd
	OpMore
	OpLess
	OpMoreEqual
	OpLessEqual
	OpEqual
	OpNotEqual
	OpStringConcat
	OpStringCompare
	OpNot
	OpZeroExt
	OpSignExt
	OpTrunc
	OpCast
	OpBytesCast
	OpUnaryMinus
	OpComplement
)

// commutative reports whether swapping operands of op yields an
// equivalent expression — check_commutative/process_commutative in
// available_expressions.rs treat these operators' two operand orders as
// the same key.
func commutative(op Operator) bool {
	switch op {
	case OpAdd, OpMultiply, OpBitwiseOr, OpBitwiseAnd, OpBitwiseXor, OpOr, OpAnd, OpEqual, OpNotEqual:
		return true
	default:
		return false
	}
}

// NodeID is the identifier of one graph vertex; stable for the lifetime of
// a Set/arena, reused across intersect_sets when the same structural key
// survives (spec §4.3).
type NodeID int

// ConstantKey canonicalizes a literal or constant-variable for hashmap
// lookup, mirroring ConstantType in available_expressions.rs.
type ConstantKey struct {
	Kind     byte // 'b'ool, 'n'umber, 'y'bytes, 'c'onstant-variable
	Bool     bool
	Number   int64
	Bytes    string
	Contract int
	VarNo    int
}

// exprKey is the structural identity of one node — the hashmap key
// ExpressionType in available_expressions.rs.
type exprKey struct {
	kind     byte // 'v'ariable, 'a'rg, 'l'iteral, 'u'nary, 'b'inary
	varNo    int
	op       Operator
	left     NodeID
	right    NodeID
	constant ConstantKey
}

// node is one arena entry. children holds every node directly derived from
// this one (as an operand); killing this node must recursively kill every
// entry in children (and further down).
type node struct {
	key      exprKey
	id       NodeID
	children map[NodeID]struct{}
}

// Set is the per-program-point available-expression state
// (AvailableExpressionSet in available_expressions.rs).
type Set struct {
	arena   map[NodeID]*node
	exprMap map[exprKey]NodeID
	nextID  *NodeID // shared counter across a CFG walk (AvailableExpression in the original)
}

// NewSet creates an empty set. counter must be shared by every Set derived
// from the same CFG traversal (e.g. via Clone) so node ids stay globally
// unique, matching AvailableExpression's role as a single global counter in
// available_expressions.rs.
func NewSet(counter *NodeID) *Set {
	if counter == nil {
		var c NodeID
		counter = &c
	}
	return &Set{
		arena:   make(map[NodeID]*node),
		exprMap: make(map[exprKey]NodeID),
		nextID:  counter,
	}
}

// Clone makes a deep-enough copy for use on a second CFG successor path
// (reaching_values/strength_reduce and CSE both need per-path copies at a
// BranchCond).
func (s *Set) Clone() *Set {
	out := NewSet(s.nextID)
	for k, v := range s.exprMap {
		out.exprMap[k] = v
	}
	for id, n := range s.arena {
		children := make(map[NodeID]struct{}, len(n.children))
		for c := range n.children {
			children[c] = struct{}{}
		}
		out.arena[id] = &node{key: n.key, id: n.id, children: children}
	}
	return out
}

func (s *Set) alloc(key exprKey) NodeID {
	id := *s.nextID
	*s.nextID++
	s.arena[id] = &node{key: key, id: id, children: make(map[NodeID]struct{})}
	s.exprMap[key] = id
	return id
}

func operatorOf(e ir.Expression) (Operator, bool) {
	switch e.(type) {
	case ir.Add:
		return OpAdd, true
	case ir.Sub:
		return OpSubtract, true
	case ir.Mul:
		return OpMultiply, true
	case ir.Divide:
		return OpDivide, true
	case ir.Modulo:
		return OpModulo, true
	case ir.Power:
		return OpPower, true
	case ir.BitwiseOr:
		return OpBitwiseOr, true
	case ir.BitwiseAnd:
		return OpBitwiseAnd, true
	case ir.BitwiseXor:
		return OpBitwiseXor, true
	case ir.ShiftLeft:
		return OpShiftLeft, true
	case ir.ShiftRight:
		return OpShiftRight, true
	case ir.Or:
		return OpOr, true
	case ir.And:
		return OpAnd, true
	case ir.More:
		return OpMore, true
	case ir.Less:
		return OpLess, true
	case ir.MoreEqual:
		return OpMoreEqual, true
	case ir.LessEqual:
		return OpLessEqual, true
	case ir.Equal:
		return OpEqual, true
	case ir.NotEqual:
		return OpNotEqual, true
	case ir.StringConcat:
		return OpStringConcat, true
	case ir.StringCompare:
		return OpStringCompare, true
	case ir.Not:
		return OpNot, true
	case ir.ZeroExt:
		return OpZeroExt, true
	case ir.SignExt:
		return OpSignExt, true
	case ir.Trunc:
		return OpTrunc, true
	case ir.Cast:
		return OpCast, true
	case ir.BytesCast:
		return OpBytesCast, true
	case ir.Complement:
		return OpComplement, true
	default:
		return 0, false
	}
}

// operands returns the (left, right) pair for a binary expression, or
// (operand, operand) for a unary one; ok is false for expressions gen
// deliberately refuses to track.
func operands(e ir.Expression) (left, right ir.Expression, binary bool, ok bool) {
	switch v := e.(type) {
	case ir.Add:
		return v.Left, v.Right, true, true
	case ir.Sub:
		return v.Left, v.Right, true, true
	case ir.Mul:
		return v.Left, v.Right, true, true
	case ir.Divide:
		return v.Left, v.Right, true, true
	case ir.Modulo:
		return v.Left, v.Right, true, true
	case ir.Power:
		return v.Base, v.Exp, true, true
	case ir.BitwiseOr:
		return v.Left, v.Right, true, true
	case ir.BitwiseAnd:
		return v.Left, v.Right, true, true
	case ir.BitwiseXor:
		return v.Left, v.Right, true, true
	case ir.ShiftLeft:
		return v.Left, v.Right, true, true
	case ir.ShiftRight:
		return v.Left, v.Right, true, true
	case ir.Or:
		return v.Left, v.Right, true, true
	case ir.And:
		return v.Left, v.Right, true, true
	case ir.More:
		return v.Left, v.Right, true, true
	case ir.Less:
		return v.Left, v.Right, true, true
	case ir.MoreEqual:
		return v.Left, v.Right, true, true
	case ir.LessEqual:
		return v.Left, v.Right, true, true
	case ir.Equal:
		return v.Left, v.Right, true, true
	case ir.NotEqual:
		return v.Left, v.Right, true, true
	case ir.StringConcat:
		return v.Left, v.Right, true, true
	case ir.StringCompare:
		return v.Left, v.Right, true, true
	case ir.Not:
		return v.Expr, nil, false, true
	case ir.ZeroExt:
		return v.Expr, nil, false, true
	case ir.SignExt:
		return v.Expr, nil, false, true
	case ir.Trunc:
		return v.Expr, nil, false, true
	case ir.Cast:
		return v.Expr, nil, false, true
	case ir.BytesCast:
		return v.From, nil, false, true
	case ir.Complement:
		return v.Expr, nil, false, true
	default:
		return nil, nil, false, false
	}
}

func constantKey(e ir.Expression) (ConstantKey, bool) {
	switch v := e.(type) {
	case ir.BoolLiteral:
		return ConstantKey{Kind: 'b', Bool: v.Value}, true
	case ir.NumberLiteral:
		return ConstantKey{Kind: 'n', Number: v.Value}, true
	case ir.BytesLiteral:
		return ConstantKey{Kind: 'y', Bytes: string(v.Value)}, true
	case ir.ConstantVariable:
		contract := -1
		if v.Contract != nil {
			contract = *v.Contract
		}
		return ConstantKey{Kind: 'c', Contract: contract, VarNo: v.ID}, true
	default:
		return ConstantKey{}, false
	}
}

// Gen canonicalizes expr and inserts it into the set if not already
// present, returning its node id. It returns ok=false for expressions the
// analysis deliberately refuses to track: storage loads, calls and
// external calls, because reaching-definition invalidation for them is
// undecidable in this pass (spec §4.3).
func (s *Set) Gen(expr ir.Expression) (NodeID, bool) {
	switch v := expr.(type) {
	case ir.Variable:
		return s.genVarOrArg(exprKey{kind: 'v', varNo: v.ID}), true
	case ir.FunctionArg:
		return s.genVarOrArg(exprKey{kind: 'a', varNo: v.Index}), true
	default:
	}

	if ck, ok := constantKey(expr); ok {
		key := exprKey{kind: 'l', constant: ck}
		if id, exists := s.exprMap[key]; exists {
			return id, true
		}
		return s.alloc(key), true
	}

	op, isOp := operatorOf(expr)
	if !isOp {
		return 0, false
	}

	left, right, isBinary, _ := operands(expr)
	leftID, ok := s.Gen(left)
	if !ok {
		return 0, false
	}
	if !isBinary {
		key := exprKey{kind: 'u', op: op, left: leftID}
		if id, exists := s.exprMap[key]; exists {
			return id, true
		}
		id := s.alloc(key)
		s.arena[leftID].children[id] = struct{}{}
		return id, true
	}

	rightID, ok := s.Gen(right)
	if !ok {
		return 0, false
	}

	if id, exists := s.lookupBinary(leftID, rightID, op); exists {
		return id, true
	}

	key := exprKey{kind: 'b', op: op, left: leftID, right: rightID}
	id := s.alloc(key)
	s.arena[leftID].children[id] = struct{}{}
	if rightID != leftID {
		s.arena[rightID].children[id] = struct{}{}
	}
	return id, true
}

func (s *Set) genVarOrArg(key exprKey) NodeID {
	if id, ok := s.exprMap[key]; ok {
		return id
	}
	return s.alloc(key)
}

// lookupBinary checks both operand orders for a commutative operator
// (check_commutative in available_expressions.rs).
func (s *Set) lookupBinary(left, right NodeID, op Operator) (NodeID, bool) {
	if id, ok := s.exprMap[exprKey{kind: 'b', op: op, left: left, right: right}]; ok {
		return id, true
	}
	if commutative(op) {
		if id, ok := s.exprMap[exprKey{kind: 'b', op: op, left: right, right: left}]; ok {
			return id, true
		}
	}
	return 0, false
}

// Find looks up expr without inserting it.
func (s *Set) Find(expr ir.Expression) (NodeID, bool) {
	switch v := expr.(type) {
	case ir.Variable:
		id, ok := s.exprMap[exprKey{kind: 'v', varNo: v.ID}]
		return id, ok
	case ir.FunctionArg:
		id, ok := s.exprMap[exprKey{kind: 'a', varNo: v.Index}]
		return id, ok
	}

	if ck, ok := constantKey(expr); ok {
		id, found := s.exprMap[exprKey{kind: 'l', constant: ck}]
		return id, found
	}

	op, isOp := operatorOf(expr)
	if !isOp {
		return 0, false
	}
	left, right, isBinary, _ := operands(expr)
	leftID, ok := s.Find(left)
	if !ok {
		return 0, false
	}
	if !isBinary {
		id, found := s.exprMap[exprKey{kind: 'u', op: op, left: leftID}]
		return id, found
	}
	rightID, ok := s.Find(right)
	if !ok {
		return 0, false
	}
	return s.lookupBinary(leftID, rightID, op)
}

// Kill removes varNo's node and every node transitively derived from it
// (spec §4.3). A no-op if varNo has no tracked node.
func (s *Set) Kill(varNo int) {
	key := exprKey{kind: 'v', varNo: varNo}
	id, ok := s.exprMap[key]
	if !ok {
		return
	}
	n := s.arena[id]
	for child := range n.children {
		s.killChild(child, id)
		delete(s.arena, child)
	}
	delete(s.arena, id)
	delete(s.exprMap, key)
}

func (s *Set) killChild(id NodeID, parent NodeID) {
	s.killRecursive(id, parent)
	if n, ok := s.arena[id]; ok {
		n.children = make(map[NodeID]struct{})
	}
}

func (s *Set) killRecursive(id NodeID, parent NodeID) {
	n, ok := s.arena[id]
	if !ok {
		return
	}
	for child := range n.children {
		s.killChild(child, id)
		delete(s.arena, child)
	}
	if n.key.kind == 'b' {
		other := n.key.left
		if other == parent {
			other = n.key.right
		}
		if o, ok := s.arena[other]; ok {
			delete(o.children, id)
		}
	}
	delete(s.exprMap, n.key)
}

// Intersect retains only what is available in both s and other, per
// intersect_sets in available_expressions.rs: keys present in both are
// kept; a variable node must carry the same id on both sides (a variable
// redefined differently on each path is not available); derived
// sub-expressions whose id differs across the two sets are kept but with
// their children cleared, since their availability under a fresh id will
// be re-established the next time they're referenced.
func (s *Set) Intersect(other *Set) {
	for key, id := range s.exprMap {
		otherID, ok := other.exprMap[key]
		if !ok {
			delete(s.exprMap, key)
			continue
		}
		if key.kind == 'v' && otherID != id {
			delete(s.exprMap, key)
		}
	}

	maintain := make(map[NodeID]struct{})
	for _, id := range s.exprMap {
		if _, ok := other.arena[id]; !ok {
			maintain[id] = struct{}{}
			if n, ok := s.arena[id]; ok {
				n.children = make(map[NodeID]struct{})
			}
		}
	}

	for id := range s.arena {
		_, inOther := other.arena[id]
		_, keep := maintain[id]
		if !inOther && !keep {
			delete(s.arena, id)
		}
	}

	for id, n := range s.arena {
		otherNode, ok := other.arena[id]
		if !ok {
			continue
		}
		for child := range n.children {
			_, inOtherChildren := otherNode.children[child]
			_, keep := maintain[child]
			if !inOtherChildren && !keep {
				delete(n.children, child)
			}
		}
	}
}

// Len reports the number of live nodes, for tests asserting kill
// completeness (spec §8).
func (s *Set) Len() int { return len(s.arena) }

// References reports whether varNo's own variable node is still tracked —
// used by tests to assert kill completeness. Nodes derived from varNo are
// not inspected; tests check those separately with Find.
func (s *Set) References(varNo int) bool {
	key := exprKey{kind: 'v', varNo: varNo}
	_, ok := s.exprMap[key]
	return ok
}

// Equal reports whether s and other track exactly the same structural
// keys, independent of node id numbering. Forward dataflow drivers
// (internal/cse) use this to detect fixed-point convergence.
func (s *Set) Equal(other *Set) bool {
	if len(s.exprMap) != len(other.exprMap) {
		return false
	}
	for k := range s.exprMap {
		if _, ok := other.exprMap[k]; !ok {
			return false
		}
	}
	return true
}

// VariableHolders returns, for every live variable-kind node, the lowest
// varNo currently naming it. internal/cse's rewrite pass uses this to
// decide which variable to substitute in place of a recomputed expression.
func (s *Set) VariableHolders() map[NodeID]int {
	out := make(map[NodeID]int)
	for k, id := range s.exprMap {
		if k.kind != 'v' {
			continue
		}
		if existing, ok := out[id]; !ok || k.varNo < existing {
			out[id] = k.varNo
		}
	}
	return out
}
