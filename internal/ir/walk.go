package ir

// Children returns the immediate Expression operands of e, in evaluation
// order (left-to-right, spec §5 ordering guarantee). Leaves (literals,
// Variable, FunctionArg, ...) return nil.
func Children(e Expression) []Expression {
	switch v := e.(type) {
	case Add:
		return []Expression{v.Left, v.Right}
	case Sub:
		return []Expression{v.Left, v.Right}
	case Mul:
		return []Expression{v.Left, v.Right}
	case Divide:
		return []Expression{v.Left, v.Right}
	case Modulo:
		return []Expression{v.Left, v.Right}
	case Power:
		return []Expression{v.Base, v.Exp}
	case BitwiseAnd:
		return []Expression{v.Left, v.Right}
	case BitwiseOr:
		return []Expression{v.Left, v.Right}
	case BitwiseXor:
		return []Expression{v.Left, v.Right}
	case Complement:
		return []Expression{v.Expr}
	case ShiftLeft:
		return []Expression{v.Left, v.Right}
	case ShiftRight:
		return []Expression{v.Left, v.Right}
	case ZeroExt:
		return []Expression{v.Expr}
	case SignExt:
		return []Expression{v.Expr}
	case Trunc:
		return []Expression{v.Expr}
	case Cast:
		return []Expression{v.Expr}
	case BytesCast:
		return []Expression{v.From}
	case Equal:
		return []Expression{v.Left, v.Right}
	case NotEqual:
		return []Expression{v.Left, v.Right}
	case More:
		return []Expression{v.Left, v.Right}
	case Less:
		return []Expression{v.Left, v.Right}
	case MoreEqual:
		return []Expression{v.Left, v.Right}
	case LessEqual:
		return []Expression{v.Left, v.Right}
	case Not:
		return []Expression{v.Expr}
	case And:
		return []Expression{v.Left, v.Right}
	case Or:
		return []Expression{v.Left, v.Right}
	case StringConcat:
		return []Expression{v.Left, v.Right}
	case StringCompare:
		return []Expression{v.Left, v.Right}
	case Load:
		return []Expression{v.Ptr}
	case StorageLoad:
		return []Expression{v.Slot}
	case Subscript:
		return []Expression{v.Base, v.Index}
	case StructMember:
		return []Expression{v.Base}
	case AdvancePointer:
		return []Expression{v.Ptr, v.Bytes}
	case GetRef:
		return []Expression{v.LValue}
	case AllocDynamicBytes:
		if v.Initializer != nil {
			return []Expression{v.Size, v.Initializer}
		}
		return []Expression{v.Size}
	case ExternalFunction:
		return []Expression{v.Address}
	case InternalFunctionCall:
		out := append([]Expression{v.Function}, v.Args...)
		return out
	case ExternalFunctionCall:
		out := []Expression{v.Function, v.Address}
		out = append(out, v.Args...)
		out = append(out, v.Value, v.Gas)
		return out
	case ExternalFunctionCallRaw:
		return []Expression{v.Address, v.Payload, v.Value, v.Gas}
	case Constructor:
		out := []Expression{v.EncodedArgs}
		if v.Value != nil {
			out = append(out, v.Value)
		}
		if v.Gas != nil {
			out = append(out, v.Gas)
		}
		if v.Salt != nil {
			out = append(out, v.Salt)
		}
		return out
	case Keccak256:
		return v.Args
	case FormatString:
		return v.Args
	case Builtin:
		return v.Args
	case ArrayLiteral:
		return v.Values
	case ConstArrayLiteral:
		return v.Values
	case StructLiteral:
		return v.Fields
	default:
		return nil
	}
}

// walkExpr visits e and every descendant in pre-order.
func walkExpr(e Expression, visit func(Expression)) {
	if e == nil {
		return
	}
	visit(e)
	for _, c := range Children(e) {
		walkExpr(c, visit)
	}
}

// WalkExpr is the exported form of walkExpr, used by other packages in this
// module (internal/availexpr, internal/reach, internal/strength,
// internal/cse, internal/lir) that need to traverse an Expression tree.
func WalkExpr(e Expression, visit func(Expression)) { walkExpr(e, visit) }

// InstrOperands returns the top-level Expression fields of instr, in
// evaluation order. ExternalCall's Seeds/Accounts/Flags, ConstructorInstr's
// Accounts and WriteBuffer's Buf are not included. internal/availexpr's
// Transfer generates a node for each operand returned; CFG.Check's
// variable check walks the same fields. CSE and strength reduction use
// their own per-instruction switches instead.
func InstrOperands(instr Instr) []Expression {
	var out []Expression
	walkInstrExprs(instr, func(e Expression) { out = append(out, e) })
	return out
}

func walkInstrExprs(instr Instr, visit func(Expression)) {
	switch in := instr.(type) {
	case Set:
		visit(in.Expr)
	case Store:
		visit(in.Dest)
		visit(in.Data)
	case PushMemory:
		visit(in.Array)
		visit(in.Value)
	case PopMemory:
		visit(in.Array)
	case LoadStorage:
		visit(in.Storage)
	case SetStorage:
		visit(in.Value)
		visit(in.Storage)
	case ClearStorage:
		visit(in.Storage)
	case SetStorageBytes:
		visit(in.Value)
		visit(in.Storage)
		visit(in.Offset)
	case PushStorage:
		if in.Value != nil {
			visit(in.Value)
		}
		visit(in.Storage)
	case PopStorage:
		visit(in.Storage)
	case Call:
		if in.Callee.Kind == CalleeDynamic && in.Callee.Operand != nil {
			visit(in.Callee.Operand)
		}
		for _, a := range in.Args {
			visit(a)
		}
	case Print:
		visit(in.Expr)
	case MemCopy:
		visit(in.Dest)
		visit(in.Src)
		visit(in.Size)
	case ExternalCall:
		visit(in.Value)
		if in.Address != nil {
			visit(in.Address)
		}
		visit(in.Payload)
		visit(in.Gas)
	case ValueTransfer:
		visit(in.Address)
		visit(in.Value)
	case ConstructorInstr:
		visit(in.EncodedArgs)
		if in.Value != nil {
			visit(in.Value)
		}
		visit(in.Gas)
		if in.Salt != nil {
			visit(in.Salt)
		}
	case SelfDestruct:
		visit(in.Recipient)
	case EmitEvent:
		for _, t := range in.Topics {
			visit(t)
		}
		visit(in.Data)
	case WriteBuffer:
		visit(in.Offset)
		visit(in.Value)
	case BranchCond:
		visit(in.Cond)
	case Switch:
		visit(in.Cond)
		for _, c := range in.Cases {
			visit(c.Value)
		}
	case Return:
		for _, v := range in.Values {
			visit(v)
		}
	case AssertFailure:
		if in.EncodedArgs != nil {
			visit(in.EncodedArgs)
		}
	case Phi:
		for _, in := range in.Inputs {
			visit(in.Operand)
		}
	}
}

// MapExpr rewrites e bottom-up: f is applied to every descendant first,
// then to the reconstructed node itself (spec §9 "copy_filter"). f may
// return its argument unchanged when no rewrite applies.
func MapExpr(e Expression, f func(Expression) Expression) Expression {
	if e == nil {
		return nil
	}
	rebuilt := rebuildWithChildren(e, func(c Expression) Expression {
		return MapExpr(c, f)
	})
	return f(rebuilt)
}

func rebuildWithChildren(e Expression, mapChild func(Expression) Expression) Expression {
	children := Children(e)
	if children == nil {
		return e
	}
	mapped := make([]Expression, len(children))
	for i, c := range children {
		mapped[i] = mapChild(c)
	}
	return RebuildChildren(e, mapped)
}

// RebuildChildren reconstructs e with its operands replaced by children, in
// the exact order Children(e) enumerates them. Used by MapExpr and by
// internal/cse's rewrite pass, which needs to substitute a subtree with an
// already-computed variable without walking strictly bottom-up.
func RebuildChildren(e Expression, children []Expression) Expression {
	switch v := e.(type) {
	case Add:
		v.Left, v.Right = children[0], children[1]
		return v
	case Sub:
		v.Left, v.Right = children[0], children[1]
		return v
	case Mul:
		v.Left, v.Right = children[0], children[1]
		return v
	case Divide:
		v.Left, v.Right = children[0], children[1]
		return v
	case Modulo:
		v.Left, v.Right = children[0], children[1]
		return v
	case Power:
		v.Base, v.Exp = children[0], children[1]
		return v
	case BitwiseAnd:
		v.Left, v.Right = children[0], children[1]
		return v
	case BitwiseOr:
		v.Left, v.Right = children[0], children[1]
		return v
	case BitwiseXor:
		v.Left, v.Right = children[0], children[1]
		return v
	case Complement:
		v.Expr = children[0]
		return v
	case ShiftLeft:
		v.Left, v.Right = children[0], children[1]
		return v
	case ShiftRight:
		v.Left, v.Right = children[0], children[1]
		return v
	case ZeroExt:
		v.Expr = children[0]
		return v
	case SignExt:
		v.Expr = children[0]
		return v
	case Trunc:
		v.Expr = children[0]
		return v
	case Cast:
		v.Expr = children[0]
		return v
	case BytesCast:
		v.From = children[0]
		return v
	case Equal:
		v.Left, v.Right = children[0], children[1]
		return v
	case NotEqual:
		v.Left, v.Right = children[0], children[1]
		return v
	case More:
		v.Left, v.Right = children[0], children[1]
		return v
	case Less:
		v.Left, v.Right = children[0], children[1]
		return v
	case MoreEqual:
		v.Left, v.Right = children[0], children[1]
		return v
	case LessEqual:
		v.Left, v.Right = children[0], children[1]
		return v
	case Not:
		v.Expr = children[0]
		return v
	case And:
		v.Left, v.Right = children[0], children[1]
		return v
	case Or:
		v.Left, v.Right = children[0], children[1]
		return v
	case StringConcat:
		v.Left, v.Right = children[0], children[1]
		return v
	case StringCompare:
		v.Left, v.Right = children[0], children[1]
		return v
	case Load:
		v.Ptr = children[0]
		return v
	case StorageLoad:
		v.Slot = children[0]
		return v
	case Subscript:
		v.Base, v.Index = children[0], children[1]
		return v
	case StructMember:
		v.Base = children[0]
		return v
	case AdvancePointer:
		v.Ptr, v.Bytes = children[0], children[1]
		return v
	case GetRef:
		v.LValue = children[0]
		return v
	case AllocDynamicBytes:
		v.Size = children[0]
		if v.Initializer != nil {
			v.Initializer = children[1]
		}
		return v
	case ExternalFunction:
		v.Address = children[0]
		return v
	case InternalFunctionCall:
		v.Function = children[0]
		v.Args = append([]Expression(nil), children[1:]...)
		return v
	case ExternalFunctionCall:
		v.Function, v.Address = children[0], children[1]
		nargs := len(children) - 4
		v.Args = append([]Expression(nil), children[2:2+nargs]...)
		v.Value, v.Gas = children[2+nargs], children[3+nargs]
		return v
	case ExternalFunctionCallRaw:
		v.Address, v.Payload, v.Value, v.Gas = children[0], children[1], children[2], children[3]
		return v
	case Constructor:
		i := 0
		v.EncodedArgs = children[i]
		i++
		if v.Value != nil {
			v.Value = children[i]
			i++
		}
		if v.Gas != nil {
			v.Gas = children[i]
			i++
		}
		if v.Salt != nil {
			v.Salt = children[i]
		}
		return v
	case Keccak256:
		v.Args = append([]Expression(nil), children...)
		return v
	case FormatString:
		v.Args = append([]Expression(nil), children...)
		return v
	case Builtin:
		v.Args = append([]Expression(nil), children...)
		return v
	case ArrayLiteral:
		v.Values = append([]Expression(nil), children...)
		return v
	case ConstArrayLiteral:
		v.Values = append([]Expression(nil), children...)
		return v
	case StructLiteral:
		v.Fields = append([]Expression(nil), children...)
		return v
	default:
		return e
	}
}
