package ir

// walkChildren calls fn for each direct child node of n.
func walkChildren(n Node, fn func(Node)) {
	expr := func(e Expression) {
		if e != nil {
			fn(e)
		}
	}
	stmt := func(s Statement) {
		if s != nil {
			fn(s)
		}
	}
	switch n := n.(type) {
	case *Literal, *VariableReference, *Poison:
	case *ConstructorSplat:
		expr(n.Arg)
	case *ConstructorDiagonalMatrix:
		expr(n.Arg)
	case *ConstructorMatrixResize:
		expr(n.Arg)
	case *ConstructorCompoundCast:
		expr(n.Arg)
	case *ConstructorScalarCast:
		expr(n.Arg)
	case *ConstructorArrayCast:
		expr(n.Arg)
	case *ConstructorCompound:
		for _, a := range n.Args {
			expr(a)
		}
	case *ConstructorArray:
		for _, a := range n.Args {
			expr(a)
		}
	case *ConstructorStruct:
		for _, a := range n.Args {
			expr(a)
		}
	case *FieldAccess:
		expr(n.Base)
	case *IndexExpression:
		expr(n.Base)
		expr(n.Index)
	case *Swizzle:
		expr(n.Base)
	case *BinaryExpression:
		expr(n.Left)
		expr(n.Right)
	case *PrefixExpression:
		expr(n.Operand)
	case *PostfixExpression:
		expr(n.Operand)
	case *TernaryExpression:
		expr(n.Test)
		expr(n.IfTrue)
		expr(n.IfFalse)
	case *FunctionCall:
		for _, a := range n.Args {
			expr(a)
		}
	case *ChildCall:
		for _, a := range n.Args {
			expr(a)
		}

	case *Block:
		for _, s := range n.Statements {
			stmt(s)
		}
	case *VarDeclaration:
		expr(n.Value)
	case *IfStatement:
		expr(n.Test)
		stmt(n.IfTrue)
		stmt(n.IfFalse)
	case *ForStatement:
		stmt(n.Init)
		expr(n.Test)
		expr(n.Next)
		stmt(n.Body)
	case *DoStatement:
		stmt(n.Body)
		expr(n.Test)
	case *SwitchStatement:
		expr(n.Value)
		for _, c := range n.Cases {
			fn(c)
		}
	case *SwitchCase:
		stmt(n.Body)
	case *ReturnStatement:
		expr(n.Value)
	case *ExpressionStatement:
		expr(n.Expr)
	case *BreakStatement, *ContinueStatement, *DiscardStatement, *Nop:

	case *FunctionDefinition:
		if n.Body != nil {
			fn(n.Body)
		}
	case *GlobalVarDeclaration:
		fn(n.Decl)
	case *InterfaceBlock, *StructDefinition:
	default:
		internalf(n.Position(), "walk of unknown node %T", n)
	}
}

// Inspect calls fn for n and, while fn returns true, for each node
// beneath it in depth-first order.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	walkChildren(n, func(child Node) { Inspect(child, fn) })
}

// Clone returns a deep copy of e. The copy is registered in ctx's arena.
func Clone(ctx *Context, e Expression) Expression {
	if e == nil {
		return nil
	}
	pos := e.Position()
	n := node{pos: pos}
	cloneAll := func(es []Expression) []Expression {
		out := make([]Expression, len(es))
		for i, a := range es {
			out[i] = Clone(ctx, a)
		}
		return out
	}
	switch e := e.(type) {
	case *Literal:
		return track(ctx, &Literal{node: n, typ: e.typ, Value: e.Value})
	case *VariableReference:
		return track(ctx, &VariableReference{node: n, Variable: e.Variable, Ref: e.Ref})
	case *ConstructorSplat:
		return track(ctx, &ConstructorSplat{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorDiagonalMatrix:
		return track(ctx, &ConstructorDiagonalMatrix{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorMatrixResize:
		return track(ctx, &ConstructorMatrixResize{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorCompound:
		return track(ctx, &ConstructorCompound{node: n, typ: e.typ, Args: cloneAll(e.Args)})
	case *ConstructorCompoundCast:
		return track(ctx, &ConstructorCompoundCast{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorScalarCast:
		return track(ctx, &ConstructorScalarCast{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorArray:
		return track(ctx, &ConstructorArray{node: n, typ: e.typ, Args: cloneAll(e.Args)})
	case *ConstructorArrayCast:
		return track(ctx, &ConstructorArrayCast{node: n, typ: e.typ, Arg: Clone(ctx, e.Arg)})
	case *ConstructorStruct:
		return track(ctx, &ConstructorStruct{node: n, typ: e.typ, Args: cloneAll(e.Args)})
	case *FieldAccess:
		return track(ctx, &FieldAccess{node: n, Base: Clone(ctx, e.Base), Index: e.Index, Anonymous: e.Anonymous})
	case *IndexExpression:
		return track(ctx, &IndexExpression{node: n, typ: e.typ, Base: Clone(ctx, e.Base), Index: Clone(ctx, e.Index)})
	case *Swizzle:
		comps := make([]int8, len(e.Components))
		copy(comps, e.Components)
		return track(ctx, &Swizzle{node: n, typ: e.typ, Base: Clone(ctx, e.Base), Components: comps})
	case *BinaryExpression:
		return track(ctx, &BinaryExpression{node: n, typ: e.typ, Left: Clone(ctx, e.Left), Op: e.Op, Right: Clone(ctx, e.Right)})
	case *PrefixExpression:
		return track(ctx, &PrefixExpression{node: n, Op: e.Op, Operand: Clone(ctx, e.Operand)})
	case *PostfixExpression:
		return track(ctx, &PostfixExpression{node: n, Operand: Clone(ctx, e.Operand), Op: e.Op})
	case *TernaryExpression:
		return track(ctx, &TernaryExpression{node: n, Test: Clone(ctx, e.Test), IfTrue: Clone(ctx, e.IfTrue), IfFalse: Clone(ctx, e.IfFalse)})
	case *FunctionCall:
		return track(ctx, &FunctionCall{node: n, typ: e.typ, Function: e.Function, Args: cloneAll(e.Args)})
	case *ChildCall:
		return track(ctx, &ChildCall{node: n, typ: e.typ, Child: e.Child, Args: cloneAll(e.Args)})
	case *Poison:
		return track(ctx, &Poison{node: n, typ: e.typ})
	}
	internalf(pos, "clone of unknown expression %T", e)
	return nil
}
