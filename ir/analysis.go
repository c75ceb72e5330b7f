package ir

// HasSideEffects reports whether evaluating e can change program state:
// assignments, increments and decrements, and calls to impure functions.
func HasSideEffects(e Expression) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *BinaryExpression:
			if n.Op.IsAssignment() {
				found = true
			}
		case *PrefixExpression:
			if n.Op == OpPlusPlus || n.Op == OpMinusMinus {
				found = true
			}
		case *PostfixExpression:
			found = true
		case *FunctionCall:
			if !n.Function.IsPure() {
				found = true
			}
		}
		return !found
	})
	return found
}

// IsTrivialExpression reports expressions cheap enough to duplicate.
func IsTrivialExpression(e Expression) bool {
	switch e := e.(type) {
	case *Literal, *VariableReference:
		return true
	case *Swizzle:
		return IsTrivialExpression(e.Base)
	case *FieldAccess:
		return IsTrivialExpression(e.Base)
	case *IndexExpression:
		_, literal := e.Index.(*Literal)
		return literal && IsTrivialExpression(e.Base)
	case Constructor:
		args := e.Arguments()
		if len(args) == 1 && IsTrivialExpression(args[0]) {
			return true
		}
		return IsCompileTimeConstant(e)
	}
	return false
}

// IsCompileTimeConstant reports literals and constructors built only from
// literals.
func IsCompileTimeConstant(e Expression) bool {
	switch e := e.(type) {
	case *Literal:
		return true
	case Constructor:
		for _, a := range e.Arguments() {
			if !IsCompileTimeConstant(a) {
				return false
			}
		}
		return true
	}
	return false
}

// IsConstantOrUniform reports expressions whose value is the same for every
// invocation.
func IsConstantOrUniform(e Expression) bool {
	switch e := e.(type) {
	case *Literal:
		return true
	case *VariableReference:
		return e.Variable.IsUniform() || (e.Variable.IsConst() && e.Variable.Value != nil)
	case Constructor:
		for _, a := range e.Arguments() {
			if !IsConstantOrUniform(a) {
				return false
			}
		}
		return true
	case *Swizzle:
		return IsConstantOrUniform(e.Base)
	case *FieldAccess:
		return IsConstantOrUniform(e.Base)
	}
	return false
}

// ConstantExpression returns the constant tree e stands for: e itself, or
// the initializer of a const variable it references.
func ConstantExpression(e Expression) (Expression, bool) {
	for range 8 {
		ref, ok := e.(*VariableReference)
		if !ok {
			break
		}
		if !ref.Variable.IsConst() || ref.Variable.Value == nil {
			return nil, false
		}
		e = ref.Variable.Value
	}
	if IsCompileTimeConstant(e) {
		return e, true
	}
	return nil, false
}

// GetConstantValue returns the value of a scalar constant expression.
func GetConstantValue(e Expression) (float64, bool) {
	c, ok := ConstantExpression(e)
	if !ok || !c.Type().IsScalar() {
		return 0, false
	}
	return ConstantSlot(c, 0)
}

// ConstantSlot returns slot i of a compile-time constant, reading through
// splats, diagonal and resized matrices, compounds and casts.
func ConstantSlot(e Expression, i int) (float64, bool) {
	switch e := e.(type) {
	case *Literal:
		if i != 0 {
			return 0, false
		}
		return e.Value, true
	case *VariableReference:
		c, ok := ConstantExpression(e)
		if !ok {
			return 0, false
		}
		return ConstantSlot(c, i)
	case *ConstructorSplat:
		return ConstantSlot(e.Arg, 0)
	case *ConstructorDiagonalMatrix:
		rows := e.typ.Rows()
		if i/rows == i%rows {
			return ConstantSlot(e.Arg, 0)
		}
		return 0, IsCompileTimeConstant(e.Arg)
	case *ConstructorMatrixResize:
		col, row := i/e.typ.Rows(), i%e.typ.Rows()
		src := e.Arg.Type()
		if col < src.Columns() && row < src.Rows() {
			return ConstantSlot(e.Arg, col*src.Rows()+row)
		}
		if !IsCompileTimeConstant(e.Arg) {
			return 0, false
		}
		if col == row {
			return 1, true
		}
		return 0, true
	case *ConstructorScalarCast:
		v, ok := ConstantSlot(e.Arg, 0)
		if !ok {
			return 0, false
		}
		return ConvertScalarValue(v, e.Arg.Type(), e.typ), true
	case *ConstructorCompoundCast:
		v, ok := ConstantSlot(e.Arg, i)
		if !ok {
			return 0, false
		}
		return ConvertScalarValue(v, e.Arg.Type().ComponentType(), e.typ.ComponentType()), true
	case *ConstructorArrayCast:
		v, ok := ConstantSlot(e.Arg, i)
		return v, ok
	case Constructor:
		for _, a := range e.Arguments() {
			n := a.Type().SlotCount()
			if i < n {
				return ConstantSlot(a, i)
			}
			i -= n
		}
	}
	return 0, false
}

// IsConstantSplat reports whether every slot of e is the constant v.
func IsConstantSplat(e Expression, v float64) bool {
	c, ok := ConstantExpression(e)
	if !ok {
		return false
	}
	for i := range c.Type().SlotCount() {
		got, ok := ConstantSlot(c, i)
		if !ok || got != v {
			return false
		}
	}
	return true
}

// IsSameExpressionTree reports structural equality of two side-effect-free
// expressions.
func IsSameExpressionTree(a, b Expression) bool {
	if a.Kind() != b.Kind() || a.Type() != b.Type() {
		return false
	}
	switch a := a.(type) {
	case *Literal:
		return a.Value == b.(*Literal).Value
	case *VariableReference:
		return a.Variable == b.(*VariableReference).Variable
	case *Swizzle:
		bs := b.(*Swizzle)
		if len(a.Components) != len(bs.Components) {
			return false
		}
		for i := range a.Components {
			if a.Components[i] != bs.Components[i] {
				return false
			}
		}
		return IsSameExpressionTree(a.Base, bs.Base)
	case *FieldAccess:
		bf := b.(*FieldAccess)
		return a.Index == bf.Index && IsSameExpressionTree(a.Base, bf.Base)
	case *IndexExpression:
		bi := b.(*IndexExpression)
		return IsSameExpressionTree(a.Base, bi.Base) && IsSameExpressionTree(a.Index, bi.Index)
	case *PrefixExpression:
		bp := b.(*PrefixExpression)
		return a.Op == bp.Op && IsSameExpressionTree(a.Operand, bp.Operand)
	case *BinaryExpression:
		bb := b.(*BinaryExpression)
		return a.Op == bb.Op && !a.Op.IsAssignment() &&
			IsSameExpressionTree(a.Left, bb.Left) && IsSameExpressionTree(a.Right, bb.Right)
	case Constructor:
		aa, ba := a.Arguments(), b.(Constructor).Arguments()
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !IsSameExpressionTree(aa[i], ba[i]) {
				return false
			}
		}
		return true
	}
	return false
}
