package ir

import "math"

// makeConstant builds a constant of scalar, vector or matrix type t from
// its slot values.
func makeConstant(ctx *Context, pos Position, t *Type, vals []float64) Expression {
	if t.IsScalar() {
		return MakeLiteral(ctx, pos, vals[0], t)
	}
	comp := t.ComponentType()
	args := make([]Expression, len(vals))
	for i, v := range vals {
		args[i] = MakeLiteral(ctx, pos, v, comp)
	}
	return MakeCompound(ctx, pos, t, args)
}

// constantSlots returns every slot of a compile-time constant.
func constantSlots(e Expression) ([]float64, bool) {
	c, ok := ConstantExpression(e)
	if !ok {
		return nil, false
	}
	n := c.Type().SlotCount()
	out := make([]float64, n)
	for i := range n {
		v, ok := ConstantSlot(c, i)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// IsAssignable reports whether e may appear on the left of an assignment.
func IsAssignable(e Expression) bool {
	switch e := e.(type) {
	case *VariableReference:
		v := e.Variable
		if v.IsConst() || v.IsUniform() || v.Modifiers.Has(FlagIn) && v.Storage != StorageParameter {
			return false
		}
		return !v.Type().IsChild() && !v.Type().IsSampler()
	case *FieldAccess:
		return IsAssignable(e.Base)
	case *IndexExpression:
		return IsAssignable(e.Base)
	case *Swizzle:
		seen := 0
		for _, c := range e.Components {
			if seen&(1<<c) != 0 {
				return false
			}
			seen |= 1 << c
		}
		return IsAssignable(e.Base)
	}
	return false
}

// SetRefKind marks the variable written through lvalue e.
func SetRefKind(e Expression, kind RefKind) {
	switch e := e.(type) {
	case *VariableReference:
		e.Ref = kind
	case *FieldAccess:
		SetRefKind(e.Base, kind)
	case *IndexExpression:
		SetRefKind(e.Base, kind)
	case *Swizzle:
		SetRefKind(e.Base, kind)
	}
}

// MakeBinary builds left op right. Constant operands are folded, and with
// Settings.Optimize arithmetic identities are removed.
func MakeBinary(ctx *Context, pos Position, left Expression, op Operator, right Expression) Expression {
	if _, bad := left.(*Poison); bad {
		ctx.Release(right)
		return left
	}
	if _, bad := right.(*Poison); bad {
		ctx.Release(left)
		return right
	}
	lt, rt := left.Type(), right.Type()
	t, ok := DetermineBinaryType(ctx.Types, lt, op, rt)
	if !ok {
		ctx.Errors.Errorf(pos, "type mismatch: '%s' cannot operate on '%s', '%s'", op, lt, rt)
		ctx.Release(left)
		ctx.Release(right)
		return MakePoison(ctx, pos, nil)
	}

	if op.IsAssignment() {
		if !IsAssignable(left) {
			ctx.Errors.Errorf(pos, "cannot assign to this expression")
			ctx.Release(left)
			ctx.Release(right)
			return MakePoison(ctx, pos, t)
		}
		if op == OpAssign {
			SetRefKind(left, RefWrite)
		} else {
			SetRefKind(left, RefReadWrite)
		}
		return track(ctx, &BinaryExpression{node: node{pos: pos}, typ: t, Left: left, Op: op, Right: right})
	}

	if op == OpComma {
		if ctx.Settings.Optimize && !HasSideEffects(left) {
			ctx.Release(left)
			return right
		}
		return track(ctx, &BinaryExpression{node: node{pos: pos}, typ: t, Left: left, Op: op, Right: right})
	}

	if e := foldLogical(ctx, pos, left, op, right); e != nil {
		return e
	}
	if e := foldBinary(ctx, pos, t, left, op, right); e != nil {
		return e
	}
	if ctx.Settings.Optimize {
		if e := simplifyIdentity(ctx, t, left, op, right); e != nil {
			return e
		}
	}
	return track(ctx, &BinaryExpression{node: node{pos: pos}, typ: t, Left: left, Op: op, Right: right})
}

// foldLogical short-circuits && and || with a constant left side and
// folds ^^ of two constants.
func foldLogical(ctx *Context, pos Position, left Expression, op Operator, right Expression) Expression {
	if !op.IsLogical() {
		return nil
	}
	lv, lok := GetConstantValue(left)
	rv, rok := GetConstantValue(right)
	switch op {
	case OpLogicalAnd:
		if lok {
			ctx.Release(left)
			if lv == 0 {
				ctx.Release(right)
				return MakeBoolLiteral(ctx, pos, false)
			}
			return right
		}
		if rok && rv != 0 {
			ctx.Release(right)
			return left
		}
	case OpLogicalOr:
		if lok {
			ctx.Release(left)
			if lv != 0 {
				ctx.Release(right)
				return MakeBoolLiteral(ctx, pos, true)
			}
			return right
		}
		if rok && rv == 0 {
			ctx.Release(right)
			return left
		}
	case OpLogicalXor:
		if lok && rok {
			ctx.Release(left)
			ctx.Release(right)
			return MakeBoolLiteral(ctx, pos, (lv != 0) != (rv != 0))
		}
	}
	return nil
}

// foldBinary evaluates constant scalar and vector operations slot by
// slot. Matrix arithmetic other than component-wise + and - is left to the
// backends.
func foldBinary(ctx *Context, pos Position, t *Type, left Expression, op Operator, right Expression) Expression {
	lvals, lok := constantSlots(left)
	if !lok {
		return nil
	}
	rvals, rok := constantSlots(right)
	if !rok {
		return nil
	}
	lt, rt := left.Type(), right.Type()

	if op.IsEquality() {
		if len(lvals) != len(rvals) {
			return nil
		}
		equal := true
		for i := range lvals {
			if lvals[i] != rvals[i] {
				equal = false
				break
			}
		}
		ctx.Release(left)
		ctx.Release(right)
		return MakeBoolLiteral(ctx, pos, equal == (op == OpEq))
	}

	if lt.IsMatrix() || rt.IsMatrix() {
		if !(op == OpPlus || op == OpMinus) || !lt.SameShape(rt) {
			return nil
		}
	}

	kind := lt.NumberKind()
	if (op == OpSlash || op == OpPercent) && kind != NumberFloat {
		for _, v := range rvals {
			if v == 0 {
				ctx.Errors.Errorf(pos, "division by zero")
				return nil
			}
		}
	}
	if op == OpShl || op == OpShr {
		for _, v := range rvals {
			if v < 0 || v >= 32 {
				ctx.Errors.Errorf(pos, "shift value out of range")
				return nil
			}
		}
	}

	n := t.SlotCount()
	if op.IsRelational() {
		n = 1
	}
	out := make([]float64, n)
	for i := range n {
		a := lvals[min(i, len(lvals)-1)]
		b := rvals[min(i, len(rvals)-1)]
		v, ok := evalBinary(op, a, b, kind)
		if !ok {
			return nil
		}
		if !op.IsRelational() {
			v = wrapInteger(v, t.ComponentType())
		}
		out[i] = v
	}
	ctx.Release(left)
	ctx.Release(right)
	return makeConstant(ctx, pos, t, out)
}

// evalBinary applies op to two constant slots of the given number kind.
func evalBinary(op Operator, a, b float64, kind NumberKind) (float64, bool) {
	boolean := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	var v float64
	switch op {
	case OpPlus:
		v = a + b
	case OpMinus:
		v = a - b
	case OpStar:
		v = a * b
	case OpSlash:
		if b == 0 {
			return 0, false
		}
		if kind == NumberFloat {
			v = a / b
		} else {
			v = math.Trunc(a / b)
		}
	case OpPercent:
		if b == 0 {
			return 0, false
		}
		v = float64(int64(a) % int64(b))
	case OpShl:
		v = float64(int64(a) << uint(b))
	case OpShr:
		if kind == NumberUnsigned {
			v = float64(uint32(a) >> uint(b))
		} else {
			v = float64(int32(a) >> uint(b))
		}
	case OpBitwiseAnd:
		v = float64(int64(a) & int64(b))
	case OpBitwiseOr:
		v = float64(int64(a) | int64(b))
	case OpBitwiseXor:
		v = float64(int64(a) ^ int64(b))
	case OpLt:
		return boolean(a < b), true
	case OpGt:
		return boolean(a > b), true
	case OpLtEq:
		return boolean(a <= b), true
	case OpGtEq:
		return boolean(a >= b), true
	default:
		return 0, false
	}
	if kind == NumberFloat && (math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) > math.MaxFloat32) {
		return 0, false
	}
	return v, true
}

// simplifyIdentity removes x+0, 0+x, x-0, x*1, 1*x and x/1 when the
// result has the type of x.
func simplifyIdentity(ctx *Context, t *Type, left Expression, op Operator, right Expression) Expression {
	keepLeft := func() Expression {
		if left.Type() != t {
			return nil
		}
		ctx.Release(right)
		return left
	}
	keepRight := func() Expression {
		if right.Type() != t {
			return nil
		}
		ctx.Release(left)
		return right
	}
	if left.Type().IsMatrix() || right.Type().IsMatrix() {
		// x*1 is not an identity when 1 is a scalar or diagonal matrix
		if op != OpPlus && op != OpMinus {
			return nil
		}
	}
	switch op {
	case OpPlus:
		if IsConstantSplat(right, 0) {
			return keepLeft()
		}
		if IsConstantSplat(left, 0) {
			return keepRight()
		}
	case OpMinus:
		if IsConstantSplat(right, 0) {
			return keepLeft()
		}
	case OpStar:
		if IsConstantSplat(right, 1) {
			return keepLeft()
		}
		if IsConstantSplat(left, 1) {
			return keepRight()
		}
	case OpSlash:
		if IsConstantSplat(right, 1) {
			return keepLeft()
		}
	}
	return nil
}

// MakePrefix builds op operand. Constant operands fold; with
// Settings.Optimize, double negation and double logical not cancel.
func MakePrefix(ctx *Context, pos Position, op Operator, operand Expression) Expression {
	if _, bad := operand.(*Poison); bad {
		return operand
	}
	t := operand.Type()
	invalid := func() Expression {
		ctx.Errors.Errorf(pos, "'%s' cannot operate on '%s'", op, t)
		ctx.Release(operand)
		return MakePoison(ctx, pos, nil)
	}
	switch op {
	case OpPlus:
		if !t.IsNumber() || t.IsArray() {
			return invalid()
		}
		return operand

	case OpMinus:
		if !t.IsNumber() || t.IsArray() || t.IsStruct() {
			return invalid()
		}
		if vals, ok := constantSlots(operand); ok {
			for i, v := range vals {
				vals[i] = wrapInteger(-v, t.ComponentType())
			}
			ctx.Release(operand)
			return makeConstant(ctx, pos, t, vals)
		}
		if inner, ok := operand.(*PrefixExpression); ok && inner.Op == OpMinus && ctx.Settings.Optimize {
			ctx.discard(inner)
			return inner.Operand
		}

	case OpLogicalNot:
		if t != ctx.Types.Bool {
			return invalid()
		}
		if v, ok := GetConstantValue(operand); ok {
			ctx.Release(operand)
			return MakeBoolLiteral(ctx, pos, v == 0)
		}
		if inner, ok := operand.(*PrefixExpression); ok && inner.Op == OpLogicalNot && ctx.Settings.Optimize {
			ctx.discard(inner)
			return inner.Operand
		}

	case OpBitwiseNot:
		if !t.IsInteger() || !(t.IsScalar() || t.IsVector()) {
			return invalid()
		}
		if vals, ok := constantSlots(operand); ok {
			for i, v := range vals {
				vals[i] = wrapInteger(float64(^int64(v)), t.ComponentType())
			}
			ctx.Release(operand)
			return makeConstant(ctx, pos, t, vals)
		}

	case OpPlusPlus, OpMinusMinus:
		if !t.IsNumber() || !(t.IsScalar() || t.IsVector()) {
			return invalid()
		}
		if !IsAssignable(operand) {
			ctx.Errors.Errorf(pos, "cannot assign to this expression")
			ctx.Release(operand)
			return MakePoison(ctx, pos, t)
		}
		SetRefKind(operand, RefReadWrite)

	default:
		return invalid()
	}
	return track(ctx, &PrefixExpression{node: node{pos: pos}, Op: op, Operand: operand})
}

// MakePostfix builds operand++ or operand--.
func MakePostfix(ctx *Context, pos Position, operand Expression, op Operator) Expression {
	if _, bad := operand.(*Poison); bad {
		return operand
	}
	t := operand.Type()
	if (op != OpPlusPlus && op != OpMinusMinus) || !t.IsNumber() || !(t.IsScalar() || t.IsVector()) {
		ctx.Errors.Errorf(pos, "'%s' cannot operate on '%s'", op, t)
		ctx.Release(operand)
		return MakePoison(ctx, pos, nil)
	}
	if !IsAssignable(operand) {
		ctx.Errors.Errorf(pos, "cannot assign to this expression")
		ctx.Release(operand)
		return MakePoison(ctx, pos, t)
	}
	SetRefKind(operand, RefReadWrite)
	return track(ctx, &PostfixExpression{node: node{pos: pos}, Operand: operand, Op: op})
}

// MakeTernary builds test ? ifTrue : ifFalse. With Settings.Optimize a
// constant test selects its branch.
func MakeTernary(ctx *Context, pos Position, test, ifTrue, ifFalse Expression) Expression {
	release := func() {
		ctx.Release(test)
		ctx.Release(ifTrue)
		ctx.Release(ifFalse)
	}
	if test.Type() != ctx.Types.Bool {
		ctx.Errors.Errorf(pos, "expected 'bool', but found '%s'", test.Type())
		release()
		return MakePoison(ctx, pos, nil)
	}
	if ifTrue.Type() != ifFalse.Type() {
		ctx.Errors.Errorf(pos, "ternary operator result mismatch: '%s', '%s'", ifTrue.Type(), ifFalse.Type())
		release()
		return MakePoison(ctx, pos, nil)
	}
	if ctx.Settings.Optimize {
		if v, ok := GetConstantValue(test); ok {
			ctx.Release(test)
			if v != 0 {
				ctx.Release(ifFalse)
				return ifTrue
			}
			ctx.Release(ifTrue)
			return ifFalse
		}
	}
	return track(ctx, &TernaryExpression{node: node{pos: pos}, Test: test, IfTrue: ifTrue, IfFalse: ifFalse})
}
