package ir

// totalSlots sums the slot counts of args.
func totalSlots(args []Expression) int {
	n := 0
	for _, a := range args {
		n += a.Type().SlotCount()
	}
	return n
}

// constantValueFor replaces a reference to a const scalar or vector with a
// copy of its value.
func constantValueFor(ctx *Context, e Expression) Expression {
	ref, ok := e.(*VariableReference)
	if !ok {
		return e
	}
	c, ok := ConstantExpression(ref)
	if !ok {
		return e
	}
	out := Clone(ctx, c)
	ctx.Release(ref)
	return out
}

// MakeScalarCast converts a scalar to type t.
func MakeScalarCast(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	if arg.Type() == t {
		return arg
	}
	if !t.IsScalar() || !arg.Type().IsScalar() {
		internalf(pos, "scalar cast from %s to %s", arg.Type(), t)
	}
	if v, ok := GetConstantValue(arg); ok {
		cv := ConvertScalarValue(v, arg.Type(), t)
		ctx.Release(arg)
		if t.IsInteger() && !LiteralInRange(cv, t) {
			ctx.Errors.Errorf(pos, "value is out of range for type '%s': %v", t, cv)
			return MakePoison(ctx, pos, t)
		}
		return MakeLiteral(ctx, pos, cv, t)
	}
	return track(ctx, &ConstructorScalarCast{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeCompoundCast converts a vector or matrix to type t of the same
// shape.
func MakeCompoundCast(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	at := arg.Type()
	if at == t {
		return arg
	}
	if !t.SameShape(at) || !(t.IsVector() || t.IsMatrix()) {
		internalf(pos, "compound cast from %s to %s", at, t)
	}
	comp := t.ComponentType()
	if c, ok := ConstantExpression(arg); ok {
		var out Expression
		switch c := c.(type) {
		case *ConstructorSplat:
			out = MakeSplat(ctx, pos, t, MakeScalarCast(ctx, pos, comp, Clone(ctx, c.Arg)))
		case *ConstructorDiagonalMatrix:
			out = MakeDiagonalMatrix(ctx, pos, t, MakeScalarCast(ctx, pos, comp, Clone(ctx, c.Arg)))
		default:
			n := t.SlotCount()
			args := make([]Expression, 0, n)
			for i := range n {
				v, _ := ConstantSlot(c, i)
				args = append(args, MakeLiteral(ctx, pos, ConvertScalarValue(v, at.ComponentType(), comp), comp))
			}
			out = MakeCompound(ctx, pos, t, args)
		}
		ctx.Release(arg)
		return out
	}
	return track(ctx, &ConstructorCompoundCast{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeSplat fills vector type t with a scalar. A scalar t becomes a scalar
// cast.
func MakeSplat(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	if t.IsScalar() {
		return MakeScalarCast(ctx, pos, t, arg)
	}
	if !t.IsVector() || !arg.Type().IsScalar() {
		internalf(pos, "splat of %s to %s", arg.Type(), t)
	}
	arg = MakeScalarCast(ctx, pos, t.ComponentType(), constantValueFor(ctx, arg))
	return track(ctx, &ConstructorSplat{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeDiagonalMatrix places a scalar on the diagonal of matrix type t.
func MakeDiagonalMatrix(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	if !t.IsMatrix() || !arg.Type().IsScalar() {
		internalf(pos, "diagonal matrix of %s to %s", arg.Type(), t)
	}
	arg = MakeScalarCast(ctx, pos, t.ComponentType(), constantValueFor(ctx, arg))
	return track(ctx, &ConstructorDiagonalMatrix{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeMatrixResize converts a matrix to matrix type t of another size.
func MakeMatrixResize(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	at := arg.Type()
	if at == t {
		return arg
	}
	if !t.IsMatrix() || !at.IsMatrix() {
		internalf(pos, "matrix resize from %s to %s", at, t)
	}
	if at.ComponentType() != t.ComponentType() {
		arg = MakeCompoundCast(ctx, pos, ctx.Types.WithComponent(at, t.ComponentType()), arg)
		at = arg.Type()
	}
	if at.SameShape(t) {
		return arg
	}
	if d, ok := arg.(*ConstructorDiagonalMatrix); ok && IsConstantSplat(d.Arg, 1) {
		// identity stays identity at any size
		ctx.discard(d)
		return MakeDiagonalMatrix(ctx, pos, t, d.Arg)
	}
	return track(ctx, &ConstructorMatrixResize{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeCompound builds vector or matrix type t from args whose slots add up
// to t's slot count.
func MakeCompound(ctx *Context, pos Position, t *Type, args []Expression) Expression {
	if totalSlots(args) != t.SlotCount() {
		internalf(pos, "compound %s from %d slots", t, totalSlots(args))
	}
	if len(args) == 1 {
		a := args[0]
		if a.Type() == t {
			return a
		}
		if t.IsScalar() {
			return MakeScalarCast(ctx, pos, t, a)
		}
	}
	if !t.IsVector() && !t.IsMatrix() {
		internalf(pos, "compound of non-composite type %s", t)
	}

	if ctx.Settings.Optimize {
		fields := 0
		for _, a := range args {
			if c, ok := a.(*ConstructorCompound); ok {
				fields += len(c.Args)
			} else {
				fields++
			}
		}
		if fields > len(args) {
			flat := make([]Expression, 0, fields)
			for _, a := range args {
				c, ok := a.(*ConstructorCompound)
				if !ok {
					flat = append(flat, a)
					continue
				}
				flat = append(flat, c.Args...)
				ctx.discard(c)
			}
			args = flat
		}
	}

	for i, a := range args {
		args[i] = constantValueFor(ctx, a)
	}

	if ctx.Settings.Optimize && t.IsVector() && allScalarLiterals(args) {
		first := args[0].(*Literal)
		same := true
		for _, a := range args[1:] {
			if a.(*Literal).Value != first.Value {
				same = false
				break
			}
		}
		if same {
			ctx.releaseAll(args[1:])
			return MakeSplat(ctx, pos, t, first)
		}
	}
	return track(ctx, &ConstructorCompound{node: node{pos: pos}, typ: t, Args: args})
}

func allScalarLiterals(args []Expression) bool {
	for _, a := range args {
		if _, ok := a.(*Literal); !ok {
			return false
		}
	}
	return len(args) > 0
}

// castTo converts e to t by the cast kind matching t's shape.
func castTo(ctx *Context, pos Position, t *Type, e Expression) Expression {
	switch {
	case e.Type() == t:
		return e
	case t.IsScalar():
		return MakeScalarCast(ctx, pos, t, e)
	case t.IsArray():
		return MakeArrayCast(ctx, pos, t, e)
	default:
		return MakeCompoundCast(ctx, pos, t, e)
	}
}

// MakeArray builds array type t from its elements.
func MakeArray(ctx *Context, pos Position, t *Type, args []Expression) Expression {
	if !t.IsArray() || len(args) != t.ArrayLength() {
		internalf(pos, "array %s from %d elements", t, len(args))
	}
	for i, a := range args {
		if a.Type() != t.ComponentType() {
			internalf(pos, "array %s element of type %s", t, a.Type())
		}
		args[i] = constantValueFor(ctx, a)
	}
	return track(ctx, &ConstructorArray{node: node{pos: pos}, typ: t, Args: args})
}

// MakeArrayCast converts an array to array type t differing only in element
// precision.
func MakeArrayCast(ctx *Context, pos Position, t *Type, arg Expression) Expression {
	at := arg.Type()
	if at == t {
		return arg
	}
	if !t.IsArray() || !at.IsArray() || !t.MatchesAsLiteral(at) {
		internalf(pos, "array cast from %s to %s", at, t)
	}
	if c, ok := ConstantExpression(arg); ok {
		if ca, ok := c.(*ConstructorArray); ok {
			elems := make([]Expression, len(ca.Args))
			for i, e := range ca.Args {
				elems[i] = castTo(ctx, pos, t.ComponentType(), Clone(ctx, e))
			}
			ctx.Release(arg)
			return MakeArray(ctx, pos, t, elems)
		}
	}
	return track(ctx, &ConstructorArrayCast{node: node{pos: pos}, typ: t, Arg: arg})
}

// MakeStruct builds struct type t from its field values.
func MakeStruct(ctx *Context, pos Position, t *Type, args []Expression) Expression {
	fields := t.Fields()
	if !t.IsStruct() || len(args) != len(fields) {
		internalf(pos, "struct %s from %d values", t, len(args))
	}
	for i, a := range args {
		if a.Type() != fields[i].Type {
			internalf(pos, "struct %s field %s of type %s", t, fields[i].Name, a.Type())
		}
		args[i] = constantValueFor(ctx, a)
	}
	return track(ctx, &ConstructorStruct{node: node{pos: pos}, typ: t, Args: args})
}

// MakeConstructor picks the constructor form for t(args...), casting
// arguments to t's component type where needed. Invalid argument lists are
// reported and produce a Poison.
func MakeConstructor(ctx *Context, pos Position, t *Type, args []Expression) Expression {
	fail := func(format string, a ...any) Expression {
		ctx.Errors.Errorf(pos, format, a...)
		ctx.releaseAll(args)
		return MakePoison(ctx, pos, t)
	}
	for _, a := range args {
		if _, bad := a.(*Poison); bad {
			ctx.releaseAll(args)
			return MakePoison(ctx, pos, t)
		}
	}
	switch {
	case t.IsScalar():
		if len(args) != 1 || !args[0].Type().IsScalar() {
			return fail("invalid arguments to '%s' constructor", t)
		}
		if !args[0].Type().IsNumber() && !args[0].Type().IsBoolean() {
			return fail("cannot construct '%s' from '%s'", t, args[0].Type())
		}
		return MakeScalarCast(ctx, pos, t, args[0])

	case t.IsVector() || t.IsMatrix():
		if len(args) == 1 {
			a := args[0]
			at := a.Type()
			switch {
			case at.IsScalar():
				if !at.IsNumber() && !at.IsBoolean() {
					return fail("cannot construct '%s' from '%s'", t, at)
				}
				if t.IsMatrix() {
					return MakeDiagonalMatrix(ctx, pos, t, a)
				}
				return MakeSplat(ctx, pos, t, a)
			case at.IsMatrix() && t.IsMatrix():
				if at.SameShape(t) {
					return MakeCompoundCast(ctx, pos, t, a)
				}
				return MakeMatrixResize(ctx, pos, t, a)
			case at.SameShape(t):
				return MakeCompoundCast(ctx, pos, t, a)
			}
		}
		if totalSlots(args) != t.SlotCount() {
			return fail("invalid arguments to '%s' constructor (expected %d slots, but found %d)",
				t, t.SlotCount(), totalSlots(args))
		}
		comp := t.ComponentType()
		for i, a := range args {
			at := a.Type()
			if !at.IsScalar() && !at.IsVector() && !(at.IsMatrix() && t.IsVector()) {
				return fail("'%s' is not a valid argument to '%s' constructor", at, t)
			}
			if at.ComponentType() != comp {
				args[i] = castTo(ctx, pos, ctx.Types.WithComponent(at, comp), a)
			}
		}
		return MakeCompound(ctx, pos, t, args)

	case t.IsArray():
		if len(args) == 1 && args[0].Type().IsArray() {
			if !args[0].Type().MatchesAsLiteral(t) {
				return fail("cannot construct '%s' from '%s'", t, args[0].Type())
			}
			return MakeArrayCast(ctx, pos, t, args[0])
		}
		if len(args) != t.ArrayLength() {
			return fail("invalid arguments to '%s' constructor (expected %d elements, but found %d)",
				t, t.ArrayLength(), len(args))
		}
		for i, a := range args {
			if a.Type() != t.ComponentType() {
				if !a.Type().MatchesAsLiteral(t.ComponentType()) {
					return fail("expected '%s', but found '%s'", t.ComponentType(), a.Type())
				}
				args[i] = castTo(ctx, pos, t.ComponentType(), a)
			}
		}
		return MakeArray(ctx, pos, t, args)

	case t.IsStruct():
		fields := t.Fields()
		if len(args) != len(fields) {
			return fail("invalid arguments to '%s' constructor (expected %d elements, but found %d)",
				t, len(fields), len(args))
		}
		for i, a := range args {
			if a.Type() != fields[i].Type {
				if !a.Type().MatchesAsLiteral(fields[i].Type) {
					return fail("expected '%s', but found '%s'", fields[i].Type, a.Type())
				}
				args[i] = castTo(ctx, pos, fields[i].Type, a)
			}
		}
		return MakeStruct(ctx, pos, t, args)
	}
	return fail("cannot construct '%s'", t)
}
