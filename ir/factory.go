package ir

import (
	"strings"
)

// MakeFieldAccess selects member index of a struct value. With
// Settings.Optimize a field of a side-effect-free struct constructor is
// replaced by the constructor's argument.
func MakeFieldAccess(ctx *Context, pos Position, base Expression, index int) Expression {
	bt := base.Type()
	if !bt.IsStruct() {
		ctx.Errors.Errorf(pos, "type '%s' does not have fields", bt)
		ctx.Release(base)
		return MakePoison(ctx, pos, nil)
	}
	if index < 0 || index >= len(bt.Fields()) {
		internalf(pos, "field %d of %s", index, bt)
	}
	if c, ok := base.(*ConstructorStruct); ok && ctx.Settings.Optimize {
		pure := true
		for i, a := range c.Args {
			if i != index && HasSideEffects(a) {
				pure = false
				break
			}
		}
		if pure {
			field := c.Args[index]
			for i, a := range c.Args {
				if i != index {
					ctx.Release(a)
				}
			}
			ctx.discard(c)
			return field
		}
	}
	return track(ctx, &FieldAccess{node: node{pos: pos}, Base: base, Index: index})
}

// MakeInterfaceField references member index of an interface block
// declared without an instance name.
func MakeInterfaceField(ctx *Context, pos Position, v *Variable, index int) Expression {
	if v.Block == nil || v.Block.InstanceName != "" {
		internalf(pos, "anonymous field of %s outside an unnamed interface block", v.Name)
	}
	ref := MakeVariableReference(ctx, pos, v, RefRead)
	return track(ctx, &FieldAccess{node: node{pos: pos}, Base: ref, Index: index, Anonymous: true})
}

// MakeIndex builds base[index] over an array, vector or matrix. Constant
// indexes are range checked; with Settings.Optimize a constant index into
// a vector becomes a swizzle and a constant index into a side-effect-free
// array constructor becomes the element.
func MakeIndex(ctx *Context, pos Position, base, index Expression) Expression {
	bt, it := base.Type(), index.Type()
	fail := func(format string, args ...any) Expression {
		ctx.Errors.Errorf(pos, format, args...)
		ctx.Release(base)
		ctx.Release(index)
		return MakePoison(ctx, pos, nil)
	}
	if !it.IsScalar() || !it.IsInteger() {
		return fail("index expression must be an integer, but found '%s'", it)
	}
	var t *Type
	length := 0
	switch {
	case bt.IsArray():
		t, length = bt.ComponentType(), bt.ArrayLength()
	case bt.IsVector():
		t, length = bt.ComponentType(), bt.Columns()
	case bt.IsMatrix():
		t, length = ctx.Types.Vector(bt.ComponentType(), bt.Rows()), bt.Columns()
	default:
		return fail("expected array, but found '%s'", bt)
	}

	if v, ok := GetConstantValue(index); ok {
		if v < 0 || int(v) >= length {
			return fail("index %d out of range for '%s'", int64(v), bt)
		}
		if ctx.Settings.Optimize {
			i := int(v)
			if bt.IsVector() {
				ctx.Release(index)
				return MakeSwizzle(ctx, pos, base, []int8{int8(i)})
			}
			if c, ok := base.(*ConstructorArray); ok && !HasSideEffects(c) {
				ctx.Release(index)
				elem := c.Args[i]
				for j, a := range c.Args {
					if j != i {
						ctx.Release(a)
					}
				}
				ctx.discard(c)
				return elem
			}
		}
	}
	return track(ctx, &IndexExpression{node: node{pos: pos}, typ: t, Base: base, Index: index})
}

// checkArguments verifies args against params and marks out parameters.
func checkArguments(ctx *Context, pos Position, name string, params []*Variable, args []Expression) bool {
	if len(params) != len(args) {
		ctx.Errors.Errorf(pos, "call to '%s' expected %d argument%s, but found %d",
			name, len(params), plural(len(params)), len(args))
		return false
	}
	ok := true
	for i, p := range params {
		a := args[i]
		if a.Type() != p.Type() {
			ctx.Errors.Errorf(a.Position(), "expected '%s', but found '%s'", p.Type(), a.Type())
			ok = false
			continue
		}
		if p.Modifiers.Has(FlagOut) {
			if !IsAssignable(a) {
				ctx.Errors.Errorf(a.Position(), "argument %d of '%s' must be assignable", i+1, name)
				ok = false
				continue
			}
			if p.Modifiers.Has(FlagIn) {
				SetRefKind(a, RefReadWrite)
			} else {
				SetRefKind(a, RefWrite)
			}
		}
	}
	return ok
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// MakeFunctionCall calls a user function. Argument types must match the
// parameters exactly; arguments for out parameters must be assignable.
func MakeFunctionCall(ctx *Context, pos Position, fn *FunctionDeclaration, args []Expression) Expression {
	if !checkArguments(ctx, pos, fn.Name, fn.Params, args) {
		ctx.releaseAll(args)
		return MakePoison(ctx, pos, fn.ReturnType)
	}
	return track(ctx, &FunctionCall{node: node{pos: pos}, typ: fn.ReturnType, Function: fn, Args: args})
}

// IntrinsicDeclaration returns the shared declaration of intrinsic k for
// the given argument types.
func (c *Context) IntrinsicDeclaration(k IntrinsicKind, ret *Type, argTypes []*Type) *FunctionDeclaration {
	var key strings.Builder
	key.WriteString(k.String())
	for _, t := range argTypes {
		key.WriteByte(',')
		key.WriteString(t.String())
	}
	if c.intrinsics == nil {
		c.intrinsics = make(map[string]*FunctionDeclaration)
	}
	if d, ok := c.intrinsics[key.String()]; ok {
		return d
	}
	params := make([]*Variable, len(argTypes))
	for i, t := range argTypes {
		params[i] = NewVariable(Position{}, string(rune('a'+i)), t, DefaultModifiers(), StorageParameter)
	}
	d := NewFunctionDeclaration(Position{}, k.String(), params, ret, Modifiers{Flags: FlagPure, Layout: DefaultLayout()})
	d.Intrinsic = k
	c.intrinsics[key.String()] = d
	return d
}

// MakeIntrinsicCall calls builtin k. With Settings.Optimize, calls on
// constant arguments that have a compile-time evaluation are folded slot
// by slot.
func MakeIntrinsicCall(ctx *Context, pos Position, k IntrinsicKind, args []Expression) Expression {
	types := make([]*Type, len(args))
	for i, a := range args {
		if _, bad := a.(*Poison); bad {
			ctx.releaseAll(args)
			return MakePoison(ctx, pos, nil)
		}
		types[i] = a.Type()
	}
	ret, ok := IntrinsicReturnType(ctx.Types, k, types)
	if !ok {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.String()
		}
		ctx.Errors.Errorf(pos, "no match for %s(%s)", k, strings.Join(names, ", "))
		ctx.releaseAll(args)
		return MakePoison(ctx, pos, nil)
	}
	if ctx.Settings.Optimize {
		if e := foldIntrinsicCall(ctx, pos, k, ret, args); e != nil {
			return e
		}
	}
	decl := ctx.IntrinsicDeclaration(k, ret, types)
	return track(ctx, &FunctionCall{node: node{pos: pos}, typ: ret, Function: decl, Args: args})
}

// foldIntrinsicCall evaluates a component-wise float intrinsic whose
// arguments are all constant scalars or constants of the result's shape.
func foldIntrinsicCall(ctx *Context, pos Position, k IntrinsicKind, ret *Type, args []Expression) Expression {
	if !ret.IsFloat() || !(ret.IsScalar() || ret.IsVector()) {
		return nil
	}
	n := ret.SlotCount()
	slots := make([][]float64, len(args))
	for i, a := range args {
		vals, ok := constantSlots(a)
		if !ok || (len(vals) != 1 && len(vals) != n) {
			return nil
		}
		slots[i] = vals
	}
	out := make([]float64, n)
	scalar := make([]float64, len(args))
	for i := range n {
		for j, vals := range slots {
			scalar[j] = vals[min(i, len(vals)-1)]
		}
		v, ok := FoldIntrinsic(k, scalar)
		if !ok {
			return nil
		}
		out[i] = v
	}
	ctx.releaseAll(args)
	return makeConstant(ctx, pos, ret, out)
}

// MakeChildCall samples a child object. Shaders take a float2 coordinate,
// color filters a half4 color and blenders a source and destination half4.
func MakeChildCall(ctx *Context, pos Position, child *Variable, args []Expression) Expression {
	ct := child.Type()
	if !ct.IsChild() {
		ctx.Errors.Errorf(pos, "'%s' is not a child effect", child.Name)
		ctx.releaseAll(args)
		return MakePoison(ctx, pos, nil)
	}
	tt := ctx.Types
	var want []*Type
	switch ct.ChildKind() {
	case ChildShader:
		want = []*Type{tt.Float2}
	case ChildColorFilter:
		want = []*Type{tt.Half4}
	case ChildBlender:
		want = []*Type{tt.Half4, tt.Half4}
	}
	ok := len(args) == len(want)
	for i := 0; ok && i < len(args); i++ {
		ok = args[i].Type().MatchesAsLiteral(want[i])
	}
	if !ok {
		ctx.Errors.Errorf(pos, "invalid arguments to child '%s'", child.Name)
		ctx.releaseAll(args)
		return MakePoison(ctx, pos, tt.Half4)
	}
	for i, a := range args {
		args[i] = castTo(ctx, pos, want[i], a)
	}
	return track(ctx, &ChildCall{node: node{pos: pos}, typ: tt.Half4, Child: child, Args: args})
}
