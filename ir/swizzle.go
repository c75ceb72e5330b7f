package ir

// swizzleSource locates one slot of a compound constructor argument.
type swizzleSource struct {
	arg       int
	component int8
}

// MakeSwizzle selects components of a scalar or vector. With
// Settings.Optimize the swizzle is simplified where that cannot change
// evaluation: identity swizzles vanish, nested swizzles compose, swizzles of
// splats resize the splat and swizzles of constructors regroup the
// constructor's arguments.
func MakeSwizzle(ctx *Context, pos Position, base Expression, components []int8) Expression {
	bt := base.Type()
	width := 1
	switch {
	case bt.IsVector():
		width = bt.Columns()
	case bt.IsScalar():
	default:
		ctx.Errors.Errorf(pos, "cannot swizzle value of type '%s'", bt)
		ctx.Release(base)
		return MakePoison(ctx, pos, nil)
	}
	if len(components) == 0 || len(components) > 4 {
		ctx.Errors.Errorf(pos, "too many components in swizzle mask")
		ctx.Release(base)
		return MakePoison(ctx, pos, nil)
	}
	for _, c := range components {
		if c < 0 || int(c) >= width {
			ctx.Errors.Errorf(pos, "invalid swizzle component for type '%s'", bt)
			ctx.Release(base)
			return MakePoison(ctx, pos, nil)
		}
	}
	t := ctx.Types.ToCompound(bt, len(components), 1)

	if ctx.Settings.Optimize {
		if e := simplifySwizzle(ctx, pos, t, base, components); e != nil {
			return e
		}
	}
	comps := make([]int8, len(components))
	copy(comps, components)
	return track(ctx, &Swizzle{node: node{pos: pos}, typ: t, Base: base, Components: comps})
}

// simplifySwizzle returns the simplified form, or nil when the swizzle node
// must be kept.
func simplifySwizzle(ctx *Context, pos Position, t *Type, base Expression, components []int8) Expression {
	bt := base.Type()

	if bt.IsScalar() {
		if len(components) == 1 {
			return base
		}
		return MakeSplat(ctx, pos, t, base)
	}

	if len(components) == bt.Columns() {
		identity := true
		for i, c := range components {
			if int(c) != i {
				identity = false
				break
			}
		}
		if identity {
			return base
		}
	}

	switch b := base.(type) {
	case *Swizzle:
		composed := make([]int8, len(components))
		for i, c := range components {
			composed[i] = b.Components[c]
		}
		inner := b.Base
		ctx.discard(b)
		return MakeSwizzle(ctx, pos, inner, composed)

	case *ConstructorSplat:
		arg := b.Arg
		ctx.discard(b)
		if len(components) == 1 {
			return arg
		}
		return MakeSplat(ctx, pos, t, arg)

	case *ConstructorCompound:
		return regroupCompound(ctx, pos, t, b, components)
	}
	return nil
}

// regroupCompound rewrites compound(args).mask as a compound built from
// swizzles of the individual args. It gives up when an argument would be
// duplicated and is not trivial, when a side-effecting argument would not
// be evaluated exactly once, or when side-effecting arguments would be
// evaluated out of order.
func regroupCompound(ctx *Context, pos Position, t *Type, c *ConstructorCompound, components []int8) Expression {
	var slots []swizzleSource
	for i, a := range c.Args {
		at := a.Type()
		if !at.IsScalar() && !at.IsVector() {
			return nil
		}
		for j := range at.SlotCount() {
			slots = append(slots, swizzleSource{arg: i, component: int8(j)})
		}
	}

	uses := make([]int, len(c.Args))
	for _, comp := range components {
		uses[slots[comp].arg]++
	}
	lastEffect := -1
	for i, a := range c.Args {
		effects := HasSideEffects(a)
		if uses[i] > 1 && !IsTrivialExpression(a) {
			return nil
		}
		if effects && uses[i] != 1 {
			return nil
		}
	}
	for _, comp := range components {
		arg := slots[comp].arg
		if !HasSideEffects(c.Args[arg]) {
			continue
		}
		if arg < lastEffect {
			return nil
		}
		lastEffect = arg
	}

	remaining := append([]int(nil), uses...)
	var newArgs []Expression
	for i := 0; i < len(components); {
		src := slots[components[i]]
		group := []int8{src.component}
		j := i + 1
		for ; j < len(components); j++ {
			next := slots[components[j]]
			if next.arg != src.arg {
				break
			}
			group = append(group, next.component)
		}
		i = j

		var arg Expression
		remaining[src.arg] -= len(group)
		if remaining[src.arg] > 0 {
			arg = Clone(ctx, c.Args[src.arg])
		} else {
			arg = c.Args[src.arg]
		}
		newArgs = append(newArgs, MakeSwizzle(ctx, pos, arg, group))
	}
	for i, a := range c.Args {
		if uses[i] == 0 {
			ctx.Release(a)
		}
	}
	ctx.discard(c)
	return MakeCompound(ctx, pos, t, newArgs)
}
