package ir

// MakeBlock creates a statement list. Nil statements are dropped.
func MakeBlock(ctx *Context, pos Position, kind BlockKind, stmts []Statement, isScope bool) *Block {
	out := stmts[:0]
	for _, s := range stmts {
		if s != nil {
			out = append(out, s)
		}
	}
	return track(ctx, &Block{node: node{pos: pos}, BlockKind: kind, Statements: out, IsScope: isScope})
}

// MakeVarDeclaration declares v with an optional initializer. The
// initializer of a const variable must be a compile-time constant and is
// recorded as the variable's value.
func MakeVarDeclaration(ctx *Context, pos Position, v *Variable, value Expression) *VarDeclaration {
	t := v.Type()
	switch {
	case t.IsVoid():
		ctx.Errors.Errorf(pos, "variables of type 'void' are not allowed")
	case (t.IsChild() || t.IsSampler()) && v.Storage == StorageLocal:
		ctx.Errors.Errorf(pos, "variables of type '%s' must be global", t)
	}
	if value != nil {
		if _, bad := value.(*Poison); !bad && value.Type() != t {
			ctx.Errors.Errorf(value.Position(), "expected '%s', but found '%s'", t, value.Type())
		}
		if v.IsUniform() || v.Modifiers.Has(FlagIn) {
			ctx.Errors.Errorf(value.Position(), "'%s' variables cannot have initial values", v.Name)
		}
	}
	if v.IsConst() {
		switch {
		case value == nil:
			ctx.Errors.Errorf(pos, "'const' variables must be initialized")
		case !IsCompileTimeConstant(value):
			if _, bad := value.(*Poison); !bad {
				ctx.Errors.Errorf(value.Position(), "'const' variable initializer must be a constant expression")
			}
		default:
			v.Value = value
		}
	}
	return track(ctx, &VarDeclaration{node: node{pos: pos}, Var: v, Value: value})
}

func checkCondition(ctx *Context, test Expression) bool {
	if test.Type() == ctx.Types.Bool {
		return true
	}
	if _, bad := test.(*Poison); !bad {
		ctx.Errors.Errorf(test.Position(), "expected 'bool', but found '%s'", test.Type())
	}
	return false
}

// MakeIf creates an if statement. With Settings.Optimize a constant test
// keeps only the branch taken.
func MakeIf(ctx *Context, pos Position, test Expression, ifTrue, ifFalse Statement) Statement {
	checkCondition(ctx, test)
	if ctx.Settings.Optimize {
		if v, ok := GetConstantValue(test); ok {
			ctx.Release(test)
			keep, drop := ifTrue, ifFalse
			if v == 0 {
				keep, drop = ifFalse, ifTrue
			}
			if drop != nil {
				ctx.Release(drop)
			}
			if keep == nil {
				return MakeNop(ctx, pos)
			}
			return keep
		}
	}
	return track(ctx, &IfStatement{node: node{pos: pos}, Test: test, IfTrue: ifTrue, IfFalse: ifFalse})
}

// MakeFor creates a for loop and records its static trip count when the
// loop has one. Init, test and next may be nil.
func MakeFor(ctx *Context, pos Position, init Statement, test, next Expression, body Statement) Statement {
	if test != nil {
		checkCondition(ctx, test)
	}
	f := &ForStatement{node: node{pos: pos}, Init: init, Test: test, Next: next, Body: body}
	f.Unroll = LoopUnrollInfoFor(f)
	return track(ctx, f)
}

// MakeDo creates a do-while loop.
func MakeDo(ctx *Context, pos Position, body Statement, test Expression) Statement {
	checkCondition(ctx, test)
	return track(ctx, &DoStatement{node: node{pos: pos}, Body: body, Test: test})
}

// MakeSwitchCase creates a case labelled value.
func MakeSwitchCase(ctx *Context, pos Position, value int64, body Statement) *SwitchCase {
	return track(ctx, &SwitchCase{node: node{pos: pos}, Value: value, Body: body})
}

// MakeDefaultCase creates the default case.
func MakeDefaultCase(ctx *Context, pos Position, body Statement) *SwitchCase {
	return track(ctx, &SwitchCase{node: node{pos: pos}, IsDefault: true, Body: body})
}

// MakeSwitch creates a switch over an integer value. Case values must be
// distinct and at most one case may be the default.
func MakeSwitch(ctx *Context, pos Position, value Expression, cases []*SwitchCase) Statement {
	if vt := value.Type(); !vt.IsScalar() || !vt.IsInteger() {
		if _, bad := value.(*Poison); !bad {
			ctx.Errors.Errorf(value.Position(), "expected 'int', but found '%s'", vt)
		}
	}
	seen := make(map[int64]bool, len(cases))
	hasDefault := false
	for _, c := range cases {
		if c.IsDefault {
			if hasDefault {
				ctx.Errors.Errorf(c.Position(), "duplicate default case")
			}
			hasDefault = true
			continue
		}
		if seen[c.Value] {
			ctx.Errors.Errorf(c.Position(), "duplicate case value '%d'", c.Value)
		}
		seen[c.Value] = true
	}
	return track(ctx, &SwitchStatement{node: node{pos: pos}, Value: value, Cases: cases})
}

// MakeReturn creates a return statement; value may be nil.
func MakeReturn(ctx *Context, pos Position, value Expression) Statement {
	return track(ctx, &ReturnStatement{node: node{pos: pos}, Value: value})
}

func MakeBreak(ctx *Context, pos Position) Statement {
	return track(ctx, &BreakStatement{node: node{pos: pos}})
}

func MakeContinue(ctx *Context, pos Position) Statement {
	return track(ctx, &ContinueStatement{node: node{pos: pos}})
}

func MakeDiscard(ctx *Context, pos Position) Statement {
	return track(ctx, &DiscardStatement{node: node{pos: pos}})
}

// MakeExpressionStatement evaluates e for its effects. With
// Settings.Optimize an expression without side effects becomes a Nop.
func MakeExpressionStatement(ctx *Context, pos Position, e Expression) Statement {
	if ctx.Settings.Optimize && !HasSideEffects(e) {
		ctx.Release(e)
		return MakeNop(ctx, pos)
	}
	return track(ctx, &ExpressionStatement{node: node{pos: pos}, Expr: e})
}

func MakeNop(ctx *Context, pos Position) Statement {
	return track(ctx, &Nop{node: node{pos: pos}})
}

// validateFunction checks return values against the declaration and the
// placement of break, continue and discard.
func validateFunction(ctx *Context, kind ProgramKind, decl *FunctionDeclaration, body *Block) {
	ret := decl.ReturnType
	var check func(s Statement, loops, switches int)
	check = func(s Statement, loops, switches int) {
		if s == nil {
			return
		}
		switch s := s.(type) {
		case *Block:
			for _, c := range s.Statements {
				check(c, loops, switches)
			}
		case *IfStatement:
			check(s.IfTrue, loops, switches)
			check(s.IfFalse, loops, switches)
		case *ForStatement:
			check(s.Init, loops, switches)
			check(s.Body, loops+1, switches)
		case *DoStatement:
			check(s.Body, loops+1, switches)
		case *SwitchStatement:
			for _, c := range s.Cases {
				check(c.Body, loops, switches+1)
			}
		case *ReturnStatement:
			switch {
			case s.Value == nil && !ret.IsVoid():
				ctx.Errors.Errorf(s.Position(), "expected function to return '%s'", ret)
			case s.Value != nil && ret.IsVoid():
				ctx.Errors.Errorf(s.Position(), "may not return a value from a void function")
			case s.Value != nil && s.Value.Type() != ret:
				if _, bad := s.Value.(*Poison); !bad {
					ctx.Errors.Errorf(s.Value.Position(), "expected '%s', but found '%s'", ret, s.Value.Type())
				}
			}
		case *BreakStatement:
			if loops == 0 && switches == 0 {
				ctx.Errors.Errorf(s.Position(), "break statement must be inside a loop or switch")
			}
		case *ContinueStatement:
			if loops == 0 {
				ctx.Errors.Errorf(s.Position(), "continue statement must be inside a loop")
			}
		case *DiscardStatement:
			if kind != ProgramFragment {
				ctx.Errors.Errorf(s.Position(), "discard statement is only permitted in fragment shaders")
			}
		}
	}
	check(body, 0, 0)
	if !ret.IsVoid() && !alwaysExits(body) {
		ctx.Errors.Errorf(decl.Pos, "function '%s' can exit without returning a value", decl.Name)
	}
}

// alwaysExits reports statements after which control never falls through.
func alwaysExits(s Statement) bool {
	switch s := s.(type) {
	case *ReturnStatement, *DiscardStatement:
		return true
	case *Block:
		for _, c := range s.Statements {
			if alwaysExits(c) {
				return true
			}
		}
	case *IfStatement:
		return s.IfFalse != nil && alwaysExits(s.IfTrue) && alwaysExits(s.IfFalse)
	case *ForStatement:
		return s.Test == nil && !containsBreak(s.Body)
	case *DoStatement:
		return alwaysExits(s.Body)
	}
	return false
}

// containsBreak reports a break that leaves the loop containing s.
func containsBreak(s Statement) bool {
	switch s := s.(type) {
	case *BreakStatement:
		return true
	case *Block:
		for _, c := range s.Statements {
			if containsBreak(c) {
				return true
			}
		}
	case *IfStatement:
		return containsBreak(s.IfTrue) || (s.IfFalse != nil && containsBreak(s.IfFalse))
	}
	return false
}
