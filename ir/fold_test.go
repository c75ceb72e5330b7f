package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMakeBinary_Folding(t *testing.T) {
	tests := []struct {
		name  string
		build func(ctx *Context) Expression
		want  string
	}{
		{"float addition", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, floatLit(ctx, 1), OpPlus, floatLit(ctx, 2))
		}, "3.0"},
		{"integer division truncates", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, intLit(ctx, 7), OpSlash, intLit(ctx, 2))
		}, "3"},
		{"integer overflow wraps", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, intLit(ctx, 2147483647), OpPlus, intLit(ctx, 1))
		}, "-2147483648"},
		{"comparison", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, intLit(ctx, 1), OpLt, intLit(ctx, 2))
		}, "true"},
		{"vector by scalar", func(ctx *Context) Expression {
			v := MakeCompound(ctx, noPos, ctx.Types.Float2, []Expression{floatLit(ctx, 1), floatLit(ctx, 2)})
			return MakeBinary(ctx, noPos, v, OpStar, floatLit(ctx, 3))
		}, "float2(3.0, 6.0)"},
		{"vector equality", func(ctx *Context) Expression {
			s := MakeSplat(ctx, noPos, ctx.Types.Float2, floatLit(ctx, 1))
			c := MakeCompound(ctx, noPos, ctx.Types.Float2, []Expression{floatLit(ctx, 1), floatLit(ctx, 1)})
			return MakeBinary(ctx, noPos, s, OpEq, c)
		}, "true"},
		{"shift", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, intLit(ctx, 1), OpShl, intLit(ctx, 4))
		}, "16"},
		{"and with false", func(ctx *Context) Expression {
			b := localVar("b", ctx.Types.Bool)
			return MakeBinary(ctx, noPos, MakeBoolLiteral(ctx, noPos, false), OpLogicalAnd, read(ctx, b))
		}, "false"},
		{"and with true", func(ctx *Context) Expression {
			b := localVar("b", ctx.Types.Bool)
			return MakeBinary(ctx, noPos, MakeBoolLiteral(ctx, noPos, true), OpLogicalAnd, read(ctx, b))
		}, "b"},
		{"or with true", func(ctx *Context) Expression {
			b := localVar("b", ctx.Types.Bool)
			return MakeBinary(ctx, noPos, MakeBoolLiteral(ctx, noPos, true), OpLogicalOr, read(ctx, b))
		}, "true"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, false)
			e := tc.build(ctx)
			if got := Description(e); got != tc.want {
				t.Errorf("Description = %q, want %q", got, tc.want)
			}
			if ctx.Errors.HasErrors() {
				t.Errorf("unexpected errors: %v", ctx.Errors.Err())
			}
			ctx.Release(e)
			closeTestContext(t, ctx)
		})
	}
}

func TestMakeBinary_Identities(t *testing.T) {
	tests := []struct {
		name  string
		build func(ctx *Context, x Expression) Expression
	}{
		{"x + 0", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, x, OpPlus, floatLit(ctx, 0))
		}},
		{"0 + x", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, floatLit(ctx, 0), OpPlus, x)
		}},
		{"x - 0", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, x, OpMinus, floatLit(ctx, 0))
		}},
		{"x * 1", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, x, OpStar, floatLit(ctx, 1))
		}},
		{"1 * x", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, floatLit(ctx, 1), OpStar, x)
		}},
		{"x / 1", func(ctx *Context, x Expression) Expression {
			return MakeBinary(ctx, noPos, x, OpSlash, floatLit(ctx, 1))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, true)
			x := read(ctx, localVar("x", ctx.Types.Float3))
			if got := tc.build(ctx, x); got != x {
				t.Errorf("%s = %s, want x itself", tc.name, Description(got))
			}
			ctx.Release(x)
			closeTestContext(t, ctx)
		})
	}
}

func TestMakeBinary_ScalarIdentityKeepsVectorType(t *testing.T) {
	ctx := newTestContext(t, true)
	tt := ctx.Types
	x := localVar("x", tt.Float)

	// float + float3(0) has type float3, so x alone cannot replace it.
	e := MakeBinary(ctx, noPos, read(ctx, x), OpPlus, MakeSplat(ctx, noPos, tt.Float3, floatLit(ctx, 0)))
	if _, ok := e.(*BinaryExpression); !ok {
		t.Errorf("x + float3(0) = %s, want the binary kept", Description(e))
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestMakeBinary_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(ctx *Context) Expression
		want  string
	}{
		{"type mismatch", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, floatLit(ctx, 1), OpPlus, MakeBoolLiteral(ctx, noPos, true))
		}, "type mismatch: '+' cannot operate on 'float', 'bool'"},
		{"division by zero", func(ctx *Context) Expression {
			return MakeBinary(ctx, noPos, intLit(ctx, 1), OpSlash, intLit(ctx, 0))
		}, "division by zero"},
		{"assign to const", func(ctx *Context) Expression {
			k := NewVariable(noPos, "k", ctx.Types.Float, Modifiers{Flags: FlagConst, Layout: DefaultLayout()}, StorageLocal)
			return MakeBinary(ctx, noPos, read(ctx, k), OpAssign, floatLit(ctx, 1))
		}, "cannot assign to this expression"},
		{"assign to uniform", func(ctx *Context) Expression {
			u := globalVar("u", ctx.Types.Float, FlagUniform)
			return MakeBinary(ctx, noPos, read(ctx, u), OpPlusEq, floatLit(ctx, 1))
		}, "cannot assign to this expression"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, false)
			e := tc.build(ctx)
			if got := firstError(ctx); got != tc.want {
				t.Errorf("error = %q, want %q", got, tc.want)
			}
			ctx.Release(e)
			closeTestContext(t, ctx)
		})
	}
}

func TestMakeBinary_AssignmentRefKinds(t *testing.T) {
	ctx := newTestContext(t, false)
	x := localVar("x", ctx.Types.Float)

	assign := MakeBinary(ctx, noPos, read(ctx, x), OpAssign, floatLit(ctx, 1)).(*BinaryExpression)
	if got := assign.Left.(*VariableReference).Ref; got != RefWrite {
		t.Errorf("x = 1 left ref = %d, want RefWrite", got)
	}
	compound := MakeBinary(ctx, noPos, read(ctx, x), OpStarEq, floatLit(ctx, 2)).(*BinaryExpression)
	if got := compound.Left.(*VariableReference).Ref; got != RefReadWrite {
		t.Errorf("x *= 2 left ref = %d, want RefReadWrite", got)
	}
	if !HasSideEffects(assign) {
		t.Error("assignment should have side effects")
	}

	ctx.Release(assign)
	ctx.Release(compound)
	closeTestContext(t, ctx)
}

func TestMakePrefix(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	neg := MakePrefix(ctx, noPos, OpMinus, MakeSplat(ctx, noPos, tt.Float2, floatLit(ctx, 2)))
	if diff := cmp.Diff([]float64{-2, -2}, slotsOf(t, neg)); diff != "" {
		t.Errorf("-float2(2) slots mismatch (-want +got):\n%s", diff)
	}
	not := MakePrefix(ctx, noPos, OpLogicalNot, MakeBoolLiteral(ctx, noPos, true))
	if got := Description(not); got != "false" {
		t.Errorf("!true = %q, want false", got)
	}
	inv := MakePrefix(ctx, noPos, OpBitwiseNot, intLit(ctx, 0))
	if got := Description(inv); got != "-1" {
		t.Errorf("~0 = %q, want -1", got)
	}
	bad := MakePrefix(ctx, noPos, OpLogicalNot, floatLit(ctx, 1))
	if _, ok := bad.(*Poison); !ok {
		t.Errorf("!1.0 = %s, want poison", Description(bad))
	}

	for _, e := range []Expression{neg, not, inv, bad} {
		ctx.Release(e)
	}
	closeTestContext(t, ctx)
}

func TestMakePrefix_DoubleNegation(t *testing.T) {
	ctx := newTestContext(t, true)
	x := read(ctx, localVar("x", ctx.Types.Float))

	if got := MakePrefix(ctx, noPos, OpMinus, MakePrefix(ctx, noPos, OpMinus, x)); got != x {
		t.Errorf("-(-x) = %s, want x", Description(got))
	}

	ctx.Release(x)
	closeTestContext(t, ctx)
}

func TestMakeTernary(t *testing.T) {
	ctx := newTestContext(t, true)
	tt := ctx.Types
	x, y := read(ctx, localVar("x", tt.Float)), read(ctx, localVar("y", tt.Float))

	if got := MakeTernary(ctx, noPos, MakeBoolLiteral(ctx, noPos, false), x, y); got != y {
		t.Errorf("false ? x : y = %s, want y", Description(got))
	}

	b := read(ctx, localVar("b", tt.Bool))
	mismatch := MakeTernary(ctx, noPos, b, floatLit(ctx, 1), intLit(ctx, 1))
	if _, ok := mismatch.(*Poison); !ok {
		t.Errorf("b ? 1.0 : 1 = %s, want poison", Description(mismatch))
	}

	ctx.Release(y)
	ctx.Release(mismatch)
	closeTestContext(t, ctx)
}

func TestMakeIndex(t *testing.T) {
	ctx := newTestContext(t, true)
	tt := ctx.Types
	v := localVar("v", tt.Float3)

	e := MakeIndex(ctx, noPos, read(ctx, v), intLit(ctx, 1))
	if got := Description(e); got != "v.y" {
		t.Errorf("v[1] = %q, want v.y", got)
	}

	bad := MakeIndex(ctx, noPos, read(ctx, v), intLit(ctx, 5))
	if want := "index 5 out of range for 'float3'"; firstError(ctx) != want {
		t.Errorf("error = %q, want %q", firstError(ctx), want)
	}

	m := localVar("m", tt.Float3x3)
	col := MakeIndex(ctx, noPos, read(ctx, m), read(ctx, localVar("i", tt.Int)))
	if col.Type() != tt.Float3 {
		t.Errorf("m[i] type = %s, want float3", col.Type())
	}

	for _, n := range []Expression{e, bad, col} {
		ctx.Release(n)
	}
	closeTestContext(t, ctx)
}

func TestMakeFieldAccess_StructConstructor(t *testing.T) {
	ctx := newTestContext(t, true)
	tt := ctx.Types
	s := tt.Struct("S", []Field{{Name: "a", Type: tt.Float}, {Name: "b", Type: tt.Int}})

	c := MakeStruct(ctx, noPos, s, []Expression{floatLit(ctx, 1), intLit(ctx, 2)})
	e := MakeFieldAccess(ctx, noPos, c, 1)
	if got := Description(e); got != "2" {
		t.Errorf("S(1.0, 2).b = %q, want 2", got)
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestMakeIntrinsicCall(t *testing.T) {
	ctx := newTestContext(t, true)
	tt := ctx.Types

	folded := MakeIntrinsicCall(ctx, noPos, IntrinsicMax, []Expression{
		MakeCompound(ctx, noPos, tt.Float2, []Expression{floatLit(ctx, 1), floatLit(ctx, 5)}),
		floatLit(ctx, 2),
	})
	if got := Description(folded); got != "float2(2.0, 5.0)" {
		t.Errorf("max(float2(1, 5), 2) = %q, want float2(2.0, 5.0)", got)
	}

	x := localVar("x", tt.Float3)
	a := MakeIntrinsicCall(ctx, noPos, IntrinsicLength, []Expression{read(ctx, x)})
	b := MakeIntrinsicCall(ctx, noPos, IntrinsicLength, []Expression{read(ctx, x)})
	ca, cb := a.(*FunctionCall), b.(*FunctionCall)
	if ca.Function != cb.Function {
		t.Error("identical intrinsic signatures should share one declaration")
	}
	if ca.Type() != tt.Float {
		t.Errorf("length(float3) type = %s, want float", ca.Type())
	}
	if HasSideEffects(ca) {
		t.Error("intrinsic calls are pure")
	}

	bad := MakeIntrinsicCall(ctx, noPos, IntrinsicDot, []Expression{MakeBoolLiteral(ctx, noPos, true), MakeBoolLiteral(ctx, noPos, true)})
	if _, ok := bad.(*Poison); !ok {
		t.Errorf("dot(bool, bool) = %s, want poison", Description(bad))
	}

	for _, e := range []Expression{folded, a, b, bad} {
		ctx.Release(e)
	}
	closeTestContext(t, ctx)
}

func TestMakeFunctionCall_OutParameter(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	p := NewVariable(noPos, "p", tt.Float, Modifiers{Flags: FlagOut, Layout: DefaultLayout()}, StorageParameter)
	fn := NewFunctionDeclaration(noPos, "f", []*Variable{p}, tt.Void, DefaultModifiers())
	x := localVar("x", tt.Float)

	call := MakeFunctionCall(ctx, noPos, fn, []Expression{read(ctx, x)}).(*FunctionCall)
	if got := call.Args[0].(*VariableReference).Ref; got != RefWrite {
		t.Errorf("out argument ref = %d, want RefWrite", got)
	}

	bad := MakeFunctionCall(ctx, noPos, fn, []Expression{floatLit(ctx, 1)})
	if want := "argument 1 of 'f' must be assignable"; firstError(ctx) != want {
		t.Errorf("error = %q, want %q", firstError(ctx), want)
	}

	ctx.Release(call)
	ctx.Release(bad)
	closeTestContext(t, ctx)
}
