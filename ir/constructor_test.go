package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScalarCast_FoldsConstant(t *testing.T) {
	ctx := newTestContext(t, false)

	e := MakeScalarCast(ctx, noPos, ctx.Types.Int, floatLit(ctx, 1.0))
	lit, ok := e.(*Literal)
	if !ok {
		t.Fatalf("int(1.0) = %T, want *Literal", e)
	}
	if lit.Type() != ctx.Types.Int || lit.Value != 1 {
		t.Errorf("int(1.0) = %s %v, want int 1", lit.Type(), lit.Value)
	}

	// Canonical input is returned unchanged.
	if again := MakeScalarCast(ctx, noPos, ctx.Types.Int, e); again != e {
		t.Errorf("int(int literal) allocated a new node %s", Description(again))
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestScalarCast_RoundTrip(t *testing.T) {
	ctx := newTestContext(t, false)

	toInt := MakeScalarCast(ctx, noPos, ctx.Types.Int, floatLit(ctx, 4.9))
	back := MakeScalarCast(ctx, noPos, ctx.Types.Float, toInt)
	v, ok := GetConstantValue(back)
	if !ok || v != 4.0 {
		t.Errorf("float(int(4.9)) = %v, %v, want 4.0", v, ok)
	}
	if back.Type() != ctx.Types.Float {
		t.Errorf("float(int(4.9)) has type %s, want float", back.Type())
	}

	ctx.Release(back)
	closeTestContext(t, ctx)
}

func TestScalarCast_SameTypeIsNoOp(t *testing.T) {
	ctx := newTestContext(t, false)
	x := read(ctx, localVar("x", ctx.Types.Float))

	if got := MakeScalarCast(ctx, noPos, ctx.Types.Float, x); got != x {
		t.Errorf("float(x) = %s, want x itself", Description(got))
	}

	ctx.Release(x)
	closeTestContext(t, ctx)
}

func TestScalarCast_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		typ   func(tt *TypeTable) *Type
		want  string
	}{
		{"int(3e9)", 3e9, func(tt *TypeTable) *Type { return tt.Int }, "value is out of range for type 'int': 3e+09"},
		{"uint(-1.0)", -1, func(tt *TypeTable) *Type { return tt.UInt }, "value is out of range for type 'uint': -1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, false)
			e := MakeScalarCast(ctx, noPos, tc.typ(ctx.Types), floatLit(ctx, tc.value))
			if _, ok := e.(*Poison); !ok {
				t.Errorf("%s = %s, want poison", tc.name, Description(e))
			}
			if got := firstError(ctx); got != tc.want {
				t.Errorf("error = %q, want %q", got, tc.want)
			}
			if ctx.Errors.Count() != 1 {
				t.Errorf("error count = %d, want 1", ctx.Errors.Count())
			}
			ctx.Release(e)
			closeTestContext(t, ctx)
		})
	}
}

func TestLiteralInRange(t *testing.T) {
	tt := NewTypeTable()
	tests := []struct {
		value float64
		typ   *Type
		want  bool
	}{
		{2147483647, tt.Int, true},
		{2147483648, tt.Int, false},
		{-2147483648, tt.Int, true},
		{3e9, tt.Int, false},
		{4294967295, tt.UInt, true},
		{4294967296, tt.UInt, false},
		{-1, tt.UInt, false},
		{1.5, tt.Int, true},
		{1e39, tt.Float, false},
		{3.5e38, tt.Float, false},
		{1e38, tt.Float, true},
	}
	for _, tc := range tests {
		if got := LiteralInRange(tc.value, tc.typ); got != tc.want {
			t.Errorf("LiteralInRange(%v, %s) = %v, want %v", tc.value, tc.typ, got, tc.want)
		}
	}
}

func TestMakeIntLiteral_OutOfRange(t *testing.T) {
	ctx := newTestContext(t, false)

	e := MakeIntLiteral(ctx, noPos, 1<<32, ctx.Types.Int)
	if _, ok := e.(*Poison); !ok {
		t.Errorf("MakeIntLiteral(1<<32) = %s, want poison", Description(e))
	}
	if want := "integer is out of range for type 'int': 4.294967296e+09"; firstError(ctx) != want {
		t.Errorf("error = %q, want %q", firstError(ctx), want)
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestSplat_Slots(t *testing.T) {
	ctx := newTestContext(t, false)

	s := MakeSplat(ctx, noPos, ctx.Types.Float3, floatLit(ctx, 3.0))
	if _, ok := s.(*ConstructorSplat); !ok {
		t.Fatalf("float3(3.0) = %T, want *ConstructorSplat", s)
	}
	if diff := cmp.Diff([]float64{3, 3, 3}, slotsOf(t, s)); diff != "" {
		t.Errorf("float3(3.0) slots mismatch (-want +got):\n%s", diff)
	}

	ctx.Release(s)
	closeTestContext(t, ctx)
}

func TestSplat_CastsArgument(t *testing.T) {
	ctx := newTestContext(t, false)

	s := MakeSplat(ctx, noPos, ctx.Types.Float2, intLit(ctx, 2)).(*ConstructorSplat)
	lit, ok := s.Arg.(*Literal)
	if !ok || lit.Type() != ctx.Types.Float || lit.Value != 2 {
		t.Errorf("float2(2) argument = %s, want float literal 2.0", Description(s.Arg))
	}

	ctx.Release(s)
	closeTestContext(t, ctx)
}

func TestCompoundCast_ConstantSplat(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	e := MakeCompoundCast(ctx, noPos, tt.Int3, MakeSplat(ctx, noPos, tt.Float3, floatLit(ctx, 2.5)))
	s, ok := e.(*ConstructorSplat)
	if !ok {
		t.Fatalf("int3(float3(2.5)) = %T, want *ConstructorSplat", e)
	}
	if s.Type() != tt.Int3 {
		t.Errorf("type = %s, want int3", s.Type())
	}
	if lit, ok := s.Arg.(*Literal); !ok || lit.Type() != tt.Int || lit.Value != 2 {
		t.Errorf("argument = %s, want int literal 2", Description(s.Arg))
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestCompoundCast_ConstantDiagonal(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	e := MakeCompoundCast(ctx, noPos, tt.Half2x2, MakeDiagonalMatrix(ctx, noPos, tt.Float2x2, floatLit(ctx, 2)))
	d, ok := e.(*ConstructorDiagonalMatrix)
	if !ok {
		t.Fatalf("half2x2(float2x2(2)) = %T, want *ConstructorDiagonalMatrix", e)
	}
	if d.Type() != tt.Half2x2 || d.Arg.Type() != tt.Half {
		t.Errorf("got %s with %s argument, want half2x2 with half argument", d.Type(), d.Arg.Type())
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestCompoundCast_ConstantCompound(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	v := MakeCompound(ctx, noPos, tt.Float2, []Expression{floatLit(ctx, 1.5), floatLit(ctx, -2.5)})
	e := MakeCompoundCast(ctx, noPos, tt.Int2, v)
	if _, ok := e.(*ConstructorCompound); !ok {
		t.Fatalf("int2(float2(1.5, -2.5)) = %T, want *ConstructorCompound", e)
	}
	if diff := cmp.Diff([]float64{1, -2}, slotsOf(t, e)); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestMatrixResize_IdentityFill(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	m := MakeCompound(ctx, noPos, tt.Float2x2, []Expression{
		floatLit(ctx, 1), floatLit(ctx, 2), floatLit(ctx, 3), floatLit(ctx, 4),
	})
	r := MakeMatrixResize(ctx, noPos, tt.Float3x3, m)
	if _, ok := r.(*ConstructorMatrixResize); !ok {
		t.Fatalf("float3x3(float2x2) = %T, want *ConstructorMatrixResize", r)
	}
	want := []float64{
		1, 2, 0,
		3, 4, 0,
		0, 0, 1,
	}
	if diff := cmp.Diff(want, slotsOf(t, r)); diff != "" {
		t.Errorf("resized slots mismatch (-want +got):\n%s", diff)
	}

	shrunk := MakeMatrixResize(ctx, noPos, tt.Float2x2, r)
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, slotsOf(t, shrunk)); diff != "" {
		t.Errorf("shrunk slots mismatch (-want +got):\n%s", diff)
	}

	ctx.Release(shrunk)
	closeTestContext(t, ctx)
}

func TestMatrixResize_IdentityStaysDiagonal(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	e := MakeMatrixResize(ctx, noPos, tt.Float4x4, MakeDiagonalMatrix(ctx, noPos, tt.Float2x2, floatLit(ctx, 1)))
	if d, ok := e.(*ConstructorDiagonalMatrix); !ok || d.Type() != tt.Float4x4 {
		t.Errorf("float4x4(float2x2(1)) = %s, want a float4x4 diagonal", Description(e))
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestCompound_SingleArgument(t *testing.T) {
	ctx := newTestContext(t, false)
	v := read(ctx, localVar("v", ctx.Types.Float3))

	if got := MakeCompound(ctx, noPos, ctx.Types.Float3, []Expression{v}); got != v {
		t.Errorf("float3(v) = %s, want v itself", Description(got))
	}

	ctx.Release(v)
	closeTestContext(t, ctx)
}

func TestCompound_Flatten(t *testing.T) {
	tests := []struct {
		optimize bool
		want     int
	}{
		{false, 3},
		{true, 4},
	}
	for _, tc := range tests {
		ctx := newTestContext(t, tc.optimize)
		tt := ctx.Types
		x, y, z, w := localVar("x", tt.Float), localVar("y", tt.Float), localVar("z", tt.Float), localVar("w", tt.Float)

		inner := MakeCompound(ctx, noPos, tt.Float2, []Expression{read(ctx, x), read(ctx, y)})
		e := MakeCompound(ctx, noPos, tt.Float4, []Expression{inner, read(ctx, z), read(ctx, w)})
		c, ok := e.(*ConstructorCompound)
		if !ok {
			t.Fatalf("optimize=%v: got %T, want *ConstructorCompound", tc.optimize, e)
		}
		if len(c.Args) != tc.want {
			t.Errorf("optimize=%v: %s has %d arguments, want %d", tc.optimize, Description(e), len(c.Args), tc.want)
		}

		ctx.Release(e)
		closeTestContext(t, ctx)
	}
}

func TestCompound_EqualConstantsBecomeSplat(t *testing.T) {
	ctx := newTestContext(t, true)

	e := MakeCompound(ctx, noPos, ctx.Types.Float3, []Expression{floatLit(ctx, 1), floatLit(ctx, 1), floatLit(ctx, 1)})
	if _, ok := e.(*ConstructorSplat); !ok {
		t.Errorf("float3(1, 1, 1) = %T, want *ConstructorSplat", e)
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestCompound_ConstVariablesInlined(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	k := NewVariable(noPos, "k", tt.Float, Modifiers{Flags: FlagConst, Layout: DefaultLayout()}, StorageLocal)
	decl := MakeVarDeclaration(ctx, noPos, k, floatLit(ctx, 0.25))
	x := localVar("x", tt.Float)

	e := MakeCompound(ctx, noPos, tt.Float2, []Expression{read(ctx, k), read(ctx, x)})
	if got, want := Description(e), "float2(0.25, x)"; got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}

	ctx.Release(e)
	ctx.Release(decl)
	closeTestContext(t, ctx)
}

func TestMakeConstructor(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types
	v := localVar("v", tt.Float2)
	f := localVar("f", tt.Float3)
	h := localVar("h", tt.Half)

	tests := []struct {
		name string
		typ  *Type
		args func() []Expression
		want string
		kind ExpressionKind
	}{
		{"mixed arguments", tt.Float4, func() []Expression {
			return []Expression{read(ctx, v), floatLit(ctx, 0), intLit(ctx, 1)}
		}, "float4(v, 0.0, 1.0)", ExprConstructorCompound},
		{"splat", tt.Half3, func() []Expression {
			return []Expression{read(ctx, h)}
		}, "half3(h)", ExprConstructorSplat},
		{"diagonal", tt.Float2x2, func() []Expression {
			return []Expression{floatLit(ctx, 2)}
		}, "float2x2(2.0)", ExprConstructorDiagonalMatrix},
		{"cast", tt.Int3, func() []Expression {
			return []Expression{read(ctx, f)}
		}, "int3(f)", ExprConstructorCompoundCast},
		{"scalar", tt.Int, func() []Expression {
			return []Expression{read(ctx, h)}
		}, "int(h)", ExprConstructorScalarCast},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := MakeConstructor(ctx, noPos, tc.typ, tc.args())
			if got := Description(e); got != tc.want {
				t.Errorf("Description = %q, want %q", got, tc.want)
			}
			if e.Kind() != tc.kind {
				t.Errorf("Kind = %d, want %d", e.Kind(), tc.kind)
			}
			ctx.Release(e)
		})
	}
	if ctx.Errors.HasErrors() {
		t.Errorf("unexpected errors: %v", ctx.Errors.Err())
	}
	closeTestContext(t, ctx)
}

func TestMakeConstructor_SlotMismatch(t *testing.T) {
	ctx := newTestContext(t, false)

	e := MakeConstructor(ctx, noPos, ctx.Types.Float3, []Expression{floatLit(ctx, 1), floatLit(ctx, 2)})
	if _, ok := e.(*Poison); !ok {
		t.Errorf("float3(1, 2) = %s, want poison", Description(e))
	}
	want := "invalid arguments to 'float3' constructor (expected 3 slots, but found 2)"
	if got := firstError(ctx); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}

func TestMakeArrayCast_Constant(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	arr := MakeArray(ctx, noPos, tt.Array(tt.Float, 2), []Expression{floatLit(ctx, 1), floatLit(ctx, 2)})
	e := MakeArrayCast(ctx, noPos, tt.Array(tt.Half, 2), arr)
	a, ok := e.(*ConstructorArray)
	if !ok {
		t.Fatalf("half[2](float[2]) = %T, want *ConstructorArray", e)
	}
	for i, elem := range a.Args {
		if elem.Type() != tt.Half {
			t.Errorf("element %d has type %s, want half", i, elem.Type())
		}
	}

	ctx.Release(e)
	closeTestContext(t, ctx)
}
