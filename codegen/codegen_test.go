package codegen

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
)

var noPos = ir.Position{}

func local(name string, t *ir.Type) *ir.Variable {
	return ir.NewVariable(noPos, name, t, ir.DefaultModifiers(), ir.StorageLocal)
}

func ref(ctx *ir.Context, v *ir.Variable) ir.Expression {
	return ir.MakeVariableReference(ctx, noPos, v, ir.RefRead)
}

func TestOpTable_For(t *testing.T) {
	tt := ir.NewTypeTable()
	add := OpTable[string]{Float: "fadd", Signed: "iadd", Unsigned: "iadd"}
	tests := []struct {
		typ  *ir.Type
		want string
		ok   bool
	}{
		{tt.Float3, "fadd", true},
		{tt.Half, "fadd", true},
		{tt.Int2, "iadd", true},
		{tt.UInt, "iadd", true},
		{tt.Bool, "", false},
	}
	for _, tc := range tests {
		got, ok := add.For(tc.typ)
		if got != tc.want || ok != tc.ok {
			t.Errorf("For(%s) = %q, %v, want %q, %v", tc.typ, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := Integer("shl").For(tt.Float); ok {
		t.Error("Integer table accepted a float operand")
	}
	if op, ok := Uniform("mul").For(tt.Int); !ok || op != "mul" {
		t.Errorf("Uniform(mul).For(int) = %q, %v", op, ok)
	}
}

func TestClassifyBinary(t *testing.T) {
	tt := ir.NewTypeTable()
	s := tt.Struct("S", []ir.Field{{Name: "a", Type: tt.Float}})
	tests := []struct {
		name        string
		left, right *ir.Type
		op          ir.Operator
		want        BinaryPlan
	}{
		{"scalar add", tt.Float, tt.Float, ir.OpPlus,
			BinaryPlan{Shape: ShapeComponentwise, Op: ir.OpPlus, Operand: tt.Float}},
		{"vector times scalar", tt.Float3, tt.Float, ir.OpStar,
			BinaryPlan{Shape: ShapeVectorScalar, Op: ir.OpStar, Operand: tt.Float3}},
		{"scalar minus vector", tt.Int, tt.Int2, ir.OpMinus,
			BinaryPlan{Shape: ShapeVectorScalar, Op: ir.OpMinus, ScalarOnLeft: true, Operand: tt.Int2}},
		{"matrix times matrix", tt.Float2x2, tt.Float2x2, ir.OpStar,
			BinaryPlan{Shape: ShapeMatrixTimesMatrix, Op: ir.OpStar, Operand: tt.Float2x2}},
		{"matrix plus matrix", tt.Float3x3, tt.Float3x3, ir.OpPlus,
			BinaryPlan{Shape: ShapeMatrixComponentwise, Op: ir.OpPlus, Operand: tt.Float3x3}},
		{"matrix times vector", tt.Float4x4, tt.Float4, ir.OpStar,
			BinaryPlan{Shape: ShapeMatrixTimesVector, Op: ir.OpStar, Operand: tt.Float4x4}},
		{"vector times matrix", tt.Float4, tt.Float4x4, ir.OpStar,
			BinaryPlan{Shape: ShapeVectorTimesMatrix, Op: ir.OpStar, Operand: tt.Float4}},
		{"scalar times matrix", tt.Float, tt.Float2x2, ir.OpStarEq,
			BinaryPlan{Shape: ShapeMatrixScalar, Op: ir.OpStar, Assign: true, ScalarOnLeft: true, Operand: tt.Float2x2}},
		{"struct equality", s, s, ir.OpEq,
			BinaryPlan{Shape: ShapeCompositeEquality, Op: ir.OpEq, Operand: s}},
		{"scalar equality", tt.Int, tt.Int, ir.OpNeq,
			BinaryPlan{Shape: ShapeComponentwise, Op: ir.OpNeq, Operand: tt.Int}},
		{"logical", tt.Bool, tt.Bool, ir.OpLogicalOr,
			BinaryPlan{Shape: ShapeLogical, Op: ir.OpLogicalOr, Operand: tt.Bool}},
		{"assign", tt.Float2, tt.Float2, ir.OpAssign,
			BinaryPlan{Shape: ShapeComponentwise, Op: ir.OpAssign, Assign: true, Operand: tt.Float2}},
		{"comma", tt.Int, tt.Float, ir.OpComma,
			BinaryPlan{Shape: ShapeComma, Op: ir.OpComma, Operand: tt.Int}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyBinary(tc.left, tc.op, tc.right)
			if diff := cmp.Diff(tc.want, got, cmp.Comparer(func(a, b *ir.Type) bool { return a == b })); diff != "" {
				t.Errorf("ClassifyBinary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReciprocalDivisor(t *testing.T) {
	ctx := ir.NewContext(ir.Settings{})
	tt := ctx.Types
	x, i := local("x", tt.Float3), local("i", tt.Int)

	tests := []struct {
		name string
		e    ir.Expression
		want float64
		ok   bool
	}{
		{"float literal", ir.MakeBinary(ctx, noPos, ref(ctx, x), ir.OpSlash, ir.MakeLiteral(ctx, noPos, 2, tt.Float)), 0.5, true},
		{"compound assignment", ir.MakeBinary(ctx, noPos, ref(ctx, x), ir.OpSlashEq, ir.MakeLiteral(ctx, noPos, 4, tt.Float)), 0.25, true},
		{"zero", ir.MakeBinary(ctx, noPos, ref(ctx, x), ir.OpSlash, ir.MakeLiteral(ctx, noPos, 0, tt.Float)), 0, false},
		{"integer", ir.MakeBinary(ctx, noPos, ref(ctx, i), ir.OpSlash, ir.MakeIntLiteral(ctx, noPos, 2, tt.Int)), 0, false},
		{"variable divisor", ir.MakeBinary(ctx, noPos, ref(ctx, x), ir.OpSlash, ref(ctx, local("k", tt.Float))), 0, false},
		{"multiply", ir.MakeBinary(ctx, noPos, ref(ctx, x), ir.OpStar, ir.MakeLiteral(ctx, noPos, 2, tt.Float)), 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := tc.e.(*ir.BinaryExpression)
			if !ok {
				t.Fatalf("%s built %T, want a binary expression", ir.Description(tc.e), tc.e)
			}
			got, ok := ReciprocalDivisor(b)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ReciprocalDivisor(%s) = %v, %v, want %v, %v", ir.Description(tc.e), got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestOutParams(t *testing.T) {
	ctx := ir.NewContext(ir.Settings{})
	tt := ctx.Types
	param := func(name string, flags ir.ModifierFlags) *ir.Variable {
		return ir.NewVariable(noPos, name, tt.Float2, ir.Modifiers{Flags: flags, Layout: ir.DefaultLayout()}, ir.StorageParameter)
	}
	fn := ir.NewFunctionDeclaration(noPos, "f",
		[]*ir.Variable{param("a", 0), param("b", ir.FlagOut), param("c", ir.FlagIn|ir.FlagOut)},
		tt.Void, ir.DefaultModifiers())

	v := local("v", tt.Float4)
	w := local("w", tt.Float2)
	args := []ir.Expression{
		ref(ctx, w),
		ir.MakeSwizzle(ctx, noPos, ref(ctx, v), []int8{0, 1}),
		ref(ctx, w),
	}
	plans := OutParams(fn, args)

	type summary struct {
		Mode        ArgMode
		Temporary   bool
		Addressable bool
	}
	var got []summary
	for _, p := range plans {
		got = append(got, summary{p.Mode, p.Temporary, p.Addressable})
	}
	want := []summary{
		{ArgIn, false, true},
		{ArgOut, true, false},
		{ArgInOut, true, true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OutParams mismatch (-want +got):\n%s", diff)
	}
	if !HasOutArguments(plans) {
		t.Error("HasOutArguments = false, want true")
	}
	if HasOutArguments(plans[:1]) {
		t.Error("HasOutArguments(in only) = true, want false")
	}
}

func TestDepthGuard(t *testing.T) {
	errs := ir.NewErrorReporter(0)
	g := NewDepthGuard(3, errs)

	for range 3 {
		if !g.Enter(noPos) {
			t.Fatal("Enter failed below the limit")
		}
	}
	if g.Enter(noPos) || g.Enter(noPos) {
		t.Error("Enter succeeded past the limit")
	}
	if errs.Count() != 1 {
		t.Errorf("reported %d errors, want exactly 1", errs.Count())
	}
	if got := errs.Errors()[0].Message; got != "expression is too deeply nested" {
		t.Errorf("message = %q", got)
	}
	for range 3 {
		g.Leave()
	}
	if g.Depth() != 0 || !g.Tripped() {
		t.Errorf("Depth = %d, Tripped = %v, want 0 and true", g.Depth(), g.Tripped())
	}
}

// nested builds ((((x + 1) + 1) + 1) ...) n levels deep.
func nested(ctx *ir.Context, x *ir.Variable, n int) ir.Expression {
	e := ref(ctx, x)
	for range n {
		e = ir.MakeBinary(ctx, noPos, e, ir.OpPlus, ir.MakeLiteral(ctx, noPos, 1, ctx.Types.Float))
	}
	return e
}

// depthWalker lowers by plain recursion, the way the backends do.
func depthWalker(g *DepthGuard, e ir.Expression) int {
	if !g.Enter(e.Position()) {
		return 0
	}
	defer g.Leave()
	if b, ok := e.(*ir.BinaryExpression); ok {
		return 1 + depthWalker(g, b.Left)
	}
	return 1
}

func TestDepthGuard_PathologicalInput(t *testing.T) {
	ctx := ir.NewContext(ir.Settings{MaxExpressionDepth: 64})
	e := nested(ctx, local("x", ctx.Types.Float), 10000)
	g := NewDepthGuard(ctx.Settings.ExpressionDepth(), ctx.Errors)

	if got := depthWalker(g, e); got != 64 {
		t.Errorf("walked %d levels, want the limit of 64", got)
	}
	if !ctx.Errors.HasErrors() {
		t.Error("deep expression was not reported")
	}
}

func TestQueries(t *testing.T) {
	ctx := ir.NewContext(ir.Settings{})
	tt := ctx.Types
	u := ir.NewVariable(noPos, "u", tt.Half4, ir.Modifiers{Flags: ir.FlagUniform, Layout: ir.DefaultLayout()}, ir.StorageGlobal)
	dead := local("dead", tt.Float)

	entry := ir.NewFunctionDeclaration(noPos, "main", nil, tt.Half4, ir.DefaultModifiers())
	body := ir.MakeBlock(ctx, noPos, ir.BlockBraced, []ir.Statement{
		ir.MakeVarDeclaration(ctx, noPos, dead, ir.MakeLiteral(ctx, noPos, 0, tt.Float)),
		ir.MakeReturn(ctx, noPos, ref(ctx, u)),
	}, true)
	p := ir.NewProgram(ctx, ir.ProgramFragment, []ir.ProgramElement{
		ir.NewGlobalVarDeclaration(ctx, ir.MakeVarDeclaration(ctx, noPos, u, nil)),
		ir.NewFunctionDefinition(ctx, noPos, entry, body),
	})
	if err := ctx.Errors.Err(); err != nil {
		t.Fatal(err)
	}

	q := NewQueries(p)
	if got := q.FunctionRequirements(entry); got != ir.RequireUniforms {
		t.Errorf("FunctionRequirements(main) = %b, want uniforms", got)
	}
	if !q.IsDeadVariable(dead) || q.IsDeadVariable(u) {
		t.Errorf("IsDeadVariable: dead = %v, u = %v", q.IsDeadVariable(dead), q.IsDeadVariable(u))
	}
}
