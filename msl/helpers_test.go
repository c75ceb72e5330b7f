package msl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
)

func TestHelpers_MatrixEqualityOnce(t *testing.T) {
	f := newFixture()
	a := f.uniform("a", f.tt.Float2x2)
	b := f.uniform("b", f.tt.Float2x2)
	test := ir.MakeBinary(f.ctx, noPos,
		ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpEq, f.read(b)),
		ir.OpLogicalAnd,
		ir.MakeBinary(f.ctx, noPos, f.read(b), ir.OpEq, f.read(a)))
	one := ir.MakeSplat(f.ctx, noPos, f.tt.Half4, ir.MakeLiteral(f.ctx, noPos, 1, f.tt.Half))
	zero := ir.MakeSplat(f.ctx, noPos, f.tt.Half4, ir.MakeLiteral(f.ctx, noPos, 0, f.tt.Half))
	g := generate(t, f.program(t, ir.MakeTernary(f.ctx, noPos, test, one, zero)), DefaultOptions())
	source := g.String()

	if got := strings.Count(source, "bool operator==(const float2x2 left, const float2x2 right)"); got != 1 {
		t.Errorf("operator== defined %d times, want 1:\n%s", got, source)
	}
	mustContain(t, source,
		"return all(left[0] == right[0]) &&\n           all(left[1] == right[1]);",
		"_uniforms.a == _uniforms.b && _uniforms.b == _uniforms.a ? half4(1.0h) : half4(0.0h)",
	)
	want := []string{"operator==(float2x2, float2x2)", "operator!=(float2x2, float2x2)"}
	if diff := cmp.Diff(want, g.Info().Helpers); diff != "" {
		t.Errorf("Helpers mismatch (-want +got):\n%s", diff)
	}
}

func TestHelpers_Mod(t *testing.T) {
	f := newFixture()
	x := f.uniform("x", f.tt.Float2)
	y := f.uniform("y", f.tt.Float2)
	mod := func() ir.Expression {
		return ir.MakeIntrinsicCall(f.ctx, noPos, ir.IntrinsicMod, []ir.Expression{f.read(x), f.read(y)})
	}
	result := ir.MakeCompound(f.ctx, noPos, f.tt.Float4, []ir.Expression{mod(), mod()})
	source := compile(t, f.program(t, result))

	if got := strings.Count(source, "float2 mod(float2 x, float2 y) {"); got != 1 {
		t.Errorf("mod defined %d times, want 1:\n%s", got, source)
	}
	mustContain(t, source,
		"    return x - y * floor(x / y);\n",
		"half4(float4(mod(_uniforms.x, _uniforms.y), mod(_uniforms.x, _uniforms.y)))",
	)
}

func TestHelpers_OutParamWrapper(t *testing.T) {
	f := newFixture()
	out := ir.NewVariable(noPos, "v", f.tt.Float, ir.Modifiers{Flags: ir.FlagOut, Layout: ir.DefaultLayout()}, ir.StorageParameter)
	setOne := f.function("setOne", f.tt.Void, []*ir.Variable{out}, f.assign(out, f.float(1)))

	c := f.local("c", f.tt.Float4)
	y := ir.MakeSwizzle(f.ctx, noPos, f.read(c), []int8{1})
	p := f.entry(t, ir.ProgramFragment, f.tt.Float4,
		ir.MakeVarDeclaration(f.ctx, noPos, c, ir.MakeSplat(f.ctx, noPos, f.tt.Float4, f.float(0))),
		ir.MakeExpressionStatement(f.ctx, noPos, ir.MakeFunctionCall(f.ctx, noPos, setOne, []ir.Expression{y})),
		ir.MakeReturn(f.ctx, noPos, f.read(c)))
	g := generate(t, p, DefaultOptions())

	mustContain(t, g.String(),
		"void setOne(thread float& v);\n",
		"void setOne(thread float& v) {\n    v = 1.0;\n}\n",
		`void _skOutParamHelper_setOne(thread float4& _0) {
    float _var0;
    setOne(_var0);
    _0.y = _var0;
}
`,
		"    _skOutParamHelper_setOne(c);\n",
	)
	want := []string{"out-param wrapper setOne(out float4 _0.y)"}
	if diff := cmp.Diff(want, g.Info().Helpers); diff != "" {
		t.Errorf("Helpers mismatch (-want +got):\n%s", diff)
	}
}
