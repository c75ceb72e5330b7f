package msl

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
)

// lowering returns a finished generator over uniforms x, y and z so tests
// can lower free-standing expressions that read them.
func lowering(t *testing.T) (*fixture, *Generator, [3]*ir.Variable) {
	t.Helper()
	f := newFixture()
	var u [3]*ir.Variable
	for i, name := range []string{"x", "y", "z"} {
		u[i] = f.uniform(name, f.tt.Float)
	}
	color := f.uniform("color", f.tt.Half4)
	g := generate(t, f.program(t, f.read(color)), DefaultOptions())
	return f, g, u
}

func TestExpression_Precedence(t *testing.T) {
	f, g, u := lowering(t)
	x, y, z := u[0], u[1], u[2]
	bin := func(l ir.Expression, op ir.Operator, r ir.Expression) ir.Expression {
		return ir.MakeBinary(f.ctx, noPos, l, op, r)
	}
	tests := []struct {
		name string
		expr ir.Expression
		want string
	}{
		{"sum times", bin(bin(f.read(x), ir.OpPlus, f.read(y)), ir.OpStar, f.read(z)), "(_uniforms.x + _uniforms.y) * _uniforms.z"},
		{"left grouping", bin(bin(f.read(x), ir.OpMinus, f.read(y)), ir.OpMinus, f.read(z)), "_uniforms.x - _uniforms.y - _uniforms.z"},
		{"right grouping", bin(f.read(x), ir.OpMinus, bin(f.read(y), ir.OpMinus, f.read(z))), "_uniforms.x - (_uniforms.y - _uniforms.z)"},
		{"negated operand", bin(f.read(x), ir.OpStar, ir.MakePrefix(f.ctx, noPos, ir.OpMinus, f.read(y))), "_uniforms.x * -_uniforms.y"},
		{
			"ternary",
			ir.MakeTernary(f.ctx, noPos, bin(f.read(x), ir.OpLt, f.read(y)), f.read(y), bin(f.read(x), ir.OpPlus, f.read(z))),
			"_uniforms.x < _uniforms.y ? _uniforms.y : _uniforms.x + _uniforms.z",
		},
		{
			"logical xor",
			bin(bin(f.read(x), ir.OpLt, f.read(y)), ir.OpLogicalXor, bin(f.read(y), ir.OpLt, f.read(z))),
			"_uniforms.x < _uniforms.y != _uniforms.y < _uniforms.z",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.text(tc.expr, ir.PrecedenceTopLevel); got != tc.want {
				t.Errorf("text() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExpression_Literals(t *testing.T) {
	f, g, _ := lowering(t)
	tests := []struct {
		value float64
		typ   *ir.Type
		want  string
	}{
		{1, f.tt.Float, "1.0"},
		{0.5, f.tt.Half, "0.5h"},
		{-3, f.tt.Int, "-3"},
		{7, f.tt.UInt, "7u"},
		{math.MinInt32, f.tt.Int, "-2147483647 - 1"},
		{math.Inf(1), f.tt.Float, "INFINITY"},
		{1, f.tt.Bool, "true"},
	}
	for _, tc := range tests {
		if got := g.literalText(tc.value, tc.typ).text; got != tc.want {
			t.Errorf("literalText(%v, %s) = %q, want %q", tc.value, tc.typ, got, tc.want)
		}
	}
}

func TestExpression_VectorEquality(t *testing.T) {
	f := newFixture()
	a := f.uniform("a", f.tt.Float2)
	b := f.uniform("b", f.tt.Float2)
	color := f.uniform("color", f.tt.Half4)
	g := generate(t, f.program(t, f.read(color)), DefaultOptions())

	eq := ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpEq, f.read(b))
	if got, want := g.text(eq, ir.PrecedenceTopLevel), "all(_uniforms.a == _uniforms.b)"; got != want {
		t.Errorf("a == b = %q, want %q", got, want)
	}
	neq := ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpNeq, f.read(b))
	if got, want := g.text(neq, ir.PrecedenceTopLevel), "any(_uniforms.a != _uniforms.b)"; got != want {
		t.Errorf("a != b = %q, want %q", got, want)
	}
	if len(g.Info().Helpers) != 0 {
		t.Errorf("Helpers = %v, want none for vector equality", g.Info().Helpers)
	}
}

func TestExpression_MatrixHelpers(t *testing.T) {
	f := newFixture()
	a := f.uniform("a", f.tt.Float2x2)
	b := f.uniform("b", f.tt.Float2x2)
	s := f.uniform("s", f.tt.Float)
	color := f.uniform("color", f.tt.Half4)
	g := generate(t, f.program(t, f.read(color)), DefaultOptions())

	for _, e := range []ir.Expression{
		ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpSlash, f.read(b)),
		ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpStar, f.read(b)),
		ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpPlus, f.read(s)),
		ir.MakeBinary(f.ctx, noPos, f.read(a), ir.OpSlash, f.read(b)),
	} {
		g.text(e, ir.PrecedenceTopLevel)
	}
	want := []string{
		"operator/(float2x2, float2x2)",
		"operator/=(float2x2, float2x2)",
		"operator+(float2x2, float)",
		"operator+=(float2x2, float)",
	}
	if diff := cmp.Diff(want, g.Info().Helpers); diff != "" {
		t.Errorf("Helpers mismatch (-want +got):\n%s", diff)
	}
}
