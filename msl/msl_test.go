package msl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
)

var noPos = ir.Position{}

type fixture struct {
	ctx  *ir.Context
	tt   *ir.TypeTable
	elem []ir.ProgramElement
}

func newFixture() *fixture {
	ctx := ir.NewContext(ir.Settings{})
	return &fixture{ctx: ctx, tt: ctx.Types}
}

// global declares a module-scope variable with flags and layout.
func (f *fixture) global(name string, t *ir.Type, flags ir.ModifierFlags, layout ir.Layout) *ir.Variable {
	v := ir.NewVariable(noPos, name, t, ir.Modifiers{Flags: flags, Layout: layout}, ir.StorageGlobal)
	f.elem = append(f.elem, ir.NewGlobalVarDeclaration(f.ctx, ir.MakeVarDeclaration(f.ctx, noPos, v, nil)))
	return v
}

func (f *fixture) uniform(name string, t *ir.Type) *ir.Variable {
	return f.global(name, t, ir.FlagUniform, ir.DefaultLayout())
}

func (f *fixture) builtin(name string, t *ir.Type, id int) *ir.Variable {
	lay := ir.DefaultLayout()
	lay.Builtin = id
	return f.global(name, t, 0, lay)
}

func (f *fixture) located(name string, t *ir.Type, flags ir.ModifierFlags, location int) *ir.Variable {
	lay := ir.DefaultLayout()
	lay.Location = location
	return f.global(name, t, flags, lay)
}

func (f *fixture) local(name string, t *ir.Type) *ir.Variable {
	return ir.NewVariable(noPos, name, t, ir.DefaultModifiers(), ir.StorageLocal)
}

func (f *fixture) read(v *ir.Variable) ir.Expression {
	return ir.MakeVariableReference(f.ctx, noPos, v, ir.RefRead)
}

func (f *fixture) float(v float64) ir.Expression {
	return ir.MakeLiteral(f.ctx, noPos, v, f.tt.Float)
}

func (f *fixture) assign(v *ir.Variable, value ir.Expression) ir.Statement {
	return ir.MakeExpressionStatement(f.ctx, noPos, ir.MakeBinary(f.ctx, noPos, f.read(v), ir.OpAssign, value))
}

func (f *fixture) block(stmts ...ir.Statement) *ir.Block {
	return ir.MakeBlock(f.ctx, noPos, ir.BlockBraced, stmts, true)
}

// function defines a helper function.
func (f *fixture) function(name string, ret *ir.Type, params []*ir.Variable, stmts ...ir.Statement) *ir.FunctionDeclaration {
	decl := ir.NewFunctionDeclaration(noPos, name, params, ret, ir.DefaultModifiers())
	f.elem = append(f.elem, ir.NewFunctionDefinition(f.ctx, noPos, decl, f.block(stmts...)))
	return decl
}

// entry finishes a program of kind whose main has the given body.
func (f *fixture) entry(t *testing.T, kind ir.ProgramKind, ret *ir.Type, stmts ...ir.Statement) *ir.Program {
	t.Helper()
	f.function("main", ret, nil, stmts...)
	p := ir.NewProgram(f.ctx, kind, f.elem)
	if err := f.ctx.Errors.Err(); err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	return p
}

// program finishes a fragment program whose main returns result.
func (f *fixture) program(t *testing.T, result ir.Expression) *ir.Program {
	t.Helper()
	return f.entry(t, ir.ProgramFragment, result.Type(), ir.MakeReturn(f.ctx, noPos, result))
}

func generate(t *testing.T, p *ir.Program, options Options) *Generator {
	t.Helper()
	g := NewGenerator(p, options)
	if !g.Generate() {
		t.Fatalf("Generate() failed: %v", g.Errors.Err())
	}
	return g
}

func compile(t *testing.T, p *ir.Program) string {
	t.Helper()
	source, _, err := Compile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return source
}

func mustContain(t *testing.T, source string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(source, w) {
			t.Errorf("source does not contain %q:\n%s", w, source)
		}
	}
}

func TestCompile_UniformColor(t *testing.T) {
	f := newFixture()
	color := f.uniform("color", f.tt.Half4)
	source := compile(t, f.program(t, f.read(color)))

	want := `#include <metal_stdlib>
#include <simd/simd.h>
using namespace metal;

struct Uniforms {
    half4 color;
};

struct Outputs {
    half4 sk_FragColor [[color(0)]];
};

fragment Outputs fragmentMain(constant Uniforms& _uniforms [[buffer(0)]]) {
    Outputs _out = {};
    _out.sk_FragColor = _uniforms.color;
    return _out;
}
`
	if diff := cmp.Diff(want, source); diff != "" {
		t.Errorf("Compile() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_FragmentInputs(t *testing.T) {
	f := newFixture()
	uv := f.located("uv", f.tt.Float2, ir.FlagIn, 0)
	coord := f.builtin("sk_FragCoord", f.tt.Float4, ir.BuiltinFragCoord)
	zw := ir.MakeSwizzle(f.ctx, noPos, f.read(coord), []int8{2, 3})
	result := ir.MakeCompound(f.ctx, noPos, f.tt.Float4, []ir.Expression{f.read(uv), zw})
	source := compile(t, f.program(t, result))

	mustContain(t, source,
		"struct Inputs {\n    float2 uv [[user(locn0)]];\n};",
		"fragment Outputs fragmentMain(Inputs _in [[stage_in]], float4 _fragCoord [[position]]) {",
		"_out.sk_FragColor = half4(float4(_in.uv, _fragCoord.zw));",
	)
}

func TestCompile_Vertex(t *testing.T) {
	f := newFixture()
	pos := f.located("pos", f.tt.Float2, ir.FlagIn, 0)
	position := f.builtin("sk_Position", f.tt.Float4, ir.BuiltinPosition)
	value := ir.MakeCompound(f.ctx, noPos, f.tt.Float4, []ir.Expression{f.read(pos), f.float(0), f.float(1)})
	p := f.entry(t, ir.ProgramVertex, f.tt.Void, f.assign(position, value))

	g := generate(t, p, DefaultOptions())
	mustContain(t, g.String(),
		"struct Inputs {\n    float2 pos [[attribute(0)]];\n};",
		"struct Outputs {\n    float4 sk_Position [[position]];\n};",
		"vertex Outputs vertexMain(Inputs _in [[stage_in]]) {",
		"    _out.sk_Position = float4(_in.pos, 0.0, 1.0);\n    return _out;\n}",
	)
	if got := g.Info().EntryPoint; got != "vertexMain" {
		t.Errorf("EntryPoint = %q, want %q", got, "vertexMain")
	}
}

func TestCompile_Sampler(t *testing.T) {
	f := newFixture()
	lay := ir.DefaultLayout()
	lay.Binding = 1
	tex := f.global("tex", f.tt.Sampler2D, ir.FlagUniform, lay)
	uv := f.uniform("uv", f.tt.Float2)
	call := ir.MakeIntrinsicCall(f.ctx, noPos, ir.IntrinsicSample, []ir.Expression{f.read(tex), f.read(uv)})
	source := compile(t, f.program(t, call))

	mustContain(t, source,
		"struct Globals {\n    texture2d<half> tex_Tex;\n    sampler tex_Smplr;\n};",
		"fragment Outputs fragmentMain(constant Uniforms& _uniforms [[buffer(0)]], texture2d<half> tex_Tex [[texture(1)]], sampler tex_Smplr [[sampler(1)]]) {",
		"Globals _globals{tex_Tex, tex_Smplr};",
		"_out.sk_FragColor = _globals.tex_Tex.sample(_globals.tex_Smplr, _uniforms.uv);",
	)
}

func TestCompile_EnvironmentParameters(t *testing.T) {
	f := newFixture()
	scale := f.uniform("scale", f.tt.Half)
	x := ir.NewVariable(noPos, "x", f.tt.Half4, ir.DefaultModifiers(), ir.StorageParameter)
	scaled := ir.MakeBinary(f.ctx, noPos, ir.MakeVariableReference(f.ctx, noPos, x, ir.RefRead), ir.OpStar, f.read(scale))
	apply := f.function("apply", f.tt.Half4, []*ir.Variable{x}, ir.MakeReturn(f.ctx, noPos, scaled))

	color := f.uniform("color", f.tt.Half4)
	call := ir.MakeFunctionCall(f.ctx, noPos, apply, []ir.Expression{f.read(color)})
	source := compile(t, f.program(t, call))

	mustContain(t, source,
		"half4 apply(half4 x, constant Uniforms& _uniforms);\n",
		"half4 apply(half4 x, constant Uniforms& _uniforms) {\n    return x * _uniforms.scale;\n}",
		"_out.sk_FragColor = apply(_uniforms.color, _uniforms);",
	)
}

func TestCompile_PrivateGlobals(t *testing.T) {
	f := newFixture()
	u := f.uniform("u", f.tt.Float)
	counter := ir.NewVariable(noPos, "counter", f.tt.Float, ir.DefaultModifiers(), ir.StorageGlobal)
	f.elem = append(f.elem, ir.NewGlobalVarDeclaration(f.ctx, ir.MakeVarDeclaration(f.ctx, noPos, counter, f.read(u))))
	unused := ir.NewVariable(noPos, "unused", f.tt.Float, ir.DefaultModifiers(), ir.StorageGlobal)
	f.elem = append(f.elem, ir.NewGlobalVarDeclaration(f.ctx, ir.MakeVarDeclaration(f.ctx, noPos, unused, f.float(2))))

	result := ir.MakeSplat(f.ctx, noPos, f.tt.Float4, f.read(counter))
	source := compile(t, f.program(t, result))

	mustContain(t, source,
		"struct Globals {\n    float counter;\n};",
		"Globals _globals{};\n    _globals.counter = _uniforms.u;",
		"_out.sk_FragColor = half4(float4(_globals.counter));",
	)
	if strings.Contains(source, "unused") {
		t.Errorf("dead global was emitted:\n%s", source)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *fixture) ir.Expression
		want  string
	}{
		{
			name: "input without location",
			build: func(f *fixture) ir.Expression {
				return f.read(f.global("color", f.tt.Half4, ir.FlagIn, ir.DefaultLayout()))
			},
			want: "layout(location=...) is required for 'color'",
		},
		{
			name: "sampler without binding",
			build: func(f *fixture) ir.Expression {
				s := f.global("tex", f.tt.Sampler2D, ir.FlagUniform, ir.DefaultLayout())
				coords := ir.MakeSplat(f.ctx, noPos, f.tt.Float2, f.float(0))
				return ir.MakeIntrinsicCall(f.ctx, noPos, ir.IntrinsicSample, []ir.Expression{f.read(s), coords})
			},
			want: "layout(binding=...) is required for sampler 'tex'",
		},
		{
			name: "interface block without binding",
			build: func(f *fixture) ir.Expression {
				st := f.tt.Struct("Block", []ir.Field{{Name: "tint", Type: f.tt.Half4}})
				v := ir.NewVariable(noPos, "block", st, ir.Modifiers{Flags: ir.FlagUniform, Layout: ir.DefaultLayout()}, ir.StorageGlobal)
				f.elem = append(f.elem, ir.NewInterfaceBlock(f.ctx, noPos, v, "Block", "block"))
				return ir.MakeFieldAccess(f.ctx, noPos, f.read(v), 0)
			},
			want: "layout(binding=...) is required for interface block 'Block'",
		},
		{
			name: "child call",
			build: func(f *fixture) ir.Expression {
				child := f.global("child", f.tt.Shader, ir.FlagUniform, ir.DefaultLayout())
				coords := ir.MakeSplat(f.ctx, noPos, f.tt.Float2, f.float(0))
				return ir.MakeChildCall(f.ctx, noPos, child, []ir.Expression{coords})
			},
			want: "child effect call is not supported by the Metal backend",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			p := f.program(t, tc.build(f))
			_, _, err := Compile(p, DefaultOptions())
			if err == nil {
				t.Fatal("Compile() succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Compile() error = %q, want %q", err, tc.want)
			}
		})
	}
}

func TestCompile_HeaderComment(t *testing.T) {
	f := newFixture()
	color := f.uniform("color", f.tt.Half4)
	options := DefaultOptions()
	options.Comments = true
	g := generate(t, f.program(t, f.read(color)), options)
	if !strings.HasPrefix(g.String(), "// Metal Shading Language 2.1\n#include <metal_stdlib>\n") {
		t.Errorf("source does not start with the version comment:\n%s", g.String())
	}
}
