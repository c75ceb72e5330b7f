package msl

import (
	"strings"
	"testing"

	"github.com/gogpu/shade/ir"
)

func TestMetalSize(t *testing.T) {
	tt := ir.NewTypeTable()
	point := tt.Struct("Point", []ir.Field{{Name: "x", Type: tt.Float}, {Name: "v", Type: tt.Float3}})
	tests := []struct {
		typ         *ir.Type
		size, align int
	}{
		{tt.Float, 4, 4},
		{tt.Half, 2, 2},
		{tt.Half3, 8, 8},
		{tt.Float3, 16, 16},
		{tt.Float3x3, 48, 16},
		{tt.Array(tt.Float, 3), 12, 4},
		{point, 32, 16},
	}
	for _, tc := range tests {
		if got := metalSize(tc.typ); got != tc.size {
			t.Errorf("metalSize(%s) = %d, want %d", tc.typ, got, tc.size)
		}
		if got := metalAlignment(tc.typ); got != tc.align {
			t.Errorf("metalAlignment(%s) = %d, want %d", tc.typ, got, tc.align)
		}
	}
}

func withOffset(offset int) ir.Layout {
	lay := ir.DefaultLayout()
	lay.Offset = offset
	return lay
}

func TestUniforms_ExplicitOffsets(t *testing.T) {
	f := newFixture()
	f.global("a", f.tt.Float, ir.FlagUniform, withOffset(0))
	f.global("b", f.tt.Float4, ir.FlagUniform, withOffset(32))
	color := f.uniform("color", f.tt.Half4)
	source := compile(t, f.program(t, f.read(color)))

	mustContain(t, source, "struct Uniforms {\n    float a;\n    char pad0[16];\n    float4 b;\n    half4 color;\n};")
}

func TestUniforms_OffsetTooSmall(t *testing.T) {
	f := newFixture()
	f.global("a", f.tt.Float, ir.FlagUniform, withOffset(0))
	f.global("b", f.tt.Float4, ir.FlagUniform, withOffset(8))
	color := f.uniform("color", f.tt.Half4)
	_, _, err := Compile(f.program(t, f.read(color)), DefaultOptions())
	if err == nil {
		t.Fatal("Compile() succeeded, want an offset error")
	}
	if want := "offset of field 'b' must be at least 16"; !strings.Contains(err.Error(), want) {
		t.Errorf("Compile() error = %q, want %q", err, want)
	}
}

func TestStruct_DeclaredBeforeUse(t *testing.T) {
	f := newFixture()
	inner := f.tt.Struct("Inner", []ir.Field{{Name: "w", Type: f.tt.Half}})
	outer := f.tt.Struct("Outer", []ir.Field{{Name: "base", Type: inner}, {Name: "k", Type: f.tt.Half4}})
	f.elem = append(f.elem, ir.NewStructDefinition(f.ctx, noPos, outer))
	s := f.uniform("s", outer)
	source := compile(t, f.program(t, ir.MakeFieldAccess(f.ctx, noPos, f.read(s), 1)))

	i, o := strings.Index(source, "struct Inner {"), strings.Index(source, "struct Outer {")
	if i < 0 || o < 0 || i > o {
		t.Errorf("Inner at %d, Outer at %d, want Inner declared first:\n%s", i, o, source)
	}
	mustContain(t, source, "struct Outer {\n    Inner base;\n    half4 k;\n};", "_uniforms.s.k")
}
