//go:build darwin

package msl

import (
	"testing"

	"github.com/gogpu/shade/ir"
)

func TestMSLCompilesWithXcrun(t *testing.T) {
	f := newFixture()
	lay := ir.DefaultLayout()
	lay.Binding = 1
	tex := f.global("tex", f.tt.Sampler2D, ir.FlagUniform, lay)
	uv := f.located("uv", f.tt.Float2, ir.FlagIn, 0)
	m := f.uniform("m", f.tt.Float2x2)
	scaled := ir.MakeBinary(f.ctx, noPos, f.read(m), ir.OpSlash, f.read(m))
	coords := ir.MakeBinary(f.ctx, noPos, scaled, ir.OpStar, f.read(uv))
	call := ir.MakeIntrinsicCall(f.ctx, noPos, ir.IntrinsicSample, []ir.Expression{f.read(tex), coords})

	options := DefaultOptions()
	source, _, err := Compile(f.program(t, call), options)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	verifyMSLWithXcrun(t, source, options)
}
