package lanes

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shade/ir"
)

func TestTrace(t *testing.T) {
	f := newFixture()
	coords := f.coords()
	x := f.local("x", f.tt.Float)
	x.Pos = ir.Pos(2, 5)
	decl := ir.MakeVarDeclaration(f.ctx, ir.Pos(2, 5), x, f.binary(f.x(coords), ir.OpStar, f.float(2)))
	ret := ir.MakeReturn(f.ctx, ir.Pos(3, 5), f.color(f.read(x)))
	p := f.shader(t, coords, decl, ret)
	prog := compile(t, p, Options{Trace: true})

	if got := int32(len(prog.DebugInfo)); got != prog.SlotCount {
		t.Errorf("len(DebugInfo) = %d, want %d", got, prog.SlotCount)
	}
	res, err := prog.Run(RunOptions{
		Lanes:     2,
		Inputs:    [][]uint32{FloatBits(1, 4), {0}},
		Trace:     true,
		TraceLane: 1,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var got []string
	for _, e := range res.Trace {
		got = append(got, e.Format(prog))
	}
	want := []string{
		"enter main",
		"line 2",
		"var x[0] = 8",
		"line 3",
		"exit main",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceDisabled(t *testing.T) {
	prog := loopProgram(t, DefaultOptions())
	for i, ins := range prog.Instructions {
		if ins.Op >= OpTraceLine && ins.Op <= OpTraceScope {
			t.Errorf("instruction %d is %s, want no trace instructions", i, ins.Op)
		}
	}
	if prog.DebugInfo != nil {
		t.Errorf("DebugInfo = %v, want nil", prog.DebugInfo)
	}
}

func TestTraceKindString(t *testing.T) {
	tests := []struct {
		kind TraceKind
		want string
	}{
		{TraceLine, "line"},
		{TraceVar, "var"},
		{TraceEnter, "enter"},
		{TraceExit, "exit"},
		{TraceScope, "scope"},
		{TraceKind(9), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("TraceKind(%d).String() = %q, want %q", uint8(tc.kind), got, tc.want)
		}
	}
}
