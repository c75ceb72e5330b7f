package lanes

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/shade/ir"
)

func loopProgram(t *testing.T, options Options) *Program {
	t.Helper()
	f := newFixture()
	coords := f.coords()
	tint := f.uniform("tint", f.tt.Float)
	n := f.local("n", f.tt.Float)
	k := f.local("k", f.tt.Float)
	loop := ir.MakeFor(f.ctx, noPos,
		f.declare(k, f.float(0)),
		f.binary(f.read(k), ir.OpLt, f.x(coords)),
		f.binary(f.read(k), ir.OpPlusEq, f.float(1)),
		f.assign(n, ir.OpPlusEq, f.read(tint)))
	p := f.shader(t, coords,
		f.declare(n, f.float(0)),
		loop,
		f.ret(f.color(f.read(n))),
	)
	return compile(t, p, options)
}

func TestProgramMarshalBinary(t *testing.T) {
	prog := loopProgram(t, Options{Trace: true})
	data, err := prog.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	var got Program
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if diff := cmp.Diff(prog, &got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded program mismatch (-want +got):\n%s", diff)
	}
}

// A program nested in another msgpack value goes through MarshalBinary
// and UnmarshalBinary.
func TestProgramNestedMsgpack(t *testing.T) {
	type artifact struct {
		Name    string   `msgpack:"name"`
		Program *Program `msgpack:"program"`
	}
	in := artifact{Name: "loop", Program: loopProgram(t, DefaultOptions())}
	data, err := msgpack.Marshal(&in)
	if err != nil {
		t.Fatalf("msgpack.Marshal() error = %v", err)
	}
	var out artifact
	if err := msgpack.Unmarshal(data, &out); err != nil {
		t.Fatalf("msgpack.Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded artifact mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramUnmarshalBinaryError(t *testing.T) {
	var p Program
	err := p.UnmarshalBinary([]byte{0xc1})
	if err == nil || !strings.HasPrefix(err.Error(), "lanes: decode program:") {
		t.Errorf("UnmarshalBinary() error = %v, want a decode error", err)
	}
}

func TestProgramDump(t *testing.T) {
	listing := loopProgram(t, DefaultOptions()).String()
	for _, want := range []string{
		"; uniform tint = u0..u0",
		"; input coords = s0..s1",
		"jump_if_none",
		"add.f",
		"; result ",
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing does not contain %q:\n%s", want, listing)
		}
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCopy, "copy"},
		{OpAddF, "add.f"},
		{OpShrU, "shr.u"},
		{OpJumpIfNone, "jump_if_none"},
		{OpTraceScope, "trace_scope"},
		{opCount, "op(" + strconv.Itoa(int(opCount)) + ")"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("Op(%d).String() = %q, want %q", uint8(tc.op), got, tc.want)
		}
	}
}

func TestOpNamesComplete(t *testing.T) {
	for op := OpInvalid; op < opCount; op++ {
		if opNames[op] == "" {
			t.Errorf("opcode %d has no name", uint8(op))
		}
	}
}

func TestRunStepLimit(t *testing.T) {
	prog := loopProgram(t, DefaultOptions())
	_, err := prog.Run(RunOptions{
		Uniforms: FloatBits(1),
		Inputs:   [][]uint32{FloatBits(1e6), {0}},
		MaxSteps: 100,
	})
	if err != ErrStepLimit {
		t.Errorf("Run() error = %v, want ErrStepLimit", err)
	}
}

func TestRunInputErrors(t *testing.T) {
	prog := loopProgram(t, DefaultOptions())
	tests := []struct {
		name string
		opts RunOptions
		want string
	}{
		{"missing uniforms", RunOptions{}, "needs 1 uniform words, got 0"},
		{"missing input", RunOptions{Uniforms: FloatBits(1)}, "missing value for input coords"},
		{
			"lane mismatch",
			RunOptions{Lanes: 3, Uniforms: FloatBits(1), Inputs: [][]uint32{FloatBits(1, 2), {0}}},
			"input coords has 2 values for 3 lanes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := prog.Run(tc.opts)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Run() error = %v, want %q", err, tc.want)
			}
		})
	}
}
