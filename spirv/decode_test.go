package spirv

import (
	"errors"
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	f := newFixture()
	x := f.uniform("x", f.tt.Float4)
	p := f.program(t, f.read(x))
	words, err := Compile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	m, err := DecodeBytes(EncodeWords(words))
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if m.Header.Version != Version1_0 {
		t.Errorf("Version = %v, want 1.0", m.Header.Version)
	}
	text := Disassemble(m)
	for _, want := range []string{
		"; SPIR-V\n; Version: 1.0\n",
		"OpCapability Shader",
		`OpExtInstImport "GLSL.std.450"`,
		"OpMemoryModel Logical GLSL450",
		`OpEntryPoint Fragment`,
		"OriginUpperLeft",
		"OpDecorate",
		"Block",
		"OpFunctionEnd",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Disassemble() does not contain %q:\n%s", want, text)
		}
	}
}

func TestDisassembleInstruction(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{
			name: "typed result",
			inst: Instruction{Opcode: OpFAdd, Words: []uint32{2, 5, 3, 4}},
			want: "          %5 = OpFAdd %2 %3 %4",
		},
		{
			name: "no result",
			inst: Instruction{Opcode: OpStore, Words: []uint32{7, 8}},
			want: "               OpStore %7 %8",
		},
		{
			name: "builtin decoration",
			inst: Instruction{Opcode: OpDecorate, Words: []uint32{9, uint32(DecorationBuiltIn), uint32(BuiltInFragCoord)}},
			want: "               OpDecorate %9 BuiltIn FragCoord",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := disassembleInstruction(tc.inst); got != tc.want {
				t.Errorf("disassembleInstruction() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{1, 2, 3, 4}},
		{"unaligned", make([]byte, 21)},
		{"bad magic", make([]byte, 20)},
		{"truncated instruction", EncodeWords([]uint32{MagicNumber, 0x00010000, 0, 1, 0, 3<<16 | uint32(OpName), 1})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeBytes(tc.data); !errors.Is(err, ErrInvalidModule) {
				t.Errorf("DecodeBytes() error = %v, want ErrInvalidModule", err)
			}
		})
	}
}
