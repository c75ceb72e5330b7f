package spirv

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModuleBuilder_MinimalModule(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)
	builder.AddCapability(CapabilityShader)
	builder.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	data := builder.Bytes()
	if len(data) < 20 {
		t.Fatalf("module is %d bytes, want at least 20", len(data))
	}
	header := []uint32{
		binary.LittleEndian.Uint32(data[0:4]),
		binary.LittleEndian.Uint32(data[4:8]),
		binary.LittleEndian.Uint32(data[8:12]),
		binary.LittleEndian.Uint32(data[12:16]),
		binary.LittleEndian.Uint32(data[16:20]),
	}
	want := []uint32{MagicNumber, 1<<16 | 3<<8, GeneratorID, 1, 0}
	if diff := cmp.Diff(want, header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleBuilder_CapabilityOnce(t *testing.T) {
	builder := NewModuleBuilder(Version1_0)
	builder.AddCapability(CapabilityShader)
	builder.AddCapability(CapabilityShader)
	builder.AddCapability(CapabilityDerivativeControl)
	if got := len(builder.Section(SectionCapabilities)); got != 2 {
		t.Errorf("capability count = %d, want 2", got)
	}
}

func TestModuleBuilder_SectionOrder(t *testing.T) {
	builder := NewModuleBuilder(Version1_0)
	id := builder.AllocID()
	// Record out of order; Words must follow section order.
	builder.AddName(id, "x")
	builder.Emit(SectionTypes, OpTypeVoid, id)
	builder.AddCapability(CapabilityShader)

	m, err := Decode(builder.Words())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	var ops []OpCode
	for _, inst := range m.Instructions {
		ops = append(ops, inst.Opcode)
	}
	want := []OpCode{OpCapability, OpName, OpTypeVoid}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("instruction order mismatch (-want +got):\n%s", diff)
	}
	if m.Header.Bound != 2 {
		t.Errorf("Bound = %d, want 2", m.Header.Bound)
	}
}

func TestStringWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"main", 2},
		{"GLSL.std.450", 4},
	}
	for _, tc := range tests {
		words := stringWords(tc.in)
		if len(words) != tc.want {
			t.Errorf("stringWords(%q) has %d words, want %d", tc.in, len(words), tc.want)
		}
		if got, _ := decodeString(words); got != tc.in {
			t.Errorf("decodeString(stringWords(%q)) = %q", tc.in, got)
		}
	}
}

func TestInstruction_Encode(t *testing.T) {
	inst := NewInstructionBuilder().AddWord(7).AddWords(8, 9).Build(OpIAdd)
	want := []uint32{4<<16 | uint32(OpIAdd), 7, 8, 9}
	if diff := cmp.Diff(want, inst.Encode()); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}
}

func TestVersion(t *testing.T) {
	if !Version1_4.AtLeast(Version1_3) || Version1_3.AtLeast(Version1_4) {
		t.Error("AtLeast ordering is wrong")
	}
	if got := Version1_6.Word(); got != 0x00010600 {
		t.Errorf("Version1_6.Word() = 0x%08X, want 0x00010600", got)
	}
}
