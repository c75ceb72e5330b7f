package spirv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidModule is wrapped by every decoding error.
var ErrInvalidModule = errors.New("invalid SPIR-V module")

// Header is the five-word module header.
type Header struct {
	Magic     uint32
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32
}

// Module is a decoded module.
type Module struct {
	Header       Header
	Instructions []Instruction
}

// DecodeBytes decodes a little-endian module.
func DecodeBytes(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidModule, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return Decode(words)
}

// Decode splits module words into instructions.
func Decode(words []uint32) (*Module, error) {
	if len(words) < 5 {
		return nil, fmt.Errorf("%w: %d words is shorter than the header", ErrInvalidModule, len(words))
	}
	if words[0] != MagicNumber {
		return nil, fmt.Errorf("%w: magic 0x%08X", ErrInvalidModule, words[0])
	}
	m := &Module{Header: Header{
		Magic:     words[0],
		Version:   Version{Major: uint8(words[1] >> 16), Minor: uint8(words[1] >> 8)},
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
	}}
	for at := 5; at < len(words); {
		count := int(words[at] >> 16)
		op := OpCode(words[at] & 0xFFFF)
		if count == 0 || at+count > len(words) {
			return nil, fmt.Errorf("%w: word count %d of %s at word %d", ErrInvalidModule, count, op, at)
		}
		m.Instructions = append(m.Instructions, Instruction{Opcode: op, Words: words[at+1 : at+count]})
		at += count
	}
	return m, nil
}

type operandKind uint8

const (
	kindID operandKind = iota
	kindLiteral
	kindString
	kindCapability
	kindStorage
	kindDecoration
	kindModel
	kindMode
	kindAddressing
	kindMemory
	// kindIDs and kindLiterals consume every remaining word.
	kindIDs
	kindLiterals
)

// operandLayout lists the operand kinds after any result type and id.
// Opcodes not listed take ids only.
var operandLayout = map[OpCode][]operandKind{
	OpCapability:             {kindCapability},
	OpExtension:              {kindString},
	OpExtInstImport:          {kindString},
	OpExtInst:                {kindID, kindLiteral, kindIDs},
	OpMemoryModel:            {kindAddressing, kindMemory},
	OpEntryPoint:             {kindModel, kindID, kindString, kindIDs},
	OpExecutionMode:          {kindID, kindMode, kindLiterals},
	OpName:                   {kindID, kindString},
	OpMemberName:             {kindID, kindLiteral, kindString},
	OpDecorate:               {kindID, kindDecoration, kindLiterals},
	OpMemberDecorate:         {kindID, kindLiteral, kindDecoration, kindLiterals},
	OpTypeInt:                {kindLiterals},
	OpTypeFloat:              {kindLiterals},
	OpTypeVector:             {kindID, kindLiteral},
	OpTypeMatrix:             {kindID, kindLiteral},
	OpTypeImage:              {kindID, kindLiterals},
	OpTypePointer:            {kindStorage, kindID},
	OpConstant:               {kindLiterals},
	OpVariable:               {kindStorage, kindIDs},
	OpFunction:               {kindLiteral, kindID},
	OpCompositeExtract:       {kindID, kindLiterals},
	OpCompositeInsert:        {kindID, kindID, kindLiterals},
	OpVectorShuffle:          {kindID, kindID, kindLiterals},
	OpSelectionMerge:         {kindID, kindLiteral},
	OpLoopMerge:              {kindID, kindID, kindLiteral},
	OpSwitch:                 {kindID, kindID, kindLiterals},
	OpImageSampleExplicitLod: {kindID, kindID, kindLiteral, kindIDs},
}

var capabilityNames = map[uint32]string{
	uint32(CapabilityMatrix):            "Matrix",
	uint32(CapabilityShader):            "Shader",
	uint32(CapabilityFloat16):           "Float16",
	uint32(CapabilityFloat64):           "Float64",
	uint32(CapabilityInt64):             "Int64",
	uint32(CapabilityInt16):             "Int16",
	uint32(CapabilitySampleRateShading): "SampleRateShading",
	uint32(CapabilityInt8):              "Int8",
	uint32(CapabilityInputAttachment):   "InputAttachment",
	uint32(CapabilityImageQuery):        "ImageQuery",
	uint32(CapabilityDerivativeControl): "DerivativeControl",
}

var storageNames = map[uint32]string{
	uint32(StorageClassUniformConstant): "UniformConstant",
	uint32(StorageClassInput):           "Input",
	uint32(StorageClassUniform):         "Uniform",
	uint32(StorageClassOutput):          "Output",
	uint32(StorageClassWorkgroup):       "Workgroup",
	uint32(StorageClassPrivate):         "Private",
	uint32(StorageClassFunction):        "Function",
	uint32(StorageClassPushConstant):    "PushConstant",
	uint32(StorageClassStorageBuffer):   "StorageBuffer",
}

var decorationNames = map[uint32]string{
	uint32(DecorationRelaxedPrecision): "RelaxedPrecision",
	uint32(DecorationBlock):            "Block",
	uint32(DecorationRowMajor):         "RowMajor",
	uint32(DecorationColMajor):         "ColMajor",
	uint32(DecorationArrayStride):      "ArrayStride",
	uint32(DecorationMatrixStride):     "MatrixStride",
	uint32(DecorationBuiltIn):          "BuiltIn",
	uint32(DecorationNoPerspective):    "NoPerspective",
	uint32(DecorationFlat):             "Flat",
	uint32(DecorationNonWritable):      "NonWritable",
	uint32(DecorationLocation):         "Location",
	uint32(DecorationIndex):            "Index",
	uint32(DecorationBinding):          "Binding",
	uint32(DecorationDescriptorSet):    "DescriptorSet",
	uint32(DecorationOffset):           "Offset",
}

var builtinNames = map[uint32]string{
	uint32(BuiltInPosition):      "Position",
	uint32(BuiltInPointSize):     "PointSize",
	uint32(BuiltInVertexID):      "VertexId",
	uint32(BuiltInInstanceID):    "InstanceId",
	uint32(BuiltInFragCoord):     "FragCoord",
	uint32(BuiltInPointCoord):    "PointCoord",
	uint32(BuiltInFrontFacing):   "FrontFacing",
	uint32(BuiltInSampleID):      "SampleId",
	uint32(BuiltInSampleMask):    "SampleMask",
	uint32(BuiltInFragDepth):     "FragDepth",
	uint32(BuiltInVertexIndex):   "VertexIndex",
	uint32(BuiltInInstanceIndex): "InstanceIndex",
}

var modelNames = map[uint32]string{
	uint32(ExecutionModelVertex):    "Vertex",
	uint32(ExecutionModelFragment):  "Fragment",
	uint32(ExecutionModelGLCompute): "GLCompute",
}

var modeNames = map[uint32]string{
	uint32(ExecutionModeOriginUpperLeft): "OriginUpperLeft",
	uint32(ExecutionModeOriginLowerLeft): "OriginLowerLeft",
	uint32(ExecutionModeDepthReplacing):  "DepthReplacing",
}

var addressingNames = map[uint32]string{uint32(AddressingModelLogical): "Logical"}

var memoryNames = map[uint32]string{
	uint32(MemoryModelSimple):  "Simple",
	uint32(MemoryModelGLSL450): "GLSL450",
	uint32(MemoryModelVulkan):  "Vulkan",
}

func lookup(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return strconv.FormatUint(uint64(v), 10)
}

func idText(n uint32) string { return "%" + strconv.FormatUint(uint64(n), 10) }

// decodeString reads a null-terminated string and returns it with the
// number of words it occupies.
func decodeString(words []uint32) (string, int) {
	var sb strings.Builder
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(words)
}

// Disassemble renders m as text, one instruction per line with result
// ids right-aligned before the opcode.
func Disassemble(m *Module) string {
	var sb strings.Builder
	h := m.Header
	fmt.Fprintf(&sb, "; SPIR-V\n; Version: %d.%d\n; Generator: 0x%08X\n; Bound: %d\n; Schema: %d\n",
		h.Version.Major, h.Version.Minor, h.Generator, h.Bound, h.Schema)
	for _, inst := range m.Instructions {
		sb.WriteString(disassembleInstruction(inst))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func disassembleInstruction(inst Instruction) string {
	ops := inst.Words
	var result, typ string
	switch opcodeTable[inst.Opcode].shape {
	case shapeResult:
		if len(ops) > 0 {
			result, ops = idText(ops[0]), ops[1:]
		}
	case shapeTypedResult:
		if len(ops) > 1 {
			typ, result, ops = idText(ops[0]), idText(ops[1]), ops[2:]
		}
	}

	parts := []string{inst.Opcode.String()}
	if typ != "" {
		parts = append(parts, typ)
	}
	layout := operandLayout[inst.Opcode]
	decoration := uint32(0)
	for k := 0; len(ops) > 0; k++ {
		kind := kindIDs
		if k < len(layout) {
			kind = layout[k]
		} else if len(layout) > 0 {
			kind = layout[len(layout)-1]
			if kind != kindIDs && kind != kindLiterals {
				kind = kindIDs
			}
		}
		switch kind {
		case kindString:
			s, n := decodeString(ops)
			parts = append(parts, strconv.Quote(s))
			ops = ops[n:]
			continue
		case kindIDs:
			for _, w := range ops {
				parts = append(parts, idText(w))
			}
			ops = nil
			continue
		case kindLiterals:
			for i, w := range ops {
				if i == 0 && decoration == uint32(DecorationBuiltIn) {
					parts = append(parts, lookup(builtinNames, w))
					continue
				}
				parts = append(parts, strconv.FormatUint(uint64(w), 10))
			}
			ops = nil
			continue
		}
		w := ops[0]
		ops = ops[1:]
		switch kind {
		case kindID:
			parts = append(parts, idText(w))
		case kindLiteral:
			parts = append(parts, strconv.FormatUint(uint64(w), 10))
		case kindCapability:
			parts = append(parts, lookup(capabilityNames, w))
		case kindStorage:
			parts = append(parts, lookup(storageNames, w))
		case kindDecoration:
			decoration = w
			parts = append(parts, lookup(decorationNames, w))
		case kindModel:
			parts = append(parts, lookup(modelNames, w))
		case kindMode:
			parts = append(parts, lookup(modeNames, w))
		case kindAddressing:
			parts = append(parts, lookup(addressingNames, w))
		case kindMemory:
			parts = append(parts, lookup(memoryNames, w))
		}
	}
	line := strings.Join(parts, " ")
	if result != "" {
		return fmt.Sprintf("%12s = %s", result, line)
	}
	return strings.Repeat(" ", 15) + line
}
