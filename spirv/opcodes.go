package spirv

import "fmt"

// OpCode is a SPIR-V instruction opcode.
type OpCode uint16

const (
	OpNop                    OpCode = 0
	OpUndef                  OpCode = 1
	OpSource                 OpCode = 3
	OpName                   OpCode = 5
	OpMemberName             OpCode = 6
	OpString                 OpCode = 7
	OpLine                   OpCode = 8
	OpExtension              OpCode = 10
	OpExtInstImport          OpCode = 11
	OpExtInst                OpCode = 12
	OpMemoryModel            OpCode = 14
	OpEntryPoint             OpCode = 15
	OpExecutionMode          OpCode = 16
	OpCapability             OpCode = 17
	OpTypeVoid               OpCode = 19
	OpTypeBool               OpCode = 20
	OpTypeInt                OpCode = 21
	OpTypeFloat              OpCode = 22
	OpTypeVector             OpCode = 23
	OpTypeMatrix             OpCode = 24
	OpTypeImage              OpCode = 25
	OpTypeSampler            OpCode = 26
	OpTypeSampledImage       OpCode = 27
	OpTypeArray              OpCode = 28
	OpTypeRuntimeArray       OpCode = 29
	OpTypeStruct             OpCode = 30
	OpTypePointer            OpCode = 32
	OpTypeFunction           OpCode = 33
	OpConstantTrue           OpCode = 41
	OpConstantFalse          OpCode = 42
	OpConstant               OpCode = 43
	OpConstantComposite      OpCode = 44
	OpConstantNull           OpCode = 46
	OpFunction               OpCode = 54
	OpFunctionParameter      OpCode = 55
	OpFunctionEnd            OpCode = 56
	OpFunctionCall           OpCode = 57
	OpVariable               OpCode = 59
	OpLoad                   OpCode = 61
	OpStore                  OpCode = 62
	OpAccessChain            OpCode = 65
	OpDecorate               OpCode = 71
	OpMemberDecorate         OpCode = 72
	OpVectorExtractDynamic   OpCode = 77
	OpVectorInsertDynamic    OpCode = 78
	OpVectorShuffle          OpCode = 79
	OpCompositeConstruct     OpCode = 80
	OpCompositeExtract       OpCode = 81
	OpCompositeInsert        OpCode = 82
	OpCopyObject             OpCode = 83
	OpTranspose              OpCode = 84
	OpSampledImage           OpCode = 86
	OpImageSampleImplicitLod OpCode = 87
	OpImageSampleExplicitLod OpCode = 88
	OpConvertFToU            OpCode = 109
	OpConvertFToS            OpCode = 110
	OpConvertSToF            OpCode = 111
	OpConvertUToF            OpCode = 112
	OpUConvert               OpCode = 113
	OpSConvert               OpCode = 114
	OpFConvert               OpCode = 115
	OpBitcast                OpCode = 124
	OpSNegate                OpCode = 126
	OpFNegate                OpCode = 127
	OpIAdd                   OpCode = 128
	OpFAdd                   OpCode = 129
	OpISub                   OpCode = 130
	OpFSub                   OpCode = 131
	OpIMul                   OpCode = 132
	OpFMul                   OpCode = 133
	OpUDiv                   OpCode = 134
	OpSDiv                   OpCode = 135
	OpFDiv                   OpCode = 136
	OpUMod                   OpCode = 137
	OpSRem                   OpCode = 138
	OpSMod                   OpCode = 139
	OpFRem                   OpCode = 140
	OpFMod                   OpCode = 141
	OpVectorTimesScalar      OpCode = 142
	OpMatrixTimesScalar      OpCode = 143
	OpVectorTimesMatrix      OpCode = 144
	OpMatrixTimesVector      OpCode = 145
	OpMatrixTimesMatrix      OpCode = 146
	OpOuterProduct           OpCode = 147
	OpDot                    OpCode = 148
	OpAny                    OpCode = 154
	OpAll                    OpCode = 155
	OpIsNan                  OpCode = 156
	OpIsInf                  OpCode = 157
	OpLogicalEqual           OpCode = 164
	OpLogicalNotEqual        OpCode = 165
	OpLogicalOr              OpCode = 166
	OpLogicalAnd             OpCode = 167
	OpLogicalNot             OpCode = 168
	OpSelect                 OpCode = 169
	OpIEqual                 OpCode = 170
	OpINotEqual              OpCode = 171
	OpUGreaterThan           OpCode = 172
	OpSGreaterThan           OpCode = 173
	OpUGreaterThanEqual      OpCode = 174
	OpSGreaterThanEqual      OpCode = 175
	OpULessThan              OpCode = 176
	OpSLessThan              OpCode = 177
	OpULessThanEqual         OpCode = 178
	OpSLessThanEqual         OpCode = 179
	OpFOrdEqual              OpCode = 180
	OpFUnordEqual            OpCode = 181
	OpFOrdNotEqual           OpCode = 182
	OpFUnordNotEqual         OpCode = 183
	OpFOrdLessThan           OpCode = 184
	OpFUnordLessThan         OpCode = 185
	OpFOrdGreaterThan        OpCode = 186
	OpFUnordGreaterThan      OpCode = 187
	OpFOrdLessThanEqual      OpCode = 188
	OpFUnordLessThanEqual    OpCode = 189
	OpFOrdGreaterThanEqual   OpCode = 190
	OpFUnordGreaterThanEqual OpCode = 191
	OpShiftRightLogical      OpCode = 194
	OpShiftRightArithmetic   OpCode = 195
	OpShiftLeftLogical       OpCode = 196
	OpBitwiseOr              OpCode = 197
	OpBitwiseXor             OpCode = 198
	OpBitwiseAnd             OpCode = 199
	OpNot                    OpCode = 200
	OpBitReverse             OpCode = 204
	OpBitCount               OpCode = 205
	OpDPdx                   OpCode = 207
	OpDPdy                   OpCode = 208
	OpFwidth                 OpCode = 209
	OpPhi                    OpCode = 245
	OpLoopMerge              OpCode = 246
	OpSelectionMerge         OpCode = 247
	OpLabel                  OpCode = 248
	OpBranch                 OpCode = 249
	OpBranchConditional      OpCode = 250
	OpSwitch                 OpCode = 251
	OpKill                   OpCode = 252
	OpReturn                 OpCode = 253
	OpReturnValue            OpCode = 254
	OpUnreachable            OpCode = 255
	OpTerminateInvocation    OpCode = 4416
)

// opShape says which leading operands are a result type and a result id.
type opShape uint8

const (
	shapeNone opShape = iota
	shapeResult
	shapeTypedResult
)

type opDesc struct {
	name  string
	shape opShape
}

var opcodeTable = map[OpCode]opDesc{
	OpNop:                    {"OpNop", shapeNone},
	OpUndef:                  {"OpUndef", shapeTypedResult},
	OpSource:                 {"OpSource", shapeNone},
	OpName:                   {"OpName", shapeNone},
	OpMemberName:             {"OpMemberName", shapeNone},
	OpString:                 {"OpString", shapeResult},
	OpLine:                   {"OpLine", shapeNone},
	OpExtension:              {"OpExtension", shapeNone},
	OpExtInstImport:          {"OpExtInstImport", shapeResult},
	OpExtInst:                {"OpExtInst", shapeTypedResult},
	OpMemoryModel:            {"OpMemoryModel", shapeNone},
	OpEntryPoint:             {"OpEntryPoint", shapeNone},
	OpExecutionMode:          {"OpExecutionMode", shapeNone},
	OpCapability:             {"OpCapability", shapeNone},
	OpTypeVoid:               {"OpTypeVoid", shapeResult},
	OpTypeBool:               {"OpTypeBool", shapeResult},
	OpTypeInt:                {"OpTypeInt", shapeResult},
	OpTypeFloat:              {"OpTypeFloat", shapeResult},
	OpTypeVector:             {"OpTypeVector", shapeResult},
	OpTypeMatrix:             {"OpTypeMatrix", shapeResult},
	OpTypeImage:              {"OpTypeImage", shapeResult},
	OpTypeSampler:            {"OpTypeSampler", shapeResult},
	OpTypeSampledImage:       {"OpTypeSampledImage", shapeResult},
	OpTypeArray:              {"OpTypeArray", shapeResult},
	OpTypeRuntimeArray:       {"OpTypeRuntimeArray", shapeResult},
	OpTypeStruct:             {"OpTypeStruct", shapeResult},
	OpTypePointer:            {"OpTypePointer", shapeResult},
	OpTypeFunction:           {"OpTypeFunction", shapeResult},
	OpConstantTrue:           {"OpConstantTrue", shapeTypedResult},
	OpConstantFalse:          {"OpConstantFalse", shapeTypedResult},
	OpConstant:               {"OpConstant", shapeTypedResult},
	OpConstantComposite:      {"OpConstantComposite", shapeTypedResult},
	OpConstantNull:           {"OpConstantNull", shapeTypedResult},
	OpFunction:               {"OpFunction", shapeTypedResult},
	OpFunctionParameter:      {"OpFunctionParameter", shapeTypedResult},
	OpFunctionEnd:            {"OpFunctionEnd", shapeNone},
	OpFunctionCall:           {"OpFunctionCall", shapeTypedResult},
	OpVariable:               {"OpVariable", shapeTypedResult},
	OpLoad:                   {"OpLoad", shapeTypedResult},
	OpStore:                  {"OpStore", shapeNone},
	OpAccessChain:            {"OpAccessChain", shapeTypedResult},
	OpDecorate:               {"OpDecorate", shapeNone},
	OpMemberDecorate:         {"OpMemberDecorate", shapeNone},
	OpVectorExtractDynamic:   {"OpVectorExtractDynamic", shapeTypedResult},
	OpVectorInsertDynamic:    {"OpVectorInsertDynamic", shapeTypedResult},
	OpVectorShuffle:          {"OpVectorShuffle", shapeTypedResult},
	OpCompositeConstruct:     {"OpCompositeConstruct", shapeTypedResult},
	OpCompositeExtract:       {"OpCompositeExtract", shapeTypedResult},
	OpCompositeInsert:        {"OpCompositeInsert", shapeTypedResult},
	OpCopyObject:             {"OpCopyObject", shapeTypedResult},
	OpTranspose:              {"OpTranspose", shapeTypedResult},
	OpSampledImage:           {"OpSampledImage", shapeTypedResult},
	OpImageSampleImplicitLod: {"OpImageSampleImplicitLod", shapeTypedResult},
	OpImageSampleExplicitLod: {"OpImageSampleExplicitLod", shapeTypedResult},
	OpConvertFToU:            {"OpConvertFToU", shapeTypedResult},
	OpConvertFToS:            {"OpConvertFToS", shapeTypedResult},
	OpConvertSToF:            {"OpConvertSToF", shapeTypedResult},
	OpConvertUToF:            {"OpConvertUToF", shapeTypedResult},
	OpUConvert:               {"OpUConvert", shapeTypedResult},
	OpSConvert:               {"OpSConvert", shapeTypedResult},
	OpFConvert:               {"OpFConvert", shapeTypedResult},
	OpBitcast:                {"OpBitcast", shapeTypedResult},
	OpSNegate:                {"OpSNegate", shapeTypedResult},
	OpFNegate:                {"OpFNegate", shapeTypedResult},
	OpIAdd:                   {"OpIAdd", shapeTypedResult},
	OpFAdd:                   {"OpFAdd", shapeTypedResult},
	OpISub:                   {"OpISub", shapeTypedResult},
	OpFSub:                   {"OpFSub", shapeTypedResult},
	OpIMul:                   {"OpIMul", shapeTypedResult},
	OpFMul:                   {"OpFMul", shapeTypedResult},
	OpUDiv:                   {"OpUDiv", shapeTypedResult},
	OpSDiv:                   {"OpSDiv", shapeTypedResult},
	OpFDiv:                   {"OpFDiv", shapeTypedResult},
	OpUMod:                   {"OpUMod", shapeTypedResult},
	OpSRem:                   {"OpSRem", shapeTypedResult},
	OpSMod:                   {"OpSMod", shapeTypedResult},
	OpFRem:                   {"OpFRem", shapeTypedResult},
	OpFMod:                   {"OpFMod", shapeTypedResult},
	OpVectorTimesScalar:      {"OpVectorTimesScalar", shapeTypedResult},
	OpMatrixTimesScalar:      {"OpMatrixTimesScalar", shapeTypedResult},
	OpVectorTimesMatrix:      {"OpVectorTimesMatrix", shapeTypedResult},
	OpMatrixTimesVector:      {"OpMatrixTimesVector", shapeTypedResult},
	OpMatrixTimesMatrix:      {"OpMatrixTimesMatrix", shapeTypedResult},
	OpOuterProduct:           {"OpOuterProduct", shapeTypedResult},
	OpDot:                    {"OpDot", shapeTypedResult},
	OpAny:                    {"OpAny", shapeTypedResult},
	OpAll:                    {"OpAll", shapeTypedResult},
	OpIsNan:                  {"OpIsNan", shapeTypedResult},
	OpIsInf:                  {"OpIsInf", shapeTypedResult},
	OpLogicalEqual:           {"OpLogicalEqual", shapeTypedResult},
	OpLogicalNotEqual:        {"OpLogicalNotEqual", shapeTypedResult},
	OpLogicalOr:              {"OpLogicalOr", shapeTypedResult},
	OpLogicalAnd:             {"OpLogicalAnd", shapeTypedResult},
	OpLogicalNot:             {"OpLogicalNot", shapeTypedResult},
	OpSelect:                 {"OpSelect", shapeTypedResult},
	OpIEqual:                 {"OpIEqual", shapeTypedResult},
	OpINotEqual:              {"OpINotEqual", shapeTypedResult},
	OpUGreaterThan:           {"OpUGreaterThan", shapeTypedResult},
	OpSGreaterThan:           {"OpSGreaterThan", shapeTypedResult},
	OpUGreaterThanEqual:      {"OpUGreaterThanEqual", shapeTypedResult},
	OpSGreaterThanEqual:      {"OpSGreaterThanEqual", shapeTypedResult},
	OpULessThan:              {"OpULessThan", shapeTypedResult},
	OpSLessThan:              {"OpSLessThan", shapeTypedResult},
	OpULessThanEqual:         {"OpULessThanEqual", shapeTypedResult},
	OpSLessThanEqual:         {"OpSLessThanEqual", shapeTypedResult},
	OpFOrdEqual:              {"OpFOrdEqual", shapeTypedResult},
	OpFUnordEqual:            {"OpFUnordEqual", shapeTypedResult},
	OpFOrdNotEqual:           {"OpFOrdNotEqual", shapeTypedResult},
	OpFUnordNotEqual:         {"OpFUnordNotEqual", shapeTypedResult},
	OpFOrdLessThan:           {"OpFOrdLessThan", shapeTypedResult},
	OpFUnordLessThan:         {"OpFUnordLessThan", shapeTypedResult},
	OpFOrdGreaterThan:        {"OpFOrdGreaterThan", shapeTypedResult},
	OpFUnordGreaterThan:      {"OpFUnordGreaterThan", shapeTypedResult},
	OpFOrdLessThanEqual:      {"OpFOrdLessThanEqual", shapeTypedResult},
	OpFUnordLessThanEqual:    {"OpFUnordLessThanEqual", shapeTypedResult},
	OpFOrdGreaterThanEqual:   {"OpFOrdGreaterThanEqual", shapeTypedResult},
	OpFUnordGreaterThanEqual: {"OpFUnordGreaterThanEqual", shapeTypedResult},
	OpShiftRightLogical:      {"OpShiftRightLogical", shapeTypedResult},
	OpShiftRightArithmetic:   {"OpShiftRightArithmetic", shapeTypedResult},
	OpShiftLeftLogical:       {"OpShiftLeftLogical", shapeTypedResult},
	OpBitwiseOr:              {"OpBitwiseOr", shapeTypedResult},
	OpBitwiseXor:             {"OpBitwiseXor", shapeTypedResult},
	OpBitwiseAnd:             {"OpBitwiseAnd", shapeTypedResult},
	OpNot:                    {"OpNot", shapeTypedResult},
	OpBitReverse:             {"OpBitReverse", shapeTypedResult},
	OpBitCount:               {"OpBitCount", shapeTypedResult},
	OpDPdx:                   {"OpDPdx", shapeTypedResult},
	OpDPdy:                   {"OpDPdy", shapeTypedResult},
	OpFwidth:                 {"OpFwidth", shapeTypedResult},
	OpPhi:                    {"OpPhi", shapeTypedResult},
	OpLoopMerge:              {"OpLoopMerge", shapeNone},
	OpSelectionMerge:         {"OpSelectionMerge", shapeNone},
	OpLabel:                  {"OpLabel", shapeResult},
	OpBranch:                 {"OpBranch", shapeNone},
	OpBranchConditional:      {"OpBranchConditional", shapeNone},
	OpSwitch:                 {"OpSwitch", shapeNone},
	OpKill:                   {"OpKill", shapeNone},
	OpReturn:                 {"OpReturn", shapeNone},
	OpReturnValue:            {"OpReturnValue", shapeNone},
	OpUnreachable:            {"OpUnreachable", shapeNone},
	OpTerminateInvocation:    {"OpTerminateInvocation", shapeNone},
}

func (op OpCode) String() string {
	if d, ok := opcodeTable[op]; ok {
		return d.name
	}
	return fmt.Sprintf("Op%d", uint16(op))
}

// IsTerminator reports instructions that end a block.
func (op OpCode) IsTerminator() bool {
	switch op {
	case OpBranch, OpBranchConditional, OpSwitch, OpKill, OpReturn,
		OpReturnValue, OpUnreachable, OpTerminateInvocation:
		return true
	}
	return false
}

// Capability is a SPIR-V capability.
type Capability uint32

const (
	CapabilityMatrix            Capability = 0
	CapabilityShader            Capability = 1
	CapabilityFloat16           Capability = 9
	CapabilityFloat64           Capability = 10
	CapabilityInt64             Capability = 11
	CapabilityInt16             Capability = 22
	CapabilitySampleRateShading Capability = 35
	CapabilityInt8              Capability = 39
	CapabilityInputAttachment   Capability = 40
	CapabilityImageQuery        Capability = 50
	CapabilityDerivativeControl Capability = 51
)

// StorageClass is where a variable lives.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassPushConstant    StorageClass = 9
	StorageClassStorageBuffer   StorageClass = 12
)

// Decoration annotates an id or a struct member.
type Decoration uint32

const (
	DecorationRelaxedPrecision Decoration = 0
	DecorationBlock            Decoration = 2
	DecorationRowMajor         Decoration = 4
	DecorationColMajor         Decoration = 5
	DecorationArrayStride      Decoration = 6
	DecorationMatrixStride     Decoration = 7
	DecorationBuiltIn          Decoration = 11
	DecorationNoPerspective    Decoration = 13
	DecorationFlat             Decoration = 14
	DecorationNonWritable      Decoration = 24
	DecorationLocation         Decoration = 30
	DecorationIndex            Decoration = 32
	DecorationBinding          Decoration = 33
	DecorationDescriptorSet    Decoration = 34
	DecorationOffset           Decoration = 35
)

// BuiltIn identifies a pipeline builtin variable.
type BuiltIn uint32

const (
	BuiltInPosition      BuiltIn = 0
	BuiltInPointSize     BuiltIn = 1
	BuiltInVertexID      BuiltIn = 5
	BuiltInInstanceID    BuiltIn = 6
	BuiltInFragCoord     BuiltIn = 15
	BuiltInPointCoord    BuiltIn = 16
	BuiltInFrontFacing   BuiltIn = 17
	BuiltInSampleID      BuiltIn = 18
	BuiltInSampleMask    BuiltIn = 20
	BuiltInFragDepth     BuiltIn = 22
	BuiltInVertexIndex   BuiltIn = 42
	BuiltInInstanceIndex BuiltIn = 43
)

// ExecutionModel is the pipeline stage of an entry point.
type ExecutionModel uint32

const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode configures an entry point.
type ExecutionMode uint32

const (
	ExecutionModeOriginUpperLeft ExecutionMode = 7
	ExecutionModeOriginLowerLeft ExecutionMode = 8
	ExecutionModeDepthReplacing  ExecutionMode = 12
)

// AddressingModel is the module's pointer model.
type AddressingModel uint32

const AddressingModelLogical AddressingModel = 0

// MemoryModel is the module's memory model.
type MemoryModel uint32

const (
	MemoryModelSimple  MemoryModel = 0
	MemoryModelGLSL450 MemoryModel = 1
	MemoryModelVulkan  MemoryModel = 3
)

// FunctionControl hints how a function should be compiled.
type FunctionControl uint32

const (
	FunctionControlNone       FunctionControl = 0
	FunctionControlInline     FunctionControl = 1
	FunctionControlDontInline FunctionControl = 2
	FunctionControlPure       FunctionControl = 4
)

// SelectionControl hints how a selection should be compiled.
type SelectionControl uint32

const SelectionControlNone SelectionControl = 0

// LoopControl hints how a loop should be compiled.
type LoopControl uint32

const (
	LoopControlNone   LoopControl = 0
	LoopControlUnroll LoopControl = 1
)

// Dim is an image dimensionality.
type Dim uint32

const Dim2D Dim = 1

// ImageOperands select optional image sampling operands.
type ImageOperands uint32

const (
	ImageOperandsNone ImageOperands = 0
	ImageOperandsBias ImageOperands = 1
	ImageOperandsLod  ImageOperands = 2
)

// GLSLstd450 is an instruction of the GLSL.std.450 extended set.
type GLSLstd450 uint32

const (
	GLSLstd450Round         GLSLstd450 = 1
	GLSLstd450RoundEven     GLSLstd450 = 2
	GLSLstd450Trunc         GLSLstd450 = 3
	GLSLstd450FAbs          GLSLstd450 = 4
	GLSLstd450SAbs          GLSLstd450 = 5
	GLSLstd450FSign         GLSLstd450 = 6
	GLSLstd450SSign         GLSLstd450 = 7
	GLSLstd450Floor         GLSLstd450 = 8
	GLSLstd450Ceil          GLSLstd450 = 9
	GLSLstd450Fract         GLSLstd450 = 10
	GLSLstd450Radians       GLSLstd450 = 11
	GLSLstd450Degrees       GLSLstd450 = 12
	GLSLstd450Sin           GLSLstd450 = 13
	GLSLstd450Cos           GLSLstd450 = 14
	GLSLstd450Tan           GLSLstd450 = 15
	GLSLstd450Asin          GLSLstd450 = 16
	GLSLstd450Acos          GLSLstd450 = 17
	GLSLstd450Atan          GLSLstd450 = 18
	GLSLstd450Sinh          GLSLstd450 = 19
	GLSLstd450Cosh          GLSLstd450 = 20
	GLSLstd450Tanh          GLSLstd450 = 21
	GLSLstd450Asinh         GLSLstd450 = 22
	GLSLstd450Acosh         GLSLstd450 = 23
	GLSLstd450Atanh         GLSLstd450 = 24
	GLSLstd450Atan2         GLSLstd450 = 25
	GLSLstd450Pow           GLSLstd450 = 26
	GLSLstd450Exp           GLSLstd450 = 27
	GLSLstd450Log           GLSLstd450 = 28
	GLSLstd450Exp2          GLSLstd450 = 29
	GLSLstd450Log2          GLSLstd450 = 30
	GLSLstd450Sqrt          GLSLstd450 = 31
	GLSLstd450InverseSqrt   GLSLstd450 = 32
	GLSLstd450Determinant   GLSLstd450 = 33
	GLSLstd450MatrixInverse GLSLstd450 = 34
	GLSLstd450FMin          GLSLstd450 = 37
	GLSLstd450UMin          GLSLstd450 = 38
	GLSLstd450SMin          GLSLstd450 = 39
	GLSLstd450FMax          GLSLstd450 = 40
	GLSLstd450UMax          GLSLstd450 = 41
	GLSLstd450SMax          GLSLstd450 = 42
	GLSLstd450FClamp        GLSLstd450 = 43
	GLSLstd450UClamp        GLSLstd450 = 44
	GLSLstd450SClamp        GLSLstd450 = 45
	GLSLstd450FMix          GLSLstd450 = 46
	GLSLstd450Step          GLSLstd450 = 48
	GLSLstd450SmoothStep    GLSLstd450 = 49
	GLSLstd450Length        GLSLstd450 = 66
	GLSLstd450Distance      GLSLstd450 = 67
	GLSLstd450Cross         GLSLstd450 = 68
	GLSLstd450Normalize     GLSLstd450 = 69
	GLSLstd450FaceForward   GLSLstd450 = 70
	GLSLstd450Reflect       GLSLstd450 = 71
	GLSLstd450Refract       GLSLstd450 = 72
	GLSLstd450FindILsb      GLSLstd450 = 73
	GLSLstd450FindSMsb      GLSLstd450 = 74
	GLSLstd450FindUMsb      GLSLstd450 = 75
)
