package spirv

import (
	"encoding/binary"
	"math"
)

// Instruction is one decoded or pending SPIR-V instruction. Words holds
// the operands after the opcode word: result type and result id first
// when the opcode has them.
type Instruction struct {
	Opcode OpCode
	Words  []uint32
}

// Encode returns the instruction's binary words.
func (i Instruction) Encode() []uint32 {
	wordCount := uint32(len(i.Words) + 1)
	result := make([]uint32, 0, wordCount)
	result = append(result, wordCount<<16|uint32(i.Opcode))
	return append(result, i.Words...)
}

// InstructionBuilder accumulates operands for one instruction.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates an empty builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{words: make([]uint32, 0, 8)}
}

// AddWord appends an operand word.
func (b *InstructionBuilder) AddWord(word uint32) *InstructionBuilder {
	b.words = append(b.words, word)
	return b
}

// AddWords appends operand words.
func (b *InstructionBuilder) AddWords(words ...uint32) *InstructionBuilder {
	b.words = append(b.words, words...)
	return b
}

// AddString appends a null-terminated UTF-8 string padded to a word
// boundary.
func (b *InstructionBuilder) AddString(s string) *InstructionBuilder {
	b.words = append(b.words, stringWords(s)...)
	return b
}

// Build returns the instruction with opcode op.
func (b *InstructionBuilder) Build(op OpCode) Instruction {
	return Instruction{Opcode: op, Words: b.words}
}

func stringWords(s string) []uint32 {
	bytes := append([]byte(s), 0)
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}
	words := make([]uint32, 0, len(bytes)/4)
	for i := 0; i < len(bytes); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(bytes[i:]))
	}
	return words
}

// Section is a logical layout section of a module. Sections are written
// in declaration order.
type Section uint8

const (
	SectionCapabilities Section = iota
	SectionExtensions
	SectionExtInstImports
	SectionMemoryModel
	SectionEntryPoints
	SectionExecutionModes
	SectionDebugNames
	SectionAnnotations
	SectionTypes
	SectionGlobals
	SectionFunctions
	sectionCount
)

// ModuleBuilder assembles a module from per-section instruction lists and
// owns the id counter.
type ModuleBuilder struct {
	version   Version
	generator uint32
	sections  [sectionCount][]Instruction
	nextID    uint32
}

// NewModuleBuilder creates a builder for the given version.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{version: version, generator: GeneratorID, nextID: 1}
}

// AllocID allocates a fresh result id.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// Bound returns one more than the largest id allocated so far.
func (b *ModuleBuilder) Bound() uint32 { return b.nextID }

// Emit appends an instruction to section s.
func (b *ModuleBuilder) Emit(s Section, op OpCode, operands ...uint32) {
	b.sections[s] = append(b.sections[s], Instruction{Opcode: op, Words: operands})
}

// Append appends already built instructions to section s.
func (b *ModuleBuilder) Append(s Section, insts ...Instruction) {
	b.sections[s] = append(b.sections[s], insts...)
}

// Section returns the instructions of s.
func (b *ModuleBuilder) Section(s Section) []Instruction { return b.sections[s] }

// AddCapability declares a capability once.
func (b *ModuleBuilder) AddCapability(c Capability) {
	for _, inst := range b.sections[SectionCapabilities] {
		if inst.Words[0] == uint32(c) {
			return
		}
	}
	b.Emit(SectionCapabilities, OpCapability, uint32(c))
}

// AddExtension declares an extension.
func (b *ModuleBuilder) AddExtension(name string) {
	b.Append(SectionExtensions, NewInstructionBuilder().AddString(name).Build(OpExtension))
}

// AddExtInstImport imports an extended instruction set and returns its id.
func (b *ModuleBuilder) AddExtInstImport(name string) uint32 {
	id := b.AllocID()
	b.Append(SectionExtInstImports, NewInstructionBuilder().AddWord(id).AddString(name).Build(OpExtInstImport))
	return id
}

// SetMemoryModel sets the single memory model instruction.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	b.sections[SectionMemoryModel] = []Instruction{{Opcode: OpMemoryModel, Words: []uint32{uint32(addressing), uint32(memory)}}}
}

// AddEntryPoint declares fn as an entry point with the given interface.
func (b *ModuleBuilder) AddEntryPoint(model ExecutionModel, fn uint32, name string, interfaces []uint32) {
	ib := NewInstructionBuilder().AddWord(uint32(model)).AddWord(fn).AddString(name).AddWords(interfaces...)
	b.Append(SectionEntryPoints, ib.Build(OpEntryPoint))
}

// AddExecutionMode adds an execution mode to an entry point.
func (b *ModuleBuilder) AddExecutionMode(entry uint32, mode ExecutionMode, params ...uint32) {
	b.Emit(SectionExecutionModes, OpExecutionMode, append([]uint32{entry, uint32(mode)}, params...)...)
}

// AddName names an id.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	b.Append(SectionDebugNames, NewInstructionBuilder().AddWord(id).AddString(name).Build(OpName))
}

// AddMemberName names a struct member.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	b.Append(SectionDebugNames, NewInstructionBuilder().AddWord(structID).AddWord(member).AddString(name).Build(OpMemberName))
}

// AddDecorate decorates an id.
func (b *ModuleBuilder) AddDecorate(id uint32, d Decoration, params ...uint32) {
	b.Emit(SectionAnnotations, OpDecorate, append([]uint32{id, uint32(d)}, params...)...)
}

// AddMemberDecorate decorates a struct member.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, d Decoration, params ...uint32) {
	b.Emit(SectionAnnotations, OpMemberDecorate, append([]uint32{structID, member, uint32(d)}, params...)...)
}

// Words returns the complete module: the five-word header followed by
// every section in order.
func (b *ModuleBuilder) Words() []uint32 {
	total := 5
	for _, s := range b.sections {
		for _, inst := range s {
			total += len(inst.Words) + 1
		}
	}
	words := make([]uint32, 0, total)
	words = append(words, MagicNumber, b.version.Word(), b.generator, b.nextID, 0)
	for _, s := range b.sections {
		for _, inst := range s {
			words = append(words, inst.Encode()...)
		}
	}
	return words
}

// Bytes returns Words encoded little-endian.
func (b *ModuleBuilder) Bytes() []byte {
	return EncodeWords(b.Words())
}

// EncodeWords encodes words little-endian.
func EncodeWords(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func float32Word(v float64) uint32 {
	return math.Float32bits(float32(v))
}
