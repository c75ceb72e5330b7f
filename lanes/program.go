package lanes

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Op is a lane instruction opcode.
type Op uint8

const (
	OpInvalid Op = iota

	// Data movement.
	OpCopy
	OpSelect
	OpLoadIndirect
	OpStoreIndirect

	// Float arithmetic.
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpNegF
	OpAbsF
	OpSignF
	OpFloorF
	OpCeilF
	OpTruncF
	OpRoundF
	OpRoundEvenF
	OpFractF
	OpSqrtF
	OpInvSqrtF
	OpSinF
	OpCosF
	OpTanF
	OpAsinF
	OpAcosF
	OpAtanF
	OpSinhF
	OpCoshF
	OpTanhF
	OpAsinhF
	OpAcoshF
	OpAtanhF
	OpExpF
	OpLogF
	OpExp2F
	OpLog2F
	OpPowF
	OpAtan2F
	OpMinF
	OpMaxF
	OpIsNanF
	OpIsInfF

	// Integer arithmetic.
	OpAddI
	OpSubI
	OpMulI
	OpDivI
	OpDivU
	OpRemI
	OpRemU
	OpNegI
	OpAbsI
	OpSignI
	OpMinI
	OpMaxI
	OpMinU
	OpMaxU

	// Bitwise. Booleans are all-ones or zero, so the same opcodes serve
	// as logical operators and mask arithmetic.
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShrI
	OpShrU
	OpBitCount
	OpFindLSB
	OpFindMSBI
	OpFindMSBU

	// Comparisons produce a lane mask.
	OpEqF
	OpNeF
	OpLtF
	OpLeF
	OpEqI
	OpNeI
	OpLtI
	OpLeI
	OpLtU
	OpLeU

	// Conversions.
	OpFloatToInt
	OpFloatToUint
	OpIntToFloat
	OpUintToFloat

	// Control flow. Jumps test a mask across every lane.
	OpJump
	OpJumpIfAny
	OpJumpIfNone

	OpInvokeChild

	// Debug trace.
	OpTraceLine
	OpTraceVar
	OpTraceEnter
	OpTraceExit
	OpTraceScope

	opCount
)

var opNames = [...]string{
	OpInvalid:       "invalid",
	OpCopy:          "copy",
	OpSelect:        "select",
	OpLoadIndirect:  "load_indirect",
	OpStoreIndirect: "store_indirect",
	OpAddF:          "add.f",
	OpSubF:          "sub.f",
	OpMulF:          "mul.f",
	OpDivF:          "div.f",
	OpNegF:          "neg.f",
	OpAbsF:          "abs.f",
	OpSignF:         "sign.f",
	OpFloorF:        "floor.f",
	OpCeilF:         "ceil.f",
	OpTruncF:        "trunc.f",
	OpRoundF:        "round.f",
	OpRoundEvenF:    "roundeven.f",
	OpFractF:        "fract.f",
	OpSqrtF:         "sqrt.f",
	OpInvSqrtF:      "invsqrt.f",
	OpSinF:          "sin.f",
	OpCosF:          "cos.f",
	OpTanF:          "tan.f",
	OpAsinF:         "asin.f",
	OpAcosF:         "acos.f",
	OpAtanF:         "atan.f",
	OpSinhF:         "sinh.f",
	OpCoshF:         "cosh.f",
	OpTanhF:         "tanh.f",
	OpAsinhF:        "asinh.f",
	OpAcoshF:        "acosh.f",
	OpAtanhF:        "atanh.f",
	OpExpF:          "exp.f",
	OpLogF:          "log.f",
	OpExp2F:         "exp2.f",
	OpLog2F:         "log2.f",
	OpPowF:          "pow.f",
	OpAtan2F:        "atan2.f",
	OpMinF:          "min.f",
	OpMaxF:          "max.f",
	OpIsNanF:        "isnan.f",
	OpIsInfF:        "isinf.f",
	OpAddI:          "add.i",
	OpSubI:          "sub.i",
	OpMulI:          "mul.i",
	OpDivI:          "div.i",
	OpDivU:          "div.u",
	OpRemI:          "rem.i",
	OpRemU:          "rem.u",
	OpNegI:          "neg.i",
	OpAbsI:          "abs.i",
	OpSignI:         "sign.i",
	OpMinI:          "min.i",
	OpMaxI:          "max.i",
	OpMinU:          "min.u",
	OpMaxU:          "max.u",
	OpAnd:           "and",
	OpOr:            "or",
	OpXor:           "xor",
	OpNot:           "not",
	OpShl:           "shl",
	OpShrI:          "shr.i",
	OpShrU:          "shr.u",
	OpBitCount:      "bitcount",
	OpFindLSB:       "findlsb",
	OpFindMSBI:      "findmsb.i",
	OpFindMSBU:      "findmsb.u",
	OpEqF:           "eq.f",
	OpNeF:           "ne.f",
	OpLtF:           "lt.f",
	OpLeF:           "le.f",
	OpEqI:           "eq.i",
	OpNeI:           "ne.i",
	OpLtI:           "lt.i",
	OpLeI:           "le.i",
	OpLtU:           "lt.u",
	OpLeU:           "le.u",
	OpFloatToInt:    "ftoi",
	OpFloatToUint:   "ftou",
	OpIntToFloat:    "itof",
	OpUintToFloat:   "utof",
	OpJump:          "jump",
	OpJumpIfAny:     "jump_if_any",
	OpJumpIfNone:    "jump_if_none",
	OpInvokeChild:   "invoke_child",
	OpTraceLine:     "trace_line",
	OpTraceVar:      "trace_var",
	OpTraceEnter:    "trace_enter",
	OpTraceExit:     "trace_exit",
	OpTraceScope:    "trace_scope",
}

func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// OperandKind says where an operand reads from.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandSlot
	OperandConstant
	OperandUniform
)

// Operand names one 32-bit lane value: a slot, an entry in the constant
// pool, or a uniform.
type Operand struct {
	Kind  OperandKind `msgpack:"k"`
	Index int32       `msgpack:"i"`
}

// Slot returns an operand reading slot s.
func Slot(s int32) Operand { return Operand{Kind: OperandSlot, Index: s} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandSlot:
		return fmt.Sprintf("s%d", o.Index)
	case OperandConstant:
		return fmt.Sprintf("c%d", o.Index)
	case OperandUniform:
		return fmt.Sprintf("u%d", o.Index)
	}
	return "_"
}

// Instruction is one lane operation, applied to every lane at once.
//
// Unary and binary opcodes write f(A, B) to Dst. OpSelect writes A ? B : C.
// OpLoadIndirect reads A shifted by clamp(B, 0, Len-1)*Imm; OpStoreIndirect
// writes A to Dst shifted the same way in lanes where C is set. Jumps go to
// the instruction at Imm. OpInvokeChild calls child Imm with Len argument
// slots starting at A and writes four slots from Dst in lanes where B is
// set. Trace opcodes record only where A is set.
type Instruction struct {
	Op  Op      `msgpack:"op"`
	Dst int32   `msgpack:"d"`
	A   Operand `msgpack:"a"`
	B   Operand `msgpack:"b"`
	C   Operand `msgpack:"c"`
	Imm int32   `msgpack:"imm"`
	Len int32   `msgpack:"len"`
}

// Binding names a range of uniforms or input slots.
type Binding struct {
	Name  string `msgpack:"name"`
	Start int32  `msgpack:"start"`
	Count int32  `msgpack:"count"`
}

// SlotDebugInfo describes the variable component a slot holds.
type SlotDebugInfo struct {
	Name      string `msgpack:"name"`
	Component int    `msgpack:"component"`
	Line      int32  `msgpack:"line"`
	Kind      string `msgpack:"kind"`
	Function  string `msgpack:"function,omitempty"`
}

// Program is a compiled lane program.
type Program struct {
	Instructions []Instruction `msgpack:"instructions"`
	Constants    []uint32      `msgpack:"constants"`
	SlotCount    int32         `msgpack:"slots"`
	UniformCount int32         `msgpack:"uniformCount"`
	Uniforms     []Binding     `msgpack:"uniforms"`
	Inputs       []Binding     `msgpack:"inputs"`

	// Result lists the slots holding the returned color.
	Result []int32 `msgpack:"result"`

	Children  []string `msgpack:"children,omitempty"`
	Functions []string `msgpack:"functions,omitempty"`

	// DebugInfo is indexed by slot when the program was compiled with
	// tracing.
	DebugInfo []SlotDebugInfo `msgpack:"debugInfo,omitempty"`
}

// wireProgram has the fields of Program without its methods, so msgpack
// encodes the struct instead of calling MarshalBinary again.
type wireProgram Program

// MarshalBinary encodes p with msgpack.
func (p *Program) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal((*wireProgram)(p))
	if err != nil {
		return nil, fmt.Errorf("lanes: encode program: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a program written by MarshalBinary.
func (p *Program) UnmarshalBinary(data []byte) error {
	var q wireProgram
	if err := msgpack.Unmarshal(data, &q); err != nil {
		return fmt.Errorf("lanes: decode program: %w", err)
	}
	*p = Program(q)
	return nil
}

// Dump writes a listing of p, one instruction per line.
func (p *Program) Dump(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "; slots %d, uniforms %d, constants %d\n", p.SlotCount, p.UniformCount, len(p.Constants))
	for _, u := range p.Uniforms {
		fmt.Fprintf(&b, "; uniform %s = u%d..u%d\n", u.Name, u.Start, u.Start+u.Count-1)
	}
	for _, in := range p.Inputs {
		fmt.Fprintf(&b, "; input %s = s%d..s%d\n", in.Name, in.Start, in.Start+in.Count-1)
	}
	for i, c := range p.Constants {
		fmt.Fprintf(&b, "; c%d = %s\n", i, formatBits(c))
	}
	for i, ins := range p.Instructions {
		fmt.Fprintf(&b, "%4d: %s\n", i, ins.format())
	}
	result := make([]string, len(p.Result))
	for i, s := range p.Result {
		result[i] = Slot(s).String()
	}
	fmt.Fprintf(&b, "; result %s\n", strings.Join(result, ", "))
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the listing written by Dump.
func (p *Program) String() string {
	var b strings.Builder
	_ = p.Dump(&b)
	return b.String()
}

func (ins Instruction) format() string {
	name := ins.Op.String()
	switch ins.Op {
	case OpJump:
		return fmt.Sprintf("%s %d", name, ins.Imm)
	case OpJumpIfAny, OpJumpIfNone:
		return fmt.Sprintf("%s %s, %d", name, ins.A, ins.Imm)
	case OpLoadIndirect:
		return fmt.Sprintf("%s s%d, %s[%s*%d < %d]", name, ins.Dst, ins.A, ins.B, ins.Imm, ins.Len)
	case OpStoreIndirect:
		return fmt.Sprintf("%s s%d[%s*%d < %d], %s if %s", name, ins.Dst, ins.B, ins.Imm, ins.Len, ins.A, ins.C)
	case OpInvokeChild:
		return fmt.Sprintf("%s s%d, child%d(%s x%d) if %s", name, ins.Dst, ins.Imm, ins.A, ins.Len, ins.B)
	case OpTraceLine, OpTraceEnter, OpTraceExit, OpTraceScope:
		return fmt.Sprintf("%s %d if %s", name, ins.Imm, ins.A)
	case OpTraceVar:
		return fmt.Sprintf("%s s%d x%d if %s", name, ins.Imm, ins.Len, ins.A)
	}
	operands := []string{fmt.Sprintf("s%d", ins.Dst)}
	for _, o := range []Operand{ins.A, ins.B, ins.C} {
		if o.Kind != OperandNone {
			operands = append(operands, o.String())
		}
	}
	return name + " " + strings.Join(operands, ", ")
}

// formatBits shows a constant both as a float and as raw bits.
func formatBits(bits uint32) string {
	return fmt.Sprintf("0x%08x (%g)", bits, math.Float32frombits(bits))
}
