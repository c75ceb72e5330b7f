package lanes

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/shade/ir"
)

// DefaultMaxSteps bounds the instructions one Run may execute.
const DefaultMaxSteps = 1 << 22

// ErrStepLimit is returned when a program runs past RunOptions.MaxSteps.
var ErrStepLimit = errors.New("lanes: step limit exceeded")

// ChildFunc evaluates child for one lane. args are the call arguments as
// floats; the result is an RGBA color.
type ChildFunc func(child, lane int, args []float32) [4]float32

// RunOptions configures the reference interpreter.
type RunOptions struct {
	// Lanes is the number of invocations executed together. Zero means one.
	Lanes int

	// Uniforms holds one word per uniform slot, shared by every lane.
	Uniforms []uint32

	// Inputs holds one entry per input slot, in binding order. Each entry
	// is either one word for every lane or a single word broadcast to all.
	Inputs [][]uint32

	Child ChildFunc

	// Trace records the events of lane TraceLane.
	Trace     bool
	TraceLane int

	// MaxSteps defaults to DefaultMaxSteps.
	MaxSteps int
}

// RunResult holds the final color of every lane.
type RunResult struct {
	// Result is indexed by component, then lane.
	Result [][]uint32
	Trace  []TraceEvent
}

// Float returns a result component of one lane as a float.
func (r *RunResult) Float(component, lane int) float32 {
	return math.Float32frombits(r.Result[component][lane])
}

// FloatBits converts floats to their slot representation.
func FloatBits(v ...float32) []uint32 {
	out := make([]uint32, len(v))
	for i, f := range v {
		out[i] = math.Float32bits(f)
	}
	return out
}

type machine struct {
	p     *Program
	lanes int
	mem   []uint32
	opts  RunOptions
	trace []TraceEvent
}

// Run executes p over opts.Lanes invocations.
func (p *Program) Run(opts RunOptions) (*RunResult, error) {
	if opts.Lanes <= 0 {
		opts.Lanes = 1
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if len(opts.Uniforms) < int(p.UniformCount) {
		return nil, fmt.Errorf("lanes: program needs %d uniform words, got %d", p.UniformCount, len(opts.Uniforms))
	}
	m := &machine{
		p:     p,
		lanes: opts.Lanes,
		mem:   make([]uint32, int(p.SlotCount)*opts.Lanes),
		opts:  opts,
	}
	if err := m.loadInputs(); err != nil {
		return nil, err
	}

	steps := 0
	for pc := 0; pc < len(p.Instructions); {
		if steps++; steps > opts.MaxSteps {
			return nil, ErrStepLimit
		}
		next, err := m.step(pc)
		if err != nil {
			return nil, fmt.Errorf("lanes: instruction %d: %w", pc, err)
		}
		pc = next
	}

	res := &RunResult{Result: make([][]uint32, len(p.Result)), Trace: m.trace}
	for i, s := range p.Result {
		res.Result[i] = append([]uint32(nil), m.row(s)...)
	}
	return res, nil
}

func (m *machine) loadInputs() error {
	i := 0
	for _, b := range m.p.Inputs {
		for s := b.Start; s < b.Start+b.Count; s++ {
			if i >= len(m.opts.Inputs) {
				return fmt.Errorf("lanes: missing value for input %s", b.Name)
			}
			in := m.opts.Inputs[i]
			row := m.row(s)
			switch len(in) {
			case 1:
				for l := range row {
					row[l] = in[0]
				}
			case m.lanes:
				copy(row, in)
			default:
				return fmt.Errorf("lanes: input %s has %d values for %d lanes", b.Name, len(in), m.lanes)
			}
			i++
		}
	}
	return nil
}

func (m *machine) row(s int32) []uint32 {
	start := int(s) * m.lanes
	return m.mem[start : start+m.lanes]
}

func (m *machine) get(o Operand, lane int) uint32 {
	switch o.Kind {
	case OperandSlot:
		return m.mem[int(o.Index)*m.lanes+lane]
	case OperandConstant:
		return m.p.Constants[o.Index]
	case OperandUniform:
		return m.opts.Uniforms[o.Index]
	}
	return 0
}

func (m *machine) any(o Operand) bool {
	for l := range m.lanes {
		if m.get(o, l) != 0 {
			return true
		}
	}
	return false
}

func (m *machine) step(pc int) (int, error) {
	ins := &m.p.Instructions[pc]
	switch ins.Op {
	case OpJump:
		return int(ins.Imm), nil
	case OpJumpIfAny:
		if m.any(ins.A) {
			return int(ins.Imm), nil
		}
		return pc + 1, nil
	case OpJumpIfNone:
		if !m.any(ins.A) {
			return int(ins.Imm), nil
		}
		return pc + 1, nil
	case OpLoadIndirect:
		dst := m.row(ins.Dst)
		for l := range dst {
			at := ins.A.Index + clampLane(m.get(ins.B, l), ins.Len)*ins.Imm
			dst[l] = m.mem[int(at)*m.lanes+l]
		}
	case OpStoreIndirect:
		for l := range m.lanes {
			if m.get(ins.C, l) == 0 {
				continue
			}
			at := ins.Dst + clampLane(m.get(ins.B, l), ins.Len)*ins.Imm
			m.mem[int(at)*m.lanes+l] = m.get(ins.A, l)
		}
	case OpSelect:
		dst := m.row(ins.Dst)
		for l := range dst {
			if m.get(ins.A, l) != 0 {
				dst[l] = m.get(ins.B, l)
			} else {
				dst[l] = m.get(ins.C, l)
			}
		}
	case OpInvokeChild:
		return pc + 1, m.invokeChild(ins)
	case OpTraceLine, OpTraceVar, OpTraceEnter, OpTraceExit, OpTraceScope:
		m.record(ins)
	default:
		if ins.Op >= opCount || ins.Op == OpInvalid {
			return 0, fmt.Errorf("invalid opcode %s", ins.Op)
		}
		dst := m.row(ins.Dst)
		for l := range dst {
			dst[l] = apply(ins.Op, m.get(ins.A, l), m.get(ins.B, l))
		}
	}
	return pc + 1, nil
}

func (m *machine) invokeChild(ins *Instruction) error {
	if m.opts.Child == nil {
		return fmt.Errorf("child %d called without a callback", ins.Imm)
	}
	args := make([]float32, ins.Len)
	for l := range m.lanes {
		if m.get(ins.B, l) == 0 {
			continue
		}
		for i := range args {
			args[i] = math.Float32frombits(m.get(Slot(ins.A.Index+int32(i)), l))
		}
		color := m.opts.Child(int(ins.Imm), l, args)
		for i, c := range color {
			m.mem[int(ins.Dst+int32(i))*m.lanes+l] = math.Float32bits(c)
		}
	}
	return nil
}

func (m *machine) record(ins *Instruction) {
	lane := m.opts.TraceLane
	if !m.opts.Trace || lane < 0 || lane >= m.lanes || m.get(ins.A, lane) == 0 {
		return
	}
	switch ins.Op {
	case OpTraceLine:
		m.trace = append(m.trace, TraceEvent{Kind: TraceLine, Value: ins.Imm})
	case OpTraceEnter:
		m.trace = append(m.trace, TraceEvent{Kind: TraceEnter, Value: ins.Imm})
	case OpTraceExit:
		m.trace = append(m.trace, TraceEvent{Kind: TraceExit, Value: ins.Imm})
	case OpTraceScope:
		m.trace = append(m.trace, TraceEvent{Kind: TraceScope, Value: ins.Imm})
	case OpTraceVar:
		for s := ins.Imm; s < ins.Imm+ins.Len; s++ {
			m.trace = append(m.trace, TraceEvent{Kind: TraceVar, Slot: s, Bits: m.get(Slot(s), lane)})
		}
	}
}

// clampLane limits a signed index to [0, n).
func clampLane(index uint32, n int32) int32 {
	i := int32(index)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func mask(v bool) uint32 {
	if v {
		return maskTrue
	}
	return maskFalse
}

func f32(x uint32) float64 { return float64(math.Float32frombits(x)) }

func bitsOf(x float64) uint32 { return math.Float32bits(float32(x)) }

// apply evaluates a unary or binary opcode on one lane.
func apply(op Op, a, b uint32) uint32 {
	x, y := f32(a), f32(b)
	i, j := int32(a), int32(b)
	switch op {
	case OpCopy:
		return a
	case OpAddF:
		return math.Float32bits(float32(x) + float32(y))
	case OpSubF:
		return math.Float32bits(float32(x) - float32(y))
	case OpMulF:
		return math.Float32bits(float32(x) * float32(y))
	case OpDivF:
		return math.Float32bits(float32(x) / float32(y))
	case OpNegF:
		return a ^ 0x80000000
	case OpAbsF:
		return a &^ 0x80000000
	case OpSignF:
		switch {
		case x > 0:
			return bitsOf(1)
		case x < 0:
			return bitsOf(-1)
		}
		return a
	case OpFloorF:
		return bitsOf(math.Floor(x))
	case OpCeilF:
		return bitsOf(math.Ceil(x))
	case OpTruncF:
		return bitsOf(math.Trunc(x))
	case OpRoundF:
		return bitsOf(math.Round(x))
	case OpRoundEvenF:
		return bitsOf(math.RoundToEven(x))
	case OpFractF:
		return bitsOf(x - math.Floor(x))
	case OpSqrtF:
		return bitsOf(math.Sqrt(x))
	case OpInvSqrtF:
		return bitsOf(1 / math.Sqrt(x))
	case OpSinF:
		return bitsOf(math.Sin(x))
	case OpCosF:
		return bitsOf(math.Cos(x))
	case OpTanF:
		return bitsOf(math.Tan(x))
	case OpAsinF:
		return bitsOf(math.Asin(x))
	case OpAcosF:
		return bitsOf(math.Acos(x))
	case OpAtanF:
		return bitsOf(math.Atan(x))
	case OpSinhF:
		return bitsOf(math.Sinh(x))
	case OpCoshF:
		return bitsOf(math.Cosh(x))
	case OpTanhF:
		return bitsOf(math.Tanh(x))
	case OpAsinhF:
		return bitsOf(math.Asinh(x))
	case OpAcoshF:
		return bitsOf(math.Acosh(x))
	case OpAtanhF:
		return bitsOf(math.Atanh(x))
	case OpExpF:
		return bitsOf(math.Exp(x))
	case OpLogF:
		return bitsOf(math.Log(x))
	case OpExp2F:
		return bitsOf(math.Exp2(x))
	case OpLog2F:
		return bitsOf(math.Log2(x))
	case OpPowF:
		return bitsOf(math.Pow(x, y))
	case OpAtan2F:
		return bitsOf(math.Atan2(x, y))
	case OpMinF:
		return bitsOf(math.Min(x, y))
	case OpMaxF:
		return bitsOf(math.Max(x, y))
	case OpIsNanF:
		return mask(math.IsNaN(x))
	case OpIsInfF:
		return mask(math.IsInf(x, 0))

	case OpAddI:
		return a + b
	case OpSubI:
		return a - b
	case OpMulI:
		return a * b
	case OpDivI:
		if j == 0 {
			return 0
		}
		return uint32(i / j)
	case OpDivU:
		if b == 0 {
			return 0
		}
		return a / b
	case OpRemI:
		if j == 0 {
			return 0
		}
		return uint32(i % j)
	case OpRemU:
		if b == 0 {
			return 0
		}
		return a % b
	case OpNegI:
		return uint32(-i)
	case OpAbsI:
		if i < 0 {
			return uint32(-i)
		}
		return a
	case OpSignI:
		switch {
		case i > 0:
			return 1
		case i < 0:
			return maskTrue
		}
		return 0
	case OpMinI:
		return uint32(min(i, j))
	case OpMaxI:
		return uint32(max(i, j))
	case OpMinU:
		return min(a, b)
	case OpMaxU:
		return max(a, b)

	case OpAnd:
		return a & b
	case OpOr:
		return a | b
	case OpXor:
		return a ^ b
	case OpNot:
		return ^a
	case OpShl:
		return a << (b & 31)
	case OpShrI:
		return uint32(i >> (b & 31))
	case OpShrU:
		return a >> (b & 31)
	case OpBitCount:
		return uint32(bits.OnesCount32(a))
	case OpFindLSB:
		if a == 0 {
			return maskTrue
		}
		return uint32(bits.TrailingZeros32(a))
	case OpFindMSBI:
		if i < 0 {
			a = ^a
		}
		return uint32(int32(31 - bits.LeadingZeros32(a)))
	case OpFindMSBU:
		return uint32(int32(31 - bits.LeadingZeros32(a)))

	case OpEqF:
		return mask(x == y)
	case OpNeF:
		return mask(x != y)
	case OpLtF:
		return mask(x < y)
	case OpLeF:
		return mask(x <= y)
	case OpEqI:
		return mask(a == b)
	case OpNeI:
		return mask(a != b)
	case OpLtI:
		return mask(i < j)
	case OpLeI:
		return mask(i <= j)
	case OpLtU:
		return mask(a < b)
	case OpLeU:
		return mask(a <= b)

	case OpFloatToInt:
		return convertBits(a, ir.NumberFloat, ir.NumberSigned)
	case OpFloatToUint:
		return convertBits(a, ir.NumberFloat, ir.NumberUnsigned)
	case OpIntToFloat:
		return convertBits(a, ir.NumberSigned, ir.NumberFloat)
	case OpUintToFloat:
		return convertBits(a, ir.NumberUnsigned, ir.NumberFloat)
	}
	return 0
}

// convertBits converts one slot between number kinds. Float to integer
// conversion truncates and saturates; NaN becomes zero.
func convertBits(v uint32, from, to ir.NumberKind) uint32 {
	if from == to {
		return v
	}
	switch to {
	case ir.NumberBoolean:
		if from == ir.NumberFloat {
			return mask(f32(v) != 0)
		}
		return mask(v != 0)
	case ir.NumberFloat:
		switch from {
		case ir.NumberSigned:
			return math.Float32bits(float32(int32(v)))
		case ir.NumberUnsigned:
			return math.Float32bits(float32(v))
		}
		if v != 0 {
			return math.Float32bits(1)
		}
		return math.Float32bits(0)
	}
	switch from {
	case ir.NumberFloat:
		x := math.Trunc(f32(v))
		if to == ir.NumberSigned {
			switch {
			case math.IsNaN(x):
				return 0
			case x <= math.MinInt32:
				return 1 << 31
			case x >= math.MaxInt32:
				return math.MaxInt32
			}
			return uint32(int32(x))
		}
		switch {
		case math.IsNaN(x), x <= 0:
			return 0
		case x >= math.MaxUint32:
			return math.MaxUint32
		}
		return uint32(x)
	case ir.NumberBoolean:
		if v != 0 {
			return 1
		}
		return 0
	}
	// Signed and unsigned share a representation.
	return v
}
