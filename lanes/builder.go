package lanes

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

const (
	maskTrue  uint32 = 0xFFFFFFFF
	maskFalse uint32 = 0
)

// value is the lowered form of an expression: one operand per slot of
// its type.
type value []Operand

// cseEntry is a pure instruction already emitted in the current straight
// line region.
type cseEntry struct {
	ins Instruction
	dst int32
}

// builder owns the instruction stream, slot allocation and the constant
// pool of one program.
type builder struct {
	code      []Instruction
	constants []uint32
	constIDs  map[uint32]int32
	slots     int32
	mutable   []bool
	cse       map[uint64][]cseEntry
	noCSE     bool
}

func newBuilder(noCSE bool) *builder {
	return &builder{
		constIDs: make(map[uint32]int32),
		cse:      make(map[uint64][]cseEntry),
		noCSE:    noCSE,
	}
}

// alloc reserves n consecutive slots. Mutable slots are written more than
// once and never take part in instruction reuse.
func (b *builder) alloc(n int, mutable bool) int32 {
	first := b.slots
	b.slots += int32(n)
	for range n {
		b.mutable = append(b.mutable, mutable)
	}
	return first
}

func (b *builder) isMutable(o Operand) bool {
	return o.Kind == OperandSlot && b.mutable[o.Index]
}

// constant returns the pool operand holding bits, adding it once.
func (b *builder) constant(bits uint32) Operand {
	id, ok := b.constIDs[bits]
	if !ok {
		id = int32(len(b.constants))
		b.constants = append(b.constants, bits)
		b.constIDs[bits] = id
	}
	return Operand{Kind: OperandConstant, Index: id}
}

func (b *builder) float(v float32) Operand { return b.constant(math.Float32bits(v)) }

func (b *builder) mask(v bool) Operand {
	if v {
		return b.constant(maskTrue)
	}
	return b.constant(maskFalse)
}

// constantBits returns the bits of a constant operand.
func (b *builder) constantBits(o Operand) (uint32, bool) {
	if o.Kind != OperandConstant {
		return 0, false
	}
	return b.constants[o.Index], true
}

func (b *builder) isConstant(o Operand, bits uint32) bool {
	c, ok := b.constantBits(o)
	return ok && c == bits
}

func (b *builder) emit(ins Instruction) int {
	b.code = append(b.code, ins)
	return len(b.code) - 1
}

// pure emits ins into a fresh slot, or returns the slot of an identical
// instruction emitted earlier in the same region.
func (b *builder) pure(ins Instruction) Operand {
	reusable := !b.noCSE && !b.isMutable(ins.A) && !b.isMutable(ins.B) && !b.isMutable(ins.C)
	var key uint64
	if reusable {
		key = instructionKey(ins)
		for _, e := range b.cse[key] {
			if e.ins == ins {
				return Slot(e.dst)
			}
		}
	}
	ins.Dst = b.alloc(1, false)
	b.emit(ins)
	if reusable {
		e := ins
		e.Dst = 0
		b.cse[key] = append(b.cse[key], cseEntry{ins: e, dst: ins.Dst})
	}
	return Slot(ins.Dst)
}

func instructionKey(ins Instruction) uint64 {
	var buf [40]byte
	p := buf[:0]
	p = append(p, byte(ins.Op))
	for _, o := range []Operand{ins.A, ins.B, ins.C} {
		p = append(p, byte(o.Kind))
		p = binary.LittleEndian.AppendUint32(p, uint32(o.Index))
	}
	p = binary.LittleEndian.AppendUint32(p, uint32(ins.Imm))
	p = binary.LittleEndian.AppendUint32(p, uint32(ins.Len))
	return xxhash.Sum64(p)
}

// forget drops every reusable instruction. Called wherever control can
// arrive from more than one place.
func (b *builder) forget() {
	clear(b.cse)
}

func (b *builder) op1(op Op, a Operand) Operand {
	return b.pure(Instruction{Op: op, A: a})
}

func (b *builder) op2(op Op, a1, a2 Operand) Operand {
	return b.pure(Instruction{Op: op, A: a1, B: a2})
}

func (b *builder) op3(op Op, a1, a2, a3 Operand) Operand {
	return b.pure(Instruction{Op: op, A: a1, B: a2, C: a3})
}

// copyTo writes src to dst in every lane.
func (b *builder) copyTo(dst int32, src Operand) {
	if src.Kind == OperandSlot && src.Index == dst {
		return
	}
	b.emit(Instruction{Op: OpCopy, Dst: dst, A: src})
}

// storeMasked writes src to dst in the lanes set in mask.
func (b *builder) storeMasked(dst int32, src, mask Operand) {
	if b.isConstant(mask, maskTrue) {
		b.copyTo(dst, src)
		return
	}
	if b.isConstant(mask, maskFalse) {
		return
	}
	b.emit(Instruction{Op: OpSelect, Dst: dst, A: mask, B: src, C: Slot(dst)})
}

// snapshot returns o, copied to a fresh slot when o can change later.
func (b *builder) snapshot(o Operand) Operand {
	if !b.isMutable(o) {
		return o
	}
	dst := b.alloc(1, false)
	b.emit(Instruction{Op: OpCopy, Dst: dst, A: o})
	return Slot(dst)
}

func (b *builder) snapshotValue(v value) value {
	out := make(value, len(v))
	for i, o := range v {
		out[i] = b.snapshot(o)
	}
	return out
}

// and, or and not fold constant masks.
func (b *builder) and(x, y Operand) Operand {
	switch {
	case b.isConstant(x, maskTrue):
		return y
	case b.isConstant(y, maskTrue):
		return x
	case b.isConstant(x, maskFalse), b.isConstant(y, maskFalse):
		return b.mask(false)
	}
	return b.op2(OpAnd, x, y)
}

func (b *builder) or(x, y Operand) Operand {
	switch {
	case b.isConstant(x, maskFalse):
		return y
	case b.isConstant(y, maskFalse):
		return x
	case b.isConstant(x, maskTrue), b.isConstant(y, maskTrue):
		return b.mask(true)
	}
	return b.op2(OpOr, x, y)
}

func (b *builder) not(x Operand) Operand {
	if c, ok := b.constantBits(x); ok {
		return b.constant(^c)
	}
	return b.op1(OpNot, x)
}

// here returns the index of the next instruction and starts a new region.
func (b *builder) here() int32 {
	b.forget()
	return int32(len(b.code))
}

// patch points the jump at index at to target.
func (b *builder) patch(at int, target int32) {
	b.code[at].Imm = target
}
