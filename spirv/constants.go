package spirv

import (
	"encoding/binary"
	"slices"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/shade/ir"
)

// constantEntry is one emitted constant instruction.
type constantEntry struct {
	op       OpCode
	typeID   uint32
	operands []uint32
	id       uint32
}

// word converts a non-negative count or offset to an operand word.
func word(n int) uint32 {
	w, err := safecast.Conv[uint32](n)
	if err != nil {
		ir.Internalf(ir.Position{}, "spirv: operand %d does not fit a word: %v", n, err)
	}
	return w
}

func constantHash(op OpCode, typeID uint32, operands []uint32) uint64 {
	h := xxhash.New()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(op))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], typeID)
	_, _ = h.Write(buf[:])
	for _, w := range operands {
		binary.LittleEndian.PutUint32(buf[:], w)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// constant returns the id of a constant instruction, emitting it the
// first time its contents are seen.
func (g *Generator) constant(op OpCode, typeID uint32, operands ...uint32) uint32 {
	key := constantHash(op, typeID, operands)
	for _, c := range g.constants[key] {
		if c.op == op && c.typeID == typeID && slices.Equal(c.operands, operands) {
			return c.id
		}
	}
	id := g.module.AllocID()
	g.module.Emit(SectionTypes, op, append([]uint32{typeID, id}, operands...)...)
	g.constants[key] = append(g.constants[key], constantEntry{
		op:       op,
		typeID:   typeID,
		operands: slices.Clone(operands),
		id:       id,
	})
	return id
}

// scalarConstant returns the id of scalar value v of type t.
func (g *Generator) scalarConstant(v float64, t *ir.Type) uint32 {
	typeID := g.typeID(t)
	switch t.NumberKind() {
	case ir.NumberBoolean:
		if v != 0 {
			return g.constant(OpConstantTrue, typeID)
		}
		return g.constant(OpConstantFalse, typeID)
	case ir.NumberFloat:
		return g.constant(OpConstant, typeID, float32Word(v))
	case ir.NumberSigned:
		i, err := safecast.Convert[int32](v)
		if err != nil {
			ir.Internalf(ir.Position{}, "spirv: int constant %v: %v", v, err)
		}
		return g.constant(OpConstant, typeID, uint32(i))
	case ir.NumberUnsigned:
		u, err := safecast.Convert[uint32](v)
		if err != nil {
			ir.Internalf(ir.Position{}, "spirv: uint constant %v: %v", v, err)
		}
		return g.constant(OpConstant, typeID, u)
	}
	ir.Internalf(ir.Position{}, "spirv: constant of type %s", t)
	return 0
}

func (g *Generator) intConstant(v int) uint32 {
	return g.scalarConstant(float64(v), g.Types().Int)
}

func (g *Generator) floatConstant(v float64) uint32 {
	return g.scalarConstant(v, g.Types().Float)
}

// splatConstant returns v in every component of scalar, vector or matrix
// type t.
func (g *Generator) splatConstant(v float64, t *ir.Type) uint32 {
	s := g.scalarConstant(v, t.ComponentType())
	switch t.Kind() {
	case ir.TypeVector:
		return g.constant(OpConstantComposite, g.typeID(t), repeat(s, t.Columns())...)
	case ir.TypeMatrix:
		col := g.Types().Vector(t.ComponentType(), t.Rows())
		c := g.constant(OpConstantComposite, g.typeID(col), repeat(s, t.Rows())...)
		return g.constant(OpConstantComposite, g.typeID(t), repeat(c, t.Columns())...)
	}
	return s
}

// compositeConstant returns the id of compile-time constant e, a scalar,
// vector or matrix.
func (g *Generator) compositeConstant(e ir.Expression) uint32 {
	t := e.Type()
	slot := func(i int) uint32 {
		v, ok := ir.ConstantSlot(e, i)
		if !ok {
			ir.Internalf(e.Position(), "spirv: slot %d of %s is not constant", i, ir.Description(e))
		}
		return g.scalarConstant(v, t.ComponentType())
	}
	switch t.Kind() {
	case ir.TypeScalar:
		return slot(0)
	case ir.TypeVector:
		ids := make([]uint32, t.Columns())
		for i := range ids {
			ids[i] = slot(i)
		}
		return g.constant(OpConstantComposite, g.typeID(t), ids...)
	case ir.TypeMatrix:
		col := g.Types().Vector(t.ComponentType(), t.Rows())
		cols := make([]uint32, t.Columns())
		for c := range cols {
			ids := make([]uint32, t.Rows())
			for r := range ids {
				ids[r] = slot(c*t.Rows() + r)
			}
			cols[c] = g.constant(OpConstantComposite, g.typeID(col), ids...)
		}
		return g.constant(OpConstantComposite, g.typeID(t), cols...)
	}
	ir.Internalf(e.Position(), "spirv: constant of type %s", t)
	return 0
}

func repeat(id uint32, n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = id
	}
	return ids
}
