package spirv

import (
	"strconv"
	"strings"

	"github.com/gogpu/shade/ir"
)

// typeKey identifies one emitted SPIR-V type. Float and half share a key:
// precision is carried by RelaxedPrecision decorations on values, not by
// the type.
type typeKey struct {
	kind    ir.TypeKind
	number  ir.NumberKind
	columns int
	rows    int
	length  int
	elem    uint32
	strct   *ir.Type
	layout  MemoryLayout
}

type pointerKey struct {
	storage StorageClass
	pointee uint32
}

// typeID returns the id of t for values outside buffers.
func (g *Generator) typeID(t *ir.Type) uint32 {
	return g.layoutTypeID(t, LayoutNone)
}

// layoutTypeID returns the id of t laid out with l. Only arrays and
// structs differ by layout; their members carry stride and offset
// decorations.
func (g *Generator) layoutTypeID(t *ir.Type, l MemoryLayout) uint32 {
	key := typeKey{kind: t.Kind(), number: t.NumberKind()}
	switch t.Kind() {
	case ir.TypeVoid, ir.TypeSampler:
	case ir.TypeScalar:
	case ir.TypeVector:
		key.columns = t.Columns()
		key.elem = g.typeID(t.ComponentType())
	case ir.TypeMatrix:
		key.columns = t.Columns()
		key.elem = g.typeID(g.Types().Vector(t.ComponentType(), t.Rows()))
	case ir.TypeArray:
		key.length = t.ArrayLength()
		key.elem = g.layoutTypeID(t.ComponentType(), l)
		key.layout = l
	case ir.TypeStruct:
		key.strct = t
		key.layout = l
	default:
		g.Unsupported(ir.Position{}, "type '"+t.Name()+"'")
		return g.typeID(g.Types().Void)
	}
	if id, ok := g.types[key]; ok {
		return id
	}

	var id uint32
	switch t.Kind() {
	case ir.TypeVoid:
		id = g.emitType(OpTypeVoid)
	case ir.TypeScalar:
		switch t.NumberKind() {
		case ir.NumberFloat:
			id = g.emitType(OpTypeFloat, 32)
		case ir.NumberSigned:
			id = g.emitType(OpTypeInt, 32, 1)
		case ir.NumberUnsigned:
			id = g.emitType(OpTypeInt, 32, 0)
		default:
			id = g.emitType(OpTypeBool)
		}
	case ir.TypeVector:
		id = g.emitType(OpTypeVector, key.elem, word(key.columns))
	case ir.TypeMatrix:
		id = g.emitType(OpTypeMatrix, key.elem, word(key.columns))
	case ir.TypeArray:
		length := g.intConstant(t.ArrayLength())
		id = g.emitType(OpTypeArray, key.elem, length)
		if l != LayoutNone {
			g.module.AddDecorate(id, DecorationArrayStride, word(l.Stride(t)))
		}
	case ir.TypeSampler:
		image := g.emitType(OpTypeImage, g.typeID(g.Types().Float), uint32(Dim2D), 0, 0, 0, 1, 0)
		id = g.emitType(OpTypeSampledImage, image)
	case ir.TypeStruct:
		id = g.structType(t.Fields(), l, nil)
		if g.options.DebugNames {
			g.module.AddName(id, t.Name())
		}
	}
	g.types[key] = id
	return id
}

func (g *Generator) emitType(op OpCode, operands ...uint32) uint32 {
	id := g.module.AllocID()
	g.module.Emit(SectionTypes, op, append([]uint32{id}, operands...)...)
	return id
}

// structType emits a fresh OpTypeStruct for fields. With a layout every
// member gets an Offset, and matrices get ColMajor and MatrixStride.
// Offsets come from members when given, else from l.
func (g *Generator) structType(fields []ir.Field, l MemoryLayout, members []Member) uint32 {
	ids := make([]uint32, len(fields))
	for i, f := range fields {
		ids[i] = g.layoutTypeID(f.Type, l)
	}
	id := g.emitType(OpTypeStruct, ids...)

	if l != LayoutNone && members == nil {
		var err error
		members, err = l.LayoutMembers(fields)
		if err != nil {
			var pos ir.Position
			if len(fields) > 0 {
				pos = fields[0].Pos
			}
			g.Errorf(pos, "%v", err)
		}
	}
	for i, f := range fields {
		m := word(i)
		if g.options.DebugNames {
			g.module.AddMemberName(id, m, f.Name)
		}
		if g.relaxed(f.Type) {
			g.module.AddMemberDecorate(id, m, DecorationRelaxedPrecision)
		}
		if i >= len(members) {
			continue
		}
		g.module.AddMemberDecorate(id, m, DecorationOffset, word(members[i].Offset))
		if mt := matrixOf(f.Type); mt != nil {
			g.module.AddMemberDecorate(id, m, DecorationColMajor)
			g.module.AddMemberDecorate(id, m, DecorationMatrixStride, word(l.Stride(mt)))
		}
	}
	return id
}

// matrixOf returns t or the innermost element of array t when it is a
// matrix.
func matrixOf(t *ir.Type) *ir.Type {
	for t.IsArray() {
		t = t.ComponentType()
	}
	if t.IsMatrix() {
		return t
	}
	return nil
}

// pointerType returns the id of a pointer to pointee in storage s.
func (g *Generator) pointerType(s StorageClass, pointee uint32) uint32 {
	key := pointerKey{storage: s, pointee: pointee}
	if id, ok := g.pointers[key]; ok {
		return id
	}
	id := g.emitType(OpTypePointer, uint32(s), pointee)
	g.pointers[key] = id
	return id
}

// functionType returns the id of a function type.
func (g *Generator) functionType(ret uint32, params []uint32) uint32 {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(ret), 10))
	for _, p := range params {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	key := sb.String()
	if id, ok := g.funcTypes[key]; ok {
		return id
	}
	id := g.emitType(OpTypeFunction, append([]uint32{ret}, params...)...)
	g.funcTypes[key] = id
	return id
}

// relaxed reports whether values of t get RelaxedPrecision.
func (g *Generator) relaxed(t *ir.Type) bool {
	if g.Context.Settings.ForceHighPrecision {
		return false
	}
	switch t.NumberKind() {
	case ir.NumberFloat, ir.NumberSigned, ir.NumberUnsigned:
		return !t.HighPrecision()
	}
	return false
}

// valueID allocates a result id for a value of type t, decorated
// RelaxedPrecision when t is a relaxed type.
func (g *Generator) valueID(t *ir.Type) uint32 {
	id := g.module.AllocID()
	if g.relaxed(t) {
		g.module.AddDecorate(id, DecorationRelaxedPrecision)
	}
	return id
}
