package spirv

import "github.com/gogpu/shade/ir"

// lvalue is an assignable location.
type lvalue interface {
	load() uint32
	store(v uint32)
}

// pointerLValue is storage reached through a pointer id.
type pointerLValue struct {
	g       *Generator
	ptr     uint32
	typ     *ir.Type
	storage StorageClass
	layout  MemoryLayout
}

func (lv *pointerLValue) load() uint32 {
	return lv.g.loadPointer(lv.ptr, lv.typ, lv.layout)
}

func (lv *pointerLValue) store(v uint32) {
	lv.g.emit(OpStore, lv.ptr, v)
}

// swizzleLValue writes selected components of a vector by loading the
// whole vector, merging in the new components and storing it back.
type swizzleLValue struct {
	base       *pointerLValue
	components []int8
	typ        *ir.Type
}

func (lv *swizzleLValue) load() uint32 {
	g := lv.base.g
	return g.swizzle(lv.base.load(), lv.base.typ, lv.components, lv.typ)
}

func (lv *swizzleLValue) store(v uint32) {
	g := lv.base.g
	vt := lv.base.typ
	whole := lv.base.load()
	var merged uint32
	if len(lv.components) == 1 {
		merged = g.op(OpCompositeInsert, vt, v, whole, uint32(lv.components[0]))
	} else {
		n := vt.Columns()
		operands := []uint32{whole, v}
		for j := range n {
			src := word(j)
			for i, c := range lv.components {
				if int(c) == j {
					src = word(n + i)
				}
			}
			operands = append(operands, src)
		}
		merged = g.op(OpVectorShuffle, vt, operands...)
	}
	lv.base.store(merged)
}

// lvalue returns the location named by e.
func (g *Generator) lvalue(e ir.Expression) lvalue {
	if s, ok := e.(*ir.Swizzle); ok {
		components := s.Components
		base := s.Base
		for inner, ok := base.(*ir.Swizzle); ok; inner, ok = base.(*ir.Swizzle) {
			composed := make([]int8, len(components))
			for i, c := range components {
				composed[i] = inner.Components[c]
			}
			components = composed
			base = inner.Base
		}
		return &swizzleLValue{base: g.pointerLValue(base), components: components, typ: s.Type()}
	}
	return g.pointerLValue(e)
}

// pointerLValue returns the pointer to the storage named by e.
func (g *Generator) pointerLValue(e ir.Expression) *pointerLValue {
	switch e := e.(type) {
	case *ir.VariableReference:
		return g.variablePointer(e.Variable)
	case *ir.FieldAccess:
		base := g.pointerLValue(e.Base)
		t := e.Type()
		ptrType := g.pointerType(base.storage, g.layoutTypeID(t, base.layout))
		ptr := g.accessChain(ptrType, base.ptr, g.intConstant(e.Index))
		return &pointerLValue{g: g, ptr: ptr, typ: t, storage: base.storage, layout: base.layout}
	case *ir.IndexExpression:
		base := g.pointerLValue(e.Base)
		index := g.expression(e.Index)
		t := e.Type()
		ptrType := g.pointerType(base.storage, g.layoutTypeID(t, base.layout))
		ptr := g.accessChain(ptrType, base.ptr, index)
		return &pointerLValue{g: g, ptr: ptr, typ: t, storage: base.storage, layout: base.layout}
	}
	ir.Internalf(e.Position(), "spirv: %s is not addressable", ir.Description(e))
	return nil
}

// variablePointer returns the pointer to v, reaching into its uniform
// block when it is a block member.
func (g *Generator) variablePointer(v *ir.Variable) *pointerLValue {
	info, ok := g.variables[v]
	if !ok {
		info = g.undeclaredVariable(v)
	}
	if info.member < 0 {
		return &pointerLValue{g: g, ptr: info.ptr, typ: v.Type(), storage: info.storage, layout: info.layout}
	}
	ptrType := g.pointerType(info.storage, g.layoutTypeID(v.Type(), info.layout))
	ptr := g.accessChain(ptrType, info.ptr, g.intConstant(info.member))
	return &pointerLValue{g: g, ptr: ptr, typ: v.Type(), storage: info.storage, layout: info.layout}
}

func (g *Generator) accessChain(ptrType, base uint32, indices ...uint32) uint32 {
	id := g.module.AllocID()
	g.emit(OpAccessChain, append([]uint32{ptrType, id, base}, indices...)...)
	return id
}

// loadPointer loads a value of type t. Arrays and structs read from a
// laid-out buffer are rebuilt member by member as the plain type.
func (g *Generator) loadPointer(ptr uint32, t *ir.Type, l MemoryLayout) uint32 {
	id := g.valueID(t)
	g.emit(OpLoad, g.layoutTypeID(t, l), id, ptr)
	if l == LayoutNone || !(t.IsArray() || t.IsStruct()) {
		return id
	}
	return g.copyLogical(id, t, l)
}

func (g *Generator) copyLogical(id uint32, t *ir.Type, l MemoryLayout) uint32 {
	part := func(pt *ir.Type, i int) uint32 {
		m := g.valueID(pt)
		g.emit(OpCompositeExtract, g.layoutTypeID(pt, l), m, id, word(i))
		if pt.IsArray() || pt.IsStruct() {
			return g.copyLogical(m, pt, l)
		}
		return m
	}
	var ids []uint32
	switch {
	case t.IsStruct():
		for i, f := range t.Fields() {
			ids = append(ids, part(f.Type, i))
		}
	default:
		for i := range t.ArrayLength() {
			ids = append(ids, part(t.ComponentType(), i))
		}
	}
	return g.construct(t, ids...)
}

// undeclaredVariable stands in for a variable whose declaration reported
// an error. The placeholder is an undefined pointer, so lowering goes on
// and the module is discarded with the accumulated errors.
func (g *Generator) undeclaredVariable(v *ir.Variable) variable {
	if !g.Failed() {
		ir.Internalf(v.Pos, "spirv: variable '%s' was not declared", v.Name)
	}
	ptr := g.pointerType(StorageClassPrivate, g.typeID(v.Type()))
	info := variable{ptr: g.constant(OpUndef, ptr), storage: StorageClassPrivate, member: -1}
	g.variables[v] = info
	return info
}
