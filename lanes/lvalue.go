package lanes

import (
	"github.com/gogpu/shade/ir"
)

// lvalue is an assignable location. Stores only reach the live lanes.
type lvalue interface {
	load() value
	store(v value)
}

// slotLValue is a fixed list of slots, possibly reordered by swizzles.
type slotLValue struct {
	g     *Generator
	slots []int32
	first int32
	count int
}

func (lv *slotLValue) load() value {
	out := make(value, len(lv.slots))
	for i, s := range lv.slots {
		out[i] = Slot(s)
	}
	return out
}

func (lv *slotLValue) store(v value) {
	lv.g.store(lv.slots, v)
	lv.g.traceVar(lv.first, lv.count)
}

// indirectLValue is an element selected by a dynamic index. offsets are
// the slots of the element that are read or written, relative to base.
type indirectLValue struct {
	g       *Generator
	base    int32
	index   Operand
	stride  int32
	length  int32
	offsets []int32
	first   int32
	count   int
}

func (lv *indirectLValue) load() value {
	g := lv.g
	out := make(value, len(lv.offsets))
	for i, off := range lv.offsets {
		dst := g.alloc(1, false)
		g.emit(Instruction{Op: OpLoadIndirect, Dst: dst, A: Slot(lv.base + off), B: lv.index, Imm: lv.stride, Len: lv.length})
		out[i] = Slot(dst)
	}
	return out
}

func (lv *indirectLValue) store(v value) {
	g := lv.g
	live := g.execMask()
	for i, off := range lv.offsets {
		g.emit(Instruction{Op: OpStoreIndirect, Dst: lv.base + off, A: v[i], B: lv.index, C: live, Imm: lv.stride, Len: lv.length})
	}
	g.traceVar(lv.first, lv.count)
}

// lvalue returns the location named by e.
func (g *Generator) lvalue(e ir.Expression) lvalue {
	switch e := e.(type) {
	case *ir.VariableReference:
		v := e.Variable
		val, ok := g.vars[v]
		if !ok && !v.IsUniform() && !v.IsConst() {
			// A variable that is written but never read has no storage yet.
			g.variableSlots(v)
			val, ok = g.vars[v]
		}
		if !ok || len(val) == 0 || val[0].Kind != OperandSlot {
			g.Errorf(e.Position(), "cannot assign to '%s'", v.Name)
			return &slotLValue{g: g}
		}
		first := val[0].Index
		n := v.Type().SlotCount()
		return &slotLValue{g: g, slots: rangeOf(first, n), first: first, count: n}
	case *ir.FieldAccess:
		off := int32(fieldOffset(e.Base.Type(), e.Index))
		return g.narrow(g.lvalue(e.Base), off, e.Type().SlotCount())
	case *ir.Swizzle:
		base := g.lvalue(e.Base)
		picks := make([]int32, len(e.Components))
		for i, c := range e.Components {
			picks[i] = int32(c)
		}
		return g.pick(base, picks)
	case *ir.IndexExpression:
		return g.indexLValue(e)
	}
	g.Errorf(e.Position(), "expression is not assignable")
	return &slotLValue{g: g}
}

// narrow selects n consecutive slots starting at off.
func (g *Generator) narrow(lv lvalue, off int32, n int) lvalue {
	picks := make([]int32, n)
	for i := range picks {
		picks[i] = off + int32(i)
	}
	return g.pick(lv, picks)
}

// pick selects slots of lv by position.
func (g *Generator) pick(lv lvalue, picks []int32) lvalue {
	switch lv := lv.(type) {
	case *slotLValue:
		slots := make([]int32, len(picks))
		for i, p := range picks {
			slots[i] = lv.slots[p]
		}
		return &slotLValue{g: g, slots: slots, first: lv.first, count: lv.count}
	case *indirectLValue:
		offsets := make([]int32, len(picks))
		for i, p := range picks {
			offsets[i] = lv.offsets[p]
		}
		q := *lv
		q.offsets = offsets
		return &q
	}
	return lv
}

func (g *Generator) indexLValue(e *ir.IndexExpression) lvalue {
	base := g.lvalue(e.Base)
	elem := e.Type().SlotCount()
	n := elementCount(e.Base.Type())
	if k, ok := ir.GetConstantValue(e.Index); ok {
		return g.narrow(base, int32(clampIndex(int(k), n)*elem), elem)
	}
	sl, ok := base.(*slotLValue)
	if ok {
		for i, s := range sl.slots {
			if s != sl.slots[0]+int32(i) {
				ok = false
			}
		}
	}
	if !ok || len(sl.slots) == 0 {
		g.Unsupported(e.Position(), "a dynamic index into this expression")
		return &slotLValue{g: g}
	}
	index := g.snapshot(g.lower(e.Index)[0])
	offsets := make([]int32, elem)
	for i := range offsets {
		offsets[i] = int32(i)
	}
	return &indirectLValue{
		g:       g,
		base:    sl.slots[0],
		index:   index,
		stride:  int32(elem),
		length:  int32(n),
		offsets: offsets,
		first:   sl.first,
		count:   sl.count,
	}
}
