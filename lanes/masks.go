package lanes

// The execution mask of the current function is the conjunction of its
// condition mask, the mask of every enclosing loop or switch, and its
// return mask. Lanes switched off by a break, continue or return stay off
// until the construct they left is finished.

// invalidate forgets the cached execution mask and every reusable
// instruction. It runs whenever a mask is written or control merges.
func (g *Generator) invalidate() {
	g.execValid = false
	g.forget()
}

// execMask returns an operand holding the lanes that are currently live.
func (g *Generator) execMask() Operand {
	if g.execValid {
		return g.exec
	}
	m := g.mask(true)
	if fn := g.fn; fn != nil {
		m = fn.cond
		for _, r := range fn.regions {
			m = g.and(m, Slot(r.mask))
		}
		if fn.ret != noMask {
			m = g.and(m, fn.ret)
		}
	}
	g.exec, g.execValid = m, true
	return m
}

// withCondition lowers body with the condition mask narrowed to mask.
func (g *Generator) withCondition(mask Operand, body func()) {
	fn := g.fn
	if fn == nil {
		fn = &function{cond: g.mask(true), ret: noMask}
		g.fn = fn
		defer func() { g.fn = nil }()
	}
	saved := fn.cond
	fn.cond = g.and(saved, g.snapshot(mask))
	g.invalidate()
	body()
	fn.cond = saved
	g.invalidate()
}

// pushRegion starts a loop or switch whose lanes are the live ones.
func (g *Generator) pushRegion(isSwitch bool) *region {
	exec := g.execMask()
	r := &region{mask: g.alloc(1, true), cont: -1, isSwitch: isSwitch}
	g.copyTo(r.mask, exec)
	if !isSwitch {
		r.cont = g.alloc(1, true)
		g.copyTo(r.cont, g.mask(false))
	}
	g.fn.regions = append(g.fn.regions, r)
	g.invalidate()
	return r
}

func (g *Generator) popRegion() {
	g.fn.regions = g.fn.regions[:len(g.fn.regions)-1]
	g.invalidate()
}

// clearLanes switches the live lanes off in slot m.
func (g *Generator) clearLanes(m int32, live Operand) {
	g.emit(Instruction{Op: OpSelect, Dst: m, A: live, B: g.mask(false), C: Slot(m)})
}

// breakLoop switches the live lanes off until the innermost loop or
// switch ends.
func (g *Generator) breakLoop() {
	live := g.snapshot(g.execMask())
	rs := g.fn.regions
	g.clearLanes(rs[len(rs)-1].mask, live)
	g.invalidate()
}

// continueLoop parks the live lanes until the next iteration of the
// innermost loop.
func (g *Generator) continueLoop() {
	live := g.snapshot(g.execMask())
	rs := g.fn.regions
	for i := len(rs) - 1; i >= 0; i-- {
		if r := rs[i]; !r.isSwitch {
			g.emit(Instruction{Op: OpOr, Dst: r.cont, A: Slot(r.cont), B: live})
			g.clearLanes(r.mask, live)
			break
		}
	}
	g.invalidate()
}

// resumeContinued brings the lanes parked by continue back into r.
func (g *Generator) resumeContinued(r *region) {
	g.emit(Instruction{Op: OpOr, Dst: r.mask, A: Slot(r.mask), B: Slot(r.cont)})
	g.copyTo(r.cont, g.mask(false))
	g.invalidate()
}

// returnLanes switches the live lanes off for the rest of the function.
// Enclosing regions drop them too, so loops stop once every lane that
// entered them has returned.
func (g *Generator) returnLanes() {
	fn := g.fn
	if fn.ret == noMask {
		return
	}
	live := g.snapshot(g.execMask())
	g.clearLanes(fn.ret.Index, live)
	for _, r := range fn.regions {
		g.clearLanes(r.mask, live)
	}
	g.invalidate()
}

// store writes v to slots in the live lanes.
func (g *Generator) store(slots []int32, v value) {
	live := g.execMask()
	for i, s := range slots {
		g.storeMasked(s, v[i], live)
	}
}
