package lanes

import (
	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// call expands a user function at the call site. The callee starts with
// the caller's live lanes as its condition; out and inout arguments are
// copied back in those lanes once the body is done.
func (g *Generator) call(e *ir.FunctionCall) value {
	decl := e.Function
	def := decl.Definition
	if def == nil || def.Body == nil {
		g.Errorf(e.Position(), "function '%s' is not defined", decl.Name)
		return g.zero(e.Type())
	}
	for f := g.fn; f != nil; f = f.parent {
		if f.decl == decl {
			g.Errorf(e.Position(), "function '%s' is recursive", decl.Name)
			return g.zero(e.Type())
		}
	}

	plans := codegen.OutParams(decl, e.Args)
	targets := make([]lvalue, len(plans))
	args := make([]value, len(plans))
	for i, p := range plans {
		if ir.HasSideEffects(p.Arg) {
			for j := range i {
				args[j] = g.snapshotValue(args[j])
			}
		}
		switch p.Mode {
		case codegen.ArgIn:
			args[i] = g.lower(p.Arg)
		case codegen.ArgInOut:
			targets[i] = g.lvalue(p.Arg)
			args[i] = targets[i].load()
		case codegen.ArgOut:
			targets[i] = g.lvalue(p.Arg)
		}
	}

	caller := g.snapshot(g.execMask())
	params := make([]int32, len(plans))
	for i, p := range plans {
		params[i] = g.variableSlots(p.Param)
		if p.Mode == codegen.ArgOut {
			g.initialize(params[i], nil, p.Param.Type())
			continue
		}
		for j, o := range args[i] {
			g.copyTo(params[i]+int32(j), o)
		}
	}

	fn := &function{decl: decl, cond: caller, ret: noMask}
	var start int32
	n := decl.ReturnType.SlotCount()
	if n > 0 {
		start = g.alloc(n, true)
		fn.result = rangeOf(start, n)
		for _, s := range fn.result {
			g.copyTo(s, g.constant(0))
		}
	}
	g.expand(fn, def.Body)

	for i, p := range plans {
		if targets[i] != nil {
			targets[i].store(slotValue(params[i], p.Param.Type().SlotCount()))
		}
	}
	return slotValue(start, n)
}
