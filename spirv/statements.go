package spirv

import "github.com/gogpu/shade/ir"

func (g *Generator) statement(s ir.Statement) {
	ir.VisitStatement(s, statementWriter{g})
}

// statementWriter lowers statements into structured control flow.
type statementWriter struct{ g *Generator }

func (w statementWriter) VisitBlock(b *ir.Block) {
	for _, s := range b.Statements {
		w.g.statement(s)
	}
}

func (w statementWriter) VisitVarDeclaration(d *ir.VarDeclaration) {
	g := w.g
	v := d.Var
	if g.Queries.IsDeadVariable(v) {
		if d.Value != nil && ir.HasSideEffects(d.Value) {
			g.expression(d.Value)
		}
		return
	}
	ptr := g.localVariable(v.Type(), v.Name)
	g.variables[v] = variable{ptr: ptr, storage: StorageClassFunction, member: -1}
	if d.Value != nil {
		g.emit(OpStore, ptr, g.expression(d.Value))
	}
}

func (w statementWriter) VisitIf(s *ir.IfStatement) {
	g := w.g
	test := g.expression(s.Test)
	ifTrue, merge := g.module.AllocID(), g.module.AllocID()
	ifFalse := merge
	if s.IfFalse != nil {
		ifFalse = g.module.AllocID()
	}
	g.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	g.emit(OpBranchConditional, test, ifTrue, ifFalse)
	g.label(ifTrue)
	g.statement(s.IfTrue)
	g.branch(merge)
	if s.IfFalse != nil {
		g.label(ifFalse)
		g.statement(s.IfFalse)
		g.branch(merge)
	}
	g.label(merge)
}

// VisitFor emits header, test, body, continue and merge blocks.
func (w statementWriter) VisitFor(s *ir.ForStatement) {
	g := w.g
	if s.Init != nil {
		g.statement(s.Init)
	}
	header := g.module.AllocID()
	start := g.module.AllocID()
	body := g.module.AllocID()
	next := g.module.AllocID()
	merge := g.module.AllocID()
	control := LoopControlNone
	if s.Unroll != nil {
		control = LoopControlUnroll
	}

	g.branch(header)
	g.label(header)
	g.emit(OpLoopMerge, merge, next, uint32(control))
	g.emit(OpBranch, start)
	g.label(start)
	if s.Test != nil {
		test := g.expression(s.Test)
		g.emit(OpBranchConditional, test, body, merge)
	} else {
		g.emit(OpBranch, body)
	}
	g.label(body)
	g.pushLoop(merge, next)
	g.statement(s.Body)
	g.popLoop()
	g.branch(next)
	g.label(next)
	if s.Next != nil {
		g.expression(s.Next)
	}
	g.emit(OpBranch, header)
	g.label(merge)
}

// VisitDo evaluates the test in the continue block.
func (w statementWriter) VisitDo(s *ir.DoStatement) {
	g := w.g
	header := g.module.AllocID()
	body := g.module.AllocID()
	next := g.module.AllocID()
	merge := g.module.AllocID()

	g.branch(header)
	g.label(header)
	g.emit(OpLoopMerge, merge, next, uint32(LoopControlNone))
	g.emit(OpBranch, body)
	g.label(body)
	g.pushLoop(merge, next)
	g.statement(s.Body)
	g.popLoop()
	g.branch(next)
	g.label(next)
	test := g.expression(s.Test)
	g.emit(OpBranchConditional, test, header, merge)
	g.label(merge)
}

func (w statementWriter) VisitSwitch(s *ir.SwitchStatement) {
	g := w.g
	value := g.expression(s.Value)
	merge := g.module.AllocID()
	labels := make([]uint32, len(s.Cases))
	def := merge
	operands := []uint32{value, 0}
	for i, c := range s.Cases {
		labels[i] = g.module.AllocID()
		if c.IsDefault {
			def = labels[i]
			continue
		}
		operands = append(operands, uint32(c.Value), labels[i])
	}
	operands[1] = def

	g.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	g.emit(OpSwitch, operands...)
	g.fn.breaks = append(g.fn.breaks, merge)
	for i, c := range s.Cases {
		g.label(labels[i])
		g.statement(c.Body)
		if i+1 < len(labels) {
			g.branch(labels[i+1])
		} else {
			g.branch(merge)
		}
	}
	g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	g.label(merge)
}

func (w statementWriter) VisitReturn(s *ir.ReturnStatement) {
	g := w.g
	if s.Value == nil {
		g.emit(OpReturn)
		return
	}
	g.emit(OpReturnValue, g.expression(s.Value))
}

func (w statementWriter) VisitBreak(s *ir.BreakStatement) {
	g := w.g
	if len(g.fn.breaks) == 0 {
		ir.Internalf(s.Position(), "spirv: break outside a loop or switch")
	}
	g.emit(OpBranch, g.fn.breaks[len(g.fn.breaks)-1])
}

func (w statementWriter) VisitContinue(s *ir.ContinueStatement) {
	g := w.g
	if len(g.fn.continues) == 0 {
		ir.Internalf(s.Position(), "spirv: continue outside a loop")
	}
	g.emit(OpBranch, g.fn.continues[len(g.fn.continues)-1])
}

func (w statementWriter) VisitDiscard(*ir.DiscardStatement) {
	g := w.g
	if g.options.Version.AtLeast(Version1_6) {
		g.emit(OpTerminateInvocation)
		return
	}
	g.emit(OpKill)
}

func (w statementWriter) VisitExpressionStatement(s *ir.ExpressionStatement) {
	w.g.expression(s.Expr)
}

func (statementWriter) VisitNop(*ir.Nop) {}

func (g *Generator) pushLoop(brk, cont uint32) {
	g.fn.breaks = append(g.fn.breaks, brk)
	g.fn.continues = append(g.fn.continues, cont)
}

func (g *Generator) popLoop() {
	g.fn.breaks = g.fn.breaks[:len(g.fn.breaks)-1]
	g.fn.continues = g.fn.continues[:len(g.fn.continues)-1]
}
