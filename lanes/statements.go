package lanes

import (
	"github.com/gogpu/shade/ir"
)

func (g *Generator) statement(s ir.Statement) {
	if s.Kind() != ir.StmtBlock {
		g.traceLine(s.Position())
	}
	ir.VisitStatement(s, statementLowerer{g})
}

func (g *Generator) statements(list []ir.Statement) {
	for _, s := range list {
		g.statement(s)
	}
}

// statementLowerer lowers statements under the current execution mask.
type statementLowerer struct{ g *Generator }

func (w statementLowerer) VisitBlock(b *ir.Block) {
	g := w.g
	if b.IsScope {
		g.traceScope(1)
	}
	g.statements(b.Statements)
	if b.IsScope {
		g.traceScope(-1)
	}
}

func (w statementLowerer) VisitVarDeclaration(d *ir.VarDeclaration) {
	g := w.g
	v := d.Var
	switch {
	case v.IsConst() && d.Value != nil && ir.IsCompileTimeConstant(d.Value):
		g.vars[v] = g.lower(d.Value)
	case g.Queries.IsDeadVariable(v):
		if d.Value != nil && ir.HasSideEffects(d.Value) {
			g.lower(d.Value)
		}
	default:
		start := g.variableSlots(v)
		g.initialize(start, d.Value, v.Type())
		g.traceVar(start, v.Type().SlotCount())
	}
}

// VisitIf lowers both branches, each under its own condition. A constant
// test lowers only the branch it selects.
func (w statementLowerer) VisitIf(s *ir.IfStatement) {
	g := w.g
	if c, ok := ir.GetConstantValue(s.Test); ok {
		if c != 0 {
			g.statement(s.IfTrue)
		} else if s.IfFalse != nil {
			g.statement(s.IfFalse)
		}
		return
	}
	test := g.snapshot(g.lower(s.Test)[0])
	g.withCondition(test, func() { g.statement(s.IfTrue) })
	if s.IfFalse != nil {
		g.withCondition(g.not(test), func() { g.statement(s.IfFalse) })
	}
}

// VisitFor expands loops with a small static trip count and runs the rest
// with a back edge that is taken while any lane is still looping.
func (w statementLowerer) VisitFor(s *ir.ForStatement) {
	g := w.g
	if s.Init != nil {
		g.statement(s.Init)
	}
	if u := s.Unroll; u != nil && u.Count <= g.options.MaxUnroll {
		if u.Count == 0 {
			return
		}
		r := g.pushRegion(false)
		for range u.Count {
			g.statement(s.Body)
			g.resumeContinued(r)
			if s.Next != nil {
				g.lower(s.Next)
			}
		}
		g.popRegion()
		return
	}

	r := g.pushRegion(false)
	top := g.here()
	if s.Test != nil {
		test := g.lower(s.Test)[0]
		g.emit(Instruction{Op: OpAnd, Dst: r.mask, A: Slot(r.mask), B: test})
		g.invalidate()
	}
	exit := g.emit(Instruction{Op: OpJumpIfNone, A: Slot(r.mask)})
	g.statement(s.Body)
	g.resumeContinued(r)
	if s.Next != nil {
		g.lower(s.Next)
	}
	g.emit(Instruction{Op: OpJump, Imm: top})
	g.patch(exit, g.here())
	g.popRegion()
}

func (w statementLowerer) VisitDo(s *ir.DoStatement) {
	g := w.g
	r := g.pushRegion(false)
	top := g.here()
	g.statement(s.Body)
	g.resumeContinued(r)
	test := g.lower(s.Test)[0]
	g.emit(Instruction{Op: OpAnd, Dst: r.mask, A: Slot(r.mask), B: test})
	g.emit(Instruction{Op: OpJumpIfAny, A: Slot(r.mask), Imm: top})
	g.here()
	g.popRegion()
}

// VisitSwitch runs every case body in order. A lane joins at the first
// case that matches and stays in through fallthrough until it breaks.
func (w statementLowerer) VisitSwitch(s *ir.SwitchStatement) {
	g := w.g
	selector := g.snapshot(g.lower(s.Value)[0])
	matches := make([]Operand, len(s.Cases))
	anyCase := g.mask(false)
	for i, c := range s.Cases {
		if c.IsDefault {
			continue
		}
		k := g.constant(uint32(c.Value))
		matches[i] = g.op2(OpEqI, selector, k)
		anyCase = g.or(anyCase, matches[i])
	}
	for i, c := range s.Cases {
		if c.IsDefault {
			matches[i] = g.not(anyCase)
		}
	}

	g.pushRegion(true)
	joined := g.alloc(1, true)
	g.copyTo(joined, g.mask(false))
	for i, c := range s.Cases {
		g.emit(Instruction{Op: OpOr, Dst: joined, A: Slot(joined), B: matches[i]})
		if c.Body == nil {
			continue
		}
		g.withCondition(Slot(joined), func() { g.statement(c.Body) })
	}
	g.popRegion()
}

// VisitReturn stores the value in the live lanes, then switches them off.
func (w statementLowerer) VisitReturn(s *ir.ReturnStatement) {
	g := w.g
	fn := g.fn
	if s.Value != nil {
		v := g.lower(s.Value)
		g.store(fn.result, v)
	}
	g.returnLanes()
}

func (w statementLowerer) VisitBreak(*ir.BreakStatement) { w.g.breakLoop() }

func (w statementLowerer) VisitContinue(*ir.ContinueStatement) { w.g.continueLoop() }

func (w statementLowerer) VisitDiscard(s *ir.DiscardStatement) {
	w.g.Unsupported(s.Position(), "discard")
}

func (w statementLowerer) VisitExpressionStatement(s *ir.ExpressionStatement) {
	w.g.lower(s.Expr)
}

func (w statementLowerer) VisitNop(*ir.Nop) {}
