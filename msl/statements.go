package msl

import (
	"github.com/gogpu/shade/ir"
)

func (g *Generator) statement(s ir.Statement) {
	ir.VisitStatement(s, statementWriter{g})
}

func (g *Generator) statements(list []ir.Statement) {
	for _, s := range list {
		g.statement(s)
	}
}

// body writes the contents of a braced region. The caller writes the
// braces.
func (g *Generator) body(s ir.Statement) {
	g.pushIndent()
	if b, ok := s.(*ir.Block); ok {
		g.statements(b.Statements)
	} else {
		g.statement(s)
	}
	g.popIndent()
}

// declaration spells d without the trailing semicolon. It returns the
// initializer alone when the variable is dead, or "" when nothing needs
// to be written.
func (g *Generator) declaration(d *ir.VarDeclaration) string {
	v := d.Var
	if g.Queries.IsDeadVariable(v) {
		if d.Value != nil && ir.HasSideEffects(d.Value) {
			return g.text(d.Value, ir.PrecedenceTopLevel)
		}
		return ""
	}
	t := g.typeName(v.Type())
	s := t + " " + g.variableName(v)
	if v.IsConst() {
		s = "const " + s
	}
	if d.Value != nil {
		s += " = " + g.text(d.Value, ir.PrecedenceAssignment)
	}
	return s
}

// statementWriter writes statements as Metal source lines.
type statementWriter struct{ g *Generator }

func (w statementWriter) VisitBlock(b *ir.Block) {
	g := w.g
	if !b.IsScope {
		g.statements(b.Statements)
		return
	}
	g.writeLine("{")
	g.body(b)
	g.writeLine("}")
}

func (w statementWriter) VisitVarDeclaration(d *ir.VarDeclaration) {
	if s := w.g.declaration(d); s != "" {
		w.g.writeLine("%s;", s)
	}
}

// VisitIf writes else-if chains without nesting.
func (w statementWriter) VisitIf(s *ir.IfStatement) {
	g := w.g
	g.writeLine("if (%s) {", g.text(s.Test, ir.PrecedenceTopLevel))
	for {
		g.body(s.IfTrue)
		next, ok := s.IfFalse.(*ir.IfStatement)
		if !ok {
			break
		}
		s = next
		g.writeLine("} else if (%s) {", g.text(s.Test, ir.PrecedenceTopLevel))
	}
	if s.IfFalse != nil {
		g.writeLine("} else {")
		g.body(s.IfFalse)
	}
	g.writeLine("}")
}

// VisitFor hoists an initializer that is not a single declaration or
// expression into an enclosing scope.
func (w statementWriter) VisitFor(s *ir.ForStatement) {
	g := w.g
	var init string
	hoisted := false
	switch x := s.Init.(type) {
	case nil, *ir.Nop:
	case *ir.VarDeclaration:
		init = g.declaration(x)
	case *ir.ExpressionStatement:
		init = g.text(x.Expr, ir.PrecedenceTopLevel)
	default:
		hoisted = true
		g.writeLine("{")
		g.pushIndent()
		g.statement(x)
	}

	header := "for (" + init + ";"
	if s.Test != nil {
		header += " " + g.text(s.Test, ir.PrecedenceTopLevel)
	}
	header += ";"
	if s.Next != nil {
		header += " " + g.text(s.Next, ir.PrecedenceTopLevel)
	}
	g.writeLine("%s) {", header)
	g.body(s.Body)
	g.writeLine("}")

	if hoisted {
		g.popIndent()
		g.writeLine("}")
	}
}

func (w statementWriter) VisitDo(s *ir.DoStatement) {
	g := w.g
	g.writeLine("do {")
	g.body(s.Body)
	g.writeLine("} while (%s);", g.text(s.Test, ir.PrecedenceTopLevel))
}

// VisitSwitch braces the cases that declare variables so their scopes
// stay apart.
func (w statementWriter) VisitSwitch(s *ir.SwitchStatement) {
	g := w.g
	g.writeLine("switch (%s) {", g.text(s.Value, ir.PrecedenceTopLevel))
	for _, c := range s.Cases {
		if c.IsDefault {
			g.writeLine("default:")
		} else {
			g.writeLine("case %d:", c.Value)
		}
		if c.Body == nil {
			continue
		}
		if declaresVariables(c.Body) {
			g.pushIndent()
			g.writeLine("{")
			g.body(c.Body)
			g.writeLine("}")
			g.popIndent()
		} else {
			g.body(c.Body)
		}
	}
	g.writeLine("}")
}

func declaresVariables(s ir.Statement) bool {
	b, ok := s.(*ir.Block)
	if !ok {
		return s.Kind() == ir.StmtVarDeclaration
	}
	for _, s := range b.Statements {
		if s.Kind() == ir.StmtVarDeclaration {
			return true
		}
	}
	return false
}

// VisitReturn stores the color of a valued return from main in Outputs.
func (w statementWriter) VisitReturn(s *ir.ReturnStatement) {
	g := w.g
	if !g.current.IsMain() {
		if s.Value == nil {
			g.writeLine("return;")
		} else {
			g.writeLine("return %s;", g.text(s.Value, ir.PrecedenceTopLevel))
		}
		return
	}
	if s.Value != nil {
		color := g.text(s.Value, ir.PrecedenceAssignment)
		if want := g.typeName(g.Types().Half4); g.typeName(s.Value.Type()) != want {
			color = want + "(" + color + ")"
		}
		g.writeLine("%s.sk_FragColor = %s;", outputsName, color)
	}
	g.writeLine("return %s;", outputsName)
}

func (w statementWriter) VisitBreak(*ir.BreakStatement) {
	w.g.writeLine("break;")
}

func (w statementWriter) VisitContinue(*ir.ContinueStatement) {
	w.g.writeLine("continue;")
}

func (w statementWriter) VisitDiscard(*ir.DiscardStatement) {
	w.g.writeLine("discard_fragment();")
}

func (w statementWriter) VisitExpressionStatement(s *ir.ExpressionStatement) {
	w.g.writeLine("%s;", w.g.text(s.Expr, ir.PrecedenceTopLevel))
}

func (w statementWriter) VisitNop(*ir.Nop) {}
