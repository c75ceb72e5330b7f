package lanes

import (
	"fmt"
	"math"

	"github.com/gogpu/shade/ir"
)

// TraceKind classifies trace events.
type TraceKind uint8

const (
	TraceLine TraceKind = iota
	TraceVar
	TraceEnter
	TraceExit
	TraceScope
)

func (k TraceKind) String() string {
	switch k {
	case TraceLine:
		return "line"
	case TraceVar:
		return "var"
	case TraceEnter:
		return "enter"
	case TraceExit:
		return "exit"
	case TraceScope:
		return "scope"
	}
	return "unknown"
}

// TraceEvent is one step recorded for the traced lane. Value is the line
// number, function index or scope depth change; Slot and Bits are set for
// variable writes.
type TraceEvent struct {
	Kind  TraceKind
	Value int32
	Slot  int32
	Bits  uint32
}

// Format renders e using the debug records of p.
func (e TraceEvent) Format(p *Program) string {
	switch e.Kind {
	case TraceLine:
		return fmt.Sprintf("line %d", e.Value)
	case TraceEnter, TraceExit:
		name := "?"
		if int(e.Value) < len(p.Functions) {
			name = p.Functions[e.Value]
		}
		return fmt.Sprintf("%s %s", e.Kind, name)
	case TraceScope:
		return fmt.Sprintf("scope %+d", e.Value)
	}
	name := fmt.Sprintf("s%d", e.Slot)
	kind := ""
	if int(e.Slot) < len(p.DebugInfo) {
		if d := p.DebugInfo[e.Slot]; d.Name != "" {
			name = fmt.Sprintf("%s[%d]", d.Name, d.Component)
			kind = d.Kind
		}
	}
	return fmt.Sprintf("var %s = %s", name, formatValue(e.Bits, kind))
}

func formatValue(bits uint32, kind string) string {
	switch kind {
	case "int":
		return fmt.Sprint(int32(bits))
	case "uint":
		return fmt.Sprint(bits)
	case "bool":
		return fmt.Sprint(bits != 0)
	}
	return fmt.Sprint(math.Float32frombits(bits))
}

var numberKindNames = [...]string{
	ir.NumberFloat:    "float",
	ir.NumberSigned:   "int",
	ir.NumberUnsigned: "uint",
	ir.NumberBoolean:  "bool",
}

// describe records what each slot of v holds.
func (g *Generator) describe(v *ir.Variable, start int32) {
	if !g.options.Trace {
		return
	}
	fn := ""
	if g.fn != nil {
		fn = g.fn.decl.Name
	}
	for i, k := range slotKinds(v.Type()) {
		g.setDebug(start+int32(i), SlotDebugInfo{
			Name:      v.Name,
			Component: i,
			Line:      v.Pos.Line,
			Kind:      kindName(k),
			Function:  fn,
		})
	}
}

func (g *Generator) describeResult(decl *ir.FunctionDeclaration, start int32) {
	if !g.options.Trace {
		return
	}
	for i, k := range slotKinds(decl.ReturnType) {
		g.setDebug(start+int32(i), SlotDebugInfo{
			Name:      "[" + decl.Name + "].result",
			Component: i,
			Line:      decl.Pos.Line,
			Kind:      kindName(k),
			Function:  decl.Name,
		})
	}
}

func kindName(k ir.NumberKind) string {
	if int(k) < len(numberKindNames) {
		return numberKindNames[k]
	}
	return ""
}

func (g *Generator) setDebug(slot int32, d SlotDebugInfo) {
	for int32(len(g.debug)) <= slot {
		g.debug = append(g.debug, SlotDebugInfo{})
	}
	g.debug[slot] = d
}

func (g *Generator) traceLine(pos ir.Position) {
	if !g.options.Trace || !pos.Valid() {
		return
	}
	g.emit(Instruction{Op: OpTraceLine, A: g.execMask(), Imm: pos.Line})
}

func (g *Generator) traceVar(first int32, n int) {
	if !g.options.Trace || n == 0 {
		return
	}
	g.emit(Instruction{Op: OpTraceVar, A: g.execMask(), Imm: first, Len: int32(n)})
}

func (g *Generator) traceScope(delta int32) {
	if !g.options.Trace {
		return
	}
	g.emit(Instruction{Op: OpTraceScope, A: g.execMask(), Imm: delta})
}

// traceFunction records entry to or exit from decl in the lanes that
// entered it, including those that returned early.
func (g *Generator) traceFunction(op Op, decl *ir.FunctionDeclaration) {
	if !g.options.Trace {
		return
	}
	index, ok := g.fnIndex[decl]
	if !ok {
		index = int32(len(g.program.Functions))
		g.fnIndex[decl] = index
		g.program.Functions = append(g.program.Functions, decl.Name)
	}
	g.emit(Instruction{Op: op, A: g.fn.cond, Imm: index})
}
