package lanes

import (
	"fmt"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// region is a breakable construct: a loop or a switch. Its mask holds the
// lanes still running it.
type region struct {
	mask     int32
	cont     int32
	isSwitch bool
}

// function is the state of one function body being expanded. Calls are
// expanded in place, so nested calls nest these.
type function struct {
	parent  *function
	decl    *ir.FunctionDeclaration
	cond    Operand
	regions []*region
	ret     Operand
	result  []int32
}

// Generator lowers a program to lane instructions.
type Generator struct {
	codegen.Base
	*builder

	options Options

	vars      map[*ir.Variable]value
	children  map[*ir.Variable]int32
	fnIndex   map[*ir.FunctionDeclaration]int32
	program   Program
	debug     []SlotDebugInfo
	uniforms  int32
	fn        *function
	exec      Operand
	execValid bool
}

var _ codegen.Generator = (*Generator)(nil)

// NewGenerator prepares a generator for p.
func NewGenerator(p *ir.Program, options Options) *Generator {
	if options.MaxUnroll <= 0 {
		options.MaxUnroll = DefaultMaxUnroll
	}
	return &Generator{
		Base:     codegen.NewBase(p, "Lanes"),
		builder:  newBuilder(options.NoCSE),
		options:  options,
		vars:     make(map[*ir.Variable]value),
		children: make(map[*ir.Variable]int32),
		fnIndex:  make(map[*ir.FunctionDeclaration]int32),
	}
}

// Output returns the generated program. It is only meaningful after
// Generate succeeds.
func (g *Generator) Output() *Program {
	p := g.program
	return &p
}

// Generate lowers the whole program and reports whether it is valid.
func (g *Generator) Generate() bool {
	main := g.Program.Main()
	if main == nil {
		g.Errorf(ir.Position{}, "program does not contain a 'main' function")
		return false
	}
	if g.Program.Kind == ir.ProgramVertex {
		g.Unsupported(main.Decl.Pos, "a vertex program")
		return false
	}
	g.declareGlobals()
	if g.Failed() {
		return false
	}
	g.lowerMain(main)
	if g.Failed() {
		return false
	}

	g.program.Instructions = g.code
	g.program.Constants = g.constants
	g.program.SlotCount = g.slots
	g.program.UniformCount = g.uniforms
	if g.options.Trace {
		for int32(len(g.debug)) < g.slots {
			g.debug = append(g.debug, SlotDebugInfo{})
		}
		g.program.DebugInfo = g.debug
	}
	return true
}

// declareGlobals gives every global its storage and runs the private
// initializers.
func (g *Generator) declareGlobals() {
	for _, e := range g.Program.Elements {
		switch e := e.(type) {
		case *ir.GlobalVarDeclaration:
			g.declareGlobal(e.Decl)
		case *ir.InterfaceBlock:
			if !e.Var.IsUniform() {
				g.Unsupported(e.Position(), fmt.Sprintf("interface block '%s'", e.TypeName))
				continue
			}
			g.declareUniform(e.Var)
		}
	}
}

func (g *Generator) declareGlobal(d *ir.VarDeclaration) {
	v := d.Var
	t := v.Type()
	switch {
	case t.IsChild():
		g.children[v] = int32(len(g.program.Children))
		g.program.Children = append(g.program.Children, v.Name)
	case t.IsSampler():
		if !g.Queries.IsDeadVariable(v) {
			g.Unsupported(v.Pos, fmt.Sprintf("sampler '%s'", v.Name))
		}
	case v.IsUniform():
		g.declareUniform(v)
	case v.IsBuiltin():
		g.declareBuiltin(v)
	case v.IsConst() && d.Value != nil && ir.IsCompileTimeConstant(d.Value):
		g.vars[v] = g.lower(d.Value)
	case g.Queries.IsDeadVariable(v):
		if d.Value != nil && ir.HasSideEffects(d.Value) {
			g.lower(d.Value)
		}
	default:
		slots := g.variableSlots(v)
		g.initialize(slots, d.Value, t)
	}
}

func (g *Generator) declareUniform(v *ir.Variable) {
	n := int32(v.Type().SlotCount())
	start := g.uniforms
	g.uniforms += n
	val := make(value, n)
	for i := range val {
		val[i] = Operand{Kind: OperandUniform, Index: start + int32(i)}
	}
	g.vars[v] = val
	g.program.Uniforms = append(g.program.Uniforms, Binding{Name: v.Name, Start: start, Count: n})
}

// declareBuiltin maps the builtins a lane program can see. The fragment
// coordinate arrives as an input; the fragment color is the result.
func (g *Generator) declareBuiltin(v *ir.Variable) {
	switch v.Modifiers.Layout.Builtin {
	case ir.BuiltinFragCoord:
		g.declareInput(v)
	case ir.BuiltinFragColor:
		slots := g.variableSlots(v)
		g.program.Result = rangeOf(slots, v.Type().SlotCount())
	default:
		if !g.Queries.IsDeadVariable(v) {
			g.Unsupported(v.Pos, fmt.Sprintf("builtin '%s'", v.Name))
		}
	}
}

func (g *Generator) declareInput(v *ir.Variable) {
	n := v.Type().SlotCount()
	start := g.alloc(n, false)
	g.vars[v] = slotValue(start, n)
	g.program.Inputs = append(g.program.Inputs, Binding{Name: v.Name, Start: start, Count: int32(n)})
	g.describe(v, start)
}

// variableSlots returns the slots holding v, allocating them on first
// use. A function expanded at several call sites reuses its slots.
func (g *Generator) variableSlots(v *ir.Variable) int32 {
	if val, ok := g.vars[v]; ok && len(val) > 0 && val[0].Kind == OperandSlot {
		return val[0].Index
	}
	n := v.Type().SlotCount()
	start := g.alloc(n, true)
	g.vars[v] = slotValue(start, n)
	g.describe(v, start)
	return start
}

// initialize writes the initial value of a variable to its slots in every
// lane. Variables are scoped to the region they are declared in, so the
// lanes that are switched off there never read them.
func (g *Generator) initialize(start int32, init ir.Expression, t *ir.Type) {
	var val value
	if init != nil {
		val = g.lower(init)
	} else {
		val = g.zero(t)
	}
	for i, o := range val {
		g.copyTo(start+int32(i), o)
	}
}

func (g *Generator) zero(t *ir.Type) value {
	val := make(value, t.SlotCount())
	for i := range val {
		val[i] = g.constant(0)
	}
	return val
}

func slotValue(start int32, n int) value {
	val := make(value, n)
	for i := range val {
		val[i] = Slot(start + int32(i))
	}
	return val
}

func rangeOf(start int32, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = start + int32(i)
	}
	return out
}

// lowerMain expands the entry point. Its parameters are program inputs.
func (g *Generator) lowerMain(def *ir.FunctionDefinition) {
	decl := def.Decl
	for _, p := range decl.Params {
		g.declareInput(p)
	}
	fn := &function{decl: decl, cond: g.mask(true), ret: noMask}
	if !decl.ReturnType.IsVoid() {
		start := g.alloc(decl.ReturnType.SlotCount(), true)
		fn.result = rangeOf(start, decl.ReturnType.SlotCount())
		g.program.Result = fn.result
		g.describeResult(decl, start)
		for _, s := range fn.result {
			g.copyTo(s, g.constant(0))
		}
	}
	g.expand(fn, def.Body)
}

// expand lowers body as the current function.
func (g *Generator) expand(fn *function, body *ir.Block) {
	fn.parent = g.fn
	if needsReturnMask(body) {
		m := g.alloc(1, true)
		g.copyTo(m, g.mask(true))
		fn.ret = Slot(m)
	}
	g.fn = fn
	g.invalidate()
	g.traceFunction(OpTraceEnter, fn.decl)
	g.statements(body.Statements)
	g.traceFunction(OpTraceExit, fn.decl)
	g.fn = fn.parent
	g.invalidate()
}

var noMask = Operand{}

// needsReturnMask reports a body with a return other than a final
// top-level one. Those returns switch lanes off for the rest of the body.
func needsReturnMask(body *ir.Block) bool {
	returns := 0
	ir.Inspect(body, func(n ir.Node) bool {
		if _, ok := n.(*ir.ReturnStatement); ok {
			returns++
		}
		_, isExpr := n.(ir.Expression)
		return !isExpr
	})
	if returns == 0 {
		return false
	}
	if returns > 1 {
		return true
	}
	last := len(body.Statements) - 1
	return last < 0 || body.Statements[last].Kind() != ir.StmtReturn
}
