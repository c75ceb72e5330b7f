package spirv

import (
	"fmt"
	"strings"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// variable locates the storage of an IR variable. Members of a uniform
// block are reached through an access chain from the block variable.
type variable struct {
	ptr     uint32
	storage StorageClass
	layout  MemoryLayout
	member  int
}

// rtFlip locates the render-target flip uniform once it is placed.
type rtFlip struct {
	needed  bool
	placed  bool
	block   uint32
	member  int
	storage StorageClass
	layout  MemoryLayout
}

// function is the state of the function being written. Local variables
// collect separately and are hoisted into the entry block when the
// function is flushed.
type function struct {
	head    []Instruction
	vars    []Instruction
	body    []Instruction
	current uint32

	returnType *ir.Type
	breaks     []uint32
	continues  []uint32
}

// Generator lowers a program to a SPIR-V module.
type Generator struct {
	codegen.Base

	options Options
	module  *ModuleBuilder
	words   []uint32

	glsl      uint32
	types     map[typeKey]uint32
	pointers  map[pointerKey]uint32
	funcTypes map[string]uint32
	constants map[uint64][]constantEntry

	variables   map[*ir.Variable]variable
	functions   map[*ir.FunctionDeclaration]uint32
	interfaces  []uint32
	globals     []uint32
	globalInits []*ir.VarDeclaration

	model     ExecutionModel
	entry     *ir.FunctionDefinition
	wrapEntry bool
	fragColor uint32
	flip      rtFlip

	fn *function
}

var _ codegen.Generator = (*Generator)(nil)

// NewGenerator prepares a generator for p.
func NewGenerator(p *ir.Program, options Options) *Generator {
	return &Generator{
		Base:      codegen.NewBase(p, "SPIR-V"),
		options:   options,
		types:     make(map[typeKey]uint32),
		pointers:  make(map[pointerKey]uint32),
		funcTypes: make(map[string]uint32),
		constants: make(map[uint64][]constantEntry),
		variables: make(map[*ir.Variable]variable),
		functions: make(map[*ir.FunctionDeclaration]uint32),
	}
}

// Compile lowers p with options and returns the module words.
func Compile(p *ir.Program, options Options) ([]uint32, error) {
	g := NewGenerator(p, options)
	if !g.Generate() {
		return nil, fmt.Errorf("spirv: %w", g.Errors.Err())
	}
	return g.Words(), nil
}

// Words returns the generated module. It is nil until Generate succeeds.
func (g *Generator) Words() []uint32 { return g.words }

// Bytes returns the generated module encoded little-endian.
func (g *Generator) Bytes() []byte { return EncodeWords(g.words) }

// Generate writes the whole module and reports whether it is valid.
func (g *Generator) Generate() bool {
	g.module = NewModuleBuilder(g.options.Version)
	g.module.AddCapability(CapabilityShader)
	g.glsl = g.module.AddExtInstImport("GLSL.std.450")
	g.module.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	if !g.checkEntry() {
		return false
	}
	g.flip.needed = g.needsRTFlip()
	g.declareGlobals()

	var defs []*ir.FunctionDefinition
	for _, def := range g.Program.Functions() {
		if def.Decl.IsMain() || g.Program.Usage.CallCount(def.Decl) > 0 {
			g.functions[def.Decl] = g.module.AllocID()
			defs = append(defs, def)
		}
	}
	for _, def := range defs {
		g.writeFunction(def)
	}
	entry := g.functions[g.entry.Decl]
	if g.wrapEntry {
		entry = g.writeEntryWrapper()
	}
	g.writeEntryPoint(entry)

	if g.Failed() {
		return false
	}
	g.words = g.module.Words()
	return true
}

func signature(decl *ir.FunctionDeclaration) string {
	params := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = p.Type().Name() + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s)", decl.ReturnType, decl.Name, strings.Join(params, ", "))
}

// checkEntry selects the execution model and decides whether main needs
// a wrapper that stores its result into sk_FragColor.
func (g *Generator) checkEntry() bool {
	main := g.Program.Main()
	if main == nil {
		g.Errorf(ir.Position{}, "program does not define 'main'")
		return false
	}
	g.entry = main
	decl := main.Decl
	tt := g.Types()
	noParams := len(decl.Params) == 0
	switch g.Program.Kind {
	case ir.ProgramFragment:
		g.model = ExecutionModelFragment
		switch {
		case noParams && decl.ReturnType.IsVoid():
		case noParams && (decl.ReturnType == tt.Half4 || decl.ReturnType == tt.Float4):
			g.wrapEntry = true
		default:
			g.Unsupported(decl.Pos, "entry point '"+signature(decl)+"'")
			return false
		}
	case ir.ProgramVertex:
		g.model = ExecutionModelVertex
		if !noParams || !decl.ReturnType.IsVoid() {
			g.Unsupported(decl.Pos, "entry point '"+signature(decl)+"'")
			return false
		}
	default:
		g.Unsupported(decl.Pos, "the entry point of a "+g.Program.Kind.String()+" program")
		return false
	}
	return true
}

// needsRTFlip reports fragment programs that read a y-dependent builtin
// or take a y derivative.
func (g *Generator) needsRTFlip() bool {
	if g.model != ExecutionModelFragment {
		return false
	}
	u := g.Program.Usage
	if u.UsesBuiltin(ir.BuiltinFragCoord) || u.UsesBuiltin(ir.BuiltinClockwise) {
		return true
	}
	found := false
	for _, def := range g.Program.Functions() {
		ir.Inspect(def.Body, func(n ir.Node) bool {
			if c, ok := n.(*ir.FunctionCall); ok && c.Function.Intrinsic == ir.IntrinsicDFdy {
				found = true
			}
			return !found
		})
	}
	return found
}

// blockSpec describes a uniform block to declare.
type blockSpec struct {
	pos      ir.Position
	typeName string
	instance string
	fields   []ir.Field
	storage  StorageClass
	layout   MemoryLayout
	binding  int
	set      int
	flip     bool
}

func (g *Generator) declareGlobals() {
	var uniforms []*ir.Variable
	var blocks []*ir.InterfaceBlock
	for _, e := range g.Program.Elements {
		switch e := e.(type) {
		case *ir.GlobalVarDeclaration:
			v := e.Var()
			if v.IsUniform() && !v.Type().IsSampler() && !v.Type().IsChild() {
				if !v.Type().IsAllowedInUniform() {
					g.Errorf(v.Pos, "variables of type '%s' may not be uniform", v.Type())
					continue
				}
				uniforms = append(uniforms, v)
				continue
			}
			g.declareGlobal(e.Decl)
		case *ir.InterfaceBlock:
			if !e.Var.IsUniform() {
				g.Unsupported(e.Position(), "'in' and 'out' interface blocks")
				continue
			}
			blocks = append(blocks, e)
		}
	}

	flipInBlock := g.flip.needed && len(uniforms) == 0 && len(blocks) > 0
	if len(uniforms) > 0 || g.flip.needed && !flipInBlock {
		g.declareUniformBlock(uniforms)
	}
	for i, ib := range blocks {
		g.declareInterfaceBlock(ib, flipInBlock && i == 0)
	}
}

// declareUniformBlock merges the top-level uniforms into one block.
func (g *Generator) declareUniformBlock(uniforms []*ir.Variable) {
	spec := blockSpec{
		typeName: "_UniformBuffer",
		instance: "_uniforms",
		storage:  StorageClassUniform,
		layout:   LayoutStd140,
		binding:  g.options.UniformBinding,
		set:      g.options.UniformSet,
		flip:     g.flip.needed,
	}
	if g.options.UsePushConstants {
		spec.storage = StorageClassPushConstant
		spec.layout = LayoutStd430
	}
	if len(uniforms) == 0 {
		if g.options.RTFlipBinding < 0 || g.options.RTFlipSet < 0 {
			g.Errorf(ir.Position{}, "layout(set=..., binding=...) is required for sk_RTFlip")
			return
		}
		spec.typeName = "_RTFlipBuffer"
		spec.instance = "_rtflip"
		spec.binding = g.options.RTFlipBinding
		spec.set = g.options.RTFlipSet
	} else {
		spec.pos = uniforms[0].Pos
	}
	for _, v := range uniforms {
		spec.fields = append(spec.fields, ir.Field{Name: v.Name, Type: v.Type(), Modifiers: v.Modifiers, Pos: v.Pos})
	}
	block := g.declareBlock(spec)
	for i, v := range uniforms {
		g.variables[v] = variable{ptr: block, storage: spec.storage, layout: spec.layout, member: i}
	}
}

func (g *Generator) declareInterfaceBlock(ib *ir.InterfaceBlock, flip bool) {
	v := ib.Var
	lay := v.Modifiers.Layout
	spec := blockSpec{
		pos:      ib.Position(),
		typeName: ib.TypeName,
		instance: ib.InstanceName,
		fields:   v.Type().Fields(),
		storage:  StorageClassUniform,
		layout:   LayoutStd140,
		binding:  lay.Binding,
		set:      max(lay.Set, 0),
		flip:     flip,
	}
	if lay.Flags&ir.LayoutPushConstant != 0 {
		spec.storage = StorageClassPushConstant
		spec.layout = LayoutStd430
	} else if lay.Flags&ir.LayoutStd430 != 0 {
		spec.layout = LayoutStd430
	}
	if spec.storage != StorageClassPushConstant && lay.Binding < 0 {
		g.Errorf(ib.Position(), "layout(binding=...) is required for interface block '%s'", ib.TypeName)
		return
	}
	block := g.declareBlock(spec)
	g.variables[v] = variable{ptr: block, storage: spec.storage, layout: spec.layout, member: -1}
}

// declareBlock emits the struct type and variable of a uniform block and
// returns the variable id.
func (g *Generator) declareBlock(spec blockSpec) uint32 {
	fields := spec.fields
	if spec.flip {
		fields = append(fields[:len(fields):len(fields)], ir.Field{
			Name:      "sk_RTFlip",
			Type:      g.Types().Float2,
			Modifiers: ir.DefaultModifiers(),
		})
	}
	members, err := spec.layout.LayoutMembers(fields)
	if err != nil {
		g.Errorf(spec.pos, "%v", err)
		return 0
	}
	typeID := g.structType(fields, spec.layout, members)
	g.module.AddDecorate(typeID, DecorationBlock)
	if g.options.DebugNames {
		g.module.AddName(typeID, spec.typeName)
	}
	ptr := g.pointerType(spec.storage, typeID)
	id := g.globalVariable(ptr, spec.storage, 0, g.Types().Void, spec.instance)
	if spec.storage != StorageClassPushConstant {
		g.module.AddDecorate(id, DecorationBinding, word(spec.binding))
		g.module.AddDecorate(id, DecorationDescriptorSet, word(spec.set))
	}
	if spec.flip {
		g.flip.placed = true
		g.flip.block = id
		g.flip.member = len(fields) - 1
		g.flip.storage = spec.storage
		g.flip.layout = spec.layout
	}
	return id
}

// declareGlobal declares a non-uniform global, a sampler or a pipeline
// variable.
func (g *Generator) declareGlobal(decl *ir.VarDeclaration) {
	v := decl.Var
	t := v.Type()
	if g.Queries.IsDeadVariable(v) && (decl.Value == nil || !ir.HasSideEffects(decl.Value)) {
		return
	}
	lay := v.Modifiers.Layout
	switch {
	case t.IsChild():
		g.Unsupported(v.Pos, "child effect '"+v.Name+"'")
		return
	case t.IsSampler():
		if lay.Binding < 0 {
			g.Errorf(v.Pos, "layout(binding=...) is required for sampler '%s'", v.Name)
			return
		}
		ptr := g.pointerType(StorageClassUniformConstant, g.typeID(t))
		id := g.globalVariable(ptr, StorageClassUniformConstant, 0, t, v.Name)
		g.module.AddDecorate(id, DecorationBinding, word(lay.Binding))
		g.module.AddDecorate(id, DecorationDescriptorSet, word(max(lay.Set, 0)))
		g.variables[v] = variable{ptr: id, storage: StorageClassUniformConstant, member: -1}
		return
	case lay.Builtin == ir.BuiltinLastFragColor:
		g.Unsupported(v.Pos, "sk_LastFragColor")
		return
	}

	storage := StorageClassPrivate
	switch {
	case v.Modifiers.Has(ir.FlagIn):
		storage = StorageClassInput
	case v.Modifiers.Has(ir.FlagOut):
		storage = StorageClassOutput
	case v.IsBuiltin():
		storage = StorageClassInput
		if ir.IsOutputBuiltin(lay.Builtin) {
			storage = StorageClassOutput
		}
	}

	var init uint32
	if decl.Value != nil {
		if storage != StorageClassPrivate {
			g.Errorf(decl.Position(), "pipeline variable '%s' may not have an initializer", v.Name)
			return
		}
		if vt := decl.Value.Type(); ir.IsCompileTimeConstant(decl.Value) && (vt.IsScalar() || vt.IsVector() || vt.IsMatrix()) {
			init = g.compositeConstant(decl.Value)
		} else {
			g.globalInits = append(g.globalInits, decl)
		}
	}

	ptr := g.pointerType(storage, g.typeID(t))
	id := g.globalVariable(ptr, storage, init, t, v.Name)
	g.variables[v] = variable{ptr: id, storage: storage, member: -1}
	if storage == StorageClassPrivate {
		return
	}

	switch {
	case lay.Builtin == ir.BuiltinFragColor:
		g.module.AddDecorate(id, DecorationLocation, 0)
		if lay.Index >= 0 {
			g.module.AddDecorate(id, DecorationIndex, word(lay.Index))
		}
		g.fragColor = id
	case v.IsBuiltin():
		g.module.AddDecorate(id, DecorationBuiltIn, word(lay.Builtin))
		if lay.Builtin == ir.BuiltinFragDepth {
			g.module.AddExecutionMode(0, ExecutionModeDepthReplacing)
		}
	case lay.Location >= 0:
		g.module.AddDecorate(id, DecorationLocation, word(lay.Location))
	default:
		g.Errorf(v.Pos, "layout(location=...) is required for '%s'", v.Name)
	}
	interpolate := storage == StorageClassInput && g.model == ExecutionModelFragment ||
		storage == StorageClassOutput && g.model == ExecutionModelVertex
	if interpolate && !v.IsBuiltin() {
		if v.Modifiers.Has(ir.FlagFlat) || storage == StorageClassInput && t.IsInteger() {
			g.module.AddDecorate(id, DecorationFlat)
		}
		if v.Modifiers.Has(ir.FlagNoPerspective) {
			g.module.AddDecorate(id, DecorationNoPerspective)
		}
	}
}

// globalVariable emits a module-scope OpVariable.
func (g *Generator) globalVariable(ptr uint32, storage StorageClass, init uint32, t *ir.Type, name string) uint32 {
	id := g.valueID(t)
	operands := []uint32{ptr, id, uint32(storage)}
	if init != 0 {
		operands = append(operands, init)
	}
	g.module.Emit(SectionGlobals, OpVariable, operands...)
	if g.options.DebugNames && name != "" {
		g.module.AddName(id, name)
	}
	g.globals = append(g.globals, id)
	if storage == StorageClassInput || storage == StorageClassOutput {
		g.interfaces = append(g.interfaces, id)
	}
	return id
}

// fragColorOutput returns the sk_FragColor output, declaring it when the
// program does not.
func (g *Generator) fragColorOutput() uint32 {
	if g.fragColor == 0 {
		t := g.Types().Half4
		ptr := g.pointerType(StorageClassOutput, g.typeID(t))
		g.fragColor = g.globalVariable(ptr, StorageClassOutput, 0, t, "sk_FragColor")
		g.module.AddDecorate(g.fragColor, DecorationLocation, 0)
	}
	return g.fragColor
}

func (g *Generator) beginFunction(ret *ir.Type, id, control, fnType uint32) {
	g.fn = &function{returnType: ret}
	g.fn.head = append(g.fn.head, Instruction{Opcode: OpFunction, Words: []uint32{g.typeID(ret), id, control, fnType}})
}

// endFunction closes any open block and appends the function to the
// module: header, entry label, hoisted variables, then the body.
func (g *Generator) endFunction() {
	fn := g.fn
	if fn.current != 0 {
		if fn.returnType.IsVoid() {
			g.emit(OpReturn)
		} else {
			g.emit(OpUnreachable)
		}
	}
	g.module.Append(SectionFunctions, fn.head...)
	g.module.Append(SectionFunctions, fn.body[0])
	g.module.Append(SectionFunctions, fn.vars...)
	g.module.Append(SectionFunctions, fn.body[1:]...)
	g.module.Emit(SectionFunctions, OpFunctionEnd)
	g.fn = nil
}

func (g *Generator) writeFunction(def *ir.FunctionDefinition) {
	decl := def.Decl
	id := g.functions[decl]
	params := make([]uint32, len(decl.Params))
	for i, p := range decl.Params {
		if p.Type().IsSampler() || p.Type().IsChild() {
			g.Unsupported(p.Pos, "parameter of type '"+p.Type().Name()+"'")
		}
		params[i] = g.pointerType(StorageClassFunction, g.typeID(p.Type()))
	}
	fnType := g.functionType(g.typeID(decl.ReturnType), params)

	control := FunctionControlNone
	switch {
	case decl.Modifiers.Has(ir.FlagInline):
		control = FunctionControlInline
	case decl.Modifiers.Has(ir.FlagNoInline):
		control = FunctionControlDontInline
	}
	g.beginFunction(decl.ReturnType, id, uint32(control), fnType)
	for i, p := range decl.Params {
		pid := g.valueID(p.Type())
		g.fn.head = append(g.fn.head, Instruction{Opcode: OpFunctionParameter, Words: []uint32{params[i], pid}})
		g.variables[p] = variable{ptr: pid, storage: StorageClassFunction, member: -1}
		if g.options.DebugNames {
			g.module.AddName(pid, p.Name)
		}
	}
	if g.options.DebugNames {
		name := decl.Name
		if decl == g.entry.Decl && g.wrapEntry {
			name = "_main"
		}
		g.module.AddName(id, name)
	}

	g.label(g.module.AllocID())
	if decl == g.entry.Decl && !g.wrapEntry {
		g.writeGlobalInits()
	}
	g.statement(def.Body)
	g.endFunction()
}

func (g *Generator) writeGlobalInits() {
	for _, decl := range g.globalInits {
		v := g.expression(decl.Value)
		g.emit(OpStore, g.variables[decl.Var].ptr, v)
	}
}

// writeEntryWrapper emits void main() { sk_FragColor = _main(); }.
func (g *Generator) writeEntryWrapper() uint32 {
	void := g.Types().Void
	id := g.module.AllocID()
	g.beginFunction(void, id, uint32(FunctionControlNone), g.functionType(g.typeID(void), nil))
	g.label(g.module.AllocID())
	g.writeGlobalInits()
	out := g.fragColorOutput()
	t := g.entry.Decl.ReturnType
	res := g.valueID(t)
	g.emit(OpFunctionCall, g.typeID(t), res, g.functions[g.entry.Decl])
	g.emit(OpStore, out, res)
	g.endFunction()
	if g.options.DebugNames {
		g.module.AddName(id, "main")
	}
	return id
}

func (g *Generator) writeEntryPoint(entry uint32) {
	ifaces := g.interfaces
	if g.options.Version.AtLeast(Version1_4) {
		ifaces = g.globals
	}
	g.module.AddEntryPoint(g.model, entry, "main", ifaces)
	if g.model == ExecutionModelFragment {
		g.module.AddExecutionMode(entry, ExecutionModeOriginUpperLeft)
	}
	// Execution modes recorded before the entry id existed.
	modes := g.module.Section(SectionExecutionModes)
	for i := range modes {
		if modes[i].Words[0] == 0 {
			modes[i].Words[0] = entry
		}
	}
}
