package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shade/ir"
)

// env is the subset of the entry point environment a function receives.
type env uint8

const (
	envUniforms env = 1 << iota
	envBlocks
	envInputs
	envOutputs
	envGlobals
	envFragCoord
	envFrontFacing
)

// builtinParams are the builtins Metal delivers as entry point arguments.
var builtinParams = map[int]builtinInput{
	ir.BuiltinVertexID:      {param: "_vertexID", paramType: "uint", attribute: "vertex_id"},
	ir.BuiltinInstanceID:    {param: "_instanceID", paramType: "uint", attribute: "instance_id"},
	ir.BuiltinSampleMask:    {param: "_sampleMask", paramType: "uint", attribute: "sample_mask"},
	ir.BuiltinLastFragColor: {param: "_lastFragColor", paramType: "half4", attribute: "color(0)"},
}

// outputNames are the fixed Outputs members of the output builtins.
var outputNames = map[int]string{
	ir.BuiltinFragColor: "sk_FragColor",
	ir.BuiltinPosition:  "sk_Position",
	ir.BuiltinPointSize: "sk_PointSize",
	ir.BuiltinFragDepth: "sk_FragDepth",
}

// declareGlobals sorts the program-level declarations into the
// environment structs and file-scope constants.
func (g *Generator) declareGlobals() {
	g.fragColor = "color(0)"
	for _, e := range g.Program.Elements {
		switch e := e.(type) {
		case *ir.StructDefinition:
			g.typeName(e.Type)
		case *ir.GlobalVarDeclaration:
			g.declareGlobal(e.Decl)
		case *ir.InterfaceBlock:
			g.declareInterfaceBlock(e)
		}
	}
}

func (g *Generator) declareGlobal(d *ir.VarDeclaration) {
	v := d.Var
	t := v.Type()
	lay := v.Modifiers.Layout
	switch {
	case t.IsChild():
		// Reported where it is called.
		return
	case t.IsSampler():
		if lay.Binding < 0 {
			g.Errorf(v.Pos, "layout(binding=...) is required for sampler '%s'", v.Name)
			return
		}
		g.samplers = append(g.samplers, v)
		g.homes[v] = homeGlobals
	case v.IsBuiltin():
		g.declareBuiltin(v)
	case v.IsUniform():
		if !t.IsAllowedInUniform() {
			g.Errorf(v.Pos, "variables of type '%s' may not be uniform", t)
			return
		}
		g.uniforms = append(g.uniforms, v)
		g.homes[v] = homeUniforms
	case v.Modifiers.Has(ir.FlagIn), v.Modifiers.Has(ir.FlagOut):
		if lay.Location < 0 {
			g.Errorf(v.Pos, "layout(location=...) is required for '%s'", v.Name)
			return
		}
		if v.Modifiers.Has(ir.FlagIn) {
			g.inputs = append(g.inputs, v)
			g.homes[v] = homeInputs
		} else {
			g.outputs = append(g.outputs, v)
			g.homes[v] = homeOutputs
		}
	case g.Queries.IsDeadVariable(v) && (d.Value == nil || !ir.HasSideEffects(d.Value)):
		// Elided.
	case v.IsConst():
		if d.Value == nil || !ir.IsCompileTimeConstant(d.Value) {
			g.Unsupported(v.Pos, "global constant '"+v.Name+"' without a constant initializer")
			return
		}
		g.constants = append(g.constants, d)
		g.homes[v] = homeConstant
	default:
		g.privates = append(g.privates, d)
		g.homes[v] = homeGlobals
	}
}

func (g *Generator) declareBuiltin(v *ir.Variable) {
	id := v.Modifiers.Layout.Builtin
	switch id {
	case ir.BuiltinFragCoord:
		g.homes[v] = homeFragCoord
	case ir.BuiltinClockwise:
		g.homes[v] = homeFrontFacing
	case ir.BuiltinFragColor, ir.BuiltinPosition:
		g.names[v] = outputNames[id]
		g.homes[v] = homeOutputs
		if index := v.Modifiers.Layout.Index; id == ir.BuiltinFragColor && index >= 0 {
			g.fragColor = fmt.Sprintf("color(0), index(%d)", index)
		}
	case ir.BuiltinPointSize, ir.BuiltinFragDepth:
		g.names[v] = outputNames[id]
		g.homes[v] = homeOutputs
		g.outputs = append(g.outputs, v)
	default:
		b, ok := builtinParams[id]
		if !ok {
			g.Unsupported(v.Pos, "builtin '"+v.Name+"'")
			return
		}
		b.v = v
		g.builtins = append(g.builtins, b)
		g.homes[v] = homeGlobals
	}
}

func (g *Generator) declareInterfaceBlock(ib *ir.InterfaceBlock) {
	if !ib.Var.IsUniform() {
		g.Unsupported(ib.Position(), "'in' and 'out' interface blocks")
		return
	}
	if ib.Var.Modifiers.Layout.Binding < 0 {
		g.Errorf(ib.Position(), "layout(binding=...) is required for interface block '%s'", ib.TypeName)
		return
	}
	g.typeName(ib.Var.Type())
	name := ib.InstanceName
	if name == "" {
		name = fmt.Sprintf("_anonInterface%d", len(g.blocks))
	}
	g.names[ib.Var] = g.namer.call(name)
	g.homes[ib.Var] = homeBlock
	g.blocks = append(g.blocks, ib)
}

func (g *Generator) hasGlobals() bool {
	return len(g.samplers)+len(g.builtins)+len(g.privates) > 0
}

// writeEnvironmentStructs declares Uniforms, Inputs, Outputs and Globals,
// then the file-scope constants.
func (g *Generator) writeEnvironmentStructs() {
	g.into(&g.structs)
	if len(g.uniforms) > 0 {
		fields := make([]ir.Field, len(g.uniforms))
		for i, v := range g.uniforms {
			fields[i] = ir.Field{Name: g.variableName(v), Type: v.Type(), Modifiers: v.Modifiers, Pos: v.Pos}
		}
		g.writeStruct("Uniforms", fields, g.uniforms[0].Pos)
	}

	if len(g.inputs) > 0 {
		var members []string
		for _, v := range g.inputs {
			members = append(members, g.member(v.Type(), g.variableName(v), g.inputAttributes(v)))
		}
		g.writeMembersOf("Inputs", members)
	}

	var members []string
	if g.Program.Kind == ir.ProgramVertex {
		members = append(members, g.member(g.Types().Float4, "sk_Position", "[[position]]"))
	} else {
		members = append(members, g.member(g.Types().Half4, "sk_FragColor", "[["+g.fragColor+"]]"))
	}
	for _, v := range g.outputs {
		members = append(members, g.member(v.Type(), g.variableName(v), g.outputAttributes(v)))
	}
	g.writeMembersOf("Outputs", members)

	if g.hasGlobals() {
		members = members[:0]
		for _, v := range g.samplers {
			name := g.variableName(v)
			members = append(members, textureType+" "+name+"_Tex;", samplerType+" "+name+"_Smplr;")
		}
		for _, b := range g.builtins {
			members = append(members, g.member(b.v.Type(), g.variableName(b.v), ""))
		}
		for _, d := range g.privates {
			members = append(members, g.member(d.Var.Type(), g.variableName(d.Var), ""))
		}
		g.writeMembersOf("Globals", members)
	}

	if len(g.constants) > 0 {
		g.into(&g.consts)
		for _, d := range g.constants {
			t := g.typeName(d.Var.Type())
			g.writeLine("constant %s %s = %s;", t, g.variableName(d.Var), g.text(d.Value, ir.PrecedenceAssignment))
		}
		g.writeLine("")
	}
}

// member spells one struct member. Its type is declared before the
// enclosing struct is written.
func (g *Generator) member(t *ir.Type, name, attributes string) string {
	s := g.typeName(t) + " " + name
	if attributes != "" {
		s += " " + attributes
	}
	return s + ";"
}

func (g *Generator) writeMembersOf(name string, members []string) {
	g.writeLine("struct %s {", name)
	g.pushIndent()
	for _, m := range members {
		g.writeLine("%s", m)
	}
	g.popIndent()
	g.writeLine("};")
	g.writeLine("")
}

func (g *Generator) inputAttributes(v *ir.Variable) string {
	loc := v.Modifiers.Layout.Location
	if g.Program.Kind == ir.ProgramVertex {
		return fmt.Sprintf("[[attribute(%d)]]", loc)
	}
	s := fmt.Sprintf("[[user(locn%d)]]", loc)
	switch {
	case v.Modifiers.Has(ir.FlagFlat), v.Type().ComponentType().IsInteger():
		s += " [[flat]]"
	case v.Modifiers.Has(ir.FlagNoPerspective):
		s += " [[center_no_perspective]]"
	}
	return s
}

func (g *Generator) outputAttributes(v *ir.Variable) string {
	switch v.Modifiers.Layout.Builtin {
	case ir.BuiltinPointSize:
		return "[[point_size]]"
	case ir.BuiltinFragDepth:
		return "[[depth(any)]]"
	}
	loc := v.Modifiers.Layout.Location
	if g.Program.Kind == ir.ProgramVertex {
		return fmt.Sprintf("[[user(locn%d)]]", loc)
	}
	return fmt.Sprintf("[[color(%d)]]", loc)
}

// envOf returns the environment fn reaches, directly or through calls.
func (g *Generator) envOf(fn *ir.FunctionDeclaration) env {
	req := g.Queries.FunctionRequirements(fn)
	var e env
	if req.Has(ir.RequireUniforms) {
		if len(g.uniforms) > 0 {
			e |= envUniforms
		}
		if len(g.blocks) > 0 {
			e |= envBlocks
		}
		if len(g.samplers) > 0 {
			e |= envGlobals
		}
	}
	if req.Has(ir.RequireInputs) {
		if len(g.inputs) > 0 {
			e |= envInputs
		}
		if len(g.builtins) > 0 {
			e |= envGlobals
		}
	}
	if req.Has(ir.RequireOutputs) {
		e |= envOutputs
	}
	if req.Has(ir.RequireGlobals) && g.hasGlobals() {
		e |= envGlobals
	}
	if req.Has(ir.RequireFragCoord) {
		e |= envFragCoord
	}
	if req.Has(ir.RequireFrontFacing) {
		e |= envFrontFacing
	}
	return e
}

// envParams declares the environment in a helper's parameter list.
func (g *Generator) envParams(e env) []string {
	var params []string
	if e&envUniforms != 0 {
		params = append(params, "constant Uniforms& "+uniformsName)
	}
	if e&envBlocks != 0 {
		for _, ib := range g.blocks {
			params = append(params, "constant "+g.typeName(ib.Var.Type())+"& "+g.names[ib.Var])
		}
	}
	if e&envInputs != 0 {
		params = append(params, "thread Inputs& "+inputsName)
	}
	if e&envOutputs != 0 {
		params = append(params, "thread Outputs& "+outputsName)
	}
	if e&envGlobals != 0 {
		params = append(params, "thread Globals& "+globalsName)
	}
	if e&envFragCoord != 0 {
		params = append(params, "float4 "+fragCoordName)
	}
	if e&envFrontFacing != 0 {
		params = append(params, "bool "+frontFacingName)
	}
	return params
}

// envArgs passes the environment, in envParams order.
func (g *Generator) envArgs(e env) []string {
	var args []string
	if e&envUniforms != 0 {
		args = append(args, uniformsName)
	}
	if e&envBlocks != 0 {
		for _, ib := range g.blocks {
			args = append(args, g.names[ib.Var])
		}
	}
	if e&envInputs != 0 {
		args = append(args, inputsName)
	}
	if e&envOutputs != 0 {
		args = append(args, outputsName)
	}
	if e&envGlobals != 0 {
		args = append(args, globalsName)
	}
	if e&envFragCoord != 0 {
		args = append(args, fragCoordName)
	}
	if e&envFrontFacing != 0 {
		args = append(args, frontFacingName)
	}
	return args
}

// functionHeader spells the signature of a user function. Out and inout
// parameters are thread references.
func (g *Generator) functionHeader(decl *ir.FunctionDeclaration) string {
	var params []string
	for _, p := range decl.Params {
		t := g.typeName(p.Type())
		name := g.variableName(p)
		if p.Modifiers.Has(ir.FlagOut) {
			params = append(params, "thread "+t+"& "+name)
		} else {
			params = append(params, t+" "+name)
		}
	}
	params = append(params, g.envParams(g.envOf(decl))...)
	return fmt.Sprintf("%s %s(%s)", g.typeName(decl.ReturnType), g.fnNames[decl], strings.Join(params, ", "))
}

// writePrototypes declares every helper function ahead of the extra
// section, whose wrappers may call them.
func (g *Generator) writePrototypes(defs []*ir.FunctionDefinition) {
	g.into(&g.protos)
	n := 0
	for _, def := range defs {
		if def.Decl.IsMain() {
			continue
		}
		header := g.functionHeader(def.Decl)
		g.writeLine("%s;", header)
		n++
	}
	if n > 0 {
		g.writeLine("")
	}
}

func (g *Generator) writeFunction(def *ir.FunctionDefinition) {
	g.into(&g.functions)
	g.current = def.Decl
	if def.Decl.IsMain() {
		g.writeEntry(def)
		return
	}
	header := g.functionHeader(def.Decl)
	g.writeLine("%s {", header)
	g.pushIndent()
	g.statements(def.Body.Statements)
	g.popIndent()
	g.writeLine("}")
	g.writeLine("")
}

// writeEntry writes the stage function. It binds the pipeline resources,
// builds Globals and Outputs, and returns Outputs on every path.
func (g *Generator) writeEntry(def *ir.FunctionDefinition) {
	req := g.Queries.FunctionRequirements(def.Decl)
	stage := "fragment"
	if g.Program.Kind == ir.ProgramVertex {
		stage = "vertex"
		if req.Has(ir.RequireFragCoord) || req.Has(ir.RequireFrontFacing) {
			g.Unsupported(def.Decl.Pos, "fragment builtins in a vertex program")
		}
	}

	var params []string
	if len(g.inputs) > 0 {
		params = append(params, "Inputs "+inputsName+" [[stage_in]]")
	}
	if len(g.uniforms) > 0 {
		params = append(params, fmt.Sprintf("constant Uniforms& %s [[buffer(%d)]]", uniformsName, g.options.UniformBuffer))
	}
	for _, ib := range g.blocks {
		t := g.typeName(ib.Var.Type())
		params = append(params, fmt.Sprintf("constant %s& %s [[buffer(%d)]]", t, g.names[ib.Var], ib.Var.Modifiers.Layout.Binding))
	}
	for _, v := range g.samplers {
		name, binding := g.variableName(v), v.Modifiers.Layout.Binding
		params = append(params,
			fmt.Sprintf("%s %s_Tex [[texture(%d)]]", textureType, name, binding),
			fmt.Sprintf("%s %s_Smplr [[sampler(%d)]]", samplerType, name, binding))
	}
	if stage == "fragment" {
		if req.Has(ir.RequireFragCoord) {
			params = append(params, "float4 "+fragCoordName+" [[position]]")
		}
		if req.Has(ir.RequireFrontFacing) {
			params = append(params, "bool "+frontFacingName+" [[front_facing]]")
		}
	}
	for _, b := range g.builtins {
		params = append(params, fmt.Sprintf("%s %s [[%s]]", b.paramType, b.param, b.attribute))
	}

	g.writeLine("%s Outputs %s(%s) {", stage, g.entryName, strings.Join(params, ", "))
	g.pushIndent()
	g.writeLine("Outputs %s = {};", outputsName)
	if g.hasGlobals() {
		var inits []string
		for _, v := range g.samplers {
			name := g.variableName(v)
			inits = append(inits, name+"_Tex", name+"_Smplr")
		}
		for _, b := range g.builtins {
			inits = append(inits, g.typeName(b.v.Type())+"("+b.param+")")
		}
		g.writeLine("Globals %s{%s};", globalsName, strings.Join(inits, ", "))
		for _, d := range g.privates {
			if d.Value != nil {
				value := g.text(d.Value, ir.PrecedenceAssignment)
				g.writeLine("%s.%s = %s;", globalsName, g.variableName(d.Var), value)
			}
		}
	}
	body := def.Body.Statements
	g.statements(body)
	if n := len(body); n == 0 || body[n-1].Kind() != ir.StmtReturn {
		g.writeLine("return %s;", outputsName)
	}
	g.popIndent()
	g.writeLine("}")
}
