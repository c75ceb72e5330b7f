package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// home is where a global variable lives in the generated source.
type home uint8

const (
	homeLocal home = iota
	homeUniforms
	homeBlock
	homeInputs
	homeOutputs
	homeGlobals
	homeFragCoord
	homeFrontFacing
	homeConstant
)

// Names of the environment the entry point threads through every function.
const (
	uniformsName    = "_uniforms"
	inputsName      = "_in"
	outputsName     = "_out"
	globalsName     = "_globals"
	fragCoordName   = "_fragCoord"
	frontFacingName = "_frontFacing"
)

// builtinInput is a stage input delivered as an entry point argument and
// copied into Globals.
type builtinInput struct {
	v         *ir.Variable
	param     string
	paramType string
	attribute string
}

// Generator lowers a program to Metal Shading Language source.
type Generator struct {
	codegen.Base

	options Options

	// Output sections, concatenated in this order.
	header    strings.Builder
	structs   strings.Builder
	protos    strings.Builder
	extra     strings.Builder
	consts    strings.Builder
	functions strings.Builder
	source    string

	out    *strings.Builder
	indent int

	namer       *namer
	names       map[*ir.Variable]string
	fnNames     map[*ir.FunctionDeclaration]string
	structNames map[*ir.Type]string
	subst       map[ir.Expression]string
	homes       map[*ir.Variable]home

	uniforms  []*ir.Variable
	blocks    []*ir.InterfaceBlock
	inputs    []*ir.Variable
	outputs   []*ir.Variable
	privates  []*ir.VarDeclaration
	samplers  []*ir.Variable
	builtins  []builtinInput
	constants []*ir.VarDeclaration

	helpers     map[uint64][]helperEntry
	helperNames []string

	entry     *ir.FunctionDefinition
	entryName string
	fragColor string
	current   *ir.FunctionDeclaration
}

var _ codegen.Generator = (*Generator)(nil)

// NewGenerator prepares a generator for p.
func NewGenerator(p *ir.Program, options Options) *Generator {
	g := &Generator{
		Base:        codegen.NewBase(p, "Metal"),
		options:     options,
		namer:       newNamer(),
		names:       make(map[*ir.Variable]string),
		fnNames:     make(map[*ir.FunctionDeclaration]string),
		structNames: make(map[*ir.Type]string),
		subst:       make(map[ir.Expression]string),
		homes:       make(map[*ir.Variable]home),
		helpers:     make(map[uint64][]helperEntry),
	}
	g.out = &g.functions
	return g
}

// String returns the generated source. It is empty until Generate succeeds.
func (g *Generator) String() string { return g.source }

// Info describes the generated source.
func (g *Generator) Info() TranslationInfo {
	return TranslationInfo{EntryPoint: g.entryName, Helpers: g.helperNames}
}

// Generate writes the whole source file and reports whether it is valid.
func (g *Generator) Generate() bool {
	if !g.checkEntry() {
		return false
	}
	g.reserveNames()
	g.writeHeader()
	g.declareGlobals()
	g.writeEnvironmentStructs()

	var defs []*ir.FunctionDefinition
	for _, def := range g.Program.Functions() {
		if def.Decl.IsMain() || g.Program.Usage.CallCount(def.Decl) > 0 {
			defs = append(defs, def)
		}
	}
	for _, def := range defs {
		if !def.Decl.IsMain() {
			g.fnNames[def.Decl] = g.namer.call(def.Decl.Name)
		}
	}
	g.writePrototypes(defs)
	for _, def := range defs {
		g.writeFunction(def)
	}

	if g.Failed() {
		return false
	}
	var b strings.Builder
	for _, s := range []*strings.Builder{&g.header, &g.structs, &g.protos, &g.extra, &g.consts, &g.functions} {
		b.WriteString(s.String())
	}
	g.source = b.String()
	return true
}

// checkEntry accepts the entry signatures Metal can express.
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
		g.entryName = "fragmentMain"
		if !noParams || !decl.ReturnType.IsVoid() && decl.ReturnType != tt.Half4 && decl.ReturnType != tt.Float4 {
			g.Unsupported(decl.Pos, "entry point '"+signature(decl)+"'")
			return false
		}
	case ir.ProgramVertex:
		g.entryName = "vertexMain"
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

func signature(decl *ir.FunctionDeclaration) string {
	params := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = p.Type().Name() + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s)", decl.ReturnType, decl.Name, strings.Join(params, ", "))
}

// reserveNames claims the identifiers the generator introduces so user
// names never collide with them.
func (g *Generator) reserveNames() {
	for _, name := range []string{
		uniformsName, inputsName, outputsName, globalsName, fragCoordName, frontFacingName,
		g.entryName, "sk_FragColor", "sk_Position", "sk_PointSize", "sk_FragDepth",
		"Uniforms", "Inputs", "Outputs", "Globals",
	} {
		g.namer.reserve(name)
	}
	for _, b := range builtinParams {
		g.namer.reserve(b.param)
	}
}

func (g *Generator) writeHeader() {
	g.into(&g.header)
	if g.options.Comments {
		g.writeLine("// Metal Shading Language %s", g.options.LangVersion)
	}
	g.writeLine("#include <metal_stdlib>")
	g.writeLine("#include <simd/simd.h>")
	g.writeLine("using namespace metal;")
	g.writeLine("")
}

// into redirects output to one section.
func (g *Generator) into(section *strings.Builder) {
	g.out = section
	g.indent = 0
}

// Output helpers

// write writes text to the output. If args are provided, uses fmt.Fprintf.
//
//nolint:goprintffuncname
func (g *Generator) write(format string, args ...any) {
	if len(args) == 0 {
		g.out.WriteString(format)
	} else {
		fmt.Fprintf(g.out, format, args...)
	}
}

// writeLine writes a line with optional format args and a newline.
//
//nolint:goprintffuncname
func (g *Generator) writeLine(format string, args ...any) {
	if format != "" {
		g.writeIndent()
	}
	g.write(format, args...)
	g.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (g *Generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (g *Generator) pushIndent() {
	g.indent++
}

// popIndent decreases indentation.
func (g *Generator) popIndent() {
	if g.indent > 0 {
		g.indent--
	}
}

// variableName returns the identifier of v, allocating one on first use.
// Locals keep their source name unless it shadows a file-level name.
func (g *Generator) variableName(v *ir.Variable) string {
	if name, ok := g.names[v]; ok {
		return name
	}
	var name string
	if v.Storage == ir.StorageGlobal {
		name = g.namer.call(v.Name)
	} else {
		name = escapeName(v.Name)
		if _, taken := g.namer.used[name]; taken {
			name = g.namer.call(v.Name)
		}
	}
	g.names[v] = name
	return name
}
