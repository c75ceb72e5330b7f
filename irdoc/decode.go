package irdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shade/ir"
)

var programKinds = map[string]ir.ProgramKind{
	"fragment":     ir.ProgramFragment,
	"vertex":       ir.ProgramVertex,
	"shader":       ir.ProgramRuntimeShader,
	"color_filter": ir.ProgramRuntimeColorFilter,
	"blender":      ir.ProgramRuntimeBlender,
}

var modifierFlags = map[string]ir.ModifierFlags{
	"const":         ir.FlagConst,
	"uniform":       ir.FlagUniform,
	"in":            ir.FlagIn,
	"out":           ir.FlagOut,
	"inout":         ir.FlagIn | ir.FlagOut,
	"flat":          ir.FlagFlat,
	"noperspective": ir.FlagNoPerspective,
	"pure":          ir.FlagPure,
	"inline":        ir.FlagInline,
	"noinline":      ir.FlagNoInline,
	"highp":         ir.FlagHighp,
	"mediump":       ir.FlagMediump,
	"lowp":          ir.FlagLowp,
}

var layoutFlags = map[string]ir.LayoutFlags{
	"origin_upper_left": ir.LayoutOriginUpperLeft,
	"push_constant":     ir.LayoutPushConstant,
	"std140":            ir.LayoutStd140,
	"std430":            ir.LayoutStd430,
	"blend_support_all": ir.LayoutBlendSupportAll,
	"color":             ir.LayoutColor,
}

var builtins = map[string]int{
	"position":        ir.BuiltinPosition,
	"point_size":      ir.BuiltinPointSize,
	"frag_coord":      ir.BuiltinFragCoord,
	"clockwise":       ir.BuiltinClockwise,
	"sample_mask":     ir.BuiltinSampleMask,
	"frag_depth":      ir.BuiltinFragDepth,
	"vertex_id":       ir.BuiltinVertexID,
	"instance_id":     ir.BuiltinInstanceID,
	"frag_color":      ir.BuiltinFragColor,
	"last_frag_color": ir.BuiltinLastFragColor,
}

// Decode parses a program document and builds it through the ir
// factories. Problems in the program are returned as an ir.ErrorList
// positioned at the offending YAML node.
func Decode(data []byte) (*ir.Program, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Parse reads a document without building it. Unknown keys are errors.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("irdoc: %w", err)
	}
	return &doc, nil
}

// Build lowers a decoded document into a program with its own context.
func Build(doc *Document) (*ir.Program, error) {
	return BuildIn(ir.NewContext(doc.Settings.ir()), doc)
}

// BuildIn lowers doc with nodes owned by ctx, which may have an arena
// attached. The settings of ctx are used and doc.Settings is ignored.
// On failure every node built so far is released.
func BuildIn(ctx *ir.Context, doc *Document) (*ir.Program, error) {
	kind, ok := programKinds[doc.Kind]
	if doc.Kind == "" {
		kind, ok = ir.ProgramFragment, true
	}
	if !ok {
		return nil, fmt.Errorf("irdoc: unknown program kind %q", doc.Kind)
	}
	b := newBuilder(ctx)
	b.document(doc)
	p := ir.NewProgram(b.ctx, kind, b.elements)
	if err := b.ctx.Errors.Err(); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// builder resolves names while the document is lowered.
type builder struct {
	ctx       *ir.Context
	tt        *ir.TypeTable
	elements  []ir.ProgramElement
	functions map[string]*ir.FunctionDeclaration
	scopes    []map[string]*ir.Variable
	fields    map[string]fieldRef
	fn        *ir.FunctionDeclaration
}

// fieldRef names a member of an interface block without an instance.
type fieldRef struct {
	block *ir.Variable
	index int
}

func newBuilder(ctx *ir.Context) *builder {
	return &builder{
		ctx:       ctx,
		tt:        ctx.Types,
		functions: make(map[string]*ir.FunctionDeclaration),
		scopes:    []map[string]*ir.Variable{{}},
		fields:    make(map[string]fieldRef),
	}
}

func (b *builder) errorf(pos ir.Position, format string, args ...any) {
	b.ctx.Errors.Errorf(pos, format, args...)
}

func (b *builder) document(doc *Document) {
	for i := range doc.Structs {
		b.structType(&doc.Structs[i])
	}
	for i := range doc.Blocks {
		b.block(&doc.Blocks[i])
	}
	for i := range doc.Globals {
		b.global(&doc.Globals[i])
	}
	decls := make([]*ir.FunctionDeclaration, len(doc.Functions))
	for i := range doc.Functions {
		decls[i] = b.declareFunction(&doc.Functions[i])
	}
	for i := range doc.Functions {
		if decls[i] != nil {
			b.defineFunction(&doc.Functions[i], decls[i])
		}
	}
}

func (b *builder) structType(d *StructDoc) {
	if _, taken := b.tt.Lookup(d.Name); taken {
		b.errorf(d.pos, "type '%s' is already defined", d.Name)
		return
	}
	fields := make([]ir.Field, 0, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		fields = append(fields, ir.Field{Name: f.Name, Type: b.typ(f.pos, f.Type), Modifiers: b.modifiers(f), Pos: f.pos})
	}
	t := b.tt.Struct(d.Name, fields)
	b.elements = append(b.elements, ir.NewStructDefinition(b.ctx, d.pos, t))
}

func (b *builder) block(d *BlockDoc) {
	fields := make([]ir.Field, 0, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		fields = append(fields, ir.Field{Name: f.Name, Type: b.typ(f.pos, f.Type), Modifiers: b.modifiers(f), Pos: f.pos})
	}
	t := b.tt.Struct(d.Type, fields)
	mods := ir.Modifiers{Flags: ir.FlagUniform, Layout: b.layout(d.pos, d.Layout)}
	name := d.Instance
	if name == "" {
		name = "_" + d.Type
	}
	v := ir.NewVariable(d.pos, name, t, mods, ir.StorageInterfaceBlock)
	b.elements = append(b.elements, ir.NewInterfaceBlock(b.ctx, d.pos, v, d.Type, d.Instance))
	if d.Instance != "" {
		b.bind(d.pos, v)
		return
	}
	for i, f := range fields {
		b.fields[f.Name] = fieldRef{block: v, index: i}
	}
}

func (b *builder) global(d *VarDoc) {
	v := ir.NewVariable(d.pos, d.Name, b.typ(d.pos, d.Type), b.modifiers(d), ir.StorageGlobal)
	var init ir.Expression
	if d.Value.Kind != 0 {
		init = b.expr(&d.Value)
	}
	decl := ir.MakeVarDeclaration(b.ctx, d.pos, v, init)
	b.elements = append(b.elements, ir.NewGlobalVarDeclaration(b.ctx, decl))
	b.bind(d.pos, v)
}

func (b *builder) declareFunction(d *FuncDoc) *ir.FunctionDeclaration {
	if _, taken := b.functions[d.Name]; taken {
		b.errorf(d.pos, "function '%s' is already defined", d.Name)
		return nil
	}
	params := make([]*ir.Variable, len(d.Params))
	for i := range d.Params {
		p := &d.Params[i]
		params[i] = ir.NewVariable(p.pos, p.Name, b.typ(p.pos, p.Type), b.modifiers(p), ir.StorageParameter)
	}
	ret := b.tt.Void
	if d.Returns != "" {
		ret = b.typ(d.pos, d.Returns)
	}
	mods := ir.DefaultModifiers()
	mods.Flags = b.flags(d.pos, d.Flags)
	decl := ir.NewFunctionDeclaration(d.pos, d.Name, params, ret, mods)
	b.functions[d.Name] = decl
	return decl
}

func (b *builder) defineFunction(d *FuncDoc, decl *ir.FunctionDeclaration) {
	b.fn = decl
	b.push()
	for _, p := range decl.Params {
		b.bind(p.Pos, p)
	}
	body := b.blockOf(position(&d.Body), &d.Body, true)
	b.pop()
	b.fn = nil
	b.elements = append(b.elements, ir.NewFunctionDefinition(b.ctx, d.pos, decl, body))
}

func (b *builder) push() { b.scopes = append(b.scopes, map[string]*ir.Variable{}) }

func (b *builder) pop() { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *builder) bind(pos ir.Position, v *ir.Variable) {
	scope := b.scopes[len(b.scopes)-1]
	if _, taken := scope[v.Name]; taken {
		b.errorf(pos, "symbol '%s' was already defined", v.Name)
	}
	scope[v.Name] = v
}

func (b *builder) lookup(name string) (*ir.Variable, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (b *builder) modifiers(d *VarDoc) ir.Modifiers {
	return ir.Modifiers{Flags: b.flags(d.pos, d.Flags), Layout: b.layout(d.pos, d.Layout)}
}

func (b *builder) flags(pos ir.Position, names []string) ir.ModifierFlags {
	var out ir.ModifierFlags
	for _, n := range names {
		f, ok := modifierFlags[n]
		if !ok {
			b.errorf(pos, "unknown modifier '%s'", n)
			continue
		}
		out |= f
	}
	return out
}

func (b *builder) layout(pos ir.Position, d LayoutDoc) ir.Layout {
	l := ir.Layout{
		Location: d.Location,
		Offset:   d.Offset,
		Binding:  d.Binding,
		Set:      d.Set,
		Index:    d.Index,
		Builtin:  ir.BuiltinNone,
	}
	if d.Builtin != "" {
		id, ok := builtins[d.Builtin]
		if !ok {
			b.errorf(pos, "unknown builtin '%s'", d.Builtin)
		} else {
			l.Builtin = id
		}
	}
	for _, n := range d.Flags {
		f, ok := layoutFlags[n]
		if !ok {
			b.errorf(pos, "unknown layout flag '%s'", n)
			continue
		}
		l.Flags |= f
	}
	return l
}

// typ resolves a type name. A trailing [N] makes an array.
func (b *builder) typ(pos ir.Position, name string) *ir.Type {
	name = strings.TrimSpace(name)
	if open := strings.LastIndexByte(name, '['); open > 0 && strings.HasSuffix(name, "]") {
		n, err := strconv.Atoi(name[open+1 : len(name)-1])
		if err != nil || n <= 0 {
			b.errorf(pos, "invalid array size in '%s'", name)
			return b.tt.Poison
		}
		elem := b.typ(pos, name[:open])
		if elem == b.tt.Poison {
			return elem
		}
		return b.tt.Array(elem, n)
	}
	t, ok := b.tt.Lookup(name)
	if !ok {
		b.errorf(pos, "unknown type '%s'", name)
		return b.tt.Poison
	}
	return t
}
