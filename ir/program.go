package ir

// ModifierFlags are declaration qualifiers.
type ModifierFlags uint16

const (
	FlagConst ModifierFlags = 1 << iota
	FlagUniform
	FlagIn
	FlagOut
	FlagFlat
	FlagNoPerspective
	FlagPure
	FlagInline
	FlagNoInline
	FlagHighp
	FlagMediump
	FlagLowp
)

// LayoutFlags are layout qualifiers without a value.
type LayoutFlags uint16

const (
	LayoutOriginUpperLeft LayoutFlags = 1 << iota
	LayoutPushConstant
	LayoutStd140
	LayoutStd430
	LayoutBlendSupportAll
	LayoutColor
)

// Builtin ids follow the SPIR-V BuiltIn enumeration where one exists.
const (
	BuiltinNone          = -1
	BuiltinPosition      = 0
	BuiltinPointSize     = 1
	BuiltinFragCoord     = 15
	BuiltinClockwise     = 17
	BuiltinSampleMask    = 20
	BuiltinFragDepth     = 22
	BuiltinVertexID      = 42
	BuiltinInstanceID    = 43
	BuiltinFragColor     = 10001
	BuiltinLastFragColor = 10008
)

// IsOutputBuiltin reports builtins written by the stage rather than read.
func IsOutputBuiltin(id int) bool {
	switch id {
	case BuiltinPosition, BuiltinPointSize, BuiltinFragDepth, BuiltinFragColor:
		return true
	}
	return false
}

// Layout holds layout(...) qualifiers. Integer members are -1 when unset.
type Layout struct {
	Flags    LayoutFlags
	Location int
	Offset   int
	Binding  int
	Set      int
	Builtin  int
	Index    int
}

// DefaultLayout returns a layout with every value unset.
func DefaultLayout() Layout {
	return Layout{Location: -1, Offset: -1, Binding: -1, Set: -1, Builtin: BuiltinNone, Index: -1}
}

// Modifiers combine flags and layout.
type Modifiers struct {
	Flags  ModifierFlags
	Layout Layout
}

// DefaultModifiers returns modifiers with no flags and an unset layout.
func DefaultModifiers() Modifiers {
	return Modifiers{Layout: DefaultLayout()}
}

// Has reports whether every flag in f is set.
func (m Modifiers) Has(f ModifierFlags) bool { return m.Flags&f == f }

// IsBuiltin reports whether the layout names a builtin.
func (m Modifiers) IsBuiltin() bool { return m.Layout.Builtin != BuiltinNone }

// Storage records where a variable lives.
type Storage uint8

const (
	StorageGlobal Storage = iota
	StorageInterfaceBlock
	StorageLocal
	StorageParameter
)

func (s Storage) String() string {
	switch s {
	case StorageGlobal:
		return "global"
	case StorageInterfaceBlock:
		return "interface block"
	case StorageLocal:
		return "local"
	default:
		return "parameter"
	}
}

// Variable is a named storage location. Variables are symbols, not tree
// nodes: references point at them without owning them.
type Variable struct {
	Pos       Position
	Name      string
	Modifiers Modifiers
	Storage   Storage
	typ       *Type

	// Value is the initializer of a const variable, if any.
	Value Expression

	// Block is the interface block declaring the variable, if any.
	Block *InterfaceBlock
}

// NewVariable creates a variable symbol.
func NewVariable(pos Position, name string, typ *Type, mods Modifiers, storage Storage) *Variable {
	return &Variable{Pos: pos, Name: name, typ: typ, Modifiers: mods, Storage: storage}
}

// Type returns the variable's type.
func (v *Variable) Type() *Type { return v.typ }

// IsConst reports a const-qualified variable.
func (v *Variable) IsConst() bool { return v.Modifiers.Has(FlagConst) }

// IsUniform reports a uniform-qualified variable.
func (v *Variable) IsUniform() bool { return v.Modifiers.Has(FlagUniform) }

// IsBuiltin reports a program builtin such as sk_FragCoord.
func (v *Variable) IsBuiltin() bool { return v.Modifiers.IsBuiltin() }

// IsInterface reports variables visible outside the program: uniforms,
// pipeline inputs and outputs.
func (v *Variable) IsInterface() bool {
	return v.Modifiers.Flags&(FlagUniform|FlagIn|FlagOut) != 0 || v.IsBuiltin()
}

// FunctionDeclaration is a function signature. Intrinsics have Intrinsic
// set and no definition.
type FunctionDeclaration struct {
	Pos        Position
	Name       string
	Params     []*Variable
	ReturnType *Type
	Modifiers  Modifiers
	Intrinsic  IntrinsicKind
	Definition *FunctionDefinition
}

// NewFunctionDeclaration creates a user function signature.
func NewFunctionDeclaration(pos Position, name string, params []*Variable, ret *Type, mods Modifiers) *FunctionDeclaration {
	for _, p := range params {
		p.Storage = StorageParameter
	}
	return &FunctionDeclaration{Pos: pos, Name: name, Params: params, ReturnType: ret, Modifiers: mods, Intrinsic: IntrinsicNone}
}

// IsIntrinsic reports whether the declaration is a builtin function.
func (f *FunctionDeclaration) IsIntrinsic() bool { return f.Intrinsic != IntrinsicNone }

// IsMain reports the program entry point.
func (f *FunctionDeclaration) IsMain() bool { return f.Name == "main" && !f.IsIntrinsic() }

// IsPure reports functions whose calls never have side effects.
func (f *FunctionDeclaration) IsPure() bool {
	return f.IsIntrinsic() || f.Modifiers.Has(FlagPure)
}

// ElementKind classifies program elements.
type ElementKind uint8

const (
	ElementFunction ElementKind = iota
	ElementGlobalVar
	ElementInterfaceBlock
	ElementStruct
)

// ProgramElement is a top-level declaration.
type ProgramElement interface {
	Node
	elementKind() ElementKind
}

// FunctionDefinition pairs a declaration with its body.
type FunctionDefinition struct {
	node
	Decl *FunctionDeclaration
	Body *Block
}

// GlobalVarDeclaration declares a variable at program scope.
type GlobalVarDeclaration struct {
	node
	Decl *VarDeclaration
}

// Var returns the declared variable.
func (g *GlobalVarDeclaration) Var() *Variable { return g.Decl.Var }

// InterfaceBlock declares a block of uniforms or pipeline values. Var has
// a struct type whose fields are the block members; an empty InstanceName
// makes the members visible by bare name.
type InterfaceBlock struct {
	node
	Var          *Variable
	TypeName     string
	InstanceName string
}

// StructDefinition declares a struct type.
type StructDefinition struct {
	node
	Type *Type
}

func (*FunctionDefinition) elementKind() ElementKind   { return ElementFunction }
func (*GlobalVarDeclaration) elementKind() ElementKind { return ElementGlobalVar }
func (*InterfaceBlock) elementKind() ElementKind       { return ElementInterfaceBlock }
func (*StructDefinition) elementKind() ElementKind     { return ElementStruct }

// NewFunctionDefinition attaches body to decl.
func NewFunctionDefinition(ctx *Context, pos Position, decl *FunctionDeclaration, body *Block) *FunctionDefinition {
	def := track(ctx, &FunctionDefinition{node: node{pos: pos}, Decl: decl, Body: body})
	decl.Definition = def
	return def
}

// NewGlobalVarDeclaration wraps a variable declaration at program scope.
func NewGlobalVarDeclaration(ctx *Context, decl *VarDeclaration) *GlobalVarDeclaration {
	decl.Var.Storage = StorageGlobal
	return track(ctx, &GlobalVarDeclaration{node: node{pos: decl.Position()}, Decl: decl})
}

// NewInterfaceBlock declares an interface block over a struct-typed
// variable.
func NewInterfaceBlock(ctx *Context, pos Position, v *Variable, typeName, instanceName string) *InterfaceBlock {
	if !v.Type().IsStruct() {
		internalf(pos, "interface block variable %s is not a struct", v.Name)
	}
	v.Storage = StorageInterfaceBlock
	ib := track(ctx, &InterfaceBlock{node: node{pos: pos}, Var: v, TypeName: typeName, InstanceName: instanceName})
	v.Block = ib
	return ib
}

// NewStructDefinition declares t.
func NewStructDefinition(ctx *Context, pos Position, t *Type) *StructDefinition {
	return track(ctx, &StructDefinition{node: node{pos: pos}, Type: t})
}

// ProgramKind selects the pipeline stage or effect flavor.
type ProgramKind uint8

const (
	ProgramFragment ProgramKind = iota
	ProgramVertex
	ProgramRuntimeShader
	ProgramRuntimeColorFilter
	ProgramRuntimeBlender
)

func (k ProgramKind) String() string {
	switch k {
	case ProgramFragment:
		return "fragment"
	case ProgramVertex:
		return "vertex"
	case ProgramRuntimeShader:
		return "shader"
	case ProgramRuntimeColorFilter:
		return "colorFilter"
	case ProgramRuntimeBlender:
		return "blender"
	}
	return "unknown"
}

// IsRuntimeEffect reports the effect kinds run by the lane backend.
func (k ProgramKind) IsRuntimeEffect() bool { return k >= ProgramRuntimeShader }

// Program is a complete compilation unit.
type Program struct {
	Kind     ProgramKind
	Elements []ProgramElement
	Context  *Context
	Usage    *ProgramUsage
}

// NewProgram assembles elements, checks function bodies and the entry
// point signature, and computes usage. Problems are reported to
// ctx.Errors.
func NewProgram(ctx *Context, kind ProgramKind, elements []ProgramElement) *Program {
	p := &Program{Kind: kind, Elements: elements, Context: ctx}
	for _, f := range p.Functions() {
		if f.Body != nil {
			validateFunction(ctx, kind, f.Decl, f.Body)
		}
	}
	validateMain(ctx, p)
	p.Usage = ComputeUsage(p)
	return p
}

// validateMain checks the entry point signature required by the program
// kind.
func validateMain(ctx *Context, p *Program) {
	entry := p.Main()
	if entry == nil {
		if p.Kind.IsRuntimeEffect() || p.Kind == ProgramFragment {
			ctx.Errors.Errorf(Position{}, "program does not contain a 'main' function")
		}
		return
	}
	tt := ctx.Types
	d := entry.Decl
	var want []*Type
	ret := tt.Half4
	switch p.Kind {
	case ProgramFragment, ProgramVertex:
		if len(d.Params) != 0 || !(d.ReturnType.IsVoid() || p.Kind == ProgramFragment && d.ReturnType.MatchesAsLiteral(tt.Half4)) {
			ctx.Errors.Errorf(d.Pos, "invalid signature for 'main'")
		}
		return
	case ProgramRuntimeShader:
		if len(d.Params) == 0 {
			break
		}
		want = []*Type{tt.Float2}
	case ProgramRuntimeColorFilter:
		want = []*Type{tt.Half4}
	case ProgramRuntimeBlender:
		want = []*Type{tt.Half4, tt.Half4}
	}
	ok := d.ReturnType.MatchesAsLiteral(ret) && len(d.Params) == len(want)
	for i := 0; ok && i < len(want); i++ {
		ok = d.Params[i].Type().MatchesAsLiteral(want[i])
	}
	if !ok {
		ctx.Errors.Errorf(d.Pos, "invalid signature for 'main'")
	}
}

// Functions returns the function definitions in declaration order.
func (p *Program) Functions() []*FunctionDefinition {
	var out []*FunctionDefinition
	for _, e := range p.Elements {
		if f, ok := e.(*FunctionDefinition); ok {
			out = append(out, f)
		}
	}
	return out
}

// Main returns the entry point definition, or nil.
func (p *Program) Main() *FunctionDefinition {
	for _, f := range p.Functions() {
		if f.Decl.IsMain() {
			return f
		}
	}
	return nil
}

// Globals returns the global variable declarations.
func (p *Program) Globals() []*GlobalVarDeclaration {
	var out []*GlobalVarDeclaration
	for _, e := range p.Elements {
		if g, ok := e.(*GlobalVarDeclaration); ok {
			out = append(out, g)
		}
	}
	return out
}

// InterfaceBlocks returns the interface blocks.
func (p *Program) InterfaceBlocks() []*InterfaceBlock {
	var out []*InterfaceBlock
	for _, e := range p.Elements {
		if ib, ok := e.(*InterfaceBlock); ok {
			out = append(out, ib)
		}
	}
	return out
}

// Release returns every node of the program to the context's arena.
func (p *Program) Release() {
	for _, e := range p.Elements {
		p.Context.Release(e)
	}
	p.Elements = nil
}
