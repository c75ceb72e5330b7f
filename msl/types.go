package msl

import (
	"fmt"

	"github.com/gogpu/shade/ir"
)

// Typenames used when declaring samplers in the Globals struct.
const (
	textureType = "texture2d<half>"
	samplerType = "sampler"
)

// typeName returns the Metal spelling of t. Struct types are declared on
// first use.
func (g *Generator) typeName(t *ir.Type) string {
	switch t.Kind() {
	case ir.TypeVoid:
		return "void"
	case ir.TypeScalar:
		return g.scalarName(t)
	case ir.TypeVector:
		return fmt.Sprintf("%s%d", g.scalarName(t.ComponentType()), t.Columns())
	case ir.TypeMatrix:
		return fmt.Sprintf("%s%dx%d", g.scalarName(t.ComponentType()), t.Columns(), t.Rows())
	case ir.TypeArray:
		return fmt.Sprintf("array<%s, %d>", g.typeName(t.ComponentType()), t.ArrayLength())
	case ir.TypeStruct:
		return g.structName(t)
	case ir.TypeSampler:
		return textureType
	}
	ir.Internalf(ir.Position{}, "msl: no Metal type for %s", t)
	return ""
}

func (g *Generator) scalarName(t *ir.Type) string {
	if t == g.Types().Half && g.Context.Settings.ForceHighPrecision {
		return "float"
	}
	return t.Name()
}

// structName returns the declared name of a struct type, writing its
// definition into the struct section the first time.
func (g *Generator) structName(t *ir.Type) string {
	if name, ok := g.structNames[t]; ok {
		return name
	}
	name := g.namer.call(t.Name())
	g.structNames[t] = name

	saved, indent := g.out, g.indent
	g.into(&g.structs)
	g.writeStruct(name, t.Fields(), ir.Position{})
	g.out, g.indent = saved, indent
	return name
}

// writeStruct writes a struct definition whose members honor any
// explicit layout(offset=N), padding with char arrays. Member types are
// declared before the struct itself.
func (g *Generator) writeStruct(name string, fields []ir.Field, pos ir.Position) {
	for _, f := range fields {
		if f.Type.IsStruct() || f.Type.IsArray() {
			g.typeName(f.Type)
		}
	}
	g.writeLine("struct %s {", name)
	g.pushIndent()
	g.writeMembers(fields, pos)
	g.popIndent()
	g.writeLine("};")
	g.writeLine("")
}

func (g *Generator) writeMembers(fields []ir.Field, pos ir.Position) {
	offset, pads := 0, 0
	for _, f := range fields {
		next := roundUp(offset, metalAlignment(f.Type))
		if want := f.Modifiers.Layout.Offset; want >= 0 {
			if want < next {
				if f.Pos.Valid() {
					pos = f.Pos
				}
				g.Errorf(pos, "offset of field '%s' must be at least %d", f.Name, next)
			} else if want > next {
				g.writeLine("char pad%d[%d];", pads, want-next)
				pads++
				next = want
			}
		}
		g.writeLine("%s %s;", g.typeName(f.Type), escapeName(f.Name))
		offset = next + metalSize(f.Type)
	}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// metalAlignment returns the alignment of t in the constant address space.
// Three-component vectors align like four-component ones.
func metalAlignment(t *ir.Type) int {
	switch t.Kind() {
	case ir.TypeScalar:
		return scalarSize(t)
	case ir.TypeVector:
		return vectorSize(t.Columns(), t.ComponentType())
	case ir.TypeMatrix:
		return vectorSize(t.Rows(), t.ComponentType())
	case ir.TypeArray:
		return metalAlignment(t.ComponentType())
	case ir.TypeStruct:
		a := 1
		for _, f := range t.Fields() {
			a = max(a, metalAlignment(f.Type))
		}
		return a
	}
	return 4
}

// metalSize returns the size of t in the constant address space,
// including trailing padding.
func metalSize(t *ir.Type) int {
	switch t.Kind() {
	case ir.TypeScalar, ir.TypeVector:
		return metalAlignment(t)
	case ir.TypeMatrix:
		return t.Columns() * vectorSize(t.Rows(), t.ComponentType())
	case ir.TypeArray:
		elem := t.ComponentType()
		return t.ArrayLength() * roundUp(metalSize(elem), metalAlignment(elem))
	case ir.TypeStruct:
		total := 0
		for _, f := range t.Fields() {
			total = roundUp(total, metalAlignment(f.Type)) + metalSize(f.Type)
		}
		return roundUp(total, metalAlignment(t))
	}
	return 4
}

func scalarSize(t *ir.Type) int {
	switch t.Name() {
	case "half":
		return 2
	case "bool":
		return 1
	}
	return 4
}

// vectorSize is the size and alignment of an n-component vector.
func vectorSize(n int, component *ir.Type) int {
	if n == 3 {
		n = 4
	}
	return n * scalarSize(component)
}
