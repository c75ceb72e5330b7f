package spirv

import (
	"fmt"

	"github.com/gogpu/shade/ir"
)

// MemoryLayout is an explicit buffer layout.
type MemoryLayout uint8

const (
	// LayoutNone is used for types that never live in a buffer.
	LayoutNone MemoryLayout = iota
	LayoutStd140
	LayoutStd430
)

func (l MemoryLayout) String() string {
	switch l {
	case LayoutStd140:
		return "std140"
	case LayoutStd430:
		return "std430"
	}
	return "none"
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// Alignment returns the base alignment of t in bytes.
func (l MemoryLayout) Alignment(t *ir.Type) int {
	switch t.Kind() {
	case ir.TypeScalar:
		return 4
	case ir.TypeVector:
		if t.Columns() == 2 {
			return 8
		}
		return 16
	case ir.TypeMatrix:
		return l.vectorAlignment(t.Rows())
	case ir.TypeArray:
		a := l.Alignment(t.ComponentType())
		if l == LayoutStd140 {
			a = roundUp(a, 16)
		}
		return a
	case ir.TypeStruct:
		a := 1
		for _, f := range t.Fields() {
			a = max(a, l.Alignment(f.Type))
		}
		if l == LayoutStd140 {
			a = roundUp(a, 16)
		}
		return a
	}
	return 4
}

// vectorAlignment is the alignment of a matrix column of n rows.
func (l MemoryLayout) vectorAlignment(n int) int {
	a := 16
	if n == 2 {
		a = 8
	}
	if l == LayoutStd140 {
		a = 16
	}
	return a
}

// Stride returns the element stride of an array, or the column stride of
// a matrix.
func (l MemoryLayout) Stride(t *ir.Type) int {
	switch t.Kind() {
	case ir.TypeMatrix:
		return l.vectorAlignment(t.Rows())
	case ir.TypeArray:
		elem := t.ComponentType()
		return roundUp(l.Size(elem), l.Alignment(t))
	}
	return 0
}

// Size returns the size of t in bytes, including trailing padding for
// structs.
func (l MemoryLayout) Size(t *ir.Type) int {
	switch t.Kind() {
	case ir.TypeScalar:
		return 4
	case ir.TypeVector:
		return 4 * t.Columns()
	case ir.TypeMatrix:
		return l.Stride(t) * t.Columns()
	case ir.TypeArray:
		return l.Stride(t) * t.ArrayLength()
	case ir.TypeStruct:
		total := 0
		for _, f := range t.Fields() {
			total = roundUp(total, l.Alignment(f.Type)) + l.Size(f.Type)
		}
		return roundUp(total, l.Alignment(t))
	}
	return 4
}

// Member is one laid-out member of a block or struct.
type Member struct {
	Name   string
	Type   *ir.Type
	Offset int
	Pos    ir.Position
}

// LayoutMembers assigns offsets to fields in order. An explicit
// layout(offset=N) is honored when it is aligned and does not overlap the
// previous member; otherwise an error is returned.
func (l MemoryLayout) LayoutMembers(fields []ir.Field) ([]Member, error) {
	members := make([]Member, 0, len(fields))
	offset := 0
	for _, f := range fields {
		align := l.Alignment(f.Type)
		next := roundUp(offset, align)
		if want := f.Modifiers.Layout.Offset; want >= 0 {
			if want < offset {
				return nil, fmt.Errorf("offset of field '%s' must be at least %d", f.Name, offset)
			}
			if want%align != 0 {
				return nil, fmt.Errorf("offset of field '%s' must be a multiple of %d", f.Name, align)
			}
			next = want
		}
		members = append(members, Member{Name: f.Name, Type: f.Type, Offset: next, Pos: f.Pos})
		offset = next + l.Size(f.Type)
	}
	return members, nil
}
