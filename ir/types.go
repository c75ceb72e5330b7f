package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeScalar
	TypeVector
	TypeMatrix
	TypeArray
	TypeStruct
	TypeSampler
	TypeChild
	TypePoison
)

// NumberKind classifies scalar components.
type NumberKind uint8

const (
	NumberFloat NumberKind = iota
	NumberSigned
	NumberUnsigned
	NumberBoolean
	NumberNonnumeric
)

func (k NumberKind) String() string {
	switch k {
	case NumberFloat:
		return "float"
	case NumberSigned:
		return "signed"
	case NumberUnsigned:
		return "unsigned"
	case NumberBoolean:
		return "boolean"
	default:
		return "nonnumeric"
	}
}

// ChildKind distinguishes the effect objects a ChildCall can sample.
type ChildKind uint8

const (
	ChildShader ChildKind = iota
	ChildColorFilter
	ChildBlender
)

// Field is a struct member.
type Field struct {
	Name      string
	Type      *Type
	Modifiers Modifiers
	Pos       Position
}

// Type is an interned IR type. Two *Type values are equal exactly when the
// types are identical, so pointer comparison is type equality.
type Type struct {
	id        int
	name      string
	kind      TypeKind
	number    NumberKind
	high      bool
	width     int
	columns   int
	rows      int
	component *Type
	length    int
	fields    []Field
	child     ChildKind
}

// ID returns the interning order of the type, stable for one TypeTable.
func (t *Type) ID() int { return t.id }

// Name returns the surface-language spelling of the type.
func (t *Type) Name() string { return t.name }

// String returns the type name.
func (t *Type) String() string { return t.name }

// Kind returns the type kind.
func (t *Type) Kind() TypeKind { return t.kind }

// NumberKind returns the kind of the scalar components; Nonnumeric for
// arrays, structs and opaque types.
func (t *Type) NumberKind() NumberKind {
	switch t.kind {
	case TypeScalar:
		return t.number
	case TypeVector, TypeMatrix:
		return t.component.number
	default:
		return NumberNonnumeric
	}
}

func (t *Type) IsVoid() bool    { return t.kind == TypeVoid }
func (t *Type) IsScalar() bool  { return t.kind == TypeScalar }
func (t *Type) IsVector() bool  { return t.kind == TypeVector }
func (t *Type) IsMatrix() bool  { return t.kind == TypeMatrix }
func (t *Type) IsArray() bool   { return t.kind == TypeArray }
func (t *Type) IsStruct() bool  { return t.kind == TypeStruct }
func (t *Type) IsSampler() bool { return t.kind == TypeSampler }
func (t *Type) IsChild() bool   { return t.kind == TypeChild }
func (t *Type) IsPoison() bool  { return t.kind == TypePoison }

// IsNumber reports whether the type's components are float, signed or
// unsigned.
func (t *Type) IsNumber() bool {
	switch t.NumberKind() {
	case NumberFloat, NumberSigned, NumberUnsigned:
		return true
	}
	return false
}

func (t *Type) IsFloat() bool    { return t.NumberKind() == NumberFloat }
func (t *Type) IsSigned() bool   { return t.NumberKind() == NumberSigned }
func (t *Type) IsUnsigned() bool { return t.NumberKind() == NumberUnsigned }
func (t *Type) IsBoolean() bool  { return t.NumberKind() == NumberBoolean }

// IsInteger reports signed or unsigned components.
func (t *Type) IsInteger() bool { return t.IsSigned() || t.IsUnsigned() }

// HighPrecision reports whether the type needs full 32-bit precision.
// Half-based types are relaxed.
func (t *Type) HighPrecision() bool {
	switch t.kind {
	case TypeScalar:
		return t.high
	case TypeVector, TypeMatrix, TypeArray:
		return t.component.HighPrecision()
	default:
		return true
	}
}

// BitWidth returns the nominal scalar width (16 for half, 32 otherwise).
func (t *Type) BitWidth() int {
	switch t.kind {
	case TypeScalar:
		return t.width
	case TypeVector, TypeMatrix, TypeArray:
		return t.component.BitWidth()
	}
	return 0
}

// Columns returns the vector length or matrix column count; 1 for scalars.
func (t *Type) Columns() int { return t.columns }

// Rows returns the matrix row count; 1 for scalars and vectors.
func (t *Type) Rows() int { return t.rows }

// ComponentType returns the scalar type of a scalar, vector or matrix, and
// the element type of an array.
func (t *Type) ComponentType() *Type {
	if t.kind == TypeScalar {
		return t
	}
	return t.component
}

// ArrayLength returns the element count of an array type.
func (t *Type) ArrayLength() int { return t.length }

// Fields returns the members of a struct type.
func (t *Type) Fields() []Field { return t.fields }

// ChildKind returns which effect object a child type refers to.
func (t *Type) ChildKind() ChildKind { return t.child }

// SlotCount returns the number of scalar slots a value of the type covers.
func (t *Type) SlotCount() int {
	switch t.kind {
	case TypeScalar:
		return 1
	case TypeVector:
		return t.columns
	case TypeMatrix:
		return t.columns * t.rows
	case TypeArray:
		return t.length * t.component.SlotCount()
	case TypeStruct:
		n := 0
		for _, f := range t.fields {
			n += f.Type.SlotCount()
		}
		return n
	}
	return 0
}

// IsOrContainsArray reports whether an array appears anywhere inside t.
func (t *Type) IsOrContainsArray() bool {
	switch t.kind {
	case TypeArray:
		return true
	case TypeStruct:
		for _, f := range t.fields {
			if f.Type.IsOrContainsArray() {
				return true
			}
		}
	}
	return false
}

// IsOrContainsBool reports whether a bool component appears inside t.
func (t *Type) IsOrContainsBool() bool {
	switch t.kind {
	case TypeScalar, TypeVector, TypeMatrix:
		return t.IsBoolean()
	case TypeArray:
		return t.component.IsOrContainsBool()
	case TypeStruct:
		for _, f := range t.fields {
			if f.Type.IsOrContainsBool() {
				return true
			}
		}
	}
	return false
}

// IsAllowedInUniform reports whether values of t may live in a uniform.
func (t *Type) IsAllowedInUniform() bool {
	switch t.kind {
	case TypeScalar, TypeVector, TypeMatrix:
		return !t.IsBoolean()
	case TypeArray:
		return t.component.IsAllowedInUniform()
	case TypeStruct:
		for _, f := range t.fields {
			if !f.Type.IsAllowedInUniform() {
				return false
			}
		}
		return true
	case TypeSampler, TypeChild:
		return true
	}
	return false
}

// SameShape reports whether t and u have the same kind and dimensions,
// ignoring component type.
func (t *Type) SameShape(u *Type) bool {
	return t.kind == u.kind && t.columns == u.columns && t.rows == u.rows
}

// MatchesAsLiteral reports whether t and u differ only in precision, such
// as float3 and half3.
func (t *Type) MatchesAsLiteral(u *Type) bool {
	if t == u {
		return true
	}
	if !t.SameShape(u) {
		return false
	}
	switch t.kind {
	case TypeScalar, TypeVector, TypeMatrix:
		return t.NumberKind() == u.NumberKind()
	case TypeArray:
		return t.length == u.length && t.component.MatchesAsLiteral(u.component)
	}
	return false
}

type typeKey struct {
	kind      TypeKind
	number    NumberKind
	high      bool
	columns   int
	rows      int
	component int
	length    int
	name      string
	fields    string
	child     ChildKind
}

// TypeTable interns types. It is not safe for concurrent use.
type TypeTable struct {
	types  []*Type
	index  map[typeKey]*Type
	byName map[string]*Type

	Void     *Type
	Poison   *Type
	Float    *Type
	Half     *Type
	Int      *Type
	UInt     *Type
	Bool     *Type
	Float2   *Type
	Float3   *Type
	Float4   *Type
	Half2    *Type
	Half3    *Type
	Half4    *Type
	Int2     *Type
	Int3     *Type
	Int4     *Type
	UInt2    *Type
	UInt3    *Type
	UInt4    *Type
	Bool2    *Type
	Bool3    *Type
	Bool4    *Type
	Float2x2 *Type
	Float3x3 *Type
	Float4x4 *Type
	Half2x2  *Type
	Half3x3  *Type
	Half4x4  *Type

	Sampler2D   *Type
	Shader      *Type
	ColorFilter *Type
	Blender     *Type
}

// NewTypeTable creates a table with every builtin type registered.
func NewTypeTable() *TypeTable {
	tt := &TypeTable{
		index:  make(map[typeKey]*Type, 96),
		byName: make(map[string]*Type, 96),
	}
	tt.Void = tt.intern(&Type{name: "void", kind: TypeVoid})
	tt.Poison = tt.intern(&Type{name: "<POISON>", kind: TypePoison})
	tt.Float = tt.scalar("float", NumberFloat, true, 32)
	tt.Half = tt.scalar("half", NumberFloat, false, 16)
	tt.Int = tt.scalar("int", NumberSigned, true, 32)
	tt.UInt = tt.scalar("uint", NumberUnsigned, true, 32)
	tt.Bool = tt.scalar("bool", NumberBoolean, true, 1)

	vectors := func(s *Type) (a, b, c *Type) {
		return tt.Vector(s, 2), tt.Vector(s, 3), tt.Vector(s, 4)
	}
	tt.Float2, tt.Float3, tt.Float4 = vectors(tt.Float)
	tt.Half2, tt.Half3, tt.Half4 = vectors(tt.Half)
	tt.Int2, tt.Int3, tt.Int4 = vectors(tt.Int)
	tt.UInt2, tt.UInt3, tt.UInt4 = vectors(tt.UInt)
	tt.Bool2, tt.Bool3, tt.Bool4 = vectors(tt.Bool)
	for _, s := range []*Type{tt.Float, tt.Half} {
		for c := 2; c <= 4; c++ {
			for r := 2; r <= 4; r++ {
				tt.Matrix(s, c, r)
			}
		}
	}
	tt.Float2x2 = tt.Matrix(tt.Float, 2, 2)
	tt.Float3x3 = tt.Matrix(tt.Float, 3, 3)
	tt.Float4x4 = tt.Matrix(tt.Float, 4, 4)
	tt.Half2x2 = tt.Matrix(tt.Half, 2, 2)
	tt.Half3x3 = tt.Matrix(tt.Half, 3, 3)
	tt.Half4x4 = tt.Matrix(tt.Half, 4, 4)

	tt.Sampler2D = tt.intern(&Type{name: "sampler2D", kind: TypeSampler})
	tt.Shader = tt.intern(&Type{name: "shader", kind: TypeChild, child: ChildShader})
	tt.ColorFilter = tt.intern(&Type{name: "colorFilter", kind: TypeChild, child: ChildColorFilter})
	tt.Blender = tt.intern(&Type{name: "blender", kind: TypeChild, child: ChildBlender})
	return tt
}

func keyOf(t *Type) typeKey {
	k := typeKey{
		kind:    t.kind,
		number:  t.number,
		high:    t.high,
		columns: t.columns,
		rows:    t.rows,
		length:  t.length,
		child:   t.child,
	}
	if t.component != nil {
		k.component = t.component.id
	}
	switch t.kind {
	case TypeStruct:
		k.name = t.name
		var sb strings.Builder
		for _, f := range t.fields {
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(f.Type.id))
			sb.WriteByte(';')
		}
		k.fields = sb.String()
	case TypeVoid, TypePoison, TypeSampler, TypeChild:
		k.name = t.name
	}
	return k
}

func (tt *TypeTable) intern(t *Type) *Type {
	key := keyOf(t)
	if existing, ok := tt.index[key]; ok {
		return existing
	}
	t.id = len(tt.types)
	if t.kind == TypeScalar || t.kind == TypeVector || t.kind == TypeMatrix {
		if t.columns == 0 {
			t.columns, t.rows = 1, 1
		}
	}
	tt.types = append(tt.types, t)
	tt.index[key] = t
	if _, taken := tt.byName[t.name]; !taken {
		tt.byName[t.name] = t
	}
	return t
}

func (tt *TypeTable) scalar(name string, kind NumberKind, high bool, width int) *Type {
	return tt.intern(&Type{name: name, kind: TypeScalar, number: kind, high: high, width: width, columns: 1, rows: 1})
}

// Lookup returns the type registered under name.
func (tt *TypeTable) Lookup(name string) (*Type, bool) {
	t, ok := tt.byName[name]
	return t, ok
}

// Types returns every interned type in registration order.
func (tt *TypeTable) Types() []*Type { return tt.types }

// Vector returns the n-component vector of scalar s. n == 1 returns s.
func (tt *TypeTable) Vector(s *Type, n int) *Type {
	if !s.IsScalar() {
		internalf(Position{}, "vector of non-scalar type %s", s)
	}
	if n == 1 {
		return s
	}
	if n < 2 || n > 4 {
		internalf(Position{}, "vector of %d components", n)
	}
	return tt.intern(&Type{
		name:      s.name + strconv.Itoa(n),
		kind:      TypeVector,
		columns:   n,
		rows:      1,
		component: s,
	})
}

// Matrix returns the matrix of scalar s with the given columns and rows.
func (tt *TypeTable) Matrix(s *Type, columns, rows int) *Type {
	if !s.IsFloat() {
		internalf(Position{}, "matrix of non-float type %s", s)
	}
	if columns < 2 || columns > 4 || rows < 2 || rows > 4 {
		internalf(Position{}, "matrix of %dx%d", columns, rows)
	}
	return tt.intern(&Type{
		name:      fmt.Sprintf("%s%dx%d", s.name, columns, rows),
		kind:      TypeMatrix,
		columns:   columns,
		rows:      rows,
		component: s,
	})
}

// Array returns the array of length elements of elem.
func (tt *TypeTable) Array(elem *Type, length int) *Type {
	if length <= 0 {
		internalf(Position{}, "array of length %d", length)
	}
	return tt.intern(&Type{
		name:      fmt.Sprintf("%s[%d]", elem.name, length),
		kind:      TypeArray,
		component: elem,
		length:    length,
	})
}

// Struct returns the struct with the given name and fields. Fields with
// zero modifiers get DefaultModifiers, so their layout values are unset.
func (tt *TypeTable) Struct(name string, fields []Field) *Type {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	for i := range fs {
		if fs[i].Modifiers == (Modifiers{}) {
			fs[i].Modifiers = DefaultModifiers()
		}
	}
	return tt.intern(&Type{name: name, kind: TypeStruct, fields: fs})
}

// ToCompound returns the scalar, vector or matrix of t's component type
// with the given dimensions.
func (tt *TypeTable) ToCompound(t *Type, columns, rows int) *Type {
	s := t.ComponentType()
	switch {
	case columns == 1 && rows == 1:
		return s
	case rows == 1:
		return tt.Vector(s, columns)
	default:
		return tt.Matrix(s, columns, rows)
	}
}

// WithComponent returns t's shape built from scalar s.
func (tt *TypeTable) WithComponent(t, s *Type) *Type {
	switch t.kind {
	case TypeScalar:
		return s
	case TypeVector:
		return tt.Vector(s, t.columns)
	case TypeMatrix:
		return tt.Matrix(s, t.columns, t.rows)
	case TypeArray:
		return tt.Array(tt.WithComponent(t.component, s), t.length)
	}
	return t
}
