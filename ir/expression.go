package ir

// ExpressionKind identifies the concrete type of an Expression.
type ExpressionKind uint8

const (
	ExprLiteral ExpressionKind = iota
	ExprVariableReference
	ExprConstructorSplat
	ExprConstructorDiagonalMatrix
	ExprConstructorMatrixResize
	ExprConstructorCompound
	ExprConstructorCompoundCast
	ExprConstructorScalarCast
	ExprConstructorArray
	ExprConstructorArrayCast
	ExprConstructorStruct
	ExprFieldAccess
	ExprIndex
	ExprSwizzle
	ExprBinary
	ExprPrefix
	ExprPostfix
	ExprTernary
	ExprFunctionCall
	ExprChildCall
	ExprPoison
)

// Expression is a typed value-producing node. The set of implementations
// is closed; see ExpressionVisitor.
type Expression interface {
	Node
	Type() *Type
	Kind() ExpressionKind
}

// Constructor is implemented by every constructor expression.
type Constructor interface {
	Expression
	Arguments() []Expression
}

// Literal is a scalar constant. Integer and boolean literals hold their
// value as a float64 (booleans as 0 or 1).
type Literal struct {
	node
	typ   *Type
	Value float64
}

// RefKind describes how a variable reference uses its variable.
type RefKind uint8

const (
	RefRead RefKind = iota
	RefWrite
	RefReadWrite
	RefPointer
)

// VariableReference reads or writes a variable.
type VariableReference struct {
	node
	Variable *Variable
	Ref      RefKind
}

// ConstructorSplat fills every component of a vector with one scalar.
type ConstructorSplat struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorDiagonalMatrix places a scalar on the diagonal of a matrix
// with zeros elsewhere.
type ConstructorDiagonalMatrix struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorMatrixResize converts a matrix to another size. Components
// outside the source are taken from the identity matrix.
type ConstructorMatrixResize struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorCompound builds a vector or matrix from scalars and vectors.
type ConstructorCompound struct {
	node
	typ  *Type
	Args []Expression
}

// ConstructorCompoundCast converts a vector or matrix to another component
// type of the same shape.
type ConstructorCompoundCast struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorScalarCast converts a scalar to another scalar type.
type ConstructorScalarCast struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorArray builds an array from its elements.
type ConstructorArray struct {
	node
	typ  *Type
	Args []Expression
}

// ConstructorArrayCast converts an array to an array differing only in
// element precision.
type ConstructorArrayCast struct {
	node
	typ *Type
	Arg Expression
}

// ConstructorStruct builds a struct from its fields.
type ConstructorStruct struct {
	node
	typ  *Type
	Args []Expression
}

// FieldAccess selects a struct member. Anonymous marks members of an
// interface block without an instance name.
type FieldAccess struct {
	node
	Base      Expression
	Index     int
	Anonymous bool
}

// IndexExpression indexes an array, vector or matrix.
type IndexExpression struct {
	node
	typ   *Type
	Base  Expression
	Index Expression
}

// Swizzle selects and reorders vector components. Components are in 0..3.
type Swizzle struct {
	node
	typ        *Type
	Base       Expression
	Components []int8
}

// BinaryExpression applies a binary or assignment operator.
type BinaryExpression struct {
	node
	typ   *Type
	Left  Expression
	Op    Operator
	Right Expression
}

// PrefixExpression applies a prefix operator.
type PrefixExpression struct {
	node
	Op      Operator
	Operand Expression
}

// PostfixExpression applies ++ or -- after reading the operand.
type PostfixExpression struct {
	node
	Operand Expression
	Op      Operator
}

// TernaryExpression selects between two values.
type TernaryExpression struct {
	node
	Test    Expression
	IfTrue  Expression
	IfFalse Expression
}

// FunctionCall calls a user function or an intrinsic.
type FunctionCall struct {
	node
	typ      *Type
	Function *FunctionDeclaration
	Args     []Expression
}

// ChildCall samples a child shader, color filter or blender.
type ChildCall struct {
	node
	typ   *Type
	Child *Variable
	Args  []Expression
}

// Poison stands in for an expression that failed to build. An error has
// already been reported.
type Poison struct {
	node
	typ *Type
}

func (e *Literal) Type() *Type                   { return e.typ }
func (e *VariableReference) Type() *Type         { return e.Variable.Type() }
func (e *ConstructorSplat) Type() *Type          { return e.typ }
func (e *ConstructorDiagonalMatrix) Type() *Type { return e.typ }
func (e *ConstructorMatrixResize) Type() *Type   { return e.typ }
func (e *ConstructorCompound) Type() *Type       { return e.typ }
func (e *ConstructorCompoundCast) Type() *Type   { return e.typ }
func (e *ConstructorScalarCast) Type() *Type     { return e.typ }
func (e *ConstructorArray) Type() *Type          { return e.typ }
func (e *ConstructorArrayCast) Type() *Type      { return e.typ }
func (e *ConstructorStruct) Type() *Type         { return e.typ }
func (e *FieldAccess) Type() *Type               { return e.Field().Type }
func (e *IndexExpression) Type() *Type           { return e.typ }
func (e *Swizzle) Type() *Type                   { return e.typ }
func (e *BinaryExpression) Type() *Type          { return e.typ }
func (e *PrefixExpression) Type() *Type          { return e.Operand.Type() }
func (e *PostfixExpression) Type() *Type         { return e.Operand.Type() }
func (e *TernaryExpression) Type() *Type         { return e.IfTrue.Type() }
func (e *FunctionCall) Type() *Type              { return e.typ }
func (e *ChildCall) Type() *Type                 { return e.typ }
func (e *Poison) Type() *Type                    { return e.typ }

func (*Literal) Kind() ExpressionKind                   { return ExprLiteral }
func (*VariableReference) Kind() ExpressionKind         { return ExprVariableReference }
func (*ConstructorSplat) Kind() ExpressionKind          { return ExprConstructorSplat }
func (*ConstructorDiagonalMatrix) Kind() ExpressionKind { return ExprConstructorDiagonalMatrix }
func (*ConstructorMatrixResize) Kind() ExpressionKind   { return ExprConstructorMatrixResize }
func (*ConstructorCompound) Kind() ExpressionKind       { return ExprConstructorCompound }
func (*ConstructorCompoundCast) Kind() ExpressionKind   { return ExprConstructorCompoundCast }
func (*ConstructorScalarCast) Kind() ExpressionKind     { return ExprConstructorScalarCast }
func (*ConstructorArray) Kind() ExpressionKind          { return ExprConstructorArray }
func (*ConstructorArrayCast) Kind() ExpressionKind      { return ExprConstructorArrayCast }
func (*ConstructorStruct) Kind() ExpressionKind         { return ExprConstructorStruct }
func (*FieldAccess) Kind() ExpressionKind               { return ExprFieldAccess }
func (*IndexExpression) Kind() ExpressionKind           { return ExprIndex }
func (*Swizzle) Kind() ExpressionKind                   { return ExprSwizzle }
func (*BinaryExpression) Kind() ExpressionKind          { return ExprBinary }
func (*PrefixExpression) Kind() ExpressionKind          { return ExprPrefix }
func (*PostfixExpression) Kind() ExpressionKind         { return ExprPostfix }
func (*TernaryExpression) Kind() ExpressionKind         { return ExprTernary }
func (*FunctionCall) Kind() ExpressionKind              { return ExprFunctionCall }
func (*ChildCall) Kind() ExpressionKind                 { return ExprChildCall }
func (*Poison) Kind() ExpressionKind                    { return ExprPoison }

func (e *ConstructorSplat) Arguments() []Expression          { return []Expression{e.Arg} }
func (e *ConstructorDiagonalMatrix) Arguments() []Expression { return []Expression{e.Arg} }
func (e *ConstructorMatrixResize) Arguments() []Expression   { return []Expression{e.Arg} }
func (e *ConstructorCompound) Arguments() []Expression       { return e.Args }
func (e *ConstructorCompoundCast) Arguments() []Expression   { return []Expression{e.Arg} }
func (e *ConstructorScalarCast) Arguments() []Expression     { return []Expression{e.Arg} }
func (e *ConstructorArray) Arguments() []Expression          { return e.Args }
func (e *ConstructorArrayCast) Arguments() []Expression      { return []Expression{e.Arg} }
func (e *ConstructorStruct) Arguments() []Expression         { return e.Args }

// Field returns the selected struct member.
func (e *FieldAccess) Field() Field { return e.Base.Type().Fields()[e.Index] }

// BoolValue returns a boolean literal's value.
func (e *Literal) BoolValue() bool { return e.Value != 0 }

// IntValue returns an integer literal's value.
func (e *Literal) IntValue() int64 { return int64(e.Value) }

// ExpressionVisitor handles every expression kind. Implementations are
// dispatched through VisitExpression.
type ExpressionVisitor[R any] interface {
	VisitLiteral(*Literal) R
	VisitVariableReference(*VariableReference) R
	VisitConstructorSplat(*ConstructorSplat) R
	VisitConstructorDiagonalMatrix(*ConstructorDiagonalMatrix) R
	VisitConstructorMatrixResize(*ConstructorMatrixResize) R
	VisitConstructorCompound(*ConstructorCompound) R
	VisitConstructorCompoundCast(*ConstructorCompoundCast) R
	VisitConstructorScalarCast(*ConstructorScalarCast) R
	VisitConstructorArray(*ConstructorArray) R
	VisitConstructorArrayCast(*ConstructorArrayCast) R
	VisitConstructorStruct(*ConstructorStruct) R
	VisitFieldAccess(*FieldAccess) R
	VisitIndex(*IndexExpression) R
	VisitSwizzle(*Swizzle) R
	VisitBinary(*BinaryExpression) R
	VisitPrefix(*PrefixExpression) R
	VisitPostfix(*PostfixExpression) R
	VisitTernary(*TernaryExpression) R
	VisitFunctionCall(*FunctionCall) R
	VisitChildCall(*ChildCall) R
	VisitPoison(*Poison) R
}

// VisitExpression dispatches e to the matching visitor method.
func VisitExpression[R any](e Expression, v ExpressionVisitor[R]) R {
	switch e := e.(type) {
	case *Literal:
		return v.VisitLiteral(e)
	case *VariableReference:
		return v.VisitVariableReference(e)
	case *ConstructorSplat:
		return v.VisitConstructorSplat(e)
	case *ConstructorDiagonalMatrix:
		return v.VisitConstructorDiagonalMatrix(e)
	case *ConstructorMatrixResize:
		return v.VisitConstructorMatrixResize(e)
	case *ConstructorCompound:
		return v.VisitConstructorCompound(e)
	case *ConstructorCompoundCast:
		return v.VisitConstructorCompoundCast(e)
	case *ConstructorScalarCast:
		return v.VisitConstructorScalarCast(e)
	case *ConstructorArray:
		return v.VisitConstructorArray(e)
	case *ConstructorArrayCast:
		return v.VisitConstructorArrayCast(e)
	case *ConstructorStruct:
		return v.VisitConstructorStruct(e)
	case *FieldAccess:
		return v.VisitFieldAccess(e)
	case *IndexExpression:
		return v.VisitIndex(e)
	case *Swizzle:
		return v.VisitSwizzle(e)
	case *BinaryExpression:
		return v.VisitBinary(e)
	case *PrefixExpression:
		return v.VisitPrefix(e)
	case *PostfixExpression:
		return v.VisitPostfix(e)
	case *TernaryExpression:
		return v.VisitTernary(e)
	case *FunctionCall:
		return v.VisitFunctionCall(e)
	case *ChildCall:
		return v.VisitChildCall(e)
	case *Poison:
		return v.VisitPoison(e)
	}
	internalf(e.Position(), "unhandled expression %T", e)
	panic("unreachable")
}
