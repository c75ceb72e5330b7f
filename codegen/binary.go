package codegen

import (
	"math"

	"github.com/gogpu/shade/ir"
)

// OpTable resolves one operator to a target opcode per operand number
// kind. The zero O marks a kind the operator does not support.
type OpTable[O comparable] struct {
	Float    O
	Signed   O
	Unsigned O
	Boolean  O
}

// For returns the opcode for operands of type t.
func (t OpTable[O]) For(typ *ir.Type) (O, bool) {
	var op O
	switch typ.NumberKind() {
	case ir.NumberFloat:
		op = t.Float
	case ir.NumberSigned:
		op = t.Signed
	case ir.NumberUnsigned:
		op = t.Unsigned
	case ir.NumberBoolean:
		op = t.Boolean
	}
	var zero O
	return op, op != zero
}

// Uniform returns a table with the same opcode for every numeric kind and
// none for booleans.
func Uniform[O comparable](op O) OpTable[O] {
	return OpTable[O]{Float: op, Signed: op, Unsigned: op}
}

// Integer returns a table defined only for signed and unsigned operands.
func Integer[O comparable](op O) OpTable[O] {
	return OpTable[O]{Signed: op, Unsigned: op}
}

// BinaryShape selects the lowering path for a binary operator.
type BinaryShape uint8

const (
	// ShapeComponentwise applies the table opcode to operands of one
	// shape.
	ShapeComponentwise BinaryShape = iota
	// ShapeVectorScalar has one vector and one scalar operand; the scalar
	// is splatted before the table opcode applies.
	ShapeVectorScalar
	ShapeMatrixScalar
	ShapeMatrixTimesMatrix
	ShapeMatrixTimesVector
	ShapeVectorTimesMatrix
	// ShapeMatrixComponentwise applies the table opcode column by column.
	ShapeMatrixComponentwise
	// ShapeCompositeEquality compares vectors, matrices, structs or arrays
	// and reduces to one bool.
	ShapeCompositeEquality
	ShapeLogical
	ShapeComma
)

var shapeNames = [...]string{
	ShapeComponentwise:       "componentwise",
	ShapeVectorScalar:        "vector-scalar",
	ShapeMatrixScalar:        "matrix-scalar",
	ShapeMatrixTimesMatrix:   "matrix*matrix",
	ShapeMatrixTimesVector:   "matrix*vector",
	ShapeVectorTimesMatrix:   "vector*matrix",
	ShapeMatrixComponentwise: "matrix-componentwise",
	ShapeCompositeEquality:   "composite-equality",
	ShapeLogical:             "logical",
	ShapeComma:               "comma",
}

func (s BinaryShape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// BinaryPlan describes how to lower one binary expression.
type BinaryPlan struct {
	Shape BinaryShape

	// Op is the operator with any assignment removed. For plain
	// assignment Op is ir.OpAssign.
	Op ir.Operator

	// Assign is set for = and compound assignments.
	Assign bool

	// ScalarOnLeft is set for vector-scalar and matrix-scalar shapes when
	// the scalar is the left operand.
	ScalarOnLeft bool

	// Operand is the operand type the opcode table is consulted with: the
	// non-scalar side for broadcasts, the left side otherwise.
	Operand *ir.Type
}

// ClassifyBinary returns the lowering plan for left op right.
func ClassifyBinary(left *ir.Type, op ir.Operator, right *ir.Type) BinaryPlan {
	plan := BinaryPlan{Op: op, Operand: left}
	if op.IsCompoundAssignment() {
		plan.Assign = true
		plan.Op = op.RemoveAssignment()
	}
	switch {
	case op == ir.OpAssign:
		plan.Assign = true
		return plan
	case op == ir.OpComma:
		plan.Shape = ShapeComma
		return plan
	case plan.Op.IsLogical():
		plan.Shape = ShapeLogical
		return plan
	case plan.Op.IsEquality():
		if !left.IsScalar() {
			plan.Shape = ShapeCompositeEquality
		}
		return plan
	}

	switch {
	case left.IsMatrix() && right.IsMatrix():
		if plan.Op == ir.OpStar {
			plan.Shape = ShapeMatrixTimesMatrix
		} else {
			plan.Shape = ShapeMatrixComponentwise
		}
	case left.IsMatrix() && right.IsVector():
		plan.Shape = ShapeMatrixTimesVector
	case left.IsVector() && right.IsMatrix():
		plan.Shape = ShapeVectorTimesMatrix
	case left.IsMatrix() && right.IsScalar():
		plan.Shape = ShapeMatrixScalar
	case left.IsScalar() && right.IsMatrix():
		plan.Shape = ShapeMatrixScalar
		plan.ScalarOnLeft = true
		plan.Operand = right
	case left.IsVector() && right.IsScalar():
		plan.Shape = ShapeVectorScalar
	case left.IsScalar() && right.IsVector():
		plan.Shape = ShapeVectorScalar
		plan.ScalarOnLeft = true
		plan.Operand = right
	}
	return plan
}

// ReciprocalDivisor reports whether e is a float division by a non-zero
// literal and returns 1/k. Backends lower such divisions as a multiply.
func ReciprocalDivisor(e *ir.BinaryExpression) (float64, bool) {
	if e.Op != ir.OpSlash && e.Op != ir.OpSlashEq {
		return 0, false
	}
	if !e.Left.Type().IsFloat() || !e.Right.Type().IsScalar() || e.Left.Type().IsMatrix() {
		return 0, false
	}
	if _, ok := e.Right.(*ir.Literal); !ok {
		return 0, false
	}
	k, ok := ir.GetConstantValue(e.Right)
	if !ok || k == 0 {
		return 0, false
	}
	r := 1 / k
	if math.IsInf(r, 0) || math.IsNaN(r) || r == 0 {
		return 0, false
	}
	return r, true
}
