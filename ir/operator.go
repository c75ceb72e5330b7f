package ir

// Operator is a unary, binary or assignment operator.
type Operator uint8

const (
	OpPlus Operator = iota
	OpMinus
	OpStar
	OpSlash
	OpPercent
	OpShl
	OpShr
	OpLogicalNot
	OpLogicalAnd
	OpLogicalOr
	OpLogicalXor
	OpBitwiseNot
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpAssign
	OpPlusEq
	OpMinusEq
	OpStarEq
	OpSlashEq
	OpPercentEq
	OpShlEq
	OpShrEq
	OpBitwiseAndEq
	OpBitwiseOrEq
	OpBitwiseXorEq
	OpPlusPlus
	OpMinusMinus
	OpComma
)

var operatorText = [...]string{
	OpPlus:         "+",
	OpMinus:        "-",
	OpStar:         "*",
	OpSlash:        "/",
	OpPercent:      "%",
	OpShl:          "<<",
	OpShr:          ">>",
	OpLogicalNot:   "!",
	OpLogicalAnd:   "&&",
	OpLogicalOr:    "||",
	OpLogicalXor:   "^^",
	OpBitwiseNot:   "~",
	OpBitwiseAnd:   "&",
	OpBitwiseOr:    "|",
	OpBitwiseXor:   "^",
	OpEq:           "==",
	OpNeq:          "!=",
	OpLt:           "<",
	OpGt:           ">",
	OpLtEq:         "<=",
	OpGtEq:         ">=",
	OpAssign:       "=",
	OpPlusEq:       "+=",
	OpMinusEq:      "-=",
	OpStarEq:       "*=",
	OpSlashEq:      "/=",
	OpPercentEq:    "%=",
	OpShlEq:        "<<=",
	OpShrEq:        ">>=",
	OpBitwiseAndEq: "&=",
	OpBitwiseOrEq:  "|=",
	OpBitwiseXorEq: "^=",
	OpPlusPlus:     "++",
	OpMinusMinus:   "--",
	OpComma:        ",",
}

func (op Operator) String() string {
	if int(op) < len(operatorText) {
		return operatorText[op]
	}
	return "?"
}

// LookupOperator returns the operator spelled s.
func LookupOperator(s string) (Operator, bool) {
	for i, text := range operatorText {
		if text == s {
			return Operator(i), true
		}
	}
	return 0, false
}

// Precedence orders operators for textual emission; lower binds tighter.
type Precedence uint8

const (
	PrecedenceParentheses Precedence = iota + 1
	PrecedencePostfix
	PrecedencePrefix
	PrecedenceMultiplicative
	PrecedenceAdditive
	PrecedenceShift
	PrecedenceRelational
	PrecedenceEquality
	PrecedenceBitwiseAnd
	PrecedenceBitwiseXor
	PrecedenceBitwiseOr
	PrecedenceLogicalAnd
	PrecedenceLogicalXor
	PrecedenceLogicalOr
	PrecedenceTernary
	PrecedenceAssignment
	PrecedenceSequence
	PrecedenceTopLevel = PrecedenceSequence
)

// Precedence returns the binding strength of op as a binary operator.
func (op Operator) Precedence() Precedence {
	switch op {
	case OpStar, OpSlash, OpPercent:
		return PrecedenceMultiplicative
	case OpPlus, OpMinus:
		return PrecedenceAdditive
	case OpShl, OpShr:
		return PrecedenceShift
	case OpLt, OpGt, OpLtEq, OpGtEq:
		return PrecedenceRelational
	case OpEq, OpNeq:
		return PrecedenceEquality
	case OpBitwiseAnd:
		return PrecedenceBitwiseAnd
	case OpBitwiseXor:
		return PrecedenceBitwiseXor
	case OpBitwiseOr:
		return PrecedenceBitwiseOr
	case OpLogicalAnd:
		return PrecedenceLogicalAnd
	case OpLogicalXor:
		return PrecedenceLogicalXor
	case OpLogicalOr:
		return PrecedenceLogicalOr
	case OpComma:
		return PrecedenceSequence
	case OpLogicalNot, OpBitwiseNot, OpPlusPlus, OpMinusMinus:
		return PrecedencePrefix
	default:
		if op.IsAssignment() {
			return PrecedenceAssignment
		}
	}
	return PrecedenceTopLevel
}

// IsAssignment reports = and the compound assignments.
func (op Operator) IsAssignment() bool {
	return op >= OpAssign && op <= OpBitwiseXorEq
}

// IsCompoundAssignment reports the op= forms.
func (op Operator) IsCompoundAssignment() bool {
	return op > OpAssign && op <= OpBitwiseXorEq
}

// RemoveAssignment maps op= to op; other operators map to themselves.
func (op Operator) RemoveAssignment() Operator {
	switch op {
	case OpPlusEq:
		return OpPlus
	case OpMinusEq:
		return OpMinus
	case OpStarEq:
		return OpStar
	case OpSlashEq:
		return OpSlash
	case OpPercentEq:
		return OpPercent
	case OpShlEq:
		return OpShl
	case OpShrEq:
		return OpShr
	case OpBitwiseAndEq:
		return OpBitwiseAnd
	case OpBitwiseOrEq:
		return OpBitwiseOr
	case OpBitwiseXorEq:
		return OpBitwiseXor
	}
	return op
}

// IsEquality reports == and !=.
func (op Operator) IsEquality() bool { return op == OpEq || op == OpNeq }

// IsRelational reports <, >, <= and >=.
func (op Operator) IsRelational() bool { return op >= OpLt && op <= OpGtEq }

// IsComparison reports equality and relational operators.
func (op Operator) IsComparison() bool { return op.IsEquality() || op.IsRelational() }

// IsLogical reports &&, || and ^^.
func (op Operator) IsLogical() bool {
	return op == OpLogicalAnd || op == OpLogicalOr || op == OpLogicalXor
}

// IsArithmetic reports + - * / %.
func (op Operator) IsArithmetic() bool { return op <= OpPercent }

// IsBitwise reports & | ^ and the shifts.
func (op Operator) IsBitwise() bool {
	switch op {
	case OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor, OpShl, OpShr:
		return true
	}
	return false
}

// IsOnlyValidForIntegers reports operators that reject float operands.
func (op Operator) IsOnlyValidForIntegers() bool {
	return op == OpPercent || op.IsBitwise()
}

// DetermineBinaryType returns the result type of left op right, or false
// when the operand types are not accepted by op. Operands are expected to
// be already coerced; only vector/scalar and matrix mixes are resolved.
func DetermineBinaryType(tt *TypeTable, left *Type, op Operator, right *Type) (*Type, bool) {
	switch {
	case op == OpComma:
		return right, true
	case op == OpAssign:
		if left.MatchesAsLiteral(right) {
			return left, true
		}
		return nil, false
	case op.IsCompoundAssignment():
		result, ok := DetermineBinaryType(tt, left, op.RemoveAssignment(), right)
		if !ok || !result.MatchesAsLiteral(left) {
			return nil, false
		}
		return left, true
	case op.IsEquality():
		if left.MatchesAsLiteral(right) && !left.IsVoid() && !left.IsChild() && !left.IsSampler() {
			return tt.Bool, true
		}
		return nil, false
	case op.IsLogical():
		if left == tt.Bool && right == tt.Bool {
			return tt.Bool, true
		}
		return nil, false
	case op.IsRelational():
		if left.IsScalar() && left.IsNumber() && left.MatchesAsLiteral(right) {
			return tt.Bool, true
		}
		return nil, false
	}

	if !left.IsNumber() || !right.IsNumber() {
		return nil, false
	}
	if left.NumberKind() != right.NumberKind() {
		return nil, false
	}
	if op.IsOnlyValidForIntegers() && !left.IsInteger() {
		return nil, false
	}
	wider := func(a, b *Type) *Type {
		if a.HighPrecision() || !b.HighPrecision() {
			return a
		}
		return tt.WithComponent(a, b.ComponentType())
	}
	if op == OpShl || op == OpShr {
		if left.IsMatrix() || right.IsMatrix() {
			return nil, false
		}
		if right.IsScalar() || left.SameShape(right) {
			return left, true
		}
		return nil, false
	}
	switch {
	case left.SameShape(right) && !left.IsMatrix():
		return wider(left, right), true
	case left.IsMatrix() && right.IsMatrix():
		if op == OpStar {
			if left.Columns() != right.Rows() {
				return nil, false
			}
			return tt.Matrix(wider(left, right).ComponentType(), right.Columns(), left.Rows()), true
		}
		if left.SameShape(right) {
			return wider(left, right), true
		}
		return nil, false
	case left.IsMatrix() && right.IsVector():
		if op != OpStar || left.Columns() != right.Columns() {
			return nil, false
		}
		return tt.Vector(wider(left, right).ComponentType(), left.Rows()), true
	case left.IsVector() && right.IsMatrix():
		if op != OpStar || left.Columns() != right.Rows() {
			return nil, false
		}
		return tt.Vector(wider(left, right).ComponentType(), right.Columns()), true
	case right.IsScalar():
		return wider(left, right), true
	case left.IsScalar():
		return wider(right, left), true
	}
	return nil, false
}
