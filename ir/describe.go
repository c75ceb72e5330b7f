package ir

import (
	"strconv"
	"strings"
)

var swizzleLetters = [4]byte{'x', 'y', 'z', 'w'}

// FormatLiteral renders a literal value of scalar type t. Integral float
// values keep a trailing ".0".
func FormatLiteral(v float64, t *Type) string {
	switch t.NumberKind() {
	case NumberBoolean:
		if v != 0 {
			return "true"
		}
		return "false"
	case NumberSigned:
		return strconv.FormatInt(int64(v), 10)
	case NumberUnsigned:
		return strconv.FormatUint(uint64(v), 10) + "u"
	}
	s := strconv.FormatFloat(v, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Description renders e as source-like text, for diagnostics and tests.
func Description(e Expression) string {
	var b strings.Builder
	describe(&b, e, PrecedenceTopLevel)
	return b.String()
}

func describe(b *strings.Builder, e Expression, parent Precedence) {
	args := func(name string, es []Expression) {
		b.WriteString(name)
		b.WriteByte('(')
		for i, a := range es {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, a, PrecedenceSequence)
		}
		b.WriteByte(')')
	}
	switch e := e.(type) {
	case *Literal:
		b.WriteString(FormatLiteral(e.Value, e.typ))
	case *VariableReference:
		b.WriteString(e.Variable.Name)
	case *ConstructorSplat, *ConstructorDiagonalMatrix, *ConstructorMatrixResize,
		*ConstructorCompound, *ConstructorCompoundCast, *ConstructorScalarCast,
		*ConstructorArray, *ConstructorArrayCast, *ConstructorStruct:
		args(e.Type().String(), e.(Constructor).Arguments())
	case *FieldAccess:
		if !e.Anonymous {
			describe(b, e.Base, PrecedencePostfix)
			b.WriteByte('.')
		}
		b.WriteString(e.Field().Name)
	case *IndexExpression:
		describe(b, e.Base, PrecedencePostfix)
		b.WriteByte('[')
		describe(b, e.Index, PrecedenceTopLevel)
		b.WriteByte(']')
	case *Swizzle:
		describe(b, e.Base, PrecedencePostfix)
		b.WriteByte('.')
		for _, c := range e.Components {
			b.WriteByte(swizzleLetters[c])
		}
	case *BinaryExpression:
		p := e.Op.Precedence()
		if p >= parent {
			b.WriteByte('(')
		}
		describe(b, e.Left, p)
		if e.Op != OpComma {
			b.WriteByte(' ')
		}
		b.WriteString(e.Op.String())
		b.WriteByte(' ')
		describe(b, e.Right, p)
		if p >= parent {
			b.WriteByte(')')
		}
	case *PrefixExpression:
		if PrecedencePrefix >= parent {
			b.WriteByte('(')
		}
		b.WriteString(e.Op.String())
		describe(b, e.Operand, PrecedencePrefix)
		if PrecedencePrefix >= parent {
			b.WriteByte(')')
		}
	case *PostfixExpression:
		describe(b, e.Operand, PrecedencePostfix)
		b.WriteString(e.Op.String())
	case *TernaryExpression:
		if PrecedenceTernary >= parent {
			b.WriteByte('(')
		}
		describe(b, e.Test, PrecedenceTernary)
		b.WriteString(" ? ")
		describe(b, e.IfTrue, PrecedenceTernary)
		b.WriteString(" : ")
		describe(b, e.IfFalse, PrecedenceTernary)
		if PrecedenceTernary >= parent {
			b.WriteByte(')')
		}
	case *FunctionCall:
		args(e.Function.Name, e.Args)
	case *ChildCall:
		args(e.Child.Name+".eval", e.Args)
	case *Poison:
		b.WriteString("<POISON>")
	}
}
