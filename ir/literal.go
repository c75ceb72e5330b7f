package ir

import (
	"math"

	"fortio.org/safecast"
)

// ConvertScalarValue converts a constant between scalar types. Float to
// integer truncates toward zero; any non-zero value converts to true.
func ConvertScalarValue(v float64, from, to *Type) float64 {
	switch to.NumberKind() {
	case NumberBoolean:
		if v != 0 {
			return 1
		}
		return 0
	case NumberSigned, NumberUnsigned:
		if from.IsFloat() {
			return math.Trunc(v)
		}
	}
	return v
}

// LiteralInRange reports whether v is representable by scalar type t.
func LiteralInRange(v float64, t *Type) bool {
	var err error
	switch t.NumberKind() {
	case NumberSigned:
		_, err = safecast.Truncate[int32](v)
	case NumberUnsigned:
		_, err = safecast.Truncate[uint32](v)
	case NumberFloat:
		if !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
			return false
		}
	}
	return err == nil
}

// wrapInteger reduces an integer result to the 32-bit range of t.
func wrapInteger(v float64, t *Type) float64 {
	switch t.NumberKind() {
	case NumberSigned:
		return float64(int32(int64(v)))
	case NumberUnsigned:
		return float64(uint32(int64(v)))
	}
	return v
}

// MakeLiteral creates a scalar literal of type t.
func MakeLiteral(ctx *Context, pos Position, v float64, t *Type) Expression {
	if !t.IsScalar() {
		internalf(pos, "literal of non-scalar type %s", t)
	}
	if t.IsInteger() && !LiteralInRange(v, t) {
		ctx.Errors.Errorf(pos, "integer is out of range for type '%s': %v", t, v)
		return MakePoison(ctx, pos, t)
	}
	if t.IsBoolean() && v != 0 {
		v = 1
	}
	return track(ctx, &Literal{node: node{pos: pos}, typ: t, Value: v})
}

// MakeFloatLiteral creates a float literal of type t (float or half).
func MakeFloatLiteral(ctx *Context, pos Position, v float64, t *Type) Expression {
	return MakeLiteral(ctx, pos, v, t)
}

// MakeIntLiteral creates an integer literal of type t.
func MakeIntLiteral(ctx *Context, pos Position, v int64, t *Type) Expression {
	return MakeLiteral(ctx, pos, float64(v), t)
}

// MakeBoolLiteral creates a bool literal.
func MakeBoolLiteral(ctx *Context, pos Position, v bool) Expression {
	f := 0.0
	if v {
		f = 1
	}
	return MakeLiteral(ctx, pos, f, ctx.Types.Bool)
}

// MakePoison creates an error placeholder of type t.
func MakePoison(ctx *Context, pos Position, t *Type) Expression {
	if t == nil {
		t = ctx.Types.Poison
	}
	return track(ctx, &Poison{node: node{pos: pos}, typ: t})
}

// MakeVariableReference creates a reference to v.
func MakeVariableReference(ctx *Context, pos Position, v *Variable, ref RefKind) Expression {
	return track(ctx, &VariableReference{node: node{pos: pos}, Variable: v, Ref: ref})
}
