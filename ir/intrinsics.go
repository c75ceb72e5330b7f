package ir

import "math"

// IntrinsicKind identifies a builtin function. The set is closed; backends
// switch over it exhaustively.
type IntrinsicKind uint8

const (
	IntrinsicNone IntrinsicKind = iota

	// Angle and trigonometry.
	IntrinsicRadians
	IntrinsicDegrees
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicAsin
	IntrinsicAcos
	IntrinsicAtan
	IntrinsicSinh
	IntrinsicCosh
	IntrinsicTanh
	IntrinsicAsinh
	IntrinsicAcosh
	IntrinsicAtanh

	// Exponential.
	IntrinsicPow
	IntrinsicExp
	IntrinsicLog
	IntrinsicExp2
	IntrinsicLog2
	IntrinsicSqrt
	IntrinsicInverseSqrt

	// Common.
	IntrinsicAbs
	IntrinsicSign
	IntrinsicFloor
	IntrinsicTrunc
	IntrinsicRound
	IntrinsicRoundEven
	IntrinsicCeil
	IntrinsicFract
	IntrinsicMod
	IntrinsicMin
	IntrinsicMax
	IntrinsicClamp
	IntrinsicSaturate
	IntrinsicMix
	IntrinsicStep
	IntrinsicSmoothstep
	IntrinsicIsInf
	IntrinsicIsNan
	IntrinsicFloatBitsToInt
	IntrinsicFloatBitsToUint
	IntrinsicIntBitsToFloat
	IntrinsicUintBitsToFloat

	// Geometric.
	IntrinsicLength
	IntrinsicDistance
	IntrinsicDot
	IntrinsicCross
	IntrinsicNormalize
	IntrinsicFaceforward
	IntrinsicReflect
	IntrinsicRefract

	// Matrix.
	IntrinsicMatrixCompMult
	IntrinsicOuterProduct
	IntrinsicTranspose
	IntrinsicDeterminant
	IntrinsicInverse

	// Vector relational.
	IntrinsicLessThan
	IntrinsicLessThanEqual
	IntrinsicGreaterThan
	IntrinsicGreaterThanEqual
	IntrinsicEqual
	IntrinsicNotEqual
	IntrinsicAny
	IntrinsicAll
	IntrinsicNot

	// Bit manipulation.
	IntrinsicBitCount
	IntrinsicFindLSB
	IntrinsicFindMSB

	// Derivatives.
	IntrinsicDFdx
	IntrinsicDFdy
	IntrinsicFwidth

	// Sampling.
	IntrinsicSample

	intrinsicCount
)

type intrinsicInfo struct {
	name    string
	minArgs int
	maxArgs int
}

var intrinsicTable = [intrinsicCount]intrinsicInfo{
	IntrinsicNone:             {"", 0, 0},
	IntrinsicRadians:          {"radians", 1, 1},
	IntrinsicDegrees:          {"degrees", 1, 1},
	IntrinsicSin:              {"sin", 1, 1},
	IntrinsicCos:              {"cos", 1, 1},
	IntrinsicTan:              {"tan", 1, 1},
	IntrinsicAsin:             {"asin", 1, 1},
	IntrinsicAcos:             {"acos", 1, 1},
	IntrinsicAtan:             {"atan", 1, 2},
	IntrinsicSinh:             {"sinh", 1, 1},
	IntrinsicCosh:             {"cosh", 1, 1},
	IntrinsicTanh:             {"tanh", 1, 1},
	IntrinsicAsinh:            {"asinh", 1, 1},
	IntrinsicAcosh:            {"acosh", 1, 1},
	IntrinsicAtanh:            {"atanh", 1, 1},
	IntrinsicPow:              {"pow", 2, 2},
	IntrinsicExp:              {"exp", 1, 1},
	IntrinsicLog:              {"log", 1, 1},
	IntrinsicExp2:             {"exp2", 1, 1},
	IntrinsicLog2:             {"log2", 1, 1},
	IntrinsicSqrt:             {"sqrt", 1, 1},
	IntrinsicInverseSqrt:      {"inversesqrt", 1, 1},
	IntrinsicAbs:              {"abs", 1, 1},
	IntrinsicSign:             {"sign", 1, 1},
	IntrinsicFloor:            {"floor", 1, 1},
	IntrinsicTrunc:            {"trunc", 1, 1},
	IntrinsicRound:            {"round", 1, 1},
	IntrinsicRoundEven:        {"roundEven", 1, 1},
	IntrinsicCeil:             {"ceil", 1, 1},
	IntrinsicFract:            {"fract", 1, 1},
	IntrinsicMod:              {"mod", 2, 2},
	IntrinsicMin:              {"min", 2, 2},
	IntrinsicMax:              {"max", 2, 2},
	IntrinsicClamp:            {"clamp", 3, 3},
	IntrinsicSaturate:         {"saturate", 1, 1},
	IntrinsicMix:              {"mix", 3, 3},
	IntrinsicStep:             {"step", 2, 2},
	IntrinsicSmoothstep:       {"smoothstep", 3, 3},
	IntrinsicIsInf:            {"isinf", 1, 1},
	IntrinsicIsNan:            {"isnan", 1, 1},
	IntrinsicFloatBitsToInt:   {"floatBitsToInt", 1, 1},
	IntrinsicFloatBitsToUint:  {"floatBitsToUint", 1, 1},
	IntrinsicIntBitsToFloat:   {"intBitsToFloat", 1, 1},
	IntrinsicUintBitsToFloat:  {"uintBitsToFloat", 1, 1},
	IntrinsicLength:           {"length", 1, 1},
	IntrinsicDistance:         {"distance", 2, 2},
	IntrinsicDot:              {"dot", 2, 2},
	IntrinsicCross:            {"cross", 2, 2},
	IntrinsicNormalize:        {"normalize", 1, 1},
	IntrinsicFaceforward:      {"faceforward", 3, 3},
	IntrinsicReflect:          {"reflect", 2, 2},
	IntrinsicRefract:          {"refract", 3, 3},
	IntrinsicMatrixCompMult:   {"matrixCompMult", 2, 2},
	IntrinsicOuterProduct:     {"outerProduct", 2, 2},
	IntrinsicTranspose:        {"transpose", 1, 1},
	IntrinsicDeterminant:      {"determinant", 1, 1},
	IntrinsicInverse:          {"inverse", 1, 1},
	IntrinsicLessThan:         {"lessThan", 2, 2},
	IntrinsicLessThanEqual:    {"lessThanEqual", 2, 2},
	IntrinsicGreaterThan:      {"greaterThan", 2, 2},
	IntrinsicGreaterThanEqual: {"greaterThanEqual", 2, 2},
	IntrinsicEqual:            {"equal", 2, 2},
	IntrinsicNotEqual:         {"notEqual", 2, 2},
	IntrinsicAny:              {"any", 1, 1},
	IntrinsicAll:              {"all", 1, 1},
	IntrinsicNot:              {"not", 1, 1},
	IntrinsicBitCount:         {"bitCount", 1, 1},
	IntrinsicFindLSB:          {"findLSB", 1, 1},
	IntrinsicFindMSB:          {"findMSB", 1, 1},
	IntrinsicDFdx:             {"dFdx", 1, 1},
	IntrinsicDFdy:             {"dFdy", 1, 1},
	IntrinsicFwidth:           {"fwidth", 1, 1},
	IntrinsicSample:           {"sample", 2, 2},
}

var intrinsicsByName = func() map[string]IntrinsicKind {
	m := make(map[string]IntrinsicKind, intrinsicCount)
	for k := IntrinsicKind(1); k < intrinsicCount; k++ {
		m[intrinsicTable[k].name] = k
	}
	return m
}()

func (k IntrinsicKind) String() string {
	if k < intrinsicCount {
		return intrinsicTable[k].name
	}
	return "intrinsic?"
}

// LookupIntrinsic returns the intrinsic named name.
func LookupIntrinsic(name string) (IntrinsicKind, bool) {
	k, ok := intrinsicsByName[name]
	return k, ok
}

// ArgCount returns the accepted argument count range.
func (k IntrinsicKind) ArgCount() (minArgs, maxArgs int) {
	info := intrinsicTable[k]
	return info.minArgs, info.maxArgs
}

// IsDerivative reports dFdx, dFdy and fwidth.
func (k IntrinsicKind) IsDerivative() bool {
	return k == IntrinsicDFdx || k == IntrinsicDFdy || k == IntrinsicFwidth
}

// IntrinsicReturnType returns the result type of calling k with arguments
// of the given types, or false when the arguments are not accepted.
func IntrinsicReturnType(tt *TypeTable, k IntrinsicKind, args []*Type) (*Type, bool) {
	minArgs, maxArgs := k.ArgCount()
	if k == IntrinsicNone || len(args) < minArgs || len(args) > maxArgs {
		return nil, false
	}
	first := args[0]
	boolShape := func(t *Type) *Type { return tt.WithComponent(t, tt.Bool) }
	switch k {
	case IntrinsicLength, IntrinsicDistance, IntrinsicDot:
		if !first.IsFloat() || first.IsMatrix() {
			return nil, false
		}
		return first.ComponentType(), true
	case IntrinsicDeterminant:
		if !first.IsMatrix() || first.Columns() != first.Rows() {
			return nil, false
		}
		return first.ComponentType(), true
	case IntrinsicInverse:
		if !first.IsMatrix() || first.Columns() != first.Rows() {
			return nil, false
		}
		return first, true
	case IntrinsicCross:
		if !first.IsVector() || first.Columns() != 3 || !first.IsFloat() {
			return nil, false
		}
		return first, true
	case IntrinsicLessThan, IntrinsicLessThanEqual, IntrinsicGreaterThan, IntrinsicGreaterThanEqual:
		if !first.IsVector() || !first.IsNumber() || !first.MatchesAsLiteral(args[1]) {
			return nil, false
		}
		return boolShape(first), true
	case IntrinsicEqual, IntrinsicNotEqual:
		if !first.IsVector() || !first.MatchesAsLiteral(args[1]) {
			return nil, false
		}
		return boolShape(first), true
	case IntrinsicAny, IntrinsicAll:
		if !first.IsVector() || !first.IsBoolean() {
			return nil, false
		}
		return tt.Bool, true
	case IntrinsicNot:
		if !first.IsVector() || !first.IsBoolean() {
			return nil, false
		}
		return first, true
	case IntrinsicIsInf, IntrinsicIsNan:
		if !first.IsFloat() || first.IsMatrix() {
			return nil, false
		}
		return boolShape(first), true
	case IntrinsicFloatBitsToInt:
		if !first.IsFloat() || first.IsMatrix() {
			return nil, false
		}
		return tt.WithComponent(first, tt.Int), true
	case IntrinsicFloatBitsToUint:
		if !first.IsFloat() || first.IsMatrix() {
			return nil, false
		}
		return tt.WithComponent(first, tt.UInt), true
	case IntrinsicIntBitsToFloat, IntrinsicUintBitsToFloat:
		if !first.IsInteger() {
			return nil, false
		}
		return tt.WithComponent(first, tt.Float), true
	case IntrinsicBitCount, IntrinsicFindLSB, IntrinsicFindMSB:
		if !first.IsInteger() {
			return nil, false
		}
		return tt.WithComponent(first, tt.Int), true
	case IntrinsicTranspose:
		if !first.IsMatrix() {
			return nil, false
		}
		return tt.Matrix(first.ComponentType(), first.Rows(), first.Columns()), true
	case IntrinsicOuterProduct:
		if !first.IsVector() || !args[1].IsVector() || !first.IsFloat() {
			return nil, false
		}
		return tt.Matrix(first.ComponentType(), args[1].Columns(), first.Columns()), true
	case IntrinsicMatrixCompMult:
		if !first.IsMatrix() || first != args[1] {
			return nil, false
		}
		return first, true
	case IntrinsicStep:
		return args[1], args[1].IsFloat() && !args[1].IsMatrix()
	case IntrinsicSmoothstep:
		return args[2], args[2].IsFloat() && !args[2].IsMatrix()
	case IntrinsicSample:
		if !first.IsSampler() || args[1] != tt.Float2 {
			return nil, false
		}
		return tt.Half4, true
	case IntrinsicAbs, IntrinsicSign, IntrinsicMin, IntrinsicMax, IntrinsicClamp:
		if !first.IsNumber() || first.IsMatrix() {
			return nil, false
		}
		return first, true
	}
	if !first.IsFloat() || first.IsMatrix() {
		return nil, false
	}
	return first, true
}

// FoldIntrinsic evaluates a one- or two-argument float intrinsic on
// constant scalars. It reports false for intrinsics it does not fold.
func FoldIntrinsic(k IntrinsicKind, args []float64) (float64, bool) {
	switch len(args) {
	case 1:
		x := args[0]
		switch k {
		case IntrinsicAbs:
			return math.Abs(x), true
		case IntrinsicSign:
			switch {
			case x > 0:
				return 1, true
			case x < 0:
				return -1, true
			}
			return 0, true
		case IntrinsicFloor:
			return math.Floor(x), true
		case IntrinsicCeil:
			return math.Ceil(x), true
		case IntrinsicTrunc:
			return math.Trunc(x), true
		case IntrinsicFract:
			return x - math.Floor(x), true
		case IntrinsicSqrt:
			if x < 0 {
				return 0, false
			}
			return math.Sqrt(x), true
		case IntrinsicRadians:
			return x * math.Pi / 180, true
		case IntrinsicDegrees:
			return x * 180 / math.Pi, true
		case IntrinsicSaturate:
			return math.Min(math.Max(x, 0), 1), true
		}
	case 2:
		x, y := args[0], args[1]
		switch k {
		case IntrinsicMin:
			return math.Min(x, y), true
		case IntrinsicMax:
			return math.Max(x, y), true
		case IntrinsicStep:
			if y < x {
				return 0, true
			}
			return 1, true
		case IntrinsicPow:
			return math.Pow(x, y), true
		}
	}
	return 0, false
}
