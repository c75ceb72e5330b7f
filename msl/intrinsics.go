package msl

import (
	"math"
	"strings"

	"github.com/gogpu/shade/ir"
)

// renamed maps intrinsics whose Metal name differs from the source name.
var renamed = map[ir.IntrinsicKind]string{
	ir.IntrinsicInverseSqrt: "rsqrt",
	ir.IntrinsicRoundEven:   "rint",
	ir.IntrinsicDFdx:        "dfdx",
	ir.IntrinsicDFdy:        "dfdy",
}

// relational maps the vector comparison intrinsics to their operator.
var relational = map[ir.IntrinsicKind]ir.Operator{
	ir.IntrinsicLessThan:         ir.OpLt,
	ir.IntrinsicLessThanEqual:    ir.OpLtEq,
	ir.IntrinsicGreaterThan:      ir.OpGt,
	ir.IntrinsicGreaterThanEqual: ir.OpGtEq,
	ir.IntrinsicEqual:            ir.OpEq,
	ir.IntrinsicNotEqual:         ir.OpNeq,
}

// intrinsic lowers a call to a builtin function.
//
//nolint:gocyclo // one case per intrinsic family
func (g *Generator) intrinsic(e *ir.FunctionCall) value {
	k := e.Function.Intrinsic
	args := e.Args
	t := e.Type()
	first := args[0].Type()

	if op, ok := relational[k]; ok {
		return g.binaryText(args[0], op, args[1])
	}

	switch k {
	case ir.IntrinsicRadians, ir.IntrinsicDegrees:
		factor := 180 / math.Pi
		if k == ir.IntrinsicRadians {
			factor = math.Pi / 180
		}
		scale := g.literalText(factor, t.ComponentType())
		return value{text: g.text(args[0], ir.PrecedenceMultiplicative) + " * " + scale.text, prec: ir.PrecedenceMultiplicative}
	case ir.IntrinsicAtan:
		if len(args) == 2 {
			return g.callText("atan2", args)
		}
	case ir.IntrinsicSign:
		if first.IsInteger() {
			return g.callText(g.intSignHelper(first), args)
		}
	case ir.IntrinsicMod:
		return g.callText(g.modHelper(first, args[1].Type()), args)
	case ir.IntrinsicMix:
		if args[2].Type().IsBoolean() {
			return g.callText("select", args)
		}
		return g.widenedCall("mix", t, args)
	case ir.IntrinsicMin, ir.IntrinsicMax, ir.IntrinsicClamp, ir.IntrinsicStep, ir.IntrinsicSmoothstep:
		return g.widenedCall(k.String(), t, args)
	case ir.IntrinsicFloatBitsToInt, ir.IntrinsicFloatBitsToUint, ir.IntrinsicIntBitsToFloat, ir.IntrinsicUintBitsToFloat:
		return g.callText("as_type<"+g.typeName(t)+">", args)
	case ir.IntrinsicLength:
		if first.IsScalar() {
			return g.callText("abs", args)
		}
	case ir.IntrinsicDistance:
		if first.IsScalar() {
			return atom("abs(" + g.binaryText(args[0], ir.OpMinus, args[1]).text + ")")
		}
	case ir.IntrinsicDot:
		if first.IsScalar() {
			return g.binaryText(args[0], ir.OpStar, args[1])
		}
	case ir.IntrinsicNormalize:
		if first.IsScalar() {
			return g.callText("sign", args)
		}
	case ir.IntrinsicReflect, ir.IntrinsicRefract, ir.IntrinsicFaceforward:
		if first.IsScalar() {
			return g.scalarAsVector(k, args)
		}
	case ir.IntrinsicMatrixCompMult:
		return g.callText(g.matrixCompMultHelper(first), args)
	case ir.IntrinsicOuterProduct:
		return g.callText(g.outerProductHelper(first, args[1].Type(), t), args)
	case ir.IntrinsicInverse:
		return g.callText(g.inverseHelper(first), args)
	case ir.IntrinsicNot:
		return value{text: "!" + g.text(args[0], ir.PrecedencePrefix), prec: ir.PrecedencePrefix}
	case ir.IntrinsicBitCount:
		return atom(g.typeName(t) + "(" + g.callText("popcount", args).text + ")")
	case ir.IntrinsicFindLSB, ir.IntrinsicFindMSB:
		return g.callText(g.bitScanHelper(k, first, t), args)
	case ir.IntrinsicSample:
		return g.sample(e)
	}
	name, ok := renamed[k]
	if !ok {
		name = k.String()
	}
	return g.callText(name, args)
}

// widenedCall calls fn with scalar arguments splatted to the shape of
// vector result t.
func (g *Generator) widenedCall(fn string, t *ir.Type, args []ir.Expression) value {
	texts := g.argumentTexts(args)
	if t.IsVector() {
		for i, a := range args {
			if a.Type().IsScalar() {
				texts[i] = g.typeName(g.Types().WithComponent(t, a.Type())) + "(" + texts[i] + ")"
			}
		}
	}
	return atom(fn + "(" + strings.Join(texts, ", ") + ")")
}

// scalarAsVector evaluates a geometric intrinsic Metal defines only for
// vectors on two-component vectors with a zero second component.
func (g *Generator) scalarAsVector(k ir.IntrinsicKind, args []ir.Expression) value {
	texts := g.argumentTexts(args)
	vec := g.typeName(g.Types().Vector(args[0].Type(), 2))
	n := len(args)
	if k == ir.IntrinsicRefract {
		n = 2
	}
	for i := 0; i < n; i++ {
		texts[i] = vec + "(" + texts[i] + ", 0)"
	}
	return atom(k.String() + "(" + strings.Join(texts, ", ") + ").x")
}

// sample reads a texture through the sampler paired with it in Globals.
func (g *Generator) sample(e *ir.FunctionCall) value {
	ref, ok := e.Args[0].(*ir.VariableReference)
	if !ok || g.homes[ref.Variable] != homeGlobals {
		g.Unsupported(e.Position(), "sample() of '"+ir.Description(e.Args[0])+"'")
		return atom(g.zeroText(e.Type()))
	}
	name := g.variableName(ref.Variable)
	prefix := globalsName + "." + name
	return atom(prefix + "_Tex.sample(" + prefix + "_Smplr, " + g.text(e.Args[1], ir.PrecedenceAssignment) + ")")
}
