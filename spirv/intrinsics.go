package spirv

import (
	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

type intrinsicClass uint8

const (
	// classGLSL lowers to a GLSL.std.450 extended instruction.
	classGLSL intrinsicClass = iota
	// classNative lowers to a core opcode.
	classNative
	// classSpecial has its own lowering in specialIntrinsic.
	classSpecial
)

type intrinsicOp struct {
	class  intrinsicClass
	glsl   codegen.OpTable[GLSLstd450]
	native codegen.OpTable[OpCode]
	// splat widens scalar arguments to the width of a vector result.
	splat bool
}

func glslFloat(op GLSLstd450) intrinsicOp {
	return intrinsicOp{class: classGLSL, glsl: codegen.OpTable[GLSLstd450]{Float: op}}
}

func glslSplat(t codegen.OpTable[GLSLstd450]) intrinsicOp {
	return intrinsicOp{class: classGLSL, glsl: t, splat: true}
}

func native(t codegen.OpTable[OpCode]) intrinsicOp {
	return intrinsicOp{class: classNative, native: t}
}

func special(splat bool) intrinsicOp {
	return intrinsicOp{class: classSpecial, splat: splat}
}

var intrinsicOps = map[ir.IntrinsicKind]intrinsicOp{
	ir.IntrinsicRadians:     glslFloat(GLSLstd450Radians),
	ir.IntrinsicDegrees:     glslFloat(GLSLstd450Degrees),
	ir.IntrinsicSin:         glslFloat(GLSLstd450Sin),
	ir.IntrinsicCos:         glslFloat(GLSLstd450Cos),
	ir.IntrinsicTan:         glslFloat(GLSLstd450Tan),
	ir.IntrinsicAsin:        glslFloat(GLSLstd450Asin),
	ir.IntrinsicAcos:        glslFloat(GLSLstd450Acos),
	ir.IntrinsicAtan:        special(false),
	ir.IntrinsicSinh:        glslFloat(GLSLstd450Sinh),
	ir.IntrinsicCosh:        glslFloat(GLSLstd450Cosh),
	ir.IntrinsicTanh:        glslFloat(GLSLstd450Tanh),
	ir.IntrinsicAsinh:       glslFloat(GLSLstd450Asinh),
	ir.IntrinsicAcosh:       glslFloat(GLSLstd450Acosh),
	ir.IntrinsicAtanh:       glslFloat(GLSLstd450Atanh),
	ir.IntrinsicPow:         glslFloat(GLSLstd450Pow),
	ir.IntrinsicExp:         glslFloat(GLSLstd450Exp),
	ir.IntrinsicLog:         glslFloat(GLSLstd450Log),
	ir.IntrinsicExp2:        glslFloat(GLSLstd450Exp2),
	ir.IntrinsicLog2:        glslFloat(GLSLstd450Log2),
	ir.IntrinsicSqrt:        glslFloat(GLSLstd450Sqrt),
	ir.IntrinsicInverseSqrt: glslFloat(GLSLstd450InverseSqrt),

	ir.IntrinsicAbs:        special(false),
	ir.IntrinsicSign:       {class: classGLSL, glsl: codegen.OpTable[GLSLstd450]{Float: GLSLstd450FSign, Signed: GLSLstd450SSign}},
	ir.IntrinsicFloor:      glslFloat(GLSLstd450Floor),
	ir.IntrinsicTrunc:      glslFloat(GLSLstd450Trunc),
	ir.IntrinsicRound:      glslFloat(GLSLstd450Round),
	ir.IntrinsicRoundEven:  glslFloat(GLSLstd450RoundEven),
	ir.IntrinsicCeil:       glslFloat(GLSLstd450Ceil),
	ir.IntrinsicFract:      glslFloat(GLSLstd450Fract),
	ir.IntrinsicMod:        {class: classNative, native: codegen.OpTable[OpCode]{Float: OpFMod, Signed: OpSMod, Unsigned: OpUMod}, splat: true},
	ir.IntrinsicMin:        glslSplat(codegen.OpTable[GLSLstd450]{Float: GLSLstd450FMin, Signed: GLSLstd450SMin, Unsigned: GLSLstd450UMin}),
	ir.IntrinsicMax:        glslSplat(codegen.OpTable[GLSLstd450]{Float: GLSLstd450FMax, Signed: GLSLstd450SMax, Unsigned: GLSLstd450UMax}),
	ir.IntrinsicClamp:      glslSplat(codegen.OpTable[GLSLstd450]{Float: GLSLstd450FClamp, Signed: GLSLstd450SClamp, Unsigned: GLSLstd450UClamp}),
	ir.IntrinsicSaturate:   special(false),
	ir.IntrinsicMix:        special(true),
	ir.IntrinsicStep:       glslSplat(codegen.OpTable[GLSLstd450]{Float: GLSLstd450Step}),
	ir.IntrinsicSmoothstep: glslSplat(codegen.OpTable[GLSLstd450]{Float: GLSLstd450SmoothStep}),
	ir.IntrinsicIsInf:      native(codegen.OpTable[OpCode]{Float: OpIsInf}),
	ir.IntrinsicIsNan:      native(codegen.OpTable[OpCode]{Float: OpIsNan}),

	ir.IntrinsicFloatBitsToInt:  native(codegen.OpTable[OpCode]{Float: OpBitcast}),
	ir.IntrinsicFloatBitsToUint: native(codegen.OpTable[OpCode]{Float: OpBitcast}),
	ir.IntrinsicIntBitsToFloat:  native(codegen.OpTable[OpCode]{Signed: OpBitcast}),
	ir.IntrinsicUintBitsToFloat: native(codegen.OpTable[OpCode]{Unsigned: OpBitcast}),

	ir.IntrinsicLength:      glslFloat(GLSLstd450Length),
	ir.IntrinsicDistance:    glslFloat(GLSLstd450Distance),
	ir.IntrinsicDot:         native(codegen.OpTable[OpCode]{Float: OpDot}),
	ir.IntrinsicCross:       glslFloat(GLSLstd450Cross),
	ir.IntrinsicNormalize:   glslFloat(GLSLstd450Normalize),
	ir.IntrinsicFaceforward: glslFloat(GLSLstd450FaceForward),
	ir.IntrinsicReflect:     glslFloat(GLSLstd450Reflect),
	ir.IntrinsicRefract:     glslFloat(GLSLstd450Refract),

	ir.IntrinsicMatrixCompMult: special(false),
	ir.IntrinsicOuterProduct:   native(codegen.OpTable[OpCode]{Float: OpOuterProduct}),
	ir.IntrinsicTranspose:      native(codegen.OpTable[OpCode]{Float: OpTranspose}),
	ir.IntrinsicDeterminant:    glslFloat(GLSLstd450Determinant),
	ir.IntrinsicInverse:        glslFloat(GLSLstd450MatrixInverse),

	ir.IntrinsicLessThan:         native(codegen.OpTable[OpCode]{Float: OpFOrdLessThan, Signed: OpSLessThan, Unsigned: OpULessThan}),
	ir.IntrinsicLessThanEqual:    native(codegen.OpTable[OpCode]{Float: OpFOrdLessThanEqual, Signed: OpSLessThanEqual, Unsigned: OpULessThanEqual}),
	ir.IntrinsicGreaterThan:      native(codegen.OpTable[OpCode]{Float: OpFOrdGreaterThan, Signed: OpSGreaterThan, Unsigned: OpUGreaterThan}),
	ir.IntrinsicGreaterThanEqual: native(codegen.OpTable[OpCode]{Float: OpFOrdGreaterThanEqual, Signed: OpSGreaterThanEqual, Unsigned: OpUGreaterThanEqual}),
	ir.IntrinsicEqual:            native(codegen.OpTable[OpCode]{Float: OpFOrdEqual, Signed: OpIEqual, Unsigned: OpIEqual, Boolean: OpLogicalEqual}),
	ir.IntrinsicNotEqual:         native(codegen.OpTable[OpCode]{Float: OpFOrdNotEqual, Signed: OpINotEqual, Unsigned: OpINotEqual, Boolean: OpLogicalNotEqual}),
	ir.IntrinsicAny:              native(codegen.OpTable[OpCode]{Boolean: OpAny}),
	ir.IntrinsicAll:              native(codegen.OpTable[OpCode]{Boolean: OpAll}),
	ir.IntrinsicNot:              native(codegen.OpTable[OpCode]{Boolean: OpLogicalNot}),

	ir.IntrinsicBitCount: native(codegen.Integer(OpBitCount)),
	ir.IntrinsicFindLSB:  {class: classGLSL, glsl: codegen.Integer(GLSLstd450FindILsb)},
	ir.IntrinsicFindMSB:  {class: classGLSL, glsl: codegen.OpTable[GLSLstd450]{Signed: GLSLstd450FindSMsb, Unsigned: GLSLstd450FindUMsb}},

	ir.IntrinsicDFdx:   native(codegen.OpTable[OpCode]{Float: OpDPdx}),
	ir.IntrinsicDFdy:   special(false),
	ir.IntrinsicFwidth: native(codegen.OpTable[OpCode]{Float: OpFwidth}),

	ir.IntrinsicSample: special(false),
}

// intrinsic lowers a call to a builtin function.
func (g *Generator) intrinsic(e *ir.FunctionCall) uint32 {
	k := e.Function.Intrinsic
	info, ok := intrinsicOps[k]
	if !ok {
		g.Unsupported(e.Position(), "intrinsic '"+k.String()+"'")
		return g.undef(e.Type())
	}
	args := g.intrinsicArgs(e, info.splat)
	t0 := e.Args[0].Type()
	switch info.class {
	case classGLSL:
		op, ok := info.glsl.For(t0)
		if !ok {
			break
		}
		return g.extInst(op, e.Type(), args...)
	case classNative:
		op, ok := info.native.For(t0)
		if !ok {
			break
		}
		return g.op(op, e.Type(), args...)
	case classSpecial:
		return g.specialIntrinsic(e, args)
	}
	g.Unsupported(e.Position(), "intrinsic '"+k.String()+"' on '"+t0.Name()+"'")
	return g.undef(e.Type())
}

func (g *Generator) extInst(op GLSLstd450, t *ir.Type, args ...uint32) uint32 {
	return g.op(OpExtInst, t, append([]uint32{g.glsl, uint32(op)}, args...)...)
}

// intrinsicArgs evaluates the arguments in order.
func (g *Generator) intrinsicArgs(e *ir.FunctionCall, splat bool) []uint32 {
	t := e.Type()
	args := make([]uint32, len(e.Args))
	for i, arg := range e.Args {
		args[i] = g.expression(arg)
		if at := arg.Type(); splat && t.IsVector() && at.IsScalar() {
			args[i] = g.splat(args[i], g.Types().Vector(at, t.Columns()))
		}
	}
	return args
}

func (g *Generator) specialIntrinsic(e *ir.FunctionCall, args []uint32) uint32 {
	t := e.Type()
	t0 := e.Args[0].Type()
	switch e.Function.Intrinsic {
	case ir.IntrinsicAtan:
		if len(args) == 2 {
			return g.extInst(GLSLstd450Atan2, t, args...)
		}
		return g.extInst(GLSLstd450Atan, t, args...)
	case ir.IntrinsicAbs:
		switch t0.NumberKind() {
		case ir.NumberUnsigned:
			return args[0]
		case ir.NumberSigned:
			return g.extInst(GLSLstd450SAbs, t, args...)
		}
		return g.extInst(GLSLstd450FAbs, t, args...)
	case ir.IntrinsicSaturate:
		return g.extInst(GLSLstd450FClamp, t, args[0], g.splatConstant(0, t), g.splatConstant(1, t))
	case ir.IntrinsicMix:
		if e.Args[2].Type().IsBoolean() {
			return g.op(OpSelect, t, args[2], args[1], args[0])
		}
		return g.extInst(GLSLstd450FMix, t, args...)
	case ir.IntrinsicMatrixCompMult:
		col := g.column(t)
		cols := make([]uint32, t.Columns())
		for c := range cols {
			cols[c] = g.op(OpFMul, col, g.extract(col, args[0], c), g.extract(col, args[1], c))
		}
		return g.construct(t, cols...)
	case ir.IntrinsicDFdy:
		d := g.op(OpDPdy, t, args[0])
		if !g.flip.placed {
			return d
		}
		fy := g.extract(g.Types().Float, g.flipRead(), 1)
		if t.IsVector() {
			return g.op(OpVectorTimesScalar, t, d, fy)
		}
		return g.op(OpFMul, t, d, fy)
	case ir.IntrinsicSample:
		sampler := args[0]
		if g.model == ExecutionModelFragment {
			return g.op(OpImageSampleImplicitLod, t, sampler, args[1])
		}
		return g.op(OpImageSampleExplicitLod, t, sampler, args[1], uint32(ImageOperandsLod), g.floatConstant(0))
	}
	codegen.Unreachable(e)
	return 0
}
