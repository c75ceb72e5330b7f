package lanes

import (
	"math"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// floatUnary maps intrinsics with one float opcode per slot.
var floatUnary = map[ir.IntrinsicKind]Op{
	ir.IntrinsicSin:         OpSinF,
	ir.IntrinsicCos:         OpCosF,
	ir.IntrinsicTan:         OpTanF,
	ir.IntrinsicAsin:        OpAsinF,
	ir.IntrinsicAcos:        OpAcosF,
	ir.IntrinsicSinh:        OpSinhF,
	ir.IntrinsicCosh:        OpCoshF,
	ir.IntrinsicTanh:        OpTanhF,
	ir.IntrinsicAsinh:       OpAsinhF,
	ir.IntrinsicAcosh:       OpAcoshF,
	ir.IntrinsicAtanh:       OpAtanhF,
	ir.IntrinsicExp:         OpExpF,
	ir.IntrinsicLog:         OpLogF,
	ir.IntrinsicExp2:        OpExp2F,
	ir.IntrinsicLog2:        OpLog2F,
	ir.IntrinsicSqrt:        OpSqrtF,
	ir.IntrinsicInverseSqrt: OpInvSqrtF,
	ir.IntrinsicFloor:       OpFloorF,
	ir.IntrinsicTrunc:       OpTruncF,
	ir.IntrinsicRound:       OpRoundF,
	ir.IntrinsicRoundEven:   OpRoundEvenF,
	ir.IntrinsicCeil:        OpCeilF,
	ir.IntrinsicFract:       OpFractF,
	ir.IntrinsicIsNan:       OpIsNanF,
	ir.IntrinsicIsInf:       OpIsInfF,
}

// perKind maps intrinsics whose opcode depends on the number kind.
var perKind = map[ir.IntrinsicKind]codegen.OpTable[Op]{
	ir.IntrinsicAbs:      {Float: OpAbsF, Signed: OpAbsI, Unsigned: OpCopy},
	ir.IntrinsicSign:     {Float: OpSignF, Signed: OpSignI},
	ir.IntrinsicMin:      {Float: OpMinF, Signed: OpMinI, Unsigned: OpMinU},
	ir.IntrinsicMax:      {Float: OpMaxF, Signed: OpMaxI, Unsigned: OpMaxU},
	ir.IntrinsicBitCount: codegen.Integer(OpBitCount),
	ir.IntrinsicFindLSB:  codegen.Integer(OpFindLSB),
	ir.IntrinsicFindMSB:  {Signed: OpFindMSBI, Unsigned: OpFindMSBU},
	ir.IntrinsicPow:      {Float: OpPowF},
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

// intrinsic lowers a call to a builtin function slot by slot.
//
//nolint:gocyclo // one case per intrinsic family
func (g *Generator) intrinsic(e *ir.FunctionCall) value {
	k := e.Function.Intrinsic
	t := e.Type()
	n := t.SlotCount()
	first := e.Args[0].Type()
	kind := first.NumberKind()
	args := g.lowerAll(e.Args)
	arg := func(i int) value { return broadcast(args[i], n) }

	if op, ok := floatUnary[k]; ok {
		return g.each(n, func(i int) Operand { return g.op1(op, args[0][i]) })
	}
	if table, ok := perKind[k]; ok {
		op, ok := table.For(first)
		if !ok {
			g.Unsupported(e.Position(), k.String()+" of "+first.String())
			return g.zero(t)
		}
		if op == OpCopy {
			return args[0]
		}
		if len(args) == 1 {
			return g.each(n, func(i int) Operand { return g.op1(op, args[0][i]) })
		}
		a, b := arg(0), arg(1)
		return g.each(n, func(i int) Operand { return g.op2(op, a[i], b[i]) })
	}
	if op, ok := relational[k]; ok {
		return g.each(n, func(i int) Operand { return g.scalarOp(op, kind, args[0][i], args[1][i]) })
	}

	switch k {
	case ir.IntrinsicRadians, ir.IntrinsicDegrees:
		factor := float32(180 / math.Pi)
		if k == ir.IntrinsicRadians {
			factor = float32(math.Pi / 180)
		}
		return g.each(n, func(i int) Operand { return g.op2(OpMulF, args[0][i], g.float(factor)) })
	case ir.IntrinsicAtan:
		if len(args) == 2 {
			return g.each(n, func(i int) Operand { return g.op2(OpAtan2F, args[0][i], args[1][i]) })
		}
		return g.each(n, func(i int) Operand { return g.op1(OpAtanF, args[0][i]) })
	case ir.IntrinsicMod:
		x, y := arg(0), arg(1)
		return g.each(n, func(i int) Operand { return g.mod(x[i], y[i]) })
	case ir.IntrinsicClamp:
		x, lo, hi := arg(0), arg(1), arg(2)
		return g.each(n, func(i int) Operand { return g.clamp(kind, x[i], lo[i], hi[i]) })
	case ir.IntrinsicSaturate:
		return g.each(n, func(i int) Operand {
			return g.clamp(ir.NumberFloat, args[0][i], g.float(0), g.float(1))
		})
	case ir.IntrinsicMix:
		a, b, s := arg(0), arg(1), arg(2)
		if e.Args[2].Type().IsBoolean() {
			return g.each(n, func(i int) Operand { return g.op3(OpSelect, s[i], b[i], a[i]) })
		}
		return g.each(n, func(i int) Operand {
			return g.op2(OpAddF, a[i], g.op2(OpMulF, g.op2(OpSubF, b[i], a[i]), s[i]))
		})
	case ir.IntrinsicStep:
		edge, x := arg(0), arg(1)
		return g.each(n, func(i int) Operand {
			return g.op3(OpSelect, g.op2(OpLtF, x[i], edge[i]), g.float(0), g.float(1))
		})
	case ir.IntrinsicSmoothstep:
		e0, e1, x := arg(0), arg(1), arg(2)
		return g.each(n, func(i int) Operand { return g.smoothstep(e0[i], e1[i], x[i]) })
	case ir.IntrinsicFloatBitsToInt, ir.IntrinsicFloatBitsToUint,
		ir.IntrinsicIntBitsToFloat, ir.IntrinsicUintBitsToFloat:
		return args[0]
	case ir.IntrinsicDot:
		return value{g.dot(args[0], args[1])}
	case ir.IntrinsicLength:
		return value{g.length(args[0])}
	case ir.IntrinsicDistance:
		return value{g.length(g.sub(args[0], args[1]))}
	case ir.IntrinsicNormalize:
		inv := g.op1(OpInvSqrtF, g.dot(args[0], args[0]))
		return g.scale(args[0], inv)
	case ir.IntrinsicCross:
		a, b := args[0], args[1]
		c := func(i, j int) Operand {
			return g.op2(OpSubF, g.op2(OpMulF, a[i], b[j]), g.op2(OpMulF, a[j], b[i]))
		}
		return value{c(1, 2), c(2, 0), c(0, 1)}
	case ir.IntrinsicFaceforward:
		nv, i, nref := args[0], args[1], args[2]
		neg := g.each(n, func(j int) Operand { return g.op1(OpNegF, nv[j]) })
		front := g.op2(OpLtF, g.dot(nref, i), g.float(0))
		return g.each(n, func(j int) Operand { return g.op3(OpSelect, front, nv[j], neg[j]) })
	case ir.IntrinsicReflect:
		i, nv := args[0], args[1]
		d := g.op2(OpMulF, g.float(2), g.dot(nv, i))
		return g.sub(i, g.scale(nv, d))
	case ir.IntrinsicRefract:
		return g.refract(args[0], args[1], args[2][0])
	case ir.IntrinsicMatrixCompMult:
		return g.each(n, func(i int) Operand { return g.op2(OpMulF, args[0][i], args[1][i]) })
	case ir.IntrinsicOuterProduct:
		a, b := args[0], args[1]
		out := make(value, 0, n)
		for _, bj := range b {
			for _, ai := range a {
				out = append(out, g.op2(OpMulF, ai, bj))
			}
		}
		return out
	case ir.IntrinsicTranspose:
		rows := first.Rows()
		out := make(value, 0, n)
		for i := range rows {
			out = append(out, row(args[0], rows, i)...)
		}
		return out
	case ir.IntrinsicDeterminant:
		if d, ok := g.determinant(first, args[0]); ok {
			return value{d}
		}
	case ir.IntrinsicInverse:
		if first.Columns() == 2 {
			return g.inverse2(args[0])
		}
	case ir.IntrinsicAny:
		acc := args[0][0]
		for _, o := range args[0][1:] {
			acc = g.or(acc, o)
		}
		return value{acc}
	case ir.IntrinsicAll:
		acc := args[0][0]
		for _, o := range args[0][1:] {
			acc = g.and(acc, o)
		}
		return value{acc}
	case ir.IntrinsicNot:
		return g.each(n, func(i int) Operand { return g.not(args[0][i]) })
	}
	g.Unsupported(e.Position(), "intrinsic '"+e.Function.Name+"'")
	return g.zero(t)
}

func (g *Generator) each(n int, fn func(i int) Operand) value {
	out := make(value, n)
	for i := range out {
		out[i] = fn(i)
	}
	return out
}

func (g *Generator) sub(a, b value) value {
	return g.each(len(a), func(i int) Operand { return g.op2(OpSubF, a[i], b[i]) })
}

func (g *Generator) scale(v value, s Operand) value {
	return g.each(len(v), func(i int) Operand { return g.op2(OpMulF, v[i], s) })
}

func (g *Generator) length(v value) Operand {
	if len(v) == 1 {
		return g.op1(OpAbsF, v[0])
	}
	return g.op1(OpSqrtF, g.dot(v, v))
}

// mod is x - y*floor(x/y), the sign of the result following y.
func (g *Generator) mod(x, y Operand) Operand {
	q := g.op1(OpFloorF, g.op2(OpDivF, x, y))
	return g.op2(OpSubF, x, g.op2(OpMulF, y, q))
}

func (g *Generator) clamp(k ir.NumberKind, x, lo, hi Operand) Operand {
	lower, upper := OpMaxF, OpMinF
	switch k {
	case ir.NumberSigned:
		lower, upper = OpMaxI, OpMinI
	case ir.NumberUnsigned:
		lower, upper = OpMaxU, OpMinU
	}
	return g.op2(upper, g.op2(lower, x, lo), hi)
}

// smoothstep is t*t*(3-2t) with t the clamped position of x between the
// edges.
func (g *Generator) smoothstep(e0, e1, x Operand) Operand {
	t := g.op2(OpDivF, g.op2(OpSubF, x, e0), g.op2(OpSubF, e1, e0))
	t = g.clamp(ir.NumberFloat, t, g.float(0), g.float(1))
	poly := g.op2(OpSubF, g.float(3), g.op2(OpMulF, g.float(2), t))
	return g.op2(OpMulF, g.op2(OpMulF, t, t), poly)
}

// refract returns zero where the ray is totally reflected.
func (g *Generator) refract(i, nv value, eta Operand) value {
	d := g.dot(nv, i)
	one := g.float(1)
	k := g.op2(OpSubF, one, g.op2(OpMulF, g.op2(OpMulF, eta, eta), g.op2(OpSubF, one, g.op2(OpMulF, d, d))))
	s := g.op2(OpAddF, g.op2(OpMulF, eta, d), g.op1(OpSqrtF, k))
	reflected := g.op2(OpLtF, k, g.float(0))
	return g.each(len(i), func(j int) Operand {
		r := g.op2(OpSubF, g.op2(OpMulF, eta, i[j]), g.op2(OpMulF, s, nv[j]))
		return g.op3(OpSelect, reflected, g.float(0), r)
	})
}

func (g *Generator) determinant(t *ir.Type, m value) (Operand, bool) {
	mul := func(a, b Operand) Operand { return g.op2(OpMulF, a, b) }
	switch t.Columns() {
	case 2:
		return g.op2(OpSubF, mul(m[0], m[3]), mul(m[2], m[1])), true
	case 3:
		minor := func(a, b, c, d int) Operand { return g.op2(OpSubF, mul(m[a], m[b]), mul(m[c], m[d])) }
		t0 := mul(m[0], minor(4, 8, 7, 5))
		t1 := mul(m[3], minor(1, 8, 7, 2))
		t2 := mul(m[6], minor(1, 5, 4, 2))
		return g.op2(OpAddF, g.op2(OpSubF, t0, t1), t2), true
	}
	return noMask, false
}

func (g *Generator) inverse2(m value) value {
	det := g.op2(OpSubF, g.op2(OpMulF, m[0], m[3]), g.op2(OpMulF, m[2], m[1]))
	inv := g.op2(OpDivF, g.float(1), det)
	return value{
		g.op2(OpMulF, m[3], inv),
		g.op2(OpMulF, g.op1(OpNegF, m[1]), inv),
		g.op2(OpMulF, g.op1(OpNegF, m[2]), inv),
		g.op2(OpMulF, m[0], inv),
	}
}
