package lanes

import (
	"fortio.org/safecast"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// lower returns one operand per slot of e's type.
func (g *Generator) lower(e ir.Expression) value {
	if !g.Depth.Enter(e.Position()) {
		return g.zero(e.Type())
	}
	defer g.Depth.Leave()
	return ir.VisitExpression[value](e, expressionLowerer{g})
}

// lowerAll lowers es left to right. A value read before a later argument
// with side effects is copied first, so the later write cannot change it.
func (g *Generator) lowerAll(es []ir.Expression) []value {
	out := make([]value, len(es))
	for i, e := range es {
		if ir.HasSideEffects(e) {
			for j := range i {
				out[j] = g.snapshotValue(out[j])
			}
		}
		out[i] = g.lower(e)
	}
	return out
}

func flatten(vs []value) value {
	var out value
	for _, v := range vs {
		out = append(out, v...)
	}
	return out
}

// literal returns the constant holding v as a value of scalar type t.
func (g *Generator) literal(v float64, t *ir.Type) Operand {
	switch t.NumberKind() {
	case ir.NumberFloat:
		return g.float(float32(v))
	case ir.NumberSigned:
		i, err := safecast.Convert[int32](v)
		if err != nil {
			ir.Internalf(ir.Position{}, "lanes: int constant %v: %v", v, err)
		}
		return g.constant(uint32(i))
	case ir.NumberUnsigned:
		u, err := safecast.Convert[uint32](v)
		if err != nil {
			ir.Internalf(ir.Position{}, "lanes: uint constant %v: %v", v, err)
		}
		return g.constant(u)
	case ir.NumberBoolean:
		return g.mask(v != 0)
	}
	ir.Internalf(ir.Position{}, "lanes: constant of type %s", t)
	return noMask
}

// one returns the constant 1 of kind k.
func (g *Generator) one(k ir.NumberKind) Operand {
	if k == ir.NumberFloat {
		return g.float(1)
	}
	return g.constant(1)
}

// slotKinds returns the number kind of every slot of t.
func slotKinds(t *ir.Type) []ir.NumberKind {
	switch {
	case t.IsArray():
		elem := slotKinds(t.ComponentType())
		var out []ir.NumberKind
		for range t.ArrayLength() {
			out = append(out, elem...)
		}
		return out
	case t.IsStruct():
		var out []ir.NumberKind
		for _, f := range t.Fields() {
			out = append(out, slotKinds(f.Type)...)
		}
		return out
	}
	out := make([]ir.NumberKind, t.SlotCount())
	for i := range out {
		out[i] = t.NumberKind()
	}
	return out
}

// convert changes the number kind of one slot.
func (g *Generator) convert(o Operand, from, to ir.NumberKind) Operand {
	if from == to {
		return o
	}
	if bits, ok := g.constantBits(o); ok {
		return g.constant(convertBits(bits, from, to))
	}
	switch to {
	case ir.NumberBoolean:
		if from == ir.NumberFloat {
			return g.op2(OpNeF, o, g.float(0))
		}
		return g.op2(OpNeI, o, g.constant(0))
	case ir.NumberFloat:
		switch from {
		case ir.NumberSigned:
			return g.op1(OpIntToFloat, o)
		case ir.NumberUnsigned:
			return g.op1(OpUintToFloat, o)
		}
		return g.op3(OpSelect, o, g.float(1), g.float(0))
	}
	switch from {
	case ir.NumberFloat:
		if to == ir.NumberSigned {
			return g.op1(OpFloatToInt, o)
		}
		return g.op1(OpFloatToUint, o)
	case ir.NumberBoolean:
		return g.op3(OpSelect, o, g.constant(1), g.constant(0))
	}
	return o
}

func (g *Generator) convertValue(v value, from, to *ir.Type) value {
	fk, tk := from.NumberKind(), to.NumberKind()
	out := make(value, len(v))
	for i, o := range v {
		out[i] = g.convert(o, fk, tk)
	}
	return out
}

// broadcast repeats a scalar value n times.
func broadcast(v value, n int) value {
	if len(v) != 1 || n == 1 {
		return v
	}
	out := make(value, n)
	for i := range out {
		out[i] = v[0]
	}
	return out
}

// contiguous returns the first operand of v when v covers consecutive
// slots or uniforms.
func contiguous(v value) (Operand, bool) {
	if len(v) == 0 {
		return noMask, false
	}
	first := v[0]
	if first.Kind != OperandSlot && first.Kind != OperandUniform {
		return noMask, false
	}
	for i, o := range v {
		if o.Kind != first.Kind || o.Index != first.Index+int32(i) {
			return noMask, false
		}
	}
	return first, true
}

// materialize copies v into consecutive fresh slots.
func (g *Generator) materialize(v value) Operand {
	first, ok := contiguous(v)
	if ok {
		return first
	}
	start := g.alloc(len(v), false)
	for i, o := range v {
		g.copyTo(start+int32(i), o)
	}
	return Slot(start)
}

// expressionLowerer implements lowerExpression for every node kind.
type expressionLowerer struct{ g *Generator }

func (x expressionLowerer) VisitLiteral(e *ir.Literal) value {
	return value{x.g.literal(e.Value, e.Type())}
}

func (x expressionLowerer) VisitVariableReference(e *ir.VariableReference) value {
	g := x.g
	v := e.Variable
	if val, ok := g.vars[v]; ok {
		return val
	}
	if v.IsConst() && v.Value != nil {
		val := g.lower(v.Value)
		g.vars[v] = val
		return val
	}
	if _, ok := g.children[v]; ok {
		g.Errorf(e.Position(), "child '%s' can only be called", v.Name)
		return nil
	}
	ir.Internalf(e.Position(), "lanes: variable '%s' has no storage", v.Name)
	return nil
}

func (x expressionLowerer) VisitConstructorSplat(e *ir.ConstructorSplat) value {
	return broadcast(x.g.lower(e.Arg), e.Type().SlotCount())
}

func (x expressionLowerer) VisitConstructorDiagonalMatrix(e *ir.ConstructorDiagonalMatrix) value {
	g := x.g
	t := e.Type()
	d := g.lower(e.Arg)[0]
	zero := g.literal(0, t.ComponentType())
	out := make(value, 0, t.SlotCount())
	for c := range t.Columns() {
		for r := range t.Rows() {
			if c == r {
				out = append(out, d)
			} else {
				out = append(out, zero)
			}
		}
	}
	return out
}

// VisitConstructorMatrixResize keeps the overlapping cells and fills the
// rest from the identity matrix.
func (x expressionLowerer) VisitConstructorMatrixResize(e *ir.ConstructorMatrixResize) value {
	g := x.g
	t, st := e.Type(), e.Arg.Type()
	src := g.lower(e.Arg)
	zero, one := g.literal(0, t.ComponentType()), g.literal(1, t.ComponentType())
	out := make(value, 0, t.SlotCount())
	for c := range t.Columns() {
		for r := range t.Rows() {
			switch {
			case c < st.Columns() && r < st.Rows():
				out = append(out, src[c*st.Rows()+r])
			case c == r:
				out = append(out, one)
			default:
				out = append(out, zero)
			}
		}
	}
	return out
}

func (x expressionLowerer) VisitConstructorCompound(e *ir.ConstructorCompound) value {
	return flatten(x.g.lowerAll(e.Args))
}

func (x expressionLowerer) VisitConstructorCompoundCast(e *ir.ConstructorCompoundCast) value {
	return x.g.convertValue(x.g.lower(e.Arg), e.Arg.Type(), e.Type())
}

func (x expressionLowerer) VisitConstructorScalarCast(e *ir.ConstructorScalarCast) value {
	return x.g.convertValue(x.g.lower(e.Arg), e.Arg.Type(), e.Type())
}

func (x expressionLowerer) VisitConstructorArray(e *ir.ConstructorArray) value {
	return flatten(x.g.lowerAll(e.Args))
}

// VisitConstructorArrayCast changes only precision, which lanes do not
// track.
func (x expressionLowerer) VisitConstructorArrayCast(e *ir.ConstructorArrayCast) value {
	return x.g.lower(e.Arg)
}

func (x expressionLowerer) VisitConstructorStruct(e *ir.ConstructorStruct) value {
	return flatten(x.g.lowerAll(e.Args))
}

// fieldOffset returns the first slot of field i within its struct.
func fieldOffset(t *ir.Type, i int) int {
	n := 0
	for _, f := range t.Fields()[:i] {
		n += f.Type.SlotCount()
	}
	return n
}

func (x expressionLowerer) VisitFieldAccess(e *ir.FieldAccess) value {
	base := x.g.lower(e.Base)
	off := fieldOffset(e.Base.Type(), e.Index)
	return base[off : off+e.Type().SlotCount()]
}

// elementCount returns how many elements an index expression can select.
func elementCount(t *ir.Type) int {
	if t.IsArray() {
		return t.ArrayLength()
	}
	return t.Columns()
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}

func (x expressionLowerer) VisitIndex(e *ir.IndexExpression) value {
	g := x.g
	base := g.lower(e.Base)
	elem := e.Type().SlotCount()
	n := elementCount(e.Base.Type())
	if k, ok := ir.GetConstantValue(e.Index); ok {
		i := clampIndex(int(k), n)
		return base[i*elem : (i+1)*elem]
	}
	if ir.HasSideEffects(e.Index) {
		base = g.snapshotValue(base)
	}
	index := g.lower(e.Index)[0]
	first := g.materialize(base)
	out := make(value, elem)
	for k := range out {
		a := Operand{Kind: first.Kind, Index: first.Index + int32(k)}
		out[k] = g.pure(Instruction{Op: OpLoadIndirect, A: a, B: index, Imm: int32(elem), Len: int32(n)})
	}
	return out
}

func (x expressionLowerer) VisitSwizzle(e *ir.Swizzle) value {
	base := x.g.lower(e.Base)
	out := make(value, len(e.Components))
	for i, c := range e.Components {
		out[i] = base[c]
	}
	return out
}

func (x expressionLowerer) VisitBinary(e *ir.BinaryExpression) value {
	g := x.g
	plan := codegen.ClassifyBinary(e.Left.Type(), e.Op, e.Right.Type())
	switch {
	case plan.Shape == codegen.ShapeComma:
		g.lower(e.Left)
		return g.lower(e.Right)
	case plan.Shape == codegen.ShapeLogical:
		return g.logical(e, plan.Op)
	case e.Op == ir.OpAssign:
		lv := g.lvalue(e.Left)
		v := g.lower(e.Right)
		lv.store(v)
		return v
	}

	var lv lvalue
	var left value
	if plan.Assign {
		lv = g.lvalue(e.Left)
		left = lv.load()
	} else {
		left = g.lower(e.Left)
	}
	if ir.HasSideEffects(e.Right) {
		left = g.snapshotValue(left)
	}
	var right value
	if k, ok := codegen.ReciprocalDivisor(e); ok {
		right = value{g.float(float32(k))}
		plan.Op = ir.OpStar
	} else {
		right = g.lower(e.Right)
	}
	res := g.binary(plan, e.Left.Type(), left, e.Right.Type(), right)
	if lv != nil {
		lv.store(res)
	}
	return res
}

// logical lowers && and || so the right operand only runs in the lanes
// that need it. ^^ always evaluates both sides.
func (g *Generator) logical(e *ir.BinaryExpression, op ir.Operator) value {
	if op == ir.OpLogicalXor {
		vs := g.lowerAll([]ir.Expression{e.Left, e.Right})
		return value{g.op2(OpXor, vs[0][0], vs[1][0])}
	}
	if !ir.HasSideEffects(e.Right) {
		l, r := g.lower(e.Left)[0], g.lower(e.Right)[0]
		if op == ir.OpLogicalAnd {
			return value{g.and(l, r)}
		}
		return value{g.or(l, r)}
	}
	l := g.snapshot(g.lower(e.Left)[0])
	res := g.alloc(1, true)
	g.copyTo(res, l)
	need := l
	if op == ir.OpLogicalOr {
		need = g.not(l)
	}
	g.withCondition(need, func() {
		g.store([]int32{res}, value{g.lower(e.Right)[0]})
	})
	return value{Slot(res)}
}

var binaryOps = map[ir.Operator]codegen.OpTable[Op]{
	ir.OpPlus:       {Float: OpAddF, Signed: OpAddI, Unsigned: OpAddI},
	ir.OpMinus:      {Float: OpSubF, Signed: OpSubI, Unsigned: OpSubI},
	ir.OpStar:       {Float: OpMulF, Signed: OpMulI, Unsigned: OpMulI},
	ir.OpSlash:      {Float: OpDivF, Signed: OpDivI, Unsigned: OpDivU},
	ir.OpPercent:    {Signed: OpRemI, Unsigned: OpRemU},
	ir.OpShl:        codegen.Integer(OpShl),
	ir.OpShr:        {Signed: OpShrI, Unsigned: OpShrU},
	ir.OpBitwiseAnd: codegen.Integer(OpAnd),
	ir.OpBitwiseOr:  codegen.Integer(OpOr),
	ir.OpBitwiseXor: codegen.Integer(OpXor),
	ir.OpEq:         {Float: OpEqF, Signed: OpEqI, Unsigned: OpEqI, Boolean: OpEqI},
	ir.OpNeq:        {Float: OpNeF, Signed: OpNeI, Unsigned: OpNeI, Boolean: OpNeI},
	ir.OpLt:         {Float: OpLtF, Signed: OpLtI, Unsigned: OpLtU},
	ir.OpLtEq:       {Float: OpLeF, Signed: OpLeI, Unsigned: OpLeU},
}

// opFor resolves op for slots of kind k. Greater-than comparisons reuse
// the less-than opcodes with the operands swapped.
func opFor(op ir.Operator, k ir.NumberKind) (code Op, swap bool) {
	switch op {
	case ir.OpGt:
		op, swap = ir.OpLt, true
	case ir.OpGtEq:
		op, swap = ir.OpLtEq, true
	}
	table, ok := binaryOps[op]
	if !ok {
		return OpInvalid, false
	}
	switch k {
	case ir.NumberFloat:
		code = table.Float
	case ir.NumberSigned:
		code = table.Signed
	case ir.NumberUnsigned:
		code = table.Unsigned
	case ir.NumberBoolean:
		code = table.Boolean
	}
	return code, swap
}

// scalarOp applies op to one pair of slots of kind k.
func (g *Generator) scalarOp(op ir.Operator, k ir.NumberKind, a, b Operand) Operand {
	code, swap := opFor(op, k)
	if code == OpInvalid {
		ir.Internalf(ir.Position{}, "lanes: operator %s on %s", op, k)
	}
	if swap {
		a, b = b, a
	}
	return g.op2(code, a, b)
}

// binary lowers an operator whose operands are already lowered.
func (g *Generator) binary(plan codegen.BinaryPlan, lt *ir.Type, l value, rt *ir.Type, r value) value {
	switch plan.Shape {
	case codegen.ShapeCompositeEquality:
		return value{g.equality(plan.Op, slotKinds(lt), l, r)}
	case codegen.ShapeMatrixTimesMatrix:
		return g.matrixTimesMatrix(lt, l, rt, r)
	case codegen.ShapeMatrixTimesVector:
		return g.matrixTimesVector(lt, l, r)
	case codegen.ShapeVectorTimesMatrix:
		return g.vectorTimesMatrix(l, rt, r)
	}
	n := max(len(l), len(r))
	l, r = broadcast(l, n), broadcast(r, n)
	k := plan.Operand.NumberKind()
	out := make(value, n)
	for i := range out {
		out[i] = g.scalarOp(plan.Op, k, l[i], r[i])
	}
	return out
}

// equality compares every slot and reduces to one mask: all equal for
// ==, any different for !=.
func (g *Generator) equality(op ir.Operator, kinds []ir.NumberKind, l, r value) Operand {
	var acc Operand
	for i := range l {
		c := g.scalarOp(op, kinds[i], l[i], r[i])
		switch {
		case i == 0:
			acc = c
		case op == ir.OpEq:
			acc = g.and(acc, c)
		default:
			acc = g.or(acc, c)
		}
	}
	return acc
}

// dot sums the products of matching float slots.
func (g *Generator) dot(a, b value) Operand {
	acc := g.op2(OpMulF, a[0], b[0])
	for i := 1; i < len(a); i++ {
		acc = g.op2(OpAddF, acc, g.op2(OpMulF, a[i], b[i]))
	}
	return acc
}

// row returns row i of a column-major matrix.
func row(m value, rows, i int) value {
	cols := len(m) / rows
	out := make(value, cols)
	for c := range out {
		out[c] = m[c*rows+i]
	}
	return out
}

func column(m value, rows, c int) value {
	return m[c*rows : (c+1)*rows]
}

func (g *Generator) matrixTimesMatrix(lt *ir.Type, l value, rt *ir.Type, r value) value {
	rows := lt.Rows()
	out := make(value, 0, rt.Columns()*rows)
	for j := range rt.Columns() {
		col := column(r, rt.Rows(), j)
		for i := range rows {
			out = append(out, g.dot(row(l, rows, i), col))
		}
	}
	return out
}

func (g *Generator) matrixTimesVector(mt *ir.Type, m, v value) value {
	out := make(value, mt.Rows())
	for i := range out {
		out[i] = g.dot(row(m, mt.Rows(), i), v)
	}
	return out
}

func (g *Generator) vectorTimesMatrix(v value, mt *ir.Type, m value) value {
	out := make(value, mt.Columns())
	for j := range out {
		out[j] = g.dot(v, column(m, mt.Rows(), j))
	}
	return out
}

func (x expressionLowerer) VisitPrefix(e *ir.PrefixExpression) value {
	g := x.g
	k := e.Type().NumberKind()
	switch e.Op {
	case ir.OpPlus:
		return g.lower(e.Operand)
	case ir.OpMinus:
		v := g.lower(e.Operand)
		neg := OpNegF
		if k != ir.NumberFloat {
			neg = OpNegI
		}
		out := make(value, len(v))
		for i, o := range v {
			out[i] = g.op1(neg, o)
		}
		return out
	case ir.OpLogicalNot, ir.OpBitwiseNot:
		v := g.lower(e.Operand)
		out := make(value, len(v))
		for i, o := range v {
			out[i] = g.not(o)
		}
		return out
	case ir.OpPlusPlus, ir.OpMinusMinus:
		lv := g.lvalue(e.Operand)
		res := g.step(lv.load(), e.Op, k)
		lv.store(res)
		return res
	}
	ir.Internalf(e.Position(), "lanes: prefix operator %s", e.Op)
	return nil
}

func (x expressionLowerer) VisitPostfix(e *ir.PostfixExpression) value {
	g := x.g
	lv := g.lvalue(e.Operand)
	old := g.snapshotValue(lv.load())
	lv.store(g.step(old, e.Op, e.Type().NumberKind()))
	return old
}

// step adds or subtracts one from every slot.
func (g *Generator) step(v value, op ir.Operator, k ir.NumberKind) value {
	delta := ir.OpPlus
	if op == ir.OpMinusMinus {
		delta = ir.OpMinus
	}
	out := make(value, len(v))
	for i, o := range v {
		out[i] = g.scalarOp(delta, k, o, g.one(k))
	}
	return out
}

// VisitTernary selects per slot when neither branch has side effects.
// Otherwise each branch runs under its own condition.
func (x expressionLowerer) VisitTernary(e *ir.TernaryExpression) value {
	g := x.g
	if c, ok := ir.GetConstantValue(e.Test); ok {
		if c != 0 {
			return g.lower(e.IfTrue)
		}
		return g.lower(e.IfFalse)
	}
	test := g.snapshot(g.lower(e.Test)[0])
	if !ir.HasSideEffects(e.IfTrue) && !ir.HasSideEffects(e.IfFalse) {
		a, b := g.lower(e.IfTrue), g.lower(e.IfFalse)
		out := make(value, len(a))
		for i := range out {
			out[i] = g.op3(OpSelect, test, a[i], b[i])
		}
		return out
	}
	n := e.Type().SlotCount()
	start := g.alloc(n, true)
	slots := rangeOf(start, n)
	g.withCondition(test, func() { g.store(slots, g.lower(e.IfTrue)) })
	g.withCondition(g.not(test), func() { g.store(slots, g.lower(e.IfFalse)) })
	return slotValue(start, n)
}

func (x expressionLowerer) VisitFunctionCall(e *ir.FunctionCall) value {
	if e.Function.IsIntrinsic() {
		return x.g.intrinsic(e)
	}
	return x.g.call(e)
}

// VisitChildCall copies the arguments to consecutive slots and invokes
// the child in the live lanes.
func (x expressionLowerer) VisitChildCall(e *ir.ChildCall) value {
	g := x.g
	index, ok := g.children[e.Child]
	if !ok {
		ir.Internalf(e.Position(), "lanes: child '%s' was not declared", e.Child.Name)
	}
	args := flatten(g.lowerAll(e.Args))
	start := g.alloc(len(args), false)
	for i, o := range args {
		g.copyTo(start+int32(i), o)
	}
	n := e.Type().SlotCount()
	dst := g.alloc(n, false)
	g.emit(Instruction{Op: OpInvokeChild, Dst: dst, A: Slot(start), B: g.execMask(), Imm: index, Len: int32(len(args))})
	return slotValue(dst, n)
}

func (x expressionLowerer) VisitPoison(e *ir.Poison) value {
	codegen.Unreachable(e)
	return nil
}
