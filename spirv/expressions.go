package spirv

import (
	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// emit appends an instruction to the current block, opening a fresh
// block when the previous one was terminated.
func (g *Generator) emit(op OpCode, operands ...uint32) {
	fn := g.fn
	if fn.current == 0 {
		id := g.module.AllocID()
		fn.body = append(fn.body, Instruction{Opcode: OpLabel, Words: []uint32{id}})
		fn.current = id
	}
	fn.body = append(fn.body, Instruction{Opcode: op, Words: operands})
	if op.IsTerminator() {
		fn.current = 0
	}
}

// label starts block id. The previous block must be terminated.
func (g *Generator) label(id uint32) {
	if g.fn.current != 0 {
		ir.Internalf(ir.Position{}, "spirv: label %%%d opened over unterminated block %%%d", id, g.fn.current)
	}
	g.fn.body = append(g.fn.body, Instruction{Opcode: OpLabel, Words: []uint32{id}})
	g.fn.current = id
}

// currentBlock returns the open block, opening one if needed.
func (g *Generator) currentBlock() uint32 {
	if g.fn.current == 0 {
		g.label(g.module.AllocID())
	}
	return g.fn.current
}

// branch jumps to target unless the current block already terminated.
func (g *Generator) branch(target uint32) {
	if g.fn.current != 0 {
		g.emit(OpBranch, target)
	}
}

// op emits a value instruction of type t and returns its result id.
func (g *Generator) op(op OpCode, t *ir.Type, operands ...uint32) uint32 {
	typeID := g.typeID(t)
	id := g.valueID(t)
	g.emit(op, append([]uint32{typeID, id}, operands...)...)
	return id
}

func (g *Generator) construct(t *ir.Type, ids ...uint32) uint32 {
	return g.op(OpCompositeConstruct, t, ids...)
}

func (g *Generator) extract(t *ir.Type, composite uint32, indices ...int) uint32 {
	operands := []uint32{composite}
	for _, i := range indices {
		operands = append(operands, word(i))
	}
	return g.op(OpCompositeExtract, t, operands...)
}

// splat widens scalar id to vector type t. Scalars pass through.
func (g *Generator) splat(id uint32, t *ir.Type) uint32 {
	if !t.IsVector() {
		return id
	}
	return g.construct(t, repeat(id, t.Columns())...)
}

func (g *Generator) column(m *ir.Type) *ir.Type {
	return g.Types().Vector(m.ComponentType(), m.Rows())
}

func (g *Generator) undef(t *ir.Type) uint32 {
	return g.constant(OpUndef, g.typeID(t))
}

// localVariable declares a Function variable hoisted to the entry block.
func (g *Generator) localVariable(t *ir.Type, name string) uint32 {
	id := g.valueID(t)
	ptr := g.pointerType(StorageClassFunction, g.typeID(t))
	g.fn.vars = append(g.fn.vars, Instruction{Opcode: OpVariable, Words: []uint32{ptr, id, uint32(StorageClassFunction)}})
	if g.options.DebugNames && name != "" {
		g.module.AddName(id, name)
	}
	return id
}

// expression returns the id of e's value.
func (g *Generator) expression(e ir.Expression) uint32 {
	if !g.Depth.Enter(e.Position()) {
		return g.undef(e.Type())
	}
	defer g.Depth.Leave()
	if t := e.Type(); (t.IsScalar() || t.IsVector() || t.IsMatrix()) && ir.IsCompileTimeConstant(e) {
		return g.compositeConstant(e)
	}
	return ir.VisitExpression[uint32](e, expressionWriter{g})
}

// expressionWriter lowers each expression kind.
type expressionWriter struct{ g *Generator }

func (w expressionWriter) VisitLiteral(e *ir.Literal) uint32 {
	return w.g.scalarConstant(e.Value, e.Type())
}

func (w expressionWriter) VisitVariableReference(e *ir.VariableReference) uint32 {
	g := w.g
	if g.flip.placed {
		switch e.Variable.Modifiers.Layout.Builtin {
		case ir.BuiltinFragCoord:
			return g.flippedFragCoord(e.Variable)
		case ir.BuiltinClockwise:
			return g.flippedFrontFacing(e.Variable)
		}
	}
	return g.variablePointer(e.Variable).load()
}

func (w expressionWriter) VisitConstructorSplat(e *ir.ConstructorSplat) uint32 {
	g := w.g
	return g.splat(g.expression(e.Arg), e.Type())
}

func (w expressionWriter) VisitConstructorDiagonalMatrix(e *ir.ConstructorDiagonalMatrix) uint32 {
	g := w.g
	t := e.Type()
	arg := g.expression(e.Arg)
	zero := g.scalarConstant(0, t.ComponentType())
	cols := make([]uint32, t.Columns())
	for c := range cols {
		comps := repeat(zero, t.Rows())
		if c < t.Rows() {
			comps[c] = arg
		}
		cols[c] = g.construct(g.column(t), comps...)
	}
	return g.construct(t, cols...)
}

func (w expressionWriter) VisitConstructorMatrixResize(e *ir.ConstructorMatrixResize) uint32 {
	g := w.g
	t, st := e.Type(), e.Arg.Type()
	src := g.expression(e.Arg)
	colType := g.column(t)
	cols := make([]uint32, t.Columns())
	for c := range cols {
		if c >= st.Columns() {
			cols[c] = g.identityColumn(colType, c)
			continue
		}
		col := g.extract(g.column(st), src, c)
		cols[c] = g.resizeColumn(col, st.Rows(), colType, c)
	}
	return g.construct(t, cols...)
}

// identityColumn returns column c of an identity matrix.
func (g *Generator) identityColumn(col *ir.Type, c int) uint32 {
	comp := col.ComponentType()
	ids := make([]uint32, col.Columns())
	for r := range ids {
		v := 0.0
		if r == c {
			v = 1
		}
		ids[r] = g.scalarConstant(v, comp)
	}
	return g.constant(OpConstantComposite, g.typeID(col), ids...)
}

// resizeColumn truncates column c of from rows to the size of col, or pads
// it with identity values.
func (g *Generator) resizeColumn(id uint32, from int, col *ir.Type, c int) uint32 {
	to := col.Columns()
	switch {
	case to == from:
		return id
	case to < from:
		operands := []uint32{id, id}
		for r := range to {
			operands = append(operands, word(r))
		}
		return g.op(OpVectorShuffle, col, operands...)
	}
	comp := col.ComponentType()
	ids := make([]uint32, to)
	for r := range ids {
		switch {
		case r < from:
			ids[r] = g.extract(comp, id, r)
		case r == c:
			ids[r] = g.scalarConstant(1, comp)
		default:
			ids[r] = g.scalarConstant(0, comp)
		}
	}
	return g.construct(col, ids...)
}

func (w expressionWriter) VisitConstructorCompound(e *ir.ConstructorCompound) uint32 {
	g := w.g
	t := e.Type()
	ids := make([]uint32, len(e.Args))
	direct := true
	for i, arg := range e.Args {
		ids[i] = g.expression(arg)
		at := arg.Type()
		switch {
		case t.IsVector() && at.IsMatrix():
			direct = false
		case t.IsMatrix() && !(at.IsVector() && at.Columns() == t.Rows()):
			direct = false
		}
	}
	if direct {
		return g.construct(t, ids...)
	}

	var scalars []uint32
	for i, arg := range e.Args {
		scalars = append(scalars, g.scalarsOf(ids[i], arg.Type())...)
	}
	if t.IsVector() {
		return g.construct(t, scalars...)
	}
	colType := g.column(t)
	cols := make([]uint32, t.Columns())
	for c := range cols {
		cols[c] = g.construct(colType, scalars[c*t.Rows():(c+1)*t.Rows()]...)
	}
	return g.construct(t, cols...)
}

// scalarsOf splits a scalar, vector or matrix value into its components
// in column-major order.
func (g *Generator) scalarsOf(id uint32, t *ir.Type) []uint32 {
	comp := t.ComponentType()
	switch t.Kind() {
	case ir.TypeVector:
		ids := make([]uint32, t.Columns())
		for i := range ids {
			ids[i] = g.extract(comp, id, i)
		}
		return ids
	case ir.TypeMatrix:
		var ids []uint32
		for c := range t.Columns() {
			for r := range t.Rows() {
				ids = append(ids, g.extract(comp, id, c, r))
			}
		}
		return ids
	}
	return []uint32{id}
}

func (w expressionWriter) VisitConstructorCompoundCast(e *ir.ConstructorCompoundCast) uint32 {
	g := w.g
	return g.convert(g.expression(e.Arg), e.Arg.Type(), e.Type())
}

func (w expressionWriter) VisitConstructorScalarCast(e *ir.ConstructorScalarCast) uint32 {
	g := w.g
	return g.convert(g.expression(e.Arg), e.Arg.Type(), e.Type())
}

// convert casts id from type from to type to. Both have the same shape.
func (g *Generator) convert(id uint32, from, to *ir.Type) uint32 {
	fk, tk := from.NumberKind(), to.NumberKind()
	if fk == tk {
		return id
	}
	if from.IsMatrix() {
		ir.Internalf(ir.Position{}, "spirv: cannot convert %s to %s", from, to)
	}
	switch {
	case tk == ir.NumberBoolean:
		zero := g.splatConstant(0, from)
		op := OpINotEqual
		if fk == ir.NumberFloat {
			op = OpFOrdNotEqual
		}
		return g.op(op, to, id, zero)
	case fk == ir.NumberBoolean:
		return g.op(OpSelect, to, id, g.splatConstant(1, to), g.splatConstant(0, to))
	case fk == ir.NumberFloat && tk == ir.NumberSigned:
		return g.op(OpConvertFToS, to, id)
	case fk == ir.NumberFloat && tk == ir.NumberUnsigned:
		return g.op(OpConvertFToU, to, id)
	case fk == ir.NumberSigned && tk == ir.NumberFloat:
		return g.op(OpConvertSToF, to, id)
	case fk == ir.NumberUnsigned && tk == ir.NumberFloat:
		return g.op(OpConvertUToF, to, id)
	}
	return g.op(OpBitcast, to, id)
}

func (w expressionWriter) VisitConstructorArray(e *ir.ConstructorArray) uint32 {
	g := w.g
	ids := make([]uint32, len(e.Args))
	for i, arg := range e.Args {
		ids[i] = g.expression(arg)
	}
	return g.construct(e.Type(), ids...)
}

// VisitConstructorArrayCast only changes element precision, which SPIR-V
// types do not carry.
func (w expressionWriter) VisitConstructorArrayCast(e *ir.ConstructorArrayCast) uint32 {
	return w.g.expression(e.Arg)
}

func (w expressionWriter) VisitConstructorStruct(e *ir.ConstructorStruct) uint32 {
	g := w.g
	ids := make([]uint32, len(e.Args))
	for i, arg := range e.Args {
		ids[i] = g.expression(arg)
	}
	return g.construct(e.Type(), ids...)
}

func (w expressionWriter) VisitFieldAccess(e *ir.FieldAccess) uint32 {
	g := w.g
	if g.addressable(e) {
		return g.lvalue(e).load()
	}
	return g.extract(e.Type(), g.expression(e.Base), e.Index)
}

func (w expressionWriter) VisitIndex(e *ir.IndexExpression) uint32 {
	g := w.g
	if g.addressable(e) {
		return g.lvalue(e).load()
	}
	bt := e.Base.Type()
	base := g.expression(e.Base)
	if k, ok := ir.GetConstantValue(e.Index); ok && k >= 0 {
		return g.extract(e.Type(), base, int(k))
	}
	index := g.expression(e.Index)
	if bt.IsVector() {
		return g.op(OpVectorExtractDynamic, e.Type(), base, index)
	}
	tmp := g.localVariable(bt, "")
	g.emit(OpStore, tmp, base)
	ptr := g.accessChain(g.pointerType(StorageClassFunction, g.typeID(e.Type())), tmp, index)
	return g.loadPointer(ptr, e.Type(), LayoutNone)
}

func (w expressionWriter) VisitSwizzle(e *ir.Swizzle) uint32 {
	g := w.g
	base := g.expression(e.Base)
	return g.swizzle(base, e.Base.Type(), e.Components, e.Type())
}

// swizzle selects components of base.
func (g *Generator) swizzle(base uint32, bt *ir.Type, components []int8, t *ir.Type) uint32 {
	if bt.IsScalar() {
		return g.splat(base, t)
	}
	if len(components) == 1 {
		return g.extract(t, base, int(components[0]))
	}
	operands := []uint32{base, base}
	for _, c := range components {
		operands = append(operands, uint32(c))
	}
	return g.op(OpVectorShuffle, t, operands...)
}

// addressable reports expressions read through a pointer. The flipped
// builtins are computed values and never are.
func (g *Generator) addressable(e ir.Expression) bool {
	if !codegen.IsAddressable(e) {
		return false
	}
	root := e
	for {
		switch r := root.(type) {
		case *ir.FieldAccess:
			root = r.Base
			continue
		case *ir.IndexExpression:
			root = r.Base
			continue
		case *ir.VariableReference:
			if g.flip.placed {
				b := r.Variable.Modifiers.Layout.Builtin
				return b != ir.BuiltinFragCoord && b != ir.BuiltinClockwise
			}
		}
		return true
	}
}

var binaryOps = map[ir.Operator]codegen.OpTable[OpCode]{
	ir.OpPlus:       codegen.OpTable[OpCode]{Float: OpFAdd, Signed: OpIAdd, Unsigned: OpIAdd},
	ir.OpMinus:      codegen.OpTable[OpCode]{Float: OpFSub, Signed: OpISub, Unsigned: OpISub},
	ir.OpStar:       codegen.OpTable[OpCode]{Float: OpFMul, Signed: OpIMul, Unsigned: OpIMul},
	ir.OpSlash:      codegen.OpTable[OpCode]{Float: OpFDiv, Signed: OpSDiv, Unsigned: OpUDiv},
	ir.OpPercent:    codegen.OpTable[OpCode]{Float: OpFMod, Signed: OpSRem, Unsigned: OpUMod},
	ir.OpShl:        codegen.Integer(OpShiftLeftLogical),
	ir.OpShr:        codegen.OpTable[OpCode]{Signed: OpShiftRightArithmetic, Unsigned: OpShiftRightLogical},
	ir.OpBitwiseAnd: codegen.Integer(OpBitwiseAnd),
	ir.OpBitwiseOr:  codegen.Integer(OpBitwiseOr),
	ir.OpBitwiseXor: codegen.Integer(OpBitwiseXor),
	ir.OpEq:         codegen.OpTable[OpCode]{Float: OpFOrdEqual, Signed: OpIEqual, Unsigned: OpIEqual, Boolean: OpLogicalEqual},
	ir.OpNeq:        codegen.OpTable[OpCode]{Float: OpFOrdNotEqual, Signed: OpINotEqual, Unsigned: OpINotEqual, Boolean: OpLogicalNotEqual},
	ir.OpLt:         codegen.OpTable[OpCode]{Float: OpFOrdLessThan, Signed: OpSLessThan, Unsigned: OpULessThan},
	ir.OpGt:         codegen.OpTable[OpCode]{Float: OpFOrdGreaterThan, Signed: OpSGreaterThan, Unsigned: OpUGreaterThan},
	ir.OpLtEq:       codegen.OpTable[OpCode]{Float: OpFOrdLessThanEqual, Signed: OpSLessThanEqual, Unsigned: OpULessThanEqual},
	ir.OpGtEq:       codegen.OpTable[OpCode]{Float: OpFOrdGreaterThanEqual, Signed: OpSGreaterThanEqual, Unsigned: OpUGreaterThanEqual},
	ir.OpLogicalXor: codegen.OpTable[OpCode]{Boolean: OpLogicalNotEqual},
}

func (g *Generator) tableOp(op ir.Operator, t *ir.Type) OpCode {
	code, ok := binaryOps[op].For(t)
	if !ok {
		ir.Internalf(ir.Position{}, "spirv: no opcode for %s on %s", op, t)
	}
	return code
}

func (w expressionWriter) VisitBinary(e *ir.BinaryExpression) uint32 {
	g := w.g
	lt, rt := e.Left.Type(), e.Right.Type()
	plan := codegen.ClassifyBinary(lt, e.Op, rt)

	switch {
	case e.Op == ir.OpAssign:
		lv := g.lvalue(e.Left)
		v := g.expression(e.Right)
		lv.store(v)
		return v
	case plan.Shape == codegen.ShapeComma:
		g.expression(e.Left)
		return g.expression(e.Right)
	case plan.Op == ir.OpLogicalAnd || plan.Op == ir.OpLogicalOr:
		return g.shortCircuit(e)
	}

	if plan.Assign {
		lv := g.lvalue(e.Left)
		l := lv.load()
		r := g.binaryRight(e, &plan)
		v := g.binary(plan, l, lt, r, rt, e.Type())
		lv.store(v)
		return v
	}
	l := g.expression(e.Left)
	r := g.binaryRight(e, &plan)
	return g.binary(plan, l, lt, r, rt, e.Type())
}

// binaryRight evaluates the right operand. A float division by a literal
// becomes a multiply by its reciprocal.
func (g *Generator) binaryRight(e *ir.BinaryExpression, plan *codegen.BinaryPlan) uint32 {
	if k, ok := codegen.ReciprocalDivisor(e); ok {
		plan.Op = ir.OpStar
		return g.scalarConstant(k, e.Right.Type())
	}
	return g.expression(e.Right)
}

// binary applies plan to operand values l and r.
func (g *Generator) binary(plan codegen.BinaryPlan, l uint32, lt *ir.Type, r uint32, rt *ir.Type, result *ir.Type) uint32 {
	op := plan.Op
	switch plan.Shape {
	case codegen.ShapeVectorScalar:
		vec, s := l, r
		if plan.ScalarOnLeft {
			vec, s = r, l
		}
		if op == ir.OpStar && plan.Operand.IsFloat() {
			return g.op(OpVectorTimesScalar, result, vec, s)
		}
		sv := g.splat(s, plan.Operand)
		if plan.ScalarOnLeft {
			return g.op(g.tableOp(op, plan.Operand), result, sv, vec)
		}
		return g.op(g.tableOp(op, plan.Operand), result, vec, sv)
	case codegen.ShapeMatrixScalar:
		m, s := l, r
		if plan.ScalarOnLeft {
			m, s = r, l
		}
		if op == ir.OpStar {
			return g.op(OpMatrixTimesScalar, result, m, s)
		}
		mt := plan.Operand
		col := g.column(mt)
		sv := g.splat(s, col)
		cols := make([]uint32, mt.Columns())
		for c := range cols {
			mc := g.extract(col, m, c)
			if plan.ScalarOnLeft {
				cols[c] = g.op(g.tableOp(op, col), col, sv, mc)
			} else {
				cols[c] = g.op(g.tableOp(op, col), col, mc, sv)
			}
		}
		return g.construct(result, cols...)
	case codegen.ShapeMatrixTimesMatrix:
		return g.op(OpMatrixTimesMatrix, result, l, r)
	case codegen.ShapeMatrixTimesVector:
		return g.op(OpMatrixTimesVector, result, l, r)
	case codegen.ShapeVectorTimesMatrix:
		return g.op(OpVectorTimesMatrix, result, l, r)
	case codegen.ShapeMatrixComponentwise:
		col := g.column(lt)
		cols := make([]uint32, lt.Columns())
		for c := range cols {
			cols[c] = g.op(g.tableOp(op, col), col, g.extract(col, l, c), g.extract(col, r, c))
		}
		return g.construct(result, cols...)
	case codegen.ShapeCompositeEquality:
		return g.equality(op, l, r, lt)
	}
	return g.op(g.tableOp(op, plan.Operand), result, l, r)
}

// equality compares composites of type t and reduces to one bool.
func (g *Generator) equality(op ir.Operator, l, r uint32, t *ir.Type) uint32 {
	tt := g.Types()
	combine := OpLogicalAnd
	if op == ir.OpNeq {
		combine = OpLogicalOr
	}
	fold := func(ids []uint32) uint32 {
		acc := ids[0]
		for _, id := range ids[1:] {
			acc = g.op(combine, tt.Bool, acc, id)
		}
		return acc
	}
	switch t.Kind() {
	case ir.TypeVector:
		cmp := g.op(g.tableOp(op, t), tt.Vector(tt.Bool, t.Columns()), l, r)
		reduce := OpAll
		if op == ir.OpNeq {
			reduce = OpAny
		}
		return g.op(reduce, tt.Bool, cmp)
	case ir.TypeMatrix:
		col := g.column(t)
		ids := make([]uint32, t.Columns())
		for c := range ids {
			ids[c] = g.equality(op, g.extract(col, l, c), g.extract(col, r, c), col)
		}
		return fold(ids)
	case ir.TypeStruct:
		fields := t.Fields()
		ids := make([]uint32, len(fields))
		for i, f := range fields {
			ids[i] = g.equality(op, g.extract(f.Type, l, i), g.extract(f.Type, r, i), f.Type)
		}
		return fold(ids)
	case ir.TypeArray:
		elem := t.ComponentType()
		ids := make([]uint32, t.ArrayLength())
		for i := range ids {
			ids[i] = g.equality(op, g.extract(elem, l, i), g.extract(elem, r, i), elem)
		}
		return fold(ids)
	}
	return g.op(g.tableOp(op, t), tt.Bool, l, r)
}

// shortCircuit lowers && and || so the right operand runs only when it
// decides the result.
func (g *Generator) shortCircuit(e *ir.BinaryExpression) uint32 {
	b := g.Types().Bool
	l := g.expression(e.Left)
	lhsBlock := g.currentBlock()
	rhs, merge := g.module.AllocID(), g.module.AllocID()
	g.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	var skip uint32
	if e.Op == ir.OpLogicalAnd {
		skip = g.scalarConstant(0, b)
		g.emit(OpBranchConditional, l, rhs, merge)
	} else {
		skip = g.scalarConstant(1, b)
		g.emit(OpBranchConditional, l, merge, rhs)
	}
	g.label(rhs)
	r := g.expression(e.Right)
	rhsBlock := g.currentBlock()
	g.branch(merge)
	g.label(merge)
	return g.op(OpPhi, b, skip, lhsBlock, r, rhsBlock)
}

func (w expressionWriter) VisitPrefix(e *ir.PrefixExpression) uint32 {
	g := w.g
	t := e.Type()
	switch e.Op {
	case ir.OpPlus:
		return g.expression(e.Operand)
	case ir.OpMinus:
		return g.negate(g.expression(e.Operand), t)
	case ir.OpLogicalNot:
		return g.op(OpLogicalNot, t, g.expression(e.Operand))
	case ir.OpBitwiseNot:
		return g.op(OpNot, t, g.expression(e.Operand))
	case ir.OpPlusPlus, ir.OpMinusMinus:
		lv := g.lvalue(e.Operand)
		v := g.step(e.Op, lv.load(), t)
		lv.store(v)
		return v
	}
	codegen.Unreachable(e)
	return 0
}

func (g *Generator) negate(id uint32, t *ir.Type) uint32 {
	if t.IsMatrix() {
		col := g.column(t)
		cols := make([]uint32, t.Columns())
		for c := range cols {
			cols[c] = g.op(OpFNegate, col, g.extract(col, id, c))
		}
		return g.construct(t, cols...)
	}
	if t.IsFloat() {
		return g.op(OpFNegate, t, id)
	}
	return g.op(OpSNegate, t, id)
}

// step adds or subtracts one for ++ and --.
func (g *Generator) step(op ir.Operator, v uint32, t *ir.Type) uint32 {
	one := g.splatConstant(1, t)
	arith := ir.OpPlus
	if op == ir.OpMinusMinus {
		arith = ir.OpMinus
	}
	return g.op(g.tableOp(arith, t), t, v, one)
}

func (w expressionWriter) VisitPostfix(e *ir.PostfixExpression) uint32 {
	g := w.g
	lv := g.lvalue(e.Operand)
	old := lv.load()
	lv.store(g.step(e.Op, old, e.Type()))
	return old
}

func (w expressionWriter) VisitTernary(e *ir.TernaryExpression) uint32 {
	g := w.g
	t := e.Type()
	test := g.expression(e.Test)
	simple := ir.IsTrivialExpression(e.IfTrue) && ir.IsTrivialExpression(e.IfFalse) &&
		!ir.HasSideEffects(e.IfTrue) && !ir.HasSideEffects(e.IfFalse)
	if simple && (t.IsScalar() || t.IsVector()) {
		a := g.expression(e.IfTrue)
		b := g.expression(e.IfFalse)
		if t.IsVector() && !g.options.Version.AtLeast(Version1_4) {
			test = g.splat(test, g.Types().Vector(g.Types().Bool, t.Columns()))
		}
		return g.op(OpSelect, t, test, a, b)
	}

	tmp := g.localVariable(t, "")
	ifTrue, ifFalse, merge := g.module.AllocID(), g.module.AllocID(), g.module.AllocID()
	g.emit(OpSelectionMerge, merge, uint32(SelectionControlNone))
	g.emit(OpBranchConditional, test, ifTrue, ifFalse)
	g.label(ifTrue)
	g.emit(OpStore, tmp, g.expression(e.IfTrue))
	g.branch(merge)
	g.label(ifFalse)
	g.emit(OpStore, tmp, g.expression(e.IfFalse))
	g.branch(merge)
	g.label(merge)
	return g.loadPointer(tmp, t, LayoutNone)
}

func (w expressionWriter) VisitFunctionCall(e *ir.FunctionCall) uint32 {
	if e.Function.IsIntrinsic() {
		return w.g.intrinsic(e)
	}
	return w.g.call(e)
}

// call passes every argument through a Function variable. Out and inout
// arguments are copied back after the call.
func (g *Generator) call(e *ir.FunctionCall) uint32 {
	fnID, ok := g.functions[e.Function]
	if !ok {
		g.Errorf(e.Position(), "function '%s' is not defined", e.Function.Name)
		return g.undef(e.Type())
	}
	plans := codegen.OutParams(e.Function, e.Args)
	args := make([]uint32, len(plans))
	targets := make([]lvalue, len(plans))
	for i, p := range plans {
		pt := p.Param.Type()
		tmp := g.localVariable(pt, "")
		switch p.Mode {
		case codegen.ArgIn:
			g.emit(OpStore, tmp, g.expression(p.Arg))
		case codegen.ArgInOut:
			targets[i] = g.lvalue(p.Arg)
			g.emit(OpStore, tmp, targets[i].load())
		case codegen.ArgOut:
			targets[i] = g.lvalue(p.Arg)
		}
		args[i] = tmp
	}
	t := e.Type()
	res := g.valueID(t)
	g.emit(OpFunctionCall, append([]uint32{g.typeID(t), res, fnID}, args...)...)
	for i, lv := range targets {
		if lv != nil {
			lv.store(g.loadPointer(args[i], plans[i].Param.Type(), LayoutNone))
		}
	}
	return res
}

func (w expressionWriter) VisitChildCall(e *ir.ChildCall) uint32 {
	w.g.Unsupported(e.Position(), "child effect call")
	return w.g.undef(e.Type())
}

func (w expressionWriter) VisitPoison(e *ir.Poison) uint32 {
	codegen.Unreachable(e)
	return 0
}

// flipRead loads sk_RTFlip.
func (g *Generator) flipRead() uint32 {
	f := g.flip
	t := g.Types().Float2
	ptr := g.accessChain(g.pointerType(f.storage, g.typeID(t)), f.block, g.intConstant(f.member))
	return g.loadPointer(ptr, t, LayoutNone)
}

// flippedFragCoord returns sk_FragCoord with y mapped through
// sk_RTFlip: y' = flip.x + flip.y * y.
func (g *Generator) flippedFragCoord(v *ir.Variable) uint32 {
	tt := g.Types()
	raw := g.variablePointer(v).load()
	flip := g.flipRead()
	y := g.extract(tt.Float, raw, 1)
	fy := g.op(OpFMul, tt.Float, g.extract(tt.Float, flip, 1), y)
	fy = g.op(OpFAdd, tt.Float, g.extract(tt.Float, flip, 0), fy)
	return g.op(OpCompositeInsert, v.Type(), fy, raw, 1)
}

// flippedFrontFacing inverts sk_Clockwise when the render target is
// flipped.
func (g *Generator) flippedFrontFacing(v *ir.Variable) uint32 {
	tt := g.Types()
	raw := g.variablePointer(v).load()
	flip := g.flipRead()
	neg := g.op(OpFOrdLessThan, tt.Bool, g.extract(tt.Float, flip, 1), g.floatConstant(0))
	return g.op(OpLogicalNotEqual, tt.Bool, raw, neg)
}
