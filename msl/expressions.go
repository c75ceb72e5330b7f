package msl

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/shade/codegen"
	"github.com/gogpu/shade/ir"
)

// value is a lowered expression: source text and the precedence of its
// outermost operator.
type value struct {
	text string
	prec ir.Precedence
}

// atom is a value that never needs parentheses.
func atom(text string) value {
	return value{text: text, prec: ir.PrecedenceParentheses}
}

// in returns v's text, parenthesized when it binds looser than parent.
func (v value) in(parent ir.Precedence) string {
	if v.prec > parent {
		return "(" + v.text + ")"
	}
	return v.text
}

// expression lowers e.
func (g *Generator) expression(e ir.Expression) value {
	if text, ok := g.subst[e]; ok {
		return atom(text)
	}
	if !g.Depth.Enter(e.Position()) {
		return atom(g.zeroText(e.Type()))
	}
	defer g.Depth.Leave()
	return ir.VisitExpression[value](e, expressionWriter{g})
}

// text lowers e for use as an operand of an operator with precedence
// parent.
func (g *Generator) text(e ir.Expression, parent ir.Precedence) string {
	return g.expression(e).in(parent)
}

func (g *Generator) argumentTexts(args []ir.Expression) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = g.text(a, ir.PrecedenceAssignment)
	}
	return out
}

func (g *Generator) callText(name string, args []ir.Expression) value {
	return atom(name + "(" + strings.Join(g.argumentTexts(args), ", ") + ")")
}

// zeroText is a placeholder of type t, used after an error is reported.
func (g *Generator) zeroText(t *ir.Type) string {
	switch t.Kind() {
	case ir.TypeScalar, ir.TypeVector, ir.TypeMatrix:
		return g.typeName(t) + "(0)"
	case ir.TypeArray, ir.TypeStruct:
		return g.typeName(t) + "{}"
	}
	return "0"
}

// literalText spells a scalar constant of type t.
func (g *Generator) literalText(v float64, t *ir.Type) value {
	switch {
	case t.IsSigned() && v == math.MinInt32:
		return value{text: "-2147483647 - 1", prec: ir.PrecedenceAdditive}
	case t.IsFloat() && math.IsInf(v, 1):
		return atom("INFINITY")
	case t.IsFloat() && math.IsInf(v, -1):
		return value{text: "-INFINITY", prec: ir.PrecedencePrefix}
	case t.IsFloat() && math.IsNaN(v):
		return atom("NAN")
	}
	text := ir.FormatLiteral(v, t)
	if t == g.Types().Half && !g.Context.Settings.ForceHighPrecision {
		text += "h"
	}
	if strings.HasPrefix(text, "-") {
		return value{text: text, prec: ir.PrecedencePrefix}
	}
	return atom(text)
}

// expressionWriter lowers each expression kind.
type expressionWriter struct{ g *Generator }

func (w expressionWriter) VisitLiteral(e *ir.Literal) value {
	return w.g.literalText(e.Value, e.Type())
}

func (w expressionWriter) VisitVariableReference(e *ir.VariableReference) value {
	g := w.g
	v := e.Variable
	if v.Type().IsSampler() {
		g.Unsupported(e.Position(), "sampler '"+v.Name+"' outside of sample()")
		return atom("0")
	}
	name := g.variableName(v)
	switch g.homes[v] {
	case homeUniforms:
		return atom(uniformsName + "." + name)
	case homeInputs:
		return atom(inputsName + "." + name)
	case homeOutputs:
		return atom(outputsName + "." + name)
	case homeGlobals:
		return atom(globalsName + "." + name)
	case homeFragCoord:
		return atom(fragCoordName)
	case homeFrontFacing:
		return atom(frontFacingName)
	}
	return atom(name)
}

func (w expressionWriter) VisitConstructorSplat(e *ir.ConstructorSplat) value {
	return w.g.callText(w.g.typeName(e.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorDiagonalMatrix(e *ir.ConstructorDiagonalMatrix) value {
	return w.g.callText(w.g.typeName(e.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorMatrixResize(e *ir.ConstructorMatrixResize) value {
	g := w.g
	return g.callText(g.matrixConversion(e.Type(), e.Arg.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorCompound(e *ir.ConstructorCompound) value {
	g := w.g
	t := e.Type()
	if !t.IsMatrix() || columnsOnly(t, e.Args) {
		return g.callText(g.typeName(t), e.Args)
	}
	types := make([]*ir.Type, len(e.Args))
	for i, a := range e.Args {
		types[i] = a.Type()
	}
	return g.callText(g.matrixFromArgs(t, types), e.Args)
}

// columnsOnly reports a matrix built from exactly one vector per column,
// the only argument list Metal's matrix constructors take.
func columnsOnly(t *ir.Type, args []ir.Expression) bool {
	if len(args) != t.Columns() {
		return false
	}
	for _, a := range args {
		if at := a.Type(); !at.IsVector() || at.Columns() != t.Rows() {
			return false
		}
	}
	return true
}

func (w expressionWriter) VisitConstructorCompoundCast(e *ir.ConstructorCompoundCast) value {
	g := w.g
	if e.Type().IsMatrix() {
		return g.callText(g.matrixConversion(e.Type(), e.Arg.Type()), []ir.Expression{e.Arg})
	}
	return g.callText(g.typeName(e.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorScalarCast(e *ir.ConstructorScalarCast) value {
	return w.g.callText(w.g.typeName(e.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorArray(e *ir.ConstructorArray) value {
	g := w.g
	return atom(g.typeName(e.Type()) + "{" + strings.Join(g.argumentTexts(e.Args), ", ") + "}")
}

func (w expressionWriter) VisitConstructorArrayCast(e *ir.ConstructorArrayCast) value {
	g := w.g
	return g.callText(g.arrayConversion(e.Type(), e.Arg.Type()), []ir.Expression{e.Arg})
}

func (w expressionWriter) VisitConstructorStruct(e *ir.ConstructorStruct) value {
	g := w.g
	return atom(g.typeName(e.Type()) + "{" + strings.Join(g.argumentTexts(e.Args), ", ") + "}")
}

func (w expressionWriter) VisitFieldAccess(e *ir.FieldAccess) value {
	g := w.g
	return atom(g.text(e.Base, ir.PrecedencePostfix) + "." + escapeName(e.Field().Name))
}

func (w expressionWriter) VisitIndex(e *ir.IndexExpression) value {
	g := w.g
	return atom(g.text(e.Base, ir.PrecedencePostfix) + "[" + g.text(e.Index, ir.PrecedenceTopLevel) + "]")
}

func (w expressionWriter) VisitSwizzle(e *ir.Swizzle) value {
	g := w.g
	if e.Base.Type().IsScalar() {
		if len(e.Components) == 1 {
			return g.expression(e.Base)
		}
		return g.callText(g.typeName(e.Type()), []ir.Expression{e.Base})
	}
	var b strings.Builder
	for _, c := range e.Components {
		b.WriteByte("xyzw"[c])
	}
	return atom(g.text(e.Base, ir.PrecedencePostfix) + "." + b.String())
}

func (w expressionWriter) VisitBinary(e *ir.BinaryExpression) value {
	g := w.g
	lt, rt := e.Left.Type(), e.Right.Type()
	plan := codegen.ClassifyBinary(lt, e.Op, rt)
	op := e.Op
	switch {
	case plan.Shape == codegen.ShapeLogical && plan.Op == ir.OpLogicalXor:
		op = ir.OpNeq
	case plan.Shape == codegen.ShapeCompositeEquality && lt.IsVector():
		reduce := "all"
		if plan.Op == ir.OpNeq {
			reduce = "any"
		}
		return atom(reduce + "(" + g.binaryText(e.Left, op, e.Right).text + ")")
	case plan.Shape == codegen.ShapeCompositeEquality:
		g.equalityOperator(lt)
	case plan.Op.IsArithmetic() && needsMatrixOperator(plan.Op, lt, rt):
		g.matrixOperator(plan.Op, lt, rt)
	}
	return g.binaryText(e.Left, op, e.Right)
}

// binaryText writes left op right. Assignments group to the right, every
// other operator to the left.
func (g *Generator) binaryText(left ir.Expression, op ir.Operator, right ir.Expression) value {
	prec := op.Precedence()
	lp, rp := prec, prec-1
	if op.IsAssignment() {
		lp, rp = prec-1, prec
	}
	return value{
		text: g.text(left, lp) + " " + op.String() + " " + g.text(right, rp),
		prec: prec,
	}
}

func (w expressionWriter) VisitPrefix(e *ir.PrefixExpression) value {
	g := w.g
	t := e.Operand.Type()
	if e.Op == ir.OpMinus && t.IsMatrix() {
		k := g.literalText(-1, t.ComponentType())
		return value{text: k.text + " * " + g.text(e.Operand, ir.PrecedenceMultiplicative), prec: ir.PrecedenceMultiplicative}
	}
	operand := g.text(e.Operand, ir.PrecedencePrefix)
	op := e.Op.String()
	if strings.HasPrefix(operand, op[:1]) && (op[0] == '-' || op[0] == '+') {
		operand = "(" + operand + ")"
	}
	return value{text: op + operand, prec: ir.PrecedencePrefix}
}

func (w expressionWriter) VisitPostfix(e *ir.PostfixExpression) value {
	return value{text: w.g.text(e.Operand, ir.PrecedencePostfix) + e.Op.String(), prec: ir.PrecedencePostfix}
}

func (w expressionWriter) VisitTernary(e *ir.TernaryExpression) value {
	g := w.g
	return value{
		text: g.text(e.Test, ir.PrecedenceLogicalOr) + " ? " +
			g.text(e.IfTrue, ir.PrecedenceTopLevel) + " : " +
			g.text(e.IfFalse, ir.PrecedenceTernary),
		prec: ir.PrecedenceTernary,
	}
}

func (w expressionWriter) VisitFunctionCall(e *ir.FunctionCall) value {
	if e.Function.IsIntrinsic() {
		return w.g.intrinsic(e)
	}
	return w.g.call(e)
}

func (w expressionWriter) VisitChildCall(e *ir.ChildCall) value {
	w.g.Unsupported(e.Position(), "child effect call")
	return atom(w.g.zeroText(e.Type()))
}

func (w expressionWriter) VisitPoison(e *ir.Poison) value {
	codegen.Unreachable(e)
	return value{}
}

// call passes the function's environment after its declared arguments.
// Out arguments Metal cannot bind to a reference go through a wrapper.
func (g *Generator) call(e *ir.FunctionCall) value {
	name, ok := g.fnNames[e.Function]
	if !ok {
		g.Errorf(e.Position(), "function '%s' is not defined", e.Function.Name)
		return atom(g.zeroText(e.Type()))
	}
	plans := codegen.OutParams(e.Function, e.Args)
	for _, p := range plans {
		if p.Temporary && !p.Addressable {
			return g.wrappedCall(e, name, plans)
		}
	}
	env := g.envOf(e.Function)
	args := append(g.argumentTexts(e.Args), g.envArgs(env)...)
	return atom(name + "(" + strings.Join(args, ", ") + ")")
}

// addressableRoot strips swizzles and constant indices until e names
// storage that can be passed by reference.
func addressableRoot(e ir.Expression) ir.Expression {
	for {
		if codegen.IsAddressable(e) {
			return e
		}
		switch x := e.(type) {
		case *ir.Swizzle:
			e = x.Base
		case *ir.IndexExpression:
			if !ir.IsCompileTimeConstant(x.Index) {
				return nil
			}
			e = x.Base
		case *ir.FieldAccess:
			e = x.Base
		default:
			return nil
		}
	}
}

// wrappedCall calls a helper that receives the storage behind each
// non-addressable out argument by reference, passes a local to the
// callee and copies it back afterwards.
func (g *Generator) wrappedCall(e *ir.FunctionCall, callee string, plans []codegen.ArgPlan) value {
	env := g.envOf(e.Function)
	var params, args, keys, pre, post, inner []string
	for i, p := range plans {
		pt := g.typeName(p.Param.Type())
		param := fmt.Sprintf("_%d", i)
		switch {
		case p.Mode == codegen.ArgIn:
			params = append(params, pt+" "+param)
			args = append(args, g.text(p.Arg, ir.PrecedenceAssignment))
			inner = append(inner, param)
			keys = append(keys, "in "+pt)
		case p.Addressable:
			params = append(params, "thread "+pt+"& "+param)
			args = append(args, g.text(p.Arg, ir.PrecedenceAssignment))
			inner = append(inner, param)
			keys = append(keys, "ref "+pt)
		default:
			root := addressableRoot(p.Arg)
			if root == nil {
				g.Unsupported(p.Arg.Position(), "out argument '"+ir.Description(p.Arg)+"'")
				return atom(g.zeroText(e.Type()))
			}
			rt := g.typeName(root.Type())
			params = append(params, "thread "+rt+"& "+param)
			args = append(args, g.text(root, ir.PrecedenceAssignment))
			g.subst[root] = param
			path := g.text(p.Arg, ir.PrecedenceAssignment)
			delete(g.subst, root)
			local := fmt.Sprintf("_var%d", i)
			if p.Mode == codegen.ArgInOut {
				pre = append(pre, fmt.Sprintf("%s %s = %s;", pt, local, path))
			} else {
				pre = append(pre, fmt.Sprintf("%s %s;", pt, local))
			}
			post = append(post, fmt.Sprintf("%s = %s;", path, local))
			inner = append(inner, local)
			keys = append(keys, p.Mode.String()+" "+rt+" "+path)
		}
	}
	params = append(params, g.envParams(env)...)
	inner = append(inner, g.envArgs(env)...)
	args = append(args, g.envArgs(env)...)

	ret := e.Type()
	key := "out-param wrapper " + callee + "(" + strings.Join(keys, ", ") + ")"
	name := g.helper(key, "_skOutParamHelper_"+callee, func(name string) {
		g.writeLine("%s %s(%s) {", g.typeName(ret), name, strings.Join(params, ", "))
		g.pushIndent()
		for _, line := range pre {
			g.writeLine("%s", line)
		}
		call := callee + "(" + strings.Join(inner, ", ") + ")"
		if ret.IsVoid() {
			g.writeLine("%s;", call)
		} else {
			g.writeLine("%s _result = %s;", g.typeName(ret), call)
		}
		for _, line := range post {
			g.writeLine("%s", line)
		}
		if !ret.IsVoid() {
			g.writeLine("return _result;")
		}
		g.popIndent()
		g.writeLine("}")
	})
	return atom(name + "(" + strings.Join(args, ", ") + ")")
}
