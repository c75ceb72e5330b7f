package msl

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/shade/ir"
)

// helperEntry is one synthesized function, keyed by the structural
// description of what it computes.
type helperEntry struct {
	key  string
	name string
}

// helper returns the name of the helper identified by key. The first
// request allocates a name from base and calls write to emit the
// definition into the extra section; later requests reuse it. Operator
// overloads keep base unchanged.
func (g *Generator) helper(key, base string, write func(name string)) string {
	h := xxhash.Sum64String(key)
	for _, e := range g.helpers[h] {
		if e.key == key {
			return e.name
		}
	}
	name := base
	if !strings.HasPrefix(base, "operator") && !overloadable[base] {
		name = g.namer.call(base)
	}
	g.helpers[h] = append(g.helpers[h], helperEntry{key: key, name: name})
	g.helperNames = append(g.helperNames, key)

	// Helpers may request other helpers while being written; those land
	// in the extra section first.
	var b strings.Builder
	saved, indent := g.out, g.indent
	g.out, g.indent = &b, 0
	if g.options.Comments {
		g.writeLine("// %s", key)
	}
	write(name)
	g.writeLine("")
	g.out, g.indent = saved, indent
	g.extra.WriteString(b.String())
	return name
}

// overloadable names are emitted as plain overloads of one function.
var overloadable = map[string]bool{
	"mod":            true,
	"sign":           true,
	"findLSB":        true,
	"findMSB":        true,
	"matrixCompMult": true,
	"outerProduct":   true,
	"inverse":        true,
}

// typeList joins type names for a helper key.
func (g *Generator) typeList(ts ...*ir.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = g.typeName(t)
	}
	return strings.Join(names, ", ")
}

// identifierOf turns a type name into an identifier fragment.
func identifierOf(typeName string) string {
	r := strings.NewReplacer("<", "_", ">", "", ",", "", " ", "")
	return r.Replace(typeName)
}

// needsEqualityOperator reports types whose == Metal does not define as
// a single bool.
func needsEqualityOperator(t *ir.Type) bool {
	return t.IsMatrix() || t.IsStruct() || t.IsArray()
}

// equalityOperator defines operator== and operator!= for a matrix, struct
// or array type.
func (g *Generator) equalityOperator(t *ir.Type) {
	name := g.typeName(t)
	g.helper("operator==("+name+", "+name+")", "operator==", func(string) {
		g.writeLine("bool operator==(const %s left, const %s right) {", name, name)
		g.pushIndent()
		switch {
		case t.IsMatrix():
			terms := make([]string, t.Columns())
			for c := range terms {
				terms[c] = fmt.Sprintf("all(left[%d] == right[%d])", c, c)
			}
			g.writeLine("return %s;", strings.Join(terms, " &&\n           "))
		case t.IsStruct():
			fields := t.Fields()
			terms := make([]string, len(fields))
			for i, f := range fields {
				m := escapeName(f.Name)
				terms[i] = g.equalText(f.Type, "left."+m, "right."+m)
			}
			if len(terms) == 0 {
				terms = []string{"true"}
			}
			g.writeLine("return %s;", strings.Join(terms, " &&\n           "))
		default:
			g.writeLine("for (size_t index = 0; index < %d; ++index) {", t.ArrayLength())
			g.pushIndent()
			g.writeLine("if (!(%s)) {", g.equalText(t.ComponentType(), "left[index]", "right[index]"))
			g.pushIndent()
			g.writeLine("return false;")
			g.popIndent()
			g.writeLine("}")
			g.popIndent()
			g.writeLine("}")
			g.writeLine("return true;")
		}
		g.popIndent()
		g.writeLine("}")
	})
	g.helper("operator!=("+name+", "+name+")", "operator!=", func(string) {
		g.writeLine("bool operator!=(const %s left, const %s right) {", name, name)
		g.pushIndent()
		g.writeLine("return !(left == right);")
		g.popIndent()
		g.writeLine("}")
	})
}

// equalText compares two values of type t and yields one bool.
func (g *Generator) equalText(t *ir.Type, a, b string) string {
	switch {
	case t.IsVector():
		return fmt.Sprintf("all(%s == %s)", a, b)
	case needsEqualityOperator(t):
		g.equalityOperator(t)
	}
	return fmt.Sprintf("%s == %s", a, b)
}

// needsMatrixOperator reports matrix arithmetic Metal lacks natively.
func needsMatrixOperator(op ir.Operator, left, right *ir.Type) bool {
	switch {
	case left.IsMatrix() && right.IsMatrix():
		return op == ir.OpSlash
	case left.IsMatrix() || right.IsMatrix():
		if left.IsVector() || right.IsVector() {
			return false
		}
		return op == ir.OpPlus || op == ir.OpMinus || op == ir.OpSlash
	}
	return false
}

// matrixOperator defines a column-by-column operator for left op right,
// plus its compound form when the left side is a matrix.
func (g *Generator) matrixOperator(op ir.Operator, left, right *ir.Type) {
	m := left
	if !m.IsMatrix() {
		m = right
	}
	l, r, result := g.typeName(left), g.typeName(right), g.typeName(m)
	g.helper(fmt.Sprintf("operator%s(%s, %s)", op, l, r), "operator"+op.String(), func(string) {
		g.writeLine("%s operator%s(const %s left, const %s right) {", result, op, l, r)
		g.pushIndent()
		cols := make([]string, m.Columns())
		for c := range cols {
			lc, rc := "left", "right"
			if left.IsMatrix() {
				lc = fmt.Sprintf("left[%d]", c)
			}
			if right.IsMatrix() {
				rc = fmt.Sprintf("right[%d]", c)
			}
			cols[c] = fmt.Sprintf("%s %s %s", lc, op, rc)
		}
		g.writeLine("return %s(%s);", result, strings.Join(cols, ", "))
		g.popIndent()
		g.writeLine("}")
	})
	if !left.IsMatrix() {
		return
	}
	g.helper(fmt.Sprintf("operator%s=(%s, %s)", op, l, r), "operator"+op.String()+"=", func(string) {
		g.writeLine("thread %s& operator%s=(thread %s& left, thread const %s& right) {", l, op, l, r)
		g.pushIndent()
		g.writeLine("left = left %s right;", op)
		g.writeLine("return left;")
		g.popIndent()
		g.writeLine("}")
	})
}

// modHelper defines GLSL mod, which floors where fmod truncates.
func (g *Generator) modHelper(x, y *ir.Type) string {
	xt, yt := g.typeName(x), g.typeName(y)
	return g.helper("mod("+xt+", "+yt+")", "mod", func(name string) {
		g.writeLine("%s %s(%s x, %s y) {", xt, name, xt, yt)
		g.pushIndent()
		g.writeLine("return x - y * floor(x / y);")
		g.popIndent()
		g.writeLine("}")
	})
}

// matrixFromArgs builds a matrix from an argument list Metal cannot pass
// to a matrix constructor directly, flattening every argument to scalars.
func (g *Generator) matrixFromArgs(t *ir.Type, args []*ir.Type) string {
	result := g.typeName(t)
	argList := g.typeList(args...)
	base := identifierOf(result) + "_from_" + identifierOf(strings.ReplaceAll(argList, ", ", "_"))
	return g.helper(result+"("+argList+")", base, func(name string) {
		params := make([]string, len(args))
		var scalars []string
		for i, a := range args {
			params[i] = fmt.Sprintf("%s x%d", g.typeName(a), i)
			scalars = append(scalars, slotTexts(a, fmt.Sprintf("x%d", i))...)
		}
		col := g.typeName(g.Types().Vector(t.ComponentType(), t.Rows()))
		cols := make([]string, t.Columns())
		for c := range cols {
			cols[c] = fmt.Sprintf("%s(%s)", col, strings.Join(scalars[c*t.Rows():(c+1)*t.Rows()], ", "))
		}
		g.writeLine("%s %s(%s) {", result, name, strings.Join(params, ", "))
		g.pushIndent()
		g.writeLine("return %s(%s);", result, strings.Join(cols, ", "))
		g.popIndent()
		g.writeLine("}")
	})
}

// slotTexts lists the scalar components of a value named v.
func slotTexts(t *ir.Type, v string) []string {
	switch t.Kind() {
	case ir.TypeVector:
		out := make([]string, t.Columns())
		for i := range out {
			out[i] = fmt.Sprintf("%s.%c", v, "xyzw"[i])
		}
		return out
	case ir.TypeMatrix:
		var out []string
		for c := 0; c < t.Columns(); c++ {
			for r := 0; r < t.Rows(); r++ {
				out = append(out, fmt.Sprintf("%s[%d][%d]", v, c, r))
			}
		}
		return out
	}
	return []string{v}
}

// matrixConversion converts a matrix to another size or component
// precision. Cells outside the source come from the identity matrix.
func (g *Generator) matrixConversion(to, from *ir.Type) string {
	dst, src := g.typeName(to), g.typeName(from)
	return g.helper(dst+"("+src+")", identifierOf(dst)+"_from_"+identifierOf(src), func(name string) {
		scalar := g.typeName(to.ComponentType())
		cols := make([]string, to.Columns())
		for c := range cols {
			cells := make([]string, to.Rows())
			for r := range cells {
				switch {
				case c < from.Columns() && r < from.Rows():
					cells[r] = fmt.Sprintf("%s(m[%d][%d])", scalar, c, r)
				case c == r:
					cells[r] = ir.FormatLiteral(1, to.ComponentType())
				default:
					cells[r] = ir.FormatLiteral(0, to.ComponentType())
				}
			}
			cols[c] = fmt.Sprintf("%s%d(%s)", scalar, to.Rows(), strings.Join(cells, ", "))
		}
		g.writeLine("%s %s(%s m) {", dst, name, src)
		g.pushIndent()
		g.writeLine("return %s(%s);", dst, strings.Join(cols, ", "))
		g.popIndent()
		g.writeLine("}")
	})
}

// arrayConversion converts an array to one differing only in element
// precision.
func (g *Generator) arrayConversion(to, from *ir.Type) string {
	dst, src := g.typeName(to), g.typeName(from)
	return g.helper(dst+"("+src+")", "array_of_"+identifierOf(g.typeName(to.ComponentType()))+"_from_"+identifierOf(g.typeName(from.ComponentType())), func(name string) {
		g.writeLine("%s %s(thread const %s& a) {", dst, name, src)
		g.pushIndent()
		g.writeLine("%s result;", dst)
		g.writeLine("for (size_t index = 0; index < %d; ++index) {", to.ArrayLength())
		g.pushIndent()
		g.writeLine("result[index] = %s;", g.conversionText(to.ComponentType(), from.ComponentType(), "a[index]"))
		g.popIndent()
		g.writeLine("}")
		g.writeLine("return result;")
		g.popIndent()
		g.writeLine("}")
	})
}

// conversionText converts the value named v from one type to another of
// the same shape.
func (g *Generator) conversionText(to, from *ir.Type, v string) string {
	switch {
	case to == from:
		return v
	case to.IsMatrix():
		return g.matrixConversion(to, from) + "(" + v + ")"
	case to.IsArray():
		return g.arrayConversion(to, from) + "(" + v + ")"
	}
	return g.typeName(to) + "(" + v + ")"
}

// intSignHelper implements sign for integers, which Metal defines only
// for floats.
func (g *Generator) intSignHelper(t *ir.Type) string {
	tn := g.typeName(t)
	return g.helper("sign("+tn+")", "sign", func(name string) {
		g.writeLine("%s %s(%s x) {", tn, name, tn)
		g.pushIndent()
		g.writeLine("return select(select(%s(0), %s(1), x > %s(0)), %s(-1), x < %s(0));", tn, tn, tn, tn, tn)
		g.popIndent()
		g.writeLine("}")
	})
}

// bitScanHelper implements findLSB and findMSB, returning -1 where no bit
// is found.
func (g *Generator) bitScanHelper(k ir.IntrinsicKind, arg, result *ir.Type) string {
	at, rt := g.typeName(arg), g.typeName(result)
	return g.helper(k.String()+"("+at+")", k.String(), func(name string) {
		g.writeLine("%s %s(%s x) {", rt, name, at)
		g.pushIndent()
		if k == ir.IntrinsicFindLSB {
			g.writeLine("return select(%s(ctz(x)), %s(-1), x == %s(0));", rt, rt, at)
		} else {
			if arg.IsSigned() {
				g.writeLine("x = select(x, ~x, x < %s(0));", at)
			}
			g.writeLine("return select(%s(31) - %s(clz(x)), %s(-1), x == %s(0));", rt, rt, rt, at)
		}
		g.popIndent()
		g.writeLine("}")
	})
}

func (g *Generator) matrixCompMultHelper(t *ir.Type) string {
	tn := g.typeName(t)
	return g.helper("matrixCompMult("+tn+", "+tn+")", "matrixCompMult", func(name string) {
		cols := make([]string, t.Columns())
		for c := range cols {
			cols[c] = fmt.Sprintf("a[%d] * b[%d]", c, c)
		}
		g.writeLine("%s %s(%s a, %s b) {", tn, name, tn, tn)
		g.pushIndent()
		g.writeLine("return %s(%s);", tn, strings.Join(cols, ", "))
		g.popIndent()
		g.writeLine("}")
	})
}

func (g *Generator) outerProductHelper(a, b, result *ir.Type) string {
	at, bt, rt := g.typeName(a), g.typeName(b), g.typeName(result)
	return g.helper("outerProduct("+at+", "+bt+")", "outerProduct", func(name string) {
		cols := make([]string, b.Columns())
		for c := range cols {
			cols[c] = fmt.Sprintf("a * b.%c", "xyzw"[c])
		}
		g.writeLine("%s %s(%s a, %s b) {", rt, name, at, bt)
		g.pushIndent()
		g.writeLine("return %s(%s);", rt, strings.Join(cols, ", "))
		g.popIndent()
		g.writeLine("}")
	})
}

// inverseHelper implements inverse for square matrices by cofactor
// expansion.
func (g *Generator) inverseHelper(t *ir.Type) string {
	tn := g.typeName(t)
	col := g.typeName(g.Types().Vector(t.ComponentType(), t.Rows()))
	return g.helper("inverse("+tn+")", "inverse", func(name string) {
		n := t.Columns()
		setup, cells, det := inverseTerms(n)
		g.writeLine("%s %s(%s m) {", tn, name, tn)
		g.pushIndent()
		for _, line := range setup {
			g.writeLine("%s", line)
		}
		cols := make([]string, n)
		for c := range cols {
			cols[c] = fmt.Sprintf("%s(%s)", col, strings.Join(cells[c*n:(c+1)*n], ", "))
		}
		g.writeLine("return %s(%s) * (1 / (%s));", tn, strings.Join(cols, ", "), det)
		g.popIndent()
		g.writeLine("}")
	})
}

// inverseTerms returns the local declarations, the column-major cells of
// the adjugate and the determinant of an n by n matrix named m.
func inverseTerms(n int) (setup, cells []string, det string) {
	var decls []string
	for c := 0; c < n; c++ {
		names := make([]string, n)
		for r := range names {
			names[r] = fmt.Sprintf("a%d%d = m[%d][%d]", c, r, c, r)
		}
		decls = append(decls, "auto "+strings.Join(names, ", ")+";")
	}
	switch n {
	case 2:
		return nil, []string{"m[1][1]", "-m[0][1]", "-m[1][0]", "m[0][0]"}, "determinant(m)"
	case 3:
		setup = append(decls,
			"auto b01 = a22 * a11 - a12 * a21;",
			"auto b11 = -a22 * a10 + a12 * a20;",
			"auto b21 = a21 * a10 - a11 * a20;",
		)
		cells = []string{
			"b01", "-a22 * a01 + a02 * a21", "a12 * a01 - a02 * a11",
			"b11", "a22 * a00 - a02 * a20", "-a12 * a00 + a02 * a10",
			"b21", "-a21 * a00 + a01 * a20", "a11 * a00 - a01 * a10",
		}
		return setup, cells, "a00 * b01 + a01 * b11 + a02 * b21"
	}
	setup = append(decls,
		"auto b00 = a00 * a11 - a01 * a10;",
		"auto b01 = a00 * a12 - a02 * a10;",
		"auto b02 = a00 * a13 - a03 * a10;",
		"auto b03 = a01 * a12 - a02 * a11;",
		"auto b04 = a01 * a13 - a03 * a11;",
		"auto b05 = a02 * a13 - a03 * a12;",
		"auto b06 = a20 * a31 - a21 * a30;",
		"auto b07 = a20 * a32 - a22 * a30;",
		"auto b08 = a20 * a33 - a23 * a30;",
		"auto b09 = a21 * a32 - a22 * a31;",
		"auto b10 = a21 * a33 - a23 * a31;",
		"auto b11 = a22 * a33 - a23 * a32;",
	)
	cells = []string{
		"a11 * b11 - a12 * b10 + a13 * b09",
		"a02 * b10 - a01 * b11 - a03 * b09",
		"a31 * b05 - a32 * b04 + a33 * b03",
		"a22 * b04 - a21 * b05 - a23 * b03",
		"a12 * b08 - a10 * b11 - a13 * b07",
		"a00 * b11 - a02 * b08 + a03 * b07",
		"a32 * b02 - a30 * b05 - a33 * b01",
		"a20 * b05 - a22 * b02 + a23 * b01",
		"a10 * b10 - a11 * b08 + a13 * b06",
		"a01 * b08 - a00 * b10 - a03 * b06",
		"a30 * b04 - a31 * b02 + a33 * b00",
		"a21 * b02 - a20 * b04 - a23 * b00",
		"a11 * b07 - a10 * b09 - a12 * b06",
		"a00 * b09 - a01 * b07 + a02 * b06",
		"a31 * b01 - a30 * b03 - a32 * b00",
		"a20 * b03 - a21 * b01 + a22 * b00",
	}
	return setup, cells, "b00 * b11 - b01 * b10 + b02 * b09 + b03 * b08 - b04 * b07 + b05 * b06"
}
