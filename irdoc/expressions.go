package irdoc

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shade/ir"
)

// expr lowers one expression node.
//
//	1, 2.5, true        int, float and bool literals
//	name                variable reference
//	[a, "+", b]         binary operator, including assignments
//	["-", a]            prefix operator
//	[a, "++"]           postfix operator
//	{lit: 1, type: t}   literal of type t
//	{call: f, args: []} user function or intrinsic call
//	{new: t, args: []}  constructor
//	{child: c, args: []} child effect call
//	{field: f, of: e}   struct field
//	{index: i, of: e}   array, vector or matrix element
//	{swizzle: xy, of: e}
//	{select: [test, a, b]}
func (b *builder) expr(n *yaml.Node) ir.Expression {
	pos := position(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return b.scalar(n)
	case yaml.SequenceNode:
		return b.operator(n)
	case yaml.MappingNode:
		return b.form(n)
	case yaml.AliasNode:
		return b.expr(n.Alias)
	}
	b.errorf(pos, "expected an expression")
	return ir.MakePoison(b.ctx, pos, nil)
}

func (b *builder) exprs(n *yaml.Node) []ir.Expression {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		b.errorf(position(n), "expected a list of expressions")
		return nil
	}
	out := make([]ir.Expression, len(n.Content))
	for i, c := range n.Content {
		out[i] = b.expr(c)
	}
	return out
}

func (b *builder) scalar(n *yaml.Node) ir.Expression {
	pos := position(n)
	switch n.ShortTag() {
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			b.errorf(pos, "invalid integer '%s'", n.Value)
			return ir.MakePoison(b.ctx, pos, b.tt.Int)
		}
		return ir.MakeIntLiteral(b.ctx, pos, v, b.tt.Int)
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			b.errorf(pos, "invalid number '%s'", n.Value)
			return ir.MakePoison(b.ctx, pos, b.tt.Float)
		}
		return ir.MakeFloatLiteral(b.ctx, pos, v, b.tt.Float)
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			b.errorf(pos, "invalid bool '%s'", n.Value)
		}
		return ir.MakeBoolLiteral(b.ctx, pos, v)
	case "!!str":
		return b.reference(pos, n.Value)
	}
	b.errorf(pos, "unexpected value '%s'", n.Value)
	return ir.MakePoison(b.ctx, pos, nil)
}

func (b *builder) reference(pos ir.Position, name string) ir.Expression {
	if v, ok := b.lookup(name); ok {
		return ir.MakeVariableReference(b.ctx, pos, v, ir.RefRead)
	}
	if f, ok := b.fields[name]; ok {
		return ir.MakeInterfaceField(b.ctx, pos, f.block, f.index)
	}
	b.errorf(pos, "unknown identifier '%s'", name)
	return ir.MakePoison(b.ctx, pos, nil)
}

// operator lowers the list forms of binary, prefix and postfix operators.
func (b *builder) operator(n *yaml.Node) ir.Expression {
	pos := position(n)
	c := n.Content
	switch len(c) {
	case 3:
		if op, ok := operatorOf(c[1]); ok {
			left := b.expr(c[0])
			right := b.expr(c[2])
			return ir.MakeBinary(b.ctx, pos, left, op, right)
		}
	case 2:
		if op, ok := operatorOf(c[0]); ok {
			return ir.MakePrefix(b.ctx, pos, op, b.expr(c[1]))
		}
		if op, ok := operatorOf(c[1]); ok && (op == ir.OpPlusPlus || op == ir.OpMinusMinus) {
			return ir.MakePostfix(b.ctx, pos, b.expr(c[0]), op)
		}
	}
	b.errorf(pos, "expected [left, operator, right], [operator, operand] or [operand, operator]")
	return ir.MakePoison(b.ctx, pos, nil)
}

func operatorOf(n *yaml.Node) (ir.Operator, bool) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return 0, false
	}
	return ir.LookupOperator(n.Value)
}

// keys maps the keys of a mapping node to their values.
func (b *builder) keys(n *yaml.Node) map[string]*yaml.Node {
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out
}

func (b *builder) form(n *yaml.Node) ir.Expression {
	pos := position(n)
	k := b.keys(n)
	switch {
	case k["lit"] != nil:
		return b.literal(pos, k["lit"], k["type"])
	case k["call"] != nil:
		return b.call(pos, k["call"].Value, b.exprs(k["args"]))
	case k["new"] != nil:
		t := b.typ(pos, k["new"].Value)
		args := b.exprs(k["args"])
		if t == b.tt.Poison {
			return ir.MakePoison(b.ctx, pos, nil)
		}
		return ir.MakeConstructor(b.ctx, pos, t, args)
	case k["child"] != nil:
		v, ok := b.lookup(k["child"].Value)
		args := b.exprs(k["args"])
		if !ok {
			b.errorf(pos, "unknown child '%s'", k["child"].Value)
			return ir.MakePoison(b.ctx, pos, nil)
		}
		return ir.MakeChildCall(b.ctx, pos, v, args)
	case k["field"] != nil && k["of"] != nil:
		return b.field(pos, k["field"].Value, b.expr(k["of"]))
	case k["index"] != nil && k["of"] != nil:
		base := b.expr(k["of"])
		return ir.MakeIndex(b.ctx, pos, base, b.expr(k["index"]))
	case k["swizzle"] != nil && k["of"] != nil:
		return b.swizzle(pos, k["swizzle"].Value, b.expr(k["of"]))
	case k["select"] != nil:
		args := b.exprs(k["select"])
		if len(args) != 3 {
			b.errorf(pos, "select expects [test, if_true, if_false]")
			return ir.MakePoison(b.ctx, pos, nil)
		}
		return ir.MakeTernary(b.ctx, pos, args[0], args[1], args[2])
	}
	b.errorf(pos, "unknown expression form")
	return ir.MakePoison(b.ctx, pos, nil)
}

func (b *builder) literal(pos ir.Position, value, typ *yaml.Node) ir.Expression {
	t := b.tt.Float
	if typ != nil {
		t = b.typ(pos, typ.Value)
	}
	if !t.IsScalar() {
		b.errorf(pos, "literal of type '%s'", t)
		return ir.MakePoison(b.ctx, pos, nil)
	}
	var v float64
	if value.ShortTag() == "!!bool" {
		var flag bool
		_ = value.Decode(&flag)
		if flag {
			v = 1
		}
	} else if err := value.Decode(&v); err != nil {
		b.errorf(pos, "invalid literal '%s'", value.Value)
		return ir.MakePoison(b.ctx, pos, t)
	}
	return ir.MakeLiteral(b.ctx, pos, v, t)
}

// call prefers a user function over an intrinsic of the same name.
func (b *builder) call(pos ir.Position, name string, args []ir.Expression) ir.Expression {
	if decl, ok := b.functions[name]; ok {
		return ir.MakeFunctionCall(b.ctx, pos, decl, args)
	}
	if k, ok := ir.LookupIntrinsic(name); ok {
		return ir.MakeIntrinsicCall(b.ctx, pos, k, args)
	}
	b.errorf(pos, "unknown function '%s'", name)
	for _, a := range args {
		b.ctx.Release(a)
	}
	return ir.MakePoison(b.ctx, pos, nil)
}

func (b *builder) field(pos ir.Position, name string, base ir.Expression) ir.Expression {
	bt := base.Type()
	for i, f := range bt.Fields() {
		if f.Name == name {
			return ir.MakeFieldAccess(b.ctx, pos, base, i)
		}
	}
	if _, bad := base.(*ir.Poison); !bad {
		b.errorf(pos, "type '%s' does not have a field named '%s'", bt, name)
	}
	b.ctx.Release(base)
	return ir.MakePoison(b.ctx, pos, nil)
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func (b *builder) swizzle(pos ir.Position, mask string, base ir.Expression) ir.Expression {
	comps := make([]int8, 0, len(mask))
	for _, set := range swizzleSets {
		comps = comps[:0]
		for _, r := range mask {
			i := strings.IndexRune(set, r)
			if i < 0 {
				break
			}
			comps = append(comps, int8(i))
		}
		if len(comps) == len(mask) {
			return ir.MakeSwizzle(b.ctx, pos, base, comps)
		}
	}
	b.errorf(pos, "invalid swizzle mask '%s'", mask)
	b.ctx.Release(base)
	return ir.MakePoison(b.ctx, pos, nil)
}
