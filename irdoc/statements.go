package irdoc

import (
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shade/ir"
)

// blockOf lowers a list of statements. A scope block gets its own
// symbols.
func (b *builder) blockOf(pos ir.Position, n *yaml.Node, scope bool) *ir.Block {
	var stmts []ir.Statement
	switch n.Kind {
	case 0:
	case yaml.SequenceNode:
		if scope {
			b.push()
		}
		for _, c := range n.Content {
			stmts = append(stmts, b.stmt(c))
		}
		if scope {
			b.pop()
		}
	default:
		b.errorf(position(n), "expected a list of statements")
	}
	return ir.MakeBlock(b.ctx, pos, ir.BlockBraced, stmts, scope)
}

// stmt lowers one statement node.
//
//	break, continue, discard, return
//	{var: x, type: t, value: e, flags: [const]}
//	{expr: e}
//	{return: e}
//	{if: e, then: [...], else: [...]}
//	{for: {init: s, test: e, next: e}, body: [...]}
//	{while: e, body: [...]}
//	{do: [...], while: e}
//	{switch: e, cases: [{case: 1, body: [...]}, {default: true, body: [...]}]}
//	{block: [...]}
func (b *builder) stmt(n *yaml.Node) ir.Statement {
	pos := position(n)
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return ir.MakeBreak(b.ctx, pos)
		case "continue":
			return ir.MakeContinue(b.ctx, pos)
		case "discard":
			return ir.MakeDiscard(b.ctx, pos)
		case "return":
			return ir.MakeReturn(b.ctx, pos, nil)
		case "nop":
			return ir.MakeNop(b.ctx, pos)
		}
		b.errorf(pos, "unknown statement '%s'", n.Value)
		return ir.MakeNop(b.ctx, pos)
	}
	if n.Kind != yaml.MappingNode {
		b.errorf(pos, "expected a statement")
		return ir.MakeNop(b.ctx, pos)
	}
	k := b.keys(n)
	switch {
	case k["var"] != nil:
		return b.varDeclaration(n)
	case k["expr"] != nil:
		return ir.MakeExpressionStatement(b.ctx, pos, b.expr(k["expr"]))
	case k["return"] != nil:
		var value ir.Expression
		if v := k["return"]; v.ShortTag() != "!!null" {
			value = b.expr(v)
		}
		return ir.MakeReturn(b.ctx, pos, value)
	case k["if"] != nil:
		test := b.expr(k["if"])
		then := b.blockOf(pos, valueOr(k["then"]), true)
		var otherwise ir.Statement
		if e := k["else"]; e != nil {
			otherwise = b.blockOf(position(e), e, true)
		}
		return ir.MakeIf(b.ctx, pos, test, then, otherwise)
	case k["for"] != nil:
		return b.forLoop(pos, k["for"], k["body"])
	case k["do"] != nil:
		body := b.blockOf(pos, k["do"], true)
		test := k["while"]
		if test == nil {
			b.errorf(pos, "do statement needs a while condition")
			return body
		}
		return ir.MakeDo(b.ctx, pos, body, b.expr(test))
	case k["while"] != nil:
		test := b.expr(k["while"])
		return ir.MakeFor(b.ctx, pos, nil, test, nil, b.blockOf(pos, valueOr(k["body"]), true))
	case k["switch"] != nil:
		return b.switchStatement(pos, k["switch"], k["cases"])
	case k["block"] != nil:
		return b.blockOf(pos, k["block"], true)
	}
	b.errorf(pos, "unknown statement form")
	return ir.MakeNop(b.ctx, pos)
}

func valueOr(n *yaml.Node) *yaml.Node {
	if n == nil {
		return &yaml.Node{}
	}
	return n
}

func (b *builder) varDeclaration(n *yaml.Node) ir.Statement {
	var d VarDoc
	pos := position(n)
	if err := n.Decode(&d); err != nil {
		b.errorf(pos, "invalid declaration: %v", err)
		return ir.MakeNop(b.ctx, pos)
	}
	name := b.keys(n)["var"].Value
	v := ir.NewVariable(pos, name, b.typ(pos, d.Type), b.modifiers(&d), ir.StorageLocal)
	var init ir.Expression
	if d.Value.Kind != 0 {
		init = b.expr(&d.Value)
	}
	decl := ir.MakeVarDeclaration(b.ctx, pos, v, init)
	b.bind(pos, v)
	return decl
}

// forLoop scopes the init statement to the loop.
func (b *builder) forLoop(pos ir.Position, header, body *yaml.Node) ir.Statement {
	b.push()
	defer b.pop()
	var init ir.Statement
	var test, next ir.Expression
	if header.Kind == yaml.MappingNode {
		k := b.keys(header)
		if s := k["init"]; s != nil {
			init = b.stmt(s)
		}
		if e := k["test"]; e != nil {
			test = b.expr(e)
		}
		if e := k["next"]; e != nil {
			next = b.expr(e)
		}
	} else if header.ShortTag() != "!!null" {
		b.errorf(position(header), "expected {init, test, next}")
	}
	return ir.MakeFor(b.ctx, pos, init, test, next, b.blockOf(pos, valueOr(body), true))
}

func (b *builder) switchStatement(pos ir.Position, value, cases *yaml.Node) ir.Statement {
	selector := b.expr(value)
	var out []*ir.SwitchCase
	if cases != nil {
		if cases.Kind != yaml.SequenceNode {
			b.errorf(position(cases), "expected a list of cases")
		}
		b.push()
		for _, c := range cases.Content {
			cpos := position(c)
			k := b.keys(c)
			body := b.blockOf(cpos, valueOr(k["body"]), false)
			switch {
			case k["default"] != nil:
				out = append(out, ir.MakeDefaultCase(b.ctx, cpos, body))
			case k["case"] != nil:
				var v int64
				if err := k["case"].Decode(&v); err != nil {
					b.errorf(cpos, "case value must be an integer")
				}
				out = append(out, ir.MakeSwitchCase(b.ctx, cpos, v, body))
			default:
				b.errorf(cpos, "expected case or default")
				b.ctx.Release(body)
			}
		}
		b.pop()
	}
	return ir.MakeSwitch(b.ctx, pos, selector, out)
}
