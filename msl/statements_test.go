package msl

import (
	"testing"

	"github.com/gogpu/shade/ir"
)

func TestStatement_IfAndFor(t *testing.T) {
	f := newFixture()
	u := f.uniform("u", f.tt.Float)
	x := f.local("x", f.tt.Float)
	i := f.local("i", f.tt.Int)
	ref := func(v *ir.Variable) ir.Expression { return f.read(v) }
	bin := func(l ir.Expression, op ir.Operator, r ir.Expression) ir.Expression {
		return ir.MakeBinary(f.ctx, noPos, l, op, r)
	}

	elseIf := ir.MakeIf(f.ctx, noPos, bin(ref(x), ir.OpLt, f.float(0.5)),
		f.block(f.assign(x, f.float(0.25))),
		f.block(ir.MakeDiscard(f.ctx, noPos)))
	branch := ir.MakeIf(f.ctx, noPos, bin(ref(x), ir.OpGt, f.float(2)),
		f.block(f.assign(x, f.float(1))),
		elseIf)
	loop := ir.MakeFor(f.ctx, noPos,
		ir.MakeVarDeclaration(f.ctx, noPos, i, ir.MakeIntLiteral(f.ctx, noPos, 0, f.tt.Int)),
		bin(ref(i), ir.OpLt, ir.MakeIntLiteral(f.ctx, noPos, 4, f.tt.Int)),
		ir.MakePostfix(f.ctx, noPos, ref(i), ir.OpPlusPlus),
		f.block(ir.MakeExpressionStatement(f.ctx, noPos, bin(ref(x), ir.OpPlusEq, f.float(1)))))

	p := f.entry(t, ir.ProgramFragment, f.tt.Float4,
		ir.MakeVarDeclaration(f.ctx, noPos, x, f.read(u)),
		branch,
		loop,
		ir.MakeReturn(f.ctx, noPos, ir.MakeSplat(f.ctx, noPos, f.tt.Float4, ref(x))))
	source := compile(t, p)

	mustContain(t, source, `    float x = _uniforms.u;
    if (x > 2.0) {
        x = 1.0;
    } else if (x < 0.5) {
        x = 0.25;
    } else {
        discard_fragment();
    }
    for (int i = 0; i < 4; i++) {
        x += 1.0;
    }
    _out.sk_FragColor = half4(float4(x));
    return _out;
}
`)
}

func TestStatement_SwitchAndDo(t *testing.T) {
	f := newFixture()
	u := f.uniform("u", f.tt.Float)
	x := f.local("x", f.tt.Float)
	y := f.local("y", f.tt.Float)
	k := f.local("k", f.tt.Int)

	cases := []*ir.SwitchCase{
		ir.MakeSwitchCase(f.ctx, noPos, 0, f.block(
			ir.MakeVarDeclaration(f.ctx, noPos, y, f.float(1)),
			f.assign(x, f.read(y)),
			ir.MakeBreak(f.ctx, noPos))),
		ir.MakeSwitchCase(f.ctx, noPos, 1, f.block(f.assign(x, f.float(2)), ir.MakeBreak(f.ctx, noPos))),
		ir.MakeDefaultCase(f.ctx, noPos, f.block(f.assign(x, f.float(3)))),
	}
	loop := ir.MakeDo(f.ctx, noPos,
		f.block(ir.MakeExpressionStatement(f.ctx, noPos, ir.MakeBinary(f.ctx, noPos, f.read(x), ir.OpMinusEq, f.float(1)))),
		ir.MakeBinary(f.ctx, noPos, f.read(x), ir.OpGt, f.float(0)))

	p := f.entry(t, ir.ProgramFragment, f.tt.Float4,
		ir.MakeVarDeclaration(f.ctx, noPos, x, f.float(0)),
		ir.MakeVarDeclaration(f.ctx, noPos, k, ir.MakeScalarCast(f.ctx, noPos, f.tt.Int, f.read(u))),
		ir.MakeSwitch(f.ctx, noPos, f.read(k), cases),
		loop,
		ir.MakeReturn(f.ctx, noPos, ir.MakeSplat(f.ctx, noPos, f.tt.Float4, f.read(x))))
	source := compile(t, p)

	mustContain(t, source, `    int k = int(_uniforms.u);
    switch (k) {
    case 0:
        {
            float y = 1.0;
            x = y;
            break;
        }
    case 1:
        x = 2.0;
        break;
    default:
        x = 3.0;
    }
    do {
        x -= 1.0;
    } while (x > 0.0);
`)
}

func TestStatement_DeadLocal(t *testing.T) {
	f := newFixture()
	color := f.uniform("color", f.tt.Half4)
	dead := f.local("dead", f.tt.Half4)
	p := f.entry(t, ir.ProgramFragment, f.tt.Half4,
		ir.MakeVarDeclaration(f.ctx, noPos, dead, f.read(color)),
		ir.MakeReturn(f.ctx, noPos, f.read(color)))
	source := compile(t, p)

	mustContain(t, source, "    Outputs _out = {};\n    _out.sk_FragColor = _uniforms.color;\n")
}

func TestStatement_VoidMainReturn(t *testing.T) {
	f := newFixture()
	color := f.uniform("color", f.tt.Half4)
	fragColor := f.builtin("sk_FragColor", f.tt.Half4, ir.BuiltinFragColor)
	p := f.entry(t, ir.ProgramFragment, f.tt.Void,
		f.assign(fragColor, f.read(color)),
		ir.MakeReturn(f.ctx, noPos, nil))
	source := compile(t, p)

	mustContain(t, source, "    _out.sk_FragColor = _uniforms.color;\n    return _out;\n}\n")
}
