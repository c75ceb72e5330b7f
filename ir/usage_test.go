package ir

import "testing"

func TestComputeUsage(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	// uniform half u;
	// half g;
	// half helper() { return u; }
	// half4 main() { half unused = 1.0; g = helper(); return half4(g); }
	u := globalVar("u", tt.Half, FlagUniform)
	g := globalVar("g", tt.Half, 0)
	unused := localVar("unused", tt.Half)

	helper := NewFunctionDeclaration(noPos, "helper", nil, tt.Half, DefaultModifiers())
	helperDef := NewFunctionDefinition(ctx, noPos, helper, MakeBlock(ctx, noPos, BlockBraced, []Statement{
		MakeReturn(ctx, noPos, read(ctx, u)),
	}, true))

	entry := NewFunctionDeclaration(noPos, "main", nil, tt.Half4, DefaultModifiers())
	assign := MakeBinary(ctx, noPos, read(ctx, g), OpAssign, MakeFunctionCall(ctx, noPos, helper, nil))
	mainDef := NewFunctionDefinition(ctx, noPos, entry, MakeBlock(ctx, noPos, BlockBraced, []Statement{
		MakeVarDeclaration(ctx, noPos, unused, MakeLiteral(ctx, noPos, 1, tt.Half)),
		MakeExpressionStatement(ctx, noPos, assign),
		MakeReturn(ctx, noPos, MakeConstructor(ctx, noPos, tt.Half4, []Expression{read(ctx, g)})),
	}, true))

	p := NewProgram(ctx, ProgramFragment, []ProgramElement{
		NewGlobalVarDeclaration(ctx, MakeVarDeclaration(ctx, noPos, u, nil)),
		NewGlobalVarDeclaration(ctx, MakeVarDeclaration(ctx, noPos, g, nil)),
		helperDef,
		mainDef,
	})
	if err := ctx.Errors.Err(); err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	usage := p.Usage

	if got := usage.FunctionRequirements(helper); got != RequireUniforms {
		t.Errorf("helper requirements = %b, want uniforms only", got)
	}
	if got := usage.FunctionRequirements(entry); got != RequireGlobals|RequireUniforms {
		t.Errorf("main requirements = %b, want globals and uniforms", got)
	}
	if got := usage.CallCount(helper); got != 1 {
		t.Errorf("CallCount(helper) = %d, want 1", got)
	}

	tests := []struct {
		v    *Variable
		dead bool
	}{
		{unused, true},
		{g, false},
		{u, false},
	}
	for _, tc := range tests {
		if got := usage.IsDead(tc.v); got != tc.dead {
			t.Errorf("IsDead(%s) = %v, want %v (%+v)", tc.v.Name, got, tc.dead, usage.Get(tc.v))
		}
	}

	if c := usage.Get(g); c.Read != 1 || c.Write != 1 || c.Declared != 1 {
		t.Errorf("counts for g = %+v, want one declaration, one read and one write", c)
	}

	p.Release()
	closeTestContext(t, ctx)
}

func TestComputeUsage_Builtins(t *testing.T) {
	ctx := newTestContext(t, false)
	tt := ctx.Types

	mods := Modifiers{Flags: FlagIn, Layout: DefaultLayout()}
	mods.Layout.Builtin = BuiltinFragCoord
	coord := NewVariable(noPos, "sk_FragCoord", tt.Float4, mods, StorageGlobal)

	entry := NewFunctionDeclaration(noPos, "main", nil, tt.Half4, DefaultModifiers())
	ret := MakeReturn(ctx, noPos, MakeConstructor(ctx, noPos, tt.Half4, []Expression{read(ctx, coord)}))
	def := NewFunctionDefinition(ctx, noPos, entry, MakeBlock(ctx, noPos, BlockBraced, []Statement{ret}, true))

	p := NewProgram(ctx, ProgramFragment, []ProgramElement{
		NewGlobalVarDeclaration(ctx, MakeVarDeclaration(ctx, noPos, coord, nil)),
		def,
	})
	if err := ctx.Errors.Err(); err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if !p.Usage.UsesBuiltin(BuiltinFragCoord) {
		t.Error("UsesBuiltin(FragCoord) = false, want true")
	}
	if req := p.Usage.FunctionRequirements(entry); !req.Has(RequireFragCoord | RequireInputs) {
		t.Errorf("main requirements = %b, want frag coord and inputs", req)
	}
	if p.Usage.IsDead(coord) {
		t.Error("builtin input reported dead")
	}

	p.Release()
	closeTestContext(t, ctx)
}
