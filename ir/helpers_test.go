package ir

import (
	"testing"

	"github.com/gogpu/shade/arena"
)

var noPos = Position{}

// newTestContext returns a context with a fresh arena attached. The arena
// is closed at the end of the test and any node still live fails it.
func newTestContext(t *testing.T, optimize bool) *Context {
	t.Helper()
	ctx := NewContext(Settings{Optimize: optimize})
	ctx.Attach(arena.New())
	return ctx
}

// closeTestContext detaches the arena and reports leaked nodes.
func closeTestContext(t *testing.T, ctx *Context) {
	t.Helper()
	a := ctx.Detach()
	if err := a.Close(); err != nil {
		t.Errorf("Close() = %v, want no leaks", err)
	}
}

func localVar(name string, typ *Type) *Variable {
	return NewVariable(noPos, name, typ, DefaultModifiers(), StorageLocal)
}

func globalVar(name string, typ *Type, flags ModifierFlags) *Variable {
	return NewVariable(noPos, name, typ, Modifiers{Flags: flags, Layout: DefaultLayout()}, StorageGlobal)
}

func read(ctx *Context, v *Variable) Expression {
	return MakeVariableReference(ctx, noPos, v, RefRead)
}

func floatLit(ctx *Context, v float64) Expression {
	return MakeLiteral(ctx, noPos, v, ctx.Types.Float)
}

func intLit(ctx *Context, v int64) Expression {
	return MakeIntLiteral(ctx, noPos, v, ctx.Types.Int)
}

func slotsOf(t *testing.T, e Expression) []float64 {
	t.Helper()
	n := e.Type().SlotCount()
	out := make([]float64, n)
	for i := range n {
		v, ok := ConstantSlot(e, i)
		if !ok {
			t.Fatalf("ConstantSlot(%s, %d) is not constant", Description(e), i)
		}
		out[i] = v
	}
	return out
}

func firstError(ctx *Context) string {
	errs := ctx.Errors.Errors()
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Message
}
