package codegen

import "github.com/gogpu/shade/ir"

// Generator is implemented by every backend. Generate walks the program
// once and reports whether the artifact is usable.
type Generator interface {
	Generate() bool
}

// Base carries the state every backend needs while walking a program.
type Base struct {
	Program *ir.Program
	Context *ir.Context
	Errors  *ir.ErrorReporter
	Depth   *DepthGuard
	Queries Queries

	backend string
}

// NewBase prepares the shared state for lowering p with the named backend.
func NewBase(p *ir.Program, backend string) Base {
	ctx := p.Context
	return Base{
		Program: p,
		Context: ctx,
		Errors:  ctx.Errors,
		Depth:   NewDepthGuard(ctx.Settings.ExpressionDepth(), ctx.Errors),
		Queries: NewQueries(p),
		backend: backend,
	}
}

// Types returns the program's type table.
func (b *Base) Types() *ir.TypeTable { return b.Context.Types }

// Errorf reports a malformed-input error at pos.
func (b *Base) Errorf(pos ir.Position, format string, args ...any) {
	b.Errors.Errorf(pos, format, args...)
}

// Unsupported reports a construct the backend cannot express.
func (b *Base) Unsupported(pos ir.Position, what string) {
	b.Errors.Errorf(pos, "%s is not supported by the %s backend", what, b.backend)
}

// Failed reports whether any error has been recorded.
func (b *Base) Failed() bool { return b.Errors.HasErrors() }

// Unreachable panics for a node the backend provably never sees.
func Unreachable(n ir.Node) {
	ir.Internalf(n.Position(), "codegen: unexpected %T", n)
}
