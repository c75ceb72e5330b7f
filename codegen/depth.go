package codegen

import "github.com/gogpu/shade/ir"

// DepthGuard bounds recursion while lowering expressions. A program
// nested deeper than the limit is reported once as an error instead of
// exhausting the goroutine stack.
type DepthGuard struct {
	limit    int
	depth    int
	reported bool
	errors   *ir.ErrorReporter
}

// NewDepthGuard returns a guard that allows limit nested levels.
func NewDepthGuard(limit int, errs *ir.ErrorReporter) *DepthGuard {
	if limit <= 0 {
		limit = ir.DefaultMaxExpressionDepth
	}
	return &DepthGuard{limit: limit, errors: errs}
}

// Enter records one more level of nesting. It returns false, and does not
// record the level, once the limit is reached; the caller must then
// return a placeholder without recursing. Every successful Enter must be
// paired with Leave.
func (g *DepthGuard) Enter(pos ir.Position) bool {
	if g.depth >= g.limit {
		if !g.reported {
			g.reported = true
			g.errors.Error(pos, "expression is too deeply nested")
		}
		return false
	}
	g.depth++
	return true
}

// Leave pops one level.
func (g *DepthGuard) Leave() {
	if g.depth == 0 {
		panic("codegen: depth guard underflow")
	}
	g.depth--
}

// Depth returns the current nesting level.
func (g *DepthGuard) Depth() int { return g.depth }

// Tripped reports whether the limit was ever hit.
func (g *DepthGuard) Tripped() bool { return g.reported }
