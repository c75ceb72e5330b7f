package codegen

import "github.com/gogpu/shade/ir"

// Queries answers the usage questions that shape generated code.
type Queries interface {
	// FunctionRequirements reports whether fn reaches globals, uniforms,
	// inputs, outputs or the fragment coordinate, directly or through
	// the functions it calls.
	FunctionRequirements(fn *ir.FunctionDeclaration) ir.Requirements

	// IsDeadVariable reports a variable that is never read and is not
	// part of the pipeline interface.
	IsDeadVariable(v *ir.Variable) bool
}

type usageQueries struct {
	usage *ir.ProgramUsage
}

// NewQueries answers queries from the usage computed for p.
func NewQueries(p *ir.Program) Queries {
	u := p.Usage
	if u == nil {
		u = ir.ComputeUsage(p)
		p.Usage = u
	}
	return usageQueries{usage: u}
}

func (q usageQueries) FunctionRequirements(fn *ir.FunctionDeclaration) ir.Requirements {
	return q.usage.FunctionRequirements(fn)
}

func (q usageQueries) IsDeadVariable(v *ir.Variable) bool {
	return q.usage.IsDead(v)
}
