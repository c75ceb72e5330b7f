package codegen

import "github.com/gogpu/shade/ir"

// ArgMode is how an argument binds to its parameter.
type ArgMode uint8

const (
	ArgIn ArgMode = iota
	ArgOut
	ArgInOut
)

func (m ArgMode) String() string {
	switch m {
	case ArgOut:
		return "out"
	case ArgInOut:
		return "inout"
	}
	return "in"
}

// ArgPlan is one step of lowering a call's arguments.
type ArgPlan struct {
	Index int
	Arg   ir.Expression
	Param *ir.Variable
	Mode  ArgMode

	// Temporary is set for out and inout arguments. The argument is
	// passed through a fresh local and copied back after the call.
	// In mode inout the local is initialized from the argument first.
	Temporary bool

	// Addressable is set when Arg names storage a backend can pass by
	// reference without a helper: a variable, or field and index chains
	// over one. Swizzles are never addressable.
	Addressable bool
}

// OutParams returns the argument plan for a call, in evaluation order.
func OutParams(fn *ir.FunctionDeclaration, args []ir.Expression) []ArgPlan {
	plans := make([]ArgPlan, len(args))
	for i, arg := range args {
		p := ArgPlan{Index: i, Arg: arg}
		if i < len(fn.Params) {
			p.Param = fn.Params[i]
			in, out := p.Param.Modifiers.Has(ir.FlagIn), p.Param.Modifiers.Has(ir.FlagOut)
			switch {
			case out && in:
				p.Mode = ArgInOut
			case out:
				p.Mode = ArgOut
			}
		}
		p.Temporary = p.Mode != ArgIn
		p.Addressable = IsAddressable(arg)
		plans[i] = p
	}
	return plans
}

// HasOutArguments reports whether any argument is written by the call.
func HasOutArguments(plans []ArgPlan) bool {
	for _, p := range plans {
		if p.Temporary {
			return true
		}
	}
	return false
}

// IsAddressable reports lvalues that denote contiguous storage.
func IsAddressable(e ir.Expression) bool {
	switch e := e.(type) {
	case *ir.VariableReference:
		return true
	case *ir.FieldAccess:
		return IsAddressable(e.Base)
	case *ir.IndexExpression:
		return IsAddressable(e.Base)
	}
	return false
}
