package ir

// Requirements record which parts of the pipeline state a function
// touches, directly or through the functions it calls.
type Requirements uint8

const (
	RequireGlobals Requirements = 1 << iota
	RequireUniforms
	RequireInputs
	RequireOutputs
	RequireFragCoord
	RequireFrontFacing
)

// Has reports whether every requirement in r2 is present.
func (r Requirements) Has(r2 Requirements) bool { return r&r2 == r2 }

// VariableCounts tallies the references to one variable. A declaration
// with an initializer counts as a write.
type VariableCounts struct {
	Declared    int
	Read        int
	Write       int
	Initialized bool
}

// ProgramUsage is the result of walking a program once.
type ProgramUsage struct {
	vars     map[*Variable]*VariableCounts
	calls    map[*FunctionDeclaration]int
	reqs     map[*FunctionDeclaration]Requirements
	builtins map[int]int
}

// ComputeUsage counts variable references and calls and derives each
// function's requirements.
func ComputeUsage(p *Program) *ProgramUsage {
	u := &ProgramUsage{
		vars:     make(map[*Variable]*VariableCounts),
		calls:    make(map[*FunctionDeclaration]int),
		reqs:     make(map[*FunctionDeclaration]Requirements),
		builtins: make(map[int]int),
	}
	callees := make(map[*FunctionDeclaration][]*FunctionDeclaration)

	for _, e := range p.Elements {
		switch e := e.(type) {
		case *GlobalVarDeclaration:
			u.visit(e.Decl, nil, nil)
		case *InterfaceBlock:
			u.counts(e.Var).Declared++
		case *FunctionDefinition:
			fn := e.Decl
			for _, param := range fn.Params {
				u.counts(param).Declared++
			}
			if e.Body == nil {
				continue
			}
			var req Requirements
			u.visit(e.Body, &req, func(callee *FunctionDeclaration) {
				callees[fn] = append(callees[fn], callee)
			})
			u.reqs[fn] = req
		}
	}

	for changed := true; changed; {
		changed = false
		for fn, list := range callees {
			r := u.reqs[fn]
			for _, c := range list {
				r |= u.reqs[c]
			}
			if r != u.reqs[fn] {
				u.reqs[fn] = r
				changed = true
			}
		}
	}
	return u
}

func (u *ProgramUsage) counts(v *Variable) *VariableCounts {
	c, ok := u.vars[v]
	if !ok {
		c = &VariableCounts{}
		u.vars[v] = c
	}
	return c
}

// visit walks n, counting references. When req is non-nil the
// requirements of each reference are accumulated into it.
func (u *ProgramUsage) visit(n Node, req *Requirements, call func(*FunctionDeclaration)) {
	Inspect(n, func(n Node) bool {
		switch n := n.(type) {
		case *VarDeclaration:
			c := u.counts(n.Var)
			c.Declared++
			if n.Value != nil {
				c.Write++
				c.Initialized = true
			}
		case *VariableReference:
			v := n.Variable
			c := u.counts(v)
			switch n.Ref {
			case RefRead:
				c.Read++
			case RefWrite:
				c.Write++
			default:
				c.Read++
				c.Write++
			}
			if v.IsBuiltin() {
				u.builtins[v.Modifiers.Layout.Builtin]++
			}
			if req != nil {
				*req |= requirementsOf(v)
			}
		case *FunctionCall:
			u.calls[n.Function]++
			if call != nil && !n.Function.IsIntrinsic() {
				call(n.Function)
			}
		}
		return true
	})
}

func requirementsOf(v *Variable) Requirements {
	if v.Storage == StorageLocal || v.Storage == StorageParameter {
		return 0
	}
	var r Requirements
	switch v.Modifiers.Layout.Builtin {
	case BuiltinFragCoord:
		r |= RequireFragCoord
	case BuiltinClockwise:
		r |= RequireFrontFacing
	}
	switch {
	case v.IsUniform():
		r |= RequireUniforms
	case v.Modifiers.Has(FlagIn):
		r |= RequireInputs
	case v.Modifiers.Has(FlagOut), IsOutputBuiltin(v.Modifiers.Layout.Builtin):
		r |= RequireOutputs
	case v.Type().IsChild() || v.Type().IsSampler():
		r |= RequireUniforms
	case !v.IsConst():
		r |= RequireGlobals
	}
	return r
}

// Get returns the counts for v.
func (u *ProgramUsage) Get(v *Variable) VariableCounts {
	if c, ok := u.vars[v]; ok {
		return *c
	}
	return VariableCounts{}
}

// CallCount returns the number of calls to fn.
func (u *ProgramUsage) CallCount(fn *FunctionDeclaration) int { return u.calls[fn] }

// FunctionRequirements returns what fn needs, including through calls.
func (u *ProgramUsage) FunctionRequirements(fn *FunctionDeclaration) Requirements {
	return u.reqs[fn]
}

// UsesBuiltin reports whether any function references builtin id.
func (u *ProgramUsage) UsesBuiltin(id int) bool { return u.builtins[id] > 0 }

// IsDead reports a variable that is never read and never written other
// than by its initializer. Interface and builtin variables are never dead.
func (u *ProgramUsage) IsDead(v *Variable) bool {
	if v.IsInterface() || v.Storage == StorageInterfaceBlock {
		return false
	}
	c := u.Get(v)
	initial := 0
	if c.Initialized {
		initial = 1
	}
	return c.Read == 0 && c.Write <= initial
}
