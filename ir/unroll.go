package ir

// MaxUnrollCount bounds the trip count of loops considered statically
// analyzable.
const MaxUnrollCount = 100000

// LoopUnrollInfoFor returns the static trip count of f, or nil when f is
// not of the form
//
//	for (T i = c0; i relop c1; i++ | i-- | i += c | i -= c)
//
// with a body that never writes i.
func LoopUnrollInfoFor(f *ForStatement) *LoopUnrollInfo {
	decl, ok := f.Init.(*VarDeclaration)
	if !ok || decl.Value == nil || f.Test == nil || f.Next == nil {
		return nil
	}
	index := decl.Var
	if t := index.Type(); !t.IsScalar() || !t.IsNumber() {
		return nil
	}
	start, ok := GetConstantValue(decl.Value)
	if !ok {
		return nil
	}

	test, ok := f.Test.(*BinaryExpression)
	if !ok || !test.Op.IsComparison() || !refersTo(test.Left, index) {
		return nil
	}
	limit, ok := GetConstantValue(test.Right)
	if !ok {
		return nil
	}

	var delta float64
	switch next := f.Next.(type) {
	case *PrefixExpression:
		if !refersTo(next.Operand, index) {
			return nil
		}
		delta = stepOf(next.Op)
	case *PostfixExpression:
		if !refersTo(next.Operand, index) {
			return nil
		}
		delta = stepOf(next.Op)
	case *BinaryExpression:
		if !refersTo(next.Left, index) {
			return nil
		}
		v, ok := GetConstantValue(next.Right)
		if !ok {
			return nil
		}
		switch next.Op {
		case OpPlusEq:
			delta = v
		case OpMinusEq:
			delta = -v
		}
	}
	if delta == 0 {
		return nil
	}
	if writesVariable(f.Body, index) {
		return nil
	}

	count := 0
	for v := start; compare(test.Op, v, limit); v += delta {
		count++
		if count > MaxUnrollCount {
			return nil
		}
	}
	return &LoopUnrollInfo{Index: index, Start: start, Delta: delta, Count: count}
}

func refersTo(e Expression, v *Variable) bool {
	ref, ok := e.(*VariableReference)
	return ok && ref.Variable == v
}

func stepOf(op Operator) float64 {
	switch op {
	case OpPlusPlus:
		return 1
	case OpMinusMinus:
		return -1
	}
	return 0
}

func compare(op Operator, a, b float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLtEq:
		return a <= b
	case OpGtEq:
		return a >= b
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	}
	return false
}

// writesVariable reports whether any reference beneath n may write v.
func writesVariable(n Node, v *Variable) bool {
	if n == nil {
		return false
	}
	found := false
	Inspect(n, func(n Node) bool {
		if ref, ok := n.(*VariableReference); ok && ref.Variable == v && ref.Ref != RefRead {
			found = true
		}
		return !found
	})
	return found
}
