package ir

// StatementKind identifies the concrete type of a Statement.
type StatementKind uint8

const (
	StmtBlock StatementKind = iota
	StmtVarDeclaration
	StmtIf
	StmtFor
	StmtDo
	StmtSwitch
	StmtReturn
	StmtBreak
	StmtContinue
	StmtDiscard
	StmtExpression
	StmtNop
)

// Statement is an executable node. The set of implementations is closed;
// see StatementVisitor.
type Statement interface {
	Node
	Kind() StatementKind
}

// BlockKind records how a block was written.
type BlockKind uint8

const (
	BlockUnbraced BlockKind = iota
	BlockBraced
	BlockCompound
)

// Block is a statement list. IsScope marks blocks that open a scope.
type Block struct {
	node
	BlockKind  BlockKind
	Statements []Statement
	IsScope    bool
}

// VarDeclaration declares a local or global variable with an optional
// initializer.
type VarDeclaration struct {
	node
	Var   *Variable
	Value Expression
}

// IfStatement branches on Test. IfFalse may be nil.
type IfStatement struct {
	node
	Test    Expression
	IfTrue  Statement
	IfFalse Statement
}

// LoopUnrollInfo describes a loop with a statically known trip count.
type LoopUnrollInfo struct {
	Index *Variable
	Start float64
	Delta float64
	Count int
}

// ForStatement is a for loop. Init, Test and Next may be nil. Unroll is
// set when the loop has a statically known trip count.
type ForStatement struct {
	node
	Init   Statement
	Test   Expression
	Next   Expression
	Body   Statement
	Unroll *LoopUnrollInfo
}

// DoStatement is a do-while loop.
type DoStatement struct {
	node
	Body Statement
	Test Expression
}

// SwitchCase is one labelled section of a switch.
type SwitchCase struct {
	node
	IsDefault bool
	Value     int64
	Body      Statement
}

// SwitchStatement dispatches on an integer value. Cases fall through
// unless they break.
type SwitchStatement struct {
	node
	Value Expression
	Cases []*SwitchCase
}

// ReturnStatement returns from the current function. Value may be nil.
type ReturnStatement struct {
	node
	Value Expression
}

// BreakStatement leaves the innermost loop or switch.
type BreakStatement struct{ node }

// ContinueStatement starts the next iteration of the innermost loop.
type ContinueStatement struct{ node }

// DiscardStatement kills the current fragment.
type DiscardStatement struct{ node }

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	node
	Expr Expression
}

// Nop does nothing.
type Nop struct{ node }

func (*Block) Kind() StatementKind               { return StmtBlock }
func (*VarDeclaration) Kind() StatementKind      { return StmtVarDeclaration }
func (*IfStatement) Kind() StatementKind         { return StmtIf }
func (*ForStatement) Kind() StatementKind        { return StmtFor }
func (*DoStatement) Kind() StatementKind         { return StmtDo }
func (*SwitchStatement) Kind() StatementKind     { return StmtSwitch }
func (*ReturnStatement) Kind() StatementKind     { return StmtReturn }
func (*BreakStatement) Kind() StatementKind      { return StmtBreak }
func (*ContinueStatement) Kind() StatementKind   { return StmtContinue }
func (*DiscardStatement) Kind() StatementKind    { return StmtDiscard }
func (*ExpressionStatement) Kind() StatementKind { return StmtExpression }
func (*Nop) Kind() StatementKind                 { return StmtNop }

// IsEmpty reports whether a statement does nothing.
func IsEmpty(s Statement) bool {
	switch s := s.(type) {
	case nil:
		return true
	case *Nop:
		return true
	case *Block:
		for _, child := range s.Statements {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	}
	return false
}

// StatementVisitor handles every statement kind.
type StatementVisitor interface {
	VisitBlock(*Block)
	VisitVarDeclaration(*VarDeclaration)
	VisitIf(*IfStatement)
	VisitFor(*ForStatement)
	VisitDo(*DoStatement)
	VisitSwitch(*SwitchStatement)
	VisitReturn(*ReturnStatement)
	VisitBreak(*BreakStatement)
	VisitContinue(*ContinueStatement)
	VisitDiscard(*DiscardStatement)
	VisitExpressionStatement(*ExpressionStatement)
	VisitNop(*Nop)
}

// VisitStatement dispatches s to the matching visitor method.
func VisitStatement(s Statement, v StatementVisitor) {
	switch s := s.(type) {
	case *Block:
		v.VisitBlock(s)
	case *VarDeclaration:
		v.VisitVarDeclaration(s)
	case *IfStatement:
		v.VisitIf(s)
	case *ForStatement:
		v.VisitFor(s)
	case *DoStatement:
		v.VisitDo(s)
	case *SwitchStatement:
		v.VisitSwitch(s)
	case *ReturnStatement:
		v.VisitReturn(s)
	case *BreakStatement:
		v.VisitBreak(s)
	case *ContinueStatement:
		v.VisitContinue(s)
	case *DiscardStatement:
		v.VisitDiscard(s)
	case *ExpressionStatement:
		v.VisitExpressionStatement(s)
	case *Nop:
		v.VisitNop(s)
	default:
		internalf(s.Position(), "unhandled statement %T", s)
	}
}
