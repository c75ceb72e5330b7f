package ir

import (
	"unsafe"

	"github.com/gogpu/shade/arena"
)

// DefaultMaxExpressionDepth bounds expression nesting during code
// generation.
const DefaultMaxExpressionDepth = 512

// Settings configure construction and code generation.
type Settings struct {
	// Optimize enables swizzle simplification and the other optional
	// canonicalizations.
	Optimize bool

	// ForceHighPrecision disables relaxed-precision decoration.
	ForceHighPrecision bool

	// MaxErrors caps the error reporter; 0 uses DefaultMaxErrors.
	MaxErrors int

	// MaxExpressionDepth bounds recursion in the backends; 0 uses
	// DefaultMaxExpressionDepth.
	MaxExpressionDepth int
}

// ExpressionDepth returns the effective depth limit.
func (s Settings) ExpressionDepth() int {
	if s.MaxExpressionDepth <= 0 {
		return DefaultMaxExpressionDepth
	}
	return s.MaxExpressionDepth
}

// Context carries the state shared by every node of one compilation.
// A Context is confined to one goroutine.
type Context struct {
	Types    *TypeTable
	Settings Settings
	Errors   *ErrorReporter

	arena      *arena.Arena
	intrinsics map[string]*FunctionDeclaration
}

// NewContext creates a context with a fresh type table and reporter.
func NewContext(settings Settings) *Context {
	return &Context{
		Types:    NewTypeTable(),
		Settings: settings,
		Errors:   NewErrorReporter(settings.MaxErrors),
	}
}

// Attach makes a the pool for nodes created through c. It panics if c
// already has an arena or a is attached to another context.
func (c *Context) Attach(a *arena.Arena) {
	if c.arena != nil {
		panic("ir: context already has an arena attached")
	}
	a.Attach()
	c.arena = a
}

// Detach releases the attached arena and returns it. Nodes keep their
// handles; they must be released before the arena is closed.
func (c *Context) Detach() *arena.Arena {
	a := c.arena
	if a == nil {
		panic("ir: detach with no arena attached")
	}
	a.Detach()
	c.arena = nil
	return a
}

// Arena returns the attached arena, or nil.
func (c *Context) Arena() *arena.Arena { return c.arena }

// track registers n in the attached arena, sized by its in-memory layout.
func track[T any, P interface {
	*T
	Node
}](c *Context, n P) P {
	if c != nil && c.arena != nil {
		n.base().handle = c.arena.Alloc(int(unsafe.Sizeof(*n)), n)
	}
	return n
}

// discard releases a single node whose children were taken over by a
// replacement.
func (c *Context) discard(n Node) {
	if c == nil || c.arena == nil || n == nil {
		return
	}
	b := n.base()
	if !b.handle.IsValid() {
		return
	}
	if _, ok := c.arena.Get(b.handle); !ok {
		return
	}
	c.arena.Free(b.handle)
	b.handle = arena.Handle{}
}

// Release returns n and everything beneath it to the arena.
func (c *Context) Release(n Node) {
	if n == nil {
		return
	}
	walkChildren(n, c.Release)
	c.discard(n)
}

// releaseAll releases each expression in es.
func (c *Context) releaseAll(es []Expression) {
	for _, e := range es {
		if e != nil {
			c.Release(e)
		}
	}
}
