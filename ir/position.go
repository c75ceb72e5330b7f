package ir

import (
	"fmt"

	"github.com/gogpu/shade/arena"
)

// Position is a source location. The zero value means unknown.
type Position struct {
	Line   int32
	Column int32
}

// Pos constructs a Position.
func Pos(line, column int32) Position {
	return Position{Line: line, Column: column}
}

// Valid reports whether the position points into source.
func (p Position) Valid() bool { return p.Line > 0 }

// Before orders positions by line, then column.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every IR element.
type Node interface {
	Position() Position
	Handle() arena.Handle
	base() *node
}

type node struct {
	pos    Position
	handle arena.Handle
}

// Position returns where the node came from.
func (n *node) Position() Position { return n.pos }

// Handle returns the arena handle, or the zero Handle when the node was
// built without an attached arena.
func (n *node) Handle() arena.Handle { return n.handle }

func (n *node) base() *node { return n }
