// Package ir defines the typed intermediate representation consumed by the
// shade code generators.
//
// The IR is a tree of expressions and statements grouped into program
// elements. It is built once through the Make* factories, which fold
// constants and canonicalize constructors as nodes are created, and is then
// read by the backends without further rewriting.
//
// # Structure
//
// A Program holds:
//   - Elements: function definitions, global variables, interface blocks
//     and struct definitions, in declaration order
//   - Context: the type table, compiler settings and error reporter shared
//     by every node of the program
//   - Usage: read/write counts and per-function requirements used by the
//     backends to drop dead code and shape function signatures
//
// # Canonicalization
//
// The factories guarantee that:
//   - casts of a value to its own type are elided
//   - constant arguments produce constant trees of the destination type
//   - single-argument compounds of the same type collapse to the argument
//   - with Settings.Optimize, swizzles are simplified or regrouped into
//     smaller constructors when no side effect would be duplicated or lost
//
// Reapplying a factory to its own output returns the output unchanged.
//
// # Dispatch
//
// Expression and Statement are closed sets. ExpressionVisitor and
// StatementVisitor declare one method per kind, so a backend that
// implements them is checked by the compiler for exhaustive handling.
package ir
