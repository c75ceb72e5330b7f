// Package codegen holds the pieces shared by every shade backend.
//
// Each backend walks a finished *ir.Program with the same recursive shape:
// a lowerExpression function returning a backend-specific Value (a module
// id, a text fragment or a list of lane handles) and a lowerStatement
// function that emits code and updates the backend's control state.
// This package provides the parts of that walk that do not depend on the
// target:
//
//   - OpTable, the binary-operator table keyed by operand number kind, and
//     ClassifyBinary, which routes matrix, vector/scalar and composite
//     equality operands to their special paths
//   - ReciprocalDivisor, the x / k to x * (1/k) strength reduction
//   - OutParams, the argument plan for out and inout parameters
//   - DepthGuard, which bounds expression recursion
//   - Queries, the usage questions backends ask to shape signatures and
//     drop dead declarations
//
// Backends report malformed input through the program's ir.ErrorReporter
// and keep walking. Generate returns false once any error was recorded.
package codegen
