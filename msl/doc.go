// Package msl generates Metal Shading Language source from an ir.Program.
//
// The generated file has a fixed layout:
//
//	#include <metal_stdlib>
//	struct ...        user structs, then Uniforms, Inputs, Outputs, Globals
//	prototypes        every reachable user function
//	helpers           synthesized functions and operators, memoized by key
//	constants         file-scope constant globals
//	functions         user functions, then the entry point
//
// Metal has no mutable program-scope storage, so the entry point owns the
// environment. Uniforms and interface blocks arrive in constant buffers,
// stage inputs in Inputs, and samplers, input builtins and private globals
// are gathered into a Globals struct built on entry. Every other function
// receives by reference only the parts of the environment it reaches,
// directly or through its callees.
//
// Constructs Metal cannot spell directly are lowered through helpers:
// matrix construction from mixed arguments, matrix resizing and casts,
// matrix and composite equality, matrix division and matrix-scalar
// arithmetic, GLSL mod, integer sign and bit scans, and wrappers for out
// arguments that cannot bind to a thread reference, such as swizzles.
//
// # Usage
//
//	source, info, err := msl.Compile(program, msl.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(info.EntryPoint) // fragmentMain
package msl
