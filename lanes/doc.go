// Package lanes lowers an ir.Program to masked bytecode for a wide SIMD
// interpreter.
//
// Every value is split into 32-bit slots and every instruction operates on
// all lanes at once. Control flow becomes masking: an if statement runs
// both branches under complementary condition masks, loops and switches
// keep a region mask of the lanes still inside them, and returns switch
// lanes off through a per-function return mask. Stores only reach the
// lanes set in the current execution mask.
//
// Loops with a small static trip count are expanded inline. Other loops
// keep a back edge that is taken while any lane is still looping. Calls to
// user functions are expanded at each call site; recursion is reported as
// an error.
//
// Program.Run is a reference interpreter used by tests and by shadec to
// check lowered programs without a GPU.
//
// # Usage
//
//	prog, err := lanes.Compile(program, lanes.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	res, err := prog.Run(lanes.RunOptions{Lanes: 8, Uniforms: words})
package lanes
