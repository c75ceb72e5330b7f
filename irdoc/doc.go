// Package irdoc reads programs written as YAML documents and builds them
// through the ir factories, so every document gets the same checks and
// folding as a program built in code.
//
// A document lists struct types, uniform interface blocks, globals and
// functions:
//
//	kind: shader
//	globals:
//	  - {name: tint, type: half4, flags: [uniform]}
//	functions:
//	  - name: main
//	    returns: half4
//	    params:
//	      - {name: coords, type: float2}
//	    body:
//	      - return: [tint, "*", {new: half, args: [{swizzle: x, of: coords}]}]
//
// Errors are positioned at the YAML line and column of the node that
// caused them.
package irdoc
