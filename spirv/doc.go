// Package spirv lowers a checked program to a SPIR-V binary module.
//
// Compile is the usual entry point:
//
//	words, err := spirv.Compile(program, spirv.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The generator emits one entry point named "main" targeting the Vulkan
// environment. Types are deduplicated structurally, so float and half
// share a SPIR-V type and half values carry RelaxedPrecision instead.
// Constants are memoized by content. Top-level uniforms are gathered into
// a single std140 block, or a push-constant block when
// Options.UsePushConstants is set.
//
// Fragment programs that read sk_FragCoord, sk_Clockwise or take a y
// derivative read a float2 sk_RTFlip uniform so the result matches a
// bottom-left origin render target.
//
// # Module writer
//
// ModuleBuilder assembles instructions into the logical sections of a
// module and serializes them:
//
//	b := spirv.NewModuleBuilder(spirv.Version1_3)
//	b.AddCapability(spirv.CapabilityShader)
//	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//	binary := b.Bytes()
//
// # Decoding
//
// Decode and Disassemble read a module back, for tests and the spvdis
// tool.
package spirv
