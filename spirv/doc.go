// This file collects usage notes for package spirv; see spirv.go for the
// package doc comment.
//
// # Building a module
//
//	b := spirv.NewBuilder(spirv.DefaultOptions())
//	b.AddCapability(spirv.CapabilityShader)
//	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//
//	f32 := b.DeclareScalarType(spirv.ScalarFloat, 32)
//	vec4 := b.DeclareVectorType(f32, 4)
//
//	binary, err := b.Build()
//
// Every Declare*/Const* call interns its result: calling DeclareScalarType
// twice with the same (code, bits) returns the same id rather than
// emitting a duplicate OpType instruction, matching the deduplication
// rules SPIR-V producers are expected to follow.
//
// # Structure
//
// A built module's word stream is, in order: header (magic, version,
// generator, bound, schema), capabilities, extensions, extended
// instruction imports, memory model, entry points, execution modes, debug
// strings/names, annotations, types and constants, global variables, and
// finally function bodies.
//
// package emit walks the compiler's IR and drives a Builder one
// instruction at a time; this package itself never looks at that IR.
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv
