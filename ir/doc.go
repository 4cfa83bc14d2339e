// Package ir defines the typed intermediate representation shared by the
// intrinsic recognizer/lowerer (package intrin) and the SPIR-V emitter
// (package emit).
//
// The IR is a tree of tagged-union expression and statement nodes, each
// carrying its own [Type]. Sharing between subtrees is expressed
// explicitly with Let/LetStmt bindings rather than with parent/child
// back-references or a shared arena: passes walk the tree top-down and
// bottom-up with plain recursive functions (see TransformExpr and
// TransformStmt).
//
//	k := ir.NewKernel("brighten", []ir.Buffer{{Name: "x", Elem: ir.U8, Device: true}},
//		ir.Dim3{X: 4, Y: 1, Z: 1}, ir.Dim3{X: 64, Y: 1, Z: 1})
//	i := ir.NewVar("i", ir.I32)
//	k.Body = ir.GPUThread(i, 0, ir.Int64(ir.I32, 0), ir.Int64(ir.I32, 64),
//		ir.NewStore("x", i, ir.NewAdd(ir.NewLoad(ir.U8, "x", i), ir.Uint64(ir.U8, 1))))
package ir
