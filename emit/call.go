package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// gpuThreadBarrier is the compiler-recognized name for a workgroup
// execution-and-memory barrier (spec.md's GPU synchronization intrinsic),
// lowered to OpControlBarrier over the workgroup scope with an
// acquire-release workgroup-memory semantics mask.
const gpuThreadBarrier = "gpu_thread_barrier"

func (e *Emitter) emitCall(n *ir.Call) (uint32, error) {
	if n.Name == gpuThreadBarrier {
		return e.emitBarrier(n)
	}
	if inst, ok := glslInstructionFor(n); ok {
		args := make([]uint32, len(n.Args))
		for i, a := range n.Args {
			v, err := e.emitExpr(a)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return e.b.ExtInst(e.types.spirvType(n.Typ), inst, args...), nil
	}
	return 0, unsupportedf("call to %q (not an intrinsic, barrier, or known math builtin)", n.Name)
}

func (e *Emitter) emitBarrier(n *ir.Call) (uint32, error) {
	u32 := e.types.spirvType(ir.U32)
	scope := e.b.ConstScalar(u32, 32, uint64(spirv.ScopeWorkgroup))
	semantics := e.b.ConstScalar(u32, 32, uint64(spirv.MemorySemanticsWorkgroupMemory|spirv.MemorySemanticsAcquireRelease))
	e.b.ControlBarrier(scope, scope, semantics)
	return 0, nil
}
