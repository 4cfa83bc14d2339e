package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// builtinComponent loads dim (0=x, 1=y, 2=z) out of the uvec3 Input
// variable for b, declaring that variable (once) and registering it as
// an entry-point interface id on first use.
func (e *Emitter) builtinComponent(b spirv.BuiltIn, dim int) uint32 {
	gv := e.builtinVar(b)
	vec3 := e.types.spirvType(ir.U32.WithLanes(3))
	loaded := e.b.Load(vec3, gv)
	return e.b.Emit(spirv.OpCompositeExtract, e.types.spirvType(ir.U32), loaded, uint32(dim))
}

func (e *Emitter) builtinVar(b spirv.BuiltIn) uint32 {
	if gv, ok := e.builtinVars[b]; ok {
		return gv
	}
	vec3 := e.types.spirvType(ir.U32.WithLanes(3))
	ptr := e.b.DeclarePointerType(spirv.StorageClassInput, vec3)
	gv := e.b.AddGlobalVariable(ptr, spirv.StorageClassInput)
	e.b.Decorate(gv, spirv.DecorationBuiltIn, uint32(b))
	if e.builtinVars == nil {
		e.builtinVars = make(map[spirv.BuiltIn]uint32)
	}
	e.builtinVars[b] = gv
	e.interfaces = append(e.interfaces, gv)
	return gv
}

// builtinForLoop reports the SPIR-V builtin a GPU-bound For loop's Kind
// reads from, mirroring gpuSuffixes' thread/block distinction but keyed
// on the For node's own Kind field rather than a name suffix.
func builtinForLoop(kind ir.ForKind) (spirv.BuiltIn, bool) {
	switch kind {
	case ir.ForGPUThread:
		return spirv.BuiltInLocalInvocationId, true
	case ir.ForGPUBlock:
		return spirv.BuiltInWorkgroupId, true
	default:
		return 0, false
	}
}
