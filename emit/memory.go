package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// addressOf computes the pointer to buffer[index]: an AccessChain into
// the device buffer's runtime-array member (member 0), or into the
// packed uniform struct's scalar member, matching how each was declared
// in kernel.go.
func (e *Emitter) addressOf(buffer string, index ir.Expr) (uint32, error) {
	bind, ok := e.buffers[buffer]
	if !ok {
		return 0, unsupportedf("reference to undeclared buffer %q", buffer)
	}
	u32 := e.types.spirvType(ir.U32)
	switch bind.class {
	case spirv.StorageClassStorageBuffer:
		idx, err := e.emitExpr(index)
		if err != nil {
			return 0, err
		}
		zero := e.b.ConstScalar(u32, 32, 0)
		return e.b.AccessChain(bind.pointerElem, bind.globalVar, zero, idx), nil
	case spirv.StorageClassFunction:
		// A scratch allocation (ir.Allocate): a flat Function-storage
		// array indexed directly, no wrapping block struct.
		idx, err := e.emitExpr(index)
		if err != nil {
			return 0, err
		}
		return e.b.AccessChain(bind.pointerElem, bind.globalVar, idx), nil
	default:
		member := e.b.ConstScalar(u32, 32, uint64(bind.memberIndex))
		return e.b.AccessChain(bind.pointerElem, bind.globalVar, member), nil
	}
}

func (e *Emitter) emitLoad(n *ir.Load) (uint32, error) {
	if n.Pred != nil {
		return 0, unsupported("predicated Load reached the emitter unscalarized")
	}
	ptr, err := e.addressOf(n.Buffer, n.Index)
	if err != nil {
		return 0, err
	}
	return e.b.Load(e.types.spirvType(n.Typ), ptr), nil
}

func (e *Emitter) emitStore(n *ir.Store) error {
	if n.Pred != nil {
		return unsupported("predicated Store reached the emitter unscalarized")
	}
	ptr, err := e.addressOf(n.Buffer, n.Index)
	if err != nil {
		return err
	}
	v, err := e.emitExpr(n.Value)
	if err != nil {
		return err
	}
	e.b.Store(ptr, v)
	return nil
}
