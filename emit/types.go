package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
)

// typeTable maps ir.Type values to already-declared spirv type ids, kept
// alongside the Builder's own structural intern tables so the emitter
// never re-derives a (code, bits, lanes) decomposition twice.
type typeTable struct {
	b     *spirv.Builder
	cache map[ir.Type]uint32
	named map[string]uint32
}

func newTypeTable(b *spirv.Builder) *typeTable {
	return &typeTable{b: b, cache: make(map[ir.Type]uint32)}
}

// spirvType declares (or returns the cached id for) t's SPIR-V type.
func (tt *typeTable) spirvType(t ir.Type) uint32 {
	if id, ok := tt.cache[t]; ok {
		return id
	}
	var id uint32
	switch {
	case t.IsHandle():
		id = 0 // void; OpTypeVoid is declared lazily by voidType()
	case t.IsScalar():
		id = tt.scalarType(t)
	default:
		elem := tt.spirvType(t.ElementOf())
		id = tt.b.DeclareVectorType(elem, t.Lanes())
	}
	tt.cache[t] = id
	return id
}

func (tt *typeTable) scalarType(t ir.Type) uint32 {
	switch t.Code() {
	case ir.Bool:
		return tt.b.DeclareScalarType(spirv.ScalarBool, 1)
	case ir.Int:
		return tt.b.DeclareScalarType(spirv.ScalarInt, t.Bits())
	case ir.Uint:
		return tt.b.DeclareScalarType(spirv.ScalarUint, t.Bits())
	case ir.Float:
		return tt.b.DeclareScalarType(spirv.ScalarFloat, t.Bits())
	default:
		panic("emit: scalarType: unhandled code")
	}
}

// voidType declares (once) and returns OpTypeVoid's id, used for kernel
// entry-point function return types.
func (tt *typeTable) voidType() uint32 {
	const cacheKey = "void"
	if id, ok := tt.named[cacheKey]; ok {
		return id
	}
	id := tt.b.DeclareVoidType()
	if tt.named == nil {
		tt.named = make(map[string]uint32)
	}
	tt.named[cacheKey] = id
	return id
}
