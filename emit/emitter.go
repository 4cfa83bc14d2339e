package emit

import (
	"github.com/kforge/kforge/intrin"
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
	"github.com/pkg/errors"
)

// symbol records where a named value (Var/Let binding, buffer argument,
// loop induction variable) lives: either a pointer id to load/store
// through, or a plain SSA value id already holding the value.
type symbol struct {
	typ       ir.Type
	pointer   uint32 // 0 if this binding has no backing storage
	pointerTy uint32
	value     uint32 // valid when pointer == 0
}

// bufferBinding records how one Kernel.Args entry was wired into the
// module: a device buffer's own storage-buffer block, or a member of the
// kernel's packed uniform scalar-argument struct (spec.md §4.4 "Argument
// binding").
type bufferBinding struct {
	buf         ir.Buffer
	globalVar   uint32
	pointerElem uint32 // pointer-to-elem type, for AccessChain results
	class       spirv.StorageClass
	memberIndex uint32 // meaningful only for a uniform scalar argument
}

// Emitter walks one ir.Module and drives a spirv.Builder, one entry point
// per ir.Kernel (spec.md §4.4).
type Emitter struct {
	b       *spirv.Builder
	types   *typeTable
	scope   map[string]symbol
	buffers map[string]*bufferBinding
	descs   []DescriptorSet

	builtinVars map[spirv.BuiltIn]uint32
	interfaces  []uint32
}

// NewEmitter creates an Emitter targeting a fresh spirv.Builder with the
// given options.
func NewEmitter(options spirv.Options) *Emitter {
	b := spirv.NewBuilder(options)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
	return &Emitter{
		b:     b,
		types: newTypeTable(b),
		scope: make(map[string]symbol),
	}
}

// EmitModule recognizes and emits every kernel in m, returning the
// SPIR-V binary and the side-car descriptor-set header data.
func EmitModule(m *ir.Module, options spirv.Options) ([]byte, []DescriptorSet, error) {
	e := NewEmitter(options)
	for _, k := range m.Kernels {
		if err := e.emitKernel(k); err != nil {
			return nil, nil, errors.Wrapf(err, "emit: kernel %q", k.Name)
		}
	}
	bin, err := e.b.Build()
	if err != nil {
		return nil, nil, err
	}
	return bin, e.descs, nil
}

// lookup resolves name in the current scope, erroring if it is unbound —
// spec.md's trees never reference a name that both LetStmt/For binding
// and argument wiring didn't introduce first.
func (e *Emitter) lookup(name string) (symbol, error) {
	s, ok := e.scope[name]
	if !ok {
		return symbol{}, errors.Errorf("emit: reference to unbound name %q", name)
	}
	return s, nil
}

// recognizeAndLower rewrites e's intrinsic calls via intrin.Recognize and
// expands anything the recognizer left unfolded via intrin.Lower, so the
// emitter's own Call dispatch only ever sees plain arithmetic plus the
// small math/barrier name table in glsl.go.
func recognizeAndLower(expr ir.Expr) (ir.Expr, error) {
	expr = intrin.Recognize(expr)
	var lowerErr error
	out := ir.TransformExpr(expr, func(node ir.Expr) ir.Expr {
		call, ok := node.(*ir.Call)
		if !ok || !ir.IsIntrinsic(call.Name) {
			return node
		}
		lowered, err := intrin.Lower(call)
		if err != nil {
			if lowerErr == nil {
				lowerErr = err
			}
			return node
		}
		return lowered
	})
	if lowerErr != nil {
		return nil, lowerErr
	}
	return out, nil
}
