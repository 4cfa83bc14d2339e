package emit

import (
	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
	"github.com/pkg/errors"
)

// emitKernel compiles one Kernel into an OpEntryPoint function: fresh
// per-kernel scope/buffer tables, argument binding, local-variable
// hoisting, body emission, then execution-mode/descriptor bookkeeping.
func (e *Emitter) emitKernel(k *ir.Kernel) error {
	if err := ir.ValidateKernel(k); err != nil {
		return err
	}
	body, err := lowerKernelBody(k.Body)
	if err != nil {
		return errors.Wrap(err, "lowering intrinsics")
	}
	body = scalarizePredicated(body)

	e.scope = make(map[string]symbol)
	e.buffers = make(map[string]*bufferBinding)
	e.interfaces = nil

	voidTy := e.types.voidType()
	fnTy := e.b.DeclareFunctionType(voidTy, nil)
	fn := e.b.DeclareFunction(voidTy, fnTy, spirv.FunctionControlNone)
	e.b.AddName(fn, k.Name)

	alloc := newDescriptorAllocator()
	desc := DescriptorSet{EntryPointName: k.Name}
	if err := e.bindArgs(k.Args, alloc, &desc); err != nil {
		return err
	}
	if err := e.hoistLocals(body); err != nil {
		return err
	}
	if err := e.emitStmt(body); err != nil {
		return err
	}
	e.b.Return()
	e.b.EndFunction()

	e.b.AddEntryPoint(spirv.ExecutionModelGLCompute, fn, k.Name, e.interfaces)
	e.b.AddExecutionMode(fn, spirv.ExecutionModeLocalSize,
		atLeastOne(k.Threads.X), atLeastOne(k.Threads.Y), atLeastOne(k.Threads.Z))

	e.descs = append(e.descs, desc)
	return nil
}

func atLeastOne(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// bindArgs wires k.Args into the module: every device buffer becomes its
// own StorageBuffer-class runtime-array block; every scalar argument
// becomes a member of one shared Uniform-class struct (spec.md §4.4
// "Argument binding", §9 "Kernel argument packing").
func (e *Emitter) bindArgs(args []ir.Buffer, alloc *descriptorAllocator, desc *DescriptorSet) error {
	var scalars []ir.Buffer
	for _, a := range args {
		if !a.Device {
			scalars = append(scalars, a)
		}
	}
	if len(scalars) > 0 {
		if err := e.bindUniformArgs(scalars, alloc); err != nil {
			return err
		}
		desc.UniformBufferCount++
	}
	for _, a := range args {
		if !a.Device {
			continue
		}
		if err := e.bindDeviceBuffer(a, alloc); err != nil {
			return err
		}
		desc.StorageBufferCount++
	}
	return nil
}

func (e *Emitter) bindDeviceBuffer(a ir.Buffer, alloc *descriptorAllocator) error {
	elemTy := e.types.spirvType(a.Elem)
	arrTy := e.b.DeclareRuntimeArrayType(elemTy)
	e.b.Decorate(arrTy, spirv.DecorationArrayStride, a.Elem.Bytes())

	structTy := e.b.DeclareStructType(a.Name+".block", []uint32{arrTy})
	if err := e.b.MemberDecorate(structTy, 0, spirv.DecorationOffset, 0); err != nil {
		return err
	}
	e.b.Decorate(structTy, spirv.DecorationBlock)

	ptrTy := e.b.DeclarePointerType(spirv.StorageClassStorageBuffer, structTy)
	gv := e.b.AddGlobalVariable(ptrTy, spirv.StorageClassStorageBuffer)
	e.b.AddName(gv, a.Name)
	e.b.Decorate(gv, spirv.DecorationDescriptorSet, 0)
	e.b.Decorate(gv, spirv.DecorationBinding, alloc.next_())

	e.buffers[a.Name] = &bufferBinding{
		buf:         a,
		globalVar:   gv,
		pointerElem: e.b.DeclarePointerType(spirv.StorageClassStorageBuffer, elemTy),
		class:       spirv.StorageClassStorageBuffer,
	}
	return nil
}

// bindUniformArgs packs scalars into one struct with natural-alignment
// Offset decorations, one shared global variable, and one descriptor
// binding.
func (e *Emitter) bindUniformArgs(scalars []ir.Buffer, alloc *descriptorAllocator) error {
	members := make([]uint32, len(scalars))
	offset := uint32(0)
	offsets := make([]uint32, len(scalars))
	for i, a := range scalars {
		sz := a.Elem.Bytes()
		offset = alignUp(offset, sz)
		offsets[i] = offset
		members[i] = e.types.spirvType(a.Elem)
		offset += sz
	}

	structTy := e.b.DeclareStructType("kernel_args", members)
	for i, off := range offsets {
		if err := e.b.MemberDecorate(structTy, uint32(i), spirv.DecorationOffset, off); err != nil {
			return err
		}
	}
	e.b.Decorate(structTy, spirv.DecorationBlock)

	ptrTy := e.b.DeclarePointerType(spirv.StorageClassUniform, structTy)
	gv := e.b.AddGlobalVariable(ptrTy, spirv.StorageClassUniform)
	e.b.AddName(gv, "kernel_args")
	e.b.Decorate(gv, spirv.DecorationDescriptorSet, 0)
	e.b.Decorate(gv, spirv.DecorationBinding, alloc.next_())

	for i, a := range scalars {
		e.buffers[a.Name] = &bufferBinding{
			buf:         a,
			globalVar:   gv,
			pointerElem: e.b.DeclarePointerType(spirv.StorageClassUniform, members[i]),
			class:       spirv.StorageClassUniform,
			memberIndex: uint32(i),
		}
	}
	return nil
}

func alignUp(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) / align * align
}

// lowerKernelBody applies recognizeAndLower to every expression reachable
// from body, preserving statement structure. Run once per kernel, before
// scalarizePredicated and hoistLocals.
func lowerKernelBody(s ir.Stmt) (ir.Stmt, error) {
	switch n := s.(type) {
	case nil:
		return nil, nil
	case *ir.Store:
		idx, err := recognizeAndLower(n.Index)
		if err != nil {
			return nil, err
		}
		val, err := recognizeAndLower(n.Value)
		if err != nil {
			return nil, err
		}
		var pred ir.Expr
		if n.Pred != nil {
			if pred, err = recognizeAndLower(n.Pred); err != nil {
				return nil, err
			}
		}
		return &ir.Store{Buffer: n.Buffer, Index: idx, Value: val, Pred: pred}, nil
	case *ir.LetStmt:
		val, err := recognizeAndLower(n.Value)
		if err != nil {
			return nil, err
		}
		body, err := lowerKernelBody(n.Body)
		if err != nil {
			return nil, err
		}
		return ir.NewLetStmt(n.Name, val, body), nil
	case *ir.For:
		min, err := recognizeAndLower(n.Min)
		if err != nil {
			return nil, err
		}
		extent, err := recognizeAndLower(n.Extent)
		if err != nil {
			return nil, err
		}
		body, err := lowerKernelBody(n.Body)
		if err != nil {
			return nil, err
		}
		return ir.NewFor(n.Var, n.Kind, n.Dim, min, extent, body), nil
	case *ir.IfThenElse:
		cond, err := recognizeAndLower(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := lowerKernelBody(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := lowerKernelBody(n.Else)
		if err != nil {
			return nil, err
		}
		return ir.NewIfThenElse(cond, then, els), nil
	case *ir.Allocate:
		extent, err := recognizeAndLower(n.Extent)
		if err != nil {
			return nil, err
		}
		body, err := lowerKernelBody(n.Body)
		if err != nil {
			return nil, err
		}
		return ir.NewAllocate(n.Name, n.Elem, extent, n.Memory, body), nil
	case *ir.Free:
		return n, nil
	case *ir.Evaluate:
		x, err := recognizeAndLower(n.X)
		if err != nil {
			return nil, err
		}
		return ir.NewEvaluate(x), nil
	case *ir.AssertStmt:
		cond, err := recognizeAndLower(n.Cond)
		if err != nil {
			return nil, err
		}
		return ir.NewAssertStmt(cond, n.Message), nil
	case *ir.Block:
		stmts := make([]ir.Stmt, len(n.Stmts))
		for i, st := range n.Stmts {
			out, err := lowerKernelBody(st)
			if err != nil {
				return nil, err
			}
			stmts[i] = out
		}
		return ir.NewBlock(stmts...), nil
	default:
		return nil, unsupportedf("statement node %T", s)
	}
}

// hoistLocals pre-declares the Function-storage OpVariable every Allocate
// and serial For in body will need, before any other body instruction is
// emitted (spirv.Builder.LocalVariable's ordering requirement).
func (e *Emitter) hoistLocals(s ir.Stmt) error {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.Allocate:
		if err := e.hoistAllocate(n); err != nil {
			return err
		}
		return e.hoistLocals(n.Body)
	case *ir.For:
		if n.Kind == ir.ForSerial {
			e.hoistForVar(n)
		}
		return e.hoistLocals(n.Body)
	case *ir.LetStmt:
		return e.hoistLocals(n.Body)
	case *ir.IfThenElse:
		if err := e.hoistLocals(n.Then); err != nil {
			return err
		}
		return e.hoistLocals(n.Else)
	case *ir.Block:
		for _, st := range n.Stmts {
			if err := e.hoistLocals(st); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (e *Emitter) hoistForVar(n *ir.For) {
	ty := e.types.spirvType(n.Var.ExprType())
	ptrTy := e.b.DeclarePointerType(spirv.StorageClassFunction, ty)
	ptr := e.b.LocalVariable(ptrTy)
	e.scope[n.Var.Name] = symbol{typ: n.Var.ExprType(), pointer: ptr, pointerTy: ty}
}

func (e *Emitter) hoistAllocate(n *ir.Allocate) error {
	imm, ok := n.Extent.(*ir.Imm)
	if !ok {
		return unsupportedf("Allocate %q: only a literal Extent is supported", n.Name)
	}
	var length uint64
	switch imm.Kind {
	case ir.ImmInt:
		length = uint64(imm.I)
	case ir.ImmUint:
		length = imm.U
	default:
		return unsupportedf("Allocate %q: non-integer Extent", n.Name)
	}

	elemTy := e.types.spirvType(n.Elem)
	u32 := e.types.spirvType(ir.U32)
	lengthConst := e.b.ConstScalar(u32, 32, length)
	arrTy := e.b.DeclareArrayType(elemTy, lengthConst)
	ptrArrTy := e.b.DeclarePointerType(spirv.StorageClassFunction, arrTy)
	arrVar := e.b.LocalVariable(ptrArrTy)

	e.buffers[n.Name] = &bufferBinding{
		globalVar:   arrVar,
		pointerElem: e.b.DeclarePointerType(spirv.StorageClassFunction, elemTy),
		class:       spirv.StorageClassFunction,
	}
	return nil
}
