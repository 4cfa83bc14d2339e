package spirv

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ScalarCode is the code half of a scalar type key; independent of the
// compiler's ir.Code so this package never imports ir (spec.md §4.3: "a
// data-only service").
type ScalarCode int

const (
	ScalarInt ScalarCode = iota
	ScalarUint
	ScalarFloat
	ScalarBool
)

type typeKey struct {
	kind   string // "scalar", "vector", "array", "runtime-array", "pointer", "function", "struct"
	code   ScalarCode
	bits   uint8
	lanes  uint16
	elem   uint32
	length uint32 // constant id, for array
	class  StorageClass
	ret    uint32
	params string // joined param ids, for function types
	name   string // struct symbolic name
}

type constKey struct {
	typeID uint32
	raw    uint64
	kind   string // "scalar", "bool", "null", "composite"
	parts  string // joined constituent ids, for composite
}

// Builder assembles one SPIR-V module's state: id allocation, interned
// type/pointer/function-type/constant tables, decorations, entry points,
// and ordered instruction sections (spec.md §4.3).
type Builder struct {
	ids     *idAllocator
	options Options

	capabilities map[Capability]bool
	capOrder     []Capability
	extensions   map[string]bool
	extOrder     []string
	extInstImports []Instruction
	glslImportID   uint32

	memoryModel *Instruction

	entryPoints    []Instruction
	entryPointByName map[string]uint32 // name -> function id, for dedup/lookup
	executionModes []Instruction

	debugStrings []Instruction
	debugNames   []Instruction
	annotations  []Instruction

	typeConstSection []Instruction
	typeIDs          map[typeKey]uint32
	constIDs         map[constKey]uint32
	structMembers    map[uint32][]uint32 // struct id -> member type ids, for MemberDecorate bookkeeping

	globalVars []Instruction

	functions       []Instruction
	curFuncOpen     bool
	curBlockOpen    bool
	curBlockTerminated bool
}

// NewBuilder creates an empty Builder targeting the given options.
func NewBuilder(options Options) *Builder {
	return &Builder{
		ids:              newIDAllocator(),
		options:          options,
		capabilities:     make(map[Capability]bool),
		extensions:       make(map[string]bool),
		entryPointByName: make(map[string]uint32),
		typeIDs:          make(map[typeKey]uint32),
		constIDs:         make(map[constKey]uint32),
		structMembers:    make(map[uint32][]uint32),
	}
}

// AllocID reserves a fresh id of the given kind (spec.md §4.3:
// "Reserving an id of a specific kind is allowed").
func (b *Builder) AllocID(kind IDKind) uint32 { return b.ids.alloc(kind) }

// AddCapability records a required capability, deduplicated.
func (b *Builder) AddCapability(cap Capability) {
	if b.capabilities[cap] {
		return
	}
	b.capabilities[cap] = true
	b.capOrder = append(b.capOrder, cap)
}

// AddExtension records a required extension by name, deduplicated.
func (b *Builder) AddExtension(name string) {
	if b.extensions[name] {
		return
	}
	b.extensions[name] = true
	b.extOrder = append(b.extOrder, name)
}

// GLSLExtImport returns (declaring on first use) the id of the
// "GLSL.std.450" extended-instruction-set import, used by the emitter for
// math intrinsics.
func (b *Builder) GLSLExtImport() uint32 {
	if b.glslImportID != 0 {
		return b.glslImportID
	}
	id := b.ids.alloc(IDKindExtInstImport)
	b.extInstImports = append(b.extInstImports, newInst().word(id).str("GLSL.std.450").build(OpExtInstImport))
	b.glslImportID = id
	return id
}

// SetMemoryModel records the module's addressing and memory model.
func (b *Builder) SetMemoryModel(addr AddressingModel, mem MemoryModel) {
	inst := newInst().word(uint32(addr)).word(uint32(mem)).build(OpMemoryModel)
	b.memoryModel = &inst
}

// AddEntryPoint records an entry point keyed by symbol name (spec.md §4.3:
// "Keyed by symbol name"). interfaces lists the interface-variable ids
// (globals of storage class Input/Output/Workgroup) the entry references.
func (b *Builder) AddEntryPoint(model ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	ib := newInst().word(uint32(model)).word(funcID).str(name)
	ib.words_(interfaces...)
	b.entryPoints = append(b.entryPoints, ib.build(OpEntryPoint))
	b.entryPointByName[name] = funcID
}

// EntryPointFunc looks up the function id previously registered for name.
func (b *Builder) EntryPointFunc(name string) (uint32, bool) {
	id, ok := b.entryPointByName[name]
	return id, ok
}

// AddExecutionMode records an execution mode on an entry point function.
func (b *Builder) AddExecutionMode(entryFunc uint32, mode ExecutionMode, params ...uint32) {
	ib := newInst().word(entryFunc).word(uint32(mode))
	ib.words_(params...)
	b.executionModes = append(b.executionModes, ib.build(OpExecutionMode))
}

// AddName records a debug name for id, when debug info is enabled.
func (b *Builder) AddName(id uint32, name string) {
	if !b.options.Debug {
		return
	}
	b.debugNames = append(b.debugNames, newInst().word(id).str(name).build(OpName))
}

// AddMemberName records a debug member name, when debug info is enabled.
func (b *Builder) AddMemberName(structID, member uint32, name string) {
	if !b.options.Debug {
		return
	}
	b.debugNames = append(b.debugNames, newInst().word(structID).word(member).str(name).build(OpMemberName))
}

// Decorate targets a decoration at id, stored in insertion order (spec.md
// §4.3: "Decorations ... emitted in the module's annotations section").
func (b *Builder) Decorate(id uint32, dec Decoration, params ...uint32) {
	ib := newInst().word(id).word(uint32(dec))
	ib.words_(params...)
	b.annotations = append(b.annotations, ib.build(OpDecorate))
}

// MemberDecorate targets a decoration at a struct member. It reports an
// *InvariantError if structID was never declared by DeclareStructType or
// member is out of range for it.
func (b *Builder) MemberDecorate(structID, member uint32, dec Decoration, params ...uint32) error {
	if err := b.CheckMemberIndex(structID, member); err != nil {
		return err
	}
	ib := newInst().word(structID).word(member).word(uint32(dec))
	ib.words_(params...)
	b.annotations = append(b.annotations, ib.build(OpMemberDecorate))
	return nil
}

// --- Types ---

// requireScalarCapability implicitly requires the capability an unusual
// scalar width needs (spec.md §4.3: "Allocating an 8/16/64-bit integer,
// 16/64-bit float ... implicitly requires the matching capability").
func (b *Builder) requireScalarCapability(code ScalarCode, bits uint8) {
	switch {
	case code == ScalarFloat && bits == 16:
		b.AddCapability(CapabilityFloat16)
	case code == ScalarFloat && bits == 64:
		b.AddCapability(CapabilityFloat64)
	case (code == ScalarInt || code == ScalarUint) && bits == 8:
		b.AddCapability(CapabilityInt8)
	case (code == ScalarInt || code == ScalarUint) && bits == 16:
		b.AddCapability(CapabilityInt16)
	case (code == ScalarInt || code == ScalarUint) && bits == 64:
		b.AddCapability(CapabilityInt64)
	}
}

// DeclareScalarType interns OpTypeBool/OpTypeInt/OpTypeFloat, keyed by
// (code, bits), requiring capabilities as needed.
func (b *Builder) DeclareScalarType(code ScalarCode, bits uint8) uint32 {
	key := typeKey{kind: "scalar", code: code, bits: bits}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	b.requireScalarCapability(code, bits)
	id := b.ids.alloc(IDKindType)
	var inst Instruction
	switch code {
	case ScalarBool:
		inst = newInst().word(id).build(OpTypeBool)
	case ScalarFloat:
		inst = newInst().word(id).word(uint32(bits)).build(OpTypeFloat)
	default:
		signed := uint32(0)
		if code == ScalarInt {
			signed = 1
		}
		inst = newInst().word(id).word(uint32(bits)).word(signed).build(OpTypeInt)
	}
	b.typeConstSection = append(b.typeConstSection, inst)
	b.typeIDs[key] = id
	return id
}

// DeclareVoidType interns OpTypeVoid, used for kernel entry-point function
// return types.
func (b *Builder) DeclareVoidType() uint32 {
	key := typeKey{kind: "void"}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	b.typeConstSection = append(b.typeConstSection, newInst().word(id).build(OpTypeVoid))
	b.typeIDs[key] = id
	return id
}

// DeclareVectorType interns OpTypeVector, keyed by (elem, lanes).
func (b *Builder) DeclareVectorType(elem uint32, lanes uint16) uint32 {
	key := typeKey{kind: "vector", elem: elem, lanes: lanes}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	b.typeConstSection = append(b.typeConstSection,
		newInst().word(id).word(elem).word(uint32(lanes)).build(OpTypeVector))
	b.typeIDs[key] = id
	return id
}

// DeclareArrayType interns OpTypeArray, keyed by (elem, lengthConstID).
func (b *Builder) DeclareArrayType(elem, lengthConstID uint32) uint32 {
	key := typeKey{kind: "array", elem: elem, length: lengthConstID}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	b.typeConstSection = append(b.typeConstSection,
		newInst().word(id).word(elem).word(lengthConstID).build(OpTypeArray))
	b.typeIDs[key] = id
	return id
}

// DeclareRuntimeArrayType interns OpTypeRuntimeArray, keyed by elem — the
// unsized per-buffer array a BufferBlock's trailing member uses.
func (b *Builder) DeclareRuntimeArrayType(elem uint32) uint32 {
	key := typeKey{kind: "runtime-array", elem: elem}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	b.typeConstSection = append(b.typeConstSection,
		newInst().word(id).word(elem).build(OpTypeRuntimeArray))
	b.typeIDs[key] = id
	return id
}

// DeclareStructType interns OpTypeStruct, keyed by the member-id sequence
// AND the symbolic name (spec.md §4.3: "collisions with the same members
// but a different name create a new struct").
func (b *Builder) DeclareStructType(name string, members []uint32) uint32 {
	key := typeKey{kind: "struct", name: name, params: joinIDs(members)}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	ib := newInst().word(id)
	ib.words_(members...)
	b.typeConstSection = append(b.typeConstSection, ib.build(OpTypeStruct))
	b.typeIDs[key] = id
	b.structMembers[id] = append([]uint32(nil), members...)
	if name != "" {
		b.AddName(id, name)
	}
	return id
}

// DeclarePointerType interns OpTypePointer, keyed by (base, storageClass).
// Callers must declare base before calling this (spec.md §4.3's
// declare-the-base-first behavior is naturally satisfied here since every
// base id this package hands out already has a defining instruction by
// construction).
func (b *Builder) DeclarePointerType(class StorageClass, base uint32) uint32 {
	key := typeKey{kind: "pointer", class: class, elem: base}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	b.typeConstSection = append(b.typeConstSection,
		newInst().word(id).word(uint32(class)).word(base).build(OpTypePointer))
	b.typeIDs[key] = id
	return id
}

// DeclareFunctionType interns OpTypeFunction, keyed by (ret, params...).
func (b *Builder) DeclareFunctionType(ret uint32, params []uint32) uint32 {
	key := typeKey{kind: "function", ret: ret, params: joinIDs(params)}
	if id, ok := b.typeIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindType)
	ib := newInst().word(id).word(ret)
	ib.words_(params...)
	b.typeConstSection = append(b.typeConstSection, ib.build(OpTypeFunction))
	b.typeIDs[key] = id
	return id
}

// --- Constants ---

// ConstBool interns OpConstantTrue/OpConstantFalse.
func (b *Builder) ConstBool(typeID uint32, val bool) uint32 {
	raw := uint64(0)
	if val {
		raw = 1
	}
	key := constKey{typeID: typeID, raw: raw, kind: "bool"}
	if id, ok := b.constIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindConstant)
	op := OpConstantFalse
	if val {
		op = OpConstantTrue
	}
	b.typeConstSection = append(b.typeConstSection, newInst().word(typeID).word(id).build(op))
	b.constIDs[key] = id
	return id
}

// ConstScalar interns OpConstant for an integer (raw holds the
// two's-complement bit pattern) or float (raw holds math.Float32bits /
// math.Float64bits) scalar, keyed by (typeID, raw bytes).
func (b *Builder) ConstScalar(typeID uint32, bits uint8, raw uint64) uint32 {
	key := constKey{typeID: typeID, raw: raw, kind: "scalar"}
	if id, ok := b.constIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindConstant)
	ib := newInst().word(typeID).word(id)
	if bits > 32 {
		ib.word(uint32(raw & 0xFFFFFFFF)).word(uint32(raw >> 32))
	} else {
		ib.word(uint32(raw))
	}
	b.typeConstSection = append(b.typeConstSection, ib.build(OpConstant))
	b.constIDs[key] = id
	return id
}

// ConstFloat32 interns a 32-bit float constant.
func (b *Builder) ConstFloat32(typeID uint32, v float32) uint32 {
	return b.ConstScalar(typeID, 32, uint64(math.Float32bits(v)))
}

// ConstFloat64 interns a 64-bit float constant.
func (b *Builder) ConstFloat64(typeID uint32, v float64) uint32 {
	return b.ConstScalar(typeID, 64, math.Float64bits(v))
}

// ConstNull interns OpConstantNull, keyed by typeID.
func (b *Builder) ConstNull(typeID uint32) uint32 {
	key := constKey{typeID: typeID, kind: "null"}
	if id, ok := b.constIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindConstant)
	b.typeConstSection = append(b.typeConstSection, newInst().word(typeID).word(id).build(OpConstantNull))
	b.constIDs[key] = id
	return id
}

// ConstComposite interns OpConstantComposite, keyed by (typeID,
// constituent ids): composites are built from already-declared scalar
// constants (spec.md §4.3).
func (b *Builder) ConstComposite(typeID uint32, constituents []uint32) uint32 {
	key := constKey{typeID: typeID, kind: "composite", parts: joinIDs(constituents)}
	if id, ok := b.constIDs[key]; ok {
		return id
	}
	id := b.ids.alloc(IDKindConstant)
	ib := newInst().word(typeID).word(id)
	ib.words_(constituents...)
	b.typeConstSection = append(b.typeConstSection, ib.build(OpConstantComposite))
	b.constIDs[key] = id
	return id
}

// --- Globals ---

// AddGlobalVariable emits OpVariable in the globals section.
func (b *Builder) AddGlobalVariable(pointerType uint32, class StorageClass) uint32 {
	id := b.ids.alloc(IDKindVariable)
	b.globalVars = append(b.globalVars,
		newInst().word(pointerType).word(id).word(uint32(class)).build(OpVariable))
	return id
}

// --- Functions and blocks ---

// DeclareFunction fixes (returnType, functionType, control, id) and
// automatically opens the function's entry block (spec.md §4.3:
// "creating a function automatically makes its entry block").
func (b *Builder) DeclareFunction(returnType, funcType uint32, control FunctionControl) uint32 {
	id := b.ids.alloc(IDKindFunction)
	b.functions = append(b.functions,
		newInst().word(returnType).word(id).word(uint32(control)).word(funcType).build(OpFunction))
	b.curFuncOpen = true
	b.NewBlock(b.ids.alloc(IDKindLabel))
	return id
}

// AddFunctionParameter emits OpFunctionParameter.
func (b *Builder) AddFunctionParameter(typeID uint32) uint32 {
	id := b.ids.alloc(IDKindValue)
	b.functions = append(b.functions, newInst().word(typeID).word(id).build(OpFunctionParameter))
	return id
}

// NewBlock opens a new basic block with label id. If the current block's
// tail is unterminated, it first emits an unconditional branch from the
// old tail to the new label (spec.md §4.3).
func (b *Builder) NewBlock(label uint32) uint32 {
	if b.curBlockOpen && !b.curBlockTerminated {
		b.Branch(label)
	}
	b.functions = append(b.functions, newInst().word(label).build(OpLabel))
	b.curBlockOpen = true
	b.curBlockTerminated = false
	return label
}

// EndFunction emits OpFunctionEnd, closing the current function.
func (b *Builder) EndFunction() {
	b.functions = append(b.functions, newInst().build(OpFunctionEnd))
	b.curFuncOpen = false
	b.curBlockOpen = false
}

func (b *Builder) emit(op OpCode, words ...uint32) {
	ib := newInst()
	ib.words_(words...)
	b.functions = append(b.functions, ib.build(op))
}

func (b *Builder) emitResult(op OpCode, resultType uint32, words ...uint32) uint32 {
	id := b.ids.alloc(IDKindValue)
	ib := newInst().word(resultType).word(id)
	ib.words_(words...)
	b.functions = append(b.functions, ib.build(op))
	return id
}

// Emit emits an arbitrary result-producing instruction with resultType
// and operands, for the handful of opcodes (OpCompositeExtract,
// OpVectorShuffle, ...) that don't warrant their own named helper.
func (b *Builder) Emit(op OpCode, resultType uint32, operands ...uint32) uint32 {
	return b.emitResult(op, resultType, operands...)
}

// Binary emits a binary-operator instruction and returns its result id.
func (b *Builder) Binary(op OpCode, resultType, lhs, rhs uint32) uint32 {
	return b.emitResult(op, resultType, lhs, rhs)
}

// Unary emits a unary-operator instruction and returns its result id.
func (b *Builder) Unary(op OpCode, resultType, operand uint32) uint32 {
	return b.emitResult(op, resultType, operand)
}

// Load emits OpLoad.
func (b *Builder) Load(resultType, pointer uint32) uint32 {
	return b.emitResult(OpLoad, resultType, pointer)
}

// Store emits OpStore.
func (b *Builder) Store(pointer, value uint32) {
	b.emit(OpStore, pointer, value)
}

// AccessChain emits OpAccessChain.
func (b *Builder) AccessChain(resultType, base uint32, indices ...uint32) uint32 {
	words := append([]uint32{base}, indices...)
	return b.emitResult(OpAccessChain, resultType, words...)
}

// LocalVariable declares a Function-storage-class local (OpVariable must
// appear first in the entry block per SPIR-V rules; emit is responsible
// for hoisting these calls before other body instructions).
func (b *Builder) LocalVariable(pointerType uint32) uint32 {
	id := b.ids.alloc(IDKindVariable)
	b.functions = append(b.functions, newInst().word(pointerType).word(id).word(uint32(StorageClassFunction)).build(OpVariable))
	return id
}

// Select emits OpSelect.
func (b *Builder) Select(resultType, cond, tVal, fVal uint32) uint32 {
	return b.emitResult(OpSelect, resultType, cond, tVal, fVal)
}

// CompositeConstruct emits OpCompositeConstruct.
func (b *Builder) CompositeConstruct(resultType uint32, constituents ...uint32) uint32 {
	return b.emitResult(OpCompositeConstruct, resultType, constituents...)
}

// ExtInst emits a GLSL.std.450 extended instruction call.
func (b *Builder) ExtInst(resultType, instruction uint32, operands ...uint32) uint32 {
	words := append([]uint32{b.GLSLExtImport(), instruction}, operands...)
	return b.emitResult(OpExtInst, resultType, words...)
}

// Phi emits OpPhi: pairs is a flattened (value, predecessor-label, ...) list.
func (b *Builder) Phi(resultType uint32, pairs ...uint32) uint32 {
	return b.emitResult(OpPhi, resultType, pairs...)
}

// SelectionMerge emits OpSelectionMerge ahead of a branch terminator.
func (b *Builder) SelectionMerge(mergeLabel uint32, control SelectionControl) {
	b.emit(OpSelectionMerge, mergeLabel, uint32(control))
}

// LoopMerge emits OpLoopMerge ahead of a branch terminator.
func (b *Builder) LoopMerge(mergeLabel, continueLabel uint32, control LoopControl) {
	b.emit(OpLoopMerge, mergeLabel, continueLabel, uint32(control))
}

// Branch emits an unconditional branch and terminates the current block.
func (b *Builder) Branch(target uint32) {
	b.emit(OpBranch, target)
	b.curBlockTerminated = true
}

// BranchConditional emits a conditional branch and terminates the block.
func (b *Builder) BranchConditional(cond, trueLabel, falseLabel uint32) {
	b.emit(OpBranchConditional, cond, trueLabel, falseLabel)
	b.curBlockTerminated = true
}

// Return emits OpReturn and terminates the block.
func (b *Builder) Return() {
	b.emit(OpReturn)
	b.curBlockTerminated = true
}

// ControlBarrier emits gpu_thread_barrier's workgroup execution+memory
// barrier (spec.md's GPU synchronization intrinsic).
func (b *Builder) ControlBarrier(execution, memory, semantics uint32) {
	b.emit(OpControlBarrier, execution, memory, semantics)
}

// --- Finalize & encode ---

// Finalize applies module-wide invariants that can only be checked once
// every declaration has happened: it requires SPV_KHR_8bit_storage /
// SPV_KHR_16bit_storage whenever Int8/Int16 capability was requested
// (spec.md §4.3 "Finalize").
func (b *Builder) Finalize() {
	if b.capabilities[CapabilityInt8] {
		b.AddExtension(ExtKHR8BitStorage)
	}
	if b.capabilities[CapabilityInt16] {
		b.AddExtension(ExtKHR16BitStorage)
	}
}

// Build finalizes and encodes the module to its binary SPIR-V form
// (spec.md §4.3 "Encoding"): header, then sections in the fixed order.
func (b *Builder) Build() ([]byte, error) {
	if b.memoryModel == nil {
		return nil, errors.New("spirv: Builder.Build: no memory model set")
	}
	b.Finalize()

	capInsts := make([]Instruction, len(b.capOrder))
	for i, c := range b.capOrder {
		capInsts[i] = newInst().word(uint32(c)).build(OpCapability)
	}
	extInsts := make([]Instruction, len(b.extOrder))
	for i, e := range b.extOrder {
		extInsts[i] = newInst().str(e).build(OpExtension)
	}

	bound := b.ids.bound()
	total := 5
	total += countWords(capInsts)
	total += countWords(extInsts)
	total += countWords(b.extInstImports)
	total += len(b.memoryModel.Words) + 1
	total += countWords(b.entryPoints)
	total += countWords(b.executionModes)
	total += countWords(b.debugStrings)
	total += countWords(b.debugNames)
	total += countWords(b.annotations)
	total += countWords(b.typeConstSection)
	total += countWords(b.globalVars)
	total += countWords(b.functions)

	buf := make([]byte, total*4)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], MagicNumber)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], versionWord(b.options.Version))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], GeneratorID)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], bound)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], 0) // schema
	off += 4

	off = appendInstructions(buf, off, capInsts)
	off = appendInstructions(buf, off, extInsts)
	off = appendInstructions(buf, off, b.extInstImports)
	off = appendInstructions(buf, off, []Instruction{*b.memoryModel})
	off = appendInstructions(buf, off, b.entryPoints)
	off = appendInstructions(buf, off, b.executionModes)
	off = appendInstructions(buf, off, b.debugStrings)
	off = appendInstructions(buf, off, b.debugNames)
	off = appendInstructions(buf, off, b.annotations)
	off = appendInstructions(buf, off, b.typeConstSection)
	off = appendInstructions(buf, off, b.globalVars)
	_ = appendInstructions(buf, off, b.functions)

	return buf, nil
}

func joinIDs(ids []uint32) string {
	buf := make([]byte, 0, len(ids)*5)
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint32(buf, id)
	}
	return string(buf)
}
