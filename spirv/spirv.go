// Package spirv is a data-only SPIR-V module builder (spec.md §4.3): id
// allocation, type/pointer/function-type/constant interning, decorations,
// entry points, and a binary encoder. It does not traverse the compiler's
// IR; package emit drives it.
package spirv

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// Options configures module generation.
type Options struct {
	Version      Version
	Capabilities []Capability
	Debug        bool
	Validation   bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Version:    Version1_3,
		Debug:      false,
		Validation: true,
	}
}

// Capability represents a SPIR-V capability.
type Capability uint32

const (
	CapabilityShader Capability = 1
	CapabilityInt8   Capability = 39
	CapabilityInt16  Capability = 22
	CapabilityInt64  Capability = 11
	CapabilityFloat16 Capability = 9
	CapabilityFloat64 Capability = 10
)

// Extension names required alongside certain capabilities (spec.md §4.3
// "Finalize"): 8/16-bit storage needs the matching SPV_KHR extension.
const (
	ExtKHR8BitStorage  = "SPV_KHR_8bit_storage"
	ExtKHR16BitStorage = "SPV_KHR_16bit_storage"
)

// MagicNumber and GeneratorID are the fixed header fields.
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // unregistered generator
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

const (
	OpNop                OpCode = 0
	OpSource             OpCode = 3
	OpSourceExtension    OpCode = 4
	OpName               OpCode = 5
	OpMemberName         OpCode = 6
	OpString             OpCode = 7
	OpExtension          OpCode = 10
	OpExtInstImport      OpCode = 11
	OpExtInst            OpCode = 12
	OpMemoryModel        OpCode = 14
	OpEntryPoint         OpCode = 15
	OpExecutionMode      OpCode = 16
	OpCapability         OpCode = 17
	OpTypeVoid           OpCode = 19
	OpTypeBool           OpCode = 20
	OpTypeInt            OpCode = 21
	OpTypeFloat          OpCode = 22
	OpTypeVector         OpCode = 23
	OpTypeMatrix         OpCode = 24
	OpTypeImage          OpCode = 25
	OpTypeSampler        OpCode = 26
	OpTypeSampledImage   OpCode = 27
	OpTypeArray          OpCode = 28
	OpTypeRuntimeArray   OpCode = 29
	OpTypeStruct         OpCode = 30
	OpTypePointer        OpCode = 32
	OpTypeFunction       OpCode = 33
	OpConstantTrue       OpCode = 41
	OpConstantFalse      OpCode = 42
	OpConstant           OpCode = 43
	OpConstantComposite  OpCode = 44
	OpConstantNull       OpCode = 46
	OpFunction           OpCode = 54
	OpFunctionParameter  OpCode = 55
	OpFunctionEnd        OpCode = 56
	OpFunctionCall       OpCode = 57
	OpVariable           OpCode = 59
	OpLoad               OpCode = 61
	OpStore              OpCode = 62
	OpAccessChain        OpCode = 65
	OpDecorate           OpCode = 71
	OpMemberDecorate     OpCode = 72
	OpVectorShuffle      OpCode = 79
	OpCompositeConstruct OpCode = 80
	OpCompositeExtract   OpCode = 81
	OpIAdd               OpCode = 128
	OpFAdd               OpCode = 129
	OpISub               OpCode = 130
	OpFSub               OpCode = 131
	OpIMul               OpCode = 132
	OpFMul               OpCode = 133
	OpUDiv               OpCode = 134
	OpSDiv               OpCode = 135
	OpFDiv               OpCode = 136
	OpUMod               OpCode = 137
	OpSRem               OpCode = 138
	OpSMod               OpCode = 139
	OpFMod               OpCode = 141
	OpLogicalOr          OpCode = 166
	OpLogicalAnd         OpCode = 167
	OpLogicalNot         OpCode = 168
	OpSelect             OpCode = 169
	OpIEqual             OpCode = 170
	OpINotEqual          OpCode = 171
	OpUGreaterThan       OpCode = 172
	OpSGreaterThan       OpCode = 173
	OpUGreaterThanEqual  OpCode = 174
	OpSGreaterThanEqual  OpCode = 175
	OpULessThan          OpCode = 176
	OpSLessThan          OpCode = 177
	OpULessThanEqual     OpCode = 178
	OpSLessThanEqual     OpCode = 179
	OpFOrdEqual          OpCode = 180
	OpFOrdNotEqual       OpCode = 182
	OpFOrdLessThan       OpCode = 184
	OpFOrdGreaterThan    OpCode = 186
	OpFOrdLessThanEqual  OpCode = 188
	OpFOrdGreaterThanEqual OpCode = 190
	OpShiftRightLogical     OpCode = 194
	OpShiftRightArithmetic  OpCode = 195
	OpShiftLeftLogical      OpCode = 196
	OpBitwiseOr             OpCode = 197
	OpBitwiseXor            OpCode = 198
	OpBitwiseAnd            OpCode = 199
	OpNot                   OpCode = 200
	OpBitcast               OpCode = 124
	OpConvertFToU        OpCode = 109
	OpConvertFToS        OpCode = 110
	OpConvertSToF        OpCode = 111
	OpConvertUToF        OpCode = 112
	OpUConvert           OpCode = 113
	OpSConvert           OpCode = 114
	OpFConvert           OpCode = 115
	OpPhi                OpCode = 245
	OpLoopMerge          OpCode = 246
	OpSelectionMerge     OpCode = 247
	OpLabel              OpCode = 248
	OpBranch             OpCode = 249
	OpBranchConditional  OpCode = 250
	OpReturn             OpCode = 253
	OpReturnValue        OpCode = 254
	OpControlBarrier     OpCode = 224
	OpMemoryBarrier      OpCode = 225
)

// Decoration represents a SPIR-V decoration.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationRowMajor      Decoration = 4
	DecorationColMajor      Decoration = 5
	DecorationArrayStride   Decoration = 6
	DecorationMatrixStride  Decoration = 7
	DecorationBuiltIn       Decoration = 11
	DecorationNonWritable   Decoration = 24
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassStorageBuffer   StorageClass = 12
	StorageClassFunction        StorageClass = 7
)

// AddressingModel represents a SPIR-V addressing model.
type AddressingModel uint32

const (
	AddressingModelLogical AddressingModel = 0
)

// MemoryModel represents a SPIR-V memory model.
type MemoryModel uint32

const (
	MemoryModelGLSL450 MemoryModel = 1
)

// ExecutionModel represents a SPIR-V shader stage.
type ExecutionModel uint32

const (
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode represents a SPIR-V execution mode.
type ExecutionMode uint32

const (
	ExecutionModeLocalSize ExecutionMode = 17
)

// FunctionControl represents SPIR-V function control flags.
type FunctionControl uint32

const (
	FunctionControlNone FunctionControl = 0
)

// SelectionControl represents SPIR-V selection control flags.
type SelectionControl uint32

const (
	SelectionControlNone SelectionControl = 0
)

// LoopControl represents SPIR-V loop control flags.
type LoopControl uint32

const (
	LoopControlNone LoopControl = 0
)

// Scope values for OpControlBarrier/OpMemoryBarrier (§execution/memory scope).
const (
	ScopeWorkgroup = uint32(2)
	ScopeDevice    = uint32(1)
)

// MemorySemantics flags for OpControlBarrier/OpMemoryBarrier.
const (
	MemorySemanticsWorkgroupMemory = uint32(0x100)
	MemorySemanticsAcquireRelease  = uint32(0x8)
)

// BuiltIn represents a SPIR-V BuiltIn decoration value.
type BuiltIn uint32

const (
	BuiltInLocalInvocationId BuiltIn = 27
	BuiltInWorkgroupId       BuiltIn = 26
	BuiltInGlobalInvocationId BuiltIn = 28
	BuiltInNumWorkgroups     BuiltIn = 24
)
