package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kforge/kforge/emit"
)

const spirvMagic = 0x07230203

var opcodeNames = map[uint16]string{
	0: "OpNop", 1: "OpUndef", 2: "OpSourceContinued", 3: "OpSource",
	4: "OpSourceExtension", 5: "OpName", 6: "OpMemberName", 7: "OpString",
	10: "OpExtension", 11: "OpExtInstImport", 12: "OpExtInst",
	14: "OpMemoryModel", 15: "OpEntryPoint", 16: "OpExecutionMode",
	17: "OpCapability", 19: "OpTypeVoid", 20: "OpTypeBool",
	21: "OpTypeInt", 22: "OpTypeFloat", 23: "OpTypeVector",
	24: "OpTypeMatrix", 28: "OpTypeArray", 29: "OpTypeRuntimeArray",
	30: "OpTypeStruct", 32: "OpTypePointer", 33: "OpTypeFunction",
	43: "OpConstant", 44: "OpConstantComposite", 46: "OpConstantNull",
	54: "OpFunction", 55: "OpFunctionParameter", 56: "OpFunctionEnd",
	57: "OpFunctionCall", 59: "OpVariable",
	61: "OpLoad", 62: "OpStore", 65: "OpAccessChain",
	66: "OpInBoundsAccessChain", 71: "OpDecorate", 72: "OpMemberDecorate",
	79: "OpVectorShuffle", 80: "OpCompositeConstruct", 81: "OpCompositeExtract",
	82: "OpCompositeInsert", 83: "OpCopyObject",
	109: "OpConvertFToU", 110: "OpConvertFToS", 111: "OpConvertSToF",
	112: "OpConvertUToF", 113: "OpUConvert", 114: "OpSConvert",
	115: "OpFConvert", 124: "OpBitcast",
	126: "OpSNegate", 127: "OpFNegate", 128: "OpIAdd", 129: "OpFAdd",
	130: "OpISub", 131: "OpFSub", 132: "OpIMul", 133: "OpFMul",
	134: "OpUDiv", 135: "OpSDiv", 136: "OpFDiv", 137: "OpUMod",
	138: "OpSRem", 139: "OpSMod", 140: "OpFRem", 141: "OpFMod",
	169: "OpSelect", 170: "OpIEqual", 171: "OpINotEqual",
	172: "OpUGreaterThan", 173: "OpSGreaterThan", 174: "OpUGreaterThanEqual",
	175: "OpSGreaterThanEqual", 176: "OpULessThan", 177: "OpSLessThan",
	178: "OpULessThanEqual", 179: "OpSLessThanEqual",
	180: "OpFOrdEqual", 182: "OpFOrdNotEqual",
	194: "OpShiftRightLogical", 195: "OpShiftRightArithmetic",
	196: "OpShiftLeftLogical", 197: "OpBitwiseOr", 198: "OpBitwiseXor",
	199: "OpBitwiseAnd", 200: "OpNot",
	245: "OpPhi", 246: "OpLoopMerge", 247: "OpSelectionMerge",
	248: "OpLabel", 249: "OpBranch", 250: "OpBranchConditional",
	251: "OpSwitch", 253: "OpReturn", 254: "OpReturnValue",
	255: "OpUnreachable", 224: "OpControlBarrier", 225: "OpMemoryBarrier",
	327: "OpGroupNonUniformAny",
}

var capabilities = map[uint32]string{
	0: "Matrix", 1: "Shader", 4: "Addresses", 5: "Linkage", 6: "Kernel",
	9: "Float16", 10: "Float64", 11: "Int64", 22: "Int16", 39: "Int8",
}

var storageClasses = map[uint32]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
	8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
	12: "StorageBuffer",
}

var decorations = map[uint32]string{
	0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock",
	6: "ArrayStride", 7: "MatrixStride", 11: "BuiltIn",
	22: "Constant", 30: "Location", 33: "Binding", 34: "DescriptorSet",
	35: "Offset", 44: "Alignment",
}

var builtins = map[uint32]string{
	26: "WorkgroupId", 27: "LocalInvocationId", 28: "GlobalInvocationId",
	29: "LocalInvocationIndex", 24: "NumWorkgroups", 25: "WorkgroupSize",
}

var executionModels = map[uint32]string{
	0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
}

var executionModes = map[uint32]string{
	17: "LocalSize", 18: "LocalSizeHint",
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file.kmod|file.spv>",
		Short: "Print a .spvasm-style disassembly of a compiled kernel's SPIR-V body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %q", path)
			}

			body := raw
			if len(raw) < 4 || binary.LittleEndian.Uint32(raw[0:4]) != spirvMagic {
				sets, consumed, err := emit.DecodeHeader(raw)
				if err != nil {
					return errors.Wrapf(err, "%q is neither raw SPIR-V nor a valid .kmod header", path)
				}
				for _, ds := range sets {
					cmd.Printf("; entry point %s: uniform=%d storage=%d\n",
						ds.EntryPointName, ds.UniformBufferCount, ds.StorageBufferCount)
				}
				body = raw[consumed:]
			}

			return disassemble(cmd, body)
		},
	}
}

// disassemble walks a raw SPIR-V binary word stream and prints a .spvasm-like
// text rendering, one instruction per line, adapted from a standalone
// SPIR-V disassembler with its shading-specific opcode table trimmed to
// the compute-only surface emit.EmitModule actually generates.
func disassemble(cmd *cobra.Command, data []byte) error {
	if len(data) < 20 {
		return errors.New("SPIR-V body too small to contain a module header")
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != spirvMagic {
		return errors.Errorf("invalid SPIR-V magic: 0x%08X", magic)
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	bound := binary.LittleEndian.Uint32(data[12:16])
	cmd.Printf("; SPIR-V\n; Version: %d.%d\n; Generator: 0x%08X\n; Bound: %d\n; Schema: %d\n\n",
		(version>>16)&0xFF, (version>>8)&0xFF, binary.LittleEndian.Uint32(data[8:12]), bound,
		binary.LittleEndian.Uint32(data[16:20]))

	offset := 20
	for offset < len(data) {
		if offset+4 > len(data) {
			break
		}
		word := binary.LittleEndian.Uint32(data[offset:])
		opcode := uint16(word & 0xFFFF)
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount*4 > len(data) {
			return errors.Errorf("invalid word count %d at offset 0x%X", wordCount, offset)
		}

		ops := make([]uint32, wordCount-1)
		for i := range ops {
			ops[i] = binary.LittleEndian.Uint32(data[offset+4+i*4:])
		}

		name := opcodeNames[opcode]
		if name == "" {
			name = fmt.Sprintf("Op%d", opcode)
		}
		printInstruction(cmd, name, opcode, ops, data, offset)
		offset += wordCount * 4
	}
	return nil
}

func spvID(n uint32) string { return fmt.Sprintf("%%_%d", n) }

func lookup(m map[uint32]string, v uint32) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%d", v)
}

func readString(data []byte, offset int, maxWords int) (string, int) {
	var sb strings.Builder
	for i := 0; i < maxWords*4; i++ {
		if offset+i >= len(data) {
			break
		}
		b := data[offset+i]
		if b == 0 {
			return sb.String(), (i / 4) + 1
		}
		sb.WriteByte(b)
	}
	return sb.String(), maxWords
}

//nolint:gocyclo // one line per SPIR-V opcode shape, mirrors the SPIR-V spec's own instruction table
func printInstruction(cmd *cobra.Command, name string, opcode uint16, ops []uint32, data []byte, offset int) {
	switch opcode {
	case 17: // OpCapability
		cmd.Printf("               %s %s\n", name, lookup(capabilities, ops[0]))
	case 14: // OpMemoryModel
		addr := map[uint32]string{0: "Logical", 1: "Physical32", 2: "Physical64"}
		mem := map[uint32]string{0: "Simple", 1: "GLSL450", 3: "Vulkan"}
		cmd.Printf("               %s %s %s\n", name, lookup(addr, ops[0]), lookup(mem, ops[1]))
	case 15: // OpEntryPoint
		model := lookup(executionModels, ops[0])
		str, strWords := readString(data, offset+12, len(ops)-2)
		cmd.Printf("               %s %s %s \"%s\"", name, model, spvID(ops[1]), str)
		for i := 2 + strWords; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case 16: // OpExecutionMode
		cmd.Printf("               %s %s %s", name, spvID(ops[0]), lookup(executionModes, ops[1]))
		for i := 2; i < len(ops); i++ {
			cmd.Printf(" %d", ops[i])
		}
		cmd.Println()
	case 5: // OpName
		str, _ := readString(data, offset+8, len(ops)-1)
		cmd.Printf("               %s %s \"%s\"\n", name, spvID(ops[0]), str)
	case 71: // OpDecorate
		dec := lookup(decorations, ops[1])
		cmd.Printf("               %s %s %s", name, spvID(ops[0]), dec)
		if ops[1] == 11 && len(ops) > 2 {
			cmd.Printf(" %s", lookup(builtins, ops[2]))
		} else {
			for i := 2; i < len(ops); i++ {
				cmd.Printf(" %d", ops[i])
			}
		}
		cmd.Println()
	case 72: // OpMemberDecorate
		dec := lookup(decorations, ops[2])
		cmd.Printf("               %s %s %d %s", name, spvID(ops[0]), ops[1], dec)
		for i := 3; i < len(ops); i++ {
			cmd.Printf(" %d", ops[i])
		}
		cmd.Println()
	case 21: // OpTypeInt
		sign := "0"
		if ops[2] == 1 {
			sign = "1"
		}
		cmd.Printf("         %s = %s %d %s\n", spvID(ops[0]), name, ops[1], sign)
	case 22: // OpTypeFloat
		cmd.Printf("         %s = %s %d\n", spvID(ops[0]), name, ops[1])
	case 23, 24: // OpTypeVector, OpTypeMatrix
		cmd.Printf("         %s = %s %s %d\n", spvID(ops[0]), name, spvID(ops[1]), ops[2])
	case 28: // OpTypeArray
		cmd.Printf("         %s = %s %s %s\n", spvID(ops[0]), name, spvID(ops[1]), spvID(ops[2]))
	case 29: // OpTypeRuntimeArray
		cmd.Printf("         %s = %s %s\n", spvID(ops[0]), name, spvID(ops[1]))
	case 30: // OpTypeStruct
		cmd.Printf("         %s = %s", spvID(ops[0]), name)
		for i := 1; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case 32: // OpTypePointer
		cmd.Printf("         %s = %s %s %s\n", spvID(ops[0]), name, lookup(storageClasses, ops[1]), spvID(ops[2]))
	case 33: // OpTypeFunction
		cmd.Printf("         %s = %s %s", spvID(ops[0]), name, spvID(ops[1]))
		for i := 2; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case 43: // OpConstant
		cmd.Printf("         %s = %s %s %d\n", spvID(ops[1]), name, spvID(ops[0]), ops[2])
	case 44: // OpConstantComposite
		cmd.Printf("         %s = %s %s", spvID(ops[1]), name, spvID(ops[0]))
		for i := 2; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case 54: // OpFunction
		cmd.Printf("         %s = %s %s None %s\n", spvID(ops[1]), name, spvID(ops[0]), spvID(ops[3]))
	case 56: // OpFunctionEnd
		cmd.Printf("               %s\n", name)
	case 59: // OpVariable
		cmd.Printf("         %s = %s %s %s\n", spvID(ops[1]), name, spvID(ops[0]), lookup(storageClasses, ops[2]))
	case 61: // OpLoad
		cmd.Printf("         %s = %s %s %s\n", spvID(ops[1]), name, spvID(ops[0]), spvID(ops[2]))
	case 62: // OpStore
		cmd.Printf("               %s %s %s\n", name, spvID(ops[0]), spvID(ops[1]))
	case 65, 66: // OpAccessChain, OpInBoundsAccessChain
		cmd.Printf("         %s = %s %s %s", spvID(ops[1]), name, spvID(ops[0]), spvID(ops[2]))
		for i := 3; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case 246: // OpLoopMerge
		cmd.Printf("               %s %s %s %d\n", name, spvID(ops[0]), spvID(ops[1]), ops[2])
	case 247: // OpSelectionMerge
		cmd.Printf("               %s %s %d\n", name, spvID(ops[0]), ops[1])
	case 248: // OpLabel
		cmd.Printf("         %s = %s\n", spvID(ops[0]), name)
	case 249: // OpBranch
		cmd.Printf("               %s %s\n", name, spvID(ops[0]))
	case 250: // OpBranchConditional
		cmd.Printf("               %s %s %s %s\n", name, spvID(ops[0]), spvID(ops[1]), spvID(ops[2]))
	case 253: // OpReturn
		cmd.Printf("               %s\n", name)
	case 254: // OpReturnValue
		cmd.Printf("               %s %s\n", name, spvID(ops[0]))
	case 224: // OpControlBarrier
		cmd.Printf("               %s %s %s %s\n", name, spvID(ops[0]), spvID(ops[1]), spvID(ops[2]))
	default:
		printGenericInstruction(cmd, name, opcode, ops)
	}
}

func printGenericInstruction(cmd *cobra.Command, name string, opcode uint16, ops []uint32) {
	switch {
	case len(ops) >= 2 && opcode >= 109 && opcode <= 205:
		cmd.Printf("         %s = %s %s", spvID(ops[1]), name, spvID(ops[0]))
		for i := 2; i < len(ops); i++ {
			cmd.Printf(" %s", spvID(ops[i]))
		}
		cmd.Println()
	case len(ops) >= 1:
		cmd.Printf("         %s", name)
		for _, op := range ops {
			cmd.Printf(" %s", spvID(op))
		}
		cmd.Println()
	default:
		cmd.Printf("               %s\n", name)
	}
}
