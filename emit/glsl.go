package emit

import "github.com/kforge/kforge/ir"

// glslInstruction is a GLSL.std.450 extended instruction number (see the
// SPIR-V "Extended Instructions for GLSL" spec); the emitter dispatches a
// Call whose Name matches one of these to spirv.Builder.ExtInst rather
// than a plain OpCode.
const (
	glslRound      = 1
	glslFAbs       = 4
	glslSAbs       = 5
	glslFloor      = 8
	glslCeil       = 9
	glslFract      = 10
	glslSin        = 13
	glslCos        = 14
	glslTan        = 15
	glslExp        = 27
	glslLog        = 28
	glslExp2       = 29
	glslLog2       = 30
	glslSqrt       = 31
	glslInverseSqrt = 32
	glslFMin       = 37
	glslUMin       = 38
	glslSMin       = 39
	glslFMax       = 40
	glslUMax       = 41
	glslSMax       = 42
	glslFClamp     = 43
	glslPow        = 26
)

// floatGLSLNames maps scalar math intrinsic names (emitter-level call
// names the front end uses directly, not spec.md's recognizer/lowerer
// intrinsics) to their GLSL.std.450 instruction.
var floatGLSLNames = map[string]uint32{
	"round_f32": glslRound, "round_f64": glslRound,
	"floor_f32": glslFloor, "floor_f64": glslFloor,
	"ceil_f32": glslCeil, "ceil_f64": glslCeil,
	"fract_f32": glslFract, "fract_f64": glslFract,
	"sin_f32": glslSin, "sin_f64": glslSin,
	"cos_f32": glslCos, "cos_f64": glslCos,
	"tan_f32": glslTan, "tan_f64": glslTan,
	"exp_f32": glslExp, "exp_f64": glslExp,
	"log_f32": glslLog, "log_f64": glslLog,
	"exp2_f32": glslExp2, "exp2_f64": glslExp2,
	"log2_f32": glslLog2, "log2_f64": glslLog2,
	"sqrt_f32": glslSqrt, "sqrt_f64": glslSqrt,
	"inverse_sqrt_f32": glslInverseSqrt, "inverse_sqrt_f64": glslInverseSqrt,
	"pow_f32": glslPow, "pow_f64": glslPow,
}

// glslInstructionFor reports the GLSL.std.450 instruction for call. Of
// the type-dependent instructions it maps only "abs", choosing FAbs or
// SAbs from the call's result type; Min/Max variants are chosen for
// Binary nodes by minMaxInst in binary.go.
func glslInstructionFor(call *ir.Call) (uint32, bool) {
	if inst, ok := floatGLSLNames[call.Name]; ok {
		return inst, true
	}
	if call.Name == "abs" {
		if call.Typ.IsFloat() {
			return glslFAbs, true
		}
		return glslSAbs, true
	}
	return 0, false
}
