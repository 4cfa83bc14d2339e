package emit

import (
	"strings"

	"github.com/kforge/kforge/spirv"
)

// gpuSuffixes maps a For/Var name suffix to the SPIR-V builtin it reads
// and the workgroup/thread dimension it selects (spec.md §9's GPU
// built-in variable name recognition; grounded in simt_intrinsic /
// map_simt_builtin in the original Vulkan backend, which match on a
// "<name>.__thread_id_x"-style suffix).
var gpuSuffixes = []struct {
	suffix  string
	builtin spirv.BuiltIn
	dim     int
}{
	{".__thread_id_x", spirv.BuiltInLocalInvocationId, 0},
	{".__thread_id_y", spirv.BuiltInLocalInvocationId, 1},
	{".__thread_id_z", spirv.BuiltInLocalInvocationId, 2},
	{".__block_id_x", spirv.BuiltInWorkgroupId, 0},
	{".__block_id_y", spirv.BuiltInWorkgroupId, 1},
	{".__block_id_z", spirv.BuiltInWorkgroupId, 2},
}

// isGPUVar reports whether name carries one of the recognized GPU
// built-in suffixes.
func isGPUVar(name string) bool {
	_, _, ok := builtinFromSuffix(name)
	return ok
}

// builtinFromSuffix is a total function from a variable name to the
// SPIR-V builtin and dimension it denotes. The third return is false (not
// a panic) when name carries no recognized suffix, per spec.md §9's
// instruction that this lookup errors rather than panics on an unknown
// suffix.
func builtinFromSuffix(name string) (spirv.BuiltIn, int, bool) {
	for _, s := range gpuSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.builtin, s.dim, true
		}
	}
	return 0, 0, false
}
