// Package emit walks a recognized ir.Module and drives a spirv.Builder to
// produce one SPIR-V binary with one entry point per ir.Kernel (spec.md
// §4.4). It never constructs SPIR-V words itself; every instruction goes
// through spirv.Builder, which owns id allocation and deduplication.
package emit
