package intrin

import "os"

// disableIntrinsics reports whether HL_DISABLE_INTRINISICS=1 is set,
// per spec.md §6: "skips the recognizer entirely and lowers intrinsics
// straight to LLVM-style saturating adds/subs for the CPU path". The
// misspelling matches the environment variable name verbatim.
func disableIntrinsics() bool {
	return os.Getenv("HL_DISABLE_INTRINISICS") == "1"
}

// rakeRulesEnabled reports whether HL_ENABLE_RAKE_RULES=1 is set. No
// rewrite rule in this package consults it: Recognize has no opt-in
// bank of synthesised rules.
func rakeRulesEnabled() bool {
	return os.Getenv("HL_ENABLE_RAKE_RULES") == "1"
}
