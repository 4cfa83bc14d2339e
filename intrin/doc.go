// Package intrin recognizes and lowers the widening, rounding,
// saturating, halving, multiply-shift-right, and absolute-difference
// arithmetic idioms over package ir's expression tree.
//
// Recognize runs bottom-up over an already-built tree and rewrites
// ordinary arithmetic that matches one of these idioms into the
// corresponding *ir.Call intrinsic (see ir.IsIntrinsic). Lower and
// LowerSemantic run the opposite direction: they rewrite one intrinsic
// call back into the arithmetic that implements it, either the
// target-efficient form (Lower) or a literal, always-correct reference
// form used to check Lower's output (LowerSemantic).
package intrin
