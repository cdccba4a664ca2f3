// Package evaluator computes the numeric value of a normalized arithmetic
// expression.
//
// Expressions use the HCL native expression syntax, with two additions
// common in calculators: `^` (and `**`) for exponentiation, rewritten to
// `pow(a, b)` before parsing, binding tighter than every other operator and
// associating to the right. Variables are the bare node ids produced by
// internal/reference; the constants `pi` and `e` and a small set of numeric
// functions are always available unless shadowed by a binding.
//
// The evaluator fails soft: every problem, including a panic inside the
// expression engine, is returned as an *EvaluationError wrapping
// graphstore.ErrEvaluationFailure.
package evaluator
