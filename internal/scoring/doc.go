// Package scoring derives correctness metrics from a presented list and a
// participant's recall.
//
// Two modes:
//   - Free recall ignores order. Each presented item can be credited at most
//     once; response items are matched in the order they were typed.
//   - Serial recall compares position by position. Missing positions count
//     as incorrect.
//
// Scoring is a pure function of (presented, response). Inputs are never
// mutated and the only failure is ErrInvalidInput.
package scoring
