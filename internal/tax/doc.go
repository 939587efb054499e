// Package tax implements progressive income-tax calculation over ordered
// bracket schedules.
//
// A Schedule is a list of instalments consumed in order. Each instalment
// taxes only the slice of income allocated to it, never cumulative income.
// Whatever income is left once every instalment is exhausted is taxed at
// the schedule's default rate.
//
// # Invariants
//
//   - Calculate is pure: identical inputs always return identical results.
//   - Revenue <= 0 owes nothing.
//   - Schedules are not validated. Negative rates, negative amounts or
//     unordered brackets produce silently incorrect results; use Lint to
//     surface them without changing any computed value.
//
// Arithmetic runs in fixed-point decimal and is converted to float64 once,
// so worked examples such as 12100 × 0.40 come out as exactly 4840.
package tax
