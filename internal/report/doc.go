// Package report builds the comparison table consumed by the CSV, chart and
// SQLite collaborators.
//
// Building is a single pass over an ascending revenue range: every revenue
// becomes one row holding the tax owed under each configured schedule, in
// schedule order. Enrichment then derives one effective-rate column per
// schedule and a single difference column between two named schedules.
//
// Column layout of an enriched table:
//
//	revenue, tax_<s1>..tax_<sn>, rate_<s1>..rate_<sn>, difference
//
// Rates are tax / revenue. A zero revenue yields NaN and is left as such.
//
// The package holds no state; identical inputs always produce identical
// tables and therefore identical digests.
package report
