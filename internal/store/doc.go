// Package store keeps the latest report table in a SQLite database.
//
// The database holds a single snapshot. SaveReport deletes whatever was
// stored before and writes the new table inside one transaction, so
// readers never see a mix of two runs.
//
// # Tables
//
//   - report_runs: one row per snapshot (id, digest, systems, comparison)
//   - report_rows: one row per revenue, with the difference column
//   - report_taxes: one row per (revenue, system), with tax and rate
//
// report_taxes mirrors the long system,revenue,tax layout of earlier CSV
// exports, which keeps ad-hoc SQL over the snapshot simple.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON (deletes cascade from report_runs)
//
// SQLite stores NaN as NULL. Rates and differences read back as NaN when
// NULL.
package store
