package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/taxcmp/internal/report"
)

// SaveReport replaces the stored snapshot with t and returns the new run ID.
func (s *Store) SaveReport(ctx context.Context, t *report.Table) (id string, err error) {
	systems, err := json.Marshal(t.Systems)
	if err != nil {
		return "", fmt.Errorf("save report: marshal systems: %w", err)
	}

	var cmp report.Comparison
	if t.Comparison != nil {
		cmp = *t.Comparison
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_runs`); err != nil {
		return "", fmt.Errorf("save report: clear previous: %w", err)
	}

	id = s.ids.Generate()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs
		(id, digest, systems, baseline, compare, mode, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, t.Digest(), string(systems), cmp.Baseline, cmp.Compare, string(cmp.Mode), len(t.Rows))
	if err != nil {
		return "", fmt.Errorf("save report: insert run: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows (run_id, seq, revenue, difference)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("save report: prepare rows: %w", err)
	}
	defer rowStmt.Close()

	taxStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_taxes (run_id, seq, position, system, tax, rate)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("save report: prepare taxes: %w", err)
	}
	defer taxStmt.Close()

	for seq, row := range t.Rows {
		var diff sql.NullFloat64
		if t.Enriched() {
			diff = nullable(row.Difference)
		}
		if _, err := rowStmt.ExecContext(ctx, id, seq, row.Revenue, diff); err != nil {
			return "", fmt.Errorf("save report: row %d: %w", seq, err)
		}

		for pos, owed := range row.Taxes {
			var rate sql.NullFloat64
			if pos < len(row.Rates) {
				rate = nullable(row.Rates[pos])
			}
			if _, err := taxStmt.ExecContext(ctx, id, seq, pos, t.Systems[pos], nullable(owed), rate); err != nil {
				return "", fmt.Errorf("save report: row %d system %q: %w", seq, t.Systems[pos], err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save report: commit: %w", err)
	}
	return id, nil
}

// nullable maps non-finite values to NULL, which is what SQLite would
// store for NaN anyway.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
