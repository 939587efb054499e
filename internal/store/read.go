package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/taxcmp/internal/report"
)

// ErrNoReport is returned when the database holds no snapshot.
var ErrNoReport = errors.New("no report stored")

// Run describes the stored snapshot.
type Run struct {
	ID         string            `json:"id"`
	Digest     string            `json:"digest"`
	Systems    []string          `json:"systems"`
	Comparison report.Comparison `json:"comparison"`
	RowCount   int               `json:"row_count"`
}

// LatestRun returns the metadata of the stored snapshot.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		run     Run
		systems string
		mode    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, digest, systems, baseline, compare, mode, row_count
		FROM report_runs
		LIMIT 1
	`).Scan(&run.ID, &run.Digest, &systems, &run.Comparison.Baseline, &run.Comparison.Compare, &mode, &run.RowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoReport
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}

	if err := json.Unmarshal([]byte(systems), &run.Systems); err != nil {
		return Run{}, fmt.Errorf("decode systems: %w", err)
	}
	run.Comparison.Mode = report.Mode(mode)
	return run, nil
}

// LoadReport reads the stored snapshot back into a table.
// Rows are ordered by seq, taxes by column position.
func (s *Store) LoadReport(ctx context.Context) (*report.Table, Run, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, Run{}, err
	}

	t := &report.Table{
		Systems: run.Systems,
		Rows:    make([]report.Row, 0, run.RowCount),
	}
	enriched := run.Comparison.Baseline != ""
	if enriched {
		cmp := run.Comparison
		t.Comparison = &cmp
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, revenue, difference
		FROM report_rows
		WHERE run_id = ?
		ORDER BY seq ASC
	`, run.ID)
	if err != nil {
		return nil, Run{}, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq  int
			row  report.Row
			diff sql.NullFloat64
		)
		if err := rows.Scan(&seq, &row.Revenue, &diff); err != nil {
			return nil, Run{}, fmt.Errorf("scan row: %w", err)
		}
		if seq != len(t.Rows) {
			return nil, Run{}, fmt.Errorf("row sequence gap at %d", seq)
		}
		row.Taxes = make([]float64, len(t.Systems))
		if enriched {
			row.Rates = make([]float64, len(t.Systems))
			row.Difference = orNaN(diff)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Run{}, fmt.Errorf("iterate rows: %w", err)
	}

	if err := s.loadTaxes(ctx, run.ID, t, enriched); err != nil {
		return nil, Run{}, err
	}
	return t, run, nil
}

func (s *Store) loadTaxes(ctx context.Context, runID string, t *report.Table, enriched bool) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, position, tax, rate
		FROM report_taxes
		WHERE run_id = ?
		ORDER BY seq ASC, position ASC
	`, runID)
	if err != nil {
		return fmt.Errorf("query taxes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq, pos   int
			owed, rate sql.NullFloat64
		)
		if err := rows.Scan(&seq, &pos, &owed, &rate); err != nil {
			return fmt.Errorf("scan tax: %w", err)
		}
		if seq >= len(t.Rows) || pos >= len(t.Systems) {
			return fmt.Errorf("tax row (%d, %d) out of range", seq, pos)
		}
		t.Rows[seq].Taxes[pos] = orNaN(owed)
		if enriched {
			t.Rows[seq].Rates[pos] = orNaN(rate)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate taxes: %w", err)
	}
	return nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
