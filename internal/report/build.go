package report

import (
	"errors"
	"fmt"

	"github.com/roach88/taxcmp/internal/tax"
)

var (
	// ErrUnknownSystem is returned when a comparison names a schedule that
	// is not part of the table.
	ErrUnknownSystem = errors.New("unknown system")

	// ErrSameSystem is returned when a comparison names one schedule twice.
	ErrSameSystem = errors.New("comparison needs two distinct systems")
)

// Build computes the tax owed for every revenue under every schedule.
// Rows follow the order of revenues; tax columns follow the order of
// systems.
func Build(revenues []float64, systems []tax.Schedule) *Table {
	t := &Table{
		Systems: make([]string, len(systems)),
		Rows:    make([]Row, len(revenues)),
	}
	for i, s := range systems {
		t.Systems[i] = s.Name
	}

	for i, revenue := range revenues {
		taxes := make([]float64, len(systems))
		for j, s := range systems {
			taxes[j] = tax.Calculate(revenue, s)
		}
		t.Rows[i] = Row{Revenue: revenue, Taxes: taxes}
	}
	return t
}

// Enrich derives the rate columns and the difference column in place.
// Calling it again with another comparison replaces the derived columns.
func Enrich(t *Table, cmp Comparison) error {
	a := t.Index(cmp.Baseline)
	if a < 0 {
		return fmt.Errorf("baseline %q: %w", cmp.Baseline, ErrUnknownSystem)
	}
	b := t.Index(cmp.Compare)
	if b < 0 {
		return fmt.Errorf("compare %q: %w", cmp.Compare, ErrUnknownSystem)
	}
	if a == b {
		return fmt.Errorf("%q: %w", cmp.Baseline, ErrSameSystem)
	}
	mode, err := ParseMode(string(cmp.Mode))
	if err != nil {
		return err
	}
	cmp.Mode = mode

	for i := range t.Rows {
		row := &t.Rows[i]
		row.Rates = make([]float64, len(row.Taxes))
		for j, owed := range row.Taxes {
			row.Rates[j] = owed / row.Revenue
		}
		row.Difference = cmp.difference(row.Taxes[a], row.Taxes[b], row.Rates[a], row.Rates[b])
	}

	t.Comparison = &cmp
	return nil
}

// Generate walks r, builds the table for systems and enriches it with cmp.
func Generate(r Range, systems []tax.Schedule, cmp Comparison) (*Table, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	t := Build(r.Values(), systems)
	if err := Enrich(t, cmp); err != nil {
		return nil, err
	}
	return t, nil
}
