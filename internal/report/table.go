package report

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Column name prefixes and the fixed revenue and difference columns.
const (
	ColumnRevenue    = "revenue"
	ColumnDifference = "difference"
	TaxPrefix        = "tax_"
	RatePrefix       = "rate_"
)

// Row is one revenue of the report. Taxes and Rates are indexed like
// Table.Systems.
type Row struct {
	Revenue    float64   `json:"revenue"`
	Taxes      []float64 `json:"taxes"`
	Rates      []float64 `json:"rates,omitempty"`
	Difference float64   `json:"difference"`
}

// Table is the report artifact handed to output collaborators.
type Table struct {
	Systems    []string    `json:"systems"`
	Comparison *Comparison `json:"comparison,omitempty"`
	Rows       []Row       `json:"rows"`
}

// Enriched reports whether rate and difference columns have been derived.
func (t *Table) Enriched() bool {
	return t.Comparison != nil
}

// Index returns the position of system name in t.Systems, or -1.
func (t *Table) Index(name string) int {
	for i, s := range t.Systems {
		if s == name {
			return i
		}
	}
	return -1
}

// Columns returns the header of the table.
func (t *Table) Columns() []string {
	cols := make([]string, 0, 2+2*len(t.Systems))
	cols = append(cols, ColumnRevenue)
	for _, s := range t.Systems {
		cols = append(cols, TaxPrefix+s)
	}
	if !t.Enriched() {
		return cols
	}
	for _, s := range t.Systems {
		cols = append(cols, RatePrefix+s)
	}
	return append(cols, ColumnDifference)
}

// Records returns every row as string cells aligned with Columns.
func (t *Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	width := len(t.Columns())
	for i, row := range t.Rows {
		rec := make([]string, 0, width)
		rec = append(rec, FormatFloat(row.Revenue))
		for _, v := range row.Taxes {
			rec = append(rec, FormatFloat(v))
		}
		if t.Enriched() {
			for _, v := range row.Rates {
				rec = append(rec, FormatFloat(v))
			}
			rec = append(rec, FormatFloat(row.Difference))
		}
		records[i] = rec
	}
	return records
}

// Digest returns a hex SHA-256 over the header and records. Two tables
// with equal digests render identical CSV files.
func (t *Table) Digest() string {
	h := sha256.New()
	h.Write([]byte(strings.Join(t.Columns(), ",")))
	h.Write([]byte{'\n'})
	for _, rec := range t.Records() {
		h.Write([]byte(strings.Join(rec, ",")))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FormatFloat renders v with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
