package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/taxcmp/internal/report"
)

// ErrBadHeader is returned when a CSV header does not describe a report.
var ErrBadHeader = errors.New("unrecognised report header")

// Write encodes t as CSV.
func Write(w io.Writer, t *report.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *report.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := Write(f, t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Read decodes a CSV produced by Write. The comparison settings are not
// stored in the file, so an enriched table comes back with an empty
// Comparison.
func Read(r io.Reader) (*report.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	layout, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	t := &report.Table{Systems: layout.systems}
	if layout.enriched {
		t.Comparison = &report.Comparison{}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		values := make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, header[i], err)
			}
			values[i] = v
		}

		n := len(t.Systems)
		row := report.Row{
			Revenue: values[0],
			Taxes:   values[1 : 1+n],
		}
		if layout.enriched {
			row.Rates = values[1+n : 1+2*n]
			row.Difference = values[1+2*n]
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ReadFile reads a report CSV from path.
func ReadFile(path string) (*report.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

type headerLayout struct {
	systems  []string
	enriched bool
}

func parseHeader(header []string) (headerLayout, error) {
	var layout headerLayout
	if len(header) < 2 || header[0] != report.ColumnRevenue {
		return layout, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	i := 1
	for ; i < len(header) && strings.HasPrefix(header[i], report.TaxPrefix); i++ {
		layout.systems = append(layout.systems, strings.TrimPrefix(header[i], report.TaxPrefix))
	}
	if len(layout.systems) == 0 {
		return layout, fmt.Errorf("%w: no %s columns", ErrBadHeader, report.TaxPrefix)
	}
	if i == len(header) {
		return layout, nil
	}

	n := len(layout.systems)
	if len(header) != 2+2*n || header[len(header)-1] != report.ColumnDifference {
		return layout, fmt.Errorf("%w: expected %d rate columns and %q", ErrBadHeader, n, report.ColumnDifference)
	}
	for j, name := range layout.systems {
		if header[1+n+j] != report.RatePrefix+name {
			return layout, fmt.Errorf("%w: column %d is %q, expected %q", ErrBadHeader, 1+n+j, header[1+n+j], report.RatePrefix+name)
		}
	}
	layout.enriched = true
	return layout, nil
}
