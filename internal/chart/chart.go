// Package chart renders a report table as a two-panel image: effective
// rate against revenue for every system on top, the difference curve
// underneath on its own axis, and a dashed marker at the median income in
// both panels.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png, jpg, tif
	_ "gonum.org/v1/plot/vg/vgsvg" // svg

	"github.com/roach88/taxcmp/internal/report"
)

var (
	// ErrNotEnriched is returned for tables without rate columns.
	ErrNotEnriched = errors.New("chart: table has no rate columns")

	// ErrNoData is returned when no row has a finite rate.
	ErrNoData = errors.New("chart: no plottable rows")
)

// Options control the rendered image.
type Options struct {
	Title        string
	MedianIncome float64 // no marker when <= 0
	Width        vg.Length
	Height       vg.Length
	Format       string // png (default), jpg, tif, svg
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Effective tax rate by revenue"
	}
	if o.Width <= 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 8 * vg.Inch
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return o
}

var markerStyle = draw.LineStyle{
	Color:  color.Gray{Y: 96},
	Width:  vg.Points(1),
	Dashes: []vg.Length{vg.Points(6), vg.Points(3)},
}

// Render draws t and writes the encoded image to w.
func Render(w io.Writer, t *report.Table, opts Options) error {
	if !t.Enriched() {
		return ErrNotEnriched
	}
	opts = opts.withDefaults()

	rates, err := ratePlot(t, opts)
	if err != nil {
		return err
	}
	diff, err := differencePlot(t, opts)
	if err != nil {
		return err
	}

	canvas, err := draw.NewFormattedCanvas(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 4,
		PadY:      vg.Millimeter * 6,
	}
	panels := plot.Align([][]*plot.Plot{{rates}, {diff}}, tiles, draw.New(canvas))
	rates.Draw(panels[0][0])
	diff.Draw(panels[1][0])

	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("chart: encode %s: %w", opts.Format, err)
	}
	return nil
}

// SaveFile renders t to path, replacing any existing file. The image
// format follows the file extension unless opts.Format is set. Nothing is
// written when rendering fails.
func SaveFile(path string, t *report.Table, opts Options) error {
	if opts.Format == "" {
		opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	var buf bytes.Buffer
	if err := Render(&buf, t, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ratePlot(t *report.Table, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Revenue"
	p.Y.Label.Text = "Effective rate (%)"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, name := range t.Systems {
		pts := series(t, func(r report.Row) float64 { return r.Rates[i] * 100 })
		if len(pts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoData, name)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("chart: %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)

		_, _, ymin, ymax := plotter.XYRange(pts)
		lo, hi = math.Min(lo, ymin), math.Max(hi, ymax)
	}

	if err := addMedianMarker(p, opts.MedianIncome, lo, hi); err != nil {
		return nil, err
	}
	return p, nil
}

func differencePlot(t *report.Table, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Revenue"
	p.Y.Label.Text = differenceLabel(t.Comparison)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	pts := series(t, func(r report.Row) float64 { return r.Difference })
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: difference", ErrNoData)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("chart: difference: %w", err)
	}
	line.Color = plotutil.Color(len(t.Systems))
	line.Width = vg.Points(1.5)
	p.Add(line)
	if c := t.Comparison; c.Baseline != "" {
		p.Legend.Add(fmt.Sprintf("%s vs %s", c.Compare, c.Baseline), line)
	}

	_, _, lo, hi := plotter.XYRange(pts)
	if err := addMedianMarker(p, opts.MedianIncome, lo, hi); err != nil {
		return nil, err
	}
	return p, nil
}

func addMedianMarker(p *plot.Plot, median, lo, hi float64) error {
	if median <= 0 {
		return nil
	}
	marker, err := plotter.NewLine(plotter.XYs{{X: median, Y: lo}, {X: median, Y: hi}})
	if err != nil {
		return fmt.Errorf("chart: median marker: %w", err)
	}
	marker.LineStyle = markerStyle
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("median income (%s)", report.FormatFloat(median)), marker)
	return nil
}

// series collects the finite (revenue, y) points of t. Rows with a zero
// revenue have NaN rates and are skipped.
func series(t *report.Table, y func(report.Row) float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := y(row)
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(row.Revenue) || math.IsInf(row.Revenue, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: row.Revenue, Y: v})
	}
	return pts
}

func differenceLabel(c *report.Comparison) string {
	switch c.Mode {
	case report.ModeRelative, report.ModeSigned:
		return "Difference (% of baseline rate)"
	case report.ModePoints:
		return "Difference (percentage points)"
	case report.ModeAmount:
		return "Difference (tax amount)"
	default:
		return "Difference"
	}
}
