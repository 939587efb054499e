package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taxcmp/internal/chart"
	"github.com/roach88/taxcmp/internal/export"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Output string
	Median float64
	Title  string
}

// PlotResult names the rendered image.
type PlotResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Rows   int    `json:"rows"`
}

func (r PlotResult) String() string {
	return numbers.Sprintf("✓ %s -> %s (%d rows)", r.Input, r.Output, r.Rows)
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot <csv>",
		Short: "Render the chart of an existing report CSV",
		Long: `Read a report CSV written by "taxcmp report" and render its chart again
without recomputing taxes. The CSV must carry rate and difference columns.

The image defaults to the CSV path with a .png extension. The median marker
defaults to the configured median income.

Example:
  taxcmp plot imposition.csv
  taxcmp plot imposition.csv -o rates.svg --median 40000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "image path (.png, .jpg, .tif or .svg)")
	cmd.Flags().Float64Var(&opts.Median, "median", 0, "median income marker (0 disables)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title")

	return cmd
}

func runPlot(opts *PlotOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if _, err := os.Stat(input); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "cannot read report CSV", err)
	}

	median := opts.Median
	if !cmd.Flags().Changed("median") {
		cfg, err := loadConfig(opts.RootOptions, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, configErrorCode(err), "failed to load config", err)
		}
		median = cfg.Median()
	}

	table, err := export.ReadFile(input)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeReportFailed, "failed to read report CSV", err)
	}
	logger.Debug("report read", "path", input, "rows", len(table.Rows), "systems", table.Systems)

	output := opts.Output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
	}

	err = chart.SaveFile(output, table, chart.Options{Title: opts.Title, MedianIncome: median})
	switch {
	case errors.Is(err, chart.ErrNotEnriched), errors.Is(err, chart.ErrNoData):
		return formatter.Fail(ExitFailure, ErrCodeReportFailed, "report cannot be plotted", err)
	case err != nil:
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to render chart", err)
	}
	logger.Info("chart written", "path", output)

	return formatter.Success(PlotResult{Input: input, Output: output, Rows: len(table.Rows)})
}
