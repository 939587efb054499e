package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taxcmp/internal/chart"
	"github.com/roach88/taxcmp/internal/config"
	"github.com/roach88/taxcmp/internal/export"
	"github.com/roach88/taxcmp/internal/report"
	"github.com/roach88/taxcmp/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	CSV      string
	Image    string
	Database string
	Start    float64
	Stop     float64
	Step     float64
	Mode     string
	Baseline string
	Compare  string
	Median   float64
	Title    string
}

// ReportSummary is the result of a report run.
type ReportSummary struct {
	Systems    []string          `json:"systems"`
	Comparison report.Comparison `json:"comparison"`
	Range      report.Range      `json:"range"`
	Rows       int               `json:"rows"`
	Digest     string            `json:"digest"`
	CSV        string            `json:"csv,omitempty"`
	Image      string            `json:"image,omitempty"`
	Database   string            `json:"database,omitempty"`
	RunID      string            `json:"run_id,omitempty"`
}

func (s ReportSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report: %d rows over %s\n", s.Rows, s.Range)
	fmt.Fprintf(&b, "Comparison: %s\n", s.Comparison)
	fmt.Fprintf(&b, "Digest: %s\n", s.Digest)
	if s.CSV != "" {
		fmt.Fprintf(&b, "CSV: %s\n", s.CSV)
	}
	if s.Image != "" {
		fmt.Fprintf(&b, "Image: %s\n", s.Image)
	}
	if s.Database != "" {
		fmt.Fprintf(&b, "Database: %s (run %s)\n", s.Database, s.RunID)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the comparison table and write its artifacts",
		Long: `Compute the tax owed under every configured system for each revenue in
the range, derive effective rates and the difference between the two
compared systems, then write the CSV file, the chart and optionally a
SQLite snapshot. Existing artifacts are replaced.

Flags override the corresponding config values. Pass an empty path to
skip an artifact.

Example:
  taxcmp report
  taxcmp report --config systems.cue --mode points --image rates.svg
  taxcmp report --start 0 --stop 100000 --step 500 --csv "" --db report.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CSV, "csv", "", "CSV output path (overrides config)")
	cmd.Flags().StringVar(&opts.Image, "image", "", "chart output path, .png/.jpg/.tif/.svg (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite snapshot path (overrides config)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "first revenue (inclusive)")
	cmd.Flags().Float64Var(&opts.Stop, "stop", 0, "last revenue (exclusive)")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "revenue increment")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", fmt.Sprintf("difference mode %v", report.Modes))
	cmd.Flags().StringVar(&opts.Baseline, "baseline", "", "baseline system name")
	cmd.Flags().StringVar(&opts.Compare, "compare", "", "compared system name")
	cmd.Flags().Float64Var(&opts.Median, "median", 0, "median income marker (0 disables)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadConfig(opts.RootOptions, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, configErrorCode(err), "failed to load config", err)
	}

	applyReportFlags(cfg, opts, cmd)
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidConfig, "invalid report settings", err)
	}
	for _, w := range cfg.Lint() {
		logger.Warn("schedule warning", "schedule", w.Schedule, "field", w.Field, "message", w.Message)
	}

	logger.Debug("building report", "range", cfg.Range.String(), "systems", len(cfg.Systems), "comparison", cfg.Difference.String())
	table, err := report.Generate(cfg.Range, cfg.Systems, cfg.Difference)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeReportFailed, "failed to build report", err)
	}
	logger.Info("report built", "rows", len(table.Rows), "digest", table.Digest())

	summary := ReportSummary{
		Systems:    table.Systems,
		Comparison: *table.Comparison,
		Range:      cfg.Range,
		Rows:       len(table.Rows),
		Digest:     table.Digest(),
	}

	if path := cfg.Output.CSV; path != "" {
		if err := export.WriteFile(path, table); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write CSV", err)
		}
		logger.Info("csv written", "path", path)
		summary.CSV = path
	}

	if path := cfg.Output.Image; path != "" {
		chartOpts := chart.Options{Title: opts.Title, MedianIncome: cfg.Median()}
		if err := chart.SaveFile(path, table, chartOpts); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to render chart", err)
		}
		logger.Info("chart written", "path", path)
		summary.Image = path
	}

	if path := cfg.Output.Database; path != "" {
		runID, err := saveSnapshot(cmd.Context(), path, table, logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to store report", err)
		}
		summary.Database = path
		summary.RunID = runID
	}

	return formatter.Success(summary)
}

// applyReportFlags copies explicitly set flags over the loaded config.
func applyReportFlags(cfg *config.Config, opts *ReportOptions, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("csv") {
		cfg.Output.CSV = opts.CSV
	}
	if flags.Changed("image") {
		cfg.Output.Image = opts.Image
	}
	if flags.Changed("db") {
		cfg.Output.Database = opts.Database
	}
	if flags.Changed("start") {
		cfg.Range.Start = opts.Start
	}
	if flags.Changed("stop") {
		cfg.Range.Stop = opts.Stop
	}
	if flags.Changed("step") {
		cfg.Range.Step = opts.Step
	}
	if flags.Changed("mode") {
		cfg.Difference.Mode = report.Mode(opts.Mode)
	}
	if flags.Changed("baseline") {
		cfg.Difference.Baseline = opts.Baseline
	}
	if flags.Changed("compare") {
		cfg.Difference.Compare = opts.Compare
	}
	if flags.Changed("median") {
		cfg.MedianIncome = &opts.Median
	}
}

func saveSnapshot(ctx context.Context, path string, t *report.Table, logger *slog.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID, err := st.SaveReport(ctx, t)
	if err != nil {
		return "", err
	}
	logger.Info("snapshot stored", "path", path, "run_id", runID)
	return runID, nil
}
