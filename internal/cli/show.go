package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taxcmp/internal/export"
	"github.com/roach88/taxcmp/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Rows     int
	CSV      string
}

// ShowResult is the stored snapshot with an optional row preview.
type ShowResult struct {
	Run     store.Run  `json:"run"`
	Columns []string   `json:"columns"`
	Preview [][]string `json:"preview,omitempty"`
	CSV     string     `json:"csv,omitempty"`
}

func (r ShowResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.Run.ID)
	fmt.Fprintf(&b, "Systems: %s\n", strings.Join(r.Run.Systems, ", "))
	if r.Run.Comparison.Baseline != "" {
		fmt.Fprintf(&b, "Comparison: %s\n", r.Run.Comparison)
	}
	fmt.Fprintf(&b, "Rows: %d\n", r.Run.RowCount)
	fmt.Fprintf(&b, "Digest: %s", r.Run.Digest)
	if len(r.Preview) > 0 {
		fmt.Fprintf(&b, "\n\n%s", strings.Join(r.Columns, "\t"))
		for _, rec := range r.Preview {
			fmt.Fprintf(&b, "\n%s", strings.Join(rec, "\t"))
		}
	}
	if r.CSV != "" {
		fmt.Fprintf(&b, "\nCSV: %s", r.CSV)
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the report stored in a SQLite snapshot",
		Long: `Show the report last stored by "taxcmp report --db". Optionally preview the
first rows or export the stored table back to CSV.

Example:
  taxcmp show --db report.db
  taxcmp show --db report.db --rows 5
  taxcmp show --db report.db --csv restored.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVarP(&opts.Rows, "rows", "n", 0, "number of rows to preview")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "export the stored table to this CSV path")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	table, run, err := st.LoadReport(ctx)
	if errors.Is(err, store.ErrNoReport) {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, "database holds no report", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to load report", err)
	}
	logger.Debug("report loaded", "run_id", run.ID, "rows", len(table.Rows))

	result := ShowResult{Run: run, Columns: table.Columns()}
	if n := min(opts.Rows, len(table.Rows)); n > 0 {
		result.Preview = table.Records()[:n]
	}

	if opts.CSV != "" {
		if err := export.WriteFile(opts.CSV, table); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write CSV", err)
		}
		logger.Info("csv written", "path", opts.CSV)
		result.CSV = opts.CSV
	}

	return formatter.Success(result)
}
