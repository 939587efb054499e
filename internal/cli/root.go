package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/taxcmp/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // YAML or CUE file; bundled default when empty
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the taxcmp CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "taxcmp",
		Short: "taxcmp - compare progressive income-tax bracket systems",
		Long: `Compute the effective tax rate of progressive bracket systems across a
range of incomes and compare them.

Schedules, the revenue range and the comparison are read from a YAML or CUE
config file (--config). Without one, the bundled current and proposed
schedules are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (.yaml, .yml, .json or .cue)")

	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewTaxCommand(opts))
	cmd.AddCommand(NewSchedulesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPlotCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text slog.Logger on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig returns the --config file, or the bundled default.
func loadConfig(opts *RootOptions, logger *slog.Logger) (*config.Config, error) {
	if opts.Config == "" {
		logger.Debug("using bundled config")
		return config.Default(), nil
	}
	logger.Debug("loading config", "path", opts.Config)
	return config.Load(opts.Config)
}

// configErrorCode distinguishes unreadable files from invalid contents.
func configErrorCode(err error) string {
	if errors.Is(err, config.ErrInvalidConfig) {
		return ErrCodeInvalidConfig
	}
	return ErrCodeConfigLoad
}

// numbers formats amounts with thousands separators in text output.
var numbers = message.NewPrinter(language.English)
