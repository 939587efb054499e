package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool
}

// ValidateResult describes a configuration that loaded successfully.
type ValidateResult struct {
	Config   string   `json:"config"`
	Systems  []string `json:"systems"`
	Rows     int      `json:"rows"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r ValidateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s: %d systems, %d rows", r.Config, len(r.Systems), r.Rows)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n  warning: %s", w)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Check a configuration file",
		Long: `Load and validate a configuration file (or the bundled default) and report
schedule warnings such as rates outside [0, 1] or decreasing rates.

Warnings never change computed results. With --strict they fail the command.

Example:
  taxcmp validate systems.yaml
  taxcmp validate systems.cue --strict --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Config = args[0]
			}
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat schedule warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadConfig(opts.RootOptions, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, configErrorCode(err), "config is not valid", err)
	}

	result := ValidateResult{
		Config:  opts.Config,
		Systems: make([]string, len(cfg.Systems)),
		Rows:    cfg.Range.Len(),
	}
	if result.Config == "" {
		result.Config = "bundled default"
	}
	for i, s := range cfg.Systems {
		result.Systems[i] = s.Name
	}
	for _, w := range cfg.Lint() {
		result.Warnings = append(result.Warnings, w.String())
	}

	if opts.Strict && len(result.Warnings) > 0 {
		_ = formatter.Error(ErrCodeLintWarnings, fmt.Sprintf("%d schedule warnings", len(result.Warnings)), result.Warnings)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d schedule warnings", ErrCodeLintWarnings, len(result.Warnings)))
	}

	return formatter.Success(result)
}
