package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taxcmp/internal/config"
	"github.com/roach88/taxcmp/internal/tax"
)

// SchedulesOptions holds flags for the schedules command.
type SchedulesOptions struct {
	*RootOptions
	Template bool
}

// ScheduleList renders the configured schedules in text mode.
type ScheduleList []tax.Schedule

func (l ScheduleList) String() string {
	var b strings.Builder
	for i, s := range l {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Name)
		if s.Description != "" {
			fmt.Fprintf(&b, "  (%s)", s.Description)
		}
		lower := 0.0
		for _, br := range s.Instalments {
			b.WriteString(numbers.Sprintf("\n  %12.0f - %12.0f  %5.1f%%", lower, lower+br.Amount, br.Rate*100))
			lower += br.Amount
		}
		b.WriteString(numbers.Sprintf("\n  %12.0f and above     %5.1f%%", s.Threshold(), s.DefaultRate*100))
	}
	return b.String()
}

// NewSchedulesCommand creates the schedules command.
func NewSchedulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchedulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List the configured bracket schedules",
		Long: `List every configured bracket schedule with its income bands and rates.

With --template the bundled YAML configuration is printed instead, as a
starting point for a custom --config file.

Example:
  taxcmp schedules
  taxcmp schedules --template > systems.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedules(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Template, "template", false, "print the bundled YAML configuration")

	return cmd
}

func runSchedules(opts *SchedulesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if opts.Template {
		_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
		return err
	}

	cfg, err := loadConfig(opts.RootOptions, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, configErrorCode(err), "failed to load config", err)
	}

	return formatter.Success(ScheduleList(cfg.Systems))
}
