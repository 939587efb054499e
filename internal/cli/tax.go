package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taxcmp/internal/tax"
)

// TaxOptions holds flags for the tax command.
type TaxOptions struct {
	*RootOptions
	Systems   []string
	Breakdown bool
}

// TaxResult is the tax owed by one revenue under one system.
type TaxResult struct {
	System        string      `json:"system"`
	Revenue       float64     `json:"revenue"`
	Tax           float64     `json:"tax"`
	EffectiveRate float64     `json:"effective_rate"`
	MarginalRate  float64     `json:"marginal_rate"`
	Breakdown     []tax.Slice `json:"breakdown,omitempty"`
}

// TaxResults renders as an aligned listing in text mode.
type TaxResults []TaxResult

func (rs TaxResults) String() string {
	var b strings.Builder
	for i, r := range rs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(numbers.Sprintf("%-28s revenue %12.2f  tax %12.2f  effective %6.2f%%  marginal %5.1f%%",
			r.System, r.Revenue, r.Tax, r.EffectiveRate*100, r.MarginalRate*100))
		for _, s := range r.Breakdown {
			label := "bracket"
			if s.Default {
				label = "default"
			}
			b.WriteString(numbers.Sprintf("\n    %-8s %12.2f at %5.1f%% = %12.2f", label, s.Income, s.Rate*100, s.Tax))
		}
	}
	return b.String()
}

// NewTaxCommand creates the tax command.
func NewTaxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaxOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tax <revenue>...",
		Short: "Compute the tax owed for individual revenues",
		Long: `Compute the tax owed, the effective rate and the marginal rate for each
revenue under every configured system (or only those named with --system).

Example:
  taxcmp tax 27920
  taxcmp tax 30000 1000000 --system current_system --breakdown
  taxcmp tax 50000 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTax(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Systems, "system", "s", nil, "limit to these systems (repeatable)")
	cmd.Flags().BoolVar(&opts.Breakdown, "breakdown", false, "itemise the tax per bracket")

	return cmd
}

func runTax(opts *TaxOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	revenues := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(strings.ReplaceAll(arg, "_", ""), 64)
		if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			err = errors.New("revenue must be finite")
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, fmt.Sprintf("invalid revenue %q", arg), err)
		}
		revenues[i] = v
	}

	cfg, err := loadConfig(opts.RootOptions, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, configErrorCode(err), "failed to load config", err)
	}

	schedules := cfg.Systems
	if len(opts.Systems) > 0 {
		schedules = make([]tax.Schedule, 0, len(opts.Systems))
		for _, name := range opts.Systems {
			s, ok := cfg.Schedule(name)
			if !ok {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown system %q", name), nil)
			}
			schedules = append(schedules, s)
		}
	}

	results := make(TaxResults, 0, len(revenues)*len(schedules))
	for _, revenue := range revenues {
		for _, s := range schedules {
			owed := tax.Calculate(revenue, s)
			r := TaxResult{
				System:       s.Name,
				Revenue:      revenue,
				Tax:          owed,
				MarginalRate: s.MarginalRate(revenue),
			}
			// No revenue, no rate: reported as zero since JSON has no NaN.
			if revenue != 0 {
				r.EffectiveRate = owed / revenue
			}
			if opts.Breakdown {
				r.Breakdown = tax.Breakdown(revenue, s)
			}
			logger.Debug("tax computed", "system", s.Name, "revenue", revenue, "tax", owed)
			results = append(results, r)
		}
	}

	return formatter.Success(results)
}
