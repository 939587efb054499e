package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/taxcmp/internal/report"
	"github.com/roach88/taxcmp/internal/tax"
)

// Config is a complete run configuration.
type Config struct {
	Systems      []tax.Schedule    `yaml:"systems" json:"systems"`
	Range        report.Range      `yaml:"range" json:"range"`
	Difference   report.Comparison `yaml:"difference" json:"difference"`
	MedianIncome *float64          `yaml:"median_income,omitempty" json:"median_income,omitempty"`
	Output       Output            `yaml:"output" json:"output"`
}

// Output holds artifact paths. An empty path disables that artifact.
type Output struct {
	CSV      string `yaml:"csv,omitempty" json:"csv,omitempty"`
	Image    string `yaml:"image,omitempty" json:"image,omitempty"`
	Database string `yaml:"database,omitempty" json:"database,omitempty"`
}

// Median returns the median income marker. Zero disables the marker.
func (c *Config) Median() float64 {
	if c.MedianIncome == nil {
		return 0
	}
	return *c.MedianIncome
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Schedule returns the schedule called name.
func (c *Config) Schedule(name string) (tax.Schedule, bool) {
	for _, s := range c.Systems {
		if s.Name == name {
			return s, true
		}
	}
	return tax.Schedule{}, false
}

// Validate checks the structure of the configuration. Schedule contents
// (rates, amounts, ordering) are not checked here; see tax.Schedule.Lint.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Systems) < 2 {
		errs = append(errs, fmt.Errorf("at least two systems are required, got %d", len(c.Systems)))
	}

	seen := make(map[string]bool, len(c.Systems))
	for i, s := range c.Systems {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("systems[%d]: name is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("systems[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
	}

	if err := c.Range.Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := report.ParseMode(string(c.Difference.Mode)); err != nil {
		errs = append(errs, err)
	}
	if !seen[c.Difference.Baseline] {
		errs = append(errs, fmt.Errorf("difference.baseline %q is not a configured system", c.Difference.Baseline))
	}
	if !seen[c.Difference.Compare] {
		errs = append(errs, fmt.Errorf("difference.compare %q is not a configured system", c.Difference.Compare))
	}
	if c.Difference.Baseline != "" && c.Difference.Baseline == c.Difference.Compare {
		errs = append(errs, fmt.Errorf("difference compares %q with itself", c.Difference.Baseline))
	}

	if c.Median() < 0 {
		errs = append(errs, fmt.Errorf("median_income %v is negative", c.Median()))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Lint collects schedule warnings for every system.
func (c *Config) Lint() []tax.Warning {
	var warnings []tax.Warning
	for _, s := range c.Systems {
		warnings = append(warnings, s.Lint()...)
	}
	return warnings
}

// normalize NFC-normalises names so that visually identical names compare
// equal, then fills unset fields from the bundled default.
func (c *Config) normalize() {
	for i := range c.Systems {
		c.Systems[i].Name = norm.NFC.String(c.Systems[i].Name)
	}
	c.Difference.Baseline = norm.NFC.String(c.Difference.Baseline)
	c.Difference.Compare = norm.NFC.String(c.Difference.Compare)

	def := mustDefault()
	if c.Range == (report.Range{}) {
		c.Range = def.Range
	}
	if c.Difference.Baseline == "" && c.Difference.Compare == "" && len(c.Systems) >= 2 {
		c.Difference.Baseline = c.Systems[0].Name
		c.Difference.Compare = c.Systems[1].Name
	}
	// Unknown modes are kept as written for Validate to report.
	if mode, err := report.ParseMode(string(c.Difference.Mode)); err == nil {
		c.Difference.Mode = mode
	}
	if c.MedianIncome == nil {
		median := def.Median()
		c.MedianIncome = &median
	}
	if c.Output == (Output{}) {
		c.Output = def.Output
	}
}
