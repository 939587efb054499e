package report

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how the difference column is derived.
type Mode string

const (
	// ModeRelative is |rate_b - rate_a| / rate_a × 100.
	ModeRelative Mode = "relative"
	// ModeSigned is (rate_b - rate_a) / rate_a × 100.
	ModeSigned Mode = "signed"
	// ModePoints is (rate_b - rate_a) × 100, in percentage points.
	ModePoints Mode = "points"
	// ModeAmount is tax_b - tax_a, in currency.
	ModeAmount Mode = "amount"
)

// Modes lists every supported difference mode.
var Modes = []Mode{ModeRelative, ModeSigned, ModePoints, ModeAmount}

// ParseMode parses a mode name. The empty string selects ModeRelative.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeRelative, nil
	}
	for _, m := range Modes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown difference mode %q: must be one of %v", s, Modes)
}

// Comparison names the two schedules the difference column compares.
// Baseline is system "a" in the formulas above, Compare is system "b".
type Comparison struct {
	Baseline string `yaml:"baseline" json:"baseline"`
	Compare  string `yaml:"compare" json:"compare"`
	Mode     Mode   `yaml:"mode,omitempty" json:"mode,omitempty"`
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s vs %s (%s)", c.Compare, c.Baseline, c.mode())
}

func (c Comparison) mode() Mode {
	if c.Mode == "" {
		return ModeRelative
	}
	return c.Mode
}

// difference applies the comparison mode to one row's values.
// Division by a zero baseline rate is not guarded and yields NaN or ±Inf.
func (c Comparison) difference(taxA, taxB, rateA, rateB float64) float64 {
	switch c.mode() {
	case ModeSigned:
		return (rateB - rateA) / rateA * 100
	case ModePoints:
		return (rateB - rateA) * 100
	case ModeAmount:
		return taxB - taxA
	default:
		return math.Abs(rateA-rateB) / rateA * 100
	}
}
