package report

import (
	"errors"
	"fmt"
	"math"
)

// Range is a half-open numeric range [Start, Stop) walked by Step.
type Range struct {
	Start float64 `yaml:"start" json:"start"`
	Stop  float64 `yaml:"stop" json:"stop"`
	Step  float64 `yaml:"step" json:"step"`
}

// ErrInvalidRange is returned by Range.Validate.
var ErrInvalidRange = errors.New("invalid revenue range")

// MaxRows bounds the number of values a valid range may produce.
const MaxRows = 1 << 24

// Validate checks that the range can be walked.
func (r Range) Validate() error {
	for _, v := range []float64{r.Start, r.Stop, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: start, stop and step must be finite", ErrInvalidRange)
		}
	}
	if r.Step <= 0 {
		return fmt.Errorf("%w: step %v must be positive", ErrInvalidRange, r.Step)
	}
	if r.Stop < r.Start {
		return fmt.Errorf("%w: stop %v is before start %v", ErrInvalidRange, r.Stop, r.Start)
	}
	if n := r.count(); math.IsInf(n, 0) || n > MaxRows {
		return fmt.Errorf("%w: %s yields more than %d rows", ErrInvalidRange, r, MaxRows)
	}
	return nil
}

func (r Range) count() float64 {
	return math.Ceil((r.Stop - r.Start) / r.Step)
}

// Len returns the number of values the range produces, or 0 if invalid.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	return int(r.count())
}

// Values returns the ascending revenues of the range. Each value is
// computed as Start + i*Step so that rounding never accumulates.
func (r Range) Values() []float64 {
	n := r.Len()
	values := make([]float64, n)
	for i := range values {
		values[i] = r.Start + float64(i)*r.Step
	}
	return values
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v) step %v", r.Start, r.Stop, r.Step)
}
