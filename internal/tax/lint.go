package tax

import "fmt"

// Warning describes a suspicious property of a schedule. Warnings never
// alter calculation results.
type Warning struct {
	Schedule string `json:"schedule"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Schedule, w.Field, w.Message)
}

// Lint reports rates outside [0,1], non-positive amounts, rates that
// decrease from one bracket to the next, and schedules without brackets.
func (s Schedule) Lint() []Warning {
	var warnings []Warning
	add := func(field, format string, args ...any) {
		warnings = append(warnings, Warning{
			Schedule: s.Name,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if len(s.Instalments) == 0 {
		add("instalments", "no brackets defined, every unit of income is taxed at the default rate")
	}

	prev := 0.0
	for i, b := range s.Instalments {
		field := fmt.Sprintf("instalments[%d]", i)
		if b.Amount <= 0 {
			add(field+".amount", "amount %v is not positive", b.Amount)
		}
		if b.Rate < 0 || b.Rate > 1 {
			add(field+".rate", "rate %v is outside [0, 1]", b.Rate)
		}
		if i > 0 && b.Rate < prev {
			add(field+".rate", "rate %v is lower than the previous bracket (%v)", b.Rate, prev)
		}
		prev = b.Rate
	}

	if s.DefaultRate < 0 || s.DefaultRate > 1 {
		add("default_rate", "rate %v is outside [0, 1]", s.DefaultRate)
	}
	if len(s.Instalments) > 0 && s.DefaultRate < prev {
		add("default_rate", "rate %v is lower than the last bracket (%v)", s.DefaultRate, prev)
	}

	return warnings
}
