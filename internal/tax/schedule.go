package tax

// Bracket is one instalment of a schedule: the next Amount of income is
// taxed at Rate.
type Bracket struct {
	Amount float64 `yaml:"amount" json:"amount"`
	Rate   float64 `yaml:"rate" json:"rate"`
}

// Schedule is a named progressive bracket system.
type Schedule struct {
	// Name identifies the schedule in report columns and CLI output.
	Name string `yaml:"name" json:"name"`

	// Description is free text carried through to listings.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// DefaultRate applies to any income left after the last instalment.
	DefaultRate float64 `yaml:"default_rate" json:"default_rate"`

	// Instalments are consumed in listed order.
	Instalments []Bracket `yaml:"instalments" json:"instalments"`
}

// Threshold returns the income above which only DefaultRate applies.
func (s Schedule) Threshold() float64 {
	var total float64
	for _, b := range s.Instalments {
		total += b.Amount
	}
	return total
}

// MarginalRate returns the rate applied to the next unit of income once
// revenue has already been earned.
func (s Schedule) MarginalRate(revenue float64) float64 {
	remaining := revenue
	for _, b := range s.Instalments {
		if remaining < b.Amount {
			return b.Rate
		}
		remaining -= b.Amount
	}
	return s.DefaultRate
}
