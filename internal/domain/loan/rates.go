package loan

import "math"

const (
	defaultTermDays = 7
	defaultRate     = 0.20

	termInferenceTolerance = 0.01
)

// rateTiers maps a term length in days to its interest multiplier.
var rateTiers = []struct {
	termDays int
	rate     float64
}{
	{7, 0.20},
	{14, 0.40},
	{30, 1.00},
}

// RateFor returns the interest ratio for a term. Unrecognized terms get the 7-day rate.
func RateFor(termDays int) float64 {
	for _, tier := range rateTiers {
		if tier.termDays == termDays {
			return tier.rate
		}
	}
	return defaultRate
}

// InferTerm reconstructs the term of a loan that was stored without one, from the
// ratio between its total and principal. Unmatched ratios map to 7 days.
func InferTerm(principal, totalDue Money) int {
	if principal <= 0 {
		return defaultTermDays
	}
	ratio := (totalDue - principal) / principal
	for _, tier := range rateTiers {
		if math.Abs(ratio-tier.rate) < termInferenceTolerance {
			return tier.termDays
		}
	}
	return defaultTermDays
}
