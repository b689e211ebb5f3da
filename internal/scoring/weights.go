package scoring

import (
	"fmt"
	"math"
)

const (
	// ExpectedTotal is the sum a well-formed criteria set's weights should reach.
	ExpectedTotal = 1.0

	// DefaultTolerance is the allowed deviation from ExpectedTotal.
	DefaultTolerance = 0.01
)

// TotalWeight sums the weight of every criterion, active or not.
func TotalWeight(criteria []Criterion) float64 {
	var sum float64
	for _, c := range criteria {
		sum += c.Weight
	}
	return sum
}

// IsWeightValid reports whether the weights sum to 1.0 within tolerance.
// A zero tolerance demands an exact total; a negative one uses
// DefaultTolerance. The result is advisory and must never block saving or
// scoring.
func IsWeightValid(criteria []Criterion, tolerance float64) bool {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return math.Abs(TotalWeight(criteria)-ExpectedTotal) <= tolerance
}

// FromPercent converts a percentage weight (0-100) to a fraction.
func FromPercent(p float64) float64 { return p / 100 }

// ToPercent converts a fractional weight to a percentage.
func ToPercent(w float64) float64 { return w * 100 }

// WeightPolicy controls how a criteria set's weights are checked.
type WeightPolicy struct {
	Tolerance float64 `json:"tolerance"`

	// ExcludeInactive drops criteria flagged inactive from the total.
	// Off by default so the total matches TotalWeight.
	ExcludeInactive bool `json:"exclude_inactive"`
}

// DefaultWeightPolicy returns the policy used when nothing is configured.
func DefaultWeightPolicy() WeightPolicy {
	return WeightPolicy{Tolerance: DefaultTolerance}
}

func (p WeightPolicy) tolerance() float64 {
	if p.Tolerance <= 0 {
		return DefaultTolerance
	}
	return p.Tolerance
}

func (p WeightPolicy) filter(criteria []Criterion) []Criterion {
	if !p.ExcludeInactive {
		return criteria
	}
	out := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

// WeightSummary describes a criteria set's weight total for display.
type WeightSummary struct {
	Total     float64 `json:"total"`
	Percent   float64 `json:"percent"`
	Expected  float64 `json:"expected"`
	Tolerance float64 `json:"tolerance"`
	Valid     bool    `json:"valid"`
	Remaining float64 `json:"remaining"`
	Exceeds   bool    `json:"exceeds"`
	Warning   string  `json:"warning,omitempty"`
}

// Summarize checks the criteria weights under the policy. Valid matches
// IsWeightValid on the criteria the policy keeps.
func Summarize(criteria []Criterion, p WeightPolicy) WeightSummary {
	kept := p.filter(criteria)
	tol := p.tolerance()
	total := TotalWeight(kept)

	s := WeightSummary{
		Total:     total,
		Percent:   ToPercent(total),
		Expected:  ExpectedTotal,
		Tolerance: tol,
		Valid:     IsWeightValid(kept, tol),
		Remaining: ExpectedTotal - total,
		Exceeds:   total > ExpectedTotal+tol,
	}
	if !s.Valid {
		s.Warning = fmt.Sprintf("weights sum to %.0f%%, expected %.0f%%", s.Percent, ToPercent(ExpectedTotal))
	}
	return s
}

// WouldExceed reports whether adding a criterion with weight extra would push
// the total past the expected sum plus tolerance.
func WouldExceed(criteria []Criterion, extra float64, p WeightPolicy) bool {
	return TotalWeight(p.filter(criteria))+extra > ExpectedTotal+p.tolerance()
}
