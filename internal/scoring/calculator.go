package scoring

import "sort"

// OptionScore returns the weighted sum of the option's raw scores.
// A criterion without a score contributes 0, and scores keyed by unknown
// criterion ids are ignored. The result is not clamped: if the weights do not
// sum to 1.0 it scales proportionally.
func OptionScore(option Option, criteria []Criterion) float64 {
	var total float64
	for _, c := range criteria {
		total += option.Scores[c.ID] * c.Weight
	}
	return total
}

// AllScores scores every option in the matrix, keyed by option id.
func AllScores(m Matrix) map[string]float64 {
	scores := make(map[string]float64, len(m.Options))
	for _, o := range m.Options {
		scores[o.ID] = OptionScore(o, m.Criteria)
	}
	return scores
}

// BestOption returns the highest scoring option, or nil if the matrix has none.
// Ties go to the option listed first.
func BestOption(m Matrix) *Option {
	if len(m.Options) == 0 {
		return nil
	}
	best := 0
	bestScore := OptionScore(m.Options[0], m.Criteria)
	for i := 1; i < len(m.Options); i++ {
		if s := OptionScore(m.Options[i], m.Criteria); s > bestScore {
			best, bestScore = i, s
		}
	}
	o := m.Options[best]
	return &o
}

// RankOptions returns the options ordered by descending score. The sort is
// stable, so options with equal scores keep their relative order and the first
// element always matches BestOption.
func RankOptions(m Matrix) []Option {
	scores := AllScores(m)
	ranked := make([]Option, len(m.Options))
	copy(ranked, m.Options)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})
	return ranked
}

// Contribution is one criterion's share of an option's score.
type Contribution struct {
	CriterionID string  `json:"criterion_id"`
	Name        string  `json:"name"`
	Raw         float64 `json:"raw"`
	Rated       bool    `json:"rated"`
	Weight      float64 `json:"weight"`
	Weighted    float64 `json:"weighted"`
}

// Breakdown returns the per-criterion contributions for an option, in criteria order.
func Breakdown(option Option, criteria []Criterion) []Contribution {
	out := make([]Contribution, 0, len(criteria))
	for _, c := range criteria {
		raw, rated := option.Scores[c.ID]
		out = append(out, Contribution{
			CriterionID: c.ID,
			Name:        c.Name,
			Raw:         raw,
			Rated:       rated,
			Weight:      c.Weight,
			Weighted:    raw * c.Weight,
		})
	}
	return out
}
