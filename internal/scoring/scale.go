package scoring

// Scale bounds the raw rating an option may receive for a criterion.
type Scale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultScale is the 0..5 inclusive rating range.
var DefaultScale = Scale{Min: 0, Max: 5}

// Contains reports whether v lies within the scale, inclusive.
func (s Scale) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// Percent expresses a weighted score as a percentage of the scale maximum.
// Scores are not clamped, so weights summing above 1.0 can exceed 100.
func (s Scale) Percent(score float64) float64 {
	if s.Max <= s.Min || s.Max == 0 {
		return 0
	}
	return score / s.Max * 100
}
