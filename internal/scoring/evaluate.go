package scoring

// RankedOption is an option's position in a matrix result.
type RankedOption struct {
	Rank          int            `json:"rank"`
	OptionID      string         `json:"option_id"`
	Name          string         `json:"name"`
	Score         float64        `json:"score"`
	Percent       float64        `json:"percent"`
	Best          bool           `json:"best"`
	Contributions []Contribution `json:"contributions"`
}

// Result is everything derived from one matrix snapshot.
type Result struct {
	MatrixID   string             `json:"matrix_id"`
	Scores     map[string]float64 `json:"scores"`
	BestOption *Option            `json:"best_option"`
	Ranking    []RankedOption     `json:"ranking"`
	Weights    WeightSummary      `json:"weights"`
	Scale      Scale              `json:"scale"`
}

// Evaluator derives results from matrix snapshots. It holds only configuration
// and is safe for concurrent use.
type Evaluator struct {
	policy WeightPolicy
	scale  Scale
}

// NewEvaluator creates an Evaluator with the given weight policy and rating scale.
func NewEvaluator(policy WeightPolicy, scale Scale) *Evaluator {
	return &Evaluator{policy: policy, scale: scale}
}

// Policy returns the weight policy in use.
func (e *Evaluator) Policy() WeightPolicy { return e.policy }

// Scale returns the rating scale in use.
func (e *Evaluator) Scale() Scale { return e.scale }

// Evaluate scores, ranks and checks the weights of a matrix. Rank positions
// are 1-based and strictly sequential; equal scores get consecutive ranks in
// list order.
func (e *Evaluator) Evaluate(m Matrix) Result {
	scores := AllScores(m)
	ranked := RankOptions(m)

	res := Result{
		MatrixID:   m.ID,
		Scores:     scores,
		BestOption: BestOption(m),
		Ranking:    make([]RankedOption, 0, len(ranked)),
		Weights:    Summarize(m.Criteria, e.policy),
		Scale:      e.scale,
	}
	for i, o := range ranked {
		res.Ranking = append(res.Ranking, RankedOption{
			Rank:          i + 1,
			OptionID:      o.ID,
			Name:          o.Name,
			Score:         scores[o.ID],
			Percent:       e.scale.Percent(scores[o.ID]),
			Best:          i == 0,
			Contributions: Breakdown(o, m.Criteria),
		})
	}
	return res
}
