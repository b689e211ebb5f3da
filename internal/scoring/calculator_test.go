package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func threeCriteria() []Criterion {
	return []Criterion{
		{ID: "1", Name: "cost", Weight: 0.4},
		{ID: "2", Name: "speed", Weight: 0.3},
		{ID: "3", Name: "quality", Weight: 0.3},
	}
}

func TestOptionScore(t *testing.T) {
	criteria := threeCriteria()

	t.Run("weighted sum", func(t *testing.T) {
		a := Option{ID: "a", Scores: map[string]float64{"1": 8, "2": 7, "3": 9}}
		assert.InDelta(t, 8.0, OptionScore(a, criteria), 1e-9)
	})

	t.Run("second option", func(t *testing.T) {
		b := Option{ID: "b", Scores: map[string]float64{"1": 6, "2": 9, "3": 7}}
		assert.InDelta(t, 7.2, OptionScore(b, criteria), 1e-9)
	})

	t.Run("missing score counts as zero", func(t *testing.T) {
		o := Option{ID: "o", Scores: map[string]float64{"1": 5}}
		withMissing := Option{ID: "o", Scores: map[string]float64{"1": 5, "2": 0, "3": 0}}
		assert.InDelta(t, 2.0, OptionScore(o, criteria), 1e-9)
		assert.InDelta(t, OptionScore(withMissing, criteria), OptionScore(o, criteria), 1e-9)
	})

	t.Run("nil scores map", func(t *testing.T) {
		assert.Equal(t, 0.0, OptionScore(Option{ID: "x"}, criteria))
	})

	t.Run("stale keys ignored", func(t *testing.T) {
		o := Option{ID: "o", Scores: map[string]float64{"1": 5, "deleted": 5}}
		assert.InDelta(t, 2.0, OptionScore(o, criteria), 1e-9)
	})

	t.Run("no criteria", func(t *testing.T) {
		o := Option{ID: "o", Scores: map[string]float64{"1": 5}}
		assert.Equal(t, 0.0, OptionScore(o, nil))
	})

	t.Run("unnormalised weights scale proportionally", func(t *testing.T) {
		doubled := []Criterion{{ID: "1", Weight: 0.8}, {ID: "2", Weight: 0.6}, {ID: "3", Weight: 0.6}}
		a := Option{ID: "a", Scores: map[string]float64{"1": 8, "2": 7, "3": 9}}
		assert.InDelta(t, 16.0, OptionScore(a, doubled), 1e-9)
	})

	t.Run("non-negative inputs give non-negative score", func(t *testing.T) {
		for _, s := range []float64{0, 1, 2.5, 5} {
			o := Option{ID: "o", Scores: map[string]float64{"1": s, "2": s}}
			assert.GreaterOrEqual(t, OptionScore(o, criteria), 0.0)
		}
	})
}

func TestAllScores(t *testing.T) {
	m := Matrix{
		Criteria: threeCriteria(),
		Options: []Option{
			{ID: "a", Scores: map[string]float64{"1": 8, "2": 7, "3": 9}},
			{ID: "b", Scores: map[string]float64{"1": 6, "2": 9, "3": 7}},
			{ID: "c"},
		},
	}

	scores := AllScores(m)
	require.Len(t, scores, 3)
	assert.InDelta(t, 8.0, scores["a"], 1e-9)
	assert.InDelta(t, 7.2, scores["b"], 1e-9)
	assert.Equal(t, 0.0, scores["c"])

	again := AllScores(m)
	assert.Equal(t, scores, again)
}

func TestAllScoresEmpty(t *testing.T) {
	scores := AllScores(Matrix{Criteria: threeCriteria()})
	require.NotNil(t, scores)
	assert.Empty(t, scores)
}

func TestBestOption(t *testing.T) {
	t.Run("highest wins", func(t *testing.T) {
		m := Matrix{
			Criteria: threeCriteria(),
			Options: []Option{
				{ID: "b", Scores: map[string]float64{"1": 6, "2": 9, "3": 7}},
				{ID: "a", Scores: map[string]float64{"1": 8, "2": 7, "3": 9}},
			},
		}
		best := BestOption(m)
		require.NotNil(t, best)
		assert.Equal(t, "a", best.ID)
	})

	t.Run("empty matrix", func(t *testing.T) {
		assert.Nil(t, BestOption(Matrix{Criteria: threeCriteria()}))
	})

	t.Run("tie goes to first listed", func(t *testing.T) {
		criteria := []Criterion{{ID: "1", Weight: 0.5}, {ID: "2", Weight: 0.5}}
		m := Matrix{
			Criteria: criteria,
			Options: []Option{
				{ID: "low", Scores: map[string]float64{"1": 1, "2": 1}},
				{ID: "A", Scores: map[string]float64{"1": 7, "2": 8}},
				{ID: "B", Scores: map[string]float64{"1": 8, "2": 7}},
			},
		}
		best := BestOption(m)
		require.NotNil(t, best)
		assert.Equal(t, "A", best.ID)
	})

	t.Run("all zero returns first", func(t *testing.T) {
		m := Matrix{Options: []Option{{ID: "x"}, {ID: "y"}}}
		best := BestOption(m)
		require.NotNil(t, best)
		assert.Equal(t, "x", best.ID)
	})

	t.Run("returned option is a copy", func(t *testing.T) {
		m := Matrix{Options: []Option{{ID: "x", Name: "orig"}}}
		best := BestOption(m)
		best.Name = "changed"
		assert.Equal(t, "orig", m.Options[0].Name)
	})
}

func TestRankOptions(t *testing.T) {
	criteria := []Criterion{{ID: "1", Weight: 1}}
	m := Matrix{
		Criteria: criteria,
		Options: []Option{
			{ID: "c", Scores: map[string]float64{"1": 2}},
			{ID: "a", Scores: map[string]float64{"1": 4}},
			{ID: "t1", Scores: map[string]float64{"1": 3}},
			{ID: "t2", Scores: map[string]float64{"1": 3}},
			{ID: "z"},
		},
	}

	ranked := RankOptions(m)
	ids := make([]string, len(ranked))
	for i, o := range ranked {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"a", "t1", "t2", "c", "z"}, ids)
	assert.Equal(t, BestOption(m).ID, ranked[0].ID)

	// input untouched
	assert.Equal(t, "c", m.Options[0].ID)
}

func TestRankOptionsTieMatchesBest(t *testing.T) {
	criteria := []Criterion{{ID: "1", Weight: 0.5}, {ID: "2", Weight: 0.5}}
	m := Matrix{
		Criteria: criteria,
		Options: []Option{
			{ID: "B", Scores: map[string]float64{"1": 7.5, "2": 7.5}},
			{ID: "A", Scores: map[string]float64{"1": 7.5, "2": 7.5}},
		},
	}
	assert.Equal(t, "B", BestOption(m).ID)
	assert.Equal(t, "B", RankOptions(m)[0].ID)
}

func TestBreakdown(t *testing.T) {
	o := Option{ID: "o", Scores: map[string]float64{"1": 5, "3": 2}}
	parts := Breakdown(o, threeCriteria())
	require.Len(t, parts, 3)

	assert.Equal(t, "1", parts[0].CriterionID)
	assert.True(t, parts[0].Rated)
	assert.InDelta(t, 2.0, parts[0].Weighted, 1e-9)

	assert.False(t, parts[1].Rated)
	assert.Equal(t, 0.0, parts[1].Weighted)

	var sum float64
	for _, p := range parts {
		sum += p.Weighted
	}
	assert.InDelta(t, OptionScore(o, threeCriteria()), sum, 1e-9)
}

func TestActiveFlags(t *testing.T) {
	assert.True(t, Criterion{}.IsActive())
	assert.True(t, Criterion{Active: boolPtr(true)}.IsActive())
	assert.False(t, Criterion{Active: boolPtr(false)}.IsActive())
	assert.True(t, Option{}.IsActive())
	assert.False(t, Option{Active: boolPtr(false)}.IsActive())
}
