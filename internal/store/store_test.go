package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

func TestBuildSnapshot(t *testing.T) {
	owner := uuid.New()
	m := &Matrix{ID: uuid.New(), Name: "laptops", OwnerID: owner, Active: true, CreatedAt: time.Now()}
	c1 := &Criterion{ID: uuid.New(), MatrixID: m.ID, Name: "price", Weight: 0.6, Active: true}
	c2 := &Criterion{ID: uuid.New(), MatrixID: m.ID, Name: "battery", Weight: 0.4, Active: true}
	o1 := &Option{ID: uuid.New(), MatrixID: m.ID, Name: "A", Active: true}
	o2 := &Option{ID: uuid.New(), MatrixID: m.ID, Name: "B", Active: true}
	scores := []*Score{
		{OptionID: o1.ID, CriterionID: c1.ID, Score: 4, Active: true},
		{OptionID: o1.ID, CriterionID: c2.ID, Score: 3, Active: true},
		{OptionID: o2.ID, CriterionID: c1.ID, Score: 5, Active: true},
		{OptionID: o2.ID, CriterionID: c2.ID, Score: 1, Active: false},
		{OptionID: uuid.New(), CriterionID: c1.ID, Score: 5, Active: true},
	}

	snap := BuildSnapshot(m, []*Criterion{c1, c2}, []*Option{o1, o2}, scores)

	assert.Equal(t, m.ID.String(), snap.ID)
	assert.Equal(t, owner.String(), snap.OwnerID)
	require.Len(t, snap.Criteria, 2)
	assert.Equal(t, c1.ID.String(), snap.Criteria[0].ID)
	assert.Equal(t, 0.6, snap.Criteria[0].Weight)
	require.Len(t, snap.Options, 2)
	assert.Equal(t, "A", snap.Options[0].Name)
	assert.Equal(t, map[string]float64{c1.ID.String(): 4, c2.ID.String(): 3}, snap.Options[0].Scores)
	assert.Equal(t, map[string]float64{c1.ID.String(): 5}, snap.Options[1].Scores, "inactive score rows are skipped")

	scoresByID := scoring.AllScores(snap)
	assert.InDelta(t, 3.6, scoresByID[o1.ID.String()], 1e-9)
	assert.InDelta(t, 3.0, scoresByID[o2.ID.String()], 1e-9)
}

func TestBuildSnapshotEmpty(t *testing.T) {
	m := &Matrix{ID: uuid.New(), Active: true}
	snap := BuildSnapshot(m, nil, nil, nil)
	assert.NotNil(t, snap.Criteria)
	assert.NotNil(t, snap.Options)
	assert.Nil(t, scoring.BestOption(snap))
}

func TestBuildSnapshotUnscoredOptionHasEmptyMap(t *testing.T) {
	m := &Matrix{ID: uuid.New(), Active: true}
	o := &Option{ID: uuid.New(), Active: true}
	snap := BuildSnapshot(m, nil, []*Option{o}, nil)
	require.Len(t, snap.Options, 1)
	assert.NotNil(t, snap.Options[0].Scores)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unknown database driver")
}
