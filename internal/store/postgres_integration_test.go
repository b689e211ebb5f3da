//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		// Truncate in dependency order
		_, _ = s.pool.Exec(ctx, "TRUNCATE option_criteria, user_matrices CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE criteria, options CASCADE")
		_, _ = s.pool.Exec(ctx, "TRUNCATE matrices, users CASCADE")
		s.Close()
	})

	return s
}

func TestPostgresMatrixRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	owner := &User{Username: "owner", Email: "owner-" + uuid.NewString() + "@example.com"}
	require.NoError(t, s.CreateUser(ctx, owner))

	m := &Matrix{Name: "Integration", Description: "round trip", OwnerID: owner.ID}
	require.NoError(t, s.CreateMatrix(ctx, m))
	if m.ID == uuid.Nil {
		t.Fatal("expected non-nil matrix ID after create")
	}

	c1 := &Criterion{MatrixID: m.ID, Name: "one", Weight: 0.4}
	c2 := &Criterion{MatrixID: m.ID, Name: "two", Weight: 0.3}
	c3 := &Criterion{MatrixID: m.ID, Name: "three", Weight: 0.3}
	for _, c := range []*Criterion{c1, c2, c3} {
		require.NoError(t, s.CreateCriterion(ctx, c))
	}
	a := &Option{MatrixID: m.ID, Name: "A"}
	b := &Option{MatrixID: m.ID, Name: "B"}
	require.NoError(t, s.CreateOption(ctx, a))
	require.NoError(t, s.CreateOption(ctx, b))

	for _, sc := range []*Score{
		{OptionID: a.ID, CriterionID: c1.ID, Score: 8},
		{OptionID: a.ID, CriterionID: c2.ID, Score: 7},
		{OptionID: a.ID, CriterionID: c3.ID, Score: 9},
		{OptionID: b.ID, CriterionID: c1.ID, Score: 6},
		{OptionID: b.ID, CriterionID: c2.ID, Score: 9},
		{OptionID: b.ID, CriterionID: c3.ID, Score: 7},
	} {
		require.NoError(t, s.UpsertScore(ctx, sc))
	}

	snap, err := Snapshot(ctx, s, m.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "one", snap.Criteria[0].Name)
	assert.Equal(t, "A", snap.Options[0].Name)

	best := scoring.BestOption(*snap)
	require.NotNil(t, best)
	assert.Equal(t, a.ID.String(), best.ID)

	require.NoError(t, s.DeleteCriterion(ctx, c3.ID))
	snap, err = Snapshot(ctx, s, m.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Criteria, 2)
	assert.False(t, scoring.IsWeightValid(snap.Criteria, scoring.DefaultTolerance))
}

func TestPostgresSharing(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	owner := &User{Username: "owner", Email: "o-" + uuid.NewString() + "@example.com"}
	guest := &User{Username: "guest", Email: "g-" + uuid.NewString() + "@example.com"}
	require.NoError(t, s.CreateUser(ctx, owner))
	require.NoError(t, s.CreateUser(ctx, guest))

	err := s.CreateUser(ctx, &User{Username: "dup", Email: guest.Email})
	assert.ErrorIs(t, err, ErrConflict)

	m := &Matrix{Name: "Shared", OwnerID: owner.ID}
	require.NoError(t, s.CreateMatrix(ctx, m))

	require.NoError(t, s.ShareMatrix(ctx, &Share{MatrixID: m.ID, UserID: guest.ID}))
	ok, err := s.CanAccessMatrix(ctx, m.ID, guest.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.UnshareMatrix(ctx, m.ID, guest.ID))
	ok, err = s.CanAccessMatrix(ctx, m.ID, guest.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteMatrix(ctx, m.ID))
	assert.ErrorIs(t, s.DeleteMatrix(ctx, m.ID), ErrNotFound)
}
