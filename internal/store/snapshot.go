package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

// Snapshot loads a matrix with its active criteria, options and scores as the
// read-only view the scoring engine consumes. Returns nil, nil if the matrix
// does not exist.
func Snapshot(ctx context.Context, s Store, matrixID uuid.UUID) (*scoring.Matrix, error) {
	m, err := s.GetMatrix(ctx, matrixID)
	if err != nil {
		return nil, fmt.Errorf("get matrix: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	criteria, err := s.ListCriteria(ctx, matrixID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	options, err := s.ListOptions(ctx, matrixID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	scores, err := s.ListScores(ctx, matrixID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	snap := BuildSnapshot(m, criteria, options, scores)
	return &snap, nil
}

// BuildSnapshot assembles a scoring.Matrix from stored rows. Criteria and
// options keep the order given; scores for unknown options are dropped.
func BuildSnapshot(m *Matrix, criteria []*Criterion, options []*Option, scores []*Score) scoring.Matrix {
	active := m.Active
	out := scoring.Matrix{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     m.OwnerID.String(),
		Criteria:    make([]scoring.Criterion, 0, len(criteria)),
		Options:     make([]scoring.Option, 0, len(options)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Active:      &active,
	}

	for _, c := range criteria {
		active := c.Active
		out.Criteria = append(out.Criteria, scoring.Criterion{
			ID:          c.ID.String(),
			Name:        c.Name,
			Weight:      c.Weight,
			Description: c.Description,
			Active:      &active,
		})
	}

	byOption := make(map[uuid.UUID]map[string]float64, len(options))
	for _, sc := range scores {
		if !sc.Active {
			continue
		}
		if byOption[sc.OptionID] == nil {
			byOption[sc.OptionID] = make(map[string]float64)
		}
		byOption[sc.OptionID][sc.CriterionID.String()] = sc.Score
	}

	for _, o := range options {
		active := o.Active
		sm := byOption[o.ID]
		if sm == nil {
			sm = map[string]float64{}
		}
		out.Options = append(out.Options, scoring.Option{
			ID:          o.ID.String(),
			Name:        o.Name,
			Description: o.Description,
			Scores:      sm,
			Active:      &active,
		})
	}
	return out
}
