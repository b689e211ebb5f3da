package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

// deps is shared by every handler.
type deps struct {
	store  store.Store
	events events.Client
	eval   *scoring.Evaluator
	logger *slog.Logger
}

func (d *deps) emit(subject string, data interface{}) {
	events.Emit(d.events, d.logger, subject, data)
}

// matrixFor loads a matrix the caller may use. Owners always pass; users the
// matrix is shared with pass unless ownerOnly. Anyone else gets a 404 so
// matrix ids do not leak. On failure the response is written and nil returned.
func (d *deps) matrixFor(w http.ResponseWriter, r *http.Request, id uuid.UUID, ownerOnly bool) *store.Matrix {
	ctx := r.Context()
	m, err := d.store.GetMatrix(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "matrix not found")
		return nil
	}

	user := userFrom(ctx)
	if m.OwnerID == user.ID {
		return m
	}
	ok, err := d.store.CanAccessMatrix(ctx, id, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	if !ok {
		writeError(w, http.StatusNotFound, "matrix not found")
		return nil
	}
	if ownerOnly {
		writeError(w, http.StatusForbidden, "only the matrix owner can do this")
		return nil
	}
	return m
}

// weightSummary recomputes the weight check for a matrix after a write.
func (d *deps) weightSummary(r *http.Request, matrixID uuid.UUID) (scoring.WeightSummary, error) {
	rows, err := d.store.ListCriteria(r.Context(), matrixID)
	if err != nil {
		return scoring.WeightSummary{}, err
	}
	return scoring.Summarize(toScoringCriteria(rows), d.eval.Policy()), nil
}

func toScoringCriteria(rows []*store.Criterion) []scoring.Criterion {
	out := make([]scoring.Criterion, 0, len(rows))
	for _, c := range rows {
		active := c.Active
		out = append(out, scoring.Criterion{
			ID:          c.ID.String(),
			Name:        c.Name,
			Weight:      c.Weight,
			Description: c.Description,
			Active:      &active,
		})
	}
	return out
}
