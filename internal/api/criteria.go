package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type CriteriaHandler struct {
	*deps
}

// Weights arrive either as a fraction (weight) or a percentage
// (weight_percent). Exactly one may be set.
type CreateCriterionRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	Weight        *float64 `json:"weight" validate:"omitnil,gte=0,lte=1"`
	WeightPercent *float64 `json:"weight_percent" validate:"omitnil,gte=0,lte=100"`
}

type UpdateCriterionRequest struct {
	Name          *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitnil,max=2000"`
	Weight        *float64 `json:"weight" validate:"omitnil,gte=0,lte=1"`
	WeightPercent *float64 `json:"weight_percent" validate:"omitnil,gte=0,lte=100"`
}

// CriterionResponse carries the fresh weight check so clients can warn
// while the weights do not yet add up.
type CriterionResponse struct {
	Criterion *store.Criterion      `json:"criterion,omitempty"`
	Weights   scoring.WeightSummary `json:"weights"`
}

var errWeightBoth = errors.New("set weight or weight_percent, not both")

func resolveWeight(weight, percent *float64) (*float64, error) {
	switch {
	case weight != nil && percent != nil:
		return nil, errWeightBoth
	case percent != nil:
		w := scoring.FromPercent(*percent)
		return &w, nil
	default:
		return weight, nil
	}
}

func (h *CriteriaHandler) Create(w http.ResponseWriter, r *http.Request) {
	matrixID, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, matrixID, false) == nil {
		return
	}

	var req CreateCriterionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weight, err := resolveWeight(req.Weight, req.WeightPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if weight == nil {
		writeError(w, http.StatusBadRequest, "weight or weight_percent is required")
		return
	}

	c := &store.Criterion{
		MatrixID:    matrixID,
		Name:        req.Name,
		Description: req.Description,
		Weight:      *weight,
	}
	if err := h.store.CreateCriterion(r.Context(), c); err != nil {
		writeStoreError(w, err, "criterion")
		return
	}
	h.respond(w, r, http.StatusCreated, c, "created")
}

func (h *CriteriaHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}

	var req UpdateCriterionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weight, err := resolveWeight(req.Weight, req.WeightPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if weight != nil {
		c.Weight = *weight
	}

	if err := h.store.UpdateCriterion(r.Context(), c); err != nil {
		writeStoreError(w, err, "criterion")
		return
	}
	h.respond(w, r, http.StatusOK, c, "updated")
}

func (h *CriteriaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCriterion(r.Context(), c.ID); err != nil {
		writeStoreError(w, err, "criterion")
		return
	}
	c.Active = false
	h.respond(w, r, http.StatusOK, c, "deleted")
}

// load fetches the criterion named in the path and checks matrix access.
func (h *CriteriaHandler) load(w http.ResponseWriter, r *http.Request) (*store.Criterion, bool) {
	id, ok := urlID(w, r, "id", "criterion")
	if !ok {
		return nil, false
	}
	c, err := h.store.GetCriterion(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "criterion not found")
		return nil, false
	}
	if h.matrixFor(w, r, c.MatrixID, false) == nil {
		return nil, false
	}
	return c, true
}

func (h *CriteriaHandler) respond(w http.ResponseWriter, r *http.Request, status int, c *store.Criterion, action string) {
	summary, err := h.weightSummary(r, c.MatrixID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !summary.Valid {
		h.logger.Debug("criteria weights off target",
			"matrix_id", c.MatrixID, "total", summary.Total, "tolerance", summary.Tolerance)
	}

	total, valid := summary.Total, summary.Valid
	h.emit(events.SubjectCriteriaChanged(c.MatrixID.String()), events.ChangeEvent{
		MatrixID:    c.MatrixID.String(),
		EntityID:    c.ID.String(),
		Action:      action,
		ActorID:     userFrom(r.Context()).ID.String(),
		WeightTotal: &total,
		WeightValid: &valid,
		At:          time.Now().UTC(),
	})
	writeJSON(w, status, CriterionResponse{Criterion: c, Weights: summary})
}
