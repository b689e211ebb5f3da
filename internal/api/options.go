package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type OptionsHandler struct {
	*deps
}

type CreateOptionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`

	// Scores optionally rates the new option, keyed by criterion id.
	Scores map[string]float64 `json:"scores"`
}

type UpdateOptionRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

type PutScoreRequest struct {
	Score *float64 `json:"score" validate:"required"`
}

type OptionResponse struct {
	*store.Option
	Scores map[string]float64 `json:"scores"`
}

func (h *OptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	matrixID, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, matrixID, false) == nil {
		return
	}

	var req CreateOptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check every initial score before writing anything.
	initial := make(map[uuid.UUID]float64, len(req.Scores))
	if len(req.Scores) > 0 {
		criteria, err := h.store.ListCriteria(r.Context(), matrixID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		known := make(map[uuid.UUID]bool, len(criteria))
		for _, c := range criteria {
			known[c.ID] = true
		}
		for key, v := range req.Scores {
			cid, err := uuid.Parse(key)
			if err != nil || !known[cid] {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown criterion %q", key))
				return
			}
			if msg := h.checkScale(v); msg != "" {
				writeError(w, http.StatusBadRequest, msg)
				return
			}
			initial[cid] = v
		}
	}

	o := &store.Option{
		MatrixID:    matrixID,
		Name:        req.Name,
		Description: req.Description,
	}
	rows := make([]*store.Score, 0, len(initial))
	scores := make(map[string]float64, len(initial))
	for cid, v := range initial {
		rows = append(rows, &store.Score{CriterionID: cid, Score: v})
		scores[cid.String()] = v
	}
	if err := h.store.CreateOptionWithScores(r.Context(), o, rows); err != nil {
		writeStoreError(w, err, "option")
		return
	}

	h.changed(r, events.SubjectOptionsChanged, o.MatrixID, o.ID, "", "created")
	writeJSON(w, http.StatusCreated, OptionResponse{Option: o, Scores: scores})
}

func (h *OptionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}

	var req UpdateOptionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		o.Name = *req.Name
	}
	if req.Description != nil {
		o.Description = *req.Description
	}

	if err := h.store.UpdateOption(r.Context(), o); err != nil {
		writeStoreError(w, err, "option")
		return
	}
	h.changed(r, events.SubjectOptionsChanged, o.MatrixID, o.ID, "", "updated")
	writeJSON(w, http.StatusOK, o)
}

func (h *OptionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteOption(r.Context(), o.ID); err != nil {
		writeStoreError(w, err, "option")
		return
	}
	h.changed(r, events.SubjectOptionsChanged, o.MatrixID, o.ID, "", "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// PutScore sets one option's raw rating for one criterion.
func (h *OptionsHandler) PutScore(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	criterionID, ok := urlID(w, r, "criterion_id", "criterion")
	if !ok {
		return
	}

	var req PutScoreRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := h.checkScale(*req.Score); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := h.store.GetCriterion(r.Context(), criterionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "criterion not found")
		return
	}
	if c.MatrixID != o.MatrixID {
		writeError(w, http.StatusBadRequest, "criterion belongs to a different matrix")
		return
	}

	sc := &store.Score{OptionID: o.ID, CriterionID: c.ID, Score: *req.Score}
	if err := h.store.UpsertScore(r.Context(), sc); err != nil {
		writeStoreError(w, err, "score")
		return
	}
	h.changed(r, events.SubjectScoresChanged, o.MatrixID, o.ID, c.ID.String(), "updated")
	writeJSON(w, http.StatusOK, sc)
}

func (h *OptionsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Option, bool) {
	id, ok := urlID(w, r, "id", "option")
	if !ok {
		return nil, false
	}
	o, err := h.store.GetOption(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "option not found")
		return nil, false
	}
	if h.matrixFor(w, r, o.MatrixID, false) == nil {
		return nil, false
	}
	return o, true
}

func (h *OptionsHandler) checkScale(v float64) string {
	s := h.eval.Scale()
	if !s.Contains(v) {
		return fmt.Sprintf("score must be between %g and %g", s.Min, s.Max)
	}
	return ""
}

func (h *OptionsHandler) changed(r *http.Request, subject func(string) string, matrixID, entityID uuid.UUID, criterionID, action string) {
	h.emit(subject(matrixID.String()), events.ChangeEvent{
		MatrixID:    matrixID.String(),
		EntityID:    entityID.String(),
		CriterionID: criterionID,
		Action:      action,
		ActorID:     userFrom(r.Context()).ID.String(),
		At:          time.Now().UTC(),
	})
}
