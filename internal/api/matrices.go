package api

import (
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type MatricesHandler struct {
	*deps
}

type CreateMatrixRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateMatrixRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

// MatrixDetail is a matrix with everything needed to render it.
type MatrixDetail struct {
	scoring.Matrix
	Weights scoring.WeightSummary `json:"weights"`
	Scale   scoring.Scale         `json:"scale"`
}

func (h *MatricesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMatrixRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userFrom(r.Context())
	m := &store.Matrix{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := h.store.CreateMatrix(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.emit(events.SubjectMatrixCreated(m.ID.String()), events.MatrixEvent{
		MatrixID: m.ID.String(),
		Name:     m.Name,
		ActorID:  user.ID.String(),
		At:       time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, m)
}

func (h *MatricesHandler) List(w http.ResponseWriter, r *http.Request) {
	matrices, err := h.store.ListMatricesForUser(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matrices == nil {
		matrices = []*store.Matrix{}
	}
	writeJSON(w, http.StatusOK, matrices)
}

func (h *MatricesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, id, false) == nil {
		return
	}

	snap, err := store.Snapshot(r.Context(), h.store, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "matrix not found")
		return
	}
	writeJSON(w, http.StatusOK, MatrixDetail{
		Matrix:  *snap,
		Weights: scoring.Summarize(snap.Criteria, h.eval.Policy()),
		Scale:   h.eval.Scale(),
	})
}

func (h *MatricesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	m := h.matrixFor(w, r, id, false)
	if m == nil {
		return
	}

	var req UpdateMatrixRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}

	if err := h.store.UpdateMatrix(r.Context(), m); err != nil {
		writeStoreError(w, err, "matrix")
		return
	}

	h.emit(events.SubjectMatrixUpdated(m.ID.String()), events.MatrixEvent{
		MatrixID: m.ID.String(),
		Name:     m.Name,
		ActorID:  userFrom(r.Context()).ID.String(),
		At:       time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, m)
}

func (h *MatricesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, id, true) == nil {
		return
	}

	if err := h.store.DeleteMatrix(r.Context(), id); err != nil {
		writeStoreError(w, err, "matrix")
		return
	}

	h.emit(events.SubjectMatrixDeleted(id.String()), events.MatrixEvent{
		MatrixID: id.String(),
		ActorID:  userFrom(r.Context()).ID.String(),
		At:       time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}
