package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type SharesHandler struct {
	*deps
}

type ShareRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Create shares a matrix with another registered user, looked up by email.
func (h *SharesHandler) Create(w http.ResponseWriter, r *http.Request) {
	matrixID, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	m := h.matrixFor(w, r, matrixID, true)
	if m == nil {
		return
	}

	var req ShareRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.ID == m.OwnerID {
		writeError(w, http.StatusBadRequest, "cannot share a matrix with its owner")
		return
	}

	sh := &store.Share{MatrixID: m.ID, UserID: target.ID, Username: target.Username, Email: target.Email}
	if err := h.store.ShareMatrix(r.Context(), sh); err != nil {
		writeStoreError(w, err, "share")
		return
	}

	h.emit(events.SubjectMatrixShared(m.ID.String()), events.ShareEvent{
		MatrixID: m.ID.String(),
		UserID:   target.ID.String(),
		ActorID:  userFrom(r.Context()).ID.String(),
		At:       time.Now().UTC(),
	})
	writeJSON(w, http.StatusCreated, sh)
}

func (h *SharesHandler) List(w http.ResponseWriter, r *http.Request) {
	matrixID, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	if h.matrixFor(w, r, matrixID, false) == nil {
		return
	}

	shares, err := h.store.ListShares(r.Context(), matrixID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if shares == nil {
		shares = []*store.Share{}
	}
	writeJSON(w, http.StatusOK, shares)
}

func (h *SharesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	matrixID, ok := urlID(w, r, "id", "matrix")
	if !ok {
		return
	}
	userID, ok := urlID(w, r, "user_id", "user")
	if !ok {
		return
	}
	if h.matrixFor(w, r, matrixID, true) == nil {
		return
	}

	if err := h.store.UnshareMatrix(r.Context(), matrixID, userID); err != nil {
		writeStoreError(w, err, "share")
		return
	}

	h.emit(events.SubjectMatrixUnshared(matrixID.String()), events.ShareEvent{
		MatrixID: matrixID.String(),
		UserID:   userID.String(),
		ActorID:  userFrom(r.Context()).ID.String(),
		At:       time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}
