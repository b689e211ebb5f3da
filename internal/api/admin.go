package api

import (
	"net/http"
	"strings"

	"github.com/MikeSquared-Agency/Tally/internal/store"
)

type AdminHandler struct {
	*deps
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// CreateUser registers a user so their id can be sent as X-User-ID.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := &store.User{Username: req.Username, Email: strings.TrimSpace(req.Email)}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		writeStoreError(w, err, "user")
		return
	}
	h.logger.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
