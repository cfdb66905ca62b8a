package api

import (
	"net/http"

	"github.com/ashureev/careersim/internal/identity"
)

// Register creates a candidate account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg identity.Registration
	if !decodeJSON(w, r, &reg) {
		return
	}
	if err := h.auth.Register(r.Context(), reg); err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Login exchanges credentials for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
