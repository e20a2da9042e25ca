package handler

import (
	"net/http"

	"github.com/investify/onboard/internal/auth"
)

// AuthHandler exchanges the maintenance secret for a short-lived token
// that unlocks the operator endpoints.
type AuthHandler struct {
	secretHash string
	jwtSecret  string
}

func NewAuthHandler(secretHash, jwtSecret string) *AuthHandler {
	return &AuthHandler{secretHash: secretHash, jwtSecret: jwtSecret}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Secret == "" {
		writeError(w, http.StatusBadRequest, "secret is required")
		return
	}
	if !auth.VerifySecret(h.secretHash, req.Secret) {
		writeError(w, http.StatusUnauthorized, "invalid secret")
		return
	}
	token, err := auth.GenerateToken(h.jwtSecret, "operator")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]string{"token": token},
	})
}
