package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/investify/onboard/internal/kyc"
)

// KYCHandler serves the identity-verification flow configuration that
// the mobile verification client boots from.
type KYCHandler struct {
	baseURL string
}

func NewKYCHandler(baseURL string) *KYCHandler {
	return &KYCHandler{baseURL: baseURL}
}

func (h *KYCHandler) Config(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submissionId")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    kyc.DefaultConfig(h.baseURL, submissionID),
	})
}
