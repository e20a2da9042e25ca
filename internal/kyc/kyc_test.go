package kyc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigShape(t *testing.T) {
	cfg := DefaultConfig("https://verify.example.com", "sub-42")

	assert.Equal(t, "sub-42", cfg.EndUserID)
	assert.Equal(t, "kyc-mobile", cfg.FlowName)
	assert.Equal(t, "/v2/enduser/verify", cfg.Endpoints.StartVerification)
	require.Len(t, cfg.Steps, 12)
	assert.Equal(t, "welcome", cfg.Steps[0].ID)
	assert.Equal(t, "final", cfg.Steps[len(cfg.Steps)-1].ID)

	// Document selection offers the three accepted document kinds.
	var sel *FlowStep
	for i := range cfg.Steps {
		if cfg.Steps[i].ID == "document-selection" {
			sel = &cfg.Steps[i]
		}
	}
	require.NotNil(t, sel)
	assert.Len(t, sel.DocumentOptions, 3)
}

func TestDefaultConfigWithoutSubmission(t *testing.T) {
	cfg := DefaultConfig("https://verify.example.com", "")
	assert.Equal(t, "no-submission-id", cfg.EndUserID)
}

func TestHTTPProviderInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/enduser/verify", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sub-42", body["endUserId"])
		json.NewEncoder(w).Encode(map[string]string{
			"verificationId": "ver-1",
			"status":         "pending",
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(nil)
	sess, err := p.Initialize(context.Background(), DefaultConfig(srv.URL, "sub-42"))
	require.NoError(t, err)
	assert.Equal(t, "ver-1", sess.VerificationID)
	assert.Equal(t, "pending", sess.Status)
}

func TestNopProvider(t *testing.T) {
	sess, err := Nop{}.Initialize(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, "skipped", sess.Status)
}
