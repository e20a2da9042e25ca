package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investify/onboard/internal/models"
)

// newTestClient wires a client against srv with instant, recorded
// sleeps and zero jitter so retry timing is observable.
func newTestClient(srv *httptest.Server) (*Client, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	c := New(srv.URL, WithHTTPClient(srv.Client()))
	c.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	c.jitter = func() time.Duration { return 0 }
	return c, sleeps
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "sub-1", "status": "draft"})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv)
	env := c.GetSubmission(context.Background(), "sub-1")

	require.True(t, env.Success, "third attempt should succeed: %s", env.Message)
	assert.Equal(t, "sub-1", env.Data.ID)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	// Backoff doubles from the base delay.
	require.Len(t, *sleeps, 2)
	assert.Equal(t, baseDelay, (*sleeps)[0])
	assert.Equal(t, backoffMultiplier*baseDelay, (*sleeps)[1])
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "database down"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.GetSubmission(context.Background(), "sub-1")

	assert.False(t, env.Success)
	assert.Equal(t, "database down", env.Message)
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Validation failed",
			"errors":  map[string][]string{"email": {"is invalid"}},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.CreateSubmission(context.Background(), models.PersonalInfo{Email: "nope"})

	assert.False(t, env.Success)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "4xx must not retry")
	assert.Equal(t, "Validation failed", env.Message)
	assert.Equal(t, []string{"is invalid"}, env.Errors["email"])
}

func TestRateLimitHonorsRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "sub-1"})
	}))
	defer srv.Close()

	c, sleeps := newTestClient(srv)
	env := c.GetSubmission(context.Background(), "sub-1")

	require.True(t, env.Success)
	require.Len(t, *sleeps, 1)
	assert.Equal(t, 5*time.Second, (*sleeps)[0], "server-requested delay overrides backoff")
}

func TestRequestTimeoutRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusRequestTimeout)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	ok := c.HealthCheck(context.Background())

	assert.False(t, ok)
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls), "408 retries like a 5xx")
}

func TestCallerCancellationStopsRetrying(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}
	env := c.GetSubmission(context.Background(), "sub-1")

	assert.False(t, env.Success)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestValidateStepDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/submissions/validate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 2, body["step"])
		assert.Contains(t, body, "form_data")
		json.NewEncoder(w).Encode(map[string]any{
			"valid":  false,
			"errors": map[string][]string{"postal_code": {"is required"}},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.ValidateStep(context.Background(), 2, models.FormData{})

	require.True(t, env.Success, env.Message)
	assert.False(t, env.Data.Valid)
	assert.Equal(t, []string{"is required"}, env.Data.Errors["postal_code"])
}

func TestSaveStepCreatesThenPatches(t *testing.T) {
	type seen struct {
		method string
		path   string
		body   map[string]any
	}
	var reqs []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		reqs = append(reqs, seen{r.Method, r.URL.Path, body})
		json.NewEncoder(w).Encode(map[string]any{"id": "sub-9", "status": "draft"})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	personal := PersonalPayload{PersonalInfo: models.PersonalInfo{FirstName: "Ada"}}

	env := c.SaveStep(context.Background(), "", personal)
	require.True(t, env.Success)
	assert.Equal(t, "sub-9", env.Data.ID)

	env = c.SaveStep(context.Background(), env.Data.ID, personal)
	require.True(t, env.Success)

	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "/api/submissions", reqs[0].path)
	assert.Equal(t, http.MethodPatch, reqs[1].method)
	assert.Equal(t, "/api/submissions/sub-9", reqs[1].path)
}

func TestSaveStepWithoutSubmissionFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.SaveStep(context.Background(), "", AddressPayload{})
	assert.False(t, env.Success)
}

func TestUploadFileDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "proof.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"url":      "http://example.com/uploads/abc.pdf",
				"filename": "abc.pdf",
			},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.UploadFile(context.Background(), "proof.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))

	require.True(t, env.Success, env.Message)
	assert.Equal(t, "abc.pdf", env.Data.Filename)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestUploadFileSniffsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"url": "u", "filename": "f.jpg"},
		})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	env := c.UploadFile(context.Background(), "receipt.jpg", "", strings.NewReader("jpeg"))
	require.True(t, env.Success, env.Message)
}
