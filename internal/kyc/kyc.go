// Package kyc wraps the external identity-verification service behind
// a small capability interface. The wizard only ever talks to Provider;
// the widget configuration the frontend needs is built here too.
package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Endpoints are the verification service's relative paths.
type Endpoints struct {
	StartVerification string `json:"startVerification"`
	Status            string `json:"getVerificationStatus"`
	ProcessStep       string `json:"processStepData"`
	GetConfig         string `json:"getConfig"`
	UploadFile        string `json:"uploadFile"`
	UpdateContext     string `json:"updateContext"`
}

// DocumentOption is one accepted identity-document kind.
type DocumentOption struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
}

// FlowStep is one screen of the verification flow.
type FlowStep struct {
	Name            string           `json:"name"`
	ID              string           `json:"id"`
	DocumentOptions []DocumentOption `json:"documentOptions,omitempty"`
}

// Config is everything needed to initialize a verification session and
// render the widget: endpoint base, branding, and the fixed flow.
type Config struct {
	BaseURL      string     `json:"baseUrl"`
	Endpoints    Endpoints  `json:"endpoints"`
	EndUserID    string     `json:"endUserId"`
	Language     string     `json:"language"`
	PrimaryColor string     `json:"primaryColor"`
	FontName     string     `json:"fontName"`
	FontLink     string     `json:"fontLink"`
	FontWeights  []int      `json:"fontWeights"`
	FlowName     string     `json:"flowName"`
	Steps        []FlowStep `json:"steps"`
}

// DefaultConfig builds the standard mobile KYC flow for a submission:
// document capture, selfie, review.
func DefaultConfig(baseURL, submissionID string) Config {
	endUser := submissionID
	if endUser == "" {
		endUser = "no-submission-id"
	}
	return Config{
		BaseURL: baseURL,
		Endpoints: Endpoints{
			StartVerification: "/v2/enduser/verify",
			Status:            "/v2/enduser/verify/status/{verificationId}",
			ProcessStep:       "/v2/enduser/verify/partial",
			GetConfig:         "/v2/clients/{clientId}/config",
			UploadFile:        "/collection-flow/files1",
			UpdateContext:     "/collection-flow/sync/context",
		},
		EndUserID:    endUser,
		Language:     "en",
		PrimaryColor: "#2563eb",
		FontName:     "Inter",
		FontLink:     "https://fonts.googleapis.com/css2?family=Inter:wght@500",
		FontWeights:  []int{500, 700},
		FlowName:     "kyc-mobile",
		Steps: []FlowStep{
			{Name: "welcome", ID: "welcome"},
			{Name: "document-selection", ID: "document-selection", DocumentOptions: []DocumentOption{
				{Type: "id_card", Kind: "id_card"},
				{Type: "drivers_license", Kind: "drivers_license"},
				{Type: "passport", Kind: "passport"},
			}},
			{Name: "document-photo", ID: "document-photo"},
			{Name: "check-document", ID: "check-document"},
			{Name: "document-photo-back-start", ID: "document-photo-back-start"},
			{Name: "document-photo-back", ID: "document-photo-back"},
			{Name: "check-document-photo-back", ID: "check-document-photo-back"},
			{Name: "selfie-start", ID: "selfie-start"},
			{Name: "selfie", ID: "selfie"},
			{Name: "check-selfie", ID: "check-selfie"},
			{Name: "loading", ID: "loading"},
			{Name: "final", ID: "final"},
		},
	}
}

// Session is an initialized verification session.
type Session struct {
	VerificationID string `json:"verificationId"`
	Status         string `json:"status"`
}

// Provider initializes verification sessions.
type Provider interface {
	Initialize(ctx context.Context, cfg Config) (*Session, error)
}

// HTTPProvider starts sessions against the real verification backend.
type HTTPProvider struct {
	http *http.Client
	log  *zap.Logger
}

// NewHTTPProvider creates a provider with a 30-second request timeout.
func NewHTTPProvider(log *zap.Logger) *HTTPProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPProvider{
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

func (p *HTTPProvider) Initialize(ctx context.Context, cfg Config) (*Session, error) {
	body, err := json.Marshal(map[string]any{
		"endUserId": cfg.EndUserID,
		"language":  cfg.Language,
		"flowName":  cfg.FlowName,
	})
	if err != nil {
		return nil, fmt.Errorf("kyc: encode request: %w", err)
	}
	url := cfg.BaseURL + cfg.Endpoints.StartVerification
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("kyc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kyc: start verification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kyc: start verification: status %d", resp.StatusCode)
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("kyc: decode session: %w", err)
	}
	p.log.Info("kyc session initialized",
		zap.String("endUser", cfg.EndUserID),
		zap.String("verification", sess.VerificationID))
	return &sess, nil
}

// Nop is a Provider that starts nothing, for offline runs and tests.
type Nop struct{}

func (Nop) Initialize(context.Context, Config) (*Session, error) {
	return &Session{Status: "skipped"}, nil
}
