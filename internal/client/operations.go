package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/investify/onboard/internal/models"
	"github.com/investify/onboard/internal/steps"
)

// stepBody is the wire shape of step-save requests. Exactly one section
// pointer is set per request.
type stepBody struct {
	Step         int                  `json:"step"`
	PersonalInfo *models.PersonalInfo `json:"personal_info,omitempty"`
	AddressInfo  *models.AddressInfo  `json:"address_info,omitempty"`
	AssetInfo    *assetSection        `json:"asset_info,omitempty"`
	LegalInfo    *models.LegalInfo    `json:"legal_info,omitempty"`
}

type assetSection struct {
	Assets []models.AssetTransaction `json:"assets"`
}

// CreateSubmission opens a new submission from the personal-info step.
func (c *Client) CreateSubmission(ctx context.Context, info models.PersonalInfo) Envelope[models.Submission] {
	body := stepBody{Step: steps.Personal, PersonalInfo: &info}
	return decode[models.Submission](c.do(ctx, http.MethodPost, "/api/submissions", body))
}

// UpdatePersonalInfo rewrites the personal section of an existing submission.
func (c *Client) UpdatePersonalInfo(ctx context.Context, id string, info models.PersonalInfo) Envelope[models.Submission] {
	body := stepBody{Step: steps.Personal, PersonalInfo: &info}
	return decode[models.Submission](c.do(ctx, http.MethodPatch, "/api/submissions/"+id, body))
}

// UpdateAddressInfo rewrites the address section.
func (c *Client) UpdateAddressInfo(ctx context.Context, id string, info models.AddressInfo) Envelope[models.Submission] {
	body := stepBody{Step: steps.Address, AddressInfo: &info}
	return decode[models.Submission](c.do(ctx, http.MethodPatch, "/api/submissions/"+id, body))
}

// UpdateAssetInfo rewrites the transaction list.
func (c *Client) UpdateAssetInfo(ctx context.Context, id string, assets []models.AssetTransaction) Envelope[models.Submission] {
	if assets == nil {
		assets = []models.AssetTransaction{}
	}
	body := stepBody{Step: steps.Assets, AssetInfo: &assetSection{Assets: assets}}
	return decode[models.Submission](c.do(ctx, http.MethodPatch, "/api/submissions/"+id, body))
}

// UpdateLegalInfo rewrites the consent section.
func (c *Client) UpdateLegalInfo(ctx context.Context, id string, info models.LegalInfo) Envelope[models.Submission] {
	body := stepBody{Step: steps.Legal, LegalInfo: &info}
	return decode[models.Submission](c.do(ctx, http.MethodPatch, "/api/submissions/"+id, body))
}

// SubmitApplication finalizes the submission.
func (c *Client) SubmitApplication(ctx context.Context, id string) Envelope[models.Submission] {
	body := map[string]any{"step": steps.Confirmation, "status": models.StatusSubmitted}
	return decode[models.Submission](c.do(ctx, http.MethodPost, "/api/submissions/"+id+"/submit", body))
}

// SubmissionDetail is a submission together with its stored form data.
type SubmissionDetail struct {
	models.Submission
	FormData models.FormData `json:"form_data"`
}

// GetSubmission fetches a submission with its form data.
func (c *Client) GetSubmission(ctx context.Context, id string) Envelope[SubmissionDetail] {
	return decode[SubmissionDetail](c.do(ctx, http.MethodGet, "/api/submissions/"+id, nil))
}

// AutoSave sends a background partial save. The is_autosave marker lets
// the backend skip interactive validation.
func (c *Client) AutoSave(ctx context.Context, id string, step int, data models.FormData) Envelope[models.Submission] {
	body := map[string]any{
		"step":        step,
		"form_data":   data,
		"is_autosave": true,
	}
	return decode[models.Submission](c.do(ctx, http.MethodPatch, "/api/submissions/"+id+"/autosave", body))
}

// ValidationResult is the outcome of a dry-run step validation.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// ValidateStep asks the backend to validate step data without persisting it.
func (c *Client) ValidateStep(ctx context.Context, step int, data models.FormData) Envelope[ValidationResult] {
	body := map[string]any{"step": step, "form_data": data}
	return decode[ValidationResult](c.do(ctx, http.MethodPost, "/api/submissions/validate", body))
}

// HealthCheck reports whether the remote API answers its health probe.
func (c *Client) HealthCheck(ctx context.Context) bool {
	env := decode[struct {
		Status string `json:"status"`
	}](c.do(ctx, http.MethodGet, "/api/health", nil))
	return env.Success && env.Data.Status == "ok"
}

// ListForms fetches every available onboarding form.
func (c *Client) ListForms(ctx context.Context) Envelope[[]models.Form] {
	return decode[[]models.Form](c.do(ctx, http.MethodGet, "/api/forms", nil))
}

// GetFormBySlug fetches one form by its slug.
func (c *Client) GetFormBySlug(ctx context.Context, slug string) Envelope[models.FormResponse] {
	return decode[models.FormResponse](c.do(ctx, http.MethodGet, "/api/form/"+slug, nil))
}

// ErrorText flattens an envelope's message and field errors into one
// line for logs.
func ErrorText[T any](env Envelope[T]) string {
	if env.Message == "" && len(env.Errors) == 0 {
		return "unknown error"
	}
	if len(env.Errors) == 0 {
		return env.Message
	}
	return fmt.Sprintf("%s (%d field errors)", env.Message, len(env.Errors))
}
