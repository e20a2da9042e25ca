package client

import (
	"context"

	"github.com/investify/onboard/internal/models"
	"github.com/investify/onboard/internal/steps"
)

// StepPayload is the tagged union of per-step save payloads. Each
// variant carries its own section type, so dispatch happens over
// concrete types rather than a bare step number.
type StepPayload interface {
	Step() int
}

// PersonalPayload saves the step-1 section.
type PersonalPayload struct {
	models.PersonalInfo
}

func (PersonalPayload) Step() int { return steps.Personal }

// AddressPayload saves the step-2 section.
type AddressPayload struct {
	models.AddressInfo
}

func (AddressPayload) Step() int { return steps.Address }

// AssetPayload saves the step-3 transaction list.
type AssetPayload struct {
	Assets []models.AssetTransaction
}

func (AssetPayload) Step() int { return steps.Assets }

// LegalPayload saves the step-4 consent section.
type LegalPayload struct {
	models.LegalInfo
}

func (LegalPayload) Step() int { return steps.Legal }

// SaveStep persists one step's section. A PersonalPayload with no
// submission ID creates the submission; every other combination
// requires an existing ID and issues a PATCH.
func (c *Client) SaveStep(ctx context.Context, submissionID string, p StepPayload) Envelope[models.Submission] {
	switch v := p.(type) {
	case PersonalPayload:
		if submissionID == "" {
			return c.CreateSubmission(ctx, v.PersonalInfo)
		}
		return c.UpdatePersonalInfo(ctx, submissionID, v.PersonalInfo)
	case AddressPayload:
		if submissionID == "" {
			return noSubmission()
		}
		return c.UpdateAddressInfo(ctx, submissionID, v.AddressInfo)
	case AssetPayload:
		if submissionID == "" {
			return noSubmission()
		}
		return c.UpdateAssetInfo(ctx, submissionID, v.Assets)
	case LegalPayload:
		if submissionID == "" {
			return noSubmission()
		}
		return c.UpdateLegalInfo(ctx, submissionID, v.LegalInfo)
	default:
		return Envelope[models.Submission]{Message: "unsupported step payload"}
	}
}

func noSubmission() Envelope[models.Submission] {
	return Envelope[models.Submission]{Message: "no submission to update"}
}
