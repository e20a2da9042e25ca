package models

// SubmissionStatus is the server-side lifecycle state of an application.
type SubmissionStatus string

const (
	StatusDraft       SubmissionStatus = "draft"
	StatusSubmitted   SubmissionStatus = "submitted"
	StatusUnderReview SubmissionStatus = "under_review"
	StatusApproved    SubmissionStatus = "approved"
	StatusRejected    SubmissionStatus = "rejected"
)

// Submission is the server-owned record of one applicant's progress.
// The client only references it by its opaque ID; it is created on the
// first personal-info save and never deleted from the client side.
type Submission struct {
	ID        string           `json:"id"`
	Status    SubmissionStatus `json:"status"`
	Step      int              `json:"step"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}
