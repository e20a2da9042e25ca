package models

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// UploadState tracks the proof-document upload for one transaction.
type UploadState string

const (
	UploadIdle      UploadState = "idle"
	UploadInFlight  UploadState = "uploading"
	UploadSucceeded UploadState = "success"
	UploadFailed    UploadState = "error"
)

// ProofRef points at an uploaded proof document by name and the
// server-returned URL.
type ProofRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AssetTransaction is one investment transaction line item. Quantity and
// Price stay decimal strings; the remote API owns their interpretation.
type AssetTransaction struct {
	ID              string      `json:"id"`
	TransactionDate string      `json:"transactionDate"`
	Quantity        string      `json:"quantity"`
	Price           string      `json:"price"`
	Notice          string      `json:"notice"`
	Proofs          []ProofRef  `json:"proofs,omitempty"`
	UploadState     UploadState `json:"uploadState,omitempty"`
	UploadError     string      `json:"uploadError,omitempty"`

	// ProofFileName survives serialization; the open handle does not.
	ProofFileName string    `json:"proofFileName,omitempty"`
	ProofFile     io.Reader `json:"-"`
}

// NewAssetTransaction creates an empty transaction with a time-based
// local identifier, matching how rows are minted in the form.
func NewAssetTransaction() AssetTransaction {
	return AssetTransaction{
		ID:          fmt.Sprintf("%d", time.Now().UnixMilli()),
		UploadState: UploadIdle,
	}
}

// Complete reports whether the transaction carries all mandatory fields.
func (t AssetTransaction) Complete() bool {
	return strings.TrimSpace(t.TransactionDate) != "" &&
		strings.TrimSpace(t.Quantity) != "" &&
		strings.TrimSpace(t.Price) != ""
}

// PersonalInfo is the step-1 section of the form.
type PersonalInfo struct {
	Gender      string `json:"gender"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Birthdate   string `json:"birthdate"`
	Nationality string `json:"nationality"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// AddressInfo is the step-2 section of the form.
type AddressInfo struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// LegalInfo is the step-4 consent section.
type LegalInfo struct {
	TermsAccepted    bool `json:"termsAccepted"`
	PrivacyAccepted  bool `json:"privacyAccepted"`
	MarketingConsent bool `json:"marketingConsent"`
}

// FormData aggregates every step's input for one onboarding session.
// The embedded sections flatten into a single JSON object so the stored
// shape matches what the step screens exchange.
type FormData struct {
	PersonalInfo
	AddressInfo
	Assets []AssetTransaction `json:"assets"`
	LegalInfo
}

// Serialize renders FormData for the session store. Open file handles
// on transactions are dropped; only the file name reference survives.
func (d FormData) Serialize() ([]byte, error) {
	out := d
	out.Assets = make([]AssetTransaction, len(d.Assets))
	for i, a := range d.Assets {
		a.ProofFile = nil
		out.Assets[i] = a
	}
	return json.Marshal(out)
}

// RestoreFormData rebuilds FormData from its stored serialization.
func RestoreFormData(raw []byte) (FormData, error) {
	var d FormData
	if err := json.Unmarshal(raw, &d); err != nil {
		return FormData{}, fmt.Errorf("restore form data: %w", err)
	}
	if d.Assets == nil {
		d.Assets = []AssetTransaction{}
	}
	return d, nil
}
