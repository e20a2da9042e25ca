package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investify/onboard/internal/models"
)

func completePersonal() models.PersonalInfo {
	return models.PersonalInfo{
		Gender:      "female",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Birthdate:   "1985-12-10",
		Nationality: "GB",
		Email:       "ada@example.com",
		Phone:       "+44 20 7946 0958",
	}
}

func completeAddress() models.AddressInfo {
	return models.AddressInfo{
		AddressLine1: "12 St James's Square",
		City:         "London",
		State:        "Greater London",
		PostalCode:   "SW1Y 4JH",
		Country:      "GB",
	}
}

func completeTransaction() models.AssetTransaction {
	return models.AssetTransaction{
		ID:              "1",
		TransactionDate: "2026-01-15",
		Quantity:        "100",
		Price:           "42.50",
	}
}

func TestOrderAndCount(t *testing.T) {
	steps := All()
	require.Len(t, steps, Count)
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, "welcome", steps[Welcome].Name)
	assert.Equal(t, "confirmation", steps[Confirmation].Name)
}

func TestByIndexOutOfRange(t *testing.T) {
	_, ok := ByIndex(-1)
	assert.False(t, ok)
	_, ok = ByIndex(Count)
	assert.False(t, ok)
	assert.False(t, Valid(Count, models.FormData{}))
}

func TestWelcomeAndConfirmationAlwaysValid(t *testing.T) {
	assert.True(t, Valid(Welcome, models.FormData{}))
	assert.True(t, Valid(Confirmation, models.FormData{}))
}

func TestPersonalValidation(t *testing.T) {
	d := models.FormData{PersonalInfo: completePersonal()}
	assert.True(t, Valid(Personal, d))

	d.Phone = "   "
	assert.False(t, Valid(Personal, d), "whitespace-only field must not pass")

	d = models.FormData{PersonalInfo: completePersonal()}
	d.Nationality = ""
	assert.False(t, Valid(Personal, d))
}

func TestAddressLine2Optional(t *testing.T) {
	d := models.FormData{AddressInfo: completeAddress()}
	assert.True(t, Valid(Address, d))

	d.AddressLine2 = "Flat 3"
	assert.True(t, Valid(Address, d))

	d.PostalCode = ""
	assert.False(t, Valid(Address, d))
}

func TestAssetValidation(t *testing.T) {
	tests := []struct {
		name   string
		assets []models.AssetTransaction
		want   bool
	}{
		{"no transactions", nil, false},
		{"one complete", []models.AssetTransaction{completeTransaction()}, true},
		{
			"one complete one missing price",
			[]models.AssetTransaction{
				completeTransaction(),
				{ID: "2", TransactionDate: "2026-02-01", Quantity: "5"},
			},
			false,
		},
		{
			"notice and proofs stay optional",
			[]models.AssetTransaction{completeTransaction()},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := models.FormData{Assets: tt.assets}
			assert.Equal(t, tt.want, Valid(Assets, d))
		})
	}
}

func TestLegalValidation(t *testing.T) {
	d := models.FormData{}
	assert.False(t, Valid(Legal, d))

	d.TermsAccepted = true
	assert.False(t, Valid(Legal, d))

	d.PrivacyAccepted = true
	assert.True(t, Valid(Legal, d))

	// Marketing consent never gates the step.
	d.MarketingConsent = false
	assert.True(t, Valid(Legal, d))
}
