// Package steps defines the six wizard screens and their local
// field-level validation. Validation here never touches the network;
// server-side dry-run checks go through the API client instead.
package steps

import (
	"strings"

	"github.com/investify/onboard/internal/models"
)

// Step indices in wizard order.
const (
	Welcome      = 0
	Personal     = 1
	Address      = 2
	Assets       = 3
	Legal        = 4
	Confirmation = 5
)

// Count is the number of wizard steps.
const Count = 6

// Step is one screen in the wizard sequence.
type Step struct {
	Index    int
	Name     string
	Title    string
	Validate func(models.FormData) bool
}

var all = []Step{
	{Welcome, "welcome", "Welcome", alwaysValid},
	{Personal, "personal", "Personal Info", validatePersonal},
	{Address, "address", "More Info", validateAddress},
	{Assets, "assets", "Asset Info", validateAssets},
	{Legal, "legal", "Legal", validateLegal},
	{Confirmation, "confirmation", "Confirmation", alwaysValid},
}

// All returns the steps in wizard order.
func All() []Step {
	out := make([]Step, len(all))
	copy(out, all)
	return out
}

// ByIndex returns the step at i. ok is false when i is out of range.
func ByIndex(i int) (Step, bool) {
	if i < 0 || i >= len(all) {
		return Step{}, false
	}
	return all[i], true
}

// Valid reports whether the data satisfies step i's own rules.
// Out-of-range indices are invalid.
func Valid(i int, d models.FormData) bool {
	s, ok := ByIndex(i)
	if !ok {
		return false
	}
	return s.Validate(d)
}

func alwaysValid(models.FormData) bool { return true }

func validatePersonal(d models.FormData) bool {
	for _, v := range []string{
		d.Gender, d.FirstName, d.LastName,
		d.Email, d.Phone, d.Birthdate, d.Nationality,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// AddressLine2 is the only optional address field.
func validateAddress(d models.FormData) bool {
	for _, v := range []string{
		d.AddressLine1, d.City, d.State, d.PostalCode, d.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func validateAssets(d models.FormData) bool {
	if len(d.Assets) == 0 {
		return false
	}
	for _, t := range d.Assets {
		if !t.Complete() {
			return false
		}
	}
	return true
}

func validateLegal(d models.FormData) bool {
	return d.TermsAccepted && d.PrivacyAccepted
}
