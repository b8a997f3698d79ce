// internal/intake/rep-attribution/models.go
package repattribution

import "loan-intake/internal/models"

type Input struct {
	Code      string
	Signature string
}

// Output carries the attributed rep, or nil with the reason it was dropped.
type Output struct {
	Rep    *models.Rep
	Reason string
}

const (
	ReasonNoCode       = "no_code"
	ReasonUnknownCode  = "unknown_code"
	ReasonBadSignature = "bad_signature"
	ReasonAttributed   = "attributed"
)

// Referral is what the form renders for a valid ?rep= link.
type Referral struct {
	Code      string
	Signature string
	Rep       models.Rep
}

// RepLink is one entry of the public rep listing.
type RepLink struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Link  string `json:"link"`
}
