package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is the trimmed, flat form mapping exactly as submitted.
type Fields map[string]string

// NewFields trims every value. Only the first value of repeated keys is kept.
func NewFields(raw map[string][]string) Fields {
	out := make(Fields, len(raw))
	for k, vs := range raw {
		if len(vs) == 0 {
			continue
		}
		out[k] = strings.TrimSpace(vs[0])
	}
	return out
}

// Get returns the value for key or "" when absent.
func (f Fields) Get(key string) string {
	return f[key]
}

// Has reports whether key is present with a non-empty value.
func (f Fields) Has(key string) bool {
	return f[key] != ""
}

// Optional returns nil for absent or empty values.
func (f Fields) Optional(key string) *string {
	if v, ok := f[key]; ok && v != "" {
		return &v
	}
	return nil
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ApplicantForm is the typed view of a validated submission, used wherever
// the pipeline needs more than the archived field mapping.
type ApplicantForm struct {
	Business       BusinessInfo
	Address        Address
	Owners         []OwnerInfo
	Property       PropertyInfo
	Signature      SignatureInfo
	HasSecondOwner bool
}

type BusinessInfo struct {
	LegalName   string
	DBA         *string
	Industry    string
	LegalEntity string
	StartDate   string
	EIN         string
	Phone       *string
	Website     *string
	LoanAmount  decimal.Decimal
	UseOfFunds  *string
}

type Address struct {
	Line1 string
	Line2 *string
	City  string
	State string
	Zip   string
}

// OneLine renders the address on a single line, skipping empty parts.
func (a Address) OneLine() string {
	parts := make([]string, 0, 4)
	if a.Line1 != "" {
		parts = append(parts, a.Line1)
	}
	if a.Line2 != nil {
		parts = append(parts, *a.Line2)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	stateZip := strings.TrimSpace(strings.ToUpper(a.State) + " " + a.Zip)
	if stateZip != "" {
		parts = append(parts, stateZip)
	}
	return strings.Join(parts, ", ")
}

type OwnerInfo struct {
	First        string
	Last         string
	OwnershipPct string
	DOB          string
	SSN          string
	Email        string
	Mobile       string
	FICO         *int
	Address      *Address
}

// FullName joins first and last name, trimmed.
func (o OwnerInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(o.First) + " " + strings.TrimSpace(o.Last))
}

// MaskedSSN keeps only the serial digits.
func (o OwnerInfo) MaskedSSN() string {
	if len(o.SSN) < 4 {
		return ""
	}
	return "***-**-" + o.SSN[len(o.SSN)-4:]
}

type PropertyInfo struct {
	OwnsRealEstate         string
	OwnsHome               string
	OwnsBusinessLocation   string
	ResidenceTenure        *string
	BusinessLocationTenure *string
}

type SignatureInfo struct {
	SignerName   string
	SignedDate   string
	ImageDataURL string
	Consent      bool
}

// FormatUSD renders a dollar amount with thousands separators and cents.
func FormatUSD(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var grouped strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	out := "$" + grouped.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
