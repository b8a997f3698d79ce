// internal/intake/assemble-submission/handler.go
package assemblesubmission

import (
	"context"
	"strconv"
	"strings"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"

	"github.com/shopspring/decimal"
)

const (
	Stage = "assemble-submission"
)

// MaxLoanAmount is the largest amount the loan_amount NUMERIC(14,2) column holds.
var MaxLoanAmount = decimal.RequireFromString("999999999999.99")

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	fields := Normalize(input.Fields)
	app := Assemble(fields, input.Rep)

	h.logger.Debug("submission assembled", map[string]interface{}{
		"business":   app.BusinessLegalName,
		"ownerCount": len(app.Owners),
		"attributed": app.RepEmail != nil,
	})

	return &Output{
		Application: app,
		Form:        BuildForm(fields),
	}, nil
}

// Normalize returns a trimmed copy with has_owner_1 defaulted to "No".
func Normalize(fields models.Fields) models.Fields {
	out := make(models.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = strings.TrimSpace(v)
	}
	if out["has_owner_1"] == "" {
		out["has_owner_1"] = "No"
	}
	return out
}

// Assemble derives the record summary columns. The full mapping is kept
// verbatim as the payload.
func Assemble(fields models.Fields, rep *models.Rep) *models.Application {
	app := &models.Application{
		BusinessLegalName: fields.Get("business_legal_name"),
		Industry:          fields.Get("industry"),
		LoanAmount:        ParseLoanAmount(fields.Get("loan_amount")),
		Owners:            Owners(fields),
		Payload:           map[string]string(fields.Clone()),
		EIN:               fields.Optional("ein"),
		BusinessPhone:     fields.Optional("business_phone"),
		CompanyWebsite:    fields.Optional("company_website"),
	}
	if rep != nil {
		name, email := rep.Name, rep.Email
		app.RepName = &name
		app.RepEmail = &email
	}
	return app
}

// ParseLoanAmount accepts plain or comma-grouped amounts with an optional
// leading "$", rounded to cents. Anything unparsable, negative or above
// MaxLoanAmount becomes zero.
func ParseLoanAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	d = d.Round(2)
	if d.GreaterThan(MaxLoanAmount) {
		return decimal.Zero
	}
	return d
}

// Owners lists owner display names in form order, skipping blank entries.
func Owners(fields models.Fields) []string {
	owners := make([]string, 0, 2)
	add := func(i int) {
		p := "owner_" + strconv.Itoa(i) + "_"
		first := strings.TrimSpace(fields.Get(p + "first"))
		last := strings.TrimSpace(fields.Get(p + "last"))
		if first == "" && last == "" {
			return
		}
		owners = append(owners, strings.TrimSpace(first+" "+last))
	}
	add(0)
	if strings.TrimSpace(fields.Get("has_owner_1")) == "Yes" {
		add(1)
	}
	return owners
}

// BuildForm maps the flat fields onto the typed applicant view.
func BuildForm(fields models.Fields) models.ApplicantForm {
	form := models.ApplicantForm{
		Business: models.BusinessInfo{
			LegalName:   fields.Get("business_legal_name"),
			DBA:         fields.Optional("dba"),
			Industry:    fields.Get("industry"),
			LegalEntity: fields.Get("legal_entity"),
			StartDate:   fields.Get("business_start_date"),
			EIN:         fields.Get("ein"),
			Phone:       fields.Optional("business_phone"),
			Website:     fields.Optional("company_website"),
			LoanAmount:  ParseLoanAmount(fields.Get("loan_amount")),
			UseOfFunds:  fields.Optional("use_of_funds"),
		},
		Address: models.Address{
			Line1: fields.Get("company_address1"),
			Line2: fields.Optional("company_address2"),
			City:  fields.Get("company_city"),
			State: fields.Get("company_state"),
			Zip:   fields.Get("company_zip"),
		},
		Property: models.PropertyInfo{
			OwnsRealEstate:         fields.Get("own_real_estate"),
			OwnsHome:               fields.Get("own_home"),
			OwnsBusinessLocation:   fields.Get("own_business_location"),
			ResidenceTenure:        fields.Optional("residence_tenure"),
			BusinessLocationTenure: fields.Optional("business_location_tenure"),
		},
		Signature: models.SignatureInfo{
			SignerName:   fields.Get("signer_name"),
			SignedDate:   fields.Get("signer_date"),
			ImageDataURL: fields.Get("signature_image"),
			Consent:      fields.Get("esign_consent") == "Yes",
		},
		HasSecondOwner: strings.TrimSpace(fields.Get("has_owner_1")) == "Yes",
	}

	form.Owners = append(form.Owners, owner(fields, 0, false))
	if form.HasSecondOwner {
		form.Owners = append(form.Owners, owner(fields, 1, true))
	}
	return form
}

func owner(fields models.Fields, i int, withAddress bool) models.OwnerInfo {
	p := "owner_" + strconv.Itoa(i) + "_"
	o := models.OwnerInfo{
		First:        fields.Get(p + "first"),
		Last:         fields.Get(p + "last"),
		OwnershipPct: fields.Get(p + "pct"),
		DOB:          fields.Get(p + "dob"),
		SSN:          fields.Get(p + "ssn"),
		Email:        fields.Get(p + "email"),
		Mobile:       fields.Get(p + "mobile"),
	}
	if n, err := strconv.Atoi(fields.Get(p + "fico")); err == nil {
		o.FICO = &n
	}
	if withAddress {
		o.Address = &models.Address{
			Line1: fields.Get(p + "addr1"),
			Line2: fields.Optional(p + "addr2"),
			City:  fields.Get(p + "city"),
			State: fields.Get(p + "state"),
			Zip:   fields.Get(p + "zip"),
		}
	}
	return o
}
