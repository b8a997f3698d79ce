// internal/models/application.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocType classifies an uploaded file by the form slot it arrived in.
type DocType string

const (
	DocTypeBankStatement DocType = "bank_statement"
	DocTypeVoidedCheck   DocType = "voided_check"
	DocTypeIDDoc         DocType = "id_doc"
)

// Valid reports whether d is one of the known document types.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeBankStatement, DocTypeVoidedCheck, DocTypeIDDoc:
		return true
	}
	return false
}

// Application is one persisted submission. It is written once and only
// grows afterwards through ApplicationFile rows.
type Application struct {
	ID                int64             `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	BusinessLegalName string            `json:"business_legal_name"`
	Industry          string            `json:"industry"`
	LoanAmount        decimal.Decimal   `json:"loan_amount"`
	Owners            []string          `json:"owners"`
	Payload           map[string]string `json:"payload"`
	EIN               *string           `json:"ein"`
	BusinessPhone     *string           `json:"business_phone"`
	CompanyWebsite    *string           `json:"company_website"`
	RepName           *string           `json:"rep_name"`
	RepEmail          *string           `json:"rep_email"`
}

// ApplicationFile is the metadata row for one stored upload.
type ApplicationFile struct {
	ID            int64   `json:"id,omitempty"`
	ApplicationID int64   `json:"application_id"`
	Filename      string  `json:"filename"`
	StoragePath   string  `json:"storage_path"`
	SizeBytes     int64   `json:"size_bytes"`
	DocType       DocType `json:"doc_type"`
}

// Rep is a referral partner from the static directory.
type Rep struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
