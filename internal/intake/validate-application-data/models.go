// internal/intake/validate-application-data/models.go
package validateapplicationdata

import (
	"regexp"

	"loan-intake/internal/models"
)

type Input struct {
	Fields    models.Fields
	BankFiles int
}

type Output struct {
	IsValid          bool              `json:"isValid"`
	Errors           map[string]string `json:"errors"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeMissingRequired = "MISSING_REQUIRED"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeInvalidValue    = "INVALID_VALUE"
)

const (
	MsgRequired         = "Required"
	MsgInvalidEIN       = "Invalid EIN (##-#######)"
	MsgInvalidSSN       = "Invalid SSN (###-##-####)"
	MsgInvalidPhone     = "Invalid phone number"
	MsgInvalidZIP       = "Invalid ZIP"
	MsgInvalidState     = "Use 2-letter state"
	MsgInvalidFICO      = "FICO must be 300-850"
	MsgConsentRequired  = "Consent is required"
	MsgInvalidSignature = "Invalid signature image"
	MsgBankFileRequired = "Upload at least one bank statement"
)

// BankFilesField is the error key used when no bank statement was uploaded.
const BankFilesField = "bank_files"

var RequiredFields = []string{
	"business_legal_name", "industry", "legal_entity", "business_start_date", "ein",
	"company_address1", "company_city", "company_state", "company_zip",
	"owner_0_first", "owner_0_last", "owner_0_pct", "owner_0_dob", "owner_0_ssn", "owner_0_email", "owner_0_mobile",
	"own_real_estate", "own_home", "own_business_location",
	"esign_consent", "signer_name", "signer_date", "signature_image",
}

// RealEstateFields become required when own_real_estate is "Yes".
var RealEstateFields = []string{"residence_tenure", "business_location_tenure"}

// SecondOwnerFields become required when has_owner_1 is "Yes".
var SecondOwnerFields = []string{
	"owner_1_first", "owner_1_last", "owner_1_pct", "owner_1_dob", "owner_1_ssn",
	"owner_1_email", "owner_1_mobile",
	"owner_1_addr1", "owner_1_city", "owner_1_state", "owner_1_zip",
}

// RE2 has no lookahead; reserved SSN and EIN ranges are excluded in code.
var (
	ssnRegex   = regexp.MustCompile(`^(\d{3})-(\d{2})-(\d{4})$`)
	einRegex   = regexp.MustCompile(`^\d{2}-\d{7}$`)
	phoneRegex = regexp.MustCompile(`^\+?1?\s*\(?\d{3}\)?[\s.-]*\d{3}[\s.-]*\d{4}$`)
	zipRegex   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
	ficoRegex  = regexp.MustCompile(`^\d{3}$`)
)

// signatureFormats maps an accepted data URL prefix to the image format its
// payload must decode as.
var signatureFormats = map[string]string{
	"data:image/png;base64,":  "png",
	"data:image/jpeg;base64,": "jpeg",
}
