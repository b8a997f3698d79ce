// internal/intake/validate-application-data/handler_test.go
package validateapplicationdata

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"testing"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// testSignature is a 1x1 PNG.
const testSignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func jpegDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil))
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func validFields() models.Fields {
	return models.Fields{
		"business_legal_name":   "Acme Bakery LLC",
		"industry":              "Food Service",
		"legal_entity":          "LLC",
		"business_start_date":   "2019-04-01",
		"ein":                   "12-3456789",
		"company_address1":      "1 Main St",
		"company_city":          "Austin",
		"company_state":         "TX",
		"company_zip":           "73301",
		"owner_0_first":         "Jane",
		"owner_0_last":          "Doe",
		"owner_0_pct":           "100",
		"owner_0_dob":           "1980-01-01",
		"owner_0_ssn":           "123-45-6789",
		"owner_0_email":         "jane@example.com",
		"owner_0_mobile":        "(512) 555-0100",
		"own_real_estate":       "No",
		"own_home":              "Yes",
		"own_business_location": "No",
		"esign_consent":         "Yes",
		"signer_name":           "Jane Doe",
		"signer_date":           "2024-05-01",
		"signature_image":       testSignature,
	}
}

func withSecondOwner(f models.Fields) models.Fields {
	f["has_owner_1"] = "Yes"
	f["owner_1_first"] = "John"
	f["owner_1_last"] = "Roe"
	f["owner_1_pct"] = "40"
	f["owner_1_dob"] = "1982-02-02"
	f["owner_1_ssn"] = "234-56-7890"
	f["owner_1_email"] = "john@example.com"
	f["owner_1_mobile"] = "+1 512.555.0101"
	f["owner_1_addr1"] = "2 Oak Ave"
	f["owner_1_city"] = "Austin"
	f["owner_1_state"] = "tx"
	f["owner_1_zip"] = "73301-1234"
	return f
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Valid(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Fields: validFields(), BankFiles: 1})

	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Empty(t, output.Errors)
	assert.Empty(t, output.ValidationErrors)
}

func TestHandler_Execute_Invalid(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))
	fields := validFields()
	fields["ein"] = "00-1234567"
	delete(fields, "industry")

	output, err := h.Execute(context.Background(), &Input{Fields: fields, BankFiles: 0})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationValidationFailed))
	require.NotNil(t, output)
	assert.False(t, output.IsValid)
	assert.Equal(t, map[string]string{
		"bank_files": MsgBankFileRequired,
		"ein":        MsgInvalidEIN,
		"industry":   MsgRequired,
	}, output.Errors)

	// sorted by field, codes reflect the rule that failed
	require.Len(t, output.ValidationErrors, 3)
	assert.Equal(t, "bank_files", output.ValidationErrors[0].Field)
	assert.Equal(t, CodeMissingRequired, output.ValidationErrors[0].Code)
	assert.Equal(t, CodeInvalidFormat, output.ValidationErrors[1].Code)
}

func TestValidateFields_EachRequiredFieldAlone(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			fields := validFields()
			delete(fields, field)

			errs := ValidateFields(fields, 1)

			assert.Equal(t, map[string]string{field: MsgRequired}, errs)
		})
	}
}

func TestValidateFields_BlankCountsAsMissing(t *testing.T) {
	fields := validFields()
	fields["company_city"] = ""

	assert.Equal(t, map[string]string{"company_city": MsgRequired}, ValidateFields(fields, 1))
}

func TestValidateFields_BankStatementRequired(t *testing.T) {
	assert.Equal(t, map[string]string{BankFilesField: MsgBankFileRequired}, ValidateFields(validFields(), 0))
	assert.Empty(t, ValidateFields(validFields(), 3))
}

func TestValidateFields_RealEstateConditional(t *testing.T) {
	fields := validFields()
	fields["own_real_estate"] = "Yes"

	errs := ValidateFields(fields, 1)
	assert.Equal(t, MsgRequired, errs["residence_tenure"])
	assert.Equal(t, MsgRequired, errs["business_location_tenure"])

	fields["residence_tenure"] = "5 years"
	fields["business_location_tenure"] = "3 years"
	assert.Empty(t, ValidateFields(fields, 1))

	fields = validFields()
	fields["own_real_estate"] = "No"
	errs = ValidateFields(fields, 1)
	assert.NotContains(t, errs, "residence_tenure")
	assert.NotContains(t, errs, "business_location_tenure")
}

func TestValidateFields_SecondOwner(t *testing.T) {
	t.Run("toggle yes requires every owner_1 field", func(t *testing.T) {
		fields := validFields()
		fields["has_owner_1"] = "Yes"

		errs := ValidateFields(fields, 1)
		for _, k := range SecondOwnerFields {
			assert.Equal(t, MsgRequired, errs[k], k)
		}
		assert.Len(t, errs, len(SecondOwnerFields))
	})

	t.Run("complete second owner is valid", func(t *testing.T) {
		assert.Empty(t, ValidateFields(withSecondOwner(validFields()), 1))
	})

	t.Run("toggle yes checks owner_1 patterns", func(t *testing.T) {
		fields := withSecondOwner(validFields())
		fields["owner_1_ssn"] = "12345"
		fields["owner_1_fico"] = "900"
		fields["owner_1_state"] = "Texas"

		errs := ValidateFields(fields, 1)
		assert.Equal(t, MsgInvalidSSN, errs["owner_1_ssn"])
		assert.Equal(t, MsgInvalidFICO, errs["owner_1_fico"])
		assert.Equal(t, MsgInvalidState, errs["owner_1_state"])
	})

	t.Run("toggle no ignores malformed owner_1 fields", func(t *testing.T) {
		fields := withSecondOwner(validFields())
		fields["has_owner_1"] = "No"
		fields["owner_1_ssn"] = "12345"
		fields["owner_1_fico"] = "abc"
		fields["owner_1_zip"] = "7"

		assert.Empty(t, ValidateFields(fields, 1))
	})

	t.Run("blank toggle means no", func(t *testing.T) {
		fields := validFields()
		fields["has_owner_1"] = ""
		fields["owner_1_ssn"] = "bad"

		assert.Empty(t, ValidateFields(fields, 1))
	})
}

func TestValidateFields_Consent(t *testing.T) {
	fields := validFields()
	fields["esign_consent"] = "yes"
	assert.Equal(t, map[string]string{"esign_consent": MsgConsentRequired}, ValidateFields(fields, 1))

	delete(fields, "esign_consent")
	assert.Equal(t, map[string]string{"esign_consent": MsgRequired}, ValidateFields(fields, 1))
}

func TestValidateFields_PatternChecksOnOwnerZero(t *testing.T) {
	tests := []struct {
		field string
		value string
		want  string
	}{
		{"owner_0_mobile", "555-0100", MsgInvalidPhone},
		{"company_zip", "7330", MsgInvalidZIP},
		{"company_state", "T", MsgInvalidState},
		{"owner_0_fico", "299", MsgInvalidFICO},
		{"signature_image", "data:image/gif;base64,R0lGOD", MsgInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			fields := validFields()
			fields[tt.field] = tt.value
			assert.Equal(t, map[string]string{tt.field: tt.want}, ValidateFields(fields, 1))
		})
	}
}

// ==========================
// Pattern Tests
// ==========================

func TestValidEIN(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"12-3456789", true},
		{"99-0000000", true},
		{"00-1234567", false},
		{"123456789", false},
		{"12-345678", false},
		{"ab-cdefghi", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEIN(tt.value))
		})
	}
}

func TestValidSSN(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"123-45-6789", true},
		{"899-99-9999", true},
		{"000-12-3456", false},
		{"666-12-3456", false},
		{"912-12-3456", false},
		{"123-00-6789", false},
		{"123-45-0000", false},
		{"123456789", false},
		{"123-45-678", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSSN(tt.value))
		})
	}
}

func TestValidFICO(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"700", true},
		{"300", true},
		{"850", true},
		{"299", false},
		{"851", false},
		{"abc", false},
		{"7000", false},
		{"70", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidFICO(tt.value))
		})
	}
}

func TestValidPhoneZIPState(t *testing.T) {
	for _, v := range []string{"5125550100", "(512) 555-0100", "+1 512.555.0100"} {
		assert.True(t, ValidPhone(v), v)
	}
	for _, v := range []string{"555-0100", "512-555-010", "phone"} {
		assert.False(t, ValidPhone(v), v)
	}

	assert.True(t, ValidZIP("73301"))
	assert.True(t, ValidZIP("73301-1234"))
	assert.False(t, ValidZIP("73301-12"))

	assert.True(t, ValidState("tx"))
	assert.False(t, ValidState("T1"))
	assert.False(t, ValidState("TEX"))
}

func TestValidSignatureImage(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"png", testSignature, true},
		{"jpeg", jpegDataURL(t), true},
		{"jpeg payload labelled png", "data:image/png;base64," + strings.TrimPrefix(jpegDataURL(t), "data:image/jpeg;base64,"), false},
		{"empty payload", "data:image/png;base64,", false},
		{"not base64", "data:image/png;base64,!!!", false},
		{"base64 but not an image", "data:image/png;base64,bm90IGFuIGltYWdl", false},
		{"png header only", "data:image/png;base64,iVBORw0KGgo=", false},
		{"remote url", "https://example.com/sig.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSignatureImage(tt.value))
		})
	}
}

func TestHandler_Execute_UndecodableSignature(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))
	fields := validFields()
	fields["signature_image"] = "data:image/png;base64,!!!"

	output, err := h.Execute(context.Background(), &Input{Fields: fields, BankFiles: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationValidationFailed))
	assert.Equal(t, map[string]string{"signature_image": MsgInvalidSignature}, output.Errors)
}
