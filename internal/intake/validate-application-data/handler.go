// internal/intake/validate-application-data/handler.go
package validateapplicationdata

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strconv"
	"strings"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

const (
	Stage = "validate-application-data"
)

var (
	ErrApplicationValidationFailed = errors.New("APPLICATION_VALIDATION_FAILED")
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"stage": Stage}),
	}
}

// Execute runs every rule against the trimmed fields. An invalid submission
// returns the populated Output together with ErrApplicationValidationFailed.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	validationErrors := collect(input.Fields, input.BankFiles)

	output := &Output{
		IsValid:          len(validationErrors) == 0,
		Errors:           make(map[string]string, len(validationErrors)),
		ValidationErrors: validationErrors,
	}
	for _, ve := range validationErrors {
		output.Errors[ve.Field] = ve.Message
	}

	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    output.IsValid,
		"errorCount": len(validationErrors),
	})

	if !output.IsValid {
		return output, fmt.Errorf("%w: %d validation errors", ErrApplicationValidationFailed, len(validationErrors))
	}
	return output, nil
}

// ValidateFields maps field name to message; an empty map means valid.
func ValidateFields(fields models.Fields, bankFiles int) map[string]string {
	out := make(map[string]string)
	for _, ve := range collect(fields, bankFiles) {
		out[ve.Field] = ve.Message
	}
	return out
}

func collect(fields models.Fields, bankFiles int) []ValidationError {
	errs := make(map[string]ValidationError)
	add := func(field, code, msg string) {
		errs[field] = ValidationError{Field: field, Code: code, Message: msg}
	}
	require := func(keys []string) {
		for _, k := range keys {
			if !fields.Has(k) {
				add(k, CodeMissingRequired, MsgRequired)
			}
		}
	}

	require(RequiredFields)
	if fields.Get("own_real_estate") == "Yes" {
		require(RealEstateFields)
	}
	secondOwner := HasSecondOwner(fields)
	if secondOwner {
		require(SecondOwnerFields)
	}

	check := func(field string, ok func(string) bool, code, msg string) {
		if v := fields.Get(field); v != "" && !ok(v) {
			add(field, code, msg)
		}
	}

	check("ein", ValidEIN, CodeInvalidFormat, MsgInvalidEIN)
	check("owner_0_ssn", ValidSSN, CodeInvalidFormat, MsgInvalidSSN)
	check("owner_0_mobile", phoneRegex.MatchString, CodeInvalidFormat, MsgInvalidPhone)
	check("company_zip", zipRegex.MatchString, CodeInvalidFormat, MsgInvalidZIP)
	check("company_state", stateRegex.MatchString, CodeInvalidFormat, MsgInvalidState)
	check("owner_0_fico", ValidFICO, CodeInvalidValue, MsgInvalidFICO)

	if secondOwner {
		check("owner_1_ssn", ValidSSN, CodeInvalidFormat, MsgInvalidSSN)
		check("owner_1_mobile", phoneRegex.MatchString, CodeInvalidFormat, MsgInvalidPhone)
		check("owner_1_zip", zipRegex.MatchString, CodeInvalidFormat, MsgInvalidZIP)
		check("owner_1_state", stateRegex.MatchString, CodeInvalidFormat, MsgInvalidState)
		check("owner_1_fico", ValidFICO, CodeInvalidValue, MsgInvalidFICO)
	}

	check("esign_consent", func(v string) bool { return v == "Yes" }, CodeInvalidValue, MsgConsentRequired)
	check("signature_image", ValidSignatureImage, CodeInvalidFormat, MsgInvalidSignature)

	if bankFiles < 1 {
		add(BankFilesField, CodeMissingRequired, MsgBankFileRequired)
	}

	out := make([]ValidationError, 0, len(errs))
	for _, ve := range errs {
		out = append(out, ve)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// HasSecondOwner treats a blank toggle as "No".
func HasSecondOwner(fields models.Fields) bool {
	return strings.TrimSpace(fields.Get("has_owner_1")) == "Yes"
}

// ValidSSN rejects area 000, 666 and 9xx, group 00 and serial 0000.
func ValidSSN(v string) bool {
	m := ssnRegex.FindStringSubmatch(v)
	if m == nil {
		return false
	}
	area, group, serial := m[1], m[2], m[3]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

func ValidEIN(v string) bool {
	return einRegex.MatchString(v) && !strings.HasPrefix(v, "00")
}

func ValidPhone(v string) bool { return phoneRegex.MatchString(v) }
func ValidZIP(v string) bool   { return zipRegex.MatchString(v) }
func ValidState(v string) bool { return stateRegex.MatchString(v) }

// ValidFICO accepts blank or a three-digit score in [300, 850].
func ValidFICO(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if !ficoRegex.MatchString(v) {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	return n >= 300 && n <= 850
}

// ValidSignatureImage reports whether v is a base64 PNG or JPEG data URL
// whose payload decodes as an image of the declared format.
func ValidSignatureImage(v string) bool {
	for prefix, format := range signatureFormats {
		payload, ok := strings.CutPrefix(v, prefix)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil || len(data) == 0 {
			return false
		}
		_, got, err := image.DecodeConfig(bytes.NewReader(data))
		return err == nil && got == format
	}
	return false
}
