// internal/intake/send-notification/handler_test.go
package sendnotification

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendRawEmailFunc func(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

func (m *MockSESService) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	return m.SendRawEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type MockMailer struct {
	DialAndSendFunc func(m ...*gomail.Message) error
}

func (m *MockMailer) DialAndSend(msgs ...*gomail.Message) error {
	return m.DialAndSendFunc(msgs...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled:  true,
		Provider:      ProviderSMTP,
		FromEmail:     "intake@example.com",
		TeamAddress:   "team@example.com",
		SubjectPrefix: "New loan application",
		SMSEnabled:    true,
		TeamPhone:     "+15125550100",
		BaseURL:       "https://apply.example.com",
		Timeout:       5 * time.Second,
	}
}

func createTestApplication() *models.Application {
	return &models.Application{
		ID:                42,
		BusinessLegalName: "Acme Bakery LLC",
		Industry:          "Food Service",
		LoanAmount:        decimal.NewFromInt(25000),
		Owners:            []string{"Jane Doe", "John Roe"},
	}
}

func testRep() *models.Rep {
	return &models.Rep{Code: "ana", Name: "Ana Reyes", Email: "ana@example.com"}
}

func mimeOf(t *testing.T, m *gomail.Message) string {
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SMTP(t *testing.T) {
	dir := t.TempDir()
	stmt := filepath.Join(dir, "42__bank_statement__jan.pdf")
	require.NoError(t, os.WriteFile(stmt, []byte("statement"), 0o644))

	var sent *gomail.Message
	mailer := &MockMailer{DialAndSendFunc: func(m ...*gomail.Message) error {
		sent = m[0]
		return nil
	}}
	var sms *sns.PublishInput
	snsMock := &MockSNSService{PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
		sms = params
		return &sns.PublishOutput{}, nil
	}}

	h := NewHandler(createTestConfig(), Dependencies{Mailer: mailer, SNSClient: snsMock}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Application: createTestApplication(),
		Rep:         testRep(),
		PDF:         &Attachment{Filename: "application-42.pdf", Content: []byte("%PDF-1.3")},
		Files: []models.ApplicationFile{
			{Filename: "jan.pdf", StoragePath: stmt, DocType: models.DocTypeBankStatement},
			{Filename: "gone.pdf", StoragePath: filepath.Join(dir, "missing.pdf"), DocType: models.DocTypeBankStatement},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, StatusSent, out.EmailStatus)
	assert.Equal(t, StatusSent, out.SMSStatus)
	assert.Equal(t, []string{"team@example.com", "ana@example.com"}, out.Recipients)
	assert.NotEmpty(t, out.NotificationID)

	require.NotNil(t, sent)
	assert.Equal(t, []string{"New loan application #42: Acme Bakery LLC"}, sent.GetHeader("Subject"))
	assert.Equal(t, []string{"team@example.com", "ana@example.com"}, sent.GetHeader("To"))

	raw := mimeOf(t, sent)
	assert.Contains(t, raw, `filename="application-42.pdf"`)
	assert.Contains(t, raw, `filename="jan.pdf"`)
	assert.NotContains(t, raw, "gone.pdf")
	assert.Contains(t, raw, "$25,000.00")
	assert.Contains(t, raw, "Jane Doe, John Roe")
	assert.Contains(t, raw, "https://apply.example.com/admin")

	require.NotNil(t, sms)
	assert.Equal(t, "+15125550100", *sms.PhoneNumber)
	assert.Contains(t, *sms.Message, "#42: Acme Bakery LLC")
}

func TestHandler_Execute_SES(t *testing.T) {
	cfg := createTestConfig()
	cfg.Provider = ProviderSES
	cfg.SMSEnabled = false

	var got *ses.SendRawEmailInput
	sesMock := &MockSESService{SendRawEmailFunc: func(_ context.Context, params *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
		got = params
		return &ses.SendRawEmailOutput{}, nil
	}}

	h := NewHandler(cfg, Dependencies{SESClient: sesMock}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{
		Application: createTestApplication(),
		PDF:         &Attachment{Filename: "application-42.pdf", Content: []byte("%PDF-1.3")},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, StatusDisabled, out.SMSStatus)
	require.NotNil(t, got)
	assert.Equal(t, "intake@example.com", *got.Source)
	assert.Equal(t, []string{"team@example.com"}, got.Destinations)
	assert.Contains(t, string(got.RawMessage.Data), "Subject: New loan application #42: Acme Bakery LLC")
	assert.Contains(t, string(got.RawMessage.Data), "Rep: Direct")
}

func TestHandler_Execute_FailuresAreReported(t *testing.T) {
	mailer := &MockMailer{DialAndSendFunc: func(...*gomail.Message) error { return errors.New("535 auth failed") }}
	snsMock := &MockSNSService{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("throttled")
	}}

	h := NewHandler(createTestConfig(), Dependencies{Mailer: mailer, SNSClient: snsMock}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Application: createTestApplication()})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, StatusFailed, out.EmailStatus)
	assert.Equal(t, StatusFailed, out.SMSStatus)
}

func TestHandler_Execute_Disabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	h := NewHandler(cfg, Dependencies{}, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{Application: createTestApplication()})

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestHandler_Execute_MissingBackend(t *testing.T) {
	cfg := createTestConfig()
	cfg.SMSEnabled = false
	cfg.Provider = ProviderSES

	h := NewHandler(cfg, Dependencies{}, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{Application: createTestApplication()})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.EmailStatus)
}

func TestHandler_Execute_NilApplication(t *testing.T) {
	h := NewHandler(createTestConfig(), Dependencies{}, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.Is(err, ErrNotificationSendFailed))
}

// ==========================
// Helper Tests
// ==========================

func TestRecipients(t *testing.T) {
	assert.Equal(t, []string{"team@example.com"}, Recipients("team@example.com", nil))
	assert.Equal(t, []string{"team@example.com", "ana@example.com"}, Recipients(" team@example.com ", testRep()))
	assert.Equal(t, []string{"ana@example.com"}, Recipients("", testRep()))
	assert.Equal(t, []string{"Ana@example.com"}, Recipients("Ana@example.com", testRep()))
	assert.Nil(t, Recipients("", nil))
}

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{
			name: "fills and drops unknown",
			tmpl: "#{{id}} {{name}}{{missing}}!",
			data: map[string]interface{}{"id": 7, "name": "Acme"},
			want: "#7 Acme!",
		},
		{
			name: "value containing a placeholder is kept verbatim",
			tmpl: "Business: {{business}} Owners: {{owners}}",
			data: map[string]interface{}{"business": "{{owners}} LLC", "owners": "Jane Doe"},
			want: "Business: {{owners}} LLC Owners: Jane Doe",
		},
		{
			name: "value containing an unknown placeholder is kept",
			tmpl: "{{business}}",
			data: map[string]interface{}{"business": "Acme {{x}}"},
			want: "Acme {{x}}",
		},
		{
			name: "nil value renders empty",
			tmpl: "[{{rep}}]",
			data: map[string]interface{}{"rep": nil},
			want: "[]",
		},
		{
			name: "unterminated placeholder is left alone",
			tmpl: "{{id}} and {{oops",
			data: map[string]interface{}{"id": 1},
			want: "1 and {{oops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}

func TestRenderTemplate_EmailBodyWithBracedBusinessName(t *testing.T) {
	app := createTestApplication()
	app.BusinessLegalName = "{{owners}} {{rep}} Holdings"
	h := NewHandler(createTestConfig(), Dependencies{}, logger.NewNoOpLogger())

	body := renderTemplate(templates[TemplateEmailBody], h.templateData(&Input{Application: app}))

	assert.Contains(t, body, "Business: {{owners}} {{rep}} Holdings\n")
	assert.Contains(t, body, "Owners: Jane Doe, John Roe\n")
	assert.Contains(t, body, "Rep: Direct\n")
}

func TestHandler_Subject(t *testing.T) {
	cfg := createTestConfig()
	cfg.SubjectPrefix = ""
	h := NewHandler(cfg, Dependencies{}, logger.NewNoOpLogger())

	assert.Equal(t, "New loan application #42: Acme Bakery LLC", h.Subject(createTestApplication()))
}

func TestNewSMTPMailer(t *testing.T) {
	d := NewSMTPMailer("smtp.example.com", 465, "user", "pass")
	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 465, d.Port)
	assert.True(t, d.SSL)
}
