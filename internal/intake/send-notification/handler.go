// internal/intake/send-notification/handler.go
package sendnotification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

const (
	Stage = "send-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Mailer is satisfied by *gomail.Dialer.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Dependencies are the delivery backends; nil members disable that channel.
type Dependencies struct {
	Mailer    Mailer
	SESClient SESService
	SNSClient SNSService
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	mailer    Mailer
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"stage": Stage}),
		mailer:    deps.Mailer,
		sesClient: deps.SESClient,
		snsClient: deps.SNSClient,
	}
}

// NewSMTPMailer builds the gomail dialer used for the smtp provider.
func NewSMTPMailer(host string, port int, username, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, username, password)
}

// Execute sends the staff email and optional SMS. Delivery failures are
// logged and reported through Output; only a malformed input is an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Application == nil {
		return nil, fmt.Errorf("%w: application is required", ErrNotificationSendFailed)
	}
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	app := input.Application
	data := h.templateData(input)
	out := &Output{
		NotificationID: uuid.New().String(),
		EmailStatus:    StatusDisabled,
		SMSStatus:      StatusDisabled,
		Recipients:     Recipients(h.config.TeamAddress, input.Rep),
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && len(out.Recipients) > 0 {
		msg := h.buildMessage(input, out.Recipients, data)
		if err := h.sendEmail(ctx, msg, out.Recipients); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"applicationId": app.ID,
				"provider":      h.config.Provider,
				"error":         err,
			})
			out.EmailStatus = StatusFailed
		} else {
			out.EmailStatus = StatusSent
		}
	}

	if h.config.SMSEnabled && h.config.TeamPhone != "" && h.snsClient != nil {
		if err := h.sendSMS(ctx, h.config.TeamPhone, renderTemplate(templates[TemplateSMS], data)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"applicationId": app.ID,
				"error":         err,
			})
			out.SMSStatus = StatusFailed
		} else {
			out.SMSStatus = StatusSent
		}
	}

	out.Status = overallStatus(out.EmailStatus, out.SMSStatus)
	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId": app.ID,
		"status":        out.Status,
		"email":         out.EmailStatus,
		"sms":           out.SMSStatus,
	})
	return out, nil
}

// Subject is "<prefix> #<id>: <business>".
func (h *Handler) Subject(app *models.Application) string {
	prefix := h.config.SubjectPrefix
	if prefix == "" {
		prefix = "New loan application"
	}
	return fmt.Sprintf("%s #%d: %s", prefix, app.ID, app.BusinessLegalName)
}

// Recipients is the team address plus the rep's, deduplicated.
func Recipients(team string, rep *models.Rep) []string {
	var out []string
	if team = strings.TrimSpace(team); team != "" {
		out = append(out, team)
	}
	if rep != nil {
		email := strings.TrimSpace(rep.Email)
		if email != "" && !strings.EqualFold(email, team) {
			out = append(out, email)
		}
	}
	return out
}

func (h *Handler) templateData(input *Input) map[string]interface{} {
	app := input.Application
	rep := "Direct"
	if input.Rep != nil {
		rep = fmt.Sprintf("%s <%s>", input.Rep.Name, input.Rep.Email)
	}
	return map[string]interface{}{
		"subject":       h.Subject(app),
		"applicationId": app.ID,
		"business":      app.BusinessLegalName,
		"industry":      app.Industry,
		"loanAmount":    models.FormatUSD(app.LoanAmount),
		"owners":        strings.Join(app.Owners, ", "),
		"rep":           rep,
		"dashboardUrl":  strings.TrimSuffix(h.config.BaseURL, "/") + "/admin",
	}
}

func (h *Handler) buildMessage(input *Input, recipients []string, data map[string]interface{}) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", h.config.FromEmail)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", h.Subject(input.Application))
	m.SetBody("text/plain", renderTemplate(templates[TemplateEmailBody], data))

	if input.PDF != nil && len(input.PDF.Content) > 0 {
		content := input.PDF.Content
		m.Attach(input.PDF.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}
	for _, f := range input.Files {
		if _, err := os.Stat(f.StoragePath); err != nil {
			h.logger.Warn("attachment skipped", map[string]interface{}{
				"applicationId": input.Application.ID,
				"storagePath":   f.StoragePath,
				"error":         err,
			})
			continue
		}
		m.Attach(f.StoragePath, gomail.Rename(f.Filename))
	}
	return m
}

func (h *Handler) sendEmail(ctx context.Context, m *gomail.Message, recipients []string) error {
	switch h.config.Provider {
	case ProviderSES:
		if h.sesClient == nil {
			return fmt.Errorf("%w: ses client not configured", ErrNotificationSendFailed)
		}
		var raw bytes.Buffer
		if _, err := m.WriteTo(&raw); err != nil {
			return fmt.Errorf("%w: build mime: %v", ErrNotificationSendFailed, err)
		}
		_, err := h.sesClient.SendRawEmail(ctx, &ses.SendRawEmailInput{
			RawMessage:   &types.RawMessage{Data: raw.Bytes()},
			Source:       aws.String(h.config.FromEmail),
			Destinations: recipients,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
		}
		return nil
	default:
		if h.mailer == nil {
			return fmt.Errorf("%w: smtp mailer not configured", ErrNotificationSendFailed)
		}
		if err := h.mailer.DialAndSend(m); err != nil {
			return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
		}
		return nil
	}
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

func overallStatus(statuses ...string) string {
	status := StatusDisabled
	for _, s := range statuses {
		switch s {
		case StatusFailed:
			return StatusFailed
		case StatusSent:
			status = StatusSent
		}
	}
	return status
}

// renderTemplate fills {{key}} placeholders in a single pass over tmpl and
// drops any without data. Substituted values are copied verbatim.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		key := rest[start+2 : start+2+end]
		if v, ok := data[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				b.WriteString(s)
			} else {
				fmt.Fprintf(&b, "%v", v)
			}
		}
		rest = rest[start+2+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}
