// internal/intake/send-notification/models.go
package sendnotification

import "loan-intake/internal/models"

type Input struct {
	Application *models.Application
	Rep         *models.Rep
	PDF         *Attachment
	Files       []models.ApplicationFile
}

// Attachment is an in-memory file such as the rendered summary.
type Attachment struct {
	Filename string
	Content  []byte
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	EmailStatus    string   `json:"emailStatus"`
	SMSStatus      string   `json:"smsStatus"`
	Recipients     []string `json:"recipients"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	TemplateEmailBody = "email_body"
	TemplateSMS       = "sms"
)

var templates = map[string]string{
	TemplateEmailBody: `A new loan application was submitted.

Application: #{{applicationId}}
Business: {{business}}
Industry: {{industry}}
Requested amount: {{loanAmount}}
Owners: {{owners}}
Rep: {{rep}}

Dashboard: {{dashboardUrl}}
`,
	TemplateSMS: `{{subject}} ({{loanAmount}}) rep: {{rep}}`,
}
