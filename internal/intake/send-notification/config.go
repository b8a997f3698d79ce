// internal/intake/send-notification/config.go
package sendnotification

import "time"

const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

type Config struct {
	EmailEnabled  bool
	Provider      string
	FromEmail     string
	TeamAddress   string
	SubjectPrefix string
	SMSEnabled    bool
	TeamPhone     string
	BaseURL       string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Provider:      ProviderSMTP,
		SubjectPrefix: "New loan application",
		Timeout:       30 * time.Second,
	}
}
