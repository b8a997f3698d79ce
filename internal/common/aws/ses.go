// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient delivers the staff notification as a pre-built MIME message, so
// the PDF summary and bank statements travel as attachments.
type SESClient struct {
	client           *ses.Client
	configurationSet string
}

// NewSESClient loads the default credential chain for region. An empty
// configurationSet sends without SES event publishing.
func NewSESClient(ctx context.Context, region, configurationSet string) (*SESClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg), configurationSet: configurationSet}, nil
}

func (s *SESClient) SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	return s.client.SendRawEmail(ctx, withConfigurationSet(input, s.configurationSet), optFns...)
}

// withConfigurationSet fills ConfigurationSetName unless the caller already did.
func withConfigurationSet(input *ses.SendRawEmailInput, name string) *ses.SendRawEmailInput {
	if input == nil || name == "" || input.ConfigurationSetName != nil {
		return input
	}
	out := *input
	out.ConfigurationSetName = aws.String(name)
	return &out
}

func loadConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
