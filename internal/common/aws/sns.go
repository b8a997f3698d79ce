// internal/common/aws/sns.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	attrSMSType  = "AWS.SNS.SMS.SMSType"
	attrSenderID = "AWS.SNS.SMS.SenderID"
)

// SNSClient publishes the new-application SMS to the team phone.
type SNSClient struct {
	client   *sns.Client
	senderID string
}

func NewSNSClient(ctx context.Context, region, senderID string) (*SNSClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), senderID: senderID}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, withSMSAttributes(input, s.senderID), optFns...)
}

// withSMSAttributes marks direct-to-phone messages as transactional and stamps
// the sender id. Topic publishes and caller-set attributes are left alone.
func withSMSAttributes(input *sns.PublishInput, senderID string) *sns.PublishInput {
	if input == nil || input.PhoneNumber == nil {
		return input
	}
	out := *input
	attrs := make(map[string]types.MessageAttributeValue, len(input.MessageAttributes)+2)
	for k, v := range input.MessageAttributes {
		attrs[k] = v
	}
	if _, ok := attrs[attrSMSType]; !ok {
		attrs[attrSMSType] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		}
	}
	if _, ok := attrs[attrSenderID]; !ok && senderID != "" {
		attrs[attrSenderID] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}
	out.MessageAttributes = attrs
	return &out
}
