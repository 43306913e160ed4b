package notification

import (
	"context"
	"fmt"

	"cleandigo/internal/pkg/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the part of the SNS client the SMS transport uses.
type SNSPublisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTransport sends SMS messages through AWS SNS. Payload.To is an E.164
// phone number.
type SNSTransport struct {
	client SNSPublisher
}

func NewSNSTransport(client SNSPublisher) *SNSTransport {
	return &SNSTransport{client: client}
}

// NewSNSTransportFromEnv builds the SNS client from the default AWS
// credential chain.
func NewSNSTransportFromEnv(ctx context.Context) (*SNSTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: aws config: %v", apperr.ErrConfiguration, err)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: AWS_REGION is required for sms", apperr.ErrConfiguration)
	}
	return NewSNSTransport(sns.NewFromConfig(cfg)), nil
}

func (t *SNSTransport) Name() string { return "sns" }

func (t *SNSTransport) Send(ctx context.Context, p Payload) error {
	_, err := t.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(p.To),
		Message:     aws.String(p.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: sns: %v", apperr.ErrTransientDelivery, err)
	}
	return nil
}
