// Package ses adapts AWS SES v2 to the bulk pipeline's mail transport
// interface. One Send call maps to one SendEmail API call; SES has no true
// bulk send for pre-rendered per-recipient content.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ToldYaOnce/kx-email-utils/internal/bulk"
	appconfig "github.com/ToldYaOnce/kx-email-utils/internal/config"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
)

// API is the slice of the SES v2 client the transport uses, abstracted for
// testability.
type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport sends single-recipient emails through AWS SES v2. It implements
// bulk.MailTransport.
type Transport struct {
	client   API
	fromName string
	log      *logger.Logger
}

// NewTransport builds a transport from AWS configuration. Static credentials
// are used when provided; otherwise the default chain (profile, instance
// role) applies.
func NewTransport(ctx context.Context, cfg appconfig.AWSConfig, fromName string) (*Transport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	} else if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewTransportFromClient(sesv2.NewFromConfig(awsCfg), fromName), nil
}

// NewTransportFromClient wraps an existing SES client.
func NewTransportFromClient(client API, fromName string) *Transport {
	return &Transport{
		client:   client,
		fromName: fromName,
		log:      logger.With("ses"),
	}
}

// Send delivers one message and returns the SES message ID.
func (t *Transport) Send(ctx context.Context, req bulk.SendRequest) (string, error) {
	from := req.From
	if t.fromName != "" {
		from = fmt.Sprintf("%s <%s>", t.fromName, req.From)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{req.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Content.Subject), Charset: aws.String("UTF-8")},
				Body:    &types.Body{},
			},
		},
	}
	if req.Content.HTML != "" {
		input.Content.Simple.Body.Html = &types.Content{Data: aws.String(req.Content.HTML), Charset: aws.String("UTF-8")}
	}
	if req.Content.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(req.Content.Text), Charset: aws.String("UTF-8")}
	}
	if req.ReplyTo != "" {
		input.ReplyToAddresses = []string{req.ReplyTo}
	}
	for name, value := range req.Tags {
		if value == "" {
			continue
		}
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send to %s: %w", logger.RedactEmail(req.To), err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	t.log.Debug("sent", "email", req.To, "message_id", messageID)
	return messageID, nil
}
