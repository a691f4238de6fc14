// Package queue adapts AWS SQS to the bulk pipeline's queue transport
// interface and provides the consumer loop for the send worker. Redelivery,
// backoff, and dead-lettering are SQS's responsibility; this package only
// shapes messages and acknowledges successful handling.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	appconfig "github.com/ToldYaOnce/kx-email-utils/internal/config"
	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
)

// maxDelay is the SQS DelaySeconds ceiling (15 minutes). Longer schedules
// are clamped; precise far-future scheduling belongs to the caller.
const maxDelay = 900 * time.Second

// SendAPI abstracts the SQS SendMessage operation for testability.
type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher submits chunk messages to one SQS queue. It implements
// bulk.QueueTransport.
type Publisher struct {
	client   SendAPI
	queueURL string
	log      *logger.Logger
}

// NewSQSClient builds an SQS client from AWS configuration.
func NewSQSClient(ctx context.Context, cfg appconfig.AWSConfig) (*sqs.Client, error) {
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

	loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return sqs.NewFromConfig(loaded), nil
}

// NewPublisher creates a publisher targeting the given queue URL.
func NewPublisher(client SendAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		log:      logger.With("queue"),
	}
}

// Submit serializes one chunk message and sends it with the given delay.
// Chunk metadata rides as message attributes so operators can inspect jobs
// without parsing bodies.
func (p *Publisher) Submit(ctx context.Context, msg domain.ChunkMessage, delay time.Duration) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling chunk message: %w", err)
	}

	if delay < 0 {
		delay = 0
	}
	if delay > maxDelay {
		delay = maxDelay
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(p.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay.Seconds()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"job_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.JobID),
			},
			"chunk_index": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.ChunkIndex)),
			},
			"total_chunks": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.TotalChunks)),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sending chunk %d/%d of job %s: %w", msg.ChunkIndex+1, msg.TotalChunks, msg.JobID, err)
	}

	p.log.Debug("chunk enqueued",
		"job_id", msg.JobID, "chunk", msg.ChunkIndex,
		"recipients", len(msg.Recipients), "delay", delay.String())
	return nil
}
