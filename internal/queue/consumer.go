package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/ToldYaOnce/kx-email-utils/internal/config"
	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
)

// ReceiveAPI abstracts the SQS operations the consumer uses.
type ReceiveAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one chunk message. Returning an error leaves the message
// on the queue for SQS redelivery.
type Handler func(ctx context.Context, msg domain.ChunkMessage) error

// Consumer long-polls one SQS queue and dispatches chunk messages to a
// handler. Messages are deleted only after the handler succeeds; an
// unparseable body is deleted immediately since redelivery cannot fix it.
type Consumer struct {
	client            ReceiveAPI
	queueURL          string
	waitTime          int32
	visibilityTimeout int32
	handler           Handler
	log               *logger.Logger
}

// NewConsumer creates a consumer for the given queue.
func NewConsumer(client ReceiveAPI, cfg appconfig.QueueConfig, handler Handler) *Consumer {
	return &Consumer{
		client:            client,
		queueURL:          cfg.URL,
		waitTime:          int32(cfg.WaitTimeSeconds),
		visibilityTimeout: int32(cfg.VisibilityTimeoutSeconds),
		handler:           handler,
		log:               logger.With("consumer"),
	}
}

// Run polls until the context is canceled. Receive errors are logged and
// retried after a short pause rather than terminating the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     c.waitTime,
			VisibilityTimeout:   c.visibilityTimeout,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("receive failed", "error", err.Error())
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, raw := range output.Messages {
			c.handleOne(ctx, raw.Body, raw.ReceiptHandle)
		}
	}
}

func (c *Consumer) handleOne(ctx context.Context, body, receiptHandle *string) {
	if body == nil || receiptHandle == nil {
		return
	}

	var msg domain.ChunkMessage
	if err := json.Unmarshal([]byte(*body), &msg); err != nil {
		c.log.Error("dropping unparseable message", "error", err.Error())
		c.delete(ctx, receiptHandle)
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		// Leave the message for SQS redelivery; the queue's DLQ policy
		// decides when to give up.
		c.log.Error("chunk handling failed",
			"job_id", msg.JobID, "chunk", msg.ChunkIndex, "error", err.Error())
		return
	}

	c.delete(ctx, receiptHandle)
	c.log.Info("chunk processed",
		"job_id", msg.JobID, "chunk", msg.ChunkIndex, "recipients", len(msg.Recipients))
}

func (c *Consumer) delete(ctx context.Context, receiptHandle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.log.Warn("delete failed, message will redeliver", "error", err.Error())
	}
}
