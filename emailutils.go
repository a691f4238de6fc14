// Package emailutils is the public face of the bulk email toolkit. It wires
// the SES transport, DynamoDB bounce store, and SQS chunk queue from a single
// configuration and re-exports the domain types callers work with, so
// applications import one package instead of reaching into internal ones.
package emailutils

import (
	"context"
	"time"

	appconfig "github.com/ToldYaOnce/kx-email-utils/internal/config"

	"github.com/ToldYaOnce/kx-email-utils/internal/bounces"
	"github.com/ToldYaOnce/kx-email-utils/internal/bulk"
	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
	"github.com/ToldYaOnce/kx-email-utils/internal/queue"
	"github.com/ToldYaOnce/kx-email-utils/internal/ses"
	"github.com/ToldYaOnce/kx-email-utils/internal/templates"
	"github.com/ToldYaOnce/kx-email-utils/internal/token"
)

// Core domain types, re-exported for callers.
type (
	Recipient       = domain.Recipient
	RenderedContent = domain.RenderedContent
	SendResult      = domain.SendResult
	BulkJob         = domain.BulkJob
	JobStatus       = domain.JobStatus
	BounceRecord    = domain.BounceRecord
	BounceType      = domain.BounceType
	ChunkMessage    = domain.ChunkMessage

	Options       = bulk.Options
	Settings      = bulk.Settings
	EmailTemplate = templates.EmailTemplate

	Config = appconfig.Config
)

// Job status values.
const (
	StatusCompleted = domain.StatusCompleted
	StatusPartial   = domain.StatusPartial
	StatusFailed    = domain.StatusFailed
	StatusQueued    = domain.StatusQueued
)

// Bounce classifications.
const (
	BounceHard      = domain.BounceHard
	BounceSoft      = domain.BounceSoft
	BounceComplaint = domain.BounceComplaint
)

// LoadConfig reads a YAML config file and applies env var overrides.
func LoadConfig(path string) (*Config, error) {
	return appconfig.LoadFromEnv(path)
}

// Client is a fully wired bulk email sender.
type Client struct {
	svc      *bulk.Service
	renderer *templates.Renderer
	tokens   *token.Issuer
	cfg      *Config
}

// New builds a client from configuration. The bounce store and queue are
// optional: with no bounce table the suppression filter is skipped, and with
// no queue URL every job runs on the immediate path.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactEnabled())

	mail, err := ses.NewTransport(ctx, cfg.AWS, cfg.SES.FromName)
	if err != nil {
		return nil, err
	}

	var queueTransport bulk.QueueTransport
	if cfg.Queue.URL != "" {
		sqsClient, err := queue.NewSQSClient(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		queueTransport = queue.NewPublisher(sqsClient, cfg.Queue.URL)
	}

	var bounceLookup bulk.BounceLookup
	if cfg.Bounces.TableName != "" {
		store, err := bounces.NewStore(ctx, cfg.AWS, cfg.Bounces)
		if err != nil {
			return nil, err
		}
		bounceLookup = store
	}

	var issuer *token.Issuer
	if cfg.Tokens.SigningKey != "" {
		issuer, err = token.NewIssuer(cfg.Tokens.SigningKey, cfg.Tokens.TTL())
		if err != nil {
			return nil, err
		}
	}

	svc := bulk.NewService(mail, queueTransport, bounceLookup, bulk.Settings{
		ImmediateThreshold: cfg.Bulk.ImmediateThreshold,
		ChunkSize:          cfg.Bulk.ChunkSize,
		SendDelay:          cfg.Bulk.SendDelay(),
	})

	return &Client{svc: svc, renderer: templates.NewRenderer(), tokens: issuer, cfg: cfg}, nil
}

// NewWithTransports builds a client from caller-supplied collaborators. It
// exists for applications that bring their own transports, and for tests.
func NewWithTransports(mail bulk.MailTransport, queueTransport bulk.QueueTransport, bounceLookup bulk.BounceLookup, settings Settings) *Client {
	return &Client{
		svc:      bulk.NewService(mail, queueTransport, bounceLookup, settings),
		renderer: templates.NewRenderer(),
	}
}

// SendBulkEmails runs a bulk job. See bulk.Service.SendBulkEmails for the
// strategy and error contract.
func (c *Client) SendBulkEmails(ctx context.Context, recipients []Recipient, content RenderedContent, opts Options) (*BulkJob, error) {
	if opts.From == "" && c.cfg != nil {
		opts.From = c.cfg.SES.FromEmail
	}
	if opts.ReplyTo == "" && c.cfg != nil {
		opts.ReplyTo = c.cfg.SES.ReplyTo
	}
	return c.svc.SendBulkEmails(ctx, recipients, content, opts)
}

// Render produces job content from a Liquid template and job-level data.
// Recipient placeholders such as {{first_name}} survive rendering untouched
// when absent from data and are substituted per recipient during the send.
func (c *Client) Render(tmpl EmailTemplate, data map[string]any) (RenderedContent, error) {
	return c.renderer.Render(tmpl, data)
}

// UnsubscribeURL builds a signed one-click unsubscribe link for a recipient.
// Requires tokens.signing_key and tokens.unsubscribe_base_url in config.
func (c *Client) UnsubscribeURL(email, campaign string) (string, error) {
	if c.tokens == nil || c.cfg == nil || c.cfg.Tokens.UnsubscribeBaseURL == "" {
		return "", token.ErrMissingSignKey
	}
	return c.tokens.UnsubscribeURL(c.cfg.Tokens.UnsubscribeBaseURL, email, campaign)
}

// VerifyUnsubscribeToken validates a token from an unsubscribe link and
// returns the recipient it was issued for.
func (c *Client) VerifyUnsubscribeToken(tokenStr string) (string, error) {
	if c.tokens == nil {
		return "", token.ErrMissingSignKey
	}
	claims, err := c.tokens.Verify(tokenStr, token.PurposeUnsubscribe)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// RecordBounce writes a bounce event to the bounce store so future sends to
// the address are suppressed per the bounce-type rules.
func RecordBounce(ctx context.Context, cfg *Config, email string, bounceType BounceType, reason string) error {
	store, err := bounces.NewStore(ctx, cfg.AWS, cfg.Bounces)
	if err != nil {
		return err
	}
	return store.Record(ctx, domain.BounceRecord{
		Email:      email,
		BounceType: bounceType,
		Reason:     reason,
		Timestamp:  time.Now(),
	})
}
