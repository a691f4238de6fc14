package bulk

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
)

// SendRequest is a single-recipient delivery request handed to the mail
// transport. Content is already personalized.
type SendRequest struct {
	From    string
	To      string
	ReplyTo string
	Content domain.RenderedContent
	Tags    map[string]string
}

// MailTransport delivers one message to one recipient and returns the
// provider's message ID.
type MailTransport interface {
	Send(ctx context.Context, req SendRequest) (messageID string, err error)
}

// QueueTransport hands a chunk message to the queue. Delivery, redelivery,
// and backoff are entirely the queue's responsibility.
type QueueTransport interface {
	Submit(ctx context.Context, msg domain.ChunkMessage, delay time.Duration) error
}

// DefaultChunkSize is the recipients-per-queue-message default.
const DefaultChunkSize = 50

// DefaultSendDelay is the fixed inter-send pause on the immediate path. It
// is a crude rate governor approximating provider throughput limits, not an
// adaptive limiter.
const DefaultSendDelay = 50 * time.Millisecond

// Settings are the pacing and sizing knobs of the pipeline.
type Settings struct {
	ImmediateThreshold int
	ChunkSize          int
	SendDelay          time.Duration
}

// Options shape a single SendBulkEmails call.
type Options struct {
	// JobID correlates immediate results and queued chunks. Generated when
	// empty.
	JobID    string
	From     string
	ReplyTo  string
	Campaign string
	Type     string
	// ForceQueue routes the job through the queue regardless of size.
	ForceQueue bool
	// ChunkSize overrides the configured recipients-per-chunk.
	ChunkSize int
	// ScheduledFor defers sending; implies the queued path.
	ScheduledFor *time.Time
	// RequireSuppression makes a missing bounce store a hard error instead
	// of silently skipping the filter.
	RequireSuppression bool
}

// Service runs bulk jobs against injected collaborators. queue and bounces
// may be nil: without a queue transport every job runs immediate, and
// without a bounce store the suppression filter is skipped.
type Service struct {
	mail     MailTransport
	queue    QueueTransport
	bounces  BounceLookup
	settings Settings
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a bulk send service. mail is required; queue and
// bounces are optional collaborators.
func NewService(mail MailTransport, queue QueueTransport, bounces BounceLookup, settings Settings) *Service {
	if settings.ImmediateThreshold <= 0 {
		settings.ImmediateThreshold = DefaultImmediateThreshold
	}
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = DefaultChunkSize
	}
	if settings.SendDelay <= 0 {
		settings.SendDelay = DefaultSendDelay
	}
	return &Service{
		mail:     mail,
		queue:    queue,
		bounces:  bounces,
		settings: settings,
		log:      logger.With("bulk"),
		now:      time.Now,
	}
}

// SendBulkEmails validates the request, selects a strategy, and runs the job
// to completion. Per-recipient failures are captured in the returned job;
// only configuration and validation problems surface as errors.
func (s *Service) SendBulkEmails(ctx context.Context, recipients []domain.Recipient, content domain.RenderedContent, opts Options) (*domain.BulkJob, error) {
	if err := s.validate(recipients, content, opts); err != nil {
		return nil, err
	}

	if opts.JobID == "" {
		opts.JobID = uuid.New().String()
	}

	started := s.now()
	if len(recipients) == 0 {
		return &domain.BulkJob{
			JobID:      opts.JobID,
			Status:     domain.StatusCompleted,
			StartedAt:  started,
			FinishedAt: started,
		}, nil
	}

	strategy := SelectStrategy(len(recipients), s.queue != nil, opts.ForceQueue, opts.ScheduledFor, s.settings.ImmediateThreshold)
	if strategy == StrategyQueue && s.queue == nil {
		return nil, &ConfigurationError{Msg: "queued processing requested but no queue transport is configured"}
	}

	s.log.Info("bulk job starting",
		"job_id", opts.JobID, "recipients", len(recipients), "strategy", string(strategy))

	var job *domain.BulkJob
	if strategy == StrategyQueue {
		job = s.dispatchQueued(ctx, recipients, content, opts)
	} else {
		job = s.processImmediate(ctx, recipients, content, opts)
	}

	job.StartedAt = started
	job.FinishedAt = s.now()

	s.log.Info("bulk job finished",
		"job_id", job.JobID, "status", string(job.Status),
		"success", job.SuccessCount, "failure", job.FailureCount)
	return job, nil
}

func (s *Service) validate(recipients []domain.Recipient, content domain.RenderedContent, opts Options) error {
	if opts.From == "" {
		return &ValidationError{Field: "from", Msg: "sender address is required"}
	}
	if _, err := mail.ParseAddress(opts.From); err != nil {
		return &ValidationError{Field: "from", Msg: "sender address is malformed"}
	}
	if content.IsEmpty() {
		return &ValidationError{Field: "content", Msg: "message body is empty"}
	}
	for _, rcpt := range recipients {
		if err := rcpt.Validate(); err != nil {
			return &ValidationError{Field: "recipients", Msg: err.Error()}
		}
	}
	if opts.RequireSuppression && s.bounces == nil {
		return &ConfigurationError{Msg: "suppression filtering requested but no bounce store is configured"}
	}
	return nil
}

// processImmediate runs the sequential in-process send loop: suppression
// filter, then one transport call per recipient with a fixed pause between
// sends. A recipient's failure is recorded and the loop continues; nothing
// short of context plumbing inside the transport aborts the batch.
func (s *Service) processImmediate(ctx context.Context, recipients []domain.Recipient, content domain.RenderedContent, opts Options) *domain.BulkJob {
	active := recipients
	var results []domain.SendResult

	if s.bounces != nil {
		filtered := FilterSuppressed(ctx, recipients, s.bounces, s.now())
		active = filtered.Active
		results = append(results, filtered.Suppressed...)
	}

	for i, rcpt := range active {
		personalized := content
		if len(rcpt.PersonalizationData) > 0 {
			personalized = Personalize(content, rcpt.PersonalizationData)
		}

		messageID, err := s.mail.Send(ctx, SendRequest{
			From:    opts.From,
			To:      rcpt.Email,
			ReplyTo: opts.ReplyTo,
			Content: personalized,
			Tags:    s.tags(opts),
		})

		result := domain.SendResult{Recipient: rcpt.Email, Timestamp: s.now()}
		if err != nil {
			result.Error = err.Error()
			s.log.Warn("send failed", "job_id", opts.JobID, "email", rcpt.Email, "error", err.Error())
		} else {
			result.Success = true
			result.MessageID = messageID
		}
		results = append(results, result)

		if i < len(active)-1 && s.settings.SendDelay > 0 {
			time.Sleep(s.settings.SendDelay)
		}
	}

	successCount, failureCount, status := Aggregate(results)
	return &domain.BulkJob{
		JobID:           opts.JobID,
		TotalRecipients: len(recipients),
		SuccessCount:    successCount,
		FailureCount:    failureCount,
		Results:         results,
		Status:          status,
	}
}

// dispatchQueued chunks the batch and submits every chunk concurrently.
// Chunks are independent: a rejected submission fails only its own
// recipients, and accepted chunks stay accepted. Full acceptance yields
// StatusQueued, which asserts enqueue success only, not delivery.
func (s *Service) dispatchQueued(ctx context.Context, recipients []domain.Recipient, content domain.RenderedContent, opts Options) *domain.BulkJob {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.settings.ChunkSize
	}

	chunks, err := Chunk(recipients, chunkSize)
	if err != nil {
		// Unreachable with the defaulted size; kept for the contract.
		return &domain.BulkJob{
			JobID:           opts.JobID,
			TotalRecipients: len(recipients),
			FailureCount:    len(recipients),
			Results:         failAll(recipients, err.Error(), s.now()),
			Status:          domain.StatusFailed,
		}
	}

	var delay time.Duration
	if opts.ScheduledFor != nil {
		if d := opts.ScheduledFor.Sub(s.now()); d > 0 {
			delay = d
		}
	}

	submitErrs := make([]error, len(chunks))
	var g errgroup.Group
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			msg := domain.ChunkMessage{
				JobID:       opts.JobID,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				From:        opts.From,
				ReplyTo:     opts.ReplyTo,
				Subject:     content.Subject,
				HTMLContent: content.HTML,
				TextContent: content.Text,
				Recipients:  chunk,
				Campaign:    opts.Campaign,
				Type:        opts.Type,
			}
			if err := s.queue.Submit(ctx, msg, delay); err != nil {
				submitErrs[i] = &EnqueueError{ChunkIndex: i, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	now := s.now()
	var results []domain.SendResult
	failedChunks := 0
	for i, chunk := range chunks {
		if submitErrs[i] == nil {
			continue
		}
		failedChunks++
		s.log.Error("chunk enqueue failed",
			"job_id", opts.JobID, "chunk", i, "error", submitErrs[i].Error())
		results = append(results, failAll(chunk, submitErrs[i].Error(), now)...)
	}

	status := domain.StatusQueued
	switch {
	case failedChunks == len(chunks):
		status = domain.StatusFailed
	case failedChunks > 0:
		status = domain.StatusPartial
	}

	return &domain.BulkJob{
		JobID:           opts.JobID,
		TotalRecipients: len(recipients),
		FailureCount:    len(results),
		Results:         results,
		Status:          status,
	}
}

func (s *Service) tags(opts Options) map[string]string {
	tags := map[string]string{"job_id": opts.JobID}
	if opts.Type != "" {
		tags["type"] = opts.Type
	}
	if opts.Campaign != "" {
		tags["campaign"] = opts.Campaign
	}
	return tags
}

func failAll(recipients []domain.Recipient, errText string, now time.Time) []domain.SendResult {
	results := make([]domain.SendResult, len(recipients))
	for i, rcpt := range recipients {
		results[i] = domain.SendResult{
			Success:   false,
			Error:     errText,
			Recipient: rcpt.Email,
			Timestamp: now,
		}
	}
	return results
}
