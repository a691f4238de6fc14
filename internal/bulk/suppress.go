package bulk

import (
	"context"
	"time"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
)

// SuppressedErrorText is the failure reason recorded for recipients filtered
// out by bounce history.
const SuppressedErrorText = "Email address has previously bounced"

// BounceLookup resolves an email address to its most recent bounce record,
// or nil when the address has no bounce history.
type BounceLookup interface {
	Lookup(ctx context.Context, email string) (*domain.BounceRecord, error)
}

// FilterResult partitions a recipient list into sendable recipients and
// synthetic failure results for the suppressed remainder.
type FilterResult struct {
	Active     []domain.Recipient
	Suppressed []domain.SendResult
}

// FilterSuppressed checks each recipient against bounce history. Hard
// bounces and complaints suppress unconditionally; soft bounces suppress
// only inside the 24h window. A failing lookup treats the address as not
// bounced: sending availability is deliberately prioritized over suppression
// strictness, and the miss is logged rather than propagated.
func FilterSuppressed(ctx context.Context, recipients []domain.Recipient, lookup BounceLookup, now time.Time) FilterResult {
	log := logger.With("suppression")

	result := FilterResult{Active: make([]domain.Recipient, 0, len(recipients))}
	for _, rcpt := range recipients {
		record, err := lookup.Lookup(ctx, rcpt.NormalizedEmail())
		if err != nil {
			// Fail open: a bounce-store outage must not block sending.
			log.Warn("bounce lookup failed, treating as not bounced",
				"email", rcpt.Email, "error", err.Error())
			result.Active = append(result.Active, rcpt)
			continue
		}
		if record != nil && record.SuppressesAt(now) {
			result.Suppressed = append(result.Suppressed, domain.SendResult{
				Success:   false,
				Error:     SuppressedErrorText,
				Recipient: rcpt.Email,
				Timestamp: now,
			})
			continue
		}
		result.Active = append(result.Active, rcpt)
	}

	if len(result.Suppressed) > 0 {
		log.Info("recipients suppressed by bounce history",
			"suppressed", len(result.Suppressed), "active", len(result.Active))
	}
	return result
}
