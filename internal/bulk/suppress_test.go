package bulk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

type lookupFunc func(ctx context.Context, email string) (*domain.BounceRecord, error)

func (f lookupFunc) Lookup(ctx context.Context, email string) (*domain.BounceRecord, error) {
	return f(ctx, email)
}

func staticBounces(records map[string]*domain.BounceRecord) lookupFunc {
	return func(_ context.Context, email string) (*domain.BounceRecord, error) {
		return records[email], nil
	}
}

func TestFilterSuppressed(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recipients := []domain.Recipient{
		{Email: "clean@example.com"},
		{Email: "hard@example.com"},
		{Email: "complaint@example.com"},
		{Email: "softRecent@example.com"},
		{Email: "softOld@example.com"},
	}
	lookup := staticBounces(map[string]*domain.BounceRecord{
		"hard@example.com":       {Email: "hard@example.com", BounceType: domain.BounceHard, Timestamp: now.Add(-90 * 24 * time.Hour)},
		"complaint@example.com":  {Email: "complaint@example.com", BounceType: domain.BounceComplaint, Timestamp: now.Add(-time.Hour)},
		"softrecent@example.com": {Email: "softRecent@example.com", BounceType: domain.BounceSoft, Timestamp: now.Add(-23 * time.Hour)},
		"softold@example.com":    {Email: "softOld@example.com", BounceType: domain.BounceSoft, Timestamp: now.Add(-25 * time.Hour)},
	})

	result := FilterSuppressed(context.Background(), recipients, lookup, now)

	wantActive := []string{"clean@example.com", "softOld@example.com"}
	if len(result.Active) != len(wantActive) {
		t.Fatalf("got %d active recipients, want %d: %+v", len(result.Active), len(wantActive), result.Active)
	}
	for i, email := range wantActive {
		if result.Active[i].Email != email {
			t.Errorf("active[%d] = %s, want %s", i, result.Active[i].Email, email)
		}
	}

	if len(result.Suppressed) != 3 {
		t.Fatalf("got %d suppressed results, want 3", len(result.Suppressed))
	}
	for _, sr := range result.Suppressed {
		if sr.Success {
			t.Errorf("suppressed result for %s marked success", sr.Recipient)
		}
		if sr.Error != SuppressedErrorText {
			t.Errorf("suppressed result error = %q, want %q", sr.Error, SuppressedErrorText)
		}
		if !sr.Timestamp.Equal(now) {
			t.Errorf("suppressed result timestamp = %v, want %v", sr.Timestamp, now)
		}
	}
}

func TestFilterSuppressedLookupNormalizesEmail(t *testing.T) {
	now := time.Now()
	var seen string
	lookup := lookupFunc(func(_ context.Context, email string) (*domain.BounceRecord, error) {
		seen = email
		return nil, nil
	})

	FilterSuppressed(context.Background(), []domain.Recipient{{Email: "  User@Example.COM "}}, lookup, now)
	if seen != "user@example.com" {
		t.Errorf("lookup saw %q, want normalized form", seen)
	}
}

func TestFilterSuppressedFailsOpen(t *testing.T) {
	now := time.Now()
	lookup := lookupFunc(func(_ context.Context, _ string) (*domain.BounceRecord, error) {
		return nil, errors.New("dynamodb unavailable")
	})

	result := FilterSuppressed(context.Background(), []domain.Recipient{{Email: "a@example.com"}}, lookup, now)
	if len(result.Active) != 1 || len(result.Suppressed) != 0 {
		t.Errorf("lookup failure must not suppress: active=%d suppressed=%d", len(result.Active), len(result.Suppressed))
	}
}

func TestBounceRecordSuppressesAt(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		record domain.BounceRecord
		want   bool
	}{
		{"hard always", domain.BounceRecord{BounceType: domain.BounceHard, Timestamp: now.Add(-365 * 24 * time.Hour)}, true},
		{"complaint always", domain.BounceRecord{BounceType: domain.BounceComplaint, Timestamp: now.Add(-365 * 24 * time.Hour)}, true},
		{"soft inside window", domain.BounceRecord{BounceType: domain.BounceSoft, Timestamp: now.Add(-23 * time.Hour)}, true},
		{"soft outside window", domain.BounceRecord{BounceType: domain.BounceSoft, Timestamp: now.Add(-24*time.Hour - time.Minute)}, false},
		{"unknown type never", domain.BounceRecord{BounceType: "mystery", Timestamp: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.SuppressesAt(now); got != tt.want {
				t.Errorf("SuppressesAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
