package bulk

import (
	"testing"

	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
)

func results(successes, failures int) []domain.SendResult {
	var rs []domain.SendResult
	for i := 0; i < successes; i++ {
		rs = append(rs, domain.SendResult{Success: true})
	}
	for i := 0; i < failures; i++ {
		rs = append(rs, domain.SendResult{Success: false})
	}
	return rs
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		successes  int
		failures   int
		wantStatus domain.JobStatus
	}{
		{"empty is completed, never failed", 0, 0, domain.StatusCompleted},
		{"all success", 3, 0, domain.StatusCompleted},
		{"all failure", 0, 3, domain.StatusFailed},
		{"mixed", 2, 1, domain.StatusPartial},
		{"single failure", 0, 1, domain.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := results(tt.successes, tt.failures)
			success, failure, status := Aggregate(rs)

			if success != tt.successes || failure != tt.failures {
				t.Errorf("Aggregate() counts = %d/%d, want %d/%d", success, failure, tt.successes, tt.failures)
			}
			if success+failure != len(rs) {
				t.Errorf("invariant broken: %d + %d != %d", success, failure, len(rs))
			}
			if status != tt.wantStatus {
				t.Errorf("Aggregate() status = %v, want %v", status, tt.wantStatus)
			}
		})
	}
}
