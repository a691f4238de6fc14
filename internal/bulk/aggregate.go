package bulk

import "github.com/ToldYaOnce/kx-email-utils/internal/domain"

// Aggregate merges per-recipient outcomes into counts and a job status.
// successCount + failureCount always equals len(results). An empty result
// set is completed, never failed: nothing was attempted, so nothing failed.
func Aggregate(results []domain.SendResult) (successCount, failureCount int, status domain.JobStatus) {
	for _, r := range results {
		if r.Success {
			successCount++
		} else {
			failureCount++
		}
	}

	switch {
	case failureCount == 0:
		status = domain.StatusCompleted
	case failureCount == len(results):
		status = domain.StatusFailed
	default:
		status = domain.StatusPartial
	}
	return successCount, failureCount, status
}
