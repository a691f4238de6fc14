package domain

import "time"

// JobStatus summarizes a bulk job's outcome.
//
// StatusQueued is deliberately distinct from StatusCompleted: a queued job
// has been handed to the queue transport in full, but nothing has been
// delivered yet. Conflating the two would make "completed" mean different
// things on the two paths.
type JobStatus string

const (
	// StatusCompleted means every produced result succeeded (or there were
	// no recipients at all).
	StatusCompleted JobStatus = "completed"
	// StatusPartial means the job produced a mix of successes and failures,
	// or only some chunks were accepted by the queue.
	StatusPartial JobStatus = "partial"
	// StatusFailed means every produced result failed.
	StatusFailed JobStatus = "failed"
	// StatusQueued means every chunk was accepted by the queue transport.
	// Delivery is deferred and unobserved by this component.
	StatusQueued JobStatus = "queued"
)

// BulkJob is the aggregate outcome of one sendBulkEmails call. It lives only
// for the duration of the call; durable job tracking belongs to the caller
// or to the queue.
type BulkJob struct {
	JobID           string       `json:"job_id"`
	TotalRecipients int          `json:"total_recipients"`
	SuccessCount    int          `json:"success_count"`
	FailureCount    int          `json:"failure_count"`
	Results         []SendResult `json:"results,omitempty"`
	Status          JobStatus    `json:"status"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
}
