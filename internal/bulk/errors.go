package bulk

import "fmt"

// ConfigurationError indicates the caller requested behavior that requires a
// collaborator which is not wired in. It fails the whole call before any
// send attempt.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// ValidationError indicates malformed input (sender, recipients, content).
// It fails the whole call before any send attempt; no partial send happens.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Msg)
}

// EnqueueError records the queue transport rejecting one chunk submission.
// It is captured per chunk; the affected chunk's recipients are marked
// failed while other chunks proceed independently.
type EnqueueError struct {
	ChunkIndex int
	Err        error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("enqueue chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *EnqueueError) Unwrap() error {
	return e.Err
}
