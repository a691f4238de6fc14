package bulk

import "time"

// Strategy is the processing path chosen for a bulk job.
type Strategy string

const (
	StrategyImmediate Strategy = "immediate"
	StrategyQueue     Strategy = "queue"
)

// DefaultImmediateThreshold is the batch size above which a job is queued
// when a queue transport is available.
const DefaultImmediateThreshold = 50

// SelectStrategy decides between the immediate and queued paths. Precedence:
// an explicit force wins, then a scheduled send time, then batch size against
// the threshold. Without a queue transport, oversized batches still go
// immediate; forcing or scheduling without one is the caller's configuration
// error, surfaced by the service before any send attempt.
func SelectStrategy(recipientCount int, hasQueueTransport, forceQueue bool, scheduledFor *time.Time, threshold int) Strategy {
	if threshold <= 0 {
		threshold = DefaultImmediateThreshold
	}

	switch {
	case forceQueue:
		return StrategyQueue
	case scheduledFor != nil:
		return StrategyQueue
	case hasQueueTransport && recipientCount > threshold:
		return StrategyQueue
	default:
		return StrategyImmediate
	}
}
