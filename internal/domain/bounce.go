package domain

import "time"

// BounceType classifies a bounce record.
type BounceType string

const (
	BounceHard      BounceType = "hard"
	BounceSoft      BounceType = "soft"
	BounceComplaint BounceType = "complaint"
)

// SoftBounceWindow is how long a soft bounce keeps an address suppressed.
// Hard bounces and complaints suppress unconditionally.
const SoftBounceWindow = 24 * time.Hour

// BounceRecord is one entry in the bounce store. The pipeline only reads
// these; writes come from the delivery feedback loop.
type BounceRecord struct {
	Email      string     `json:"email"`
	BounceType BounceType `json:"bounce_type"`
	Reason     string     `json:"reason,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// SuppressesAt reports whether this record disqualifies its address from
// sending at the given instant.
func (b BounceRecord) SuppressesAt(now time.Time) bool {
	switch b.BounceType {
	case BounceHard, BounceComplaint:
		return true
	case BounceSoft:
		return now.Sub(b.Timestamp) < SoftBounceWindow
	}
	return false
}
