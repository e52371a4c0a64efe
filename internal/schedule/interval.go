package schedule

import (
	"time"

	"crane-booking-backend/internal/apperr"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an interval, rejecting empty or inverted ranges.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, apperr.Validation("end must be after start")
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether iv and other share any instant.
// Adjacent intervals (iv.End == other.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// CollidesWithHold reports whether candidate overlaps an existing hold whose
// end is widened by buffer. The candidate itself is never widened.
func CollidesWithHold(candidate, hold Interval, buffer time.Duration) bool {
	return candidate.Overlaps(Interval{Start: hold.Start, End: hold.End.Add(buffer)})
}
