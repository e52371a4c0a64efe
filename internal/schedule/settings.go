// Package schedule holds the pure scheduling rules: workday settings, slot
// generation, interval overlap and capacity checks.
package schedule

import (
	"context"
	"fmt"
	"time"

	"crane-booking-backend/internal/apperr"
)

// ClockTime is a time of day in minutes after midnight.
type ClockTime int

// ParseClock parses "HH:MM". "24:00" is accepted as the end of the day.
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Settings is the read-only snapshot every scheduling computation receives.
type Settings struct {
	WorkdayStart  ClockTime
	WorkdayEnd    ClockTime
	SlotMinutes   int
	BufferMinutes int
}

// Validate checks the settings are usable for slot generation.
func (s Settings) Validate() error {
	if s.WorkdayEnd <= s.WorkdayStart {
		return apperr.Validation("workday end %s must be after start %s", s.WorkdayEnd, s.WorkdayStart)
	}
	if s.SlotMinutes <= 0 {
		return apperr.Validation("slot granularity must be positive")
	}
	if s.BufferMinutes < 0 {
		return apperr.Validation("buffer must not be negative")
	}
	return nil
}

// Granularity is the base slot length and candidate step.
func (s Settings) Granularity() time.Duration {
	return time.Duration(s.SlotMinutes) * time.Minute
}

// MaxSlotCount is the longest request, in base slots, that fits in one workday.
func (s Settings) MaxSlotCount() int {
	return int(s.WorkdayEnd-s.WorkdayStart) / s.SlotMinutes
}

// Buffer is the gap enforced after an existing reservation.
func (s Settings) Buffer() time.Duration {
	return time.Duration(s.BufferMinutes) * time.Minute
}

// Provider hands out a settings snapshot per call.
type Provider interface {
	Settings(ctx context.Context) (Settings, error)
}

// Static is a Provider that always returns the same settings.
type Static Settings

// Settings returns the fixed snapshot.
func (s Static) Settings(context.Context) (Settings, error) {
	return Settings(s), nil
}
