package schedule

import (
	"fmt"
	"time"

	"crane-booking-backend/internal/apperr"
)

// MaxTZOffset bounds caller supplied UTC offsets.
const MaxTZOffset = 14 * time.Hour

// Date is a calendar day on the caller's wall clock.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, apperr.Validation("invalid date %q, want YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf returns the calendar day of t on a clock offset from UTC.
func DateOf(t time.Time, offset time.Duration) Date {
	local := t.In(fixedZone(offset))
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At returns the absolute instant of clock time c on d for the given offset.
func (d Date) At(c ClockTime, offset time.Duration) time.Time {
	midnight := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, fixedZone(offset))
	return midnight.Add(time.Duration(c) * time.Minute).UTC()
}

func fixedZone(offset time.Duration) *time.Location {
	return time.FixedZone("", int(offset/time.Second))
}

// ValidateOffset rejects offsets no real clock uses.
func ValidateOffset(offset time.Duration) error {
	if offset < -MaxTZOffset || offset > MaxTZOffset {
		return apperr.Validation("timezone offset %s out of range", offset)
	}
	return nil
}

// OffsetMinutes converts a caller supplied UTC offset in minutes, checking the
// range before the conversion can overflow.
func OffsetMinutes(minutes int64) (time.Duration, error) {
	limit := int64(MaxTZOffset / time.Minute)
	if minutes < -limit || minutes > limit {
		return 0, apperr.Validation("timezone offset %d minutes out of range", minutes).
			WithDetail("field", "tzOffset")
	}
	return time.Duration(minutes) * time.Minute, nil
}

// GenerateSlots lists the candidate intervals of slotCount base slots on date.
// Candidates start at workday start and step by the base granularity; the last
// one ends at or before workday end; a request longer than the workday has no
// candidates. The offset is fixed for the whole day, so
// a DST change on date is not reflected.
func GenerateSlots(date Date, slotCount int, s Settings, tzOffset time.Duration) ([]Interval, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if slotCount < 1 {
		return nil, apperr.Validation("slot count must be at least 1")
	}
	if err := ValidateOffset(tzOffset); err != nil {
		return nil, err
	}

	// Also keeps slotCount*step from overflowing.
	if slotCount > s.MaxSlotCount() {
		return nil, nil
	}

	step := s.Granularity()
	length := time.Duration(slotCount) * step
	workStart := date.At(s.WorkdayStart, tzOffset)
	workEnd := date.At(s.WorkdayEnd, tzOffset)

	var slots []Interval
	for start := workStart; !start.Add(length).After(workEnd); start = start.Add(step) {
		slots = append(slots, Interval{Start: start, End: start.Add(length)})
	}
	return slots, nil
}
