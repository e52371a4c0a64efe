package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 2, hour, minute, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Interval
		expected bool
	}{
		{"identical", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 0), at(10, 0)}, true},
		{"partial", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 30), at(11, 0)}, true},
		{"contained", Interval{at(8, 0), at(12, 0)}, Interval{at(9, 0), at(10, 0)}, true},
		{"adjacent", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(13, 0), at(14, 0)}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.expected, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestCollidesWithHold(t *testing.T) {
	hold := Interval{at(9, 0), at(10, 0)}
	buffer := 15 * time.Minute

	assert.False(t, CollidesWithHold(Interval{at(8, 0), at(9, 0)}, hold, buffer), "ending at hold start is free")
	assert.True(t, CollidesWithHold(Interval{at(10, 0), at(11, 0)}, hold, buffer), "starting inside the trailing buffer")
	assert.True(t, CollidesWithHold(Interval{at(10, 14), at(11, 0)}, hold, buffer))
	assert.False(t, CollidesWithHold(Interval{at(10, 15), at(11, 15)}, hold, buffer))
	assert.False(t, CollidesWithHold(Interval{at(10, 0), at(11, 0)}, hold, 0))
}

func TestNewInterval(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	assert.Error(t, err)
	_, err = NewInterval(at(10, 0), at(9, 0))
	assert.Error(t, err)

	local := time.FixedZone("", 3600)
	iv, err := NewInterval(time.Date(2030, 1, 2, 10, 0, 0, 0, local), time.Date(2030, 1, 2, 11, 0, 0, 0, local))
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), iv.Start)
	assert.Equal(t, time.Hour, iv.Duration())
}
