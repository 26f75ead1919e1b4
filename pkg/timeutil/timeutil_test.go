package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*3600)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		loc  *time.Location
		want int
	}{
		{
			name: "same day",
			from: time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
			to:   time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "late evening to next morning is one day",
			from: time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC),
			to:   time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "negative when to is earlier",
			from: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			to:   time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
			want: -3,
		},
		{
			name: "zone decides the date",
			from: time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC), // 11th in Nairobi
			to:   time.Date(2025, 3, 14, 0, 0, 0, 0, nairobi),
			loc:  nairobi,
			want: 3,
		},
		{
			name: "across month end",
			from: time.Date(2025, 2, 27, 12, 0, 0, 0, time.UTC),
			to:   time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC),
			want: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to, tt.loc))
		})
	}
}

func TestDaysBetween_DSTDoesNotShift(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Clocks jump forward on 2025-03-09.
	from := time.Date(2025, 3, 8, 0, 30, 0, 0, ny)
	to := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(from, to, ny))
}

func TestStartOfDayAndFormat(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	ts := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC) // 9th at 21:00 in loc

	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, loc), StartOfDay(ts, loc))
	assert.Equal(t, "2025-03-09", FormatDate(ts, loc))
	assert.Equal(t, "2025-03-10", FormatDate(ts, nil))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
}

func TestFixed(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at, Fixed(at)())
}
