package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a job at a fixed interval from the previous tick.
type IntervalSchedule struct {
	Interval time.Duration
}

// Every creates an IntervalSchedule. Non-positive intervals are clamped to one second.
func Every(interval time.Duration) *IntervalSchedule {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}
