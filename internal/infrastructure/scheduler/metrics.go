package scheduler

import (
	"sync"
	"time"
)

// SchedulerMetrics aggregates run outcomes across all jobs.
type SchedulerMetrics struct {
	mu sync.Mutex

	executions int64
	successes  int64
	skips      int64
	busyTime   time.Duration

	perJob map[string]*JobCounters
}

// JobCounters are the per-job totals.
type JobCounters struct {
	Executions int64 `json:"executions"`
	Failures   int64 `json:"failures"`
	Skips      int64 `json:"skips"`
}

func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{perJob: make(map[string]*JobCounters)}
}

func (m *SchedulerMetrics) counters(job string) *JobCounters {
	c, ok := m.perJob[job]
	if !ok {
		c = &JobCounters{}
		m.perJob[job] = c
	}
	return c
}

// RecordExecution counts a finished run.
func (m *SchedulerMetrics) RecordExecution(job string, took time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.busyTime += took
	c := m.counters(job)
	c.Executions++
	if success {
		m.successes++
	} else {
		c.Failures++
	}
}

// RecordSkip counts a tick that did not run because of overlap or a held lock.
func (m *SchedulerMetrics) RecordSkip(job string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.skips++
	m.counters(job).Skips++
}

// MetricsSnapshot is a copy of the counters safe to serialize.
type MetricsSnapshot struct {
	TotalExecutions int64                  `json:"total_executions"`
	TotalSuccesses  int64                  `json:"total_successes"`
	TotalFailures   int64                  `json:"total_failures"`
	TotalSkips      int64                  `json:"total_skips"`
	SuccessRate     float64                `json:"success_rate"`
	AverageDuration time.Duration          `json:"average_duration"`
	Jobs            map[string]JobCounters `json:"jobs"`
}

func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.executions,
		TotalSuccesses:  m.successes,
		TotalFailures:   m.executions - m.successes,
		TotalSkips:      m.skips,
		Jobs:            make(map[string]JobCounters, len(m.perJob)),
	}
	if m.executions > 0 {
		snap.SuccessRate = float64(m.successes) / float64(m.executions)
		snap.AverageDuration = m.busyTime / time.Duration(m.executions)
	}
	for name, c := range m.perJob {
		snap.Jobs[name] = *c
	}
	return snap
}
