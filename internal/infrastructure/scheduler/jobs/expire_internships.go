package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE INTERNSHIPS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireInternshipsJob moves active internships whose start date has passed
// to the expired state. It sends no notifications.
type ExpireInternshipsJob struct {
	internships placement.InternshipRepository
	invalidator SuggestionInvalidator
	logger      *slog.Logger

	location *time.Location
	clock    timeutil.Clock
	timeout  time.Duration

	lastRunStats atomic.Value // *ExpireInternshipsStats
}

// ExpireInternshipsStats contains statistics from a run.
type ExpireInternshipsStats struct {
	RunStats
	InternshipsChecked int
	InternshipsExpired int
	InvalidStartDates  int
}

// ExpireInternshipsConfig contains configuration for the expiration job.
type ExpireInternshipsConfig struct {
	Location *time.Location
	Clock    timeutil.Clock
	Timeout  time.Duration
}

// NewExpireInternshipsJob creates a new expiration job. invalidator may be nil.
func NewExpireInternshipsJob(
	internships placement.InternshipRepository,
	invalidator SuggestionInvalidator,
	logger *slog.Logger,
	config ExpireInternshipsConfig,
) *ExpireInternshipsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = timeutil.SystemClock
	}
	return &ExpireInternshipsJob{
		internships: internships,
		invalidator: invalidator,
		logger:      logger.With("job", "expire_internships"),
		location:    config.Location,
		clock:       config.Clock,
		timeout:     config.Timeout,
	}
}

// Name returns the job name.
func (j *ExpireInternshipsJob) Name() string {
	return "expire_internships"
}

// Description returns a human-readable description.
func (j *ExpireInternshipsJob) Description() string {
	return "Marks active internships whose start date has passed as expired"
}

// Run executes the sweep.
func (j *ExpireInternshipsJob) Run(ctx context.Context) error {
	stats := &ExpireInternshipsStats{RunStats: RunStats{StartedAt: time.Now()}}
	defer func() {
		stats.finish()
		j.lastRunStats.Store(stats)
	}()

	ctx, cancel := withTimeout(ctx, j.timeout)
	defer cancel()

	internships, err := j.internships.GetByStatus(ctx, placement.InternshipActive)
	if err != nil {
		return fmt.Errorf("list active internships: %w", err)
	}

	now := j.clock()

	for _, in := range internships {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.InternshipsChecked++

		start, err := in.StartsAt(j.location)
		if err != nil {
			stats.InvalidStartDates++
			j.logger.Warn("skipping internship with invalid start date",
				"internship_id", in.ID,
				"start_date", in.StartDate,
			)
			continue
		}
		if !start.Before(now) {
			continue
		}

		if err := j.internships.UpdateStatus(ctx, in.ID, placement.InternshipExpired); err != nil {
			stats.fail(err)
			j.logger.Error("failed to expire internship",
				"internship_id", in.ID,
				"error", err,
			)
			continue
		}
		in.Expire()
		stats.InternshipsExpired++
	}

	if stats.InternshipsExpired > 0 && j.invalidator != nil {
		if err := j.invalidator.InvalidateAll(ctx); err != nil {
			j.logger.Warn("failed to invalidate suggestion cache", "error", err)
		}
	}

	j.logger.Info("expire_internships job completed",
		"internships_checked", stats.InternshipsChecked,
		"internships_expired", stats.InternshipsExpired,
		"failures", stats.Failures,
	)

	return nil
}

// LastRunStats returns statistics from the last run.
func (j *ExpireInternshipsJob) LastRunStats() *ExpireInternshipsStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ExpireInternshipsStats)
}
