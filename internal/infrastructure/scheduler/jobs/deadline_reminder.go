package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineReminderJob reminds students who have not applied to an active
// internship when its start date is exactly 7, 3 or 1 calendar days away.
// A ledger keyed by (internship, student, days) keeps hourly runs from
// repeating a reminder already sent that day.
type DeadlineReminderJob struct {
	internships  placement.InternshipRepository
	students     placement.StudentRepository
	applications placement.ApplicationRepository
	ledger       notification.ReminderLedger
	sender       NotificationSender
	logger       *slog.Logger

	config DeadlineReminderConfig

	lastRunStats atomic.Value // *DeadlineReminderStats
}

// DeadlineReminderConfig contains configuration for the deadline reminder job.
type DeadlineReminderConfig struct {
	// ReminderDays are the day distances that trigger a reminder.
	ReminderDays []int

	// Location defines calendar days.
	Location *time.Location

	// Clock returns "now".
	Clock timeutil.Clock

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultDeadlineReminderConfig returns sensible defaults.
func DefaultDeadlineReminderConfig() DeadlineReminderConfig {
	return DeadlineReminderConfig{
		ReminderDays: []int{7, 3, 1},
		Location:     time.UTC,
		Clock:        timeutil.SystemClock,
		Timeout:      10 * time.Minute,
	}
}

// DeadlineReminderStats contains statistics from a run.
type DeadlineReminderStats struct {
	RunStats
	InternshipsChecked int
	InternshipsDue     int
	InvalidStartDates  int
	RemindersSent      int
	AlreadyReminded    int
}

// NewDeadlineReminderJob creates a new deadline reminder job. ledger may be nil,
// in which case every run re-sends due reminders.
func NewDeadlineReminderJob(
	repos placement.Repositories,
	ledger notification.ReminderLedger,
	sender NotificationSender,
	logger *slog.Logger,
	config DeadlineReminderConfig,
) *DeadlineReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultDeadlineReminderConfig()
	if len(config.ReminderDays) == 0 {
		config.ReminderDays = defaults.ReminderDays
	}
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}

	return &DeadlineReminderJob{
		internships:  repos.Internships,
		students:     repos.Students,
		applications: repos.Applications,
		ledger:       ledger,
		sender:       sender,
		logger:       logger.With("job", "deadline_reminder"),
		config:       config,
	}
}

// Name returns the job name.
func (j *DeadlineReminderJob) Name() string {
	return "deadline_reminder"
}

// Description returns a human-readable description.
func (j *DeadlineReminderJob) Description() string {
	return "Reminds students 7, 3 and 1 days before an internship starts"
}

// Run executes the sweep.
func (j *DeadlineReminderJob) Run(ctx context.Context) error {
	stats := &DeadlineReminderStats{RunStats: RunStats{StartedAt: time.Now()}}
	defer func() {
		stats.finish()
		j.lastRunStats.Store(stats)
	}()

	ctx, cancel := withTimeout(ctx, j.config.Timeout)
	defer cancel()

	internships, err := j.internships.GetByStatus(ctx, placement.InternshipActive)
	if err != nil {
		return fmt.Errorf("list active internships: %w", err)
	}

	today := j.config.Clock()
	var students []*placement.Student

	for _, in := range internships {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.InternshipsChecked++

		start, err := in.StartsAt(j.config.Location)
		if err != nil {
			stats.InvalidStartDates++
			j.logger.Warn("skipping internship with invalid start date",
				"internship_id", in.ID,
				"start_date", in.StartDate,
				"error", err,
			)
			continue
		}

		daysLeft := timeutil.DaysBetween(today, start, j.config.Location)
		if !j.isReminderDay(daysLeft) {
			continue
		}
		stats.InternshipsDue++

		// Loaded lazily: most hourly runs have nothing due.
		if students == nil {
			students, err = j.students.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("list students: %w", err)
			}
		}

		if err := j.remindInternship(ctx, in, daysLeft, students, stats); err != nil {
			stats.fail(err)
			j.logger.Error("failed to process internship",
				"internship_id", in.ID,
				"error", err,
			)
		}
	}

	j.logger.Info("deadline_reminder job completed",
		"internships_checked", stats.InternshipsChecked,
		"internships_due", stats.InternshipsDue,
		"reminders_sent", stats.RemindersSent,
		"already_reminded", stats.AlreadyReminded,
		"invalid_dates", stats.InvalidStartDates,
		"failures", stats.Failures,
	)

	return nil
}

func (j *DeadlineReminderJob) isReminderDay(days int) bool {
	for _, d := range j.config.ReminderDays {
		if d == days {
			return true
		}
	}
	return false
}

// remindInternship sends the reminder to every student without an application to in.
func (j *DeadlineReminderJob) remindInternship(
	ctx context.Context,
	in *placement.Internship,
	daysLeft int,
	students []*placement.Student,
	stats *DeadlineReminderStats,
) error {
	apps, err := j.applications.GetByInternship(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("list applications for internship %s: %w", in.ID, err)
	}
	applied := make(map[string]bool, len(apps))
	for _, a := range apps {
		applied[a.StudentID] = true
	}

	content := notification.DeadlineReminderContent(in.Title, daysLeft)

	for _, s := range students {
		if applied[s.ID] {
			continue
		}
		if err := j.remindStudent(ctx, in, s, daysLeft, content, stats); err != nil {
			stats.fail(err)
			j.logger.Error("failed to remind student",
				"internship_id", in.ID,
				"student_id", s.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (j *DeadlineReminderJob) remindStudent(
	ctx context.Context,
	in *placement.Internship,
	s *placement.Student,
	daysLeft int,
	content notification.Content,
	stats *DeadlineReminderStats,
) error {
	record := notification.DeadlineReminder{
		InternshipID: in.ID,
		StudentID:    s.ID,
		DaysLeft:     daysLeft,
		SentAt:       j.config.Clock(),
	}

	if j.ledger != nil {
		fresh, err := j.ledger.Record(ctx, record)
		if err != nil {
			return fmt.Errorf("record reminder: %w", err)
		}
		if !fresh {
			stats.AlreadyReminded++
			return nil
		}
	}

	if _, err := j.sender.Send(ctx, s.UserID, content); err != nil {
		if j.ledger != nil {
			if ferr := j.ledger.Forget(ctx, record); ferr != nil {
				j.logger.Warn("failed to release reminder record", "student_id", s.ID, "error", ferr)
			}
		}
		return fmt.Errorf("send reminder: %w", err)
	}

	stats.RemindersSent++
	return nil
}

// LastRunStats returns statistics from the last run.
func (j *DeadlineReminderJob) LastRunStats() *DeadlineReminderStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DeadlineReminderStats)
}
