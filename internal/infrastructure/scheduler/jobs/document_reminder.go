package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// DocumentReminderJob asks students with an accepted application to upload
// their missing CV and university introduction letter.
type DocumentReminderJob struct {
	students     placement.StudentRepository
	applications placement.ApplicationRepository
	documents    placement.DocumentRepository
	sender       NotificationSender
	logger       *slog.Logger

	timeout time.Duration

	lastRunStats atomic.Value // *DocumentReminderStats
}

// DocumentReminderStats contains statistics from a run.
type DocumentReminderStats struct {
	RunStats
	StudentsChecked  int
	StudentsAccepted int
	RemindersSent    int
}

// NewDocumentReminderJob creates a new document reminder job.
func NewDocumentReminderJob(repos placement.Repositories, sender NotificationSender, logger *slog.Logger, timeout time.Duration) *DocumentReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentReminderJob{
		students:     repos.Students,
		applications: repos.Applications,
		documents:    repos.Documents,
		sender:       sender,
		logger:       logger.With("job", "document_reminder"),
		timeout:      timeout,
	}
}

// Name returns the job name.
func (j *DocumentReminderJob) Name() string {
	return "document_reminder"
}

// Description returns a human-readable description.
func (j *DocumentReminderJob) Description() string {
	return "Reminds accepted students to upload missing required documents"
}

// Run executes the sweep.
func (j *DocumentReminderJob) Run(ctx context.Context) error {
	stats := &DocumentReminderStats{RunStats: RunStats{StartedAt: time.Now()}}
	defer func() {
		stats.finish()
		j.lastRunStats.Store(stats)
	}()

	ctx, cancel := withTimeout(ctx, j.timeout)
	defer cancel()

	students, err := j.students.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.StudentsChecked++

		if err := j.checkStudent(ctx, s, stats); err != nil {
			stats.fail(err)
			j.logger.Error("failed to check student documents",
				"student_id", s.ID,
				"error", err,
			)
		}
	}

	j.logger.Info("document_reminder job completed",
		"students_checked", stats.StudentsChecked,
		"students_accepted", stats.StudentsAccepted,
		"reminders_sent", stats.RemindersSent,
		"failures", stats.Failures,
	)

	return nil
}

func (j *DocumentReminderJob) checkStudent(ctx context.Context, s *placement.Student, stats *DocumentReminderStats) error {
	apps, err := j.applications.GetByStudent(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("list applications: %w", err)
	}
	accepted := false
	for _, a := range apps {
		if a.IsAccepted() {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil
	}
	stats.StudentsAccepted++

	docs, err := j.documents.GetByStudent(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	missing := placement.MissingDocuments(docs)
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, len(missing))
	for i, t := range missing {
		names[i] = t.DisplayName()
	}

	if _, err := j.sender.Send(ctx, s.UserID, notification.DocumentReminderContent(names)); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	stats.RemindersSent++
	return nil
}

// LastRunStats returns statistics from the last run.
func (j *DocumentReminderJob) LastRunStats() *DocumentReminderStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DocumentReminderStats)
}
