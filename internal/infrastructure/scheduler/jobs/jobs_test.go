package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/application/notify"
	"github.com/islandscholars/placement-hub/internal/application/suggestion"
	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/sqlite"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

// recordingSender remembers what was sent and can fail on demand.
type recordingSender struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

type sent struct {
	userID  string
	content notification.Content
}

func (s *recordingSender) Send(_ context.Context, userID string, c notification.Content) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	s.sent = append(s.sent, sent{userID: userID, content: c})
	return &notification.Notification{UserID: notification.RecipientID(userID), Title: c.Title}, nil
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.userID
	}
	return out
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateAll(context.Context) error {
	c.calls++
	return nil
}

func openFixtures(t *testing.T) *sqlite.DB {
	t.Helper()
	return testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now))
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE INTERNSHIPS
// ══════════════════════════════════════════════════════════════════════════════

func TestExpireInternshipsJob(t *testing.T) {
	db := openFixtures(t)
	repos := db.Repositories()
	inv := &countingInvalidator{}
	ctx := context.Background()

	job := NewExpireInternshipsJob(repos.Internships, inv, logger.Discard(), ExpireInternshipsConfig{
		Clock: timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(ctx))

	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.Equal(t, 6, stats.InternshipsChecked)
	assert.Equal(t, 1, stats.InternshipsExpired)
	assert.Equal(t, 1, inv.calls)

	past, err := repos.Internships.GetByID(ctx, testutil.InternshipPast)
	require.NoError(t, err)
	assert.Equal(t, placement.InternshipExpired, past.Status)

	// The expired posting no longer shows up in suggestions.
	engine := suggestion.NewEngine(repos, suggestion.Config{Clock: timeutil.Fixed(testutil.Now)}, logger.Discard())
	got, err := engine.Suggest(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	for _, in := range got {
		assert.NotEqual(t, testutil.InternshipPast, in.ID)
	}

	// A second run has nothing to expire and leaves the cache alone.
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 0, job.LastRunStats().InternshipsExpired)
	assert.Equal(t, 1, inv.calls)
}

func TestExpireInternshipsJob_MidnightBoundary(t *testing.T) {
	f := &sqlite.Fixtures{
		Internships: []sqlite.FixtureInternship{
			{ID: "today", OrganizationID: "o", Title: "Today", StartDate: timeutil.FormatDate(testutil.Now, time.UTC)},
			{ID: "bad", OrganizationID: "o", Title: "Bad", StartDate: "next week"},
		},
	}
	db := testutil.OpenStore(t, f)
	repos := db.Repositories()
	ctx := context.Background()

	// The evening before, the start date has not passed yet.
	early := NewExpireInternshipsJob(repos.Internships, nil, logger.Discard(), ExpireInternshipsConfig{
		Clock: timeutil.Fixed(time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, early.Run(ctx))
	assert.Zero(t, early.LastRunStats().InternshipsExpired)
	assert.Equal(t, 1, early.LastRunStats().InvalidStartDates)

	// Midnight of the start date is already behind a 09:00 clock.
	job := NewExpireInternshipsJob(repos.Internships, nil, logger.Discard(), ExpireInternshipsConfig{
		Clock: timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 1, job.LastRunStats().InternshipsExpired)

	bad, err := repos.Internships.GetByID(ctx, "bad")
	require.NoError(t, err)
	assert.True(t, bad.IsActive())
}

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE REMINDER
// ══════════════════════════════════════════════════════════════════════════════

func TestDeadlineReminderJob(t *testing.T) {
	db := openFixtures(t)
	sender := &recordingSender{}
	ctx := context.Background()

	job := NewDeadlineReminderJob(db.Repositories(), db.Notifications(), sender, logger.Discard(), DeadlineReminderConfig{
		Clock: timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(ctx))

	stats := job.LastRunStats()
	assert.Equal(t, 2, stats.InternshipsDue)
	assert.Equal(t, 4, stats.RemindersSent)
	assert.ElementsMatch(t,
		[]string{testutil.UserAlice, testutil.UserBob, testutil.UserAlice, testutil.UserBob},
		sender.recipients())

	first := sender.sent[0].content
	assert.Equal(t, "Application Deadline Approaching", first.Title)
	assert.Equal(t, "The application deadline for 'Software Engineer Intern' is in 3 days. Don't miss out!", first.Message)
	assert.Equal(t, notification.NotificationTypeDeadlineReminder, first.Type)

	// The ledger keeps a second run the same day from repeating reminders.
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 0, job.LastRunStats().RemindersSent)
	assert.Equal(t, 4, job.LastRunStats().AlreadyReminded)
	assert.Len(t, sender.sent, 4)
}

type memoryLedger struct {
	records []notification.DeadlineReminder
}

func (l *memoryLedger) Record(_ context.Context, r notification.DeadlineReminder) (bool, error) {
	l.records = append(l.records, r)
	return true, nil
}

func (l *memoryLedger) Forget(context.Context, notification.DeadlineReminder) error { return nil }

func TestDeadlineReminderJob_LedgerUsesClock(t *testing.T) {
	db := openFixtures(t)
	ledger := &memoryLedger{}

	job := NewDeadlineReminderJob(db.Repositories(), ledger, &recordingSender{}, logger.Discard(), DeadlineReminderConfig{
		Clock: timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, ledger.records, 4)
	for _, r := range ledger.records {
		assert.True(t, r.SentAt.Equal(testutil.Now), "sent at %s", r.SentAt)
	}
}

func TestDeadlineReminderJob_SkipsApplicants(t *testing.T) {
	f := testutil.PlacementFixtures(testutil.Now)
	f.Applications = append(f.Applications, sqlite.FixtureApplication{
		ID: "app-alice-se", StudentID: testutil.StudentAlice, InternshipID: testutil.InternshipSE, AppliedAt: testutil.Now,
	})
	db := testutil.OpenStore(t, f)
	sender := &recordingSender{}

	job := NewDeadlineReminderJob(db.Repositories(), nil, sender, logger.Discard(), DeadlineReminderConfig{
		ReminderDays: []int{3},
		Clock:        timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{testutil.UserBob}, sender.recipients())
}

func TestDeadlineReminderJob_FailedSendIsRetried(t *testing.T) {
	db := openFixtures(t)
	sender := &recordingSender{fail: true}
	ctx := context.Background()

	job := NewDeadlineReminderJob(db.Repositories(), db.Notifications(), sender, logger.Discard(), DeadlineReminderConfig{
		Clock: timeutil.Fixed(testutil.Now),
	})
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 4, job.LastRunStats().Failures)

	sender.fail = false
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 4, job.LastRunStats().RemindersSent)
}

func TestDeadlineReminderJob_CalendarDaysInZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2025-03-10 20:00 UTC is already 2025-03-11 in Tokyo.
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

	f := &sqlite.Fixtures{
		Users:       []sqlite.FixtureUser{{ID: "u1", Email: "a@x.example"}},
		Students:    []sqlite.FixtureStudent{{ID: "s1", UserID: "u1"}},
		Internships: []sqlite.FixtureInternship{{ID: "in", OrganizationID: "o", Title: "T", StartDate: "2025-03-14"}},
	}
	db := testutil.OpenStore(t, f)

	utc := &recordingSender{}
	require.NoError(t, NewDeadlineReminderJob(db.Repositories(), nil, utc, logger.Discard(), DeadlineReminderConfig{
		ReminderDays: []int{3}, Clock: timeutil.Fixed(now), Location: time.UTC,
	}).Run(context.Background()))
	assert.Empty(t, utc.sent)

	jst := &recordingSender{}
	require.NoError(t, NewDeadlineReminderJob(db.Repositories(), nil, jst, logger.Discard(), DeadlineReminderConfig{
		ReminderDays: []int{3}, Clock: timeutil.Fixed(now), Location: tokyo,
	}).Run(context.Background()))
	assert.Len(t, jst.sent, 1)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT REMINDER
// ══════════════════════════════════════════════════════════════════════════════

func TestDocumentReminderJob(t *testing.T) {
	db := openFixtures(t)
	dispatcher := notify.NewDispatcher(db.Notifications(), logger.Discard())
	ctx := context.Background()

	job := NewDocumentReminderJob(db.Repositories(), dispatcher, logger.Discard(), time.Minute)
	require.NoError(t, job.Run(ctx))

	stats := job.LastRunStats()
	assert.Equal(t, 2, stats.StudentsChecked)
	assert.Equal(t, 1, stats.StudentsAccepted)
	assert.Equal(t, 1, stats.RemindersSent)

	inbox, err := dispatcher.ListForUser(ctx, testutil.UserBob, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Documents Required", inbox[0].Title)
	assert.Equal(t, "Please upload the following required documents: University Introduction Letter", inbox[0].Message)

	alice, err := dispatcher.ListForUser(ctx, testutil.UserAlice, false)
	require.NoError(t, err)
	assert.Empty(t, alice)
}

func TestDocumentReminderJob_ListsBothMissing(t *testing.T) {
	f := testutil.PlacementFixtures(testutil.Now)
	f.Documents = nil
	db := testutil.OpenStore(t, f)
	sender := &recordingSender{}

	require.NoError(t, NewDocumentReminderJob(db.Repositories(), sender, logger.Discard(), 0).Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t,
		"Please upload the following required documents: CV/Resume, University Introduction Letter",
		sender.sent[0].content.Message)
}
