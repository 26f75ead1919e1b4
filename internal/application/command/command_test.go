package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/domain/placement"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
)

type recordingPublisher struct {
	events []shared.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event shared.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func TestReviewApplication(t *testing.T) {
	repos := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now)).Repositories()
	pub := &recordingPublisher{}
	h := NewReviewApplicationHandler(repos.Applications, pub, logger.Discard())
	h.now = func() time.Time { return testutil.Now }
	ctx := context.Background()

	res, err := h.Handle(ctx, ReviewApplicationCommand{
		ApplicationID: testutil.AppAlicePending,
		Status:        "Accepted",
		CorrelationID: "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, placement.ApplicationAccepted, res.Status)
	assert.True(t, res.Published)

	app, err := repos.Applications.GetByID(ctx, testutil.AppAlicePending)
	require.NoError(t, err)
	assert.Equal(t, placement.ApplicationAccepted, app.Status)
	require.NotNil(t, app.ReviewedAt)
	assert.True(t, testutil.Now.Equal(*app.ReviewedAt))

	require.Len(t, pub.events, 1)
	event, ok := pub.events[0].(shared.ApplicationStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "accepted", event.NewStatus)
	assert.Equal(t, "req-1", event.CorrelationID())
}

func TestReviewApplication_Validation(t *testing.T) {
	pub := &recordingPublisher{}
	repos := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now)).Repositories()
	h := NewReviewApplicationHandler(repos.Applications, pub, logger.Discard())
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  ReviewApplicationCommand
		want error
	}{
		{"missing id", ReviewApplicationCommand{Status: "accepted"}, shared.ErrInvalidInput},
		{"pending is not a decision", ReviewApplicationCommand{ApplicationID: "a", Status: "pending"}, shared.ErrInvalidInput},
		{"unknown status", ReviewApplicationCommand{ApplicationID: "a", Status: "maybe"}, shared.ErrInvalidStatus},
		{"unknown application", ReviewApplicationCommand{ApplicationID: "missing", Status: "rejected"}, shared.ErrApplicationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, pub.events)
}

func TestReviewApplication_PublishFailureKeepsDecision(t *testing.T) {
	repos := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now)).Repositories()
	pub := &recordingPublisher{err: errors.New("handler failed")}
	h := NewReviewApplicationHandler(repos.Applications, pub, logger.Discard())
	ctx := context.Background()

	res, err := h.Handle(ctx, ReviewApplicationCommand{ApplicationID: testutil.AppAlicePending, Status: "rejected"})
	require.NoError(t, err)
	assert.False(t, res.Published)

	app, err := repos.Applications.GetByID(ctx, testutil.AppAlicePending)
	require.NoError(t, err)
	assert.Equal(t, placement.ApplicationRejected, app.Status)
}

func TestAssignSupervisor(t *testing.T) {
	repos := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now)).Repositories()
	pub := &recordingPublisher{}
	h := NewAssignSupervisorHandler(repos, pub, logger.Discard())
	ctx := context.Background()

	ok, err := h.Handle(ctx, AssignSupervisorCommand{StudentID: testutil.StudentAlice, SupervisorID: testutil.Supervisor})
	require.NoError(t, err)
	assert.True(t, ok)

	st, err := repos.Students.GetByID(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	assert.Equal(t, testutil.Supervisor, st.SupervisorID)

	require.Len(t, pub.events, 1)
	event, isAssigned := pub.events[0].(shared.SupervisorAssignedEvent)
	require.True(t, isAssigned)
	assert.Equal(t, testutil.StudentAlice, event.AggregateID())
}

func TestAssignSupervisor_Errors(t *testing.T) {
	repos := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now)).Repositories()
	pub := &recordingPublisher{}
	h := NewAssignSupervisorHandler(repos, pub, logger.Discard())
	ctx := context.Background()

	_, err := h.Handle(ctx, AssignSupervisorCommand{StudentID: testutil.StudentAlice})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = h.Handle(ctx, AssignSupervisorCommand{StudentID: testutil.StudentAlice, SupervisorID: "sup-none"})
	assert.ErrorIs(t, err, shared.ErrSupervisorNotFound)

	_, err = h.Handle(ctx, AssignSupervisorCommand{StudentID: "st-none", SupervisorID: testutil.Supervisor})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	assert.Empty(t, pub.events)

	pub.err = errors.New("handler failed")
	ok, err := h.Handle(ctx, AssignSupervisorCommand{StudentID: testutil.StudentBob, SupervisorID: testutil.Supervisor})
	require.NoError(t, err)
	assert.False(t, ok)
}
