package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/domain/notification"
	"github.com/islandscholars/placement-hub/internal/domain/shared"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	db := testutil.OpenStore(t, nil)

	seq := 0
	clock := testutil.Now
	return NewDispatcher(db.Notifications(), logger.Discard(),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("n-%d", seq)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
}

func TestDispatch_CreatesUnreadNotification(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	n, err := d.Dispatch(ctx, "u-1", "Hello", "World", notification.NotificationTypeNewApplication)
	require.NoError(t, err)
	assert.Equal(t, notification.NotificationID("n-1"), n.ID)
	assert.False(t, n.IsRead)

	list, err := d.ListForUser(ctx, "u-1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hello", list[0].Title)
	assert.Equal(t, "World", list[0].Message)
	assert.Equal(t, notification.NotificationTypeNewApplication, list[0].Type)
}

func TestDispatch_Validation(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "", "Title", "", notification.NotificationTypeDocumentReminder)
	assert.True(t, errors.Is(err, shared.ErrEmptyRecipient))

	_, err = d.Dispatch(ctx, "u-1", "  ", "", notification.NotificationTypeDocumentReminder)
	assert.True(t, shared.IsValidation(err))
}

func TestListForUser_NewestFirstAndUnreadFilter(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := d.Send(ctx, "u-1", notification.Content{Title: title, Type: notification.NotificationTypeDeadlineReminder})
		require.NoError(t, err)
	}
	_, err := d.Send(ctx, "u-2", notification.Content{Title: "other", Type: notification.NotificationTypeDeadlineReminder})
	require.NoError(t, err)

	list, err := d.ListForUser(ctx, "u-1", false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "first", list[2].Title)

	require.NoError(t, d.MarkRead(ctx, "u-1", string(list[0].ID)))

	unread, err := d.ListForUser(ctx, "u-1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)
}

func TestMarkRead_OwnerOnly(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	n, err := d.Dispatch(ctx, "u-1", "mine", "", notification.NotificationTypeSupervisorAssignment)
	require.NoError(t, err)

	err = d.MarkRead(ctx, "u-2", string(n.ID))
	assert.True(t, errors.Is(err, shared.ErrNotificationNotFound))

	err = d.MarkRead(ctx, "u-1", "missing")
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, d.MarkRead(ctx, "u-1", string(n.ID)))
	// Idempotent.
	require.NoError(t, d.MarkRead(ctx, "u-1", string(n.ID)))
}

func TestMarkAllRead(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := d.Dispatch(ctx, "u-1", "t", "", notification.NotificationTypeDocumentReminder)
		require.NoError(t, err)
	}

	n, err := d.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = d.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
