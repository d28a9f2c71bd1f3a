package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

func TestNotifyStoresAndPushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Nia", models.RoleBuyer)

	n, err := f.notifications.Notify(ctx, user.ID, models.NotificationTypeOrderStatus, "hello", nil)
	require.NoError(t, err)
	assert.False(t, n.Read)

	events := f.publisher.For(user.ID.String())
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventNewNotification, events[0].Event)
	assert.Equal(t, n.ID, events[0].Payload.(*models.Notification).ID)
}

func TestNotifyKeepsRecordWhenPushFails(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = realtime.ErrHubClosed
	user := testutil.CreateUser(t, f.db, "Nia", models.RoleBuyer)

	_, err := f.notifications.Notify(context.Background(), user.ID, models.NotificationTypeOrderStatus, "hello", nil)
	require.NoError(t, err)

	count, err := f.notifications.UnreadCount(context.Background(), user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "Nia", models.RoleBuyer)
	other := testutil.CreateUser(t, f.db, "Omar", models.RoleBuyer)

	n, err := f.notifications.Notify(ctx, owner.ID, models.NotificationTypeOrderStatus, "hello", nil)
	require.NoError(t, err)

	_, err = f.notifications.MarkRead(ctx, uuid.New(), owner.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.notifications.MarkRead(ctx, n.ID, other.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	first, err := f.notifications.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	second, err := f.notifications.MarkRead(ctx, n.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, second.Read)

	count, err := f.notifications.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListForUserAndMarkAllRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Nia", models.RoleBuyer)
	other := testutil.CreateUser(t, f.db, "Omar", models.RoleBuyer)

	for _, msg := range []string{"one", "two", "three"} {
		_, err := f.notifications.Notify(ctx, user.ID, models.NotificationTypeOrderStatus, msg, nil)
		require.NoError(t, err)
	}
	_, err := f.notifications.Notify(ctx, other.ID, models.NotificationTypeOrderStatus, "elsewhere", nil)
	require.NoError(t, err)

	all, total, err := f.notifications.ListForUser(ctx, user.ID, NotificationListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	_, err = f.notifications.MarkRead(ctx, all[0].ID, user.ID)
	require.NoError(t, err)

	unread, total, err := f.notifications.ListForUser(ctx, user.ID, NotificationListParams{UnreadOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, unread, 2)

	page, total, err := f.notifications.ListForUser(ctx, user.ID, NotificationListParams{
		PaginationParams: utils.PaginationParams{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)

	changed, err := f.notifications.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	count, err := f.notifications.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.notifications.UnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
