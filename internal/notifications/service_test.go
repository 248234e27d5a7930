package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mye-app/mye-backend/internal/logger"
)

func TestDispatchPersistsAndFansOut(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	push := NewMockPushService()
	rt := &recordingRealtime{}
	pub := &recordingPublisher{}
	svc := NewService(repo, logger.Discard(), WithPush(push), WithRealtime(rt), WithPublisher(pub))

	_, err := svc.RegisterPushToken(ctx, 2, &RegisterPushTokenRequest{Platform: PlatformAndroid, Token: "tok-2", DeviceID: "pixel"})
	require.NoError(t, err)

	ev, err := MatchEvent(2, 1, "Ama", 10, 85)
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(ctx, ev))

	resp, err := svc.GetNotifications(ctx, 2, 20, 0, false)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	n := resp.Notifications[0]
	assert.Equal(t, TypeMatch, n.Type)
	assert.Equal(t, "New match!", n.Title)
	assert.Equal(t, "You matched with Ama (Score: 85%)", n.Body)
	assert.Equal(t, 1, resp.UnreadCount)

	sent := push.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"tok-2"}, sent[0].Tokens)
	assert.Equal(t, "85", sent[0].Data["compatibility_score"])
	assert.Equal(t, "10", sent[0].Data["match_id"])
	assert.Equal(t, "match", sent[0].Data["type"])
	assert.Equal(t, "1", sent[0].Data["notification_id"])

	assert.Len(t, rt.sent[2], 1)
	assert.Len(t, pub.published, 1)
}

func TestDispatchWithoutTokensSkipsPush(t *testing.T) {
	push := NewMockPushService()
	svc := NewService(newMemoryRepo(), logger.Discard(), WithPush(push))

	ev, err := LikeReceivedEvent(3, 1, "Ama")
	require.NoError(t, err)
	require.NoError(t, svc.Dispatch(context.Background(), ev))
	assert.Empty(t, push.Sent())
}

func TestDispatchErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid type", func(t *testing.T) {
		svc := NewService(newMemoryRepo(), logger.Discard())
		err := svc.Dispatch(ctx, Event{RecipientID: 1, Type: "poke"})
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.createErr = errBoom
		svc := NewService(repo, logger.Discard())
		ev, _ := LikeReceivedEvent(2, 1, "Ama")
		assert.ErrorIs(t, svc.Dispatch(ctx, ev), ErrDeliveryFailed)
	})

	t.Run("push failure after store", func(t *testing.T) {
		repo := newMemoryRepo()
		push := NewMockPushService()
		push.Err = errBoom
		svc := NewService(repo, logger.Discard(), WithPush(push))
		_, err := svc.RegisterPushToken(ctx, 2, &RegisterPushTokenRequest{Platform: PlatformIOS, Token: "t", DeviceID: "d"})
		require.NoError(t, err)

		ev, _ := LikeReceivedEvent(2, 1, "Ama")
		assert.ErrorIs(t, svc.Dispatch(ctx, ev), ErrDeliveryFailed)

		count, err := repo.GetUserNotificationCount(ctx, 2, false)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("publisher failure is swallowed", func(t *testing.T) {
		svc := NewService(newMemoryRepo(), logger.Discard(), WithPublisher(&recordingPublisher{err: errBoom}))
		ev, _ := LikeReceivedEvent(2, 1, "Ama")
		assert.NoError(t, svc.Dispatch(ctx, ev))
	})
}

func TestDispatchDeactivatesInvalidTokens(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, logger.Discard(), WithPush(&invalidatingPush{bad: "stale"}))

	for _, tok := range []string{"stale", "fresh"} {
		_, err := svc.RegisterPushToken(ctx, 2, &RegisterPushTokenRequest{Platform: PlatformAndroid, Token: tok, DeviceID: tok})
		require.NoError(t, err)
	}

	ev, _ := LikeReceivedEvent(2, 1, "Ama")
	require.NoError(t, svc.Dispatch(ctx, ev))
	assert.Equal(t, []string{"stale"}, repo.deactivated)

	tokens, err := repo.GetUserPushTokens(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "fresh", tokens[0].Token)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, logger.Discard())

	for i := int64(1); i <= 3; i++ {
		ev, _ := LikeReceivedEvent(5, i, "liker")
		require.NoError(t, svc.Dispatch(ctx, ev))
	}

	page, err := svc.GetNotifications(ctx, 5, 2, 0, false)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, int64(3), page.Notifications[0].ID)

	require.NoError(t, svc.MarkAsRead(ctx, 3, 5))
	assert.ErrorIs(t, svc.MarkAsRead(ctx, 3, 6), ErrNotificationNotFound)

	unread, err := svc.GetNotifications(ctx, 5, 20, 0, true)
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)
	assert.Equal(t, 2, unread.UnreadCount)

	n, err := svc.MarkAllAsRead(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, svc.DeleteNotification(ctx, 1, 5))
	assert.ErrorIs(t, svc.DeleteNotification(ctx, 1, 5), ErrNotificationNotFound)

	deleted, err := svc.CleanupOldNotifications(ctx, -time.Hour)
	assert.Error(t, err)
	assert.Zero(t, deleted)
}

func TestCleanupOldNotifications(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, logger.Discard())

	ev, _ := LikeReceivedEvent(5, 1, "liker")
	require.NoError(t, svc.Dispatch(ctx, ev))
	require.NoError(t, svc.Dispatch(ctx, ev))
	require.NoError(t, svc.MarkAsRead(ctx, 1, 5))

	// Everything is younger than an hour, so nothing goes.
	n, err := svc.CleanupOldNotifications(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	repo.notifications[0].CreatedAt = time.Now().Add(-48 * time.Hour)
	repo.notifications[1].CreatedAt = time.Now().Add(-48 * time.Hour)
	n, err = svc.CleanupOldNotifications(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.GetUserNotificationCount(ctx, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 1, left)
}
