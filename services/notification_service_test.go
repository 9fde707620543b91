package services

import (
	"context"
	"testing"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewNotificationService(env.notificationRepo, env.logger)

	u := env.createUser(t, "reader", models.UserStatusApproved)
	other := env.createUser(t, "other", models.UserStatusApproved)

	svc.Notify(ctx, u.ID, models.NotificationSystem, "Hello", "first", nil)
	svc.Notify(ctx, u.ID, models.NotificationMatchAssigned, "Match", "second", matchLink(uuid.New()))
	svc.Notify(ctx, other.ID, models.NotificationSystem, "Hi", "not yours", nil)
	// unknown user: logged, never returned
	svc.Notify(ctx, uuid.New(), models.NotificationSystem, "Lost", "dropped", nil)

	list, err := svc.List(ctx, u.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	count, err := svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.ErrorIs(t, svc.MarkRead(ctx, list[0].ID, other.ID), ErrNotificationNotFound)
	require.NoError(t, svc.MarkRead(ctx, list[0].ID, u.ID))

	count, err = svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := svc.List(ctx, u.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestNotificationDispatcher(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifications := NewNotificationService(env.notificationRepo, env.logger)
	mailer := &recordingMailer{}
	dispatcher := NewNotificationDispatcher(env.notificationRepo, NewEmailService(mailer, "eFootball Cup", "https://cup.test"), env.logger)

	u := env.createUser(t, "mailme", models.UserStatusApproved)
	notifications.Notify(ctx, u.ID, models.NotificationTournamentUpdate, "Bracket Generated", "Check your dashboard.", dashboardLink())
	notifications.Notify(ctx, u.ID, models.NotificationSystem, "Account Approved", "Welcome.", nil)

	sent, err := dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "mailme@example.com", mailer.sent[0].To)

	sent, err = dispatcher.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
