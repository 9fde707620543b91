package services

import (
	"context"
	"testing"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Approval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewAdminService(env.users, env.notifier, env.logger)

	alice := env.createUser(t, "alice", models.UserStatusPending)
	bob := env.createUser(t, "bob", models.UserStatusPending)
	env.createUser(t, "carol", models.UserStatusApproved)

	pending := models.UserStatusPending
	users, err := svc.ListUsers(ctx, repositories.ListUsersFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}

	approved, err := svc.ApproveUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusApproved, approved.Status)
	assert.Equal(t, 1, env.notifier.count(alice.ID, models.NotificationSystem))

	rejected, err := svc.RejectUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRejected, rejected.Status)

	_, err = svc.ApproveUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotPending)

	_, err = svc.ApproveUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, err := svc.ListUsers(ctx, repositories.ListUsersFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
