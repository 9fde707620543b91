package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/google/uuid"
)

const (
	defaultUserListLimit = 50
	maxUserListLimit     = 200
)

type AdminService interface {
	ListUsers(ctx context.Context, filter repositories.ListUsersFilter) ([]models.User, error)
	ApproveUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	RejectUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type adminService struct {
	userRepo repositories.UserRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewAdminService(userRepo repositories.UserRepository, notifier Notifier, logger *slog.Logger) AdminService {
	return &adminService{userRepo: userRepo, notifier: notifier, logger: logger}
}

func (s *adminService) ListUsers(ctx context.Context, filter repositories.ListUsersFilter) ([]models.User, error) {
	filter.Limit = clampLimit(filter.Limit, defaultUserListLimit, maxUserListLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) ApproveUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.decide(ctx, userID, models.UserStatusApproved)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, user.ID, models.NotificationSystem,
		"Account Approved",
		"Your registration has been approved! You can now participate in the tournament.",
		dashboardLink())
	return user, nil
}

func (s *adminService) RejectUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.decide(ctx, userID, models.UserStatusRejected)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, user.ID, models.NotificationSystem,
		"Registration Rejected",
		"Your registration has been rejected. Contact the organisers if you think this is a mistake.",
		nil)
	return user, nil
}

// decide moves a pending account to status. Decided accounts are left alone.
func (s *adminService) decide(ctx context.Context, userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != models.UserStatusPending {
		return nil, ErrUserNotPending
	}
	if err := s.userRepo.UpdateStatus(ctx, nil, userID, status); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	s.logger.Info("user status changed", slog.String("user_id", userID.String()), slog.String("status", string(status)))
	user.Status = status
	user.PasswordHash = ""
	return user, nil
}
