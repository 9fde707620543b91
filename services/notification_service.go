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
	defaultNotificationLimit = 50
	maxNotificationLimit     = 50
)

// Notifier is the fire-and-forget sink used by the bracket engine: failures
// are logged and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, message string, link *string)
}

type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
}

type notificationService struct {
	repo   repositories.NotificationRepository
	logger *slog.Logger
}

func NewNotificationService(repo repositories.NotificationRepository, logger *slog.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, message string, link *string) {
	n := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}
	// The request may already be finished by the time this runs.
	if err := s.repo.Create(context.WithoutCancel(ctx), nil, n); err != nil {
		s.logger.Error("failed to store notification",
			slog.String("user_id", userID.String()),
			slog.String("type", string(kind)),
			slog.Any("error", err))
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	limit = clampLimit(limit, defaultNotificationLimit, maxNotificationLimit)
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
