package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/efootball-cup/metrics"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/go-co-op/gocron/v2"
)

const dispatchBatchSize = 100

// NotificationDispatcher emails stored notifications that have not been
// delivered yet. Failed deliveries stay unsent and are retried next tick.
type NotificationDispatcher struct {
	repo   repositories.NotificationRepository
	email  *EmailService
	logger *slog.Logger
}

func NewNotificationDispatcher(repo repositories.NotificationRepository, email *EmailService, logger *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{repo: repo, email: email, logger: logger}
}

func (d *NotificationDispatcher) DispatchPending(ctx context.Context) (int, error) {
	pending, err := d.repo.ListUnsent(ctx, dispatchBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsent notifications: %w", err)
	}

	sent := 0
	for _, p := range pending {
		if err := d.email.SendNotification(ctx, p.Email, p.FullName, p.Notification); err != nil {
			metrics.NotificationsEmailed.WithLabelValues("error").Inc()
			d.logger.Warn("failed to email notification",
				slog.String("notification_id", p.ID.String()),
				slog.Any("error", err))
			continue
		}
		if err := d.repo.MarkEmailed(ctx, p.ID, time.Now().UTC()); err != nil {
			d.logger.Error("failed to mark notification emailed",
				slog.String("notification_id", p.ID.String()),
				slog.Any("error", err))
			continue
		}
		metrics.NotificationsEmailed.WithLabelValues("sent").Inc()
		sent++
	}
	return sent, nil
}

// Schedule registers the dispatcher on s as a singleton job running every interval.
func (d *NotificationDispatcher) Schedule(s gocron.Scheduler, interval time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			sent, err := d.DispatchPending(ctx)
			if err != nil {
				d.logger.Error("Scheduler: notification dispatch failed", slog.Any("error", err))
				return
			}
			if sent > 0 {
				d.logger.Info("Scheduler: notifications emailed", slog.Int("count", sent))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("notification-dispatcher"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule notification dispatcher: %w", err)
	}
	return nil
}
