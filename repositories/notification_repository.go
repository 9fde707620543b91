package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationColumns = `id, user_id, type, title, message, link, read, emailed_at, created_at`

type NotificationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	ListUnsent(ctx context.Context, limit int) ([]models.PendingEmail, error)
	MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *notificationRepository) Create(ctx context.Context, exec SQLExecutor, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :type, :title, :message, :link, :read, :emailed_at, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), query, n)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	builder := sq.Select(notificationColumns).
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	if unreadOnly {
		builder = builder.Where(sq.Eq{"read": false})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notifications query: %w", err)
	}

	notifications := []models.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = ?`)
	if err := r.db.GetContext(ctx, &count, query, userID, false); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := r.db.Rebind(`UPDATE notifications SET read = ? WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, true, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *notificationRepository) ListUnsent(ctx context.Context, limit int) ([]models.PendingEmail, error) {
	builder := sq.Select(
		"n.id", "n.user_id", "n.type", "n.title", "n.message", "n.link", "n.read", "n.emailed_at", "n.created_at",
		"u.email", "u.full_name").
		From("notifications n").
		Join("users u ON u.id = n.user_id").
		Where(sq.Eq{"n.emailed_at": nil}).
		OrderBy("n.created_at")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build unsent notifications query: %w", err)
	}

	pending := []models.PendingEmail{}
	if err := r.db.SelectContext(ctx, &pending, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *notificationRepository) MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.db.Rebind(`UPDATE notifications SET emailed_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}
