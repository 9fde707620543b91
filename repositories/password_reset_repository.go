package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrPasswordResetNotFound = errors.New("password reset code not found")
	ErrPasswordResetUsed     = errors.New("password reset code already used")
)

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetLatestUnused(ctx context.Context, userID uuid.UUID) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error
}

type passwordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepository(db *sqlx.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if reset.ID == uuid.Nil {
		reset.ID = uuid.New()
	}
	reset.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO password_resets (id, user_id, code, expires_at, used_at, created_at)
		VALUES (:id, :user_id, :code, :expires_at, :used_at, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, reset)
	return err
}

func (r *passwordResetRepository) GetLatestUnused(ctx context.Context, userID uuid.UUID) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	query := r.db.Rebind(`
		SELECT id, user_id, code, expires_at, used_at, created_at
		FROM password_resets
		WHERE user_id = ? AND used_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`)
	if err := r.db.GetContext(ctx, &reset, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPasswordResetNotFound
		}
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, exec SQLExecutor, id uuid.UUID, at time.Time) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	query := executor.Rebind(`UPDATE password_resets SET used_at = ? WHERE id = ? AND used_at IS NULL`)
	result, err := executor.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPasswordResetUsed)
}
