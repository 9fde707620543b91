package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserEmailConflict       = errors.New("user email conflict")
	ErrUserEFootballIDConflict = errors.New("user efootball id conflict")
)

const userColumns = `id, email, password_hash, full_name, phone, efootball_id, platform, role, status, created_at, updated_at`

type ListUsersFilter struct {
	Status *models.UserStatus
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]models.User, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.UserStatus) error
	UpdatePassword(ctx context.Context, exec SQLExecutor, id uuid.UUID, passwordHash string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *userRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :email, :password_hash, :full_name, :phone, :efootball_id, :platform, :role, :status, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), query, user)
	return r.handleUserError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		return nil, r.handleUserError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		return nil, r.handleUserError(err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, filter ListUsersFilter) ([]models.User, error) {
	builder := sq.Select(userColumns).From("users").OrderBy("created_at DESC")
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.UserStatus) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, exec SQLExecutor, id uuid.UUID, passwordHash string) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *userRepository) handleUserError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrUserNotFound
	case isUniqueViolation(err, "email"):
		return ErrUserEmailConflict
	case isUniqueViolation(err, "efootball_id"):
		return ErrUserEFootballIDConflict
	}
	return err
}
