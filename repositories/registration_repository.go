package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrRegistrationConflict   = errors.New("user already registered for tournament")
	ErrRegistrationInvalidRef = errors.New("registration references a missing user or tournament")
)

const entrantSelect = `
	SELECT u.id, u.full_name AS display_name, u.efootball_id AS external_account_id,
		u.platform, r.registered_at
	FROM registrations r
	JOIN users u ON u.id = r.user_id`

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error)
	// ListApprovedEntrants returns approved registrants in registration order,
	// which is the seeding order of the bracket.
	ListApprovedEntrants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Entrant, error)
	ListEntrants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Entrant, error)
}

type registrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *registrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO registrations (id, user_id, tournament_id, registered_at)
		VALUES (:id, :user_id, :tournament_id, :registered_at)`

	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), query, reg)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, ""):
		return ErrRegistrationConflict
	case isForeignKeyViolation(err):
		return ErrRegistrationInvalidRef
	}
	return err
}

func (r *registrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := executor.Rebind(`SELECT COUNT(*) FROM registrations WHERE tournament_id = ?`)
	if err := executor.GetContext(ctx, &count, query, tournamentID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *registrationRepository) ListApprovedEntrants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Entrant, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(entrantSelect + `
		WHERE r.tournament_id = ? AND u.status = ?
		ORDER BY r.registered_at, r.id`)

	entrants := []models.Entrant{}
	if err := executor.SelectContext(ctx, &entrants, query, tournamentID, models.UserStatusApproved); err != nil {
		return nil, err
	}
	return entrants, nil
}

func (r *registrationRepository) ListEntrants(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Entrant, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(entrantSelect + `
		WHERE r.tournament_id = ?
		ORDER BY r.registered_at, r.id`)

	entrants := []models.Entrant{}
	if err := executor.SelectContext(ctx, &entrants, query, tournamentID); err != nil {
		return nil, err
	}
	return entrants, nil
}
