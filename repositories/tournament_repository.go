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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentSlugConflict   = errors.New("tournament slug conflict")
	ErrTournamentStatusConflict = errors.New("tournament is not in the expected status")
)

const tournamentColumns = `id, name, slug, format, start_date, end_date, registration_deadline,
	max_players, status, total_rounds, champion_id, created_at`

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	// GetByIDForUpdate is GetByID that also locks the row until exec's
	// transaction ends. Registrations use it to serialise the capacity check.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// TransitionStatus moves the tournament from one status to another and
	// fails with ErrTournamentStatusConflict if it is no longer in from.
	TransitionStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error
	SetTotalRounds(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int) error
	Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, championID uuid.UUID) error
}

type tournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &tournamentRepository{db: db}
}

func (r *tournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *tournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO tournaments (` + tournamentColumns + `)
		VALUES (:id, :name, :slug, :format, :start_date, :end_date, :registration_deadline,
			:max_players, :status, :total_rounds, :champion_id, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, t)
	return r.handleTournamentError(err)
}

func (r *tournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	var t models.Tournament
	query := executor.Rebind(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ?`)
	if err := executor.GetContext(ctx, &t, query, id); err != nil {
		return nil, r.handleTournamentError(err)
	}
	return &t, nil
}

func (r *tournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	var t models.Tournament
	query := executor.Rebind(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ?` + forUpdate(executor))
	if err := executor.GetContext(ctx, &t, query, id); err != nil {
		return nil, r.handleTournamentError(err)
	}
	return &t, nil
}

func (r *tournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	builder := sq.Select(tournamentColumns).From("tournaments").OrderBy("start_date DESC", "created_at DESC")
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
		return nil, fmt.Errorf("failed to build tournaments query: %w", err)
	}

	tournaments := []models.Tournament{}
	if err := r.db.SelectContext(ctx, &tournaments, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *tournamentRepository) TransitionStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, from, to models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET status = ? WHERE id = ? AND status = ?`)
	result, err := executor.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *tournamentRepository) SetTotalRounds(ctx context.Context, exec SQLExecutor, id uuid.UUID, totalRounds int) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET total_rounds = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, totalRounds, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *tournamentRepository) Complete(ctx context.Context, exec SQLExecutor, id uuid.UUID, championID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE tournaments SET status = ?, champion_id = ? WHERE id = ? AND status <> ?`)
	result, err := executor.ExecContext(ctx, query, models.StatusCompleted, championID, id, models.StatusCompleted)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *tournamentRepository) handleTournamentError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrTournamentNotFound
	case isUniqueViolation(err, "slug"):
		return ErrTournamentSlugConflict
	}
	return err
}
