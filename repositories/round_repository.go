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
	ErrRoundNotFound = errors.New("round not found")
	ErrRoundConflict = errors.New("round number already exists for tournament")
)

const roundColumns = `id, tournament_id, round_number, round_name, status, created_at`

type RoundRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, rounds []*models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Round, error)
	GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, roundNumber int) (*models.Round, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Round, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.RoundStatus) error
}

type roundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) RoundRepository {
	return &roundRepository{db: db}
}

func (r *roundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *roundRepository) CreateBatch(ctx context.Context, exec SQLExecutor, rounds []*models.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, round := range rounds {
		if round.ID == uuid.Nil {
			round.ID = uuid.New()
		}
		round.CreatedAt = now
	}

	query := `
		INSERT INTO rounds (` + roundColumns + `)
		VALUES (:id, :tournament_id, :round_number, :round_name, :status, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, r.getExecutor(exec), query, rounds)
	if isUniqueViolation(err, "") {
		return ErrRoundConflict
	}
	return err
}

func (r *roundRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Round, error) {
	executor := r.getExecutor(exec)
	var round models.Round
	query := executor.Rebind(`SELECT ` + roundColumns + ` FROM rounds WHERE id = ?`)
	if err := executor.GetContext(ctx, &round, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, roundNumber int) (*models.Round, error) {
	executor := r.getExecutor(exec)
	var round models.Round
	query := executor.Rebind(`SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = ? AND round_number = ?`)
	if err := executor.GetContext(ctx, &round, query, tournamentID, roundNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Round, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = ? ORDER BY round_number`)
	rounds := []models.Round{}
	if err := executor.SelectContext(ctx, &rounds, query, tournamentID); err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *roundRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.RoundStatus) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`UPDATE rounds SET status = ? WHERE id = ?`)
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
