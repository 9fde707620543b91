package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/efootball-cup/brackets"
	"github.com/Dosada05/efootball-cup/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchNotPending = errors.New("match is no longer pending")
	ErrMatchConflict   = errors.New("match number already exists in round")
)

const matchColumns = `id, tournament_id, round_id, match_number, player1_id, player2_id, status,
	winner_id, player1_score, player2_score, result_evidence_ref, result_uploaded_by,
	result_verified_by, completed_at, created_at`

// same columns, qualified for joins
const matchColumnsM = `m.id, m.tournament_id, m.round_id, m.match_number, m.player1_id, m.player2_id, m.status,
	m.winner_id, m.player1_score, m.player2_score, m.result_evidence_ref, m.result_uploaded_by,
	m.result_verified_by, m.completed_at, m.created_at`

const insertBatchSize = 50

type ListMatchesFilter struct {
	TournamentID *uuid.UUID
	RoundNumber  *int
	Status       *models.MatchStatus
	PlayerID     *uuid.UUID
	Limit        int
	Offset       int
}

// DecideMatchParams carries the outcome written by DecideMatch.
type DecideMatchParams struct {
	MatchID      uuid.UUID
	Status       models.MatchStatus
	WinnerID     uuid.UUID
	Player1Score *int
	Player2Score *int
	EvidenceRef  *string
	UploadedBy   *uuid.UUID
	VerifiedBy   *uuid.UUID
}

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	GetByRoundAndNumber(ctx context.Context, exec SQLExecutor, roundID uuid.UUID, matchNumber int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error)
	CountByRound(ctx context.Context, exec SQLExecutor, roundID uuid.UUID) (int, error)
	CountPendingByRound(ctx context.Context, exec SQLExecutor, roundID uuid.UUID) (int, error)
	// DecideMatch records an outcome only while the match is still pending and
	// returns ErrMatchNotPending otherwise.
	DecideMatch(ctx context.Context, exec SQLExecutor, params DecideMatchParams) error
	// AssignSlot writes entrantID into an empty slot. It reports false when the
	// slot already holds somebody else.
	AssignSlot(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, slot brackets.Slot, entrantID uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListMatchesFilter) ([]models.PlayerMatch, error)
}

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *matchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	now := time.Now().UTC()
	for _, m := range matches {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.Status == "" {
			m.Status = models.MatchStatusPending
		}
		m.CreatedAt = now
	}

	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES (:id, :tournament_id, :round_id, :match_number, :player1_id, :player2_id, :status,
			:winner_id, :player1_score, :player2_score, :result_evidence_ref, :result_uploaded_by,
			:result_verified_by, :completed_at, :created_at)`

	for start := 0; start < len(matches); start += insertBatchSize {
		end := min(start+insertBatchSize, len(matches))
		if _, err := sqlx.NamedExecContext(ctx, executor, query, matches[start:end]); err != nil {
			if isUniqueViolation(err, "") {
				return ErrMatchConflict
			}
			return fmt.Errorf("failed to insert matches %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	executor := r.getExecutor(exec)
	var m models.Match
	query := executor.Rebind(`SELECT ` + matchColumns + ` FROM matches WHERE id = ?`)
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) GetByRoundAndNumber(ctx context.Context, exec SQLExecutor, roundID uuid.UUID, matchNumber int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	var m models.Match
	query := executor.Rebind(`SELECT ` + matchColumns + ` FROM matches WHERE round_id = ? AND match_number = ?`)
	if err := executor.GetContext(ctx, &m, query, roundID, matchNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		SELECT ` + matchColumnsM + `
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.tournament_id = ?
		ORDER BY r.round_number, m.match_number`)

	matches := []models.Match{}
	if err := executor.SelectContext(ctx, &matches, query, tournamentID); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *matchRepository) CountByRound(ctx context.Context, exec SQLExecutor, roundID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := executor.Rebind(`SELECT COUNT(*) FROM matches WHERE round_id = ?`)
	if err := executor.GetContext(ctx, &count, query, roundID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *matchRepository) CountPendingByRound(ctx context.Context, exec SQLExecutor, roundID uuid.UUID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := executor.Rebind(`SELECT COUNT(*) FROM matches WHERE round_id = ? AND status IN (?, ?)`)
	err := executor.GetContext(ctx, &count, query, roundID, models.MatchStatusPending, models.MatchStatusInProgress)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *matchRepository) DecideMatch(ctx context.Context, exec SQLExecutor, p DecideMatchParams) error {
	executor := r.getExecutor(exec)
	query := executor.Rebind(`
		UPDATE matches
		SET status = ?, winner_id = ?, player1_score = ?, player2_score = ?,
			result_evidence_ref = ?, result_uploaded_by = ?, result_verified_by = ?, completed_at = ?
		WHERE id = ? AND status = ?`)

	result, err := executor.ExecContext(ctx, query,
		p.Status, p.WinnerID, p.Player1Score, p.Player2Score,
		p.EvidenceRef, p.UploadedBy, p.VerifiedBy, time.Now().UTC(),
		p.MatchID, models.MatchStatusPending,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

func (r *matchRepository) AssignSlot(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, slot brackets.Slot, entrantID uuid.UUID) (bool, error) {
	executor := r.getExecutor(exec)
	column := slot.Column()
	// Re-assigning the same entrant is accepted so a repeated advance is harmless.
	query := executor.Rebind(fmt.Sprintf(
		`UPDATE matches SET %[1]s = ? WHERE id = ? AND (%[1]s IS NULL OR %[1]s = ?)`, column))

	result, err := executor.ExecContext(ctx, query, entrantID, matchID, entrantID)
	if err != nil {
		return false, err
	}
	if err := checkAffectedRows(result, ErrMatchNotFound); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *matchRepository) List(ctx context.Context, filter ListMatchesFilter) ([]models.PlayerMatch, error) {
	builder := sq.Select(matchColumnsM,
		"r.round_number", "r.round_name",
		"p1.full_name AS player1_name", "p2.full_name AS player2_name", "w.full_name AS winner_name").
		From("matches m").
		Join("rounds r ON r.id = m.round_id").
		LeftJoin("users p1 ON p1.id = m.player1_id").
		LeftJoin("users p2 ON p2.id = m.player2_id").
		LeftJoin("users w ON w.id = m.winner_id").
		OrderBy("r.round_number", "m.match_number")

	if filter.TournamentID != nil {
		builder = builder.Where(sq.Eq{"m.tournament_id": *filter.TournamentID})
	}
	if filter.RoundNumber != nil {
		builder = builder.Where(sq.Eq{"r.round_number": *filter.RoundNumber})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"m.status": *filter.Status})
	}
	if filter.PlayerID != nil {
		builder = builder.Where(sq.Or{
			sq.Eq{"m.player1_id": *filter.PlayerID},
			sq.Eq{"m.player2_id": *filter.PlayerID},
		})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build matches query: %w", err)
	}

	matches := []models.PlayerMatch{}
	if err := r.db.SelectContext(ctx, &matches, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return matches, nil
}
