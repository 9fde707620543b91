package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

const (
	defaultTournamentListLimit = 20
	maxTournamentListLimit     = 100
)

type CreateTournamentInput struct {
	Name                 string    `json:"name"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	MaxPlayers           int       `json:"max_players"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Register(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Registration, error)
	ListEntrants(ctx context.Context, tournamentID uuid.UUID) ([]models.Entrant, error)
}

type tournamentService struct {
	db               *sqlx.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	logger           *slog.Logger
}

func NewTournamentService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.MaxPlayers < 2 {
		return nil, fmt.Errorf("%w: max_players must be at least 2", ErrValidationFailed)
	}
	if input.StartDate.IsZero() || input.EndDate.Before(input.StartDate) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", ErrValidationFailed)
	}
	if input.RegistrationDeadline.IsZero() || input.RegistrationDeadline.After(input.StartDate) {
		return nil, fmt.Errorf("%w: registration_deadline must not be after start_date", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:                 name,
		Slug:                 slug.Make(name),
		Format:               models.FormatSingleElimination,
		StartDate:            input.StartDate.UTC(),
		EndDate:              input.EndDate.UTC(),
		RegistrationDeadline: input.RegistrationDeadline.UTC(),
		MaxPlayers:           input.MaxPlayers,
		Status:               models.StatusRegistration,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, ErrTournamentSlugConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created", slog.String("tournament_id", tournament.ID.String()), slog.String("slug", tournament.Slug))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	filter.Limit = clampLimit(filter.Limit, defaultTournamentListLimit, maxTournamentListLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) Register(ctx context.Context, userID, tournamentID uuid.UUID) (*models.Registration, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status == models.UserStatusRejected {
		return nil, ErrForbiddenOperation
	}

	var reg *models.Registration
	err = withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		var err error
		reg, err = registerEntrant(ctx, tx, s.tournamentRepo, s.registrationRepo, userID, tournamentID, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// registerEntrant adds a registration while the tournament is open: status
// registration, deadline not passed and max_players not reached. exec must be
// a transaction: the tournament row stays locked until it ends, so concurrent
// registrations cannot both pass the capacity check.
func registerEntrant(
	ctx context.Context,
	exec repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	userID, tournamentID uuid.UUID,
	now time.Time,
) (*models.Registration, error) {
	tournament, err := tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to lock tournament %s: %w", tournamentID, err)
	}
	if tournament.Status != models.StatusRegistration || now.After(tournament.RegistrationDeadline) {
		return nil, ErrRegistrationNotOpen
	}

	count, err := registrationRepo.CountByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if tournament.MaxPlayers > 0 && count >= tournament.MaxPlayers {
		return nil, ErrTournamentFull
	}

	reg := &models.Registration{UserID: userID, TournamentID: tournamentID, RegisteredAt: now}
	if err := registrationRepo.Create(ctx, exec, reg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationInvalidRef):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return reg, nil
}

func (s *tournamentService) ListEntrants(ctx context.Context, tournamentID uuid.UUID) ([]models.Entrant, error) {
	if _, err := s.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListEntrants(ctx, nil, tournamentID)
}
