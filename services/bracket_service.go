package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/efootball-cup/brackets"
	"github.com/Dosada05/efootball-cup/cache"
	"github.com/Dosada05/efootball-cup/metrics"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/storage"
	"github.com/Dosada05/efootball-cup/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type BracketOptions struct {
	// AutoAdvanceByes completes bye matches as soon as their only entrant is known.
	AutoAdvanceByes bool
}

type BracketService interface {
	GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, error)
	GetBracket(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, error)
}

type bracketService struct {
	db               *sqlx.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	roundRepo        repositories.RoundRepository
	matchRepo        repositories.MatchRepository
	generator        brackets.BracketGenerator
	propagator       *propagator
	notifier         Notifier
	cache            cache.BracketCache
	uploader         storage.FileUploader
	opts             BracketOptions
	logger           *slog.Logger
}

func NewBracketService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	bracketCache cache.BracketCache,
	uploader storage.FileUploader,
	opts BracketOptions,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		roundRepo:        roundRepo,
		matchRepo:        matchRepo,
		generator:        brackets.NewSingleEliminationGenerator(),
		propagator:       newPropagator(tournamentRepo, roundRepo, matchRepo, opts.AutoAdvanceByes, logger),
		notifier:         notifier,
		cache:            bracketCache,
		uploader:         uploader,
		opts:             opts,
		logger:           logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, error) {
	var (
		entrants []models.Entrant
		plan     *brackets.Plan
		round1   []*models.Match
	)
	outcome := &AdvanceOutcome{TournamentID: tournamentID}

	err := withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
		}
		if tournament.Status != models.StatusRegistration {
			return ErrBracketAlreadyGenerated
		}

		entrants, err = s.registrationRepo.ListApprovedEntrants(ctx, tx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list approved entrants: %w", err)
		}
		if len(entrants) == 0 {
			return ErrEmptyBracket
		}

		// Guards against a concurrent generation that passed the check above.
		err = s.tournamentRepo.TransitionStatus(ctx, tx, tournamentID, models.StatusRegistration, models.StatusBracketsGenerated)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return ErrBracketAlreadyGenerated
		}
		if err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}

		plan, err = s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID: tournamentID,
			Entrants:     entrants,
		})
		if err != nil {
			if errors.Is(err, brackets.ErrNoEntrants) {
				return ErrEmptyBracket
			}
			return fmt.Errorf("failed to plan bracket: %w", err)
		}

		if err := s.tournamentRepo.SetTotalRounds(ctx, tx, tournamentID, plan.TotalRounds); err != nil {
			return fmt.Errorf("failed to store round count: %w", err)
		}

		if plan.Champion != nil {
			if err := s.tournamentRepo.Complete(ctx, tx, tournamentID, *plan.Champion); err != nil {
				return fmt.Errorf("failed to complete single-entrant tournament: %w", err)
			}
			outcome.ChampionID = plan.Champion
			return nil
		}

		round1, err = s.persistPlan(ctx, tx, tournamentID, plan)
		if err != nil {
			return err
		}

		if s.opts.AutoAdvanceByes {
			for _, m := range round1 {
				if m.Player2ID != nil {
					continue
				}
				if err := s.propagator.resolveBye(ctx, tx, m, *m.Player1ID, outcome); err != nil {
					return fmt.Errorf("failed to advance bye of match %d: %w", m.MatchNumber, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BracketsGenerated.Inc()
	s.cache.Invalidate(ctx, tournamentID)
	s.logger.Info("bracket generated",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("entrants", len(entrants)),
		slog.Int("rounds", plan.TotalRounds))

	s.notifyGenerated(ctx, entrants, round1, outcome)

	return s.GetBracket(ctx, tournamentID)
}

// persistPlan writes every round and match of the plan and returns the
// round-1 matches in match order.
func (s *bracketService) persistPlan(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID, plan *brackets.Plan) ([]*models.Match, error) {
	rounds := make([]*models.Round, 0, len(plan.Rounds))
	roundIDs := make(map[int]uuid.UUID, len(plan.Rounds))
	for _, pr := range plan.Rounds {
		status := models.RoundStatusPending
		if pr.Number == 1 {
			status = models.RoundStatusInProgress
		}
		round := &models.Round{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			RoundNumber:  pr.Number,
			RoundName:    pr.Name,
			Status:       status,
		}
		rounds = append(rounds, round)
		roundIDs[pr.Number] = round.ID
	}
	if err := s.roundRepo.CreateBatch(ctx, exec, rounds); err != nil {
		if errors.Is(err, repositories.ErrRoundConflict) {
			return nil, ErrBracketAlreadyGenerated
		}
		return nil, fmt.Errorf("failed to create rounds: %w", err)
	}

	matches := make([]*models.Match, 0, len(plan.Matches))
	var round1 []*models.Match
	for _, bm := range plan.Matches {
		m := &models.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			RoundID:      roundIDs[bm.Round],
			MatchNumber:  bm.MatchNumber,
			Player1ID:    bm.Player1ID,
			Player2ID:    bm.Player2ID,
			Status:       models.MatchStatusPending,
		}
		matches = append(matches, m)
		if bm.Round == 1 {
			round1 = append(round1, m)
		}
	}
	if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}
	return round1, nil
}

func (s *bracketService) notifyGenerated(ctx context.Context, entrants []models.Entrant, round1 []*models.Match, outcome *AdvanceOutcome) {
	for _, e := range entrants {
		s.notifier.Notify(ctx, e.ID, models.NotificationTournamentUpdate,
			"Bracket Generated",
			"Tournament bracket has been generated! Check your dashboard for your first match.",
			dashboardLink())
	}
	for _, m := range round1 {
		if m.Player1ID == nil || m.Player2ID == nil {
			continue
		}
		link := matchLink(m.ID)
		msg := fmt.Sprintf("Your first-round match #%d is ready.", m.MatchNumber)
		s.notifier.Notify(ctx, *m.Player1ID, models.NotificationMatchAssigned, "New Match Assigned", msg, link)
		s.notifier.Notify(ctx, *m.Player2ID, models.NotificationMatchAssigned, "New Match Assigned", msg, link)
	}
	notifyAdvancement(ctx, s.notifier, outcome)
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, error) {
	if bracket, ok := s.cache.Get(ctx, tournamentID); ok {
		return bracket, nil
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
	}

	var (
		rounds   []models.Round
		matches  []models.Match
		entrants []models.Entrant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rounds, err = s.roundRepo.ListByTournament(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		entrants, err = s.registrationRepo.ListEntrants(gctx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket of tournament %s: %w", tournamentID, err)
	}

	byID := make(map[uuid.UUID]*models.Entrant, len(entrants))
	for i := range entrants {
		byID[entrants[i].ID] = &entrants[i]
	}
	lookup := func(id *uuid.UUID) *models.Entrant {
		if id == nil {
			return nil
		}
		return byID[*id]
	}

	roundIndex := make(map[uuid.UUID]int, len(rounds))
	for i := range rounds {
		roundIndex[rounds[i].ID] = i
		rounds[i].Matches = []models.Match{}
	}
	for i := range matches {
		m := &matches[i]
		m.Player1 = lookup(m.Player1ID)
		m.Player2 = lookup(m.Player2ID)
		decorateEvidence(m, s.uploader)
		if idx, ok := roundIndex[m.RoundID]; ok {
			rounds[idx].Matches = append(rounds[idx].Matches, *m)
		}
	}
	tournament.Champion = lookup(tournament.ChampionID)

	bracket := &models.Bracket{Tournament: tournament, Rounds: rounds}
	s.cache.Set(ctx, tournamentID, bracket)
	return bracket, nil
}

func decorateEvidence(m *models.Match, uploader storage.FileUploader) {
	if m.ResultEvidenceRef == nil || uploader == nil {
		return
	}
	m.EvidenceURL = utils.StringOrNil(uploader.GetPublicURL(*m.ResultEvidenceRef))
}
