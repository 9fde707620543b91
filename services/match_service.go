package services

import (
	"context"
	"errors"
	"fmt"
	"io"
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
)

const (
	defaultMatchListLimit = 50
	maxMatchListLimit     = 200
)

type RecordResultInput struct {
	MatchID      uuid.UUID
	ActorID      uuid.UUID
	Player1Score int
	Player2Score int
	// EvidenceRef is the storage key of the uploaded screenshot, if any.
	EvidenceRef *string
}

type SubmitResultInput struct {
	MatchID      uuid.UUID
	ActorID      uuid.UUID
	Player1Score int
	Player2Score int
	Screenshot   io.Reader
}

type MatchService interface {
	RecordResult(ctx context.Context, input RecordResultInput) (*models.Match, error)
	// SubmitResult stores the screenshot and then records the result.
	SubmitResult(ctx context.Context, input SubmitResultInput) (*models.Match, error)
	Advance(ctx context.Context, matchID uuid.UUID) error
	OverrideResult(ctx context.Context, adminID, matchID, winnerID uuid.UUID) (*models.Match, error)
	GetMatchForPlayer(ctx context.Context, matchID, userID uuid.UUID) (*models.Match, error)
	ListPlayerMatches(ctx context.Context, userID uuid.UUID, tournamentID *uuid.UUID) ([]models.PlayerMatch, error)
	ListMatches(ctx context.Context, filter repositories.ListMatchesFilter) ([]models.PlayerMatch, error)
}

type matchService struct {
	db             *sqlx.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	propagator     *propagator
	notifier       Notifier
	cache          cache.BracketCache
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewMatchService(
	db *sqlx.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	bracketCache cache.BracketCache,
	uploader storage.FileUploader,
	opts BracketOptions,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		propagator:     newPropagator(tournamentRepo, roundRepo, matchRepo, opts.AutoAdvanceByes, logger),
		notifier:       notifier,
		cache:          bracketCache,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *matchService) getMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	return match, nil
}

func reject(reason string, err error) error {
	metrics.ResultRejections.WithLabelValues(reason).Inc()
	return err
}

// validateResult checks a submission against the current match state. Nothing
// is written when it fails.
func validateResult(match *models.Match, actorID uuid.UUID, score1, score2 int) error {
	if !match.HasPlayer(actorID) {
		return reject("not_participant", ErrNotAuthorizedForMatch)
	}
	if match.IsDecided() {
		return reject("already_completed", ErrAlreadyCompleted)
	}
	if match.Player1ID == nil || match.Player2ID == nil {
		return reject("not_ready", ErrMatchNotReady)
	}
	if score1 < 0 || score2 < 0 {
		return reject("invalid_score", ErrInvalidScore)
	}
	if score1 == score2 {
		return reject("tied_score", ErrTiedScore)
	}
	return nil
}

func (s *matchService) RecordResult(ctx context.Context, input RecordResultInput) (*models.Match, error) {
	match, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := validateResult(match, input.ActorID, input.Player1Score, input.Player2Score); err != nil {
		return nil, err
	}

	winnerID, _ := brackets.Winner(*match.Player1ID, *match.Player2ID, input.Player1Score, input.Player2Score)

	outcome := &AdvanceOutcome{TournamentID: match.TournamentID}
	err = withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		err := s.matchRepo.DecideMatch(ctx, tx, repositories.DecideMatchParams{
			MatchID:      match.ID,
			Status:       models.MatchStatusCompleted,
			WinnerID:     winnerID,
			Player1Score: &input.Player1Score,
			Player2Score: &input.Player2Score,
			EvidenceRef:  input.EvidenceRef,
			UploadedBy:   &input.ActorID,
		})
		if errors.Is(err, repositories.ErrMatchNotPending) {
			// Another submission won the race.
			return reject("already_completed", ErrAlreadyCompleted)
		}
		if err != nil {
			return fmt.Errorf("failed to record result of match %s: %w", match.ID, err)
		}

		if err := s.markTournamentStarted(ctx, tx, match.TournamentID); err != nil {
			return err
		}
		return s.propagator.advance(ctx, tx, match.ID, outcome)
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesDecided.WithLabelValues(metrics.OutcomeReported).Inc()
	s.logger.Info("match result recorded",
		slog.String("match_id", match.ID.String()),
		slog.String("reported_by", input.ActorID.String()),
		slog.String("winner_id", winnerID.String()),
		slog.Int("player1_score", input.Player1Score),
		slog.Int("player2_score", input.Player2Score))

	if opponent := match.Opponent(input.ActorID); opponent != nil {
		s.notifier.Notify(ctx, *opponent, models.NotificationMatchResult,
			"Match Result Submitted",
			fmt.Sprintf("Your opponent reported the result %d-%d.", input.Player1Score, input.Player2Score),
			matchLink(match.ID))
	}
	notifyAdvancement(ctx, s.notifier, outcome)
	s.cache.Invalidate(ctx, match.TournamentID)

	return s.getMatch(ctx, match.ID)
}

func (s *matchService) SubmitResult(ctx context.Context, input SubmitResultInput) (*models.Match, error) {
	if input.Screenshot == nil {
		return nil, reject("evidence_missing", ErrEvidenceRequired)
	}

	// Validate before touching storage so a rejected submission leaves no file behind.
	match, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := validateResult(match, input.ActorID, input.Player1Score, input.Player2Score); err != nil {
		return nil, err
	}

	img, err := storage.NormalizeScreenshot(input.Screenshot)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedImage):
			return nil, reject("evidence_invalid", ErrInvalidEvidence)
		case errors.Is(err, storage.ErrImageTooLarge):
			return nil, reject("evidence_too_large", ErrEvidenceTooLarge)
		}
		return nil, fmt.Errorf("failed to process screenshot: %w", err)
	}

	key := fmt.Sprintf("evidence/matches/%s/%s%s", match.ID, uuid.NewString(), storage.ScreenshotExt)
	if _, err := s.uploader.Upload(ctx, key, storage.ScreenshotMediaType, img); err != nil {
		return nil, fmt.Errorf("failed to upload screenshot: %w", err)
	}

	result, err := s.RecordResult(ctx, RecordResultInput{
		MatchID:      input.MatchID,
		ActorID:      input.ActorID,
		Player1Score: input.Player1Score,
		Player2Score: input.Player2Score,
		EvidenceRef:  utils.Ptr(key),
	})
	if err != nil {
		if delErr := s.uploader.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("failed to delete orphaned screenshot", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}
	decorateEvidence(result, s.uploader)
	return result, nil
}

func (s *matchService) markTournamentStarted(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID) error {
	err := s.tournamentRepo.TransitionStatus(ctx, exec, tournamentID, models.StatusBracketsGenerated, models.StatusInProgress)
	if err != nil && !errors.Is(err, repositories.ErrTournamentStatusConflict) {
		return fmt.Errorf("failed to start tournament %s: %w", tournamentID, err)
	}
	return nil
}

// Advance re-runs advancement for an already decided match. Repeated calls
// leave the bracket unchanged.
func (s *matchService) Advance(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}

	outcome := &AdvanceOutcome{TournamentID: match.TournamentID}
	err = withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		return s.propagator.advance(ctx, tx, matchID, outcome)
	})
	if err != nil {
		return err
	}

	notifyAdvancement(ctx, s.notifier, outcome)
	s.cache.Invalidate(ctx, match.TournamentID)
	return nil
}

// OverrideResult lets an administrator decide a pending match, e.g. a no-show
// or an unresolved bye.
func (s *matchService) OverrideResult(ctx context.Context, adminID, matchID, winnerID uuid.UUID) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsDecided() {
		return nil, ErrAlreadyCompleted
	}
	if !match.HasPlayer(winnerID) {
		return nil, ErrInvalidOverrideWinner
	}

	outcome := &AdvanceOutcome{TournamentID: match.TournamentID}
	err = withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		err := s.matchRepo.DecideMatch(ctx, tx, repositories.DecideMatchParams{
			MatchID:    match.ID,
			Status:     models.MatchStatusForfeit,
			WinnerID:   winnerID,
			VerifiedBy: &adminID,
		})
		if errors.Is(err, repositories.ErrMatchNotPending) {
			return ErrAlreadyCompleted
		}
		if err != nil {
			return fmt.Errorf("failed to override match %s: %w", match.ID, err)
		}
		if err := s.markTournamentStarted(ctx, tx, match.TournamentID); err != nil {
			return err
		}
		return s.propagator.advance(ctx, tx, match.ID, outcome)
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesDecided.WithLabelValues(metrics.OutcomeOverride).Inc()
	s.logger.Info("match result overridden",
		slog.String("match_id", match.ID.String()),
		slog.String("admin_id", adminID.String()),
		slog.String("winner_id", winnerID.String()))

	for _, id := range []*uuid.UUID{match.Player1ID, match.Player2ID} {
		if id == nil {
			continue
		}
		s.notifier.Notify(ctx, *id, models.NotificationAdminMessage,
			"Match Decided by Admin",
			"An administrator has decided your match.",
			matchLink(match.ID))
	}
	notifyAdvancement(ctx, s.notifier, outcome)
	s.cache.Invalidate(ctx, match.TournamentID)

	return s.getMatch(ctx, match.ID)
}

// GetMatchForPlayer returns the match only to its participants; everybody
// else gets ErrMatchNotFound.
func (s *matchService) GetMatchForPlayer(ctx context.Context, matchID, userID uuid.UUID) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasPlayer(userID) {
		return nil, ErrMatchNotFound
	}

	match.Player1, err = s.entrant(ctx, match.Player1ID)
	if err != nil {
		return nil, err
	}
	match.Player2, err = s.entrant(ctx, match.Player2ID)
	if err != nil {
		return nil, err
	}
	decorateEvidence(match, s.uploader)
	return match, nil
}

func (s *matchService) entrant(ctx context.Context, id *uuid.UUID) (*models.Entrant, error) {
	if id == nil {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load player %s: %w", *id, err)
	}
	return &models.Entrant{
		ID:                user.ID,
		DisplayName:       user.FullName,
		ExternalAccountID: user.EFootballID,
		Platform:          user.Platform,
	}, nil
}

func (s *matchService) ListPlayerMatches(ctx context.Context, userID uuid.UUID, tournamentID *uuid.UUID) ([]models.PlayerMatch, error) {
	return s.ListMatches(ctx, repositories.ListMatchesFilter{
		TournamentID: tournamentID,
		PlayerID:     &userID,
		Limit:        maxMatchListLimit,
	})
}

func (s *matchService) ListMatches(ctx context.Context, filter repositories.ListMatchesFilter) ([]models.PlayerMatch, error) {
	filter.Limit = clampLimit(filter.Limit, defaultMatchListLimit, maxMatchListLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	matches, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	for i := range matches {
		decorateEvidence(&matches[i].Match, s.uploader)
	}
	return matches, nil
}
