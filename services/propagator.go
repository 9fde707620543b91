package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/efootball-cup/brackets"
	"github.com/Dosada05/efootball-cup/metrics"
	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/google/uuid"
)

// Reasons an advancement leaves the bracket untouched.
const (
	noopNoWinner          = "no_winner"
	noopNextMatchMissing  = "next_match_missing"
	noopSlotOccupied      = "slot_occupied"
	noopAlreadyChampioned = "tournament_already_completed"
)

// Placement records where an advancing entrant landed.
type Placement struct {
	MatchID     uuid.UUID
	RoundNumber int
	RoundName   string
	MatchNumber int
	Slot        brackets.Slot
	EntrantID   uuid.UUID
	// OpponentID is set once the destination match has both occupants.
	OpponentID *uuid.UUID
	// ByeAdvanced marks a placement into a match that was then won by bye.
	ByeAdvanced bool
}

// AdvanceOutcome collects what changed during advancement so that
// notifications can go out after the transaction commits.
type AdvanceOutcome struct {
	TournamentID uuid.UUID
	Placements   []Placement
	ByeWinners   []uuid.UUID
	ChampionID   *uuid.UUID
}

type propagator struct {
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	autoAdvanceByes bool
	logger          *slog.Logger
}

func newPropagator(
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	autoAdvanceByes bool,
	logger *slog.Logger,
) *propagator {
	return &propagator{
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		autoAdvanceByes: autoAdvanceByes,
		logger:          logger,
	}
}

func (p *propagator) noop(reason string, match *models.Match, attrs ...any) {
	metrics.AdvancementNoops.WithLabelValues(reason).Inc()
	attrs = append(attrs,
		slog.String("reason", reason),
		slog.String("match_id", match.ID.String()),
		slog.Int("match_number", match.MatchNumber))
	if reason == noopNoWinner {
		p.logger.Info("advancement skipped", attrs...)
		return
	}
	p.logger.Warn("advancement skipped", attrs...)
}

// advance moves the winner of a decided match into the next round. It must run
// in the same transaction as the write that decided the match.
func (p *propagator) advance(ctx context.Context, exec repositories.SQLExecutor, matchID uuid.UUID, out *AdvanceOutcome) error {
	match, err := p.matchRepo.GetByID(ctx, exec, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if match.WinnerID == nil || !match.IsDecided() {
		p.noop(noopNoWinner, match)
		return nil
	}
	winnerID := *match.WinnerID

	round, err := p.roundRepo.GetByID(ctx, exec, match.RoundID)
	if err != nil {
		return fmt.Errorf("failed to load round of match %s: %w", match.ID, err)
	}

	nextRound, err := p.roundRepo.GetByNumber(ctx, exec, match.TournamentID, round.RoundNumber+1)
	if err != nil && !errors.Is(err, repositories.ErrRoundNotFound) {
		return fmt.Errorf("failed to load round %d: %w", round.RoundNumber+1, err)
	}
	if err := p.updateRoundStatuses(ctx, exec, round, nextRound); err != nil {
		return err
	}

	if nextRound == nil {
		// The final has been decided.
		err := p.tournamentRepo.Complete(ctx, exec, match.TournamentID, winnerID)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			p.noop(noopAlreadyChampioned, match)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to complete tournament %s: %w", match.TournamentID, err)
		}
		out.ChampionID = &winnerID
		p.logger.Info("tournament completed",
			slog.String("tournament_id", match.TournamentID.String()),
			slog.String("champion_id", winnerID.String()))
		return nil
	}

	nextNumber := brackets.NextMatchNumber(match.MatchNumber)
	slot := brackets.SlotFor(match.MatchNumber)

	next, err := p.matchRepo.GetByRoundAndNumber(ctx, exec, nextRound.ID, nextNumber)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		p.noop(noopNextMatchMissing, match, slog.Int("next_round", nextRound.RoundNumber), slog.Int("next_match_number", nextNumber))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load next match R%dM%d: %w", nextRound.RoundNumber, nextNumber, err)
	}

	assigned, err := p.matchRepo.AssignSlot(ctx, exec, next.ID, slot, winnerID)
	if err != nil {
		return fmt.Errorf("failed to assign winner to match %s: %w", next.ID, err)
	}
	if !assigned {
		p.noop(noopSlotOccupied, match, slog.String("next_match_id", next.ID.String()), slog.Int("slot", int(slot)))
		return nil
	}

	next, err = p.matchRepo.GetByID(ctx, exec, next.ID)
	if err != nil {
		return fmt.Errorf("failed to reload match %s: %w", next.ID, err)
	}

	placement := Placement{
		MatchID:     next.ID,
		RoundNumber: nextRound.RoundNumber,
		RoundName:   nextRound.RoundName,
		MatchNumber: next.MatchNumber,
		Slot:        slot,
		EntrantID:   winnerID,
	}
	if next.Player1ID != nil && next.Player2ID != nil {
		placement.OpponentID = next.Opponent(winnerID)
	}

	p.logger.Debug("winner advanced",
		slog.String("match_id", match.ID.String()),
		slog.String("next_match_id", next.ID.String()),
		slog.Int("slot", int(slot)))

	if p.autoAdvanceByes && slot == brackets.Slot1 && next.Player2ID == nil && !next.IsDecided() {
		feeders, err := p.matchRepo.CountByRound(ctx, exec, round.ID)
		if err != nil {
			return fmt.Errorf("failed to count matches of round %d: %w", round.RoundNumber, err)
		}
		if !brackets.HasSecondSource(next.MatchNumber, feeders) {
			placement.ByeAdvanced = true
			out.Placements = append(out.Placements, placement)
			return p.resolveBye(ctx, exec, next, winnerID, out)
		}
	}

	out.Placements = append(out.Placements, placement)
	return nil
}

// resolveBye completes a match that has a single possible occupant and
// advances that occupant.
func (p *propagator) resolveBye(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, entrantID uuid.UUID, out *AdvanceOutcome) error {
	err := p.matchRepo.DecideMatch(ctx, exec, repositories.DecideMatchParams{
		MatchID:  match.ID,
		Status:   models.MatchStatusCompleted,
		WinnerID: entrantID,
	})
	if errors.Is(err, repositories.ErrMatchNotPending) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to complete bye match %s: %w", match.ID, err)
	}
	metrics.MatchesDecided.WithLabelValues(metrics.OutcomeBye).Inc()
	out.ByeWinners = append(out.ByeWinners, entrantID)

	return p.advance(ctx, exec, match.ID, out)
}

// updateRoundStatuses closes a round once none of its matches is pending and
// opens the following one. A round is opened only here, when the previous
// round completes: a structural bye decided early in a later round leaves
// that round pending.
func (p *propagator) updateRoundStatuses(ctx context.Context, exec repositories.SQLExecutor, round, nextRound *models.Round) error {
	if round.Status == models.RoundStatusCompleted {
		return nil
	}
	pending, err := p.matchRepo.CountPendingByRound(ctx, exec, round.ID)
	if err != nil {
		return fmt.Errorf("failed to count pending matches of round %d: %w", round.RoundNumber, err)
	}
	if pending > 0 {
		return nil
	}

	if err := p.roundRepo.UpdateStatus(ctx, exec, round.ID, models.RoundStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete round %d: %w", round.RoundNumber, err)
	}
	if nextRound != nil && nextRound.Status == models.RoundStatusPending {
		if err := p.roundRepo.UpdateStatus(ctx, exec, nextRound.ID, models.RoundStatusInProgress); err != nil {
			return fmt.Errorf("failed to open round %d: %w", nextRound.RoundNumber, err)
		}
		nextRound.Status = models.RoundStatusInProgress
	}
	return nil
}

// notifyAdvancement sends the notifications for an outcome. Must only be
// called after the transaction that produced it has committed.
func notifyAdvancement(ctx context.Context, notifier Notifier, out *AdvanceOutcome) {
	for _, id := range out.ByeWinners {
		notifier.Notify(ctx, id, models.NotificationTournamentUpdate,
			"Advanced by Bye",
			"You had no opponent this round and advance automatically.",
			dashboardLink())
	}
	for _, pl := range out.Placements {
		if pl.OpponentID == nil {
			continue
		}
		msg := fmt.Sprintf("Your %s match is ready. Check your dashboard for your opponent.", pl.RoundName)
		link := matchLink(pl.MatchID)
		notifier.Notify(ctx, pl.EntrantID, models.NotificationMatchAssigned, "New Match Assigned", msg, link)
		notifier.Notify(ctx, *pl.OpponentID, models.NotificationMatchAssigned, "New Match Assigned", msg, link)
	}
	if out.ChampionID != nil {
		notifier.Notify(ctx, *out.ChampionID, models.NotificationTournamentUpdate,
			"Champion!",
			"Congratulations, you won the tournament.",
			dashboardLink())
	}
}

func dashboardLink() *string {
	link := "/dashboard"
	return &link
}

func matchLink(matchID uuid.UUID) *string {
	link := "/matches/" + matchID.String()
	return &link
}
