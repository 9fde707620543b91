package services

import (
	"context"
	"testing"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBracket_NoApprovedEntrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "empty-cup")

	// registered but never approved
	pending := env.createUser(t, "waiting", models.UserStatusPending)
	require.NoError(t, env.registrations.Create(ctx, nil, &models.Registration{UserID: pending.ID, TournamentID: tr.ID}))

	_, err := env.bracketService(true).GenerateBracket(ctx, tr.ID)
	assert.ErrorIs(t, err, ErrEmptyBracket)

	rounds, err := env.rounds.ListByTournament(ctx, nil, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds)
	matches, err := env.matches.ListByTournament(ctx, nil, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, models.StatusRegistration, env.tournament(t, tr.ID).Status)
}

func TestGenerateBracket_UnknownTournament(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.bracketService(true).GenerateBracket(context.Background(), env.createUser(t, "x", models.UserStatusApproved).ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestGenerateBracket_FiveEntrantsManualByes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "five-manual")
	ids := env.seedEntrants(t, tr.ID, "A", "B", "C", "D", "E")

	bracket, err := env.bracketService(false).GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)

	require.Len(t, bracket.Rounds, 3)
	assert.Equal(t, models.StatusBracketsGenerated, bracket.Tournament.Status)
	require.NotNil(t, bracket.Tournament.TotalRounds)
	assert.Equal(t, 3, *bracket.Tournament.TotalRounds)

	sizes := []int{}
	for i, r := range bracket.Rounds {
		assert.Equal(t, i+1, r.RoundNumber)
		sizes = append(sizes, len(r.Matches))
	}
	assert.Equal(t, []int{3, 2, 1}, sizes)
	assert.Equal(t, []string{"Quarterfinal", "Semifinal", "Final"},
		[]string{bracket.Rounds[0].RoundName, bracket.Rounds[1].RoundName, bracket.Rounds[2].RoundName})
	assert.Equal(t, models.RoundStatusInProgress, bracket.Rounds[0].Status)
	assert.Equal(t, models.RoundStatusPending, bracket.Rounds[1].Status)

	r1 := bracket.Rounds[0].Matches
	assert.Equal(t, ids["A"], *r1[0].Player1ID)
	assert.Equal(t, ids["B"], *r1[0].Player2ID)
	assert.Equal(t, ids["C"], *r1[1].Player1ID)
	assert.Equal(t, ids["D"], *r1[1].Player2ID)
	assert.Equal(t, ids["E"], *r1[2].Player1ID)
	assert.Nil(t, r1[2].Player2ID)
	assert.Equal(t, models.MatchStatusPending, r1[2].Status, "bye waits for an administrator")
	require.NotNil(t, r1[0].Player1)
	assert.Equal(t, "A", r1[0].Player1.DisplayName)

	for _, r := range bracket.Rounds[1:] {
		for _, m := range r.Matches {
			assert.Nil(t, m.Player1ID)
			assert.Nil(t, m.Player2ID)
		}
	}

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		assert.Equal(t, 1, env.notifier.count(ids[name], models.NotificationTournamentUpdate), name)
	}
	assert.Equal(t, 1, env.notifier.count(ids["A"], models.NotificationMatchAssigned))
	assert.Equal(t, 0, env.notifier.count(ids["E"], models.NotificationMatchAssigned))

	// A beats B, C beats D: round-2 match 1 becomes (A, C) and E is nowhere.
	matches := env.matchService(false)
	_, err = matches.RecordResult(ctx, RecordResultInput{MatchID: r1[0].ID, ActorID: ids["A"], Player1Score: 3, Player2Score: 1})
	require.NoError(t, err)
	semi := env.matchAt(t, tr.ID, 2, 1)
	require.NotNil(t, semi.Player1ID)
	assert.Equal(t, ids["A"], *semi.Player1ID)
	assert.Nil(t, semi.Player2ID)

	_, err = matches.RecordResult(ctx, RecordResultInput{MatchID: r1[1].ID, ActorID: ids["C"], Player1Score: 2, Player2Score: 0})
	require.NoError(t, err)
	semi = env.matchAt(t, tr.ID, 2, 1)
	assert.Equal(t, ids["A"], *semi.Player1ID)
	require.NotNil(t, semi.Player2ID)
	assert.Equal(t, ids["C"], *semi.Player2ID)

	other := env.matchAt(t, tr.ID, 2, 2)
	assert.Nil(t, other.Player1ID)
	assert.Nil(t, other.Player2ID)
	assert.Equal(t, models.MatchStatusPending, env.matchAt(t, tr.ID, 1, 3).Status)

	assert.Equal(t, models.StatusInProgress, env.tournament(t, tr.ID).Status)
	assert.Equal(t, 2, env.notifier.count(ids["A"], models.NotificationMatchAssigned))
	assert.Equal(t, 2, env.notifier.count(ids["C"], models.NotificationMatchAssigned))
	assert.Equal(t, 1, env.notifier.count(ids["D"], models.NotificationMatchResult))
}

func TestGenerateBracket_FiveEntrantsAutoByes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "five-auto")
	ids := env.seedEntrants(t, tr.ID, "A", "B", "C", "D", "E")

	_, err := env.bracketService(true).GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)

	bye := env.matchAt(t, tr.ID, 1, 3)
	assert.Equal(t, models.MatchStatusCompleted, bye.Status)
	require.NotNil(t, bye.WinnerID)
	assert.Equal(t, ids["E"], *bye.WinnerID)
	assert.Nil(t, bye.Player1Score)

	// R2 M2 has no second feeder, so E walks through it as well.
	structural := env.matchAt(t, tr.ID, 2, 2)
	assert.Equal(t, ids["E"], *structural.Player1ID)
	assert.Nil(t, structural.Player2ID)
	assert.Equal(t, models.MatchStatusCompleted, structural.Status)

	final := env.matchAt(t, tr.ID, 3, 1)
	assert.Nil(t, final.Player1ID)
	require.NotNil(t, final.Player2ID)
	assert.Equal(t, ids["E"], *final.Player2ID)

	// bracket generated + two byes
	assert.Equal(t, 3, env.notifier.count(ids["E"], models.NotificationTournamentUpdate))
	assert.Equal(t, models.StatusBracketsGenerated, env.tournament(t, tr.ID).Status)
}

func TestGenerateBracket_StructuralByeDoesNotOpenLaterRound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "five-rounds")
	ids := env.seedEntrants(t, tr.ID, "A", "B", "C", "D", "E")

	_, err := env.bracketService(true).GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)

	roundStatuses := func() []models.RoundStatus {
		rounds, err := env.rounds.ListByTournament(ctx, nil, tr.ID)
		require.NoError(t, err)
		out := make([]models.RoundStatus, 0, len(rounds))
		for _, r := range rounds {
			out = append(out, r.Status)
		}
		return out
	}

	// R2 M2 is already decided, but round 1 is still being played.
	require.Equal(t, models.MatchStatusCompleted, env.matchAt(t, tr.ID, 2, 2).Status)
	assert.Equal(t, []models.RoundStatus{
		models.RoundStatusInProgress, models.RoundStatusPending, models.RoundStatusPending,
	}, roundStatuses())

	svc := env.matchService(true)
	_, err = svc.RecordResult(ctx, RecordResultInput{MatchID: env.matchAt(t, tr.ID, 1, 1).ID, ActorID: ids["A"], Player1Score: 2, Player2Score: 0})
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusPending, roundStatuses()[1])

	_, err = svc.RecordResult(ctx, RecordResultInput{MatchID: env.matchAt(t, tr.ID, 1, 2).ID, ActorID: ids["C"], Player1Score: 1, Player2Score: 0})
	require.NoError(t, err)
	assert.Equal(t, []models.RoundStatus{
		models.RoundStatusCompleted, models.RoundStatusInProgress, models.RoundStatusPending,
	}, roundStatuses())
}

func TestGenerateBracket_EightEntrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "eight")
	env.seedEntrants(t, tr.ID, "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8")

	bracket, err := env.bracketService(true).GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)

	require.Len(t, bracket.Rounds, 3)
	assert.Len(t, bracket.Rounds[0].Matches, 4)
	assert.Len(t, bracket.Rounds[1].Matches, 2)
	require.Len(t, bracket.Rounds[2].Matches, 1)
	assert.Equal(t, "Final", bracket.Rounds[2].RoundName)
	assert.Equal(t, "Quarterfinal", bracket.Rounds[0].RoundName)
	for _, m := range bracket.Rounds[0].Matches {
		assert.NotNil(t, m.Player1ID)
		assert.NotNil(t, m.Player2ID)
		assert.Equal(t, models.MatchStatusPending, m.Status)
	}
}

func TestGenerateBracket_OnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "twice")
	env.seedEntrants(t, tr.ID, "A", "B", "C")
	svc := env.bracketService(true)

	_, err := svc.GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)
	_, err = svc.GenerateBracket(ctx, tr.ID)
	assert.ErrorIs(t, err, ErrBracketAlreadyGenerated)

	rounds, err := env.rounds.ListByTournament(ctx, nil, tr.ID)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)
	matches, err := env.matches.ListByTournament(ctx, nil, tr.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestGenerateBracket_SingleEntrantIsChampion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tr := env.createTournament(t, "solo")
	ids := env.seedEntrants(t, tr.ID, "lonely")

	bracket, err := env.bracketService(true).GenerateBracket(ctx, tr.ID)
	require.NoError(t, err)

	assert.Empty(t, bracket.Rounds)
	assert.Equal(t, models.StatusCompleted, bracket.Tournament.Status)
	require.NotNil(t, bracket.Tournament.ChampionID)
	assert.Equal(t, ids["lonely"], *bracket.Tournament.ChampionID)
	require.NotNil(t, bracket.Tournament.Champion)
	assert.Equal(t, "lonely", bracket.Tournament.Champion.DisplayName)
	assert.Equal(t, 2, env.notifier.count(ids["lonely"], models.NotificationTournamentUpdate))
}

func TestGetBracket_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.bracketService(true).GetBracket(context.Background(), env.createUser(t, "nobody", models.UserStatusApproved).ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
