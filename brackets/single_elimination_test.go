package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntrants(n int) []models.Entrant {
	out := make([]models.Entrant, n)
	for i := range out {
		out[i] = models.Entrant{
			ID:          uuid.New(),
			DisplayName: fmt.Sprintf("player-%d", i),
		}
	}
	return out
}

func generate(t *testing.T, entrants []models.Entrant) *Plan {
	t.Helper()
	plan, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: uuid.New(),
		Entrants:     entrants,
	})
	require.NoError(t, err)
	return plan
}

func TestGenerateBracket_NoEntrants(t *testing.T) {
	plan, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{})
	assert.ErrorIs(t, err, ErrNoEntrants)
	assert.Nil(t, plan)
}

func TestGenerateBracket_SingleEntrant(t *testing.T) {
	entrants := makeEntrants(1)
	plan := generate(t, entrants)

	assert.Equal(t, 0, plan.TotalRounds)
	assert.Empty(t, plan.Rounds)
	assert.Empty(t, plan.Matches)
	require.NotNil(t, plan.Champion)
	assert.Equal(t, entrants[0].ID, *plan.Champion)
}

func TestGenerateBracket_Shape(t *testing.T) {
	for n := 2; n <= 64; n++ {
		t.Run(fmt.Sprintf("%d entrants", n), func(t *testing.T) {
			plan := generate(t, makeEntrants(n))

			require.Equal(t, TotalRounds(n), plan.TotalRounds)
			require.Len(t, plan.Rounds, plan.TotalRounds)
			for i, round := range plan.Rounds {
				assert.Equal(t, i+1, round.Number, "rounds are contiguous from 1")
				assert.Equal(t, MatchesInRound(n, round.Number), round.MatchCount)
				assert.Len(t, plan.RoundMatches(round.Number), round.MatchCount)
			}

			last := plan.Rounds[len(plan.Rounds)-1]
			assert.Equal(t, "Final", last.Name)
			assert.Equal(t, 1, last.MatchCount)

			first := plan.RoundMatches(1)
			assert.Len(t, first, (n+1)/2)
			byes := 0
			for _, m := range first {
				if m.IsBye {
					byes++
					assert.Nil(t, m.Player2ID)
				}
			}
			assert.Equal(t, n%2, byes)
		})
	}
}

func TestGenerateBracket_PairsInRegistrationOrder(t *testing.T) {
	entrants := makeEntrants(5)
	plan := generate(t, entrants)

	first := plan.RoundMatches(1)
	require.Len(t, first, 3)

	assert.Equal(t, 1, first[0].MatchNumber)
	assert.Equal(t, entrants[0].ID, *first[0].Player1ID)
	assert.Equal(t, entrants[1].ID, *first[0].Player2ID)

	assert.Equal(t, 2, first[1].MatchNumber)
	assert.Equal(t, entrants[2].ID, *first[1].Player1ID)
	assert.Equal(t, entrants[3].ID, *first[1].Player2ID)

	assert.Equal(t, 3, first[2].MatchNumber)
	assert.Equal(t, entrants[4].ID, *first[2].Player1ID)
	assert.Nil(t, first[2].Player2ID)
	assert.True(t, first[2].IsBye)
	assert.Equal(t, "R1M3", first[2].UID)

	for _, m := range plan.Matches {
		if m.Round > 1 {
			assert.Nil(t, m.Player1ID, m.UID)
			assert.Nil(t, m.Player2ID, m.UID)
		}
	}
}

func TestGenerateBracket_EightEntrants(t *testing.T) {
	plan := generate(t, makeEntrants(8))

	require.Equal(t, 3, plan.TotalRounds)
	counts := []int{}
	names := []string{}
	for _, r := range plan.Rounds {
		counts = append(counts, r.MatchCount)
		names = append(names, r.Name)
	}
	assert.Equal(t, []int{4, 2, 1}, counts)
	assert.Equal(t, []string{"Quarterfinal", "Semifinal", "Final"}, names)
}
