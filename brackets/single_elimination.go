package brackets

import (
	"context"
	"fmt"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error) {
	entrants := params.Entrants
	n := len(entrants)
	if n == 0 {
		return nil, ErrNoEntrants
	}

	numRounds := TotalRounds(n)
	plan := &Plan{
		TotalRounds: numRounds,
		Rounds:      make([]PlannedRound, 0, numRounds),
	}

	if numRounds == 0 {
		id := entrants[0].ID
		plan.Champion = &id
		return plan, nil
	}

	for r := 1; r <= numRounds; r++ {
		plan.Rounds = append(plan.Rounds, PlannedRound{
			Number:     r,
			Name:       RoundName(r, numRounds),
			MatchCount: MatchesInRound(n, r),
		})
	}

	// Round 1: (e0,e1), (e2,e3), ... and a trailing bye for an odd count.
	matchNumber := 1
	for i := 0; i+1 < n; i += 2 {
		p1, p2 := entrants[i].ID, entrants[i+1].ID
		plan.Matches = append(plan.Matches, &BracketMatch{
			UID:         matchUID(1, matchNumber),
			Round:       1,
			MatchNumber: matchNumber,
			Player1ID:   &p1,
			Player2ID:   &p2,
		})
		matchNumber++
	}
	if n%2 == 1 {
		p1 := entrants[n-1].ID
		plan.Matches = append(plan.Matches, &BracketMatch{
			UID:         matchUID(1, matchNumber),
			Round:       1,
			MatchNumber: matchNumber,
			Player1ID:   &p1,
			IsBye:       true,
		})
	}

	for _, round := range plan.Rounds[1:] {
		for k := 1; k <= round.MatchCount; k++ {
			plan.Matches = append(plan.Matches, &BracketMatch{
				UID:         matchUID(round.Number, k),
				Round:       round.Number,
				MatchNumber: k,
			})
		}
	}

	return plan, nil
}

func matchUID(round, number int) string {
	return fmt.Sprintf("R%dM%d", round, number)
}
