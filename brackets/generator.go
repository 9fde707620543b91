package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
)

var ErrNoEntrants = errors.New("cannot generate bracket with zero entrants")

type GenerateBracketParams struct {
	TournamentID uuid.UUID
	// Entrants in seeding order (registration order).
	Entrants []models.Entrant
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Plan, error)

	GetName() string
}

type PlannedRound struct {
	Number     int
	Name       string
	MatchCount int
}

type BracketMatch struct {
	UID         string
	Round       int
	MatchNumber int

	Player1ID *uuid.UUID
	Player2ID *uuid.UUID

	// IsBye is set for a round-1 match with a single occupant.
	IsBye bool
}

// Plan is the full shape of a bracket before it is persisted.
type Plan struct {
	TotalRounds int
	Rounds      []PlannedRound
	// Matches of every round ordered by (Round, MatchNumber). Matches past
	// round 1 have no players yet.
	Matches []*BracketMatch
	// Champion is set when a single entrant makes the bracket moot.
	Champion *uuid.UUID
}

func (p *Plan) RoundMatches(round int) []*BracketMatch {
	var out []*BracketMatch
	for _, m := range p.Matches {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}
