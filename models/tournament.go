package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира.
type TournamentStatus string

const (
	StatusRegistration      TournamentStatus = "registration"
	StatusBracketsGenerated TournamentStatus = "brackets_generated"
	StatusInProgress        TournamentStatus = "in_progress"
	StatusCompleted         TournamentStatus = "completed"
)

const FormatSingleElimination = "single_elimination"

// Tournament представляет турнир.
type Tournament struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	Name                 string           `json:"name" db:"name"`
	Slug                 string           `json:"slug" db:"slug"`
	Format               string           `json:"format" db:"format"`
	StartDate            time.Time        `json:"start_date" db:"start_date"`
	EndDate              time.Time        `json:"end_date" db:"end_date"`
	RegistrationDeadline time.Time        `json:"registration_deadline" db:"registration_deadline"`
	MaxPlayers           int              `json:"max_players" db:"max_players"`
	Status               TournamentStatus `json:"status" db:"status"`
	TotalRounds          *int             `json:"total_rounds,omitempty" db:"total_rounds"`
	ChampionID           *uuid.UUID       `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`

	Champion *Entrant `json:"champion,omitempty" db:"-"`
}

type Registration struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	TournamentID uuid.UUID `json:"tournament_id" db:"tournament_id"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}
