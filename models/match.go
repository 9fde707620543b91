package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusForfeit    MatchStatus = "forfeit"
)

type Match struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	TournamentID      uuid.UUID   `json:"tournament_id" db:"tournament_id"`
	RoundID           uuid.UUID   `json:"round_id" db:"round_id"`
	MatchNumber       int         `json:"match_number" db:"match_number"`
	Player1ID         *uuid.UUID  `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID         *uuid.UUID  `json:"player2_id,omitempty" db:"player2_id"`
	Status            MatchStatus `json:"status" db:"status"`
	WinnerID          *uuid.UUID  `json:"winner_id,omitempty" db:"winner_id"`
	Player1Score      *int        `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score      *int        `json:"player2_score,omitempty" db:"player2_score"`
	ResultEvidenceRef *string     `json:"-" db:"result_evidence_ref"`
	ResultUploadedBy  *uuid.UUID  `json:"result_uploaded_by,omitempty" db:"result_uploaded_by"`
	ResultVerifiedBy  *uuid.UUID  `json:"result_verified_by,omitempty" db:"result_verified_by"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`

	EvidenceURL *string  `json:"evidence_url,omitempty" db:"-"`
	Player1     *Entrant `json:"player1,omitempty" db:"-"`
	Player2     *Entrant `json:"player2,omitempty" db:"-"`
}

// IsDecided reports whether the match already has an authoritative outcome.
func (m *Match) IsDecided() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusForfeit
}

func (m *Match) HasPlayer(userID uuid.UUID) bool {
	return (m.Player1ID != nil && *m.Player1ID == userID) ||
		(m.Player2ID != nil && *m.Player2ID == userID)
}

// Opponent returns the other slot occupant, nil for a bye or an undetermined slot.
func (m *Match) Opponent(userID uuid.UUID) *uuid.UUID {
	switch {
	case m.Player1ID != nil && *m.Player1ID == userID:
		return m.Player2ID
	case m.Player2ID != nil && *m.Player2ID == userID:
		return m.Player1ID
	}
	return nil
}

// PlayerMatch - матч с точки зрения игрока (для личного кабинета).
type PlayerMatch struct {
	Match
	RoundNumber int     `json:"round_number" db:"round_number"`
	RoundName   string  `json:"round_name" db:"round_name"`
	Player1Name *string `json:"player1_name,omitempty" db:"player1_name"`
	Player2Name *string `json:"player2_name,omitempty" db:"player2_name"`
	WinnerName  *string `json:"winner_name,omitempty" db:"winner_name"`
}
