package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationMatchAssigned    NotificationType = "match_assigned"
	NotificationMatchResult      NotificationType = "match_result"
	NotificationTournamentUpdate NotificationType = "tournament_update"
	NotificationAdminMessage     NotificationType = "admin_message"
	NotificationSystem           NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Link      *string          `json:"link,omitempty" db:"link"`
	Read      bool             `json:"read" db:"read"`
	EmailedAt *time.Time       `json:"-" db:"emailed_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// PendingEmail - уведомление вместе с адресом получателя для рассылки.
type PendingEmail struct {
	Notification
	Email    string `db:"email"`
	FullName string `db:"full_name"`
}
