package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

// UserStatus отражает состояние проверки аккаунта администратором.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	EFootballID  string     `json:"efootball_id" db:"efootball_id"`
	Platform     string     `json:"platform" db:"platform"`
	Role         UserRole   `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Entrant - одобренный участник турнира в том виде, в котором он попадает в сетку.
type Entrant struct {
	ID                uuid.UUID `json:"id" db:"id"`
	DisplayName       string    `json:"display_name" db:"display_name"`
	ExternalAccountID string    `json:"external_account_id" db:"external_account_id"`
	Platform          string    `json:"platform" db:"platform"`
	RegisteredAt      time.Time `json:"registered_at" db:"registered_at"`
}

type PasswordReset struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Code      string     `db:"code"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}
