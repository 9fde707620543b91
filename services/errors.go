package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrInvalidEmail        = errors.New("email address is not valid")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidResetCode    = errors.New("password reset code is invalid or expired")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament registration is full")
	ErrUserNotPending      = errors.New("user is not awaiting approval")

	// Ошибки конфликтов
	ErrUserEmailConflict       = errors.New("email address is already registered")
	ErrUserEFootballIDConflict = errors.New("eFootball ID is already registered")
	ErrRegistrationConflict    = errors.New("user is already registered for this tournament")
	ErrTournamentSlugConflict  = errors.New("a tournament with this name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	ErrUserNotFound         = errors.New("user not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Сетка и результаты матчей
	ErrEmptyBracket            = errors.New("no approved entrants to build a bracket from")
	ErrBracketAlreadyGenerated = errors.New("bracket has already been generated for this tournament")
	ErrAlreadyCompleted        = errors.New("match result has already been recorded")
	ErrTiedScore               = errors.New("a match cannot end in a tie")
	ErrInvalidScore            = errors.New("scores must be non-negative")
	ErrNotAuthorizedForMatch   = errors.New("you are not a participant of this match")
	ErrMatchNotReady           = errors.New("match opponent has not been determined yet")
	ErrEvidenceRequired        = errors.New("a result screenshot is required")
	ErrInvalidEvidence         = errors.New("result screenshot must be a png, jpeg, gif or webp image")
	ErrEvidenceTooLarge        = errors.New("result screenshot is too large")
	ErrInvalidOverrideWinner   = errors.New("winner must be one of the match participants")
)
