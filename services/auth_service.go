package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/Dosada05/efootball-cup/repositories"
	"github.com/Dosada05/efootball-cup/utils"
	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	minPasswordLength = 8
	resetCodeDigits   = 6
	ResetCodeTTL      = 15 * time.Minute
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	ApprovalStatus(ctx context.Context, email string) (models.UserStatus, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

type RegisterInput struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Phone       *string `json:"phone,omitempty"`
	EFootballID string  `json:"efootball_id"`
	Platform    string  `json:"platform"`
	// TournamentID registers the new account for a tournament right away.
	TournamentID *uuid.UUID `json:"tournament_id,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordInput struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type authService struct {
	db               *sqlx.DB
	userRepo         repositories.UserRepository
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	resetRepo        repositories.PasswordResetRepository
	notifier         Notifier
	email            *EmailService
	logger           *slog.Logger
}

func NewAuthService(
	db *sqlx.DB,
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	resetRepo repositories.PasswordResetRepository,
	notifier Notifier,
	email *EmailService,
	logger *slog.Logger,
) AuthService {
	return &authService{
		db:               db,
		userRepo:         userRepo,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		resetRepo:        resetRepo,
		notifier:         notifier,
		email:            email,
		logger:           logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	input.FullName = strings.TrimSpace(input.FullName)
	input.EFootballID = strings.TrimSpace(input.EFootballID)
	if input.FullName == "" || input.EFootballID == "" || input.Platform == "" {
		return nil, fmt.Errorf("%w: full_name, efootball_id and platform are required", ErrValidationFailed)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Phone:        utils.StringOrNil(strings.TrimSpace(utils.OrZero(input.Phone))),
		EFootballID:  input.EFootballID,
		Platform:     input.Platform,
		Role:         models.RolePlayer,
		Status:       models.UserStatusPending,
	}

	err = withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			switch {
			case errors.Is(err, repositories.ErrUserEmailConflict):
				return ErrUserEmailConflict
			case errors.Is(err, repositories.ErrUserEFootballIDConflict):
				return ErrUserEFootballIDConflict
			}
			return fmt.Errorf("ошибка создания пользователя: %w", err)
		}
		if input.TournamentID == nil {
			return nil
		}
		_, err := registerEntrant(ctx, tx, s.tournamentRepo, s.registrationRepo, user.ID, *input.TournamentID, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	s.notifier.Notify(ctx, user.ID, models.NotificationSystem,
		"Registration Received",
		"Your registration has been received and is pending admin approval.",
		nil)

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusRejected {
		return nil, ErrForbiddenOperation
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ApprovalStatus(ctx context.Context, email string) (models.UserStatus, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return user.Status, nil
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword emails a one-time code. An unknown email is not an error so
// that callers cannot tell which emails are registered.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}

	code, err := utils.GenerateNumericCode(resetCodeDigits)
	if err != nil {
		return err
	}
	reset := &models.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(ResetCodeTTL),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.email.SendPasswordResetCode(ctx, user.Email, user.FullName, code, ResetCodeTTL); err != nil {
		s.logger.Error("failed to send password reset code", slog.String("user_id", user.ID.String()), slog.Any("error", err))
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}

	reset, err := s.resetRepo.GetLatestUnused(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrPasswordResetNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if time.Now().After(reset.ExpiresAt) ||
		subtle.ConstantTimeCompare([]byte(reset.Code), []byte(strings.TrimSpace(input.Code))) != 1 {
		return ErrInvalidResetCode
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	return withTx(ctx, s.db, s.logger, func(tx *sqlx.Tx) error {
		if err := s.resetRepo.MarkUsed(ctx, tx, reset.ID, time.Now().UTC()); err != nil {
			if errors.Is(err, repositories.ErrPasswordResetUsed) {
				return ErrInvalidResetCode
			}
			return err
		}
		return s.userRepo.UpdatePassword(ctx, tx, user.ID, hash)
	})
}

// EnsureAdmin creates the bootstrap administrator if no account uses email yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if err := validatePassword(password); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		EFootballID:  "admin:" + email,
		Platform:     "n/a",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusApproved,
	}
	if err := s.userRepo.Create(ctx, nil, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("admin account created", slog.String("email", email))
	return nil
}
