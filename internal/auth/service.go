package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"inventory-api/internal/logging"
	"inventory-api/internal/user"
)

var (
	ErrMissingFields        = errors.New("please fill in all required fields")
	ErrPasswordTooShort     = errors.New("password must be at least 6 characters")
	ErrEmailTaken           = errors.New("email has already been registered")
	ErrMissingCredentials   = errors.New("please add email and password")
	ErrUserNotFound         = errors.New("user not found, please sign up")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrMissingPasswords     = errors.New("please add old and new password")
	ErrOldPasswordIncorrect = errors.New("old password is incorrect")
	ErrInvalidRecipient     = errors.New("invalid recipient email address")
	ErrEmailNotSent         = errors.New("email not sent, please try again")
)

const minPasswordLen = 6

// Service orchestrates registration, login and the credential lifecycle.
type Service struct {
	users       UserRepository
	resetTokens *ResetTokenService
	tokens      TokenService
	hasher      *PasswordHasher
	email       EmailSender
	logger      *logging.Logger
	frontendURL string
}

func NewService(
	users UserRepository,
	resetTokens *ResetTokenService,
	tokens TokenService,
	hasher *PasswordHasher,
	email EmailSender,
	logger *logging.Logger,
	frontendURL string,
) *Service {
	return &Service{
		users:       users,
		resetTokens: resetTokens,
		tokens:      tokens,
		hasher:      hasher,
		email:       email,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

// normalizeEmail trims and lowercases an address so uniqueness is
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and issues a session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*user.User, string, error) {
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if len(password) < minPasswordLen {
		return nil, "", ErrPasswordTooShort
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return newUser, token, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existing.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return existing, token, nil
}

// GetProfile returns the profile of an authenticated user.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// LoginStatus reports whether a token is currently valid. It never errors;
// an absent or invalid token is simply "not logged in".
func (s *Service) LoginStatus(token string) bool {
	if token == "" {
		return false
	}
	_, err := s.tokens.VerifyToken(token)
	return err == nil
}

// UpdateProfile applies a partial profile update. Absent fields keep their
// stored values.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd user.ProfileUpdate) (*user.User, error) {
	updated, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return updated, nil
}

// ChangePassword rehashes and persists a new password after verifying the
// old one against the stored hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if oldPassword == "" || newPassword == "" {
		return ErrMissingPasswords
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	if !s.hasher.Verify(existing.PasswordHash, oldPassword) {
		return ErrOldPasswordIncorrect
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, existing.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ForgotPassword issues a reset token and emails the reset link. The send is
// awaited: a delivery failure surfaces to the caller instead of leaving the
// user waiting for an email that never arrives.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	sendTo := strings.TrimSpace(existing.Email)
	if _, err := mail.ParseAddress(sendTo); err != nil {
		return ErrInvalidRecipient
	}

	raw, err := s.resetTokens.IssueFor(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/resetpassword/%s", s.frontendURL, raw)
	if err := s.email.SendPasswordReset(ctx, sendTo, existing.Name, resetURL); err != nil {
		s.logger.Error("failed to send password reset email", "email", sendTo, "error", err)
		return ErrEmailNotSent
	}

	return nil
}

// ResetPassword consumes a reset token and persists the new password. The
// token is removed in the same logical operation so it cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	userID, err := s.resetTokens.Consume(ctx, rawToken)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetTokens.Invalidate(ctx, rawToken); err != nil {
		// The password is already updated; a leftover hash row only matters
		// until its expiry, but log it.
		s.logger.Warn("failed to delete consumed reset token", "error", err)
	}

	return nil
}
