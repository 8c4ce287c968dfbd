package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inventory-api/internal/user"
)

// TokenService issues and verifies signed session tokens.
// Implementations include JWTService (HS256) and PasetoService (v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID) (string, error)
	VerifyToken(tokenStr string) (uuid.UUID, error)
}

// UserRepository is the credential store boundary consumed by the auth service.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd user.ProfileUpdate) (*user.User, error)
}

// ResetTokenRepository is the reset token store boundary.
// Only the SHA-256 hash of a token ever reaches this interface.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *ResetToken) error
	FindValidByHash(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteByHash(ctx context.Context, tokenHash string) error
}

// EmailSender delivers password reset emails.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, toEmail, userName, resetURL string) error
}
