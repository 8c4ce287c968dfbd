package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidResetToken deliberately covers both "never issued" and "expired"
// so callers cannot probe which tokens exist.
var ErrInvalidResetToken = errors.New("invalid or expired token")

const resetSecretLen = 32

// ResetToken represents a single outstanding password reset request.
// Only the SHA-256 hash of the user-facing value is ever persisted.
type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResetTokenService issues and consumes single-use, time-limited password
// reset tokens. At most one token is live per user: issuing a new one
// removes any prior token first.
type ResetTokenService struct {
	repo ResetTokenRepository
	ttl  time.Duration
}

func NewResetTokenService(repo ResetTokenRepository, ttl time.Duration) *ResetTokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResetTokenService{repo: repo, ttl: ttl}
}

// IssueFor generates a high-entropy reset token for the user, persists its
// hash with the expiry window, and returns the raw value for out-of-band
// delivery. The raw value is never stored.
func (s *ResetTokenService) IssueFor(ctx context.Context, userID uuid.UUID) (string, error) {
	secret := make([]byte, resetSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	// The user id suffix binds the raw token to its account.
	raw := hex.EncodeToString(secret) + userID.String()

	// Delete-before-create keeps at most one live token per user.
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return "", fmt.Errorf("failed to remove previous reset token: %w", err)
	}

	now := time.Now()
	token := &ResetToken{
		UserID:    userID,
		TokenHash: hashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return raw, nil
}

// Consume resolves a raw reset token to its user id. Unknown and expired
// tokens are indistinguishable: both return ErrInvalidResetToken.
func (s *ResetTokenService) Consume(ctx context.Context, raw string) (uuid.UUID, error) {
	token, err := s.repo.FindValidByHash(ctx, hashToken(raw), time.Now())
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return uuid.Nil, ErrInvalidResetToken
		}
		return uuid.Nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	return token.UserID, nil
}

// Invalidate removes a consumed token so it cannot be replayed.
func (s *ResetTokenService) Invalidate(ctx context.Context, raw string) error {
	return s.repo.DeleteByHash(ctx, hashToken(raw))
}

// hashToken returns the hex-encoded SHA-256 digest of a token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
