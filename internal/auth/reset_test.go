package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memResetTokenRepo is an in-memory ResetTokenRepository keyed by token hash.
type memResetTokenRepo struct {
	tokens map[string]*ResetToken
}

func newMemResetTokenRepo() *memResetTokenRepo {
	return &memResetTokenRepo{tokens: make(map[string]*ResetToken)}
}

func (r *memResetTokenRepo) Create(ctx context.Context, token *ResetToken) error {
	cp := *token
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	r.tokens[cp.TokenHash] = &cp
	return nil
}

func (r *memResetTokenRepo) FindValidByHash(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok || !token.ExpiresAt.After(now) {
		return nil, ErrInvalidResetToken
	}
	cp := *token
	return &cp, nil
}

func (r *memResetTokenRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	for hash, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, hash)
		}
	}
	return nil
}

func (r *memResetTokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	delete(r.tokens, tokenHash)
	return nil
}

func TestResetTokenService_IssueStoresOnlyHash(t *testing.T) {
	repo := newMemResetTokenRepo()
	svc := NewResetTokenService(repo, 30*time.Minute)
	userID := uuid.New()

	raw, err := svc.IssueFor(context.Background(), userID)
	require.NoError(t, err)

	// Raw value is bound to the account by its user id suffix.
	assert.True(t, strings.HasSuffix(raw, userID.String()))

	require.Len(t, repo.tokens, 1)
	for hash, token := range repo.tokens {
		assert.NotEqual(t, raw, hash)
		assert.NotContains(t, hash, raw)
		assert.Equal(t, userID, token.UserID)
		assert.WithinDuration(t, token.CreatedAt.Add(30*time.Minute), token.ExpiresAt, time.Second)
	}
}

func TestResetTokenService_ReissueReplacesPriorToken(t *testing.T) {
	repo := newMemResetTokenRepo()
	svc := NewResetTokenService(repo, 30*time.Minute)
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.IssueFor(ctx, userID)
	require.NoError(t, err)
	second, err := svc.IssueFor(ctx, userID)
	require.NoError(t, err)

	assert.Len(t, repo.tokens, 1)

	_, err = svc.Consume(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	got, err := svc.Consume(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestResetTokenService_ConsumeUnknownToken(t *testing.T) {
	svc := NewResetTokenService(newMemResetTokenRepo(), 30*time.Minute)

	_, err := svc.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokenService_ExpiredLooksLikeUnknown(t *testing.T) {
	repo := newMemResetTokenRepo()
	svc := NewResetTokenService(repo, time.Nanosecond)
	ctx := context.Background()

	raw, err := svc.IssueFor(ctx, uuid.New())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, expiredErr := svc.Consume(ctx, raw)
	_, unknownErr := svc.Consume(ctx, "never-issued")

	assert.ErrorIs(t, expiredErr, ErrInvalidResetToken)
	assert.Equal(t, unknownErr, expiredErr)
}

func TestResetTokenService_InvalidatePreventsReplay(t *testing.T) {
	repo := newMemResetTokenRepo()
	svc := NewResetTokenService(repo, 30*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	raw, err := svc.IssueFor(ctx, userID)
	require.NoError(t, err)

	got, err := svc.Consume(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, svc.Invalidate(ctx, raw))

	_, err = svc.Consume(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
