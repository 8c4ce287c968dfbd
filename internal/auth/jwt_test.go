package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTService([]byte("too-short"), time.Hour)
	assert.Error(t, err)
}

func TestJWTService_CreateAndVerify(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService(testSecret, -time.Minute)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New())
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsTamperedToken(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New())
	require.NoError(t, err)

	_, err = svc.VerifyToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsForeignKey(t *testing.T) {
	issuer, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTService([]byte("another-secret-key-32-bytes-long"), time.Hour)
	require.NoError(t, err)

	token, err := issuer.CreateToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc, err := NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	for _, tokenStr := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.VerifyToken(tokenStr)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
