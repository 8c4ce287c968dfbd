package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"inventory-api/internal/database"
)

// BunResetTokenRepository persists reset tokens in Postgres.
type BunResetTokenRepository struct {
	db *bun.DB
}

func NewBunResetTokenRepository(db *bun.DB) *BunResetTokenRepository {
	return &BunResetTokenRepository{db: db}
}

// Create stores a reset token record.
func (r *BunResetTokenRepository) Create(ctx context.Context, token *ResetToken) error {
	dbToken := &database.ResetToken{
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return nil
}

// FindValidByHash retrieves a reset token by hash, filtering out expired
// records at the query level so a stale token behaves exactly like a
// missing one.
func (r *BunResetTokenRepository) FindValidByHash(ctx context.Context, tokenHash string, now time.Time) (*ResetToken, error) {
	dbToken := new(database.ResetToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("token_hash = ?", tokenHash).
		Where("expires_at > ?", now).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return mapDBResetTokenToModel(dbToken), nil
}

// DeleteByUserID removes any reset token belonging to the user.
func (r *BunResetTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.ResetToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reset tokens for user: %w", err)
	}

	return nil
}

// DeleteByHash removes a consumed reset token.
func (r *BunResetTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.NewDelete().
		Model((*database.ResetToken)(nil)).
		Where("token_hash = ?", tokenHash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	return nil
}

// mapDBResetTokenToModel converts the database model to the domain model.
func mapDBResetTokenToModel(dbt *database.ResetToken) *ResetToken {
	return &ResetToken{
		ID:        dbt.ID,
		UserID:    dbt.UserID,
		TokenHash: dbt.TokenHash,
		CreatedAt: dbt.CreatedAt,
		ExpiresAt: dbt.ExpiresAt,
	}
}
