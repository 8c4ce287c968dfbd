package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database representation of a user account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Photo        string    `bun:"photo,nullzero"`
	Phone        string    `bun:"phone,nullzero"`
	Bio          string    `bun:"bio,nullzero"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ResetToken holds the hash of an outstanding password reset token.
// The unique constraint on user_id enforces at most one live token per user
// even across concurrent process instances.
type ResetToken struct {
	bun.BaseModel `bun:"table:reset_tokens,alias:rt"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull,unique"`
	TokenHash string    `bun:"token_hash,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// Product is the database representation of an inventory item.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID        uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Name          string    `bun:"name,notnull"`
	SKU           string    `bun:"sku,nullzero"`
	Category      string    `bun:"category,notnull"`
	Quantity      int64     `bun:"quantity,notnull"`
	Price         float64   `bun:"price,notnull"`
	Description   string    `bun:"description,nullzero"`
	ImageFileName string    `bun:"image_file_name,nullzero"`
	ImageFilePath string    `bun:"image_file_path,nullzero"`
	ImageKey      string    `bun:"image_key,nullzero"`
	ImageFileType string    `bun:"image_file_type,nullzero"`
	ImageFileSize string    `bun:"image_file_size,nullzero"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
