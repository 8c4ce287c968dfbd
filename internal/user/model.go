package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	Photo        string    `json:"photo"`
	Phone        string    `json:"phone"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdate describes a partial profile update. A nil field keeps the
// stored value, a non-nil field overwrites it. Email is intentionally not
// updatable through this path.
type ProfileUpdate struct {
	Name  *string
	Photo *string
	Phone *string
	Bio   *string
}
