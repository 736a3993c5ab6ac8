package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account owner. Identities are issued by an external
// identity provider; this row only anchors ownership and the admin flag.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
