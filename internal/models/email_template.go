package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailTemplate represents a reusable review-request email template.
// Subject and body may contain {{name}} and {{link}} placeholders that are
// substituted at send time.
type EmailTemplate struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
