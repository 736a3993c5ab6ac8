package models

import (
	"time"

	"github.com/google/uuid"
)

// GoogleAccount holds the OAuth tokens and business location for an owner's
// connected Google account. A row existing means the connection is in the
// Connected state; expiry without a refresh token means reconnect is required.
type GoogleAccount struct {
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	TokenExpiry  time.Time `json:"token_expiry" db:"token_expiry"`
	PlaceID      string    `json:"place_id" db:"place_id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
