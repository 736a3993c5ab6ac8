package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the third-party review platform a review was imported from
type Platform string

const (
	PlatformGoogle     Platform = "google"
	PlatformTrustpilot Platform = "trustpilot"
	PlatformFacebook   Platform = "facebook"
)

// ExternalReview represents a review imported from a third-party platform.
// (owner_id, platform, external_id) is unique; re-import upserts on that key.
type ExternalReview struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Platform    Platform  `json:"platform" db:"platform"`
	ExternalID  string    `json:"external_id" db:"external_id"`
	AuthorName  string    `json:"author_name" db:"author_name"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	ImportedAt  time.Time `json:"imported_at" db:"imported_at"`
}
