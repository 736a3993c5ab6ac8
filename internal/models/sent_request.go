package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the delivery status of a review request
type RequestStatus string

const (
	RequestStatusSent         RequestStatus = "SENT"
	RequestStatusReminderSent RequestStatus = "REMINDER_SENT"
)

// SentRequest represents a single outbound review-request email and its
// tracked lifecycle. The token is unique and immutable once issued;
// clicked_at and reminder_sent_at are each set at most once.
type SentRequest struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OwnerID        uuid.UUID     `json:"owner_id" db:"owner_id"`
	Name           string        `json:"name" db:"name"`
	Email          string        `json:"email" db:"email"`
	ReviewLink     string        `json:"review_link" db:"review_link"`
	Subject        string        `json:"subject" db:"subject"`
	Body           string        `json:"body" db:"body"`
	Token          string        `json:"token" db:"token"`
	Status         RequestStatus `json:"status" db:"status"`
	SentAt         time.Time     `json:"sent_at" db:"sent_at"`
	ReminderSentAt *time.Time    `json:"reminder_sent_at,omitempty" db:"reminder_sent_at"`
	ClickedAt      *time.Time    `json:"clicked_at,omitempty" db:"clicked_at"`
}
