package request

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/mailer"
	"github.com/revlohq/revlo/internal/models"
	"github.com/revlohq/revlo/internal/monitoring"
	"github.com/revlohq/revlo/internal/template"
)

// Service errors
var (
	ErrMissingName       = errors.New("recipient name is required")
	ErrMissingEmail      = errors.New("recipient email is required")
	ErrInvalidEmail      = errors.New("recipient email is not a valid address")
	ErrMissingReviewLink = errors.New("review link is required")
	ErrSendFailed        = errors.New("failed to dispatch review request email")
)

// tokenBytes yields a 22-character URL-safe token once encoded.
const tokenBytes = 16

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// Service handles review request sending and listing
type Service struct {
	db        *pgxpool.Pool
	mailer    mailer.Sender
	templates *template.Service
	baseURL   string
}

// NewService creates a new review request service
func NewService(db *pgxpool.Pool, sender mailer.Sender, templates *template.Service, baseURL string) *Service {
	return &Service{
		db:        db,
		mailer:    sender,
		templates: templates,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// SendRequest represents a request to send a review request email
type SendRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ReviewLink string `json:"review_link"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	// TemplateID selects a stored template when subject/body are empty.
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
}

// SendResponse represents the result of a successful send
type SendResponse struct {
	Request     *models.SentRequest `json:"request"`
	TrackingURL string              `json:"tracking_url"`
}

// ListRequestsResponse represents the response for listing sent requests
type ListRequestsResponse struct {
	Requests []models.SentRequest `json:"requests"`
	Total    int                  `json:"total"`
}

// Validate checks the send request fields
func (r *SendRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.ReviewLink) == "" {
		return ErrMissingReviewLink
	}
	return nil
}

// Send validates the request, persists a tracked send record and
// dispatches the email. The record is persisted before dispatch so that a
// relay failure still leaves an auditable row; no rollback is attempted.
func (s *Service) Send(ctx context.Context, ownerID uuid.UUID, req *SendRequest) (*SendResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	subject, body, err := s.resolveContent(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	record, err := s.insertWithToken(ctx, ownerID, req, subject, body)
	if err != nil {
		return nil, err
	}

	trackingURL := s.TrackingURL(record.Token)
	data := template.RenderData{Name: req.Name, Link: trackingURL}

	msg := mailer.Message{
		To:       req.Email,
		ToName:   req.Name,
		Subject:  template.Render(subject, data),
		HTMLBody: template.Render(body, data),
		Kind:     "request",
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		// The row stays in place as an auditable pending record.
		logging.LogError(err, record.ID.String(), "request", "send")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	monitoring.RecordRequestSent()
	logging.LogSend("", ownerID.String(), logging.SanitizeForLog(req.Email, 64), record.ID.String())

	return &SendResponse{
		Request:     record,
		TrackingURL: trackingURL,
	}, nil
}

// TrackingURL builds the public click-tracking URL for a token.
func (s *Service) TrackingURL(token string) string {
	return fmt.Sprintf("%s/track-click?token=%s", s.baseURL, url.QueryEscape(token))
}

// resolveContent picks subject and body from, in order: the request
// itself, a named stored template, or the built-in default.
func (s *Service) resolveContent(ctx context.Context, ownerID uuid.UUID, req *SendRequest) (string, string, error) {
	subject := req.Subject
	body := req.Body

	if subject == "" && body == "" && req.TemplateID != nil {
		tmpl, err := s.templates.Get(ctx, ownerID, *req.TemplateID)
		if err != nil {
			return "", "", err
		}
		subject = tmpl.Subject
		body = tmpl.Body
	}

	if subject == "" {
		subject = template.DefaultSubject
	}
	if body == "" {
		body = template.DefaultBody
	}

	if err := template.Validate(subject); err != nil {
		return "", "", err
	}
	if err := template.Validate(body); err != nil {
		return "", "", err
	}

	return subject, body, nil
}

// insertWithToken persists a SENT row, regenerating the token on the
// unlikely unique collision.
func (s *Service) insertWithToken(ctx context.Context, ownerID uuid.UUID, req *SendRequest, subject, body string) (*models.SentRequest, error) {
	for attempt := 0; attempt < 3; attempt++ {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tracking token: %w", err)
		}

		var record models.SentRequest
		err = s.db.QueryRow(ctx, `
			INSERT INTO sent_requests (owner_id, name, email, review_link, subject, body, token, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, owner_id, name, email, review_link, subject, body, token, status, sent_at, reminder_sent_at, clicked_at
		`, ownerID, req.Name, req.Email, req.ReviewLink, subject, body, token, models.RequestStatusSent).Scan(
			&record.ID, &record.OwnerID, &record.Name, &record.Email, &record.ReviewLink,
			&record.Subject, &record.Body, &record.Token, &record.Status,
			&record.SentAt, &record.ReminderSentAt, &record.ClickedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				continue
			}
			return nil, fmt.Errorf("failed to persist send record: %w", err)
		}
		return &record, nil
	}
	return nil, fmt.Errorf("failed to persist send record: token collisions exhausted retries")
}

// List returns all sent requests for an owner, newest first
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) (*ListRequestsResponse, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, email, review_link, subject, body, token, status, sent_at, reminder_sent_at, clicked_at
		FROM sent_requests
		WHERE owner_id = $1
		ORDER BY sent_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	defer rows.Close()

	var requests []models.SentRequest
	for rows.Next() {
		var r models.SentRequest
		err := rows.Scan(
			&r.ID, &r.OwnerID, &r.Name, &r.Email, &r.ReviewLink,
			&r.Subject, &r.Body, &r.Token, &r.Status,
			&r.SentAt, &r.ReminderSentAt, &r.ClickedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sent request: %w", err)
		}
		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent requests: %w", err)
	}

	return &ListRequestsResponse{
		Requests: requests,
		Total:    len(requests),
	}, nil
}

// generateToken returns a URL-safe random tracking token.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
