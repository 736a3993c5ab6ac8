package track

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/monitoring"
)

// Service errors
var (
	ErrTokenNotFound = errors.New("tracking token not found")
	ErrEmptyToken    = errors.New("tracking token is required")
)

// Service resolves tracking tokens to redirect destinations and stamps
// click-through times.
type Service struct {
	db              *pgxpool.Pool
	defaultRedirect string
}

// NewService creates a new click tracking service
func NewService(db *pgxpool.Pool, defaultRedirect string) *Service {
	return &Service{
		db:              db,
		defaultRedirect: defaultRedirect,
	}
}

// Click stamps the click time for a token and returns the redirect
// destination. The first click wins: a conditional update sets clicked_at
// only when unset, so concurrent or repeated clicks never move the
// original timestamp. Every valid token redirects to the same
// destination regardless of click order.
func (s *Service) Click(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}

	var reviewLink string
	err := s.db.QueryRow(ctx, `
		UPDATE sent_requests
		SET clicked_at = NOW()
		WHERE token = $1 AND clicked_at IS NULL
		RETURNING review_link
	`, token).Scan(&reviewLink)
	if err == nil {
		monitoring.RecordClickTracked()
		destination := s.destination(reviewLink)
		logging.LogClick(token, destination)
		return destination, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to stamp click: %w", err)
	}

	// Already clicked, or unknown token. Re-read to distinguish.
	err = s.db.QueryRow(ctx, `
		SELECT review_link FROM sent_requests WHERE token = $1
	`, token).Scan(&reviewLink)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}

	return s.destination(reviewLink), nil
}

// ClickByID stamps a click through the legacy per-record link, which
// carries the record id instead of the token.
func (s *Service) ClickByID(ctx context.Context, id uuid.UUID) (string, error) {
	var token string
	err := s.db.QueryRow(ctx, `
		SELECT token FROM sent_requests WHERE id = $1
	`, id).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to resolve record: %w", err)
	}
	return s.Click(ctx, token)
}

func (s *Service) destination(reviewLink string) string {
	if strings.TrimSpace(reviewLink) == "" {
		return s.defaultRedirect
	}
	return reviewLink
}
