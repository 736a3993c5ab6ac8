package reminder

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/mailer"
	"github.com/revlohq/revlo/internal/models"
	"github.com/revlohq/revlo/internal/monitoring"
	"github.com/revlohq/revlo/internal/template"
)

// Default reminder email used when the sweep sends a follow-up.
const (
	DefaultReminderSubject = "Still happy to hear from you, {{name}}!"
	defaultReminderBody    = `<p>Hi {{name}},</p>` +
		`<p>Just a gentle nudge. We'd still love to hear about your experience.</p>` +
		`<p><a href="{{link}}">Leave a review</a></p>` +
		`<p>Thank you!</p>`
)

// Eligible reports whether a sent request qualifies for a reminder at the
// given time. A request qualifies when it was never clicked, never
// reminded, and is older than the threshold.
func Eligible(sentAt time.Time, clickedAt, reminderSentAt *time.Time, now time.Time, threshold time.Duration) bool {
	if clickedAt != nil || reminderSentAt != nil {
		return false
	}
	return sentAt.Before(now.Add(-threshold))
}

// Service runs reminder sweeps over sent requests
type Service struct {
	db        *pgxpool.Pool
	mailer    mailer.Sender
	baseURL   string
	threshold time.Duration
}

// NewService creates a new reminder service
func NewService(db *pgxpool.Pool, sender mailer.Sender, baseURL string, threshold time.Duration) *Service {
	return &Service{
		db:        db,
		mailer:    sender,
		baseURL:   strings.TrimRight(baseURL, "/"),
		threshold: threshold,
	}
}

// SweepFailure records one reminder that could not be sent
type SweepFailure struct {
	RequestID uuid.UUID `json:"request_id"`
	Email     string    `json:"email"`
	Error     string    `json:"error"`
}

// SweepResult aggregates the outcome of one sweep run
type SweepResult struct {
	Scope     string         `json:"scope"`
	Total     int            `json:"total"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// SweepOwner sends reminders for one owner's eligible requests.
func (s *Service) SweepOwner(ctx context.Context, ownerID uuid.UUID) (*SweepResult, error) {
	candidates, err := s.candidates(ctx, &ownerID)
	if err != nil {
		return nil, err
	}
	result := s.process(ctx, "owner", candidates)
	logging.LogSweep(ownerID.String(), result.Sent, result.Failed, result.Total)
	return result, nil
}

// SweepAll sends reminders across all owners. Scheduled runs use this.
func (s *Service) SweepAll(ctx context.Context) (*SweepResult, error) {
	candidates, err := s.candidates(ctx, nil)
	if err != nil {
		return nil, err
	}
	result := s.process(ctx, "all", candidates)
	logging.LogSweep("all", result.Sent, result.Failed, result.Total)
	return result, nil
}

// candidate carries the fields needed to claim and send one reminder.
type candidate struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	Email      string
	ReviewLink string
	Token      string
}

func (s *Service) candidates(ctx context.Context, ownerID *uuid.UUID) ([]candidate, error) {
	cutoff := time.Now().Add(-s.threshold)

	query := `
		SELECT id, owner_id, name, email, review_link, token
		FROM sent_requests
		WHERE clicked_at IS NULL AND reminder_sent_at IS NULL AND sent_at < $1
	`
	args := []interface{}{cutoff}
	if ownerID != nil {
		query += ` AND owner_id = $2`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY sent_at ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder candidates: %w", err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.ReviewLink, &c.Token); err != nil {
			return nil, fmt.Errorf("failed to scan reminder candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder candidates: %w", err)
	}
	return out, nil
}

// process claims and sends each candidate, capturing per-item failures so
// one bad address never aborts the sweep.
func (s *Service) process(ctx context.Context, scope string, candidates []candidate) *SweepResult {
	result := &SweepResult{
		Scope:     scope,
		Total:     len(candidates),
		StartedAt: time.Now(),
	}

	for _, c := range candidates {
		sent, err := s.sendOne(ctx, c)
		if err != nil {
			monitoring.RecordReminderFailed()
			result.Failed++
			result.Failures = append(result.Failures, SweepFailure{
				RequestID: c.ID,
				Email:     logging.SanitizeForLog(c.Email, 64),
				Error:     err.Error(),
			})
			continue
		}
		if sent {
			monitoring.RecordReminderSent()
			result.Sent++
		}
	}

	result.Duration = time.Since(result.StartedAt)
	monitoring.RecordSweep(result.Total, result.Duration)
	return result
}

// sendOne claims the row, dispatches the reminder, and releases the claim
// if the dispatch fails. The conditional update makes concurrent sweeps
// safe: only one sweep can claim a given row.
func (s *Service) sendOne(ctx context.Context, c candidate) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE sent_requests
		SET reminder_sent_at = NOW(), status = $1
		WHERE id = $2 AND clicked_at IS NULL AND reminder_sent_at IS NULL
	`, models.RequestStatusReminderSent, c.ID)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Claimed by a concurrent sweep, or clicked in the meantime.
		return false, nil
	}

	trackingURL := fmt.Sprintf("%s/track-click?token=%s", s.baseURL, url.QueryEscape(c.Token))
	data := template.RenderData{Name: c.Name, Link: trackingURL}

	msg := mailer.Message{
		To:       c.Email,
		ToName:   c.Name,
		Subject:  template.Render(DefaultReminderSubject, data),
		HTMLBody: template.Render(defaultReminderBody, data),
		Kind:     "reminder",
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		// Release the claim so the next sweep retries this row.
		_, clearErr := s.db.Exec(ctx, `
			UPDATE sent_requests
			SET reminder_sent_at = NULL, status = $1
			WHERE id = $2
		`, models.RequestStatusSent, c.ID)
		if clearErr != nil {
			logging.LogError(clearErr, c.ID.String(), "reminder", "release_claim")
		}
		return false, fmt.Errorf("failed to send reminder: %w", err)
	}

	return true, nil
}
