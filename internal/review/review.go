package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/models"
	"github.com/revlohq/revlo/internal/monitoring"
)

// Service errors
var (
	ErrMissingPlaceID = errors.New("place id is required")
	ErrNoReviews      = errors.New("no reviews found for place")
)

// TokenProvider yields a valid OAuth access token for an owner.
// The googleauth service satisfies this.
type TokenProvider interface {
	ValidAccessToken(ctx context.Context, ownerID uuid.UUID) (accessToken, placeID string, err error)
}

// Service imports and serves external reviews
type Service struct {
	db     *pgxpool.Pool
	google GoogleClient
	tokens TokenProvider
}

// NewService creates a new review service
func NewService(db *pgxpool.Pool, google GoogleClient, tokens TokenProvider) *Service {
	return &Service{
		db:     db,
		google: google,
		tokens: tokens,
	}
}

// ImportGoogleRequest selects the import credentials. With an API key the
// import goes through the public API; without one the owner's stored
// OAuth connection is used.
type ImportGoogleRequest struct {
	PlaceID string `json:"place_id"`
	APIKey  string `json:"api_key,omitempty"`
}

// ImportResult summarizes one import run
type ImportResult struct {
	Message   string `json:"message"`
	Imported  int    `json:"imported"`
	Total     int    `json:"total"`
	PlaceName string `json:"place_name"`
}

// ImportGoogle fetches reviews for the owner's place and upserts them.
// Re-imports are idempotent: (owner, platform, external id) is the
// natural key.
func (s *Service) ImportGoogle(ctx context.Context, ownerID uuid.UUID, req *ImportGoogleRequest) (*ImportResult, error) {
	start := time.Now()

	details, err := s.fetch(ctx, ownerID, req)
	if err != nil {
		monitoring.RecordImportError(string(models.PlatformGoogle), "fetch")
		return nil, err
	}

	if len(details.Reviews) == 0 {
		return nil, ErrNoReviews
	}

	imported := 0
	for _, r := range details.Reviews {
		// The platform contract is a 1..5 star rating; anything else is
		// malformed payload and is dropped, not stored.
		if r.Rating < 1 || r.Rating > 5 {
			monitoring.RecordImportError(string(models.PlatformGoogle), "rating")
			continue
		}
		// Review time is the only stable identifier the API exposes.
		externalID := strconv.FormatInt(r.Time, 10)
		_, err := s.db.Exec(ctx, `
			INSERT INTO external_reviews (owner_id, platform, external_id, author_name, rating, comment, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (owner_id, platform, external_id) DO UPDATE SET
				author_name = EXCLUDED.author_name,
				rating = EXCLUDED.rating,
				comment = EXCLUDED.comment,
				imported_at = NOW()
		`, ownerID, models.PlatformGoogle, externalID, r.AuthorName, r.Rating, r.Text, time.Unix(r.Time, 0).UTC())
		if err != nil {
			monitoring.RecordImportError(string(models.PlatformGoogle), "upsert")
			return nil, fmt.Errorf("failed to upsert review: %w", err)
		}
		imported++
	}

	monitoring.RecordReviewsImported(string(models.PlatformGoogle), imported)
	monitoring.RecordImportDuration(string(models.PlatformGoogle), time.Since(start))
	logging.LogImport(ownerID.String(), string(models.PlatformGoogle), imported, len(details.Reviews))

	return &ImportResult{
		Message:   "Reviews imported successfully",
		Imported:  imported,
		Total:     len(details.Reviews),
		PlaceName: details.Name,
	}, nil
}

func (s *Service) fetch(ctx context.Context, ownerID uuid.UUID, req *ImportGoogleRequest) (*PlaceDetails, error) {
	if req.APIKey != "" {
		if req.PlaceID == "" {
			return nil, ErrMissingPlaceID
		}
		return s.google.FetchWithAPIKey(ctx, req.PlaceID, req.APIKey)
	}

	token, storedPlace, err := s.tokens.ValidAccessToken(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	placeID := req.PlaceID
	if placeID == "" {
		placeID = storedPlace
	}
	if placeID == "" {
		return nil, ErrMissingPlaceID
	}

	return s.google.FetchWithToken(ctx, placeID, token)
}

// ListExternalResponse represents the response for listing external reviews
type ListExternalResponse struct {
	Reviews []models.ExternalReview `json:"reviews"`
	Total   int                     `json:"total"`
}

// ListExternal returns an owner's imported reviews, newest first.
// Platform filters when non-empty.
func (s *Service) ListExternal(ctx context.Context, ownerID uuid.UUID, platform models.Platform) (*ListExternalResponse, error) {
	query := `
		SELECT id, owner_id, platform, external_id, author_name, rating, comment, published_at, imported_at
		FROM external_reviews
		WHERE owner_id = $1
	`
	args := []interface{}{ownerID}
	if platform != "" {
		query += ` AND platform = $2`
		args = append(args, platform)
	}
	query += ` ORDER BY published_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list external reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ExternalReview
	for rows.Next() {
		var r models.ExternalReview
		err := rows.Scan(
			&r.ID, &r.OwnerID, &r.Platform, &r.ExternalID, &r.AuthorName,
			&r.Rating, &r.Comment, &r.PublishedAt, &r.ImportedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan external review: %w", err)
		}
		reviews = append(reviews, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating external reviews: %w", err)
	}

	return &ListExternalResponse{
		Reviews: reviews,
		Total:   len(reviews),
	}, nil
}

// Overview aggregates an owner's request funnel and review health
type Overview struct {
	RequestsSent     int             `json:"requests_sent"`
	Clicked          int             `json:"clicked"`
	RemindersSent    int             `json:"reminders_sent"`
	ClickThroughRate decimal.Decimal `json:"click_through_rate"`
	ExternalReviews  int             `json:"external_reviews"`
	AverageRating    decimal.Decimal `json:"average_rating"`
}

// AnalyticsOverview computes the funnel counters for an owner.
func (s *Service) AnalyticsOverview(ctx context.Context, ownerID uuid.UUID) (*Overview, error) {
	overview := &Overview{}

	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(clicked_at),
			COUNT(reminder_sent_at)
		FROM sent_requests
		WHERE owner_id = $1
	`, ownerID).Scan(&overview.RequestsSent, &overview.Clicked, &overview.RemindersSent)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate requests: %w", err)
	}

	var ratingSum int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(rating), 0)
		FROM external_reviews
		WHERE owner_id = $1
	`, ownerID).Scan(&overview.ExternalReviews, &ratingSum)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	overview.ClickThroughRate = rate(overview.Clicked, overview.RequestsSent)
	overview.AverageRating = rate(ratingSum, overview.ExternalReviews)

	return overview, nil
}

// rate computes numerator/denominator rounded to two places, zero when
// the denominator is zero.
func rate(numerator, denominator int) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(numerator)).
		Div(decimal.NewFromInt(int64(denominator))).
		Round(2)
}
