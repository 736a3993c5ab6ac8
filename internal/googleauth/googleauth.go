package googleauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/revlohq/revlo/internal/config"
	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/models"
)

// Service errors
var (
	ErrStateMismatch     = errors.New("oauth state mismatch")
	ErrNotConnected      = errors.New("google account not connected")
	ErrReconnectRequired = errors.New("google account reconnect required")
)

// stateTTL bounds how long an issued authorization state stays valid.
const stateTTL = 10 * time.Minute

const statePrefix = "oauth:state:"

// businessScope grants read access to the owner's business reviews.
const businessScope = "https://www.googleapis.com/auth/business.manage"

// googleEndpoint is the provider default; tests override it via SetEndpoint.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Service manages the OAuth connection lifecycle for owner Google accounts.
type Service struct {
	db     *pgxpool.Pool
	redis  *redis.Client
	oauth  *oauth2.Config
	logger zerolog.Logger
}

// NewService creates a new Google OAuth service
func NewService(db *pgxpool.Pool, redisClient *redis.Client, cfg *config.GoogleConfig) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{businessScope},
			Endpoint:     googleEndpoint,
		},
		logger: logging.NewLogger("googleauth"),
	}
}

// SetEndpoint overrides the provider endpoint. Tests point this at a
// local server.
func (s *Service) SetEndpoint(endpoint oauth2.Endpoint) {
	s.oauth.Endpoint = endpoint
}

// Start issues a new authorization attempt. The returned state is bound
// to the owner in redis for the TTL window and must round-trip through
// the provider redirect.
func (s *Service) Start(ctx context.Context, ownerID uuid.UUID) (authURL, state string, err error) {
	state, err = generateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate oauth state: %w", err)
	}

	if err := s.redis.Set(ctx, statePrefix+state, ownerID.String(), stateTTL).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL = s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	return authURL, state, nil
}

// Callback completes an authorization attempt. An unknown or expired
// state is fatal for the attempt and is never retried.
func (s *Service) Callback(ctx context.Context, state, code string) (uuid.UUID, error) {
	key := statePrefix + state
	ownerStr, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrStateMismatch
		}
		return uuid.Nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	// One-shot state: consumed whether or not the exchange succeeds.
	_ = s.redis.Del(ctx, key).Err()

	ownerID, err := uuid.Parse(ownerStr)
	if err != nil {
		return uuid.Nil, ErrStateMismatch
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := s.storeToken(ctx, ownerID, token); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info().Str("owner_id", ownerID.String()).Msg("Google account connected")
	return ownerID, nil
}

func (s *Service) storeToken(ctx context.Context, ownerID uuid.UUID, token *oauth2.Token) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO google_accounts (owner_id, access_token, refresh_token, token_expiry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE google_accounts.refresh_token END,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = NOW()
	`, ownerID, token.AccessToken, token.RefreshToken, token.Expiry)
	if err != nil {
		return fmt.Errorf("failed to store google tokens: %w", err)
	}
	return nil
}

// Account returns the stored connection for an owner
func (s *Service) Account(ctx context.Context, ownerID uuid.UUID) (*models.GoogleAccount, error) {
	var acc models.GoogleAccount
	err := s.db.QueryRow(ctx, `
		SELECT owner_id, access_token, refresh_token, token_expiry, COALESCE(place_id, ''), COALESCE(business_name, ''), updated_at
		FROM google_accounts
		WHERE owner_id = $1
	`, ownerID).Scan(
		&acc.OwnerID, &acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiry,
		&acc.PlaceID, &acc.BusinessName, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("failed to load google account: %w", err)
	}
	return &acc, nil
}

// UpdatePlace binds the connected account to a business location
func (s *Service) UpdatePlace(ctx context.Context, ownerID uuid.UUID, placeID, businessName string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE google_accounts
		SET place_id = $1, business_name = $2, updated_at = NOW()
		WHERE owner_id = $3
	`, placeID, businessName, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConnected
	}
	return nil
}

// ValidAccessToken returns a usable access token for the owner, refreshing
// once when expired. Expiry without a refresh token, or a failed refresh,
// moves the connection back to disconnected from the caller's view.
func (s *Service) ValidAccessToken(ctx context.Context, ownerID uuid.UUID) (accessToken, placeID string, err error) {
	acc, err := s.Account(ctx, ownerID)
	if err != nil {
		return "", "", err
	}

	if acc.TokenExpiry.After(time.Now().Add(time.Minute)) {
		return acc.AccessToken, acc.PlaceID, nil
	}

	if acc.RefreshToken == "" {
		return "", "", ErrReconnectRequired
	}

	src := s.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: acc.RefreshToken,
		Expiry:       acc.TokenExpiry,
	})
	token, err := src.Token()
	if err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("Token refresh failed")
		return "", "", ErrReconnectRequired
	}

	if err := s.storeToken(ctx, ownerID, token); err != nil {
		return "", "", err
	}

	return token.AccessToken, acc.PlaceID, nil
}

// ConnectionStatus reports the owner-visible connection state
type ConnectionStatus struct {
	Connected    bool       `json:"connected"`
	BusinessName string     `json:"business_name,omitempty"`
	PlaceID      string     `json:"place_id,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
}

// Status returns the connection status for an owner
func (s *Service) Status(ctx context.Context, ownerID uuid.UUID) (*ConnectionStatus, error) {
	acc, err := s.Account(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			return &ConnectionStatus{Connected: false}, nil
		}
		return nil, err
	}
	expiry := acc.TokenExpiry
	return &ConnectionStatus{
		Connected:    true,
		BusinessName: acc.BusinessName,
		PlaceID:      acc.PlaceID,
		TokenExpiry:  &expiry,
	}, nil
}

// Disconnect removes the stored connection
func (s *Service) Disconnect(ctx context.Context, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM google_accounts WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to disconnect google account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConnected
	}
	return nil
}

func generateState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
