package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrPlatformRejected reports a non-OK answer from the review platform.
var ErrPlatformRejected = errors.New("platform rejected the request")

// GoogleReview is one review as returned by the Google APIs.
type GoogleReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

// PlaceDetails is the slice of a place details answer the importer needs.
type PlaceDetails struct {
	Name    string
	Reviews []GoogleReview
}

// GoogleClient fetches reviews for a place, either with a direct API key
// or with an OAuth access token.
type GoogleClient interface {
	FetchWithAPIKey(ctx context.Context, placeID, apiKey string) (*PlaceDetails, error)
	FetchWithToken(ctx context.Context, placeID, accessToken string) (*PlaceDetails, error)
}

const defaultGoogleBaseURL = "https://maps.googleapis.com"

// HTTPGoogleClient talks to the Google Places API over HTTP.
type HTTPGoogleClient struct {
	baseURL string
	client  *http.Client
}

// NewGoogleClient creates a client against the public Google API.
func NewGoogleClient() *HTTPGoogleClient {
	return &HTTPGoogleClient{
		baseURL: defaultGoogleBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewGoogleClientWithBaseURL creates a client against a custom endpoint.
// Tests point this at a local server.
func NewGoogleClientWithBaseURL(baseURL string) *HTTPGoogleClient {
	return &HTTPGoogleClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Name    string         `json:"name"`
		Reviews []GoogleReview `json:"reviews"`
	} `json:"result"`
}

// FetchWithAPIKey loads place details using a caller-supplied API key.
func (c *HTTPGoogleClient) FetchWithAPIKey(ctx context.Context, placeID, apiKey string) (*PlaceDetails, error) {
	endpoint := fmt.Sprintf("%s/maps/api/place/details/json?place_id=%s&fields=name,reviews&key=%s",
		c.baseURL, url.QueryEscape(placeID), url.QueryEscape(apiKey))
	return c.fetch(ctx, endpoint, "")
}

// FetchWithToken loads place details using an OAuth bearer token.
func (c *HTTPGoogleClient) FetchWithToken(ctx context.Context, placeID, accessToken string) (*PlaceDetails, error) {
	endpoint := fmt.Sprintf("%s/maps/api/place/details/json?place_id=%s&fields=name,reviews",
		c.baseURL, url.QueryEscape(placeID))
	return c.fetch(ctx, endpoint, accessToken)
}

func (c *HTTPGoogleClient) fetch(ctx context.Context, endpoint, bearer string) (*PlaceDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build platform request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrPlatformRejected, resp.StatusCode)
	}

	var body placeDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode platform response: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("%w: %s %s", ErrPlatformRejected, body.Status, body.ErrorMessage)
	}

	return &PlaceDetails{
		Name:    body.Result.Name,
		Reviews: body.Result.Reviews,
	}, nil
}
