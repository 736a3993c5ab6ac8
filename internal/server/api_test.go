package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/revlohq/revlo/internal/config"
	"github.com/revlohq/revlo/internal/middleware"
	"github.com/revlohq/revlo/internal/track"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key-for-jwt-testing-32chars"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:     "test",
			BaseURL: "http://localhost:8080",
		},
		JWT: config.JWTConfig{
			Secret: testSecret,
			Issuer: "revlo",
		},
		Reminder: config.ReminderConfig{
			Threshold:       48 * time.Hour,
			CronSecret:      "cron-secret",
			DefaultRedirect: "https://www.google.com",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// newTestServer builds a server with nil DB-backed services. Only routes
// that fail before touching the database are exercised here; the service
// packages cover the database paths.
func newTestServer() *APIServer {
	return NewAPIServer(testConfig(), nil, &Services{
		Tracker: track.NewService(nil, "https://www.google.com"),
	})
}

func createTestJWTToken(ownerID string, isAdmin bool, expiry time.Duration) string {
	now := time.Now()
	claims := &middleware.Claims{
		OwnerID: ownerID,
		Email:   "owner@example.com",
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "revlo",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(testSecret))
	return tokenString
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	srv := newTestServer()

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/review-requests"},
		{"GET", "/api/v1/review-requests"},
		{"POST", "/api/v1/reminders/send"},
		{"GET", "/api/v1/templates"},
		{"POST", "/api/v1/templates"},
		{"POST", "/api/v1/reviews/import/google"},
		{"GET", "/api/v1/reviews/external"},
		{"GET", "/api/v1/analytics/overview"},
		{"POST", "/api/v1/oauth/google/start"},
		{"PUT", "/api/v1/oauth/google/place"},
		{"GET", "/api/v1/oauth/google/status"},
		{"GET", "/api/v1/admin/stats"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()

			srv.Router().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401 without token, got %d", w.Code)
			}
		})
	}
}

func TestAdminRoute_RejectsNonAdmin(t *testing.T) {
	srv := newTestServer()

	token := createTestJWTToken(uuid.New().String(), false, 15*time.Minute)
	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}
}

func TestSweepAll_RequiresCronSecret(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/api/v1/reminders/run", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without cron secret, got %d", w.Code)
	}

	req2 := httptest.NewRequest("GET", "/api/v1/reminders/run", nil)
	req2.Header.Set("X-Cron-Secret", "wrong")
	w2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w2, req2)
	if w2.Code != http.StatusForbidden {
		t.Errorf("Expected 403 with wrong cron secret, got %d", w2.Code)
	}
}

func TestTrackClick_MissingToken(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/track-click", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing token, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error body did not parse: %v", err)
	}
	if body.Error.Message == "" {
		t.Error("Expected a human-readable error message")
	}
	if body.RequestID == "" {
		t.Error("Expected request_id in error body")
	}
}

func TestTrackClickByID_MalformedID(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/review-link/not-a-uuid", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", w.Code)
	}
}

func TestOAuthCallback_MissingParams(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/oauth/google/callback", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing state and code, got %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health check, got %d", w.Code)
	}
}
