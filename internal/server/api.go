package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revlohq/revlo/internal/config"
	"github.com/revlohq/revlo/internal/database"
	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/googleauth"
	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/middleware"
	"github.com/revlohq/revlo/internal/monitoring"
	"github.com/revlohq/revlo/internal/reminder"
	"github.com/revlohq/revlo/internal/request"
	"github.com/revlohq/revlo/internal/review"
	"github.com/revlohq/revlo/internal/template"
	"github.com/revlohq/revlo/internal/track"
)

// APIServer represents the main API server
type APIServer struct {
	config           *config.Config
	router           *gin.Engine
	db               *pgxpool.Pool
	jwtAuthenticator *middleware.JWTAuthenticator

	requests  *request.Service
	tracker   *track.Service
	reminders *reminder.Service
	templates *template.Service
	reviews   *review.Service
	oauth     *googleauth.Service
}

// Services bundles the domain services the server routes to
type Services struct {
	Requests  *request.Service
	Tracker   *track.Service
	Reminders *reminder.Service
	Templates *template.Service
	Reviews   *review.Service
	OAuth     *googleauth.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer(cfg *config.Config, db *pgxpool.Pool, svcs *Services) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	srv := &APIServer{
		config:           cfg,
		router:           router,
		db:               db,
		jwtAuthenticator: middleware.NewJWTAuthenticator(&cfg.JWT),
		requests:         svcs.Requests,
		tracker:          svcs.Tracker,
		reminders:        svcs.Reminders,
		templates:        svcs.Templates,
		reviews:          svcs.Reviews,
		oauth:            svcs.OAuth,
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Public click tracking. These sit outside the versioned API because
	// the URLs land in recipient inboxes and must stay stable.
	s.router.GET("/track-click", s.handleTrackClick)
	s.router.GET("/review-link/:id", s.handleTrackClickByID)

	// OAuth provider redirect target (public, state-protected)
	s.router.GET("/oauth/google/callback", s.handleOAuthCallback)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Review request routes (protected)
		requests := v1.Group("/review-requests")
		requests.Use(s.jwtAuthenticator.JWTAuth())
		{
			requests.POST("", s.handleSendRequest)
			requests.GET("", s.handleListRequests)
		}

		// Reminder routes
		reminders := v1.Group("/reminders")
		{
			reminders.POST("/send", s.jwtAuthenticator.JWTAuth(), s.handleSweepOwner)
			reminders.GET("/run", middleware.CronAuth(s.config.Reminder.CronSecret), s.handleSweepAll)
		}

		// Template routes (protected)
		templates := v1.Group("/templates")
		templates.Use(s.jwtAuthenticator.JWTAuth())
		{
			templates.POST("", s.handleCreateTemplate)
			templates.GET("", s.handleListTemplates)
			templates.GET("/:id", s.handleGetTemplate)
			templates.PUT("/:id", s.handleUpdateTemplate)
			templates.DELETE("/:id", s.handleDeleteTemplate)
		}

		// External review routes (protected)
		reviews := v1.Group("/reviews")
		reviews.Use(s.jwtAuthenticator.JWTAuth())
		{
			reviews.POST("/import/google", s.handleImportGoogle)
			reviews.GET("/external", s.handleListExternal)
		}

		// Analytics routes (protected)
		analytics := v1.Group("/analytics")
		analytics.Use(s.jwtAuthenticator.JWTAuth())
		{
			analytics.GET("/overview", s.handleAnalyticsOverview)
		}

		// OAuth management routes (protected)
		oauth := v1.Group("/oauth/google")
		oauth.Use(s.jwtAuthenticator.JWTAuth())
		{
			oauth.POST("/start", s.handleOAuthStart)
			oauth.PUT("/place", s.handleOAuthUpdatePlace)
			oauth.GET("/status", s.handleOAuthStatus)
			oauth.DELETE("", s.handleOAuthDisconnect)
		}

		// Admin routes (protected - requires admin)
		admin := v1.Group("/admin")
		admin.Use(s.jwtAuthenticator.JWTAuth())
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/stats", s.handleAdminStats)
		}
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if s.db != nil {
		wrapped := &database.DB{Pool: s.db}
		if err := wrapped.Health(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "api",
	})
}

// handleAdminStats returns platform-wide counters for the admin view
func (s *APIServer) handleAdminStats(c *gin.Context) {
	var stats struct {
		Owners          int `json:"owners"`
		RequestsSent    int `json:"requests_sent"`
		Clicked         int `json:"clicked"`
		RemindersSent   int `json:"reminders_sent"`
		ExternalReviews int `json:"external_reviews"`
	}

	err := s.db.QueryRow(c.Request.Context(), `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM sent_requests),
			(SELECT COUNT(clicked_at) FROM sent_requests),
			(SELECT COUNT(reminder_sent_at) FROM sent_requests),
			(SELECT COUNT(*) FROM external_reviews)
	`).Scan(&stats.Owners, &stats.RequestsSent, &stats.Clicked, &stats.RemindersSent, &stats.ExternalReviews)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	c.JSON(err.HTTPStatus, apierrors.ErrorResponse{
		Error:     *err,
		RequestID: middleware.GetRequestIDFromContext(c),
	})
}
