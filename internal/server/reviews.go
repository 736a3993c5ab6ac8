package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/googleauth"
	"github.com/revlohq/revlo/internal/middleware"
	"github.com/revlohq/revlo/internal/models"
	"github.com/revlohq/revlo/internal/review"
)

// handleImportGoogle imports the owner's Google reviews, either through
// a caller-supplied API key or the stored OAuth connection.
func (s *APIServer) handleImportGoogle(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	var req review.ImportGoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	result, err := s.reviews.ImportGoogle(c.Request.Context(), ownerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrMissingPlaceID):
			respondError(c, apierrors.NewValidationError(err.Error()))
		case errors.Is(err, review.ErrNoReviews):
			respondError(c, apierrors.ErrNoReviewsFoundError)
		case errors.Is(err, googleauth.ErrNotConnected),
			errors.Is(err, googleauth.ErrReconnectRequired):
			respondError(c, apierrors.ErrReconnectRequiredError)
		case errors.Is(err, review.ErrPlatformRejected):
			respondError(c, apierrors.ErrPlatformAPIFailureError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleListExternal lists the owner's imported reviews
func (s *APIServer) handleListExternal(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)
	platform := models.Platform(c.Query("platform"))

	resp, err := s.reviews.ListExternal(c.Request.Context(), ownerID, platform)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleAnalyticsOverview returns the owner's request and review funnel
func (s *APIServer) handleAnalyticsOverview(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	overview, err := s.reviews.AnalyticsOverview(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, overview)
}
