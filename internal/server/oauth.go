package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/googleauth"
	"github.com/revlohq/revlo/internal/middleware"
)

// handleOAuthStart issues a new authorization URL for the owner
func (s *APIServer) handleOAuthStart(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	authURL, state, err := s.oauth.Start(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
		"state":    state,
	})
}

// handleOAuthCallback is the provider redirect target. The state param
// must match an issued state; a mismatch is fatal for the attempt.
func (s *APIServer) handleOAuthCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respondError(c, apierrors.NewValidationError("state and code are required"))
		return
	}

	if _, err := s.oauth.Callback(c.Request.Context(), state, code); err != nil {
		if errors.Is(err, googleauth.ErrStateMismatch) {
			respondError(c, apierrors.NewInvalidRequestError("Authorization state mismatch"))
			return
		}
		respondError(c, apierrors.ErrPlatformAPIFailureError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Google account connected"})
}

// handleOAuthUpdatePlace binds the connected account to a business
// location. Imports without an explicit place id fall back to this one.
func (s *APIServer) handleOAuthUpdatePlace(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	var req struct {
		PlaceID      string `json:"place_id"`
		BusinessName string `json:"business_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}
	if strings.TrimSpace(req.PlaceID) == "" {
		respondError(c, apierrors.NewValidationError("place_id is required"))
		return
	}

	if err := s.oauth.UpdatePlace(c.Request.Context(), ownerID, req.PlaceID, req.BusinessName); err != nil {
		if errors.Is(err, googleauth.ErrNotConnected) {
			respondError(c, apierrors.NewInvalidRequestError("No Google account connected"))
			return
		}
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Business location updated"})
}

// handleOAuthStatus reports the owner's connection state
func (s *APIServer) handleOAuthStatus(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	status, err := s.oauth.Status(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, status)
}

// handleOAuthDisconnect removes the owner's stored connection
func (s *APIServer) handleOAuthDisconnect(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	if err := s.oauth.Disconnect(c.Request.Context(), ownerID); err != nil {
		if errors.Is(err, googleauth.ErrNotConnected) {
			respondError(c, apierrors.NewInvalidRequestError("No Google account connected"))
			return
		}
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Google account disconnected"})
}
