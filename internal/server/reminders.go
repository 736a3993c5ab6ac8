package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/middleware"
)

// handleSweepOwner runs a reminder sweep over the calling owner's
// eligible requests.
func (s *APIServer) handleSweepOwner(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	result, err := s.reminders.SweepOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleSweepAll runs the all-owner sweep. The cron secret header
// authorizes this instead of a user session.
func (s *APIServer) handleSweepAll(c *gin.Context) {
	result, err := s.reminders.SweepAll(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, result)
}
