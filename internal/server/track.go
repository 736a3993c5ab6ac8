package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/track"
)

// handleTrackClick resolves the token from a tracking URL, stamps the
// click and redirects the browser to the review destination.
func (s *APIServer) handleTrackClick(c *gin.Context) {
	token := c.Query("token")

	destination, err := s.tracker.Click(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, track.ErrEmptyToken), errors.Is(err, track.ErrTokenNotFound):
			respondError(c, apierrors.ErrInvalidTrackingTokenError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.Redirect(http.StatusFound, destination)
}

// handleTrackClickByID serves review links issued before token tracking,
// which embed the record id in the path.
func (s *APIServer) handleTrackClickByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrInvalidTrackingTokenError)
		return
	}

	destination, err := s.tracker.ClickByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, track.ErrTokenNotFound) {
			respondError(c, apierrors.ErrRequestNotFoundError)
			return
		}
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.Redirect(http.StatusFound, destination)
}
