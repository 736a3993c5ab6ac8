package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/middleware"
	"github.com/revlohq/revlo/internal/request"
	"github.com/revlohq/revlo/internal/template"
)

// handleSendRequest sends a review request email on behalf of the owner
func (s *APIServer) handleSendRequest(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	var req request.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.requests.Send(c.Request.Context(), ownerID, &req)
	if err != nil {
		var unknown *template.UnknownPlaceholderError
		switch {
		case errors.Is(err, request.ErrMissingName),
			errors.Is(err, request.ErrMissingEmail),
			errors.Is(err, request.ErrInvalidEmail),
			errors.Is(err, request.ErrMissingReviewLink):
			respondError(c, apierrors.NewValidationError(err.Error()))
		case errors.As(err, &unknown):
			respondError(c, apierrors.NewValidationError(unknown.Error()))
		case errors.Is(err, template.ErrTemplateNotFound),
			errors.Is(err, template.ErrTemplateNotOwned):
			respondError(c, apierrors.ErrTemplateNotFoundError)
		case errors.Is(err, request.ErrSendFailed):
			respondError(c, apierrors.ErrMailRelayFailureError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// handleListRequests lists the owner's sent review requests
func (s *APIServer) handleListRequests(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	resp, err := s.requests.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}
