package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apierrors "github.com/revlohq/revlo/internal/errors"
	"github.com/revlohq/revlo/internal/middleware"
	"github.com/revlohq/revlo/internal/template"
)

func (s *APIServer) handleCreateTemplate(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	var req template.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	tmpl, err := s.templates.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tmpl)
}

func (s *APIServer) handleListTemplates(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	resp, err := s.templates.List(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *APIServer) handleGetTemplate(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrTemplateNotFoundError)
		return
	}

	tmpl, err := s.templates.Get(c.Request.Context(), ownerID, templateID)
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, tmpl)
}

func (s *APIServer) handleUpdateTemplate(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrTemplateNotFoundError)
		return
	}

	var req template.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	tmpl, err := s.templates.Update(c.Request.Context(), ownerID, templateID, &req)
	if err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, tmpl)
}

func (s *APIServer) handleDeleteTemplate(c *gin.Context) {
	ownerID := middleware.GetOwnerIDFromContext(c)

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.ErrTemplateNotFoundError)
		return
	}

	if err := s.templates.Delete(c.Request.Context(), ownerID, templateID); err != nil {
		respondTemplateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}

// respondTemplateError maps template service errors onto the API taxonomy
func respondTemplateError(c *gin.Context, err error) {
	var unknown *template.UnknownPlaceholderError
	switch {
	case errors.Is(err, template.ErrTemplateNotFound), errors.Is(err, template.ErrTemplateNotOwned):
		respondError(c, apierrors.ErrTemplateNotFoundError)
	case errors.As(err, &unknown):
		respondError(c, apierrors.NewValidationError(unknown.Error()))
	case errors.Is(err, template.ErrNameRequired):
		respondError(c, apierrors.NewValidationError(err.Error()))
	default:
		respondError(c, apierrors.ErrInternalServerError)
	}
}
