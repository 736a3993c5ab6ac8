package template

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revlohq/revlo/internal/models"
)

// Service errors
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateNotOwned = errors.New("template does not belong to owner")
	ErrNameRequired     = errors.New("template name is required")
)

// Default template used when a send request names no template.
const (
	DefaultSubject = "We'd love your feedback!"
	DefaultBody    = `<p>Hi {{name}},</p>` +
		`<p>Thanks for choosing us. Would you take a minute to share your experience?</p>` +
		`<p><a href="{{link}}">Leave a review</a></p>` +
		`<p>It really helps. Thank you!</p>`
)

// placeholderPattern matches {{placeholder}} tokens in subjects and bodies.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// allowedPlaceholders is the closed set of substitution tokens.
var allowedPlaceholders = map[string]bool{
	"name": true,
	"link": true,
}

// UnknownPlaceholderError reports a placeholder outside the allowed set.
type UnknownPlaceholderError struct {
	Placeholder string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder {{%s}}", e.Placeholder)
}

// Validate checks that every placeholder in the text belongs to the
// allowed set. Returns an UnknownPlaceholderError for the first violation.
func Validate(text string) error {
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !allowedPlaceholders[match[1]] {
			return &UnknownPlaceholderError{Placeholder: match[1]}
		}
	}
	return nil
}

// RenderData carries the substitution values for one send.
type RenderData struct {
	Name string
	Link string
}

// Render substitutes every placeholder occurrence with its value.
// Text must have passed Validate; unknown placeholders are left untouched.
func Render(text string, data RenderData) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		sub := placeholderPattern.FindStringSubmatch(token)
		switch sub[1] {
		case "name":
			return data.Name
		case "link":
			return data.Link
		}
		return token
	})
}

// Service handles email template operations
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new template service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateTemplateRequest represents a request to create a template
type CreateTemplateRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UpdateTemplateRequest represents a request to update a template.
// Nil fields are left unchanged.
type UpdateTemplateRequest struct {
	Name    *string `json:"name,omitempty"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

// ListTemplatesResponse represents the response for listing templates
type ListTemplatesResponse struct {
	Templates []models.EmailTemplate `json:"templates"`
	Total     int                    `json:"total"`
}

// Create creates a new template for an owner
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateTemplateRequest) (*models.EmailTemplate, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if err := Validate(req.Subject); err != nil {
		return nil, err
	}
	if err := Validate(req.Body); err != nil {
		return nil, err
	}

	var tmpl models.EmailTemplate
	err := s.db.QueryRow(ctx, `
		INSERT INTO email_templates (owner_id, name, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_id, name, subject, body, created_at
	`, ownerID, req.Name, req.Subject, req.Body).Scan(
		&tmpl.ID, &tmpl.OwnerID, &tmpl.Name, &tmpl.Subject, &tmpl.Body, &tmpl.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return &tmpl, nil
}

// Get returns a single template owned by the given owner
func (s *Service) Get(ctx context.Context, ownerID, templateID uuid.UUID) (*models.EmailTemplate, error) {
	var tmpl models.EmailTemplate
	err := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, subject, body, created_at
		FROM email_templates
		WHERE id = $1
	`, templateID).Scan(
		&tmpl.ID, &tmpl.OwnerID, &tmpl.Name, &tmpl.Subject, &tmpl.Body, &tmpl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if tmpl.OwnerID != ownerID {
		return nil, ErrTemplateNotOwned
	}

	return &tmpl, nil
}

// List returns all templates for an owner, newest first
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) (*ListTemplatesResponse, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, subject, body, created_at
		FROM email_templates
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.EmailTemplate
	for rows.Next() {
		var tmpl models.EmailTemplate
		err := rows.Scan(&tmpl.ID, &tmpl.OwnerID, &tmpl.Name, &tmpl.Subject, &tmpl.Body, &tmpl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return &ListTemplatesResponse{
		Templates: templates,
		Total:     len(templates),
	}, nil
}

// Update updates the provided fields of a template
func (s *Service) Update(ctx context.Context, ownerID, templateID uuid.UUID, req *UpdateTemplateRequest) (*models.EmailTemplate, error) {
	existing, err := s.Get(ctx, ownerID, templateID)
	if err != nil {
		return nil, err
	}

	name := existing.Name
	subject := existing.Subject
	body := existing.Body

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrNameRequired
		}
		name = *req.Name
	}
	if req.Subject != nil {
		if err := Validate(*req.Subject); err != nil {
			return nil, err
		}
		subject = *req.Subject
	}
	if req.Body != nil {
		if err := Validate(*req.Body); err != nil {
			return nil, err
		}
		body = *req.Body
	}

	var tmpl models.EmailTemplate
	err = s.db.QueryRow(ctx, `
		UPDATE email_templates
		SET name = $1, subject = $2, body = $3
		WHERE id = $4 AND owner_id = $5
		RETURNING id, owner_id, name, subject, body, created_at
	`, name, subject, body, templateID, ownerID).Scan(
		&tmpl.ID, &tmpl.OwnerID, &tmpl.Name, &tmpl.Subject, &tmpl.Body, &tmpl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return &tmpl, nil
}

// Delete removes a template owned by the given owner
func (s *Service) Delete(ctx context.Context, ownerID, templateID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM email_templates
		WHERE id = $1 AND owner_id = $2
	`, templateID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
