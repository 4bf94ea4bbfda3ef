package store

import (
	"context"
	"errors"
	"fmt"

	"sellerdesk-automation-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateTemplateParams contains parameters for creating templates.
// Variables is the placeholder set derived from Content at save time.
type CreateTemplateParams struct {
	Name      string
	Subject   *string
	Content   string
	Variables []string
}

// UpdateTemplateParams contains parameters for updating templates.
type UpdateTemplateParams struct {
	TemplateID uuid.UUID
	Name       string
	Subject    *string
	Content    string
	Variables  []string
}

const templateColumns = `id, name, subject, content, variables, usage_count, created_at, updated_at`

func scanTemplate(row pgx.Row) (domain.Template, error) {
	var t domain.Template
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Subject,
		&t.Content,
		&t.Variables,
		&t.UsageCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if t.Variables == nil {
		t.Variables = []string{}
	}
	return t, err
}

// CreateTemplate creates a new reply template.
func (s *DBStore) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (domain.Template, error) {
	variables := arg.Variables
	if variables == nil {
		variables = []string{}
	}

	query := `
    INSERT INTO templates (name, subject, content, variables)
    VALUES ($1, $2, $3, $4)
    RETURNING ` + templateColumns + `;
    `

	t, err := scanTemplate(s.pool.QueryRow(ctx, query, arg.Name, arg.Subject, arg.Content, variables))
	if err != nil {
		return domain.Template{}, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// GetTemplateByID fetches a single template.
func (s *DBStore) GetTemplateByID(ctx context.Context, templateID uuid.UUID) (domain.Template, error) {
	query := `
    SELECT ` + templateColumns + `
    FROM templates
    WHERE id = $1;
    `

	t, err := scanTemplate(s.pool.QueryRow(ctx, query, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Template{}, ErrTemplateNotFound
		}
		return domain.Template{}, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates, most recently updated first.
func (s *DBStore) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	query := `
    SELECT ` + templateColumns + `
    FROM templates
    ORDER BY updated_at DESC;
    `

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}

	return templates, nil
}

// UpdateTemplate updates a template's content and its derived variable set.
func (s *DBStore) UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) (domain.Template, error) {
	variables := arg.Variables
	if variables == nil {
		variables = []string{}
	}

	query := `
    UPDATE templates
    SET name = $1, subject = $2, content = $3, variables = $4, updated_at = now()
    WHERE id = $5
    RETURNING ` + templateColumns + `;
    `

	t, err := scanTemplate(s.pool.QueryRow(ctx, query, arg.Name, arg.Subject, arg.Content, variables, arg.TemplateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Template{}, ErrTemplateNotFound
		}
		return domain.Template{}, fmt.Errorf("db scan error: %w", err)
	}
	return t, nil
}

// IncrementTemplateUsage bumps the usage counter after a successful send.
func (s *DBStore) IncrementTemplateUsage(ctx context.Context, templateID uuid.UUID) error {
	query := `
    UPDATE templates
    SET usage_count = usage_count + 1, updated_at = now()
    WHERE id = $1;
    `

	cmdTag, err := s.pool.Exec(ctx, query, templateID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
