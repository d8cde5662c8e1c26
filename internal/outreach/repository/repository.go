package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outreach_backend/platform/apperr"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateNotFoundMsg = "template not found"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository provides database operations for email templates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new templates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Template struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Persona   *string
	Subject   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TemplateUpdate struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     *string
	Persona  *string
	Subject  *string
	Body     *string
}

const templateColumns = `id, tenant_id, name, persona, subject, body, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Persona, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *Repository) Create(ctx context.Context, t Template) (Template, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO email_templates (id, tenant_id, name, persona, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+templateColumns,
		t.ID, t.TenantID, t.Name, t.Persona, t.Subject, t.Body,
	)
	created, err := scanTemplate(row)
	if err != nil {
		return Template{}, fmt.Errorf("create template: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Template, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return Template{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// FindForPersona returns the most recently updated template targeting
// persona, falling back to one without a persona.
func (r *Repository) FindForPersona(ctx context.Context, tenantID uuid.UUID, persona string) (Template, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM email_templates
		WHERE tenant_id = $1 AND (persona = $2 OR persona IS NULL)
		ORDER BY (persona IS NULL), updated_at DESC
		LIMIT 1`, tenantID, persona)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return Template{}, fmt.Errorf("find template: %w", err)
	}
	return t, nil
}

func (r *Repository) Update(ctx context.Context, u TemplateUpdate) (Template, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE email_templates SET
			name = COALESCE($3, name),
			persona = CASE WHEN $4::text IS NULL THEN persona WHEN $4::text = '' THEN NULL ELSE $4::text END,
			subject = COALESCE($5, subject),
			body = COALESCE($6, body),
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+templateColumns,
		u.TenantID, u.ID, u.Name, u.Persona, u.Subject, u.Body,
	)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return Template{}, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMsg)
	}
	return nil
}

// List returns templates ordered by name, optionally restricted to one persona.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, persona string) ([]Template, error) {
	query := psql.Select(templateColumns).
		From("email_templates").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("name ASC", "id ASC")
	if persona != "" {
		query = query.Where(sq.Eq{"persona": persona})
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build template list: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	items := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return items, nil
}
