package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	contactNotFoundMsg  = "contact not found"
	duplicateEmailMsg   = "a contact with this email already exists"
	unknownCompanyMsg   = "company not found"
	defaultRelationship = "cold"
	defaultStage        = "new"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository provides database operations for contacts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contacts repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Contact struct {
	ID                    uuid.UUID
	TenantID              uuid.UUID
	CompanyID             *uuid.UUID
	CompanyName           *string
	CompanyDomain         *string
	FirstName             string
	LastName              string
	Email                 *string
	Phone                 *string
	Title                 *string
	Department            *string
	SeniorityLabel        *string
	LinkedInURL           *string
	City                  *string
	Country               *string
	Notes                 *string
	RelationshipTier      string
	PipelineStage         string
	Persona               *string
	SeniorityScore        *int
	BuyingPowerScore      *int
	UrgencyScore          *int
	RolePowerScore        *int
	CareerMomentumScore   *int
	CareerStabilityScore  *int
	BuyerLikelihoodScore  *int
	ReadinessScore        *int
	OpportunityScore      *int
	ScoreVersion          *string
	EnrichmentPayload     []byte
	EnrichedAt            *time.Time
	LastContactedAt       *time.Time
	NextContactAt         *time.Time
	NextContactOverrideAt *time.Time
	DoNotContactAgain     bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type ContactUpdate struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	CompanyID        *uuid.UUID
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Title            *string
	Department       *string
	LinkedInURL      *string
	City             *string
	Country          *string
	Notes            *string
	RelationshipTier *string
	PipelineStage    *string

	// ClearEmail and ClearPhone store NULL instead of keeping the old value.
	ClearEmail bool
	ClearPhone bool
}

// Scores is one full score set computed from a payload.
type Scores struct {
	Seniority       int
	BuyingPower     int
	Urgency         int
	RolePower       int
	CareerMomentum  int
	CareerStability int
	BuyerLikelihood int
	Readiness       int
	Opportunity     int
	Persona         string
	Department      string
	SeniorityLabel  string
	Version         string
}

// Enrichment is what an enrichment save writes onto a contact. Identity
// fields only fill gaps; scores and payload always replace.
type Enrichment struct {
	CompanyID   *uuid.UUID
	FirstName   string
	LastName    string
	Email       *string
	Phone       *string
	Title       *string
	LinkedInURL *string
	City        *string
	Country     *string
	Scores      Scores
	Payload     []byte
	EnrichedAt  time.Time
}

// Cadence is the complete follow-up state of a contact.
type Cadence struct {
	LastContactedAt *time.Time
	NextContactAt   *time.Time
	OverrideAt      *time.Time
	DoNotContact    bool
}

type ListParams struct {
	TenantID     uuid.UUID
	Search       string
	Stage        string
	Tier         string
	Persona      string
	CompanyID    *uuid.UUID
	MinReadiness *int
	DueBefore    *time.Time
	SortBy       string
	SortOrder    string
	Page         int
	PageSize     int
}

type ListResult struct {
	Items      []Contact
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// TenantDue is the number of due contacts of one tenant.
type TenantDue struct {
	TenantID uuid.UUID
	Count    int
}

// Cursor is a keyset position over (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

const contactColumns = `c.id, c.tenant_id, c.company_id, co.name, co.domain, c.first_name, c.last_name,
	c.email, c.phone, c.title, c.department, c.seniority_label, c.linkedin_url, c.city,
	c.country, c.notes, c.relationship_tier, c.pipeline_stage, c.persona,
	c.seniority_score, c.buying_power_score, c.urgency_score, c.role_power_score,
	c.career_momentum_score, c.career_stability_score, c.buyer_likelihood_score,
	c.readiness_score, c.opportunity_score, c.score_version, c.enrichment_payload,
	c.enriched_at, c.last_contacted_at, c.next_contact_at, c.next_contact_override_at,
	c.do_not_contact_again, c.created_at, c.updated_at`

const contactFrom = `contacts c LEFT JOIN companies co ON co.id = c.company_id`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.TenantID, &c.CompanyID, &c.CompanyName, &c.CompanyDomain, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Title, &c.Department, &c.SeniorityLabel, &c.LinkedInURL, &c.City,
		&c.Country, &c.Notes, &c.RelationshipTier, &c.PipelineStage, &c.Persona,
		&c.SeniorityScore, &c.BuyingPowerScore, &c.UrgencyScore, &c.RolePowerScore,
		&c.CareerMomentumScore, &c.CareerStabilityScore, &c.BuyerLikelihoodScore,
		&c.ReadinessScore, &c.OpportunityScore, &c.ScoreVersion, &c.EnrichmentPayload,
		&c.EnrichedAt, &c.LastContactedAt, &c.NextContactAt, &c.NextContactOverrideAt,
		&c.DoNotContactAgain, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) Create(ctx context.Context, contact Contact) (Contact, error) {
	if contact.RelationshipTier == "" {
		contact.RelationshipTier = defaultRelationship
	}
	if contact.PipelineStage == "" {
		contact.PipelineStage = defaultStage
	}

	query := `
		INSERT INTO contacts (
			id, tenant_id, company_id, first_name, last_name, email, phone, title,
			department, linkedin_url, city, country, notes, relationship_tier,
			pipeline_stage, next_contact_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $17
		)`

	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.TenantID,
		contact.CompanyID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Title,
		contact.Department,
		contact.LinkedInURL,
		contact.City,
		contact.Country,
		contact.Notes,
		contact.RelationshipTier,
		contact.PipelineStage,
		contact.NextContactAt,
		time.Now().UTC(),
	)
	if err != nil {
		return Contact{}, translateWriteError("create contact", err)
	}

	return r.GetByID(ctx, contact.TenantID, contact.ID)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM ` + contactFrom + ` WHERE c.tenant_id = $1 AND c.id = $2`
	c, err := scanContact(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, apperr.NotFound(contactNotFoundMsg)
	}
	if err != nil {
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *Repository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM ` + contactFrom + ` WHERE c.tenant_id = $1 AND lower(c.email) = lower($2)`
	c, err := scanContact(r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, apperr.NotFound(contactNotFoundMsg)
	}
	if err != nil {
		return Contact{}, fmt.Errorf("get contact by email: %w", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, update ContactUpdate) (Contact, error) {
	query := `
		UPDATE contacts SET
			company_id = COALESCE($3, company_id),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			email = CASE WHEN $17::boolean THEN NULL ELSE COALESCE($6, email) END,
			phone = CASE WHEN $18::boolean THEN NULL ELSE COALESCE($7, phone) END,
			title = COALESCE($8, title),
			department = COALESCE($9, department),
			linkedin_url = COALESCE($10, linkedin_url),
			city = COALESCE($11, city),
			country = COALESCE($12, country),
			notes = COALESCE($13, notes),
			relationship_tier = COALESCE($14, relationship_tier),
			pipeline_stage = COALESCE($15, pipeline_stage),
			updated_at = $16
		WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query,
		update.TenantID,
		update.ID,
		update.CompanyID,
		update.FirstName,
		update.LastName,
		update.Email,
		update.Phone,
		update.Title,
		update.Department,
		update.LinkedInURL,
		update.City,
		update.Country,
		update.Notes,
		update.RelationshipTier,
		update.PipelineStage,
		time.Now().UTC(),
		update.ClearEmail,
		update.ClearPhone,
	)
	if err != nil {
		return Contact{}, translateWriteError("update contact", err)
	}
	if result.RowsAffected() == 0 {
		return Contact{}, apperr.NotFound(contactNotFoundMsg)
	}
	return r.GetByID(ctx, update.TenantID, update.ID)
}

// ApplyEnrichment writes a scored payload onto the contact.
func (r *Repository) ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e Enrichment) (Contact, error) {
	query := `
		UPDATE contacts SET
			company_id = COALESCE($3, company_id),
			first_name = CASE WHEN first_name = '' THEN $4 ELSE first_name END,
			last_name = CASE WHEN last_name = '' THEN $5 ELSE last_name END,
			email = COALESCE(email, $6),
			phone = COALESCE(phone, $7),
			title = COALESCE($8, title),
			linkedin_url = COALESCE(linkedin_url, $9),
			city = COALESCE($10, city),
			country = COALESCE($11, country),
			department = $12,
			seniority_label = $13,
			persona = $14,
			seniority_score = $15,
			buying_power_score = $16,
			urgency_score = $17,
			role_power_score = $18,
			career_momentum_score = $19,
			career_stability_score = $20,
			buyer_likelihood_score = $21,
			readiness_score = $22,
			opportunity_score = $23,
			score_version = $24,
			enrichment_payload = $25,
			enriched_at = $26,
			updated_at = $26
		WHERE tenant_id = $1 AND id = $2`

	s := e.Scores
	result, err := r.pool.Exec(ctx, query,
		tenantID, id,
		e.CompanyID, e.FirstName, e.LastName, e.Email, e.Phone, e.Title, e.LinkedInURL, e.City, e.Country,
		nullIfEmpty(s.Department), s.SeniorityLabel, s.Persona,
		s.Seniority, s.BuyingPower, s.Urgency, s.RolePower, s.CareerMomentum,
		s.CareerStability, s.BuyerLikelihood, s.Readiness, s.Opportunity, s.Version,
		e.Payload, e.EnrichedAt,
	)
	if err != nil {
		return Contact{}, translateWriteError("apply contact enrichment", err)
	}
	if result.RowsAffected() == 0 {
		return Contact{}, apperr.NotFound(contactNotFoundMsg)
	}
	return r.GetByID(ctx, tenantID, id)
}

// UpdateScores replaces only the score columns, used when rescoring a stored payload.
func (r *Repository) UpdateScores(ctx context.Context, tenantID, id uuid.UUID, s Scores) error {
	query := `
		UPDATE contacts SET
			department = $3, seniority_label = $4, persona = $5,
			seniority_score = $6, buying_power_score = $7, urgency_score = $8,
			role_power_score = $9, career_momentum_score = $10, career_stability_score = $11,
			buyer_likelihood_score = $12, readiness_score = $13, opportunity_score = $14,
			score_version = $15, updated_at = $16
		WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query,
		tenantID, id,
		nullIfEmpty(s.Department), s.SeniorityLabel, s.Persona,
		s.Seniority, s.BuyingPower, s.Urgency, s.RolePower, s.CareerMomentum, s.CareerStability,
		s.BuyerLikelihood, s.Readiness, s.Opportunity, s.Version, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update contact scores: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}

// SetCadence stores the complete follow-up state.
func (r *Repository) SetCadence(ctx context.Context, tenantID, id uuid.UUID, c Cadence) (Contact, error) {
	query := `
		UPDATE contacts SET
			last_contacted_at = $3,
			next_contact_at = $4,
			next_contact_override_at = $5,
			do_not_contact_again = $6,
			updated_at = $7
		WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query,
		tenantID, id, c.LastContactedAt, c.NextContactAt, c.OverrideAt, c.DoNotContact, time.Now().UTC(),
	)
	if err != nil {
		return Contact{}, fmt.Errorf("set contact cadence: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Contact{}, apperr.NotFound(contactNotFoundMsg)
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMsg)
	}
	return nil
}

// BulkDelete removes the given contacts and returns the ids that existed.
func (r *Repository) BulkDelete(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM contacts WHERE tenant_id = $1 AND id = ANY($2) RETURNING id`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk delete contacts: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("bulk delete contacts: %w", err)
	}
	return deleted, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	sortColumn, err := resolveSortBy(params.SortBy)
	if err != nil {
		return ListResult{}, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return ListResult{}, err
	}

	where := listFilter(params)
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("contacts c").Where(where).ToSql()
	if err != nil {
		return ListResult{}, fmt.Errorf("build contact count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count contacts: %w", err)
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	selectSQL, args, err := psql.Select(contactColumns).
		From(contactFrom).
		Where(where).
		OrderBy(sortColumn+" "+sortOrder+" NULLS LAST", "c.id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return ListResult{}, fmt.Errorf("build contact list: %w", err)
	}

	items, err := r.query(ctx, "list contacts", selectSQL, args...)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ListAll returns every contact matching the filters in list order, without paging.
func (r *Repository) ListAll(ctx context.Context, params ListParams) ([]Contact, error) {
	sortColumn, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}
	selectSQL, args, err := psql.Select(contactColumns).
		From(contactFrom).
		Where(listFilter(params)).
		OrderBy(sortColumn+" "+sortOrder+" NULLS LAST", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build contact export: %w", err)
	}
	return r.query(ctx, "list all contacts", selectSQL, args...)
}

// ListDue returns contacts whose next contact date is at or before `before`,
// most overdue first. Opted-out contacts are never due.
func (r *Repository) ListDue(ctx context.Context, tenantID uuid.UUID, before time.Time, limit int) ([]Contact, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + contactColumns + ` FROM ` + contactFrom + `
		WHERE c.tenant_id = $1 AND c.do_not_contact_again = false
			AND c.next_contact_at IS NOT NULL AND c.next_contact_at <= $2
		ORDER BY c.next_contact_at ASC, c.id ASC
		LIMIT $3`
	return r.query(ctx, "list due contacts", query, tenantID, before, limit)
}

// DueCounts counts due contacts per tenant.
func (r *Repository) DueCounts(ctx context.Context, before time.Time) ([]TenantDue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id, COUNT(*)
		FROM contacts
		WHERE do_not_contact_again = false AND next_contact_at IS NOT NULL AND next_contact_at <= $1
		GROUP BY tenant_id
		ORDER BY tenant_id`, before)
	if err != nil {
		return nil, fmt.Errorf("count due contacts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TenantDue, error) {
		var d TenantDue
		err := row.Scan(&d.TenantID, &d.Count)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("count due contacts: %w", err)
	}
	return out, nil
}

// ListWithPayload pages through every contact that has a stored enrichment
// payload, across tenants, ordered by (created_at, id).
func (r *Repository) ListWithPayload(ctx context.Context, after *Cursor, limit int) ([]Contact, error) {
	builder := psql.Select(contactColumns).
		From(contactFrom).
		Where(sq.NotEq{"c.enrichment_payload": nil}).
		OrderBy("c.created_at ASC", "c.id ASC").
		Limit(uint64(limit))
	if after != nil {
		builder = builder.Where(sq.Expr("(c.created_at, c.id) > (?, ?)", after.CreatedAt, after.ID))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payload page: %w", err)
	}
	return r.query(ctx, "list contacts with payload", query, args...)
}

func (r *Repository) query(ctx context.Context, op, query string, args ...interface{}) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return items, nil
}

func listFilter(params ListParams) sq.And {
	where := sq.And{sq.Eq{"c.tenant_id": params.TenantID}}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + search + "%"
		where = append(where, sq.Or{
			sq.ILike{"c.first_name": pattern},
			sq.ILike{"c.last_name": pattern},
			sq.ILike{"c.email": pattern},
			sq.ILike{"c.title": pattern},
			sq.Expr("(c.first_name || ' ' || c.last_name) ILIKE ?", pattern),
		})
	}
	if params.Stage != "" {
		where = append(where, sq.Eq{"c.pipeline_stage": strings.ToLower(params.Stage)})
	}
	if params.Tier != "" {
		where = append(where, sq.Eq{"c.relationship_tier": strings.ToLower(params.Tier)})
	}
	if params.Persona != "" {
		where = append(where, sq.Eq{"c.persona": params.Persona})
	}
	if params.CompanyID != nil {
		where = append(where, sq.Eq{"c.company_id": *params.CompanyID})
	}
	if params.MinReadiness != nil {
		where = append(where, sq.GtOrEq{"c.readiness_score": *params.MinReadiness})
	}
	if params.DueBefore != nil {
		where = append(where,
			sq.Eq{"c.do_not_contact_again": false},
			sq.LtOrEq{"c.next_contact_at": *params.DueBefore},
		)
	}
	return where
}

var sortColumns = map[string]string{
	"name":          "c.last_name",
	"readiness":     "c.readiness_score",
	"opportunity":   "c.opportunity_score",
	"createdAt":     "c.created_at",
	"nextContactAt": "c.next_contact_at",
}

func resolveSortBy(value string) (string, error) {
	if value == "" {
		return "c.created_at", nil
	}
	column, ok := sortColumns[value]
	if !ok {
		return "", apperr.BadRequest("invalid sort field")
	}
	return column, nil
}

func resolveSortOrder(value string) (string, error) {
	switch strings.ToLower(value) {
	case "", "desc":
		return "DESC", nil
	case "asc":
		return "ASC", nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func translateWriteError(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict(duplicateEmailMsg)
	case db.IsForeignKeyViolation(err):
		return apperr.Validation(unknownCompanyMsg)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
