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

const companyNotFoundMsg = "company not found"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository provides database operations for companies.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new companies repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Company struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	Name                string
	Domain              *string
	WebsiteURL          *string
	Industry            *string
	Headcount           *int
	AnnualRevenue       *int64
	TotalFunding        *int64
	LatestFundingStage  *string
	LatestFundingAt     *time.Time
	FoundedYear         *int
	PublicTicker        *string
	HealthScore         *int
	GrowthScore         *int
	StabilityScore      *int
	MarketPositionScore *int
	ReadinessScore      *int
	PositioningCategory *string
	PositioningIndustry *string
	PositioningLabel    *string
	Competitors         []string
	RevenueTier         *string
	HeadcountTier       *string
	PositioningSource   *string
	EnrichedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CompanyUpdate struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Name          *string
	Domain        *string
	WebsiteURL    *string
	Industry      *string
	Headcount     *int
	AnnualRevenue *int64
}

// Enrichment is the firmographic, score and positioning snapshot written
// by an enrichment save.
type Enrichment struct {
	WebsiteURL          *string
	Industry            *string
	Headcount           *int
	AnnualRevenue       *int64
	TotalFunding        *int64
	LatestFundingStage  *string
	LatestFundingAt     *time.Time
	FoundedYear         *int
	PublicTicker        *string
	HealthScore         int
	GrowthScore         int
	StabilityScore      int
	MarketPositionScore int
	ReadinessScore      int
	PositioningCategory *string
	PositioningIndustry *string
	PositioningLabel    *string
	Competitors         []string
	RevenueTier         string
	HeadcountTier       string
	PositioningSource   string
	EnrichedAt          time.Time
}

type ListParams struct {
	TenantID  uuid.UUID
	Search    string
	Industry  string
	Tier      string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

type ListResult struct {
	Items      []Company
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

type CompanyContact struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          *string
	Title          *string
	Persona        *string
	ReadinessScore *int
}

const companyColumns = `id, tenant_id, name, domain, website_url, industry, headcount,
	annual_revenue, total_funding, latest_funding_stage, latest_funding_at, founded_year,
	public_ticker, health_score, growth_score, stability_score, market_position_score,
	readiness_score, positioning_category, positioning_industry, positioning_label,
	competitors, revenue_tier, headcount_tier, positioning_source, enriched_at,
	created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Domain, &c.WebsiteURL, &c.Industry, &c.Headcount,
		&c.AnnualRevenue, &c.TotalFunding, &c.LatestFundingStage, &c.LatestFundingAt, &c.FoundedYear,
		&c.PublicTicker, &c.HealthScore, &c.GrowthScore, &c.StabilityScore, &c.MarketPositionScore,
		&c.ReadinessScore, &c.PositioningCategory, &c.PositioningIndustry, &c.PositioningLabel,
		&c.Competitors, &c.RevenueTier, &c.HeadcountTier, &c.PositioningSource, &c.EnrichedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) Create(ctx context.Context, company Company) (Company, error) {
	query := `
		INSERT INTO companies (
			id, tenant_id, name, domain, website_url, industry, headcount, annual_revenue,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + companyColumns

	now := time.Now().UTC()
	created, err := scanCompany(r.pool.QueryRow(ctx, query,
		company.ID,
		company.TenantID,
		company.Name,
		company.Domain,
		company.WebsiteURL,
		company.Industry,
		company.Headcount,
		company.AnnualRevenue,
		now,
		now,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Company{}, apperr.Conflict("a company with this domain already exists")
		}
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return created, nil
}

// CreateOrGetByDomain inserts a company keyed by (tenant, domain). When a
// concurrent writer got there first the existing row is returned and created
// is false.
func (r *Repository) CreateOrGetByDomain(ctx context.Context, company Company) (Company, bool, error) {
	query := `
		INSERT INTO companies (id, tenant_id, name, domain, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (tenant_id, domain) DO UPDATE SET updated_at = companies.updated_at
		RETURNING ` + companyColumns + `, (xmax = 0) AS inserted`

	var c Company
	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		company.ID, company.TenantID, company.Name, company.Domain, time.Now().UTC(),
	).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Domain, &c.WebsiteURL, &c.Industry, &c.Headcount,
		&c.AnnualRevenue, &c.TotalFunding, &c.LatestFundingStage, &c.LatestFundingAt, &c.FoundedYear,
		&c.PublicTicker, &c.HealthScore, &c.GrowthScore, &c.StabilityScore, &c.MarketPositionScore,
		&c.ReadinessScore, &c.PositioningCategory, &c.PositioningIndustry, &c.PositioningLabel,
		&c.Competitors, &c.RevenueTier, &c.HeadcountTier, &c.PositioningSource, &c.EnrichedAt,
		&c.CreatedAt, &c.UpdatedAt, &inserted,
	)
	if err != nil {
		return Company{}, false, fmt.Errorf("upsert company by domain: %w", err)
	}
	return c, inserted, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 AND id = $2`
	c, err := scanCompany(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (r *Repository) GetByDomain(ctx context.Context, tenantID uuid.UUID, domain string) (Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 AND domain = $2`
	c, err := scanCompany(r.pool.QueryRow(ctx, query, tenantID, domain))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company by domain: %w", err)
	}
	return c, nil
}

// GetByNameWithoutDomain finds the oldest company with this name that has no
// domain yet, comparing names case-insensitively.
func (r *Repository) GetByNameWithoutDomain(ctx context.Context, tenantID uuid.UUID, name string) (Company, error) {
	query := `
		SELECT ` + companyColumns + ` FROM companies
		WHERE tenant_id = $1 AND lower(name) = lower($2) AND domain IS NULL
		ORDER BY created_at ASC
		LIMIT 1`
	c, err := scanCompany(r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company by name: %w", err)
	}
	return c, nil
}

// GetByName finds the oldest company with this name regardless of domain.
func (r *Repository) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (Company, error) {
	query := `
		SELECT ` + companyColumns + ` FROM companies
		WHERE tenant_id = $1 AND lower(name) = lower($2)
		ORDER BY created_at ASC
		LIMIT 1`
	c, err := scanCompany(r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company by name: %w", err)
	}
	return c, nil
}

// AttachDomain sets the domain of a company that had none.
func (r *Repository) AttachDomain(ctx context.Context, tenantID, id uuid.UUID, domain string) error {
	query := `UPDATE companies SET domain = $3, updated_at = $4 WHERE tenant_id = $1 AND id = $2 AND domain IS NULL`
	if _, err := r.pool.Exec(ctx, query, tenantID, id, domain, time.Now().UTC()); err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("a company with this domain already exists")
		}
		return fmt.Errorf("attach company domain: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, update CompanyUpdate) (Company, error) {
	query := `
		UPDATE companies SET
			name = COALESCE($3, name),
			domain = COALESCE($4, domain),
			website_url = COALESCE($5, website_url),
			industry = COALESCE($6, industry),
			headcount = COALESCE($7, headcount),
			annual_revenue = COALESCE($8, annual_revenue),
			updated_at = $9
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + companyColumns

	c, err := scanCompany(r.pool.QueryRow(ctx, query,
		update.TenantID,
		update.ID,
		update.Name,
		update.Domain,
		update.WebsiteURL,
		update.Industry,
		update.Headcount,
		update.AnnualRevenue,
		time.Now().UTC(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Company{}, apperr.Conflict("a company with this domain already exists")
		}
		return Company{}, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

// ApplyEnrichment overwrites scores and positioning and fills firmographics,
// keeping stored values where the new snapshot has none.
func (r *Repository) ApplyEnrichment(ctx context.Context, tenantID, id uuid.UUID, e Enrichment) (Company, error) {
	competitors := e.Competitors
	if competitors == nil {
		competitors = []string{}
	}
	query := `
		UPDATE companies SET
			website_url = COALESCE($3, website_url),
			industry = COALESCE($4, industry),
			headcount = COALESCE($5, headcount),
			annual_revenue = COALESCE($6, annual_revenue),
			total_funding = COALESCE($7, total_funding),
			latest_funding_stage = COALESCE($8, latest_funding_stage),
			latest_funding_at = COALESCE($9, latest_funding_at),
			founded_year = COALESCE($10, founded_year),
			public_ticker = COALESCE($11, public_ticker),
			health_score = $12,
			growth_score = $13,
			stability_score = $14,
			market_position_score = $15,
			readiness_score = $16,
			positioning_category = $17,
			positioning_industry = $18,
			positioning_label = $19,
			competitors = $20,
			revenue_tier = $21,
			headcount_tier = $22,
			positioning_source = $23,
			enriched_at = $24,
			updated_at = $24
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + companyColumns

	c, err := scanCompany(r.pool.QueryRow(ctx, query,
		tenantID, id,
		e.WebsiteURL, e.Industry, e.Headcount, e.AnnualRevenue, e.TotalFunding,
		e.LatestFundingStage, e.LatestFundingAt, e.FoundedYear, e.PublicTicker,
		e.HealthScore, e.GrowthScore, e.StabilityScore, e.MarketPositionScore, e.ReadinessScore,
		e.PositioningCategory, e.PositioningIndustry, e.PositioningLabel, competitors,
		e.RevenueTier, e.HeadcountTier, e.PositioningSource, e.EnrichedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, apperr.NotFound(companyNotFoundMsg)
	}
	if err != nil {
		return Company{}, fmt.Errorf("apply company enrichment: %w", err)
	}
	return c, nil
}

func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(companyNotFoundMsg)
	}
	return nil
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

	where := sq.And{sq.Eq{"tenant_id": params.TenantID}}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + search + "%"
		where = append(where, sq.Or{sq.ILike{"name": pattern}, sq.ILike{"domain": pattern}})
	}
	if params.Industry != "" {
		where = append(where, sq.Or{
			sq.Eq{"positioning_industry": params.Industry},
			sq.ILike{"industry": params.Industry},
		})
	}
	if params.Tier != "" {
		where = append(where, sq.Or{sq.Eq{"revenue_tier": params.Tier}, sq.Eq{"headcount_tier": params.Tier}})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("companies").Where(where).ToSql()
	if err != nil {
		return ListResult{}, fmt.Errorf("build company count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count companies: %w", err)
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	selectSQL, args, err := psql.Select(companyColumns).
		From("companies").
		Where(where).
		OrderBy(sortColumn+" "+sortOrder+" NULLS LAST", "name ASC", "id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return ListResult{}, fmt.Errorf("build company list: %w", err)
	}

	rows, err := r.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	items := make([]Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan company: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate companies: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ListContacts returns a short summary of the contacts employed at a company.
func (r *Repository) ListContacts(ctx context.Context, tenantID, companyID uuid.UUID) ([]CompanyContact, error) {
	query := `
		SELECT id, first_name, last_name, email, title, persona, readiness_score
		FROM contacts
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY readiness_score DESC NULLS LAST, last_name ASC, first_name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]CompanyContact, 0)
	for rows.Next() {
		var c CompanyContact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Title, &c.Persona, &c.ReadinessScore); err != nil {
			return nil, fmt.Errorf("scan company contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company contacts: %w", err)
	}
	return contacts, nil
}

var sortColumns = map[string]string{
	"name":           "name",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"readiness":      "readiness_score",
	"marketPosition": "market_position_score",
	"headcount":      "headcount",
}

func resolveSortBy(value string) (string, error) {
	if value == "" {
		return "name", nil
	}
	column, ok := sortColumns[value]
	if !ok {
		return "", apperr.BadRequest("invalid sort field")
	}
	return column, nil
}

func resolveSortOrder(value string) (string, error) {
	switch strings.ToLower(value) {
	case "":
		return "ASC", nil
	case "asc":
		return "ASC", nil
	case "desc":
		return "DESC", nil
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
