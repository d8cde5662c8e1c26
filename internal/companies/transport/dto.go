package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateCompanyRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Domain        string `json:"domain,omitempty" validate:"omitempty,max=255"`
	WebsiteURL    string `json:"websiteUrl,omitempty" validate:"omitempty,url,max=500"`
	Industry      string `json:"industry,omitempty" validate:"omitempty,max=120"`
	Headcount     *int   `json:"headcount,omitempty" validate:"omitempty,min=0"`
	AnnualRevenue *int64 `json:"annualRevenue,omitempty" validate:"omitempty,min=0"`
}

type UpdateCompanyRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Domain        *string `json:"domain,omitempty" validate:"omitempty,max=255"`
	WebsiteURL    *string `json:"websiteUrl,omitempty" validate:"omitempty,url,max=500"`
	Industry      *string `json:"industry,omitempty" validate:"omitempty,max=120"`
	Headcount     *int    `json:"headcount,omitempty" validate:"omitempty,min=0"`
	AnnualRevenue *int64  `json:"annualRevenue,omitempty" validate:"omitempty,min=0"`
}

type ListCompaniesRequest struct {
	Search    string `form:"search" validate:"omitempty,max=100"`
	Industry  string `form:"industry" validate:"omitempty,max=120"`
	Tier      string `form:"tier" validate:"omitempty,oneof=enterprise large upper_mid_market mid_market smb micro unknown"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=name createdAt updatedAt readiness marketPosition headcount"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type CompanyScoresResponse struct {
	Health         *int `json:"health,omitempty"`
	Growth         *int `json:"growth,omitempty"`
	Stability      *int `json:"stability,omitempty"`
	MarketPosition *int `json:"marketPosition,omitempty"`
	Readiness      *int `json:"readiness,omitempty"`
}

type PositioningResponse struct {
	Category      *string  `json:"category,omitempty"`
	Industry      *string  `json:"industry,omitempty"`
	Label         *string  `json:"label,omitempty"`
	Competitors   []string `json:"competitors"`
	RevenueTier   *string  `json:"revenueTier,omitempty"`
	HeadcountTier *string  `json:"headcountTier,omitempty"`
	Source        *string  `json:"source,omitempty"`
}

type CompanyResponse struct {
	ID                 uuid.UUID             `json:"id"`
	Name               string                `json:"name"`
	Domain             *string               `json:"domain,omitempty"`
	WebsiteURL         *string               `json:"websiteUrl,omitempty"`
	Industry           *string               `json:"industry,omitempty"`
	Headcount          *int                  `json:"headcount,omitempty"`
	AnnualRevenue      *int64                `json:"annualRevenue,omitempty"`
	TotalFunding       *int64                `json:"totalFunding,omitempty"`
	LatestFundingStage *string               `json:"latestFundingStage,omitempty"`
	LatestFundingAt    *time.Time            `json:"latestFundingAt,omitempty"`
	FoundedYear        *int                  `json:"foundedYear,omitempty"`
	PublicTicker       *string               `json:"publicTicker,omitempty"`
	Scores             CompanyScoresResponse `json:"scores"`
	Positioning        PositioningResponse   `json:"positioning"`
	EnrichedAt         *time.Time            `json:"enrichedAt,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

type ListCompaniesResponse struct {
	Items      []CompanyResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type CompanyContactResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Title     *string   `json:"title,omitempty"`
	Persona   *string   `json:"persona,omitempty"`
	Readiness *int      `json:"readiness,omitempty"`
}
