package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateContactRequest struct {
	FirstName        string     `json:"firstName" validate:"omitempty,max=100"`
	LastName         string     `json:"lastName" validate:"omitempty,max=100"`
	Email            string     `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone            string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Title            string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Department       string     `json:"department,omitempty" validate:"omitempty,max=100"`
	LinkedInURL      string     `json:"linkedinUrl,omitempty" validate:"omitempty,url,max=500"`
	City             string     `json:"city,omitempty" validate:"omitempty,max=120"`
	Country          string     `json:"country,omitempty" validate:"omitempty,max=120"`
	Notes            string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
	RelationshipTier string     `json:"relationshipTier,omitempty" validate:"omitempty,relationship_tier"`
	PipelineStage    string     `json:"pipelineStage,omitempty" validate:"omitempty,pipeline_stage"`
	CompanyID        *uuid.UUID `json:"companyId,omitempty"`
	CompanyName      string     `json:"companyName,omitempty" validate:"omitempty,max=200"`
	CompanyDomain    string     `json:"companyDomain,omitempty" validate:"omitempty,max=255"`
}

type UpdateContactRequest struct {
	FirstName        *string    `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName         *string    `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email            *string    `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone            *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	Title            *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Department       *string    `json:"department,omitempty" validate:"omitempty,max=100"`
	LinkedInURL      *string    `json:"linkedinUrl,omitempty" validate:"omitempty,url,max=500"`
	City             *string    `json:"city,omitempty" validate:"omitempty,max=120"`
	Country          *string    `json:"country,omitempty" validate:"omitempty,max=120"`
	Notes            *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`
	RelationshipTier *string    `json:"relationshipTier,omitempty" validate:"omitempty,relationship_tier"`
	PipelineStage    *string    `json:"pipelineStage,omitempty" validate:"omitempty,pipeline_stage"`
	CompanyID        *uuid.UUID `json:"companyId,omitempty"`
}

type ListContactsRequest struct {
	Search       string     `form:"search" validate:"omitempty,max=100"`
	Stage        string     `form:"stage" validate:"omitempty,pipeline_stage"`
	Tier         string     `form:"tier" validate:"omitempty,relationship_tier"`
	Persona      string     `form:"persona" validate:"omitempty,oneof=economic_buyer technical_buyer champion influencer end_user"`
	CompanyID    string     `form:"companyId" validate:"omitempty,uuid"`
	MinReadiness *int       `form:"minReadiness" validate:"omitempty,min=0,max=100"`
	DueBefore    *time.Time `form:"dueBefore" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy       string     `form:"sortBy" validate:"omitempty,oneof=name readiness opportunity createdAt nextContactAt"`
	SortOrder    string     `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page         int        `form:"page" validate:"omitempty,min=1"`
	PageSize     int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type BulkIDsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500,dive,required"`
}

type BulkItemError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult reports a per-item outcome. Items succeed or fail independently.
type BulkResult struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors"`
}

type ScoresResponse struct {
	Seniority       *int    `json:"seniority,omitempty"`
	BuyingPower     *int    `json:"buyingPower,omitempty"`
	Urgency         *int    `json:"urgency,omitempty"`
	RolePower       *int    `json:"rolePower,omitempty"`
	CareerMomentum  *int    `json:"careerMomentum,omitempty"`
	CareerStability *int    `json:"careerStability,omitempty"`
	BuyerLikelihood *int    `json:"buyerLikelihood,omitempty"`
	Readiness       *int    `json:"readiness,omitempty"`
	Opportunity     *int    `json:"opportunity,omitempty"`
	Version         *string `json:"version,omitempty"`
}

type CadenceResponse struct {
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	NextContactAt   *time.Time `json:"nextContactAt,omitempty"`
	OverrideAt      *time.Time `json:"overrideAt,omitempty"`
	DoNotContact    bool       `json:"doNotContact"`
	Due             bool       `json:"due"`
	OverdueDays     int        `json:"overdueDays"`
}

type ContactResponse struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        *uuid.UUID      `json:"companyId,omitempty"`
	CompanyName      *string         `json:"companyName,omitempty"`
	FirstName        string          `json:"firstName"`
	LastName         string          `json:"lastName"`
	Email            *string         `json:"email,omitempty"`
	Phone            *string         `json:"phone,omitempty"`
	Title            *string         `json:"title,omitempty"`
	Department       *string         `json:"department,omitempty"`
	SeniorityLabel   *string         `json:"seniorityLabel,omitempty"`
	LinkedInURL      *string         `json:"linkedinUrl,omitempty"`
	City             *string         `json:"city,omitempty"`
	Country          *string         `json:"country,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	RelationshipTier string          `json:"relationshipTier"`
	PipelineStage    string          `json:"pipelineStage"`
	Persona          *string         `json:"persona,omitempty"`
	Scores           ScoresResponse  `json:"scores"`
	Cadence          CadenceResponse `json:"cadence"`
	EnrichedAt       *time.Time      `json:"enrichedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type ListContactsResponse struct {
	Items      []ContactResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
