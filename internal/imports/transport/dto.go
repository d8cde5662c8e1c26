package transport

import (
	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/imports/mapping"
)

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarizes one CSV import. Row numbers are 1-based and count
// the header line, so they match what a spreadsheet shows. Truncated is set
// when the file had more rows than one import accepts.
type ImportResult struct {
	Rows      int              `json:"rows"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Skipped   int              `json:"skipped"`
	Truncated bool             `json:"truncated"`
	Errors    []RowError       `json:"errors"`
	Mapping   []mapping.Column `json:"mapping"`
}

type ExportRequest struct {
	Search    string `form:"search" validate:"max=100"`
	Stage     string `form:"stage" validate:"omitempty,pipeline_stage"`
	Tier      string `form:"tier" validate:"omitempty,relationship_tier"`
	Persona   string `form:"persona" validate:"omitempty,max=50"`
	CompanyID string `form:"companyId" validate:"omitempty,uuid"`
}

// ExportResponse is returned when the export was uploaded to object storage.
type ExportResponse struct {
	Rows     int                   `json:"rows"`
	Download *storage.PresignedURL `json:"download"`
}
