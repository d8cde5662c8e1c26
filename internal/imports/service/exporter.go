package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"outreach_backend/internal/adapters/storage"
	contactrepo "outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/imports/mapping"
	"outreach_backend/internal/imports/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

const csvContentType = "text/csv"

// ContactLister returns every contact matching a filter.
type ContactLister interface {
	ListAll(ctx context.Context, params contactrepo.ListParams) ([]contactrepo.Contact, error)
}

// Exporter writes contacts to CSV. With an export store the file is
// uploaded and a presigned link returned; without one it is streamed.
type Exporter struct {
	contacts ContactLister
	store    storage.ExportStore
	log      *logger.Logger
	now      func() time.Time
}

// NewExporter creates an exporter. store may be nil.
func NewExporter(contacts ContactLister, store storage.ExportStore, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{contacts: contacts, store: store, log: log, now: time.Now}
}

// Uploads reports whether exports go to object storage.
func (e *Exporter) Uploads() bool {
	return e.store != nil
}

// FileName is the download name of an export created at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("contacts-%s.csv", t.UTC().Format("20060102-150405"))
}

// Write streams matching contacts as CSV to w and returns the row count.
func (e *Exporter) Write(ctx context.Context, tenantID uuid.UUID, req transport.ExportRequest, w io.Writer) (int, error) {
	params, err := exportParams(tenantID, req)
	if err != nil {
		return 0, err
	}
	items, err := e.contacts.ListAll(ctx, params)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	header := make([]string, len(mapping.ExportColumns))
	for i, f := range mapping.ExportColumns {
		header[i] = string(f)
	}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range items {
		if err := writer.Write(exportRow(c)); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(items), nil
}

// Upload renders the export and stores it, returning a presigned link.
func (e *Exporter) Upload(ctx context.Context, tenantID uuid.UUID, req transport.ExportRequest) (transport.ExportResponse, error) {
	if e.store == nil {
		return transport.ExportResponse{}, apperr.Validation("export storage is not configured")
	}

	var buf bytes.Buffer
	rows, err := e.Write(ctx, tenantID, req, &buf)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	folder := fmt.Sprintf("%s/exports", tenantID)
	key, err := e.store.UploadExport(ctx, folder, FileName(e.now()), csvContentType, &buf, int64(buf.Len()))
	if err != nil {
		return transport.ExportResponse{}, apperr.Upstream("failed to store export", err)
	}
	link, err := e.store.ExportURL(ctx, key)
	if err != nil {
		return transport.ExportResponse{}, apperr.Upstream("failed to sign export link", err)
	}

	e.log.WithContext(ctx).Info("contacts exported", "tenantId", tenantID, "rows", rows, "fileKey", key)
	return transport.ExportResponse{Rows: rows, Download: link}, nil
}

func exportParams(tenantID uuid.UUID, req transport.ExportRequest) (contactrepo.ListParams, error) {
	params := contactrepo.ListParams{
		TenantID:  tenantID,
		Search:    strings.TrimSpace(req.Search),
		Stage:     strings.ToLower(strings.TrimSpace(req.Stage)),
		Tier:      strings.ToLower(strings.TrimSpace(req.Tier)),
		Persona:   strings.TrimSpace(req.Persona),
		SortBy:    "name",
		SortOrder: "asc",
	}
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return contactrepo.ListParams{}, apperr.BadRequest("invalid companyId")
		}
		params.CompanyID = &id
	}
	return params, nil
}

func exportRow(c contactrepo.Contact) []string {
	row := make([]string, len(mapping.ExportColumns))
	for i, f := range mapping.ExportColumns {
		switch f {
		case mapping.FieldFirstName:
			row[i] = c.FirstName
		case mapping.FieldLastName:
			row[i] = c.LastName
		case mapping.FieldEmail:
			row[i] = deref(c.Email)
		case mapping.FieldPhone:
			row[i] = deref(c.Phone)
		case mapping.FieldTitle:
			row[i] = deref(c.Title)
		case mapping.FieldDepartment:
			row[i] = deref(c.Department)
		case mapping.FieldCompanyName:
			row[i] = deref(c.CompanyName)
		case mapping.FieldCompanyDomain:
			row[i] = deref(c.CompanyDomain)
		case mapping.FieldLinkedInURL:
			row[i] = deref(c.LinkedInURL)
		case mapping.FieldCity:
			row[i] = deref(c.City)
		case mapping.FieldCountry:
			row[i] = deref(c.Country)
		case mapping.FieldRelationshipTier:
			row[i] = c.RelationshipTier
		case mapping.FieldPipelineStage:
			row[i] = c.PipelineStage
		case mapping.FieldNotes:
			row[i] = deref(c.Notes)
		}
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
