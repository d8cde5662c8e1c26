// Package service imports contacts from CSV files and exports them back.
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	contactrepo "outreach_backend/internal/contacts/repository"
	contactsvc "outreach_backend/internal/contacts/service"
	"outreach_backend/internal/events"
	"outreach_backend/internal/imports/mapping"
	"outreach_backend/internal/imports/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// MaxImportRows bounds the data rows of a single upload.
	MaxImportRows = 10000
	maxRowErrors  = 200
)

// ContactUpserter creates or updates a contact from a draft.
type ContactUpserter interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, d contactsvc.Draft) (contactrepo.Contact, bool, error)
}

// Importer turns CSV rows into contacts.
type Importer struct {
	contacts ContactUpserter
	table    *mapping.Table
	val      *validator.Validator
	eventBus events.Bus
	log      *logger.Logger
}

// NewImporter creates an importer using the embedded header table.
func NewImporter(contacts ContactUpserter, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{contacts: contacts, table: mapping.Default(), val: val, eventBus: eventBus, log: log}
}

// Import reads a CSV with a header line. Rows fail individually; the import
// as a whole only fails when the file itself is unreadable. Rows past
// MaxImportRows are not read: the result is marked truncated and keeps the
// counts of what was written.
func (i *Importer) Import(ctx context.Context, tenantID uuid.UUID, r io.Reader) (transport.ImportResult, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return transport.ImportResult{}, apperr.Validation("file is empty")
	}
	if err != nil {
		return transport.ImportResult{}, apperr.Validation(fmt.Sprintf("invalid CSV header: %v", err))
	}

	m := i.table.Map(headers)
	if !m.Has(mapping.FieldEmail) && !m.Has(mapping.FieldFullName) &&
		!(m.Has(mapping.FieldFirstName) && m.Has(mapping.FieldLastName)) {
		return transport.ImportResult{}, apperr.Validation("no email or name column found").WithDetails(m.Columns)
	}

	result := transport.ImportResult{Errors: []transport.RowError{}, Mapping: m.Columns}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if i.atLimit(&result, line) {
					break
				}
				result.Rows++
				result.Skipped++
				i.rowError(&result, line, "malformed row")
				continue
			}
			return result, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		if i.atLimit(&result, line) {
			break
		}
		result.Rows++

		draft, err := i.draft(m, record)
		if err != nil {
			result.Skipped++
			i.rowError(&result, line, err.Error())
			continue
		}

		_, created, err := i.contacts.Upsert(ctx, tenantID, draft)
		if err != nil {
			result.Skipped++
			i.rowError(&result, line, rowErrorMessage(err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	i.log.WithContext(ctx).Info("contacts imported",
		"tenantId", tenantID,
		"rows", result.Rows,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"truncated", result.Truncated,
	)
	if i.eventBus != nil {
		i.eventBus.Publish(ctx, events.ContactsImported{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Rows:      result.Rows,
			Created:   result.Created,
			Updated:   result.Updated,
			Skipped:   result.Skipped,
		})
	}
	return result, nil
}

func (i *Importer) draft(m mapping.Mapping, row []string) (contactsvc.Draft, error) {
	d := contactsvc.Draft{
		FirstName:        m.Value(row, mapping.FieldFirstName),
		LastName:         m.Value(row, mapping.FieldLastName),
		Email:            strings.ToLower(m.Value(row, mapping.FieldEmail)),
		Phone:            m.Value(row, mapping.FieldPhone),
		Title:            m.Value(row, mapping.FieldTitle),
		Department:       m.Value(row, mapping.FieldDepartment),
		LinkedInURL:      m.Value(row, mapping.FieldLinkedInURL),
		City:             m.Value(row, mapping.FieldCity),
		Country:          m.Value(row, mapping.FieldCountry),
		Notes:            m.Value(row, mapping.FieldNotes),
		RelationshipTier: m.Value(row, mapping.FieldRelationshipTier),
		PipelineStage:    strings.ToLower(m.Value(row, mapping.FieldPipelineStage)),
		CompanyName:      m.Value(row, mapping.FieldCompanyName),
		CompanyDomain:    m.Value(row, mapping.FieldCompanyDomain),
	}
	if d.FirstName == "" && d.LastName == "" {
		d.FirstName, d.LastName = SplitFullName(m.Value(row, mapping.FieldFullName))
	}

	if d.Email == "" && (d.FirstName == "" || d.LastName == "") {
		return d, errors.New("row needs an email or a first and last name")
	}
	if d.Email != "" && i.val.Var(d.Email, "email") != nil {
		return d, fmt.Errorf("invalid email %q", d.Email)
	}
	if d.PipelineStage != "" && i.val.Var(d.PipelineStage, "pipeline_stage") != nil {
		return d, fmt.Errorf("unknown pipeline stage %q", d.PipelineStage)
	}
	return d, nil
}

func (i *Importer) atLimit(result *transport.ImportResult, line int) bool {
	if result.Rows < MaxImportRows {
		return false
	}
	result.Truncated = true
	i.rowError(result, line, fmt.Sprintf("row limit of %d reached; this and later rows were not imported", MaxImportRows))
	return true
}

func (i *Importer) rowError(result *transport.ImportResult, line int, msg string) {
	if len(result.Errors) < maxRowErrors {
		result.Errors = append(result.Errors, transport.RowError{Row: line, Error: msg})
	}
}

// SplitFullName splits "Ada Lovelace" into first and last name. Everything
// after the first word is the last name; "Lovelace, Ada" is understood too.
func SplitFullName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	if before, after, ok := strings.Cut(full, ","); ok {
		return strings.TrimSpace(after), strings.TrimSpace(before)
	}
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func rowErrorMessage(err error) string {
	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal && e.Kind != apperr.KindUnknown {
		return e.Message
	}
	return "could not save contact"
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM drops a UTF-8 byte order mark, which spreadsheet exports often
// put in front of the first header.
func stripBOM(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
