// Package service manages email templates and drafts and sends outreach to
// contacts.
package service

import (
	"context"
	"strings"
	"time"

	companytransport "outreach_backend/internal/companies/transport"
	contactrepo "outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	"outreach_backend/internal/outreach/repository"
	"outreach_backend/internal/outreach/transport"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	channelEmail     = "email"
	msgOptedOut      = "contact opted out of outreach"
	msgNoEmail       = "contact has no email address"
	msgSMTPDisabled  = "email delivery is not configured"
	msgNoTemplate    = "no template found for this contact"
	msgInvalidSyntax = "invalid template"
)

// Repository is the template storage.
type Repository interface {
	Create(ctx context.Context, t repository.Template) (repository.Template, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Template, error)
	FindForPersona(ctx context.Context, tenantID uuid.UUID, persona string) (repository.Template, error)
	Update(ctx context.Context, u repository.TemplateUpdate) (repository.Template, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, persona string) ([]repository.Template, error)
}

// ContactReader loads the recipient.
type ContactReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (contactrepo.Contact, error)
}

// CompanyReader loads the recipient's employer.
type CompanyReader interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (companytransport.CompanyResponse, error)
}

// Service provides template CRUD plus drafting and sending.
type Service struct {
	repo      Repository
	contacts  ContactReader
	companies CompanyReader
	gen       textgen.Generator
	sender    email.Sender
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the outreach service. gen may be nil when no LLM is configured.
func New(repo Repository, contacts ContactReader, companies CompanyReader, gen textgen.Generator, sender email.Sender, eventBus events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Service{
		repo:      repo,
		contacts:  contacts,
		companies: companies,
		gen:       gen,
		sender:    sender,
		eventBus:  eventBus,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) CreateTemplate(ctx context.Context, tenantID uuid.UUID, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	if err := checkTemplate(req.Subject, req.Body); err != nil {
		return transport.TemplateResponse{}, apperr.Validation(msgInvalidSyntax).WithDetails(err.Error())
	}
	t, err := s.repo.Create(ctx, repository.Template{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     strings.TrimSpace(req.Name),
		Persona:  optional(req.Persona),
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	s.log.Info("template created", "templateId", t.ID, "tenantId", tenantID)
	return toTemplateResponse(t), nil
}

func (s *Service) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (transport.TemplateResponse, error) {
	t, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return toTemplateResponse(t), nil
}

func (s *Service) UpdateTemplate(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	if req.Subject != nil || req.Body != nil {
		current, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return transport.TemplateResponse{}, err
		}
		subject, body := current.Subject, current.Body
		if req.Subject != nil {
			subject = *req.Subject
		}
		if req.Body != nil {
			body = *req.Body
		}
		if err := checkTemplate(subject, body); err != nil {
			return transport.TemplateResponse{}, apperr.Validation(msgInvalidSyntax).WithDetails(err.Error())
		}
	}

	t, err := s.repo.Update(ctx, repository.TemplateUpdate{
		ID:       id,
		TenantID: tenantID,
		Name:     req.Name,
		Persona:  req.Persona,
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	s.log.Info("template updated", "templateId", t.ID, "tenantId", tenantID)
	return toTemplateResponse(t), nil
}

func (s *Service) DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.log.Info("template deleted", "templateId", id, "tenantId", tenantID)
	return nil
}

func (s *Service) ListTemplates(ctx context.Context, tenantID uuid.UUID, req transport.ListTemplatesRequest) ([]transport.TemplateResponse, error) {
	items, err := s.repo.List(ctx, tenantID, strings.TrimSpace(req.Persona))
	if err != nil {
		return nil, err
	}
	out := make([]transport.TemplateResponse, len(items))
	for i, t := range items {
		out[i] = toTemplateResponse(t)
	}
	return out, nil
}

// Draft renders a template for a contact. Without a template id the newest
// template for the contact's persona is used. When an LLM is configured the
// rendered text is personalized; if that fails the rendered template is
// returned as is.
func (s *Service) Draft(ctx context.Context, tenantID, contactID uuid.UUID, req transport.DraftRequest) (transport.DraftResponse, error) {
	contact, err := s.contacts.GetByID(ctx, tenantID, contactID)
	if err != nil {
		return transport.DraftResponse{}, err
	}

	tmpl, err := s.pickTemplate(ctx, tenantID, contact, req.TemplateID)
	if err != nil {
		return transport.DraftResponse{}, err
	}

	data := newTemplateData(contact, s.company(ctx, tenantID, contact))
	subject, err := render("subject", tmpl.Subject, data)
	if err != nil {
		return transport.DraftResponse{}, apperr.Validation(msgInvalidSyntax).WithDetails(err.Error())
	}
	body, err := render("body", tmpl.Body, data)
	if err != nil {
		return transport.DraftResponse{}, apperr.Validation(msgInvalidSyntax).WithDetails(err.Error())
	}

	resp := transport.DraftResponse{
		ContactID:  contact.ID,
		TemplateID: &tmpl.ID,
		Subject:    subject,
		Body:       body,
		Source:     transport.DraftSourceTemplate,
	}
	if s.gen == nil {
		return resp, nil
	}

	start := time.Now()
	out, err := personalize(ctx, s.gen, draftPrompt(data, subject, body, req.Instructions))
	s.log.ProviderCall("llm", "outreach_draft", time.Since(start), err)
	if err != nil {
		s.log.WithContext(ctx).Warn("draft personalization fell back to template", "contactId", contact.ID, "error", err)
		return resp, nil
	}
	resp.Subject = out.Subject
	resp.Body = out.Body
	resp.Source = transport.DraftSourceLLM
	return resp, nil
}

func (s *Service) pickTemplate(ctx context.Context, tenantID uuid.UUID, contact contactrepo.Contact, id *uuid.UUID) (repository.Template, error) {
	if id != nil {
		return s.repo.GetByID(ctx, tenantID, *id)
	}
	t, err := s.repo.FindForPersona(ctx, tenantID, deref(contact.Persona))
	if apperr.Is(err, apperr.KindNotFound) {
		return repository.Template{}, apperr.NotFound(msgNoTemplate)
	}
	return t, err
}

func (s *Service) company(ctx context.Context, tenantID uuid.UUID, contact contactrepo.Contact) *companytransport.CompanyResponse {
	if contact.CompanyID == nil || s.companies == nil {
		return nil
	}
	c, err := s.companies.GetByID(ctx, tenantID, *contact.CompanyID)
	if err != nil {
		s.log.WithContext(ctx).Warn("load company for draft failed", "companyId", *contact.CompanyID, "error", err)
		return nil
	}
	return &c
}

// Send delivers an email to a contact. Opted-out contacts are refused.
func (s *Service) Send(ctx context.Context, tenantID, contactID uuid.UUID, req transport.SendRequest) (transport.SendResponse, error) {
	contact, err := s.contacts.GetByID(ctx, tenantID, contactID)
	if err != nil {
		return transport.SendResponse{}, err
	}
	if contact.DoNotContactAgain {
		return transport.SendResponse{}, apperr.Forbidden(msgOptedOut)
	}
	if contact.Email == nil || *contact.Email == "" {
		return transport.SendResponse{}, apperr.Validation(msgNoEmail)
	}
	if !s.sender.Enabled() {
		return transport.SendResponse{}, apperr.Validation(msgSMTPDisabled)
	}

	to := *contact.Email
	start := time.Now()
	err = s.sender.SendOutreach(ctx, email.Message{
		To:      to,
		ToName:  strings.TrimSpace(contact.FirstName + " " + contact.LastName),
		Subject: strings.TrimSpace(req.Subject),
		Body:    req.Body,
		ReplyTo: req.ReplyTo,
	})
	s.log.ProviderCall("smtp", "send_outreach", time.Since(start), err)
	if err != nil {
		return transport.SendResponse{}, apperr.Upstream("failed to send email", err)
	}

	sentAt := s.now().UTC()
	s.log.WithContext(ctx).Info("outreach sent", "contactId", contact.ID, "tenantId", tenantID)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.OutreachSent{
			BaseEvent:  events.NewBaseEvent(),
			TenantID:   tenantID,
			ContactID:  contact.ID,
			TemplateID: req.TemplateID,
			Channel:    channelEmail,
			Subject:    strings.TrimSpace(req.Subject),
			SentAt:     sentAt,
		})
	}
	return transport.SendResponse{ContactID: contact.ID, To: to, SentAt: sentAt}, nil
}

func toTemplateResponse(t repository.Template) transport.TemplateResponse {
	return transport.TemplateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Persona:   t.Persona,
		Subject:   t.Subject,
		Body:      t.Body,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
