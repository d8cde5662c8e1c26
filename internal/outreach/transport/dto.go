package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Persona string `json:"persona,omitempty" validate:"omitempty,oneof=economic_buyer technical_buyer champion influencer end_user"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Body    string `json:"body" validate:"required,min=1,max=20000"`
}

// UpdateTemplateRequest changes the supplied fields. An empty persona clears it.
type UpdateTemplateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Persona *string `json:"persona,omitempty" validate:"omitempty,oneof=economic_buyer technical_buyer champion influencer end_user"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=1,max=200"`
	Body    *string `json:"body,omitempty" validate:"omitempty,min=1,max=20000"`
}

type ListTemplatesRequest struct {
	Persona string `form:"persona" validate:"omitempty,max=50"`
}

type TemplateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Persona   *string   `json:"persona,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DraftRequest struct {
	TemplateID   *uuid.UUID `json:"templateId,omitempty"`
	Instructions string     `json:"instructions,omitempty" validate:"max=1000"`
}

const (
	DraftSourceTemplate = "template"
	DraftSourceLLM      = "llm"
)

type DraftResponse struct {
	ContactID  uuid.UUID  `json:"contactId"`
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Source     string     `json:"source"`
}

type SendRequest struct {
	TemplateID *uuid.UUID `json:"templateId,omitempty"`
	Subject    string     `json:"subject" validate:"required,min=1,max=200"`
	Body       string     `json:"body" validate:"required,min=1,max=20000"`
	ReplyTo    string     `json:"replyTo,omitempty" validate:"omitempty,email"`
}

type SendResponse struct {
	ContactID uuid.UUID `json:"contactId"`
	To        string    `json:"to"`
	SentAt    time.Time `json:"sentAt"`
}
