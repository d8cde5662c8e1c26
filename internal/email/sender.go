// Package email delivers outreach messages and reminder digests.
package email

import (
	"context"

	"outreach_backend/platform/config"
)

// Message is one outreach email to a contact. Body is plain text.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
	ReplyTo string
}

// DigestItem is one due contact listed in a reminder digest.
type DigestItem struct {
	Name        string
	Email       string
	Company     string
	OverdueDays int
	Readiness   int
}

// Digest lists the due contacts of one tenant.
type Digest struct {
	Items     []DigestItem
	Remaining int
}

type Sender interface {
	SendOutreach(ctx context.Context, msg Message) error
	SendReminderDigest(ctx context.Context, toEmail string, digest Digest) error
	Enabled() bool
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendOutreach(ctx context.Context, msg Message) error { return nil }

func (NoopSender) SendReminderDigest(ctx context.Context, toEmail string, digest Digest) error {
	return nil
}

func (NoopSender) Enabled() bool { return false }

// NewSender returns an SMTP sender, or a NoopSender when SMTP is disabled.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
