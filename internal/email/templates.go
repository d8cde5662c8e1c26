package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

// layout holds the shared chrome; each page defines "content".
type layout struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type digestPage struct {
	layout
	Items     []DigestItem
	Remaining int
}

var digestTemplate = sync.OnceValues(func() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/base.html", "templates/reminder_digest.html")
})

func renderDigest(d Digest) (string, error) {
	tmpl, err := digestTemplate()
	if err != nil {
		return "", fmt.Errorf("parse digest template: %w", err)
	}

	page := digestPage{
		layout:    layout{Title: "Follow-up reminders", Heading: "Follow-up reminders"},
		Items:     d.Items,
		Remaining: d.Remaining,
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", page); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func digestSubject(total int) string {
	if total == 1 {
		return "1 contact due for follow-up"
	}
	return fmt.Sprintf("%d contacts due for follow-up", total)
}
