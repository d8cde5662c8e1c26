package service

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	companytransport "outreach_backend/internal/companies/transport"
	contactrepo "outreach_backend/internal/contacts/repository"
)

// TemplateData is what subject and body templates can reference, e.g.
// "Hi {{.FirstName}}, congrats on {{.Company}}'s growth".
type TemplateData struct {
	FirstName   string
	LastName    string
	FullName    string
	Title       string
	Department  string
	City        string
	Country     string
	Persona     string
	Company     string
	Industry    string
	Positioning string
}

var sampleData = TemplateData{
	FirstName:   "Ada",
	LastName:    "Lovelace",
	FullName:    "Ada Lovelace",
	Title:       "VP Engineering",
	Department:  "engineering",
	City:        "London",
	Country:     "United Kingdom",
	Persona:     "technical_buyer",
	Company:     "Acme",
	Industry:    "software",
	Positioning: "Developer platform",
}

func newTemplateData(c contactrepo.Contact, company *companytransport.CompanyResponse) TemplateData {
	d := TemplateData{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		FullName:   strings.TrimSpace(c.FirstName + " " + c.LastName),
		Title:      deref(c.Title),
		Department: deref(c.Department),
		City:       deref(c.City),
		Country:    deref(c.Country),
		Persona:    deref(c.Persona),
		Company:    deref(c.CompanyName),
	}
	if company != nil {
		d.Company = company.Name
		d.Industry = deref(company.Industry)
		d.Positioning = deref(company.Positioning.Label)
	}
	return d
}

// render executes a text/template. Unknown fields are errors so a typo in a
// template is caught when it is saved.
func render(name, text string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func checkTemplate(subject, body string) error {
	if _, err := render("subject", subject, sampleData); err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if _, err := render("body", body, sampleData); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
