// Package payload defines the normalized enrichment snapshot that every
// score is derived from. It is what the cache stores and what a contact keeps
// as its latest enrichment.
package payload

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Source values.
const (
	SourceApollo = "apollo"
	SourceManual = "manual"
)

// Payload is one enrichment result for a person and, optionally, their employer.
// FetchedAt is the reference time for every time based score.
type Payload struct {
	Source       string        `json:"source"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Person       Person        `json:"person"`
	Organization *Organization `json:"organization,omitempty"`
}

// Person holds the contact side of the payload.
type Person struct {
	ExternalID        string       `json:"external_id,omitempty"`
	FirstName         string       `json:"first_name,omitempty"`
	LastName          string       `json:"last_name,omitempty"`
	Email             string       `json:"email,omitempty"`
	EmailStatus       string       `json:"email_status,omitempty"`
	Phone             string       `json:"phone,omitempty"`
	Title             string       `json:"title,omitempty"`
	Seniority         string       `json:"seniority,omitempty"`
	Departments       []string     `json:"departments,omitempty"`
	LinkedInURL       string       `json:"linkedin_url,omitempty"`
	City              string       `json:"city,omitempty"`
	Country           string       `json:"country,omitempty"`
	EmploymentHistory []Employment `json:"employment_history,omitempty"`
}

// Employment is one role in the person's career history.
type Employment struct {
	Title            string     `json:"title,omitempty"`
	OrganizationName string     `json:"organization_name,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Current          bool       `json:"current,omitempty"`
}

// Organization holds firmographics. Growth values are fractions (0.12 = 12%).
type Organization struct {
	ExternalID         string     `json:"external_id,omitempty"`
	Name               string     `json:"name,omitempty"`
	PrimaryDomain      string     `json:"primary_domain,omitempty"`
	WebsiteURL         string     `json:"website_url,omitempty"`
	Industry           string     `json:"industry,omitempty"`
	EstimatedEmployees *int       `json:"estimated_employees,omitempty"`
	AnnualRevenue      *int64     `json:"annual_revenue,omitempty"`
	TotalFunding       *int64     `json:"total_funding,omitempty"`
	LatestFundingStage string     `json:"latest_funding_stage,omitempty"`
	LatestFundingAt    *time.Time `json:"latest_funding_at,omitempty"`
	FoundedYear        *int       `json:"founded_year,omitempty"`
	PublicTicker       string     `json:"public_ticker,omitempty"`
	HeadcountGrowth6m  *float64   `json:"headcount_growth_6m,omitempty"`
	HeadcountGrowth12m *float64   `json:"headcount_growth_12m,omitempty"`
	HeadcountGrowth24m *float64   `json:"headcount_growth_24m,omitempty"`
	OpenJobPostings    *int       `json:"open_job_postings,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CurrentRole returns the role the person holds now: the entry flagged
// current, else the one without an end date that started last.
func (p Person) CurrentRole() *Employment {
	var best *Employment
	for i := range p.EmploymentHistory {
		e := &p.EmploymentHistory[i]
		if e.Current {
			return e
		}
		if e.EndDate != nil {
			continue
		}
		if best == nil || startsAfter(e, best) {
			best = e
		}
	}
	return best
}

func startsAfter(a, b *Employment) bool {
	if a.StartDate == nil {
		return false
	}
	if b.StartDate == nil {
		return true
	}
	return a.StartDate.After(*b.StartDate)
}

// Validation errors.
var (
	ErrNoIdentity   = errors.New("person needs an email, a LinkedIn URL or a first and last name")
	ErrInvalidEmail = errors.New("person email is invalid")
)

// Validate reports the first problem that makes the payload unusable.
// A payload must identify the person by email, LinkedIn URL or full name.
func (p Payload) Validate() error {
	person := p.Person
	if strings.TrimSpace(person.Email) == "" &&
		strings.TrimSpace(person.LinkedInURL) == "" &&
		(strings.TrimSpace(person.FirstName) == "" || strings.TrimSpace(person.LastName) == "") {
		return ErrNoIdentity
	}
	if person.Email != "" {
		if _, err := mail.ParseAddress(person.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Normalize trims identity fields, lower-cases the email and stamps
// FetchedAt with now when the caller did not provide one.
func (p *Payload) Normalize(now time.Time) {
	p.Person.FirstName = strings.TrimSpace(p.Person.FirstName)
	p.Person.LastName = strings.TrimSpace(p.Person.LastName)
	p.Person.Email = strings.ToLower(strings.TrimSpace(p.Person.Email))
	p.Person.Title = strings.TrimSpace(p.Person.Title)
	if p.Source == "" {
		p.Source = SourceManual
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = now.UTC()
	}
	if p.Organization != nil {
		p.Organization.Name = strings.TrimSpace(p.Organization.Name)
		p.Organization.PrimaryDomain = strings.ToLower(strings.TrimSpace(p.Organization.PrimaryDomain))
	}
}
