// Package client provides the HTTP client for Apollo person enrichment.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"outreach_backend/internal/enrichment/payload"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	matchPath          = "/api/v1/people/match"
	defaultHTTPTimeout = 15 * time.Second
	// Apollo allows bursts but throttles sustained traffic per key.
	defaultRate  = rate.Limit(5)
	defaultBurst = 5
)

// MatchRequest identifies the person to look up. At least one of Email,
// LinkedInURL or FirstName+LastName+Domain must be set.
type MatchRequest struct {
	Email       string
	LinkedInURL string
	FirstName   string
	LastName    string
	Domain      string
}

// Client handles Apollo requests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
	now        func() time.Time
}

// New creates an Apollo client.
func New(baseURL, apiKey string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(defaultRate, defaultBurst),
		log:        log,
		now:        time.Now,
	}
}

type matchBody struct {
	Email                string `json:"email,omitempty"`
	LinkedInURL          string `json:"linkedin_url,omitempty"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	Domain               string `json:"domain,omitempty"`
	RevealPersonalEmails bool   `json:"reveal_personal_emails"`
}

type matchResponse struct {
	Person *apolloPerson `json:"person"`
}

type apolloPerson struct {
	ID           string   `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Title        string   `json:"title"`
	Email        string   `json:"email"`
	EmailStatus  string   `json:"email_status"`
	LinkedInURL  string   `json:"linkedin_url"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Seniority    string   `json:"seniority"`
	Departments  []string `json:"departments"`
	PhoneNumbers []struct {
		SanitizedNumber string `json:"sanitized_number"`
		RawNumber       string `json:"raw_number"`
	} `json:"phone_numbers"`
	EmploymentHistory []struct {
		Title            string `json:"title"`
		OrganizationName string `json:"organization_name"`
		StartDate        string `json:"start_date"`
		EndDate          string `json:"end_date"`
		Current          bool   `json:"current"`
	} `json:"employment_history"`
	Organization *apolloOrganization `json:"organization"`
}

type apolloOrganization struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	PrimaryDomain        string      `json:"primary_domain"`
	WebsiteURL           string      `json:"website_url"`
	Industry             string      `json:"industry"`
	EstimatedEmployees   *FlexNumber `json:"estimated_num_employees"`
	AnnualRevenue        *FlexNumber `json:"annual_revenue"`
	TotalFunding         *FlexNumber `json:"total_funding"`
	LatestFundingStage   string      `json:"latest_funding_stage"`
	LatestFundingDate    string      `json:"latest_funding_round_date"`
	FoundedYear          *FlexNumber `json:"founded_year"`
	PubliclyTradedSymbol string      `json:"publicly_traded_symbol"`
	Growth6m             *FlexNumber `json:"organization_headcount_six_month_growth"`
	Growth12m            *FlexNumber `json:"organization_headcount_twelve_month_growth"`
	Growth24m            *FlexNumber `json:"organization_headcount_twenty_four_month_growth"`
	OpenJobPostings      *FlexNumber `json:"num_current_job_openings"`
}

// MatchPerson looks up one person. A response without a person is NotFound.
func (c *Client) MatchPerson(ctx context.Context, req MatchRequest) (*payload.Payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Upstream("enrichment provider throttled", err).WithOp("apollo.match")
	}

	body, err := json.Marshal(matchBody{
		Email:       strings.TrimSpace(req.Email),
		LinkedInURL: strings.TrimSpace(req.LinkedInURL),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Domain:      strings.TrimSpace(req.Domain),
	})
	if err != nil {
		return nil, fmt.Errorf("encode apollo request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+matchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build apollo request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.ProviderCall("apollo", "people.match", time.Since(start), err)
		return nil, apperr.Upstream("enrichment lookup failed", err).WithOp("apollo.match")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		statusErr := fmt.Errorf("status %d", resp.StatusCode)
		c.log.ProviderCall("apollo", "people.match", time.Since(start), statusErr)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperr.NotFound("no enrichment match found")
		}
		return nil, apperr.Upstream("enrichment lookup failed", statusErr).WithOp("apollo.match")
	}

	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.log.ProviderCall("apollo", "people.match", time.Since(start), err)
		return nil, apperr.Upstream("enrichment response unreadable", err).WithOp("apollo.match")
	}
	c.log.ProviderCall("apollo", "people.match", time.Since(start), nil)

	if decoded.Person == nil {
		return nil, apperr.NotFound("no enrichment match found")
	}
	p := toPayload(*decoded.Person, c.now())
	return &p, nil
}

func toPayload(ap apolloPerson, fetchedAt time.Time) payload.Payload {
	person := payload.Person{
		ExternalID:  ap.ID,
		FirstName:   ap.FirstName,
		LastName:    ap.LastName,
		Email:       ap.Email,
		EmailStatus: ap.EmailStatus,
		Title:       ap.Title,
		Seniority:   ap.Seniority,
		Departments: ap.Departments,
		LinkedInURL: ap.LinkedInURL,
		City:        ap.City,
		Country:     ap.Country,
	}
	for _, pn := range ap.PhoneNumbers {
		if number := firstNonEmpty(pn.SanitizedNumber, pn.RawNumber); number != "" {
			person.Phone = number
			break
		}
	}
	for _, eh := range ap.EmploymentHistory {
		person.EmploymentHistory = append(person.EmploymentHistory, payload.Employment{
			Title:            eh.Title,
			OrganizationName: eh.OrganizationName,
			StartDate:        parseDate(eh.StartDate),
			EndDate:          parseDate(eh.EndDate),
			Current:          eh.Current,
		})
	}

	p := payload.Payload{
		Source:    payload.SourceApollo,
		FetchedAt: fetchedAt.UTC(),
		Person:    person,
	}
	if org := ap.Organization; org != nil {
		p.Organization = &payload.Organization{
			ExternalID:         org.ID,
			Name:               org.Name,
			PrimaryDomain:      org.PrimaryDomain,
			WebsiteURL:         org.WebsiteURL,
			Industry:           org.Industry,
			EstimatedEmployees: org.EstimatedEmployees.ToIntPtr(),
			AnnualRevenue:      org.AnnualRevenue.ToInt64Ptr(),
			TotalFunding:       org.TotalFunding.ToInt64Ptr(),
			LatestFundingStage: org.LatestFundingStage,
			LatestFundingAt:    parseDate(org.LatestFundingDate),
			FoundedYear:        org.FoundedYear.ToIntPtr(),
			PublicTicker:       org.PubliclyTradedSymbol,
			HeadcountGrowth6m:  org.Growth6m.ToFloat64Ptr(),
			HeadcountGrowth12m: org.Growth12m.ToFloat64Ptr(),
			HeadcountGrowth24m: org.Growth24m.ToFloat64Ptr(),
			OpenJobPostings:    org.OpenJobPostings.ToIntPtr(),
		}
	}
	p.Normalize(fetchedAt)
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
