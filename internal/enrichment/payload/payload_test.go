package payload

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		p    Person
		want error
	}{
		{name: "email only", p: Person{Email: "a@b.com"}},
		{name: "linkedin only", p: Person{LinkedInURL: "https://linkedin.com/in/x"}},
		{name: "full name", p: Person{FirstName: "Ada", LastName: "Lovelace"}},
		{name: "first name only", p: Person{FirstName: "Ada"}, want: ErrNoIdentity},
		{name: "bad email", p: Person{Email: "not-an-email"}, want: ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Payload{Person: tc.p}.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNormalize_StampsFetchedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Payload{Person: Person{Email: "  Ada@Example.COM "}}
	p.Normalize(now)
	if p.Person.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", p.Person.Email)
	}
	if !p.FetchedAt.Equal(now) || p.Source != SourceManual {
		t.Fatalf("unexpected stamp %v %q", p.FetchedAt, p.Source)
	}

	fixed := now.Add(-time.Hour)
	q := Payload{FetchedAt: fixed, Source: SourceApollo}
	q.Normalize(now)
	if !q.FetchedAt.Equal(fixed) || q.Source != SourceApollo {
		t.Fatalf("existing values overwritten")
	}
}

func TestCurrentRole(t *testing.T) {
	d := func(y int) *time.Time { v := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC); return &v }
	p := Person{EmploymentHistory: []Employment{
		{Title: "Engineer", StartDate: d(2015), EndDate: d(2019)},
		{Title: "Advisor", StartDate: d(2018)},
		{Title: "CTO", StartDate: d(2020)},
	}}
	if got := p.CurrentRole(); got == nil || got.Title != "CTO" {
		t.Fatalf("expected latest open role, got %+v", got)
	}

	p.EmploymentHistory[1].Current = true
	if got := p.CurrentRole(); got == nil || got.Title != "Advisor" {
		t.Fatalf("expected flagged role, got %+v", got)
	}

	if (Person{}).CurrentRole() != nil {
		t.Fatalf("expected nil for empty history")
	}
}
