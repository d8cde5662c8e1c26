package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	companyrepo "outreach_backend/internal/companies/repository"
	companysvc "outreach_backend/internal/companies/service"
	contactrepo "outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/enrichment/client"
	"outreach_backend/internal/enrichment/payload"
	"outreach_backend/internal/enrichment/positioning"
	"outreach_backend/internal/enrichment/scoring"
	"outreach_backend/internal/enrichment/store"
	"outreach_backend/internal/enrichment/transport"
	"outreach_backend/internal/events"
	"outreach_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContacts struct {
	mu         sync.Mutex
	items      map[uuid.UUID]contactrepo.Contact
	order      []uuid.UUID
	applyErr   error
	onApply    func()
	scoreCalls int
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{items: map[uuid.UUID]contactrepo.Contact{}}
}

func (f *fakeContacts) put(c contactrepo.Contact) contactrepo.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.RelationshipTier == "" {
		c.RelationshipTier = "cold"
	}
	if _, ok := f.items[c.ID]; !ok {
		f.order = append(f.order, c.ID)
	}
	f.items[c.ID] = c
	return c
}

func (f *fakeContacts) Create(_ context.Context, c contactrepo.Contact) (contactrepo.Contact, error) {
	return f.put(c), nil
}

func (f *fakeContacts) GetByID(_ context.Context, tenantID, id uuid.UUID) (contactrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.TenantID != tenantID {
		return contactrepo.Contact{}, apperr.NotFound("contact not found")
	}
	return c, nil
}

func (f *fakeContacts) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (contactrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.TenantID == tenantID && c.Email != nil && *c.Email == email {
			return c, nil
		}
	}
	return contactrepo.Contact{}, apperr.NotFound("contact not found")
}

func (f *fakeContacts) Update(_ context.Context, u contactrepo.ContactUpdate) (contactrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.items[u.ID]
	if u.RelationshipTier != nil {
		c.RelationshipTier = *u.RelationshipTier
	}
	f.items[u.ID] = c
	return c, nil
}

func (f *fakeContacts) ApplyEnrichment(_ context.Context, _ uuid.UUID, id uuid.UUID, e contactrepo.Enrichment) (contactrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onApply != nil {
		f.onApply()
	}
	if f.applyErr != nil {
		return contactrepo.Contact{}, f.applyErr
	}
	c := f.items[id]
	c.CompanyID = e.CompanyID
	if c.Email == nil {
		c.Email = e.Email
	}
	if c.Title == nil {
		c.Title = e.Title
	}
	c.Persona = &e.Scores.Persona
	c.ReadinessScore = &e.Scores.Readiness
	c.ScoreVersion = &e.Scores.Version
	c.EnrichmentPayload = e.Payload
	at := e.EnrichedAt
	c.EnrichedAt = &at
	f.items[id] = c
	return c, nil
}

func (f *fakeContacts) UpdateScores(_ context.Context, _ uuid.UUID, id uuid.UUID, s contactrepo.Scores) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreCalls++
	c := f.items[id]
	c.ReadinessScore = &s.Readiness
	c.ScoreVersion = &s.Version
	f.items[id] = c
	return nil
}

func (f *fakeContacts) ListWithPayload(_ context.Context, after *contactrepo.Cursor, limit int) ([]contactrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []contactrepo.Contact{}
	started := after == nil
	for _, id := range f.order {
		if !started {
			started = id == after.ID
			continue
		}
		c := f.items[id]
		if len(c.EnrichmentPayload) == 0 {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type recalcSpy struct{ calls int }

func (r *recalcSpy) Recalculate(_ context.Context, c contactrepo.Contact) (contactrepo.Contact, error) {
	r.calls++
	return c, nil
}

type fakeCompanies struct {
	mu       sync.Mutex
	byDomain map[string]companyrepo.Company
	applied  []companyrepo.Enrichment
}

func (f *fakeCompanies) Resolve(_ context.Context, tenantID uuid.UUID, in companysvc.ResolveInput) (companysvc.Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.PrimaryDomain == "" {
		return companysvc.Resolution{}, nil
	}
	if c, ok := f.byDomain[in.PrimaryDomain]; ok {
		return companysvc.Resolution{Company: &c}, nil
	}
	d := in.PrimaryDomain
	c := companyrepo.Company{ID: uuid.New(), TenantID: tenantID, Name: in.Name, Domain: &d}
	f.byDomain[d] = c
	return companysvc.Resolution{Company: &c, Created: true}, nil
}

func (f *fakeCompanies) ApplyEnrichment(_ context.Context, _ uuid.UUID, id uuid.UUID, e companyrepo.Enrichment) (companyrepo.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, e)
	for _, c := range f.byDomain {
		if c.ID == id {
			return c, nil
		}
	}
	return companyrepo.Company{}, apperr.NotFound("company not found")
}

type stubPositioner struct{}

func (stubPositioner) Infer(_ context.Context, in positioning.Input) positioning.Result {
	r := positioning.Fallback(in)
	r.Category = "platform"
	r.Source = positioning.SourceLLM
	return r
}

type stubMatcher struct {
	fail map[string]bool
}

func (m stubMatcher) MatchPerson(_ context.Context, req client.MatchRequest) (*payload.Payload, error) {
	if m.fail[req.Email] {
		return nil, apperr.Upstream("enrichment provider unavailable", errors.New("boom"))
	}
	p := samplePayload(req.Email)
	return &p, nil
}

func samplePayload(email string) payload.Payload {
	headcount := 250
	revenue := int64(40_000_000)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return payload.Payload{
		Source: payload.SourceApollo,
		Person: payload.Person{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     email,
			Title:     "VP Engineering",
			EmploymentHistory: []payload.Employment{
				{Title: "VP Engineering", OrganizationName: "Acme", StartDate: &start, Current: true},
			},
		},
		Organization: &payload.Organization{
			Name:               "Acme",
			PrimaryDomain:      "acme.io",
			Industry:           "software",
			EstimatedEmployees: &headcount,
			AnnualRevenue:      &revenue,
		},
	}
}

type fixture struct {
	svc       *Service
	contacts  *fakeContacts
	companies *fakeCompanies
	recalc    *recalcSpy
	bus       *events.InMemoryBus
}

func newFixture(t *testing.T, matcher Matcher) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := fixture{
		contacts:  newFakeContacts(),
		companies: &fakeCompanies{byDomain: map[string]companyrepo.Company{}},
		recalc:    &recalcSpy{},
		bus:       events.NewInMemoryBus(nil),
	}
	f.svc = New(Deps{
		Store:       store.New(rdb, time.Hour),
		Matcher:     matcher,
		Positioner:  stubPositioner{},
		Contacts:    f.contacts,
		Cadence:     f.recalc,
		Companies:   f.companies,
		EventBus:    f.bus,
		PhoneRegion: "US",
	})
	f.svc.now = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestIngestRejectsPayloadWithoutIdentity(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Ingest(context.Background(), uuid.New(), payload.Payload{Source: payload.SourceManual})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLookupWithoutProviderIsValidationError(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Lookup(context.Background(), uuid.New(), transport.LookupRequest{Email: "ada@acme.io"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSaveCreatesContactAndCompany(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tenant := uuid.New()

	var published []events.ContactEnriched
	var mu sync.Mutex
	f.bus.Subscribe(events.ContactEnriched{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e.(events.ContactEnriched))
		return nil
	}))

	tok, err := f.svc.Ingest(ctx, tenant, samplePayload("ada@acme.io"))
	require.NoError(t, err)
	assert.Equal(t, scoring.Version, tok.Preview.Scores.Version)
	assert.Equal(t, positioning.SourceFallback, tok.Preview.Positioning.Source)

	preview, err := f.svc.Preview(ctx, tenant, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@acme.io", preview.Payload.Person.Email)

	resp, err := f.svc.Save(ctx, tenant, tok.Token, transport.SaveRequest{RelationshipTier: "warm"})
	require.NoError(t, err)
	f.bus.Wait()

	assert.True(t, resp.Created)
	require.NotNil(t, resp.Company)
	require.NotNil(t, resp.Positioning)
	assert.Equal(t, positioning.SourceLLM, resp.Positioning.Source)
	assert.Equal(t, "warm", resp.Contact.RelationshipTier)
	require.Len(t, f.companies.applied, 1)
	assert.Equal(t, "platform", *f.companies.applied[0].PositioningCategory)

	stored, err := f.contacts.GetByID(ctx, tenant, resp.Contact.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.EnrichmentPayload)
	assert.Equal(t, resp.Company.ID, *stored.CompanyID)

	require.Len(t, published, 1)
	assert.True(t, published[0].Created)
	assert.Equal(t, scoring.Version, published[0].ScoreVersion)

	// The token is single use.
	_, err = f.svc.Save(ctx, tenant, tok.Token, transport.SaveRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSaveMatchesExistingContactByEmailAndAppliesTier(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tenant := uuid.New()
	email := "ada@acme.io"
	existing := f.contacts.put(contactrepo.Contact{TenantID: tenant, FirstName: "Ada", Email: &email})

	tok, err := f.svc.Ingest(ctx, tenant, samplePayload(email))
	require.NoError(t, err)

	resp, err := f.svc.Save(ctx, tenant, tok.Token, transport.SaveRequest{RelationshipTier: "established"})
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, existing.ID, resp.Contact.ID)
	assert.Equal(t, "established", resp.Contact.RelationshipTier)
	assert.Equal(t, 1, f.recalc.calls)
}

func TestSaveRestoresTokenOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tenant := uuid.New()
	f.contacts.applyErr = errors.New("database down")

	tok, err := f.svc.Ingest(ctx, tenant, samplePayload("ada@acme.io"))
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, tenant, tok.Token, transport.SaveRequest{})
	require.Error(t, err)

	_, err = f.svc.Preview(ctx, tenant, tok.Token)
	assert.NoError(t, err, "token should be usable again after a failed save")
}

func TestSaveRestoresTokenWhenCallerCancels(t *testing.T) {
	f := newFixture(t, nil)
	tenant := uuid.New()

	tok, err := f.svc.Ingest(context.Background(), tenant, samplePayload("ada@acme.io"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.contacts.onApply = cancel
	f.contacts.applyErr = context.Canceled

	_, err = f.svc.Save(ctx, tenant, tok.Token, transport.SaveRequest{})
	require.ErrorIs(t, err, context.Canceled)

	_, err = f.svc.Preview(context.Background(), tenant, tok.Token)
	assert.NoError(t, err, "token should survive a cancelled save")
}

func TestSaveIsTenantScoped(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tok, err := f.svc.Ingest(ctx, uuid.New(), samplePayload("ada@acme.io"))
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, uuid.New(), tok.Token, transport.SaveRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBulkEnrichCollectsFailures(t *testing.T) {
	f := newFixture(t, stubMatcher{fail: map[string]bool{"bad@acme.io": true}})
	ctx := context.Background()
	tenant := uuid.New()

	emails := []string{"one@acme.io", "two@acme.io", "bad@acme.io"}
	ids := make([]uuid.UUID, 0, len(emails)+1)
	for _, e := range emails {
		email := e
		ids = append(ids, f.contacts.put(contactrepo.Contact{TenantID: tenant, FirstName: "X", Email: &email}).ID)
	}
	missing := uuid.New()
	ids = append(ids, missing, ids[0])

	result, err := f.svc.BulkEnrich(ctx, tenant, ids)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	messages := map[uuid.UUID]string{}
	for _, e := range result.Errors {
		messages[e.ID] = e.Error
	}
	assert.Equal(t, "contact not found", messages[missing])
	assert.Equal(t, "enrichment provider unavailable", messages[ids[2]])
}

func TestEnqueueBulkEnrichRequiresQueue(t *testing.T) {
	f := newFixture(t, stubMatcher{})
	_, err := f.svc.EnqueueBulkEnrich(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRescoreAllSkipsCurrentVersion(t *testing.T) {
	f := newFixture(t, stubMatcher{})
	ctx := context.Background()
	tenant := uuid.New()

	for i := 0; i < 5; i++ {
		email := uuid.NewString() + "@acme.io"
		c := f.contacts.put(contactrepo.Contact{TenantID: tenant, FirstName: "X", Email: &email})
		_, err := f.svc.EnrichContact(ctx, tenant, c.ID)
		require.NoError(t, err)
	}
	stale := "2020.01-1"
	first := f.contacts.items[f.contacts.order[0]]
	first.ScoreVersion = &stale
	f.contacts.items[first.ID] = first

	stats, err := f.svc.RescoreAll(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Failed)

	stats, err = f.svc.RescoreAll(ctx, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Updated)
}

func TestRescoreWithoutPayload(t *testing.T) {
	f := newFixture(t, nil)
	tenant := uuid.New()
	c := f.contacts.put(contactrepo.Contact{TenantID: tenant, FirstName: "X"})

	_, err := f.svc.Rescore(context.Background(), tenant, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
