package service

import (
	"context"
	"strings"
	"testing"
	"time"

	companyrepo "outreach_backend/internal/companies/repository"
	companysvc "outreach_backend/internal/companies/service"
	"outreach_backend/internal/contacts/repository"
	"outreach_backend/internal/contacts/transport"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	items map[uuid.UUID]repository.Contact
}

func newFakeRepo() *fakeRepo { return &fakeRepo{items: map[uuid.UUID]repository.Contact{}} }

func (f *fakeRepo) Create(_ context.Context, c repository.Contact) (repository.Contact, error) {
	if c.RelationshipTier == "" {
		c.RelationshipTier = "cold"
	}
	if c.PipelineStage == "" {
		c.PipelineStage = "new"
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Contact, error) {
	c, ok := f.items[id]
	if !ok || c.TenantID != tenantID {
		return repository.Contact{}, apperr.NotFound("contact not found")
	}
	return c, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (repository.Contact, error) {
	for _, c := range f.items {
		if c.TenantID == tenantID && c.Email != nil && strings.EqualFold(*c.Email, email) {
			return c, nil
		}
	}
	return repository.Contact{}, apperr.NotFound("contact not found")
}

func (f *fakeRepo) Update(_ context.Context, u repository.ContactUpdate) (repository.Contact, error) {
	c, ok := f.items[u.ID]
	if !ok {
		return repository.Contact{}, apperr.NotFound("contact not found")
	}
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.Title != nil {
		c.Title = u.Title
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	if u.Email != nil {
		c.Email = u.Email
	}
	if u.ClearEmail {
		c.Email = nil
	}
	if u.Phone != nil {
		c.Phone = u.Phone
	}
	if u.ClearPhone {
		c.Phone = nil
	}
	if u.RelationshipTier != nil {
		c.RelationshipTier = *u.RelationshipTier
	}
	if u.CompanyID != nil {
		c.CompanyID = u.CompanyID
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeRepo) SetCadence(_ context.Context, _ uuid.UUID, id uuid.UUID, cad repository.Cadence) (repository.Contact, error) {
	c := f.items[id]
	c.LastContactedAt = cad.LastContactedAt
	c.NextContactAt = cad.NextContactAt
	c.NextContactOverrideAt = cad.OverrideAt
	c.DoNotContactAgain = cad.DoNotContact
	f.items[id] = c
	return c, nil
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) BulkDelete(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var deleted []uuid.UUID
	for _, id := range ids {
		if c, ok := f.items[id]; ok && c.TenantID == tenantID {
			delete(f.items, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (f *fakeRepo) List(context.Context, repository.ListParams) (repository.ListResult, error) {
	return repository.ListResult{}, nil
}

type stubResolver struct {
	calls int
	id    uuid.UUID
}

func (s *stubResolver) Resolve(_ context.Context, tenantID uuid.UUID, in companysvc.ResolveInput) (companysvc.Resolution, error) {
	s.calls++
	return companysvc.Resolution{Company: &companyrepo.Company{ID: s.id, TenantID: tenantID, Name: in.Name}}, nil
}

func newTestService(repo *fakeRepo, resolver CompanyResolver) *Service {
	svc := New(repo, resolver, "US", nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestCreateNormalizesAndIsDueImmediately(t *testing.T) {
	repo := newFakeRepo()
	resolver := &stubResolver{id: uuid.New()}
	svc := newTestService(repo, resolver)

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateContactRequest{
		FirstName:   " Ada ",
		LastName:    "Lovelace",
		Email:       "Ada@Example.COM",
		Phone:       "(202) 456-1111",
		CompanyName: "Analytical Engines",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Email)
	assert.Equal(t, "ada@example.com", *resp.Email)
	require.NotNil(t, resp.Phone)
	assert.Equal(t, "+12024561111", *resp.Phone)
	assert.Equal(t, "Ada", resp.FirstName)
	assert.Equal(t, "cold", resp.RelationshipTier)
	assert.Equal(t, "new", resp.PipelineStage)
	require.NotNil(t, resp.Cadence.NextContactAt)
	assert.True(t, resp.Cadence.NextContactAt.Equal(fixedNow))
	assert.True(t, resp.Cadence.Due)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, resolver.id, *resp.CompanyID)
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateContactRequest{FirstName: "Only"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpsertUpdatesExistingByEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	first, created, err := svc.Upsert(context.Background(), tenant, Draft{Email: "grace@navy.mil", FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Upsert(context.Background(), tenant, Draft{Email: "GRACE@navy.mil", Title: "Rear Admiral", RelationshipTier: "warm"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Title)
	assert.Equal(t, "Rear Admiral", *second.Title)
	assert.Equal(t, "warm", second.RelationshipTier)
	assert.Len(t, repo.items, 1)
}

func TestBulkDeleteReportsMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	a, _, err := svc.Upsert(context.Background(), tenant, Draft{Email: "a@acme.com"})
	require.NoError(t, err)
	missing := uuid.New()

	result, err := svc.BulkDelete(context.Background(), tenant, []uuid.UUID{a.ID, missing, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].ID)
}

func TestUpdateTierRecalculatesCadence(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	c, _, err := svc.Upsert(context.Background(), tenant, Draft{Email: "x@acme.com"})
	require.NoError(t, err)
	last := fixedNow.Add(-24 * time.Hour)
	_, err = repo.SetCadence(context.Background(), tenant, c.ID, repository.Cadence{LastContactedAt: &last})
	require.NoError(t, err)

	tier := "established"
	resp, err := svc.Update(context.Background(), tenant, c.ID, transport.UpdateContactRequest{RelationshipTier: &tier})
	require.NoError(t, err)
	require.NotNil(t, resp.Cadence.NextContactAt)
	assert.True(t, resp.Cadence.NextContactAt.Equal(last.Add(14*24*time.Hour)))
	assert.False(t, resp.Cadence.Due)
}

func TestUpdateEmptyEmailAndPhoneClearToNull(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	c, _, err := svc.Upsert(context.Background(), tenant, Draft{Email: "ada@acme.com", FirstName: "Ada", LastName: "Lovelace", Phone: "+12024561111"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(context.Background(), tenant, c.ID, transport.UpdateContactRequest{Email: &empty, Phone: &empty})
	require.NoError(t, err)

	stored := repo.items[c.ID]
	assert.Nil(t, stored.Email, "cleared email must be NULL so the unique email index ignores it")
	assert.Nil(t, stored.Phone)
}

func TestUpdateRefusesToClearEmailOfNamelessContact(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	c, _, err := svc.Upsert(context.Background(), tenant, Draft{Email: "ops@acme.com"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(context.Background(), tenant, c.ID, transport.UpdateContactRequest{Email: &empty})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	require.NotNil(t, repo.items[c.ID].Email)
}
