package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type mockHostelRepo struct {
	hostels map[string]*models.Hostel
	count   int
	created []*models.Hostel
	updated *models.Hostel
}

func newMockHostelRepo() *mockHostelRepo {
	return &mockHostelRepo{hostels: map[string]*models.Hostel{}}
}

func (m *mockHostelRepo) List(ctx context.Context) ([]models.Hostel, error) {
	out := make([]models.Hostel, 0, len(m.hostels))
	for _, h := range m.hostels {
		out = append(out, *h)
	}
	return out, nil
}

func (m *mockHostelRepo) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	if h, ok := m.hostels[id]; ok {
		copied := *h
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHostelRepo) Create(ctx context.Context, hostel *models.Hostel) error {
	m.hostels[hostel.ID] = hostel
	m.created = append(m.created, hostel)
	return nil
}

func (m *mockHostelRepo) Update(ctx context.Context, hostel *models.Hostel) error {
	if _, ok := m.hostels[hostel.ID]; !ok {
		return sql.ErrNoRows
	}
	m.hostels[hostel.ID] = hostel
	m.updated = hostel
	return nil
}

func (m *mockHostelRepo) Delete(ctx context.Context, id string) error {
	delete(m.hostels, id)
	return nil
}

func (m *mockHostelRepo) Count(ctx context.Context) (int, error) {
	if m.count > 0 {
		return m.count, nil
	}
	return len(m.hostels), nil
}

func TestHostelCreate(t *testing.T) {
	repo := newMockHostelRepo()
	svc := NewHostelService(repo, nil, nil)

	hostel, err := svc.Create(context.Background(), models.CreateHostelRequest{
		Name: "North Wing", Location: "Campus North", Capacity: 100, WardenID: "warden-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, hostel.ID)
	assert.Equal(t, 0, hostel.Occupied)
	require.NotNil(t, hostel.WardenID)
	assert.Equal(t, "warden-1", *hostel.WardenID)
}

func TestHostelCreateRequiresName(t *testing.T) {
	svc := NewHostelService(newMockHostelRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateHostelRequest{Capacity: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHostelUpdatePartial(t *testing.T) {
	repo := newMockHostelRepo()
	repo.hostels["hostel-1"] = &models.Hostel{
		ID: "hostel-1", Name: "North Wing", Location: "Campus North", Capacity: 100, Occupied: 85,
	}
	svc := NewHostelService(repo, nil, nil)

	capacity := 110
	hostel, err := svc.Update(context.Background(), "hostel-1", models.UpdateHostelRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 110, hostel.Capacity)
	assert.Equal(t, "North Wing", hostel.Name)
	assert.Equal(t, 85, hostel.Occupied)
}

func TestHostelUpdateMissing(t *testing.T) {
	svc := NewHostelService(newMockHostelRepo(), nil, nil)

	name := "ghost"
	_, err := svc.Update(context.Background(), "missing", models.UpdateHostelRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHostelGetMissing(t *testing.T) {
	svc := NewHostelService(newMockHostelRepo(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHostelSeedDefaults(t *testing.T) {
	repo := newMockHostelRepo()
	svc := NewHostelService(repo, nil, nil)

	require.NoError(t, svc.SeedDefaults(context.Background()))
	require.Len(t, repo.created, 4)
	assert.Equal(t, "North Wing", repo.created[0].Name)
	assert.Equal(t, 100, repo.created[0].Capacity)
	assert.Equal(t, 85, repo.created[0].Occupied)

	require.NoError(t, svc.SeedDefaults(context.Background()))
	assert.Len(t, repo.created, 4)
}

func TestHostelSeedSkipsNonEmptyRegistry(t *testing.T) {
	repo := newMockHostelRepo()
	repo.count = 1
	svc := NewHostelService(repo, nil, nil)

	require.NoError(t, svc.SeedDefaults(context.Background()))
	assert.Empty(t, repo.created)
}
