package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type mockHelpRepo struct {
	tickets    map[string]*models.HelpRequest
	listFilter models.RequestFilter
}

func newMockHelpRepo() *mockHelpRepo {
	return &mockHelpRepo{tickets: map[string]*models.HelpRequest{}}
}

func (m *mockHelpRepo) Create(ctx context.Context, req *models.HelpRequest) error {
	m.tickets[req.ID] = req
	return nil
}

func (m *mockHelpRepo) FindByID(ctx context.Context, id string) (*models.HelpRequest, error) {
	if ticket, ok := m.tickets[id]; ok {
		return ticket, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHelpRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	m.listFilter = filter
	out := make([]models.HelpRequest, 0, len(m.tickets))
	for _, ticket := range m.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

func (m *mockHelpRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	ticket, ok := m.tickets[id]
	if !ok || ticket.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	ticket.Status = status
	return nil
}

func newHelpFixture() (*HelpRequestService, *mockHelpRepo) {
	repo := newMockHelpRepo()
	svc := NewHelpRequestService(repo, &mockEventPublisher{}, &mockAuditRecorder{}, &mockInvalidator{}, nil, nil, nil)
	return svc, repo
}

func TestHelpRequestCategories(t *testing.T) {
	svc, _ := newHelpFixture()

	categories := svc.Categories()
	assert.Equal(t, models.HelpCategories, categories)

	categories[0] = "mutated"
	assert.Equal(t, "Room Issues", models.HelpCategories[0])
}

func TestHelpRequestCreateUnknownCategory(t *testing.T) {
	svc, _ := newHelpFixture()

	_, err := svc.Create(context.Background(), studentActor, dto.CreateHelpRequest{
		Category: "Time Travel", Description: "need a paradox fixed",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "unknown help category", appErr.Message)
}

func TestHelpRequestCreate(t *testing.T) {
	svc, _ := newHelpFixture()

	ticket, err := svc.Create(context.Background(), studentActor, dto.CreateHelpRequest{
		Category: "Internet/WiFi", Description: "  no signal in room 210  ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, ticket.Status)
	assert.Equal(t, "no signal in room 210", ticket.Description)
	assert.Equal(t, "hostel-1", ticket.HostelID)
}

func TestHelpRequestListScopesWardenToHostel(t *testing.T) {
	svc, repo := newHelpFixture()

	_, err := svc.List(context.Background(), wardenActor, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, "hostel-1", repo.listFilter.HostelID)
	assert.Equal(t, models.StatusPending, repo.listFilter.Status)
}

func TestHelpRequestListUnassignedWardenSeesAll(t *testing.T) {
	svc, repo := newHelpFixture()
	repo.tickets["h-1"] = &models.HelpRequest{ID: "h-1", StudentID: "student-2", Status: models.StatusPending}

	unassigned := models.UserInfo{ID: "warden-9", Role: models.RoleWarden}
	tickets, err := svc.List(context.Background(), unassigned, "")
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Empty(t, repo.listFilter.HostelID)
	assert.Empty(t, repo.listFilter.StudentID)
}

func TestHelpRequestResolveOnly(t *testing.T) {
	svc, repo := newHelpFixture()
	repo.tickets["h-1"] = &models.HelpRequest{
		ID: "h-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusPending,
	}

	_, err := svc.Transition(context.Background(), wardenActor, "h-1", dto.TransitionRequest{Status: "rejected"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	ticket, err := svc.Transition(context.Background(), wardenActor, "h-1", dto.TransitionRequest{Status: "resolved"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, ticket.Status)
}
