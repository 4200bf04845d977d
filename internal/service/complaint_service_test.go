package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type mockComplaintRepo struct {
	complaints map[string]*models.Complaint

	updatedNote       string
	updatedResolvedAt *time.Time
}

func newMockComplaintRepo() *mockComplaintRepo {
	return &mockComplaintRepo{complaints: map[string]*models.Complaint{}}
}

func (m *mockComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	m.complaints[complaint.ID] = complaint
	return nil
}

func (m *mockComplaintRepo) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	if c, ok := m.complaints[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockComplaintRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.Complaint, error) {
	return nil, nil
}

func (m *mockComplaintRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, note string, resolvedAt *time.Time) error {
	c, ok := m.complaints[id]
	if !ok || c.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	c.Status = status
	c.ResolutionNote = note
	c.ResolvedAt = resolvedAt
	m.updatedNote = note
	m.updatedResolvedAt = resolvedAt
	return nil
}

func newComplaintFixture() (*ComplaintService, *mockComplaintRepo) {
	repo := newMockComplaintRepo()
	svc := NewComplaintService(repo, &mockEventPublisher{}, &mockAuditRecorder{}, &mockInvalidator{}, nil, nil, nil)
	return svc, repo
}

func TestComplaintCreateRequiresHostel(t *testing.T) {
	svc, _ := newComplaintFixture()

	nomad := models.UserInfo{ID: "student-9", Role: models.RoleStudent}
	_, err := svc.Create(context.Background(), nomad, dto.CreateComplaintRequest{Message: "cold food"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "hostel required", appErr.Message)
}

func TestComplaintCreateStampsTimestamps(t *testing.T) {
	svc, _ := newComplaintFixture()

	complaint, err := svc.Create(context.Background(), studentActor, dto.CreateComplaintRequest{Message: "  cold food  "})
	require.NoError(t, err)
	assert.Equal(t, "cold food", complaint.Message)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Equal(t, "hostel-1", complaint.HostelID)
	assert.Equal(t, complaint.CreatedAt, complaint.UpdatedAt)
	assert.Nil(t, complaint.ResolvedAt)
}

func TestComplaintResolveSetsResolvedAt(t *testing.T) {
	svc, repo := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{
		ID: "c-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusPending,
	}

	complaint, err := svc.Transition(context.Background(), wardenActor, "c-1", dto.TransitionRequest{
		Status: "resolved", Note: "kitchen notified",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, complaint.Status)
	assert.Equal(t, "kitchen notified", repo.updatedNote)
	require.NotNil(t, repo.updatedResolvedAt)
}

func TestComplaintRejectLeavesResolvedAtNil(t *testing.T) {
	svc, repo := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{
		ID: "c-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusPending,
	}

	complaint, err := svc.Transition(context.Background(), wardenActor, "c-1", dto.TransitionRequest{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, complaint.Status)
	assert.Nil(t, repo.updatedResolvedAt)
}

func TestComplaintTransitionRejectsApproved(t *testing.T) {
	svc, _ := newComplaintFixture()

	_, err := svc.Transition(context.Background(), wardenActor, "c-1", dto.TransitionRequest{Status: "approved"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestComplaintTransitionAlreadyResolved(t *testing.T) {
	svc, repo := newComplaintFixture()
	repo.complaints["c-1"] = &models.Complaint{
		ID: "c-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusResolved,
	}

	_, err := svc.Transition(context.Background(), wardenActor, "c-1", dto.TransitionRequest{Status: "rejected"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "complaint is already resolved", appErr.Message)
}
