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

type mockBookingRepo struct {
	bookings     map[string]*models.Booking
	created      *models.Booking
	listFilter   models.RequestFilter
	listResult   []models.Booking
	updateErr    error
	updatedID    string
	updatedState models.RequestStatus
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: map[string]*models.Booking{}}
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	m.created = booking
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.Booking, error) {
	m.listFilter = filter
	return m.listResult, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	b, ok := m.bookings[id]
	if !ok || b.Status != models.StatusPending {
		return sql.ErrNoRows
	}
	b.Status = status
	m.updatedID = id
	m.updatedState = status
	return nil
}

type mockHostelFinder struct {
	hostels map[string]*models.Hostel
}

func (m *mockHostelFinder) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	if h, ok := m.hostels[id]; ok {
		return h, nil
	}
	return nil, sql.ErrNoRows
}

type mockEventPublisher struct {
	events []models.ChangeEvent
	err    error
}

func (m *mockEventPublisher) Publish(ctx context.Context, event models.ChangeEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type mockAuditRecorder struct {
	logs []*models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockInvalidator struct {
	studentIDs []string
	hostelIDs  []string
}

func (m *mockInvalidator) InvalidateFor(ctx context.Context, studentID, hostelID string) {
	m.studentIDs = append(m.studentIDs, studentID)
	m.hostelIDs = append(m.hostelIDs, hostelID)
}

type mockRequestMetrics struct {
	created     []models.RequestKind
	transitions map[models.RequestKind]models.RequestStatus
	published   []models.RequestKind
}

func newMockRequestMetrics() *mockRequestMetrics {
	return &mockRequestMetrics{transitions: map[models.RequestKind]models.RequestStatus{}}
}

func (m *mockRequestMetrics) RecordRequestCreated(kind models.RequestKind) {
	m.created = append(m.created, kind)
}

func (m *mockRequestMetrics) RecordTransition(kind models.RequestKind, status models.RequestStatus) {
	m.transitions[kind] = status
}

func (m *mockRequestMetrics) RecordEventPublished(kind models.RequestKind) {
	m.published = append(m.published, kind)
}

var studentActor = models.UserInfo{
	ID: "student-1", Email: "asha@example.com", Name: "Asha Rao",
	Role: models.RoleStudent, HostelID: "hostel-1",
}

var wardenActor = models.UserInfo{
	ID: "warden-1", Email: "meera@example.com", Name: "Meera Iyer",
	Role: models.RoleWarden, HostelID: "hostel-1",
}

func newBookingFixture() (*BookingService, *mockBookingRepo, *mockEventPublisher, *mockInvalidator) {
	repo := newMockBookingRepo()
	hostels := &mockHostelFinder{hostels: map[string]*models.Hostel{
		"hostel-1": {ID: "hostel-1", Name: "North Wing"},
	}}
	events := &mockEventPublisher{}
	invalidator := &mockInvalidator{}
	svc := NewBookingService(repo, hostels, events, &mockAuditRecorder{}, invalidator, nil, nil, nil)
	return svc, repo, events, invalidator
}

func TestBookingCreate(t *testing.T) {
	svc, repo, events, invalidator := newBookingFixture()

	booking, err := svc.Create(context.Background(), studentActor, dto.CreateBookingRequest{HostelID: "hostel-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, "student-1", booking.StudentID)
	assert.Equal(t, "North Wing", booking.HostelName)
	assert.NotEmpty(t, booking.ID)
	require.NotNil(t, repo.created)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.KindBooking, events.events[0].Collection)
	assert.Equal(t, models.EventCreated, events.events[0].Action)
	assert.Equal(t, []string{"student-1"}, invalidator.studentIDs)
	assert.Equal(t, []string{"hostel-1"}, invalidator.hostelIDs)
}

func TestBookingCreateUnknownHostelBlankName(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	booking, err := svc.Create(context.Background(), studentActor, dto.CreateBookingRequest{HostelID: "gone"})
	require.NoError(t, err)
	assert.Empty(t, booking.HostelName)
	assert.Equal(t, "gone", booking.HostelID)
}

func TestBookingCreateMissingHostelID(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.Create(context.Background(), studentActor, dto.CreateBookingRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingListScopes(t *testing.T) {
	svc, repo, _, _ := newBookingFixture()

	_, err := svc.List(context.Background(), studentActor, "")
	require.NoError(t, err)
	assert.Equal(t, "student-1", repo.listFilter.StudentID)
	assert.Empty(t, repo.listFilter.HostelID)

	_, err = svc.List(context.Background(), wardenActor, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, "hostel-1", repo.listFilter.HostelID)
	assert.Empty(t, repo.listFilter.StudentID)
	assert.Equal(t, models.StatusPending, repo.listFilter.Status)
}

func TestBookingListWardenWithoutHostel(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	unassigned := models.UserInfo{ID: "warden-2", Role: models.RoleWarden}
	_, err := svc.List(context.Background(), unassigned, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingGetAuthorization(t *testing.T) {
	svc, repo, _, _ := newBookingFixture()
	repo.bookings["b-1"] = &models.Booking{
		ID: "b-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusPending,
	}

	booking, err := svc.Get(context.Background(), studentActor, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", booking.ID)

	otherStudent := models.UserInfo{ID: "student-2", Role: models.RoleStudent}
	_, err = svc.Get(context.Background(), otherStudent, "b-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	otherWarden := models.UserInfo{ID: "warden-2", Role: models.RoleWarden, HostelID: "hostel-9"}
	_, err = svc.Get(context.Background(), otherWarden, "b-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBookingTransitionApproves(t *testing.T) {
	svc, repo, events, _ := newBookingFixture()
	created := time.Now().UTC().Add(-time.Hour)
	repo.bookings["b-1"] = &models.Booking{
		ID: "b-1", StudentID: "student-1", HostelID: "hostel-1",
		Status: models.StatusPending, CreatedAt: created,
	}

	booking, err := svc.Transition(context.Background(), wardenActor, "b-1", dto.TransitionRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, booking.Status)
	assert.Equal(t, created, booking.CreatedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventUpdated, events.events[0].Action)
}

func TestBookingTransitionInvalidTarget(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.Transition(context.Background(), wardenActor, "b-1", dto.TransitionRequest{Status: "resolved"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingTransitionAlreadyDecided(t *testing.T) {
	svc, repo, events, _ := newBookingFixture()
	repo.bookings["b-1"] = &models.Booking{
		ID: "b-1", StudentID: "student-1", HostelID: "hostel-1", Status: models.StatusApproved,
	}

	_, err := svc.Transition(context.Background(), wardenActor, "b-1", dto.TransitionRequest{Status: "rejected"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "booking is already approved", appErr.Message)
	assert.Equal(t, models.StatusApproved, repo.bookings["b-1"].Status)
	assert.Empty(t, events.events)
}

func TestBookingTransitionMissing(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.Transition(context.Background(), wardenActor, "missing", dto.TransitionRequest{Status: "approved"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingCountsCreationsAndTransitions(t *testing.T) {
	repo := newMockBookingRepo()
	hostels := &mockHostelFinder{hostels: map[string]*models.Hostel{
		"hostel-1": {ID: "hostel-1", Name: "North Wing"},
	}}
	metrics := newMockRequestMetrics()
	svc := NewBookingService(repo, hostels, &mockEventPublisher{}, &mockAuditRecorder{}, &mockInvalidator{}, metrics, nil, nil)

	booking, err := svc.Create(context.Background(), studentActor, dto.CreateBookingRequest{HostelID: "hostel-1"})
	require.NoError(t, err)
	assert.Equal(t, []models.RequestKind{models.KindBooking}, metrics.created)
	require.Len(t, metrics.published, 1)

	_, err = svc.Transition(context.Background(), wardenActor, booking.ID, dto.TransitionRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, metrics.transitions[models.KindBooking])
	assert.Len(t, metrics.published, 2)
}
