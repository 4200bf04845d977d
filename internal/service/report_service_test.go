package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/jobs"
	"github.com/hosteldesk/hosteldesk-api/pkg/storage"
)

type mockReportRepo struct {
	jobs       map[string]*models.ReportJob
	processing []string
	finished   map[string]string
	failed     map[string]string
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{
		jobs:     map[string]*models.ReportJob{},
		finished: map[string]string{},
		failed:   map[string]string{},
	}
}

func (m *mockReportRepo) Create(ctx context.Context, job *models.ReportJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *mockReportRepo) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportRepo) MarkProcessing(ctx context.Context, id string) error {
	m.processing = append(m.processing, id)
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ReportStatusProcessing
	}
	return nil
}

func (m *mockReportRepo) MarkFinished(ctx context.Context, id, resultPath, resultURL string) error {
	m.finished[id] = resultURL
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ReportStatusFinished
		job.ResultPath = &resultPath
		job.ResultURL = &resultURL
	}
	return nil
}

func (m *mockReportRepo) MarkFailed(ctx context.Context, id, reason string) error {
	m.failed[id] = reason
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ReportStatusFailed
	}
	return nil
}

type mockReportQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockReportQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type mockReportListers struct {
	bookings []models.Booking
}

func (m *mockReportListers) List(ctx context.Context, filter models.RequestFilter) ([]models.Booking, error) {
	return m.bookings, nil
}

type emptyComplaintLister struct{}

func (emptyComplaintLister) List(ctx context.Context, filter models.RequestFilter) ([]models.Complaint, error) {
	return nil, nil
}

type emptyHelpLister struct{}

func (emptyHelpLister) List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	return nil, nil
}

type emptyOutingLister struct{}

func (emptyOutingLister) List(ctx context.Context, filter models.RequestFilter) ([]models.OutingRequest, error) {
	return nil, nil
}

func newReportFixture(t *testing.T, enabled bool) (*ReportService, *mockReportRepo, *mockReportQueue) {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	repo := newMockReportRepo()
	queue := &mockReportQueue{}
	listers := &mockReportListers{bookings: []models.Booking{
		{
			ID: "b-1", StudentName: "Asha Rao", StudentEmail: "asha@example.com",
			HostelName: "North Wing", Status: models.StatusApproved,
			CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		},
	}}

	svc := NewReportService(
		repo, listers, emptyComplaintLister{}, emptyHelpLister{}, emptyOutingLister{},
		&mockAuditRecorder{}, store, signer, nil,
		config.ReportsConfig{Enabled: enabled},
		nil,
	)
	svc.SetQueue(queue)
	return svc, repo, queue
}

func TestReportEnqueue(t *testing.T) {
	svc, repo, queue := newReportFixture(t, true)

	job, err := svc.Enqueue(context.Background(), wardenActor, dto.CreateReportRequest{Kind: "bookings", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, models.KindBooking, job.Kind)
	assert.Equal(t, "hostel-1", job.Params.HostelID)
	assert.Equal(t, models.ReportFormatCSV, job.Params.Format)
	assert.Equal(t, "warden-1", job.CreatedBy)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].Payload)
	assert.Contains(t, repo.jobs, job.ID)
}

func TestReportEnqueueDisabled(t *testing.T) {
	svc, _, _ := newReportFixture(t, false)

	_, err := svc.Enqueue(context.Background(), wardenActor, dto.CreateReportRequest{Kind: "bookings", Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportEnqueueQueueDownMarksFailed(t *testing.T) {
	svc, repo, queue := newReportFixture(t, true)
	queue.err = errors.New("queue stopped")

	_, err := svc.Enqueue(context.Background(), wardenActor, dto.CreateReportRequest{Kind: "bookings", Format: "csv"})
	require.Error(t, err)
	require.Len(t, repo.failed, 1)
	for _, reason := range repo.failed {
		assert.Equal(t, "queue unavailable", reason)
	}
}

func TestReportGetOwnership(t *testing.T) {
	svc, repo, _ := newReportFixture(t, true)
	repo.jobs["r-1"] = &models.ReportJob{ID: "r-1", CreatedBy: "warden-1"}

	job, err := svc.Get(context.Background(), wardenActor, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", job.ID)

	other := models.UserInfo{ID: "warden-2", Role: models.RoleWarden, HostelID: "hostel-2"}
	_, err = svc.Get(context.Background(), other, "r-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportProcessRendersAndSigns(t *testing.T) {
	svc, repo, _ := newReportFixture(t, true)

	job, err := svc.Enqueue(context.Background(), wardenActor, dto.CreateReportRequest{Kind: "bookings", Format: "csv"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: job.ID, Type: "request_report", Payload: job.ID}))

	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ReportStatusFinished, stored.Status)
	assert.Contains(t, repo.processing, job.ID)
	require.NotNil(t, stored.ResultURL)
	assert.Contains(t, *stored.ResultURL, "/reports/download?token=")

	token := strings.TrimPrefix(*stored.ResultURL, "/reports/download?token=")
	file, relPath, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "bookings/"+job.ID+".csv", relPath)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Asha Rao")
	assert.Contains(t, string(content), "approved")
}

func TestReportDownloadBadToken(t *testing.T) {
	svc, _, _ := newReportFixture(t, true)

	_, _, err := svc.OpenDownload("garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestReportHandleJobBadPayload(t *testing.T) {
	svc, _, _ := newReportFixture(t, true)

	err := svc.HandleJob(context.Background(), jobs.Job{ID: "x", Payload: 42})
	require.Error(t, err)
}
