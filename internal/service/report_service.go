package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/export"
	"github.com/hosteldesk/hosteldesk-api/pkg/jobs"
	"github.com/hosteldesk/hosteldesk-api/pkg/storage"
)

const reportJobType = "request_report"

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultPath, resultURL string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type reportBookingLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.Booking, error)
}

type reportComplaintLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.Complaint, error)
}

type reportHelpLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error)
}

type reportOutingLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.OutingRequest, error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

// ReportService exports a request collection to CSV or PDF in the
// background and hands out signed download links.
type ReportService struct {
	repo       reportRepository
	bookings   reportBookingLister
	complaints reportComplaintLister
	help       reportHelpLister
	outings    reportOutingLister
	audit      auditRecorder
	queue      reportQueue
	store      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	config     config.ReportsConfig
	logger     *zap.Logger
}

// NewReportService constructs a ReportService instance. The queue is
// attached afterwards with SetQueue because the queue handler needs the
// service.
func NewReportService(
	repo reportRepository,
	bookings reportBookingLister,
	complaints reportComplaintLister,
	help reportHelpLister,
	outings reportOutingLister,
	audit auditRecorder,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	cfg config.ReportsConfig,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{
		repo:       repo,
		bookings:   bookings,
		complaints: complaints,
		help:       help,
		outings:    outings,
		audit:      audit,
		store:      store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		config:     cfg,
		logger:     logger,
	}
}

// SetQueue wires the background queue the service enqueues onto.
func (s *ReportService) SetQueue(queue reportQueue) {
	s.queue = queue
}

// Enqueue records a new export job scoped to the warden's hostel and
// schedules it for background processing.
func (s *ReportService) Enqueue(ctx context.Context, actor models.UserInfo, req dto.CreateReportRequest) (*models.ReportJob, error) {
	if !s.config.Enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if actor.HostelID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "warden has no hostel assigned")
	}

	job := &models.ReportJob{
		ID:   uuid.NewString(),
		Kind: models.RequestKind(req.Kind),
		Params: models.ReportJobParams{
			HostelID: actor.HostelID,
			Format:   models.ReportFormat(req.Format),
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.ID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue unavailable"); markErr != nil {
			s.logger.Error("failed to mark report job failed", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.ID,
		Action:     models.AuditActionReportRequest,
		Resource:   "report_jobs",
		ResourceID: &job.ID,
	}); err != nil {
		s.logger.Warn("failed to record report audit log", zap.Error(err))
	}

	return job, nil
}

// Get returns the job metadata, restricted to the requesting warden.
func (s *ReportService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch report job")
	}
	if job.CreatedBy != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report job belongs to another user")
	}
	return job, nil
}

// OpenDownload validates a signed token and opens the exported file.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, relPath, nil
}

// HandleJob is the queue handler that renders and stores one export.
func (s *ReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected report job payload %T", job.Payload)
	}
	return s.process(ctx, jobID)
}

func (s *ReportService) process(ctx context.Context, jobID string) error {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job: %w", err)
	}

	if err := s.repo.MarkProcessing(ctx, job.ID); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	var (
		payload []byte
		ext     string
	)
	switch job.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(*dataset, fmt.Sprintf("%s report", job.Kind))
		ext = "pdf"
	default:
		payload, err = s.csv.Render(*dataset)
		ext = "csv"
	}
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	relPath := fmt.Sprintf("%s/%s.%s", job.Kind, job.ID, ext)
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	resultURL := fmt.Sprintf("/reports/download?token=%s", token)
	if err := s.repo.MarkFinished(ctx, job.ID, relPath, resultURL); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}

	s.logger.Info("report job finished",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.String("format", string(job.Params.Format)))
	return nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) {
	if err := s.repo.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (*export.Dataset, error) {
	filter := models.RequestFilter{HostelID: job.Params.HostelID}

	switch job.Kind {
	case models.KindBooking:
		records, err := s.bookings.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list bookings for report: %w", err)
		}
		data := &export.Dataset{Headers: []string{"ID", "Student", "Email", "Hostel", "Status", "Created"}}
		for _, b := range records {
			data.Rows = append(data.Rows, map[string]string{
				"ID":      b.ID,
				"Student": b.StudentName,
				"Email":   b.StudentEmail,
				"Hostel":  b.HostelName,
				"Status":  string(b.Status),
				"Created": b.CreatedAt.Format(time.RFC3339),
			})
		}
		return data, nil
	case models.KindComplaint:
		records, err := s.complaints.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list complaints for report: %w", err)
		}
		data := &export.Dataset{Headers: []string{"ID", "Student", "Message", "Status", "Resolution", "Created"}}
		for _, c := range records {
			data.Rows = append(data.Rows, map[string]string{
				"ID":         c.ID,
				"Student":    c.StudentName,
				"Message":    c.Message,
				"Status":     string(c.Status),
				"Resolution": c.ResolutionNote,
				"Created":    c.CreatedAt.Format(time.RFC3339),
			})
		}
		return data, nil
	case models.KindHelpRequest:
		records, err := s.help.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list help requests for report: %w", err)
		}
		data := &export.Dataset{Headers: []string{"ID", "Student", "Category", "Description", "Status", "Created"}}
		for _, h := range records {
			data.Rows = append(data.Rows, map[string]string{
				"ID":          h.ID,
				"Student":     h.StudentName,
				"Category":    h.Category,
				"Description": h.Description,
				"Status":      string(h.Status),
				"Created":     h.CreatedAt.Format(time.RFC3339),
			})
		}
		return data, nil
	case models.KindOutingRequest:
		records, err := s.outings.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list outing requests for report: %w", err)
		}
		data := &export.Dataset{Headers: []string{"ID", "Student", "Date", "Reason", "Status", "Created"}}
		for _, o := range records {
			data.Rows = append(data.Rows, map[string]string{
				"ID":      o.ID,
				"Student": o.StudentName,
				"Date":    o.Date,
				"Reason":  o.Reason,
				"Status":  string(o.Status),
				"Created": o.CreatedAt.Format(time.RFC3339),
			})
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown report kind %q", job.Kind)
	}
}
