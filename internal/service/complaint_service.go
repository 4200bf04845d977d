package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Complaint, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, note string, resolvedAt *time.Time) error
}

// ComplaintService manages food complaints.
type ComplaintService struct {
	repo       complaintRepository
	events     eventPublisher
	audit      auditRecorder
	dashboards dashboardInvalidator
	metrics    requestMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewComplaintService constructs a ComplaintService instance.
func NewComplaintService(
	repo complaintRepository,
	events eventPublisher,
	audit auditRecorder,
	dashboards dashboardInvalidator,
	metrics requestMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ComplaintService{
		repo:       repo,
		events:     events,
		audit:      audit,
		dashboards: dashboards,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Create files a new pending complaint against the student's own hostel.
func (s *ComplaintService) Create(ctx context.Context, actor models.UserInfo, req dto.CreateComplaintRequest) (*models.Complaint, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	if actor.HostelID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hostel required")
	}

	now := time.Now().UTC()
	complaint := &models.Complaint{
		ID:           uuid.NewString(),
		StudentID:    actor.ID,
		StudentName:  actor.Name,
		StudentEmail: actor.Email,
		HostelID:     actor.HostelID,
		Message:      req.Message,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	if s.metrics != nil {
		s.metrics.RecordRequestCreated(models.KindComplaint)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestCreate, complaint.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindComplaint,
		RecordID:   complaint.ID,
		Action:     models.EventCreated,
		HostelID:   complaint.HostelID,
		StudentID:  complaint.StudentID,
	})
	s.invalidate(ctx, complaint.StudentID, complaint.HostelID)

	return complaint, nil
}

// List returns complaints scoped to the caller.
func (s *ComplaintService) List(ctx context.Context, actor models.UserInfo, status models.RequestStatus) ([]models.Complaint, error) {
	filter, err := scopeFilter(actor, status)
	if err != nil {
		return nil, err
	}

	complaints, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// Get returns a single complaint, restricted to records the caller may see.
func (s *ComplaintService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch complaint")
	}
	if err := authorizeRecordAccess(actor, complaint.StudentID, complaint.HostelID); err != nil {
		return nil, err
	}
	return complaint, nil
}

// Transition moves a pending complaint to resolved or rejected. The
// resolution note and updated timestamp are stamped on every transition;
// resolved_at only when the complaint is resolved.
func (s *ComplaintService) Transition(ctx context.Context, actor models.UserInfo, id string, req dto.TransitionRequest) (*models.Complaint, error) {
	target := models.RequestStatus(req.Status)
	if !models.ValidTransition(models.KindComplaint, target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid target status for complaint")
	}

	var resolvedAt *time.Time
	if target == models.StatusResolved {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, target, req.Note, resolvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionConflict(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint")
	}

	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload complaint")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.KindComplaint, target)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestTransition, complaint.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindComplaint,
		RecordID:   complaint.ID,
		Action:     models.EventUpdated,
		HostelID:   complaint.HostelID,
		StudentID:  complaint.StudentID,
	})
	s.invalidate(ctx, complaint.StudentID, complaint.HostelID)

	return complaint, nil
}

func (s *ComplaintService) transitionConflict(ctx context.Context, id string) error {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch complaint")
	}
	return appErrors.Clone(appErrors.ErrConflict, "complaint is already "+string(complaint.Status))
}

func (s *ComplaintService) recordAudit(ctx context.Context, userID, action, recordID string) {
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   string(models.KindComplaint),
		ResourceID: &recordID,
	}); err != nil {
		s.logger.Warn("failed to record complaint audit log", zap.Error(err))
	}
}

func (s *ComplaintService) publish(ctx context.Context, event models.ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish complaint event", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished(event.Collection)
	}
}

func (s *ComplaintService) invalidate(ctx context.Context, studentID, hostelID string) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateFor(ctx, studentID, hostelID)
}
