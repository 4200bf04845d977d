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

type outingRepository interface {
	Create(ctx context.Context, outing *models.OutingRequest) error
	FindByID(ctx context.Context, id string) (*models.OutingRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.OutingRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

// OutingService manages outing permission requests.
type OutingService struct {
	repo       outingRepository
	events     eventPublisher
	audit      auditRecorder
	dashboards dashboardInvalidator
	metrics    requestMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewOutingService constructs an OutingService instance.
func NewOutingService(
	repo outingRepository,
	events eventPublisher,
	audit auditRecorder,
	dashboards dashboardInvalidator,
	metrics requestMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *OutingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OutingService{
		repo:       repo,
		events:     events,
		audit:      audit,
		dashboards: dashboards,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Create files a new pending outing request for the acting student.
func (s *OutingService) Create(ctx context.Context, actor models.UserInfo, req dto.CreateOutingRequest) (*models.OutingRequest, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outing payload")
	}

	outing := &models.OutingRequest{
		ID:           uuid.NewString(),
		StudentID:    actor.ID,
		StudentName:  actor.Name,
		StudentEmail: actor.Email,
		HostelID:     actor.HostelID,
		Date:         req.Date,
		Reason:       req.Reason,
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, outing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create outing request")
	}

	if s.metrics != nil {
		s.metrics.RecordRequestCreated(models.KindOutingRequest)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestCreate, outing.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindOutingRequest,
		RecordID:   outing.ID,
		Action:     models.EventCreated,
		HostelID:   outing.HostelID,
		StudentID:  outing.StudentID,
	})
	s.invalidate(ctx, outing.StudentID, outing.HostelID)

	return outing, nil
}

// List returns outing requests scoped to the caller.
func (s *OutingService) List(ctx context.Context, actor models.UserInfo, status models.RequestStatus) ([]models.OutingRequest, error) {
	filter, err := scopeFilter(actor, status)
	if err != nil {
		return nil, err
	}

	outings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outing requests")
	}
	return outings, nil
}

// Get returns a single outing request, restricted to records the caller
// may see.
func (s *OutingService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.OutingRequest, error) {
	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch outing request")
	}
	if err := authorizeRecordAccess(actor, outing.StudentID, outing.HostelID); err != nil {
		return nil, err
	}
	return outing, nil
}

// Transition moves a pending outing request to approved or rejected.
func (s *OutingService) Transition(ctx context.Context, actor models.UserInfo, id string, req dto.TransitionRequest) (*models.OutingRequest, error) {
	target := models.RequestStatus(req.Status)
	if !models.ValidTransition(models.KindOutingRequest, target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid target status for outing request")
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionConflict(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update outing request")
	}

	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload outing request")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.KindOutingRequest, target)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestTransition, outing.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindOutingRequest,
		RecordID:   outing.ID,
		Action:     models.EventUpdated,
		HostelID:   outing.HostelID,
		StudentID:  outing.StudentID,
	})
	s.invalidate(ctx, outing.StudentID, outing.HostelID)

	return outing, nil
}

func (s *OutingService) transitionConflict(ctx context.Context, id string) error {
	outing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "outing request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch outing request")
	}
	return appErrors.Clone(appErrors.ErrConflict, "outing request is already "+string(outing.Status))
}

func (s *OutingService) recordAudit(ctx context.Context, userID, action, recordID string) {
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   string(models.KindOutingRequest),
		ResourceID: &recordID,
	}); err != nil {
		s.logger.Warn("failed to record outing audit log", zap.Error(err))
	}
}

func (s *OutingService) publish(ctx context.Context, event models.ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish outing event", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished(event.Collection)
	}
}

func (s *OutingService) invalidate(ctx context.Context, studentID, hostelID string) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateFor(ctx, studentID, hostelID)
}
