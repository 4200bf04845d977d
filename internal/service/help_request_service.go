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

type helpRequestRepository interface {
	Create(ctx context.Context, req *models.HelpRequest) error
	FindByID(ctx context.Context, id string) (*models.HelpRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

// HelpRequestService manages categorised support tickets.
type HelpRequestService struct {
	repo       helpRequestRepository
	events     eventPublisher
	audit      auditRecorder
	dashboards dashboardInvalidator
	metrics    requestMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewHelpRequestService constructs a HelpRequestService instance.
func NewHelpRequestService(
	repo helpRequestRepository,
	events eventPublisher,
	audit auditRecorder,
	dashboards dashboardInvalidator,
	metrics requestMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *HelpRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &HelpRequestService{
		repo:       repo,
		events:     events,
		audit:      audit,
		dashboards: dashboards,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Categories returns the fixed set of ticket categories.
func (s *HelpRequestService) Categories() []string {
	out := make([]string, len(models.HelpCategories))
	copy(out, models.HelpCategories)
	return out
}

// Create opens a new pending ticket for the acting student.
func (s *HelpRequestService) Create(ctx context.Context, actor models.UserInfo, req dto.CreateHelpRequest) (*models.HelpRequest, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid help request payload")
	}
	if !validHelpCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown help category")
	}

	ticket := &models.HelpRequest{
		ID:           uuid.NewString(),
		StudentID:    actor.ID,
		StudentName:  actor.Name,
		StudentEmail: actor.Email,
		HostelID:     actor.HostelID,
		Category:     req.Category,
		Description:  req.Description,
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create help request")
	}

	if s.metrics != nil {
		s.metrics.RecordRequestCreated(models.KindHelpRequest)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestCreate, ticket.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindHelpRequest,
		RecordID:   ticket.ID,
		Action:     models.EventCreated,
		HostelID:   ticket.HostelID,
		StudentID:  ticket.StudentID,
	})
	s.invalidate(ctx, ticket.StudentID, ticket.HostelID)

	return ticket, nil
}

// List returns tickets scoped to the caller. A warden without a hostel
// binding falls back to the full queue rather than an empty or
// forbidden view; tickets are triaged by category, not hostel.
func (s *HelpRequestService) List(ctx context.Context, actor models.UserInfo, status models.RequestStatus) ([]models.HelpRequest, error) {
	var filter models.RequestFilter
	if actor.Role == models.RoleWarden && actor.HostelID == "" {
		filter = models.RequestFilter{Status: status}
	} else {
		var err error
		filter, err = scopeFilter(actor, status)
		if err != nil {
			return nil, err
		}
	}

	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list help requests")
	}
	return tickets, nil
}

// Get returns a single ticket, restricted to records the caller may see.
func (s *HelpRequestService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.HelpRequest, error) {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "help request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch help request")
	}
	if err := authorizeRecordAccess(actor, ticket.StudentID, ticket.HostelID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Transition resolves a pending ticket. Resolved is the only terminal
// state for help requests.
func (s *HelpRequestService) Transition(ctx context.Context, actor models.UserInfo, id string, req dto.TransitionRequest) (*models.HelpRequest, error) {
	target := models.RequestStatus(req.Status)
	if !models.ValidTransition(models.KindHelpRequest, target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid target status for help request")
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionConflict(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update help request")
	}

	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload help request")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.KindHelpRequest, target)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestTransition, ticket.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindHelpRequest,
		RecordID:   ticket.ID,
		Action:     models.EventUpdated,
		HostelID:   ticket.HostelID,
		StudentID:  ticket.StudentID,
	})
	s.invalidate(ctx, ticket.StudentID, ticket.HostelID)

	return ticket, nil
}

func (s *HelpRequestService) transitionConflict(ctx context.Context, id string) error {
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "help request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch help request")
	}
	return appErrors.Clone(appErrors.ErrConflict, "help request is already "+string(ticket.Status))
}

func (s *HelpRequestService) recordAudit(ctx context.Context, userID, action, recordID string) {
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   string(models.KindHelpRequest),
		ResourceID: &recordID,
	}); err != nil {
		s.logger.Warn("failed to record help request audit log", zap.Error(err))
	}
}

func (s *HelpRequestService) publish(ctx context.Context, event models.ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish help request event", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished(event.Collection)
	}
}

func (s *HelpRequestService) invalidate(ctx context.Context, studentID, hostelID string) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateFor(ctx, studentID, hostelID)
}

func validHelpCategory(category string) bool {
	for _, c := range models.HelpCategories {
		if c == category {
			return true
		}
	}
	return false
}
