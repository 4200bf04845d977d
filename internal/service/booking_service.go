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

// eventPublisher emits change events for the live feed. Publishing is
// best effort in every caller.
type eventPublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// auditRecorder persists audit trail entries.
type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// dashboardInvalidator drops cached dashboard counters after a write.
type dashboardInvalidator interface {
	InvalidateFor(ctx context.Context, studentID, hostelID string)
}

// requestMetrics counts request-domain writes for the metrics endpoint.
type requestMetrics interface {
	RecordRequestCreated(kind models.RequestKind)
	RecordTransition(kind models.RequestKind, status models.RequestStatus)
	RecordEventPublished(kind models.RequestKind)
}

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
}

type bookingHostelFinder interface {
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
}

// BookingService manages room booking requests.
type BookingService struct {
	repo       bookingRepository
	hostels    bookingHostelFinder
	events     eventPublisher
	audit      auditRecorder
	dashboards dashboardInvalidator
	metrics    requestMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBookingService constructs a BookingService instance.
func NewBookingService(
	repo bookingRepository,
	hostels bookingHostelFinder,
	events eventPublisher,
	audit auditRecorder,
	dashboards dashboardInvalidator,
	metrics requestMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{
		repo:       repo,
		hostels:    hostels,
		events:     events,
		audit:      audit,
		dashboards: dashboards,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Create files a new pending booking for the acting student. The hostel
// name is denormalized onto the record at creation time; a hostel that
// has since disappeared renders as a blank name.
func (s *BookingService) Create(ctx context.Context, actor models.UserInfo, req dto.CreateBookingRequest) (*models.Booking, error) {
	req.HostelID = strings.TrimSpace(req.HostelID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	hostelName := ""
	if hostel, err := s.hostels.FindByID(ctx, req.HostelID); err == nil {
		hostelName = hostel.Name
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve hostel")
	}

	booking := &models.Booking{
		ID:           uuid.NewString(),
		StudentID:    actor.ID,
		StudentName:  actor.Name,
		StudentEmail: actor.Email,
		HostelID:     req.HostelID,
		HostelName:   hostelName,
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	if s.metrics != nil {
		s.metrics.RecordRequestCreated(models.KindBooking)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestCreate, booking.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindBooking,
		RecordID:   booking.ID,
		Action:     models.EventCreated,
		HostelID:   booking.HostelID,
		StudentID:  booking.StudentID,
	})
	s.invalidate(ctx, booking.StudentID, booking.HostelID)

	return booking, nil
}

// List returns bookings scoped to the caller. Students see their own
// records, wardens see their hostel's.
func (s *BookingService) List(ctx context.Context, actor models.UserInfo, status models.RequestStatus) ([]models.Booking, error) {
	filter, err := scopeFilter(actor, status)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// Get returns a single booking, restricted to records the caller may see.
func (s *BookingService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch booking")
	}
	if err := authorizeRecordAccess(actor, booking.StudentID, booking.HostelID); err != nil {
		return nil, err
	}
	return booking, nil
}

// Transition moves a pending booking to approved or rejected. A record
// already in a terminal state stays untouched and the call conflicts.
func (s *BookingService) Transition(ctx context.Context, actor models.UserInfo, id string, req dto.TransitionRequest) (*models.Booking, error) {
	target := models.RequestStatus(req.Status)
	if !models.ValidTransition(models.KindBooking, target) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid target status for booking")
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionConflict(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload booking")
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(models.KindBooking, target)
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionRequestTransition, booking.ID)
	s.publish(ctx, models.ChangeEvent{
		Collection: models.KindBooking,
		RecordID:   booking.ID,
		Action:     models.EventUpdated,
		HostelID:   booking.HostelID,
		StudentID:  booking.StudentID,
	})
	s.invalidate(ctx, booking.StudentID, booking.HostelID)

	return booking, nil
}

// transitionConflict distinguishes a missing record from one already in
// a terminal state after a guarded update matched no rows.
func (s *BookingService) transitionConflict(ctx context.Context, id string) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch booking")
	}
	return appErrors.Clone(appErrors.ErrConflict, "booking is already "+string(booking.Status))
}

func (s *BookingService) recordAudit(ctx context.Context, userID, action, recordID string) {
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   string(models.KindBooking),
		ResourceID: &recordID,
	}); err != nil {
		s.logger.Warn("failed to record booking audit log", zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, event models.ChangeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish booking event", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished(event.Collection)
	}
}

func (s *BookingService) invalidate(ctx context.Context, studentID, hostelID string) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateFor(ctx, studentID, hostelID)
}

// scopeFilter derives the list filter from the caller's role. Students
// only ever see their own records; wardens are bound to their hostel.
func scopeFilter(actor models.UserInfo, status models.RequestStatus) (models.RequestFilter, error) {
	filter := models.RequestFilter{Status: status}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.ID
	case models.RoleWarden:
		if actor.HostelID == "" {
			return filter, appErrors.Clone(appErrors.ErrForbidden, "warden has no hostel assigned")
		}
		filter.HostelID = actor.HostelID
	default:
		return filter, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	return filter, nil
}

// authorizeRecordAccess checks single-record reads against the caller.
func authorizeRecordAccess(actor models.UserInfo, studentID, hostelID string) error {
	switch actor.Role {
	case models.RoleStudent:
		if actor.ID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "record belongs to another student")
		}
	case models.RoleWarden:
		if actor.HostelID == "" || actor.HostelID != hostelID {
			return appErrors.Clone(appErrors.ErrForbidden, "record belongs to another hostel")
		}
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	return nil
}
