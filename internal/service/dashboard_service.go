package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type studentCounters interface {
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

type pendingByStudentCounters interface {
	CountPendingByStudent(ctx context.Context, studentID string) (int, error)
}

type outingCounters interface {
	CountByStudent(ctx context.Context, studentID string) (total int, pending int, err error)
	CountPendingByHostel(ctx context.Context, hostelID string) (int, error)
}

type pendingByHostelCounters interface {
	CountPendingByHostel(ctx context.Context, hostelID string) (int, error)
}

type studentsByHostelCounter interface {
	CountStudentsByHostel(ctx context.Context, hostelID string) (int, error)
}

// DashboardService derives the role-specific counter summaries. Counters
// are cached briefly so rapid polling from the UI stays cheap; each
// counter is an independent read, so a summary built mid-write may be a
// hair off until the next refresh.
type DashboardService struct {
	bookings   studentCounters
	complaints pendingByHostelCounters
	help       pendingByStudentCounters
	helpHostel pendingByHostelCounters
	outings    outingCounters
	students   studentsByHostelCounter
	cache      dashboardCache
	config     config.DashboardConfig
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(
	bookings studentCounters,
	complaints pendingByHostelCounters,
	help pendingByStudentCounters,
	helpHostel pendingByHostelCounters,
	outings outingCounters,
	students studentsByHostelCounter,
	cache dashboardCache,
	cfg config.DashboardConfig,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		bookings:   bookings,
		complaints: complaints,
		help:       help,
		helpHostel: helpHostel,
		outings:    outings,
		students:   students,
		cache:      cache,
		config:     cfg,
		logger:     logger,
	}
}

func studentDashboardKey(studentID string) string {
	return fmt.Sprintf("dashboard:student:%s", studentID)
}

func wardenDashboardKey(hostelID string) string {
	return fmt.Sprintf("dashboard:warden:%s", hostelID)
}

// Student builds the student counter summary: every booking counts as
// active, pending requests count pending outings, help tickets count
// pending tickets, and outings counts all outing requests.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	key := studentDashboardKey(studentID)
	if s.cache != nil {
		var cached dto.StudentDashboardResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("student dashboard cache read failed", zap.Error(err))
		}
	}

	bookingCount, err := s.bookings.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}

	helpPending, err := s.help.CountPendingByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count help tickets")
	}

	outingTotal, outingPending, err := s.outings.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count outings")
	}

	resp := &dto.StudentDashboardResponse{
		ActiveBookings:  bookingCount,
		PendingRequests: outingPending,
		HelpTickets:     helpPending,
		Outings:         outingTotal,
		GeneratedAt:     time.Now().UTC(),
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// Warden builds the workload summary for the warden's hostel.
func (s *DashboardService) Warden(ctx context.Context, hostelID string) (*dto.WardenDashboardResponse, error) {
	if hostelID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "warden has no hostel assigned")
	}

	key := wardenDashboardKey(hostelID)
	if s.cache != nil {
		var cached dto.WardenDashboardResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("warden dashboard cache read failed", zap.Error(err))
		}
	}

	totalStudents, err := s.students.CountStudentsByHostel(ctx, hostelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	pendingComplaints, err := s.complaints.CountPendingByHostel(ctx, hostelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count complaints")
	}

	pendingHelp, err := s.helpHostel.CountPendingByHostel(ctx, hostelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count help tickets")
	}

	pendingOutings, err := s.outings.CountPendingByHostel(ctx, hostelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count outings")
	}

	resp := &dto.WardenDashboardResponse{
		HostelID:           hostelID,
		TotalStudents:      totalStudents,
		PendingComplaints:  pendingComplaints,
		PendingHelpTickets: pendingHelp,
		PendingOutings:     pendingOutings,
		GeneratedAt:        time.Now().UTC(),
	}

	s.store(ctx, key, resp)
	return resp, nil
}

// InvalidateFor drops cached summaries touched by a write to a record
// owned by the given student in the given hostel.
func (s *DashboardService) InvalidateFor(ctx context.Context, studentID, hostelID string) {
	if s.cache == nil {
		return
	}
	if studentID != "" {
		if err := s.cache.DeleteByPattern(ctx, studentDashboardKey(studentID)); err != nil {
			s.logger.Warn("failed to invalidate student dashboard", zap.Error(err))
		}
	}
	if hostelID != "" {
		if err := s.cache.DeleteByPattern(ctx, wardenDashboardKey(hostelID)); err != nil {
			s.logger.Warn("failed to invalidate warden dashboard", zap.Error(err))
		}
	}
}

func (s *DashboardService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
}
