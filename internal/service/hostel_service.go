package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

type hostelRepository interface {
	List(ctx context.Context) ([]models.Hostel, error)
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
	Create(ctx context.Context, hostel *models.Hostel) error
	Update(ctx context.Context, hostel *models.Hostel) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// HostelService exposes the hostel registry used by signup forms and
// warden administration.
type HostelService struct {
	repo      hostelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHostelService constructs a HostelService instance.
func NewHostelService(repo hostelRepository, validate *validator.Validate, logger *zap.Logger) *HostelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &HostelService{repo: repo, validator: validate, logger: logger}
}

// List returns all hostels in the registry.
func (s *HostelService) List(ctx context.Context) ([]models.Hostel, error) {
	hostels, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hostels")
	}
	return hostels, nil
}

// Get returns a single hostel by id.
func (s *HostelService) Get(ctx context.Context, id string) (*models.Hostel, error) {
	hostel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch hostel")
	}
	return hostel, nil
}

// Create registers a new hostel.
func (s *HostelService) Create(ctx context.Context, req models.CreateHostelRequest) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}

	hostel := &models.Hostel{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Location:  req.Location,
		Capacity:  req.Capacity,
		Occupied:  0,
		CreatedAt: time.Now().UTC(),
	}
	if req.WardenID != "" {
		hostel.WardenID = &req.WardenID
	}

	if err := s.repo.Create(ctx, hostel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hostel")
	}
	return hostel, nil
}

// Update applies partial changes to a hostel.
func (s *HostelService) Update(ctx context.Context, id string, req models.UpdateHostelRequest) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}

	hostel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch hostel")
	}

	if req.Name != nil {
		hostel.Name = *req.Name
	}
	if req.Location != nil {
		hostel.Location = *req.Location
	}
	if req.Capacity != nil {
		hostel.Capacity = *req.Capacity
	}
	if req.WardenID != nil {
		hostel.WardenID = req.WardenID
	}

	if err := s.repo.Update(ctx, hostel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hostel")
	}
	return hostel, nil
}

// Delete removes a hostel from the registry.
func (s *HostelService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hostel")
	}
	return nil
}

// SeedDefaults inserts the campus hostels when the registry is empty.
// Seeding is idempotent and skipped as soon as any hostel exists.
func (s *HostelService) SeedDefaults(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count hostels")
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Hostel{
		{ID: "hostel-1", Name: "North Wing", Location: "Campus North", Capacity: 100, Occupied: 85},
		{ID: "hostel-2", Name: "South Wing", Location: "Campus South", Capacity: 120, Occupied: 95},
		{ID: "hostel-3", Name: "East Wing", Location: "Campus East", Capacity: 80, Occupied: 60},
		{ID: "hostel-4", Name: "West Wing", Location: "Campus West", Capacity: 90, Occupied: 75},
	}

	for i := range defaults {
		defaults[i].CreatedAt = time.Now().UTC()
		if err := s.repo.Create(ctx, &defaults[i]); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed hostels")
		}
	}

	s.logger.Info("seeded default hostels", zap.Int("count", len(defaults)))
	return nil
}
