package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// HostelRepository provides database access to the hostel registry.
type HostelRepository struct {
	db *sqlx.DB
}

// NewHostelRepository creates a new instance of HostelRepository.
func NewHostelRepository(db *sqlx.DB) *HostelRepository {
	return &HostelRepository{db: db}
}

const hostelColumns = `id, name, location, capacity, occupied, warden_id, created_at`

// List returns every hostel record. The registry has no inherent order;
// callers must not rely on one.
func (r *HostelRepository) List(ctx context.Context) ([]models.Hostel, error) {
	query := fmt.Sprintf(`SELECT %s FROM hostels`, hostelColumns)
	var hostels []models.Hostel
	if err := r.db.SelectContext(ctx, &hostels, query); err != nil {
		return nil, fmt.Errorf("list hostels: %w", err)
	}
	return hostels, nil
}

// FindByID returns a hostel by identifier.
func (r *HostelRepository) FindByID(ctx context.Context, id string) (*models.Hostel, error) {
	query := fmt.Sprintf(`SELECT %s FROM hostels WHERE id = $1 LIMIT 1`, hostelColumns)
	var hostel models.Hostel
	if err := r.db.GetContext(ctx, &hostel, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find hostel by id: %w", err)
	}
	return &hostel, nil
}

// Create inserts a new hostel record.
func (r *HostelRepository) Create(ctx context.Context, hostel *models.Hostel) error {
	if hostel.ID == "" {
		hostel.ID = uuid.NewString()
	}
	if hostel.CreatedAt.IsZero() {
		hostel.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO hostels (id, name, location, capacity, occupied, warden_id, created_at) VALUES (:id, :name, :location, :capacity, :occupied, :warden_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hostel); err != nil {
		return fmt.Errorf("create hostel: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a hostel record.
func (r *HostelRepository) Update(ctx context.Context, hostel *models.Hostel) error {
	const query = `UPDATE hostels SET name = :name, location = :location, capacity = :capacity, warden_id = :warden_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, hostel)
	if err != nil {
		return fmt.Errorf("update hostel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update hostel: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a hostel record.
func (r *HostelRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM hostels WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete hostel: %w", err)
	}
	return nil
}

// incrementOccupied bumps the occupancy counter of a hostel by one in a
// single UPDATE and returns the new value. The increment is atomic at
// the database, so concurrent callers always accumulate: two increments
// from occupied=N end at N+2, never N+1. It runs on any queryer so the
// student signup transaction can reuse it. Returns sql.ErrNoRows when
// the hostel does not exist. Capacity is intentionally not checked,
// matching the registry's advisory occupied <= capacity expectation.
func incrementOccupied(ctx context.Context, q sqlx.QueryerContext, hostelID string) (int, error) {
	const query = `UPDATE hostels SET occupied = occupied + 1 WHERE id = $1 RETURNING occupied`
	var occupied int
	if err := sqlx.GetContext(ctx, q, &occupied, query, hostelID); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("increment hostel occupancy: %w", err)
	}
	return occupied, nil
}

// Count returns the total number of hostels in the registry.
func (r *HostelRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM hostels`); err != nil {
		return 0, fmt.Errorf("count hostels: %w", err)
	}
	return total, nil
}
