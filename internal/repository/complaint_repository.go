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

// ComplaintRepository provides database access to food complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `id, student_id, student_name, student_email, hostel_id, message, status, resolution_note, created_at, updated_at, resolved_at`

// Create inserts a new complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = now
	}
	complaint.UpdatedAt = now
	const query = `INSERT INTO complaints (id, student_id, student_name, student_email, hostel_id, message, status, resolution_note, created_at, updated_at) VALUES (:id, :student_id, :student_name, :student_email, :hostel_id, :message, :status, :resolution_note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// FindByID returns a complaint by identifier.
func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1 LIMIT 1`, complaintColumns)
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint by id: %w", err)
	}
	return &complaint, nil
}

// List returns complaints matching the filter, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Complaint, error) {
	query, args := buildRequestListQuery("complaints", complaintColumns, filter)
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// UpdateStatus moves a pending complaint to the target status, attaching
// the resolution note and stamping updated_at. resolvedAt is set only
// when moving to resolved.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, note string, resolvedAt *time.Time) error {
	const query = `UPDATE complaints SET status = $2, resolution_note = $3, updated_at = $4, resolved_at = $5 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, note, time.Now().UTC(), resolvedAt)
	if err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPendingByHostel returns the number of pending complaints for a hostel.
func (r *ComplaintRepository) CountPendingByHostel(ctx context.Context, hostelID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM complaints WHERE hostel_id = $1 AND status = 'pending'`, hostelID); err != nil {
		return 0, fmt.Errorf("count pending complaints: %w", err)
	}
	return total, nil
}
