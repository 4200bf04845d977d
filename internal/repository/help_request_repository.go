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

// HelpRequestRepository provides database access to help tickets.
type HelpRequestRepository struct {
	db *sqlx.DB
}

// NewHelpRequestRepository creates a new instance of HelpRequestRepository.
func NewHelpRequestRepository(db *sqlx.DB) *HelpRequestRepository {
	return &HelpRequestRepository{db: db}
}

const helpRequestColumns = `id, student_id, student_name, student_email, hostel_id, category, description, status, created_at`

// Create inserts a new help request.
func (r *HelpRequestRepository) Create(ctx context.Context, req *models.HelpRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO help_requests (id, student_id, student_name, student_email, hostel_id, category, description, status, created_at) VALUES (:id, :student_id, :student_name, :student_email, :hostel_id, :category, :description, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create help request: %w", err)
	}
	return nil
}

// FindByID returns a help request by identifier.
func (r *HelpRequestRepository) FindByID(ctx context.Context, id string) (*models.HelpRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM help_requests WHERE id = $1 LIMIT 1`, helpRequestColumns)
	var req models.HelpRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find help request by id: %w", err)
	}
	return &req, nil
}

// List returns help requests matching the filter, newest first.
func (r *HelpRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	query, args := buildRequestListQuery("help_requests", helpRequestColumns, filter)
	var requests []models.HelpRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus moves a pending help request to the target status.
func (r *HelpRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	const query = `UPDATE help_requests SET status = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update help request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update help request status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPendingByStudent returns the number of open tickets for a student.
func (r *HelpRequestRepository) CountPendingByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM help_requests WHERE student_id = $1 AND status = 'pending'`, studentID); err != nil {
		return 0, fmt.Errorf("count pending help requests: %w", err)
	}
	return total, nil
}

// CountPendingByHostel returns the number of open tickets for a hostel.
func (r *HelpRequestRepository) CountPendingByHostel(ctx context.Context, hostelID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM help_requests WHERE hostel_id = $1 AND status = 'pending'`, hostelID); err != nil {
		return 0, fmt.Errorf("count pending help requests: %w", err)
	}
	return total, nil
}
