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

// OutingRepository provides database access to outing requests.
type OutingRepository struct {
	db *sqlx.DB
}

// NewOutingRepository creates a new instance of OutingRepository.
func NewOutingRepository(db *sqlx.DB) *OutingRepository {
	return &OutingRepository{db: db}
}

const outingColumns = `id, student_id, student_name, student_email, hostel_id, date, reason, status, created_at`

// Create inserts a new outing request.
func (r *OutingRepository) Create(ctx context.Context, outing *models.OutingRequest) error {
	if outing.ID == "" {
		outing.ID = uuid.NewString()
	}
	if outing.CreatedAt.IsZero() {
		outing.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO outing_requests (id, student_id, student_name, student_email, hostel_id, date, reason, status, created_at) VALUES (:id, :student_id, :student_name, :student_email, :hostel_id, :date, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, outing); err != nil {
		return fmt.Errorf("create outing request: %w", err)
	}
	return nil
}

// FindByID returns an outing request by identifier.
func (r *OutingRepository) FindByID(ctx context.Context, id string) (*models.OutingRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM outing_requests WHERE id = $1 LIMIT 1`, outingColumns)
	var outing models.OutingRequest
	if err := r.db.GetContext(ctx, &outing, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find outing request by id: %w", err)
	}
	return &outing, nil
}

// List returns outing requests matching the filter, newest first.
func (r *OutingRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.OutingRequest, error) {
	query, args := buildRequestListQuery("outing_requests", outingColumns, filter)
	var outings []models.OutingRequest
	if err := r.db.SelectContext(ctx, &outings, query, args...); err != nil {
		return nil, fmt.Errorf("list outing requests: %w", err)
	}
	return outings, nil
}

// UpdateStatus moves a pending outing request to the target status.
func (r *OutingRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	const query = `UPDATE outing_requests SET status = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update outing request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update outing request status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStudent returns counts of a student's outings: all of them, and
// the pending subset.
func (r *OutingRepository) CountByStudent(ctx context.Context, studentID string) (total int, pending int, err error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'pending') AS pending FROM outing_requests WHERE student_id = $1`
	row := struct {
		Total   int `db:"total"`
		Pending int `db:"pending"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return 0, 0, fmt.Errorf("count outings by student: %w", err)
	}
	return row.Total, row.Pending, nil
}

// CountPendingByHostel returns the number of pending outing requests for a hostel.
func (r *OutingRepository) CountPendingByHostel(ctx context.Context, hostelID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM outing_requests WHERE hostel_id = $1 AND status = 'pending'`, hostelID); err != nil {
		return 0, fmt.Errorf("count pending outing requests: %w", err)
	}
	return total, nil
}
