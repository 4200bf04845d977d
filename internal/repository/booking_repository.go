package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// BookingRepository provides database access to hostel booking requests.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, student_id, student_name, student_email, hostel_id, hostel_name, status, created_at`

// Create inserts a new booking request.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bookings (id, student_id, student_name, student_email, hostel_id, hostel_name, status, created_at) VALUES (:id, :student_id, :student_name, :student_email, :hostel_id, :hostel_name, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID returns a booking by identifier.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1 LIMIT 1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking by id: %w", err)
	}
	return &booking, nil
}

// List returns bookings matching the filter, newest first.
func (r *BookingRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Booking, error) {
	query, args := buildRequestListQuery("bookings", bookingColumns, filter)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus moves a pending booking to the target status. The guard on
// the current status lives in the UPDATE itself, so two racing wardens
// can never both win; the loser observes zero affected rows.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	const query = `UPDATE bookings SET status = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStudent returns the number of bookings a student has made.
func (r *BookingRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings WHERE student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("count bookings by student: %w", err)
	}
	return total, nil
}

// buildRequestListQuery assembles the shared list query for the four
// request collections: optional student/hostel/status filters, ordered
// newest-createdAt-first. Ties in created_at are deliberately unordered.
func buildRequestListQuery(table, columns string, filter models.RequestFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.HostelID != "" {
		conditions = append(conditions, fmt.Sprintf("hostel_id = $%d", len(args)+1))
		args = append(args, filter.HostelID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}
