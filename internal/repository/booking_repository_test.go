package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{
		StudentID:    "student-1",
		StudentName:  "Asha Rao",
		StudentEmail: "asha@example.com",
		HostelID:     "hostel-1",
		HostelName:   "North Wing",
		Status:       models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_email", "hostel_id", "hostel_name", "status", "created_at"}).
		AddRow("b-2", "student-1", "Asha Rao", "asha@example.com", "hostel-1", "North Wing", "pending", time.Now()).
		AddRow("b-1", "student-1", "Asha Rao", "asha@example.com", "hostel-1", "North Wing", "approved", time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+bookingColumns+" FROM bookings WHERE student_id = $1 ORDER BY created_at DESC")).
		WithArgs("student-1").
		WillReturnRows(rows)

	bookings, err := repo.List(context.Background(), models.RequestFilter{StudentID: "student-1"})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, models.StatusPending, bookings[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByHostelAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+bookingColumns+" FROM bookings WHERE hostel_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs("hostel-1", models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_email", "hostel_id", "hostel_name", "status", "created_at"}))

	bookings, err := repo.List(context.Background(), models.RequestFilter{HostelID: "hostel-1", Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2 WHERE id = $1 AND status = 'pending'")).
		WithArgs("b-1", models.StatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "b-1", models.StatusApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2 WHERE id = $1 AND status = 'pending'")).
		WithArgs("b-1", models.StatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "b-1", models.StatusRejected)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRequestListQuery(t *testing.T) {
	query, args := buildRequestListQuery("bookings", bookingColumns, models.RequestFilter{})
	assert.Equal(t, "SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC", query)
	assert.Empty(t, args)

	query, args = buildRequestListQuery("complaints", complaintColumns, models.RequestFilter{
		StudentID: "s1", HostelID: "h1", Status: models.StatusPending,
	})
	assert.Contains(t, query, "student_id = $1")
	assert.Contains(t, query, "hostel_id = $2")
	assert.Contains(t, query, "status = $3")
	assert.Equal(t, []interface{}{"s1", "h1", models.StatusPending}, args)
}
