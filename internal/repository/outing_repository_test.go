package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

func TestOutingRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	mock.ExpectExec("INSERT INTO outing_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	outing := &models.OutingRequest{
		StudentID: "student-1",
		HostelID:  "hostel-1",
		Date:      "2026-09-05",
		Reason:    "family visit",
		Status:    models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), outing))
	require.NotEmpty(t, outing.ID)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_email", "hostel_id", "date", "reason", "status", "created_at"}).
		AddRow(outing.ID, "student-1", "", "", "hostel-1", "2026-09-05", "family visit", "pending", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+outingColumns+" FROM outing_requests WHERE id = $1 LIMIT 1")).
		WithArgs(outing.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), outing.ID)
	require.NoError(t, err)
	assert.Equal(t, "family visit", found.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutingRepositoryCountByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOutingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'pending') AS pending FROM outing_requests WHERE student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending"}).AddRow(5, 2))

	total, pending, err := repo.CountByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 2, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
