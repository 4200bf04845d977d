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

func TestComplaintRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("INSERT INTO complaints").
		WillReturnResult(sqlmock.NewResult(1, 1))

	complaint := &models.Complaint{
		StudentID: "student-1",
		HostelID:  "hostel-1",
		Message:   "mess food was cold again",
		Status:    models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), complaint))
	assert.NotEmpty(t, complaint.ID)
	assert.Equal(t, complaint.CreatedAt, complaint.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	resolvedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET status = $2, resolution_note = $3, updated_at = $4, resolved_at = $5 WHERE id = $1 AND status = 'pending'")).
		WithArgs("c-1", models.StatusResolved, "kitchen notified", sqlmock.AnyArg(), &resolvedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "c-1", models.StatusResolved, "kitchen notified", &resolvedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryResolveAlreadyTerminal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectExec("UPDATE complaints SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "c-1", models.StatusRejected, "", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepositoryCountPendingByHostel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM complaints WHERE hostel_id = $1 AND status = 'pending'")).
		WithArgs("hostel-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountPendingByHostel(context.Background(), "hostel-1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
