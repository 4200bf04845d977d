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

func TestUserRepositoryCreateStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE hostels SET occupied = occupied + 1 WHERE id = $1 RETURNING occupied")).
		WithArgs("hostel-1").
		WillReturnRows(sqlmock.NewRows([]string{"occupied"}).AddRow(86))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{
		Email:        "asha@example.com",
		PasswordHash: "hash",
		Name:         "Asha Rao",
		Role:         models.RoleStudent,
	}
	require.NoError(t, repo.CreateStudent(context.Background(), user, "hostel-1"))
	assert.NotEmpty(t, user.ID)
	require.NotNil(t, user.HostelID)
	assert.Equal(t, "hostel-1", *user.HostelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateStudentMissingHostel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE hostels SET occupied").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	user := &models.User{Email: "asha@example.com", Role: models.RoleStudent}
	err := repo.CreateStudent(context.Background(), user, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateWardenForHostel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE hostels SET warden_id = $2 WHERE id = $1")).
		WithArgs("hostel-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "warden@example.com", Role: models.RoleWarden}
	require.NoError(t, repo.CreateWardenForHostel(context.Background(), user, "hostel-1"))
	require.NotNil(t, user.HostelID)
	assert.Equal(t, "hostel-1", *user.HostelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateWardenWithHostel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO hostels").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{ID: "w-1", Email: "warden@example.com", Role: models.RoleWarden}
	hostel := &models.Hostel{ID: "w-1", Name: "Warden's Hostel", Capacity: models.DefaultHostelCapacity, WardenID: &user.ID}
	require.NoError(t, repo.CreateWardenWithHostel(context.Background(), user, hostel))
	require.NotNil(t, user.HostelID)
	assert.Equal(t, "w-1", *user.HostelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "hostel_id", "created_at", "updated_at"}).
		AddRow("u-1", "asha@example.com", "hash", "Asha Rao", "student", "hostel-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("asha@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u-1", Token: "opaque", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
