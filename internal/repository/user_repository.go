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

// UserRepository provides database access for profiles and sessions. It
// also owns the signup write path, where the profile insert and the
// hostel-side mutation commit in a single transaction so a failed
// profile write can never leave an orphaned occupancy increment behind.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, hostel_id, created_at, updated_at`

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

const insertUserQuery = `INSERT INTO users (id, email, password_hash, name, role, hostel_id, created_at, updated_at) VALUES (:id, :email, :password_hash, :name, :role, :hostel_id, :created_at, :updated_at)`

// CreateStudent persists a student profile and atomically increments the
// occupancy counter of the chosen hostel. The increment runs as a single
// UPDATE so concurrent signups against the same hostel cannot lose
// updates. Returns sql.ErrNoRows when the hostel does not exist.
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, hostelID string) error {
	prepare(user)
	user.HostelID = &hostelID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student signup: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := incrementOccupied(ctx, tx, hostelID); err != nil {
		return err
	}

	if _, err := tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student signup: %w", err)
	}
	return nil
}

// CreateWardenForHostel persists a warden profile attached to an existing
// hostel, overwriting that hostel's warden reference. No uniqueness check
// is made: the last warden to attach wins. Returns sql.ErrNoRows when the
// hostel does not exist.
func (r *UserRepository) CreateWardenForHostel(ctx context.Context, user *models.User, hostelID string) error {
	prepare(user)
	user.HostelID = &hostelID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin warden signup: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE hostels SET warden_id = $2 WHERE id = $1`, hostelID, user.ID)
	if err != nil {
		return fmt.Errorf("assign hostel warden: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign hostel warden: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		return fmt.Errorf("create warden profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit warden signup: %w", err)
	}
	return nil
}

// CreateWardenWithHostel persists a warden profile together with a newly
// created hostel owned by that warden. The hostel reuses the warden's id
// as its identifier.
func (r *UserRepository) CreateWardenWithHostel(ctx context.Context, user *models.User, hostel *models.Hostel) error {
	prepare(user)
	user.HostelID = &hostel.ID
	if hostel.CreatedAt.IsZero() {
		hostel.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin warden signup: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const hostelQuery = `INSERT INTO hostels (id, name, location, capacity, occupied, warden_id, created_at) VALUES (:id, :name, :location, :capacity, :occupied, :warden_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, hostelQuery, hostel); err != nil {
		return fmt.Errorf("create warden hostel: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		return fmt.Errorf("create warden profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit warden signup: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CountStudentsByHostel returns the number of student accounts bound to
// a hostel.
func (r *UserRepository) CountStudentsByHostel(ctx context.Context, hostelID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = 'student' AND hostel_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, hostelID); err != nil {
		return 0, fmt.Errorf("count students by hostel: %w", err)
	}
	return count, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func prepare(user *models.User) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}
