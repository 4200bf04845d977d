package models

import "time"

// UserRole represents the two roles the platform knows about.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleWarden  UserRole = "warden"
)

// User represents an application user stored in the users table.
// HostelID is assigned once at signup and never reassigned afterwards.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	HostelID     *string   `db:"hostel_id" json:"hostel_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
