package models

import "time"

// DefaultHostelCapacity is applied when a warden signs up without
// attaching to an existing hostel and a fresh one is created.
const DefaultHostelCapacity = 50

// Hostel represents a managed residential facility. Occupied tracks the
// number of students currently assigned; the occupied <= capacity
// relationship is an operational expectation, not a stored constraint.
type Hostel struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Occupied  int       `db:"occupied" json:"occupied"`
	WardenID  *string   `db:"warden_id" json:"warden_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateHostelRequest is the warden payload for registering a hostel.
type CreateHostelRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	WardenID string `json:"warden_id"`
}

// UpdateHostelRequest carries partial changes to a hostel record.
type UpdateHostelRequest struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	WardenID *string `json:"warden_id,omitempty"`
}
