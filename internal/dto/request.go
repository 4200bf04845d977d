package dto

// CreateBookingRequest is the student payload for booking a room.
type CreateBookingRequest struct {
	HostelID string `json:"hostel_id" validate:"required"`
}

// CreateComplaintRequest raises a food complaint against the student's
// hostel.
type CreateComplaintRequest struct {
	Message string `json:"message" validate:"required"`
}

// CreateHelpRequest opens a categorised support ticket.
type CreateHelpRequest struct {
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateOutingRequest asks for permission to leave on a given date.
type CreateOutingRequest struct {
	Date   string `json:"date" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// TransitionRequest moves a pending record into a terminal status. Note
// is only honoured where the collection stores one.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}
