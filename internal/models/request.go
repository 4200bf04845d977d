package models

import "time"

// RequestStatus is the shared lifecycle state for every request kind.
// Records start pending and move exactly once into a terminal state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusResolved RequestStatus = "resolved"
)

// RequestKind identifies one of the four request collections.
type RequestKind string

const (
	KindBooking       RequestKind = "bookings"
	KindComplaint     RequestKind = "complaints"
	KindHelpRequest   RequestKind = "help_requests"
	KindOutingRequest RequestKind = "outing_requests"
)

// RequestKinds lists every request collection in a stable order.
var RequestKinds = []RequestKind{KindBooking, KindComplaint, KindHelpRequest, KindOutingRequest}

// terminalStatuses maps each kind to the statuses reachable from pending.
var terminalStatuses = map[RequestKind]map[RequestStatus]struct{}{
	KindBooking:       {StatusApproved: {}, StatusRejected: {}},
	KindComplaint:     {StatusResolved: {}, StatusRejected: {}},
	KindHelpRequest:   {StatusResolved: {}},
	KindOutingRequest: {StatusApproved: {}, StatusRejected: {}},
}

// ValidKind reports whether the kind names a known collection.
func ValidKind(kind RequestKind) bool {
	_, ok := terminalStatuses[kind]
	return ok
}

// ValidTransition reports whether a pending record of the given kind may
// move to the target status. Transitions never originate from a
// non-pending state; callers enforce that against the stored record.
func ValidTransition(kind RequestKind, target RequestStatus) bool {
	targets, ok := terminalStatuses[kind]
	if !ok {
		return false
	}
	_, ok = targets[target]
	return ok
}

// HelpCategories is the fixed set of categories a help request may use.
var HelpCategories = []string{
	"Room Issues",
	"Maintenance",
	"Internet/WiFi",
	"Laundry",
	"Security",
	"General Inquiry",
	"Other",
}

// Booking is a student's request to be allocated a room in a hostel.
// HostelName is denormalized at creation time; the hostel reference is
// weak and a missing hostel renders as a blank name.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	StudentName  string        `db:"student_name" json:"student_name"`
	StudentEmail string        `db:"student_email" json:"student_email"`
	HostelID     string        `db:"hostel_id" json:"hostel_id"`
	HostelName   string        `db:"hostel_name" json:"hostel_name"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// Complaint is a food complaint raised against the student's hostel.
type Complaint struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	StudentName    string        `db:"student_name" json:"student_name"`
	StudentEmail   string        `db:"student_email" json:"student_email"`
	HostelID       string        `db:"hostel_id" json:"hostel_id"`
	Message        string        `db:"message" json:"message"`
	Status         RequestStatus `db:"status" json:"status"`
	ResolutionNote string        `db:"resolution_note" json:"resolution_note,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	ResolvedAt     *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// HelpRequest is a categorised support ticket.
type HelpRequest struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	StudentName  string        `db:"student_name" json:"student_name"`
	StudentEmail string        `db:"student_email" json:"student_email"`
	HostelID     string        `db:"hostel_id" json:"hostel_id"`
	Category     string        `db:"category" json:"category"`
	Description  string        `db:"description" json:"description"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// OutingRequest asks for permission to leave the hostel on a given date.
type OutingRequest struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	StudentName  string        `db:"student_name" json:"student_name"`
	StudentEmail string        `db:"student_email" json:"student_email"`
	HostelID     string        `db:"hostel_id" json:"hostel_id"`
	Date         string        `db:"date" json:"date"`
	Reason       string        `db:"reason" json:"reason"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// RequestFilter scopes list queries. Students see their own records,
// wardens see records tagged with their hostel.
type RequestFilter struct {
	StudentID string
	HostelID  string
	Status    RequestStatus
}
