package dto

import "time"

// StudentDashboardResponse carries the per-student derived counters.
// Each counter is read independently; together they are eventually
// consistent, not an atomic snapshot.
type StudentDashboardResponse struct {
	ActiveBookings  int       `json:"active_bookings"`
	PendingRequests int       `json:"pending_requests"`
	HelpTickets     int       `json:"help_tickets"`
	Outings         int       `json:"outings"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// WardenDashboardResponse summarises the warden's hostel workload.
type WardenDashboardResponse struct {
	HostelID           string    `json:"hostel_id"`
	TotalStudents      int       `json:"total_students"`
	PendingComplaints  int       `json:"pending_complaints"`
	PendingHelpTickets int       `json:"pending_help_tickets"`
	PendingOutings     int       `json:"pending_outings"`
	GeneratedAt        time.Time `json:"generated_at"`
}
