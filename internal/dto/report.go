package dto

// CreateReportRequest queues an export of one request collection.
type CreateReportRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=bookings complaints help_requests outing_requests"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}
