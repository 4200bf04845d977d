package models

import "time"

// EventAction describes what happened to a record.
type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

// ChangeEvent is published on a collection channel whenever a record in
// that collection changes. Consumers treat it as an invalidation signal
// and re-read the collection; the event does not carry the record body.
type ChangeEvent struct {
	Collection RequestKind `json:"collection"`
	RecordID   string      `json:"record_id"`
	Action     EventAction `json:"action"`
	HostelID   string      `json:"hostel_id,omitempty"`
	StudentID  string      `json:"student_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
