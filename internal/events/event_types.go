package events

import (
	"time"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintSubmitted   EventType = "complaint_submitted"
	EventEntryAdded           EventType = "entry_added"
	EventStageAdvanced        EventType = "stage_advanced"
	EventQCAssigned           EventType = "qc_assigned"
	EventQCVerdictRecorded    EventType = "qc_verdict_recorded"
	EventQCVerdictRejected    EventType = "qc_verdict_rejected"
	EventThreadClosed         EventType = "thread_closed"
	EventThreadReopened       EventType = "thread_reopened"
	EventThreadStatusChanged  EventType = "thread_status_changed"
	EventMaintenanceCompleted EventType = "maintenance_completed"
)

// AllEventTypes lists every type a forwarding subscriber should receive.
var AllEventTypes = []EventType{
	EventComplaintSubmitted,
	EventEntryAdded,
	EventStageAdvanced,
	EventQCAssigned,
	EventQCVerdictRecorded,
	EventQCVerdictRejected,
	EventThreadClosed,
	EventThreadReopened,
	EventThreadStatusChanged,
	EventMaintenanceCompleted,
}

// Actor encapsulates actor metadata for an event. System jobs carry no user.
type Actor struct {
	Role   domain.Role `json:"role,omitempty"`
	UserID *int64      `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ThreadID     int64     `json:"thread_id,omitempty"`
	ThreadNumber string    `json:"thread_number,omitempty"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload,omitempty"`
}

// ComplaintSubmittedPayload payload.
type ComplaintSubmittedPayload struct {
	EntryID       int64  `json:"entry_id"`
	Channel       string `json:"channel"`
	ComplaintType string `json:"complaint_type"`
}

// EntryAddedPayload payload.
type EntryAddedPayload struct {
	EntryID       int64              `json:"entry_id"`
	SourceEntryID int64              `json:"source_entry_id"`
	Status        domain.EntryStatus `json:"status"`
}

// StageAdvancedPayload payload.
type StageAdvancedPayload struct {
	EntryID int64              `json:"entry_id"`
	Stage   string             `json:"stage"`
	Stage2  string             `json:"stage_2,omitempty"`
	Status  domain.EntryStatus `json:"status"`
}

// QCAssignedPayload payload.
type QCAssignedPayload struct {
	QCUserID int64 `json:"qc_user_id"`
}

// QCVerdictPayload payload.
type QCVerdictPayload struct {
	EntryID int64            `json:"entry_id,omitempty"`
	Label   domain.LabelCase `json:"label"`
}

// ThreadStatusPayload payload.
type ThreadStatusPayload struct {
	ThreadStatus domain.ThreadStatus `json:"thread_status,omitempty"`
	EntryStatus  domain.EntryStatus  `json:"entry_status"`
	Entries      int64               `json:"entries"`
}

// MaintenancePayload payload.
type MaintenancePayload struct {
	Job     string `json:"job"`
	Entries int64  `json:"entries"`
}
