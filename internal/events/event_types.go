package events

import (
	"time"

	"github.com/spec-kit/isp-workboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketNoteAdded     EventType = "ticket_note_added"
	EventTicketOnsite        EventType = "ticket_onsite_checkin"
)

// AllTypes lists every event type a service may publish.
func AllTypes() []EventType {
	return []EventType{
		EventTicketCreated,
		EventTicketStatusChanged,
		EventTicketAssigned,
		EventTicketEscalated,
		EventTicketResolved,
		EventTicketNoteAdded,
		EventTicketOnsite,
	}
}

// Event represents a domain event emitted after an action commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Customer string                `json:"customer"`
	Category domain.TicketCategory `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	SLADueAt time.Time             `json:"sla_due_at"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus  `json:"old_status"`
	NewStatus domain.TicketStatus  `json:"new_status"`
	Action    domain.HistoryAction `json:"action"`
	Comment   string               `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	From domain.Assignee `json:"from"`
	To   domain.Assignee `json:"to"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	Preview string `json:"preview"`
}

// TicketOnsitePayload payload.
type TicketOnsitePayload struct {
	Geo domain.GeoPoint `json:"geo"`
}
