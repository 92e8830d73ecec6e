// Package sla derives ticket deadlines and the time-remaining bands shown on
// the workboard. Every function takes "now" explicitly so callers (and tests)
// control the clock.
package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/isp-workboard/internal/domain"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// Severity is the display tone of an SLA label.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Label texts. They double as locale keys under "sla.".
const (
	LabelMet     = "Met"
	LabelOverdue = "Overdue"
	LabelAtRisk  = "At Risk"
	LabelWarning = "Warning"
	LabelOnTrack = "On Track"
)

const (
	atRiskWithin  = 2 * time.Hour
	warningWithin = 4 * time.Hour
)

var windows = map[domain.TicketPriority]time.Duration{
	domain.TicketPriorityHigh:   4 * time.Hour,
	domain.TicketPriorityMedium: 8 * time.Hour,
	domain.TicketPriorityLow:    24 * time.Hour,
}

// Label is the computed SLA state for one render.
type Label struct {
	Text     string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Window returns the resolution window granted to a priority.
func Window(priority domain.TicketPriority) (time.Duration, bool) {
	w, ok := windows[priority]
	return w, ok
}

// ComputeDueAt returns the deadline for a ticket created at createdAt. It is
// evaluated once at creation; later priority changes do not move it.
func ComputeDueAt(priority domain.TicketPriority, createdAt time.Time) (time.Time, error) {
	w, ok := windows[priority]
	if !ok {
		return time.Time{}, apperrors.NewValidationError(
			fmt.Sprintf("no SLA window for priority %q", priority),
			map[string]any{"priority": priority},
		)
	}
	return createdAt.Add(w), nil
}

// Remaining is the time left until the deadline, negative once past due.
func Remaining(ticket domain.Ticket, now time.Time) time.Duration {
	return ticket.SLADueAt.Sub(now)
}

// Status classifies the ticket relative to its deadline at now.
func Status(ticket domain.Ticket, now time.Time) Label {
	if ticket.Status == domain.TicketStatusCompleted {
		return Label{Text: LabelMet, Severity: SeveritySuccess}
	}
	left := Remaining(ticket, now)
	switch {
	case left < 0:
		return Label{Text: LabelOverdue, Severity: SeverityError}
	case left < atRiskWithin:
		return Label{Text: LabelAtRisk, Severity: SeverityError}
	case left < warningWithin:
		return Label{Text: LabelWarning, Severity: SeverityWarning}
	default:
		return Label{Text: LabelOnTrack, Severity: SeveritySuccess}
	}
}

// IsAtRisk drives the "At risk" badge. Overdue tickets are at risk too.
func IsAtRisk(ticket domain.Ticket, now time.Time) bool {
	if ticket.Status == domain.TicketStatusCompleted {
		return false
	}
	return Remaining(ticket, now) < atRiskWithin
}

// FormatRemaining renders the time left as "{h}h {m}m", dropping a zero
// hour or minute part.
func FormatRemaining(ticket domain.Ticket, now time.Time) string {
	if ticket.Status == domain.TicketStatusCompleted {
		return LabelMet
	}
	left := Remaining(ticket, now)
	if left < 0 {
		return LabelOverdue
	}
	totalMinutes := int(left / time.Minute)
	h, m := totalMinutes/60, totalMinutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
