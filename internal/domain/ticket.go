package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "Pending"
	TicketStatusOngoing   TicketStatus = "Ongoing"
	TicketStatusEscalated TicketStatus = "Escalated"
	TicketStatusCompleted TicketStatus = "Completed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// TicketCategory enumerates the kinds of service request.
type TicketCategory string

const (
	TicketCategoryInstallation TicketCategory = "Installation"
	TicketCategoryRepair       TicketCategory = "Repair"
	TicketCategoryTransfer     TicketCategory = "Transfer"
	TicketCategoryITSupport    TicketCategory = "IT Support"
)

// Assignee is a technician code or AssigneeNone.
type Assignee string

const (
	AssigneeJL   Assignee = "JL"
	AssigneeRD   Assignee = "RD"
	AssigneeTM   Assignee = "TM"
	AssigneeNone Assignee = "None"
)

var (
	allStatuses   = []TicketStatus{TicketStatusPending, TicketStatusOngoing, TicketStatusEscalated, TicketStatusCompleted}
	allPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}
	allCategories = []TicketCategory{TicketCategoryInstallation, TicketCategoryRepair, TicketCategoryTransfer, TicketCategoryITSupport}
	allAssignees  = []Assignee{AssigneeJL, AssigneeRD, AssigneeTM, AssigneeNone}
)

// Statuses returns every ticket status in workflow order.
func Statuses() []TicketStatus { return slices.Clone(allStatuses) }

// Priorities returns every priority from lowest to highest.
func Priorities() []TicketPriority { return slices.Clone(allPriorities) }

// Categories returns every ticket category.
func Categories() []TicketCategory { return slices.Clone(allCategories) }

// Assignees returns every technician code plus AssigneeNone.
func Assignees() []Assignee { return slices.Clone(allAssignees) }

func (s TicketStatus) Valid() bool   { return slices.Contains(allStatuses, s) }
func (p TicketPriority) Valid() bool { return slices.Contains(allPriorities, p) }
func (c TicketCategory) Valid() bool { return slices.Contains(allCategories, c) }
func (a Assignee) Valid() bool       { return slices.Contains(allAssignees, a) }

// ParseStatus matches a status name case-insensitively.
func ParseStatus(raw string) (TicketStatus, error) {
	return parseEnum(raw, allStatuses, "status")
}

// ParsePriority matches a priority name case-insensitively.
func ParsePriority(raw string) (TicketPriority, error) {
	return parseEnum(raw, allPriorities, "priority")
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(raw string) (TicketCategory, error) {
	return parseEnum(raw, allCategories, "category")
}

// ParseAssignee matches a technician code case-insensitively. An empty
// value parses as AssigneeNone.
func ParseAssignee(raw string) (Assignee, error) {
	if strings.TrimSpace(raw) == "" {
		return AssigneeNone, nil
	}
	return parseEnum(raw, allAssignees, "assignee")
}

func parseEnum[T ~string](raw string, values []T, kind string) (T, error) {
	raw = strings.TrimSpace(raw)
	for _, v := range values {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, raw)
}

const ticketIDPrefix = "TRX-"

// FormatTicketID renders the n-th ticket identifier, e.g. TRX-00042.
func FormatTicketID(n int) string {
	return fmt.Sprintf("%s%05d", ticketIDPrefix, n)
}

// ParseTicketSeq extracts the numeric part of a TRX-##### identifier.
func ParseTicketSeq(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, ticketIDPrefix)
	if !ok || len(digits) != 5 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Note is a free-text comment left on a ticket.
type Note struct {
	At   time.Time `json:"at"`
	By   string    `json:"by"`
	Text string    `json:"text"`
}

// Ticket is the aggregate for a customer service request.
type Ticket struct {
	ID          string
	Customer    string
	Address     string
	Phone       string
	Email       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Assignee    Assignee
	Status      TicketStatus
	CreatedAt   time.Time
	SLADueAt    time.Time
	Notes       []Note
	History     []HistoryEvent
}

// Clone returns a deep copy so the receiver and the copy share no slices
// or meta maps.
func (t Ticket) Clone() Ticket {
	out := t
	out.Notes = slices.Clone(t.Notes)
	if t.History != nil {
		out.History = make([]HistoryEvent, len(t.History))
		for i, ev := range t.History {
			ev.Meta = maps.Clone(ev.Meta)
			out.History[i] = ev
		}
	}
	return out
}

// LastEvent returns the most recent history entry.
func (t Ticket) LastEvent() (HistoryEvent, bool) {
	if len(t.History) == 0 {
		return HistoryEvent{}, false
	}
	return t.History[len(t.History)-1], true
}
