package dto

import (
	"time"

	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Customer    string `json:"customer"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
}

// MoveTicketRequest payload.
type MoveTicketRequest struct {
	Status string `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	Assignee string `json:"assignee"`
}

// EscalateTicketRequest payload. Reason is optional.
type EscalateTicketRequest struct {
	Reason string `json:"reason"`
}

// ResolveTicketRequest payload. Summary is optional.
type ResolveTicketRequest struct {
	Summary string `json:"summary"`
}

// NoteRequest payload.
type NoteRequest struct {
	Text string `json:"text"`
}

// OnsiteRequest payload. Both coordinates are required.
type OnsiteRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// SLAResponse is the SLA state at render time.
type SLAResponse struct {
	DueAt     time.Time    `json:"due_at"`
	Label     string       `json:"label"`
	Text      string       `json:"text"`
	Severity  sla.Severity `json:"severity"`
	AtRisk    bool         `json:"at_risk"`
	Remaining string       `json:"remaining"`
}

// TicketSummary is a board card.
type TicketSummary struct {
	ID            string                `json:"id"`
	Customer      string                `json:"customer"`
	Category      domain.TicketCategory `json:"category"`
	CategoryLabel string                `json:"category_label"`
	Priority      domain.TicketPriority `json:"priority"`
	PriorityLabel string                `json:"priority_label"`
	Assignee      domain.Assignee       `json:"assignee"`
	Status        domain.TicketStatus   `json:"status"`
	StatusLabel   string                `json:"status_label"`
	CreatedAt     time.Time             `json:"created_at"`
	SLA           SLAResponse           `json:"sla"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Address     string            `json:"address"`
	Phone       string            `json:"phone"`
	Email       string            `json:"email"`
	Description string            `json:"description"`
	Notes       []NoteResponse    `json:"notes"`
	History     []HistoryResponse `json:"history"`
}

// NoteResponse is one free-text note.
type NoteResponse struct {
	At   time.Time `json:"at"`
	By   string    `json:"by"`
	Text string    `json:"text"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	At     time.Time            `json:"at"`
	By     string               `json:"by"`
	Action domain.HistoryAction `json:"action"`
	Meta   map[string]any       `json:"meta,omitempty"`
}

// ColumnResponse is one rendered board column.
type ColumnResponse struct {
	Column    domain.Column   `json:"column"`
	Title     string          `json:"title"`
	Tickets   []TicketSummary `json:"tickets"`
	Total     int             `json:"total"`
	More      int             `json:"more"`
	MoreLabel string          `json:"more_label,omitempty"`
}

// BoardResponse lists the columns in display order.
type BoardResponse struct {
	Language string           `json:"language"`
	Columns  []ColumnResponse `json:"columns"`
}
