package service

import (
	"context"
	"strings"

	"github.com/spec-kit/isp-workboard/internal/domain"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// DefaultColumnLimit is how many cards a column renders before "+N more".
const DefaultColumnLimit = 6

// Viewer is who is looking at the board. Roles without the
// view_all_tickets capability only see tickets assigned to their
// technician code.
type Viewer struct {
	Role           domain.Role
	TechnicianCode domain.Assignee
}

// TicketFilter narrows a column. Zero-valued fields match everything and all
// set fields must match.
type TicketFilter struct {
	Viewer   *Viewer
	Category domain.TicketCategory
	Priority domain.TicketPriority
	Assignee domain.Assignee
	// Search is matched case-insensitively against customer or ticket ID.
	Search string
}

// Matches reports whether the ticket passes every filter.
func (f TicketFilter) Matches(t domain.Ticket) bool {
	if f.Viewer != nil && !f.Viewer.Role.Can(domain.CapViewAllTickets) {
		if f.Viewer.TechnicianCode == "" || t.Assignee != f.Viewer.TechnicianCode {
			return false
		}
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(t.Customer), term) &&
			!strings.Contains(strings.ToLower(t.ID), term) {
			return false
		}
	}
	return true
}

// ColumnPage is one rendered column: the first Limit matches plus how many
// more were left out.
type ColumnPage struct {
	Column  domain.Column
	Tickets []domain.Ticket
	Total   int
	More    int
}

// ListColumn returns every ticket in the status column that passes the
// filter, in board order.
func (s *TicketService) ListColumn(ctx context.Context, status domain.TicketStatus, filter TicketFilter) ([]domain.Ticket, error) {
	col, err := domain.ColumnFor(status)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.board.column(col)
	result := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		tk, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if filter.Matches(*tk) {
			result = append(result, *tk)
		}
	}
	return result, nil
}

// ColumnPage caps ListColumn to limit cards. A non-positive limit means
// DefaultColumnLimit.
func (s *TicketService) ColumnPage(ctx context.Context, status domain.TicketStatus, filter TicketFilter, limit int) (ColumnPage, error) {
	all, err := s.ListColumn(ctx, status, filter)
	if err != nil {
		return ColumnPage{}, err
	}
	if limit <= 0 {
		limit = DefaultColumnLimit
	}
	col, _ := domain.ColumnFor(status)
	page := ColumnPage{Column: col, Total: len(all), Tickets: all}
	if len(all) > limit {
		page.Tickets = all[:limit]
		page.More = len(all) - limit
	}
	return page, nil
}
