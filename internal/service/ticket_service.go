package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/events"
	"github.com/spec-kit/isp-workboard/internal/repository"
	"github.com/spec-kit/isp-workboard/internal/sla"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

const (
	// DefaultEscalationReason is recorded when an escalation has no reason.
	DefaultEscalationReason = "Escalated for supervisor review"
	// DefaultResolutionSummary is recorded when a resolution has no summary.
	DefaultResolutionSummary = "Resolved"

	systemActor = "system"
)

// TicketService coordinates ticket workflows. It owns both the ticket
// repository and the board index and changes them together, so a ticket's
// column always matches its status.
type TicketService struct {
	mu         sync.RWMutex
	tickets    repository.TicketRepository
	board      *boardIndex
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	lastSeq    int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Customer    string
	Address     string
	Phone       string
	Email       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
	Assignee    domain.Assignee
	// CreatedAt backdates the ticket; zero means now.
	CreatedAt time.Time
}

// NewTicketService constructs the service. Tickets already present in the
// repository are indexed onto the board by status.
func NewTicketService(ctx context.Context, deps TicketDependencies) (*TicketService, error) {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		board:      newBoardIndex(),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.tickets == nil {
		s.tickets = repository.NewMemoryTicketRepository()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	existing, err := s.tickets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	for _, tk := range existing {
		col, err := domain.ColumnFor(tk.Status)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", tk.ID, err)
		}
		s.board.insert(tk.ID, col)
		if seq, ok := domain.ParseTicketSeq(tk.ID); ok && seq > s.lastSeq {
			s.lastSeq = seq
		}
	}
	return s, nil
}

// CreateTicket registers a new Pending ticket, derives its SLA deadline and
// places it at the top of the pending column.
func (s *TicketService) CreateTicket(ctx context.Context, by string, input TicketCreateInput) (*domain.Ticket, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	due, err := sla.ComputeDueAt(input.Priority, createdAt)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.lastSeq++
	ticket := domain.Ticket{
		ID:          domain.FormatTicketID(s.lastSeq),
		Customer:    input.Customer,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Assignee:    input.Assignee,
		Status:      domain.TicketStatusPending,
		CreatedAt:   createdAt,
		SLADueAt:    due,
		History: []domain.HistoryEvent{{
			At:     createdAt,
			By:     actorName(by),
			Action: domain.ActionCreated,
		}},
	}

	col, _ := domain.ColumnFor(ticket.Status)
	s.board.insert(ticket.ID, col)
	if err := s.tickets.Upsert(ctx, ticket); err != nil {
		s.board.remove(ticket.ID, col)
		s.lastSeq--
		s.mu.Unlock()
		return nil, apperrors.NewInternalError(err)
	}
	s.mu.Unlock()

	s.logger.Debug("ticket created", zap.String("ticket_id", ticket.ID), zap.String("priority", string(ticket.Priority)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorName(by),
		Payload: events.TicketCreatedPayload{
			Customer: ticket.Customer,
			Category: ticket.Category,
			Priority: ticket.Priority,
			SLADueAt: ticket.SLADueAt,
		},
	})
	return &ticket, nil
}

// GetTicket returns a snapshot of one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, id)
}

// MoveTicket sets any of the four statuses directly. Moving to the current
// status is rejected and changes nothing.
func (s *TicketService) MoveTicket(ctx context.Context, by, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	prev, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		if t.Status == status {
			return sameStatusError(t.ID, status)
		}
		from := t.Status
		t.Status = status
		t.History = append(t.History, s.event(by, domain.ActionStatusChange, map[string]any{
			domain.MetaFrom: string(from),
			domain.MetaTo:   string(status),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, by, prev, next, domain.ActionStatusChange, "")
	return next, nil
}

// AssignTicket changes the technician. Status and board are untouched.
func (s *TicketService) AssignTicket(ctx context.Context, by, id string, assignee domain.Assignee) (*domain.Ticket, error) {
	if !assignee.Valid() {
		return nil, apperrors.NewValidationError("invalid assignee", map[string]any{"assignee": assignee})
	}
	prev, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		from := t.Assignee
		t.Assignee = assignee
		t.History = append(t.History, s.event(by, domain.ActionReassign, map[string]any{
			domain.MetaFrom: string(from),
			domain.MetaTo:   string(assignee),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: next.ID,
		Actor:    actorName(by),
		Payload:  events.TicketAssignedPayload{From: prev.Assignee, To: next.Assignee},
	})
	return next, nil
}

// EscalateTicket moves the ticket to Escalated. A blank reason is replaced
// by DefaultEscalationReason.
func (s *TicketService) EscalateTicket(ctx context.Context, by, id, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultEscalationReason
	}
	prev, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		if t.Status == domain.TicketStatusEscalated {
			return sameStatusError(t.ID, t.Status)
		}
		t.Status = domain.TicketStatusEscalated
		t.History = append(t.History, s.event(by, domain.ActionEscalate, map[string]any{
			domain.MetaReason: reason,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, by, prev, next, domain.ActionEscalate, reason)
	return next, nil
}

// ResolveTicket moves the ticket to Completed. A blank summary is replaced by
// DefaultResolutionSummary. Unassigned tickets may be resolved.
func (s *TicketService) ResolveTicket(ctx context.Context, by, id, summary string) (*domain.Ticket, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = DefaultResolutionSummary
	}
	prev, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		if t.Status == domain.TicketStatusCompleted {
			return sameStatusError(t.ID, t.Status)
		}
		t.Status = domain.TicketStatusCompleted
		t.History = append(t.History, s.event(by, domain.ActionResolve, map[string]any{
			domain.MetaSummary: summary,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, by, prev, next, domain.ActionResolve, summary)
	return next, nil
}

// AcceptTicket is a technician picking up a Pending ticket; it becomes
// Ongoing.
func (s *TicketService) AcceptTicket(ctx context.Context, by, id string) (*domain.Ticket, error) {
	prev, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusPending {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("only pending tickets can be accepted; %s is %s", t.ID, t.Status),
				map[string]any{"ticket_id": t.ID, "status": t.Status},
			)
		}
		t.Status = domain.TicketStatusOngoing
		t.History = append(t.History, s.event(by, domain.ActionAccept, map[string]any{
			domain.MetaFrom: string(domain.TicketStatusPending),
			domain.MetaTo:   string(domain.TicketStatusOngoing),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, by, prev, next, domain.ActionAccept, "")
	return next, nil
}

// CheckInOnsite records that a technician arrived at the customer address.
func (s *TicketService) CheckInOnsite(ctx context.Context, by, id string, geo domain.GeoPoint) (*domain.Ticket, error) {
	if !geo.Valid() {
		return nil, apperrors.NewValidationError("coordinates out of range", map[string]any{"lat": geo.Lat, "lng": geo.Lng})
	}
	_, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		if t.Status == domain.TicketStatusCompleted {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("ticket %s is already completed", t.ID),
				map[string]any{"ticket_id": t.ID},
			)
		}
		t.History = append(t.History, s.event(by, domain.ActionOnsite, map[string]any{
			domain.MetaGeo: geo,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketOnsite,
		TicketID: next.ID,
		Actor:    actorName(by),
		Payload:  events.TicketOnsitePayload{Geo: geo},
	})
	return next, nil
}

// AddNote appends a trimmed note. Notes are not history events and never
// touch the board.
func (s *TicketService) AddNote(ctx context.Context, by, id, text string) (*domain.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text required", map[string]any{"ticket_id": id})
	}
	_, next, err := s.apply(ctx, id, func(t *domain.Ticket) error {
		t.Notes = append(t.Notes, domain.Note{At: s.now(), By: actorName(by), Text: text})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: next.ID,
		Actor:    actorName(by),
		Payload:  events.TicketNoteAddedPayload{Preview: stringPreview(text, 120)},
	})
	return next, nil
}

// Board returns a copy of the column index.
func (s *TicketService) Board() domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.snapshot()
}

// CheckInvariant verifies that every ticket sits in exactly the column of its
// status and that every board entry refers to a stored ticket.
func (s *TicketService) CheckInvariant(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return err
	}
	board := s.board.snapshot()

	var problems []error
	byID := make(map[string]domain.Ticket, len(tickets))
	for _, tk := range tickets {
		byID[tk.ID] = tk
		want, err := domain.ColumnFor(tk.Status)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", tk.ID, err))
			continue
		}
		if got := board.Locate(tk.ID); len(got) != 1 || got[0] != want {
			problems = append(problems, fmt.Errorf("%s: status %s but board columns %v", tk.ID, tk.Status, got))
		}
	}
	for _, col := range domain.Columns() {
		seen := map[string]bool{}
		for _, id := range board.Column(col) {
			if seen[id] {
				problems = append(problems, fmt.Errorf("%s listed twice in %s", id, col))
			}
			seen[id] = true
			tk, ok := byID[id]
			if !ok {
				problems = append(problems, fmt.Errorf("%s in %s but not stored", id, col))
				continue
			}
			if tk.Status != col.Status() {
				problems = append(problems, fmt.Errorf("%s in %s but status %s", id, col, tk.Status))
			}
		}
	}
	return errors.Join(problems...)
}

// apply runs one action as a single unit: load, let mutate build the next
// version on a private copy, relocate the board entry when the status
// changed, and write back. On any failure neither structure changes.
func (s *TicketService) apply(ctx context.Context, id string, mutate func(*domain.Ticket) error) (*domain.Ticket, *domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	next := prev.Clone()
	if err := mutate(&next); err != nil {
		return nil, nil, err
	}

	var undo func()
	if next.Status != prev.Status {
		from, err := domain.ColumnFor(prev.Status)
		if err != nil {
			return nil, nil, apperrors.NewInternalError(err)
		}
		to, err := domain.ColumnFor(next.Status)
		if err != nil {
			return nil, nil, apperrors.NewInternalError(err)
		}
		if undo, err = s.board.move(id, from, to); err != nil {
			return nil, nil, err
		}
	}
	if err := s.tickets.Upsert(ctx, next); err != nil {
		if undo != nil {
			undo()
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	s.logger.Debug("ticket updated",
		zap.String("ticket_id", id),
		zap.String("status", string(next.Status)),
		zap.Int("history", len(next.History)))
	return prev, &next, nil
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	tk, err := s.tickets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return tk, nil
}

func (s *TicketService) event(by string, action domain.HistoryAction, meta map[string]any) domain.HistoryEvent {
	return domain.HistoryEvent{At: s.now(), By: actorName(by), Action: action, Meta: meta}
}

func (s *TicketService) publishStatusChange(ctx context.Context, by string, prev, next *domain.Ticket, action domain.HistoryAction, comment string) {
	eventType := events.EventTicketStatusChanged
	switch action {
	case domain.ActionEscalate:
		eventType = events.EventTicketEscalated
	case domain.ActionResolve:
		eventType = events.EventTicketResolved
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: next.ID,
		Actor:    actorName(by),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: prev.Status,
			NewStatus: next.Status,
			Action:    action,
			Comment:   comment,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateCreateInput(input *TicketCreateInput) error {
	input.Customer = strings.TrimSpace(input.Customer)
	input.Address = strings.TrimSpace(input.Address)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	input.Description = strings.TrimSpace(input.Description)
	if input.Assignee == "" {
		input.Assignee = domain.AssigneeNone
	}

	details := map[string]any{}
	if input.Customer == "" {
		details["customer"] = "required"
	}
	if !input.Category.Valid() {
		details["category"] = input.Category
	}
	if !input.Priority.Valid() {
		details["priority"] = input.Priority
	}
	if !input.Assignee.Valid() {
		details["assignee"] = input.Assignee
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket fields", details)
	}
	return nil
}

func sameStatusError(id string, status domain.TicketStatus) error {
	return apperrors.NewInvalidTransition(
		fmt.Sprintf("ticket %s is already %s", id, status),
		map[string]any{"ticket_id": id, "status": status},
	)
}

func actorName(by string) string {
	if by = strings.TrimSpace(by); by == "" {
		return systemActor
	}
	return by
}

// stringPreview caps body at max runes, ellipsis included.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
