package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/spec-kit/isp-workboard/internal/domain"
)

// ErrTicketNotFound is returned when no ticket has the requested ID.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepository owns ticket field data keyed by ID. It is the source of
// truth for ticket status.
type TicketRepository interface {
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	// Upsert replaces the full record for ticket.ID. Partial updates are
	// not merged.
	Upsert(ctx context.Context, ticket domain.Ticket) error
	List(ctx context.Context) ([]domain.Ticket, error)
	Len(ctx context.Context) int
}

type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewMemoryTicketRepository returns an empty in-memory repository. Records
// are cloned on the way in and out so callers never share state with it.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: map[string]domain.Ticket{}}
}

func (r *memoryTicketRepository) Get(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tk, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	out := tk.Clone()
	return &out, nil
}

func (r *memoryTicketRepository) Upsert(_ context.Context, ticket domain.Ticket) error {
	if ticket.ID == "" {
		return errors.New("ticket id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) List(_ context.Context) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tickets))
	for id := range r.tickets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.tickets[id].Clone())
	}
	return result, nil
}

func (r *memoryTicketRepository) Len(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tickets)
}
