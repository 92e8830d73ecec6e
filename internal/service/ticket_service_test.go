package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/events"
	"github.com/spec-kit/isp-workboard/internal/repository"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

var t0 = time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	ctx       context.Context
	svc       *TicketService
	clock     *fakeClock
	published []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, repository.NewMemoryTicketRepository())
}

func newFixtureWithRepo(t *testing.T, repo repository.TicketRepository) *fixture {
	t.Helper()

	f := &fixture{ctx: context.Background(), clock: &fakeClock{now: t0}}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	})
	svc, err := NewTicketService(f.ctx, TicketDependencies{
		TicketRepo: repo,
		Dispatcher: dispatcher,
		Clock:      f.clock.Now,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) create(t *testing.T, customer string, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	tk, err := f.svc.CreateTicket(f.ctx, "Dispatch", TicketCreateInput{
		Customer:    customer,
		Address:     "12 Mabini St",
		Phone:       "0917 555 0100",
		Email:       "customer@example.com",
		Description: "no internet since morning",
		Category:    domain.TicketCategoryRepair,
		Priority:    priority,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return tk
}

func (f *fixture) requireInvariant(t *testing.T) {
	t.Helper()
	require.NoError(t, f.svc.CheckInvariant(f.ctx))
}

func TestCreateTicketRoundTrip(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	assert.Equal(t, "TRX-00001", created.ID)
	assert.Equal(t, domain.TicketStatusPending, created.Status)
	assert.Equal(t, domain.AssigneeNone, created.Assignee)
	assert.True(t, created.SLADueAt.Equal(t0.Add(4*time.Hour)))
	require.Len(t, created.History, 1)
	assert.Equal(t, domain.ActionCreated, created.History[0].Action)
	assert.Equal(t, "Dispatch", created.History[0].By)

	got, err := f.svc.GetTicket(f.ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(*created, *got); diff != "" {
		t.Fatalf("get after create differs (-created +got):\n%s", diff)
	}

	second := f.create(t, "Jose Rizal", domain.TicketPriorityLow)
	assert.Equal(t, "TRX-00002", second.ID)
	assert.True(t, second.SLADueAt.Equal(second.CreatedAt.Add(24*time.Hour)))
	assert.Equal(t, []string{"TRX-00002", "TRX-00001"}, f.svc.Board().Column(domain.ColumnPending))
	f.requireInvariant(t)
}

func TestCreateTicketHonorsBackdate(t *testing.T) {
	f := newFixture(t)
	at := t0.Add(-3 * time.Hour)

	tk, err := f.svc.CreateTicket(f.ctx, "", TicketCreateInput{
		Customer: "Ana Cruz", Category: domain.TicketCategoryInstallation,
		Priority: domain.TicketPriorityMedium, Assignee: domain.AssigneeRD, CreatedAt: at,
	})
	require.NoError(t, err)
	assert.True(t, tk.CreatedAt.Equal(at))
	assert.True(t, tk.SLADueAt.Equal(at.Add(8*time.Hour)))
	assert.Equal(t, domain.AssigneeRD, tk.Assignee)
	assert.Equal(t, "system", tk.History[0].By)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTicket(f.ctx, "ops", TicketCreateInput{
		Customer: "   ", Category: "Billing", Priority: domain.TicketPriorityHigh,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "customer")
	assert.Contains(t, de.Details, "category")

	_, err = f.svc.CreateTicket(f.ctx, "ops", TicketCreateInput{
		Customer: "X", Category: domain.TicketCategoryRepair, Priority: "Urgent",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	assert.Empty(t, f.svc.Board().Column(domain.ColumnPending))
	assert.Equal(t, "TRX-00001", f.create(t, "After failures", domain.TicketPriorityLow).ID)
}

func TestMoveTicketToSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	before := f.svc.Board()
	published := len(f.published)

	_, err := f.svc.MoveTicket(f.ctx, "ops", tk.ID, domain.TicketStatusPending)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	after, err := f.svc.GetTicket(f.ctx, tk.ID)
	require.NoError(t, err)
	assert.Len(t, after.History, 1)
	assert.Equal(t, before, f.svc.Board())
	assert.Len(t, f.published, published)
}

func TestMoveTicketAnyDirection(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)

	moved, err := f.svc.MoveTicket(f.ctx, "ops", tk.ID, domain.TicketStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, moved.Status)
	last, _ := moved.LastEvent()
	assert.Equal(t, domain.ActionStatusChange, last.Action)
	assert.Equal(t, "Pending", last.MetaString(domain.MetaFrom))
	assert.Equal(t, "Completed", last.MetaString(domain.MetaTo))

	back, err := f.svc.MoveTicket(f.ctx, "ops", tk.ID, domain.TicketStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, back.Status)
	assert.Equal(t, []string{tk.ID}, f.svc.Board().Column(domain.ColumnPending))
	assert.Empty(t, f.svc.Board().Column(domain.ColumnCompleted))

	_, err = f.svc.MoveTicket(f.ctx, "ops", tk.ID, "Archived")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	f.requireInvariant(t)
}

func TestAssignTicketLeavesStatusAndBoard(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityMedium)
	_, err := f.svc.AcceptTicket(f.ctx, "ops", tk.ID)
	require.NoError(t, err)
	before := f.svc.Board()

	assigned, err := f.svc.AssignTicket(f.ctx, "Lead", tk.ID, domain.AssigneeTM)
	require.NoError(t, err)
	assert.Equal(t, domain.AssigneeTM, assigned.Assignee)
	assert.Equal(t, domain.TicketStatusOngoing, assigned.Status)
	assert.Equal(t, before, f.svc.Board())

	require.Len(t, assigned.History, 3)
	last, _ := assigned.LastEvent()
	assert.Equal(t, domain.ActionReassign, last.Action)
	assert.Equal(t, "None", last.MetaString(domain.MetaFrom))
	assert.Equal(t, "TM", last.MetaString(domain.MetaTo))
	assert.Equal(t, "Lead", last.By)

	_, err = f.svc.AssignTicket(f.ctx, "Lead", tk.ID, "XX")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEscalateFromOngoing(t *testing.T) {
	f := newFixture(t)
	other := f.create(t, "Already escalated", domain.TicketPriorityLow)
	_, err := f.svc.EscalateTicket(f.ctx, "ops", other.ID, "")
	require.NoError(t, err)

	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	_, err = f.svc.AcceptTicket(f.ctx, "ops", tk.ID)
	require.NoError(t, err)
	historyBefore := 2

	esc, err := f.svc.EscalateTicket(f.ctx, "Support", tk.ID, "  fiber cut on main line  ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusEscalated, esc.Status)

	board := f.svc.Board()
	assert.NotContains(t, board.Column(domain.ColumnOngoing), tk.ID)
	assert.Equal(t, tk.ID, board.Column(domain.ColumnEscalated)[0])
	assert.Equal(t, []string{tk.ID, other.ID}, board.Column(domain.ColumnEscalated))

	require.Len(t, esc.History, historyBefore+1)
	last, _ := esc.LastEvent()
	assert.Equal(t, domain.ActionEscalate, last.Action)
	assert.Equal(t, "fiber cut on main line", last.MetaString(domain.MetaReason))

	otherNow, err := f.svc.GetTicket(f.ctx, other.ID)
	require.NoError(t, err)
	ev, _ := otherNow.LastEvent()
	assert.Equal(t, DefaultEscalationReason, ev.MetaString(domain.MetaReason))
	f.requireInvariant(t)
}

func TestEscalateAlreadyEscalatedIsRejected(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	_, err := f.svc.EscalateTicket(f.ctx, "ops", tk.ID, "first")
	require.NoError(t, err)

	_, err = f.svc.EscalateTicket(f.ctx, "ops", tk.ID, "again")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	got, _ := f.svc.GetTicket(f.ctx, tk.ID)
	assert.Len(t, got.History, 2)
}

func TestEscalateCompletedTicketIsAllowed(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	_, err := f.svc.ResolveTicket(f.ctx, "ops", tk.ID, "")
	require.NoError(t, err)

	esc, err := f.svc.EscalateTicket(f.ctx, "ops", tk.ID, "customer disputes fix")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusEscalated, esc.Status)
	f.requireInvariant(t)
}

func TestResolveTicket(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityLow)

	resolved, err := f.svc.ResolveTicket(f.ctx, "ops", tk.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, resolved.Status)
	assert.Equal(t, domain.AssigneeNone, resolved.Assignee, "unassigned tickets may be resolved")
	last, _ := resolved.LastEvent()
	assert.Equal(t, domain.ActionResolve, last.Action)
	assert.Equal(t, DefaultResolutionSummary, last.MetaString(domain.MetaSummary))
	assert.Equal(t, []string{tk.ID}, f.svc.Board().Column(domain.ColumnCompleted))

	_, err = f.svc.ResolveTicket(f.ctx, "ops", tk.ID, "again")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	f.requireInvariant(t)
}

func TestAddNote(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityLow)
	before := f.svc.Board()

	_, err := f.svc.AddNote(f.ctx, "Tech", tk.ID, " \t\n ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	got, _ := f.svc.GetTicket(f.ctx, tk.ID)
	assert.Empty(t, got.Notes)
	assert.Len(t, got.History, 1)

	noted, err := f.svc.AddNote(f.ctx, "Tech", tk.ID, "  fixed router  ")
	require.NoError(t, err)
	require.Len(t, noted.Notes, 1)
	assert.Equal(t, domain.Note{At: f.clock.Now(), By: "Tech", Text: "fixed router"}, noted.Notes[0])
	assert.Len(t, noted.History, 1, "notes are not history events")
	assert.Equal(t, before, f.svc.Board())

	again, err := f.svc.AddNote(f.ctx, "Tech", tk.ID, "replaced cable")
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed router", "replaced cable"}, []string{again.Notes[0].Text, again.Notes[1].Text})
}

func TestNotePreviewKeepsRunesIntact(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Niño Cruz", domain.TicketPriorityLow)

	text := strings.Repeat("ñ", 200)
	_, err := f.svc.AddNote(f.ctx, "Tech", tk.ID, text)
	require.NoError(t, err)

	last := f.published[len(f.published)-1]
	require.Equal(t, events.EventTicketNoteAdded, last.Type)
	preview := last.Payload.(events.TicketNoteAddedPayload).Preview
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, 120, utf8.RuneCountInString(preview))
	assert.Equal(t, strings.Repeat("ñ", 117)+"...", preview)

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 120, "short"},
		{"  padded  ", 6, "padded"},
		{"héllo wörld", 8, "héllo..."},
		{"日本語のメモ", 2, "日本"},
		{"🙂🙂🙂🙂🙂", 4, "🙂..."},
	}
	for _, tc := range tests {
		got := stringPreview(tc.in, tc.max)
		assert.Equal(t, tc.want, got, tc.in)
		assert.True(t, utf8.ValidString(got), tc.in)
	}
}

func TestAcceptAndOnsite(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)

	accepted, err := f.svc.AcceptTicket(f.ctx, "JL", tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOngoing, accepted.Status)

	_, err = f.svc.AcceptTicket(f.ctx, "JL", tk.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	geo := domain.GeoPoint{Lat: 14.5995, Lng: 120.9842}
	onsite, err := f.svc.CheckInOnsite(f.ctx, "JL", tk.ID, geo)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOngoing, onsite.Status)
	last, _ := onsite.LastEvent()
	assert.Equal(t, domain.ActionOnsite, last.Action)
	assert.Equal(t, geo, last.Meta[domain.MetaGeo])

	_, err = f.svc.CheckInOnsite(f.ctx, "JL", tk.ID, domain.GeoPoint{Lat: 91})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.ResolveTicket(f.ctx, "JL", tk.ID, "done")
	require.NoError(t, err)
	_, err = f.svc.CheckInOnsite(f.ctx, "JL", tk.ID, geo)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	f.requireInvariant(t)
}

func TestUnknownTicketIsNotFound(t *testing.T) {
	f := newFixture(t)
	const id = "TRX-04040"

	_, err := f.svc.GetTicket(f.ctx, id)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	actions := map[string]func() error{
		"move": func() error {
			_, err := f.svc.MoveTicket(f.ctx, "ops", id, domain.TicketStatusOngoing)
			return err
		},
		"assign": func() error {
			_, err := f.svc.AssignTicket(f.ctx, "ops", id, domain.AssigneeJL)
			return err
		},
		"escalate": func() error { _, err := f.svc.EscalateTicket(f.ctx, "ops", id, ""); return err },
		"resolve":  func() error { _, err := f.svc.ResolveTicket(f.ctx, "ops", id, ""); return err },
		"note":     func() error { _, err := f.svc.AddNote(f.ctx, "ops", id, "hello"); return err },
		"accept":   func() error { _, err := f.svc.AcceptTicket(f.ctx, "ops", id); return err },
		"onsite": func() error {
			_, err := f.svc.CheckInOnsite(f.ctx, "ops", id, domain.GeoPoint{})
			return err
		},
	}
	for name, run := range actions {
		err := run()
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), name)
	}
	assert.Empty(t, f.published)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t)
	tk := f.create(t, "Maria Santos", domain.TicketPriorityHigh)
	_, err := f.svc.AssignTicket(f.ctx, "ops", tk.ID, domain.AssigneeJL)
	require.NoError(t, err)
	_, err = f.svc.EscalateTicket(f.ctx, "ops", tk.ID, "")
	require.NoError(t, err)
	_, err = f.svc.ResolveTicket(f.ctx, "ops", tk.ID, "")
	require.NoError(t, err)
	_, err = f.svc.AddNote(f.ctx, "ops", tk.ID, "closing call done")
	require.NoError(t, err)

	var types []events.EventType
	for _, e := range f.published {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, tk.ID, e.TicketID)
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketEscalated,
		events.EventTicketResolved,
		events.EventTicketNoteAdded,
	}, types)

	payload, ok := f.published[2].Payload.(events.TicketStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusPending, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusEscalated, payload.NewStatus)
}

// flakyRepo fails every Upsert once armed.
type flakyRepo struct {
	repository.TicketRepository
	fail bool
}

func (r *flakyRepo) Upsert(ctx context.Context, tk domain.Ticket) error {
	if r.fail {
		return errors.New("disk on fire")
	}
	return r.TicketRepository.Upsert(ctx, tk)
}

func TestFailedWriteLeavesBoardUntouched(t *testing.T) {
	repo := &flakyRepo{TicketRepository: repository.NewMemoryTicketRepository()}
	f := newFixtureWithRepo(t, repo)
	a := f.create(t, "A", domain.TicketPriorityHigh)
	f.create(t, "B", domain.TicketPriorityHigh)
	f.create(t, "C", domain.TicketPriorityHigh)
	before := f.svc.Board()

	repo.fail = true
	_, err := f.svc.EscalateTicket(f.ctx, "ops", a.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	_, err = f.svc.CreateTicket(f.ctx, "ops", TicketCreateInput{
		Customer: "D", Category: domain.TicketCategoryRepair, Priority: domain.TicketPriorityLow,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Equal(t, before, f.svc.Board())

	repo.fail = false
	f.requireInvariant(t)
	assert.Equal(t, "TRX-00004", f.create(t, "D", domain.TicketPriorityLow).ID)
}

func TestNewTicketServiceIndexesExistingTickets(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryTicketRepository()
	for i, status := range []domain.TicketStatus{domain.TicketStatusOngoing, domain.TicketStatusCompleted, domain.TicketStatusOngoing} {
		require.NoError(t, repo.Upsert(ctx, domain.Ticket{
			ID: domain.FormatTicketID(i + 10), Status: status, Priority: domain.TicketPriorityLow,
		}))
	}

	f := newFixtureWithRepo(t, repo)
	f.requireInvariant(t)
	assert.Len(t, f.svc.Board().Column(domain.ColumnOngoing), 2)
	assert.Equal(t, "TRX-00013", f.create(t, "next", domain.TicketPriorityLow).ID)
}

func TestInvariantHoldsAcrossRandomActions(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewPCG(7, 42))

	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, f.create(t, "Customer", domain.Priorities()[i%3]).ID)
	}
	statuses := domain.Statuses()
	assignees := domain.Assignees()

	for step := 0; step < 500; step++ {
		id := ids[rng.IntN(len(ids))]
		var err error
		switch rng.IntN(7) {
		case 0:
			_, err = f.svc.MoveTicket(f.ctx, "ops", id, statuses[rng.IntN(len(statuses))])
		case 1:
			_, err = f.svc.AssignTicket(f.ctx, "ops", id, assignees[rng.IntN(len(assignees))])
		case 2:
			_, err = f.svc.EscalateTicket(f.ctx, "ops", id, "")
		case 3:
			_, err = f.svc.ResolveTicket(f.ctx, "ops", id, "")
		case 4:
			_, err = f.svc.AddNote(f.ctx, "ops", id, []string{"", "checked ONU"}[rng.IntN(2)])
		case 5:
			_, err = f.svc.AcceptTicket(f.ctx, "ops", id)
		case 6:
			_, err = f.svc.CheckInOnsite(f.ctx, "ops", id, domain.GeoPoint{Lat: 10, Lng: 120})
		}
		if err != nil {
			de := apperrors.ToDomainError(err)
			require.Contains(t, []string{apperrors.CodeInvalidTransition, apperrors.CodeValidation}, de.Code, "step %d", step)
		}
		f.clock.Advance(time.Minute)
		require.NoError(t, f.svc.CheckInvariant(f.ctx), "step %d", step)
	}

	total := 0
	for _, n := range f.svc.Board().Counts() {
		total += n
	}
	assert.Equal(t, len(ids), total)
}
