// Package seed loads the demo board and operator accounts.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/service"
)

//go:embed data/tickets.yaml
var ticketsYAML []byte

//go:embed data/accounts.yaml
var accountsYAML []byte

const seedActor = "seed"

type ticketFile struct {
	Tickets []ticketRecord `yaml:"tickets"`
}

type ticketRecord struct {
	Customer    string         `yaml:"customer"`
	Address     string         `yaml:"address"`
	Phone       string         `yaml:"phone"`
	Email       string         `yaml:"email"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Priority    string         `yaml:"priority"`
	Assignee    string         `yaml:"assignee"`
	Age         time.Duration  `yaml:"age"`
	Actions     []actionRecord `yaml:"actions"`
}

type actionRecord struct {
	Action  string  `yaml:"action"`
	To      string  `yaml:"to"`
	Reason  string  `yaml:"reason"`
	Summary string  `yaml:"summary"`
	Text    string  `yaml:"text"`
	Status  string  `yaml:"status"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
}

type accountFile struct {
	Accounts []accountRecord `yaml:"accounts"`
}

type accountRecord struct {
	Username   string `yaml:"username"`
	Name       string `yaml:"name"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	Technician string `yaml:"technician"`
}

// Tickets creates the demo tickets through the service, backdated relative
// to now, and replays each ticket's scripted actions.
func Tickets(ctx context.Context, svc *service.TicketService, now time.Time) (int, error) {
	return ticketsFrom(ctx, svc, now, ticketsYAML)
}

func ticketsFrom(ctx context.Context, svc *service.TicketService, now time.Time, raw []byte) (int, error) {
	var file ticketFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse seed tickets: %w", err)
	}

	for i, rec := range file.Tickets {
		input, err := rec.createInput(now)
		if err != nil {
			return i, fmt.Errorf("seed ticket %d: %w", i+1, err)
		}
		ticket, err := svc.CreateTicket(ctx, seedActor, input)
		if err != nil {
			return i, fmt.Errorf("seed ticket %d: %w", i+1, err)
		}
		for _, act := range rec.Actions {
			if err := act.apply(ctx, svc, ticket.ID); err != nil {
				return i, fmt.Errorf("seed ticket %s %s: %w", ticket.ID, act.Action, err)
			}
		}
	}
	return len(file.Tickets), nil
}

func (r ticketRecord) createInput(now time.Time) (service.TicketCreateInput, error) {
	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return service.TicketCreateInput{}, err
	}
	priority, err := domain.ParsePriority(r.Priority)
	if err != nil {
		return service.TicketCreateInput{}, err
	}
	assignee, err := domain.ParseAssignee(r.Assignee)
	if err != nil {
		return service.TicketCreateInput{}, err
	}
	return service.TicketCreateInput{
		Customer:    r.Customer,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Description: r.Description,
		Category:    category,
		Priority:    priority,
		Assignee:    assignee,
		CreatedAt:   now.Add(-r.Age),
	}, nil
}

func (a actionRecord) apply(ctx context.Context, svc *service.TicketService, id string) error {
	var err error
	switch a.Action {
	case "accept":
		_, err = svc.AcceptTicket(ctx, seedActor, id)
	case "onsite":
		_, err = svc.CheckInOnsite(ctx, seedActor, id, domain.GeoPoint{Lat: a.Lat, Lng: a.Lng})
	case "escalate":
		_, err = svc.EscalateTicket(ctx, seedActor, id, a.Reason)
	case "resolve":
		_, err = svc.ResolveTicket(ctx, seedActor, id, a.Summary)
	case "note":
		_, err = svc.AddNote(ctx, seedActor, id, a.Text)
	case "assign":
		assignee, perr := domain.ParseAssignee(a.To)
		if perr != nil {
			return perr
		}
		_, err = svc.AssignTicket(ctx, seedActor, id, assignee)
	case "move":
		status, perr := domain.ParseStatus(a.Status)
		if perr != nil {
			return perr
		}
		_, err = svc.MoveTicket(ctx, seedActor, id, status)
	default:
		return fmt.Errorf("unknown action %q", a.Action)
	}
	return err
}

// Accounts registers the demo operators.
func Accounts(ctx context.Context, svc *service.AuthService) (int, error) {
	return accountsFrom(ctx, svc, accountsYAML)
}

func accountsFrom(ctx context.Context, svc *service.AuthService, raw []byte) (int, error) {
	var file accountFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse seed accounts: %w", err)
	}
	for i, rec := range file.Accounts {
		role, err := domain.ParseRole(rec.Role)
		if err != nil {
			return i, fmt.Errorf("seed account %s: %w", rec.Username, err)
		}
		code, err := domain.ParseAssignee(rec.Technician)
		if err != nil {
			return i, fmt.Errorf("seed account %s: %w", rec.Username, err)
		}
		if _, err := svc.RegisterAccount(ctx, service.AccountInput{
			Username:       rec.Username,
			DisplayName:    rec.Name,
			Password:       rec.Password,
			Role:           role,
			TechnicianCode: code,
		}); err != nil {
			return i, fmt.Errorf("seed account %s: %w", rec.Username, err)
		}
	}
	return len(file.Accounts), nil
}
