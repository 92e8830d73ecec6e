package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/api/dto"
	"github.com/spec-kit/isp-workboard/internal/auth"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/service"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// TicketsHandler exposes ticket creation, detail and the board actions.
// Capability checks happen on the routes; the handler restricts technicians
// to their own tickets and gates generic moves by target status.
type TicketsHandler struct {
	service   *service.TicketService
	presenter *Presenter
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, presenter *Presenter) *TicketsHandler {
	return &TicketsHandler{service: ticketService, presenter: presenter}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"category": req.Category})
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"priority": req.Priority})
	}
	assignee, err := domain.ParseAssignee(req.Assignee)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"assignee": req.Assignee})
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal.Name(), service.TicketCreateInput{
		Customer:    req.Customer,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Description: req.Description,
		Category:    category,
		Priority:    priority,
		Assignee:    assignee,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.presenter.Detail(h.presenter.Language(c), ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.visibleTicket(c, principal)
	if err != nil {
		return err
	}
	return h.respond(c, ticket)
}

// MoveTicket POST /tickets/:id/move.
func (h *TicketsHandler) MoveTicket(c *fiber.Ctx) error {
	var req dto.MoveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"status": req.Status})
	}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		if !p.Account.Role.CanMoveTo(status) {
			return nil, apperrors.NewForbidden(fmt.Sprintf("role %s may not move tickets to %s", p.Account.Role, status))
		}
		return h.service.MoveTicket(c.UserContext(), p.Name(), id, status)
	})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	assignee, err := domain.ParseAssignee(req.Assignee)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"assignee": req.Assignee})
	}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.AssignTicket(c.UserContext(), p.Name(), id, assignee)
	})
}

// EscalateTicket POST /tickets/:id/escalate.
func (h *TicketsHandler) EscalateTicket(c *fiber.Ctx) error {
	var req dto.EscalateTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.EscalateTicket(c.UserContext(), p.Name(), id, req.Reason)
	})
}

// ResolveTicket POST /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.ResolveTicket(c.UserContext(), p.Name(), id, req.Summary)
	})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.AddNote(c.UserContext(), p.Name(), id, req.Text)
	})
}

// AcceptTicket POST /tickets/:id/accept.
func (h *TicketsHandler) AcceptTicket(c *fiber.Ctx) error {
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.AcceptTicket(c.UserContext(), p.Name(), id)
	})
}

// CheckInOnsite POST /tickets/:id/onsite.
func (h *TicketsHandler) CheckInOnsite(c *fiber.Ctx) error {
	var req dto.OnsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Lat == nil || req.Lng == nil {
		return apperrors.NewValidationError("lat and lng required", nil)
	}
	geo := domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}
	return h.act(c, func(p *auth.Principal, id string) (*domain.Ticket, error) {
		return h.service.CheckInOnsite(c.UserContext(), p.Name(), id, geo)
	})
}

func (h *TicketsHandler) act(c *fiber.Ctx, run func(*auth.Principal, string) (*domain.Ticket, error)) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	current, err := h.visibleTicket(c, principal)
	if err != nil {
		return err
	}
	ticket, err := run(principal, current.ID)
	if err != nil {
		return err
	}
	return h.respond(c, ticket)
}

// visibleTicket loads the ticket named in the path and hides tickets the
// viewer's board would not show.
func (h *TicketsHandler) visibleTicket(c *fiber.Ctx, principal *auth.Principal) (*domain.Ticket, error) {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	filter := service.TicketFilter{Viewer: &service.Viewer{
		Role:           principal.Account.Role,
		TechnicianCode: principal.Account.TechnicianCode,
	}}
	if !filter.Matches(*ticket) {
		return nil, apperrors.NewForbidden("ticket is not assigned to you")
	}
	return ticket, nil
}

func (h *TicketsHandler) respond(c *fiber.Ctx, ticket *domain.Ticket) error {
	return c.JSON(fiber.Map{"data": h.presenter.Detail(h.presenter.Language(c), ticket)})
}

func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("sign-in required")
	}
	return principal, nil
}
