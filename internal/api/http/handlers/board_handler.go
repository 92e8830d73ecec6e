package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/api/dto"
	"github.com/spec-kit/isp-workboard/internal/auth"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/service"
	"github.com/spec-kit/isp-workboard/internal/sla"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// BoardHandler serves the four-column workboard.
type BoardHandler struct {
	tickets     *service.TicketService
	presenter   *Presenter
	columnLimit int
}

// NewBoardHandler constructs handler. columnLimit caps each rendered column.
func NewBoardHandler(ticketService *service.TicketService, presenter *Presenter, columnLimit int) *BoardHandler {
	return &BoardHandler{tickets: ticketService, presenter: presenter, columnLimit: columnLimit}
}

// Board GET /board.
func (h *BoardHandler) Board(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketFilter(c, principal)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), h.columnLimit)
	lang := h.presenter.Language(c)

	resp := dto.BoardResponse{Language: lang}
	for _, col := range domain.Columns() {
		page, err := h.tickets.ColumnPage(c.UserContext(), col.Status(), filter, limit)
		if err != nil {
			return err
		}
		resp.Columns = append(resp.Columns, h.presenter.Column(lang, page))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Column GET /board/:column returns every matching ticket, uncapped.
func (h *BoardHandler) Column(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	col, tickets, err := h.listColumn(c, principal)
	if err != nil {
		return err
	}
	lang := h.presenter.Language(c)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"column":  col,
			"title":   h.presenter.catalog.T(lang, "column."+string(col)),
			"total":   len(tickets),
			"tickets": h.presenter.Tickets(lang, tickets),
		},
	})
}

// Export GET /board/:column/export streams the full column as CSV.
func (h *BoardHandler) Export(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	col, tickets, err := h.listColumn(c, principal)
	if err != nil {
		return err
	}

	now := h.presenter.Now()
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%s.csv"`, col, now.Format("20060102")))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Response().BodyWriter())
	if err := w.Write(exportHeader); err != nil {
		return apperrors.NewInternalError(err)
	}
	for i := range tickets {
		if err := w.Write(exportRow(&tickets[i], now)); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

var exportHeader = []string{
	"id", "customer", "address", "phone", "email", "category", "priority",
	"assignee", "status", "created_at", "sla_due_at", "sla", "remaining",
}

func exportRow(t *domain.Ticket, now time.Time) []string {
	return []string{
		t.ID,
		t.Customer,
		t.Address,
		t.Phone,
		t.Email,
		string(t.Category),
		string(t.Priority),
		string(t.Assignee),
		string(t.Status),
		t.CreatedAt.UTC().Format(time.RFC3339),
		t.SLADueAt.UTC().Format(time.RFC3339),
		sla.Status(*t, now).Text,
		sla.FormatRemaining(*t, now),
	}
}

func (h *BoardHandler) listColumn(c *fiber.Ctx, principal *auth.Principal) (domain.Column, []domain.Ticket, error) {
	col, err := domain.ParseColumn(c.Params("column"))
	if err != nil {
		return "", nil, apperrors.NewValidationError(err.Error(), map[string]any{"column": c.Params("column")})
	}
	filter, err := parseTicketFilter(c, principal)
	if err != nil {
		return "", nil, err
	}
	tickets, err := h.tickets.ListColumn(c.UserContext(), col.Status(), filter)
	if err != nil {
		return "", nil, err
	}
	return col, tickets, nil
}

func parseTicketFilter(c *fiber.Ctx, principal *auth.Principal) (service.TicketFilter, error) {
	filter := service.TicketFilter{
		Viewer: &service.Viewer{Role: principal.Account.Role, TechnicianCode: principal.Account.TechnicianCode},
		Search: c.Query("q"),
	}
	if raw := c.Query("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), map[string]any{"category": raw})
		}
		filter.Category = category
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := domain.ParsePriority(raw)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), map[string]any{"priority": raw})
		}
		filter.Priority = priority
	}
	if raw := c.Query("assignee"); raw != "" {
		assignee, err := domain.ParseAssignee(raw)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), map[string]any{"assignee": raw})
		}
		filter.Assignee = assignee
	}
	return filter, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
