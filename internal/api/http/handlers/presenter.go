package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/api/dto"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/locale"
	"github.com/spec-kit/isp-workboard/internal/service"
	"github.com/spec-kit/isp-workboard/internal/sla"
)

// Presenter turns domain tickets into localized responses. SLA fields are
// computed against the presenter's clock on every call.
type Presenter struct {
	catalog *locale.Catalog
	now     func() time.Time
}

// NewPresenter constructs a presenter. A nil clock means time.Now.
func NewPresenter(catalog *locale.Catalog, now func() time.Time) *Presenter {
	if now == nil {
		now = time.Now
	}
	return &Presenter{catalog: catalog, now: now}
}

// Language picks the response language from ?lang= or Accept-Language.
func (p *Presenter) Language(c *fiber.Ctx) string {
	if lang := c.Query("lang"); lang != "" {
		return p.catalog.Resolve(lang)
	}
	return p.catalog.Resolve(c.Get(fiber.HeaderAcceptLanguage))
}

func (p *Presenter) summary(lang string, t *domain.Ticket, now time.Time) dto.TicketSummary {
	label := sla.Status(*t, now)
	return dto.TicketSummary{
		ID:            t.ID,
		Customer:      t.Customer,
		Category:      t.Category,
		CategoryLabel: p.catalog.T(lang, "category."+string(t.Category)),
		Priority:      t.Priority,
		PriorityLabel: p.catalog.T(lang, "priority."+string(t.Priority)),
		Assignee:      t.Assignee,
		Status:        t.Status,
		StatusLabel:   p.catalog.T(lang, "status."+string(t.Status)),
		CreatedAt:     t.CreatedAt,
		SLA: dto.SLAResponse{
			DueAt:     t.SLADueAt,
			Label:     label.Text,
			Text:      p.catalog.T(lang, "sla."+label.Text),
			Severity:  label.Severity,
			AtRisk:    sla.IsAtRisk(*t, now),
			Remaining: sla.FormatRemaining(*t, now),
		},
	}
}

// Summary renders a board card.
func (p *Presenter) Summary(lang string, t *domain.Ticket) dto.TicketSummary {
	return p.summary(lang, t, p.now())
}

// Detail renders the full ticket with notes and history.
func (p *Presenter) Detail(lang string, t *domain.Ticket) dto.TicketDetailResponse {
	notes := make([]dto.NoteResponse, 0, len(t.Notes))
	for _, n := range t.Notes {
		notes = append(notes, dto.NoteResponse{At: n.At, By: n.By, Text: n.Text})
	}
	history := make([]dto.HistoryResponse, 0, len(t.History))
	for _, h := range t.History {
		history = append(history, dto.HistoryResponse{At: h.At, By: h.By, Action: h.Action, Meta: h.Meta})
	}
	return dto.TicketDetailResponse{
		TicketSummary: p.Summary(lang, t),
		Address:       t.Address,
		Phone:         t.Phone,
		Email:         t.Email,
		Description:   t.Description,
		Notes:         notes,
		History:       history,
	}
}

// Column renders a capped column page.
func (p *Presenter) Column(lang string, page service.ColumnPage) dto.ColumnResponse {
	now := p.now()
	out := dto.ColumnResponse{
		Column:  page.Column,
		Title:   p.catalog.T(lang, "column."+string(page.Column)),
		Tickets: make([]dto.TicketSummary, 0, len(page.Tickets)),
		Total:   page.Total,
		More:    page.More,
	}
	for i := range page.Tickets {
		out.Tickets = append(out.Tickets, p.summary(lang, &page.Tickets[i], now))
	}
	if page.More > 0 {
		out.MoreLabel = p.catalog.Tf(lang, "column.more", page.More)
	}
	return out
}

// Tickets renders an uncapped list.
func (p *Presenter) Tickets(lang string, tickets []domain.Ticket) []dto.TicketSummary {
	now := p.now()
	out := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		out = append(out, p.summary(lang, &tickets[i], now))
	}
	return out
}

// Now exposes the presenter clock to handlers that stamp exports.
func (p *Presenter) Now() time.Time { return p.now() }
