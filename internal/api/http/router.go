package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/api/http/handlers"
	"github.com/spec-kit/isp-workboard/internal/auth"
	"github.com/spec-kit/isp-workboard/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Board          *handlers.BoardHandler
	Tickets        *handlers.TicketsHandler
	Locales        *handlers.LocaleHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Metrics)

	app.Get("/locales", cfg.Locales.Languages)
	app.Get("/locales/:lang", cfg.Locales.Strings)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Get("/me", cfg.Auth.Me)

	board := protected.Group("/board")
	board.Get("/", cfg.Board.Board)
	board.Get("/:column", cfg.Board.Column)
	board.Get("/:column/export", cfg.Board.Export)

	tickets := protected.Group("/tickets")
	tickets.Post("/", auth.RequireCapability(domain.CapCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/move", auth.RequireCapability(domain.CapMoveTicket), cfg.Tickets.MoveTicket)
	tickets.Post("/:id/assign", auth.RequireCapability(domain.CapAssignTicket), cfg.Tickets.AssignTicket)
	tickets.Post("/:id/escalate", auth.RequireCapability(domain.CapEscalateTicket), cfg.Tickets.EscalateTicket)
	tickets.Post("/:id/resolve", auth.RequireCapability(domain.CapResolveTicket), cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/notes", auth.RequireCapability(domain.CapAddNote), cfg.Tickets.AddNote)
	tickets.Post("/:id/accept", auth.RequireCapability(domain.CapAcceptTicket), cfg.Tickets.AcceptTicket)
	tickets.Post("/:id/onsite", auth.RequireCapability(domain.CapOnsiteCheckIn), cfg.Tickets.CheckInOnsite)
}
