package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// InvariantChecker verifies in-memory state is self-consistent.
type InvariantChecker interface {
	CheckInvariant(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	board       InvariantChecker
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, board InvariantChecker) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, board: board}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness once the ticket store and board agree.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.board.CheckInvariant(ctx); err != nil {
		return apperrors.NewBoardInconsistent(err)
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": fiber.Map{"board": "ok"},
	})
}
