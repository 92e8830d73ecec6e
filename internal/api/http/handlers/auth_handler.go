package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/api/dto"
	"github.com/spec-kit/isp-workboard/internal/domain"
	"github.com/spec-kit/isp-workboard/internal/service"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// AuthHandler exposes operator sign-in.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	account, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"account": accountResponse(account),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": accountResponse(&principal.Account)})
}

func accountResponse(account *domain.Account) dto.AccountResponse {
	resp := dto.AccountResponse{
		Username:     account.Username,
		Name:         account.DisplayName,
		Role:         account.Role,
		Capabilities: account.Role.Capabilities(),
	}
	if account.TechnicianCode != domain.AssigneeNone {
		resp.TechnicianCode = account.TechnicianCode
	}
	return resp
}
