package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/domain"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// RequireCapability lets the request through only when the principal's role
// grants c in the domain capability table.
func RequireCapability(c domain.Capability) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(ctx)
		if !ok {
			return apperrors.NewUnauthorized("sign-in required")
		}
		if !principal.Can(c) {
			return apperrors.NewForbidden(fmt.Sprintf("role %s may not %s", principal.Account.Role, c))
		}
		return ctx.Next()
	}
}

// RequireAnyRole ensures the caller is signed in.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("sign-in required")
		}
		return c.Next()
	}
}
