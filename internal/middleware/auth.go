package middleware

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/services"
	"github.com/localnerve/jam-build-datamodel/internal/types"
)

// AuthUser validates that the request has user role authorization. It is a
// pass-through when no Authorizer is configured.
func AuthUser(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AuthzURL == "" {
			return c.Next()
		}
		return authorize(c, cfg, []string{"user"}, "datamodel.authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, cfg *config.Config, roles []string, errorType string) error {
	if err := services.InitAuthorizer(c.UserContext(), cfg, c.Protocol(), c.Hostname()); err != nil {
		log.Printf("Authorizer unavailable: %v", err)
		return &types.CustomError{
			Code:    fiber.StatusServiceUnavailable,
			Message: "Authorizer unavailable",
			Type:    errorType,
		}
	}

	// Get session cookie
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	data, err := services.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	if user, ok := data["user"]; ok {
		c.Locals("user", user)
	}

	return c.Next()
}
