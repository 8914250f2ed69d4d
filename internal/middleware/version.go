package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-datamodel/internal/types"
)

// VersionHeader carries the requested API version, and the served version
// on responses
const VersionHeader = "X-Api-Version"

// APIVersion checks the requested API version against serverVersion. A
// request without the header is served as serverVersion, a different major
// version is refused.
func APIVersion(serverVersion string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested := normalizeVersion(c.Get(VersionHeader, serverVersion))
		if majorVersion(requested) != majorVersion(serverVersion) {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: fmt.Sprintf("Unsupported API version %s, server is %s", requested, serverVersion),
				Type:    "datamodel.version",
			}
		}

		c.Set(VersionHeader, serverVersion)
		return c.Next()
	}
}

// normalizeVersion expands aliases like "1" and "1.0" to "1.0.0"
func normalizeVersion(version string) string {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(version), "v"), ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, ".")
}

func majorVersion(version string) string {
	major, _, _ := strings.Cut(normalizeVersion(version), ".")
	return major
}
