package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*types.CustomError); ok {
				return c.Status(e.Code).SendString(e.Type)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	app.Get("/", append(handlers, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})...)
	return app
}

func TestAuthUserDisabled(t *testing.T) {
	app := newApp(AuthUser(&config.Config{}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthUserUnavailable(t *testing.T) {
	app := newApp(AuthUser(&config.Config{AuthzURL: "http://127.0.0.1:1", AuthzClientID: "client"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAPIVersion(t *testing.T) {
	app := newApp(APIVersion("1.2.0"))

	tests := []struct {
		name      string
		requested string
		status    int
	}{
		{"no header", "", http.StatusOK},
		{"alias", "1", http.StatusOK},
		{"older minor", "1.0", http.StatusOK},
		{"prefixed", "v1.2.0", http.StatusOK},
		{"other major", "2.0.0", http.StatusBadRequest},
		{"garbage", "latest", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.requested != "" {
				req.Header.Set(VersionHeader, tt.requested)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.status == http.StatusOK {
				assert.Equal(t, "1.2.0", resp.Header.Get(VersionHeader))
				assert.Equal(t, "ok", string(body))
			} else {
				assert.Equal(t, "datamodel.version", string(body))
			}
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", normalizeVersion("1.0"))
	assert.Equal(t, "1.0.0", normalizeVersion("1"))
	assert.Equal(t, "2.1.3", normalizeVersion("v2.1.3"))
}
