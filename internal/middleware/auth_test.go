package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"sitepay/internal/models"
	"sitepay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func token(t *testing.T, claims models.BusinessClaims) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func newApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(secret, zap.NewNop())
	ok := func(c *fiber.Ctx) error { return c.SendString(Claims(c).BusinessID) }

	app.Get("/businesses/:id", auth.Handler, RequireBusinessAccess, ok)
	app.Get("/admin", auth.Handler, RequireAdmin, ok)
	return app
}

func TestAuth(t *testing.T) {
	owner := token(t, models.BusinessClaims{BusinessID: "biz-1", UserID: "u1", Role: models.RoleOwner})
	admin := token(t, models.BusinessClaims{UserID: "root", Role: models.RoleAdmin})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/businesses/biz-1", "", fiber.StatusUnauthorized},
		{"not bearer", "/businesses/biz-1", "Basic abc", fiber.StatusUnauthorized},
		{"bad token", "/businesses/biz-1", "Bearer nope", fiber.StatusUnauthorized},
		{"own business", "/businesses/biz-1", owner, fiber.StatusOK},
		{"other business", "/businesses/biz-2", owner, fiber.StatusForbidden},
		{"admin any business", "/businesses/biz-2", admin, fiber.StatusOK},
		{"owner on admin route", "/admin", owner, fiber.StatusForbidden},
		{"admin on admin route", "/admin", admin, fiber.StatusOK},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
