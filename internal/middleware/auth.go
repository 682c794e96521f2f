// Package middleware provides the fiber middleware that authenticates
// business-scoped tokens and enforces tenant access.
package middleware

import (
	"strings"

	"sitepay/internal/models"
	"sitepay/internal/utils"
	"sitepay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// AuthMiddleware handles JWT token validation. Valid claims are stored in
// the request locals for the handlers and the access checks below.
type AuthMiddleware struct {
	secret string
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: secret, logger: logger}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// Claims returns the authenticated claims, or nil outside Handler.
func Claims(c *fiber.Ctx) *models.BusinessClaims {
	claims, _ := c.Locals(claimsKey).(*models.BusinessClaims)
	return claims
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(c *fiber.Ctx) error {
	claims := Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	if !claims.IsAdmin() {
		return response.Forbidden(c)
	}
	return c.Next()
}

// RequireBusinessAccess allows the request only if the token may act on the
// business named by the :id route parameter.
func RequireBusinessAccess(c *fiber.Ctx) error {
	claims := Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}
	if !claims.CanAccess(c.Params("id")) {
		return response.Forbidden(c)
	}
	return c.Next()
}
