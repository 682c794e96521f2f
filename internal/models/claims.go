package models

import "github.com/golang-jwt/jwt/v5"

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// BusinessClaims scope a token to one tenant business.
type BusinessClaims struct {
	jwt.RegisteredClaims
	BusinessID string `json:"business_id"`
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
}

func (c *BusinessClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanAccess reports whether the token may act on businessID.
func (c *BusinessClaims) CanAccess(businessID string) bool {
	return c.IsAdmin() || (c.BusinessID != "" && c.BusinessID == businessID)
}
