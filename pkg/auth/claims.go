package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims carried by every caller of the risk service.
type Claims struct {
	jwt.RegisteredClaims
	Roles    []string  `json:"roles"`
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}

// Roles recognised by the service.
const (
	RoleClinician = "clinician"
	RoleAdmin     = "admin"
	RoleAuditor   = "auditor"
	RoleAPIClient = "api_client"
)
