package tenant

import "github.com/motoserwis/warsztat-api/internal/models"

// Context identifies the acting user and their workshop for the lifetime of
// a single request. It is derived from JWT claims and passed explicitly into
// services; there is no process-wide current tenant.
type Context struct {
	WorkshopID string
	UserID     string
	Role       models.UserRole
}

// FromClaims builds a tenant context from validated JWT claims.
func FromClaims(claims *models.JWTClaims) Context {
	return Context{
		WorkshopID: claims.WorkshopID,
		UserID:     claims.UserID,
		Role:       claims.Role,
	}
}

// Valid reports whether the context carries a resolvable workshop. Requests
// without one must fail closed.
func (c Context) Valid() bool {
	return c.WorkshopID != "" && c.UserID != ""
}
