package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// principalKey is the gin key AuthRequired stores the verified caller under.
const principalKey = "principal"

// Principal is the caller described by a verified access token.
type Principal struct {
	UserID uuid.UUID
	// TenantID is nil for tokens that are not scoped to a workspace.
	TenantID *uuid.UUID
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// GetPrincipal returns the caller set by AuthRequired.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	raw, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := raw.(Principal)
	return p, ok
}

// MustGetTenantID returns the caller's tenant. It aborts with 401 when no
// principal is present and 403 when the token carries no tenant, since every
// CRM resource is tenant scoped.
func MustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		abortJSON(c, http.StatusUnauthorized, "unauthorized")
		return uuid.UUID{}, false
	}
	if p.TenantID == nil {
		abortJSON(c, http.StatusForbidden, "tenant is required")
		return uuid.UUID{}, false
	}
	return *p.TenantID, true
}
