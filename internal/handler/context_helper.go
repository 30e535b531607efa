package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motoserwis/warsztat-api/internal/middleware"
	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// tenantFromContext derives the per-request tenant binding from JWT claims.
// Handlers pass it explicitly into services.
func tenantFromContext(c *gin.Context) (tenant.Context, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return tenant.Context{}, false
	}
	tc := tenant.FromClaims(claims)
	return tc, tc.Valid()
}

// appliedFilters echoes the non-empty list query params back in response meta
// so clients can restore their view state.
func appliedFilters(c *gin.Context, keys ...string) map[string]interface{} {
	meta := make(map[string]interface{})
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			meta[key] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback))); err == nil {
		return v
	}
	return fallback
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

// queryDate parses YYYY-MM-DD bounds for report windows.
func queryDate(c *gin.Context, key string, endOfDay bool) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t
}
