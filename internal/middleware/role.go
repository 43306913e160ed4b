package middleware

import (
	"context"
	"net/http"
	"slices"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const callerKey = "caller"

type CallerResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (access.Caller, error)
}

// ResolveCaller loads the caller's profile after JWTAuth. The role used for
// every later decision is the stored one, not the token claim.
func ResolveCaller(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNKNOWN_PROFILE", "Profile not found")
			c.Abort()
			return
		}

		c.Set(callerKey, caller)
		c.Set("role", string(caller.Role))
		c.Next()
	}
}

// CallerFrom returns the caller stored by ResolveCaller.
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

// RequireRole must run after ResolveCaller.
func RequireRole(roles ...profile.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		if !slices.Contains(roles, caller.Role) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(profile.RoleAdmin)
}

// MustCaller is CallerFrom for handlers; it writes 401 when the caller is
// missing.
func MustCaller(c *gin.Context) (access.Caller, bool) {
	caller, ok := CallerFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return caller, ok
}
