// Package rbac provides the role gates that sit in front of protected
// routes. Three capability classes are used across the API: admin-only,
// user-or-admin, and user-only; ownership checks on individual resources
// live in the handlers that load the resource.
package rbac

import (
	"net/http"

	"github.com/rajatverma/kirana/pkg/middleware"
	"github.com/rajatverma/kirana/pkg/response"
)

// HasRole returns middleware that allows access only to callers with one
// of the given roles. Requires middleware.Auth to have already run.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r.Context())
			if !ok || !allowed[role] {
				response.Forbidden(w, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly gates a route to the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return HasRole("admin")(next)
}

// UserAndAdmin gates a route to any authenticated role.
func UserAndAdmin(next http.Handler) http.Handler {
	return HasRole("user", "admin")(next)
}

// UserOnly gates a route to the plain user role.
func UserOnly(next http.Handler) http.Handler {
	return HasRole("user")(next)
}
