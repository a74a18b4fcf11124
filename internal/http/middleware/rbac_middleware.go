package middleware

import (
	"net/http"

	"github.com/shopvio/shop-session-service/internal/http/response"
	"github.com/shopvio/shop-session-service/internal/service"
)

// RequireAnyRole gates a protected operation on role membership. The required
// set is disjunctive; holding any one of the roles is enough. A deny
// short-circuits before the handler runs, so no partial work happens.
func RequireAnyRole(rbac service.RoleAuthorizer, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
				return
			}
			if !rbac.Authorize(claims.Roles, roles) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
