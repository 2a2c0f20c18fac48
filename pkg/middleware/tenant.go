package middleware

import (
	"net/http"

	"github.com/parkside-crm/searchd/pkg/contextkeys"
	"github.com/parkside-crm/searchd/pkg/search"
)

// Headers identifying the requesting tenant and actor. In production these
// are set by the API gateway after authentication; requests without them
// are treated as unscoped (system or cross-tenant admin traffic).
const (
	TenantHeader = "X-Agency-ID"
	ActorHeader  = "X-Actor-ID"
)

// TenantContextMiddleware builds the search context from the tenant and
// actor headers and installs it on the request context.
func TenantContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantHeader)
		actorID := r.Header.Get(ActorHeader)

		ctx := contextkeys.WithTenant(r.Context(), search.NewContext(tenantID, actorID))
		if actorID != "" {
			ctx = contextkeys.WithActorID(ctx, actorID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
