package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/parkside-crm/searchd/pkg/contextkeys"
)

// RequestIDHeader carries the request ID in both directions. An inbound
// value is trusted as-is so IDs survive proxy hops.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request a UUID unless the caller
// supplied one, stores it on the context, and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
