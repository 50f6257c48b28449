// Package requestid tags every request with a correlation id, propagated
// through the context and echoed in the X-Request-ID response header.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"fides/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware reuses the inbound X-Request-ID when present so ids survive
// proxy hops, and mints one otherwise.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
