// Package requesttime pins one timestamp per request.
//
// Every domain decision inside a single operation (decay, voting windows,
// join timestamps) reads the same instant via requestcontext.Now, which
// makes each operation atomic with respect to the clock and lets tests
// drive window transitions deterministically.
package requesttime

import (
	"net/http"
	"time"

	"fides/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
