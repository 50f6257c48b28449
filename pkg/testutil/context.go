package testutil

import (
	"context"
	"net/http"
	"time"

	id "fides/pkg/domain"
	"fides/pkg/requestcontext"
)

// WithCaller adds an authenticated principal to the request context,
// simulating what the auth middleware does. Invalid IDs are not added.
func WithCaller(req *http.Request, userID string) *http.Request {
	if parsed, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
	}
	return req
}

// WithClock pins the request clock, simulating the requesttime middleware.
func WithClock(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// Ctx builds a service-level context with caller and clock set. The typical
// shape for service tests that drive voting windows or decay.
func Ctx(userID id.UserID, now time.Time) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithTime(ctx, now)
}
