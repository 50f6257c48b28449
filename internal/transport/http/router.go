// Package http assembles the public HTTP surface: middleware chain,
// module handlers, health, and metrics.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	circlehandler "fides/internal/circle/handler"
	identityhandler "fides/internal/identity/handler"
	proposalhandler "fides/internal/proposal/handler"
	rbachandler "fides/internal/rbac/handler"
	reputationhandler "fides/internal/reputation/handler"
	skillhandler "fides/internal/skill/handler"
	vouchhandler "fides/internal/vouch/handler"
	"fides/pkg/platform/httputil"
	"fides/pkg/platform/middleware/auth"
	"fides/pkg/platform/middleware/requestid"
	"fides/pkg/platform/middleware/requesttime"
)

// Handlers carries the per-module handlers the router mounts.
type Handlers struct {
	Identity   *identityhandler.Handler
	Skill      *skillhandler.Handler
	Vouch      *vouchhandler.Handler
	Reputation *reputationhandler.Handler
	RBAC       *rbachandler.Handler
	Circle     *circlehandler.Handler
	Proposal   *proposalhandler.Handler
}

// New builds the router. Everything under the API is bearer-token
// authenticated; health and metrics are not.
func New(h Handlers, validator auth.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(auth.RequireAuth(validator, logger))
		h.Identity.Register(api)
		h.Skill.Register(api)
		h.Vouch.Register(api)
		h.Reputation.Register(api)
		h.RBAC.Register(api)
		h.Circle.Register(api)
		h.Proposal.Register(api)
	})

	return r
}
