package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fides/internal/identity"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes the user registry over HTTP.
type Handler struct {
	service *identity.Service
	logger  *slog.Logger
}

func New(service *identity.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity routes. All routes assume the auth
// middleware has populated the caller in the request context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users/register", h.handleRegister)
	r.Get("/users/{userID}", h.handleGetProfile)
	r.Post("/users/{userID}/verify", h.handleVerify)
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	EvidenceRef string `json:"evidence_ref"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[registerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	profile, err := h.service.Register(ctx, caller, req.DisplayName, req.Country, req.EvidenceRef)
	if err != nil {
		h.logger.WarnContext(ctx, "register failed",
			"user_id", caller.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.MarkVerified(ctx, caller, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "verify failed",
			"caller", caller.String(),
			"subject", userID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}
