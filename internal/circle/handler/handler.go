package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fides/internal/circle"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes circle management over HTTP.
type Handler struct {
	service *circle.Service
	logger  *slog.Logger
}

func New(service *circle.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/circles", h.handleCreate)
	r.Get("/circles", h.handleList)
	r.Get("/circles/{circleID}", h.handleGet)
	r.Get("/circles/{circleID}/members", h.handleMembers)
	r.Post("/circles/{circleID}/members", h.handleAdmit)
	r.Delete("/circles/{circleID}/members/{userID}", h.handleRemove)
}

type createCircleRequest struct {
	Name                  string `json:"name"`
	MinReputationToJoin   int    `json:"min_reputation_to_join"`
	MinReputationToCreate int    `json:"min_reputation_to_create"`
	OpenJoin              bool   `json:"open_join"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[createCircleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	c, err := h.service.CreateCircle(ctx, caller, req.Name,
		req.MinReputationToJoin, req.MinReputationToCreate, req.OpenJoin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	circles, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, circles)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), circleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	members, err := h.service.Members(r.Context(), circleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.String())
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

type admitRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[admitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	// An empty body means the caller is joining themselves.
	userID := caller
	if req.UserID != "" {
		userID, err = id.ParseUserID(req.UserID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	if err := h.service.Admit(ctx, caller, circleID, userID); err != nil {
		h.logger.WarnContext(ctx, "admit failed",
			"caller", caller.String(),
			"subject", userID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Remove(ctx, caller, circleID, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
