package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fides/internal/reputation"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes reputation reads and the country trust table over HTTP.
type Handler struct {
	service *reputation.Service
	logger  *slog.Logger
}

func New(service *reputation.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userID}/reputation", h.handleScore)
	r.Put("/countries/{code}/multiplier", h.handleSetMultiplier)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	score, err := h.service.Score(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": userID.String(),
		"score":   score,
	})
}

type setMultiplierRequest struct {
	Multiplier int `json:"multiplier"`
}

func (h *Handler) handleSetMultiplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[setMultiplierRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.SetCountryMultiplier(ctx, caller, chi.URLParam(r, "code"), req.Multiplier); err != nil {
		h.logger.WarnContext(ctx, "set country multiplier failed",
			"caller", caller.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
