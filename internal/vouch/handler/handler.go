package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fides/internal/vouch"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes the vouch ledger over HTTP.
type Handler struct {
	service *vouch.Service
	logger  *slog.Logger
}

func New(service *vouch.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/vouches", h.handleGiveVouch)
	r.Get("/vouches/{vouchID}", h.handleGet)
	r.Post("/vouches/{vouchID}/invalidate", h.handleInvalidate)
	r.Get("/users/{userID}/vouches", h.handleListByReceiver)
	r.Get("/users/{userID}/vouches/given", h.handleListByGiver)
}

type giveVouchRequest struct {
	Receiver    string `json:"receiver"`
	SkillID     string `json:"skill_id"`
	Confidence  int    `json:"confidence"`
	Comment     string `json:"comment"`
	EvidenceRef string `json:"evidence_ref"`
}

func (h *Handler) handleGiveVouch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[giveVouchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	receiver, err := id.ParseUserID(req.Receiver)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	skillID, err := id.ParseSkillID(req.SkillID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.GiveVouch(ctx, caller, vouch.GiveVouchRequest{
		Receiver:    receiver,
		SkillID:     skillID,
		Confidence:  req.Confidence,
		Comment:     req.Comment,
		EvidenceRef: req.EvidenceRef,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "give vouch failed",
			"giver", caller.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	vouchID, err := id.ParseVouchID(chi.URLParam(r, "vouchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Get(r.Context(), vouchID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

type invalidateRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	vouchID, err := id.ParseVouchID(chi.URLParam(r, "vouchID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[invalidateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	v, err := h.service.InvalidateVouch(ctx, caller, vouchID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleListByReceiver(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	vouches, err := h.service.ListByReceiver(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vouches)
}

func (h *Handler) handleListByGiver(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	vouches, err := h.service.ListByGiver(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vouches)
}
