package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fides/internal/proposal"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes the proposal lifecycle over HTTP.
type Handler struct {
	service *proposal.Service
	logger  *slog.Logger
}

func New(service *proposal.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/circles/{circleID}/proposals", h.handleCreate)
	r.Get("/circles/{circleID}/proposals", h.handleList)
	r.Get("/proposals/{proposalID}", h.handleGet)
	r.Post("/proposals/{proposalID}/votes", h.handleVote)
	r.Post("/proposals/{proposalID}/execute", h.handleExecute)
}

func parseProposalID(raw string) (id.ProposalID, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid proposal id")
	}
	return id.ProposalID(n), nil
}

type createProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Recipient   string `json:"recipient"`
	Amount      uint64 `json:"amount"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.Decode[createProposalRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	recipient, err := id.ParseUserID(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.CreateProposal(ctx, caller, proposal.CreateProposalRequest{
		CircleID:    circleID,
		Title:       req.Title,
		Description: req.Description,
		Recipient:   recipient,
		Amount:      req.Amount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create proposal failed",
			"proposer", caller.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	circleID, err := id.ParseCircleID(chi.URLParam(r, "circleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposals, err := h.service.ListByCircle(r.Context(), circleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposals)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	proposalID, err := parseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), proposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type voteRequest struct {
	Support bool `json:"support"`
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	proposalID, err := parseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[voteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	p, err := h.service.CastVote(ctx, caller, proposalID, req.Support)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	proposalID, err := parseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.ExecuteProposal(ctx, caller, proposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
