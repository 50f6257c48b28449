package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fides/internal/region"
	"fides/internal/skill"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/httputil"
	"fides/pkg/requestcontext"
)

// Handler exposes the skill catalog over HTTP.
type Handler struct {
	service *skill.Service
	logger  *slog.Logger
}

func New(service *skill.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/skills", h.handleAddSkill)
	r.Get("/skills", h.handleListSkills)
	r.Get("/skills/{skillID}", h.handleGetSkill)
}

type addSkillRequest struct {
	Name          string                `json:"name"`
	Category      string                `json:"category"`
	Weight        int                   `json:"weight"`
	RegionWeights map[region.Region]int `json:"region_weights"`
}

func (h *Handler) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[addSkillRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	sk, err := h.service.AddSkill(ctx, caller, skill.AddSkillRequest{
		Name:          req.Name,
		Category:      req.Category,
		Weight:        req.Weight,
		RegionWeights: req.RegionWeights,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sk)
}

func (h *Handler) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, skills)
}

func (h *Handler) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	skillID, err := id.ParseSkillID(chi.URLParam(r, "skillID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sk, err := h.service.Get(r.Context(), skillID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sk)
}
