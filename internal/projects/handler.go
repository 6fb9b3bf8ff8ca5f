package projects

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/upstream"
)

// Handler serves the project JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the project HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches project routes with their access guards.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.With(guard.RequireAny(access.PermProjectsView)).Get("/", h.list)
	r.With(guard.RequireAny(access.PermProjectsManage)).Post("/", h.create)
	r.Route("/{projectID}", func(r chi.Router) {
		r.With(guard.RequireAny(access.PermProjectsView)).Get("/", h.get)
		r.With(guard.RequireAny(access.PermProjectsManage)).Put("/", h.update)
		r.With(guard.RequireRole(access.RoleAdmin, access.RoleProjectLeader)).Delete("/", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := upstream.ProjectFilter{
		Status: query.Get("status"),
		Search: query.Get("search"),
	}
	filter.TeamID, _ = strconv.ParseInt(query.Get("team_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PerPage, _ = strconv.Atoi(query.Get("per_page"))

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if result.Stale {
		w.Header().Set("X-Cache-Stale", "1")
	}
	httpx.JSON(w, http.StatusOK, result.List)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in upstream.ProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	project, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	var in upstream.ProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	project, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid project ID")
		return 0, false
	}
	return id, true
}
