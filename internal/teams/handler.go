package teams

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/upstream"
)

// Handler serves the team JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the team HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches team routes with their access guards.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.Use(guard.RequireAny(access.PermTeamsView))
	r.Get("/", h.list)
	r.Route("/{teamID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Get("/members", h.members)
		r.Get("/activities", h.activities)
		r.With(guard.RequireAny(access.PermReportsView)).Get("/performance", h.performance)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := upstream.TeamFilter{Search: query.Get("search")}
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
	id, ok := h.teamID(w, r)
	if !ok {
		return
	}
	team, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	id, ok := h.teamID(w, r)
	if !ok {
		return
	}
	members, err := h.service.Members(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, members)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	id, ok := h.teamID(w, r)
	if !ok {
		return
	}
	activities, err := h.service.Activities(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activities)
}

func (h *Handler) performance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.teamID(w, r)
	if !ok {
		return
	}
	perf, err := h.service.Performance(r.Context(), id, r.URL.Query().Get("period"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perf)
}

func (h *Handler) teamID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid team ID")
		return 0, false
	}
	return id, true
}
