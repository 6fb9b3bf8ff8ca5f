package users

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/upstream"
)

// Handler serves the user JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the user HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches user routes with their access guards.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.With(guard.RequireAny(access.PermUsersView)).Get("/", h.list)
	r.Route("/{userID}", func(r chi.Router) {
		r.With(guard.RequireAny(access.PermUsersView)).Get("/", h.get)
		r.With(guard.RequireAny(access.PermUsersManage)).Post("/roles", h.assignRole)
		r.With(guard.RequireAny(access.PermUsersManage)).Delete("/roles", h.removeRole)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := upstream.UserFilter{
		Search: query.Get("search"),
		Role:   query.Get("role"),
	}
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
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.AssignRole)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.RemoveRole)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID int64, in upstream.RoleAssignmentInput) (upstream.User, error)) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in upstream.RoleAssignmentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	user, err := apply(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	// Acting on yourself updates the session snapshot so gating reflects
	// the change without waiting for a refresh.
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if current := sess.User(); current != nil && current.ID == user.ID {
			sess.SetUser(&access.User{
				ID:          user.ID,
				Email:       user.Email,
				Name:        user.Name,
				Assignments: access.NormalizeAssignments(user.Assignments),
			})
		}
	}

	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user ID")
		return 0, false
	}
	return id, true
}
