package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/auth"
	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/projects"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/tasks"
	"github.com/compass-pm/compass/internal/teams"
	"github.com/compass-pm/compass/internal/users"
	"github.com/compass-pm/compass/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	Guard           access.Middleware
	AuthHandler     *auth.Handler
	ProjectsHandler *projects.Handler
	TasksHandler    *tasks.Handler
	TeamsHandler    *teams.Handler
	UsersHandler    *users.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Compass defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// CSRF token issuance for the JSON client.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSessionUser)
		r.Route("/projects", func(r chi.Router) {
			params.ProjectsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/tasks", func(r chi.Router) {
			params.TasksHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/teams", func(r chi.Router) {
			params.TeamsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r, params.Guard)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}

// requireSessionUser rejects anonymous requests before any resource handler
// runs. The redirect to login is the client's decision, not ours.
func requireSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access.UserFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
			return
		}
		next.ServeHTTP(w, r)
	})
}
