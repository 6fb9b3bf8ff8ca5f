package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/app"
	"github.com/compass-pm/compass/internal/auth"
	"github.com/compass-pm/compass/internal/cache"
	"github.com/compass-pm/compass/internal/mutation"
	"github.com/compass-pm/compass/internal/projects"
	"github.com/compass-pm/compass/internal/shared"
	"github.com/compass-pm/compass/internal/tasks"
	"github.com/compass-pm/compass/internal/teams"
	"github.com/compass-pm/compass/internal/upstream"
	"github.com/compass-pm/compass/internal/users"
	_ "github.com/compass-pm/compass/testing"
)

func newTestRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects":
			_ = json.NewEncoder(w).Encode(upstream.ProjectList{
				Items: []upstream.Project{{ID: 1, Name: "Orion"}},
				Total: 1,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(backend.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")

	cfg := &app.Config{
		AppEnv:            "test",
		AppRequestTimeout: 5 * time.Second,
	}
	logger := app.NewLogger(cfg, "compass")

	api := upstream.NewClient(backend.URL, time.Second, nil)
	store := cache.NewStore(cache.Options{TTL: time.Minute})
	coordinator := mutation.NewCoordinator(store, nil)
	authService := auth.NewService(auth.Config{
		ClientID: "compass", AuthURL: backend.URL + "/authorize", TokenURL: backend.URL + "/token",
	}, api, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessions,
		CSRFManager:     csrf,
		Guard:           access.Middleware{Logger: logger},
		AuthHandler:     auth.NewHandler(logger, authService, sessions),
		ProjectsHandler: projects.NewHandler(logger, projects.NewService(api, store, coordinator)),
		TasksHandler:    tasks.NewHandler(logger, tasks.NewService(api, store, coordinator)),
		TeamsHandler:    teams.NewHandler(logger, teams.NewService(api, store)),
		UsersHandler:    users.NewHandler(logger, users.NewService(api, store, coordinator)),
	})
	return router, sessions
}

func TestHealthzIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"status":"ok"`)
}

func TestAPIRejectsAnonymousRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/projects/", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAPIServesAuthenticatedRequests(t *testing.T) {
	router, sessions := newTestRouter(t)

	// Seed a session with a logged-in user, then replay its cookie.
	seedReq := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(seedReq.Context(), seedReq)
	require.NoError(t, err)
	sess.SetUser(&access.User{ID: 1, Assignments: []access.Assignment{{Role: access.RoleMember}}})
	seedRes := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(seedReq.Context(), seedRes, seedReq, sess))
	cookies := seedRes.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/", nil)
	req.AddCookie(cookies[0])
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var list upstream.ProjectList
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Orion", list.Items[0].Name)
}

func TestCSRFTokenEndpointAndEnforcement(t *testing.T) {
	router, sessions := newTestRouter(t)

	// First request issues a session cookie and a CSRF token.
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(t, http.StatusOK, res.Code)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	token := payload["csrf_token"]
	require.NotEmpty(t, token)
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Attach a user so the request clears authentication.
	loadReq := httptest.NewRequest(http.MethodGet, "/", nil)
	loadReq.AddCookie(cookies[0])
	sess, err := sessions.Load(loadReq.Context(), loadReq)
	require.NoError(t, err)
	sess.SetUser(&access.User{ID: 1, Assignments: []access.Assignment{{Role: access.RoleAdmin}}})
	commitRes := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(loadReq.Context(), commitRes, loadReq, sess))

	// Unsafe request without the header is rejected.
	req := httptest.NewRequest(http.MethodDelete, "/api/projects/1", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSecurityHeadersApplied(t *testing.T) {
	router, _ := newTestRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
}
