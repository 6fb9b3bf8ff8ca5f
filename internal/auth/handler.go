package auth

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/compass-pm/compass/internal/platform/httpx"
	"github.com/compass-pm/compass/internal/shared"
)

// Session keys for the transient OAuth correlation state. Cleared after the
// callback consumes them, successful or not.
const (
	stateSessionKey    = "oauth_state"
	verifierSessionKey = "oauth_verifier"
	returnToSessionKey = "oauth_return_to"
)

// Handler serves the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions}
}

// MountRoutes attaches auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.login)
	r.Get("/callback", h.callback)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	authURL, state, verifier := h.service.BeginLogin()
	sess.Set(stateSessionKey, state)
	sess.Set(verifierSessionKey, verifier)
	if returnTo := r.URL.Query().Get("return_to"); returnTo != "" && returnTo[0] == '/' {
		sess.Set(returnToSessionKey, returnTo)
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	expectedState := sess.Get(stateSessionKey)
	verifier := sess.Get(verifierSessionKey)
	returnTo := sess.Get(returnToSessionKey)
	sess.Delete(stateSessionKey)
	sess.Delete(verifierSessionKey)
	sess.Delete(returnToSessionKey)

	if expectedState == "" || r.URL.Query().Get("state") != expectedState {
		h.logger.Warn("oauth callback state mismatch")
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "invalid state parameter")
		return
	}

	token, user, err := h.service.CompleteLogin(r.Context(), r.URL.Query().Get("code"), verifier)
	if err != nil {
		h.logger.Error("oauth callback", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess.SetUser(user)
	sess.SetToken(token)

	if returnTo == "" {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.service.Logout(r.Context(), sess.Token())
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, sess.User())
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Token() == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	token, user, err := h.service.RefreshUser(r.Context(), sess.Token())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess.SetUser(user)
	sess.SetToken(token)
	httpx.JSON(w, http.StatusOK, user)
}
