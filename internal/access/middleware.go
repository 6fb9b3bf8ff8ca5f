package access

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

// Middleware wires authorization guards for HTTP handlers. Project scope is
// taken from the projectID URL parameter when present.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(w, r, next, Requirement{
				Permissions: normalized,
				ProjectID:   projectScope(r),
			})
		})
	}
}

// RequireAll ensures the current user holds every listed permission.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(w, r, next, Requirement{
				Permissions: normalized,
				ProjectID:   projectScope(r),
				RequireAll:  true,
			})
		})
	}
}

// RequireRole ensures the current user holds at least one of the roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(w, r, next, Requirement{
				Roles:     roles,
				ProjectID: projectScope(r),
			})
		})
	}
}

func (m Middleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler, req Requirement) {
	if req.Empty() {
		next.ServeHTTP(w, r)
		return
	}
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if Evaluate(user.Assignments, req) {
		next.ServeHTTP(w, r)
		return
	}
	if m.Logger != nil {
		m.Logger.Warn("access denied",
			slog.Int64("user_id", user.ID),
			slog.String("path", r.URL.Path))
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func projectScope(r *http.Request) *int64 {
	raw := chi.URLParam(r, "projectID")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func normalizePermissions(perms []Permission) []Permission {
	unique := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		p = Permission(strings.TrimSpace(strings.ToLower(string(p))))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]Permission, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
