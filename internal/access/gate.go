package access

import (
	"net/http"

	"github.com/compass-pm/compass/internal/platform/httpx"
)

// Gate composes a handler with a requirement: the returned handler serves
// next when the session user's assignments satisfy the requirement and the
// fallback otherwise. A nil fallback denies with a 403 problem response.
// The verdict is computed per request from the user in context, so session
// changes take effect immediately. No network calls.
func Gate(req Requirement, next, fallback http.Handler) http.Handler {
	if fallback == nil {
		fallback = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required role or permission")
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var assignments []Assignment
		if user := UserFromContext(r.Context()); user != nil {
			assignments = user.Assignments
		}
		if Evaluate(assignments, req) {
			next.ServeHTTP(w, r)
			return
		}
		fallback.ServeHTTP(w, r)
	})
}
