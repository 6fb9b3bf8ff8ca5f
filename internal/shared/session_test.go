package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/compass-pm/compass/internal/access"
	"github.com/compass-pm/compass/internal/shared"
	_ "github.com/compass-pm/compass/testing"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func roundTrip(t *testing.T, sm *shared.SessionManager, mutate func(*shared.Session)) *shared.Session {
	t.Helper()
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	mutate(sess)

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	reloaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	return reloaded
}

func TestSessionPersistsValues(t *testing.T) {
	sm := newSessionManager(t)
	sess := roundTrip(t, sm, func(s *shared.Session) {
		s.Set("oauth_state", "abc123")
	})
	assert.Equal(t, "abc123", sess.Get("oauth_state"))
}

func TestSessionPersistsUserAndToken(t *testing.T) {
	sm := newSessionManager(t)
	projectID := int64(4)
	sess := roundTrip(t, sm, func(s *shared.Session) {
		s.SetUser(&access.User{
			ID:    9,
			Email: "pm@example.com",
			Assignments: []access.Assignment{
				{Role: access.RoleProjectLeader, ProjectID: &projectID},
			},
		})
		s.SetToken(&oauth2.Token{AccessToken: "at-9", TokenType: "Bearer"})
	})

	user := sess.User()
	require.NotNil(t, user)
	assert.EqualValues(t, 9, user.ID)
	require.Len(t, user.Assignments, 1)
	assert.Equal(t, access.RoleProjectLeader, user.Assignments[0].Role)
	require.NotNil(t, user.Assignments[0].ProjectID)
	assert.EqualValues(t, 4, *user.Assignments[0].ProjectID)

	token := sess.Token()
	require.NotNil(t, token)
	assert.Equal(t, "at-9", token.AccessToken)
}

func TestDestroyedSessionIsGone(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser(&access.User{ID: 1})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err = sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, sess.User())

	sm.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err = sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, sess.User())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Stable within a session.
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
}

func TestCSRFVerifyRequestAcceptsHeaderOrForm(t *testing.T) {
	sm := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)

	headerReq := httptest.NewRequest(http.MethodPost, "/projects", nil)
	headerReq.Header.Set(shared.CSRFHeader, token)
	require.NoError(t, csrf.VerifyRequest(ctx, sess, headerReq))

	formReq := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(shared.CSRFFormField+"="+token))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, csrf.VerifyRequest(ctx, sess, formReq))

	bareReq := httptest.NewRequest(http.MethodPost, "/projects", nil)
	assert.ErrorIs(t, csrf.VerifyRequest(ctx, sess, bareReq), shared.ErrCSRFTokenMissing)
}
