package showcase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkAuthenticated(t *testing.T, env *testEnv, cookies ...*http.Cookie) bool {
	t.Helper()
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/admin/check", nil), cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	var body checkResponse
	decodeJSON(t, rec, &body)
	return body.Authenticated
}

func TestLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	assert.False(t, checkAuthenticated(t, env))

	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 12*60*60, cookie.MaxAge)
	assert.True(t, checkAuthenticated(t, env, cookie))

	rec := env.doJSON(http.MethodPost, "/api/admin/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	cleared := findCookie(rec, sessionName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	// The browser drops the cookie; the next request is anonymous.
	assert.False(t, checkAuthenticated(t, env))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doJSON(http.MethodPost, "/api/admin/login", `{"password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid password"}`, rec.Body.String())
	assert.Nil(t, findCookie(rec, sessionName))
}

func TestLoginAcceptsFormBody(t *testing.T) {
	env := newTestEnv(t)
	req := multipartRequest(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword})
	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, findCookie(rec, sessionName))
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		rec := env.doJSON(http.MethodPost, "/api/admin/login", `{"password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := env.doJSON(http.MethodPost, "/api/admin/login", `{"password":"`+testPassword+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Nil(t, findCookie(rec, sessionName))
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	forged := *cookie
	forged.Value = "x" + cookie.Value[1:]
	if forged.Value == cookie.Value {
		forged.Value = "y" + cookie.Value[1:]
	}
	assert.False(t, checkAuthenticated(t, env, &forged))

	rec := env.doJSON(http.MethodDelete, "/api/admin/images/1", "", &forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCookieFromOtherSecretIsAnonymous(t *testing.T) {
	other := newTestEnv(t, func(c *Config) { c.SessionSecret = "another-secret-entirely" })
	env := newTestEnv(t)
	assert.False(t, checkAuthenticated(t, env, other.login(t)))
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/admin/images"},
		{http.MethodPut, "/api/admin/images/1"},
		{http.MethodDelete, "/api/admin/images/1"},
		{http.MethodPost, "/api/admin/blog"},
		{http.MethodPut, "/api/admin/blog/1"},
		{http.MethodDelete, "/api/admin/blog/1"},
		{http.MethodPost, "/api/admin/maintenance/sweep"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := env.doJSON(r.method, r.path, `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized","success":false}`, rec.Body.String())
		})
	}
}
