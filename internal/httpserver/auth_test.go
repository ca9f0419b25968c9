package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/headphones_shop/internal/session"
)

func TestGate_RedirectsWithoutSiteSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/products?page=2", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/password?redirect=%2Fapi%2Fproducts%3Fpage%3D2", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/password?redirect=")
}

func TestGate_PublicPathsPass(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_AdminTier(t *testing.T) {
	s := newTestServer(t)
	site := s.siteCookie(t)

	rec := s.do(t, http.MethodGet, "/admin/dashboard", nil, site)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/api/admin/messages", nil, site)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["error"])

	rec = s.do(t, http.MethodGet, "/admin/login", nil, site, s.adminCookie(t))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestGate_ForgedCookieIsRejected(t *testing.T) {
	s := newTestServer(t)

	forged := &http.Cookie{Name: session.SiteCookie, Value: "anything"}
	rec := s.do(t, http.MethodGet, "/api/cart?sessionId=abc", nil, forged)
	assert.Equal(t, http.StatusFound, rec.Code)

	other := session.NewManager([]byte("some other secret"), false)
	ck, err := other.NewSiteCookie()
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/cart?sessionId=abc", nil, ck)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestVerifyPassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/verify-password", map[string]string{"password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password", decode(t, rec)["error"])
	assert.Nil(t, cookieNamed(rec, session.SiteCookie))

	rec = s.do(t, http.MethodPost, "/api/verify-password", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/verify-password", map[string]string{"password": sitePassword})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	ck := cookieNamed(rec, session.SiteCookie)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)

	rec = s.do(t, http.MethodGet, "/api/cart?sessionId=abc", nil, ck)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLogin_SameAnswerForUnknownUserAndWrongPassword(t *testing.T) {
	s := newTestServer(t)
	site := s.siteCookie(t)

	unknown := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "ghost", "password": adminPassword}, site)
	wrong := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": adminUser, "password": "bad"}, site)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Nil(t, cookieNamed(unknown, session.AdminCookie))
	assert.Nil(t, cookieNamed(wrong, session.AdminCookie))
}

func TestAdminLogin_SessionRoundTrip(t *testing.T) {
	s := newTestServer(t)
	site := s.siteCookie(t)

	rec := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": adminUser, "password": adminPassword}, site)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminUser, decode(t, rec)["username"])

	admin := cookieNamed(rec, session.AdminCookie)
	require.NotNil(t, admin)
	assert.True(t, admin.HttpOnly)

	rec = s.do(t, http.MethodGet, "/api/admin/me", nil, site, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminUser, decode(t, rec)["username"])

	rec = s.do(t, http.MethodPost, "/api/admin/logout", nil, site, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec, session.AdminCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestAdminLogout_WithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])
	cleared := cookieNamed(rec, session.AdminCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rec = s.do(t, http.MethodPost, "/api/admin/logout", nil, s.siteCookie(t))
	assert.Equal(t, http.StatusOK, rec.Code)
}
