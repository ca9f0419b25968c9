// Package gate enforces the two access tiers in front of every route: the
// shared site password, then an admin session for the console.
package gate

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/session"
)

const (
	PasswordPage   = "/password"
	AdminLoginPage = "/admin/login"
	AdminDashboard = "/admin/dashboard"
	WebhookPath    = "/api/stripe/webhook"

	adminPrefix    = "/admin"
	adminAPIPrefix = "/api/admin"
	adminLoginAPI  = "/api/admin/login"
	adminLogoutAPI = "/api/admin/logout"
)

var publicPaths = map[string]struct{}{
	PasswordPage:           {},
	"/api/verify-password": {},
	adminLoginAPI:          {},
	adminLogoutAPI:         {},
	"/favicon.ico":         {},
	"/robots.txt":          {},
	"/health/live":         {},
	"/health/ready":        {},
}

var publicPrefixes = []string{"/static/", "/assets/"}

// Verifier checks session cookies. Verification is signature and expiry only,
// no storage lookups.
type Verifier interface {
	VerifySite(token string) error
	VerifyAdmin(token string) (*session.Claims, error)
}

func isPublic(path string) bool {
	if _, ok := publicPaths[path]; ok {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func New(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			l := logging.FromContext(req.Context()).With("middleware", "gate")

			if path == WebhookPath {
				return next(c)
			}

			if !isPublic(path) && !hasSite(c, v) {
				target := PasswordPage + "?redirect=" + url.QueryEscape(req.URL.RequestURI())
				l.Info("gate_redirect", "reason", "no_site_session", "location", target)
				return c.Redirect(http.StatusFound, target)
			}

			claims := adminClaims(c, v)

			switch {
			case path == AdminLoginPage:
				if claims != nil {
					return c.Redirect(http.StatusFound, AdminDashboard)
				}
			case underPrefix(path, adminPrefix):
				if claims == nil {
					l.Info("gate_redirect", "reason", "no_admin_session", "location", AdminLoginPage)
					return c.Redirect(http.StatusFound, AdminLoginPage)
				}
			case underPrefix(path, adminAPIPrefix) && path != adminLoginAPI && path != adminLogoutAPI:
				if claims == nil {
					l.Warn("gate_denied", "status", 401, "reason", "no_admin_session")
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
				}
			}

			if claims != nil {
				c.Set(AdminClaimsKey, claims)
			}
			return next(c)
		}
	}
}

// AdminClaimsKey holds the verified admin claims in the echo context.
const AdminClaimsKey = "admin_claims"

func hasSite(c echo.Context, v Verifier) bool {
	ck, err := c.Cookie(session.SiteCookie)
	if err != nil || ck.Value == "" {
		return false
	}
	return v.VerifySite(ck.Value) == nil
}

func adminClaims(c echo.Context, v Verifier) *session.Claims {
	ck, err := c.Cookie(session.AdminCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	claims, err := v.VerifyAdmin(ck.Value)
	if err != nil {
		return nil
	}
	return claims
}

// Admin returns the claims the gate attached, if any.
func Admin(c echo.Context) (*session.Claims, bool) {
	claims, ok := c.Get(AdminClaimsKey).(*session.Claims)
	return claims, ok && claims != nil
}
