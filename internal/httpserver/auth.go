package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/middleware/gate"
	"github.com/Skotchmaster/headphones_shop/internal/service"
	"github.com/Skotchmaster/headphones_shop/internal/session"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Sessions *session.Manager
}

func (h *AuthHTTP) VerifyPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "site.verify_password")

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_password_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Password == "" {
		l.Warn("verify_password_error", "status", 400, "reason", "empty_password")
		return errorJSON(c, http.StatusBadRequest, "Password is required")
	}

	if !h.Svc.VerifySitePassword(req.Password) {
		l.Warn("verify_password_failed", "status", 401)
		return errorJSON(c, http.StatusUnauthorized, "Invalid password")
	}

	ck, err := h.Sessions.NewSiteCookie()
	if err != nil {
		l.Error("verify_password_error", "status", 500, "reason", "cannot sign session", "error", err)
		return errorJSON(c, http.StatusInternalServerError, msgInternal)
	}
	c.SetCookie(ck)

	l.Info("site_session_granted")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	admin, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("login_error", "status", 500, "error", err)
		return errorJSON(c, http.StatusInternalServerError, msgInternal)
	}

	ck, err := h.Sessions.NewAdminCookie(admin.ID, admin.Username)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign session", "error", err)
		return errorJSON(c, http.StatusInternalServerError, msgInternal)
	}
	c.SetCookie(ck)

	l.Info("login_successful", "admin_id", admin.ID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "username": admin.Username})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.logout")

	c.SetCookie(h.Sessions.ExpiredCookie(session.AdminCookie))

	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.me")

	claims, ok := gate.Admin(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, err := claims.AdminID()
	if err != nil {
		l.Warn("me_error", "status", 401, "error", err)
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}

	admin, err := h.Svc.Admin(ctx, id)
	if err != nil {
		return fail(c, l, "me_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin_id": admin.ID, "username": admin.Username})
}
