package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/service"
)

type MessageHTTP struct {
	Svc *service.MessageService
}

func messageID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *MessageHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact.submit")

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("contact_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.Svc.Submit(ctx, req.Name, req.Email, req.Message)
	if err != nil {
		return fail(c, l, "contact_error", err)
	}

	l.Info("contact_message_stored", "message_id", msg.ID)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "messageId": msg.ID})
}

func (h *MessageHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.messages.list")

	msgs, err := h.Svc.List(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(c, l, "list_messages_error", err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.messages.status")

	id, ok := messageID(c)
	if !ok {
		l.Warn("update_status_error", "status", 400, "id", c.Param("id"))
		return errorJSON(c, http.StatusBadRequest, "Invalid message ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(c, l, "update_status_error", err)
	}

	l.Info("message_status_updated", "message_id", id, "to", msg.Status)
	return c.JSON(http.StatusOK, msg)
}

func (h *MessageHTTP) Respond(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.messages.respond")

	id, ok := messageID(c)
	if !ok {
		l.Warn("respond_error", "status", 400, "id", c.Param("id"))
		return errorJSON(c, http.StatusBadRequest, "Invalid message ID")
	}

	var req struct {
		Response string `json:"response"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("respond_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	msg, err := h.Svc.Respond(ctx, id, req.Response)
	if err != nil {
		return fail(c, l, "respond_error", err)
	}

	l.Info("message_responded", "message_id", id)
	return c.JSON(http.StatusOK, msg)
}
