package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/service"
)

const msgInternal = "Internal server error"

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

// fail maps a service error to its status and a client-safe body. Anything
// without a category is an upstream failure: logged in full, answered as 500.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	var stock *service.StockError
	if errors.As(err, &stock) {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "insufficient_stock", "product_id", stock.ProductID)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "Insufficient stock",
			"name":      stock.Name,
			"available": stock.Available,
			"requested": stock.Requested,
		})
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrUnavailable):
		code = http.StatusServiceUnavailable
	}

	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return errorJSON(c, code, msgInternal)
	}

	msg := http.StatusText(code)
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Msg
	}
	l.Warn(event, "status", code, "error", err)
	return errorJSON(c, code, msg)
}
