package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

// cartRequest is shared by every cart route. DELETE routes may carry their
// fields in the query string, the rest in a JSON body.
type cartRequest struct {
	SessionID  string `json:"sessionId" query:"sessionId"`
	CartItemID uint   `json:"cartItemId" query:"cartItemId"`
	ProductID  uint   `json:"productId" query:"productId"`
	Quantity   int    `json:"quantity" query:"quantity"`
}

func (h *CartHTTP) bind(c echo.Context, event string) (*cartRequest, error) {
	var req cartRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Warn(event, "status", 400, "error", err)
		return nil, errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	return &req, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	items, err := h.Svc.GetCart(ctx, c.QueryParam("sessionId"))
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	req, err := h.bind(c, "add_to_cart_error")
	if req == nil {
		return err
	}

	items, err := h.Svc.AddItem(ctx, req.SessionID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	req, err := h.bind(c, "update_cart_error")
	if req == nil {
		return err
	}

	items, err := h.Svc.UpdateItem(ctx, req.SessionID, req.CartItemID, req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}

	l.Info("cart item updated", "cart_item_id", req.CartItemID)
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	req, err := h.bind(c, "remove_from_cart_error")
	if req == nil {
		return err
	}

	items, err := h.Svc.RemoveItem(ctx, req.SessionID, req.CartItemID)
	if err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}

	l.Info("cart item removed", "cart_item_id", req.CartItemID)
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	req, err := h.bind(c, "clear_cart_error")
	if req == nil {
		return err
	}

	if err := h.Svc.Clear(ctx, req.SessionID); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}

	l.Info("cart cleared")
	return c.JSON(http.StatusOK, echo.Map{"success": true, "items": []any{}})
}
