package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/service"
	"github.com/Skotchmaster/headphones_shop/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

type pageMeta struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	offset, limit = util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))
	return page, offset, limit
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.list")

	page, offset, limit := pageParams(c)
	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		return fail(c, l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"meta":  pageMeta{Page: page, Size: limit, Total: total},
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		l.Warn("get_product_error", "status", 400, "id", c.Param("id"))
		return errorJSON(c, http.StatusBadRequest, "Invalid product ID")
	}

	p, err := h.Svc.GetProduct(ctx, uint(id))
	if err != nil {
		return fail(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	page, offset, limit := pageParams(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, l, "search_products_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"meta":  pageMeta{Page: page, Size: limit, Total: total},
	})
}

func (h *CatalogHTTP) CheckStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.check_stock")

	var req struct {
		ID       uint `json:"id"`
		Quantity int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("check_stock_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.Svc.CheckStock(ctx, req.ID, req.Quantity)
	if err != nil {
		return fail(c, l, "check_stock_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true, "stock": p.StockQuantity})
}
