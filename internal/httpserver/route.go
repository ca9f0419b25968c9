package httpserver

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/db"
	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/middleware/gate"
	"github.com/Skotchmaster/headphones_shop/internal/session"
)

type Deps struct {
	DB        *gorm.DB
	Sessions  *session.Manager
	Auth      *AuthHTTP
	Cart      *CartHTTP
	Catalog   *CatalogHTTP
	Checkout  *CheckoutHTTP
	Messages  *MessageHTTP
	StaticDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(gate.New(d.Sessions))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	if d.StaticDir != "" {
		e.Static("/static", d.StaticDir)
		e.Static("/assets", filepath.Join(d.StaticDir, "assets"))
		e.File(gate.PasswordPage, filepath.Join(d.StaticDir, "password.html"))
		e.File(gate.AdminLoginPage, filepath.Join(d.StaticDir, "admin", "login.html"))
		e.File(gate.AdminDashboard, filepath.Join(d.StaticDir, "admin", "dashboard.html"))
	}

	api := e.Group("/api")

	api.POST("/verify-password", d.Auth.VerifyPassword)
	api.POST("/contact", d.Messages.Submit)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.Search)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("/check-stock", d.Catalog.CheckStock)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.POST("/add", d.Cart.AddItem)
	cart.PUT("/update", d.Cart.UpdateItem)
	cart.DELETE("/remove", d.Cart.RemoveItem)
	cart.DELETE("/clear", d.Cart.Clear)

	api.GET("/stripe/config", d.Checkout.Config)
	api.POST("/stripe/payment-intent", d.Checkout.CreatePaymentIntent)
	api.POST("/stripe/webhook", d.Checkout.Webhook)
	api.GET("/payment-verify", d.Checkout.VerifyPayment)

	admin := api.Group("/admin")
	admin.POST("/login", d.Auth.Login)
	admin.POST("/logout", d.Auth.Logout)
	admin.GET("/me", d.Auth.Me)
	admin.GET("/messages", d.Messages.List)
	admin.PATCH("/messages/:id/status", d.Messages.UpdateStatus)
	admin.POST("/messages/:id/respond", d.Messages.Respond)
}
