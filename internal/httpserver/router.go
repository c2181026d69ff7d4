package httpserver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sellpoint/pos-backend/internal/logging"
)

type Deps struct {
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := v1.Group("/admin", RequireAdmin(d.JWTSecret))
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	v1.GET("/statistics", d.OrderHandler.GetStatistics, RequireAdmin(d.JWTSecret))

	cart := v1.Group("/cart", RequireUser(d.JWTSecret))
	cart.GET("", d.CartHandler.GetMyCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PUT("/items/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.Checkout)

	orders := v1.Group("/orders", RequireUser(d.JWTSecret))
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("", d.OrderHandler.CreateOrder)

	v1.GET("/payment-methods", d.ProductHandler.ListPaymentMethods, RequireUser(d.JWTSecret))
}

// RequestLogger attaches a per-request logger to the context and logs the
// outcome of every request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}

			req := c.Request().WithContext(logging.IntoContext(c.Request().Context(), l))
			c.SetRequest(req)

			start := time.Now()
			err := next(c)
			dur := time.Since(start)
			status := c.Response().Status

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
				status = c.Response().Status
			}

			switch {
			case err != nil || status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur.Milliseconds(), "error", errStr(err))
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur.Milliseconds())
			default:
				l.Info("request completed", "status", status, "duration_ms", dur.Milliseconds(), "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
