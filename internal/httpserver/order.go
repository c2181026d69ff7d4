package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/service"
)

type OrderHandler struct {
	Svc *service.OrderService
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, userID, req)
	if err != nil {
		l.Warn("create_order_error", "error", err)
		return httpError(err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalAmount)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListOrders(c.Request().Context(), userID, isAdmin(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetStatistics(c echo.Context) error {
	days := parseIntDefault(c.QueryParam("days"), 30)

	stats, err := h.Svc.GetSalesStatistics(c.Request().Context(), days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orderID, err := parseID(c)
	if err != nil {
		return err
	}

	order, items, err := h.Svc.GetOrderDetails(c.Request().Context(), userID, orderID, isAdmin(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order": order,
		"items": items,
	})
}
