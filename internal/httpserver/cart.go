package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/service"
)

type CartHandler struct {
	Svc *service.CartService
}

func (h *CartHandler) GetMyCart(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.GetMyCart(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddItemToCart(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		l.Warn("add_item_error", "product_id", req.ProductID, "error", err)
		return httpError(err)
	}

	l.Info("add_item_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity is required")
	}

	deleted, item, err := h.Svc.UpdateCartItemQuantity(ctx, userID, itemID, *req.Quantity)
	if err != nil {
		l.Warn("update_item_error", "item_id", itemID, "error", err)
		return httpError(err)
	}

	if deleted {
		return c.JSON(http.StatusOK, map[string]any{"deleted": true, "id": itemID})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.RemoveCartItem(ctx, userID, itemID); err != nil {
		l.Warn("remove_item_error", "item_id", itemID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": true, "id": itemID})
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		CustomerName  string `json:"customer_name"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Checkout(ctx, userID, req.PaymentMethod, req.CustomerName)
	if err != nil {
		l.Warn("checkout_error", "error", err)
		return httpError(err)
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount)
	return c.JSON(http.StatusCreated, order)
}
