package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/models"
	"github.com/sellpoint/pos-backend/internal/mykafka"
	"github.com/sellpoint/pos-backend/internal/repo"
	"github.com/sellpoint/pos-backend/internal/service/search"
)

// OrderService is the checkout engine. It is the only place stock is ever
// decremented, and the only component whose writes require true atomicity.
type OrderService struct {
	Repo     *repo.GormRepo
	Cache    *cache.Cache
	Producer *mykafka.Producer
	Search   *search.Index
}

type OrderLine struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName  string      `json:"customer_name"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderLine `json:"items"`
}

// CreateOrder converts an explicit item list into a committed order,
// decrementing inventory. All writes land together or not at all.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, req CreateOrderRequest) (*models.OrderWithItems, error) {
	return s.createOrder(ctx, userID, req, 0)
}

// CreateOrderFromCart is the cart-driven variant: the cart flips to
// completed inside the same transaction as the order and stock writes.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, userID, cartID uint, req CreateOrderRequest) (*models.OrderWithItems, error) {
	return s.createOrder(ctx, userID, req, cartID)
}

func (s *OrderService) createOrder(ctx context.Context, userID uint, req CreateOrderRequest, cartID uint) (*models.OrderWithItems, error) {
	// Rejected before any transaction opens: zero storage writes.
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	for _, line := range req.Items {
		if line.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if line.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	var (
		order models.Order
		items []models.OrderItem
	)

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var total float64
		items = make([]models.OrderItem, 0, len(req.Items))

		// Authoritative store reads, never the cache. Pricing always uses
		// the current catalog price, not a cart snapshot.
		for _, line := range req.Items {
			p, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
				}
				return err
			}
			if p.Stock < int(line.Quantity) {
				return fmt.Errorf("%w: product %q has %d in stock, %d requested",
					ErrInsufficientStock, p.Name, p.Stock, line.Quantity)
			}

			subtotal := p.Price * float64(line.Quantity)
			total += subtotal
			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: p.Price,
				Subtotal:  subtotal,
			})
		}

		order = models.Order{
			UserID:        userID,
			CustomerName:  req.CustomerName,
			TotalAmount:   total,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: models.PaymentCompleted,
			OrderStatus:   models.OrderCompleted,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.InsertOrderItem(ctx, &items[i]); err != nil {
				return err
			}
		}

		// Conditional decrement: zero affected rows means another checkout
		// took the stock after our check. Abort, everything rolls back.
		for _, line := range req.Items {
			ok, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: stock for product %d changed during checkout",
					ErrConflict, line.ProductID)
			}
		}

		if cartID != 0 {
			if err := tx.CompleteCart(ctx, cartID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: cart %d is no longer active", ErrConflict, cartID)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAfterCheckout(userID, cartID, req.Items)
	s.publishOrderCreated(ctx, &order, items)
	s.reindexProducts(ctx, req.Items)

	return &models.OrderWithItems{Order: order, Items: items}, nil
}

// invalidateAfterCheckout enumerates every cache key the committed writes
// could have staled.
func (s *OrderService) invalidateAfterCheckout(userID, cartID uint, lines []OrderLine) {
	s.Cache.Delete(cache.AllProductsKey)
	for _, line := range lines {
		s.Cache.Delete(cache.ProductKey(line.ProductID))
	}
	s.Cache.Delete(cache.UserOrdersKey(userID))
	if cartID != 0 {
		s.Cache.DeleteByPrefix(cache.CartPrefix(cartID))
	}
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	event := map[string]any{
		"type":    "order_created",
		"userID":  order.UserID,
		"orderID": order.ID,
		"total":   order.TotalAmount,
		"items":   items,
	}
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(order.UserID), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", mykafka.TopicOrderEvents, "error", err)
	}
}

// reindexProducts refreshes the search documents of products whose stock
// changed. Best effort, after commit.
func (s *OrderService) reindexProducts(ctx context.Context, lines []OrderLine) {
	if s.Search == nil || s.Search.ES == nil {
		return
	}
	l := logging.FromContext(ctx)
	for _, line := range lines {
		p, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			l.Warn("search_reindex_failed", "product_id", line.ProductID, "error", err)
			continue
		}
		if err := s.Search.IndexProduct(ctx, *p); err != nil {
			l.Warn("search_reindex_failed", "product_id", line.ProductID, "error", err)
		}
	}
}

// GetOrderHistory returns the caller's orders, read through the
// orders:user:<id> cache entry.
func (s *OrderService) GetOrderHistory(ctx context.Context, userID uint) ([]models.Order, error) {
	key := cache.UserOrdersKey(userID)
	if v, ok := s.Cache.Get(key); ok {
		if orders, ok := v.([]models.Order); ok {
			return orders, nil
		}
	}

	orders, err := s.Repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(key, orders)
	return orders, nil
}

// ListOrders returns all orders for admins, otherwise the caller's own.
func (s *OrderService) ListOrders(ctx context.Context, userID uint, admin bool) ([]models.Order, error) {
	if admin {
		return s.Repo.ListAllOrders(ctx)
	}
	return s.GetOrderHistory(ctx, userID)
}

const topProductsLimit = 5

type SalesPeriod struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Days  int   `json:"days"`
}

type SalesStatistics struct {
	Period         SalesPeriod                 `json:"period"`
	TotalSales     float64                     `json:"total_sales"`
	OrderCount     int64                       `json:"order_count"`
	TopProducts    []models.TopProduct         `json:"top_products"`
	PaymentMethods []models.PaymentMethodSales `json:"payment_methods"`
}

// GetSalesStatistics aggregates committed orders over the trailing window:
// revenue and order count, the best sellers by units, and the per-payment-
// method breakdown. days <= 0 means the default 30-day window.
func (s *OrderService) GetSalesStatistics(ctx context.Context, days int) (*SalesStatistics, error) {
	if days <= 0 {
		days = 30
	}
	until := time.Now().Unix()
	since := until - int64(days)*86400

	totals, err := s.Repo.SalesTotals(ctx, since, until)
	if err != nil {
		return nil, err
	}
	top, err := s.Repo.TopProducts(ctx, since, until, topProductsLimit)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.Repo.SalesByPaymentMethod(ctx, since, until)
	if err != nil {
		return nil, err
	}

	return &SalesStatistics{
		Period:         SalesPeriod{Start: since, End: until, Days: days},
		TotalSales:     totals.TotalSales,
		OrderCount:     totals.OrderCount,
		TopProducts:    top,
		PaymentMethods: byMethod,
	}, nil
}

// GetOrderDetails loads one order with its lines joined against product
// names. Non-admins only see their own orders.
func (s *OrderService) GetOrderDetails(ctx context.Context, userID, orderID uint, admin bool) (*models.Order, []models.OrderItemDetail, error) {
	order, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, nil, err
	}
	if !admin && order.UserID != userID {
		return nil, nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}

	items, err := s.Repo.OrderItemDetails(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}
