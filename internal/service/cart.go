package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/models"
	"github.com/sellpoint/pos-backend/internal/mykafka"
	"github.com/sellpoint/pos-backend/internal/repo"
)

// CartService owns the cart lifecycle: at most one active cart per user,
// price snapshots at add time, and the cart-facing entry into checkout.
// Cart contents are staging state only; inventory is untouched until
// checkout commits.
type CartService struct {
	Repo     *repo.GormRepo
	Cache    *cache.Cache
	Producer *mykafka.Producer
	Orders   *OrderService
}

// GetOrCreateCart returns the user's most recent active cart, creating one
// on first interaction.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.Repo.ActiveCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Repo.CreateCart(ctx, userID)
}

// GetCartWithItems loads the cart plus its lines joined with product
// display fields, read through the cart:<id>:items cache entry.
func (s *CartService) GetCartWithItems(ctx context.Context, cartID uint) (*models.CartWithItems, error) {
	key := cache.CartKey(cartID)
	if v, ok := s.Cache.Get(key); ok {
		if cart, ok := v.(models.CartWithItems); ok {
			return &cart, nil
		}
	}

	cart, err := s.Repo.CartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart %d", ErrNotFound, cartID)
		}
		return nil, err
	}
	items, err := s.Repo.CartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}

	full := models.CartWithItems{Cart: *cart, Items: items}
	s.Cache.Set(key, full)
	return &full, nil
}

// GetMyCart resolves the caller's active cart (creating one if needed) and
// returns it with items.
func (s *CartService) GetMyCart(ctx context.Context, userID uint) (*models.CartWithItems, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.GetCartWithItems(ctx, cart.ID)
}

// AddItemToCart adds quantity of a product to the caller's active cart. The
// stock check here is advisory display-time validation; the binding check
// happens at checkout.
func (s *CartService) AddItemToCart(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	if product.Stock < int(quantity) {
		return nil, fmt.Errorf("%w: product %q has %d in stock, %d requested",
			ErrInsufficientStock, product.Name, product.Stock, quantity)
	}

	item, err := s.Repo.UpsertCartItem(ctx, cart.ID, productID, quantity, product.Price)
	if err != nil {
		return nil, err
	}

	s.Cache.DeleteByPrefix(cache.CartPrefix(cart.ID))
	s.publishCartEvent(ctx, userID, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"cartID":    cart.ID,
		"productID": productID,
		"quantity":  item.Quantity,
	})
	return item, nil
}

// UpdateCartItemQuantity overwrites a line's quantity; zero or negative
// removes the line. Returns whether the line was deleted and, if kept, its
// new state.
func (s *CartService) UpdateCartItemQuantity(ctx context.Context, userID, itemID uint, quantity int) (bool, *models.CartItem, error) {
	item, cartID, err := s.ownedCartItem(ctx, userID, itemID)
	if err != nil {
		return false, nil, err
	}

	if quantity <= 0 {
		if err := s.Repo.DeleteCartItem(ctx, itemID); err != nil {
			return false, nil, err
		}
		s.Cache.DeleteByPrefix(cache.CartPrefix(cartID))
		s.publishCartEvent(ctx, userID, map[string]any{
			"type":   "cart_item_removed",
			"userID": userID,
			"cartID": cartID,
			"itemID": itemID,
		})
		return true, nil, nil
	}

	if err := s.Repo.SetCartItemQuantity(ctx, itemID, uint(quantity)); err != nil {
		return false, nil, err
	}
	item.Quantity = uint(quantity)

	s.Cache.DeleteByPrefix(cache.CartPrefix(cartID))
	s.publishCartEvent(ctx, userID, map[string]any{
		"type":     "cart_item_updated",
		"userID":   userID,
		"cartID":   cartID,
		"itemID":   itemID,
		"quantity": quantity,
	})
	return false, item, nil
}

func (s *CartService) RemoveCartItem(ctx context.Context, userID, itemID uint) error {
	_, cartID, err := s.ownedCartItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteCartItem(ctx, itemID); err != nil {
		return err
	}

	s.Cache.DeleteByPrefix(cache.CartPrefix(cartID))
	s.publishCartEvent(ctx, userID, map[string]any{
		"type":   "cart_item_removed",
		"userID": userID,
		"cartID": cartID,
		"itemID": itemID,
	})
	return nil
}

// Checkout converts the caller's active cart into a committed order. The
// order engine prices lines at the current catalog price; price_at_add is
// advisory display data only. On success the cart is completed inside the
// same transaction and the cart and order-history caches are dropped.
func (s *CartService) Checkout(ctx context.Context, userID uint, paymentMethod, customerName string) (*models.OrderWithItems, error) {
	cart, err := s.Repo.ActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active cart", ErrNotFound)
		}
		return nil, err
	}

	items, err := s.Repo.CartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := s.Orders.CreateOrderFromCart(ctx, userID, cart.ID, CreateOrderRequest{
		CustomerName:  customerName,
		PaymentMethod: paymentMethod,
		Items:         lines,
	})
	if err != nil {
		return nil, err
	}

	s.publishCartEvent(ctx, userID, map[string]any{
		"type":    "cart_checked_out",
		"userID":  userID,
		"cartID":  cart.ID,
		"orderID": order.ID,
	})
	return order, nil
}

// ownedCartItem resolves itemID and verifies it belongs to the caller's
// active cart. A foreign or orphaned item is indistinguishable from a
// missing one.
func (s *CartService) ownedCartItem(ctx context.Context, userID, itemID uint) (*models.CartItem, uint, error) {
	if itemID == 0 {
		return nil, 0, fmt.Errorf("%w: item id required", ErrValidation)
	}

	cart, err := s.Repo.ActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: no active cart", ErrNotFound)
		}
		return nil, 0, err
	}

	item, err := s.Repo.CartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
		}
		return nil, 0, err
	}
	if item.CartID != cart.ID {
		return nil, 0, fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
	}
	return item, cart.ID, nil
}

func (s *CartService) publishCartEvent(ctx context.Context, userID uint, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicCartEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", mykafka.TopicCartEvents, "error", err)
	}
}
