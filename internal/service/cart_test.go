package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/models"
)

func TestGetOrCreateCart_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.Carts.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.CartStatusActive, first.Status)

	second, err := env.Carts.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := env.Carts.GetOrCreateCart(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAddItemToCart_SnapshotsPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5.00, 10)

	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, item.Quantity)
	require.Equal(t, 5.00, item.PriceAtAdd)

	// catalog price moves, the snapshot does not
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 8.00).Error)

	item, err = env.Carts.AddItemToCart(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, item.Quantity, "same product increments the existing line")
	assert.Equal(t, 5.00, item.PriceAtAdd)

	require.EqualValues(t, 1, env.countRows(t, &models.CartItem{}))
}

func TestAddItemToCart_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Carts.AddItemToCart(ctx, 1, 0, 1)
	assert.ErrorIs(t, err, ErrValidation)

	p := env.createProduct(t, "widget", 5, 10)
	_, err = env.Carts.AddItemToCart(ctx, 1, p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddItemToCart_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Carts.AddItemToCart(context.Background(), 1, 77, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "77")
}

func TestAddItemToCart_AdvisoryStockCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 3)

	_, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// nothing was staged and inventory is untouched
	require.EqualValues(t, 0, env.countRows(t, &models.CartItem{}))
	assert.Equal(t, 3, env.productStock(t, p.ID))
}

func TestGetCartWithItems_CachedUntilMutation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	cart, err := env.Carts.GetCartWithItems(ctx, item.CartID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "widget", cart.Items[0].Name)
	assert.True(t, env.Cache.Has(cache.CartKey(item.CartID)))

	_, err = env.Carts.AddItemToCart(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, env.Cache.Has(cache.CartKey(item.CartID)), "cart mutation must drop the cached view")

	cart, err = env.Carts.GetCartWithItems(ctx, item.CartID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.EqualValues(t, 2, cart.Items[0].Quantity)
}

func TestGetCartWithItems_UnknownCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Carts.GetCartWithItems(context.Background(), 123)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCartItemQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	deleted, updated, err := env.Carts.UpdateCartItemQuantity(ctx, 1, item.ID, 7)
	require.NoError(t, err)
	require.False(t, deleted)
	assert.EqualValues(t, 7, updated.Quantity)

	// zero and below remove the line instead of storing it
	deleted, _, err = env.Carts.UpdateCartItemQuantity(ctx, 1, item.ID, 0)
	require.NoError(t, err)
	assert.True(t, deleted)
	require.EqualValues(t, 0, env.countRows(t, &models.CartItem{}))
}

func TestUpdateCartItemQuantity_ForeignItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	// user 2 has their own active cart but not this line
	_, err = env.Carts.GetOrCreateCart(ctx, 2)
	require.NoError(t, err)

	_, _, err = env.Carts.UpdateCartItemQuantity(ctx, 2, item.ID, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveCartItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, env.Carts.RemoveCartItem(ctx, 1, item.ID))
	require.EqualValues(t, 0, env.countRows(t, &models.CartItem{}))

	err = env.Carts.RemoveCartItem(ctx, 1, item.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Carts.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	_, err = env.Carts.Checkout(ctx, 1, "cash", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	require.EqualValues(t, 0, env.countRows(t, &models.Order{}))
	require.EqualValues(t, 0, env.countRows(t, &models.OrderItem{}))
}

func TestCheckout_NoActiveCart(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Carts.Checkout(context.Background(), 1, "cash", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckout_CompletesCartAndDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5.00, 10)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	cartID := item.CartID

	order, err := env.Carts.Checkout(ctx, 1, "cash", "Walk-in")
	require.NoError(t, err)
	require.Equal(t, 15.00, order.TotalAmount)
	require.Equal(t, models.OrderCompleted, order.OrderStatus)
	require.Equal(t, "Walk-in", order.CustomerName)

	assert.Equal(t, 7, env.productStock(t, p.ID))

	var cart models.Cart
	require.NoError(t, env.DB.First(&cart, cartID).Error)
	assert.Equal(t, models.CartStatusCompleted, cart.Status)

	// completed carts never come back; the next interaction opens a new one
	next, err := env.Carts.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, cartID, next.ID)

	assert.False(t, env.Cache.Has(cache.CartKey(cartID)))
	assert.False(t, env.Cache.Has(cache.UserOrdersKey(1)))
}

func TestCheckout_UsesCurrentPriceNotSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5.00, 10)
	_, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 8.00).Error)

	order, err := env.Carts.Checkout(ctx, 1, "cash", "")
	require.NoError(t, err)
	assert.Equal(t, 16.00, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 8.00, order.Items[0].UnitPrice)
}

func TestCheckout_InsufficientStockLeavesCartActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5.00, 2)
	item, err := env.Carts.AddItemToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	// stock shrinks between staging and checkout
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 1).Error)

	_, err = env.Carts.Checkout(ctx, 1, "cash", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var cart models.Cart
	require.NoError(t, env.DB.First(&cart, item.CartID).Error)
	assert.Equal(t, models.CartStatusActive, cart.Status)
	assert.Equal(t, 1, env.productStock(t, p.ID))
	require.EqualValues(t, 0, env.countRows(t, &models.Order{}))
}
