package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/models"
)

func (r *GormRepo) ActiveCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := models.Cart{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCart opens a fresh active cart. The partial unique index on
// (user_id) WHERE status = 'active' turns a concurrent first interaction
// into a duplicate-key error, in which case the winner's cart is returned.
func (r *GormRepo) CreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := models.Cart{UserID: userID, Status: models.CartStatusActive}
	err := r.DB.WithContext(ctx).Create(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.ActiveCart(ctx, userID)
	}
	return nil, err
}

func (r *GormRepo) CartByID(ctx context.Context, cartID uint) (*models.Cart, error) {
	cart := models.Cart{}
	if err := r.DB.WithContext(ctx).First(&cart, cartID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) CartItems(ctx context.Context, cartID uint) ([]models.CartItemDetail, error) {
	items := make([]models.CartItemDetail, 0)
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.id, cart_items.cart_id, cart_items.product_id, cart_items.quantity, cart_items.price_at_add, products.name, products.description").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Order("cart_items.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CartItemByID(ctx context.Context, itemID uint) (*models.CartItem, error) {
	item := models.CartItem{}
	if err := r.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertCartItem increments an existing line for the product or inserts a
// new one carrying the price snapshot. The snapshot of an existing line is
// left alone.
func (r *GormRepo) UpsertCartItem(ctx context.Context, cartID, productID, qty uint, price float64) (*models.CartItem, error) {
	item := models.CartItem{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
		}

		item = models.CartItem{
			CartID:     cartID,
			ProductID:  productID,
			Quantity:   qty,
			PriceAtAdd: price,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID, qty uint) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, itemID uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.CartItem{}, itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CompleteCart flips an active cart to completed. Completed carts never
// transition back.
func (r *GormRepo) CompleteCart(ctx context.Context, cartID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, models.CartStatusActive).
		Update("status", models.CartStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
