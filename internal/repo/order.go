package repo

import (
	"context"

	"github.com/sellpoint/pos-backend/internal/models"
)

func (r *GormRepo) InsertOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) OrderByID(ctx context.Context, orderID uint) (*models.Order, error) {
	order := models.Order{}
	if err := r.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) OrderItemDetails(ctx context.Context, orderID uint) ([]models.OrderItemDetail, error) {
	items := make([]models.OrderItemDetail, 0)
	err := r.DB.WithContext(ctx).
		Table("order_items").
		Select("order_items.id, order_items.order_id, order_items.product_id, order_items.quantity, order_items.unit_price, order_items.subtotal, products.name AS product_name").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	// created_at has second resolution, id breaks the tie
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SalesTotals sums committed orders inside [since, until] (unix seconds,
// inclusive).
type SalesTotals struct {
	TotalSales float64 `json:"total_sales"`
	OrderCount int64   `json:"order_count"`
}

func (r *GormRepo) SalesTotals(ctx context.Context, since, until int64) (*SalesTotals, error) {
	totals := SalesTotals{}
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_sales, COUNT(*) AS order_count").
		Where("created_at BETWEEN ? AND ?", since, until).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *GormRepo) TopProducts(ctx context.Context, since, until int64, limit int) ([]models.TopProduct, error) {
	rows := make([]models.TopProduct, 0)
	err := r.DB.WithContext(ctx).
		Table("order_items").
		Select("products.id AS product_id, products.name, SUM(order_items.quantity) AS total_quantity, SUM(order_items.subtotal) AS total_amount").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at BETWEEN ? AND ?", since, until).
		Group("products.id, products.name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) SalesByPaymentMethod(ctx context.Context, since, until int64) ([]models.PaymentMethodSales, error) {
	rows := make([]models.PaymentMethodSales, 0)
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("payment_method, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total").
		Where("created_at BETWEEN ? AND ?", since, until).
		Group("payment_method").
		Order("payment_method ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
