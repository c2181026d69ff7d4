package config

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/models"
)

// activeCartIndex keeps a user from holding two active carts at once; a
// concurrent first-time create loses with a duplicate-key error and reuses
// the winner's cart.
const activeCartIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_active
ON carts (user_id) WHERE status = 'active'`

var defaultPaymentMethods = []string{"cash", "credit card", "debit card", "transfer"}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentMethod{},
	); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}

	if err := db.Exec(activeCartIndex).Error; err != nil {
		return fmt.Errorf("create active-cart index: %w", err)
	}

	for _, name := range defaultPaymentMethods {
		method := models.PaymentMethod{Name: name, IsActive: true}
		if err := db.Where("name = ?", name).FirstOrCreate(&method).Error; err != nil {
			return fmt.Errorf("seed payment method %q: %w", name, err)
		}
	}

	return nil
}
