package models

const (
	CartStatusActive    = "active"
	CartStatusCompleted = "completed"
	CartStatusAbandoned = "abandoned"
)

const (
	PaymentCompleted = "completed"
	OrderCompleted   = "completed"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"             json:"id"`
	Name        string  `gorm:"not null"                             json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null;check:price >= 0"            json:"price"`
	Stock       int     `gorm:"not null;default:0;check:stock >= 0"  json:"stock"`
}

type Cart struct {
	ID        uint   `gorm:"primaryKey"               json:"id"`
	UserID    uint   `gorm:"index;not null"           json:"user_id"`
	Status    string `gorm:"not null;default:active"  json:"status"`
	CreatedAt int64  `gorm:"not null"                 json:"created_at"`
}

type CartItem struct {
	ID         uint    `gorm:"primaryKey"                         json:"id"`
	CartID     uint    `gorm:"index;not null"                     json:"cart_id"`
	ProductID  uint    `gorm:"not null"                           json:"product_id"`
	Quantity   uint    `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	PriceAtAdd float64 `gorm:"not null"                           json:"price_at_add"`
}

type Order struct {
	ID            uint    `gorm:"primaryKey"      json:"id"`
	UserID        uint    `gorm:"index;not null"  json:"user_id"`
	CustomerName  string  `json:"customer_name,omitempty"`
	TotalAmount   float64 `gorm:"not null"        json:"total_amount"`
	PaymentMethod string  `gorm:"not null"        json:"payment_method"`
	PaymentStatus string  `gorm:"not null"        json:"payment_status"`
	OrderStatus   string  `gorm:"not null"        json:"order_status"`
	CreatedAt     int64   `gorm:"not null"        json:"created_at"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                   json:"id"`
	OrderID   uint    `gorm:"index;not null"               json:"order_id"`
	ProductID uint    `gorm:"not null"                     json:"product_id"`
	Quantity  uint    `gorm:"not null;check:quantity > 0"  json:"quantity"`
	UnitPrice float64 `gorm:"not null"                     json:"unit_price"`
	Subtotal  float64 `gorm:"not null"                     json:"subtotal"`
}

type PaymentMethod struct {
	ID       uint   `gorm:"primaryKey"            json:"id"`
	Name     string `gorm:"unique;not null"       json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// CartItemDetail is a cart line joined with catalog display fields.
type CartItemDetail struct {
	ID          uint    `json:"id"`
	CartID      uint    `json:"cart_id"`
	ProductID   uint    `json:"product_id"`
	Quantity    uint    `json:"quantity"`
	PriceAtAdd  float64 `json:"price_at_add"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

type CartWithItems struct {
	Cart
	Items []CartItemDetail `json:"items"`
}

// OrderItemDetail is an order line joined with the product name for display.
type OrderItemDetail struct {
	ID          uint    `json:"id"`
	OrderID     uint    `json:"order_id"`
	ProductID   uint    `json:"product_id"`
	Quantity    uint    `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
	ProductName string  `json:"product_name"`
}

type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// TopProduct is one row of the best-sellers aggregate, ranked by units sold.
type TopProduct struct {
	ProductID     uint    `json:"product_id"`
	Name          string  `json:"name"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

// PaymentMethodSales is the per-method slice of the sales breakdown.
type PaymentMethodSales struct {
	PaymentMethod string  `json:"payment_method"`
	OrderCount    int64   `json:"order_count"`
	Total         float64 `json:"total"`
}
