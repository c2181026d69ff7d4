package cache

import "fmt"

// Key layout shared by every service working against the same Cache. All
// mutating operations must delete every key their write could have staled.
const AllProductsKey = "products:all"

func ProductKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// CartKey names the cached cart-with-items view for one cart.
func CartKey(cartID uint) string {
	return fmt.Sprintf("cart:%d:items", cartID)
}

// CartPrefix covers every key belonging to one cart. The trailing separator
// keeps DeleteByPrefix("cart:5:") away from cart 52.
func CartPrefix(cartID uint) string {
	return fmt.Sprintf("cart:%d:", cartID)
}

func UserOrdersKey(userID uint) string {
	return fmt.Sprintf("orders:user:%d", userID)
}
