package model

import "time"

// Product is a row in the `products` table.  Products belong to the user
// who created them; only the owner may update or delete a product.
type Product struct {
	ID          uint64    // products.id
	UserID      uint64    // products.user_id (owner)
	Name        string    // products.name
	Description string    // products.description
	Price       float64   // products.price
	Stock       int       // products.stock
	ImageURL    string    // products.image_url
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}
