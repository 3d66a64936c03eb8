package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DefaultSize is used whenever a cart request omits the size.
const DefaultSize = "Standard"

// CartItem is one (product, size) selection. Quantity is always >= 1 at rest.
type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"product_id"`
	Size      string             `json:"size" bson:"size"`
	Quantity  int                `json:"quantity" bson:"quantity"`
}

// Matches reports whether the item has the given (product, size) key.
func (i CartItem) Matches(productID primitive.ObjectID, size string) bool {
	return i.ProductID == productID && i.Size == size
}

// CartLine is a cart item joined with the current catalog data.
type CartLine struct {
	ProductID    primitive.ObjectID `json:"_id"`
	Name         string             `json:"name"`
	Price        float64            `json:"price"`
	Image        string             `json:"image"`
	Stock        int                `json:"stock"`
	SelectedSize string             `json:"selectedSize"`
	Quantity     int                `json:"quantity"`
	InStock      bool               `json:"inStock"`
}

// CartSummary holds totals derived from the listed cart lines.
type CartSummary struct {
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
	Total     float64 `json:"total"`
}

// StockViolation describes a cart item whose quantity exceeds current stock.
type StockViolation struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	Requested int                `json:"requested"`
	Available int                `json:"available"`
	Size      string             `json:"size"`
}

type StockValidation struct {
	Valid        bool             `json:"valid"`
	InvalidItems []StockViolation `json:"invalidItems,omitempty"`
}
