package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MainCategory string          `json:"mainCategory"`
	SubCategory  string          `json:"subCategory"`
	Price        decimal.Decimal `json:"price"`
	ImageRef     string          `json:"image"`
}

// LineItem is a denormalised copy of a product's display attributes taken at
// add time. Quantity is always >= 1.
type LineItem struct {
	ProductID   string          `json:"productId"`
	DisplayName string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageRef    string          `json:"image,omitempty"`
}

// Key is the line's identity within a cart.
func (li LineItem) Key() string { return li.ProductID }

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Totals struct {
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartSnapshot is an immutable copy of the bag taken for checkout.
type CartSnapshot struct {
	Items      []LineItem `json:"items"`
	Totals     Totals     `json:"totals"`
	CapturedAt time.Time  `json:"capturedAt"`
}

type Order struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	UserEmail string     `json:"userEmail"`
	Items     []LineItem `json:"items"`
	Totals    Totals     `json:"totals"`
	PlacedAt  time.Time  `json:"placedAt"`
}
