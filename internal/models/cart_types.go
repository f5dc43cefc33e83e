package models

import "github.com/shopspring/decimal"

// CartLine is the model for the 'cart' table: one pending
// (customer, product, quantity) row. The table enforces a unique key on
// (customer_id, product_id); repeated adds bump the quantity instead of
// inserting a second row.
type CartLine struct {
	ID         int64 `json:"id" db:"id"`
	CustomerID int64 `json:"customerId" db:"customer_id"`
	ProductID  int64 `json:"productId" db:"product_id"`
	Quantity   int   `json:"quantity" db:"quantity"`

	// Joined from products, populated by the store.
	ProductName string          `json:"productName,omitempty" db:"-"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"-"`
	LineTotal   decimal.Decimal `json:"lineTotal" db:"-"`
}
