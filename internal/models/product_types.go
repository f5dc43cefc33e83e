package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// Prices are decimals end to end; float math never touches money.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	FarmerID    int64           `json:"farmerId" db:"farmer_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Category    string          `json:"category" db:"category"`
	Contact     *string         `json:"contact,omitempty" db:"contact"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
