package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. An order is created Pending and moves to Completed
// exactly once, when the owning customer confirms delivery.
const (
	OrderStatusPending   = "Pending"
	OrderStatusCompleted = "Completed"
)

// PaymentOption is the closed set of payment methods accepted at checkout.
type PaymentOption string

const (
	PaymentCredit PaymentOption = "credit"
	PaymentDebit  PaymentOption = "debit"
	PaymentCash   PaymentOption = "cash"
)

// ParsePaymentOption validates a raw form value against the closed set.
func ParsePaymentOption(s string) (PaymentOption, bool) {
	switch PaymentOption(s) {
	case PaymentCredit, PaymentDebit, PaymentCash:
		return PaymentOption(s), true
	}
	return "", false
}

// Order is the model for the 'orders' table. TotalPrice is snapshotted
// at checkout time (quantity x unit price then), so later price edits
// never rewrite history.
type Order struct {
	ID            int64           `json:"id" db:"id"`
	Reference     string          `json:"reference" db:"reference"`
	ProductID     int64           `json:"productId" db:"product_id"`
	CustomerID    int64           `json:"customerId" db:"customer_id"`
	Quantity      int             `json:"quantity" db:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice" db:"total_price"`
	PaymentOption PaymentOption   `json:"paymentOption" db:"payment_option"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`

	// Joined from products, populated by the store.
	ProductName string `json:"productName,omitempty" db:"-"`
}
