package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/farmmart/farmmart-api/internal/models"
)

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

var (
	// ErrNotFound is returned when a row the caller named does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEmail is returned by CreateUser when the email is taken.
	ErrDuplicateEmail = errors.New("store: email already registered")

	// ErrCartEmpty is returned by Checkout when the customer has no cart lines.
	ErrCartEmpty = errors.New("store: cart is empty")

	// ErrInvalidPayment is returned by Checkout for a payment option
	// outside the closed credit/debit/cash set.
	ErrInvalidPayment = errors.New("store: invalid payment option")

	// ErrProductHasOrders is returned by DeleteProduct when orders
	// still reference the product. Order history keeps its product row;
	// cart lines, by contrast, are cascade-deleted with the product.
	ErrProductHasOrders = errors.New("store: product has orders")
)

// StockShortageError aborts a checkout when a cart line asks for more
// units than the product has. The whole checkout rolls back; no order
// rows from the same cart survive.
type StockShortageError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ProductName)
}

// Store is the persistence boundary for the marketplace. Both the MySQL
// and the in-memory implementations honor the same contracts, notably
// that Checkout is all-or-nothing and that the conditional updates
// (ConfirmDelivery, DeleteOrder, DeleteProduct) report matched-row
// counts instead of failing on a miss.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)

	// Catalog
	CreateProduct(ctx context.Context, p *models.Product) error
	ProductByID(ctx context.Context, id int64) (models.Product, error)
	ProductsByFarmer(ctx context.Context, farmerID int64) ([]models.Product, error)
	// SearchProducts filters by name substring and/or exact category;
	// empty arguments mean no filter.
	SearchProducts(ctx context.Context, name, category string) ([]models.Product, error)
	// DeleteProduct removes the farmer's product and any cart lines
	// that reference it. It returns ErrProductHasOrders while order
	// history still points at the product.
	DeleteProduct(ctx context.Context, productID, farmerID int64) (bool, error)

	// Cart
	CartLines(ctx context.Context, customerID int64) ([]models.CartLine, error)
	AddToCart(ctx context.Context, customerID, productID int64, quantity int) error
	UpdateCartLine(ctx context.Context, customerID, productID int64, quantity int) (bool, error)
	RemoveCartLine(ctx context.Context, customerID, lineID int64) (bool, error)

	// Checkout converts every cart line of the customer into a Pending
	// order, snapshots total price, decrements stock, and clears the
	// cart, atomically. On any failure no mutation is observable.
	Checkout(ctx context.Context, customerID int64, payment models.PaymentOption) ([]models.Order, error)

	// Orders
	OrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	OrdersForFarmer(ctx context.Context, farmerID int64) ([]models.Order, error)
	DeleteOrder(ctx context.Context, orderID, customerID int64) (bool, error)
	// ConfirmDelivery flips a Pending order owned by customerID to
	// Completed. It reports false when nothing matched; that is a
	// benign no-op, not an error.
	ConfirmDelivery(ctx context.Context, orderID, customerID int64) (bool, error)
}
