package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmmart/farmmart-api/internal/models"
)

// MySQL server error numbers this store cares about.
const (
	mysqlErrDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlErrRowReferenced  = 1451 // ER_ROW_IS_REFERENCED_2
)

func mysqlErrNumber(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == number
}

// MySQL is the production Store backed by database/sql.
type MySQL struct {
	DB *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{DB: db}
}

//
// --- Users ---
//

func (s *MySQL) CreateUser(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now()
	query := `
		INSERT INTO users (name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)`
	result, err := s.DB.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		// The only unique index on users is email.
		if mysqlErrNumber(err, mysqlErrDuplicateEntry) {
			return ErrDuplicateEmail
		}
		return err
	}
	u.ID, err = result.LastInsertId()
	return err
}

func (s *MySQL) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	query := "SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?"
	err := s.DB.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *MySQL) UserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	query := "SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?"
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	return u, err
}

//
// --- Catalog ---
//

func (s *MySQL) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	query := `
		INSERT INTO products (farmer_id, name, description, price, quantity, category, contact, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.DB.ExecContext(ctx, query,
		p.FarmerID, p.Name, p.Description, p.Price, p.Quantity, p.Category, p.Contact, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID, err = result.LastInsertId()
	return err
}

const productColumns = "id, farmer_id, name, description, price, quantity, category, contact, created_at, updated_at"

func scanProduct(row interface{ Scan(dest ...any) error }) (models.Product, error) {
	var p models.Product
	var contact sql.NullString
	err := row.Scan(&p.ID, &p.FarmerID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.Category, &contact, &p.CreatedAt, &p.UpdatedAt)
	if contact.Valid {
		p.Contact = &contact.String
	}
	return p, err
}

func (s *MySQL) ProductByID(ctx context.Context, id int64) (models.Product, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

func (s *MySQL) ProductsByFarmer(ctx context.Context, farmerID int64) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE farmer_id = ? ORDER BY created_at DESC", farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *MySQL) SearchProducts(ctx context.Context, name, category string) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE 1=1"
	var args []any
	if name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *MySQL) DeleteProduct(ctx context.Context, productID, farmerID int64) (bool, error) {
	// Cart lines cascade with the product; the orders foreign key has
	// no ON DELETE action, so a product with order history is refused.
	result, err := s.DB.ExecContext(ctx,
		"DELETE FROM products WHERE id = ? AND farmer_id = ?", productID, farmerID)
	if err != nil {
		if mysqlErrNumber(err, mysqlErrRowReferenced) {
			return false, ErrProductHasOrders
		}
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

//
// --- Cart ---
//

func (s *MySQL) CartLines(ctx context.Context, customerID int64) ([]models.CartLine, error) {
	query := `
		SELECT c.id, c.customer_id, c.product_id, c.quantity, p.name, p.price
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.customer_id = ?
		ORDER BY c.id`
	rows, err := s.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.ProductID, &l.Quantity, &l.ProductName, &l.UnitPrice); err != nil {
			return nil, err
		}
		l.LineTotal = l.UnitPrice.Mul(decimalFromInt(l.Quantity))
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *MySQL) AddToCart(ctx context.Context, customerID, productID int64, quantity int) error {
	// The product must exist before a line can reference it.
	var exists int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	// Upsert against the (customer_id, product_id) unique key: repeated
	// adds merge into one line.
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO cart (customer_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = NOW()`,
		customerID, productID, quantity)
	return err
}

func (s *MySQL) UpdateCartLine(ctx context.Context, customerID, productID int64, quantity int) (bool, error) {
	if quantity == 0 {
		result, err := s.DB.ExecContext(ctx,
			"DELETE FROM cart WHERE customer_id = ? AND product_id = ?", customerID, productID)
		if err != nil {
			return false, err
		}
		n, err := result.RowsAffected()
		return n > 0, err
	}

	result, err := s.DB.ExecContext(ctx,
		"UPDATE cart SET quantity = ?, updated_at = NOW() WHERE customer_id = ? AND product_id = ?",
		quantity, customerID, productID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil || n > 0 {
		return n > 0, err
	}

	// The driver reports changed rows, not matched rows: an update to
	// the quantity the line already has affects zero rows. Distinguish
	// that from a missing line.
	var exists int
	err = s.DB.QueryRowContext(ctx,
		"SELECT 1 FROM cart WHERE customer_id = ? AND product_id = ?", customerID, productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *MySQL) RemoveCartLine(ctx context.Context, customerID, lineID int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		"DELETE FROM cart WHERE id = ? AND customer_id = ?", lineID, customerID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

//
// --- Checkout ---
//

// checkoutItem carries one cart line with the product state captured
// under the row lock.
type checkoutItem struct {
	ProductID   int64
	ProductName string
	Requested   int
	UnitPrice   decimal.Decimal
	Stock       int
}

func (s *MySQL) Checkout(ctx context.Context, customerID int64, payment models.PaymentOption) ([]models.Order, error) {
	// 1. --- Validate the Payment Option ---
	if _, ok := models.ParsePaymentOption(string(payment)); !ok {
		return nil, ErrInvalidPayment
	}

	// 2. --- Begin Transaction ---
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // no-op after Commit

	// 3. --- Lock Cart Lines & Product Rows ---
	// The lock spans the whole sequence so a concurrent checkout on
	// the same product serializes.
	query := `
		SELECT c.product_id, c.quantity, p.name, p.price, p.quantity
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.customer_id = ?
		ORDER BY c.id
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}

	var items []checkoutItem
	for rows.Next() {
		var it checkoutItem
		if err := rows.Scan(&it.ProductID, &it.Requested, &it.ProductName, &it.UnitPrice, &it.Stock); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	// 4. --- Check Stock ---
	// Validate every line before writing anything; a single shortage
	// aborts the whole checkout.
	for _, it := range items {
		if it.Stock < it.Requested {
			return nil, &StockShortageError{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Requested:   it.Requested,
				Available:   it.Stock,
			}
		}
	}

	// 5. --- Create Orders & Decrement Stock ---
	now := time.Now()
	orderQuery := `
		INSERT INTO orders (reference, product_id, customer_id, quantity, total_price, payment_option, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stockQuery := "UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ?"

	var orders []models.Order
	for _, it := range items {
		o := models.Order{
			Reference:     uuid.NewString(),
			ProductID:     it.ProductID,
			CustomerID:    customerID,
			Quantity:      it.Requested,
			TotalPrice:    it.UnitPrice.Mul(decimalFromInt(it.Requested)),
			PaymentOption: payment,
			Status:        models.OrderStatusPending,
			CreatedAt:     now,
			ProductName:   it.ProductName,
		}
		result, err := tx.ExecContext(ctx, orderQuery,
			o.Reference, o.ProductID, o.CustomerID, o.Quantity, o.TotalPrice, o.PaymentOption, o.Status, o.CreatedAt)
		if err != nil {
			return nil, err
		}
		if o.ID, err = result.LastInsertId(); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, stockQuery, it.Requested, now, it.ProductID); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	// 6. --- Clear the Cart ---
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart WHERE customer_id = ?", customerID); err != nil {
		return nil, err
	}

	// 7. --- Commit Transaction ---
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return orders, nil
}

//
// --- Orders ---
//

func (s *MySQL) OrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	query := `
		SELECT o.id, o.reference, o.product_id, o.customer_id, o.quantity, o.total_price, o.payment_option, o.status, o.created_at, p.name
		FROM orders o
		JOIN products p ON o.product_id = p.id
		WHERE o.customer_id = ?
		ORDER BY o.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *MySQL) OrdersForFarmer(ctx context.Context, farmerID int64) ([]models.Order, error) {
	query := `
		SELECT o.id, o.reference, o.product_id, o.customer_id, o.quantity, o.total_price, o.payment_option, o.status, o.created_at, p.name
		FROM orders o
		JOIN products p ON o.product_id = p.id
		WHERE p.farmer_id = ?
		ORDER BY o.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.ProductID, &o.CustomerID, &o.Quantity,
			&o.TotalPrice, &o.PaymentOption, &o.Status, &o.CreatedAt, &o.ProductName); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *MySQL) DeleteOrder(ctx context.Context, orderID, customerID int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		"DELETE FROM orders WHERE id = ? AND customer_id = ?", orderID, customerID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (s *MySQL) ConfirmDelivery(ctx context.Context, orderID, customerID int64) (bool, error) {
	// Conditional update: only the owner can complete, and only from
	// Pending. Zero matched rows is a benign no-op.
	result, err := s.DB.ExecContext(ctx, `
		UPDATE orders
		SET status = ?
		WHERE id = ? AND customer_id = ? AND status = ?`,
		models.OrderStatusCompleted, orderID, customerID, models.OrderStatusPending)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
