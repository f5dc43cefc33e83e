package store

import "database/sql"

// schemaStatements is the full DDL for a fresh install. InitSchema drops
// everything first; this is for setup, never for a live database.
var schemaStatements = []string{
	`DROP TABLE IF EXISTS orders`,
	`DROP TABLE IF EXISTS cart`,
	`DROP TABLE IF EXISTS products`,
	`DROP TABLE IF EXISTS users`,

	`CREATE TABLE users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('farmer', 'customer') NOT NULL,
		created_at    DATETIME NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,

	`CREATE TABLE products (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		farmer_id   BIGINT NOT NULL,
		name        VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price       DECIMAL(10,2) NOT NULL,
		quantity    INT NOT NULL DEFAULT 0,
		category    VARCHAR(100) NOT NULL,
		contact     VARCHAR(100),
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL,
		CONSTRAINT fk_products_farmer FOREIGN KEY (farmer_id) REFERENCES users (id),
		CONSTRAINT chk_products_price CHECK (price >= 0),
		CONSTRAINT chk_products_quantity CHECK (quantity >= 0)
	)`,

	`CREATE TABLE cart (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		product_id  BIGINT NOT NULL,
		quantity    INT NOT NULL,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL,
		UNIQUE KEY uq_cart_customer_product (customer_id, product_id),
		CONSTRAINT fk_cart_customer FOREIGN KEY (customer_id) REFERENCES users (id),
		CONSTRAINT fk_cart_product FOREIGN KEY (product_id) REFERENCES products (id) ON DELETE CASCADE,
		CONSTRAINT chk_cart_quantity CHECK (quantity > 0)
	)`,

	`CREATE TABLE orders (
		id             BIGINT AUTO_INCREMENT PRIMARY KEY,
		reference      CHAR(36) NOT NULL,
		product_id     BIGINT NOT NULL,
		customer_id    BIGINT NOT NULL,
		quantity       INT NOT NULL,
		total_price    DECIMAL(10,2) NOT NULL,
		payment_option ENUM('credit', 'debit', 'cash') NOT NULL,
		status         ENUM('Pending', 'Completed') NOT NULL DEFAULT 'Pending',
		created_at     DATETIME NOT NULL,
		UNIQUE KEY uq_orders_reference (reference),
		CONSTRAINT fk_orders_product FOREIGN KEY (product_id) REFERENCES products (id),
		CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id) REFERENCES users (id)
	)`,
}

// InitSchema drops and recreates the marketplace tables.
func InitSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
