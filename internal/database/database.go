package database

import (
	"database/sql"
	"errors"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// OpenDB initializes the shared connection pool from FARMMART_DB_DSN.
func OpenDB() (*sql.DB, error) {
	dsn := os.Getenv("FARMMART_DB_DSN")
	if dsn == "" {
		return nil, errors.New("FARMMART_DB_DSN environment variable is not set")
	}
	return OpenDBWithDSN(dsn)
}

// OpenDBWithDSN creates and configures a connection pool for the given
// DSN. The DSN must include parseTime=true so DATETIME columns scan into
// time.Time.
func OpenDBWithDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Printf("Error connecting to database: %v", err)
		return nil, err
	}

	log.Println("Database connection pool established")
	return db, nil
}
