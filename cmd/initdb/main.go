package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/farmmart/farmmart-api/internal/database"
	"github.com/farmmart/farmmart-api/internal/store"
)

// initdb drops and recreates the marketplace schema. Destructive:
// intended for fresh setup only.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Initializing the database...")
	if err := store.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("Database initialized with the new schema.")
}
