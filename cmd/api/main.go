package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/farmmart/farmmart-api/internal/database"
	"github.com/farmmart/farmmart-api/internal/handlers"
	"github.com/farmmart/farmmart-api/internal/routes"
	"github.com/farmmart/farmmart-api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// FARMMART_STORE=memory runs without MySQL; everything lives in
	// process memory and is gone on restart. Anything else uses MySQL.
	var st store.Store
	if os.Getenv("FARMMART_STORE") == "memory" {
		log.Println("Using in-memory store (data is not persisted)")
		st = store.NewMemory()
	} else {
		db, err := database.OpenDB()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		st = store.NewMySQL(db)
	}

	app := &handlers.Handlers{Store: st}
	router := routes.SetupRouter(app)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	log.Printf("Starting FarmMart API server on %s...", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
