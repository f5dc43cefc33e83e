package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/handlers"
	"github.com/farmmart/farmmart-api/internal/middleware"
)

// SetupRouter wires every route group. Role gates mirror the data
// model: farmers manage their catalog, customers own carts and orders.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// Browser frontends are whitelisted via FARMMART_CORS_ORIGINS
	// (comma separated); default covers local dev.
	origins := []string{"http://localhost:5173"}
	if env := os.Getenv("FARMMART_CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/signup", h.Signup)
		v1.POST("/login", h.Login)

		// --- Marketplace (Public) ---
		v1.GET("/marketplace", h.Marketplace)
		v1.GET("/products/:id", h.GetProduct)

		// --- Farmer-Only Routes ---
		farmer := v1.Group("/farmer")
		farmer.Use(middleware.AuthMiddleware())
		farmer.Use(middleware.FarmerOnly(h.Store))
		{
			farmer.GET("/dashboard", h.FarmerDashboard)
			farmer.POST("/products", h.CreateProduct)
			farmer.GET("/products", h.GetMyProducts)
			farmer.DELETE("/products/:id", h.DeleteProduct)
		}

		// --- Customer-Only Routes ---
		customer := v1.Group("/customer")
		customer.Use(middleware.AuthMiddleware())
		customer.Use(middleware.CustomerOnly(h.Store))
		{
			customer.GET("/cart", h.GetCart)
			customer.POST("/cart/items", h.AddToCart)
			customer.PUT("/cart/items/:product_id", h.UpdateCartItem)
			customer.DELETE("/cart/:id", h.RemoveCartItem)

			customer.POST("/checkout", h.Checkout)

			customer.GET("/orders", h.GetMyOrders)
			customer.DELETE("/orders/:id", h.DeleteOrder)
			customer.PATCH("/orders/:id/confirm-delivery", h.ConfirmDelivery)
		}
	}

	return router
}
