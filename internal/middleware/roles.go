package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/models"
	"github.com/farmmart/farmmart-api/internal/store"
)

// RequireRole gates a route group to one role. It runs after
// AuthMiddleware and looks the role up through the store, so a token
// minted before a user was deleted stops working immediately.
func RequireRole(s store.Store, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		user, err := s.UserByID(c.Request.Context(), userIDRaw.(int64))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			c.Abort()
			return
		}

		if user.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "This action requires the " + role + " role"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// FarmerOnly gates seller routes.
func FarmerOnly(s store.Store) gin.HandlerFunc {
	return RequireRole(s, models.RoleFarmer)
}

// CustomerOnly gates buyer routes.
func CustomerOnly(s store.Store) gin.HandlerFunc {
	return RequireRole(s, models.RoleCustomer)
}
