package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/store"
)

// Handlers holds the dependencies shared by all route handlers.
type Handlers struct {
	Store store.Store
}

// currentUserID reads the authenticated user ID set by AuthMiddleware.
func currentUserID(c *gin.Context) int64 {
	userIDRaw, _ := c.Get("userID")
	return userIDRaw.(int64)
}
