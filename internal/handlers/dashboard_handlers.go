package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/models"
)

// FarmerDashboard returns the calling farmer's products together with
// the orders placed against them.
func (h *Handlers) FarmerDashboard(c *gin.Context) {
	farmerID := currentUserID(c)

	products, err := h.Store.ProductsByFarmer(c.Request.Context(), farmerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	orders, err := h.Store.OrdersForFarmer(c.Request.Context(), farmerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	if products == nil {
		products = []models.Product{}
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"orders":   orders,
	})
}
