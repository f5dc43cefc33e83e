package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/farmmart/farmmart-api/internal/models"
	"github.com/farmmart/farmmart-api/internal/store"
)

//
// --- Cart Handlers (Customer-Only) ---
//

// AddToCartInput is the request body for POST /v1/customer/cart/items.
type AddToCartInput struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// AddToCart adds a product to the customer's cart. Adding a product
// that is already in the cart increments the existing line.
func (h *Handlers) AddToCart(c *gin.Context) {
	customerID := currentUserID(c)

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product or quantity: " + err.Error()})
		return
	}

	err := h.Store.AddToCart(c.Request.Context(), customerID, input.ProductID, input.Quantity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product added to your cart!"})
}

// GetCart returns the customer's cart lines with per-line and grand totals.
func (h *Handlers) GetCart(c *gin.Context) {
	customerID := currentUserID(c)

	lines, err := h.Store.CartLines(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if lines == nil {
		lines = []models.CartLine{}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      lines,
		"totalPrice": total,
	})
}

// UpdateCartItemInput is the request body for PUT /v1/customer/cart/items/:product_id.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	customerID := currentUserID(c)

	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Store.UpdateCartLine(c.Request.Context(), customerID, productID, *input.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated"})
}

// RemoveCartItem removes one line from the customer's cart by line id.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	customerID := currentUserID(c)

	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id"})
		return
	}

	removed, err := h.Store.RemoveCartLine(c.Request.Context(), customerID, lineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove item"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart!"})
}
