package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/models"
	"github.com/farmmart/farmmart-api/internal/store"
)

//
// --- Order Handlers (Customer-Only) ---
//

// CheckoutInput is the request body for POST /v1/customer/checkout.
type CheckoutInput struct {
	PaymentOption string `json:"payment_option" binding:"required"`
}

// Checkout converts the customer's whole cart into orders. The store
// guarantees the operation is atomic: on any failure no order exists,
// no stock moved, and the cart is untouched.
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Get Customer ID ---
	customerID := currentUserID(c)

	// 2. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, ok := models.ParsePaymentOption(input.PaymentOption)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment option selected!"})
		return
	}

	// 3. --- Run the Checkout & Map Failures ---
	orders, err := h.Store.Checkout(c.Request.Context(), customerID, payment)
	if err != nil {
		var shortage *store.StockShortageError
		switch {
		case errors.Is(err, store.ErrCartEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty. Add items before checking out."})
		case errors.Is(err, store.ErrInvalidPayment):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment option selected!"})
		case errors.As(err, &shortage):
			c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock for " + shortage.ProductName + "!"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during checkout. Please try again."})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout successful! Your order has been placed.",
		"orders":  orders,
	})
}

// GetMyOrders lists the customer's orders, newest first.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	customerID := currentUserID(c)

	orders, err := h.Store.OrdersByCustomer(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// DeleteOrder removes one of the customer's own orders.
func (h *Handlers) DeleteOrder(c *gin.Context) {
	customerID := currentUserID(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	deleted, err := h.Store.DeleteOrder(c.Request.Context(), orderID, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully!"})
}

// ConfirmDelivery marks a Pending order Completed. A miss (wrong owner,
// already completed, or no such order) is reported as a no-op, not a
// failure.
func (h *Handlers) ConfirmDelivery(c *gin.Context) {
	customerID := currentUserID(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	confirmed, err := h.Store.ConfirmDelivery(c.Request.Context(), orderID, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm delivery"})
		return
	}

	if !confirmed {
		c.JSON(http.StatusOK, gin.H{
			"message": "No pending order found to confirm delivery or the order has already been completed.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order confirmed as delivered!"})
}
