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

// CreateProductInput is the request body for POST /v1/farmer/products.
// Price arrives as a string so it can be parsed into an exact decimal.
type CreateProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       string  `json:"price" binding:"required"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
	Category    string  `json:"category" binding:"required"`
	Contact     *string `json:"contact"`
}

// CreateProduct lets a farmer list a new product.
func (h *Handlers) CreateProduct(c *gin.Context) {
	farmerID := currentUserID(c)

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(input.Price)
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be a non-negative decimal"})
		return
	}

	product := &models.Product{
		FarmerID:    farmerID,
		Name:        input.Name,
		Description: input.Description,
		Price:       price,
		Quantity:    input.Quantity,
		Category:    input.Category,
		Contact:     input.Contact,
	}

	if err := h.Store.CreateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added successfully!",
		"product": product,
	})
}

// GetMyProducts lists the calling farmer's own products.
func (h *Handlers) GetMyProducts(c *gin.Context) {
	farmerID := currentUserID(c)

	products, err := h.Store.ProductsByFarmer(c.Request.Context(), farmerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// DeleteProduct removes one of the calling farmer's products. The
// delete is owner-scoped; another farmer's id never matches.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	farmerID := currentUserID(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	deleted, err := h.Store.DeleteProduct(c.Request.Context(), productID, farmerID)
	if err != nil {
		if errors.Is(err, store.ErrProductHasOrders) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete a product that has orders against it"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully!"})
}

// Marketplace lists all products, optionally filtered by a name
// substring (?search=) and an exact category (?category=).
func (h *Handlers) Marketplace(c *gin.Context) {
	search := c.Query("search")
	category := c.Query("category")

	products, err := h.Store.SearchProducts(c.Request.Context(), search, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct returns one product's detail page data.
func (h *Handlers) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := h.Store.ProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}
