package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmmart/farmmart-api/internal/auth"
	"github.com/farmmart/farmmart-api/internal/models"
	"github.com/farmmart/farmmart-api/internal/store"
)

// SignupInput is the request body for POST /v1/signup. It is separate
// from models.User so a caller can never set an id or a password hash.
type SignupInput struct {
	Role     string `json:"role" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Signup registers a new farmer or customer.
func (h *Handlers) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidRole(input.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be 'farmer' or 'customer'"})
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: password.Hash,
		Role:         input.Role,
	}

	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful! Please login.",
		"user":    user,
	})
}

// LoginInput is the request body for POST /v1/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Fetch the User ---
	user, err := h.Store.UserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	// 3. --- Check the Password ---
	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 4. --- Generate the JWT ---
	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
