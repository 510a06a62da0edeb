package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
)

// CartController exposes cart mutation endpoints plus checkout.
type CartController struct {
	cartService     *services.CartService
	checkoutService *services.CheckoutService
}

// NewCartController creates a new CartController.
func NewCartController(cartService *services.CartService, checkoutService *services.CheckoutService) *CartController {
	return &CartController{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

// GetCart returns the current cart for the authenticated user.
func (cc *CartController) GetCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, svcErr := cc.cartService.GetCart(c.Request.Context(), userID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds or merges an item into the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.AddItem(c.Request.Context(), userID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateItem sets the quantity of a cart line; zero removes it.
func (cc *CartController) UpdateItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	productID := c.Param("product_id")

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.UpdateItem(c.Request.Context(), userID, productID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem deletes a line from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	productID := c.Param("product_id")

	cart, svcErr := cc.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items from the cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, svcErr := cc.cartService.Clear(c.Request.Context(), userID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Checkout converts the cart into an order and returns it.
func (cc *CartController) Checkout(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	order, svcErr := cc.checkoutService.Checkout(c.Request.Context(), userID, &req, idempotencyKey)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}
