package routes

import (
	"net/http"

	"checkout-service/controllers"
	"checkout-service/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Register wires all routes onto the engine.
func Register(r *gin.Engine, cartController *controllers.CartController, orderController *controllers.OrderController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limited := r.Group("/")
	limited.Use(middleware.RateLimitMiddleware(rate.Limit(50), 100))
	limited.Use(middleware.AuthMiddleware())

	cart := limited.Group("/cart")
	{
		cart.GET("", cartController.GetCart)
		cart.POST("/items", cartController.AddItem)
		cart.PUT("/items/:product_id", cartController.UpdateItem)
		cart.DELETE("/items/:product_id", cartController.RemoveItem)
		cart.POST("/clear", cartController.ClearCart)
		cart.POST("/checkout", cartController.Checkout)
	}

	orders := limited.Group("/orders")
	{
		orders.GET("", orderController.GetOrders)
		orders.GET("/:id", orderController.GetOrderByID)
		orders.POST("/:id/cancel", orderController.CancelOrder)
		orders.POST("/:id/update-status", orderController.UpdateStatus)
		orders.POST("/:id/update-payment-status", orderController.UpdatePaymentStatus)
		orders.POST("/:id/add-tracking", orderController.AddTracking)
	}
}
