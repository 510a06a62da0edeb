package controllers

import (
	"net/http"
	"strconv"
	"time"

	"checkout-service/middleware"
	"checkout-service/repository"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderController exposes order reads and status transition endpoints.
type OrderController struct {
	orderService *services.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// GetOrders returns filtered, paginated orders for the authenticated user.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(c)
	filter := parseOrderFilter(c)

	result, svcErr := oc.orderService.GetUserOrders(c.Request.Context(), userID, filter, page, limit)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrderByID returns one order with its items.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, orderID, ok := oc.userAndOrderID(c)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrderByID(c.Request.Context(), userID, orderID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder cancels a pending order.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	userID, orderID, ok := oc.userAndOrderID(c)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.Cancel(c.Request.Context(), userID, orderID)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateStatus applies a fulfillment status transition.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	userID, orderID, ok := oc.userAndOrderID(c)
	if !ok {
		return
	}

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateStatus(c.Request.Context(), userID, orderID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdatePaymentStatus sets the payment status axis.
func (oc *OrderController) UpdatePaymentStatus(c *gin.Context) {
	userID, orderID, ok := oc.userAndOrderID(c)
	if !ok {
		return
	}

	var req services.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdatePaymentStatus(c.Request.Context(), userID, orderID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// AddTracking records a tracking number and ships the order.
func (oc *OrderController) AddTracking(c *gin.Context) {
	userID, orderID, ok := oc.userAndOrderID(c)
	if !ok {
		return
	}

	var req services.AddTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": err.Error()})
		return
	}

	order, svcErr := oc.orderService.AddTracking(c.Request.Context(), userID, orderID, &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Code, "message": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) userAndOrderID(c *gin.Context) (string, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", uuid.Nil, false
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.CodeValidation, "message": "Invalid order ID format"})
		return "", uuid.Nil, false
	}
	return userID, orderID, true
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100

	page := 1
	limit := 10

	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = l
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	return page, limit
}

// parseOrderFilter reads the listing filters from query parameters.
func parseOrderFilter(c *gin.Context) repository.OrderFilter {
	filter := repository.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
	}

	if v := c.Query("min_total"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MinTotal = &d
		}
	}
	if v := c.Query("max_total"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MaxTotal = &d
		}
	}
	if v := c.Query("created_after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedAfter = &t
		}
	}
	if v := c.Query("created_before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedBefore = &t
		}
	}
	return filter
}
