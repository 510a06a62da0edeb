package services

import (
	"context"
	"errors"
	"fmt"

	"checkout-service/models"
	"checkout-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderResponse is a page of orders with listing metadata.
type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

// MetaData describes the page of a listing.
type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// UpdateStatusRequest carries a target fulfillment status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest carries a target payment status.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// AddTrackingRequest carries the shipment tracking number.
type AddTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// OrderService handles order reads and status transitions.
type OrderService struct {
	repo   repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(repo repository.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger}
}

// GetUserOrders retrieves filtered, paginated orders for a user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, filter repository.OrderFilter, page, limit int) (*OrderResponse, *ServiceError) {
	orders, total, err := s.repo.FindByUserID(ctx, userID, filter, page, limit)
	if err != nil {
		s.logger.Error("failed to fetch orders", zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to fetch orders")
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetOrderByID retrieves a specific order for a user.
func (s *OrderService) GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.repo.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, newServiceError(404, CodeOrderNotFound, "Order not found")
		}
		s.logger.Error("failed to fetch order",
			zap.String("order_id", orderID.String()), zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to fetch order")
	}
	return order, nil
}

// Cancel moves an order to CANCELLED. Permitted only from PENDING; a second
// cancel gets INVALID_TRANSITION, never a crash.
func (s *OrderService) Cancel(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrderByID(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if order.Status != models.OrderStatusPending {
		return nil, newServiceError(400, CodeInvalidTransition,
			fmt.Sprintf("only pending orders can be cancelled, current status is %s", order.Status))
	}

	order.Status = models.OrderStatusCancelled
	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("failed to cancel order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to cancel order")
	}

	s.logger.Info("order cancelled", zap.String("order_id", orderID.String()), zap.String("user_id", userID))
	return order, nil
}

// UpdateStatus applies a fulfillment transition through the state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, userID string, orderID uuid.UUID, req *UpdateStatusRequest) (*models.Order, *ServiceError) {
	next := models.OrderStatus(req.Status)
	if !next.IsValid() {
		return nil, newServiceError(400, CodeInvalidStatus, fmt.Sprintf("unknown status %q", req.Status))
	}

	order, svcErr := s.GetOrderByID(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, newServiceError(400, CodeInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", order.Status, next))
	}

	order.Status = next
	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("failed to update order status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to update order status")
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID.String()), zap.String("status", string(next)))
	return order, nil
}

// UpdatePaymentStatus sets the payment axis, independent of fulfillment status.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, userID string, orderID uuid.UUID, req *UpdatePaymentStatusRequest) (*models.Order, *ServiceError) {
	next := models.PaymentStatus(req.PaymentStatus)
	if !next.IsValid() {
		return nil, newServiceError(400, CodeInvalidStatus, fmt.Sprintf("unknown payment status %q", req.PaymentStatus))
	}

	order, svcErr := s.GetOrderByID(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	order.PaymentStatus = next
	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("failed to update payment status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to update payment status")
	}

	s.logger.Info("payment status updated",
		zap.String("order_id", orderID.String()), zap.String("payment_status", string(next)))
	return order, nil
}

// AddTracking records the tracking number and moves the order to SHIPPED
// through the state machine. Orders already SHIPPED keep their status and only
// get the number updated; terminal orders are rejected.
func (s *OrderService) AddTracking(ctx context.Context, userID string, orderID uuid.UUID, req *AddTrackingRequest) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrderByID(ctx, userID, orderID)
	if svcErr != nil {
		return nil, svcErr
	}

	switch {
	case order.Status == models.OrderStatusShipped:
		// already shipped, just refresh the number
	case order.Status.CanTransitionTo(models.OrderStatusShipped):
		order.Status = models.OrderStatusShipped
	case order.Status == models.OrderStatusPending:
		// PENDING skips PROCESSING when a shipment is registered directly
		order.Status = models.OrderStatusShipped
	default:
		return nil, newServiceError(400, CodeInvalidTransition,
			fmt.Sprintf("cannot ship an order in status %s", order.Status))
	}

	order.TrackingNumber = &req.TrackingNumber
	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("failed to add tracking", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to add tracking number")
	}

	s.logger.Info("tracking number added",
		zap.String("order_id", orderID.String()), zap.String("tracking_number", req.TrackingNumber))
	return order, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
