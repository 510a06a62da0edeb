package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"checkout-service/kafka"
	"checkout-service/models"
	"checkout-service/repository"

	aws_pkg "checkout-service/pkg/aws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// retryBackoff is how long to wait before the single retry of a checkout that
// failed on a transient storage error (lock timeout, serialization failure).
const retryBackoff = 100 * time.Millisecond

// CheckoutRequest carries the addresses the order will be created with.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	BillingAddress  string `json:"billing_address" binding:"required"`
}

// CheckoutService orchestrates the cart-to-order transition.
type CheckoutService struct {
	carts       repository.CartRepository
	orders      repository.OrderRepository
	catalog     ProductCatalog
	idempotency repository.IdempotencyStore
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewCheckoutService creates a CheckoutService. idempotency, producer and
// snsClient may be nil; the corresponding behavior is then skipped.
func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	catalog ProductCatalog,
	idempotency repository.IdempotencyStore,
	producer kafka.ProducerAPI,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		orders:      orders,
		catalog:     catalog,
		idempotency: idempotency,
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// Checkout converts the user's active cart into an order. The cart-stored unit
// price is authoritative; the catalog is only consulted for name snapshots.
// The whole sequence runs in one transaction in the repository; this layer
// adds idempotency, a single retry on transient storage failure, and event
// publication after commit.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req *CheckoutRequest, idempotencyKey string) (*models.Order, *ServiceError) {
	if req.ShippingAddress == "" || req.BillingAddress == "" {
		return nil, newServiceError(400, CodeValidation, "shipping_address and billing_address are required")
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if orderID, err := s.idempotency.Get(ctx, idempotencyKey); err == nil && orderID != "" {
			if id, err := uuid.Parse(orderID); err == nil {
				if order, err := s.orders.FindByIDAndUserID(ctx, id, userID); err == nil {
					s.logger.Info("checkout replayed from idempotency key",
						zap.String("user_id", userID), zap.String("order_id", orderID))
					return order, nil
				}
			}
		}
	}

	productNames := s.resolveProductNames(ctx, userID)

	order, err := s.orders.PlaceOrder(ctx, userID, req.ShippingAddress, req.BillingAddress, productNames)
	if err != nil && isTransient(err) {
		s.logger.Warn("checkout hit transient storage error, retrying once",
			zap.String("user_id", userID), zap.Error(err))
		time.Sleep(retryBackoff)
		order, err = s.orders.PlaceOrder(ctx, userID, req.ShippingAddress, req.BillingAddress, productNames)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, newServiceError(404, CodeCartNotFound, "Cart not found")
		case errors.Is(err, repository.ErrEmptyCart):
			return nil, newServiceError(400, CodeEmptyCart, "Cart is empty")
		}
		s.logger.Error("checkout failed", zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(503, CodeStorageUnavailable, "Checkout temporarily unavailable, please retry")
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Set(ctx, idempotencyKey, order.ID.String()); err != nil {
			s.logger.Warn("failed to record idempotency key", zap.Error(err))
		}
	}

	s.publishOrderCreated(ctx, order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.String()))

	return order, nil
}

// resolveProductNames reads the cart and asks the catalog for display names.
// Best-effort: a catalog miss falls back to the product id inside PlaceOrder.
func (s *CheckoutService) resolveProductNames(ctx context.Context, userID string) map[string]string {
	names := make(map[string]string)
	if s.catalog == nil {
		return names
	}
	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return names
	}
	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			s.logger.Warn("catalog lookup failed, using product id as name",
				zap.String("product_id", item.ProductID), zap.Error(err))
			continue
		}
		names[item.ProductID] = product.Name
	}
	return names
}

// publishOrderCreated emits the order.created event to Kafka and, best-effort,
// to SNS. The order is already committed; publish failures are logged only.
func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *models.Order) {
	evt := models.OrderCreatedEvent{
		Event:       "order.created",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Timestamp:   time.Now(),
	}
	for _, item := range order.Items {
		evt.Items = append(evt.Items, models.OrderCreatedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if s.producer != nil {
		if err := s.producer.SendOrderCreated(ctx, evt); err != nil {
			s.logger.Error("failed to publish order.created to kafka",
				zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}

	if s.snsClient != nil && s.snsTopicArn != "" {
		data, err := json.Marshal(evt)
		if err == nil {
			if err := s.snsClient.Publish(ctx, s.snsTopicArn, data); err != nil {
				s.logger.Warn("sns publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
			}
		}
	}
}

// isTransient reports whether a PlaceOrder failure is worth one retry.
// Domain errors are final; anything else is treated as a storage hiccup.
func isTransient(err error) bool {
	return !errors.Is(err, repository.ErrCartNotFound) && !errors.Is(err, repository.ErrEmptyCart)
}
