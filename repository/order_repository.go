package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrEmptyCart means the cart exists but holds no items to check out.
var ErrEmptyCart = errors.New("cart is empty")

// ErrOrderNotFound means no order matches the given id for the user.
var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	Status        string
	PaymentStatus string
	MinTotal      *decimal.Decimal
	MaxTotal      *decimal.Decimal
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// PlaceOrder converts the user's active cart into an order inside a single
	// transaction: lock cart, snapshot items, create order + items, clear cart.
	// productNames supplies name snapshots keyed by product id; missing entries
	// fall back to the product id.
	PlaceOrder(ctx context.Context, userID, shippingAddress, billingAddress string, productNames map[string]string) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string, filter OrderFilter, page, limit int) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
}

// GormOrderRepository implements OrderRepository using GORM over Postgres.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// newOrderNumber builds a human-readable unique order reference.
func newOrderNumber() string {
	return "ORD-" + time.Now().Format("20060102-150405") + "-" + uuid.New().String()[:8]
}

// PlaceOrder runs the checkout sequence atomically. The FOR UPDATE lock on the
// cart row serializes concurrent checkouts for the same user: the loser of the
// race re-reads the cart after commit and finds it empty.
func (r *GormOrderRepository) PlaceOrder(ctx context.Context, userID, shippingAddress, billingAddress string, productNames map[string]string) (*models.Order, error) {
	var order *models.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockActiveCart(tx, userID, false)
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Order("created_at ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			name := productNames[item.ProductID]
			if name == "" {
				name = item.ProductID
			}
			linePrice := item.TotalPrice()
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: name,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  linePrice,
			})
			total = total.Add(linePrice)
		}

		o := models.Order{
			ID:              uuid.New(),
			OrderNumber:     newOrderNumber(),
			UserID:          userID,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			TotalAmount:     total,
			ShippingAddress: shippingAddress,
			BillingAddress:  billingAddress,
		}
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = o.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		o.Items = orderItems
		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByIDAndUserID retrieves a specific order for a user, with items.
func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByUserID retrieves filtered, paginated orders for a user, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.MinTotal != nil {
		query = query.Where("total_amount >= ?", filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		query = query.Where("total_amount <= ?", filter.MaxTotal)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", filter.CreatedBefore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Items").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Update persists status, payment status and tracking-number changes.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}
