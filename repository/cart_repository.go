package repository

import (
	"context"
	"errors"

	"checkout-service/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCartNotFound means the user has no active cart.
	ErrCartNotFound = errors.New("cart not found")
	// ErrItemNotFound means the referenced product is not in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetActiveCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int, unitPrice decimal.Decimal) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
	ClearItems(ctx context.Context, userID string) error
}

// GormCartRepository implements CartRepository using GORM over Postgres.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository.
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

// GetActiveCart retrieves the user's active cart with its items.
func (r *GormCartRepository) GetActiveCart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.created_at ASC") }).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// lockActiveCart loads the user's active cart FOR UPDATE inside tx, creating
// one if none exists. The row lock serializes concurrent mutations and
// checkouts for the same user.
func lockActiveCart(tx *gorm.DB, userID string, createIfMissing bool) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !createIfMissing {
		return nil, ErrCartNotFound
	}
	cart = models.Cart{UserID: userID, IsActive: true}
	if err := tx.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem upserts a line into the user's active cart. An existing line for the
// product gets its quantity incremented and its unit price overwritten with the
// supplied value; the cart itself is created on first touch.
func (r *GormCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int, unitPrice decimal.Decimal) (*models.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockActiveCart(tx, userID, true)
		if err != nil {
			return err
		}

		var item models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += quantity
			item.UnitPrice = unitPrice
			return tx.Save(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: unitPrice,
			}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return r.GetActiveCart(ctx, userID)
}

// UpdateItemQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (r *GormCartRepository) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockActiveCart(tx, userID, false)
		if err != nil {
			return err
		}

		var item models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if quantity <= 0 {
			return tx.Delete(&item).Error
		}
		item.Quantity = quantity
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetActiveCart(ctx, userID)
}

// RemoveItem deletes a line from the user's active cart.
func (r *GormCartRepository) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockActiveCart(tx, userID, false)
		if err != nil {
			return err
		}

		result := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetActiveCart(ctx, userID)
}

// ClearItems removes every line from the user's active cart.
func (r *GormCartRepository) ClearItems(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockActiveCart(tx, userID, false)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
}
