package services

import (
	"context"
	"errors"
	"time"

	"checkout-service/models"
	"checkout-service/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest is the payload for adding a line to the cart. UnitPrice is
// captured as the snapshot price the line will be charged at.
type AddItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateItemRequest sets a line's quantity; zero or less removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartItemResponse is one cart line with its derived total.
type CartItemResponse struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartResponse is the cart representation with derived totals.
type CartResponse struct {
	UserID      string             `json:"user_id"`
	Items       []CartItemResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CartService handles cart mutations.
type CartService struct {
	repo   repository.CartRepository
	logger *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(repo repository.CartRepository, logger *zap.Logger) *CartService {
	return &CartService{repo: repo, logger: logger}
}

func toCartResponse(cart *models.Cart) *CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice(),
		})
	}
	return &CartResponse{
		UserID:      cart.UserID,
		Items:       items,
		TotalItems:  cart.TotalItems(),
		TotalAmount: cart.TotalAmount(),
		UpdatedAt:   cart.UpdatedAt,
	}
}

// emptyCartResponse stands in for a user who has no active cart yet.
func emptyCartResponse(userID string) *CartResponse {
	return &CartResponse{
		UserID:      userID,
		Items:       []CartItemResponse{},
		TotalAmount: decimal.Zero,
	}
}

// GetCart returns the user's cart; an absent cart reads as an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*CartResponse, *ServiceError) {
	cart, err := s.repo.GetActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCartResponse(userID), nil
		}
		s.logger.Error("failed to get cart", zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to get cart")
	}
	return toCartResponse(cart), nil
}

// AddItem upserts a line: existing product lines get quantity incremented and
// unit price overwritten with the supplied value.
func (s *CartService) AddItem(ctx context.Context, userID string, req *AddItemRequest) (*CartResponse, *ServiceError) {
	if req.ProductID == "" {
		return nil, newServiceError(400, CodeValidation, "product_id is required")
	}
	if req.Quantity < 1 {
		return nil, newServiceError(400, CodeValidation, "quantity must be at least 1")
	}
	if req.UnitPrice.IsNegative() {
		return nil, newServiceError(400, CodeValidation, "unit_price must not be negative")
	}

	cart, err := s.repo.AddItem(ctx, userID, req.ProductID, req.Quantity, req.UnitPrice)
	if err != nil {
		s.logger.Error("failed to add item to cart",
			zap.String("user_id", userID), zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to add item to cart")
	}
	return toCartResponse(cart), nil
}

// UpdateItem sets a line's quantity; zero or less removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, req *UpdateItemRequest) (*CartResponse, *ServiceError) {
	cart, err := s.repo.UpdateItemQuantity(ctx, userID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, newServiceError(404, CodeCartNotFound, "Cart not found")
		case errors.Is(err, repository.ErrItemNotFound):
			return nil, newServiceError(404, CodeItemNotFound, "Item not found in cart")
		}
		s.logger.Error("failed to update cart item",
			zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to update cart item")
	}
	return toCartResponse(cart), nil
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*CartResponse, *ServiceError) {
	cart, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, newServiceError(404, CodeCartNotFound, "Cart not found")
		case errors.Is(err, repository.ErrItemNotFound):
			return nil, newServiceError(404, CodeItemNotFound, "Item not found in cart")
		}
		s.logger.Error("failed to remove cart item",
			zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to remove cart item")
	}
	return toCartResponse(cart), nil
}

// Clear removes every line from the user's cart. Clearing an absent cart is a
// no-op success.
func (s *CartService) Clear(ctx context.Context, userID string) (*CartResponse, *ServiceError) {
	if err := s.repo.ClearItems(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return emptyCartResponse(userID), nil
		}
		s.logger.Error("failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return nil, newServiceError(500, CodeStorageUnavailable, "Failed to clear cart")
	}
	return s.GetCart(ctx, userID)
}
