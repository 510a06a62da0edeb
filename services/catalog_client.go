package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound means the catalog has no product with the given id.
var ErrProductNotFound = errors.New("product not found")

// Product is the catalog's view of a product.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// ProductCatalog is the read-only catalog lookup the checkout workflow
// consumes. The product service sits behind it in the full system.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}

// HTTPProductCatalog implements ProductCatalog against the product service's
// internal endpoint.
type HTTPProductCatalog struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProductCatalog creates a catalog client with a request timeout.
func NewHTTPProductCatalog(baseURL string) *HTTPProductCatalog {
	return &HTTPProductCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPProductCatalog) GetProduct(ctx context.Context, productID string) (*Product, error) {
	url := fmt.Sprintf("%s/products/internal/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	var prod Product
	if err := json.NewDecoder(resp.Body).Decode(&prod); err != nil {
		return nil, err
	}
	return &prod, nil
}
