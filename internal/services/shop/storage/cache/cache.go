// Package cache wraps a storefront store with a read-through product cache.
package cache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/louisbranch/storefront/internal/services/shop/catalog"
	"github.com/louisbranch/storefront/internal/services/shop/order"
	"github.com/louisbranch/storefront/internal/services/shop/storage"
)

// DefaultTTL bounds how stale a cached product page may be.
const DefaultTTL = 30 * time.Second

// Store caches product-by-slug reads. Writes that change product data or
// stock clear the cache.
type Store struct {
	storage.Store
	products *ccache.Cache[catalog.Product]
	ttl      time.Duration
}

// New wraps next. A non-positive ttl uses DefaultTTL.
func New(next storage.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		Store:    next,
		products: ccache.New(ccache.Configure[catalog.Product]().MaxSize(1000).ItemsToPrune(50)),
		ttl:      ttl,
	}
}

// GetProductBySlug reads through the cache. Errors are not cached.
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	item, err := s.products.Fetch(slug, s.ttl, func() (catalog.Product, error) {
		return s.Store.GetProductBySlug(ctx, slug)
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return item.Value(), nil
}

// CreateProduct stores p and clears cached products.
func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) error {
	defer s.products.Clear()
	return s.Store.CreateProduct(ctx, p)
}

// UpdateProduct saves p and clears cached products.
func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) error {
	defer s.products.Clear()
	return s.Store.UpdateProduct(ctx, p)
}

// DeleteProduct removes or deactivates a product and clears cached products.
func (s *Store) DeleteProduct(ctx context.Context, productID string, now time.Time) (bool, error) {
	defer s.products.Clear()
	return s.Store.DeleteProduct(ctx, productID, now)
}

// SetProductImage records a new image key and clears cached products.
func (s *Store) SetProductImage(ctx context.Context, productID string, key string, now time.Time) (string, error) {
	defer s.products.Clear()
	return s.Store.SetProductImage(ctx, productID, key, now)
}

// Checkout places an order and clears cached products, whose stock changed.
func (s *Store) Checkout(ctx context.Context, input storage.CheckoutInput) (order.Order, error) {
	defer s.products.Clear()
	return s.Store.Checkout(ctx, input)
}

// TransitionOrder moves an order and clears cached products, since a cancel restocks them.
func (s *Store) TransitionOrder(ctx context.Context, orderID string, userID string, to order.Status, now time.Time) (order.Order, error) {
	defer s.products.Clear()
	return s.Store.TransitionOrder(ctx, orderID, userID, to, now)
}

// Close stops the cache and closes the wrapped store.
func (s *Store) Close() error {
	s.products.Stop()
	return s.Store.Close()
}
