package repository

import (
	"context"
	"time"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

// WishlistRepository defines persistence for wishlists and their items.
type WishlistRepository interface {
	// GetOwned returns the wishlist with the given ID if it belongs to
	// userID. Missing and foreign wishlists both yield a not found error.
	GetOwned(ctx context.Context, id, userID string) (*domain.Wishlist, error)

	// Create inserts a new wishlist, assigning its ID and timestamps.
	Create(ctx context.Context, w *domain.Wishlist) error

	// InsertItem inserts one item, assigning its ID and CreatedAt.
	InsertItem(ctx context.Context, item *domain.WishlistItem) error
}

// StoreRepository reads the store catalog and shipping rules.
type StoreRepository interface {
	// GetByDomain returns the store for a source domain, or nil when the
	// domain is not in the catalog.
	GetByDomain(ctx context.Context, sourceDomain string) (*domain.Store, error)

	// GetShippingRule returns the rule for a store and country, or nil
	// when none exists.
	GetShippingRule(ctx context.Context, storeID, countryCode string) (*domain.ShippingRule, error)
}

// PageCache stores fetched page bodies.
type PageCache interface {
	// Get returns the cached body and whether it was present.
	Get(ctx context.Context, url string) (string, bool, error)

	Set(ctx context.Context, url, body string, ttl time.Duration) error
}
