package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits enforced before an item reaches the database.
const (
	MaxTitleLength = 500
	MaxURLLength   = 2048
	MaxNameLength  = 120
)

// ErrInvalidItem marks an item rejected by Validate.
var ErrInvalidItem = errors.New("invalid wishlist item")

// Wishlist is a named collection of items owned by one user.
type Wishlist struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WishlistItem is a persisted item.
type WishlistItem struct {
	ID           string    `json:"id"`
	WishlistID   string    `json:"wishlistId"`
	Title        string    `json:"title"`
	ImageURL     *string   `json:"imageUrl"`
	CurrentPrice *float64  `json:"currentPrice"`
	Currency     *string   `json:"currency"`
	OriginalURL  string    `json:"originalUrl"`
	SourceDomain string    `json:"sourceDomain"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate reports why the item cannot be stored, wrapping ErrInvalidItem.
func (i *WishlistItem) Validate() error {
	switch {
	case strings.TrimSpace(i.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	case utf8.RuneCountInString(i.Title) > MaxTitleLength:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidItem, MaxTitleLength)
	case len(i.OriginalURL) > MaxURLLength:
		return fmt.Errorf("%w: url exceeds %d characters", ErrInvalidItem, MaxURLLength)
	case i.CurrentPrice != nil && *i.CurrentPrice < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	case i.Currency != nil && len(*i.Currency) != 3:
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidItem)
	}
	return nil
}

// ValidateWishlistName checks a user-supplied wishlist name.
func ValidateWishlistName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("wishlist name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("wishlist name exceeds %d characters", MaxNameLength)
	}
	return nil
}
