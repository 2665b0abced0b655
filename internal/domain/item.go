package domain

import "strings"

// ImportedItem is a product extracted from a store wishlist page.
type ImportedItem struct {
	Title      string   `json:"title"`
	ImageURL   *string  `json:"imageUrl"`
	Price      *float64 `json:"price"`
	Currency   *string  `json:"currency"`
	ProductURL string   `json:"productUrl"`
}

// ImportItem is an item staged on the client for an import. TempID is
// assigned by the client and only unique within one import session.
type ImportItem struct {
	TempID       string   `json:"tempId" validate:"max=128"`
	Title        string   `json:"title"`
	ImageURL     *string  `json:"imageUrl,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	ProductURL   string   `json:"productUrl,omitempty"`
	SourceDomain string   `json:"sourceDomain,omitempty"`
}

// ToWishlistItem maps a staged item onto a new row in wishlistID.
func (i ImportItem) ToWishlistItem(wishlistID string) *WishlistItem {
	return &WishlistItem{
		WishlistID:   wishlistID,
		Title:        strings.TrimSpace(i.Title),
		ImageURL:     nonEmpty(i.ImageURL),
		CurrentPrice: i.Price,
		Currency:     nonEmpty(i.Currency),
		OriginalURL:  i.ProductURL,
		SourceDomain: i.SourceDomain,
	}
}

// DisplayTitle is the title used in warnings.
func (i ImportItem) DisplayTitle() string {
	if t := strings.TrimSpace(i.Title); t != "" {
		return t
	}
	return "Untitled item"
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
