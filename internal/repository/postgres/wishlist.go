package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/pkg/database"
	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// GetOwned retrieves a wishlist by ID, scoped to its owner.
func (r *WishlistRepository) GetOwned(ctx context.Context, id, userID string) (_ *domain.Wishlist, err error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM wishlists
		WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetOwnedWishlist", query)
	defer func() { end(err) }()

	var w domain.Wishlist
	err = r.db.QueryRow(ctx, query, id, userID).Scan(
		&w.ID, &w.UserID, &w.Name, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsPgError(err, database.InvalidTextRepresentation) {
			return nil, apperrors.NotFound("wishlist", id)
		}
		return nil, fmt.Errorf("get wishlist %s: %w", id, err)
	}

	return &w, nil
}

// Create inserts a new wishlist.
func (r *WishlistRepository) Create(ctx context.Context, w *domain.Wishlist) (err error) {
	query := `
		INSERT INTO wishlists (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateWishlist", query)
	defer func() { end(err) }()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now

	if _, err = r.db.Exec(ctx, query, w.ID, w.UserID, w.Name, w.CreatedAt, w.UpdatedAt); err != nil {
		if database.IsPgError(err, database.UniqueViolation) {
			return apperrors.Conflict("wishlist already exists")
		}
		return fmt.Errorf("insert wishlist: %w", err)
	}

	return nil
}

// InsertItem inserts a single item into its wishlist.
func (r *WishlistRepository) InsertItem(ctx context.Context, item *domain.WishlistItem) (err error) {
	query := `
		INSERT INTO wishlist_items (
			id, wishlist_id, title, image_url, current_price, currency,
			original_url, source_domain, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "InsertWishlistItem", query)
	defer func() { end(err) }()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()

	_, err = r.db.Exec(ctx, query,
		item.ID,
		item.WishlistID,
		item.Title,
		item.ImageURL,
		item.CurrentPrice,
		item.Currency,
		item.OriginalURL,
		item.SourceDomain,
		item.Notes,
		item.CreatedAt,
	)
	if err != nil {
		if database.IsPgError(err, database.ForeignKeyViolation) {
			return apperrors.NotFound("wishlist", item.WishlistID)
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}

	return nil
}
