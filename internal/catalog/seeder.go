package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

// Writer persists catalog rows.
type Writer interface {
	UpsertStore(ctx context.Context, s *domain.Store) error
	UpsertShippingRule(ctx context.Context, rule *domain.ShippingRule) error
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Stores int
	Rules  int
}

// Seeder writes a Catalog through a Writer.
type Seeder struct {
	writer Writer
	logger *slog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(writer Writer, logger *slog.Logger) *Seeder {
	return &Seeder{writer: writer, logger: logger}
}

// Seed upserts every store and its rules. It stops at the first failure;
// rows written before it remain.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) (SeedResult, error) {
	var res SeedResult
	for _, entry := range c.Stores {
		store := entry.Store()
		if err := s.writer.UpsertStore(ctx, store); err != nil {
			return res, fmt.Errorf("seed store %s: %w", store.Domain, err)
		}
		res.Stores++

		for _, r := range entry.Shipping {
			if err := s.writer.UpsertShippingRule(ctx, r.Rule(store.ID)); err != nil {
				return res, fmt.Errorf("seed %s shipping rule: %w", store.Domain, err)
			}
			res.Rules++
		}

		s.logger.DebugContext(ctx, "store seeded",
			slog.String("domain", store.Domain),
			slog.String("store_id", store.ID),
			slog.Int("rules", len(entry.Shipping)),
		)
	}

	s.logger.InfoContext(ctx, "catalog seeded",
		slog.Int("stores", res.Stores),
		slog.Int("shipping_rules", res.Rules),
	)
	return res, nil
}
