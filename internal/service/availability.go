package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/internal/repository"
)

// Availability reasons reported to the client.
const (
	ReasonNoStoreInfo    = "No store information"
	ReasonStoreUnknown   = "Store not in catalog"
	ReasonNotVerified    = "Availability could not be verified"
	ReasonCityRequired   = "City required to confirm delivery"
	reasonNoCountry      = "%s does not ship to %s"
	reasonCityNotServed  = "%s does not deliver to %s"
	reasonShipsToCountry = "Ships to %s"
)

// AvailabilityChecker annotates staged items with whether their store
// delivers to a country and city. The verdict is advisory only.
type AvailabilityChecker struct {
	stores repository.StoreRepository
	logger *slog.Logger
}

// NewAvailabilityChecker creates a new availability checker.
func NewAvailabilityChecker(stores repository.StoreRepository, logger *slog.Logger) *AvailabilityChecker {
	return &AvailabilityChecker{stores: stores, logger: logger}
}

type storeLookup struct {
	store *domain.Store
	rule  *domain.ShippingRule
	err   error
}

// Check returns one verdict per item, in input order. Lookups are cached
// for the duration of the call only.
func (c *AvailabilityChecker) Check(ctx context.Context, items []domain.ImportItem, countryCode, city string) []domain.ItemAvailability {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	city = strings.TrimSpace(city)

	cache := make(map[string]storeLookup)
	out := make([]domain.ItemAvailability, 0, len(items))
	for _, it := range items {
		d := itemDomain(it)
		v := domain.ItemAvailability{TempID: it.TempID, SourceDomain: d}
		if d == "" {
			v.Available, v.Reason = true, ReasonNoStoreInfo
			out = append(out, v)
			continue
		}

		l, ok := cache[d]
		if !ok {
			l = c.lookup(ctx, d, countryCode)
			cache[d] = l
		}
		v.Available, v.Reason = verdict(l, countryCode, city)
		out = append(out, v)
	}
	return out
}

func (c *AvailabilityChecker) lookup(ctx context.Context, sourceDomain, countryCode string) storeLookup {
	store, err := c.stores.GetByDomain(ctx, sourceDomain)
	if err != nil {
		c.logger.WarnContext(ctx, "store lookup failed",
			slog.String("source_domain", sourceDomain),
			slog.String("error", err.Error()),
		)
		return storeLookup{err: err}
	}
	if store == nil || !store.ShipsToCountry(countryCode) {
		return storeLookup{store: store}
	}

	rule, err := c.stores.GetShippingRule(ctx, store.ID, countryCode)
	if err != nil {
		c.logger.WarnContext(ctx, "shipping rule lookup failed",
			slog.String("store_id", store.ID),
			slog.String("country_code", countryCode),
			slog.String("error", err.Error()),
		)
		return storeLookup{store: store, err: err}
	}
	return storeLookup{store: store, rule: rule}
}

func verdict(l storeLookup, countryCode, city string) (bool, string) {
	switch {
	case l.err != nil:
		return true, ReasonNotVerified
	case l.store == nil:
		return true, ReasonStoreUnknown
	case !l.store.ShipsToCountry(countryCode):
		return false, fmt.Sprintf(reasonNoCountry, l.store.Name, countryCode)
	}

	if l.rule != nil {
		if !l.rule.ShipsToCountry {
			return false, fmt.Sprintf(reasonNoCountry, l.store.Name, countryCode)
		}
		if l.rule.RestrictsCities() {
			if city == "" {
				return false, ReasonCityRequired
			}
			if !l.rule.ServesCity(city) {
				return false, fmt.Sprintf(reasonCityNotServed, l.store.Name, city)
			}
		}
	}
	if l.store.RequiresCity && city == "" {
		return false, ReasonCityRequired
	}
	return true, fmt.Sprintf(reasonShipsToCountry, countryCode)
}
