package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	db database.DBTX
}

// NewStoreRepository creates a new PostgreSQL-backed store catalog reader.
func NewStoreRepository(db database.DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

// GetByDomain finds the catalog store for sourceDomain. Subdomains match
// their registered parent ("smile.amazon.com" finds "amazon.com"); the
// longest registered domain wins.
func (r *StoreRepository) GetByDomain(ctx context.Context, sourceDomain string) (_ *domain.Store, err error) {
	candidates := domainCandidates(sourceDomain)
	if len(candidates) == 0 {
		return nil, nil
	}

	query, args, err := psql.
		Select("id", "domain", "name", "countries_supported", "requires_city").
		From("stores").
		Where(sq.Eq{"domain": candidates}).
		OrderBy("length(domain) DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build store query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "GetStoreByDomain", query)
	defer func() { end(err) }()

	var s domain.Store
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Domain, &s.Name, &s.CountriesSupported, &s.RequiresCity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store %s: %w", sourceDomain, err)
	}

	return &s, nil
}

// GetShippingRule returns the rule for storeID in countryCode, if any.
func (r *StoreRepository) GetShippingRule(ctx context.Context, storeID, countryCode string) (_ *domain.ShippingRule, err error) {
	query, args, err := psql.
		Select("id", "store_id", "country_code", "ships_to_country", "ships_to_city",
			"city_whitelist", "city_blacklist").
		From("shipping_rules").
		Where(sq.Eq{"store_id": storeID, "country_code": strings.ToUpper(countryCode)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build shipping rule query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "GetShippingRule", query)
	defer func() { end(err) }()

	var rule domain.ShippingRule
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&rule.ID, &rule.StoreID, &rule.CountryCode, &rule.ShipsToCountry, &rule.ShipsToCity,
		&rule.CityWhitelist, &rule.CityBlacklist,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipping rule for store %s in %s: %w", storeID, countryCode, err)
	}

	return &rule, nil
}

// domainCandidates lists host and its parents down to two labels.
func domainCandidates(host string) []string {
	host = strings.Trim(strings.ToLower(strings.TrimSpace(host)), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return nil
	}
	out := []string{host}
	for strings.Count(host, ".") > 1 {
		_, host, _ = strings.Cut(host, ".")
		out = append(out, host)
	}
	return out
}

// UpsertStore inserts s or updates the row with the same domain, and sets
// s.ID to the stored id.
func (r *StoreRepository) UpsertStore(ctx context.Context, s *domain.Store) (err error) {
	query, args, err := psql.
		Insert("stores").
		Columns("id", "domain", "name", "countries_supported", "requires_city").
		Values(uuid.New().String(), strings.ToLower(s.Domain), s.Name, nonNil(s.CountriesSupported), s.RequiresCity).
		Suffix("ON CONFLICT (domain) DO UPDATE SET name = EXCLUDED.name, " +
			"countries_supported = EXCLUDED.countries_supported, " +
			"requires_city = EXCLUDED.requires_city RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build store upsert: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "UpsertStore", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, args...).Scan(&s.ID); err != nil {
		return fmt.Errorf("upsert store %s: %w", s.Domain, err)
	}
	return nil
}

// UpsertShippingRule inserts rule or replaces the existing rule for the
// same store and country.
func (r *StoreRepository) UpsertShippingRule(ctx context.Context, rule *domain.ShippingRule) (err error) {
	query, args, err := psql.
		Insert("shipping_rules").
		Columns("id", "store_id", "country_code", "ships_to_country", "ships_to_city",
			"city_whitelist", "city_blacklist").
		Values(uuid.New().String(), rule.StoreID, strings.ToUpper(rule.CountryCode), rule.ShipsToCountry,
			rule.ShipsToCity, nonNil(rule.CityWhitelist), nonNil(rule.CityBlacklist)).
		Suffix("ON CONFLICT (store_id, country_code) DO UPDATE SET " +
			"ships_to_country = EXCLUDED.ships_to_country, ships_to_city = EXCLUDED.ships_to_city, " +
			"city_whitelist = EXCLUDED.city_whitelist, city_blacklist = EXCLUDED.city_blacklist RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build shipping rule upsert: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "UpsertShippingRule", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, args...).Scan(&rule.ID); err != nil {
		return fmt.Errorf("upsert shipping rule for store %s in %s: %w", rule.StoreID, rule.CountryCode, err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
