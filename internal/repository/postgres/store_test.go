package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/pkg/database"
)

func setupStoreRepo(t *testing.T) (*StoreRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStoreRepository(mock), mock
}

func TestStoreRepository_GetByDomain(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`SELECT id, domain, name, countries_supported, requires_city FROM stores WHERE domain IN \(\$1,\$2\) ORDER BY length\(domain\) DESC LIMIT 1`).
		WithArgs("smile.amazon.com", "amazon.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "domain", "name", "countries_supported", "requires_city"}).
			AddRow("store-1", "amazon.com", "Amazon", []string{"US", "GB"}, false))

	got, err := repo.GetByDomain(context.Background(), "smile.amazon.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Amazon", got.Name)
	assert.Equal(t, []string{"US", "GB"}, got.CountriesSupported)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_GetByDomain_NotInCatalog(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`FROM stores`).
		WithArgs("unknown.example").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByDomain(context.Background(), "unknown.example")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreRepository_GetByDomain_Empty(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	got, err := repo.GetByDomain(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_GetShippingRule(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`FROM shipping_rules WHERE country_code = \$1 AND store_id = \$2`).
		WithArgs("AE", "store-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "store_id", "country_code", "ships_to_country", "ships_to_city", "city_whitelist", "city_blacklist",
		}).AddRow("rule-1", "store-1", "AE", true, false, []string{"Dubai"}, []string{}))

	rule, err := repo.GetShippingRule(context.Background(), "store-1", "ae")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.False(t, rule.ShipsToCity)
	assert.Equal(t, []string{"Dubai"}, rule.CityWhitelist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_GetShippingRule_Missing(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`FROM shipping_rules`).WillReturnError(pgx.ErrNoRows)

	rule, err := repo.GetShippingRule(context.Background(), "store-1", "US")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestStoreRepository_GetShippingRule_Error(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`FROM shipping_rules`).WillReturnError(errors.New("timeout"))

	_, err := repo.GetShippingRule(context.Background(), "store-1", "US")
	assert.Error(t, err)
}

func TestDomainCandidates(t *testing.T) {
	assert.Equal(t, []string{"shop.example.co.uk", "example.co.uk", "co.uk"}, domainCandidates("shop.example.co.uk"))
	assert.Equal(t, []string{"amazon.com"}, domainCandidates("WWW.Amazon.com"))
	assert.Equal(t, []string{"localhost"}, domainCandidates("localhost"))
	assert.Nil(t, domainCandidates(""))
}

func TestStoreRepository_UpsertStore(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`INSERT INTO stores \(id,domain,name,countries_supported,requires_city\) VALUES \(\$1,\$2,\$3,\$4,\$5\) ON CONFLICT \(domain\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "noon.com", "Noon", []string{"AE", "SA"}, true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("store-9"))

	s := &domain.Store{Domain: "Noon.com", Name: "Noon", CountriesSupported: []string{"AE", "SA"}, RequiresCity: true}
	require.NoError(t, repo.UpsertStore(context.Background(), s))
	assert.Equal(t, "store-9", s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_UpsertStore_NilCountries(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`INSERT INTO stores`).
		WithArgs(pgxmock.AnyArg(), "etsy.com", "Etsy", []string{}, false).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("store-2"))

	require.NoError(t, repo.UpsertStore(context.Background(), &domain.Store{Domain: "etsy.com", Name: "Etsy"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_UpsertShippingRule(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`INSERT INTO shipping_rules .* ON CONFLICT \(store_id, country_code\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "store-9", "AE", true, false, []string{"Dubai"}, []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("rule-3"))

	rule := &domain.ShippingRule{StoreID: "store-9", CountryCode: "ae", ShipsToCountry: true, CityWhitelist: []string{"Dubai"}}
	require.NoError(t, repo.UpsertShippingRule(context.Background(), rule))
	assert.Equal(t, "rule-3", rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepository_UpsertShippingRule_Error(t *testing.T) {
	repo, mock := setupStoreRepo(t)

	mock.ExpectQuery(`INSERT INTO shipping_rules`).WillReturnError(errors.New("fk violation"))

	err := repo.UpsertShippingRule(context.Background(), &domain.ShippingRule{StoreID: "missing", CountryCode: "US"})
	assert.ErrorContains(t, err, "upsert shipping rule for store missing in US")
}
