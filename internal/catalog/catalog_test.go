package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
)

// ---------------------------------------------------------------------------
// Mock writer
// ---------------------------------------------------------------------------

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) UpsertStore(ctx context.Context, s *domain.Store) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockWriter) UpsertShippingRule(ctx context.Context, rule *domain.ShippingRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Stores)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
stores:
  - domain: WWW.Shop.Example
    name: " Shop "
    countriesSupported: [us, gb]
    requiresCity: true
    shipping:
      - country: us
        shipsToCity: false
        cityWhitelist: [Austin]
`))
	require.NoError(t, err)
	require.Len(t, c.Stores, 1)

	store := c.Stores[0].Store()
	assert.Equal(t, "shop.example", store.Domain)
	assert.Equal(t, "Shop", store.Name)
	assert.Equal(t, []string{"US", "GB"}, store.CountriesSupported)
	assert.True(t, store.RequiresCity)

	rule := c.Stores[0].Shipping[0].Rule("store-1")
	assert.Equal(t, "store-1", rule.StoreID)
	assert.Equal(t, "US", rule.CountryCode)
	assert.True(t, rule.ShipsToCountry)
	assert.False(t, rule.ShipsToCity)
	assert.Equal(t, []string{"Austin"}, rule.CityWhitelist)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "malformed", doc: "stores: [", wantErr: "decode catalog"},
		{name: "empty", doc: "stores: []", wantErr: "no stores"},
		{name: "no domain", doc: "stores: [{name: A}]", wantErr: "domain is required"},
		{name: "no name", doc: "stores: [{domain: a.com}]", wantErr: "name is required"},
		{
			name:    "duplicate domain",
			doc:     "stores: [{domain: a.com, name: A}, {domain: A.com, name: B}]",
			wantErr: "duplicate domain a.com",
		},
		{
			name:    "bad country",
			doc:     "stores: [{domain: a.com, name: A, countriesSupported: [USA]}]",
			wantErr: `invalid country "USA"`,
		},
		{
			name:    "duplicate rule",
			doc:     "stores: [{domain: a.com, name: A, shipping: [{country: us}, {country: US}]}]",
			wantErr: "duplicate country US",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

func testCatalog() *Catalog {
	return &Catalog{Stores: []StoreEntry{
		{Domain: "a.com", Name: "A", Shipping: []RuleEntry{{Country: "us"}, {Country: "gb"}}},
		{Domain: "b.com", Name: "B"},
	}}
}

func TestSeeder_Seed(t *testing.T) {
	w := new(mockWriter)
	w.On("UpsertStore", mock.Anything, mock.MatchedBy(func(s *domain.Store) bool { return s.Domain == "a.com" })).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Store).ID = "id-a" }).
		Return(nil).Once()
	w.On("UpsertStore", mock.Anything, mock.MatchedBy(func(s *domain.Store) bool { return s.Domain == "b.com" })).
		Return(nil).Once()
	w.On("UpsertShippingRule", mock.Anything, mock.MatchedBy(func(r *domain.ShippingRule) bool {
		return r.StoreID == "id-a"
	})).Return(nil).Twice()

	res, err := NewSeeder(w, logger.Discard()).Seed(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Stores: 2, Rules: 2}, res)
	w.AssertExpectations(t)
}

func TestSeeder_Seed_StopsOnError(t *testing.T) {
	w := new(mockWriter)
	w.On("UpsertStore", mock.Anything, mock.Anything).Return(nil).Once()
	w.On("UpsertShippingRule", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	res, err := NewSeeder(w, logger.Discard()).Seed(context.Background(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed a.com shipping rule")
	assert.Equal(t, SeedResult{Stores: 1}, res)
	w.AssertNotCalled(t, "UpsertStore", mock.Anything, mock.MatchedBy(func(s *domain.Store) bool {
		return s.Domain == "b.com"
	}))
}
