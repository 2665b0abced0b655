package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

func TestCheck_Verdicts(t *testing.T) {
	amazon := &domain.Store{ID: "s-amazon", Domain: "amazon.com", Name: "Amazon", CountriesSupported: []string{"US", "DE"}}
	noon := &domain.Store{ID: "s-noon", Domain: "noon.com", Name: "Noon", RequiresCity: true}
	zara := &domain.Store{ID: "s-zara", Domain: "zara.com", Name: "Zara"}

	tests := []struct {
		name      string
		item      domain.ImportItem
		country   string
		city      string
		setup     func(*mockStoreRepository)
		available bool
		reason    string
	}{
		{
			name:      "no source domain",
			item:      domain.ImportItem{TempID: "t1", Title: "Gift"},
			country:   "US",
			setup:     func(*mockStoreRepository) {},
			available: true,
			reason:    ReasonNoStoreInfo,
		},
		{
			name:    "store not in catalog",
			item:    stagedItem("t1", "Gift", "tiny-shop.example", nil),
			country: "US",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "tiny-shop.example").Return(nil, nil)
			},
			available: true,
			reason:    ReasonStoreUnknown,
		},
		{
			name:    "country not supported",
			item:    stagedItem("t1", "Gift", "amazon.com", nil),
			country: "fr",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "amazon.com").Return(amazon, nil)
			},
			available: false,
			reason:    "Amazon does not ship to FR",
		},
		{
			name:    "supported country without rule",
			item:    stagedItem("t1", "Gift", "amazon.com", nil),
			country: "US",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "amazon.com").Return(amazon, nil)
				r.On("GetShippingRule", mock.Anything, "s-amazon", "US").Return(nil, nil)
			},
			available: true,
			reason:    "Ships to US",
		},
		{
			name:    "rule blocks country",
			item:    stagedItem("t1", "Gift", "amazon.com", nil),
			country: "DE",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "amazon.com").Return(amazon, nil)
				r.On("GetShippingRule", mock.Anything, "s-amazon", "DE").
					Return(&domain.ShippingRule{ShipsToCountry: false, ShipsToCity: true}, nil)
			},
			available: false,
			reason:    "Amazon does not ship to DE",
		},
		{
			name:    "whitelisted city",
			item:    stagedItem("t1", "Dress", "zara.com", nil),
			country: "AE",
			city:    "dubai",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "zara.com").Return(zara, nil)
				r.On("GetShippingRule", mock.Anything, "s-zara", "AE").
					Return(&domain.ShippingRule{ShipsToCountry: true, CityWhitelist: []string{"Dubai", "Abu Dhabi"}}, nil)
			},
			available: true,
			reason:    "Ships to AE",
		},
		{
			name:    "city outside whitelist",
			item:    stagedItem("t1", "Dress", "zara.com", nil),
			country: "AE",
			city:    "Fujairah",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "zara.com").Return(zara, nil)
				r.On("GetShippingRule", mock.Anything, "s-zara", "AE").
					Return(&domain.ShippingRule{ShipsToCountry: true, CityWhitelist: []string{"Dubai"}}, nil)
			},
			available: false,
			reason:    "Zara does not deliver to Fujairah",
		},
		{
			name:    "blacklisted city",
			item:    stagedItem("t1", "Dress", "zara.com", nil),
			country: "AE",
			city:    "Sharjah",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "zara.com").Return(zara, nil)
				r.On("GetShippingRule", mock.Anything, "s-zara", "AE").
					Return(&domain.ShippingRule{ShipsToCountry: true, ShipsToCity: true, CityBlacklist: []string{"sharjah"}}, nil)
			},
			available: false,
			reason:    "Zara does not deliver to Sharjah",
		},
		{
			name:    "city restricted rule without city",
			item:    stagedItem("t1", "Dress", "zara.com", nil),
			country: "AE",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "zara.com").Return(zara, nil)
				r.On("GetShippingRule", mock.Anything, "s-zara", "AE").
					Return(&domain.ShippingRule{ShipsToCountry: true, CityWhitelist: []string{"Dubai"}}, nil)
			},
			available: false,
			reason:    ReasonCityRequired,
		},
		{
			name:    "store requires city",
			item:    stagedItem("t1", "Phone", "noon.com", nil),
			country: "SA",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "noon.com").Return(noon, nil)
				r.On("GetShippingRule", mock.Anything, "s-noon", "SA").Return(nil, nil)
			},
			available: false,
			reason:    ReasonCityRequired,
		},
		{
			name:    "store lookup error",
			item:    stagedItem("t1", "Gift", "amazon.com", nil),
			country: "US",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "amazon.com").Return(nil, errors.New("connection refused"))
			},
			available: true,
			reason:    ReasonNotVerified,
		},
		{
			name:    "rule lookup error",
			item:    stagedItem("t1", "Gift", "amazon.com", nil),
			country: "US",
			setup: func(r *mockStoreRepository) {
				r.On("GetByDomain", mock.Anything, "amazon.com").Return(amazon, nil)
				r.On("GetShippingRule", mock.Anything, "s-amazon", "US").Return(nil, errors.New("timeout"))
			},
			available: true,
			reason:    ReasonNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockStoreRepository)
			tt.setup(repo)
			checker := NewAvailabilityChecker(repo, newTestLogger())

			got := checker.Check(context.Background(), []domain.ImportItem{tt.item}, tt.country, tt.city)

			require.Len(t, got, 1)
			assert.Equal(t, tt.item.TempID, got[0].TempID)
			assert.Equal(t, tt.item.SourceDomain, got[0].SourceDomain)
			assert.Equal(t, tt.available, got[0].Available)
			assert.Equal(t, tt.reason, got[0].Reason)
			repo.AssertExpectations(t)
		})
	}
}

func TestCheck_MemoizesStoreLookups(t *testing.T) {
	items := []domain.ImportItem{
		stagedItem("t1", "A", "amazon.com", nil),
		stagedItem("t2", "B", "www.amazon.com", nil),
		stagedItem("t3", "C", "amazon.com", nil),
	}

	repo := new(mockStoreRepository)
	repo.On("GetByDomain", mock.Anything, "amazon.com").Return(nil, nil).Once()
	checker := NewAvailabilityChecker(repo, newTestLogger())

	got := checker.Check(context.Background(), items, "US", "")

	require.Len(t, got, 3)
	for i, v := range got {
		assert.Equal(t, items[i].TempID, v.TempID)
		assert.Equal(t, "amazon.com", v.SourceDomain)
		assert.True(t, v.Available)
	}
	repo.AssertNumberOfCalls(t, "GetByDomain", 1)

	// A second call looks the store up again.
	repo.On("GetByDomain", mock.Anything, "amazon.com").Return(nil, nil).Once()
	checker.Check(context.Background(), items[:1], "US", "")
	repo.AssertNumberOfCalls(t, "GetByDomain", 2)
}

func TestCheck_SourceDomainFromProductURL(t *testing.T) {
	repo := new(mockStoreRepository)
	repo.On("GetByDomain", mock.Anything, "etsy.com").Return(nil, nil)
	checker := NewAvailabilityChecker(repo, newTestLogger())

	got := checker.Check(context.Background(), []domain.ImportItem{
		{TempID: "t1", Title: "Mug", ProductURL: "https://www.Etsy.com/listing/1"},
		{TempID: "t2", Title: "Card"},
	}, "US", "")

	assert.Equal(t, []domain.ItemAvailability{
		{TempID: "t1", SourceDomain: "etsy.com", Available: true, Reason: ReasonStoreUnknown},
		{TempID: "t2", SourceDomain: "", Available: true, Reason: ReasonNoStoreInfo},
	}, got)
}
