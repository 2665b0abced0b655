package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{name: "number", in: 19.5, want: ptr(19.5)},
		{name: "int", in: 20, want: ptr(20.0)},
		{name: "dollar string", in: "$1,299.99", want: ptr(1299.99)},
		{name: "european string", in: "1.299,99 €", want: ptr(1299.99)},
		{name: "decimal comma", in: "12,50", want: ptr(12.5)},
		{name: "thousands comma", in: "1,299", want: ptr(1299.0)},
		{name: "range takes low end", in: "$19.99 - $29.99", want: ptr(19.99)},
		{name: "code prefix", in: "USD 45", want: ptr(45.0)},
		{name: "rounds", in: 10.005001, want: ptr(10.01)},
		{name: "negative", in: -3.0, want: nil},
		{name: "no digits", in: "Free", want: nil},
		{name: "nil", in: nil, want: nil},
		{name: "bool", in: true, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := map[string]*string{
		"usd": ptr("USD"),
		"EUR": ptr("EUR"),
		"$":   ptr("USD"),
		"€":   ptr("EUR"),
		"£":   ptr("GBP"),
		"¥":   ptr("JPY"),
		"₹":   ptr("INR"),
		"US$": ptr("USD"),
		"C$":  ptr("CAD"),
		"":    nil,
		"??":  nil,
		"ab1": nil,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCurrency(in), in)
	}
}

func TestNormalizeItems(t *testing.T) {
	records := []map[string]any{
		{
			"title":      "  Desk\n Lamp ",
			"imageUrl":   "/img/lamp.jpg",
			"price":      "$39.99",
			"productUrl": "/p/lamp?color=white",
		},
		{
			"name":     "Mug",
			"image":    []any{"https://cdn.example.com/mug.png"},
			"price":    12.0,
			"currency": "eur",
			"url":      "https://other.example.com/mug",
		},
		{
			"title":    "Gift card",
			"imageUrl": "data:image/png;base64,AAAA",
			"price":    nil,
			"currency": "USD",
		},
		{"title": "", "price": 5.0},
		{"imageUrl": "/img/x.jpg"},
	}

	items := NormalizeItems(records, "https://shop.example.com/lists/42")
	require.Len(t, items, 3)

	lamp := items[0]
	assert.Equal(t, "Desk Lamp", lamp.Title)
	require.NotNil(t, lamp.ImageURL)
	assert.Equal(t, "https://shop.example.com/img/lamp.jpg", *lamp.ImageURL)
	require.NotNil(t, lamp.Price)
	assert.InDelta(t, 39.99, *lamp.Price, 0.0001)
	require.NotNil(t, lamp.Currency)
	assert.Equal(t, "USD", *lamp.Currency)
	assert.Equal(t, "https://shop.example.com/p/lamp?color=white", lamp.ProductURL)

	mug := items[1]
	assert.Equal(t, "https://cdn.example.com/mug.png", *mug.ImageURL)
	assert.Equal(t, "EUR", *mug.Currency)
	assert.Equal(t, "https://other.example.com/mug", mug.ProductURL)

	card := items[2]
	assert.Nil(t, card.ImageURL)
	assert.Nil(t, card.Price)
	assert.Nil(t, card.Currency, "currency without a price is dropped")
	assert.Equal(t, "https://shop.example.com/lists/42", card.ProductURL)
}

func TestProductRecord(t *testing.T) {
	rec := productRecord(map[string]any{
		"name":   "Chair",
		"image":  map[string]any{"url": "/chair.jpg"},
		"offers": map[string]any{"lowPrice": "80", "priceCurrency": "GBP", "url": "/p/chair"},
	})

	items := NormalizeItems([]map[string]any{rec}, "https://shop.example.com/")
	require.Len(t, items, 1)
	assert.Equal(t, "Chair", items[0].Title)
	assert.Equal(t, "https://shop.example.com/chair.jpg", *items[0].ImageURL)
	assert.InDelta(t, 80.0, *items[0].Price, 0.0001)
	assert.Equal(t, "GBP", *items[0].Currency)
	assert.Equal(t, "https://shop.example.com/p/chair", items[0].ProductURL)
}

func ptr[T any](v T) *T { return &v }
