package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/internal/event"
)

// --- Mock Repositories ---

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) GetOwned(ctx context.Context, id, userID string) (*domain.Wishlist, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wishlist), args.Error(1)
}

func (m *mockWishlistRepository) Create(ctx context.Context, w *domain.Wishlist) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *mockWishlistRepository) InsertItem(ctx context.Context, item *domain.WishlistItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type mockStoreRepository struct {
	mock.Mock
}

func (m *mockStoreRepository) GetByDomain(ctx context.Context, sourceDomain string) (*domain.Store, error) {
	args := m.Called(ctx, sourceDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) GetShippingRule(ctx context.Context, storeID, countryCode string) (*domain.ShippingRule, error) {
	args := m.Called(ctx, storeID, countryCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingRule), args.Error(1)
}

// --- Mock Collaborators ---

type mockProposer struct {
	mock.Mock
}

func (m *mockProposer) ProposeDuplicates(ctx context.Context, items []domain.ImportItem) ([]domain.DuplicateGroup, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DuplicateGroup), args.Error(1)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, mode domain.GroupMode, items []domain.ImportItem) (map[string]string, error) {
	args := m.Called(ctx, mode, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) string {
	return m.Called(ctx, rawURL).String(0)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractWishlistItems(ctx context.Context, rawHTML, pageURL string) ([]domain.ImportedItem, error) {
	args := m.Called(ctx, rawHTML, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ImportedItem), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishItemsImported(ctx context.Context, data event.ItemsImportedData) error {
	return m.Called(ctx, data).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func ptr[T any](v T) *T { return &v }

func stagedItem(tempID, title, sourceDomain string, price *float64) domain.ImportItem {
	return domain.ImportItem{
		TempID:       tempID,
		Title:        title,
		Price:        price,
		ProductURL:   "https://" + sourceDomain + "/p/" + tempID,
		SourceDomain: sourceDomain,
	}
}

func tempIDs(items []domain.ImportItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.TempID)
	}
	return ids
}
