package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
)

func mixedItems() []domain.ImportItem {
	return []domain.ImportItem{
		stagedItem("t1", "LEGO Star Wars X-Wing", "amazon.com", ptr(49.99)),
		stagedItem("t2", "Kindle Paperwhite", "amazon.com", ptr(139.99)),
		stagedItem("t3", "Ceramic Coffee Mug", "etsy.com", ptr(24.0)),
		{TempID: "t4", Title: "Mystery gift"},
		stagedItem("t5", "Espresso machine", "williams-sonoma.com", ptr(799.0)),
	}
}

// assertPartition checks that every input tempId lands in exactly one group.
func assertPartition(t *testing.T, items []domain.ImportItem, groups []domain.AutoGroupResult) {
	t.Helper()

	var got []string
	for _, g := range groups {
		assert.NotEmpty(t, g.MemberTempIDs, "group %q is empty", g.GroupName)
		got = append(got, g.MemberTempIDs...)
	}

	want := tempIDs(uniqueByTempID(items))
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

// ---------------------------------------------------------------------------
// Store and price modes
// ---------------------------------------------------------------------------

func TestGroup_StoreMode(t *testing.T) {
	items := mixedItems()
	items = append(items, domain.ImportItem{TempID: "t6", Title: "Socks", ProductURL: "https://www.etsy.com/listing/1"})

	g := NewAutoGrouper(new(mockClassifier), newTestLogger())
	groups, mode, err := g.Group(context.Background(), items, domain.GroupByStore)

	require.NoError(t, err)
	assert.Equal(t, domain.GroupByStore, mode)
	require.Len(t, groups, 4)

	assert.Equal(t, "amazon.com", groups[0].GroupName)
	assert.Equal(t, []string{"t1", "t2"}, groups[0].MemberTempIDs)
	assert.Equal(t, domain.GroupConfidence, groups[0].Confidence)

	assert.Equal(t, "etsy.com", groups[1].GroupName)
	assert.Equal(t, []string{"t3", "t6"}, groups[1].MemberTempIDs)

	assert.Equal(t, domain.OtherStoresGroup, groups[2].GroupName)
	assert.Equal(t, []string{"t4"}, groups[2].MemberTempIDs)
	assert.Equal(t, domain.SingletonGroupConfidence, groups[2].Confidence)

	assert.Equal(t, "williams-sonoma.com", groups[3].GroupName)
	assertPartition(t, items, groups)
}

func TestGroup_PriceMode(t *testing.T) {
	items := []domain.ImportItem{
		stagedItem("t1", "Big", "a.com", ptr(300.0)),
		stagedItem("t2", "Thirty", "a.com", ptr(30.0)),
		stagedItem("t3", "Unknown", "a.com", nil),
		stagedItem("t4", "Cheap", "a.com", ptr(5.0)),
		stagedItem("t5", "Edge", "a.com", ptr(100.0)),
	}

	g := NewAutoGrouper(new(mockClassifier), newTestLogger())
	groups, _, err := g.Group(context.Background(), items, domain.GroupByPrice)

	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "Under $25", groups[0].GroupName)
	assert.Equal(t, []string{"t3", "t4"}, groups[0].MemberTempIDs)
	assert.Equal(t, "$25 - $50", groups[1].GroupName)
	assert.Equal(t, []string{"t2"}, groups[1].MemberTempIDs)
	assert.Equal(t, "$100 - $250", groups[2].GroupName)
	assert.Equal(t, []string{"t5"}, groups[2].MemberTempIDs)
	assert.Equal(t, "$250+", groups[3].GroupName)
	assertPartition(t, items, groups)
}

// ---------------------------------------------------------------------------
// Classified modes
// ---------------------------------------------------------------------------

func TestGroup_CategoryMode(t *testing.T) {
	items := mixedItems()

	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything, domain.GroupByCategory, items).Return(map[string]string{
		"t1":    "Toys",
		"t2":    "Electronics",
		"t3":    "Home",
		"t5":    "Home",
		"ghost": "Toys",
	}, nil)

	groups, _, err := NewAutoGrouper(classifier, newTestLogger()).Group(context.Background(), items, domain.GroupByCategory)

	require.NoError(t, err)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.GroupName)
	}
	assert.Equal(t, []string{"Toys", "Electronics", "Home", "Uncategorized"}, names)
	assert.Equal(t, []string{"t3", "t5"}, groups[2].MemberTempIDs)
	assert.Equal(t, []string{"t4"}, groups[3].MemberTempIDs)
	assertPartition(t, items, groups)
	classifier.AssertExpectations(t)
}

func TestGroup_ClassifierFailureUsesFallback(t *testing.T) {
	tests := []struct {
		mode     domain.GroupMode
		fallback string
	}{
		{domain.GroupByCategory, "Uncategorized"},
		{domain.GroupByPerson, "General/Self"},
		{domain.GroupByOccasion, "General"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			items := mixedItems()
			classifier := new(mockClassifier)
			classifier.On("Classify", mock.Anything, tt.mode, items).Return(nil, errors.New("boom"))

			groups, mode, err := NewAutoGrouper(classifier, newTestLogger()).Group(context.Background(), items, tt.mode)

			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
			require.Len(t, groups, 1)
			assert.Equal(t, tt.fallback, groups[0].GroupName)
			assertPartition(t, items, groups)
		})
	}
}

func TestGroup_KeywordClassifier(t *testing.T) {
	items := []domain.ImportItem{
		{TempID: "t1", Title: "LEGO Classic Bricks"},
		{TempID: "t2", Title: "Noise cancelling headphones"},
		{TempID: "t3", Title: "Something else"},
	}

	groups, _, err := NewAutoGrouper(NewKeywordClassifier(), newTestLogger()).Group(context.Background(), items, domain.GroupByCategory)

	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "Toys & Games", groups[0].GroupName)
	assert.Equal(t, "Electronics", groups[1].GroupName)
	assert.Equal(t, "Uncategorized", groups[2].GroupName)
}

// ---------------------------------------------------------------------------
// Mode selection and input handling
// ---------------------------------------------------------------------------

func TestGroup_DefaultMode(t *testing.T) {
	g := NewAutoGrouper(NewKeywordClassifier(), newTestLogger())

	_, mode, err := g.Group(context.Background(), mixedItems(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupByStore, mode)

	single := []domain.ImportItem{
		stagedItem("t1", "A", "amazon.com", nil),
		stagedItem("t2", "B", "www.amazon.com", nil),
		{TempID: "t3", Title: "C"},
	}
	_, mode, err = g.Group(context.Background(), single, "")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupByCategory, mode)
}

func TestGroup_InvalidMode(t *testing.T) {
	_, _, err := NewAutoGrouper(NewKeywordClassifier(), newTestLogger()).Group(context.Background(), mixedItems(), "color")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGroup_DuplicateTempIDsCollapsed(t *testing.T) {
	items := []domain.ImportItem{
		stagedItem("t1", "A", "a.com", nil),
		stagedItem("t1", "A again", "b.com", nil),
		stagedItem("t2", "B", "b.com", nil),
	}

	groups, _, err := NewAutoGrouper(NewKeywordClassifier(), newTestLogger()).Group(context.Background(), items, domain.GroupByStore)

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "a.com", groups[0].GroupName)
	assert.Equal(t, []string{"t2"}, groups[1].MemberTempIDs)
	assertPartition(t, items, groups)
}

func TestGroup_EmptyItems(t *testing.T) {
	groups, mode, err := NewAutoGrouper(NewKeywordClassifier(), newTestLogger()).Group(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, domain.GroupByCategory, mode)
	require.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestKeywordClassifier_Modes(t *testing.T) {
	items := []domain.ImportItem{
		{TempID: "t1", Title: "Baby onesie set"},
		{TempID: "t2", Title: "Best Dad Ever mug"},
		{TempID: "t3", Title: "Christmas ornament"},
	}
	c := NewKeywordClassifier()

	person, err := c.Classify(context.Background(), domain.GroupByPerson, items)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"t1": "Baby", "t2": "Dad"}, person)

	occasion, err := c.Classify(context.Background(), domain.GroupByOccasion, items)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"t1": "Baby Shower", "t3": "Christmas"}, occasion)
}
