package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/internal/storeurl"
	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
)

// AutoGrouper buckets staged items by store, price band or a classifier
// label.
type AutoGrouper struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewAutoGrouper creates a new auto grouper.
func NewAutoGrouper(classifier Classifier, logger *slog.Logger) *AutoGrouper {
	return &AutoGrouper{classifier: classifier, logger: logger}
}

// Group assigns every distinct tempId in items to exactly one bucket. An
// empty mode selects one from the items and is reported back.
func (g *AutoGrouper) Group(ctx context.Context, items []domain.ImportItem, mode domain.GroupMode) ([]domain.AutoGroupResult, domain.GroupMode, error) {
	if mode == "" {
		mode = DefaultGroupMode(items)
	}
	if !domain.IsValidGroupMode(mode) {
		return nil, "", apperrors.InvalidInput(fmt.Sprintf("unsupported grouping mode %q", mode))
	}

	items = uniqueByTempID(items)
	if len(items) == 0 {
		return []domain.AutoGroupResult{}, mode, nil
	}

	var key func(domain.ImportItem) string
	switch mode {
	case domain.GroupByStore:
		key = func(it domain.ImportItem) string {
			if d := itemDomain(it); d != "" {
				return d
			}
			return domain.OtherStoresGroup
		}
	case domain.GroupByPrice:
		key = func(it domain.ImportItem) string { return domain.PriceBand(it.Price) }
	default:
		labels := g.classify(ctx, mode, items)
		fallback := mode.FallbackLabel()
		key = func(it domain.ImportItem) string {
			if l := strings.TrimSpace(labels[it.TempID]); l != "" {
				return l
			}
			return fallback
		}
	}

	groups := bucket(items, key)
	if mode == domain.GroupByPrice {
		groups = orderByBand(groups)
	}
	return groups, mode, nil
}

// DefaultGroupMode picks store mode when items come from more than one
// store and category mode otherwise.
func DefaultGroupMode(items []domain.ImportItem) domain.GroupMode {
	domains := make(map[string]struct{})
	for _, it := range items {
		if d := itemDomain(it); d != "" {
			domains[d] = struct{}{}
		}
	}
	if len(domains) > 1 {
		return domain.GroupByStore
	}
	return domain.GroupByCategory
}

func (g *AutoGrouper) classify(ctx context.Context, mode domain.GroupMode, items []domain.ImportItem) map[string]string {
	labels, err := g.classifier.Classify(ctx, mode, items)
	if err != nil {
		g.logger.WarnContext(ctx, "classification failed, using fallback label",
			slog.String("mode", string(mode)),
			slog.Int("items", len(items)),
			slog.String("error", err.Error()),
		)
	}
	if labels == nil {
		return map[string]string{}
	}
	return labels
}

func bucket(items []domain.ImportItem, key func(domain.ImportItem) string) []domain.AutoGroupResult {
	index := make(map[string]int)
	var groups []domain.AutoGroupResult
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.AutoGroupResult{GroupName: k})
		}
		groups[i].MemberTempIDs = append(groups[i].MemberTempIDs, it.TempID)
	}
	for i := range groups {
		if len(groups[i].MemberTempIDs) == 1 {
			groups[i].Confidence = domain.SingletonGroupConfidence
		} else {
			groups[i].Confidence = domain.GroupConfidence
		}
	}
	return groups
}

func orderByBand(groups []domain.AutoGroupResult) []domain.AutoGroupResult {
	ordered := make([]domain.AutoGroupResult, 0, len(groups))
	for _, band := range domain.PriceBands {
		for _, g := range groups {
			if g.GroupName == band {
				ordered = append(ordered, g)
			}
		}
	}
	return ordered
}

func uniqueByTempID(items []domain.ImportItem) []domain.ImportItem {
	seen := make(map[string]bool, len(items))
	out := make([]domain.ImportItem, 0, len(items))
	for _, it := range items {
		if seen[it.TempID] {
			continue
		}
		seen[it.TempID] = true
		out = append(out, it)
	}
	return out
}

// itemDomain is the item's source domain, derived from its product URL
// when the client did not send one.
func itemDomain(it domain.ImportItem) string {
	if d := strings.ToLower(strings.TrimSpace(it.SourceDomain)); d != "" {
		return strings.TrimPrefix(d, "www.")
	}
	if it.ProductURL == "" {
		return ""
	}
	return storeurl.SourceDomain(it.ProductURL)
}
