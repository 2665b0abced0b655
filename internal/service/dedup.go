package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

// DuplicateProposer suggests groups of staged items that are one product.
type DuplicateProposer interface {
	ProposeDuplicates(ctx context.Context, items []domain.ImportItem) ([]domain.DuplicateGroup, error)
}

// DuplicateDetector filters proposed duplicate groups down to the ones
// worth showing to the user.
type DuplicateDetector struct {
	proposer DuplicateProposer
	logger   *slog.Logger
}

// NewDuplicateDetector creates a new duplicate detector.
func NewDuplicateDetector(proposer DuplicateProposer, logger *slog.Logger) *DuplicateDetector {
	return &DuplicateDetector{proposer: proposer, logger: logger}
}

// Detect returns duplicate groups among items. Fewer than two items never
// reach the proposer. Every returned group has at least two distinct known
// members, a confidence above the threshold, and no member shared with an
// earlier group.
func (d *DuplicateDetector) Detect(ctx context.Context, items []domain.ImportItem) []domain.DuplicateGroup {
	groups := []domain.DuplicateGroup{}
	if len(items) < 2 {
		return groups
	}

	titles := make(map[string]string, len(items))
	for _, it := range items {
		if _, ok := titles[it.TempID]; !ok {
			titles[it.TempID] = it.DisplayTitle()
		}
	}

	// Errors are logged by the proposer; whatever it returned is still usable.
	proposed, _ := d.proposer.ProposeDuplicates(ctx, items)

	claimed := make(map[string]bool)
	for _, g := range proposed {
		members := make([]string, 0, len(g.Members))
		seen := make(map[string]bool, len(g.Members))
		for _, id := range g.Members {
			if _, known := titles[id]; !known || seen[id] || claimed[id] {
				continue
			}
			seen[id] = true
			members = append(members, id)
		}

		confidence := clamp01(g.Confidence)
		if len(members) < 2 || confidence <= domain.DuplicateConfidenceThreshold {
			continue
		}
		for _, id := range members {
			claimed[id] = true
		}

		g.Members = members
		g.Confidence = confidence
		if g.GroupID == "" {
			g.GroupID = fmt.Sprintf("dup-%d", len(groups)+1)
		}
		if g.CanonicalTitle == "" {
			g.CanonicalTitle = titles[members[0]]
		}
		groups = append(groups, g)
	}

	if len(proposed) > 0 {
		d.logger.DebugContext(ctx, "duplicate groups filtered",
			slog.Int("proposed", len(proposed)),
			slog.Int("kept", len(groups)),
		)
	}
	return groups
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
