package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/internal/event"
	"github.com/ckcelina/my-wishlist-sub002/internal/repository"
	"github.com/ckcelina/my-wishlist-sub002/internal/storeurl"
	apperrors "github.com/ckcelina/my-wishlist-sub002/pkg/errors"
)

// Import batch limits.
const (
	MaxImportItems = 500
	MaxSplitGroups = 50
)

// Warning and error messages shown to the client.
const (
	msgFetchFailed        = "Failed to fetch wishlist page"
	warnItemFailed        = "Failed to import \"%s\""
	warnWishlistNotFound  = "Wishlist %s not found"
	warnWishlistLoad      = "Could not load wishlist %s"
	warnWishlistCreate    = "Failed to create wishlist %s"
	warnUnassignedItems   = "%d item(s) were not assigned to a group and were skipped"
	reasonInsertFailed    = "could not be saved"
	reasonCanceledRequest = "request canceled"
)

var importItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wishlist_import_items_total",
	Help: "Staged items processed by imports, by mode and outcome.",
}, []string{"mode", "status"})

// PageFetcher downloads a page, returning "" on any failure.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) string
}

// WishlistExtractor turns a raw wishlist page into product records.
type WishlistExtractor interface {
	ExtractWishlistItems(ctx context.Context, rawHTML, pageURL string) ([]domain.ImportedItem, error)
}

// ParseInput holds the parameters for parsing a store wishlist page.
type ParseInput struct {
	WishlistURL string `json:"wishlistUrl" validate:"required,url,max=2048"`
}

// ParseResult is a parsed store wishlist.
type ParseResult struct {
	StoreName string                `json:"storeName"`
	Items     []domain.ImportedItem `json:"items"`
}

// SaveInput holds the parameters for saving items into an existing wishlist.
type SaveInput struct {
	WishlistID string              `json:"wishlistId" validate:"required"`
	Items      []domain.ImportItem `json:"items" validate:"required,min=1,max=500,dive"`
}

// CreateAndSaveInput holds the parameters for saving items into a new wishlist.
type CreateAndSaveInput struct {
	WishlistName string              `json:"wishlistName" validate:"required,max=120"`
	Items        []domain.ImportItem `json:"items" validate:"required,min=1,max=500,dive"`
}

// SaveResult is the outcome of a save or create-and-save.
type SaveResult struct {
	Success      bool                   `json:"success"`
	WishlistID   string                 `json:"wishlistId,omitempty"`
	CreatedCount int                    `json:"createdCount"`
	Warnings     []string               `json:"warnings"`
	Outcomes     []domain.InsertOutcome `json:"outcomes"`
}

// ExecuteInput holds the parameters for executing a staged import.
// WishlistID is required for merge, WishlistName for new and Groups for
// split.
type ExecuteInput struct {
	Mode         domain.ImportMode   `json:"mode" validate:"required,oneof=merge new split"`
	Items        []domain.ImportItem `json:"items" validate:"required,min=1,max=500,dive"`
	WishlistID   string              `json:"wishlistId,omitempty"`
	WishlistName string              `json:"wishlistName,omitempty" validate:"max=120"`
	Groups       []domain.SplitGroup `json:"groups,omitempty" validate:"max=50,dive"`
	CountryCode  string              `json:"countryCode,omitempty" validate:"omitempty,len=2,alpha"`
	City         string              `json:"city,omitempty" validate:"max=120"`
}

// ImportService implements parsing store wishlists and importing staged
// items into the caller's wishlists.
type ImportService struct {
	wishlists    repository.WishlistRepository
	fetcher      PageFetcher
	extractor    WishlistExtractor
	availability *AvailabilityChecker
	publisher    event.Publisher
	logger       *slog.Logger
}

// NewImportService creates a new import service.
func NewImportService(
	wishlists repository.WishlistRepository,
	fetcher PageFetcher,
	extractor WishlistExtractor,
	availability *AvailabilityChecker,
	publisher event.Publisher,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		wishlists:    wishlists,
		fetcher:      fetcher,
		extractor:    extractor,
		availability: availability,
		publisher:    publisher,
		logger:       logger,
	}
}

// ParseWishlist fetches a store wishlist page and extracts its products.
// An unreachable page is an invalid input; an unparseable one yields no
// items.
func (s *ImportService) ParseWishlist(ctx context.Context, input ParseInput) (*ParseResult, error) {
	pageURL := strings.TrimSpace(input.WishlistURL)
	if pageURL == "" {
		return nil, apperrors.InvalidInput("wishlistUrl is required")
	}

	body := s.fetcher.Fetch(ctx, pageURL)
	if body == "" {
		return nil, apperrors.InvalidInput(msgFetchFailed)
	}

	// Extraction errors are logged by the extractor and never fatal.
	items, _ := s.extractor.ExtractWishlistItems(ctx, body, pageURL)
	if items == nil {
		items = []domain.ImportedItem{}
	}

	s.logger.InfoContext(ctx, "wishlist page parsed",
		slog.String("source_domain", storeurl.SourceDomain(pageURL)),
		slog.Int("items", len(items)),
	)

	return &ParseResult{
		StoreName: storeurl.DetectStoreName(pageURL),
		Items:     items,
	}, nil
}

// SaveToWishlist inserts items into a wishlist owned by userID.
func (s *ImportService) SaveToWishlist(ctx context.Context, userID string, input SaveInput) (*SaveResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.WishlistID == "" {
		return nil, apperrors.InvalidInput("wishlistId is required")
	}

	w, err := s.ownedWishlist(ctx, input.WishlistID, userID)
	if err != nil {
		return nil, err
	}

	outcomes := s.insertItems(ctx, w.ID, input.Items)
	dest := domain.DestinationWishlist{ID: w.ID, Name: w.Name, CreatedCount: domain.CountInserted(outcomes)}
	s.finish(ctx, userID, domain.ImportMerge, outcomes, []domain.DestinationWishlist{dest})

	return &SaveResult{
		Success:      true,
		CreatedCount: dest.CreatedCount,
		Warnings:     itemWarnings(outcomes),
		Outcomes:     outcomes,
	}, nil
}

// CreateAndSave creates a wishlist named input.WishlistName and inserts
// items into it.
func (s *ImportService) CreateAndSave(ctx context.Context, userID string, input CreateAndSaveInput) (*SaveResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	w, err := s.createWishlist(ctx, userID, input.WishlistName)
	if err != nil {
		return nil, err
	}

	outcomes := s.insertItems(ctx, w.ID, input.Items)
	dest := domain.DestinationWishlist{ID: w.ID, Name: w.Name, Created: true, CreatedCount: domain.CountInserted(outcomes)}
	s.finish(ctx, userID, domain.ImportNew, outcomes, []domain.DestinationWishlist{dest})

	return &SaveResult{
		Success:      true,
		WishlistID:   w.ID,
		CreatedCount: dest.CreatedCount,
		Warnings:     itemWarnings(outcomes),
		Outcomes:     outcomes,
	}, nil
}

// Execute runs a staged import in merge, new or split mode. Per-item and
// per-group failures become warnings; only setup failures are errors.
func (s *ImportService) Execute(ctx context.Context, userID string, input ExecuteInput) (*domain.ImportResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if err := validateExecuteInput(input); err != nil {
		return nil, err
	}

	result := &domain.ImportResult{
		Success:              true,
		DestinationWishlists: []domain.DestinationWishlist{},
		Warnings:             []string{},
		Outcomes:             []domain.InsertOutcome{},
	}

	if cc := strings.TrimSpace(input.CountryCode); cc != "" {
		result.ItemAvailability = s.availability.Check(ctx, input.Items, cc, input.City)
	}

	switch input.Mode {
	case domain.ImportMerge:
		w, err := s.ownedWishlist(ctx, input.WishlistID, userID)
		if err != nil {
			return nil, err
		}
		s.importInto(ctx, result, w, false, input.Items)
	case domain.ImportNew:
		w, err := s.createWishlist(ctx, userID, input.WishlistName)
		if err != nil {
			return nil, err
		}
		s.importInto(ctx, result, w, true, input.Items)
	case domain.ImportSplit:
		s.executeSplit(ctx, result, userID, input)
	}

	result.CreatedCount = domain.CountInserted(result.Outcomes)
	result.Warnings = append(result.Warnings, itemWarnings(result.Outcomes)...)
	s.finish(ctx, userID, input.Mode, result.Outcomes, result.DestinationWishlists)

	return result, nil
}

func validateExecuteInput(input ExecuteInput) error {
	if len(input.Items) > MaxImportItems {
		return apperrors.InvalidInput(fmt.Sprintf("items must not exceed %d", MaxImportItems))
	}
	switch input.Mode {
	case domain.ImportMerge:
		if strings.TrimSpace(input.WishlistID) == "" {
			return apperrors.InvalidInput("wishlistId is required for merge mode")
		}
	case domain.ImportNew:
		if strings.TrimSpace(input.WishlistName) == "" {
			return apperrors.InvalidInput("wishlistName is required for new mode")
		}
	case domain.ImportSplit:
		if len(input.Groups) == 0 {
			return apperrors.InvalidInput("groups are required for split mode")
		}
		if len(input.Groups) > MaxSplitGroups {
			return apperrors.InvalidInput(fmt.Sprintf("groups must not exceed %d", MaxSplitGroups))
		}
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unsupported import mode %q", input.Mode))
	}
	return nil
}

// executeSplit routes each group's members to the group's wishlist. An item
// listed by several groups goes to the first one. Items without a tempId,
// repeats of an earlier tempId and items no group lists are counted in one
// warning.
func (s *ImportService) executeSplit(ctx context.Context, result *domain.ImportResult, userID string, input ExecuteInput) {
	byTempID := make(map[string]domain.ImportItem, len(input.Items))
	for _, it := range input.Items {
		if _, ok := byTempID[it.TempID]; !ok && it.TempID != "" {
			byTempID[it.TempID] = it
		}
	}

	assigned := make(map[string]bool, len(byTempID))
	for _, g := range input.Groups {
		var members []domain.ImportItem
		for _, id := range g.MemberTempIDs {
			it, ok := byTempID[id]
			if !ok || assigned[id] {
				continue
			}
			assigned[id] = true
			members = append(members, it)
		}
		if len(members) == 0 {
			continue
		}

		if g.WishlistID != "" {
			w, err := s.wishlists.GetOwned(ctx, g.WishlistID, userID)
			if err != nil {
				result.Warnings = append(result.Warnings, s.groupWarning(ctx, g, err))
				continue
			}
			s.importInto(ctx, result, w, false, members)
			continue
		}

		w, err := s.createWishlist(ctx, userID, g.GroupName)
		if err != nil {
			s.logger.WarnContext(ctx, "split group wishlist creation failed",
				slog.String("group", g.GroupName),
				slog.String("error", err.Error()),
			)
			result.Warnings = append(result.Warnings, fmt.Sprintf(warnWishlistCreate, g.GroupName))
			continue
		}
		s.importInto(ctx, result, w, true, members)
	}

	if n := len(input.Items) - len(assigned); n > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(warnUnassignedItems, n))
	}
}

func (s *ImportService) groupWarning(ctx context.Context, g domain.SplitGroup, err error) string {
	s.logger.WarnContext(ctx, "split group wishlist unavailable",
		slog.String("group", g.GroupName),
		slog.String("wishlist_id", g.WishlistID),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Sprintf(warnWishlistNotFound, g.GroupName)
	}
	return fmt.Sprintf(warnWishlistLoad, g.GroupName)
}

func (s *ImportService) importInto(ctx context.Context, result *domain.ImportResult, w *domain.Wishlist, created bool, items []domain.ImportItem) {
	outcomes := s.insertItems(ctx, w.ID, items)
	result.Outcomes = append(result.Outcomes, outcomes...)
	result.DestinationWishlists = append(result.DestinationWishlists, domain.DestinationWishlist{
		ID:           w.ID,
		Name:         w.Name,
		Created:      created,
		CreatedCount: domain.CountInserted(outcomes),
	})
}

// insertItems inserts items one by one. A failed item is recorded in its
// outcome and never stops the batch.
func (s *ImportService) insertItems(ctx context.Context, wishlistID string, items []domain.ImportItem) []domain.InsertOutcome {
	outcomes := make([]domain.InsertOutcome, 0, len(items))
	for _, it := range items {
		o := domain.InsertOutcome{
			TempID:     it.TempID,
			Title:      it.DisplayTitle(),
			WishlistID: wishlistID,
		}

		row := it.ToWishlistItem(wishlistID)
		if row.SourceDomain == "" {
			row.SourceDomain = itemDomain(it)
		}

		err := row.Validate()
		if err == nil {
			err = s.wishlists.InsertItem(ctx, row)
		}
		if err != nil {
			o.Status = domain.InsertFailed
			o.Reason = failureReason(err)
			s.logger.WarnContext(ctx, "failed to import item",
				slog.String("wishlist_id", wishlistID),
				slog.String("temp_id", it.TempID),
				slog.String("error", err.Error()),
			)
		} else {
			o.Status = domain.InsertInserted
			o.ItemID = row.ID
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidItem):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reasonCanceledRequest
	default:
		return reasonInsertFailed
	}
}

func itemWarnings(outcomes []domain.InsertOutcome) []string {
	warnings := []string{}
	for _, o := range outcomes {
		if o.Status == domain.InsertFailed {
			warnings = append(warnings, fmt.Sprintf(warnItemFailed, o.Title))
		}
	}
	return warnings
}

func (s *ImportService) ownedWishlist(ctx context.Context, id, userID string) (*domain.Wishlist, error) {
	w, err := s.wishlists.GetOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get wishlist %s: %w", id, err)
	}
	return w, nil
}

func (s *ImportService) createWishlist(ctx context.Context, userID, name string) (*domain.Wishlist, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateWishlistName(name); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	w := &domain.Wishlist{UserID: userID, Name: name}
	if err := s.wishlists.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("create wishlist: %w", err)
	}

	s.logger.InfoContext(ctx, "wishlist created",
		slog.String("wishlist_id", w.ID),
		slog.String("user_id", userID),
	)
	return w, nil
}

// finish records metrics and publishes the import event. Publishing is
// best effort.
func (s *ImportService) finish(ctx context.Context, userID string, mode domain.ImportMode, outcomes []domain.InsertOutcome, dests []domain.DestinationWishlist) {
	created := domain.CountInserted(outcomes)
	failed := len(outcomes) - created
	importItemsTotal.WithLabelValues(string(mode), string(domain.InsertInserted)).Add(float64(created))
	importItemsTotal.WithLabelValues(string(mode), string(domain.InsertFailed)).Add(float64(failed))

	data := event.ItemsImportedData{
		ImportID:     uuid.New().String(),
		UserID:       userID,
		Mode:         mode,
		CreatedCount: created,
		FailedCount:  failed,
		Wishlists:    dests,
	}
	if err := s.publisher.PublishItemsImported(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish import event",
			slog.String("import_id", data.ImportID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "import completed",
		slog.String("import_id", data.ImportID),
		slog.String("mode", string(mode)),
		slog.Int("created", created),
		slog.Int("failed", failed),
		slog.Int("wishlists", len(dests)),
	)
}

// NormalizeResult pairs a URL with its canonical form.
type NormalizeResult struct {
	OriginalURL   string `json:"originalUrl"`
	NormalizedURL string `json:"normalizedUrl"`
}

// NormalizeURL canonicalizes a product URL.
func NormalizeURL(rawURL string) (*NormalizeResult, error) {
	normalized, err := storeurl.NormalizeURL(rawURL)
	if err != nil {
		if errors.Is(err, storeurl.ErrUnsupportedURL) {
			return nil, apperrors.InvalidInput("url must be an absolute http or https URL")
		}
		return nil, apperrors.InvalidInput(err.Error())
	}
	return &NormalizeResult{OriginalURL: rawURL, NormalizedURL: normalized}, nil
}
