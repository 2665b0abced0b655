package http

import (
	"log/slog"
	"net/http"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/internal/service"
	"github.com/ckcelina/my-wishlist-sub002/pkg/httputil"
	"github.com/ckcelina/my-wishlist-sub002/pkg/middleware"
	"github.com/ckcelina/my-wishlist-sub002/pkg/validator"
)

// ImportHandler handles HTTP requests for the wishlist import endpoints.
type ImportHandler struct {
	imports    *service.ImportService
	duplicates *service.DuplicateDetector
	grouper    *service.AutoGrouper
	logger     *slog.Logger
}

// NewImportHandler creates a new import HTTP handler.
func NewImportHandler(
	imports *service.ImportService,
	duplicates *service.DuplicateDetector,
	grouper *service.AutoGrouper,
	logger *slog.Logger,
) *ImportHandler {
	return &ImportHandler{
		imports:    imports,
		duplicates: duplicates,
		grouper:    grouper,
		logger:     logger,
	}
}

// --- Request DTOs ---

// DetectDuplicatesRequest is the JSON request body for duplicate detection.
type DetectDuplicatesRequest struct {
	Items []domain.ImportItem `json:"items" validate:"max=500,dive"`
}

// AutoGroupRequest is the JSON request body for auto-grouping.
type AutoGroupRequest struct {
	Items []domain.ImportItem `json:"items" validate:"max=500,dive"`
	Mode  domain.GroupMode    `json:"mode,omitempty" validate:"omitempty,oneof=store category person occasion price"`
}

// NormalizeURLRequest is the JSON request body for URL normalization.
type NormalizeURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// --- Response DTOs ---

type saveResponse struct {
	Success      bool     `json:"success"`
	CreatedCount int      `json:"createdCount"`
	Warnings     []string `json:"warnings"`
}

type createAndSaveResponse struct {
	Success      bool     `json:"success"`
	WishlistID   string   `json:"wishlistId"`
	CreatedCount int      `json:"createdCount"`
	Warnings     []string `json:"warnings"`
}

type duplicatesResponse struct {
	Groups []domain.DuplicateGroup `json:"groups"`
}

type autoGroupResponse struct {
	Groups   []domain.AutoGroupResult `json:"groups"`
	AutoMode domain.GroupMode         `json:"autoMode"`
}

type executeResponse struct {
	Success              bool                         `json:"success"`
	CreatedCount         int                          `json:"createdCount"`
	DestinationWishlists []domain.DestinationWishlist `json:"destinationWishlists"`
	ItemAvailability     []domain.ItemAvailability    `json:"itemAvailability"`
	Warnings             []string                     `json:"warnings"`
	Outcomes             []domain.InsertOutcome       `json:"outcomes"`
}

// --- Handlers ---

// ParseWishlist handles POST /api/import-wishlist
func (h *ImportHandler) ParseWishlist(w http.ResponseWriter, r *http.Request) {
	var req service.ParseInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.imports.ParseWishlist(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// SaveToWishlist handles POST /api/import-wishlist/save
func (h *ImportHandler) SaveToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req service.SaveInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.imports.SaveToWishlist(r.Context(), userID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, saveResponse{
		Success:      result.Success,
		CreatedCount: result.CreatedCount,
		Warnings:     result.Warnings,
	})
}

// CreateAndSave handles POST /api/import-wishlist/create-and-save
func (h *ImportHandler) CreateAndSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req service.CreateAndSaveInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.imports.CreateAndSave(r.Context(), userID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, createAndSaveResponse{
		Success:      result.Success,
		WishlistID:   result.WishlistID,
		CreatedCount: result.CreatedCount,
		Warnings:     result.Warnings,
	})
}

// DetectDuplicates handles POST /api/detect-duplicates
func (h *ImportHandler) DetectDuplicates(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req DetectDuplicatesRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	groups := h.duplicates.Detect(r.Context(), req.Items)
	httputil.WriteJSON(w, http.StatusOK, duplicatesResponse{Groups: groups})
}

// AutoGroup handles POST /api/auto-group-import-items
func (h *ImportHandler) AutoGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req AutoGroupRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	groups, mode, err := h.grouper.Group(r.Context(), req.Items, req.Mode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, autoGroupResponse{Groups: groups, AutoMode: mode})
}

// Execute handles POST /api/import-execute
func (h *ImportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req service.ExecuteInput
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := h.imports.Execute(r.Context(), userID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	availability := result.ItemAvailability
	if availability == nil {
		availability = []domain.ItemAvailability{}
	}
	httputil.WriteJSON(w, http.StatusOK, executeResponse{
		Success:              result.Success,
		CreatedCount:         result.CreatedCount,
		DestinationWishlists: result.DestinationWishlists,
		ItemAvailability:     availability,
		Warnings:             result.Warnings,
		Outcomes:             result.Outcomes,
	})
}

// NormalizeURL handles POST /api/items/normalize-url
func (h *ImportHandler) NormalizeURL(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req NormalizeURLRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	result, err := service.NormalizeURL(req.URL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// requireUser returns the authenticated user, answering 401 when there is none.
func (h *ImportHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorBody{
			Error: httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return "", false
	}
	return userID, true
}
