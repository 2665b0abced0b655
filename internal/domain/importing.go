package domain

// ImportMode selects where executed imports land.
type ImportMode string

const (
	ImportMerge ImportMode = "merge"
	ImportNew   ImportMode = "new"
	ImportSplit ImportMode = "split"
)

// InsertStatus is the result of inserting one item.
type InsertStatus string

const (
	InsertInserted InsertStatus = "inserted"
	InsertFailed   InsertStatus = "failed"
)

// InsertOutcome records what happened to one staged item.
type InsertOutcome struct {
	TempID     string       `json:"tempId,omitempty"`
	Title      string       `json:"title"`
	WishlistID string       `json:"wishlistId"`
	Status     InsertStatus `json:"status"`
	ItemID     string       `json:"itemId,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

// SplitGroup routes a subset of staged items to one wishlist, either an
// existing one (WishlistID) or a new one named GroupName.
type SplitGroup struct {
	GroupName     string   `json:"groupName" validate:"required,max=120"`
	MemberTempIDs []string `json:"memberTempIds" validate:"required,min=1"`
	WishlistID    string   `json:"wishlistId,omitempty"`
}

// DestinationWishlist summarizes one wishlist touched by an import.
type DestinationWishlist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Created      bool   `json:"created"`
	CreatedCount int    `json:"createdCount"`
}

// ImportResult is the outcome of an executed import.
type ImportResult struct {
	Success              bool                  `json:"success"`
	CreatedCount         int                   `json:"createdCount"`
	DestinationWishlists []DestinationWishlist `json:"destinationWishlists"`
	Warnings             []string              `json:"warnings"`
	ItemAvailability     []ItemAvailability    `json:"itemAvailability,omitempty"`
	Outcomes             []InsertOutcome       `json:"outcomes"`
}

// CountInserted returns how many outcomes succeeded.
func CountInserted(outcomes []InsertOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == InsertInserted {
			n++
		}
	}
	return n
}
