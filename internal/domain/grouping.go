package domain

// GroupMode selects the bucketing strategy of auto-grouping.
type GroupMode string

const (
	GroupByStore    GroupMode = "store"
	GroupByCategory GroupMode = "category"
	GroupByPerson   GroupMode = "person"
	GroupByOccasion GroupMode = "occasion"
	GroupByPrice    GroupMode = "price"
)

// Confidence reported for auto-group buckets.
const (
	SingletonGroupConfidence = 0.95
	GroupConfidence          = 0.85
)

// DuplicateConfidenceThreshold is the exclusive lower bound for keeping a
// proposed duplicate group.
const DuplicateConfidenceThreshold = 0.7

// OtherStoresGroup collects items without a source domain in store mode.
const OtherStoresGroup = "Other Stores"

// ValidGroupModes returns every supported mode.
func ValidGroupModes() []GroupMode {
	return []GroupMode{GroupByStore, GroupByCategory, GroupByPerson, GroupByOccasion, GroupByPrice}
}

// IsValidGroupMode reports whether m is a supported mode.
func IsValidGroupMode(m GroupMode) bool {
	for _, v := range ValidGroupModes() {
		if v == m {
			return true
		}
	}
	return false
}

// IsClassified reports whether the mode needs a classifier.
func (m GroupMode) IsClassified() bool {
	return m == GroupByCategory || m == GroupByPerson || m == GroupByOccasion
}

// FallbackLabel is the bucket for items the classifier did not label.
func (m GroupMode) FallbackLabel() string {
	switch m {
	case GroupByPerson:
		return "General/Self"
	case GroupByOccasion:
		return "General"
	default:
		return "Uncategorized"
	}
}

// AutoGroupResult is one named bucket of staged items.
type AutoGroupResult struct {
	GroupName     string   `json:"groupName"`
	MemberTempIDs []string `json:"memberTempIds"`
	Confidence    float64  `json:"confidence"`
}

// DuplicateGroup is a set of staged items believed to be the same product.
type DuplicateGroup struct {
	GroupID        string   `json:"groupId"`
	Members        []string `json:"members"`
	Confidence     float64  `json:"confidence"`
	CanonicalTitle string   `json:"canonicalTitle"`
	Reason         string   `json:"reason"`
}

// Price bands in ascending order.
var PriceBands = []string{"Under $25", "$25 - $50", "$50 - $100", "$100 - $250", "$250+"}

// PriceBand returns the band label for price. A missing price counts as 0.
func PriceBand(price *float64) string {
	var p float64
	if price != nil {
		p = *price
	}
	switch {
	case p < 25:
		return PriceBands[0]
	case p < 50:
		return PriceBands[1]
	case p < 100:
		return PriceBands[2]
	case p < 250:
		return PriceBands[3]
	default:
		return PriceBands[4]
	}
}
