package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

// Classifier labels staged items along a category, person or occasion
// dimension. The result maps tempIds to labels; unlabeled items are absent.
// *extraction.Engine is the model-backed implementation.
type Classifier interface {
	Classify(ctx context.Context, mode domain.GroupMode, items []domain.ImportItem) (map[string]string, error)
}

type keywordRule struct {
	label    string
	keywords []string
}

// KeywordClassifier labels items by matching title words against fixed
// keyword lists. It needs no model and is used when none is configured.
type KeywordClassifier struct {
	rules map[domain.GroupMode][]keywordRule
}

// NewKeywordClassifier returns a classifier with the built-in rules.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultKeywordRules}
}

// Classify labels each item with the first rule whose keyword starts one
// of its title words.
func (c *KeywordClassifier) Classify(_ context.Context, mode domain.GroupMode, items []domain.ImportItem) (map[string]string, error) {
	labels := make(map[string]string, len(items))
	rules := c.rules[mode]
	for _, it := range items {
		words := titleWords(it.Title)
		for _, r := range rules {
			if matchesAny(words, r.keywords) {
				labels[it.TempID] = r.label
				break
			}
		}
	}
	return labels, nil
}

func titleWords(title string) []string {
	return strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesAny(words, keywords []string) bool {
	for _, kw := range keywords {
		for _, w := range words {
			if strings.HasPrefix(w, kw) {
				return true
			}
		}
	}
	return false
}

var defaultKeywordRules = map[domain.GroupMode][]keywordRule{
	domain.GroupByCategory: {
		{"Toys & Games", []string{"lego", "toy", "puzzle", "doll", "plush", "boardgame", "nerf"}},
		{"Electronics", []string{"phone", "iphone", "laptop", "headphone", "earbud", "airpod", "camera", "speaker",
			"charger", "tablet", "ipad", "console", "playstation", "xbox", "nintendo", "monitor", "keyboard", "smartwatch", "tv"}},
		{"Books", []string{"book", "novel", "paperback", "hardcover", "kindle"}},
		{"Jewelry", []string{"necklace", "ring", "bracelet", "earring", "pendant"}},
		{"Beauty", []string{"lipstick", "perfume", "fragrance", "serum", "moisturizer", "mascara", "shampoo", "skincare", "makeup"}},
		{"Fashion", []string{"shirt", "tshirt", "dress", "jeans", "jacket", "coat", "hoodie", "sweater", "shoe", "sneaker",
			"boot", "bag", "handbag", "hat", "scarf", "sock", "wallet"}},
		{"Sports & Outdoors", []string{"yoga", "tent", "bike", "bicycle", "dumbbell", "running", "hiking", "football", "tennis"}},
		{"Home & Kitchen", []string{"mug", "cup", "lamp", "pan", "pot", "knife", "blender", "kettle", "sofa", "chair",
			"table", "pillow", "blanket", "candle", "towel", "vase", "rug"}},
	},
	domain.GroupByPerson: {
		{"Baby", []string{"baby", "infant", "newborn", "diaper", "onesie", "pacifier"}},
		{"Kids", []string{"kids", "kid", "toddler", "children", "child", "lego", "toy"}},
		{"Mom", []string{"mom", "mother", "mum"}},
		{"Dad", []string{"dad", "father"}},
		{"Partner", []string{"couple", "his", "hers", "romantic"}},
	},
	domain.GroupByOccasion: {
		{"Baby Shower", []string{"baby", "newborn", "infant", "onesie"}},
		{"Wedding", []string{"wedding", "bridal", "bride", "groom"}},
		{"Christmas", []string{"christmas", "xmas", "ornament", "stocking", "advent"}},
		{"Valentine's Day", []string{"valentine", "heart", "romantic"}},
		{"Graduation", []string{"graduation", "graduate", "diploma"}},
		{"Housewarming", []string{"housewarming", "doormat"}},
		{"Birthday", []string{"birthday", "party", "cake"}},
	},
}
