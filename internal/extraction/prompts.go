package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

var promptFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

var prompts = template.Must(template.New("prompts").Funcs(promptFuncs).Parse(`
{{define "extract"}}You are extracting products from a store wishlist or registry page.
Page URL: {{.PageURL}}

Return ONLY a JSON array. Each element must have exactly these fields:
  "title"      (string, product name as shown on the page)
  "imageUrl"   (string or null)
  "price"      (number or null, current price without currency symbols)
  "currency"   (string or null, ISO 4217 code such as "USD")
  "productUrl" (string, link to the product page)
Skip navigation links, ads and recommendations that are not part of the list.
If there are no products return [].

Page content:
{{.Content}}
{{end}}

{{define "duplicates"}}You are reviewing items a user is importing into a wishlist.
Group items that represent the same product: identical or near-identical
titles, the same image or URL, or clear variants of one product (size or
color). Do not group items that are merely similar or from the same brand.

Items:
{{json .Items}}

Return ONLY a JSON array. Each element:
  "groupId"        (string)
  "members"        (array of tempId strings, at least 2)
  "confidence"     (number between 0 and 1)
  "canonicalTitle" (string, the best title for the product)
  "reason"         (string, one short sentence)
If nothing is duplicated return [].
{{end}}

{{define "classify"}}Classify each wishlist item by {{.Dimension}}.
Use short labels such as: {{.Examples}}. Prefer reusing the same label for
related items; invent a new label only when none fit.

Items:
{{json .Items}}

Return ONLY a JSON object mapping each tempId to its label, for example
{"item-1": "{{.FirstExample}}"}.
{{end}}
`))

type promptItem struct {
	TempID       string   `json:"tempId"`
	Title        string   `json:"title"`
	Price        *float64 `json:"price,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	HasImage     bool     `json:"hasImage,omitempty"`
	ProductURL   string   `json:"productUrl,omitempty"`
	SourceDomain string   `json:"sourceDomain,omitempty"`
}

func toPromptItems(items []domain.ImportItem) []promptItem {
	out := make([]promptItem, 0, len(items))
	for _, it := range items {
		out = append(out, promptItem{
			TempID:       it.TempID,
			Title:        it.Title,
			Price:        it.Price,
			Currency:     it.Currency,
			HasImage:     it.ImageURL != nil && *it.ImageURL != "",
			ProductURL:   it.ProductURL,
			SourceDomain: it.SourceDomain,
		})
	}
	return out
}

type classifyDimension struct {
	name     string
	examples []string
}

var classifyDimensions = map[domain.GroupMode]classifyDimension{
	domain.GroupByCategory: {
		name: "product category",
		examples: []string{"Electronics", "Fashion", "Home & Kitchen", "Beauty",
			"Toys & Games", "Books", "Sports & Outdoors", "Jewelry"},
	},
	domain.GroupByPerson: {
		name:     "who the gift is most likely for",
		examples: []string{"Self", "Partner", "Mom", "Dad", "Kids", "Baby", "Friend", "Coworker"},
	},
	domain.GroupByOccasion: {
		name: "the occasion it best fits",
		examples: []string{"Birthday", "Christmas", "Wedding", "Anniversary",
			"Baby Shower", "Housewarming", "Graduation", "Valentine's Day"},
	},
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func extractPrompt(pageURL, content string) (string, error) {
	return renderPrompt("extract", struct{ PageURL, Content string }{pageURL, content})
}

func duplicatesPrompt(items []domain.ImportItem) (string, error) {
	return renderPrompt("duplicates", struct{ Items []promptItem }{toPromptItems(items)})
}

func classifyPrompt(mode domain.GroupMode, items []domain.ImportItem) (string, error) {
	dim, ok := classifyDimensions[mode]
	if !ok {
		return "", fmt.Errorf("mode %q is not classified", mode)
	}
	return renderPrompt("classify", struct {
		Dimension    string
		Examples     string
		FirstExample string
		Items        []promptItem
	}{
		Dimension:    dim.name,
		Examples:     joinQuoted(dim.examples),
		FirstExample: dim.examples[0],
		Items:        toPromptItems(items),
	})
}

func joinQuoted(labels []string) string {
	var buf bytes.Buffer
	for i, l := range labels {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%q", l)
	}
	return buf.String()
}
