package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched document prepared for extraction.
type Page struct {
	// Content is the cleaned markup sent to the model.
	Content string
	// Products holds raw schema.org Product nodes found in JSON-LD blocks.
	Products []map[string]any
}

var (
	noiseSelector = "script, style, noscript, svg, iframe, template, link, meta, head, header nav, footer"
	keptAttrs     = map[string]bool{"href": true, "src": true, "alt": true, "title": true, "content": true}
	whitespace    = regexp.MustCompile(`\s+`)
	betweenTags   = regexp.MustCompile(`>\s+<`)
)

// ParsePage cleans raw HTML and collects JSON-LD products. Content is
// truncated to maxChars runes.
func ParsePage(raw string, maxChars int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if json.Unmarshal([]byte(s.Text()), &v) == nil {
			page.Products = append(page.Products, collectProducts(v)...)
		}
	})

	doc.Find(noiseSelector).Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			attrs := n.Attr[:0]
			for _, a := range n.Attr {
				if keptAttrs[a.Key] && !strings.HasPrefix(a.Val, "data:") {
					attrs = append(attrs, a)
				}
			}
			n.Attr = attrs
		}
	})
	removeComments(body)

	markup, err := body.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	markup = betweenTags.ReplaceAllString(markup, "><")
	markup = strings.TrimSpace(whitespace.ReplaceAllString(markup, " "))
	page.Content = Truncate(markup, maxChars)
	return page, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func removeComments(s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#comment" {
			c.Remove()
			return
		}
		removeComments(c)
	})
}

// collectProducts walks a JSON-LD value for Product nodes, following
// @graph arrays and ItemList elements.
func collectProducts(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			out = append(out, collectProducts(e)...)
		}
	case map[string]any:
		if hasType(t, "Product") {
			return append(out, t)
		}
		for _, key := range []string{"@graph", "itemListElement", "item", "mainEntity"} {
			if child, ok := t[key]; ok {
				out = append(out, collectProducts(child)...)
			}
		}
	}
	return out
}

func hasType(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}
