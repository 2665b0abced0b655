package extraction

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

var currencySymbols = []struct {
	symbol string
	code   string
}{
	// Longer symbols first so "US$" is not read as "$".
	{"US$", "USD"}, {"C$", "CAD"}, {"A$", "AUD"}, {"NZ$", "NZD"}, {"HK$", "HKD"},
	{"R$", "BRL"}, {"USD", "USD"}, {"EUR", "EUR"}, {"GBP", "GBP"}, {"AED", "AED"}, {"SAR", "SAR"},
	{"$", "USD"}, {"€", "EUR"}, {"£", "GBP"}, {"¥", "JPY"}, {"₹", "INR"},
	{"₩", "KRW"}, {"₺", "TRY"}, {"₽", "RUB"}, {"₪", "ILS"},
}

// NormalizeItems converts loosely shaped records into ImportedItems.
// Records without a title are dropped; relative URLs are resolved against
// pageURL, which also stands in for a missing product URL.
func NormalizeItems(records []map[string]any, pageURL string) []domain.ImportedItem {
	base, _ := url.Parse(pageURL)
	items := make([]domain.ImportedItem, 0, len(records))
	for _, rec := range records {
		if item, ok := normalizeItem(rec, base, pageURL); ok {
			items = append(items, item)
		}
	}
	return items
}

func normalizeItem(rec map[string]any, base *url.URL, pageURL string) (domain.ImportedItem, bool) {
	title := strings.TrimSpace(whitespace.ReplaceAllString(firstString(rec, "title", "name"), " "))
	if title == "" {
		return domain.ImportedItem{}, false
	}
	item := domain.ImportedItem{Title: Truncate(title, domain.MaxTitleLength)}

	if img := resolveURL(firstString(rec, "imageUrl", "image_url", "image", "img"), base); img != "" {
		item.ImageURL = &img
	}

	rawPrice := first(rec, "price", "currentPrice", "current_price")
	item.Price = ParsePrice(rawPrice)

	currency := NormalizeCurrency(firstString(rec, "currency", "priceCurrency"))
	if currency == nil {
		if s, ok := rawPrice.(string); ok {
			currency = currencyFromSymbol(s)
		}
	}
	if item.Price != nil {
		item.Currency = currency
	}

	item.ProductURL = resolveURL(firstString(rec, "productUrl", "product_url", "url", "link", "href"), base)
	if item.ProductURL == "" {
		item.ProductURL = pageURL
	}
	return item, true
}

// ParsePrice reads a price from a JSON number or a display string such as
// "$1,299.99" or "1.299,99 €". Negative or unparseable prices yield nil.
func ParsePrice(v any) *float64 {
	var p float64
	switch t := v.(type) {
	case float64:
		p = t
	case int:
		p = float64(t)
	case string:
		f, ok := parsePriceString(t)
		if !ok {
			return nil
		}
		p = f
	default:
		return nil
	}
	if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	p = math.Round(p*100) / 100
	return &p
}

func parsePriceString(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		} else if b.Len() > 0 && !unicode.IsSpace(r) {
			// Stop at the first non-numeric rune after the number ("19.99 - 29.99").
			break
		}
	}
	num := b.String()
	if num == "" {
		return 0, false
	}

	lastDot, lastComma := strings.LastIndex(num, "."), strings.LastIndex(num, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastComma >= 0:
		if len(num)-lastComma-1 == 2 && strings.Count(num, ",") == 1 {
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case strings.Count(num, ".") > 1:
		num = strings.ReplaceAll(num, ".", "")
	}

	f, err := strconv.ParseFloat(num, 64)
	return f, err == nil
}

// NormalizeCurrency returns an upper-case ISO 4217 code for s, mapping
// common symbols, or nil when s is not recognizable.
func NormalizeCurrency(s string) *string {
	s = strings.TrimSpace(s)
	if len(s) == 3 && isASCIILetters(s) {
		code := strings.ToUpper(s)
		return &code
	}
	return currencyFromSymbol(s)
}

func currencyFromSymbol(s string) *string {
	if s == "" {
		return nil
	}
	upper := strings.ToUpper(s)
	for _, cs := range currencySymbols {
		if strings.Contains(upper, cs.symbol) {
			code := cs.code
			return &code
		}
	}
	return nil
}

func isASCIILetters(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// resolveURL makes raw absolute against base and returns "" for anything
// that is not http(s).
func resolveURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

func first(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first key holding a usable string. Arrays yield
// their first string; objects their "url" or "@id".
func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		for _, e := range t {
			if s := stringValue(e); s != "" {
				return s
			}
		}
	case map[string]any:
		return firstString(t, "url", "contentUrl", "@id")
	}
	return ""
}

// productRecord flattens a schema.org Product into the record shape read
// by NormalizeItems.
func productRecord(p map[string]any) map[string]any {
	rec := map[string]any{
		"title":      p["name"],
		"image":      p["image"],
		"productUrl": p["url"],
	}
	offer := p["offers"]
	if list, ok := offer.([]any); ok && len(list) > 0 {
		offer = list[0]
	}
	if o, ok := offer.(map[string]any); ok {
		rec["price"] = first(o, "price", "lowPrice")
		rec["currency"] = o["priceCurrency"]
		if rec["productUrl"] == nil {
			rec["productUrl"] = o["url"]
		}
	}
	return rec
}
