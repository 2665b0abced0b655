// Package storeurl identifies stores from URLs and canonicalizes product
// links.
package storeurl

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed stores.yaml
var storesYAML []byte

// StorePattern maps a hostname substring to a display name.
type StorePattern struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
}

type storeTable struct {
	Stores []StorePattern `yaml:"stores"`
}

var knownStores = mustParseStores(storesYAML)

// ParseStores decodes an ordered pattern table.
func ParseStores(data []byte) ([]StorePattern, error) {
	var t storeTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse store table: %w", err)
	}
	for i, s := range t.Stores {
		if s.Pattern == "" || s.Name == "" {
			return nil, fmt.Errorf("parse store table: entry %d needs pattern and name", i)
		}
		t.Stores[i].Pattern = strings.ToLower(s.Pattern)
	}
	return t.Stores, nil
}

func mustParseStores(data []byte) []StorePattern {
	stores, err := ParseStores(data)
	if err != nil {
		panic(err)
	}
	return stores
}

// DetectStoreName returns a display name for the store hosting rawURL.
// Known stores come from the embedded table; anything else is named after
// the first label of its hostname ("randomshop.example.com" ->
// "Randomshop"). Unparseable input yields "Unknown Store".
func DetectStoreName(rawURL string) string {
	host := hostname(rawURL)
	if host == "" {
		return "Unknown Store"
	}
	for _, s := range knownStores {
		if strings.Contains(host, s.Pattern) {
			return s.Name
		}
	}

	label, _, _ := strings.Cut(strings.TrimPrefix(host, "www."), ".")
	return capitalize(label)
}

// SourceDomain returns the lower-cased hostname without "www." or port,
// or "" when rawURL has no host.
func SourceDomain(rawURL string) string {
	return strings.TrimPrefix(hostname(rawURL), "www.")
}

func hostname(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
