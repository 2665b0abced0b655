// Package catalog loads the retailer catalog consulted by availability
// checks and writes it to the store tables.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog is the YAML document listing known stores.
type Catalog struct {
	Stores []StoreEntry `yaml:"stores"`
}

// StoreEntry is one retailer and its per-country shipping rules.
type StoreEntry struct {
	Domain             string      `yaml:"domain"`
	Name               string      `yaml:"name"`
	CountriesSupported []string    `yaml:"countriesSupported"`
	RequiresCity       bool        `yaml:"requiresCity"`
	Shipping           []RuleEntry `yaml:"shipping"`
}

// RuleEntry describes delivery into one country. Omitted booleans
// default to true.
type RuleEntry struct {
	Country        string   `yaml:"country"`
	ShipsToCountry *bool    `yaml:"shipsToCountry"`
	ShipsToCity    *bool    `yaml:"shipsToCity"`
	CityWhitelist  []string `yaml:"cityWhitelist"`
	CityBlacklist  []string `yaml:"cityBlacklist"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Stores) == 0 {
		return errors.New("catalog has no stores")
	}

	var errs []error
	seen := make(map[string]bool, len(c.Stores))
	for i, s := range c.Stores {
		d := strings.ToLower(strings.TrimSpace(s.Domain))
		switch {
		case d == "":
			errs = append(errs, fmt.Errorf("stores[%d]: domain is required", i))
		case seen[d]:
			errs = append(errs, fmt.Errorf("stores[%d]: duplicate domain %s", i, d))
		}
		seen[d] = true
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Errorf("stores[%d]: name is required", i))
		}
		for _, cc := range s.CountriesSupported {
			if !isCountryCode(cc) {
				errs = append(errs, fmt.Errorf("stores[%d]: invalid country %q", i, cc))
			}
		}
		countries := make(map[string]bool, len(s.Shipping))
		for j, r := range s.Shipping {
			cc := strings.ToUpper(r.Country)
			if !isCountryCode(cc) {
				errs = append(errs, fmt.Errorf("stores[%d].shipping[%d]: invalid country %q", i, j, r.Country))
			}
			if countries[cc] {
				errs = append(errs, fmt.Errorf("stores[%d].shipping[%d]: duplicate country %s", i, j, cc))
			}
			countries[cc] = true
		}
	}
	return errors.Join(errs...)
}

// Store converts the entry into its catalog row.
func (s StoreEntry) Store() *domain.Store {
	countries := make([]string, 0, len(s.CountriesSupported))
	for _, cc := range s.CountriesSupported {
		countries = append(countries, strings.ToUpper(cc))
	}
	return &domain.Store{
		Domain:             strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.Domain)), "www."),
		Name:               strings.TrimSpace(s.Name),
		CountriesSupported: countries,
		RequiresCity:       s.RequiresCity,
	}
}

// Rule converts the entry into a shipping rule for storeID.
func (r RuleEntry) Rule(storeID string) *domain.ShippingRule {
	return &domain.ShippingRule{
		StoreID:        storeID,
		CountryCode:    strings.ToUpper(r.Country),
		ShipsToCountry: boolOr(r.ShipsToCountry, true),
		ShipsToCity:    boolOr(r.ShipsToCity, true),
		CityWhitelist:  r.CityWhitelist,
		CityBlacklist:  r.CityBlacklist,
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func isCountryCode(cc string) bool {
	if len(cc) != 2 {
		return false
	}
	for _, r := range cc {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
