package domain

import "strings"

// Store is a retailer known to the catalog.
type Store struct {
	ID                 string   `json:"id"`
	Domain             string   `json:"domain"`
	Name               string   `json:"name"`
	CountriesSupported []string `json:"countriesSupported"`
	RequiresCity       bool     `json:"requiresCity"`
}

// ShipsToCountry reports whether the store lists countryCode. An empty
// list means the store does not restrict by country.
func (s *Store) ShipsToCountry(countryCode string) bool {
	if len(s.CountriesSupported) == 0 {
		return true
	}
	return containsFold(s.CountriesSupported, countryCode)
}

// ShippingRule describes delivery of one store into one country.
// ShipsToCity false means only CityWhitelist cities are served.
type ShippingRule struct {
	ID             string   `json:"id"`
	StoreID        string   `json:"storeId"`
	CountryCode    string   `json:"countryCode"`
	ShipsToCountry bool     `json:"shipsToCountry"`
	ShipsToCity    bool     `json:"shipsToCity"`
	CityWhitelist  []string `json:"cityWhitelist"`
	CityBlacklist  []string `json:"cityBlacklist"`
}

// ServesCity applies the city lists of the rule.
func (r *ShippingRule) ServesCity(city string) bool {
	if containsFold(r.CityBlacklist, city) {
		return false
	}
	if r.ShipsToCity {
		return true
	}
	return containsFold(r.CityWhitelist, city)
}

// RestrictsCities reports whether the rule needs a city to decide.
func (r *ShippingRule) RestrictsCities() bool {
	return !r.ShipsToCity || len(r.CityBlacklist) > 0
}

// ItemAvailability is an advisory shipping verdict for one staged item.
type ItemAvailability struct {
	TempID       string `json:"tempId"`
	SourceDomain string `json:"sourceDomain"`
	Available    bool   `json:"available"`
	Reason       string `json:"reason"`
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
