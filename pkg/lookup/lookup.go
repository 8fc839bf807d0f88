// Package lookup answers the two reference-data queries the location step
// needs: the list of countries and the cities of one country. Sources are
// interchangeable (live HTTP or an embedded static list); callers sort at the
// consuming boundary with SortCountries and SortCities.
package lookup

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// User-facing messages for degraded lookups.
const (
	MsgCountriesFailed = "Failed to load countries."
	MsgCitiesFailed    = "Failed to load cities."
)

var (
	// ErrNoCountry is returned when a city is chosen before a country.
	ErrNoCountry = errors.New("lookup: no country selected")
	// ErrStale marks a city response for a country that is no longer
	// selected. Callers drop it silently.
	ErrStale = errors.New("lookup: stale selection")
	// ErrUnknownCountry is returned by sources that know every country.
	ErrUnknownCountry = errors.New("lookup: unknown country")
)

// Country is a selectable country.
type Country struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Collaborator is the lookup contract.
type Collaborator interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListCities(ctx context.Context, countryCode string) ([]string, error)
}

// SortCountries returns a copy ordered by name.
func SortCountries(in []Country) []Country {
	out := append([]Country(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// SortCities returns a copy in alphabetical order.
func SortCities(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// CountryCodes extracts the codes of countries.
func CountryCodes(countries []Country) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.Code)
	}
	return out
}

// CountryNames indexes country names by code.
func CountryNames(countries []Country) map[string]string {
	out := make(map[string]string, len(countries))
	for _, c := range countries {
		out[c.Code] = c.Name
	}
	return out
}
