package validation

import (
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

const (
	MsgCountryRequired    = "Country is required."
	MsgCityRequired       = "City is required."
	MsgCountryUnavailable = "Country is not available."
	MsgCityUnavailable    = "City is not available for the selected country."
)

type locationConfig struct {
	countries []string
	cities    []string
}

// LocationOption tightens the location rule with lookup data.
type LocationOption func(*locationConfig)

// WithCountries requires the country code to be one of codes. A nil slice
// leaves the check disabled.
func WithCountries(codes []string) LocationOption {
	return func(cfg *locationConfig) {
		if codes != nil {
			cfg.countries = append([]string{}, codes...)
		}
	}
}

// WithCities requires the city to be one of names. A nil slice leaves the
// check disabled.
func WithCities(names []string) LocationOption {
	return func(cfg *locationConfig) {
		if names != nil {
			cfg.cities = append([]string{}, names...)
		}
	}
}

// Location validates the location step. Both selections are required; the
// membership checks only run when the matching option is supplied. Accepted
// values adopt the spelling of the lookup list.
func Location(in Values, opts ...LocationOption) Result {
	cfg := locationConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := Values{}
	errs := Errors{}

	if country, ok := requireText(in, model.FieldCountry, MsgCountryRequired, out, errs); ok {
		country = strings.ToUpper(country)
		out[model.FieldCountry] = country
		if cfg.countries != nil {
			match, found := lookupFold(cfg.countries, country)
			if !found {
				errs[model.FieldCountry] = MsgCountryUnavailable
			} else {
				out[model.FieldCountry] = match
			}
		}
	}

	if city, ok := requireText(in, model.FieldCity, MsgCityRequired, out, errs); ok && cfg.cities != nil {
		match, found := lookupFold(cfg.cities, city)
		if !found {
			errs[model.FieldCity] = MsgCityUnavailable
		} else {
			out[model.FieldCity] = match
		}
	}

	return finish(out, errs)
}

// LocationRule binds options into a Rule.
func LocationRule(opts ...LocationOption) Rule {
	return func(in Values) Result {
		return Location(in, opts...)
	}
}

func lookupFold(list []string, value string) (string, bool) {
	for _, candidate := range list {
		if strings.EqualFold(strings.TrimSpace(candidate), value) {
			return candidate, true
		}
	}
	return "", false
}
