package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

// LocationView is everything the location controls need. A non-empty error
// message means the matching control is shown disabled with that message.
type LocationView struct {
	Country        string           `json:"country"`
	City           string           `json:"city"`
	Countries      []lookup.Country `json:"countries"`
	CountriesError string           `json:"countriesError,omitempty"`
	Cities         []string         `json:"cities"`
	CitiesError    string           `json:"citiesError,omitempty"`
	CitiesDisabled bool             `json:"citiesDisabled"`
}

// staleRetries bounds how often a superseded city load is re-issued.
const staleRetries = 3

// LocationOptions loads the sorted country list and, when a country is
// selected, its sorted cities. Lookups run without holding the session lock.
func (s *Session) LocationOptions(ctx context.Context) LocationView {
	sel := s.currentSelection()
	view := LocationView{Countries: []lookup.Country{}, Cities: []string{}}

	countries, err := s.lookup.ListCountries(ctx)
	if err != nil {
		s.lookupFailed(ctx, "countries", err)
		view.CountriesError = lookup.MsgCountriesFailed
	} else {
		view.Countries = lookup.SortCountries(countries)
	}

	for attempt := 0; attempt < staleRetries; attempt++ {
		ticket := sel.Ticket()
		view.Country = ticket.Country
		view.City = sel.City()
		if ticket.Country == "" {
			view.CitiesDisabled = true
			return view
		}
		cities, err := lookup.LoadCities(ctx, s.lookup, sel, ticket)
		if errors.Is(err, lookup.ErrStale) {
			continue
		}
		if err != nil {
			s.lookupFailed(ctx, "cities", err)
			view.CitiesError = lookup.MsgCitiesFailed
			view.CitiesDisabled = true
			return view
		}
		view.Cities = cities
		view.City = sel.City()
		return view
	}
	view.CitiesDisabled = true
	return view
}

// Countries returns the sorted country list.
func (s *Session) Countries(ctx context.Context) ([]lookup.Country, error) {
	countries, err := s.lookup.ListCountries(ctx)
	if err != nil {
		s.lookupFailed(ctx, "countries", err)
		return nil, fmt.Errorf("wizard: list countries: %w", err)
	}
	return lookup.SortCountries(countries), nil
}

// Cities returns the sorted cities of country.
func (s *Session) Cities(ctx context.Context, country string) ([]string, error) {
	cities, err := s.lookup.ListCities(ctx, country)
	if err != nil {
		if !errors.Is(err, lookup.ErrUnknownCountry) {
			s.lookupFailed(ctx, "cities", err)
		}
		return nil, fmt.Errorf("wizard: list cities: %w", err)
	}
	return lookup.SortCities(cities), nil
}

// SelectCountry records a country choice for the location step, clears the
// city and returns the refreshed options.
func (s *Session) SelectCountry(ctx context.Context, code string) (LocationView, error) {
	sel, err := s.locationSelection()
	if err != nil {
		return LocationView{}, err
	}
	sel.SelectCountry(code)
	return s.LocationOptions(ctx), nil
}

// SelectCity records a city choice. It fails when no country is selected.
func (s *Session) SelectCity(city string) error {
	sel, err := s.locationSelection()
	if err != nil {
		return err
	}
	return sel.SelectCity(city)
}

func (s *Session) locationSelection() (*lookup.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == model.SectionLocation || (s.editing == "" && s.state == steps.Location) {
		return s.selection, nil
	}
	return nil, fmt.Errorf("%w: location is not active", ErrStepMismatch)
}
