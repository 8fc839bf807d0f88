package lookup

import (
	"context"
	"strings"
	"sync"
)

// Ticket identifies one country selection. City responses are only applied
// while their ticket is still current.
type Ticket struct {
	Country    string
	generation uint64
}

// Selection tracks the chosen country and city with last-selection-wins
// semantics: choosing a country clears the city and invalidates every ticket
// issued before.
type Selection struct {
	mu         sync.Mutex
	country    string
	city       string
	generation uint64
}

// NewSelection seeds a selection, typically from a stored record.
func NewSelection(country, city string) *Selection {
	s := &Selection{}
	s.country = strings.TrimSpace(country)
	if s.country != "" {
		s.city = strings.TrimSpace(city)
	}
	return s
}

// SelectCountry replaces the country, clears the city and returns the new
// ticket.
func (s *Selection) SelectCountry(code string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.country = strings.ToUpper(strings.TrimSpace(code))
	s.city = ""
	s.generation++
	return Ticket{Country: s.country, generation: s.generation}
}

// Ticket returns the ticket for the current country.
func (s *Selection) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Ticket{Country: s.country, generation: s.generation}
}

// Current reports whether t still matches the latest selection.
func (s *Selection) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.generation == s.generation && t.Country == s.country
}

// SelectCity records city. It fails when no country is selected.
func (s *Selection) SelectCity(city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.country == "" {
		return ErrNoCountry
	}
	s.city = strings.TrimSpace(city)
	return nil
}

// Country returns the selected country code.
func (s *Selection) Country() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.country
}

// City returns the selected city.
func (s *Selection) City() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.city
}

// LoadCities fetches the cities for t's country and returns ErrStale when the
// selection moved on while the request was in flight. Cities are sorted.
func LoadCities(ctx context.Context, source Collaborator, sel *Selection, t Ticket) ([]string, error) {
	if t.Country == "" {
		return nil, ErrNoCountry
	}
	cities, err := source.ListCities(ctx, t.Country)
	if !sel.Current(t) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	return SortCities(cities), nil
}
