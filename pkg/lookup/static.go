package lookup

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/geo.json
var embeddedGeo []byte

// StaticCountry pairs a country with its cities.
type StaticCountry struct {
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	Cities []string `json:"cities"`
}

// Static serves a fixed, in-memory list.
type Static struct {
	countries []Country
	cities    map[string][]string
}

var _ Collaborator = (*Static)(nil)

var (
	defaultOnce   sync.Once
	defaultStatic *Static
	defaultErr    error
)

// DefaultStatic returns the embedded list. It is parsed once.
func DefaultStatic() (*Static, error) {
	defaultOnce.Do(func() {
		var entries []StaticCountry
		if err := json.Unmarshal(embeddedGeo, &entries); err != nil {
			defaultErr = fmt.Errorf("lookup: decode embedded geo data: %w", err)
			return
		}
		defaultStatic = NewStatic(entries)
	})
	return defaultStatic, defaultErr
}

// NewStatic builds a source from entries.
func NewStatic(entries []StaticCountry) *Static {
	s := &Static{cities: make(map[string][]string, len(entries))}
	for _, entry := range entries {
		code := strings.ToUpper(strings.TrimSpace(entry.Code))
		if code == "" {
			continue
		}
		s.countries = append(s.countries, Country{Name: entry.Name, Code: code})
		s.cities[code] = append([]string(nil), entry.Cities...)
	}
	return s
}

func (s *Static) ListCountries(ctx context.Context) ([]Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Country(nil), s.countries...), nil
}

func (s *Static) ListCities(ctx context.Context, countryCode string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cities, ok := s.cities[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCountry, countryCode)
	}
	return append([]string(nil), cities...), nil
}
