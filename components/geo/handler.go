package geo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goliatone/go-formwizard/pkg/lookup"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type optionsResponse struct {
	Data  []Option `json:"data"`
	Error string   `json:"error,omitempty"`
}

// MsgCountryRequired is returned when the cities query has no country.
const MsgCountryRequired = "country is required"

// CountriesHandler builds the countries handler with default options plus
// any overrides.
func CountriesHandler(fns ...OptionFn) http.Handler {
	return CountriesHandlerWithOptions(NewOptions(fns...))
}

// CitiesHandler builds the cities handler with default options plus any
// overrides.
func CitiesHandler(fns ...OptionFn) http.Handler {
	return CitiesHandlerWithOptions(NewOptions(fns...))
}

// CountriesHandlerWithOptions serves the sorted country list.
func CountriesHandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return guarded(opts, func(w http.ResponseWriter, r *http.Request, source lookup.Collaborator) {
		countries, err := source.ListCountries(r.Context())
		if err != nil {
			opts.reportError(r, "countries", err)
			writeOptions(w, r, http.StatusBadGateway, optionsResponse{Data: []Option{}, Error: lookup.MsgCountriesFailed})
			return
		}

		options := make([]Option, 0, len(countries))
		for _, country := range lookup.SortCountries(countries) {
			options = append(options, Option{Value: country.Code, Label: country.Name})
		}
		writeSearch(w, r, options, opts)
	})
}

// CitiesHandlerWithOptions serves the sorted cities of ?country=.
func CitiesHandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return guarded(opts, func(w http.ResponseWriter, r *http.Request, source lookup.Collaborator) {
		country := r.URL.Query().Get(opts.CountryParam)
		if country == "" {
			writeOptions(w, r, http.StatusBadRequest, optionsResponse{Data: []Option{}, Error: MsgCountryRequired})
			return
		}

		cities, err := source.ListCities(r.Context(), country)
		if err != nil {
			if errors.Is(err, lookup.ErrUnknownCountry) {
				writeOptions(w, r, http.StatusNotFound, optionsResponse{Data: []Option{}, Error: lookup.MsgCitiesFailed})
				return
			}
			opts.reportError(r, "cities", err)
			writeOptions(w, r, http.StatusBadGateway, optionsResponse{Data: []Option{}, Error: lookup.MsgCitiesFailed})
			return
		}

		options := make([]Option, 0, len(cities))
		for _, city := range lookup.SortCities(cities) {
			options = append(options, Option{Value: city, Label: city})
		}
		writeSearch(w, r, options, opts)
	})
}

func guarded(opts Options, serve func(http.ResponseWriter, *http.Request, lookup.Collaborator)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		source := opts.Source
		if source == nil {
			static, err := lookup.DefaultStatic()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			source = static
		}
		serve(w, r, source)
	})
}

func (o Options) reportError(r *http.Request, query string, err error) {
	if o.OnError != nil {
		o.OnError(r, query, err)
	}
}

func writeSearch(w http.ResponseWriter, r *http.Request, options []Option, opts Options) {
	query := r.URL.Query().Get(opts.SearchParam)
	limit := parseInt(r.URL.Query().Get(opts.LimitParam))

	results := Search(options, query, limit, opts)
	if results == nil {
		results = []Option{}
	}
	writeOptions(w, r, http.StatusOK, optionsResponse{Data: results})
}

func writeOptions(w http.ResponseWriter, r *http.Request, code int, payload optionsResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
