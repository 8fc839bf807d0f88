package geo

import (
	"net/http"

	"github.com/goliatone/go-formwizard/pkg/lookup"
)

type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchAll  EmptySearchMode = "all"
)

type GuardFunc func(r *http.Request) error

// ErrorHook observes lookup failures, query is "countries" or "cities".
type ErrorHook func(r *http.Request, query string, err error)

type Options struct {
	CountriesPath   string
	CitiesPath      string
	CountryParam    string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc
	OnError         ErrorHook

	Source lookup.Collaborator
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		CountriesPath:   "/api/countries",
		CitiesPath:      "/api/cities",
		CountryParam:    "country",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    250,
		MaxLimit:        500,
		EmptySearchMode: EmptySearchAll,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	defaults := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaults.MaxLimit
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = defaults.EmptySearchMode
	}
	if opts.CountriesPath == "" {
		opts.CountriesPath = defaults.CountriesPath
	}
	if opts.CitiesPath == "" {
		opts.CitiesPath = defaults.CitiesPath
	}
	if opts.CountryParam == "" {
		opts.CountryParam = defaults.CountryParam
	}
	if opts.SearchParam == "" {
		opts.SearchParam = defaults.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = defaults.LimitParam
	}
	return opts
}

func WithSource(source lookup.Collaborator) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = source
	}
}

func WithCountriesPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CountriesPath = path
	}
}

func WithCitiesPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.CitiesPath = path
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.EmptySearchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithErrorHook(hook ErrorHook) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.OnError = hook
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
