package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCountriesURL = "https://restcountries.com/v3.1/all?fields=name,cca2"
	DefaultCitiesURL    = "https://wft-geo-db.p.rapidapi.com/v1/geo/cities"
	DefaultAPIHost      = "wft-geo-db.p.rapidapi.com"
	DefaultCityLimit    = 10

	tracerName = "github.com/goliatone/go-formwizard/pkg/lookup"
)

// StatusError reports a non-2xx response from a remote source.
type StatusError struct {
	URL  string
	Code int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("lookup: %s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// HTTPOption configures the live client.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the transport.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithCountriesURL overrides the countries endpoint.
func WithCountriesURL(raw string) HTTPOption {
	return func(c *HTTPClient) {
		if raw = strings.TrimSpace(raw); raw != "" {
			c.countriesURL = raw
		}
	}
}

// WithCitiesURL overrides the cities endpoint. The country code and limit are
// appended as the countryIds and limit query parameters.
func WithCitiesURL(raw string) HTTPOption {
	return func(c *HTTPClient) {
		if raw = strings.TrimSpace(raw); raw != "" {
			c.citiesURL = raw
		}
	}
}

// WithAPIKey sets the credential sent as X-RapidAPI-Key on city requests.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPClient) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithAPIHost overrides the X-RapidAPI-Host header value.
func WithAPIHost(host string) HTTPOption {
	return func(c *HTTPClient) {
		if host = strings.TrimSpace(host); host != "" {
			c.apiHost = host
		}
	}
}

// WithCityLimit caps the number of cities requested.
func WithCityLimit(limit int) HTTPOption {
	return func(c *HTTPClient) {
		if limit > 0 {
			c.cityLimit = limit
		}
	}
}

// WithCityRetries sets how many times a failed city lookup is retried.
func WithCityRetries(retries int, delay time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if retries >= 0 {
			c.cityRetries = retries
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// HTTPClient queries restcountries for countries and GeoDB for cities.
type HTTPClient struct {
	client       *http.Client
	countriesURL string
	citiesURL    string
	apiKey       string
	apiHost      string
	cityLimit    int
	cityRetries  int
	retryDelay   time.Duration
	tracer       trace.Tracer
}

var _ Collaborator = (*HTTPClient)(nil)

// NewHTTP builds a live client. City lookups are retried once by default.
func NewHTTP(opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		client:       &http.Client{Timeout: 10 * time.Second},
		countriesURL: DefaultCountriesURL,
		citiesURL:    DefaultCitiesURL,
		apiHost:      DefaultAPIHost,
		cityLimit:    DefaultCityLimit,
		cityRetries:  1,
		retryDelay:   250 * time.Millisecond,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
}

type geoCitiesResponse struct {
	Data []struct {
		Name string `json:"name"`
	} `json:"data"`
}

func (c *HTTPClient) ListCountries(ctx context.Context) (out []Country, err error) {
	ctx, span := c.tracer.Start(ctx, "lookup.ListCountries")
	defer func() { endSpan(span, err) }()

	var payload []restCountry
	if err := c.getJSON(ctx, c.countriesURL, nil, &payload); err != nil {
		return nil, err
	}
	out = make([]Country, 0, len(payload))
	for _, item := range payload {
		if item.CCA2 == "" || item.Name.Common == "" {
			continue
		}
		out = append(out, Country{Name: item.Name.Common, Code: strings.ToUpper(item.CCA2)})
	}
	span.SetAttributes(attribute.Int("lookup.results", len(out)))
	return out, nil
}

func (c *HTTPClient) ListCities(ctx context.Context, countryCode string) (out []string, err error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	ctx, span := c.tracer.Start(ctx, "lookup.ListCities",
		trace.WithAttributes(attribute.String("lookup.country", countryCode)))
	defer func() { endSpan(span, err) }()

	if countryCode == "" {
		return nil, ErrNoCountry
	}

	endpoint, err := url.Parse(c.citiesURL)
	if err != nil {
		return nil, fmt.Errorf("lookup: parse cities url: %w", err)
	}
	query := endpoint.Query()
	query.Set("countryIds", countryCode)
	query.Set("limit", strconv.Itoa(c.cityLimit))
	endpoint.RawQuery = query.Encode()

	headers := http.Header{}
	if c.apiKey != "" {
		headers.Set("X-RapidAPI-Key", c.apiKey)
	}
	headers.Set("X-RapidAPI-Host", c.apiHost)

	var payload geoCitiesResponse
	for attempt := 0; ; attempt++ {
		err = c.getJSON(ctx, endpoint.String(), headers, &payload)
		if err == nil || attempt >= c.cityRetries || ctx.Err() != nil {
			break
		}
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("lookup.attempt", attempt+1)))
		if werr := sleepContext(ctx, c.retryDelay); werr != nil {
			err = werr
			break
		}
	}
	if err != nil {
		return nil, err
	}

	out = make([]string, 0, len(payload.Data))
	for _, item := range payload.Data {
		if name := strings.TrimSpace(item.Name); name != "" {
			out = append(out, name)
		}
	}
	span.SetAttributes(attribute.Int("lookup.results", len(out)))
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, headers http.Header, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("lookup: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for name, values := range headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("lookup: request %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return StatusError{URL: redact(rawURL), Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("lookup: decode %s: %w", redact(rawURL), err)
	}
	return nil
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
