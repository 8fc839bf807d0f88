// Package app turns a config.Config into the concrete collaborators: slot
// backend, lookup source, confirmation sink and wizard sessions.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	// SQL drivers selected by storage.driver.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/internal/metrics"
	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/store/rediskv"
	"github.com/goliatone/go-formwizard/pkg/store/sqlkv"
	"github.com/goliatone/go-formwizard/pkg/summary"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenKV opens the slot backend named by cfg.Driver. The closer releases
// connections and is never nil.
func OpenKV(ctx context.Context, cfg config.Storage) (store.KV, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return store.NewMemoryKV(), nopCloser{}, nil
	case config.DriverFile:
		kv, err := store.NewFileKV(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return kv, nopCloser{}, nil
	case config.DriverSQLite, config.DriverPostgres:
		var opts []sqlkv.Option
		if cfg.Table != "" {
			opts = append(opts, sqlkv.WithTable(cfg.Table))
		}
		kv, err := sqlkv.Open(ctx, cfg.Driver, cfg.DSN, opts...)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	case config.DriverRedis:
		kv, client, err := rediskv.Dial(ctx, cfg.RedisURL, rediskv.WithPrefix("formwizard"), rediskv.WithTTL(cfg.TTL))
		if err != nil {
			return nil, nil, err
		}
		return kv, client, nil
	}
	return nil, nil, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
}

// NewLookup builds the configured source wrapped in a TTL cache.
func NewLookup(cfg config.Lookup) (lookup.Collaborator, error) {
	var source lookup.Collaborator
	switch cfg.Source {
	case config.SourceLive:
		opts := []lookup.HTTPOption{
			lookup.WithAPIKey(cfg.APIKey),
			lookup.WithCountriesURL(cfg.CountriesURL),
			lookup.WithCitiesURL(cfg.CitiesURL),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, lookup.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		source = lookup.NewHTTP(opts...)
	case config.SourceStatic, "":
		static, err := lookup.DefaultStatic()
		if err != nil {
			return nil, err
		}
		// The embedded list needs no cache.
		return static, nil
	default:
		return nil, fmt.Errorf("app: unknown lookup source %q", cfg.Source)
	}
	// City lookups retry once, so a shared fetch may span two request timeouts.
	return lookup.NewCached(source, cfg.CacheTTL).WithFetchTimeout(2 * cfg.Timeout), nil
}

// NewSink returns where confirmed records go. Text and JSON sinks write to
// out in addition to the log.
func NewSink(format string, out io.Writer, logger *slog.Logger) summary.Sink {
	logSink := summary.LogSink{Logger: logger}
	switch format {
	case config.SinkJSON:
		return summary.MultiSink{logSink, summary.WriterSink{W: out, Format: summary.OutputFormatJSON}}
	case config.SinkPretty:
		return summary.MultiSink{logSink, summary.WriterSink{W: out, Format: summary.OutputFormatPrettyText}}
	}
	return logSink
}

// Wiring holds what every session is built from.
type Wiring struct {
	Config  config.Config
	KV      store.KV
	Lookup  lookup.Collaborator
	Sink    summary.Sink
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewSession builds a session over the slot scoped by id. An empty id uses
// the unscoped slot, as the terminal wizard does.
func (w Wiring) NewSession(ctx context.Context, id string) (*wizard.Session, error) {
	kv := w.KV
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if id != "" {
		kv = store.Scoped(kv, id)
		logger = logger.With("session", id)
	}

	storeOpts := []store.Option{store.WithKey(w.Config.Storage.Key), store.WithLogger(logger)}
	wizardOpts := []wizard.Option{
		wizard.WithConfig(w.Config.Wizard),
		wizard.WithLookup(w.Lookup),
		wizard.WithSink(w.Sink),
		wizard.WithLogger(logger),
	}
	if w.Metrics != nil {
		storeOpts = append(storeOpts, store.WithWriteObserver(w.Metrics.SlotWriteFailed))
		wizardOpts = append(wizardOpts, wizard.WithObserver(w.Metrics))
	}
	return wizard.New(store.New(ctx, kv, storeOpts...), wizardOpts...)
}
