package main

import (
	"context"
	"io"

	"github.com/goliatone/go-formwizard/internal/app"
	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// openLocal builds a session for the terminal commands. The in-memory
// driver would lose progress between runs, so it is swapped for the file
// backend under storage.dir.
func openLocal(ctx context.Context, opts *rootOptions, id string, sink io.Writer) (*wizard.Session, io.Closer, error) {
	cfg := opts.cfg
	storage := cfg.Storage
	if storage.Driver == config.DriverMemory || storage.Driver == "" {
		storage.Driver = config.DriverFile
	}
	kv, closer, err := app.OpenKV(ctx, storage)
	if err != nil {
		return nil, nil, err
	}
	source, err := app.NewLookup(cfg.Lookup)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	wiring := app.Wiring{
		Config: cfg,
		KV:     kv,
		Lookup: source,
		Sink:   app.NewSink(cfg.Sink, sink, opts.logger),
		Logger: opts.logger,
	}
	sess, err := wiring.NewSession(ctx, id)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return sess, closer, nil
}
