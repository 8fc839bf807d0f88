package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/apidoc"
	"github.com/goliatone/go-formwizard/internal/app"
	"github.com/goliatone/go-formwizard/internal/httpapp"
	"github.com/goliatone/go-formwizard/internal/metrics"
	"github.com/goliatone/go-formwizard/internal/session"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/html"
)

const sweepInterval = time.Minute

func serveCommand(opts *rootOptions) *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				opts.cfg.Server.BasePath = basePath
				if err := opts.cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "mount path (overrides server.base_path)")
	return cmd
}

func serve(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	kv, closer, err := app.OpenKV(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := app.NewLookup(cfg.Lookup)
	if err != nil {
		return err
	}
	m := metrics.New()
	wiring := app.Wiring{
		Config:  cfg,
		KV:      kv,
		Lookup:  source,
		Sink:    app.NewSink(cfg.Sink, cmd.OutOrStdout(), logger),
		Metrics: m,
		Logger:  logger,
	}

	cookiePath := cfg.Server.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}
	sessions, err := session.NewManager(cfg.Session.Secret, wiring.NewSession,
		session.WithCookieName(cfg.Session.CookieName),
		session.WithTTL(cfg.Session.TTL),
		session.WithSecure(cfg.Session.Secure),
		session.WithPath(cookiePath),
		session.WithSizeObserver(m.SetActiveSessions),
	)
	if err != nil {
		return err
	}

	var htmlOpts []html.Option
	if cfg.Theme.TemplatesDir != "" {
		htmlOpts = append(htmlOpts, html.WithTemplatesDir(cfg.Theme.TemplatesDir))
	}
	htmlRenderer, err := html.New(htmlOpts...)
	if err != nil {
		return err
	}
	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(render.JSONRenderer{})

	doc, err := apidoc.Load(ctx)
	if err != nil {
		return err
	}
	handler, err := httpapp.New(httpapp.Deps{
		Sessions:  sessions,
		Renderers: registry,
		Lookup:    source,
		Metrics:   m,
		Doc:       doc,
		Logger:    logger,
		RenderOptions: render.RenderOptions{
			Theme:    cfg.Theme.Name,
			Variant:  cfg.Theme.Variant,
			Brand:    cfg.Theme.Brand,
			BasePath: cfg.Server.BasePath,
		},
		RequestTimeout: 30 * time.Second,
	})
	if err != nil {
		return err
	}
	router, err := handler.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	go sessions.Run(ctx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting formwizard",
			"addr", cfg.Server.Addr,
			"base_path", cfg.Server.BasePath,
			"storage", cfg.Storage.Driver,
			"lookup", cfg.Lookup.Source,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
