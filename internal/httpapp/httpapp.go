// Package httpapp serves the wizard over HTTP: server-rendered pages with
// post/redirect/get navigation, a JSON API over the same sessions, the geo
// option endpoints and the operational routes.
package httpapp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"github.com/goliatone/go-formwizard/components/geo"
	"github.com/goliatone/go-formwizard/internal/apidoc"
	"github.com/goliatone/go-formwizard/internal/metrics"
	"github.com/goliatone/go-formwizard/internal/session"
	"github.com/goliatone/go-formwizard/pkg/lookup"
	"github.com/goliatone/go-formwizard/pkg/render"
)

// Deps are the collaborators of the HTTP application.
type Deps struct {
	Sessions  *session.Manager
	Renderers *render.Registry
	Lookup    lookup.Collaborator
	Metrics   *metrics.Metrics
	Doc       *openapi3.T
	Logger    *slog.Logger

	// RenderOptions are passed to every page render. BasePath is also the
	// mount point of every route.
	RenderOptions render.RenderOptions
	// RequestTimeout bounds a single request; zero disables it.
	RequestTimeout time.Duration
}

// Handler owns the wizard routes.
type Handler struct {
	sessions  *session.Manager
	renderers *render.Registry
	lookup    lookup.Collaborator
	metrics   *metrics.Metrics
	doc       *openapi3.T
	logger    *slog.Logger
	opts      render.RenderOptions
	timeout   time.Duration
}

// New validates deps and builds the handler.
func New(deps Deps) (*Handler, error) {
	if deps.Sessions == nil {
		return nil, errors.New("httpapp: session manager is required")
	}
	if deps.Renderers == nil || len(deps.Renderers.List()) == 0 {
		return nil, errors.New("httpapp: at least one renderer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Lookup == nil {
		static, err := lookup.DefaultStatic()
		if err != nil {
			return nil, err
		}
		deps.Lookup = static
	}
	if deps.Doc == nil {
		return nil, errors.New("httpapp: api document is required")
	}
	opts := deps.RenderOptions
	opts.BasePath = normalizeBase(opts.BasePath)
	return &Handler{
		sessions:  deps.Sessions,
		renderers: deps.Renderers,
		lookup:    deps.Lookup,
		metrics:   deps.Metrics,
		doc:       deps.Doc,
		logger:    deps.Logger,
		opts:      opts,
		timeout:   deps.RequestTimeout,
	}, nil
}

// Router builds the full chi router, mounted under the base path.
func (h *Handler) Router() (chi.Router, error) {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.RealIP)
	root.Use(middleware.Recoverer)
	root.Use(requestLogger(h.logger, h.metrics))
	if h.timeout > 0 {
		root.Use(middleware.Timeout(h.timeout))
	}

	if h.opts.BasePath == "" {
		if err := h.Register(root); err != nil {
			return nil, err
		}
		return root, nil
	}
	sub := chi.NewRouter()
	if err := h.Register(sub); err != nil {
		return nil, err
	}
	root.Mount(h.opts.BasePath, sub)
	return root, nil
}

// Register adds every route to r, relative to the mount point.
func (h *Handler) Register(r chi.Router) error {
	docHandler, err := apidoc.Handler(h.doc, h.opts.BasePath)
	if err != nil {
		return err
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/openapi.json", docHandler)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	geoRoutes := geo.New(
		geo.WithSource(h.lookup),
		geo.WithErrorHook(func(r *http.Request, query string, err error) {
			h.metrics.LookupFailed(query)
			h.logger.WarnContext(r.Context(), "geo lookup failed", "query", query, "error", err)
		}),
	)
	if _, err := geoRoutes.RegisterRoutes(r, "/"); err != nil {
		return fmt.Errorf("httpapp: geo routes: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)
		h.registerPages(r)
		h.registerAPI(r)
	})
	return nil
}

func requestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			elapsed := time.Since(start)
			m.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed)

			ua := useragent.New(r.UserAgent())
			browser, version := ua.Browser()
			logger.InfoContext(r.Context(), "request served",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"duration", elapsed,
				"browser", browser,
				"browser_version", version,
				"os", ua.OS(),
				"mobile", ua.Mobile(),
				"bot", ua.Bot(),
			)
		})
	}
}

func normalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return "/" + base
}
