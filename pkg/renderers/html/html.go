// Package html renders wizard pages as server-side HTML with pongo2
// templates, go-theme tokens and sanitized brand markup.
package html

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/render/template"
	"github.com/goliatone/go-formwizard/pkg/render/template/gotemplate"
)

// Name is the registry name of the HTML renderer.
const Name = "html"

const defaultPageTemplate = "page"

//go:embed templates/*.tmpl
var embedded embed.FS

// Templates returns the embedded template set.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option configures the Renderer.
type Option func(*options)

type options struct {
	engine       template.TemplateRenderer
	templatesDir string
	selector     theme.ThemeSelector
}

// WithTemplateRenderer replaces the template engine.
func WithTemplateRenderer(engine template.TemplateRenderer) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithTemplatesDir loads templates from dir first, falling back to the
// embedded set for files dir does not provide.
func WithTemplatesDir(dir string) Option {
	return func(o *options) {
		o.templatesDir = strings.TrimSpace(dir)
	}
}

// WithThemeSelector sets the theme source.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *options) {
		o.selector = selector
	}
}

// Renderer implements render.Renderer for browsers.
type Renderer struct {
	engine   template.TemplateRenderer
	selector theme.ThemeSelector
}

var _ render.Renderer = (*Renderer)(nil)

// New builds a Renderer with the embedded templates and default theme unless
// options say otherwise.
func New(opts ...Option) (*Renderer, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.engine == nil {
		engineOpts := []gotemplate.Option{gotemplate.WithFS(Templates())}
		if o.templatesDir != "" {
			engineOpts = append(engineOpts, gotemplate.WithBaseDir(o.templatesDir))
		}
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("html: template engine: %w", err)
		}
		o.engine = engine
	}

	if o.selector == nil {
		selector, err := NewStaticSelector(DefaultThemeName, DefaultThemeVariant, DefaultManifest())
		if err != nil {
			return nil, err
		}
		o.selector = selector
	}

	return &Renderer{engine: o.engine, selector: o.selector}, nil
}

func (r *Renderer) Name() string        { return Name }
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *Renderer) Render(_ context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	selection, err := r.selector.Select(opts.Theme, opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("html: select theme: %w", err)
	}
	cfg := RendererConfig(selection)

	themeData := map[string]any{}
	pageTemplate := defaultPageTemplate
	if cfg != nil {
		themeData["name"] = cfg.Theme
		themeData["variant"] = cfg.Variant
		themeData["style"] = cssVarsStyle(cfg.CSSVars)
		themeData["stylesheet"] = cfg.AssetURL(StylesheetAssetKey)
		if override := strings.TrimSpace(cfg.Partials[PageTemplateKey]); override != "" {
			pageTemplate = override
		}
	}

	data := map[string]any{
		"page":  page,
		"form":  page.Form,
		"base":  strings.TrimRight(opts.BasePath, "/"),
		"brand": SanitizeBrand(opts.Brand),
		"theme": themeData,
	}

	out, err := r.engine.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html: render %s: %w", page.Step, err)
	}
	return []byte(out), nil
}

var (
	brandPolicyOnce sync.Once
	brandPolicy     *bluemonday.Policy
)

// SanitizeBrand strips everything but basic formatting, links, images and
// inline SVG from operator supplied header markup.
func SanitizeBrand(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(brandSanitizer().Sanitize(trimmed))
}

func brandSanitizer() *bluemonday.Policy {
	brandPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowElements("svg", "path", "g", "title")
		policy.AllowAttrs("xmlns", "viewBox", "width", "height", "fill", "role", "aria-hidden").OnElements("svg")
		policy.AllowAttrs("d", "fill").OnElements("path")
		brandPolicy = policy
	})
	return brandPolicy
}
