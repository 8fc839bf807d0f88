package html

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func newSession(t *testing.T) *wizard.Session {
	t.Helper()
	sess, err := wizard.New(store.New(context.Background(), store.NewMemoryKV()))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func renderPage(t *testing.T, r *Renderer, sess *wizard.Session, outcome *wizard.Outcome, opts render.RenderOptions) string {
	t.Helper()
	page, err := render.Build(context.Background(), sess, outcome)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := r.Render(context.Background(), page, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func submitAll(t *testing.T, sess *wizard.Session) {
	t.Helper()
	inputs := []struct {
		id     steps.ID
		values validation.Values
	}{
		{steps.Personal, validation.Values{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}},
		{steps.Location, validation.Values{"country": "US", "city": "Chicago"}},
		{steps.Payment, validation.Values{"cardNumber": "4111111111111111", "expiryDate": "1225", "cvv": "123"}},
	}
	for _, in := range inputs {
		if out, err := sess.Submit(context.Background(), in.id, in.values); err != nil || !out.Accepted {
			t.Fatalf("submit %s: %#v %v", in.id, out, err)
		}
	}
}

func TestRenderPersonalWithErrors(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sess := newSession(t)
	outcome, err := sess.Submit(context.Background(), steps.Personal, validation.Values{"firstName": "Ada", "email": "bad"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	out := renderPage(t, r, sess, &outcome, render.RenderOptions{BasePath: "/wizard/"})
	assertContains(t, out,
		`action="/wizard/"`,
		`name="firstName" type="text" value="Ada"`,
		validation.MsgLastNameRequired,
		validation.MsgEmailInvalid,
		`data-theme="formwizard" data-variant="light"`,
		"--brand: #2f6feb;",
	)
	if strings.Contains(out, `value="back"`) {
		t.Fatalf("first step must not offer back")
	}
}

func TestRenderLocationChoices(t *testing.T) {
	r, _ := New()
	sess := newSession(t)
	if _, err := sess.Submit(context.Background(), steps.Personal, validation.Values{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := sess.SelectCountry(context.Background(), "FR"); err != nil {
		t.Fatalf("select: %v", err)
	}

	out := renderPage(t, r, sess, nil, render.RenderOptions{})
	assertContains(t, out,
		"Personal information saved!",
		`<option value="FR" selected>France</option>`,
		`<option value="Lyon">Lyon</option>`,
		`value="back"`,
	)
}

func TestRenderSummaryMasksCard(t *testing.T) {
	r, _ := New()
	sess := newSession(t)
	submitAll(t, sess)

	out := renderPage(t, r, sess, nil, render.RenderOptions{Variant: "dark"})
	assertContains(t, out,
		"**** **** **** 1111",
		"Same as shipping",
		`action="/summary/confirm"`,
		`action="/summary/edit/payment"`,
		"--surface: #0d1117;",
	)
	if strings.Contains(out, "4111111111111111") {
		t.Fatalf("summary leaked the card number")
	}

	if err := sess.Edit(model.SectionPayment); err != nil {
		t.Fatalf("edit: %v", err)
	}
	out = renderPage(t, r, sess, nil, render.RenderOptions{})
	assertContains(t, out, `action="/summary/sections/payment"`, `formaction="/summary/close"`)
	if strings.Contains(out, `action="/summary/confirm"`) {
		t.Fatalf("confirm must be hidden while editing")
	}
}

func TestRenderBrandIsSanitized(t *testing.T) {
	r, _ := New()
	out := renderPage(t, r, newSession(t), nil, render.RenderOptions{
		Brand: `<strong class="logo">Acme</strong><script>alert(1)</script>`,
	})
	assertContains(t, out, `<strong class="logo">Acme</strong>`)
	if strings.Contains(out, "<script>") {
		t.Fatalf("brand markup was not sanitized:\n%s", out)
	}
}

func TestRenderUnknownTheme(t *testing.T) {
	r, _ := New()
	page, _ := render.Build(context.Background(), newSession(t), nil)
	if _, err := r.Render(context.Background(), page, render.RenderOptions{Theme: "nope"}); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if _, err := r.Render(context.Background(), page, render.RenderOptions{Variant: "sepia"}); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestThemeTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "minimal.tmpl"), []byte("step={{ page.step }} brand={{ theme.stylesheet }}"), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	manifest := &theme.Manifest{
		Name:      "minimal",
		Version:   "0.1.0",
		Templates: map[string]string{PageTemplateKey: "minimal"},
		Assets: theme.Assets{
			Prefix: "/assets/minimal",
			Files:  map[string]string{StylesheetAssetKey: "wizard.css"},
		},
	}
	selector, err := NewStaticSelector("minimal", "", manifest, DefaultManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	r, err := New(WithTemplatesDir(dir), WithThemeSelector(selector))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out := renderPage(t, r, newSession(t), nil, render.RenderOptions{})
	if out != "step=personal brand=/assets/minimal/wizard.css" {
		t.Fatalf("unexpected override output %q", out)
	}

	out = renderPage(t, r, newSession(t), nil, render.RenderOptions{Theme: DefaultThemeName})
	assertContains(t, out, "<!DOCTYPE html>")
}

func TestRendererConfigMergesVariant(t *testing.T) {
	selector, err := NewStaticSelector(DefaultThemeName, DefaultThemeVariant, DefaultManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	sel, err := selector.Select("", "dark")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	cfg := RendererConfig(sel)
	if cfg.Tokens["surface"] != "#0d1117" || cfg.Tokens["radius"] != "6px" {
		t.Fatalf("tokens not merged: %#v", cfg.Tokens)
	}
	if cfg.CSSVars["--brand"] != "#58a6ff" {
		t.Fatalf("css vars: %#v", cfg.CSSVars)
	}
	if cfg.AssetURL(StylesheetAssetKey) != "" {
		t.Fatalf("default theme ships no stylesheet")
	}
}

type recordingEngine struct {
	name string
	data map[string]any
	err  error
}

func (e *recordingEngine) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	e.name = name
	e.data, _ = data.(map[string]any)
	return "rendered", e.err
}

func TestRenderUsesInjectedTemplateRenderer(t *testing.T) {
	engine := &recordingEngine{}
	r, err := New(WithTemplateRenderer(engine))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out := renderPage(t, r, newSession(t), nil, render.RenderOptions{
		BasePath: "/wizard/",
		Brand:    `<b>Acme</b><script>alert(1)</script>`,
	})
	if out != "rendered" {
		t.Fatalf("unexpected output %q", out)
	}
	if engine.name != defaultPageTemplate {
		t.Fatalf("template = %q, want %q", engine.name, defaultPageTemplate)
	}
	if got := engine.data["base"]; got != "/wizard" {
		t.Fatalf("base = %v", got)
	}
	if got := engine.data["brand"]; got != "<b>Acme</b>" {
		t.Fatalf("brand = %v", got)
	}
	if _, ok := engine.data["page"].(render.Page); !ok {
		t.Fatalf("page data missing: %#v", engine.data["page"])
	}
}

func TestRenderWrapsTemplateRendererError(t *testing.T) {
	boom := errors.New("boom")
	r, err := New(WithTemplateRenderer(&recordingEngine{err: boom}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	page, err := render.Build(context.Background(), newSession(t), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := r.Render(context.Background(), page, render.RenderOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped engine error, got %v", err)
	}
}
