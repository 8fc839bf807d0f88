package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-formwizard/pkg/store"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newManager(t *testing.T, kv store.KV, opts ...Option) (*Manager, *int) {
	t.Helper()
	created := 0
	factory := func(ctx context.Context, id string) (*wizard.Session, error) {
		created++
		return wizard.New(store.New(ctx, store.Scoped(kv, id)))
	}
	m, err := NewManager("test-secret", factory, opts...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, &created
}

func TestIssueAndParse(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	m, _ := newManager(t, store.NewMemoryKV(), WithClock(c.Now), WithTTL(time.Hour))

	id := uuid.NewString()
	token, err := m.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := m.Parse(token)
	if err != nil || got != id {
		t.Fatalf("parse: %q %v", got, err)
	}

	c.now = c.now.Add(2 * time.Hour)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token should fail, got %v", err)
	}

	other, _ := newManager(t, store.NewMemoryKV(), WithClock(c.Now))
	other.secret = []byte("another-secret")
	forged, _ := other.Issue(id)
	if _, err := m.Parse(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature should fail, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{ID: id, Issuer: issuer})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := m.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unsigned token should fail, got %v", err)
	}
}

func TestParseRejectsNonUUID(t *testing.T) {
	m, _ := newManager(t, store.NewMemoryKV())
	token, _ := m.Issue("not-a-uuid")
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResolveReusesCookieSession(t *testing.T) {
	kv := store.NewMemoryKV()
	var sizes []int
	m, created := newManager(t, kv, WithSizeObserver(func(n int) { sizes = append(sizes, n) }))

	rec := httptest.NewRecorder()
	id, first, err := m.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != m.CookieName() || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %#v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/location", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	id2, second, err := m.Resolve(rec, req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id2 != id || second != first {
		t.Fatalf("cookie should map to the same session")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("a valid cookie should not be reissued")
	}
	if *created != 1 || m.Len() != 1 || len(sizes) != 1 || sizes[0] != 1 {
		t.Fatalf("unexpected bookkeeping: created=%d len=%d sizes=%v", *created, m.Len(), sizes)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "garbage"})
	id3, _, err := m.Resolve(httptest.NewRecorder(), req)
	if err != nil || id3 == id {
		t.Fatalf("a bad cookie should start a new session: %q %v", id3, err)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	m, _ := newManager(t, store.NewMemoryKV(), WithClock(c.Now), WithTTL(time.Hour))

	id, _, err := m.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	c.now = c.now.Add(30 * time.Minute)
	if m.Sweep() != 0 {
		t.Fatalf("fresh session evicted")
	}
	c.now = c.now.Add(2 * time.Hour)
	if m.Sweep() != 1 {
		t.Fatalf("idle session kept")
	}
	if _, ok := m.Get(id); ok {
		t.Fatalf("session still present")
	}
}

func TestMiddlewareStoresSession(t *testing.T) {
	m, _ := newManager(t, store.NewMemoryKV())
	var seen *wizard.Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sess, err := FromContext(r.Context())
		if err != nil {
			t.Errorf("from context: %v", err)
		}
		seen = sess
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == nil {
		t.Fatalf("session not stored in context")
	}
	if _, _, err := FromContext(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestNewManagerRequiresSecretAndFactory(t *testing.T) {
	if _, err := NewManager("", func(context.Context, string) (*wizard.Session, error) { return nil, nil }); err == nil {
		t.Fatalf("expected secret error")
	}
	if _, err := NewManager("s", nil); err == nil {
		t.Fatalf("expected factory error")
	}
}
