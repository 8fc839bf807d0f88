// Package session maps browser cookies to wizard sessions. The cookie holds
// an HS256-signed token whose ID claim is the session id; each id owns one
// wizard.Session whose slot is namespaced by that id.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const issuer = "formwizard"

var (
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrNoSession is returned when a request context carries no session.
	ErrNoSession = errors.New("session: none in context")
)

// Factory builds the wizard session for a new id.
type Factory func(ctx context.Context, id string) (*wizard.Session, error)

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName overrides the cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL sets the cookie lifetime and the idle eviction age.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithPath scopes the cookie to a mount path.
func WithPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSizeObserver is told the number of live sessions after each change.
func WithSizeObserver(fn func(int)) Option {
	return func(m *Manager) {
		m.onSize = fn
	}
}

type entry struct {
	sess     *wizard.Session
	lastSeen time.Time
}

// Manager issues session cookies and holds the live sessions.
type Manager struct {
	secret     []byte
	factory    Factory
	cookieName string
	path       string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
	onSize     func(int)

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager builds a manager signing with secret.
func NewManager(secret string, factory Factory, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if factory == nil {
		return nil, errors.New("session: factory is required")
	}
	m := &Manager{
		secret:     []byte(secret),
		factory:    factory,
		cookieName: "formwizard_session",
		path:       "/",
		ttl:        24 * time.Hour,
		now:        time.Now,
		sessions:   make(map[string]*entry),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// CookieName returns the cookie the manager reads and writes.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue signs a token for id.
func (m *Manager) Issue(id string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its session id.
func (m *Manager) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}
	return claims.ID, nil
}

// Resolve returns the session for the request cookie, starting a new one
// (and setting the cookie) when the cookie is absent or invalid.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (string, *wizard.Session, error) {
	id := ""
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		id, _ = m.Parse(cookie.Value)
	}
	fresh := id == ""
	if fresh {
		id = uuid.NewString()
	}

	sess, err := m.session(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	if fresh {
		token, err := m.Issue(id)
		if err != nil {
			return "", nil, err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    token,
			Path:     m.path,
			MaxAge:   int(m.ttl / time.Second),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id, sess, nil
}

// Get returns a live session without creating one.
func (m *Manager) Get(id string) (*wizard.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Their slots stay in storage.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	size := len(m.sessions)
	m.mu.Unlock()
	if removed > 0 {
		m.notify(size)
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) session(ctx context.Context, id string) (*wizard.Session, error) {
	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.sess, nil
	}
	m.mu.Unlock()

	sess, err := m.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: start %s: %w", id, err)
	}

	m.mu.Lock()
	// Another request may have started the same id meanwhile.
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.sess, nil
	}
	m.sessions[id] = &entry{sess: sess, lastSeen: m.now()}
	size := len(m.sessions)
	m.mu.Unlock()
	m.notify(size)
	return sess, nil
}

func (m *Manager) notify(size int) {
	if m.onSize != nil {
		m.onSize(size)
	}
}

type ctxKey struct{}

type resolved struct {
	id   string
	sess *wizard.Session
}

// Middleware resolves the session once per request and stores it in the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, sess, err := m.Resolve(w, r)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, resolved{id: id, sess: sess})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session placed by Middleware.
func FromContext(ctx context.Context) (string, *wizard.Session, error) {
	v, ok := ctx.Value(ctxKey{}).(resolved)
	if !ok || v.sess == nil {
		return "", nil, ErrNoSession
	}
	return v.id, v.sess, nil
}
