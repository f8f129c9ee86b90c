package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
)

// Config controls the session cookie and lifetime.
type Config struct {
	CookieName      string
	TTL             time.Duration
	ResolveInterval time.Duration
	Secure          bool
	Domain          string
}

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "mediconnect_session"

type ctxKey struct{}

// Manager loads, resolves and persists sessions around each request.
type Manager struct {
	store    Store
	codec    *CookieCodec
	resolver *Resolver
	cfg      Config
	now      func() time.Time
	newID    func() string
}

// NewManager creates a session manager.
func NewManager(store Store, codec *CookieCodec, resolver *Resolver, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Manager{
		store:    store,
		codec:    codec,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// FromContext returns the request's session. It is nil outside Middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Middleware attaches the caller's session to the request context, creating
// one when the cookie is missing or stale, and resolves its role when due.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, fresh, err := m.load(r)
		if err != nil {
			ctxlog.FromContext(ctx).Error("failed to load session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		changed := fresh
		if s.NeedsResolve(m.now(), m.cfg.ResolveInterval) {
			m.resolve(ctx, s)
			changed = true
		}

		if changed {
			if err := m.Save(w, r.WithContext(ctx), s); err != nil {
				ctxlog.FromContext(ctx).Error("failed to save session", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		ctx = ctxlog.With(ctx, "session_state", string(s.State))
		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
	})
}

func (m *Manager) load(r *http.Request) (*Session, bool, error) {
	ctx := r.Context()

	ck, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return New(m.newID(), m.now()), true, nil
	}

	id, err := m.codec.Decode(ck.Value)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("discarding session cookie", "error", err)
		return New(m.newID(), m.now()), true, nil
	}

	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return New(m.newID(), m.now()), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

func (m *Manager) resolve(ctx context.Context, s *Session) {
	ev := Unresolved()
	if role, ok := m.resolver.Resolve(ctx, s.Credentials); ok {
		ev = Resolved(role)
	}

	if err := s.Apply(ev, m.now()); err != nil {
		ctxlog.FromContext(ctx).Warn("session resolution rejected", "error", err)
		_ = s.Apply(Unresolved(), m.now())
	}
}

// Resolve asks the platform for the session's role and applies the answer.
// It reports whether the session ended up authenticated.
func (m *Manager) Resolve(ctx context.Context, s *Session) bool {
	m.resolve(ctx, s)
	return s.Authenticated()
}

// LogIn asks the platform who owns creds and signs s in as that role. It
// reports false, leaving s unauthenticated, when the platform cannot say.
func (m *Manager) LogIn(ctx context.Context, s *Session, creds backend.Credentials) bool {
	role, ok := m.resolver.Resolve(ctx, creds)
	if !ok {
		_ = s.Apply(Unresolved(), m.now())
		return false
	}

	if err := s.Apply(LoggedIn(role, creds), m.now()); err != nil {
		ctxlog.FromContext(ctx).Warn("login rejected by session", "error", err)
		return false
	}
	return true
}

// Apply runs ev through s using the manager's clock.
func (m *Manager) Apply(s *Session, ev Event) error {
	return s.Apply(ev, m.now())
}

// Save persists s and refreshes the browser cookie. Handlers call it before
// writing the response.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Save(r.Context(), s, m.cfg.TTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	token, err := m.codec.Encode(s.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(token, int(m.cfg.TTL.Seconds())))
	return nil
}

// Rotate moves s to a new ID, dropping the old record. Used on login.
func (m *Manager) Rotate(w http.ResponseWriter, r *http.Request, s *Session) error {
	old := s.ID
	s.ID = m.newID()

	if err := m.store.Delete(r.Context(), old); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return m.Save(w, r, s)
}

// Destroy removes s and expires the browser cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Delete(r.Context(), s.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	http.SetCookie(w, m.cookie("", -1))
	return nil
}

// Ping checks the session store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
