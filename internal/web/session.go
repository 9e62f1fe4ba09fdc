package web

import (
	"context"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/views"
)

const (
	sessionCookie = "ecn_session"
	flashCookie   = "ecn_flash"
)

type ctxKey int

const storeKey ctxKey = iota

func withStore(ctx context.Context, s *auth.Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// storeFrom returns the request's Auth Store. Requests outside withSession get an empty one.
func storeFrom(r *http.Request) *auth.Store {
	if s, ok := r.Context().Value(storeKey).(*auth.Store); ok {
		return s
	}
	s := auth.NewStore("", nil, nil)
	s.Restore(r.Context())
	return s
}

func currentSession(r *http.Request) models.Session {
	return storeFrom(r).Current()
}

// withSession restores the Auth Store named by the session cookie.
func (a *App) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var store *auth.Store
		if key, ok := a.sessionKey(r); ok {
			store = auth.NewStore(key, a.sessions, a.logger)
		} else {
			store = auth.NewStore("", nil, a.logger)
		}
		store.Restore(r.Context())
		next.ServeHTTP(w, r.WithContext(withStore(r.Context(), store)))
	})
}

// guard applies the route guard: loading page, redirect to login or the protected page.
func (a *App) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch storeFrom(r).Decide() {
		case auth.Loading:
			w.Header().Set("Retry-After", "1")
			a.render(w, r, page{name: "loading.html", status: http.StatusServiceUnavailable, Title: "Loading"})
		case auth.Redirect:
			http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (a *App) sessionKey(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	var key string
	if err := a.cookies.Decode(sessionCookie, c.Value, &key); err != nil {
		a.logger.Debug("ignoring invalid session cookie", "error", err)
		return "", false
	}
	return key, key != ""
}

func (a *App) setSessionCookie(w http.ResponseWriter, key string) error {
	encoded, err := a.cookies.Encode(sessionCookie, key)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *App) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlash stores n for the next rendered page.
func (a *App) setFlash(w http.ResponseWriter, n views.Notice) {
	encoded, err := a.cookies.Encode(flashCookie, n)
	if err != nil {
		a.logger.Warn("failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns and clears the pending flash notice.
func (a *App) popFlash(w http.ResponseWriter, r *http.Request) *views.Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	a.clearCookie(w, flashCookie)

	var n views.Notice
	if err := a.cookies.Decode(flashCookie, c.Value, &n); err != nil {
		return nil
	}
	return &n
}

// loginLimiter throttles login attempts per client address.
type loginLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

// maxTrackedClients bounds the limiter map; it is reset when full.
const maxTrackedClients = 10000

func newLoginLimiter(limit rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{limit: limit, burst: burst, clients: make(map[string]*rate.Limiter)}
}

func (l *loginLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = lim
	}
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
