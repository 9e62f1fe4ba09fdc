// Package web serves the public pages and the admin dashboard as server-rendered HTML.
//
// # Sessions
//
// The browser holds only a signed, opaque session cookie. Each request builds its own
// [auth.Store] keyed by that cookie and restores it from the configured [auth.Persister], so
// the durable session record lives server-side.
//
// # Routes
//
//	GET  /                                  public home
//	GET  /members                           public directory of active members
//	GET  /books                             public book shelf grouped by category
//	GET  /login, POST /login                sign in (rate limited per client)
//	POST /logout                            sign out
//	GET  /healthz                           liveness
//	GET  /dashboard                         overview and recent activity (guarded)
//	GET  /dashboard/upload/ecnmember        member list and add form (guarded)
//	GET  /dashboard/ecnmembers/edit/{id}    edit form (guarded)
//	GET  /dashboard/ecnmembers/delete/{id}  delete confirmation (guarded)
//	GET  /dashboard/upload/books            book list and add form (guarded)
//	GET  /dashboard/books/delete/{id}       delete confirmation (guarded)
//
// Every guarded GET form has a POST counterpart on the same path. Successful posts redirect
// and carry their notice in a one-shot flash cookie.
//
// # CSRF
//
// When a CSRF key is configured every unsafe request must carry the token rendered into forms.
package web

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/server"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
)

// ActivityLog records dashboard mutations. [*repositories.ActivityRepository] implements it.
type ActivityLog interface {
	Record(a *models.Activity) error
	List(criteria map[string]any) ([]*models.Activity, error)
}

// Options configures an [App].
type Options struct {
	API        *services.APIService
	Auth       *services.AuthService
	Sessions   auth.Persister
	Activities ActivityLog
	Logger     *log.Logger

	CSRFKey       []byte // 32 bytes; nil disables CSRF protection
	CookieKey     []byte // signs cookies; nil generates a key for this process
	SecureCookies bool
	TrustProxy    bool // take client IPs from proxy headers; the login limit keys on them

	LoginRate  rate.Limit
	LoginBurst int
}

// App holds the dependencies shared by every request.
type App struct {
	api        *services.APIService
	authSvc    *services.AuthService
	sessions   auth.Persister
	activities ActivityLog
	logger     *log.Logger

	csrfKey []byte
	cookies *securecookie.SecureCookie
	secure  bool
	proxied bool
	limiter *loginLimiter
	pages   *pages
}

// New validates opts and parses the embedded templates.
func New(opts Options) (*App, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("%w: web requires an API client", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Auth == nil {
		opts.Auth = services.NewAuthService(opts.API, "")
	}
	if opts.Sessions == nil {
		opts.Logger.Warn("no session store configured, sessions are kept in memory")
		opts.Sessions = auth.NewMemoryPersister()
	}
	if len(opts.CookieKey) == 0 {
		opts.Logger.Warn("server.cookie_key not set, browsers are signed out when the process restarts")
		opts.CookieKey = securecookie.GenerateRandomKey(32)
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = rate.Limit(1)
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &App{
		api:        opts.API,
		authSvc:    opts.Auth,
		sessions:   opts.Sessions,
		activities: opts.Activities,
		logger:     opts.Logger,
		csrfKey:    opts.CSRFKey,
		cookies:    securecookie.New(opts.CookieKey, nil),
		secure:     opts.SecureCookies,
		proxied:    opts.TrustProxy,
		limiter:    newLoginLimiter(opts.LoginRate, opts.LoginBurst),
		pages:      p,
	}, nil
}

// Handler builds the router: public pages, then the dashboard behind the route guard.
func (a *App) Handler() http.Handler {
	var ropts []server.RouterOption
	if a.proxied {
		ropts = append(ropts, server.TrustProxyHeaders())
	}
	r := server.NewRouter(a.logger, ropts...)
	if len(a.csrfKey) > 0 {
		r.Use(a.csrfProtect())
	}
	r.Use(a.withSession)

	r.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount(public{a})
	r.Group(a.guard).Mount(dashboard{a})
	return r
}

// csrfProtect wraps gorilla/csrf. Without secure cookies requests are treated as plain HTTP.
func (a *App) csrfProtect() server.Middleware {
	protect := csrf.Protect(a.csrfKey,
		csrf.Secure(a.secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if a.secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// record stores an audit entry for a mutation. Failures are logged and never reach the viewer.
func (a *App) record(r *http.Request, entity string, action models.ActivityAction, id string, err error, msg string) {
	if a.activities == nil {
		return
	}
	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
		if msg == "" {
			msg = err.Error()
		}
	}
	actor := ""
	if u := currentSession(r).User; u != nil {
		actor = u.Email
	}
	if err := a.activities.Record(models.NewActivity(actor, entity, action, id, outcome, msg)); err != nil {
		a.logger.Warn("failed to record activity", "entity", entity, "action", action, "error", err)
	}
}

func (a *App) progress(entity string) services.ProgressFunc {
	return func(percent int) {
		a.logger.Debug("upload progress", "entity", entity, "percent", percent)
	}
}
