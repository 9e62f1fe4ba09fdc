package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/server"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/views"
)

// public serves the pages that need no session.
type public struct{ *App }

func (h public) Routes(r server.Router) {
	r.HandleFunc(http.MethodGet, "/", h.home)
	r.HandleFunc(http.MethodGet, "/members", h.members)
	r.HandleFunc(http.MethodGet, "/books", h.books)
	r.HandleFunc(http.MethodGet, "/login", h.loginForm)
	r.HandleFunc(http.MethodPost, "/login", h.login)
	r.HandleFunc(http.MethodPost, "/logout", h.logout)
}

func (h public) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, page{name: "home.html", Title: "Home"})
}

// members lists active members only.
func (h public) members(w http.ResponseWriter, r *http.Request) {
	list := views.NewListView(views.MemberSchema, services.NewMemberResource(h.api), h.logger)
	_ = list.Load(r.Context())

	directory := &directory{Message: list.Message()}
	for _, m := range list.Items() {
		if m.Status == models.StatusActive {
			directory.Members = append(directory.Members, m)
		}
	}
	if list.State() == views.Ready && len(directory.Members) == 0 {
		directory.Message = views.MemberSchema.Messages.NotFound
	}
	h.render(w, r, page{name: "members.html", Title: "Members", Content: directory})
}

type directory struct {
	Members []models.Member
	Message string
}

func (d *directory) Items() []models.Member { return d.Members }

type shelf struct {
	Category models.BookCategory
	Books    []models.Book
}

// books groups the collection by category in display order.
func (h public) books(w http.ResponseWriter, r *http.Request) {
	list := views.NewListView(views.BookSchema, services.NewBookResource(h.api), h.logger)
	_ = list.Load(r.Context())

	byCategory := make(map[models.BookCategory][]models.Book)
	for _, b := range list.Items() {
		byCategory[b.Category] = append(byCategory[b.Category], b)
	}

	var shelves []shelf
	for _, c := range models.BookCategories {
		if books := byCategory[c]; len(books) > 0 {
			shelves = append(shelves, shelf{Category: c, Books: books})
		}
	}

	h.render(w, r, page{name: "books.html", Title: "Books", Content: struct {
		Shelves []shelf
		Message string
	}{shelves, list.Message()}})
}

type loginContent struct {
	Email string
	Error string
}

func (h public) loginForm(w http.ResponseWriter, r *http.Request) {
	if currentSession(r).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, page{name: "login.html", Title: "Login", Content: loginContent{}})
}

func (h public) login(w http.ResponseWriter, r *http.Request) {
	fail := func(status int, email, msg string) {
		h.render(w, r, page{name: "login.html", status: status, Title: "Login", Content: loginContent{Email: email, Error: msg}})
	}

	if !h.limiter.Allow(clientIP(r)) {
		fail(http.StatusTooManyRequests, "", "Too many login attempts. Please wait and try again.")
		return
	}
	if err := parseForm(w, r); err != nil {
		fail(http.StatusBadRequest, "", "Invalid form submission.")
		return
	}

	email := field(r, "email")
	session, err := h.authSvc.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		h.logger.Warn("login failed", "email", email, "error", err)
		h.recordAs(email, models.ActionLogin, err)

		msg := services.ServerMessage(err)
		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrAuthFailed) {
			status = http.StatusUnauthorized
			if msg == "" {
				msg = "Invalid email or password."
			}
		} else if msg == "" {
			msg = "Unable to reach the server. Please try again."
		}
		fail(status, email, msg)
		return
	}

	key := shared.GenerateID()
	store := auth.NewStore(key, h.sessions, h.logger)
	if err := store.Login(r.Context(), *session.User, session.Token); err != nil {
		fail(http.StatusBadGateway, email, err.Error())
		return
	}
	if err := h.setSessionCookie(w, key); err != nil {
		h.logger.Error("failed to set session cookie", "error", err)
		fail(http.StatusInternalServerError, email, "Unable to start a session.")
		return
	}

	h.recordAs(session.User.Email, models.ActionLogin, nil)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h public) logout(w http.ResponseWriter, r *http.Request) {
	store := storeFrom(r)
	if s := store.Current(); s.Authenticated() {
		h.recordAs(s.User.Email, models.ActionLogout, nil)
	}
	store.Logout(r.Context())
	h.clearCookie(w, sessionCookie)
	h.setFlash(w, views.Notice{Kind: views.NoticeInfo, Title: "Signed out."})
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// recordAs stores a session event for actor.
func (a *App) recordAs(actor string, action models.ActivityAction, err error) {
	if a.activities == nil {
		return
	}
	outcome, msg := models.OutcomeSuccess, ""
	if err != nil {
		outcome, msg = models.OutcomeFailure, err.Error()
	}
	if err := a.activities.Record(models.NewActivity(actor, "session", action, "", outcome, msg)); err != nil {
		a.logger.Warn("failed to record activity", "action", action, "error", err)
	}
}
