package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/server"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/views"
)

// dashboard serves the guarded admin pages.
type dashboard struct{ *App }

func (h dashboard) Routes(r server.Router) {
	r.HandleFunc(http.MethodGet, "/dashboard", h.home)

	r.HandleFunc(http.MethodGet, "/dashboard/upload/ecnmember", h.members)
	r.HandleFunc(http.MethodPost, "/dashboard/upload/ecnmember", h.addMember)
	r.HandleFunc(http.MethodGet, "/dashboard/ecnmembers/edit/{id}", h.editMember)
	r.HandleFunc(http.MethodPost, "/dashboard/ecnmembers/edit/{id}", h.updateMember)
	r.HandleFunc(http.MethodGet, "/dashboard/ecnmembers/delete/{id}", h.confirmDeleteMember)
	r.HandleFunc(http.MethodPost, "/dashboard/ecnmembers/delete/{id}", h.deleteMember)

	r.HandleFunc(http.MethodGet, "/dashboard/upload/books", h.books)
	r.HandleFunc(http.MethodPost, "/dashboard/upload/books", h.addBook)
	r.HandleFunc(http.MethodGet, "/dashboard/books/delete/{id}", h.confirmDeleteBook)
	r.HandleFunc(http.MethodPost, "/dashboard/books/delete/{id}", h.deleteBook)
}

func (h dashboard) memberClient(r *http.Request) *services.Resource[models.Member] {
	return services.NewMemberResource(h.api).WithToken(currentSession(r).Token)
}

func (h dashboard) bookClient(r *http.Request) *services.Resource[models.Book] {
	return services.NewBookResource(h.api).WithToken(currentSession(r).Token)
}

// tally is one collection count on the overview. Error is set when the fetch failed.
type tally struct {
	Count int
	Error string
}

func tallyOf[T models.Entity](lv *views.ListView[T]) tally {
	if lv.State() == views.Failed {
		return tally{Error: lv.Message()}
	}
	return tally{Count: len(lv.Items())}
}

type overview struct {
	Members  tally
	Books    tally
	Activity []*models.Activity
}

func (h dashboard) home(w http.ResponseWriter, r *http.Request) {
	members := views.NewListView(views.MemberSchema, h.memberClient(r), h.logger)
	books := views.NewListView(views.BookSchema, h.bookClient(r), h.logger)
	// a failed load is rendered inline from the view state
	_ = members.Load(r.Context())
	_ = books.Load(r.Context())

	data := overview{Members: tallyOf(members), Books: tallyOf(books)}
	if h.activities != nil {
		recent, err := h.activities.List(map[string]any{"limit": 10})
		if err != nil {
			h.logger.Warn("failed to list activity", "error", err)
		}
		data.Activity = recent
	}
	h.render(w, r, page{name: "dashboard.html", Title: "Dashboard", Content: data})
}

// entityPage is the content of a form page with an optional list below it.
type entityPage[T models.Entity, F models.Form] struct {
	Form *views.FormView[T, F]
	List *views.ListView[T]
}

// renderEntity lists the collection under an add form; edit pages pass a nil list.
func renderEntity[T models.Entity, F models.Form](a *App, w http.ResponseWriter, r *http.Request, tmpl string, status int, form *views.FormView[T, F], list *views.ListView[T]) {
	if list != nil && list.State() == views.Idle {
		_ = list.Load(r.Context())
	}
	a.render(w, r, page{
		name:    tmpl,
		status:  status,
		Title:   form.Heading(),
		Notice:  form.Notice(),
		Content: entityPage[T, F]{Form: form, List: list},
	})
}

// submitEntity runs a form submission and answers with a redirect or the form page.
func submitEntity[T models.Entity, F models.Form](a *App, w http.ResponseWriter, r *http.Request, tmpl string, form *views.FormView[T, F], list *views.ListView[T]) {
	schema := form.Schema()
	action := models.ActionCreate
	if form.Mode() == views.EditMode {
		action = models.ActionUpdate
	}

	out, err := form.Submit(r.Context(), a.progress(schema.Name))
	switch {
	case errors.Is(err, shared.ErrValidation):
		renderEntity(a, w, r, tmpl, http.StatusUnprocessableEntity, form, list)
		return
	case err != nil:
		msg := ""
		if n := form.Notice(); n != nil {
			msg = n.Text
		}
		a.record(r, schema.Name, action, form.ID(), err, msg)
		renderEntity(a, w, r, tmpl, http.StatusBadGateway, form, list)
		return
	}

	a.record(r, schema.Name, action, form.ID(), nil, out.Message)
	a.setFlash(w, out.Notice)
	redirect := out.Redirect
	if redirect == "" {
		redirect = schema.AddPath
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

type confirmation struct {
	Prompt views.Prompt
	Label  string
	Action string
	Cancel string
}

// confirmDelete renders the delete prompt for the record named in the path.
func confirmDelete[T models.Entity, F models.Form](a *App, w http.ResponseWriter, r *http.Request, schema views.Schema[T, F], client views.Client[T]) {
	id := server.URLParam(r, "id")
	list := views.NewListView(schema, client, a.logger)

	label := id
	if err := list.Load(r.Context()); err == nil {
		item, ok := list.Find(id)
		if !ok {
			a.setFlash(w, views.Notice{Kind: views.NoticeError, Title: "Error!", Text: schema.Title + " not found."})
			http.Redirect(w, r, schema.ListPath, http.StatusSeeOther)
			return
		}
		label = schema.Label(item)
	}

	a.render(w, r, page{name: "confirm.html", Title: "Delete " + schema.Title, Content: confirmation{
		Prompt: views.DeletePrompt,
		Label:  label,
		Action: list.DeletePath(id),
		Cancel: schema.ListPath,
	}})
}

// deleteEntity deletes after the viewer confirmed on the prompt page.
func deleteEntity[T models.Entity, F models.Form](a *App, w http.ResponseWriter, r *http.Request, schema views.Schema[T, F], client views.Client[T]) {
	id := server.URLParam(r, "id")
	list := views.NewListView(schema, client, a.logger)

	notice, err := list.Delete(r.Context(), id, views.Confirmed)
	msg := ""
	if notice != nil {
		msg = notice.Text
		a.setFlash(w, *notice)
	}
	a.record(r, schema.Name, models.ActionDelete, id, err, msg)
	http.Redirect(w, r, schema.ListPath, http.StatusSeeOther)
}

func (h dashboard) members(w http.ResponseWriter, r *http.Request) {
	client := h.memberClient(r)
	form := views.NewAddForm(views.MemberSchema, client, h.logger)
	renderEntity(h.App, w, r, "member_form.html", http.StatusOK, form, views.NewListView(views.MemberSchema, client, h.logger))
}

func (h dashboard) addMember(w http.ResponseWriter, r *http.Request) {
	defer removeUploads(r)
	client := h.memberClient(r)
	form := views.NewAddForm(views.MemberSchema, client, h.logger)
	list := views.NewListView(views.MemberSchema, client, h.logger)

	f, err := parseMemberForm(w, r)
	if err != nil {
		h.logger.Warn("invalid member form", "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form.Set(f)
	submitEntity(h.App, w, r, "member_form.html", form, list)
}

func (h dashboard) editMember(w http.ResponseWriter, r *http.Request) {
	form, err := views.NewEditForm(views.MemberSchema, h.memberClient(r), server.URLParam(r, "id"), h.logger)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	status := http.StatusOK
	if err := form.Load(r.Context()); err != nil {
		status = http.StatusBadGateway
		if errors.Is(err, shared.ErrMemberNotFound) {
			status = http.StatusNotFound
		}
	}
	renderEntity[models.Member, models.MemberForm](h.App, w, r, "member_form.html", status, form, nil)
}

func (h dashboard) updateMember(w http.ResponseWriter, r *http.Request) {
	defer removeUploads(r)
	form, err := views.NewEditForm(views.MemberSchema, h.memberClient(r), server.URLParam(r, "id"), h.logger)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := parseMemberForm(w, r)
	if err != nil {
		h.logger.Warn("invalid member form", "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form.Set(f)
	submitEntity[models.Member, models.MemberForm](h.App, w, r, "member_form.html", form, nil)
}

func (h dashboard) confirmDeleteMember(w http.ResponseWriter, r *http.Request) {
	confirmDelete(h.App, w, r, views.MemberSchema, views.Client[models.Member](h.memberClient(r)))
}

func (h dashboard) deleteMember(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.App, w, r, views.MemberSchema, views.Client[models.Member](h.memberClient(r)))
}

func (h dashboard) books(w http.ResponseWriter, r *http.Request) {
	client := h.bookClient(r)
	form := views.NewAddForm(views.BookSchema, client, h.logger)
	renderEntity(h.App, w, r, "book_form.html", http.StatusOK, form, views.NewListView(views.BookSchema, client, h.logger))
}

func (h dashboard) addBook(w http.ResponseWriter, r *http.Request) {
	defer removeUploads(r)
	client := h.bookClient(r)
	form := views.NewAddForm(views.BookSchema, client, h.logger)
	list := views.NewListView(views.BookSchema, client, h.logger)

	f, err := parseBookForm(w, r)
	if err != nil {
		h.logger.Warn("invalid book form", "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	form.Set(f)
	submitEntity(h.App, w, r, "book_form.html", form, list)
}

func (h dashboard) confirmDeleteBook(w http.ResponseWriter, r *http.Request) {
	confirmDelete(h.App, w, r, views.BookSchema, views.Client[models.Book](h.bookClient(r)))
}

func (h dashboard) deleteBook(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.App, w, r, views.BookSchema, views.Client[models.Book](h.bookClient(r)))
}
