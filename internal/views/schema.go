package views

import (
	"context"
	"strings"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
)

// Client is the backend surface the views need. [*services.Resource] implements it.
type Client[T models.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, form models.Form, onProgress services.ProgressFunc) (services.Result, error)
	Update(ctx context.Context, id string, form models.Form, onProgress services.ProgressFunc) (services.Result, error)
	Delete(ctx context.Context, id string) (services.Result, error)
}

// Messages are the notices and inline texts of one entity.
type Messages struct {
	Loading      string
	NotFound     string
	LoadFailed   string
	Deleted      Notice
	DeleteFailed Notice
	Added        Notice
	AddFailed    Notice
	Updated      Notice
	UpdateFailed Notice
	FetchFailed  Notice
}

// Schema parameterizes the list and form views over one entity.
type Schema[T models.Entity, F models.Form] struct {
	Name   string // singular, lower case: "member"
	Title  string // singular, for headings: "Member"
	Plural string

	// Dashboard routes. EditPath and DeletePath use ":id"; an empty EditPath disables editing.
	ListPath   string
	AddPath    string
	EditPath   string
	DeletePath string

	Label    func(T) string // short display name of a record
	Defaults func() F
	Prefill  func(T) F // nil when the entity cannot be edited

	Messages Messages
}

// Editable reports whether records of this entity can be loaded into an edit form.
func (s Schema[T, F]) Editable() bool {
	return s.EditPath != "" && s.Prefill != nil
}

func (s Schema[T, F]) editPath(id string) string {
	if !s.Editable() {
		return ""
	}
	return models.Routes{}.Path(s.EditPath, id)
}

func (s Schema[T, F]) deletePath(id string) string {
	return models.Routes{}.Path(s.DeletePath, id)
}

// MemberSchema describes members.
var MemberSchema = Schema[models.Member, models.MemberForm]{
	Name:       "member",
	Title:      "Member",
	Plural:     "members",
	ListPath:   "/dashboard/upload/ecnmember",
	AddPath:    "/dashboard/upload/ecnmember",
	EditPath:   "/dashboard/ecnmembers/edit/:id",
	DeletePath: "/dashboard/ecnmembers/delete/:id",
	Label:      func(m models.Member) string { return m.Name },
	Defaults:   models.DefaultMemberForm,
	Prefill:    models.MemberFormFrom,
	Messages: Messages{
		Loading:      "Loading members...",
		NotFound:     "No members found.",
		LoadFailed:   "Failed to fetch members.",
		Deleted:      Notice{Kind: NoticeSuccess, Title: "Deleted!", Text: "The member has been deleted."},
		DeleteFailed: Notice{Kind: NoticeError, Title: "Error!", Text: "Failed to delete member."},
		Added:        Notice{Kind: NoticeSuccess, Title: "Member Added!", Text: "The member was added successfully."},
		AddFailed:    Notice{Kind: NoticeError, Title: "Submission Failed", Text: "There was an error submitting the form. Please try again."},
		Updated:      Notice{Kind: NoticeSuccess, Title: "Member Updated", Text: "The member was updated successfully."},
		UpdateFailed: Notice{Kind: NoticeError, Title: "Error", Text: "Failed to update member data."},
		FetchFailed:  Notice{Kind: NoticeError, Title: "Error", Text: "Failed to load member data."},
	},
}

// BookSchema describes books. The backend has no fetch-one or update route for books.
var BookSchema = Schema[models.Book, models.BookForm]{
	Name:       "book",
	Title:      "Book",
	Plural:     "books",
	ListPath:   "/dashboard/upload/books",
	AddPath:    "/dashboard/upload/books",
	DeletePath: "/dashboard/books/delete/:id",
	Label:      func(b models.Book) string { return b.Title },
	Defaults:   models.DefaultBookForm,
	Messages: Messages{
		Loading:      "Loading books...",
		NotFound:     "No books found.",
		LoadFailed:   "Failed to fetch books.",
		Deleted:      Notice{Kind: NoticeSuccess, Title: "Deleted!", Text: "The book has been deleted."},
		DeleteFailed: Notice{Kind: NoticeError, Title: "Error!", Text: "Failed to delete book. Please try again."},
		Added:        Notice{Kind: NoticeSuccess, Title: "Success!", Text: "Book added successfully!"},
		AddFailed:    Notice{Kind: NoticeError, Title: "Error!", Text: "There was an error adding the book."},
	},
}

// headline capitalizes the first letter of s.
func headline(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
