package models

import (
	"net/url"
	"strings"
)

// Routes are the REST API paths of an entity. Templates use ":id" for the record id.
//
// An empty template means the backend does not expose the operation.
type Routes struct {
	List   string
	Get    string
	Create string
	Update string
	Delete string
}

// Path fills the ":id" placeholder of tmpl with the escaped id.
func (Routes) Path(tmpl, id string) string {
	return strings.Replace(tmpl, ":id", url.PathEscape(id), 1)
}

var (
	MemberRoutes = Routes{
		List:   "/api/v1/ecnmembers",
		Get:    "/api/v1/ecnmembers/:id",
		Create: "/api/v1/ecnmembers/addmember",
		Update: "/api/v1/ecnmembers/edit/:id",
		Delete: "/api/v1/ecnmembers/delete/:id",
	}

	BookRoutes = Routes{
		List:   "/api/v1/books/all",
		Create: "/api/v1/books/addbook",
		Delete: "/api/v1/books/delete/:id",
	}
)
