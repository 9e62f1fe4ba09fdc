package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ecn/internal/models"
)

const (
	FakeEmail    = "admin@ecn.org"
	FakePassword = "password"
	FakeToken    = "test-token"
)

// RecordedRequest is what [FakeBackend] saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	ContentType   string
	Authorization string
	Order         []string          // multipart part names in wire order
	Fields        map[string]string // multipart text fields
	Files         map[string]string // multipart file parts: name -> filename
	JSON          map[string]any
}

type failure struct {
	status  int
	message string
}

// FakeBackend is an in-memory stand-in for the ECN REST API served over httptest.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	members  []models.Member
	books    []models.Book
	requests []RecordedRequest
	failures map[string]failure
	nextID   int
}

// NewFakeBackend starts a backend seeded with members and books. It is closed on test cleanup.
func NewFakeBackend(t *testing.T, members []models.Member, books []models.Book) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		members:  append([]models.Member(nil), members...),
		books:    append([]models.Book(nil), books...),
		failures: make(map[string]failure),
		nextID:   1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", b.login)
	mux.HandleFunc("GET /api/v1/ecnmembers", b.listMembers)
	mux.HandleFunc("GET /api/v1/ecnmembers/{id}", b.getMember)
	mux.HandleFunc("POST /api/v1/ecnmembers/addmember", b.addMember)
	mux.HandleFunc("PUT /api/v1/ecnmembers/edit/{id}", b.editMember)
	mux.HandleFunc("DELETE /api/v1/ecnmembers/delete/{id}", b.deleteMember)
	mux.HandleFunc("GET /api/v1/books/all", b.listBooks)
	mux.HandleFunc("POST /api/v1/books/addbook", b.addBook)
	mux.HandleFunc("DELETE /api/v1/books/delete/{id}", b.deleteBook)

	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)
	return b
}

func (b *FakeBackend) URL() string { return b.Server.URL }

// Fail makes every later request matching method and path answer with status and message.
func (b *FakeBackend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns a copy of the recorded requests.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestCount returns how many requests reached the backend.
func (b *FakeBackend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (b *FakeBackend) LastRequest() RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}
	}
	return b.requests[len(b.requests)-1]
}

func (b *FakeBackend) Members() []models.Member {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Member(nil), b.members...)
}

func (b *FakeBackend) Books() []models.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Book(nil), b.books...)
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			ContentType:   r.Header.Get("Content-Type"),
			Authorization: r.Header.Get("Authorization"),
		}

		mediaType, _, _ := mime.ParseMediaType(rec.ContentType)
		switch mediaType {
		case "multipart/form-data":
			rec.Fields = make(map[string]string)
			rec.Files = make(map[string]string)
			mr, err := r.MultipartReader()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			for {
				p, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				data, _ := io.ReadAll(p)
				rec.Order = append(rec.Order, p.FormName())
				if p.FileName() != "" {
					rec.Files[p.FormName()] = p.FileName()
				} else {
					rec.Fields[p.FormName()] = string(data)
				}
			}
		case "application/json":
			_ = json.NewDecoder(r.Body).Decode(&rec.JSON)
		}

		b.mu.Lock()
		b.requests = append(b.requests, rec)
		f, failing := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]any{"success": false, "message": f.message})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recordKey{}, rec)))
	})
}

type recordKey struct{}

func recordOf(r *http.Request) RecordedRequest {
	rec, _ := r.Context().Value(recordKey{}).(RecordedRequest)
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, map[string]any{"success": true, "message": message, "data": data})
}

func (b *FakeBackend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+FakeToken
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	rec := recordOf(r)
	if rec.JSON["email"] != FakeEmail || rec.JSON["password"] != FakePassword {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  models.UserProfile{ID: "u1", Name: "Admin", Email: FakeEmail, Role: "admin"},
		"token": FakeToken,
	})
}

func (b *FakeBackend) listMembers(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "", b.Members())
}

func (b *FakeBackend) getMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, m := range b.Members() {
		if m.ID == id {
			ok(w, http.StatusOK, "", m)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Member not found"})
}

func (b *FakeBackend) memberFrom(rec RecordedRequest) models.Member {
	get := func(k string) string {
		if rec.Fields != nil {
			return rec.Fields[k]
		}
		if s, ok := rec.JSON[k].(string); ok {
			return s
		}
		return ""
	}
	m := models.Member{
		Name: get("name"), FatherName: get("fatherName"), DOB: get("dob"), Address: get("address"),
		Phone: get("phone"), Email: get("email"), JoiningDate: get("joiningDate"),
		Status: models.MemberStatus(get("status")), Role: models.MemberRole(get("role")),
	}
	if f := rec.Files["profileImage"]; f != "" {
		m.ProfileImage = "/uploads/" + f
	}
	return m
}

func (b *FakeBackend) addMember(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	m := b.memberFrom(recordOf(r))

	b.mu.Lock()
	b.nextID++
	m.ID = fmt.Sprint(b.nextID)
	b.members = append(b.members, m)
	b.mu.Unlock()

	ok(w, http.StatusCreated, "Member added successfully", m)
}

func (b *FakeBackend) editMember(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	id := r.PathValue("id")
	m := b.memberFrom(recordOf(r))
	m.ID = id

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.members {
		if b.members[i].ID == id {
			if m.ProfileImage == "" {
				m.ProfileImage = b.members[i].ProfileImage
			}
			b.members[i] = m
			ok(w, http.StatusOK, "Member updated successfully", m)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Member not found"})
}

func (b *FakeBackend) deleteMember(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.members {
		if b.members[i].ID == id {
			b.members = append(b.members[:i], b.members[i+1:]...)
			ok(w, http.StatusOK, "Member deleted successfully", nil)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Member not found"})
}

func (b *FakeBackend) listBooks(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "", b.Books())
}

func (b *FakeBackend) addBook(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	rec := recordOf(r)
	if rec.Files["coverImage"] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Cover image is required"})
		return
	}

	book := models.Book{
		Title:      rec.Fields["title"],
		Author:     rec.Fields["author"],
		Category:   models.BookCategory(rec.Fields["category"]),
		PDFLink:    rec.Fields["pdfLink"],
		CoverImage: "/uploads/" + rec.Files["coverImage"],
		CreatedAt:  "2024-01-01T00:00:00.000Z",
	}
	if f := rec.Files["pdfFile"]; f != "" {
		book.PDFFile = "/uploads/" + f
	}

	b.mu.Lock()
	b.nextID++
	book.ID = fmt.Sprint(b.nextID)
	b.books = append(b.books, book)
	b.mu.Unlock()

	ok(w, http.StatusCreated, "Book added successfully", book)
}

func (b *FakeBackend) deleteBook(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Unauthorized"})
		return
	}
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.books {
		if b.books[i].ID == id {
			b.books = append(b.books[:i], b.books[i+1:]...)
			ok(w, http.StatusOK, "Book deleted successfully", nil)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Book not found"})
}

// SampleMembers returns three members with ids "41", "42" and "43".
func SampleMembers() []models.Member {
	return []models.Member{
		{ID: "41", Name: "Abdul Karim", FatherName: "Abdul Rahim", DOB: "1988-02-11T00:00:00.000Z", Address: "Naseerpur", Phone: "0123456789", JoiningDate: "2019-03-01T00:00:00.000Z", Status: models.StatusActive, Role: models.RoleMember},
		{ID: "42", Name: "Mohammad Ali", FatherName: "Yusuf Ali", DOB: "1990-05-01T00:00:00Z", Address: "Ward 4, Naseerpur", Phone: "9876543210", Email: "ali@example.org", JoiningDate: "2020-01-15T00:00:00Z", Status: models.StatusActive, Role: models.RoleAdmin},
		{ID: "43", Name: "Salim Khan", FatherName: "Hamid Khan", DOB: "1995-09-30T00:00:00Z", Address: "Main Road", Phone: "5556667777", JoiningDate: "2021-06-20T00:00:00Z", Status: models.StatusInactive, Role: models.RoleMember},
	}
}

// SampleBooks returns two books with ids "7" and "8".
func SampleBooks() []models.Book {
	return []models.Book{
		{ID: "7", Title: "Sahih al-Bukhari", Author: "Imam Bukhari", Category: models.CategoryHadith, PDFLink: "https://example.org/bukhari.pdf", CoverImage: "/uploads/bukhari.jpg", CreatedAt: "2023-07-04T12:00:00Z"},
		{ID: "8", Title: "Tafsir Ibn Kathir", Author: "Ibn Kathir", Category: models.CategoryQuran, PDFFile: "/uploads/kathir.pdf", CoverImage: "/uploads/kathir.jpg", CreatedAt: "2023-08-10T09:00:00Z"},
	}
}

// Contains reports whether s contains every substring in subs.
func Contains(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
