package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/repositories"
	"github.com/desertthunder/ecn/internal/shared"
	tu "github.com/desertthunder/ecn/internal/testing"
)

func newActivities(t *testing.T) *repositories.ActivityRepository {
	t.Helper()
	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewActivityRepository(db)
}

type cliHarness struct {
	backend    *tu.FakeBackend
	persister  *auth.MemoryPersister
	activities *repositories.ActivityRepository
	config     *shared.Config
	out        *bytes.Buffer
	runner     *Runner
}

// newCLI builds a runner against a fake backend. input feeds prompts and --password-stdin.
func newCLI(t *testing.T, input string) *cliHarness {
	t.Helper()

	h := &cliHarness{
		backend:    tu.NewFakeBackend(t, tu.SampleMembers(), tu.SampleBooks()),
		persister:  auth.NewMemoryPersister(),
		activities: newActivities(t),
		config:     shared.DefaultConfig(),
		out:        &bytes.Buffer{},
	}
	h.config.API.BaseURL = h.backend.URL()
	h.config.Database.Path = filepath.Join(t.TempDir(), "ecn.db")

	h.runner = NewRunner(RunnerOpts{
		Config:     h.config,
		Logger:     shared.NewLogger(io.Discard),
		Output:     h.out,
		Input:      strings.NewReader(input),
		Sessions:   h.persister,
		Activities: h.activities,
		Password:   func(string) (string, error) { return tu.FakePassword, nil },
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	t.Cleanup(func() { h.runner.Close() })
	return h
}

func (h *cliHarness) run(args ...string) error {
	app := h.runner.app()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	return app.Run(context.Background(), append([]string{"ecn"}, args...))
}

func (h *cliHarness) login(t *testing.T) {
	t.Helper()
	user := models.UserProfile{ID: "u1", Name: "Admin", Email: tu.FakeEmail}
	if err := h.persister.Save(context.Background(), auth.CLIKey, models.Session{User: &user, Token: tu.FakeToken}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func (h *cliHarness) summaries(t *testing.T) []string {
	t.Helper()
	entries, err := h.activities.List(map[string]any{"limit": 20})
	if err != nil {
		t.Fatalf("failed to list activity: %v", err)
	}
	out := make([]string, len(entries))
	for i, a := range entries {
		out[i] = a.Summary()
	}
	return out
}

func memberIDs(members []models.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func addMemberArgs(phone string) []string {
	return []string{
		"members", "add",
		"--name", "Zaid Omar",
		"--father-name", "Omar Farooq",
		"--dob", "2000-01-02",
		"--address", "Block 9",
		"--phone", phone,
		"--joining-date", "2024-03-04",
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("login persists the session and records it", func(t *testing.T) {
		h := newCLI(t, "")

		if err := h.run("auth", "login", "--email", tu.FakeEmail); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		if !strings.Contains(h.out.String(), "Signed in as Admin") {
			t.Errorf("expected greeting, got %q", h.out.String())
		}
		session, err := h.persister.Load(context.Background(), auth.CLIKey)
		if err != nil || session.Token != tu.FakeToken {
			t.Errorf("expected persisted token, got %+v (%v)", session, err)
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org login session") {
			t.Errorf("expected login activity, got %v", got)
		}
	})

	t.Run("reads the password from stdin", func(t *testing.T) {
		h := newCLI(t, tu.FakePassword+"\n")
		h.runner.password = func(string) (string, error) {
			t.Fatal("terminal prompt used despite --password-stdin")
			return "", nil
		}

		if err := h.run("auth", "login", "--email", tu.FakeEmail, "--password-stdin"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if h.persister.Len() != 1 {
			t.Error("expected a persisted session")
		}
	})

	t.Run("prompts for the email", func(t *testing.T) {
		h := newCLI(t, tu.FakeEmail+"\n")

		if err := h.run("auth", "login"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Email: ") {
			t.Errorf("expected email prompt, got %q", h.out.String())
		}
	})

	t.Run("wrong password persists nothing", func(t *testing.T) {
		h := newCLI(t, "")

		err := h.run("auth", "login", "--email", tu.FakeEmail, "--password", "wrong")

		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if h.persister.Len() != 0 {
			t.Error("expected no session to be saved")
		}
		if got := h.summaries(t); len(got) != 1 || !strings.Contains(got[0], "(failed: Invalid email or password)") {
			t.Errorf("expected failed login activity, got %v", got)
		}
	})

	t.Run("status", func(t *testing.T) {
		h := newCLI(t, "")

		if err := h.run("auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Not signed in") {
			t.Errorf("expected signed-out status, got %q", h.out.String())
		}

		h.login(t)
		h.out.Reset()
		if err := h.run("auth", "status", "--json"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		var status authStatus
		if err := json.Unmarshal(h.out.Bytes(), &status); err != nil {
			t.Fatalf("invalid JSON %q: %v", h.out.String(), err)
		}
		if !status.Authenticated || status.User.Email != tu.FakeEmail || status.API != h.backend.URL() {
			t.Errorf("unexpected status %+v", status)
		}
		if h.backend.RequestCount() != 0 {
			t.Error("expected status to stay offline")
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}

		if h.persister.Len() != 0 {
			t.Error("expected session to be removed")
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org logout session") {
			t.Errorf("expected logout activity, got %v", got)
		}
		if err := h.run("members", "list"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected guard to reject after logout, got %v", err)
		}
	})
}

func TestMembersCommands(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		h := newCLI(t, "")

		err := h.run("members", "list")

		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if h.backend.RequestCount() != 0 {
			t.Error("expected no request without a session")
		}
	})

	t.Run("list", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		if !tu.Contains(h.out.String(), "Abdul Karim", "Mohammad Ali", "Salim Khan") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if got := h.backend.LastRequest().Authorization; got != "Bearer "+tu.FakeToken {
			t.Errorf("expected bearer token, got %q", got)
		}
	})

	t.Run("list as JSON", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var members []models.Member
		if err := json.Unmarshal(h.out.Bytes(), &members); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got := memberIDs(members); !slices.Equal(got, []string{"41", "42", "43"}) {
			t.Errorf("expected 41,42,43, got %v", got)
		}
	})

	t.Run("list failure shows the server message", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		h.backend.Fail(http.MethodGet, "/api/v1/ecnmembers", http.StatusInternalServerError, "Database down")

		err := h.run("members", "list")

		if err == nil || !strings.Contains(err.Error(), "Database down") {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "get", "42"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !tu.Contains(h.out.String(), "Mohammad Ali", "01-05-1990", "ali@example.org") {
			t.Errorf("unexpected output %q", h.out.String())
		}

		if err := h.run("members", "get", "99"); !errors.Is(err, shared.ErrMemberNotFound) {
			t.Errorf("expected ErrMemberNotFound, got %v", err)
		}
	})

	t.Run("add sends JSON without attachments", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run(addMemberArgs("1234567890")...); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if !tu.Contains(h.out.String(), "Uploading member... 100%", "Member Added!") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		req := h.backend.LastRequest()
		if req.Method != http.MethodPost || req.Path != "/api/v1/ecnmembers/addmember" {
			t.Fatalf("unexpected request %s %s", req.Method, req.Path)
		}
		if email, ok := req.JSON["email"]; !ok || email != nil {
			t.Errorf("expected null email, got %v (present %v)", email, ok)
		}
		if req.JSON["status"] != "Active" || req.JSON["role"] != "member" {
			t.Errorf("expected default status and role, got %v", req.JSON)
		}
		if len(h.backend.Members()) != 4 {
			t.Error("expected the member to be created")
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org create member") {
			t.Errorf("expected create activity, got %v", got)
		}
	})

	t.Run("add with an image sends multipart", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		image := writeFile(t, "me.png", "png-bytes")

		if err := h.run(append(addMemberArgs("1234567890"), "--image", image)...); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		req := h.backend.LastRequest()
		if !strings.HasPrefix(req.ContentType, "multipart/form-data") {
			t.Fatalf("expected multipart, got %q", req.ContentType)
		}
		if req.Files["profileImage"] != "me.png" || req.Fields["name"] != "Zaid Omar" {
			t.Errorf("unexpected parts %v %v", req.Fields, req.Files)
		}
	})

	t.Run("invalid fields never reach the backend", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		err := h.run(addMemberArgs("123")...)

		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if h.backend.RequestCount() != 0 {
			t.Error("expected no request")
		}
		if !strings.Contains(h.out.String(), "phone") {
			t.Errorf("expected the phone problem to be listed, got %q", h.out.String())
		}
		if len(h.summaries(t)) != 0 {
			t.Error("expected validation failures not to be recorded")
		}
	})

	t.Run("edit changes only the given flags", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "edit", "--phone", "1112223333", "42"); err != nil {
			t.Fatalf("edit failed: %v", err)
		}

		req := h.backend.LastRequest()
		if req.Method != http.MethodPut || req.Path != "/api/v1/ecnmembers/edit/42" {
			t.Fatalf("unexpected request %s %s", req.Method, req.Path)
		}
		if req.JSON["phone"] != "1112223333" || req.JSON["name"] != "Mohammad Ali" || req.JSON["dob"] != "1990-05-01" {
			t.Errorf("expected prefilled fields with the new phone, got %v", req.JSON)
		}
		if !strings.Contains(h.out.String(), "Member updated successfully") {
			t.Errorf("expected server message, got %q", h.out.String())
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org update member 42") {
			t.Errorf("expected update activity, got %v", got)
		}
	})

	t.Run("edit of a missing member fails before submitting", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		err := h.run("members", "edit", "--phone", "1112223333", "99")

		if !errors.Is(err, shared.ErrMemberNotFound) {
			t.Fatalf("expected ErrMemberNotFound, got %v", err)
		}
		if h.backend.LastRequest().Method != http.MethodGet {
			t.Error("expected no update request")
		}
	})

	t.Run("delete asks for confirmation", func(t *testing.T) {
		h := newCLI(t, "y\n")
		h.login(t)

		if err := h.run("members", "delete", "42"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if !tu.Contains(h.out.String(), "Are you sure?", "Deleted!") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if got := memberIDs(h.backend.Members()); !slices.Equal(got, []string{"41", "43"}) {
			t.Errorf("expected 41,43, got %v", got)
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org delete member 42") {
			t.Errorf("expected delete activity, got %v", got)
		}
	})

	t.Run("declined delete sends nothing", func(t *testing.T) {
		h := newCLI(t, "n\n")
		h.login(t)

		if err := h.run("members", "delete", "42"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if !strings.Contains(h.out.String(), "Cancelled") {
			t.Errorf("expected cancellation, got %q", h.out.String())
		}
		if h.backend.RequestCount() != 0 || len(h.backend.Members()) != 3 {
			t.Error("expected no delete request")
		}
	})

	t.Run("failed delete keeps the member", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		h.backend.Fail(http.MethodDelete, "/api/v1/ecnmembers/delete/42", http.StatusInternalServerError, "Database down")

		err := h.run("members", "delete", "--yes", "42")

		if err == nil || !strings.Contains(err.Error(), "Database down") {
			t.Fatalf("expected server message, got %v", err)
		}
		if len(h.backend.Members()) != 3 {
			t.Error("expected members to be untouched")
		}
		if got := h.summaries(t); !slices.Contains(got, "admin@ecn.org delete member 42 (failed: Database down)") {
			t.Errorf("expected failed delete activity, got %v", got)
		}
	})
}

const importCSV = `Name,Father's Name,DOB,Address,Phone,Joining Date
Yusuf Ahmed,Ahmed Ali,1991-04-05,Lane 1,1231231234,2022-01-01
Bad Phone,Someone,1992-04-05,Lane 2,12,2022-01-01
Imran Shah,Nadeem Shah,1993-04-05,Lane 3,3213213210,2022-01-01
`

func TestMembersImportExport(t *testing.T) {
	t.Run("import creates valid rows and reports the rest", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		file := writeFile(t, "members.csv", importCSV)

		err := h.run("members", "import", "--rate", "100", file)

		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for the rejected row, got %v", err)
		}
		if len(h.backend.Members()) != 5 {
			t.Errorf("expected two members to be added, got %d", len(h.backend.Members()))
		}
		if !tu.Contains(h.out.String(), "✓ row 2 Yusuf Ahmed", "✗ row 3 Bad Phone", "✓ row 4 Imran Shah", "Imported 2 of 3 (1 invalid, 0 failed)") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if got := h.summaries(t); len(got) != 2 {
			t.Errorf("expected one activity per created row, got %v", got)
		}
	})

	t.Run("dry run validates offline", func(t *testing.T) {
		h := newCLI(t, "")
		file := writeFile(t, "members.csv", importCSV)

		if err := h.run("members", "import", "--dry-run", file); err != nil {
			t.Fatalf("dry run failed: %v", err)
		}

		if !strings.Contains(h.out.String(), "2 valid, 1 invalid of 3 rows") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if h.backend.RequestCount() != 0 {
			t.Error("expected no requests")
		}
	})

	t.Run("import rejects a file without required columns", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		file := writeFile(t, "members.csv", "Name,Address\nA,B\n")

		if err := h.run("members", "import", file); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("export CSV to a file", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		out := filepath.Join(t.TempDir(), "exports", "members.csv")

		if err := h.run("members", "export", "--output", out); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertFileExists(t, out)
		if content := tu.MustReadFile(t, out); !tu.Contains(content, "ID,Name,FatherName", "Abdul Karim", "1988-02-11") {
			t.Errorf("unexpected CSV %q", content)
		}
		if !strings.Contains(h.out.String(), "Exported 3 members") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("export markdown to stdout", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "export", "--format", "markdown"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !tu.Contains(h.out.String(), "| Mohammad Ali |") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("members", "export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBooksCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("books", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !tu.Contains(h.out.String(), "Sahih al-Bukhari", "Tafsir Ibn Kathir") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("empty shelf", func(t *testing.T) {
		h := newCLI(t, "")
		h.backend = tu.NewFakeBackend(t, nil, nil)
		h.config.API.BaseURL = h.backend.URL()
		h.runner = NewRunner(RunnerOpts{Config: h.config, Logger: shared.NewLogger(io.Discard), Output: h.out, Sessions: h.persister, Activities: h.activities})
		h.login(t)

		if err := h.run("books", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "No books found.") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("add uploads the cover and PDF", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		cover := writeFile(t, "cover.jpg", "jpeg-bytes")
		pdf := writeFile(t, "book.pdf", "%PDF-1.4")

		err := h.run("books", "add", "--title", "Riyad as-Salihin", "--author", "Imam Nawawi", "--category", "Hadith", "--cover", cover, "--pdf", pdf)
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		req := h.backend.LastRequest()
		want := []string{"title", "author", "category", "pdfLink", "coverImage", "pdfFile"}
		if !slices.Equal(req.Order, want) {
			t.Errorf("expected part order %v, got %v", want, req.Order)
		}
		if req.Files["coverImage"] != "cover.jpg" || req.Files["pdfFile"] != "book.pdf" {
			t.Errorf("unexpected files %v", req.Files)
		}
		if !tu.Contains(h.out.String(), "Uploading book... 100%", "Book added successfully!") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if len(h.backend.Books()) != 3 {
			t.Error("expected the book to be created")
		}
	})

	t.Run("add without uploads is rejected locally", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		err := h.run("books", "add", "--title", "T", "--author", "A")

		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if h.backend.RequestCount() != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("add with an unreadable cover", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		err := h.run("books", "add", "--title", "T", "--author", "A", "--cover", filepath.Join(t.TempDir(), "missing.jpg"))

		if !errors.Is(err, shared.ErrInvalidInput) || !strings.Contains(err.Error(), "cannot read missing.jpg") {
			t.Errorf("expected unreadable file error, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("books", "delete", "--yes", "7"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		books := h.backend.Books()
		if len(books) != 1 || books[0].ID != "8" {
			t.Errorf("expected only book 8 to remain, got %v", books)
		}
		if !strings.Contains(h.out.String(), "The book has been deleted.") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})

	t.Run("export shelf with covers", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		dir := filepath.Join(t.TempDir(), "shelf")

		if err := h.run("books", "export", "--covers", dir); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertDirExists(t, dir)
		tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if content := tu.MustReadFile(t, filepath.Join(dir, "README.md")); !tu.Contains(content, "Sahih al-Bukhari", "Hadith") {
			t.Errorf("unexpected shelf %q", content)
		}
		// the fake backend serves no uploads, so every cover is a warning
		if !strings.Contains(h.out.String(), "with 0 of 2 covers") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})
}

func TestActivityCommand(t *testing.T) {
	h := newCLI(t, "")
	h.login(t)
	if err := h.run("members", "delete", "--yes", "41"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := h.run("books", "delete", "--yes", "8"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	t.Run("plain", func(t *testing.T) {
		h.out.Reset()
		if err := h.run("activity"); err != nil {
			t.Fatalf("activity failed: %v", err)
		}
		out := h.out.String()
		book := strings.Index(out, "admin@ecn.org delete book 8")
		member := strings.Index(out, "admin@ecn.org delete member 41")
		if book < 0 || member < 0 || book > member {
			t.Errorf("expected newest first, got %q", out)
		}
	})

	t.Run("filtered JSON", func(t *testing.T) {
		h.out.Reset()
		if err := h.run("activity", "--entity", "member", "--json"); err != nil {
			t.Fatalf("activity failed: %v", err)
		}
		var records []models.ActivityRecord
		if err := json.Unmarshal(h.out.Bytes(), &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 1 || records[0].TargetID != "41" || records[0].Outcome != models.OutcomeSuccess {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("nothing recorded", func(t *testing.T) {
		h.out.Reset()
		if err := h.run("activity", "--actor", "nobody@ecn.org"); err != nil {
			t.Fatalf("activity failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "No activity recorded.") {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get prints the JSON body", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)

		if err := h.run("api", "get", "api/v1/books/all"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !tu.Contains(h.out.String(), `"success": true`, "Sahih al-Bukhari") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if h.backend.LastRequest().Path != "/api/v1/books/all" {
			t.Errorf("expected a leading slash to be added, got %s", h.backend.LastRequest().Path)
		}
	})

	t.Run("dump collects both collections", func(t *testing.T) {
		h := newCLI(t, "")
		h.login(t)
		h.backend.Fail(http.MethodGet, "/api/v1/books/all", http.StatusBadGateway, "Storage offline")
		save := filepath.Join(t.TempDir(), "dump.json")

		if err := h.run("api", "dump", "--save", save); err != nil {
			t.Fatalf("dump failed: %v", err)
		}

		var dump dumpData
		if err := json.Unmarshal(h.out.Bytes(), &dump); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(dump.Members) != 3 || len(dump.Books) != 0 {
			t.Errorf("expected members only, got %d members and %d books", len(dump.Members), len(dump.Books))
		}
		if len(dump.Errors) != 1 || dump.Errors[0]["endpoint"] != "/api/v1/books/all" {
			t.Errorf("expected the books failure to be reported, got %v", dump.Errors)
		}
		tu.AssertFileExists(t, save)
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		h := newCLI(t, "")
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := h.run("setup", "config", "--config", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected the written config to load, got %v", err)
		}
		if err := h.run("setup", "config", "--config", path); err == nil {
			t.Error("expected an existing file to be kept")
		}
	})

	t.Run("database status and rollback", func(t *testing.T) {
		h := newCLI(t, "")

		if err := h.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		tu.AssertFileExists(t, h.config.Database.Path)

		h.out.Reset()
		if err := h.run("setup", "status"); err != nil {
			t.Fatalf("setup status failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Up to date") {
			t.Errorf("unexpected status %q", h.out.String())
		}

		if err := h.run("setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		h.out.Reset()
		if err := h.run("setup", "status"); err != nil {
			t.Fatalf("setup status failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Pending migrations found") {
			t.Errorf("unexpected status %q", h.out.String())
		}
	})

	t.Run("purge-sessions keeps fresh sessions", func(t *testing.T) {
		h := newCLI(t, "")
		h.runner.sessions = nil
		if err := h.run("auth", "login", "--email", tu.FakeEmail); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		h.out.Reset()
		if err := h.run("setup", "purge-sessions"); err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Removed 0 session(s)") {
			t.Errorf("unexpected output %q", h.out.String())
		}
		if _, err := h.runner.session(context.Background()); err != nil {
			t.Errorf("expected the session to survive, got %v", err)
		}
	})

	t.Run("purge-sessions needs a purging store", func(t *testing.T) {
		h := newCLI(t, "")

		if err := h.run("setup", "purge-sessions"); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented for the memory store, got %v", err)
		}
	})
}
