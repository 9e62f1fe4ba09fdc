package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	th "github.com/desertthunder/ecn/internal/testing"
	"github.com/desertthunder/ecn/internal/views"
)

type recorder struct {
	mu      sync.Mutex
	entries []*models.Activity
}

func (r *recorder) Record(a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
	return nil
}

func (r *recorder) summaries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, a := range r.entries {
		out[i] = a.Summary()
	}
	return out
}

type harness struct {
	model     *Model
	backend   *th.FakeBackend
	persister *auth.MemoryPersister
	activity  *recorder
	prefsPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := th.NewFakeBackend(t, th.SampleMembers(), th.SampleBooks())
	api := services.NewAPIService(backend.URL(), backend.Server.Client())
	persister := auth.NewMemoryPersister()
	activity := &recorder{}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")

	m := NewModel(context.Background(), Options{
		Store:      auth.NewStore(auth.CLIKey, persister, nil),
		Auth:       services.NewAuthService(api, "/api/v1/auth/login"),
		API:        api,
		Activities: activity,
		PrefsPath:  prefsPath,
	})
	return &harness{model: m, backend: backend, persister: persister, activity: activity, prefsPath: prefsPath}
}

// drive runs cmd and feeds every resulting application message back into the model.
func (h *harness) drive(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatal("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case Msg:
			_, next := h.model.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *harness) press(t *testing.T, k tea.KeyMsg) {
	t.Helper()
	_, cmd := h.model.Update(k)
	h.drive(t, cmd)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	save  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

// loggedIn restores the store and signs in through the login screen.
func (h *harness) loggedIn(t *testing.T) {
	t.Helper()
	h.drive(t, h.model.restore())
	h.model.email.SetValue(th.FakeEmail)
	h.model.password.SetValue(th.FakePassword)
	h.model.toggleLoginFocus()
	h.press(t, enter)
	if h.model.Screen() != MenuScreen {
		t.Fatalf("expected menu after login, got screen %d (error %q)", h.model.Screen(), h.model.loginErr)
	}
}

func (h *harness) openMembers(t *testing.T) {
	t.Helper()
	h.model.menu.Select(0)
	h.press(t, enter)
	if h.model.Screen() != MembersScreen {
		t.Fatalf("expected members screen, got %d", h.model.Screen())
	}
}

func memberIDs(m *Model) string {
	var ids []string
	for _, item := range m.memberList.Items() {
		ids = append(ids, item.(memberItem).member.ID)
	}
	return strings.Join(ids, ",")
}

func TestSession(t *testing.T) {
	t.Run("Restore Without Session Shows Login", func(t *testing.T) {
		h := newHarness(t)
		if h.model.Screen() != LoadingScreen {
			t.Fatalf("expected loading screen before restore")
		}
		if !strings.Contains(h.model.View(), "Restoring session") {
			t.Errorf("expected loading text, got %q", h.model.View())
		}

		h.drive(t, h.model.restore())
		if h.model.Screen() != LoginScreen {
			t.Errorf("expected login screen, got %d", h.model.Screen())
		}
	})

	t.Run("Restore Existing Session Skips Login", func(t *testing.T) {
		h := newHarness(t)
		user := models.UserProfile{ID: "u1", Name: "Admin", Email: th.FakeEmail}
		if err := h.persister.Save(context.Background(), auth.CLIKey, models.Session{User: &user, Token: th.FakeToken}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		h.drive(t, h.model.restore())
		if h.model.Screen() != MenuScreen {
			t.Fatalf("expected menu, got %d", h.model.Screen())
		}
		if !strings.Contains(h.model.View(), "Signed in as Admin") {
			t.Errorf("expected signed-in header, got %q", h.model.View())
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		h := newHarness(t)
		h.drive(t, h.model.restore())
		h.model.email.SetValue(th.FakeEmail)
		h.model.password.SetValue("nope")
		h.model.toggleLoginFocus()
		h.press(t, enter)

		if h.model.Screen() != LoginScreen {
			t.Fatalf("expected to stay on login, got %d", h.model.Screen())
		}
		if h.model.loginErr != "Invalid email or password" {
			t.Errorf("unexpected error %q", h.model.loginErr)
		}
		if h.model.password.Value() != "" {
			t.Error("password should be cleared after a failed login")
		}
		if h.persister.Len() != 0 {
			t.Error("failed login must not persist a session")
		}
	})

	t.Run("Login Persists And Records", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)

		session, err := h.persister.Load(context.Background(), auth.CLIKey)
		if err != nil || session.Token != th.FakeToken {
			t.Fatalf("expected persisted session, got %+v (%v)", session, err)
		}
		if got := h.activity.summaries(); len(got) != 1 || got[0] != th.FakeEmail+" login session" {
			t.Errorf("unexpected activity %v", got)
		}
	})

	t.Run("Password Is Masked", func(t *testing.T) {
		h := newHarness(t)
		h.drive(t, h.model.restore())
		h.model.password.SetValue("supersecret")
		view := h.model.View()
		if strings.Contains(view, "supersecret") {
			t.Error("password should not be rendered in clear text")
		}
		if !strings.Contains(view, "Login to ECN") {
			t.Errorf("expected login title, got %q", view)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.press(t, tea.KeyMsg{Type: tea.KeyCtrlL})

		if h.model.Screen() != LoginScreen {
			t.Errorf("expected login screen after logout, got %d", h.model.Screen())
		}
		if h.persister.Len() != 0 {
			t.Error("logout should remove the persisted session")
		}
	})
}

func TestMemberScreens(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)

		if got := memberIDs(h.model); got != "41,42,43" {
			t.Errorf("expected 41,42,43, got %q", got)
		}
		if !strings.Contains(h.model.View(), "Mohammad Ali") {
			t.Errorf("expected member in view")
		}
	})

	t.Run("Declined Delete Sends Nothing", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)
		before := h.backend.RequestCount()

		h.model.memberList.Select(1)
		h.press(t, runes("d"))
		if h.model.Screen() != ConfirmScreen {
			t.Fatalf("expected confirm screen, got %d", h.model.Screen())
		}
		if view := h.model.View(); !th.Contains(view, views.DeletePrompt.Title, views.DeletePrompt.Text, "Mohammad Ali") {
			t.Errorf("unexpected prompt %q", view)
		}

		h.press(t, runes("n"))
		if h.model.Screen() != MembersScreen {
			t.Errorf("expected members screen, got %d", h.model.Screen())
		}
		if h.backend.RequestCount() != before {
			t.Error("declined delete must not reach the backend")
		}
	})

	t.Run("Confirmed Delete", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)

		h.model.memberList.Select(1)
		h.press(t, runes("d"))
		h.press(t, runes("y"))

		if got := memberIDs(h.model); got != "41,43" {
			t.Errorf("expected 41,43, got %q", got)
		}
		if h.model.notice == nil || h.model.notice.Title != "Deleted!" {
			t.Errorf("expected deleted notice, got %+v", h.model.notice)
		}
		if len(h.backend.Members()) != 2 {
			t.Errorf("expected backend to hold 2 members")
		}
	})

	t.Run("Failed Delete Keeps Items", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)
		h.backend.Fail("DELETE", "/api/v1/ecnmembers/delete/42", 500, "Database down")

		h.model.memberList.Select(1)
		h.press(t, runes("d"))
		h.press(t, runes("y"))

		if got := memberIDs(h.model); got != "41,42,43" {
			t.Errorf("expected items untouched, got %q", got)
		}
		if h.model.notice == nil || !h.model.notice.IsError() || h.model.notice.Text != "Database down" {
			t.Errorf("expected server message notice, got %+v", h.model.notice)
		}
		if got := h.activity.summaries(); !strings.Contains(got[len(got)-1], "delete member 42 (failed: Database down)") {
			t.Errorf("expected failed delete activity, got %v", got)
		}
	})

	t.Run("Invalid Phone Sends Nothing", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)
		h.press(t, runes("a"))
		if h.model.Screen() != FormScreen {
			t.Fatalf("expected form screen, got %d", h.model.Screen())
		}
		before := h.backend.RequestCount()

		fillMember(h.model, "12345")
		h.press(t, save)

		if h.backend.RequestCount() != before {
			t.Error("invalid form must not reach the backend")
		}
		if !strings.Contains(h.model.View(), "must be exactly 10 digits") {
			t.Errorf("expected phone message in view")
		}
	})

	t.Run("Add Resets Form", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)
		h.press(t, runes("a"))

		fillMember(h.model, "0123456789")
		h.press(t, save)

		if h.model.notice == nil || h.model.notice.Title != "Member Added!" {
			t.Fatalf("expected added notice, got %+v", h.model.notice)
		}
		if h.model.percent != 100 {
			t.Errorf("expected progress to end at 100, got %d", h.model.percent)
		}
		if v := h.model.editor.value("name"); v != "" {
			t.Errorf("expected reset form, name is %q", v)
		}
		if v := h.model.editor.value("status"); v != "Active" {
			t.Errorf("expected default status, got %q", v)
		}
		if len(h.backend.Members()) != 4 {
			t.Errorf("expected 4 members on backend")
		}
		if req := h.backend.LastRequest(); req.JSON["email"] != nil {
			t.Errorf("expected null email, got %v", req.JSON["email"])
		}
	})

	t.Run("Edit Prefills And Redirects", func(t *testing.T) {
		h := newHarness(t)
		h.loggedIn(t)
		h.openMembers(t)

		h.model.memberList.Select(1)
		h.press(t, runes("e"))
		if h.model.Screen() != FormScreen {
			t.Fatalf("expected form, got %d", h.model.Screen())
		}
		if v := h.model.editor.value("dob"); v != "1990-05-01" {
			t.Errorf("expected truncated dob, got %q", v)
		}
		if !strings.Contains(h.model.View(), "Edit Member") {
			t.Errorf("expected edit heading")
		}

		h.model.editor.set("name", "Mohammad Ali Khan")
		h.press(t, save)

		if h.model.Screen() != MembersScreen {
			t.Errorf("expected redirect to list, got %d", h.model.Screen())
		}
		if h.model.notice == nil || h.model.notice.Title != "Member Updated" {
			t.Errorf("expected updated notice, got %+v", h.model.notice)
		}
		if req := h.backend.Requests(); !hasRequest(req, "PUT", "/api/v1/ecnmembers/edit/42") {
			t.Errorf("expected PUT request")
		}
		if !strings.Contains(h.model.View(), "Mohammad Ali Khan") {
			t.Errorf("expected refreshed list")
		}
	})
}

func TestBookScreens(t *testing.T) {
	openBooks := func(t *testing.T, h *harness) {
		t.Helper()
		h.loggedIn(t)
		h.model.menu.Select(1)
		h.press(t, enter)
		if h.model.Screen() != BooksScreen {
			t.Fatalf("expected books screen, got %d", h.model.Screen())
		}
	}

	t.Run("Add With Files", func(t *testing.T) {
		h := newHarness(t)
		openBooks(t, h)
		if n := len(h.model.bookList.Items()); n != 2 {
			t.Fatalf("expected 2 books, got %d", n)
		}

		dir := t.TempDir()
		cover := filepath.Join(dir, "cover.jpg")
		pdf := filepath.Join(dir, "book.pdf")
		os.WriteFile(cover, []byte("jpeg-bytes"), 0644)
		os.WriteFile(pdf, []byte(strings.Repeat("%PDF", 1024)), 0644)

		h.press(t, runes("a"))
		h.model.editor.set("title", "Riyad as-Salihin")
		h.model.editor.set("author", "Imam Nawawi")
		h.model.editor.set("coverImage", cover)
		h.model.editor.set("pdfFile", pdf)
		h.press(t, save)

		if h.model.notice == nil || h.model.notice.Title != "Success!" {
			t.Fatalf("expected success notice, got %+v (problems %+v)", h.model.notice, h.model.editor.fields)
		}
		if h.model.percent != 100 {
			t.Errorf("expected progress 100, got %d", h.model.percent)
		}
		req := h.backend.LastRequest()
		if got := strings.Join(req.Order, ","); got != "title,author,category,pdfLink,coverImage,pdfFile" {
			t.Errorf("unexpected part order %q", got)
		}
		if req.Files["coverImage"] != "cover.jpg" {
			t.Errorf("unexpected cover filename %q", req.Files["coverImage"])
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		h := newHarness(t)
		openBooks(t, h)
		before := h.backend.RequestCount()

		h.press(t, runes("a"))
		h.model.editor.set("title", "T")
		h.model.editor.set("author", "A")
		h.model.editor.set("coverImage", filepath.Join(t.TempDir(), "missing.jpg"))
		h.press(t, save)

		if h.backend.RequestCount() != before {
			t.Error("unreadable file must not reach the backend")
		}
		if !strings.Contains(h.model.View(), "cannot read missing.jpg") {
			t.Errorf("expected file problem in view")
		}
	})

	t.Run("Edit Is Unavailable", func(t *testing.T) {
		h := newHarness(t)
		openBooks(t, h)
		h.press(t, runes("e"))
		if h.model.Screen() != BooksScreen {
			t.Errorf("books cannot be edited, got screen %d", h.model.Screen())
		}
	})

	t.Run("Empty Shelf", func(t *testing.T) {
		h := newHarness(t)
		openBooks(t, h)
		for _, id := range []string{"7", "8"} {
			h.model.bookList.Select(0)
			if got, _ := selectedID(h.model.bookList); got != id {
				t.Fatalf("expected %s selected, got %s", id, got)
			}
			h.press(t, runes("d"))
			h.press(t, runes("y"))
		}
		if !strings.Contains(h.model.View(), "No books found.") {
			t.Errorf("expected empty message, got %q", h.model.View())
		}
	})
}

func TestThemeToggle(t *testing.T) {
	h := newHarness(t)
	h.loggedIn(t)
	h.press(t, runes("t"))

	if h.model.prefs.Theme != "Teal" {
		t.Errorf("expected Teal, got %q", h.model.prefs.Theme)
	}
	if got := LoadPrefs(h.prefsPath); got.Theme != "Teal" {
		t.Errorf("expected saved theme, got %q", got.Theme)
	}
}

func TestPrefs(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		if got := LoadPrefs(filepath.Join(t.TempDir(), "none.toml")); got != DefaultPrefs() {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
		if err := SavePrefs(path, Prefs{Theme: "Amber"}); err != nil {
			t.Fatalf("SavePrefs failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if got := LoadPrefs(path); got.Theme != "Amber" {
			t.Errorf("expected Amber, got %q", got.Theme)
		}
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.toml")
		os.WriteFile(path, []byte("theme = ["), 0644)
		if got := LoadPrefs(path); got != DefaultPrefs() {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("Unknown Theme", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.toml")
		os.WriteFile(path, []byte(`theme = "Neon"`), 0644)
		if got := LoadPrefs(path); got.Theme != defaultTheme {
			t.Errorf("expected default theme, got %q", got.Theme)
		}
	})

	t.Run("Next Theme", func(t *testing.T) {
		if NextTheme("Amber") != "Violet" || NextTheme("Violet") != "Teal" || NextTheme("bogus") != defaultTheme {
			t.Error("unexpected theme cycle")
		}
	})
}

func fillMember(m *Model, phone string) {
	m.editor.set("name", "Imran Rashid")
	m.editor.set("fatherName", "Rashid Ahmed")
	m.editor.set("dob", "2001-01-01")
	m.editor.set("address", "Naseerpur")
	m.editor.set("phone", phone)
	m.editor.set("joiningDate", "2024-01-01")
}

func hasRequest(reqs []th.RecordedRequest, method, path string) bool {
	for _, r := range reqs {
		if r.Method == method && r.Path == path {
			return true
		}
	}
	return false
}
