package views

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	tu "github.com/desertthunder/ecn/internal/testing"
)

func quietLogger() *log.Logger {
	return log.New(&strings.Builder{})
}

func memberClient(b *tu.FakeBackend) *services.Resource[models.Member] {
	return services.NewMemberResource(services.NewAPIService(b.URL(), nil)).WithToken(tu.FakeToken)
}

func bookClient(b *tu.FakeBackend) *services.Resource[models.Book] {
	return services.NewBookResource(services.NewAPIService(b.URL(), nil)).WithToken(tu.FakeToken)
}

func ids[T models.Entity](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.EntityID())
	}
	return out
}

func validMemberForm() models.MemberForm {
	f := models.DefaultMemberForm()
	f.Name = "Rashid Ahmed"
	f.FatherName = "Nazir Ahmed"
	f.DOB = "1992-04-12"
	f.Address = "Naseerpur"
	f.Phone = "0123456789"
	f.JoiningDate = "2024-01-01"
	return f
}

func TestListView(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Replaces Items", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v := NewListView(MemberSchema, memberClient(b), quietLogger())

		if v.State() != Idle {
			t.Fatalf("expected idle before load, got %v", v.State())
		}
		if err := v.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if v.State() != Ready {
			t.Errorf("expected ready, got %v", v.State())
		}
		if got := strings.Join(ids(v.Items()), ","); got != "41,42,43" {
			t.Errorf("unexpected items %s", got)
		}
		if b.RequestCount() != 1 {
			t.Errorf("expected one request, got %d", b.RequestCount())
		}
	})

	t.Run("Empty Collection Is Not Found", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		v := NewListView(BookSchema, bookClient(b), quietLogger())

		if err := v.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if v.State() != Empty {
			t.Errorf("expected empty, got %v", v.State())
		}
		if v.Message() != "No books found." {
			t.Errorf("unexpected message %q", v.Message())
		}
	})

	t.Run("Failed Load Shows Error", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		b.Fail(http.MethodGet, "/api/v1/ecnmembers", http.StatusInternalServerError, "")
		v := NewListView(MemberSchema, memberClient(b), quietLogger())

		if err := v.Load(ctx); err == nil {
			t.Fatal("expected error")
		}
		if v.State() != Failed {
			t.Errorf("expected failed, got %v", v.State())
		}
		if v.Message() != "Failed to fetch members." {
			t.Errorf("unexpected message %q", v.Message())
		}
		if len(v.Items()) != 0 {
			t.Error("expected no items")
		}
	})

	t.Run("Delete Removes Exactly The Matching Id", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v := NewListView(MemberSchema, memberClient(b), quietLogger())
		v.Load(ctx)

		var prompted Prompt
		confirm := ConfirmFunc(func(_ context.Context, p Prompt) bool {
			prompted = p
			return true
		})

		n, err := v.Delete(ctx, "42", confirm)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if prompted.Title != "Are you sure?" {
			t.Errorf("expected confirmation prompt, got %+v", prompted)
		}
		if n == nil || n.Title != "Deleted!" || n.Kind != NoticeSuccess {
			t.Errorf("unexpected notice %+v", n)
		}
		if got := strings.Join(ids(v.Items()), ","); got != "41,43" {
			t.Errorf("expected 41,43 to remain, got %s", got)
		}
		if last := b.LastRequest(); last.Method != http.MethodDelete || last.Path != "/api/v1/ecnmembers/delete/42" {
			t.Errorf("unexpected request %s %s", last.Method, last.Path)
		}
	})

	t.Run("Deleting Every Item Leaves Not Found", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, tu.SampleBooks())
		v := NewListView(BookSchema, bookClient(b), quietLogger())
		v.Load(ctx)

		for _, id := range []string{"7", "8"} {
			if _, err := v.Delete(ctx, id, Confirmed); err != nil {
				t.Fatalf("Delete %s: %v", id, err)
			}
		}
		if v.State() != Empty {
			t.Errorf("expected empty, got %v", v.State())
		}
	})

	t.Run("Declined Prompt Sends Nothing", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v := NewListView(MemberSchema, memberClient(b), quietLogger())
		v.Load(ctx)

		decline := ConfirmFunc(func(context.Context, Prompt) bool { return false })
		n, err := v.Delete(ctx, "41", decline)
		if n != nil || err != nil {
			t.Errorf("expected no notice and no error, got %v, %v", n, err)
		}
		if b.RequestCount() != 1 {
			t.Errorf("expected only the list request, got %d", b.RequestCount())
		}
		if len(v.Items()) != 3 {
			t.Errorf("expected 3 items, got %d", len(v.Items()))
		}
	})

	t.Run("Failed Delete Leaves List Identical", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		b.Fail(http.MethodDelete, "/api/v1/ecnmembers/delete/42", http.StatusInternalServerError, "")
		v := NewListView(MemberSchema, memberClient(b), quietLogger())
		v.Load(ctx)

		before, _ := json.Marshal(v.Items())
		n, err := v.Delete(ctx, "42", Confirmed)
		if err == nil {
			t.Fatal("expected error")
		}
		after, _ := json.Marshal(v.Items())

		if string(before) != string(after) {
			t.Errorf("list changed after failed delete:\n%s\n%s", before, after)
		}
		if n == nil || !n.IsError() || n.Text != "Failed to delete member." {
			t.Errorf("unexpected notice %+v", n)
		}
		if v.State() != Ready {
			t.Errorf("expected ready, got %v", v.State())
		}
	})

	t.Run("Failed Delete Surfaces Server Message", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, tu.SampleBooks())
		b.Fail(http.MethodDelete, "/api/v1/books/delete/7", http.StatusForbidden, "Not allowed")
		v := NewListView(BookSchema, bookClient(b), quietLogger())
		v.Load(ctx)

		n, _ := v.Delete(ctx, "7", Confirmed)
		if n == nil || n.Text != "Not allowed" {
			t.Errorf("expected server message, got %+v", n)
		}
	})

	t.Run("Edit Path Is Navigation Only", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v := NewListView(MemberSchema, memberClient(b), quietLogger())

		if got := v.EditPath("42"); got != "/dashboard/ecnmembers/edit/42" {
			t.Errorf("unexpected edit path %q", got)
		}
		if b.RequestCount() != 0 {
			t.Errorf("expected no requests, got %d", b.RequestCount())
		}

		books := NewListView(BookSchema, bookClient(b), quietLogger())
		if got := books.EditPath("7"); got != "" {
			t.Errorf("expected books not editable, got %q", got)
		}
		if got := books.DeletePath("7"); got != "/dashboard/books/delete/7" {
			t.Errorf("unexpected delete path %q", got)
		}
	})

	t.Run("Items Is A Copy", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v := NewListView(MemberSchema, memberClient(b), quietLogger())
		v.Load(ctx)

		items := v.Items()
		items[0].Name = "changed"
		if m, _ := v.Find("41"); m.Name == "changed" {
			t.Error("expected Items to return a copy")
		}
	})
}

func TestFormView(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid Phone Issues No Request", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		v := NewAddForm(MemberSchema, memberClient(b), quietLogger())

		f := validMemberForm()
		f.Phone = "12345"
		v.Set(f)

		_, err := v.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if b.RequestCount() != 0 {
			t.Errorf("expected no requests, got %d", b.RequestCount())
		}
		if _, ok := v.FieldErrors()["phone"]; !ok {
			t.Errorf("expected phone error, got %v", v.FieldErrors())
		}
		if v.State() != Idle {
			t.Errorf("expected idle, got %v", v.State())
		}
		if v.Form().Phone != "12345" {
			t.Error("expected entered values to be kept")
		}
	})

	t.Run("Add Resets To Defaults", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		v := NewAddForm(MemberSchema, memberClient(b), quietLogger())
		v.Set(validMemberForm())

		var progress []int
		out, err := v.Submit(ctx, func(p int) { progress = append(progress, p) })
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if out.Notice.Title != "Member Added!" || out.Redirect != "" {
			t.Errorf("unexpected outcome %+v", out)
		}
		if v.State() != Succeeded {
			t.Errorf("expected succeeded, got %v", v.State())
		}
		if v.Form() != models.DefaultMemberForm() {
			t.Errorf("expected defaults, got %+v", v.Form())
		}
		if len(progress) == 0 || progress[len(progress)-1] != 100 {
			t.Errorf("expected progress to end at 100, got %v", progress)
		}
		if len(b.Members()) != 1 {
			t.Errorf("expected member to be created, got %d", len(b.Members()))
		}
	})

	t.Run("Failure Keeps Fields", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		b.Fail(http.MethodPost, "/api/v1/ecnmembers/addmember", http.StatusBadRequest, "Phone already registered")
		v := NewAddForm(MemberSchema, memberClient(b), quietLogger())
		v.Set(validMemberForm())

		if _, err := v.Submit(ctx, nil); err == nil {
			t.Fatal("expected error")
		}
		if v.State() != Failed {
			t.Errorf("expected failed, got %v", v.State())
		}
		if v.Form() != validMemberForm() {
			t.Error("expected fields to be kept")
		}
		if n := v.Notice(); n == nil || n.Title != "Submission Failed" || n.Text != "Phone already registered" {
			t.Errorf("unexpected notice %+v", n)
		}

		v.Set(v.Form())
		if v.State() != Idle || v.Notice() != nil {
			t.Errorf("expected edit to return to idle, got %v", v.State())
		}
	})

	t.Run("Failure Without Server Message Uses Fallback", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		v := NewAddForm(MemberSchema, memberClient(b), quietLogger())
		b.Server.Close()
		v.Set(validMemberForm())

		_, err := v.Submit(ctx, nil)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Fatalf("expected network error, got %v", err)
		}
		if n := v.Notice(); n == nil || n.Text != "There was an error submitting the form. Please try again." {
			t.Errorf("unexpected notice %+v", n)
		}
	})

	t.Run("Edit Prefills Truncated Dates", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v, err := NewEditForm(MemberSchema, memberClient(b), "42", quietLogger())
		if err != nil {
			t.Fatalf("NewEditForm: %v", err)
		}
		if v.State() != Loading {
			t.Errorf("expected loading before fetch, got %v", v.State())
		}

		if err := v.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		f := v.Form()
		if f.DOB != "1990-05-01" {
			t.Errorf("expected dob 1990-05-01, got %q", f.DOB)
		}
		if f.JoiningDate != "2020-01-15" {
			t.Errorf("expected joining date 2020-01-15, got %q", f.JoiningDate)
		}
		if v.Heading() != "Edit Member" || v.Action() != "/dashboard/ecnmembers/edit/42" {
			t.Errorf("unexpected heading/action %q %q", v.Heading(), v.Action())
		}
	})

	t.Run("Edit Redirects To List", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v, _ := NewEditForm(MemberSchema, memberClient(b), "42", quietLogger())
		v.Load(ctx)

		f := v.Form()
		f.Address = "New Address"
		v.Set(f)

		out, err := v.Submit(ctx, nil)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if out.Redirect != "/dashboard/upload/ecnmember" {
			t.Errorf("unexpected redirect %q", out.Redirect)
		}
		if out.Notice.Title != "Member Updated" || out.Notice.Text != "Member updated successfully" {
			t.Errorf("unexpected notice %+v", out.Notice)
		}
		if last := b.LastRequest(); last.Method != http.MethodPut || last.Path != "/api/v1/ecnmembers/edit/42" {
			t.Errorf("unexpected request %s %s", last.Method, last.Path)
		}
		if b.Members()[1].Address != "New Address" {
			t.Error("expected backend record to be updated")
		}
	})

	t.Run("Edit Of Missing Record Fails", func(t *testing.T) {
		b := tu.NewFakeBackend(t, tu.SampleMembers(), nil)
		v, _ := NewEditForm(MemberSchema, memberClient(b), "99", quietLogger())

		err := v.Load(ctx)
		if !errors.Is(err, shared.ErrMemberNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if n := v.Notice(); n == nil || n.Text != "Member not found" {
			t.Errorf("unexpected notice %+v", n)
		}
		if _, err := v.Submit(ctx, nil); err == nil {
			t.Error("expected submit to fail validation of empty fields")
		}
	})

	t.Run("Books Cannot Be Edited", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		if _, err := NewEditForm(BookSchema, bookClient(b), "7", quietLogger()); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("Add Book Streams Progress", func(t *testing.T) {
		b := tu.NewFakeBackend(t, nil, nil)
		v := NewAddForm(BookSchema, bookClient(b), quietLogger())

		f := v.Form()
		f.Title = "Riyad as-Salihin"
		f.Author = "Imam Nawawi"
		f.CoverImage = &models.Attachment{Field: "coverImage", Filename: "cover.jpg", ContentType: "image/jpeg", Content: strings.NewReader(strings.Repeat("c", 64*1024))}
		f.PDFFile = &models.Attachment{Field: "pdfFile", Filename: "book.pdf", ContentType: "application/pdf", Content: strings.NewReader(strings.Repeat("p", 256*1024))}
		v.Set(f)

		sub := v.Start(ctx)
		var progress []int
		for p := range sub.Progress() {
			progress = append(progress, p)
		}
		res, err := sub.Wait()
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
		if res.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", res.StatusCode)
		}
		for i := 1; i < len(progress); i++ {
			if progress[i] <= progress[i-1] {
				t.Fatalf("progress not increasing: %v", progress)
			}
		}
		if len(progress) == 0 || progress[len(progress)-1] != 100 {
			t.Errorf("expected progress to end at 100, got %v", progress)
		}

		last := b.LastRequest()
		if got := strings.Join(last.Order, ","); got != "title,author,category,pdfLink,coverImage,pdfFile" {
			t.Errorf("unexpected multipart fields %s", got)
		}
		if n := v.Notice(); n == nil || n.Text != "Book added successfully!" {
			t.Errorf("unexpected notice %+v", n)
		}
		if v.Form().Title != "" || v.Form().Category != models.CategoryIslamic {
			t.Errorf("expected book defaults, got %+v", v.Form())
		}
	})
}

func TestState(t *testing.T) {
	for state, want := range map[State]string{Idle: "idle", Loading: "loading", Empty: "empty", Succeeded: "succeeded", State(99): "unknown"} {
		if state.String() != want {
			t.Errorf("expected %q, got %q", want, state.String())
		}
	}
}
