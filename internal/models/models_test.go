package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/ecn/internal/shared"
)

func validMemberForm() MemberForm {
	f := DefaultMemberForm()
	f.Name = "Abdul Karim"
	f.FatherName = "Abdul Rahim"
	f.DOB = "1990-05-01"
	f.Address = "Naseerpur"
	f.Phone = "0123456789"
	f.JoiningDate = "2020-01-15"
	return f
}

func validBookForm() BookForm {
	f := DefaultBookForm()
	f.Title = "Riyad as-Salihin"
	f.Author = "An-Nawawi"
	f.CoverImage = &Attachment{Filename: "cover.png", Content: strings.NewReader("png")}
	f.PDFFile = &Attachment{Filename: "book.pdf", Content: strings.NewReader("%PDF")}
	return f
}

func TestMemberForm(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		f := DefaultMemberForm()
		if f.Status != StatusActive || f.Role != RoleMember {
			t.Errorf("expected Active/member defaults, got %s/%s", f.Status, f.Role)
		}
	})

	t.Run("Valid Form Passes", func(t *testing.T) {
		if err := validMemberForm().Validate(); err != nil {
			t.Fatalf("expected valid form, got %v", err)
		}
	})

	t.Run("Rejects Invalid Fields", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*MemberForm)
			field  string
		}{
			{name: "five digit phone", mutate: func(f *MemberForm) { f.Phone = "12345" }, field: "phone"},
			{name: "eleven digit phone", mutate: func(f *MemberForm) { f.Phone = "01234567890" }, field: "phone"},
			{name: "phone with letters", mutate: func(f *MemberForm) { f.Phone = "01234abcde" }, field: "phone"},
			{name: "signed phone", mutate: func(f *MemberForm) { f.Phone = "+123456789" }, field: "phone"},
			{name: "missing name", mutate: func(f *MemberForm) { f.Name = "" }, field: "name"},
			{name: "missing father name", mutate: func(f *MemberForm) { f.FatherName = "" }, field: "fatherName"},
			{name: "missing address", mutate: func(f *MemberForm) { f.Address = "" }, field: "address"},
			{name: "missing dob", mutate: func(f *MemberForm) { f.DOB = "" }, field: "dob"},
			{name: "timestamp dob", mutate: func(f *MemberForm) { f.DOB = "1990-05-01T00:00:00Z" }, field: "dob"},
			{name: "missing joining date", mutate: func(f *MemberForm) { f.JoiningDate = "" }, field: "joiningDate"},
			{name: "malformed email", mutate: func(f *MemberForm) { f.Email = "not-an-email" }, field: "email"},
			{name: "unknown status", mutate: func(f *MemberForm) { f.Status = "Suspended" }, field: "status"},
			{name: "unknown role", mutate: func(f *MemberForm) { f.Role = "owner" }, field: "role"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := validMemberForm()
				tt.mutate(&f)

				err := f.Validate()
				if !errors.Is(err, shared.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}

				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if !verr.Has(tt.field) {
					t.Errorf("expected %s to fail, got %v", tt.field, verr.Fields)
				}
			})
		}
	})

	t.Run("Email Is Optional", func(t *testing.T) {
		f := validMemberForm()
		f.Email = ""
		if err := f.Validate(); err != nil {
			t.Errorf("expected empty email to pass, got %v", err)
		}
	})

	t.Run("Phone Message", func(t *testing.T) {
		f := validMemberForm()
		f.Phone = "12345"
		var verr *ValidationError
		if !errors.As(f.Validate(), &verr) {
			t.Fatal("expected validation error")
		}
		if got := verr.Messages()["phone"]; got != "must be exactly 10 digits" {
			t.Errorf("unexpected phone message %q", got)
		}
	})

	t.Run("Prefill Truncates Dates", func(t *testing.T) {
		m := Member{
			ID:          "42",
			Name:        "Abdul Karim",
			DOB:         "1990-05-01T00:00:00Z",
			JoiningDate: "2020-01-15T08:30:00.000Z",
			Status:      StatusInactive,
		}
		f := MemberFormFrom(m)

		if f.DOB != "1990-05-01" {
			t.Errorf("expected dob 1990-05-01, got %q", f.DOB)
		}
		if f.JoiningDate != "2020-01-15" {
			t.Errorf("expected joining date 2020-01-15, got %q", f.JoiningDate)
		}
		if f.Status != StatusInactive || f.Role != RoleMember {
			t.Errorf("expected stored status and default role, got %s/%s", f.Status, f.Role)
		}
	})

	t.Run("Body Sends Null Email", func(t *testing.T) {
		data, err := json.Marshal(validMemberForm().Body())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"email":null`) {
			t.Errorf("expected explicit null email, got %s", data)
		}
		if strings.Contains(string(data), "employmentType") {
			t.Errorf("unexpected employmentType in %s", data)
		}
	})

	t.Run("Attachments Only With Profile Image", func(t *testing.T) {
		f := validMemberForm()
		if got := f.Attachments(); len(got) != 0 {
			t.Errorf("expected no attachments, got %d", len(got))
		}

		f.ProfileImage = &Attachment{Filename: "me.jpg", Content: strings.NewReader("jpg")}
		got := f.Attachments()
		if len(got) != 1 || got[0].Field != "profileImage" {
			t.Errorf("expected profileImage attachment, got %+v", got)
		}
	})
}

func TestBookForm(t *testing.T) {
	t.Run("Defaults To Islamic", func(t *testing.T) {
		if got := DefaultBookForm().Category; got != CategoryIslamic {
			t.Errorf("expected Islamic, got %s", got)
		}
	})

	t.Run("Field Set", func(t *testing.T) {
		f := validBookForm()
		if err := f.Validate(); err != nil {
			t.Fatalf("expected valid form, got %v", err)
		}

		var names []string
		for _, v := range f.Values() {
			names = append(names, v.Name)
		}
		for _, a := range f.Attachments() {
			names = append(names, a.Field)
		}

		want := "title,author,category,pdfLink,coverImage,pdfFile"
		if got := strings.Join(names, ","); got != want {
			t.Errorf("expected fields %s, got %s", want, got)
		}
	})

	t.Run("Requires Uploads", func(t *testing.T) {
		f := validBookForm()
		f.CoverImage = nil
		f.PDFFile = nil

		var verr *ValidationError
		if !errors.As(f.Validate(), &verr) {
			t.Fatal("expected validation error")
		}
		if !verr.Has("coverImage") || !verr.Has("pdfFile") {
			t.Errorf("expected both uploads to be required, got %v", verr.Fields)
		}
	})

	t.Run("Rejects Unknown Category", func(t *testing.T) {
		f := validBookForm()
		f.Category = "Fiction"

		var verr *ValidationError
		if !errors.As(f.Validate(), &verr) || !verr.Has("category") {
			t.Errorf("expected category failure, got %v", f.Validate())
		}
	})

	t.Run("Link Is Free Text", func(t *testing.T) {
		f := validBookForm()
		f.PDFLink = "see library shelf 3"
		if err := f.Validate(); err != nil {
			t.Errorf("expected free text link to pass, got %v", err)
		}
	})
}

func TestSession(t *testing.T) {
	tc := []struct {
		name    string
		session Session
		want    bool
	}{
		{name: "empty", session: Session{}, want: false},
		{name: "token without user", session: Session{Token: "t"}, want: false},
		{name: "user without token", session: Session{User: &UserProfile{Email: "a@b.c"}}, want: false},
		{name: "user and token", session: Session{User: &UserProfile{Email: "a@b.c"}, Token: "t"}, want: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.Authenticated(); got != tt.want {
				t.Errorf("Authenticated() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("Clone Does Not Share User", func(t *testing.T) {
		s := Session{User: &UserProfile{Name: "Admin"}, Token: "t"}
		c := s.Clone()
		c.User.Name = "Changed"
		if s.User.Name != "Admin" {
			t.Error("expected clone to copy the user")
		}
	})
}

func TestRoutes(t *testing.T) {
	if got := MemberRoutes.Path(MemberRoutes.Update, "42"); got != "/api/v1/ecnmembers/edit/42" {
		t.Errorf("unexpected update path %s", got)
	}
	if got := BookRoutes.Path(BookRoutes.Delete, "a/b"); got != "/api/v1/books/delete/a%2Fb" {
		t.Errorf("expected escaped id, got %s", got)
	}
}

func TestActivity(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		if err := NewActivity("admin", "member", ActionDelete, "42", OutcomeSuccess, "").Validate(); err != nil {
			t.Errorf("expected valid activity, got %v", err)
		}
		if err := NewActivity("admin", "", ActionDelete, "42", OutcomeSuccess, "").Validate(); err == nil {
			t.Error("expected missing entity to fail")
		}
		if err := NewActivity("admin", "member", "archive", "42", OutcomeSuccess, "").Validate(); err == nil {
			t.Error("expected unknown action to fail")
		}
	})

	t.Run("Summary", func(t *testing.T) {
		a := NewActivity("admin", "book", ActionCreate, "", OutcomeFailure, "Bad Request")
		if got := a.Summary(); got != "admin create book (failed: Bad Request)" {
			t.Errorf("unexpected summary %q", got)
		}
	})
}
