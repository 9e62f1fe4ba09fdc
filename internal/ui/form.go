package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ecn/internal/models"
)

// field is one text input of a form editor. File fields hold a local path.
type field struct {
	name    string
	label   string
	hint    string
	file    bool
	input   textinput.Model
	problem string
}

// editor is a vertical stack of text inputs bound to a member or book form.
type editor struct {
	fields []field
	focus  int
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.SetValue(value)
	return ti
}

func newEditor(fields ...field) editor {
	e := editor{fields: fields}
	if len(e.fields) > 0 {
		e.fields[0].input.Focus()
	}
	return e
}

func textField(name, label, value string) field {
	return field{name: name, label: label, input: newInput(label, value)}
}

func choiceField(name, label, value string, options []string) field {
	f := textField(name, label, value)
	f.hint = strings.Join(options, " | ")
	return f
}

func fileField(name, label string) field {
	return field{name: name, label: label, hint: "path to a local file", file: true, input: newInput("/path/to/file", "")}
}

func newMemberEditor(f models.MemberForm, withImage bool) editor {
	fields := []field{
		textField("name", "Name", f.Name),
		textField("fatherName", "Father's Name", f.FatherName),
		textField("dob", "Date of Birth (YYYY-MM-DD)", f.DOB),
		textField("address", "Address", f.Address),
		textField("phone", "Phone", f.Phone),
		textField("email", "Email (optional)", f.Email),
		textField("joiningDate", "Joining Date (YYYY-MM-DD)", f.JoiningDate),
		choiceField("status", "Status", string(f.Status), models.Options(models.StatusActive, models.StatusInactive)),
		choiceField("role", "Role", string(f.Role), models.Options(models.RoleMember, models.RoleAdmin)),
	}
	if withImage {
		fields = append(fields, fileField("profileImage", "Profile Image (optional)"))
	}
	return newEditor(fields...)
}

func newBookEditor(f models.BookForm) editor {
	categories := make([]string, len(models.BookCategories))
	for i, c := range models.BookCategories {
		categories[i] = string(c)
	}
	return newEditor(
		textField("title", "Title", f.Title),
		textField("author", "Author", f.Author),
		choiceField("category", "Category", string(f.Category), categories),
		textField("pdfLink", "PDF Link (optional)", f.PDFLink),
		fileField("coverImage", "Cover Image"),
		fileField("pdfFile", "PDF File"),
	)
}

func (e *editor) move(delta int) {
	if len(e.fields) == 0 {
		return
	}
	e.fields[e.focus].input.Blur()
	e.focus = (e.focus + delta + len(e.fields)) % len(e.fields)
	e.fields[e.focus].input.Focus()
}

func (e editor) update(msg tea.Msg) (editor, tea.Cmd) {
	if len(e.fields) == 0 {
		return e, nil
	}
	var cmd tea.Cmd
	e.fields[e.focus].input, cmd = e.fields[e.focus].input.Update(msg)
	return e, cmd
}

func (e editor) value(name string) string {
	for _, f := range e.fields {
		if f.name == name {
			return strings.TrimSpace(f.input.Value())
		}
	}
	return ""
}

func (e *editor) set(name, value string) {
	for i := range e.fields {
		if e.fields[i].name == name {
			e.fields[i].input.SetValue(value)
		}
	}
}

// mark attaches per-field problems and clears the rest.
func (e *editor) mark(problems map[string]string) {
	for i := range e.fields {
		e.fields[i].problem = problems[e.fields[i].name]
	}
}

func (e editor) memberForm() (models.MemberForm, map[string]string) {
	f := models.MemberForm{
		Name:        e.value("name"),
		FatherName:  e.value("fatherName"),
		DOB:         e.value("dob"),
		Address:     e.value("address"),
		Phone:       e.value("phone"),
		Email:       e.value("email"),
		JoiningDate: e.value("joiningDate"),
		Status:      models.MemberStatus(e.value("status")),
		Role:        models.MemberRole(strings.ToLower(e.value("role"))),
	}
	problems := map[string]string{}
	if p := e.value("profileImage"); p != "" {
		a, err := models.ReadAttachment(p)
		if err != nil {
			problems["profileImage"] = err.Error()
		}
		f.ProfileImage = a
	}
	return f, problems
}

func (e editor) bookForm() (models.BookForm, map[string]string) {
	f := models.BookForm{
		Title:    e.value("title"),
		Author:   e.value("author"),
		Category: models.BookCategory(e.value("category")),
		PDFLink:  e.value("pdfLink"),
	}
	problems := map[string]string{}
	for _, name := range []string{"coverImage", "pdfFile"} {
		p := e.value(name)
		if p == "" {
			continue
		}
		a, err := models.ReadAttachment(p)
		if err != nil {
			problems[name] = err.Error()
			continue
		}
		if name == "coverImage" {
			f.CoverImage = a
		} else {
			f.PDFFile = a
		}
	}
	return f, problems
}

func (e editor) view(p *Palette) string {
	var b strings.Builder
	for i, f := range e.fields {
		marker := "  "
		if i == e.focus {
			marker = p.title.UnsetMarginBottom().Render("> ")
		}
		fmt.Fprintf(&b, "%s%s\n  %s\n", marker, f.label, f.input.View())
		if f.hint != "" {
			fmt.Fprintf(&b, "  %s\n", p.help.Render(f.hint))
		}
		if f.problem != "" {
			fmt.Fprintf(&b, "  %s\n", p.err.Render(f.problem))
		}
	}
	return b.String()
}
