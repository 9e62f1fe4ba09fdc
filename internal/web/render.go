package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/views"
)

//go:embed templates/*.html
var templateFiles embed.FS

const layoutFile = "layout.html"

// page is the data every template receives.
type page struct {
	name   string
	status int

	Title   string
	Notice  *views.Notice
	Content any

	Session   models.Session
	CSRFField template.HTML
}

// pages holds one parsed template set per page, each joined with the layout.
type pages struct {
	sets map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatDate": shared.FormatDate,
	"dateOnly":   shared.DateOnly,
	"lower":      strings.ToLower,
	"memberStatuses": func() []string {
		return models.Options(models.StatusActive, models.StatusInactive)
	},
	"memberRoles": func() []string {
		return models.Options(models.RoleMember, models.RoleAdmin)
	},
	"bookCategories": func() []string {
		return models.Options(models.BookCategories...)
	},
}

func parsePages() (*pages, error) {
	entries, err := fs.ReadDir(templateFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	p := &pages{sets: make(map[string]*template.Template)}
	for _, entry := range entries {
		name := entry.Name()
		if name == layoutFile || entry.IsDir() {
			continue
		}
		tpl, err := template.New(layoutFile).Funcs(funcs).ParseFS(templateFiles,
			path.Join("templates", layoutFile),
			path.Join("templates", name),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		p.sets[name] = tpl
	}
	return p, nil
}

// render writes p inside the layout. A pending flash notice wins over p.Notice.
func (a *App) render(w http.ResponseWriter, r *http.Request, p page) {
	tpl, ok := a.pages.sets[p.name]
	if !ok {
		a.logger.Error("unknown template", "name", p.name)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	if flash := a.popFlash(w, r); flash != nil {
		p.Notice = flash
	}
	p.Session = currentSession(r)
	p.CSRFField = csrf.TemplateField(r)
	if p.status == 0 {
		p.status = http.StatusOK
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		a.logger.Error("failed to render", "template", p.name, "error", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(p.status)
	_, _ = buf.WriteTo(w)
}
