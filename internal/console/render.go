package console

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/navigation"
	"github.com/bissquit/mediconnect-console/internal/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page templates.
const (
	pageLogin         = "login"
	pagePlaceholder   = "placeholder"
	pageNotFound      = "not_found"
	pageNotAuthorized = "not_authorized"
	pageWizard        = "wizard"
)

// PageData is what every template receives.
type PageData struct {
	Title         string
	CurrentPath   string
	Authenticated bool
	RoleLabel     string
	Nav           []navigation.NavItem
	Notifications []domain.Notification

	Back   string
	Login  LoginView
	Wizard WizardView
}

// LoginView is the login form as last submitted. The password is never
// echoed back.
type LoginView struct {
	Username string
	Role     string
	Roles    []domain.Role
	Errors   map[string]string
}

// WizardView is the registration wizard at its current step.
type WizardView struct {
	AdminStep bool
	Hospital  domain.HospitalDraft
	Admin     domain.AdminDraft
	Genders   []string
	Errors    map[string]string
}

func newWizardView(state wizard.State) WizardView {
	return WizardView{
		AdminStep: state.Step() == wizard.StepAdminInfo,
		Admin:     domain.NewAdminDraft(),
		Genders:   domain.Genders(),
	}
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		// Casers are stateful, so each call gets its own.
		"title": func(s string) string { return cases.Title(language.English).String(s) },
		"label": func(r domain.Role) string { return r.Label() },
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageLogin, pagePlaceholder, pageNotFound, pageNotAuthorized, pageWizard} {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages}, nil
}

// Render writes page to w.
func (r *Renderer) Render(w io.Writer, page string, data PageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
