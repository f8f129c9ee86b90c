// Package console serves the server-rendered administrative console: login,
// role navigation, role pages and the hospital registration wizard.
package console

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bissquit/mediconnect-console/internal/auth"
	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/bissquit/mediconnect-console/internal/forms"
	"github.com/bissquit/mediconnect-console/internal/navigation"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
	"github.com/bissquit/mediconnect-console/internal/session"
	"github.com/bissquit/mediconnect-console/internal/wizard"
)

// MsgSessionExpired is shown on the login page after the platform rejects
// the session mid-flow.
const MsgSessionExpired = "Your session has expired. Please log in again."

// Wizard steps accepted by POST ?step=.
const (
	stepHospital = "hospital"
	stepAdmin    = "admin"
	stepBack     = "back"
)

// Handler serves the console pages.
type Handler struct {
	sessions *session.Manager
	table    *navigation.Table
	auth     *auth.Service
	wizard   *wizard.Service
	pages    *Renderer
}

// NewHandler creates a console handler.
func NewHandler(sessions *session.Manager, table *navigation.Table, authService *auth.Service, wizardService *wizard.Service) (*Handler, error) {
	pages, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	return &Handler{
		sessions: sessions,
		table:    table,
		auth:     authService,
		wizard:   wizardService,
		pages:    pages,
	}, nil
}

// RegisterRoutes registers the console routes. Every route runs inside a
// session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httputil.NoStoreMiddleware)
		r.Use(h.sessions.Middleware)

		r.Get(navigation.LoginPath, h.LoginPage)
		r.Post(navigation.LoginPath, h.Login)
		r.Post(navigation.LogoutPath, h.Logout)
		r.Get(navigation.NotAuthorizedPath, h.NotAuthorized)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get(navigation.MenuTogglePrefix+"{name}", h.ToggleMenu)
			r.Get("/", h.Page)
			r.Get("/*", h.Page)
			r.Post("/*", h.Submit)
		})
	})
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil || !s.Authenticated() {
			httputil.Redirect(w, r, navigation.LoginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginPage renders the login form, or sends signed-in users to their landing page.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if s.Authenticated() {
		h.redirect(w, r, s, h.table.LandingOrUnauthorized(s.Role))
		return
	}

	h.render(w, r, s, http.StatusOK, pageLogin, PageData{
		Title: "Login",
		Login: LoginView{Roles: domain.Roles()},
	})
}

// Login handles the login form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := session.FromContext(ctx)
	if s.Authenticated() {
		h.redirect(w, r, s, h.table.LandingOrUnauthorized(s.Role))
		return
	}

	if err := r.ParseForm(); err != nil {
		httputil.Text(w, http.StatusBadRequest, "invalid form")
		return
	}

	form := auth.LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Role:     r.PostForm.Get("role"),
	}
	data := PageData{
		Title: "Login",
		Login: LoginView{Username: form.Username, Role: form.Role, Roles: domain.Roles()},
	}

	creds, err := h.auth.Login(ctx, httputil.ClientKey(r), form)
	if err != nil {
		if fields := forms.FieldErrors(err); fields != nil {
			data.Login.Errors = fields
			h.render(w, r, s, http.StatusUnprocessableEntity, pageLogin, data)
			return
		}

		status, n := notificationFor(ctx, err, auth.MsgLoginFailed, auth.ErrorMappings)
		s.Notify(n)
		h.render(w, r, s, status, pageLogin, data)
		return
	}

	target := navigation.NotAuthorizedPath
	if h.sessions.LogIn(ctx, s, creds) {
		target = h.table.LandingOrUnauthorized(s.Role)
		s.Notify(domain.Success(auth.MsgLoginSuccess))
		ctxlog.FromContext(ctx).Info("user logged in", "role", s.Role)
	}

	if err := h.sessions.Rotate(w, r, s); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Redirect(w, r, target)
}

// Logout signs the session out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	if err := h.sessions.Apply(s, session.LoggedOut()); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.Destroy(w, r, s); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Redirect(w, r, navigation.LoginPath)
}

// NotAuthorized renders the page shown to roles without a console.
func (h *Handler) NotAuthorized(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	back := navigation.LoginPath
	if landing, ok := h.table.Landing(s.Role); ok {
		back = landing
	}

	h.render(w, r, s, http.StatusOK, pageNotAuthorized, PageData{
		Title: "Unauthorized Access",
		Back:  back,
	})
}

// ToggleMenu expands or collapses a menu entry and opens its page.
func (h *Handler) ToggleMenu(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		h.notFound(w, r, s)
		return
	}

	entry, ok := h.table.Entry(s.Role, name)
	if !ok {
		h.notFound(w, r, s)
		return
	}

	s.Menu.Toggle(entry.Name)
	h.redirect(w, r, s, entry.Route.Path)
}

// Page renders the role page at the request path.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	res := h.table.Resolve(s.Role, r.URL.Path)
	switch res.Kind {
	case navigation.Redirect:
		h.redirect(w, r, s, res.Target)
	case navigation.ShowPage:
		if res.Route.Page == navigation.PageHospitalWizard {
			// A fresh load starts the wizard over.
			s.Wizard = wizard.State{}
			h.renderWizard(w, r, s, http.StatusOK, res.Route, newWizardView(s.Wizard))
			return
		}
		h.render(w, r, s, http.StatusOK, pagePlaceholder, PageData{Title: res.Route.Title})
	default:
		h.notFound(w, r, s)
	}
}

// Submit handles form posts to role pages. Only the wizard accepts them.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	res := h.table.Resolve(s.Role, r.URL.Path)
	if res.Kind != navigation.ShowPage || res.Route.Page != navigation.PageHospitalWizard {
		h.notFound(w, r, s)
		return
	}

	if err := r.ParseForm(); err != nil {
		httputil.Text(w, http.StatusBadRequest, "invalid form")
		return
	}

	switch r.URL.Query().Get("step") {
	case stepHospital:
		h.submitHospital(w, r, s, res.Route)
	case stepAdmin:
		h.submitAdmin(w, r, s, res.Route)
	case stepBack:
		s.Wizard = s.Wizard.Back()
		h.renderWizard(w, r, s, http.StatusOK, res.Route, newWizardView(s.Wizard))
	default:
		httputil.Text(w, http.StatusBadRequest, "unknown wizard step")
	}
}

func (h *Handler) submitHospital(w http.ResponseWriter, r *http.Request, s *session.Session, route navigation.Route) {
	draft := domain.HospitalDraft{
		Name:          strings.TrimSpace(r.PostForm.Get("name")),
		Location:      strings.TrimSpace(r.PostForm.Get("location")),
		ContactNumber: strings.TrimSpace(r.PostForm.Get("contactNumber")),
		LicenseNumber: strings.TrimSpace(r.PostForm.Get("licenseNumber")),
		LicenseImage:  strings.TrimSpace(r.PostForm.Get("licenseImage")),
	}

	next, err := h.wizard.SubmitHospital(r.Context(), s.ID, s.Credentials, s.Wizard, draft)
	s.Wizard = next

	view := newWizardView(next)
	if err != nil {
		view.Hospital = draft
		h.wizardFailed(w, r, s, route, view, err, wizard.MsgHospitalFailed)
		return
	}

	s.Notify(domain.Success(wizard.MsgHospitalRegistered))
	h.renderWizard(w, r, s, http.StatusOK, route, view)
}

func (h *Handler) submitAdmin(w http.ResponseWriter, r *http.Request, s *session.Session, route navigation.Route) {
	draft := domain.NewAdminDraft()
	draft.Email = strings.TrimSpace(r.PostForm.Get("email"))
	draft.Password = r.PostForm.Get("password")
	draft.FirstName = strings.TrimSpace(r.PostForm.Get("firstName"))
	draft.LastName = strings.TrimSpace(r.PostForm.Get("lastName"))
	draft.DateOfBirth = strings.TrimSpace(r.PostForm.Get("dateOfBirth"))
	draft.Gender = r.PostForm.Get("gender")

	// Outside AdminInfo this is the zero step, which SubmitAdmin rejects.
	step, _ := s.Wizard.Admin()

	next, err := h.wizard.SubmitAdmin(r.Context(), s.ID, s.Credentials, step, draft)
	s.Wizard = next

	view := newWizardView(next)
	if err != nil {
		if view.AdminStep {
			view.Admin = draft
			view.Admin.Password = ""
		}
		h.wizardFailed(w, r, s, route, view, err, wizard.MsgAdminFailed)
		return
	}

	s.Notify(domain.Success(wizard.MsgAdminRegistered))
	h.renderWizard(w, r, s, http.StatusOK, route, view)
}

func (h *Handler) wizardFailed(w http.ResponseWriter, r *http.Request, s *session.Session, route navigation.Route, view WizardView, err error, fallback string) {
	ctx := r.Context()

	if errors.Is(err, backend.ErrUnauthenticated) {
		if applyErr := h.sessions.Apply(s, session.Expired()); applyErr != nil {
			h.fail(w, r, applyErr)
			return
		}
		s.Notify(domain.Failure(MsgSessionExpired))
		h.redirect(w, r, s, navigation.LoginPath)
		return
	}

	if fields := forms.FieldErrors(err); fields != nil {
		view.Errors = fields
		h.renderWizard(w, r, s, http.StatusUnprocessableEntity, route, view)
		return
	}

	status, n := notificationFor(ctx, err, fallback, wizard.ErrorMappings)
	s.Notify(n)
	h.renderWizard(w, r, s, status, route, view)
}

func (h *Handler) renderWizard(w http.ResponseWriter, r *http.Request, s *session.Session, status int, route navigation.Route, view WizardView) {
	h.render(w, r, s, status, pageWizard, PageData{Title: route.Title, Wizard: view})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.render(w, r, s, http.StatusNotFound, pageNotFound, PageData{Title: "Page Not Found"})
}

// render saves the session, then writes the page. Queued notifications are
// shown once.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, s *session.Session, status int, page string, data PageData) {
	data.CurrentPath = r.URL.Path
	data.Notifications = s.TakeNotifications()
	if s.Authenticated() {
		data.Authenticated = true
		data.RoleLabel = s.Role.Label()
		data.Nav = h.table.Navigation(s.Role, r.URL.Path, s.Menu)
	}

	var buf bytes.Buffer
	if err := h.pages.Render(&buf, page, data); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Save(w, r, s); err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.HTML(w, r, status, &buf)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, s *session.Session, target string) {
	if err := h.sessions.Save(w, r, s); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Redirect(w, r, target)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctxlog.FromContext(r.Context()).Error("console request failed", "error", err)
	httputil.Text(w, http.StatusInternalServerError, httputil.GenericFailure)
}
