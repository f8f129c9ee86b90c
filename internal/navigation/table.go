package navigation

import (
	"net/url"
	"strings"

	"github.com/bissquit/mediconnect-console/internal/domain"
)

// ResolutionKind tells the console what to do with a request path.
type ResolutionKind int

// Resolution kinds.
const (
	NotFound ResolutionKind = iota
	ShowPage
	Redirect
)

// Resolution is the outcome of routing a path for a role.
type Resolution struct {
	Kind   ResolutionKind
	Route  Route  // set for ShowPage
	Target string // set for Redirect
}

var notAuthorizedRoute = Route{Path: NotAuthorizedPath, Page: PageNotAuthorized, Title: "Unauthorized Access"}

// Table routes requests by role.
type Table struct {
	profiles map[domain.Role]Profile
}

// NewTable indexes profiles by role. A later profile for the same role wins.
func NewTable(profiles []Profile) *Table {
	t := &Table{profiles: make(map[domain.Role]Profile, len(profiles))}
	for _, p := range profiles {
		t.profiles[p.Role] = p
	}
	return t
}

// DefaultTable returns the table for DefaultProfiles.
func DefaultTable() *Table {
	return NewTable(DefaultProfiles())
}

// Profile returns the layout of role.
func (t *Table) Profile(role domain.Role) (Profile, bool) {
	p, ok := t.profiles[role]
	return p, ok
}

// Menu returns the sidebar entries of role; empty for roles without a profile.
func (t *Table) Menu(role domain.Role) []MenuEntry {
	return t.profiles[role].Menu
}

// Landing returns the path a role is sent to after login.
func (t *Table) Landing(role domain.Role) (string, bool) {
	p, ok := t.profiles[role]
	if !ok || p.Landing == "" {
		return "", false
	}
	return p.Landing, true
}

// LandingOrUnauthorized returns the landing path of role, or the
// not-authorized page when the role has none.
func (t *Table) LandingOrUnauthorized(role domain.Role) string {
	if landing, ok := t.Landing(role); ok {
		return landing
	}
	return NotAuthorizedPath
}

// Entry looks up a top-level menu entry of role by name.
func (t *Table) Entry(role domain.Role, name string) (MenuEntry, bool) {
	for _, e := range t.profiles[role].Menu {
		if e.Name == name {
			return e, true
		}
	}
	return MenuEntry{}, false
}

// Resolve routes path for role. Paths outside the role's route set are
// NotFound even when typed directly.
func (t *Table) Resolve(role domain.Role, path string) Resolution {
	path = cleanPath(path)

	if path == NotAuthorizedPath {
		return Resolution{Kind: ShowPage, Route: notAuthorizedRoute}
	}

	p, ok := t.profiles[role]
	if !ok {
		if path == "/" && role != "" {
			return Resolution{Kind: Redirect, Target: NotAuthorizedPath}
		}
		return Resolution{Kind: NotFound}
	}

	if path == "/" || path == p.Home {
		return Resolution{Kind: Redirect, Target: p.Landing}
	}

	for _, r := range p.Routes() {
		if r.Path == path {
			return Resolution{Kind: ShowPage, Route: r}
		}
	}

	return Resolution{Kind: NotFound}
}

// ToggleHref is the link that expands or collapses a menu entry.
func ToggleHref(name string) string {
	return MenuTogglePrefix + url.PathEscape(name)
}

func cleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
