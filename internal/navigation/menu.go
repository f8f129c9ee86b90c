package navigation

import (
	"strings"

	"github.com/bissquit/mediconnect-console/internal/domain"
)

// MenuState records which menu entries are expanded, keyed by entry name.
// Entries are collapsed until toggled.
type MenuState map[string]bool

// Toggle flips the expansion of the named entry and returns the new value.
func (s *MenuState) Toggle(name string) bool {
	if *s == nil {
		*s = make(MenuState)
	}
	open := !(*s)[name]
	if open {
		(*s)[name] = true
	} else {
		delete(*s, name)
	}
	return open
}

// IsOpen reports whether the named entry is expanded.
func (s MenuState) IsOpen(name string) bool {
	return s[name]
}

// NavLink is a rendered sub-entry.
type NavLink struct {
	Name   string
	Path   string
	Active bool
}

// NavItem is a rendered top-level entry.
type NavItem struct {
	Name     string
	Icon     string
	Href     string
	Active   bool
	Open     bool
	Children []NavLink
}

// IsActive reports whether target should be highlighted for the current
// path: an exact match or any path below it.
func IsActive(current, target string) bool {
	current = cleanPath(current)
	return current == target || strings.HasPrefix(current, target+"/")
}

// Navigation builds the sidebar for role at currentPath.
func (t *Table) Navigation(role domain.Role, currentPath string, state MenuState) []NavItem {
	menu := t.Menu(role)
	items := make([]NavItem, 0, len(menu))

	for _, e := range menu {
		item := NavItem{
			Name:   e.Name,
			Icon:   e.Icon,
			Href:   e.Route.Path,
			Active: IsActive(currentPath, e.Route.Path),
		}

		if e.HasChildren() {
			item.Href = ToggleHref(e.Name)
			item.Open = state.IsOpen(e.Name)
			for _, c := range e.Children {
				item.Children = append(item.Children, NavLink{
					Name:   c.Name,
					Path:   c.Route.Path,
					Active: IsActive(currentPath, c.Route.Path),
				})
			}
		}

		items = append(items, item)
	}

	return items
}
