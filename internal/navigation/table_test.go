package navigation

import (
	"testing"

	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu_EmptyForRolesWithoutProfile(t *testing.T) {
	table := DefaultTable()

	for _, role := range []domain.Role{domain.RoleDoctor, domain.RoleTriage, domain.RoleLabTechnician, domain.RolePharmacist, "", "Janitor"} {
		assert.Empty(t, table.Menu(role), role)
		assert.Empty(t, table.Navigation(role, "/", nil), role)
	}
}

func TestEveryMenuPathIsRoutable(t *testing.T) {
	table := DefaultTable()

	for _, p := range DefaultProfiles() {
		for _, e := range p.Menu {
			res := table.Resolve(p.Role, e.Route.Path)
			assert.Equal(t, ShowPage, res.Kind, "%s %s", p.Role, e.Route.Path)

			for _, c := range e.Children {
				res := table.Resolve(p.Role, c.Route.Path)
				assert.Equal(t, ShowPage, res.Kind, "%s %s", p.Role, c.Route.Path)
			}
		}
	}
}

func TestLandingIsRoutable(t *testing.T) {
	table := DefaultTable()

	for _, p := range DefaultProfiles() {
		res := table.Resolve(p.Role, p.Landing)
		assert.Equal(t, ShowPage, res.Kind, p.Role)
	}
}

func TestResolve_ForeignPathsAreNotFound(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		role domain.Role
		path string
	}{
		{domain.RoleReceptionist, "/admin/dashboard"},
		{domain.RoleReceptionist, "/admin/hospital-management/add-hospital"},
		{domain.RoleHospitalAdministrator, "/admin/hospital-management"},
		{domain.RoleAdmin, "/hospital-admin/audit-logs"},
		{domain.RoleAdmin, "/admin/does-not-exist"},
		{domain.RoleDoctor, "/receptionist/dashboard"},
		{"", "/admin/dashboard"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+tt.path, func(t *testing.T) {
			assert.Equal(t, NotFound, table.Resolve(tt.role, tt.path).Kind)
		})
	}
}

func TestResolve_DefaultRedirects(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		role   domain.Role
		path   string
		target string
	}{
		{domain.RoleAdmin, "/admin", "/admin/dashboard"},
		{domain.RoleAdmin, "/admin/", "/admin/dashboard"},
		{domain.RoleAdmin, "/", "/admin/dashboard"},
		{domain.RoleHospitalAdministrator, "/hospital-admin", "/hospital-admin/dashboard"},
		{domain.RoleReceptionist, "/receptionist", "/receptionist/dashboard"},
		{domain.RoleDoctor, "/", NotAuthorizedPath},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+tt.path, func(t *testing.T) {
			res := table.Resolve(tt.role, tt.path)
			require.Equal(t, Redirect, res.Kind)
			assert.Equal(t, tt.target, res.Target)
		})
	}
}

func TestResolve_TrailingSlash(t *testing.T) {
	res := DefaultTable().Resolve(domain.RoleAdmin, "/admin/dashboard/")

	require.Equal(t, ShowPage, res.Kind)
	assert.Equal(t, PageAdminDashboard, res.Route.Page)
}

func TestResolve_NotAuthorizedForEveryone(t *testing.T) {
	table := DefaultTable()

	for _, role := range append(domain.Roles(), "") {
		res := table.Resolve(role, NotAuthorizedPath)
		require.Equal(t, ShowPage, res.Kind, role)
		assert.Equal(t, PageNotAuthorized, res.Route.Page)
	}
}

func TestResolve_WizardOnlyForAdmin(t *testing.T) {
	table := DefaultTable()
	const path = "/admin/hospital-management/add-hospital"

	res := table.Resolve(domain.RoleAdmin, path)
	require.Equal(t, ShowPage, res.Kind)
	assert.Equal(t, PageHospitalWizard, res.Route.Page)

	for _, role := range domain.Roles() {
		if role == domain.RoleAdmin {
			continue
		}
		assert.Equal(t, NotFound, table.Resolve(role, path).Kind, role)
	}
}

func TestLanding(t *testing.T) {
	table := DefaultTable()

	landing, ok := table.Landing(domain.RoleReceptionist)
	require.True(t, ok)
	assert.Equal(t, "/receptionist/dashboard", landing)

	_, ok = table.Landing(domain.RolePharmacist)
	assert.False(t, ok)

	assert.Equal(t, "/hospital-admin/dashboard", table.LandingOrUnauthorized(domain.RoleHospitalAdministrator))
	assert.Equal(t, NotAuthorizedPath, table.LandingOrUnauthorized(domain.RoleTriage))
}

func TestProfile_RoutesDeduplicates(t *testing.T) {
	p := Profile{
		Menu: []MenuEntry{
			{Name: "A", Route: Route{Path: "/a"}},
			{Name: "B", Route: Route{Path: "/b"}, Children: []MenuLink{{Name: "A again", Route: Route{Path: "/a"}}}},
		},
		Hidden: []Route{{Path: "/c"}, {Path: "/b"}},
	}

	var paths []string
	for _, r := range p.Routes() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/a", "/b", "/c"}, paths)
}

func TestEntry(t *testing.T) {
	table := DefaultTable()

	e, ok := table.Entry(domain.RoleAdmin, "Hospitals")
	require.True(t, ok)
	assert.Equal(t, "/admin/hospital-management", e.Route.Path)

	_, ok = table.Entry(domain.RoleReceptionist, "Hospitals")
	assert.False(t, ok)
}
