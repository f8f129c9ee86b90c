package navigation

import (
	"testing"

	"github.com/bissquit/mediconnect-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuState_Toggle(t *testing.T) {
	var state MenuState

	assert.False(t, state.IsOpen("Hospitals"))

	assert.True(t, state.Toggle("Hospitals"))
	assert.True(t, state.IsOpen("Hospitals"))
	assert.False(t, state.IsOpen("Hospital Admins"))

	assert.False(t, state.Toggle("Hospitals"))
	assert.False(t, state.IsOpen("Hospitals"))
	assert.Empty(t, state)
}

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive("/admin/hospital-management", "/admin/hospital-management"))
	assert.True(t, IsActive("/admin/hospital-management/add-hospital", "/admin/hospital-management"))
	assert.True(t, IsActive("/admin/dashboard/", "/admin/dashboard"))
	assert.False(t, IsActive("/admin/hospital-management-archive", "/admin/hospital-management"))
	assert.False(t, IsActive("/admin/dashboard", "/admin/hospital-management"))
}

func TestNavigation_Admin(t *testing.T) {
	table := DefaultTable()
	state := MenuState{"Hospitals": true}

	items := table.Navigation(domain.RoleAdmin, "/admin/hospital-management/add-hospital", state)

	require.Len(t, items, 3)

	dashboard := items[0]
	assert.Equal(t, "/admin/dashboard", dashboard.Href)
	assert.False(t, dashboard.Active)
	assert.Empty(t, dashboard.Children)

	hospitals := items[1]
	assert.Equal(t, "/menu/Hospitals", hospitals.Href)
	assert.True(t, hospitals.Active)
	assert.True(t, hospitals.Open)
	require.Len(t, hospitals.Children, 1)
	assert.Equal(t, "Add Hospital", hospitals.Children[0].Name)
	assert.True(t, hospitals.Children[0].Active)

	admins := items[2]
	assert.Equal(t, "/menu/Hospital%20Admins", admins.Href)
	assert.False(t, admins.Open)
	assert.False(t, admins.Active)
}

func TestNavigation_ReceptionistHasNoSubmenus(t *testing.T) {
	items := DefaultTable().Navigation(domain.RoleReceptionist, "/receptionist/review", nil)

	require.Len(t, items, 2)
	assert.Equal(t, "/receptionist/dashboard", items[0].Href)
	assert.False(t, items[0].Active)
	assert.Equal(t, "/receptionist/review", items[1].Href)
	assert.True(t, items[1].Active)
}
