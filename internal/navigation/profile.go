// Package navigation holds the per-role console layout: the sidebar menu,
// the reachable routes and the landing page. Each role is described by one
// Profile so that every menu link is always a registered route.
package navigation

import "github.com/bissquit/mediconnect-console/internal/domain"

// Paths reachable regardless of role.
const (
	LoginPath         = "/login"
	LogoutPath        = "/logout"
	NotAuthorizedPath = "/not-authorized"
	MenuTogglePrefix  = "/menu/"
)

// PageID identifies the view rendered for a route.
type PageID string

// Pages.
const (
	PageAdminDashboard     PageID = "admin_dashboard"
	PageHospitalManagement PageID = "hospital_management"
	PageHospitalWizard     PageID = "hospital_wizard"
	PageHospitalDetail     PageID = "hospital_detail"
	PageAdminManagement    PageID = "admin_management"
	PageAddAdmin           PageID = "add_admin"

	PageHospitalAdminDashboard PageID = "hospital_admin_dashboard"
	PageStaffManagement        PageID = "staff_management"
	PageAddStaff               PageID = "add_staff"
	PageEditStaff              PageID = "edit_staff"
	PagePatientRecords         PageID = "patient_records"
	PageViewRecords            PageID = "view_records"
	PageAuditLogs              PageID = "audit_logs"

	PageReceptionistDashboard PageID = "receptionist_dashboard"
	PageReceptionistReviews   PageID = "receptionist_reviews"

	PageNotAuthorized PageID = "not_authorized"
)

// Route binds a path to a page.
type Route struct {
	Path  string
	Page  PageID
	Title string
}

// MenuLink is a sub-entry of a menu entry.
type MenuLink struct {
	Name  string
	Route Route
}

// MenuEntry is a top-level sidebar entry.
type MenuEntry struct {
	Name     string
	Icon     string
	Route    Route
	Children []MenuLink
}

// HasChildren reports whether the entry expands into sub-entries.
func (e MenuEntry) HasChildren() bool {
	return len(e.Children) > 0
}

// Profile is everything the console shows one role.
type Profile struct {
	Role    domain.Role
	Home    string // redirects to Landing
	Landing string
	Menu    []MenuEntry
	Hidden  []Route // reachable but not in the menu
}

// Routes returns the role's route set: menu routes in menu order, then
// hidden routes. Duplicate paths keep their first occurrence.
func (p Profile) Routes() []Route {
	seen := make(map[string]bool)
	var routes []Route

	add := func(r Route) {
		if seen[r.Path] {
			return
		}
		seen[r.Path] = true
		routes = append(routes, r)
	}

	for _, e := range p.Menu {
		add(e.Route)
		for _, c := range e.Children {
			add(c.Route)
		}
	}
	for _, r := range p.Hidden {
		add(r)
	}
	return routes
}

// DefaultProfiles returns the console layout for every role that has one.
// Doctor, Triage, LabTechnician and Pharmacist have no console pages.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Role:    domain.RoleAdmin,
			Home:    "/admin",
			Landing: "/admin/dashboard",
			Menu: []MenuEntry{
				{
					Name:  "Dashboard",
					Icon:  "layout-dashboard",
					Route: Route{Path: "/admin/dashboard", Page: PageAdminDashboard, Title: "Dashboard"},
				},
				{
					Name:  "Hospitals",
					Icon:  "hospital",
					Route: Route{Path: "/admin/hospital-management", Page: PageHospitalManagement, Title: "Hospital Management"},
					Children: []MenuLink{
						{Name: "Add Hospital", Route: Route{Path: "/admin/hospital-management/add-hospital", Page: PageHospitalWizard, Title: "Register Hospital"}},
					},
				},
				{
					Name:  "Hospital Admins",
					Icon:  "user-cog",
					Route: Route{Path: "/admin/admin-management", Page: PageAdminManagement, Title: "Hospital Admin Management"},
					Children: []MenuLink{
						{Name: "Add Admin", Route: Route{Path: "/admin/admin-management/add-admin", Page: PageAddAdmin, Title: "Add Hospital Admin"}},
					},
				},
			},
			Hidden: []Route{
				{Path: "/admin/hospital-detail", Page: PageHospitalDetail, Title: "Hospital Detail"},
			},
		},
		{
			Role:    domain.RoleHospitalAdministrator,
			Home:    "/hospital-admin",
			Landing: "/hospital-admin/dashboard",
			Menu: []MenuEntry{
				{
					Name:  "Dashboard",
					Icon:  "layout-dashboard",
					Route: Route{Path: "/hospital-admin/dashboard", Page: PageHospitalAdminDashboard, Title: "Dashboard"},
				},
				{
					Name:  "Staff",
					Icon:  "user-round",
					Route: Route{Path: "/hospital-admin/staff-management", Page: PageStaffManagement, Title: "Staff Management"},
					Children: []MenuLink{
						{Name: "Add Staff", Route: Route{Path: "/hospital-admin/add-staff", Page: PageAddStaff, Title: "Add New Staff"}},
						{Name: "Edit/View Staff", Route: Route{Path: "/hospital-admin/edit-staff", Page: PageEditStaff, Title: "Edit or View Staff"}},
					},
				},
				{
					Name:  "Patient Records",
					Icon:  "book-open-text",
					Route: Route{Path: "/hospital-admin/patient-records", Page: PagePatientRecords, Title: "Patient Records"},
					Children: []MenuLink{
						{Name: "View Records", Route: Route{Path: "/hospital-admin/view-records", Page: PageViewRecords, Title: "View Records"}},
					},
				},
				{
					Name:  "Audit Logs",
					Icon:  "bar-chart",
					Route: Route{Path: "/hospital-admin/audit-logs", Page: PageAuditLogs, Title: "Record Audit Logs"},
				},
			},
		},
		{
			Role:    domain.RoleReceptionist,
			Home:    "/receptionist",
			Landing: "/receptionist/dashboard",
			Menu: []MenuEntry{
				{
					Name:  "Dashboard",
					Icon:  "layout-dashboard",
					Route: Route{Path: "/receptionist/dashboard", Page: PageReceptionistDashboard, Title: "Dashboard"},
				},
				{
					Name:  "Reviews",
					Icon:  "star",
					Route: Route{Path: "/receptionist/review", Page: PageReceptionistReviews, Title: "Reviews"},
				},
			},
		},
	}
}
